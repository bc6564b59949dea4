package gatesim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/db47h/gatesim"
)

// pass16 forwards a 16-bit input bus through buffers.
func pass16Netlist() string {
	doc := `{"modules": {"pass16": {"ports": {
		"clk": {"direction": "input", "bits": [50]},
		"a": {"direction": "input", "bits": [2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17]},
		"y": {"direction": "output", "bits": [20,21,22,23,24,25,26,27,28,29,30,31,32,33,34,35]}},
		"cells": {`
	for i := 0; i < 16; i++ {
		if i > 0 {
			doc += ","
		}
		doc += `"b` + string(rune('a'+i)) + `": {"type": "BUF",
			"port_directions": {"A": "input", "Y": "output"},
			"connections": {"A": [` + itoa(2+i) + `], "Y": [` + itoa(20+i) + `]}}`
	}
	return doc + `}}}}`
}

func itoa(n int) string {
	if n >= 10 {
		return string(rune('0'+n/10)) + string(rune('0'+n%10))
	}
	return string(rune('0' + n))
}

func pass16Design(t *testing.T, cfg gatesim.Config) *gatesim.Design {
	t.Helper()
	m := loadString(t, pass16Netlist(), "pass16", nil)
	d, err := gatesim.NewDesignFromModule(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestPortRoundTrip(t *testing.T) {
	assert := assert.New(t)
	d := pass16Design(t, gatesim.Config{
		"clk": {Role: gatesim.RoleClock},
		"a":   {Rows: 2, Cols: 2, Width: 4, Signed: true},
		"y":   {Width: 16},
	})

	in := [][]int64{{-8, 7}, {-1, 0}}
	assert.NoError(d.WritePort("a", in))
	got, err := d.ReadPort("a")
	assert.NoError(err)
	assert.Equal(in, got)

	// row-major, little-endian within each element
	d.Eval()
	y, err := d.ReadPort("y")
	assert.NoError(err)
	assert.Equal(int64(0x0f78), y[0][0])
}

func TestPortShapeMismatch(t *testing.T) {
	assert := assert.New(t)
	d := pass16Design(t, gatesim.Config{
		"clk": {Role: gatesim.RoleClock},
		"a":   {Cols: 16, Width: 1},
	})

	// 1x15 into a 1x16 port
	err := d.WritePort("a", [][]int64{{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}})
	assert.Equal(gatesim.KindShapeMismatch, gatesim.KindOf(err))

	// state unchanged
	got, err := d.ReadPort("a")
	assert.NoError(err)
	assert.Equal(make([]int64, 16), got[0])
	n, err := d.TotalToggleCount()
	assert.NoError(err)
	assert.Zero(n)

	err = d.WritePort("a", [][]int64{{1}, {2}})
	assert.Equal(gatesim.KindShapeMismatch, gatesim.KindOf(err))
}

func TestPortValueRange(t *testing.T) {
	assert := assert.New(t)
	d := pass16Design(t, gatesim.Config{
		"clk": {Role: gatesim.RoleClock},
		"a":   {Cols: 4, Width: 4, Signed: true},
	})

	// signed extrema round-trip exactly
	in := [][]int64{{-8, 7, -8, 7}}
	assert.NoError(d.WritePort("a", in))
	got, err := d.ReadPort("a")
	assert.NoError(err)
	assert.Equal(in, got)

	// one past the maximum is rejected, and the staged write leaves the
	// port untouched even when earlier elements were valid
	err = d.WritePort("a", [][]int64{{0, 0, 8, 0}})
	assert.Equal(gatesim.KindValueOutOfRange, gatesim.KindOf(err))
	err = d.WritePort("a", [][]int64{{0, 0, -9, 0}})
	assert.Equal(gatesim.KindValueOutOfRange, gatesim.KindOf(err))
	got, err = d.ReadPort("a")
	assert.NoError(err)
	assert.Equal(in, got)
}

func TestPortWriteRestrictions(t *testing.T) {
	assert := assert.New(t)
	d := pass16Design(t, gatesim.Config{
		"clk": {Role: gatesim.RoleClock},
		"a":   {Width: 16},
		"y":   {Width: 16},
	})

	// the engine owns the clock
	err := d.WritePort("clk", [][]int64{{1}})
	assert.Equal(gatesim.KindShapeMismatch, gatesim.KindOf(err))

	// output ports reject writes, reading them is fine
	err = d.WritePort("y", [][]int64{{42}})
	assert.Equal(gatesim.KindShapeMismatch, gatesim.KindOf(err))
	_, err = d.ReadPort("y")
	assert.NoError(err)

	// reading the clock is permitted, if rarely useful
	v, err := d.ReadPort("clk")
	assert.NoError(err)
	assert.Zero(v[0][0])
}

func TestPortConfigValidation(t *testing.T) {
	assert := assert.New(t)
	m := loadString(t, pass16Netlist(), "pass16", nil)

	_, err := gatesim.NewDesignFromModule(m, gatesim.Config{
		"a": {Rows: 1, Cols: 3, Width: 4},
	})
	assert.Equal(gatesim.KindPortWidthMismatch, gatesim.KindOf(err))

	_, err = gatesim.NewDesignFromModule(m, gatesim.Config{
		"nonesuch": {},
	})
	assert.Error(err)

	// the clock role demands a 1-bit port
	_, err = gatesim.NewDesignFromModule(m, gatesim.Config{
		"a": {Role: gatesim.RoleClock},
	})
	assert.Equal(gatesim.KindPortWidthMismatch, gatesim.KindOf(err))
}
