package gatesim_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/db47h/gatesim"
)

// macLibrary extends the default library with the composite cells of a
// 16-lane 8-bit signed multiply-accumulate datapath: a signed 8x8
// multiplier and a 32-bit accumulate step with sign extension.
func macLibrary(t *testing.T) *gatesim.Library {
	t.Helper()
	lib := gatesim.DefaultLibrary().Clone()

	err := lib.Register(&gatesim.CellSpec{
		Type: "SMUL8",
		Area: 400,
		Inputs: []gatesim.Pin{
			{Name: "A", Width: 8},
			{Name: "B", Width: 8},
		},
		Outputs: []gatesim.Pin{{Name: "P", Width: 16}},
		Eval: func(in, out gatesim.BitVec) {
			a, _ := in[:8].Int64()
			b, _ := in[8:16].Int64()
			p, _ := gatesim.IntBits(a*b, 16)
			copy(out, p)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = lib.Register(&gatesim.CellSpec{
		Type: "MACSTEP",
		Area: 300,
		Inputs: []gatesim.Pin{
			{Name: "A", Width: 32},
			{Name: "B", Width: 16},
		},
		Outputs: []gatesim.Pin{{Name: "Y", Width: 32}},
		Eval: func(in, out gatesim.BitVec) {
			a, _ := in[:32].Int64()
			b, _ := in[32:48].Int64()
			y, _ := gatesim.IntBits(int64(int32(a+b)), 32)
			copy(out, y)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

func seq(start, n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = start + i
	}
	return s
}

// macNetlist builds the netlist of the MAC: 16 multipliers, a 16-deep
// accumulate chain folding the previous accumulator value back in, and 32
// flip-flops holding the accumulator.
func macNetlist(t *testing.T) string {
	t.Helper()
	type obj = map[string]interface{}

	ports := obj{
		"clk":   obj{"direction": "input", "bits": []int{2}},
		"rst":   obj{"direction": "input", "bits": []int{3}},
		"op0":   obj{"direction": "input", "bits": seq(4, 128)},
		"op1":   obj{"direction": "input", "bits": seq(132, 128)},
		"mac_o": obj{"direction": "output", "bits": seq(260, 32)},
	}
	cells := obj{}
	for i := 0; i < 16; i++ {
		cells[fmt.Sprintf("mul%02d", i)] = obj{
			"type":            "SMUL8",
			"port_directions": obj{"A": "input", "B": "input", "P": "output"},
			"connections": obj{
				"A": seq(4+8*i, 8),
				"B": seq(132+8*i, 8),
				"P": seq(300+16*i, 16),
			},
		}
	}
	prev := seq(260, 32) // accumulator flip-flop outputs
	for i := 0; i < 16; i++ {
		y := seq(600+32*i, 32)
		cells[fmt.Sprintf("step%02d", i)] = obj{
			"type":            "MACSTEP",
			"port_directions": obj{"A": "input", "B": "input", "Y": "output"},
			"connections": obj{
				"A": prev,
				"B": seq(300+16*i, 16),
				"Y": y,
			},
		}
		prev = y
	}
	for j := 0; j < 32; j++ {
		cells[fmt.Sprintf("ff%02d", j)] = obj{
			"type":            "DFF",
			"port_directions": obj{"C": "input", "D": "input", "Q": "output"},
			"connections": obj{
				"C": []int{2},
				"D": []int{prev[j]},
				"Q": []int{260 + j},
			},
		}
	}

	doc, err := json.Marshal(obj{"modules": obj{"mac16": obj{"ports": ports, "cells": cells}}})
	if err != nil {
		t.Fatal(err)
	}
	return string(doc)
}

func macDesign(t *testing.T) *gatesim.Design {
	t.Helper()
	m := loadString(t, macNetlist(t), "mac16", macLibrary(t))
	d, err := gatesim.NewDesignFromModule(m, gatesim.Config{
		"clk":   {Role: gatesim.RoleClock},
		"rst":   {Role: gatesim.RoleReset},
		"op0":   {Rows: 1, Cols: 16, Width: 8, Signed: true},
		"op1":   {Rows: 1, Cols: 16, Width: 8, Signed: true},
		"mac_o": {Width: 32, Signed: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func lanes16() [][]int64 {
	row := make([]int64, 16)
	for i := range row {
		row[i] = int64(i + 1)
	}
	return [][]int64{row}
}

func readMac(t *testing.T, d *gatesim.Design) int64 {
	t.Helper()
	v, err := d.ReadPort("mac_o")
	if err != nil {
		t.Fatal(err)
	}
	return v[0][0]
}

func Test_mac_one_cycle(t *testing.T) {
	d := macDesign(t)

	d.Reset()
	if err := d.WritePort("op0", lanes16()); err != nil {
		t.Fatal(err)
	}
	if err := d.WritePort("op1", lanes16()); err != nil {
		t.Fatal(err)
	}
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}
	// sum i*i for i = 1..16
	if got := readMac(t, d); got != 1496 {
		t.Fatalf("mac_o = %d, want 1496", got)
	}
}

func Test_mac_reset_cycle(t *testing.T) {
	d := macDesign(t)

	d.Reset()
	if err := d.WritePort("op0", lanes16()); err != nil {
		t.Fatal(err)
	}
	if err := d.WritePort("op1", lanes16()); err != nil {
		t.Fatal(err)
	}
	// cycle 1 with reset asserted clears the accumulator at the edge
	if err := d.WritePort("rst", [][]int64{{1}}); err != nil {
		t.Fatal(err)
	}
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}
	if got := readMac(t, d); got != 0 {
		t.Fatalf("mac_o = %d after reset cycle", got)
	}
	// cycle 2 accumulates one dot product
	if err := d.WritePort("rst", [][]int64{{0}}); err != nil {
		t.Fatal(err)
	}
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}
	if got := readMac(t, d); got != 1496 {
		t.Fatalf("mac_o = %d, want 1496", got)
	}
}

func Test_mac_random(t *testing.T) {
	const cycles = 200

	d := macDesign(t)
	rng := rand.New(rand.NewSource(42))

	d.Reset()
	var acc int32
	for cycle := 0; cycle < cycles; cycle++ {
		op0, op1 := make([]int64, 16), make([]int64, 16)
		for i := range op0 {
			op0[i] = int64(int8(rng.Int()))
			op1[i] = int64(int8(rng.Int()))
			acc += int32(op0[i] * op1[i])
		}
		if err := d.WritePort("op0", [][]int64{op0}); err != nil {
			t.Fatal(err)
		}
		if err := d.WritePort("op1", [][]int64{op1}); err != nil {
			t.Fatal(err)
		}
		if err := d.EvalClocked(); err != nil {
			t.Fatal(err)
		}
		if got := readMac(t, d); got != int64(acc) {
			t.Fatalf("cycle %d: mac_o = %d, want %d", cycle, got, acc)
		}
	}

	total, err := d.TotalToggleCount()
	if err != nil {
		t.Fatal(err)
	}
	if total == 0 {
		t.Fatal("no switching activity recorded")
	}
	t.Logf("%.1f toggles/cycle", float64(total)/cycles)
}

func Test_mac_stats(t *testing.T) {
	d := macDesign(t)

	bd, err := d.CellBreakdown()
	if err != nil {
		t.Fatal(err)
	}
	if bd["SMUL8"] != 16 || bd["MACSTEP"] != 16 || bd["DFF"] != 32 {
		t.Errorf("breakdown: %v", bd)
	}
	area, err := d.Area()
	if err != nil {
		t.Fatal(err)
	}
	if want := 16*400 + 16*300 + 32*8; area != want {
		t.Errorf("area = %d, want %d", area, want)
	}
}
