// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"github.com/pkg/errors"
)

// A Pin declares one named connection point of a library cell. Built-in
// gates use 1-bit pins; composite cells may declare wider ones.
type Pin struct {
	Name  string
	Width int
}

// An EvalFn computes a cell's output bits from its input bits. in holds the
// input pin bits concatenated in declared order, out the output pin bits
// likewise. Evaluators must be deterministic and side-effect free.
type EvalFn func(in, out BitVec)

// A CellSpec is a cell library entry: pin lists, area and behavior. Area is
// a unitless transistor count proxy.
//
// Sequential cells declare a clock pin (sampled on the rising edge by the
// engine) and may declare a reset pin; neither is part of the data inputs
// fed to the next-state sampling. A sequential cell's remaining input width
// must equal its output width.
type CellSpec struct {
	Type       string
	Inputs     []Pin
	Outputs    []Pin
	Area       int
	Sequential bool
	ClockPin   string
	ResetPin   string
	Eval       EvalFn
}

func pinsWidth(pins []Pin) int {
	w := 0
	for _, p := range pins {
		w += p.Width
	}
	return w
}

// dataPins returns the input pins fed to next-state sampling, excluding the
// clock and reset pins of a sequential cell.
func (s *CellSpec) dataPins() []Pin {
	if !s.Sequential {
		return s.Inputs
	}
	pins := make([]Pin, 0, len(s.Inputs))
	for _, p := range s.Inputs {
		if p.Name == s.ClockPin || p.Name == s.ResetPin {
			continue
		}
		pins = append(pins, p)
	}
	return pins
}

// A Library maps cell type names to their specs. The default library is
// process-wide and read-only after initialization; distinct libraries may
// be built for tests or exotic cell sets.
type Library struct {
	m map[string]*CellSpec
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{m: make(map[string]*CellSpec)}
}

// Register adds a cell spec to the library. The spec is validated: distinct
// non-empty pin names, positive pin widths, area >= 0, an evaluator for
// combinational cells, and a declared clock pin for sequential ones.
func (l *Library) Register(s *CellSpec) error {
	if s.Type == "" {
		return errors.New("empty cell type name")
	}
	if _, ok := l.m[s.Type]; ok {
		return errors.New("cell type " + s.Type + " already registered")
	}
	if s.Area < 0 {
		return errors.New("negative area for cell type " + s.Type)
	}
	seen := make(map[string]bool)
	for _, p := range append(append([]Pin{}, s.Inputs...), s.Outputs...) {
		if p.Name == "" || p.Width < 1 {
			return errors.Errorf("invalid pin %q on cell type %s", p.Name, s.Type)
		}
		if seen[p.Name] {
			return errors.Errorf("duplicate pin %q on cell type %s", p.Name, s.Type)
		}
		seen[p.Name] = true
	}
	if s.Sequential {
		pinWidth := func(name string) int {
			for _, p := range s.Inputs {
				if p.Name == name {
					return p.Width
				}
			}
			return 0
		}
		if pinWidth(s.ClockPin) != 1 {
			return errors.Errorf("sequential cell type %s needs a 1-bit input clock pin %q", s.Type, s.ClockPin)
		}
		if s.ResetPin != "" && pinWidth(s.ResetPin) != 1 {
			return errors.Errorf("sequential cell type %s needs a 1-bit input reset pin %q", s.Type, s.ResetPin)
		}
		if pinsWidth(s.dataPins()) != pinsWidth(s.Outputs) {
			return errors.Errorf("sequential cell type %s: data width != output width", s.Type)
		}
	} else if s.Eval == nil {
		return errors.New("no evaluator for combinational cell type " + s.Type)
	}
	l.m[s.Type] = s
	return nil
}

// Clone returns a copy of the library that can be extended with Register
// without affecting the original. Specs are shared, not copied.
func (l *Library) Clone() *Library {
	c := &Library{m: make(map[string]*CellSpec, len(l.m))}
	for k, v := range l.m {
		c.m[k] = v
	}
	return c
}

// Lookup returns the spec registered under name, or nil.
func (l *Library) Lookup(name string) *CellSpec {
	return l.m[name]
}

// Types returns the number of registered cell types.
func (l *Library) Types() int {
	return len(l.m)
}

func gate1(f func(a Bit) Bit) EvalFn {
	return func(in, out BitVec) { out[0] = f(in[0]) }
}

func gate2(f func(a, b Bit) Bit) EvalFn {
	return func(in, out BitVec) { out[0] = f(in[0], in[1]) }
}

var (
	pinA  = Pin{"A", 1}
	pinB  = Pin{"B", 1}
	pinY  = Pin{"Y", 1}
	in1   = []Pin{pinA}
	in2   = []Pin{pinA, pinB}
	out1  = []Pin{pinY}
	gates = []*CellSpec{
		{Type: "BUF", Inputs: in1, Outputs: out1, Area: 4,
			Eval: gate1(func(a Bit) Bit { return a })},
		{Type: "NOT", Inputs: in1, Outputs: out1, Area: 2,
			Eval: gate1(func(a Bit) Bit { return !a })},
		{Type: "AND", Inputs: in2, Outputs: out1, Area: 6,
			Eval: gate2(func(a, b Bit) Bit { return a && b })},
		{Type: "OR", Inputs: in2, Outputs: out1, Area: 6,
			Eval: gate2(func(a, b Bit) Bit { return a || b })},
		{Type: "NAND", Inputs: in2, Outputs: out1, Area: 4,
			Eval: gate2(func(a, b Bit) Bit { return !(a && b) })},
		{Type: "NOR", Inputs: in2, Outputs: out1, Area: 4,
			Eval: gate2(func(a, b Bit) Bit { return !(a || b) })},
		{Type: "XOR", Inputs: in2, Outputs: out1, Area: 8,
			Eval: gate2(func(a, b Bit) Bit { return a != b })},
		{Type: "XNOR", Inputs: in2, Outputs: out1, Area: 8,
			Eval: gate2(func(a, b Bit) Bit { return a == b })},
		{Type: "FULL_ADDER", Area: 28,
			Inputs:  []Pin{pinA, pinB, {"CI", 1}},
			Outputs: []Pin{{"S", 1}, {"CO", 1}},
			Eval: func(in, out BitVec) {
				a, b, ci := in[0], in[1], in[2]
				out[0] = (a != b) != ci
				out[1] = a && b || ci && (a != b)
			}},
		{Type: "DFF", Area: 8, Sequential: true, ClockPin: "C",
			Inputs:  []Pin{{"C", 1}, {"D", 1}},
			Outputs: []Pin{{"Q", 1}}},
	}
)

var defaultLib = func() *Library {
	l := NewLibrary()
	for _, s := range gates {
		if err := l.Register(s); err != nil {
			panic(err)
		}
	}
	return l
}()

// DefaultLibrary returns the process-wide cell library holding the built-in
// gates. Callers must not register cells on it after designs have started
// loading; concurrent reads are safe.
func DefaultLibrary() *Library {
	return defaultLib
}
