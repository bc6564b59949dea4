// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"iter"
	"sort"

	"github.com/pkg/errors"
)

// A Component is one node in a module's evaluation order: either a cell
// instance or a nested module instance.
type Component struct {
	cell *Cell
	mod  *Module
}

// A Module is a named collection of cells, nested sub-modules, signals and
// ports. Its components are stored in topological order; evaluation walks
// them front to back. A sub-module's port bits alias signals of its parent
// (same handle), so propagation crosses the boundary without copying.
type Module struct {
	name   string // module (type) name from the netlist
	inst   string // instance name within the parent; name for the top
	path   string // fully qualified dotted instance path
	t      *sigTable
	ports  []*Port
	byname map[string]*Port
	owned  []sigID // signals allocated by this module, for toggle totals
	comps  []*Component
	seq    []*Cell
}

// Name returns the module's type name.
func (m *Module) Name() string { return m.name }

// Path returns the module's fully qualified instance path.
func (m *Module) Path() string { return m.path }

// Port returns the named port, or nil.
func (m *Module) Port(name string) *Port {
	return m.byname[name]
}

// PortNames returns the module's port names in declaration order.
func (m *Module) PortNames() []string {
	names := make([]string, len(m.ports))
	for i, p := range m.ports {
		names[i] = p.name
	}
	return names
}

// eval performs one combinational settle over the module tree. A single
// pass suffices: the loader only accepts DAG netlists, and components are
// stored in topological order.
func (m *Module) eval(sc *scratch) {
	for _, c := range m.comps {
		if c.cell != nil {
			c.cell.evalComb(m.t, sc)
		} else {
			c.mod.eval(sc)
		}
	}
}

// sequential appends every sequential cell of the module tree to dst.
func (m *Module) sequential(dst []*Cell) []*Cell {
	dst = append(dst, m.seq...)
	for _, c := range m.comps {
		if c.mod != nil {
			dst = c.mod.sequential(dst)
		}
	}
	return dst
}

// find resolves a module by fully qualified instance path, bare instance
// name or type name, searching pre-order.
func (m *Module) find(q string) *Module {
	if q == m.path || q == m.inst || q == m.name {
		return m
	}
	for _, c := range m.comps {
		if c.mod != nil {
			if r := c.mod.find(q); r != nil {
				return r
			}
		}
	}
	return nil
}

// CellBreakdown counts cell instances per type over the module tree.
func (m *Module) CellBreakdown() map[string]int {
	bd := make(map[string]int)
	m.breakdown(bd)
	return bd
}

func (m *Module) breakdown(bd map[string]int) {
	for _, c := range m.seq {
		bd[c.spec.Type]++
	}
	for _, c := range m.comps {
		if c.cell != nil {
			bd[c.cell.spec.Type]++
		} else {
			c.mod.breakdown(bd)
		}
	}
}

// Area sums the library area over every cell instance in the module tree.
func (m *Module) Area() int {
	a := 0
	for _, c := range m.seq {
		a += c.spec.Area
	}
	for _, c := range m.comps {
		if c.cell != nil {
			a += c.cell.spec.Area
		} else {
			a += c.mod.Area()
		}
	}
	return a
}

// TotalToggleCount sums rising + falling transitions over the module tree.
// Every signal is counted once, in the module that allocated it; aliased
// sub-module port bits belong to the parent.
func (m *Module) TotalToggleCount() uint64 {
	var n uint64
	for _, id := range m.owned {
		r, f := m.t.counts(id)
		n += r + f
	}
	for _, c := range m.comps {
		if c.mod != nil {
			n += c.mod.TotalToggleCount()
		}
	}
	return n
}

// ToggleCount holds per-signal transition counters.
type ToggleCount struct {
	Rising  uint64
	Falling uint64
}

// SignalToggles reports the transition counters of the module's own named
// signals, keyed by debug label.
func (m *Module) SignalToggles() map[string]ToggleCount {
	tc := make(map[string]ToggleCount, len(m.owned))
	for _, id := range m.owned {
		name := m.t.name(id)
		if name == "" {
			continue
		}
		r, f := m.t.counts(id)
		tc[name] = ToggleCount{Rising: r, Falling: f}
	}
	return tc
}

// Names yields the fully qualified instance paths of the module tree in a
// stable pre-order traversal.
func (m *Module) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		m.yieldNames(yield)
	}
}

func (m *Module) yieldNames(yield func(string) bool) bool {
	if !yield(m.path) {
		return false
	}
	for _, c := range m.comps {
		if c.mod != nil && !c.mod.yieldNames(yield) {
			return false
		}
	}
	return true
}

// resolve finds the module named by path, the whole tree when path is
// empty.
func (m *Module) resolve(path []string) (*Module, error) {
	switch len(path) {
	case 0:
		return m, nil
	case 1:
		if sub := m.find(path[0]); sub != nil {
			return sub, nil
		}
		return nil, errors.Errorf("module %q not found", path[0])
	}
	return nil, errors.New("at most one module path expected")
}

// sortedKeys returns the keys of ms in ascending order. Netlist maps are
// unordered; every iteration that affects construction or output goes
// through this for determinism.
func sortedKeys[V any](ms map[string]V) []string {
	keys := make([]string, 0, len(ms))
	for k := range ms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
