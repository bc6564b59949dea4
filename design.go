// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"iter"

	"github.com/pkg/errors"
)

// A PortConfig declares how a top-level port's bits are interpreted: a
// rows x cols array of Width-bit elements, plus an optional clock or reset
// role. Zero values default to a single element covering the whole port; a
// clock or reset port is implicitly 1x1x1.
type PortConfig struct {
	Rows   int
	Cols   int
	Width  int
	Signed bool
	Role   Role
}

// A Config maps top-level port names to their configuration. Ports absent
// from the configuration keep the loader defaults.
type Config map[string]PortConfig

// A Design binds a loaded top module with a port configuration and drives
// evaluation. A Design owns all of its mutable state; distinct Designs
// share nothing and may be used concurrently, but a single Design must not
// be used from multiple goroutines at once.
type Design struct {
	top   *Module
	t     *sigTable
	clock *Port
	reset *Port
	ffs   []*Cell
	sc    scratch
}

// NewDesign loads the netlist at path and binds the module named top with
// the given port configuration.
func NewDesign(top, path string, cfg Config) (*Design, error) {
	m, err := LoadFile(path, top, nil)
	if err != nil {
		return nil, err
	}
	return NewDesignFromModule(m, cfg)
}

// NewDesignFromModule binds a previously loaded module. Every configured
// port must exist with a bit width covered exactly by its shape; at most
// one port may carry the clock role and one the reset role, both 1 bit
// wide.
func NewDesignFromModule(m *Module, cfg Config) (*Design, error) {
	d := &Design{top: m, t: m.t}
	for _, name := range sortedKeys(cfg) {
		pc := cfg[name]
		p := m.Port(name)
		if p == nil {
			return nil, errors.Errorf("port %q not found in module %s", name, m.name)
		}
		rows, cols, width := pc.Rows, pc.Cols, pc.Width
		if pc.Role != RoleNone && p.Width() != 1 {
			return nil, errf(KindPortWidthMismatch, name, "clock/reset port is %d bits wide, must be 1", p.Width())
		}
		if rows == 0 {
			rows = 1
		}
		if cols == 0 {
			cols = 1
		}
		if width == 0 {
			width = p.Width() / (rows * cols)
		}
		if err := p.configure(rows, cols, width, pc.Signed, pc.Role); err != nil {
			return nil, err
		}
		switch pc.Role {
		case RoleClock:
			if d.clock != nil {
				return nil, errors.Errorf("clock role on both %s and %s", d.clock.name, name)
			}
			d.clock = p
		case RoleReset:
			if d.reset != nil {
				return nil, errors.Errorf("reset role on both %s and %s", d.reset.name, name)
			}
			d.reset = p
		}
	}
	d.ffs = m.sequential(nil)
	return d, nil
}

// Top returns the design's top module.
func (d *Design) Top() *Module {
	return d.top
}

// Port returns the named top-level port, or nil.
func (d *Design) Port(name string) *Port {
	return d.top.Port(name)
}

// PortNames returns the top module's port names.
func (d *Design) PortNames() []string {
	return d.top.PortNames()
}

// WritePort assigns an integer array to the named port. See Port.Write.
func (d *Design) WritePort(name string, vals [][]int64) error {
	p := d.top.Port(name)
	if p == nil {
		return errors.Errorf("port %q not found", name)
	}
	return p.Write(vals)
}

// ReadPort reads the named port as an integer array. See Port.Read.
func (d *Design) ReadPort(name string) ([][]int64, error) {
	p := d.top.Port(name)
	if p == nil {
		return nil, errors.Errorf("port %q not found", name)
	}
	return p.Read(), nil
}

// CellBreakdown counts cell instances per type in the named module,
// recursively, or in the whole design when no module is named.
func (d *Design) CellBreakdown(path ...string) (map[string]int, error) {
	m, err := d.top.resolve(path)
	if err != nil {
		return nil, err
	}
	return m.CellBreakdown(), nil
}

// Area sums the library area over the named module's cell instances,
// recursively, or over the whole design when no module is named.
func (d *Design) Area(path ...string) (int, error) {
	m, err := d.top.resolve(path)
	if err != nil {
		return 0, err
	}
	return m.Area(), nil
}

// TotalToggleCount sums rising and falling transitions over the named
// module, recursively, or over the whole design when no module is named.
func (d *Design) TotalToggleCount(path ...string) (uint64, error) {
	m, err := d.top.resolve(path)
	if err != nil {
		return 0, err
	}
	return m.TotalToggleCount(), nil
}

// SignalToggles reports per-net transition counters of the named module
// (its own nets only), or of the top module when no module is named.
func (d *Design) SignalToggles(path ...string) (map[string]ToggleCount, error) {
	m, err := d.top.resolve(path)
	if err != nil {
		return nil, err
	}
	return m.SignalToggles(), nil
}

// ModuleNames yields the fully qualified instance paths of the design's
// module tree in a stable pre-order traversal.
func (d *Design) ModuleNames() iter.Seq[string] {
	return d.top.Names()
}
