// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

// Dir is a port direction.
type Dir int

const (
	DirInput Dir = iota
	DirOutput
	DirInOut
)

func (d Dir) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInOut:
		return "inout"
	}
	return "invalid"
}

// Role marks a port as the design clock or reset.
type Role int

const (
	RoleNone Role = iota
	RoleClock
	RoleReset
)

// A Port is a named, ordered bundle of signals at a module's boundary. The
// bit list is LSB first. The shape and element type describe how integer
// arrays map onto the bits: rows x cols elements of width bits each,
// concatenated row-major, little-endian within each element.
type Port struct {
	name   string
	dir    Dir
	bits   []sigID
	rows   int
	cols   int
	width  int
	signed bool
	role   Role
	t      *sigTable
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// Dir returns the port direction.
func (p *Port) Dir() Dir { return p.dir }

// Role returns the port's configured role.
func (p *Port) Role() Role { return p.role }

// Width returns the port's total bit width.
func (p *Port) Width() int { return len(p.bits) }

// Shape returns the configured rows, cols and element width.
func (p *Port) Shape() (rows, cols, width int) {
	return p.rows, p.cols, p.width
}

// Signed reports whether elements are two's complement.
func (p *Port) Signed() bool { return p.signed }

// configure applies the facade configuration. Shape times element width
// must cover the bit list exactly.
func (p *Port) configure(rows, cols, width int, signed bool, role Role) error {
	if rows < 1 || cols < 1 || width < 1 || width > 64 {
		return errf(KindShapeMismatch, p.name, "invalid shape %dx%d of %d-bit elements", rows, cols, width)
	}
	if rows*cols*width != len(p.bits) {
		return errf(KindPortWidthMismatch, p.name,
			"shape %dx%d of %d-bit elements needs %d bits, port has %d",
			rows, cols, width, rows*cols*width, len(p.bits))
	}
	p.rows, p.cols, p.width, p.signed, p.role = rows, cols, width, signed, role
	return nil
}

// Write assigns an integer array to the port's signals. The full bit image
// is staged and validated before any signal changes, so a failed write
// leaves the design untouched. Toggle counters update as usual on commit.
//
// Output ports and the clock port reject writes.
func (p *Port) Write(vals [][]int64) error {
	if p.dir == DirOutput {
		return errf(KindShapeMismatch, p.name, "write to output port")
	}
	if p.role == RoleClock {
		return errf(KindShapeMismatch, p.name, "write to clock port; the engine drives the clock")
	}
	if len(vals) != p.rows {
		return errf(KindShapeMismatch, p.name, "got %d rows, want %d", len(vals), p.rows)
	}
	staged := make(BitVec, 0, len(p.bits))
	for r, row := range vals {
		if len(row) != p.cols {
			return errf(KindShapeMismatch, p.name, "row %d has %d cols, want %d", r, len(row), p.cols)
		}
		for c, v := range row {
			var err error
			staged, err = appendIntBits(staged, v, p.width, p.signed)
			if err != nil {
				return errf(KindValueOutOfRange, p.name, "element [%d][%d]=%d does not fit %s %d-bit",
					r, c, v, signedness(p.signed), p.width)
			}
		}
	}
	for i, id := range p.bits {
		p.t.set(id, staged[i])
	}
	return nil
}

// Read gathers the port's bits and regroups them into a rows x cols integer
// array per the declared element type.
func (p *Port) Read() [][]int64 {
	bits := p.Bits()
	vals := make([][]int64, p.rows)
	k := 0
	for r := range vals {
		row := make([]int64, p.cols)
		for c := range row {
			row[c] = intFromBits(bits[k:k+p.width], p.signed)
			k += p.width
		}
		vals[r] = row
	}
	return vals
}

// Bits returns the port's current bit values, LSB first.
func (p *Port) Bits() BitVec {
	v := make(BitVec, len(p.bits))
	for i, id := range p.bits {
		v[i] = p.t.get(id)
	}
	return v
}

// BitString renders the port MSB first, for debugging.
func (p *Port) BitString() string {
	return p.Bits().String()
}

func signedness(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}
