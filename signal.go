package gatesim

// A sigID is a stable handle into a design-wide signal table.
type sigID int32

// Slots 0 and 1 hold the shared constant signals, matching the reserved bit
// ids of the netlist format.
const (
	sigConst0 sigID = 0
	sigConst1 sigID = 1
	sigFirst  sigID = 2
)

// signal is a single-bit net. prev is the value the signal had when the
// last evaluation pass completed.
type signal struct {
	name  string
	bit   Bit
	prev  Bit
	rises uint64
	falls uint64
	cst   bool
}

// sigTable owns every signal of a design. Modules, cells and ports hold
// sigIDs into it; signals are created by the loader only.
type sigTable struct {
	sigs []signal
}

func newSigTable() *sigTable {
	return &sigTable{sigs: []signal{
		{name: "1'b0", cst: true},
		{name: "1'b1", bit: true, cst: true},
	}}
}

func (t *sigTable) alloc() sigID {
	t.sigs = append(t.sigs, signal{})
	return sigID(len(t.sigs) - 1)
}

func (t *sigTable) get(id sigID) Bit {
	return t.sigs[id].bit
}

func (t *sigTable) prev(id sigID) Bit {
	return t.sigs[id].prev
}

// set writes a bit, updating the toggle counters. Writes to constants and
// writes of the current value are no-ops.
func (t *sigTable) set(id sigID, b Bit) {
	s := &t.sigs[id]
	if s.cst || s.bit == b {
		return
	}
	if b {
		s.rises++
	} else {
		s.falls++
	}
	s.bit = b
}

func (t *sigTable) name(id sigID) string {
	return t.sigs[id].name
}

func (t *sigTable) setName(id sigID, name string) {
	if !t.sigs[id].cst {
		t.sigs[id].name = name
	}
}

func (t *sigTable) counts(id sigID) (rising, falling uint64) {
	return t.sigs[id].rises, t.sigs[id].falls
}

// commitPrev records the settled values. It runs after every completed
// evaluation pass so that prev == bit holds between passes.
func (t *sigTable) commitPrev() {
	for i := range t.sigs {
		t.sigs[i].prev = t.sigs[i].bit
	}
}

// zeroValues clears every net to 0 without counting transitions.
func (t *sigTable) zeroValues() {
	for i := range t.sigs {
		if s := &t.sigs[i]; !s.cst {
			s.bit = false
			s.prev = false
		}
	}
}

// zeroCounts clears the toggle counters, leaving values untouched.
func (t *sigTable) zeroCounts() {
	for i := range t.sigs {
		t.sigs[i].rises = 0
		t.sigs[i].falls = 0
	}
}
