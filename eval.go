package gatesim

import "github.com/pkg/errors"

// Eval performs one combinational settle of the whole design. Because the
// loader only accepts DAG netlists, a single topological pass converges;
// calling Eval again with unchanged inputs changes no signal and counts no
// toggles.
func (d *Design) Eval() {
	d.top.eval(&d.sc)
	d.t.commitPrev()
}

// EvalClocked advances the design by one clock cycle: settle, sample every
// flip-flop's data inputs, drive the clock net high, commit all new outputs
// at the same logical edge, settle, return the clock net low and settle
// once more.
//
// A flip-flop whose library entry declares a reset pin follows that pin; all
// others clear to 0 on the edge while the design-level reset port reads 1.
func (d *Design) EvalClocked() error {
	if d.clock == nil {
		return errors.New("no clock port configured")
	}
	d.top.eval(&d.sc)

	rst := d.reset != nil && d.t.get(d.reset.bits[0])
	next := d.sc.next[:0]
	for _, ff := range d.ffs {
		next = ff.sampleNext(d.t, rst, next)
	}
	d.sc.next = next

	d.t.set(d.clock.bits[0], true)
	k := 0
	for _, ff := range d.ffs {
		for _, id := range ff.out {
			d.t.set(id, next[k])
			k++
		}
	}
	d.top.eval(&d.sc)
	d.t.set(d.clock.bits[0], false)
	d.top.eval(&d.sc)
	d.t.commitPrev()
	return nil
}

// Reset clears every net and flip-flop output to 0 and zeros all toggle
// counters.
func (d *Design) Reset() {
	d.t.zeroValues()
	d.t.zeroCounts()
}

// ResetClocked asserts the reset port for one clocked cycle, then releases
// it and settles. Flip-flops without a reset pin of their own clear
// synchronously; those with one follow their pin. Toggle counters are left
// intact.
func (d *Design) ResetClocked() error {
	if d.reset == nil {
		return errors.New("no reset port configured")
	}
	d.t.set(d.reset.bits[0], true)
	if err := d.EvalClocked(); err != nil {
		return err
	}
	d.t.set(d.reset.bits[0], false)
	d.top.eval(&d.sc)
	d.t.commitPrev()
	return nil
}

// ResetToggleCounts zeros all toggle counters without touching signal
// values.
func (d *Design) ResetToggleCounts() {
	d.t.zeroCounts()
}
