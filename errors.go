package gatesim

import (
	"errors"
	"fmt"
)

// Kind classifies the errors surfaced by the loader, the port surface and
// the design facade. Evaluation itself never fails once a design has been
// constructed, except that EvalClocked and ResetClocked report an error
// when the design has no clock (or, for ResetClocked, no reset) port.
type Kind int

const (
	KindNone Kind = iota
	// KindNetlistParse reports a syntactic or structural problem in the
	// netlist document.
	KindNetlistParse
	// KindUnknownCellType reports a cell instance whose type is neither a
	// library cell nor a module of the document.
	KindUnknownCellType
	// KindMultiDriver reports a net with more than one writer.
	KindMultiDriver
	// KindCombinationalCycle reports a cycle among combinational cells.
	KindCombinationalCycle
	// KindPortWidthMismatch reports a port whose declared width disagrees
	// with its bit list or with the facade configuration.
	KindPortWidthMismatch
	// KindPinMismatch reports a cell instance whose pins do not match its
	// library declaration.
	KindPinMismatch
	// KindBadConstantLiteral reports a bit entry that is neither an integer
	// net id >= 2 nor the literal "0" or "1".
	KindBadConstantLiteral
	// KindShapeMismatch reports a port read or write with the wrong rows,
	// cols or element width.
	KindShapeMismatch
	// KindValueOutOfRange reports an integer that does not fit the declared
	// signed or unsigned element width.
	KindValueOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindNetlistParse:
		return "netlist parse error"
	case KindUnknownCellType:
		return "unknown cell type"
	case KindMultiDriver:
		return "multiple drivers"
	case KindCombinationalCycle:
		return "combinational cycle"
	case KindPortWidthMismatch:
		return "port width mismatch"
	case KindPinMismatch:
		return "pin mismatch"
	case KindBadConstantLiteral:
		return "bad constant literal"
	case KindShapeMismatch:
		return "shape mismatch"
	case KindValueOutOfRange:
		return "value out of range"
	}
	return "unknown error"
}

// Error is the concrete error type produced by this package. Ident names
// the offending net, cell, pin or port.
type Error struct {
	Kind  Kind
	Ident string
	Msg   string
}

func (e *Error) Error() string {
	if e.Ident == "" {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + " " + e.Ident + ": " + e.Msg
}

func errf(k Kind, ident, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Ident: ident, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, unwrapping as needed, or KindNone if err
// was not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
