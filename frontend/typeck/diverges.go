package typeck

import (
	"fmt"

	"github.com/cottand/typeck/frontend/ast"
)

type divergeState uint8

const (
	// divergesMaybe means control may reach the current point
	divergesMaybe divergeState = iota
	// divergesAlways means it cannot, because of the expression at Span
	divergesAlways
	// divergesWarnedAlways is divergesAlways once the unreachable code
	// after it was reported
	divergesWarnedAlways
)

// Diverges tracks whether the code being checked is reachable. Values are
// ordered Maybe < Always < WarnedAlways and combine by taking the max.
type Diverges struct {
	state divergeState
	// Span is the expression that diverges
	Span ast.Range
	// Note explains why it diverges, when that is not obvious from Span
	Note string
}

var DivergesMaybe = Diverges{}

func DivergesAlways(span ast.Range, note string) Diverges {
	return Diverges{state: divergesAlways, Span: span, Note: note}
}

var DivergesWarnedAlways = Diverges{state: divergesWarnedAlways}

// IsAlways is true when control never reaches the current point
func (d Diverges) IsAlways() bool {
	return d.state >= divergesAlways
}

// Or is the join of the lattice
func (d Diverges) Or(other Diverges) Diverges {
	if other.state > d.state {
		return other
	}
	return d
}

// And is the meet of the lattice: the code after two branches only
// diverges when both do
func (d Diverges) And(other Diverges) Diverges {
	if other.state < d.state {
		return other
	}
	return d
}

func (d Diverges) String() string {
	switch d.state {
	case divergesMaybe:
		return "Maybe"
	case divergesAlways:
		return fmt.Sprintf("Always(%v)", d.Span)
	default:
		return "WarnedAlways"
	}
}
