// Package traits decides whether predicates hold: it keeps the pending
// obligations of one body and selects impls, where-clauses and builtin
// rules for them as inference makes progress.
package traits

import (
	"fmt"
	"hash/fnv"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

type CauseCode uint8

const (
	MiscObligation CauseCode = iota
	// ItemObligation is a bound of Cause.Item, the BoundIndex-th one
	ItemObligation
	WellFormedObligation
	SizedLocal
	SizedArgument
	SizedReturn
	BinOpObligation
	CallObligation
	ProjectionObligation
	// ImplDerived is a nested obligation of a selected impl
	ImplDerived
)

// Cause says why an obligation exists, so that diagnostics can point at the
// right place
type Cause struct {
	Span       ast.Range
	Code       CauseCode
	Item       ast.DefID
	BoundIndex int
}

func MiscCause(span ast.Range) Cause {
	return Cause{Span: span, Code: MiscObligation, BoundIndex: -1}
}

func ItemCause(span ast.Range, item ast.DefID, bound int) Cause {
	return Cause{Span: span, Code: ItemObligation, Item: item, BoundIndex: bound}
}

type Obligation struct {
	Cause     Cause
	Predicate types.Predicate
	// depth counts how many impls were selected to reach this obligation
	depth int
}

func (o *Obligation) String() string {
	return fmt.Sprintf("%v (%v)", o.Predicate, o.Cause.Span)
}

// Error is an obligation that does not hold, or that could not be decided
// once nothing else was going to be learnt
type Error struct {
	Obligation *Obligation
	Ambiguous  bool
	// Overflow is set when selection recursed too deep
	Overflow bool
}

func (e *Error) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("cannot decide `%v`", e.Obligation.Predicate)
	}
	return fmt.Sprintf("`%v` does not hold", e.Obligation.Predicate)
}

// predicateHasher hashes predicates by their printed form, which is
// injective enough once inference variables are resolved
type predicateHasher struct{}

func (predicateHasher) Hash(p types.Predicate) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(p.String()))
	return h.Sum32()
}

func (predicateHasher) Equal(a, b types.Predicate) bool {
	return a.String() == b.String()
}
