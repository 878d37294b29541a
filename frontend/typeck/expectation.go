package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

type expectationKind uint8

const (
	noExpectation expectationKind = iota
	// expectHasType: the expression must end up with this type, possibly
	// after coercion
	expectHasType
	// expectCastableTo: the expression is the operand of a cast to this type
	expectCastableTo
	// expectRvalueLikeUnsized: the expression is behind a reference to an
	// unsized type, such as `&[1, 2]` expected as `&[i32]`
	expectRvalueLikeUnsized
)

// Expectation is the type hint that flows down into an expression
type Expectation struct {
	kind expectationKind
	ty   types.Ty
}

var NoExpectation = Expectation{}

func ExpectHasType(ty types.Ty) Expectation    { return Expectation{kind: expectHasType, ty: ty} }
func ExpectCastableTo(ty types.Ty) Expectation { return Expectation{kind: expectCastableTo, ty: ty} }

// rvalueHint is the expectation for an expression whose value will be
// borrowed as ty
func rvalueHint(fcx *FnCtxt, ty types.Ty) Expectation {
	if !types.IsSized(fcx.infcx.ShallowResolve(ty)) {
		return Expectation{kind: expectRvalueLikeUnsized, ty: ty}
	}
	return ExpectHasType(ty)
}

// resolve shallow-resolves the hint
func (e Expectation) resolve(fcx *FnCtxt) Expectation {
	if e.kind == noExpectation {
		return e
	}
	return Expectation{kind: e.kind, ty: fcx.infcx.ShallowResolve(e.ty)}
}

// toOption returns the hint, whatever its strength
func (e Expectation) toOption(fcx *FnCtxt) types.Ty {
	if e.kind == noExpectation {
		return nil
	}
	return e.resolve(fcx).ty
}

// onlyHasType returns the type the expression must have, if any
func (e Expectation) onlyHasType(fcx *FnCtxt) types.Ty {
	if e.kind != expectHasType {
		return nil
	}
	return fcx.infcx.ShallowResolve(e.ty)
}

// coercionTarget is what a CoerceMany should merge into for this
// expectation: the expected type, or a fresh variable
func (e Expectation) coercionTarget(fcx *FnCtxt, span ast.Range) types.Ty {
	if ty := e.onlyHasType(fcx); ty != nil {
		return ty
	}
	return fcx.infcx.NextTyVar(span)
}

// adjustForBranches keeps a hint for the arms of an if only when it
// says something concrete
func (e Expectation) adjustForBranches(fcx *FnCtxt) Expectation {
	if e.kind != expectHasType {
		return NoExpectation
	}
	if ty := fcx.infcx.ShallowResolve(e.ty); !types.IsTyVar(ty) {
		return ExpectHasType(ty)
	}
	return NoExpectation
}
