package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

// checkPat gives pat and its bindings a type compatible with expected,
// the type of the value it matches. It returns false when the pattern
// cannot match expected at all.
func (fcx *FnCtxt) checkPat(pat ast.Pat, expected types.Ty) bool {
	switch pat := pat.(type) {
	case *ast.WildPat:
		fcx.WriteTy(pat, expected)
		return true

	case *ast.BindingPat:
		if types.IsError(fcx.infcx.ShallowResolve(expected)) {
			fcx.WriteTy(pat, types.Err)
			if pat.Sub != nil {
				fcx.checkPat(pat.Sub, types.Err)
			}
			return false
		}
		local := fcx.localTy(ast.RangeOf(pat), pat.ID())
		// `ref x` binds a reference to the matched value
		bound := expected
		if pat.ByRef {
			bound = &types.Ref{Region: fcx.infcx.NextRegionVar(), Mut: pat.Mut, Elem: expected}
		}
		ok := fcx.demandEq(pat, local.Decl, bound)
		fcx.WriteTy(pat, local.Decl)
		if pat.Sub != nil && !fcx.checkPat(pat.Sub, expected) {
			ok = false
		}
		return ok

	case *ast.TuplePat:
		elems := make([]types.Ty, len(pat.Elems))
		for i := range elems {
			elems[i] = fcx.infcx.NextTyVar(ast.RangeOf(pat.Elems[i]))
		}
		tuple := types.MkTuple(elems...)
		if !fcx.demandEq(pat, expected, tuple) {
			for _, elem := range pat.Elems {
				fcx.checkPat(elem, types.Err)
			}
			fcx.WriteTy(pat, types.MkTuple(fcx.errTys(len(elems))...))
			return false
		}
		ok := true
		for i, elem := range pat.Elems {
			ok = fcx.checkPat(elem, elems[i]) && ok
		}
		fcx.WriteTy(pat, tuple)
		return ok

	case *ast.LitPat:
		litTy := fcx.checkExpr(pat.Lit)
		// a literal pattern matches values it can be compared with
		ok := fcx.demandSuptype(ast.RangeOf(pat), expected, litTy)
		fcx.WriteTy(pat, expected)
		return ok
	}
	return false
}
