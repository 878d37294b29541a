package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// castCheck is a cast whose validity is decided once the body was checked,
// when both sides are as resolved as they will get
type castCheck struct {
	expr   *ast.Cast
	exprTy types.Ty
	castTy types.Ty
}

func (fcx *FnCtxt) checkCastExpr(cast *ast.Cast) types.Ty {
	user := fcx.lowerUserTy(cast.Type)
	fcx.WriteUserTypeAnnotationFromTy(cast.Type.ID(), user)
	castTy := fcx.normalize(user, traits.MiscCause(ast.RangeOf(cast.Type)))

	exprTy := fcx.checkExprWithExpectation(cast.Operand, ExpectCastableTo(castTy))
	if types.ReferencesError(exprTy) || types.ReferencesError(castTy) {
		return types.Err
	}
	fcx.deferred.casts = append(fcx.deferred.casts, castCheck{expr: cast, exprTy: exprTy, castTy: castTy})
	return castTy
}

func (fcx *FnCtxt) checkCasts() {
	casts := fcx.deferred.casts
	fcx.deferred.casts = nil
	for _, c := range casts {
		fcx.checkCast(c)
	}
}

func (fcx *FnCtxt) checkCast(c castCheck) {
	from := fcx.structurallyResolveType(ast.RangeOf(c.expr.Operand), c.exprTy)
	to := fcx.structurallyResolveType(ast.RangeOf(c.expr.Type), c.castTy)
	if types.ReferencesError(from) || types.ReferencesError(to) {
		return
	}
	if types.Equal(fcx.infcx.Resolve(from), fcx.infcx.Resolve(to)) {
		fcx.results.CastKinds[c.expr.ID()] = CastTrivial
		return
	}
	// casts that are coercions are checked as such
	if _, err := fcx.tryCoerce(c.expr.Operand, from, to); err == nil {
		fcx.results.CastKinds[c.expr.ID()] = CastCoercion
		return
	}

	kind, code := classifyCast(from, to)
	if code != ilerr.None {
		fcx.report(ilerr.New(ilerr.NewBadCast{
			Positioner: ast.RangeOf(c.expr),
			ErrCode:    code,
			From:       fcx.infcx.Resolve(from),
			To:         fcx.infcx.Resolve(to),
		}))
		return
	}
	fcx.logger.Debug("cast", "node", c.expr.ID(), "from", from, "to", to, "kind", kind)
	fcx.results.CastKinds[c.expr.ID()] = kind
}

// classifyCast returns the kind of a cast between primitive-like types, or
// the code of the diagnostic explaining why it is invalid
func classifyCast(from, to types.Ty) (CastKind, ilerr.ErrCode) {
	toPrim, _ := to.(*types.Prim)
	fromPrim, _ := from.(*types.Prim)
	switch {
	case toPrim != nil && toPrim.Kind == types.Bool:
		if types.IsNumeric(from) {
			return 0, ilerr.BoolCast
		}
		return 0, ilerr.InvalidCast
	case toPrim != nil && toPrim.Kind == types.Char:
		if fromPrim != nil && fromPrim.Kind == types.U8 {
			return CastU8Char, ilerr.None
		}
		if types.IsIntegral(from) {
			return 0, ilerr.CharCast
		}
		return 0, ilerr.InvalidCast
	case types.IsNumeric(from) && types.IsNumeric(to):
		return CastNumeric, ilerr.None
	case fromPrim != nil && (fromPrim.Kind == types.Bool || fromPrim.Kind == types.Char) && types.IsIntegral(to):
		return CastPrimInt, ilerr.None
	}
	switch from.(type) {
	case *types.FnDef, *types.FnPtr:
		if types.IsIntegral(to) {
			return CastFnPtrAddr, ilerr.None
		}
	case *types.Adt, *types.Tuple, *types.Array, *types.Slice, *types.Closure, *types.Dynamic:
		return 0, ilerr.NonPrimitiveCast
	}
	return 0, ilerr.InvalidCast
}
