package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// typeInferenceFallback gives the variables nothing constrained a default
// type. Opaque types are only considered in a second pass, so that the
// first pass can still pin their hidden type.
func (fcx *FnCtxt) typeInferenceFallback() {
	if fcx.fallbackPass(FallbackModeNoOpaque) {
		fcx.selectObligationsWherePossible()
	}
	if fcx.cfg.FallbackMode == FallbackModeAll && fcx.fallbackPass(FallbackModeAll) {
		fcx.selectObligationsWherePossible()
	}
}

func (fcx *FnCtxt) fallbackPass(mode FallbackMode) bool {
	progress := false
	for _, v := range fcx.infcx.UnresolvedVars() {
		if fcx.fallbackIfPossible(v, mode) {
			progress = true
		}
	}
	return progress
}

func (fcx *FnCtxt) fallbackIfPossible(v *types.Infer, mode FallbackMode) bool {
	inf, ok := fcx.infcx.ShallowResolve(v).(*types.Infer)
	if !ok {
		return false
	}
	var fallback types.Ty
	switch {
	case fcx.results.TaintedByErrors:
		fallback = types.Err
	case inf.Var.Kind == types.IntVar:
		fallback = types.I32Ty
	case inf.Var.Kind == types.FloatVar:
		fallback = types.F64Ty
	case fcx.infcx.TypeVarDiverges(inf):
		fallback = types.NeverTy
	case mode == FallbackModeAll:
		op, ok := fcx.opaqueForVar(inf.Var)
		if !ok {
			return false
		}
		fallback = op
	default:
		return false
	}
	fcx.logger.Debug("fallback", "var", inf, "ty", fallback, "mode", mode)
	if err := fcx.infcx.Eq(inf, fallback); err != nil {
		fcx.delayBug(ilerr.DelayedBug("fallback of %v to %v failed: %v", inf, fallback, err))
		return false
	}
	return true
}

func (fcx *FnCtxt) opaqueForVar(v types.InferVar) (*types.Opaque, bool) {
	root := fcx.infcx.RootVar(v)
	for opaqueVar, op := range fcx.opaqueVars {
		if fcx.infcx.RootVar(opaqueVar) == root {
			return op, true
		}
	}
	return nil, false
}

// instantiateOpaqueTypes replaces the opaque types defined by the owner in
// ty by variables, so that the body can infer their hidden types. The
// bounds of each opaque type are required of its variable.
func (fcx *FnCtxt) instantiateOpaqueTypes(ty types.Ty, span ast.Range) types.Ty {
	return types.TyFolder{Fn: func(t types.Ty) types.Ty {
		op, ok := t.(*types.Opaque)
		if !ok || fcx.items.Parent(op.Def) != fcx.owner {
			return nil
		}
		v := fcx.infcx.NextTyVar(span)
		fcx.opaqueVars[v.Var] = op
		hide := types.TyFolder{Fn: func(t types.Ty) types.Ty {
			if o, ok := t.(*types.Opaque); ok && o.Def == op.Def {
				return v
			}
			return nil
		}}
		for i, pred := range fcx.items.PredicatesOf(op.Def) {
			pred = types.FoldPredicate(types.SubstPredicate(pred, op.Args), hide)
			fcx.register(traits.ItemCause(span, op.Def, i), pred)
		}
		fcx.logger.Debug("instantiate opaque type", "opaque", op, "var", v)
		return v
	}}.FoldTy(ty)
}

// recordOpaqueUses stores what each opaque type of the owner was inferred to
func (fcx *FnCtxt) recordOpaqueUses() {
	for v, op := range fcx.opaqueVars {
		hidden := fcx.infcx.Resolve(&types.Infer{Var: v})
		defining := !types.IsInfer(hidden)
		if o, ok := hidden.(*types.Opaque); ok && o.Def == op.Def {
			defining = false
		}
		fcx.results.OpaqueTypes[op.Def] = OpaqueUse{Ty: hidden, Defining: defining}
	}
}
