package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// fnTraitMethods are the methods of Fn, FnMut and FnOnce, by closure kind
var fnTraitMethods = [...]string{
	items.KindFn:     "call",
	items.KindFnMut:  "call_mut",
	items.KindFnOnce: "call_once",
}

func (fcx *FnCtxt) checkCall(call *ast.Call, expected Expectation) types.Ty {
	span := ast.RangeOf(call)
	calleeTy := fcx.checkExpr(call.Callee)
	calleeTy = fcx.structurallyResolveType(ast.RangeOf(call.Callee), calleeTy)

	var derefs []Adjustment
	ty := calleeTy
autoderef:
	for {
		switch t := ty.(type) {
		case *types.ErrorType:
			fcx.checkArgumentTypes(span, fcx.errTys(len(call.Args)), types.Err, NoExpectation, call.Args, false, false)
			return types.Err
		case *types.FnDef:
			sig := fcx.normalizeSig(types.SubstSig(fcx.items.SigOf(t.Def), t.Args), traits.MiscCause(span))
			fcx.ApplyAdjustments(call.Callee, derefs)
			return fcx.checkArgumentTypes(span, sig.Inputs, sig.Output, expected, call.Args, sig.CVariadic, false)
		case *types.FnPtr:
			fcx.ApplyAdjustments(call.Callee, derefs)
			return fcx.checkArgumentTypes(span, t.Sig.Inputs, t.Sig.Output, expected, call.Args, t.Sig.CVariadic, false)
		case *types.Closure:
			if t.Generator {
				break autoderef
			}
			// how the closure is called depends on its kind, which is only
			// known once the whole body was checked
			fcx.deferCallResolution(call, t, derefs)
			return fcx.checkArgumentTypes(span, t.Sig.Inputs, t.Sig.Output, expected, call.Args, false, false)
		case *types.Ref:
			ty = fcx.structurallyResolveType(span, t.Elem)
			derefs = append(derefs, Adjustment{Kind: AdjustDeref, Target: ty})
		default:
			break autoderef
		}
	}

	if out, ok := fcx.tryOverloadedCall(call, calleeTy, expected); ok {
		return out
	}
	fcx.report(ilerr.New(ilerr.NewNotCallable{Positioner: ast.RangeOf(call.Callee), Ty: fcx.infcx.Resolve(calleeTy)}))
	fcx.checkArgumentTypes(span, fcx.errTys(len(call.Args)), types.Err, NoExpectation, call.Args, false, false)
	return types.Err
}

// tryOverloadedCall calls calleeTy through the first of the Fn traits it
// may implement
func (fcx *FnCtxt) tryOverloadedCall(call *ast.Call, calleeTy types.Ty, expected Expectation) (types.Ty, bool) {
	span := ast.RangeOf(call)
	once, ok := fcx.items.LangItem(items.LangFnOnce)
	if !ok {
		return nil, false
	}
	for _, kind := range []items.ClosureKind{items.KindFn, items.KindFnMut, items.KindFnOnce} {
		trait, ok := fcx.items.LangItem(kind.LangItem())
		if !ok {
			continue
		}
		argsTy := fcx.infcx.NextTyVar(span)
		args := types.Substs{calleeTy, argsTy}
		pred := &types.TraitPredicate{Trait: trait, TraitName: fcx.items.Name(trait), Args: args}
		if !fcx.engine.Evaluate(pred) {
			continue
		}
		cause := traits.Cause{Span: span, Code: traits.CallObligation, BoundIndex: -1}
		fcx.register(cause, pred)
		output := fcx.normalize(&types.Projection{Trait: once, TraitName: fcx.items.Name(once), Item: items.FnOutput, Args: args}, cause)

		fcx.selectObligationsWherePossible()
		if types.IsTyVar(fcx.infcx.ShallowResolve(argsTy)) {
			// nothing says what the arguments are: take them as written
			elems := make([]types.Ty, len(call.Args))
			for i, arg := range call.Args {
				elems[i] = fcx.infcx.NextTyVar(ast.RangeOf(arg))
			}
			_ = fcx.infcx.Eq(argsTy, types.MkTuple(elems...))
		}

		if def, ok := items.FindAssoc(fcx.items, trait, fnTraitMethods[kind], ast.DefAssocFn); ok {
			fcx.WriteMethodCall(call.ID(), def, args)
		} else {
			fcx.WriteResolution(call.ID(), Resolution{Kind: ast.DefTrait, Def: trait})
		}
		fcx.logger.Debug("overloaded call", "callee", calleeTy, "trait", kind)
		return fcx.checkArgumentTypes(span, []types.Ty{argsTy}, output, expected, call.Args, false, true), true
	}
	return nil, false
}

func (fcx *FnCtxt) deferCallResolution(call *ast.Call, closure *types.Closure, derefs []Adjustment) {
	if fcx.deferred.callResolutions == nil {
		fcx.deferred.callResolutions = make(map[ast.NodeID][]deferredCallResolution)
	}
	fcx.deferred.callResolutions[closure.ID] = append(fcx.deferred.callResolutions[closure.ID], deferredCallResolution{
		call:        call,
		closure:     closure,
		adjustments: derefs,
	})
}
