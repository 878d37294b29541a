package typeck

import (
	"slices"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

func (fcx *FnCtxt) checkClosure(c *ast.Closure, expected Expectation) types.Ty {
	span := ast.RangeOf(c)
	expectedSig := fcx.deduceClosureSignature(expected)
	if expectedSig != nil && len(expectedSig.Inputs) != len(c.Params) {
		fcx.report(ilerr.New(ilerr.NewClosureArgCount{Positioner: span, Expected: len(expectedSig.Inputs), Found: len(c.Params)}))
		expectedSig = nil
	}

	sig := types.FnSig{Inputs: make([]types.Ty, len(c.Params))}
	params := make([]ast.Pat, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.Pat
		switch {
		case p.Type != nil:
			sig.Inputs[i] = fcx.lowerClosureAnnotation(p.Type)
		case expectedSig != nil:
			sig.Inputs[i] = expectedSig.Inputs[i]
		default:
			sig.Inputs[i] = fcx.infcx.NextTyVar(ast.RangeOf(p.Pat))
		}
	}
	switch {
	case c.Ret != nil:
		sig.Output = fcx.lowerClosureAnnotation(c.Ret)
	case expectedSig != nil:
		sig.Output = expectedSig.Output
	default:
		sig.Output = fcx.infcx.NextTyVar(ast.RangeOf(c.Body))
	}

	closure := &types.Closure{ID: c.ID(), Sig: sig, Generator: c.Generator}
	if c.Generator {
		closure.Yield = fcx.infcx.NextTyVar(span)
		closure.Interior = fcx.infcx.NextTyVar(span)
	}
	fcx.closures = append(fcx.closures, c)
	fcx.logger.Debug("closure signature", "closure", c.ID(), "sig", sig, "deduced", expectedSig != nil)

	prevYield := fcx.yieldTy
	fcx.yieldTy = closure.Yield
	firstLocal := len(fcx.localOrder)
	fcx.checkFnBody(params, sig, c.Body)
	fcx.yieldTy = prevYield

	if c.Generator {
		fcx.deferred.generators = append(fcx.deferred.generators, generatorInterior{
			closure: closure,
			locals:  slices.Clone(fcx.localOrder[firstLocal:]),
		})
	}
	return closure
}

func (fcx *FnCtxt) lowerClosureAnnotation(t ast.TypeExpr) types.Ty {
	user := fcx.lowerUserTy(t)
	fcx.WriteUserTypeAnnotationFromTy(t.ID(), user)
	return fcx.normalize(user, traits.MiscCause(ast.RangeOf(t)))
}

// deduceClosureSignature works out what signature the context of a closure
// wants: a function pointer type, or the Fn bounds of the variable the
// closure is expected to be
func (fcx *FnCtxt) deduceClosureSignature(expected Expectation) *types.FnSig {
	switch t := expected.toOption(fcx).(type) {
	case *types.FnPtr:
		sig := t.Sig
		return &sig
	case *types.Infer:
		if t.Var.Kind != types.TyVar {
			return nil
		}
		return fcx.deduceSigFromObligations(t.Var)
	}
	return nil
}

func (fcx *FnCtxt) deduceSigFromObligations(v types.InferVar) *types.FnSig {
	once, hasOnce := fcx.items.LangItem(items.LangFnOnce)
	var inputs []types.Ty
	var output types.Ty
	found := false

	argsOf := func(args types.Substs) {
		if found || len(args) != 2 {
			return
		}
		if tuple, ok := fcx.infcx.ShallowResolve(args.Type(1)).(*types.Tuple); ok {
			inputs, found = tuple.Elems, true
		}
	}
	for _, o := range fcx.engine.ObligationsForSelfTy(v) {
		switch p := fcx.infcx.ResolvePredicate(o.Predicate).(type) {
		case *types.TraitPredicate:
			if _, isFn := items.FnTraitKind(fcx.items, p.Trait); isFn {
				argsOf(p.Args)
			}
		case *types.ProjectionPredicate:
			if hasOnce && p.Projection.Trait == once && p.Projection.Item == items.FnOutput {
				output = p.Ty
				argsOf(p.Projection.Args)
			}
		}
	}
	if !found {
		return nil
	}
	if output == nil {
		output = fcx.infcx.NextTyVar(ast.Range{})
	}
	return &types.FnSig{Inputs: inputs, Output: output}
}
