package typeck

import (
	"maps"
	"slices"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// deferredQueues hold the work that waits for the whole body to be checked
type deferredQueues struct {
	// callResolutions are the calls of each closure, by closure
	callResolutions map[ast.NodeID][]deferredCallResolution
	casts           []castCheck
	generators      []generatorInterior
	sized           []deferredSized
}

// deferredCallResolution is a call of a closure, which is resolved to one
// of the Fn traits' methods once the closure's kind is known
type deferredCallResolution struct {
	call        *ast.Call
	closure     *types.Closure
	adjustments []Adjustment
}

type generatorInterior struct {
	closure *types.Closure
	// locals are declared inside the generator body, in order
	locals []ast.NodeID
}

type deferredSized struct {
	ty   types.Ty
	span ast.Range
	code traits.CauseCode
}

func closureKindOf(use ast.ClosureUse) items.ClosureKind {
	switch use {
	case ast.UseShared:
		return items.KindFn
	case ast.UseMutable:
		return items.KindFnMut
	}
	return items.KindFnOnce
}

// closureAnalyze takes the kind of every closure of the body from its Use
// annotation, then resolves the calls waiting for it. Captures are not
// analysed.
func (fcx *FnCtxt) closureAnalyze() {
	for _, c := range fcx.closures {
		if c.Generator {
			continue
		}
		kind := closureKindOf(c.Use)
		fcx.results.ClosureKinds[c.ID()] = kind
		fcx.logger.Debug("closure kind", "closure", c.ID(), "kind", kind)
		for _, d := range fcx.deferred.callResolutions[c.ID()] {
			fcx.resolveDeferredCall(d, kind)
		}
		delete(fcx.deferred.callResolutions, c.ID())
	}
	for _, id := range slices.Sorted(maps.Keys(fcx.deferred.callResolutions)) {
		fcx.delayBug(ilerr.DelayedBug("calls of closure %v were never resolved", id))
	}
	fcx.deferred.callResolutions = nil
}

func (fcx *FnCtxt) resolveDeferredCall(d deferredCallResolution, kind items.ClosureKind) {
	adjustments := slices.Clone(d.adjustments)
	var target types.Ty = d.closure
	if len(adjustments) > 0 {
		target = adjustments[len(adjustments)-1].Target
	}
	// Fn and FnMut closures are called through a reference
	if kind != items.KindFnOnce {
		mut := kind == items.KindFnMut
		adjustments = append(adjustments, Adjustment{
			Kind:   AdjustBorrow,
			Target: &types.Ref{Region: fcx.infcx.NextRegionVar(), Mut: mut, Elem: target},
			Mut:    mut,
		})
	}
	fcx.ApplyAdjustments(d.call.Callee, adjustments)

	trait, ok := fcx.items.LangItem(kind.LangItem())
	if !ok {
		return
	}
	substs := types.Substs{d.closure, types.MkTuple(d.closure.Sig.Inputs...)}
	if def, ok := items.FindAssoc(fcx.items, trait, fnTraitMethods[kind], ast.DefAssocFn); ok {
		fcx.WriteMethodCall(d.call.ID(), def, substs)
		return
	}
	fcx.WriteResolution(d.call.ID(), Resolution{Kind: ast.DefTrait, Def: trait})
}

// resolveGeneratorInteriors sets the interior of each generator: the types
// of the locals of its body, which may live across a yield
func (fcx *FnCtxt) resolveGeneratorInteriors() {
	for _, g := range fcx.deferred.generators {
		tys := make([]types.Ty, len(g.locals))
		for i, id := range g.locals {
			tys[i] = fcx.infcx.Resolve(fcx.locals[id].Decl)
		}
		interior := types.MkTuple(tys...)
		if err := fcx.infcx.Eq(g.closure.Interior, interior); err != nil {
			fcx.delayBug(ilerr.DelayedBug("interior of generator %v already set: %v", g.closure.ID, err))
		}
		fcx.results.GeneratorInteriors[g.closure.ID] = interior
	}
	fcx.deferred.generators = nil
}

// registerDeferredSized requires every type recorded during the walk to be
// sized, now that inference knows most of them
func (fcx *FnCtxt) registerDeferredSized() {
	for _, d := range fcx.deferred.sized {
		fcx.results.SizedTypes = append(fcx.results.SizedTypes, d.ty)
		pred, ok := fcx.sizedPredicate(d.ty)
		if !ok {
			continue
		}
		fcx.register(traits.Cause{Span: d.span, Code: d.code, BoundIndex: -1}, pred)
	}
	fcx.deferred.sized = nil
}
