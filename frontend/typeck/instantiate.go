package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

func (fcx *FnCtxt) checkPathExpr(expr *ast.PathExpr) types.Ty {
	path := expr.Path
	span := ast.RangeOf(expr)
	switch path.Res.Kind {
	case ast.ResErr:
		fcx.writeErrorResolution(expr.ID())
		return types.Err
	case ast.ResLocal:
		for i := range path.Segments {
			fcx.prohibitGenerics(path.Segments[i].Args, path.Segments[i].Name)
		}
		fcx.WriteResolution(expr.ID(), Resolution{IsLocal: true, Local: path.Res.Local})
		return fcx.localTy(span, path.Res.Local).Revealed
	case ast.ResSelfCtor:
		return fcx.instantiateSelfCtor(expr, path.Res.Def)
	case ast.ResTypeRelative:
		selfTy := fcx.lowerTy(path.QSelf)
		def, ok := fcx.resolveTyAndResUFCS(span, expr.ID(), selfTy, path.Last().Name)
		if !ok {
			return types.Err
		}
		return fcx.instantiateValuePath(expr, def, selfTy)
	}
	return fcx.instantiateValuePath(expr, path.Res.Def, nil)
}

// instantiateSelfCtor checks `Self` used as a value inside impl, which
// stands for the constructor of the impl's self type
func (fcx *FnCtxt) instantiateSelfCtor(expr *ast.PathExpr, impl ast.DefID) types.Ty {
	span := ast.RangeOf(expr)
	adt, ok := fcx.items.TypeOf(impl).(*types.Adt)
	if !ok || !adt.Def.HasCtor() {
		fcx.report(ilerr.New(ilerr.NewSelfCtorNotTuple{Positioner: span}))
		fcx.writeErrorResolution(expr.ID())
		return types.Err
	}
	ctor := adt.Def.NonEnumVariant().Ctor
	// the impl fixes how the struct is instantiated
	substs := types.SubstSubsts(adt.Args, fcx.freshSubsts(span, impl))
	ty := fcx.normalize(types.Subst(fcx.items.TypeOf(ctor), substs), traits.MiscCause(span))
	fcx.registerPredicatesOf(span, ctor, substs)
	fcx.WriteSubsts(expr.ID(), substs)
	fcx.WriteResolution(expr.ID(), Resolution{Kind: fcx.items.Kind(ctor), Def: ctor})
	return ty
}

// resolveTyAndResUFCS finds the associated value `name` of selfTy, for
// paths like `T::item`. Inherent items win over trait items.
func (fcx *FnCtxt) resolveTyAndResUFCS(span ast.Range, node ast.NodeID, selfTy types.Ty, name string) (ast.DefID, bool) {
	selfTy = fcx.structurallyResolveType(span, selfTy)
	if types.IsError(selfTy) {
		fcx.writeErrorResolution(node)
		return ast.NoDef, false
	}
	for _, impl := range fcx.items.Impls() {
		if items.TraitRefOf(fcx.items, impl) != nil || !fcx.engine.ImplMayApply(impl, selfTy) {
			continue
		}
		if def, ok := items.FindAssoc(fcx.items, impl, name, ast.DefAssocFn, ast.DefAssocConst); ok {
			return def, true
		}
	}

	candidates := fcx.traitCandidates(selfTy, name, ast.DefAssocFn, ast.DefAssocConst)
	switch len(candidates) {
	case 0:
		fcx.report(ilerr.New(ilerr.NewNoMethod{Positioner: span, Name: name, SelfTy: fcx.infcx.Resolve(selfTy)}))
		fcx.writeErrorResolution(node)
		return ast.NoDef, false
	case 1:
		return candidates[0], true
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = fcx.items.Name(fcx.items.Parent(c))
	}
	fcx.report(ilerr.New(ilerr.NewAmbiguousItem{Positioner: span, Name: name, Candidates: names}))
	fcx.writeErrorResolution(node)
	return ast.NoDef, false
}

// traitCandidates returns the items called name, of the given kinds, of
// every trait selfTy may implement: through an impl or a where-clause of
// the owner. Each trait is listed once.
func (fcx *FnCtxt) traitCandidates(selfTy types.Ty, name string, kinds ...ast.DefKind) []ast.DefID {
	seen := set.New[ast.DefID](0)
	var out []ast.DefID
	consider := func(trait ast.DefID) {
		if !seen.Insert(trait) {
			return
		}
		if def, ok := items.FindAssoc(fcx.items, trait, name, kinds...); ok {
			out = append(out, def)
		}
	}
	for _, impl := range fcx.items.Impls() {
		ref := items.TraitRefOf(fcx.items, impl)
		if ref == nil || !fcx.engine.ImplMayApply(impl, selfTy) {
			continue
		}
		consider(ref.Trait)
	}
	for _, pred := range fcx.env {
		tp, ok := pred.(*types.TraitPredicate)
		if !ok || !fcx.infcx.CanSub(tp.Self(), selfTy) || !fcx.infcx.CanSub(selfTy, tp.Self()) {
			continue
		}
		consider(tp.Trait)
	}
	return out
}

// pathSegmentDefs pairs the segments of a value path to def with the
// definitions whose generics they instantiate. Arguments on any other
// segment are reported.
func (fcx *FnCtxt) pathSegmentDefs(path *ast.Path, def ast.DefID) map[ast.DefID]*ast.PathSegment {
	n := len(path.Segments)
	segs := make(map[ast.DefID]*ast.PathSegment)
	used := make(map[int]bool)
	assign := func(i int, d ast.DefID) {
		if i >= 0 && i < n {
			segs[d] = &path.Segments[i]
			used[i] = true
		}
	}

	switch kind := fcx.items.Kind(def); kind {
	case ast.DefStructCtor:
		assign(n-1, fcx.items.Parent(def))
	case ast.DefVariantCtor, ast.DefVariant:
		variant := def
		if kind == ast.DefVariantCtor {
			variant = fcx.items.Parent(def)
		}
		enum := fcx.items.Parent(variant)
		// `Enum::<T>::Variant` and `Enum::Variant::<T>` are both accepted
		if path.Segments[n-1].Args != nil || n < 2 {
			assign(n-1, enum)
		} else {
			assign(n-2, enum)
		}
	case ast.DefAssocFn, ast.DefAssocConst:
		if trait, ok := items.ContainerTrait(fcx.items, def); ok && path.QSelf == nil {
			assign(n-2, trait)
		}
		assign(n-1, def)
	default:
		assign(n-1, def)
	}

	for i := range path.Segments {
		if !used[i] {
			fcx.prohibitGenerics(path.Segments[i].Args, path.Segments[i].Name)
		}
	}
	return segs
}

// instantiateValuePath gives a path to def its type, instantiating the
// generics of def from what was written and inference variables. selfTy is
// set for type-relative paths.
func (fcx *FnCtxt) instantiateValuePath(expr *ast.PathExpr, def ast.DefID, selfTy types.Ty) types.Ty {
	span := ast.RangeOf(expr)
	segs := fcx.pathSegmentDefs(expr.Path, def)

	var traitSelf, userSelf types.Ty
	var implSelf types.Ty
	parent := fcx.items.Parent(def)
	if selfTy != nil && parent != ast.NoDef {
		switch fcx.items.Kind(parent) {
		case ast.DefTrait:
			traitSelf = selfTy
		case ast.DefImpl:
			userSelf = selfTy
		}
	}
	substs := fcx.createSubsts(span, def, segs, traitSelf, true)
	fcx.WriteUserTypeAnnotationFromSubsts(expr.ID(), def, substs, userSelf)

	ty := fcx.normalize(types.Subst(fcx.items.TypeOf(def), substs), traits.MiscCause(span))

	if userSelf != nil {
		// the impl's own parameters are fixed by the self type written
		implSelf = types.Subst(fcx.items.TypeOf(parent), substs)
		if err := fcx.infcx.Sub(implSelf, userSelf); err != nil {
			fcx.delayBug(ilerr.DelayedBug("self type %v of %v does not match %v: %v",
				fcx.infcx.Resolve(implSelf), fcx.items.Name(def), fcx.infcx.Resolve(userSelf), err))
		}
	}

	fcx.registerPredicatesOf(span, def, substs)
	for _, arg := range substs {
		if t, ok := arg.(types.Ty); ok {
			fcx.registerWellFormed(span, t)
		}
	}
	fcx.WriteSubsts(expr.ID(), substs)
	fcx.WriteResolution(expr.ID(), Resolution{Kind: fcx.items.Kind(def), Def: def})
	fcx.logger.Debug("instantiate value path", "path", expr.Path.String(), "def", def, "ty", ty)
	return ty
}

// registerPredicatesOf requires the bounds of def to hold for substs
func (fcx *FnCtxt) registerPredicatesOf(span ast.Range, def ast.DefID, substs types.Substs) {
	for i, pred := range fcx.items.PredicatesOf(def) {
		fcx.register(traits.ItemCause(span, def, i), types.SubstPredicate(pred, substs))
	}
}
