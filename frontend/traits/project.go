package traits

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
)

// project proves `<Self as Trait>::Item == Ty` by finding what the
// projection stands for and unifying it with Ty
func (f *Fulfillment) project(p *types.ProjectionPredicate) (outcome, []types.Predicate) {
	value, res, nested := f.projectionValue(p.Projection)
	if res != done {
		return res, nil
	}
	if err := f.infcx.Eq(p.Ty, value); err != nil {
		return failed, nil
	}
	return done, nested
}

// projectionValue finds the type a projection normalizes to
func (f *Fulfillment) projectionValue(proj *types.Projection) (types.Ty, outcome, []types.Predicate) {
	if types.ReferencesError(proj) {
		return types.Err, done, nil
	}
	self := f.infcx.ShallowResolve(proj.Self())

	if kind, ok := items.FnTraitKind(f.items, proj.Trait); ok && kind == items.KindFnOnce && proj.Item == items.FnOutput {
		switch self := self.(type) {
		case *types.Closure:
			return self.Sig.Output, done, nil
		case *types.FnDef:
			return types.SubstSig(f.items.SigOf(self.Def), self.Args).Output, done, nil
		case *types.FnPtr:
			return self.Sig.Output, done, nil
		}
	}

	for _, where := range f.env {
		w, ok := where.(*types.ProjectionPredicate)
		if !ok || w.Projection.Trait != proj.Trait || w.Projection.Item != proj.Item {
			continue
		}
		if f.argsMatch(w.Projection.Args, proj.Args) {
			_ = f.infcx.EqArgs(w.Projection.Args, proj.Args)
			return w.Ty, done, nil
		}
	}

	switch self.(type) {
	case *types.Infer:
		if types.IsTyVar(self) {
			return nil, stillPending, nil
		}
	case *types.Param, *types.Projection, *types.Opaque:
		// nothing to select: the projection stays as it is
		return proj, done, nil
	}

	var impls []ast.DefID
	for _, impl := range f.items.Impls() {
		traitRef := items.TraitRefOf(f.items, impl)
		if traitRef == nil || traitRef.Trait != proj.Trait {
			continue
		}
		matches := f.infcx.Probe(func() error {
			return f.infcx.EqArgs(types.SubstSubsts(traitRef.Args, f.freshSubsts(impl)), proj.Args)
		}) == nil
		if matches {
			impls = append(impls, impl)
		}
	}
	switch len(impls) {
	case 0:
		return nil, failed, nil
	case 1:
	default:
		return nil, stillPending, nil
	}
	impl := impls[0]
	substs := f.freshSubsts(impl)
	if err := f.infcx.EqArgs(types.SubstSubsts(items.TraitRefOf(f.items, impl).Args, substs), proj.Args); err != nil {
		return nil, failed, nil
	}
	assoc, ok := items.FindAssoc(f.items, impl, proj.Item, ast.DefAssocTy)
	if !ok {
		return nil, failed, nil
	}
	var nested []types.Predicate
	for _, pred := range f.items.PredicatesOf(impl) {
		nested = append(nested, types.SubstPredicate(pred, substs))
	}
	return types.Subst(f.items.TypeOf(assoc), substs), done, nested
}

// Normalize replaces the projections in t with what they stand for. A
// projection that cannot be decided yet becomes a fresh variable, with an
// obligation tying the two together.
func (f *Fulfillment) Normalize(t types.Ty, cause Cause) types.Ty {
	if !types.HasProjections(t) {
		return t
	}
	folder := types.TyFolder{}
	folder.Fn = func(inner types.Ty) types.Ty {
		proj, ok := inner.(*types.Projection)
		if !ok {
			return nil
		}
		proj = &types.Projection{Trait: proj.Trait, TraitName: proj.TraitName, Item: proj.Item, Args: types.FoldSubsts(proj.Args, folder)}
		var value types.Ty
		var nested []types.Predicate
		err := f.infcx.CommitIf(func() error {
			var res outcome
			value, res, nested = f.projectionValue(proj)
			if res != done {
				return errNotNormalized
			}
			return nil
		})
		if err != nil {
			v := f.infcx.NextTyVar(cause.Span)
			f.Register(&Obligation{Cause: cause, Predicate: &types.ProjectionPredicate{Projection: proj, Ty: v}})
			return v
		}
		for _, n := range nested {
			f.Register(&Obligation{Cause: cause, Predicate: n})
		}
		if value == types.Ty(proj) {
			return proj
		}
		return folder.FoldTy(value)
	}
	return folder.FoldTy(t)
}

type normalizeError struct{}

func (normalizeError) Error() string { return "projection not normalized yet" }

var errNotNormalized error = normalizeError{}
