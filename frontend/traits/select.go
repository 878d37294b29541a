package traits

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
)

type candidateKind uint8

const (
	envCandidate candidateKind = iota
	implCandidate
)

type candidate struct {
	kind candidateKind
	impl ast.DefID
	// where is the where-clause for envCandidate
	where *types.TraitPredicate
}

func (f *Fulfillment) selectTrait(p *types.TraitPredicate) (outcome, []types.Predicate) {
	if types.ReferencesError(p.Self()) {
		return done, nil
	}
	self := f.infcx.ShallowResolve(p.Self())

	if sized, ok := f.items.LangItem(items.LangSized); ok && p.Trait == sized {
		return f.selectSized(self)
	}
	if kind, ok := items.FnTraitKind(f.items, p.Trait); ok {
		if res, nested, handled := f.selectFnTrait(p, self, kind); handled {
			return res, nested
		}
	}
	if types.IsTyVar(self) {
		return stillPending, nil
	}
	// an opaque type is known to satisfy its own bounds
	if op, ok := self.(*types.Opaque); ok {
		for _, bound := range f.items.PredicatesOf(op.Def) {
			b, ok := types.SubstPredicate(bound, op.Args).(*types.TraitPredicate)
			if ok && b.Trait == p.Trait && f.argsMatch(b.Args, p.Args) {
				return done, nil
			}
		}
	}

	candidates := f.assembleCandidates(p)
	switch len(candidates) {
	case 0:
		return failed, nil
	case 1:
		return f.confirm(p, candidates[0])
	}
	// where-clauses win over impls
	var env []candidate
	for _, c := range candidates {
		if c.kind == envCandidate {
			env = append(env, c)
		}
	}
	if len(env) == 1 {
		return f.confirm(p, env[0])
	}
	f.logger.Debug("ambiguous selection", "predicate", p.String(), "candidates", len(candidates))
	return stillPending, nil
}

func (f *Fulfillment) selectSized(self types.Ty) (outcome, []types.Predicate) {
	switch self := self.(type) {
	case *types.Infer:
		if self.Var.Kind == types.TyVar {
			return stillPending, nil
		}
		return done, nil
	case *types.Tuple:
		if len(self.Elems) == 0 {
			return done, nil
		}
		// only the last field of a tuple may be unsized, and then the tuple is too
		return done, f.sizedPredicate(self.Elems[len(self.Elems)-1])
	}
	if types.IsSized(self) {
		return done, nil
	}
	return failed, nil
}

// selectFnTrait handles the builtin impls of the Fn traits for closures,
// function items and function pointers
func (f *Fulfillment) selectFnTrait(p *types.TraitPredicate, self types.Ty, kind items.ClosureKind) (outcome, []types.Predicate, bool) {
	var sig types.FnSig
	switch self := self.(type) {
	case *types.Closure:
		if self.Generator {
			return failed, nil, true
		}
		closureKind, known := f.closureKinds(self.ID)
		if !known {
			return stillPending, nil, true
		}
		if !closureKind.Extends(kind) {
			return failed, nil, true
		}
		sig = self.Sig
	case *types.FnDef:
		sig = types.SubstSig(f.items.SigOf(self.Def), self.Args)
	case *types.FnPtr:
		sig = self.Sig
	default:
		return 0, nil, false
	}
	if sig.CVariadic || len(p.Args) < 2 {
		return failed, nil, true
	}
	argsTy, ok := p.Args[1].(types.Ty)
	if !ok {
		return failed, nil, true
	}
	if err := f.infcx.Eq(argsTy, types.MkTuple(sig.Inputs...)); err != nil {
		return failed, nil, true
	}
	return done, nil, true
}

func (f *Fulfillment) assembleCandidates(p *types.TraitPredicate) []candidate {
	var out []candidate
	for _, where := range f.env {
		w, ok := where.(*types.TraitPredicate)
		if !ok || w.Trait != p.Trait {
			continue
		}
		if f.argsMatch(w.Args, p.Args) {
			out = append(out, candidate{kind: envCandidate, where: w})
		}
	}
	for _, impl := range f.items.Impls() {
		traitRef := items.TraitRefOf(f.items, impl)
		if traitRef == nil || traitRef.Trait != p.Trait {
			continue
		}
		matches := f.infcx.Probe(func() error {
			return f.infcx.EqArgs(types.SubstSubsts(traitRef.Args, f.freshSubsts(impl)), p.Args)
		}) == nil
		if matches {
			out = append(out, candidate{kind: implCandidate, impl: impl})
		}
	}
	return out
}

func (f *Fulfillment) argsMatch(a, b types.Substs) bool {
	return f.infcx.Probe(func() error { return f.infcx.EqArgs(a, b) }) == nil
}

// confirm commits to a candidate, unifying for real, and returns the
// obligations it brings along
func (f *Fulfillment) confirm(p *types.TraitPredicate, c candidate) (outcome, []types.Predicate) {
	switch c.kind {
	case envCandidate:
		if err := f.infcx.EqArgs(c.where.Args, p.Args); err != nil {
			return failed, nil
		}
		return done, nil
	default:
		traitRef := items.TraitRefOf(f.items, c.impl)
		substs := f.freshSubsts(c.impl)
		if err := f.infcx.EqArgs(types.SubstSubsts(traitRef.Args, substs), p.Args); err != nil {
			return failed, nil
		}
		var nested []types.Predicate
		for _, pred := range f.items.PredicatesOf(c.impl) {
			nested = append(nested, types.SubstPredicate(pred, substs))
		}
		f.logger.Debug("selected impl", "predicate", p.String(), "impl", c.impl)
		return done, nested
	}
}

// freshSubsts instantiates every generic parameter of def with a new variable
func (f *Fulfillment) freshSubsts(def ast.DefID) types.Substs {
	g := f.items.GenericsOf(def)
	out := make(types.Substs, g.Count())
	for i := range out {
		out[i] = f.infcx.NextTyVar(ast.Range{})
	}
	for _, p := range g.Params {
		switch p.Kind {
		case types.ParamLifetime:
			out[p.Index] = f.infcx.NextRegionVar()
		case types.ParamConst:
			out[p.Index] = f.infcx.NextConstVar()
		}
	}
	return out
}

// ImplSelfTy returns the self type of impl instantiated with fresh
// variables, and that instantiation
func (f *Fulfillment) ImplSelfTy(impl ast.DefID) (types.Ty, types.Substs) {
	substs := f.freshSubsts(impl)
	return types.Subst(f.items.TypeOf(impl), substs), substs
}

// ImplMayApply reports whether impl could implement its trait for self,
// without committing to anything
func (f *Fulfillment) ImplMayApply(impl ast.DefID, self types.Ty) bool {
	return f.infcx.Probe(func() error {
		implSelf, _ := f.ImplSelfTy(impl)
		return f.infcx.Eq(implSelf, self)
	}) == nil
}
