package traits

import (
	"log/slog"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/infer"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/cottand/typeck/util/hset"
)

// recursionLimit bounds the depth of nested impl obligations
const recursionLimit = 64

// ClosureKinds tells the solver which Fn trait a closure implements, once
// that is known
type ClosureKinds func(id ast.NodeID) (items.ClosureKind, bool)

// Fulfillment is the set of obligations a body registered and has not
// proven yet
type Fulfillment struct {
	infcx *infer.Ctxt
	items items.Source
	// env are the where-clauses of the body owner, assumed to hold
	env          []types.Predicate
	closureKinds ClosureKinds

	pending []*Obligation
	// registered dedups obligations by their predicate as of registration
	registered hset.HSet[types.Predicate]
	logger     *slog.Logger
}

func NewFulfillment(infcx *infer.Ctxt, src items.Source, env []types.Predicate, logger *slog.Logger) *Fulfillment {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Fulfillment{
		infcx:        infcx,
		items:        src,
		env:          env,
		closureKinds: func(ast.NodeID) (items.ClosureKind, bool) { return 0, false },
		registered:   hset.Empty[types.Predicate](predicateHasher{}),
		logger:       logger.With("section", "traits"),
	}
}

// SetClosureKinds installs the source of closure kinds
func (f *Fulfillment) SetClosureKinds(kinds ClosureKinds) {
	f.closureKinds = kinds
}

// Register adds an obligation to be proven later
func (f *Fulfillment) Register(o *Obligation) {
	resolved := f.infcx.ResolvePredicate(o.Predicate)
	if !f.registered.Insert(resolved) {
		return
	}
	f.logger.Debug("registered obligation", "predicate", resolved.String(), "span", o.Cause.Span)
	f.pending = append(f.pending, o)
}

// PendingObligations returns a snapshot of the obligations not yet proven,
// which later registrations do not affect
func (f *Fulfillment) PendingObligations() *immutable.List[*Obligation] {
	b := immutable.NewListBuilder[*Obligation]()
	for _, o := range f.pending {
		b.Append(o)
	}
	return b.List()
}

// ObligationsForSelfTy returns the pending trait and projection obligations
// whose self type is the variable v, after resolution
func (f *Fulfillment) ObligationsForSelfTy(v types.InferVar) []*Obligation {
	root := f.infcx.RootVar(v)
	var out []*Obligation
	for _, o := range f.pending {
		var self types.Ty
		switch p := o.Predicate.(type) {
		case *types.TraitPredicate:
			self = p.Self()
		case *types.ProjectionPredicate:
			self = p.Projection.Self()
		default:
			continue
		}
		if inf, ok := f.infcx.ShallowResolve(self).(*types.Infer); ok && inf.Var.Kind == types.TyVar && f.infcx.RootVar(inf.Var) == root {
			out = append(out, o)
		}
	}
	return out
}

// Evaluate reports whether p could hold given what inference knows now.
// Nothing is registered and no variable stays bound.
func (f *Fulfillment) Evaluate(p types.Predicate) bool {
	return f.infcx.Probe(func() error {
		scratch := NewFulfillment(f.infcx, f.items, f.env, f.logger)
		scratch.closureKinds = f.closureKinds
		scratch.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: p})
		if errs := scratch.SelectWherePossible(); len(errs) > 0 {
			return errs[0]
		}
		return nil
	}) == nil
}

type outcome uint8

const (
	done outcome = iota
	stillPending
	failed
	overflowed
)

// SelectWherePossible proves every obligation it can with what inference
// knows now, repeating until nothing changes. It returns those that
// definitely do not hold.
func (f *Fulfillment) SelectWherePossible() []*Error {
	var errs []*Error
	for {
		progress := false
		current := f.pending
		f.pending = nil
		var kept []*Obligation
		for _, o := range current {
			result, nested := f.process(o)
			switch result {
			case done:
				progress = true
				for _, n := range nested {
					n.depth = o.depth + 1
					kept = append(kept, n)
				}
			case stillPending:
				kept = append(kept, o)
			case failed:
				progress = true
				errs = append(errs, &Error{Obligation: o})
			case overflowed:
				progress = true
				errs = append(errs, &Error{Obligation: o, Overflow: true})
			}
		}
		// obligations registered while processing land in f.pending
		f.pending = append(kept, f.pending...)
		if !progress {
			break
		}
	}
	if len(errs) > 0 {
		f.logger.Debug("selection found errors", "count", len(errs))
	}
	return errs
}

// SelectAllOrError is SelectWherePossible, after which everything still
// pending is reported as ambiguous. Nothing is pending afterwards.
func (f *Fulfillment) SelectAllOrError() []*Error {
	errs := f.SelectWherePossible()
	for _, o := range f.pending {
		errs = append(errs, &Error{Obligation: o, Ambiguous: true})
	}
	f.pending = nil
	return errs
}

func (f *Fulfillment) process(o *Obligation) (outcome, []*Obligation) {
	if o.depth > recursionLimit {
		return overflowed, nil
	}
	pred := f.infcx.ResolvePredicate(o.Predicate)
	derived := func(p types.Predicate) *Obligation {
		cause := o.Cause
		if cause.Code != ItemObligation {
			cause.Code = ImplDerived
		}
		return &Obligation{Cause: cause, Predicate: p}
	}
	switch p := pred.(type) {
	case *types.TraitPredicate:
		res, nested := f.selectTrait(p)
		return res, mapObligations(nested, derived)
	case *types.ProjectionPredicate:
		res, nested := f.project(p)
		return res, mapObligations(nested, derived)
	case *types.WellFormed:
		res, nested := f.wellFormed(p.Arg)
		return res, mapObligations(nested, derived)
	case *types.TypeOutlives, *types.RegionOutlives:
		// region constraints are for the region checker
		return done, nil
	}
	return failed, nil
}

func mapObligations(preds []types.Predicate, f func(types.Predicate) *Obligation) []*Obligation {
	out := make([]*Obligation, len(preds))
	for i, p := range preds {
		out[i] = f(p)
	}
	return out
}

// wellFormed checks the shape of a type: element types of slices and arrays
// are sized, and ADT arguments satisfy the ADT's bounds
func (f *Fulfillment) wellFormed(arg types.GenericArg) (outcome, []types.Predicate) {
	t, ok := arg.(types.Ty)
	if !ok {
		return done, nil
	}
	switch t := f.infcx.ShallowResolve(t).(type) {
	case *types.Infer:
		if t.Var.Kind == types.TyVar {
			return stillPending, nil
		}
		return done, nil
	case *types.Tuple:
		return done, wfAll(t.Elems...)
	case *types.Ref:
		return done, wfAll(t.Elem)
	case *types.Slice:
		return done, append(wfAll(t.Elem), f.sizedPredicate(t.Elem)...)
	case *types.Array:
		return done, append(wfAll(t.Elem), f.sizedPredicate(t.Elem)...)
	case *types.Adt:
		nested := wfAll(t.Args.Types()...)
		for _, p := range f.items.PredicatesOf(t.Def.Def) {
			nested = append(nested, types.SubstPredicate(p, t.Args))
		}
		return done, nested
	case *types.FnDef:
		return done, wfAll(t.Args.Types()...)
	case *types.FnPtr:
		return done, wfAll(append(append([]types.Ty{}, t.Sig.Inputs...), t.Sig.Output)...)
	}
	return done, nil
}

func wfAll(tys ...types.Ty) []types.Predicate {
	out := make([]types.Predicate, 0, len(tys))
	for _, t := range tys {
		if t != nil {
			out = append(out, &types.WellFormed{Arg: t})
		}
	}
	return out
}

func (f *Fulfillment) sizedPredicate(t types.Ty) []types.Predicate {
	sized, ok := f.items.LangItem(items.LangSized)
	if !ok {
		return nil
	}
	return []types.Predicate{&types.TraitPredicate{Trait: sized, TraitName: "Sized", Args: types.Substs{t}}}
}
