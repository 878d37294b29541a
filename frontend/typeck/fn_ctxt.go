// Package typeck infers the types of one function or closure body at a
// time: it gives every expression, statement and pattern a type, resolves
// paths, methods and operators, inserts coercions, and registers the trait
// obligations the body relies on.
package typeck

import (
	"fmt"
	"log/slog"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/infer"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/hashicorp/go-set/v3"
)

// FnCtxt is the state of checking one body. It is owned by a single
// goroutine and discarded once the body's results are returned.
type FnCtxt struct {
	cfg    Config
	items  items.Source
	infcx  InferCtxt
	engine ObligationEngine

	owner ast.DefID
	// env are the where-clauses of the owner
	env []types.Predicate

	results *Results
	// nodeSpans remembers where each typed node is, for diagnostics
	// reported after the walk
	nodeSpans  map[ast.NodeID]ast.Range
	locals     map[ast.NodeID]LocalTy
	localOrder []ast.NodeID

	// diverges is whether the code being checked is reachable
	diverges Diverges
	// hasErrors is set when the current statement produced an error type
	hasErrors bool

	// retCoercion merges the tail of the body and every return
	retCoercion *CoerceMany
	retTy       types.Ty
	// yieldTy is set while checking the body of a generator
	yieldTy    types.Ty
	breakables *enclosingBreakables

	deferred deferredQueues
	closures []*ast.Closure
	// opaqueVars maps the variables standing for the owner's opaque return
	// types to those types
	opaqueVars map[types.InferVar]*types.Opaque

	// reportedVars avoids reporting the same unresolved variable twice
	reportedVars *set.Set[types.InferVar]
	// reportedObligations avoids reporting the same failed obligation twice
	reportedObligations *set.Set[string]
	delayedBugs         []error

	logger *slog.Logger
}

// NewFnCtxt prepares to check a body of owner
func NewFnCtxt(src items.Source, infcx InferCtxt, engine ObligationEngine, owner ast.DefID, cfg Config) *FnCtxt {
	logger := cfg.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	fcx := &FnCtxt{
		cfg:                 cfg,
		items:               src,
		infcx:               infcx,
		engine:              engine,
		owner:               owner,
		env:                 src.PredicatesOf(owner),
		results:             newResults(owner),
		nodeSpans:           make(map[ast.NodeID]ast.Range),
		locals:              make(map[ast.NodeID]LocalTy),
		breakables:          newEnclosingBreakables(),
		opaqueVars:          make(map[types.InferVar]*types.Opaque),
		reportedVars:        set.New[types.InferVar](0),
		reportedObligations: set.New[string](0),
		logger:              slog.New(ast.NodeHandler(logger.Handler())).With("section", "typeck"),
	}
	engine.SetClosureKinds(func(id ast.NodeID) (items.ClosureKind, bool) {
		kind, ok := fcx.results.ClosureKinds[id]
		return kind, ok
	})
	return fcx
}

// CheckBody type checks body and returns what it learnt. Diagnostics for
// the programmer are in Results.Diagnostics; the error is only set when
// the checker itself failed, and then the results must not be used.
func CheckBody(src items.Source, body *ast.Body, cfg Config) (res *Results, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	infcx := infer.NewCtxt(logger)
	engine := traits.NewFulfillment(infcx, src, src.PredicatesOf(body.Owner), logger)
	fcx := NewFnCtxt(src, infcx, engine, body.Owner, cfg)

	defer func() {
		if r := recover(); r != nil {
			bug, ok := r.(*ilerr.Bug)
			if !ok {
				panic(r)
			}
			fcx.logger.Error("checker failed", "owner", body.Owner, "error", fmt.Sprintf("%+v", bug))
			res, err = nil, bug
		}
	}()
	return fcx.checkBody(body)
}

func (fcx *FnCtxt) checkBody(body *ast.Body) (*Results, error) {
	sig := types.SubstSig(fcx.items.SigOf(fcx.owner), items.IdentitySubsts(fcx.items, fcx.owner))
	sig.Output = fcx.instantiateOpaqueTypes(sig.Output, ast.RangeOf(body.Value))
	sig = fcx.normalizeSig(sig, traits.MiscCause(ast.RangeOf(body.Value)))

	fcx.checkFnBody(body.Params, sig, body.Value)
	fcx.selectObligationsWherePossible()

	fcx.closureAnalyze()
	fcx.checkCasts()
	fcx.selectObligationsWherePossible()
	fcx.resolveGeneratorInteriors()
	fcx.registerDeferredSized()

	fcx.typeInferenceFallback()
	fcx.selectAllObligationsOrError()
	fcx.recordOpaqueUses()

	fcx.writeback()
	if len(fcx.delayedBugs) > 0 && !fcx.results.TaintedByErrors && !fcx.results.Diagnostics.HasError() {
		return nil, ilerr.BugFromDelayed(fcx.delayedBugs)
	}
	return fcx.results, nil
}

// checkFnBody binds the parameters of a function or closure to the inputs
// of sig and checks value against its output
func (fcx *FnCtxt) checkFnBody(params []ast.Pat, sig types.FnSig, value ast.Expr) {
	prevRet, prevRetTy, prevDiverges := fcx.retCoercion, fcx.retTy, fcx.diverges
	prevBreakables := fcx.breakables
	defer func() {
		fcx.retCoercion, fcx.retTy, fcx.diverges = prevRet, prevRetTy, prevDiverges
		fcx.breakables = prevBreakables
	}()
	fcx.retTy = sig.Output
	fcx.retCoercion = NewCoerceMany(sig.Output)
	fcx.diverges = DivergesMaybe
	fcx.breakables = newEnclosingBreakables()

	for i, param := range params {
		fcx.gatherLocals(param, traits.SizedArgument)
		input := types.Ty(types.Err)
		if i < len(sig.Inputs) {
			input = sig.Inputs[i]
		}
		if !fcx.checkPat(param, input) {
			fcx.revealAsError(param)
		}
	}
	fcx.requireTypeIsSizedDeferred(sig.Output, ast.RangeOf(value), traits.SizedReturn)

	ty := fcx.checkExprWithHint(value, sig.Output)
	fcx.retCoercion.Coerce(fcx, value, ty)
	fcx.retCoercion.Complete(fcx)
}

func (fcx *FnCtxt) normalizeSig(sig types.FnSig, cause traits.Cause) types.FnSig {
	return types.FoldSig(sig, types.TyFolder{Fn: func(t types.Ty) types.Ty {
		return fcx.normalize(t, cause)
	}})
}

func (fcx *FnCtxt) normalize(t types.Ty, cause traits.Cause) types.Ty {
	return fcx.engine.Normalize(t, cause)
}

// report records a diagnostic for the programmer
func (fcx *FnCtxt) report(err ilerr.IleError) {
	fcx.logger.Debug("diagnostic", "error", ilerr.FormatWithCode(err))
	fcx.results.Diagnostics.With(err)
}

func (fcx *FnCtxt) delayBug(err error) {
	fcx.logger.Debug("delayed bug", "error", err)
	fcx.delayedBugs = append(fcx.delayedBugs, err)
}

func (fcx *FnCtxt) register(cause traits.Cause, pred types.Predicate) {
	fcx.engine.Register(&traits.Obligation{Cause: cause, Predicate: pred})
}

func (fcx *FnCtxt) registerWellFormed(span ast.Range, arg types.GenericArg) {
	fcx.register(traits.Cause{Span: span, Code: traits.WellFormedObligation, BoundIndex: -1}, &types.WellFormed{Arg: arg})
}

func (fcx *FnCtxt) requireTypeIsSizedDeferred(ty types.Ty, span ast.Range, code traits.CauseCode) {
	fcx.deferred.sized = append(fcx.deferred.sized, deferredSized{ty: ty, span: span, code: code})
}

func (fcx *FnCtxt) sizedPredicate(ty types.Ty) (types.Predicate, bool) {
	sized, ok := fcx.items.LangItem(items.LangSized)
	if !ok {
		return nil, false
	}
	return &types.TraitPredicate{Trait: sized, TraitName: fcx.items.Name(sized), Args: types.Substs{ty}}, true
}

// selectObligationsWherePossible makes progress on pending obligations and
// reports those that definitely fail
func (fcx *FnCtxt) selectObligationsWherePossible() {
	fcx.reportFulfillmentErrors(fcx.engine.SelectWherePossible())
}

func (fcx *FnCtxt) selectAllObligationsOrError() {
	fcx.reportFulfillmentErrors(fcx.engine.SelectAllOrError())
}

func (fcx *FnCtxt) reportFulfillmentErrors(errs []*traits.Error) {
	for _, e := range errs {
		fcx.reportFulfillmentError(e)
	}
}

func (fcx *FnCtxt) reportFulfillmentError(e *traits.Error) {
	o := e.Obligation
	pred := fcx.infcx.ResolvePredicate(o.Predicate)
	if !fcx.reportedObligations.Insert(fmt.Sprintf("%v@%v", pred, o.Cause.Span)) {
		return
	}
	if types.ReferencesError(predicateSelf(pred)) {
		return
	}
	if e.Ambiguous {
		if fcx.results.TaintedByErrors || fcx.results.Diagnostics.HasError() {
			return
		}
		fcx.reportCannotInfer(o.Cause.Span, predicateSelf(pred))
		return
	}
	var item string
	if o.Cause.Code == traits.ItemObligation && o.Cause.Item != ast.NoDef {
		item = fcx.items.Name(o.Cause.Item)
	}
	fcx.report(ilerr.New(ilerr.NewUnsatisfied{Positioner: o.Cause.Span, Predicate: pred, Item: item}))
}

func predicateSelf(p types.Predicate) types.Ty {
	switch p := p.(type) {
	case *types.TraitPredicate:
		return p.Self()
	case *types.ProjectionPredicate:
		return p.Projection.Self()
	case *types.WellFormed:
		if ty, ok := p.Arg.(types.Ty); ok {
			return ty
		}
	case *types.TypeOutlives:
		return p.Ty
	}
	return types.Unit
}

// structurallyResolveType resolves ty far enough to see its outermost
// constructor, selecting obligations if needed. If that is not possible the
// type is reported as needing annotations and the error type returned.
func (fcx *FnCtxt) structurallyResolveType(span ast.Range, ty types.Ty) types.Ty {
	ty = fcx.infcx.ShallowResolve(ty)
	if !types.IsTyVar(ty) {
		return ty
	}
	fcx.selectObligationsWherePossible()
	ty = fcx.infcx.ShallowResolve(ty)
	if !types.IsTyVar(ty) {
		return ty
	}
	if !fcx.results.TaintedByErrors {
		fcx.reportCannotInfer(span, ty)
	}
	_ = fcx.infcx.Eq(ty, types.Err)
	fcx.setTainted()
	return types.Err
}

func (fcx *FnCtxt) reportCannotInfer(span ast.Range, ty types.Ty) {
	if inf, ok := ty.(*types.Infer); ok && !fcx.reportedVars.Insert(fcx.infcx.RootVar(inf.Var)) {
		return
	}
	fcx.report(ilerr.New(ilerr.NewCannotInfer{Positioner: span, Ty: ty}))
}

func (fcx *FnCtxt) errTys(n int) []types.Ty {
	out := make([]types.Ty, n)
	for i := range out {
		out[i] = types.Err
	}
	return out
}
