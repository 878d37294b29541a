package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

type autoref uint8

const (
	autorefNone autoref = iota
	autorefShared
	autorefMut
)

// methodPick is the method a call resolved to and how the receiver has to
// be adjusted to fit it
type methodPick struct {
	def ast.DefID
	// impl is set for inherent methods
	impl ast.DefID
	// steps are the receiver type and the types seen dereferencing it
	steps   []types.Ty
	derefs  int
	autoref autoref
}

func (p *methodPick) selfTy() types.Ty { return p.steps[p.derefs] }

func (fcx *FnCtxt) checkMethodCall(call *ast.MethodCall, expected Expectation) types.Ty {
	span := ast.RangeOf(call)
	rcvrTy := fcx.checkExpr(call.Receiver)
	rcvrTy = fcx.structurallyResolveType(ast.RangeOf(call.Receiver), rcvrTy)
	if types.IsError(rcvrTy) {
		fcx.writeErrorResolution(call.ID())
		fcx.checkArgumentTypes(span, fcx.errTys(len(call.Args)), types.Err, NoExpectation, call.Args, false, false)
		return types.Err
	}

	pick, ok := fcx.probeMethod(ast.RangeOf(&call.Segment), rcvrTy, call.Segment.Name)
	if !ok {
		fcx.writeErrorResolution(call.ID())
		fcx.checkArgumentTypes(span, fcx.errTys(len(call.Args)), types.Err, NoExpectation, call.Args, false, false)
		return types.Err
	}
	sig := fcx.confirmMethod(call, pick)
	return fcx.checkArgumentTypes(span, sig.Inputs, sig.Output, expected, call.Args, sig.CVariadic, false)
}

// probeMethod looks for a method called name taking rcvrTy as receiver,
// dereferencing it and then borrowing it until one fits. Inherent methods
// are preferred over trait methods at each step. Failures are reported.
func (fcx *FnCtxt) probeMethod(span ast.Range, rcvrTy types.Ty, name string) (*methodPick, bool) {
	steps := []types.Ty{rcvrTy}
	for {
		ref, ok := fcx.infcx.ShallowResolve(steps[len(steps)-1]).(*types.Ref)
		if !ok {
			break
		}
		steps = append(steps, fcx.infcx.ShallowResolve(ref.Elem))
	}

	for derefs, ty := range steps {
		if types.IsTyVar(ty) {
			break
		}
		inherent := fcx.inherentMethods(ty, name)
		traitMethods := fcx.traitCandidates(ty, name, ast.DefAssocFn)
		traitMethods = fcx.withSelfParam(traitMethods)

		for _, mode := range []autoref{autorefNone, autorefShared, autorefMut} {
			pick := &methodPick{steps: steps, derefs: derefs, autoref: mode}
			for _, c := range inherent {
				if fcx.receiverFits(pick, c.def, c.impl) {
					pick.def, pick.impl = c.def, c.impl
					return pick, true
				}
			}
			var fits []ast.DefID
			for _, def := range traitMethods {
				if fcx.receiverFits(pick, def, ast.NoDef) {
					fits = append(fits, def)
				}
			}
			switch len(fits) {
			case 0:
				continue
			case 1:
				pick.def = fits[0]
				return pick, true
			}
			names := make([]string, len(fits))
			for i, def := range fits {
				names[i] = fcx.items.Name(fcx.items.Parent(def))
			}
			fcx.report(ilerr.New(ilerr.NewAmbiguousItem{Positioner: span, Name: name, Candidates: names}))
			return nil, false
		}
	}
	fcx.report(ilerr.New(ilerr.NewNoMethod{Positioner: span, Name: name, SelfTy: fcx.infcx.Resolve(rcvrTy)}))
	return nil, false
}

type inherentCandidate struct {
	def, impl ast.DefID
}

func (fcx *FnCtxt) inherentMethods(ty types.Ty, name string) []inherentCandidate {
	var out []inherentCandidate
	for _, impl := range fcx.items.Impls() {
		if items.TraitRefOf(fcx.items, impl) != nil || !fcx.engine.ImplMayApply(impl, ty) {
			continue
		}
		if def, ok := items.FindAssoc(fcx.items, impl, name, ast.DefAssocFn); ok && fcx.takesSelf(def) {
			out = append(out, inherentCandidate{def: def, impl: impl})
		}
	}
	return out
}

func (fcx *FnCtxt) withSelfParam(defs []ast.DefID) []ast.DefID {
	out := defs[:0]
	for _, def := range defs {
		if fcx.takesSelf(def) {
			out = append(out, def)
		}
	}
	return out
}

func (fcx *FnCtxt) takesSelf(def ast.DefID) bool {
	item, ok := fcx.items.Item(def)
	return ok && item.HasSelf
}

// receiverType is the type of the receiver once pick's adjustments are applied
func (fcx *FnCtxt) receiverType(pick *methodPick, region types.Region) types.Ty {
	ty := pick.selfTy()
	if pick.autoref != autorefNone {
		ty = &types.Ref{Region: region, Mut: pick.autoref == autorefMut, Elem: ty}
	}
	return ty
}

// receiverFits reports whether method accepts the receiver adjusted as pick
// says, leaving no trace in the inference table
func (fcx *FnCtxt) receiverFits(pick *methodPick, method, impl ast.DefID) bool {
	return fcx.infcx.Probe(func() error {
		substs := fcx.methodSubsts(ast.Range{}, method, impl, pick.selfTy(), nil)
		sig := types.SubstSig(fcx.items.SigOf(method), substs)
		if len(sig.Inputs) == 0 {
			return errNoReceiver
		}
		if impl != ast.NoDef {
			if err := fcx.infcx.Eq(types.Subst(fcx.items.TypeOf(impl), substs), pick.selfTy()); err != nil {
				return err
			}
		}
		return fcx.infcx.Sub(fcx.receiverType(pick, fcx.infcx.NextRegionVar()), sig.Inputs[0])
	}) == nil
}

type noReceiver struct{}

func (noReceiver) Error() string { return "method takes no receiver" }

var errNoReceiver error = noReceiver{}

// methodSubsts instantiates method. For trait methods Self is the receiver
// type; the method's own parameters come from seg when given.
func (fcx *FnCtxt) methodSubsts(span ast.Range, method, impl ast.DefID, selfTy types.Ty, seg *ast.PathSegment) types.Substs {
	segs := map[ast.DefID]*ast.PathSegment{}
	if seg != nil {
		segs[method] = seg
	}
	var traitSelf types.Ty
	if impl == ast.NoDef {
		traitSelf = selfTy
	}
	return fcx.createSubsts(span, method, segs, traitSelf, true)
}

// confirmMethod commits to pick: it adjusts the receiver, instantiates the
// method and registers its bounds. It returns the signature of the method
// without its receiver.
func (fcx *FnCtxt) confirmMethod(call *ast.MethodCall, pick *methodPick) types.FnSig {
	span := ast.RangeOf(call)

	var adjustments []Adjustment
	for i := 0; i < pick.derefs; i++ {
		adjustments = append(adjustments, Adjustment{Kind: AdjustDeref, Target: pick.steps[i+1]})
	}
	adjusted := fcx.receiverType(pick, fcx.infcx.NextRegionVar())
	if pick.autoref != autorefNone {
		adjustments = append(adjustments, Adjustment{Kind: AdjustBorrow, Target: adjusted, Mut: pick.autoref == autorefMut})
	}

	substs := fcx.methodSubsts(span, pick.def, pick.impl, pick.selfTy(), &call.Segment)
	if pick.impl != ast.NoDef {
		implSelf := types.Subst(fcx.items.TypeOf(pick.impl), substs)
		if err := fcx.infcx.Eq(implSelf, pick.selfTy()); err != nil {
			fcx.delayBug(ilerr.DelayedBug("picked impl %v does not apply to %v: %v", pick.impl, fcx.infcx.Resolve(pick.selfTy()), err))
		}
	}
	sig := fcx.normalizeSig(types.SubstSig(fcx.items.SigOf(pick.def), substs), traits.MiscCause(span))
	if err := fcx.infcx.Sub(adjusted, sig.Inputs[0]); err != nil {
		fcx.delayBug(ilerr.DelayedBug("receiver %v does not fit picked method %v: %v", fcx.infcx.Resolve(adjusted), fcx.items.Name(pick.def), err))
	}

	fcx.registerPredicatesOf(span, pick.def, substs)
	for _, arg := range substs {
		if t, ok := arg.(types.Ty); ok {
			fcx.registerWellFormed(span, t)
		}
	}
	fcx.ApplyAdjustments(call.Receiver, adjustments)
	fcx.WriteMethodCall(call.ID(), pick.def, substs)
	fcx.logger.Debug("confirm method", "method", fcx.items.Name(pick.def), "derefs", pick.derefs, "autoref", pick.autoref)

	return types.FnSig{Inputs: sig.Inputs[1:], Output: sig.Output, CVariadic: sig.CVariadic}
}
