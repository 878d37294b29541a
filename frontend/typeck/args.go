package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// expectedInputsForExpectedOutput guesses the inputs of a callable from
// what its result is expected to be, without committing to it. It returns
// nil when the expectation says nothing about the inputs.
func (fcx *FnCtxt) expectedInputsForExpectedOutput(expected Expectation, formalRet types.Ty, formalInputs []types.Ty) []types.Ty {
	retTy := expected.onlyHasType(fcx)
	if retTy == nil || !types.HasInfer(formalRet) {
		return nil
	}
	if types.ReferencesError(retTy) || types.ReferencesError(formalRet) {
		return nil
	}
	var out []types.Ty
	_ = fcx.infcx.Probe(func() error {
		if err := fcx.infcx.Sub(formalRet, retTy); err != nil {
			return err
		}
		out = make([]types.Ty, len(formalInputs))
		for i, in := range formalInputs {
			out[i] = fcx.infcx.Resolve(in)
		}
		return nil
	})
	return out
}

// checkArgumentTypes checks the arguments of a call against the formal
// inputs of the callee and returns formalOutput. With tupleArgs, the
// callee takes its arguments as a single tuple, as overloaded calls do.
func (fcx *FnCtxt) checkArgumentTypes(
	span ast.Range,
	formalInputs []types.Ty,
	formalOutput types.Ty,
	expected Expectation,
	args []ast.Expr,
	cVariadic bool,
	tupleArgs bool,
) types.Ty {
	expectedInputs := fcx.expectedInputsForExpectedOutput(expected, formalOutput, formalInputs)
	for _, in := range formalInputs {
		fcx.registerWellFormed(span, in)
	}

	if tupleArgs {
		formalInputs, expectedInputs = fcx.untupleArgs(span, formalInputs, expectedInputs, len(args))
	} else if len(formalInputs) != len(args) && !(cVariadic && len(args) >= len(formalInputs)) {
		fcx.reportArgCount(span, formalInputs, len(args), cVariadic)
		formalInputs, expectedInputs = fcx.errTys(len(args)), nil
	}

	// closures are checked last so that the other arguments can first tell
	// what the closure's signature is
	for _, checkClosures := range []bool{false, true} {
		if checkClosures {
			fcx.selectObligationsWherePossible()
		}
		for i, arg := range args {
			if i >= len(formalInputs) {
				break
			}
			if _, isClosure := arg.(*ast.Closure); isClosure != checkClosures {
				continue
			}
			formal := formalInputs[i]
			coerceTo := formal
			if i < len(expectedInputs) && expectedInputs[i] != nil {
				coerceTo = expectedInputs[i]
			}
			checked := fcx.checkExprWithHint(arg, coerceTo)
			coerced, err := fcx.tryCoerce(arg, checked, coerceTo)
			if err != nil && coerceTo != formal {
				coerced, err = fcx.tryCoerce(arg, checked, formal)
			}
			if err != nil {
				fcx.reportMismatch(ast.RangeOf(arg), formal, checked)
				continue
			}
			// the expectation was only a hint, the formal input is the law
			if !types.ReferencesError(formal) {
				fcx.demandSuptype(ast.RangeOf(arg), formal, coerced)
			}
		}
	}

	if cVariadic {
		for _, arg := range args[min(len(formalInputs), len(args)):] {
			fcx.checkVariadicArg(arg)
		}
	}
	return formalOutput
}

// untupleArgs spreads the single tuple input of an overloaded call over
// the arguments written
func (fcx *FnCtxt) untupleArgs(span ast.Range, formalInputs, expectedInputs []types.Ty, supplied int) ([]types.Ty, []types.Ty) {
	if len(formalInputs) == 0 {
		return fcx.errTys(supplied), nil
	}
	tuple, ok := fcx.infcx.ShallowResolve(formalInputs[0]).(*types.Tuple)
	if !ok {
		fcx.report(ilerr.New(ilerr.NewArgCount{Positioner: span, ErrCode: ilerr.NonTupleCallArgs, Expected: 1, Supplied: supplied}))
		return fcx.errTys(supplied), nil
	}
	if len(tuple.Elems) != supplied {
		fcx.report(ilerr.New(ilerr.NewArgCount{Positioner: span, ErrCode: ilerr.TupleArgCount, Expected: len(tuple.Elems), Supplied: supplied}))
		return fcx.errTys(supplied), nil
	}
	var expectedElems []types.Ty
	if len(expectedInputs) > 0 {
		if t, ok := expectedInputs[0].(*types.Tuple); ok && len(t.Elems) == supplied {
			expectedElems = t.Elems
		}
	}
	return tuple.Elems, expectedElems
}

func (fcx *FnCtxt) reportArgCount(span ast.Range, formalInputs []types.Ty, supplied int, cVariadic bool) {
	code := ilerr.ArgCount
	if cVariadic {
		code = ilerr.VariadicArgCount
	}
	var fixes []ilerr.Suggestion
	if len(formalInputs) == 1 && supplied == 0 && types.IsUnit(fcx.infcx.ShallowResolve(formalInputs[0])) {
		// right before the closing parenthesis
		at := span.End() - 1
		if at < span.Pos() {
			at = span.End()
		}
		fixes = append(fixes, ilerr.Suggestion{
			Range:       ast.Range{PosStart: at, PosEnd: at},
			Message:     "expected the unit value `()`; create it with empty parentheses",
			Replacement: "()",
		})
	}
	fcx.report(ilerr.New(ilerr.NewArgCount{
		Positioner: span,
		ErrCode:    code,
		Expected:   len(formalInputs),
		Supplied:   supplied,
		Variadic:   cVariadic,
		Fixes:      fixes,
	}))
}

// variadicPromotions are the types C promotes when passed to a variadic
// function, which must be cast explicitly
var variadicPromotions = map[types.PrimKind]string{
	types.F32:  "c_double",
	types.I8:   "c_int",
	types.I16:  "c_int",
	types.Bool: "c_int",
	types.U8:   "c_uint",
	types.U16:  "c_uint",
}

func (fcx *FnCtxt) checkVariadicArg(arg ast.Expr) {
	ty := fcx.checkExpr(arg)
	ty = fcx.structurallyResolveType(ast.RangeOf(arg), ty)
	switch t := ty.(type) {
	case *types.Prim:
		if castTo, ok := variadicPromotions[t.Kind]; ok {
			fcx.report(ilerr.New(ilerr.NewVariadicPromotion{Positioner: ast.RangeOf(arg), Ty: t, CastTo: castTo}))
		}
	case *types.FnDef:
		sig := fcx.normalizeSig(types.SubstSig(fcx.items.SigOf(t.Def), t.Args), traits.MiscCause(ast.RangeOf(arg)))
		ptr := &types.FnPtr{Sig: sig}
		fcx.report(ilerr.New(ilerr.NewVariadicPromotion{Positioner: ast.RangeOf(arg), Ty: t, CastTo: ptr.String()}))
	}
}
