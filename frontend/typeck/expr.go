package typeck

import (
	"strconv"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/pkg/errors"
)

func (fcx *FnCtxt) checkExpr(expr ast.Expr) types.Ty {
	return fcx.checkExprWithExpectation(expr, NoExpectation)
}

func (fcx *FnCtxt) checkExprWithHint(expr ast.Expr, expected types.Ty) types.Ty {
	return fcx.checkExprWithExpectation(expr, ExpectHasType(expected))
}

// checkExprCoercibleToType checks expr and coerces it to expected
func (fcx *FnCtxt) checkExprCoercibleToType(expr ast.Expr, expected types.Ty) types.Ty {
	ty := fcx.checkExprWithHint(expr, expected)
	return fcx.demandCoerce(expr, ty, expected)
}

// checkExprHasType checks expr and requires it to be a subtype of expected.
// The only coercion allowed is from `!`.
func (fcx *FnCtxt) checkExprHasType(expr ast.Expr, expected types.Ty) types.Ty {
	ty := fcx.checkExprWithHint(expr, expected)
	if types.IsNever(fcx.infcx.ShallowResolve(ty)) {
		adjusted := fcx.infcx.NextDivergingTyVar(ast.RangeOf(expr))
		fcx.ApplyAdjustments(expr, []Adjustment{{Kind: AdjustNeverToAny, Target: adjusted}})
		ty = adjusted
	}
	fcx.demandSuptype(ast.RangeOf(expr), expected, ty)
	return ty
}

// checkExprWithExpectation is the entry point for every expression: it
// checks expr in isolation from the divergence and error state of the code
// around it, records its type, then merges both states back.
func (fcx *FnCtxt) checkExprWithExpectation(expr ast.Expr, expected Expectation) types.Ty {
	if !isBlockLike(expr) {
		fcx.warnIfUnreachable(expr, "expression")
	}
	oldDiverges, oldHasErrors := fcx.diverges, fcx.hasErrors
	fcx.diverges, fcx.hasErrors = DivergesMaybe, false

	ty := fcx.checkExprKind(expr, expected)

	// a value of type `!` is never produced
	if types.IsNever(ty) {
		fcx.diverges = fcx.diverges.Or(DivergesAlways(ast.RangeOf(expr), ""))
	}
	fcx.WriteTy(expr, ty)

	fcx.diverges = fcx.diverges.Or(oldDiverges)
	fcx.hasErrors = fcx.hasErrors || oldHasErrors
	return ty
}

func isBlockLike(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.Block, *ast.If, *ast.Loop:
		return true
	}
	return false
}

func (fcx *FnCtxt) checkExprKind(expr ast.Expr, expected Expectation) types.Ty {
	switch expr := expr.(type) {
	case *ast.Lit:
		return fcx.checkLit(expr, expected)
	case *ast.PathExpr:
		return fcx.checkPathExpr(expr)
	case *ast.Call:
		return fcx.checkCall(expr, expected)
	case *ast.MethodCall:
		return fcx.checkMethodCall(expr, expected)
	case *ast.Binary:
		return fcx.checkBinary(expr, expected)
	case *ast.Unary:
		return fcx.checkUnary(expr, expected)
	case *ast.AddrOf:
		return fcx.checkAddrOf(expr, expected)
	case *ast.Block:
		return fcx.checkBlockWithExpected(expr, expected)
	case *ast.Loop:
		return fcx.checkLoop(expr, expected)
	case *ast.Break:
		return fcx.checkBreak(expr)
	case *ast.Return:
		return fcx.checkReturn(expr)
	case *ast.If:
		return fcx.checkIf(expr, expected)
	case *ast.Closure:
		return fcx.checkClosure(expr, expected)
	case *ast.Cast:
		return fcx.checkCastExpr(expr)
	case *ast.Tuple:
		return fcx.checkTuple(expr, expected)
	case *ast.Field:
		return fcx.checkField(expr)
	case *ast.StructLit:
		return fcx.checkStructLit(expr, expected)
	case *ast.Index:
		return fcx.checkIndex(expr)
	case *ast.Assign:
		return fcx.checkAssign(expr)
	case *ast.Yield:
		return fcx.checkYield(expr)
	case *ast.ErrExpr:
		return types.Err
	}
	panic(ilerr.NewBug("unexpected expression %T at %v", expr, ast.RangeOf(expr)))
}

func (fcx *FnCtxt) checkLit(lit *ast.Lit, expected Expectation) types.Ty {
	switch lit.Kind {
	case ast.LitInt, ast.LitFloat:
		if lit.Suffix != "" {
			prim, ok := types.PrimByName(lit.Suffix)
			if !ok || !prim.Kind.IsNumeric() || (lit.Kind == ast.LitFloat && !prim.Kind.IsFloat()) {
				fcx.report(ilerr.New(ilerr.Unclassified{
					Positioner: ast.RangeOf(lit),
					From:       errors.Errorf("invalid suffix `%s` for number literal", lit.Suffix),
				}))
				return types.Err
			}
			return prim
		}
		hint, _ := expected.toOption(fcx).(*types.Prim)
		if lit.Kind == ast.LitInt {
			if hint != nil && hint.Kind.IsIntegral() {
				return hint
			}
			// `65 as char` only works from u8
			if hint != nil && hint.Kind == types.Char && expected.kind == expectCastableTo {
				return types.U8Ty
			}
			return fcx.infcx.NextIntVar()
		}
		if hint != nil && hint.Kind.IsFloat() {
			return hint
		}
		return fcx.infcx.NextFloatVar()
	case ast.LitBool:
		return types.BoolTy
	case ast.LitChar:
		return types.CharTy
	case ast.LitStr:
		return &types.Ref{Region: types.StaticRegion, Elem: types.StrTy}
	}
	return types.Err
}

func (fcx *FnCtxt) checkUnary(expr *ast.Unary, expected Expectation) types.Ty {
	span := ast.RangeOf(expr)
	switch expr.Op {
	case ast.UnDeref:
		operandTy := fcx.checkExpr(expr.Operand)
		operandTy = fcx.structurallyResolveType(ast.RangeOf(expr.Operand), operandTy)
		switch t := operandTy.(type) {
		case *types.ErrorType:
			return types.Err
		case *types.Ref:
			return t.Elem
		}
		if target, ok := fcx.lookupOpMethod(expr.ID(), span, items.LangDeref, "deref", "Target", operandTy); ok {
			return target
		}
		fcx.report(ilerr.New(ilerr.NewCannotDeref{Positioner: span, Ty: fcx.infcx.Resolve(operandTy)}))
		return types.Err
	}

	var hint Expectation
	if ty := expected.onlyHasType(fcx); ty != nil && types.IsNumeric(ty) {
		hint = ExpectHasType(ty)
	}
	operandTy := fcx.checkExprWithExpectation(expr.Operand, hint)
	operandTy = fcx.structurallyResolveType(ast.RangeOf(expr.Operand), operandTy)
	if types.IsError(operandTy) {
		return types.Err
	}
	lang, method, op := items.LangNeg, "neg", "-"
	builtin := types.IsNumeric(operandTy)
	if expr.Op == ast.UnNot {
		lang, method, op = items.LangNot, "not", "!"
		builtin = types.IsIntegral(operandTy) || operandTy == types.Ty(types.BoolTy)
	}
	if builtin {
		return operandTy
	}
	if out, ok := fcx.lookupOpMethod(expr.ID(), span, lang, method, items.OpOutput, operandTy); ok {
		return out
	}
	fcx.report(ilerr.New(ilerr.NewUnaryOpUnsupported{Positioner: span, Op: op, Ty: fcx.infcx.Resolve(operandTy)}))
	return types.Err
}

func (fcx *FnCtxt) checkBinary(expr *ast.Binary, expected Expectation) types.Ty {
	span := ast.RangeOf(expr)
	if expr.Op.IsLazy() {
		lhsTy := fcx.checkExprCoercibleToType(expr.Lhs, types.BoolTy)
		lhsDiverges := fcx.diverges
		rhsTy := fcx.checkExprCoercibleToType(expr.Rhs, types.BoolTy)
		// the rhs may not run at all
		fcx.diverges = lhsDiverges
		if types.ReferencesError(lhsTy) || types.ReferencesError(rhsTy) {
			return types.Err
		}
		return types.BoolTy
	}

	lhsTy := fcx.infcx.ShallowResolve(fcx.checkExpr(expr.Lhs))
	var rhsHint Expectation
	if types.IsNumeric(lhsTy) {
		rhsHint = ExpectHasType(lhsTy)
	}
	rhsTy := fcx.infcx.ShallowResolve(fcx.checkExprWithExpectation(expr.Rhs, rhsHint))
	if types.ReferencesError(lhsTy) || types.ReferencesError(rhsTy) {
		return types.Err
	}

	if isBuiltinBinop(lhsTy, rhsTy, expr.Op) {
		fcx.demandSuptype(ast.RangeOf(expr.Rhs), lhsTy, rhsTy)
		if expr.Op.IsComparison() {
			return types.BoolTy
		}
		return lhsTy
	}

	lang, method := items.BinOpLangItem(expr.Op)
	output := items.OpOutput
	if expr.Op.IsComparison() {
		output = ""
	}
	if out, ok := fcx.lookupOpMethod(expr.ID(), span, lang, method, output, lhsTy, rhsTy); ok {
		if expr.Op.IsComparison() {
			return types.BoolTy
		}
		return out
	}
	fcx.report(ilerr.New(ilerr.NewBinaryOpUnsupported{
		Positioner: span,
		Op:         expr.Op.String(),
		Lhs:        fcx.infcx.Resolve(lhsTy),
		Rhs:        fcx.infcx.Resolve(rhsTy),
	}))
	return types.Err
}

// isBuiltinBinop is true for operators on primitive operands, which need no
// trait impl
func isBuiltinBinop(lhs, rhs types.Ty, op ast.BinOp) bool {
	if types.IsIntegral(lhs) && types.IsIntegral(rhs) || types.IsFloating(lhs) && types.IsFloating(rhs) {
		return true
	}
	if !op.IsComparison() {
		return false
	}
	l, lok := lhs.(*types.Prim)
	r, rok := rhs.(*types.Prim)
	return lok && rok && l.Kind == r.Kind && (l.Kind == types.Bool || l.Kind == types.Char)
}

// lookupOpMethod resolves an overloaded operator through its lang trait.
// It registers `operands[0]: Trait<operands[1:]>` and returns the
// normalized output type, or nothing when the trait cannot apply.
func (fcx *FnCtxt) lookupOpMethod(node ast.NodeID, span ast.Range, lang items.LangItem, method, output string, operands ...types.Ty) (types.Ty, bool) {
	trait, ok := fcx.items.LangItem(lang)
	if !ok {
		return nil, false
	}
	args := make(types.Substs, len(operands))
	for i, op := range operands {
		args[i] = op
	}
	pred := &types.TraitPredicate{Trait: trait, TraitName: fcx.items.Name(trait), Args: args}
	if !fcx.engine.Evaluate(pred) {
		return nil, false
	}
	cause := traits.Cause{Span: span, Code: traits.BinOpObligation, BoundIndex: -1}
	fcx.register(cause, pred)
	if def, ok := items.FindAssoc(fcx.items, trait, method, ast.DefAssocFn); ok {
		fcx.WriteMethodCall(node, def, args)
	} else {
		fcx.WriteResolution(node, Resolution{Kind: ast.DefTrait, Def: trait})
	}
	if output == "" {
		return nil, true
	}
	proj := &types.Projection{Trait: trait, TraitName: pred.TraitName, Item: output, Args: args}
	return fcx.normalize(proj, cause), true
}

func (fcx *FnCtxt) checkAddrOf(expr *ast.AddrOf, expected Expectation) types.Ty {
	hint := NoExpectation
	if ty := expected.onlyHasType(fcx); ty != nil {
		if ref, ok := ty.(*types.Ref); ok {
			if isPlaceExpr(expr.Operand) {
				hint = ExpectHasType(ref.Elem)
			} else {
				hint = rvalueHint(fcx, ref.Elem)
			}
		}
	}
	ty := fcx.checkExprWithExpectation(expr.Operand, hint)
	if types.ReferencesError(ty) {
		return types.Err
	}
	return &types.Ref{Region: fcx.infcx.NextRegionVar(), Mut: expr.Mut, Elem: ty}
}

func (fcx *FnCtxt) checkLoop(loop *ast.Loop, expected Expectation) types.Ty {
	span := ast.RangeOf(loop)
	ctxt := &breakableCtxt{
		id:     loop.ID(),
		label:  loop.Label,
		isLoop: true,
		coerce: NewCoerceMany(expected.coercionTarget(fcx, span)),
	}
	ctxt = fcx.withBreakableCtxt(ctxt, func() {
		fcx.checkExprHasType(loop.Body, types.Unit)
	})
	if ctxt.mayBreak {
		// a break or an outer return may be what ends the loop
		fcx.diverges = DivergesMaybe
	} else {
		fcx.diverges = fcx.diverges.Or(DivergesAlways(span, "loop never breaks"))
	}
	return ctxt.coerce.Complete(fcx)
}

func (fcx *FnCtxt) checkBreak(brk *ast.Break) types.Ty {
	span := ast.RangeOf(brk)
	var ctxt *breakableCtxt
	var ok bool
	switch {
	case brk.Target != ast.NoNode:
		ctxt, ok = fcx.breakables.find(brk.Target)
	case brk.Label != "":
		ctxt, ok = fcx.breakables.byLabel(brk.Label)
	default:
		ctxt, ok = fcx.breakables.innermostLoop()
	}
	if !ok {
		if brk.Value != nil {
			fcx.checkExpr(brk.Value)
		}
		fcx.report(ilerr.New(ilerr.NewBreakOutsideLoop{Positioner: span}))
		return types.Err
	}

	ctxt.mayBreak = true
	if brk.Value != nil {
		ty := fcx.checkExprWithHint(brk.Value, ctxt.coerce.ExpectedTy())
		ctxt.coerce.Coerce(fcx, brk.Value, ty)
	} else {
		ctxt.coerce.CoerceForcedUnit(fcx, span, nil)
	}
	fcx.logger.Debug("break", "target", ctxt.id, "merged", ctxt.coerce.MergedTy())
	return types.NeverTy
}

func (fcx *FnCtxt) checkReturn(ret *ast.Return) types.Ty {
	span := ast.RangeOf(ret)
	if fcx.retCoercion == nil {
		if ret.Value != nil {
			fcx.checkExpr(ret.Value)
		}
		fcx.report(ilerr.New(ilerr.Unclassified{Positioner: span, From: errors.New("return statement outside of function body")}))
		return types.Err
	}
	if ret.Value != nil {
		ty := fcx.checkExprWithHint(ret.Value, fcx.retTy)
		fcx.retCoercion.Coerce(fcx, ret.Value, ty)
		return types.NeverTy
	}
	fcx.retCoercion.CoerceForcedUnitOr(fcx, func(expected types.Ty) {
		expected = fcx.infcx.Resolve(expected)
		if types.ReferencesError(expected) {
			return
		}
		fcx.report(ilerr.New(ilerr.NewReturnUnitInNonUnitFn{Positioner: span, Expected: expected}))
	})
	return types.NeverTy
}

func (fcx *FnCtxt) checkIf(ifx *ast.If, expected Expectation) types.Ty {
	span := ast.RangeOf(ifx)
	condTy := fcx.checkExprHasType(ifx.Cond, types.BoolTy)
	condDiverges := fcx.diverges
	fcx.diverges = DivergesMaybe

	expected = expected.adjustForBranches(fcx)
	coerce := NewCoerceMany(expected.coercionTarget(fcx, span))

	thenTy := fcx.checkExprWithExpectation(ifx.Then, expected)
	thenDiverges := fcx.diverges
	fcx.diverges = DivergesMaybe
	coerce.Coerce(fcx, ifx.Then, thenTy)

	if ifx.Else != nil {
		elseTy := fcx.checkExprWithExpectation(ifx.Else, expected)
		elseDiverges := fcx.diverges
		coerce.Coerce(fcx, ifx.Else, elseTy)
		// the code after the if is unreachable only when both branches diverge
		fcx.diverges = condDiverges.Or(thenDiverges.And(elseDiverges))
	} else {
		coerce.CoerceForcedUnit(fcx, span, nil)
		fcx.diverges = condDiverges
	}

	ty := coerce.Complete(fcx)
	if types.ReferencesError(condTy) {
		return types.Err
	}
	return ty
}

func (fcx *FnCtxt) checkTuple(tup *ast.Tuple, expected Expectation) types.Ty {
	var hints []types.Ty
	if ty, ok := expected.onlyHasType(fcx).(*types.Tuple); ok {
		hints = ty.Elems
	}
	elems := make([]types.Ty, len(tup.Elems))
	for i, e := range tup.Elems {
		if i < len(hints) {
			elems[i] = fcx.checkExprCoercibleToType(e, hints[i])
		} else {
			elems[i] = fcx.checkExpr(e)
		}
	}
	ty := types.MkTuple(elems...)
	if types.ReferencesError(ty) {
		return types.Err
	}
	return ty
}

// checkField resolves `operand.name`, dereferencing the operand as many
// times as needed to find a struct field or tuple element
func (fcx *FnCtxt) checkField(field *ast.Field) types.Ty {
	span := ast.RangeOf(field)
	baseTy := fcx.checkExpr(field.Operand)
	ty := fcx.structurallyResolveType(ast.RangeOf(field.Operand), baseTy)

	var derefs []Adjustment
	for {
		switch t := ty.(type) {
		case *types.ErrorType:
			return types.Err
		case *types.Adt:
			if t.Def.Kind == types.AdtStruct {
				if i, f := t.Def.NonEnumVariant().Field(field.Name); f != nil {
					fcx.WriteFieldIndex(field.ID(), i)
					fcx.ApplyAdjustments(field.Operand, derefs)
					return fcx.normalize(types.Subst(f.Ty, t.Args), traits.MiscCause(span))
				}
			}
		case *types.Tuple:
			if i, err := strconv.Atoi(field.Name); err == nil && i >= 0 && i < len(t.Elems) {
				fcx.WriteFieldIndex(field.ID(), i)
				fcx.ApplyAdjustments(field.Operand, derefs)
				return t.Elems[i]
			}
		case *types.Ref:
			ty = fcx.structurallyResolveType(span, t.Elem)
			derefs = append(derefs, Adjustment{Kind: AdjustDeref, Target: ty})
			continue
		}
		break
	}
	fcx.report(ilerr.New(ilerr.NewNoField{Positioner: span, Ty: fcx.infcx.Resolve(baseTy), Name: field.Name}))
	return types.Err
}

// isPlaceExpr is true for expressions that denote a memory location
func isPlaceExpr(expr ast.Expr) bool {
	switch expr := expr.(type) {
	case *ast.PathExpr:
		return expr.Path.Res.Kind == ast.ResLocal || expr.Path.Res.Kind == ast.ResErr
	case *ast.Field, *ast.Index:
		return true
	case *ast.Unary:
		return expr.Op == ast.UnDeref
	}
	return false
}

func (fcx *FnCtxt) checkAssign(assign *ast.Assign) types.Ty {
	lhsTy := fcx.checkExpr(assign.Lhs)
	if !isPlaceExpr(assign.Lhs) {
		fcx.report(ilerr.New(ilerr.NewInvalidAssignLhs{Positioner: ast.RangeOf(assign.Lhs)}))
	}
	rhsTy := fcx.checkExprCoercibleToType(assign.Rhs, lhsTy)
	fcx.requireTypeIsSizedDeferred(lhsTy, ast.RangeOf(assign.Lhs), traits.MiscObligation)
	if types.ReferencesError(lhsTy) || types.ReferencesError(rhsTy) {
		return types.Err
	}
	return types.Unit
}

func (fcx *FnCtxt) checkYield(y *ast.Yield) types.Ty {
	if fcx.yieldTy == nil {
		if y.Value != nil {
			fcx.checkExpr(y.Value)
		}
		fcx.report(ilerr.New(ilerr.Unclassified{Positioner: ast.RangeOf(y), From: errors.New("yield expression outside of generator literal")}))
		return types.Err
	}
	if y.Value != nil {
		fcx.checkExprCoercibleToType(y.Value, fcx.yieldTy)
	} else {
		fcx.demandSuptype(ast.RangeOf(y), fcx.yieldTy, types.Unit)
	}
	// generators are resumed with ()
	return types.Unit
}
