package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/types"
)

// checkBlockWithExpected checks the statements of blk in order and merges
// its tail into the block's type. A block some break targets merges the
// break values with its tail.
func (fcx *FnCtxt) checkBlockWithExpected(blk *ast.Block, expected Expectation) types.Ty {
	prevDiverges := fcx.diverges
	span := ast.RangeOf(blk)

	coerce := NewCoerceMany(expected.coercionTarget(fcx, span))
	ctxt := &breakableCtxt{id: blk.ID(), label: blk.Label, coerce: coerce}

	body := func() {
		for _, stmt := range blk.Stmts {
			fcx.checkStmt(stmt)
		}
		if blk.Tail != nil {
			tailTy := fcx.checkExprWithExpectation(blk.Tail, expected)
			coerce.Coerce(fcx, blk.Tail, tailTy)
			return
		}
		if fcx.diverges.IsAlways() {
			return
		}
		// fall through to the end of the block with an implicit ()
		coerce.CoerceForcedUnit(fcx, span.ShrinkToEnd(), func(expectedTy types.Ty) []ilerr.Suggestion {
			return fcx.suggestSemicolonRemoval(blk, expectedTy)
		})
	}
	if blk.TargetedByBreak {
		ctxt = fcx.withBreakableCtxt(ctxt, body)
	} else {
		body()
	}

	if ctxt.mayBreak {
		// the end of the block is reachable through the break, whatever
		// happens at the end of the block itself
		fcx.diverges = prevDiverges
	}
	ty := coerce.Complete(fcx)
	if fcx.hasErrors || types.ReferencesError(fcx.infcx.Resolve(ty)) {
		ty = types.Err
	}
	return ty
}

// suggestSemicolonRemoval offers to remove the `;` of the last statement of
// blk when its expression already has the expected type
func (fcx *FnCtxt) suggestSemicolonRemoval(blk *ast.Block, expected types.Ty) []ilerr.Suggestion {
	if len(blk.Stmts) == 0 || types.IsUnit(fcx.infcx.ShallowResolve(expected)) {
		return nil
	}
	semi, ok := blk.Stmts[len(blk.Stmts)-1].(*ast.Semi)
	if !ok {
		return nil
	}
	lastTy, ok := fcx.NodeTyOpt(semi.Expr.ID())
	if !ok || types.IsNever(fcx.infcx.ShallowResolve(lastTy)) || !fcx.infcx.CanSub(lastTy, expected) {
		return nil
	}
	return []ilerr.Suggestion{{
		Range:       ast.RangeOf(semi).LastByte(),
		Message:     "consider removing this semicolon",
		Replacement: "",
	}}
}

// checkStmt checks one statement. The divergence and error flags of the
// enclosing code are hidden while doing so, then combined with the
// statement's own.
func (fcx *FnCtxt) checkStmt(stmt ast.Stmt) {
	if _, isItem := stmt.(*ast.ItemStmt); isItem {
		fcx.WriteTy(stmt, types.Unit)
		return
	}
	fcx.warnIfUnreachable(stmt, "statement")

	oldDiverges, oldHasErrors := fcx.diverges, fcx.hasErrors
	fcx.diverges, fcx.hasErrors = DivergesMaybe, false

	switch stmt := stmt.(type) {
	case *ast.Let:
		fcx.checkDeclLocal(stmt)
	case *ast.ExprStmt:
		// a block-like expression in statement position must be unit
		ty := fcx.checkExprWithHint(stmt.Expr, types.Unit)
		if !types.ReferencesError(ty) {
			fcx.demandCoerce(stmt.Expr, ty, types.Unit)
		}
		fcx.WriteTy(stmt, types.Unit)
	case *ast.Semi:
		fcx.checkExpr(stmt.Expr)
		fcx.WriteTy(stmt, types.Unit)
	}

	fcx.diverges = fcx.diverges.Or(oldDiverges)
	fcx.hasErrors = fcx.hasErrors || oldHasErrors
}

// warnIfUnreachable reports node as unreachable the first time it is
// checked after code that always diverges
func (fcx *FnCtxt) warnIfUnreachable(node ast.Node, kind string) {
	if fcx.diverges.state != divergesAlways {
		return
	}
	origin, note := fcx.diverges.Span, fcx.diverges.Note
	fcx.diverges = DivergesWarnedAlways
	if !fcx.cfg.WarnUnreachable {
		return
	}
	fcx.logger.Debug("unreachable", "node", node, "kind", kind)
	fcx.report(ilerr.New(ilerr.NewUnreachable{Positioner: ast.RangeOf(node), Kind: kind, Origin: origin, Note: note}))
}
