package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// LocalTy is the type of a local variable. Decl is fixed when the local is
// declared; Revealed is what uses of the local see, which becomes the error
// type when the declaration failed to type check.
type LocalTy struct {
	Decl     types.Ty
	Revealed types.Ty
}

// declareLocal assigns a type to a local: its annotation when it has one,
// else a fresh variable
func (fcx *FnCtxt) declareLocal(id ast.NodeID, span ast.Range, annotation types.Ty) LocalTy {
	if existing, ok := fcx.locals[id]; ok {
		return existing
	}
	ty := annotation
	if ty == nil {
		ty = fcx.infcx.NextTyVar(span)
	}
	local := LocalTy{Decl: ty, Revealed: ty}
	fcx.locals[id] = local
	fcx.localOrder = append(fcx.localOrder, id)
	fcx.logger.Debug("declare local", "local", id, "ty", ty)
	return local
}

// gatherLocals declares every binding of pat, and requires them to be sized
func (fcx *FnCtxt) gatherLocals(pat ast.Pat, code traits.CauseCode) {
	ast.WalkPat(pat, func(p ast.Pat) {
		b, ok := p.(*ast.BindingPat)
		if !ok {
			return
		}
		local := fcx.declareLocal(b.ID(), ast.RangeOf(b), nil)
		fcx.requireTypeIsSizedDeferred(local.Decl, ast.RangeOf(b), code)
	})
}

// localTy looks up a local. Paths to undeclared locals are a bug of the
// resolution layer, reported as a delayed bug.
func (fcx *FnCtxt) localTy(span ast.Range, id ast.NodeID) LocalTy {
	if local, ok := fcx.locals[id]; ok {
		return local
	}
	fcx.delayBug(ilerr.DelayedBug("no type for local variable %v at %v", id, span))
	return LocalTy{Decl: types.Err, Revealed: types.Err}
}

// revealAsError makes every use of the locals bound by pat see the error type
func (fcx *FnCtxt) revealAsError(pat ast.Pat) {
	ast.WalkPat(pat, func(p ast.Pat) {
		if local, ok := fcx.locals[p.ID()]; ok {
			local.Revealed = types.Err
			fcx.locals[p.ID()] = local
		}
	})
}

// checkDeclLocal checks `let pat: T = init;`
func (fcx *FnCtxt) checkDeclLocal(let *ast.Let) {
	var annotation types.Ty
	if let.Type != nil {
		user := fcx.lowerUserTy(let.Type)
		fcx.WriteUserTypeAnnotationFromTy(let.ID(), user)
		annotation = fcx.normalize(user, traits.MiscCause(ast.RangeOf(let.Type)))
	}
	local := fcx.declareLocal(let.ID(), ast.RangeOf(let), annotation)
	fcx.gatherLocals(let.Pat, traits.SizedLocal)

	failed := false
	if let.Init != nil {
		initTy := fcx.checkDeclInitializer(let, local.Decl)
		failed = types.ReferencesError(initTy)
	}
	if !fcx.checkPat(let.Pat, local.Decl) {
		failed = true
	}
	if failed {
		fcx.revealAsError(let.Pat)
		local.Revealed = types.Err
		fcx.locals[let.ID()] = local
	}
	fcx.WriteTy(let, local.Revealed)
}

// checkDeclInitializer checks the initializer against the type of the
// local. Initializers bound by reference must have exactly that type,
// others may be coerced to it.
func (fcx *FnCtxt) checkDeclInitializer(let *ast.Let, localTy types.Ty) types.Ty {
	if hasRef, _ := ast.ContainsExplicitRefBinding(let.Pat); hasRef {
		initTy := fcx.checkExprWithHint(let.Init, localTy)
		fcx.demandEq(let.Init, localTy, initTy)
		return initTy
	}
	return fcx.checkExprCoercibleToType(let.Init, localTy)
}
