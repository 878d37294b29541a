package typeck

import (
	"maps"
	"slices"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

// writeback replaces every inference variable in the results by what it
// was inferred to. Variables nothing decided are reported once, at the
// first node they appear in, and become the error type.
func (fcx *FnCtxt) writeback() {
	r := fcx.results
	for _, id := range r.NodeIDs() {
		r.NodeTypes[id] = fcx.resolveNode(id, r.NodeTypes[id])
	}
	for _, id := range slices.Sorted(maps.Keys(r.NodeSubsts)) {
		substs := fcx.infcx.ResolveSubsts(r.NodeSubsts[id])
		r.NodeSubsts[id] = types.FoldSubsts(substs, fcx.unresolvedFolder(id))
	}
	for _, id := range slices.Sorted(maps.Keys(r.Adjustments)) {
		adj := slices.Clone(r.Adjustments[id])
		for i := range adj {
			adj[i].Target = fcx.resolveNode(id, adj[i].Target)
		}
		r.Adjustments[id] = adj
	}
	for _, id := range slices.Sorted(maps.Keys(r.GeneratorInteriors)) {
		r.GeneratorInteriors[id] = fcx.resolveNode(id, r.GeneratorInteriors[id])
	}
	for i, ty := range r.SizedTypes {
		r.SizedTypes[i] = fcx.resolveNode(ast.NoNode, ty)
	}
	for def, use := range r.OpaqueTypes {
		use.Ty = fcx.resolveNode(ast.NoNode, use.Ty)
		r.OpaqueTypes[def] = use
	}
	fcx.logger.Debug("writeback done", "nodes", len(r.NodeTypes), "tainted", r.TaintedByErrors)
}

func (fcx *FnCtxt) resolveNode(id ast.NodeID, ty types.Ty) types.Ty {
	ty = fcx.infcx.Resolve(ty)
	if !types.HasInfer(ty) {
		return ty
	}
	return fcx.unresolvedFolder(id).FoldTy(ty)
}

// unresolvedFolder replaces the variables left in a type by the error type,
// reporting each of them the first time it is seen
func (fcx *FnCtxt) unresolvedFolder(id ast.NodeID) types.Folder {
	return unresolvedFolder{fcx: fcx, node: id}
}

type unresolvedFolder struct {
	fcx  *FnCtxt
	node ast.NodeID
}

func (f unresolvedFolder) FoldTy(t types.Ty) types.Ty {
	inf, ok := t.(*types.Infer)
	if !ok {
		return types.SuperFold(t, f)
	}
	fcx := f.fcx
	if !fcx.results.TaintedByErrors && !fcx.results.Diagnostics.HasError() {
		span, ok := fcx.nodeSpans[f.node]
		if !ok {
			span = fcx.infcx.VarOrigin(inf.Var)
		}
		fcx.reportCannotInfer(span, inf)
	}
	fcx.setTainted()
	return types.Err
}

func (f unresolvedFolder) FoldRegion(r types.Region) types.Region { return r }

func (f unresolvedFolder) FoldConst(c *types.Const) *types.Const {
	if c.Kind == types.ConstInfer {
		f.fcx.setTainted()
		return &types.Const{Kind: types.ConstError}
	}
	return c
}
