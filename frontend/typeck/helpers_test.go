package typeck

import (
	"go/token"
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/infer"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/stretchr/testify/require"
)

// fixture builds an item table and the bodies checked against it. Every
// node gets its own id and a range of its own, laid out left to right.
type fixture struct {
	t     *testing.T
	table *items.Table
	sized ast.DefID
	next  ast.NodeID
	pos   token.Pos
}

func newFixture(t *testing.T) *fixture {
	table := items.NewTable()
	sized := table.Add(&items.Item{Kind: ast.DefTrait, Name: "Sized", Generics: selfGenerics()})
	table.SetLang(items.LangSized, sized)
	return &fixture{t: t, table: table, sized: sized, pos: 1}
}

func selfGenerics(params ...types.GenericParamDef) *types.Generics {
	all := []types.GenericParamDef{{Name: "Self", Index: 0, Kind: types.ParamType}}
	for i, p := range params {
		p.Index = i + 1
		all = append(all, p)
	}
	return &types.Generics{HasSelf: true, Params: all}
}

func (f *fixture) meta(width int) ast.Meta {
	f.next++
	start := f.pos
	f.pos += token.Pos(width + 1)
	return ast.Meta{Range: ast.Range{PosStart: start, PosEnd: start + token.Pos(width)}, NodeID: f.next}
}

func (f *fixture) fn(name string, output types.Ty, inputs ...types.Ty) ast.DefID {
	return f.table.Add(&items.Item{Kind: ast.DefFn, Name: name, Sig: &types.FnSig{Inputs: inputs, Output: output}})
}

func (f *fixture) variadicFn(name string, output types.Ty, inputs ...types.Ty) ast.DefID {
	return f.table.Add(&items.Item{Kind: ast.DefFn, Name: name, Sig: &types.FnSig{Inputs: inputs, Output: output, CVariadic: true}})
}

func (f *fixture) check(owner ast.DefID, cfg Config, stmts []ast.Stmt, tail ast.Expr, params ...ast.Pat) *Results {
	res, err := f.tryCheck(owner, cfg, f.block(stmts, tail), params...)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) tryCheck(owner ast.DefID, cfg Config, value *ast.Block, params ...ast.Pat) (*Results, error) {
	cfg.Logger = log.Discard
	return CheckBody(f.table, &ast.Body{Owner: owner, Params: params, Value: value}, cfg)
}

// fnCtxt returns a checker for owner that tests can drive directly
func (f *fixture) fnCtxt(owner ast.DefID, cfg Config) *FnCtxt {
	cfg.Logger = log.Discard
	infcx := infer.NewCtxt(log.Discard)
	engine := traits.NewFulfillment(infcx, f.table, f.table.PredicatesOf(owner), log.Discard)
	return NewFnCtxt(f.table, infcx, engine, owner, cfg)
}

func (f *fixture) intLit(v string) *ast.Lit {
	return &ast.Lit{Meta: f.meta(len(v)), Kind: ast.LitInt, Value: v}
}

func (f *fixture) suffixed(v, suffix string) *ast.Lit {
	return &ast.Lit{Meta: f.meta(len(v) + len(suffix)), Kind: ast.LitInt, Value: v, Suffix: suffix}
}

func (f *fixture) floatLit(v string) *ast.Lit {
	return &ast.Lit{Meta: f.meta(len(v)), Kind: ast.LitFloat, Value: v}
}

func (f *fixture) boolLit(v bool) *ast.Lit {
	s := "false"
	if v {
		s = "true"
	}
	return &ast.Lit{Meta: f.meta(len(s)), Kind: ast.LitBool, Value: s}
}

func (f *fixture) binding(name string) *ast.BindingPat {
	return &ast.BindingPat{Meta: f.meta(len(name)), Name: name}
}

func (f *fixture) local(b *ast.BindingPat) *ast.PathExpr {
	m := f.meta(len(b.Name))
	return &ast.PathExpr{Meta: m, Path: &ast.Path{
		Range:    m.Range,
		Res:      ast.LocalRes(b.ID()),
		Segments: []ast.PathSegment{{Range: m.Range, Name: b.Name}},
	}}
}

func (f *fixture) path(def ast.DefID, args ...ast.GenericArg) *ast.PathExpr {
	name := f.table.Name(def)
	m := f.meta(len(name))
	seg := ast.PathSegment{Range: m.Range, Name: name}
	if len(args) > 0 {
		seg.Args = &ast.GenericArgs{Range: m.Range, Args: args}
	}
	return &ast.PathExpr{Meta: m, Path: &ast.Path{Range: m.Range, Res: ast.DefRes(def), Segments: []ast.PathSegment{seg}}}
}

func (f *fixture) prim(name string) *ast.PathType {
	return &ast.PathType{Meta: f.meta(len(name)), Res: ast.TypeRes{Kind: ast.TyResPrim, Prim: name}}
}

func (f *fixture) let(pat ast.Pat, ty ast.TypeExpr, init ast.Expr) *ast.Let {
	return &ast.Let{Meta: f.meta(3), Pat: pat, Type: ty, Init: init}
}

// semi ends right after its expression, with the `;`
func (f *fixture) semi(e ast.Expr) *ast.Semi {
	f.next++
	return &ast.Semi{Meta: ast.Meta{Range: ast.Range{PosStart: e.Pos(), PosEnd: e.End() + 1}, NodeID: f.next}, Expr: e}
}

func (f *fixture) block(stmts []ast.Stmt, tail ast.Expr) *ast.Block {
	return &ast.Block{Meta: f.meta(2), Stmts: stmts, Tail: tail}
}

func (f *fixture) call(callee ast.Expr, args ...ast.Expr) *ast.Call {
	return &ast.Call{Meta: f.meta(2), Callee: callee, Args: args}
}

func (f *fixture) binary(op ast.BinOp, lhs, rhs ast.Expr) *ast.Binary {
	return &ast.Binary{Meta: f.meta(1), Op: op, Lhs: lhs, Rhs: rhs}
}

func (f *fixture) ret(value ast.Expr) *ast.Return {
	return &ast.Return{Meta: f.meta(6), Value: value}
}

func (f *fixture) loop(stmts []ast.Stmt) *ast.Loop {
	return &ast.Loop{Meta: f.meta(4), Body: f.block(stmts, nil)}
}

func (f *fixture) brk(target ast.NodeID, value ast.Expr) *ast.Break {
	return &ast.Break{Meta: f.meta(5), Target: target, Value: value}
}

func (f *fixture) cast(operand ast.Expr, to ast.TypeExpr) *ast.Cast {
	return &ast.Cast{Meta: f.meta(2), Operand: operand, Type: to}
}

func stmts(s ...ast.Stmt) []ast.Stmt { return s }

func codes(res *Results) []ilerr.ErrCode {
	var out []ilerr.ErrCode
	for _, e := range res.Diagnostics.Errors() {
		out = append(out, e.Code())
	}
	return out
}
