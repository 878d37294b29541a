package typeck

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBodyInfersLocals(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.I32Ty)

	x, y := f.binding("x"), f.binding("y")
	five, two, one := f.intLit("5"), f.floatLit("2.0"), f.intLit("1")
	sum := f.binary(ast.OpAdd, f.local(x), one)
	res := f.check(owner, DefaultConfig(), stmts(
		f.let(x, nil, five),
		f.let(y, f.prim("f64"), two),
	), sum)

	require.Empty(t, res.Diagnostics.Errors())
	assert.False(t, res.TaintedByErrors)
	for node, want := range map[ast.NodeID]string{
		x.ID():    "i32",
		y.ID():    "f64",
		five.ID(): "i32",
		two.ID():  "f64",
		one.ID():  "i32",
		sum.ID():  "i32",
	} {
		assert.Equal(t, want, res.NodeTypes[node].String(), "type of %v", node)
	}
}

func TestResultsHaveNoInferenceVariables(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	a, b, c := f.binding("a"), f.binding("b"), f.binding("c")
	res := f.check(owner, DefaultConfig(), stmts(
		f.let(a, nil, f.intLit("1")),
		f.let(b, nil, f.binary(ast.OpMul, f.local(a), f.intLit("2"))),
		f.let(c, nil, f.binary(ast.OpLt, f.floatLit("0.5"), f.floatLit("1.5"))),
	), nil)

	require.Empty(t, res.Diagnostics.Errors())
	require.NotEmpty(t, res.NodeTypes)
	for _, id := range res.NodeIDs() {
		assert.False(t, types.HasInfer(res.NodeTypes[id]), "node %v has type %v", id, res.NodeTypes[id])
	}
	assert.Equal(t, "bool", res.NodeTypes[c.ID()].String())
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		init  func(f *fixture) ast.Expr
		want  string
		codes []ilerr.ErrCode
	}{
		{"integer", func(f *fixture) ast.Expr { return f.intLit("5") }, "i32", nil},
		{"float", func(f *fixture) ast.Expr { return f.floatLit("5.0") }, "f64", nil},
		{"suffixed", func(f *fixture) ast.Expr { return f.suffixed("5", "u16") }, "u16", nil},
		{"diverging", func(f *fixture) ast.Expr { return f.ret(nil) }, "!", nil},
		{"bad suffix", func(f *fixture) ast.Expr { return f.suffixed("5", "u7") }, "{type error}", []ilerr.ErrCode{ilerr.None}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.fn("main", types.Unit)
			x := f.binding("x")
			res := f.check(owner, DefaultConfig(), stmts(f.let(x, nil, tt.init(f))), nil)
			assert.Equal(t, tt.want, res.NodeTypes[x.ID()].String())
			assert.Equal(t, tt.codes, codes(res))
		})
	}
}

func TestTaintedBodyFallsBackToError(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	broken, x := f.binding("broken"), f.binding("x")
	res := f.check(owner, DefaultConfig(), stmts(
		f.let(broken, nil, &ast.ErrExpr{Meta: f.meta(1)}),
		f.let(x, nil, f.intLit("5")),
	), nil)

	assert.True(t, res.TaintedByErrors)
	assert.True(t, types.IsError(res.NodeTypes[x.ID()]))
	// the error was reported by whoever produced the erroneous expression
	assert.Empty(t, res.Diagnostics.WithCode(ilerr.CannotInfer))
}

func TestUnconstrainedVariableIsReportedOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	x, y := f.binding("x"), f.binding("y")
	infer := &ast.InferType{Meta: f.meta(1)}
	res := f.check(owner, DefaultConfig(), stmts(
		f.let(x, infer, nil),
		f.let(y, nil, f.local(x)),
	), nil)

	assert.Len(t, res.Diagnostics.WithCode(ilerr.CannotInfer), 1)
	assert.True(t, res.TaintedByErrors)
	assert.True(t, types.IsError(res.NodeTypes[y.ID()]))
}

func TestCheckerBugIsReturnedAsError(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	lit := f.intLit("1")
	// the same node twice, with two different types
	lit2 := &ast.Lit{Meta: lit.Meta, Kind: ast.LitBool, Value: "true"}
	_, err := f.tryCheck(owner, DefaultConfig(), f.block(stmts(f.semi(lit), f.semi(lit2)), nil))

	var bug *ilerr.Bug
	require.ErrorAs(t, err, &bug)
}
