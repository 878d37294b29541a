package typeck

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgCountMismatch(t *testing.T) {
	f := newFixture(t)
	foo := f.fn("foo", types.Unit, types.I32Ty, types.I32Ty)
	owner := f.fn("main", types.Unit)
	args := []ast.Expr{f.intLit("1"), f.intLit("2"), f.intLit("3")}
	call := f.call(f.path(foo), args...)
	res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

	require.Equal(t, []ilerr.ErrCode{ilerr.ArgCount}, codes(res))
	count := res.Diagnostics.Errors()[0].(ilerr.NewArgCount)
	assert.Equal(t, 2, count.Expected)
	assert.Equal(t, 3, count.Supplied)
	for _, arg := range args {
		assert.Equal(t, "i32", res.NodeTypes[arg.ID()].String())
	}
	assert.False(t, res.TaintedByErrors)
}

func TestMissingUnitArgument(t *testing.T) {
	f := newFixture(t)
	takesUnit := f.fn("takes_unit", types.Unit, types.Unit)
	owner := f.fn("main", types.Unit)
	call := f.call(f.path(takesUnit))
	res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

	errs := res.Diagnostics.WithCode(ilerr.ArgCount)
	require.Len(t, errs, 1)
	fixes := ilerr.SuggestionsOf(errs[0])
	require.Len(t, fixes, 1)
	assert.Equal(t, "()", fixes[0].Replacement)
	assert.Equal(t, call.End()-1, fixes[0].Pos())
}

func TestArgumentMismatch(t *testing.T) {
	f := newFixture(t)
	foo := f.fn("foo", types.Unit, types.BoolTy)
	owner := f.fn("main", types.Unit)
	arg := f.intLit("1")
	res := f.check(owner, DefaultConfig(), stmts(f.semi(f.call(f.path(foo), arg))), nil)

	mismatches := res.Diagnostics.WithCode(ilerr.Mismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, ast.RangeOf(arg), ast.RangeOf(mismatches[0]))
}

func TestVariadicPromotion(t *testing.T) {
	tests := []struct {
		name   string
		arg    func(f *fixture, callee ast.DefID) ast.Expr
		castTo string
	}{
		{"f32", func(f *fixture, _ ast.DefID) ast.Expr { return &ast.Lit{Meta: f.meta(4), Kind: ast.LitFloat, Value: "1.0", Suffix: "f32"} }, "c_double"},
		{"u8", func(f *fixture, _ ast.DefID) ast.Expr { return f.suffixed("1", "u8") }, "c_uint"},
		{"i16", func(f *fixture, _ ast.DefID) ast.Expr { return f.suffixed("1", "i16") }, "c_int"},
		{"bool", func(f *fixture, _ ast.DefID) ast.Expr { return f.boolLit(true) }, "c_int"},
		{"function item", func(f *fixture, callee ast.DefID) ast.Expr { return f.path(callee) }, "fn(i32, ...)"},
		{"i32", func(f *fixture, _ ast.DefID) ast.Expr { return f.suffixed("1", "i32") }, ""},
		{"unsuffixed integer", func(f *fixture, _ ast.DefID) ast.Expr { return f.intLit("1") }, ""},
		{"f64", func(f *fixture, _ ast.DefID) ast.Expr { return f.floatLit("1.0") }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			printf := f.variadicFn("printf", types.Unit, types.I32Ty)
			owner := f.fn("main", types.Unit)
			call := f.call(f.path(printf), f.intLit("0"), tt.arg(f, printf))
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

			promotions := res.Diagnostics.WithCode(ilerr.VariadicPromotion)
			if tt.castTo == "" {
				assert.Empty(t, res.Diagnostics.Errors())
				return
			}
			require.Len(t, promotions, 1)
			assert.Equal(t, tt.castTo, promotions[0].(ilerr.NewVariadicPromotion).CastTo)
		})
	}
}

func TestVariadicNeedsFormalArguments(t *testing.T) {
	f := newFixture(t)
	printf := f.variadicFn("printf", types.Unit, types.I32Ty)
	owner := f.fn("main", types.Unit)
	res := f.check(owner, DefaultConfig(), stmts(f.semi(f.call(f.path(printf)))), nil)
	assert.Equal(t, []ilerr.ErrCode{ilerr.VariadicArgCount}, codes(res))
}
