package typeck

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCast(t *testing.T) {
	adt := &types.Adt{Def: &types.AdtDef{Name: "Point"}}
	fnPtr := &types.FnPtr{Sig: types.FnSig{Output: types.Unit}}
	tests := []struct {
		from, to types.Ty
		kind     CastKind
		code     ilerr.ErrCode
	}{
		{types.I32Ty, types.F64Ty, CastNumeric, ilerr.None},
		{types.F32Ty, types.U8Ty, CastNumeric, ilerr.None},
		{types.BoolTy, types.I32Ty, CastPrimInt, ilerr.None},
		{types.CharTy, types.MkPrim(types.U32), CastPrimInt, ilerr.None},
		{types.U8Ty, types.CharTy, CastU8Char, ilerr.None},
		{fnPtr, types.UsizeTy, CastFnPtrAddr, ilerr.None},
		{types.I32Ty, types.BoolTy, 0, ilerr.BoolCast},
		{types.CharTy, types.BoolTy, 0, ilerr.InvalidCast},
		{types.MkPrim(types.U32), types.CharTy, 0, ilerr.CharCast},
		{types.BoolTy, types.CharTy, 0, ilerr.InvalidCast},
		{adt, types.I32Ty, 0, ilerr.NonPrimitiveCast},
		{types.MkTuple(types.I32Ty), types.I32Ty, 0, ilerr.NonPrimitiveCast},
		{types.BoolTy, types.F32Ty, 0, ilerr.InvalidCast},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+" as "+tt.to.String(), func(t *testing.T) {
			kind, code := classifyCast(tt.from, tt.to)
			assert.Equal(t, tt.code, code)
			if code == ilerr.None {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestCastExpressions(t *testing.T) {
	tests := []struct {
		name    string
		operand func(f *fixture) ast.Expr
		to      string
		kind    CastKind
		code    ilerr.ErrCode
	}{
		{"integer literal as char is u8", func(f *fixture) ast.Expr { return f.intLit("65") }, "char", CastU8Char, ilerr.None},
		{"u32 as char", func(f *fixture) ast.Expr { return f.suffixed("65", "u32") }, "char", 0, ilerr.CharCast},
		{"bool as integer", func(f *fixture) ast.Expr { return f.boolLit(true) }, "i64", CastPrimInt, ilerr.None},
		{"integer as float", func(f *fixture) ast.Expr { return f.suffixed("1", "i8") }, "f32", CastNumeric, ilerr.None},
		{"to the same type", func(f *fixture) ast.Expr { return f.suffixed("1", "u16") }, "u16", CastTrivial, ilerr.None},
		{"float as bool", func(f *fixture) ast.Expr { return f.floatLit("1.5") }, "bool", 0, ilerr.BoolCast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.fn("main", types.Unit)
			cast := f.cast(tt.operand(f), f.prim(tt.to))
			res := f.check(owner, DefaultConfig(), stmts(f.semi(cast)), nil)

			if tt.code != ilerr.None {
				assert.Equal(t, []ilerr.ErrCode{tt.code}, codes(res))
				assert.NotContains(t, res.CastKinds, cast.ID())
				return
			}
			require.Empty(t, res.Diagnostics.Errors())
			assert.Equal(t, tt.kind, res.CastKinds[cast.ID()])
			assert.Equal(t, tt.to, res.NodeTypes[cast.ID()].String())
		})
	}
}
