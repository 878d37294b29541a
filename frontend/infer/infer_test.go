package infer

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyBindsVariables(t *testing.T) {
	c := NewCtxt(log.Discard)
	v := c.NextTyVar(ast.Range{})
	require.NoError(t, c.Eq(v, types.MkTuple(types.BoolTy, types.I32Ty)))
	assert.Equal(t, "(bool, i32)", c.Resolve(v).String())
	assert.Empty(t, c.UnresolvedVars())
}

func TestNumericVariables(t *testing.T) {
	tests := []struct {
		name  string
		mk    func(c *Ctxt) *types.Infer
		with  types.Ty
		fails bool
	}{
		{"int with i32", func(c *Ctxt) *types.Infer { return c.NextIntVar() }, types.I32Ty, false},
		{"int with u8", func(c *Ctxt) *types.Infer { return c.NextIntVar() }, types.U8Ty, false},
		{"int with f64", func(c *Ctxt) *types.Infer { return c.NextIntVar() }, types.F64Ty, true},
		{"int with bool", func(c *Ctxt) *types.Infer { return c.NextIntVar() }, types.BoolTy, true},
		{"float with f32", func(c *Ctxt) *types.Infer { return c.NextFloatVar() }, types.F32Ty, false},
		{"float with i32", func(c *Ctxt) *types.Infer { return c.NextFloatVar() }, types.I32Ty, true},
		{"int with error", func(c *Ctxt) *types.Infer { return c.NextIntVar() }, types.Err, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCtxt(log.Discard)
			err := c.Eq(tt.mk(c), tt.with)
			if tt.fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTyVarTakesNumericKind(t *testing.T) {
	c := NewCtxt(log.Discard)
	tv := c.NextTyVar(ast.Range{})
	iv := c.NextIntVar()
	require.NoError(t, c.Eq(tv, iv))

	kind, ok := c.UnconstrainedNumeric(tv)
	assert.True(t, ok)
	assert.Equal(t, types.IntVar, kind)
	assert.Error(t, c.Eq(tv, types.BoolTy))
}

func TestFailedUnificationIsRolledBack(t *testing.T) {
	c := NewCtxt(log.Discard)
	a, b := c.NextTyVar(ast.Range{}), c.NextTyVar(ast.Range{})
	// a binds to i32 before the mismatch on the second element is found
	err := c.Eq(types.MkTuple(a, types.BoolTy), types.MkTuple(types.I32Ty, types.CharTy))
	require.Error(t, err)
	assert.True(t, types.IsTyVar(c.ShallowResolve(a)))

	assert.True(t, c.CanSub(b, types.I32Ty))
	assert.True(t, types.IsTyVar(c.ShallowResolve(b)), "CanSub must not bind")
}

func TestOccursCheck(t *testing.T) {
	c := NewCtxt(log.Discard)
	v := c.NextTyVar(ast.Range{})
	err := c.Eq(v, &types.Ref{Elem: v})
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.True(t, typeErr.Cyclic)
}

func TestDivergingPropagatesThroughUnion(t *testing.T) {
	c := NewCtxt(log.Discard)
	plain := c.NextTyVar(ast.Range{})
	diverging := c.NextDivergingTyVar(ast.Range{})
	assert.False(t, c.TypeVarDiverges(plain))
	require.NoError(t, c.Eq(diverging, plain))
	assert.True(t, c.TypeVarDiverges(plain))
	assert.Len(t, c.UnresolvedVars(), 1)
}

func TestErrorTypeUnifiesWithAnything(t *testing.T) {
	c := NewCtxt(log.Discard)
	assert.NoError(t, c.Eq(types.Err, types.BoolTy))
	assert.NoError(t, c.Eq(types.MkTuple(types.Err), types.MkTuple(types.StrTy)))
	assert.Error(t, c.Eq(types.NeverTy, types.BoolTy))
}

func TestNestedSnapshots(t *testing.T) {
	c := NewCtxt(log.Discard)
	v := c.NextTyVar(ast.Range{})
	outer := c.StartSnapshot()
	require.NoError(t, c.Eq(v, types.BoolTy))
	inner := c.StartSnapshot()
	c.NextTyVar(ast.Range{})
	c.RollbackTo(inner)
	assert.Equal(t, types.BoolTy, c.ShallowResolve(v))
	c.RollbackTo(outer)
	assert.True(t, types.IsTyVar(c.ShallowResolve(v)))
	assert.False(t, c.InSnapshot())
}
