package typeck

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAdjustments(t *testing.T) {
	deref := Adjustment{Kind: AdjustDeref, Target: types.I32Ty}
	borrow := Adjustment{Kind: AdjustBorrow, Target: &types.Ref{Elem: types.I32Ty}}
	never := Adjustment{Kind: AdjustNeverToAny, Target: types.BoolTy}

	tests := []struct {
		name   string
		first  []Adjustment
		second []Adjustment
		want   []Adjustment
		panics bool
	}{
		{"onto nothing", nil, []Adjustment{deref}, []Adjustment{deref}, false},
		{"never to any absorbs anything", []Adjustment{never}, []Adjustment{deref, borrow}, []Adjustment{never}, false},
		{"never to any twice", []Adjustment{never}, []Adjustment{never}, []Adjustment{never}, false},
		{"reborrow over a deref", []Adjustment{deref}, []Adjustment{deref, borrow}, []Adjustment{deref, borrow}, false},
		{"borrow onto borrow", []Adjustment{borrow}, []Adjustment{borrow}, nil, true},
		{"deref onto deref", []Adjustment{deref}, []Adjustment{deref}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			fcx := f.fnCtxt(f.fn("main", types.Unit), DefaultConfig())
			expr := f.intLit("1")
			fcx.ApplyAdjustments(expr, tt.first)
			if tt.panics {
				assertBug(t, func() { fcx.ApplyAdjustments(expr, tt.second) })
				return
			}
			fcx.ApplyAdjustments(expr, tt.second)
			assert.Equal(t, tt.want, fcx.results.Adjustments[expr.ID()])
		})
	}
}

func TestWriteTyTwice(t *testing.T) {
	f := newFixture(t)
	fcx := f.fnCtxt(f.fn("main", types.Unit), DefaultConfig())
	lit := f.intLit("1")

	fcx.WriteTy(lit, types.I32Ty)
	assert.NotPanics(t, func() { fcx.WriteTy(lit, types.I32Ty) })
	assert.False(t, fcx.results.TaintedByErrors)

	assert.NotPanics(t, func() { fcx.WriteTy(lit, types.Err) }, "a type may always become an error")
	assert.True(t, fcx.results.TaintedByErrors)

	assertBug(t, func() { fcx.WriteTy(lit, types.BoolTy) })
}

// assertBug checks that f panics with a checker bug
func assertBug(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		_, ok := r.(*ilerr.Bug)
		assert.True(t, ok, "panicked with %T, not a bug", r)
	}()
	f()
}

func TestWriteSubstsSkipsIdentity(t *testing.T) {
	f := newFixture(t)
	generic := f.table.Add(&items.Item{
		Kind: ast.DefFn,
		Name: "id",
		Sig:  &types.FnSig{Inputs: []types.Ty{&types.Param{Index: 0, Name: "T"}}, Output: &types.Param{Index: 0, Name: "T"}},
		Generics: &types.Generics{Params: []types.GenericParamDef{{Name: "T", Index: 0, Kind: types.ParamType}}},
	})
	fcx := f.fnCtxt(generic, DefaultConfig())

	fcx.WriteSubsts(1, items.IdentitySubsts(f.table, generic))
	fcx.WriteSubsts(2, types.Substs{types.I32Ty})
	fcx.WriteSubsts(3, nil)

	assert.NotContains(t, fcx.results.NodeSubsts, ast.NodeID(1))
	assert.Contains(t, fcx.results.NodeSubsts, ast.NodeID(2))
	assert.NotContains(t, fcx.results.NodeSubsts, ast.NodeID(3))
}

func TestUserTypeAnnotations(t *testing.T) {
	tests := []struct {
		name     string
		ty       func(fcx *FnCtxt) types.Ty
		preserve bool
		stored   bool
	}{
		{"concrete type says nothing", func(*FnCtxt) types.Ty { return types.I32Ty }, false, false},
		{"concrete type preserved on request", func(*FnCtxt) types.Ty { return types.I32Ty }, true, true},
		{"inference variable", func(fcx *FnCtxt) types.Ty { return fcx.infcx.NextTyVar(ast.Range{}) }, false, true},
		{"free region", func(fcx *FnCtxt) types.Ty {
			return &types.Ref{Region: fcx.infcx.NextRegionVar(), Elem: types.StrTy}
		}, false, true},
		{"static region", func(*FnCtxt) types.Ty {
			return &types.Ref{Region: types.StaticRegion, Elem: types.StrTy}
		}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cfg := DefaultConfig()
			cfg.PreserveAllUserAnnotations = tt.preserve
			fcx := f.fnCtxt(f.fn("main", types.Unit), cfg)
			fcx.WriteUserTypeAnnotationFromTy(7, tt.ty(fcx))
			_, ok := fcx.results.UserTypes[7]
			assert.Equal(t, tt.stored, ok)
		})
	}
}

func TestCanonicalUserTypeRenumbersVariables(t *testing.T) {
	f := newFixture(t)
	fcx := f.fnCtxt(f.fn("main", types.Unit), DefaultConfig())
	// burn a few ids so the annotation's variables are not the first ones
	for range 3 {
		fcx.infcx.NextTyVar(ast.Range{})
	}
	a, b := fcx.infcx.NextTyVar(ast.Range{}), fcx.infcx.NextIntVar()
	fcx.WriteUserTypeAnnotationFromTy(1, types.MkTuple(a, b, a))

	user, ok := fcx.results.UserTypes[1]
	require.True(t, ok)
	assert.Equal(t, []types.InferKind{types.TyVar, types.IntVar}, user.Variables)
	tup := user.Ty.(*types.Tuple)
	assert.Equal(t, uint32(0), tup.Elems[0].(*types.Infer).Var.ID)
	assert.Equal(t, uint32(1), tup.Elems[1].(*types.Infer).Var.ID)
	assert.Same(t, tup.Elems[0], tup.Elems[2])
}
