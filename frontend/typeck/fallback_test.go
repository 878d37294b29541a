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

// opaqueReturn declares `trait Marker`, `impl Marker for u8`, a function
// `fn any<T>() -> T` and the owner `fn make() -> impl Marker`
func (f *fixture) opaqueReturn() (owner, opaque, anyFn ast.DefID) {
	marker := f.table.Add(&items.Item{Kind: ast.DefTrait, Name: "Marker", Generics: selfGenerics()})
	f.table.Add(&items.Item{
		Kind:     ast.DefImpl,
		Name:     "impl Marker for u8",
		Ty:       types.U8Ty,
		TraitRef: &types.TraitPredicate{Trait: marker, TraitName: "Marker", Args: types.Substs{types.U8Ty}},
	})

	t := &types.Param{Index: 0, Name: "T"}
	anyFn = f.table.Add(&items.Item{
		Kind:     ast.DefFn,
		Name:     "any",
		Generics: &types.Generics{Params: []types.GenericParamDef{{Name: "T", Index: 0, Kind: types.ParamType}}},
		Sig:      &types.FnSig{Output: t},
	})

	sig := &types.FnSig{}
	owner = f.table.Add(&items.Item{Kind: ast.DefFn, Name: "make", Sig: sig})
	opaque = f.table.Add(&items.Item{Kind: ast.DefOpaque, Name: "Marker", Parent: owner})
	op := &types.Opaque{Def: opaque, Name: "Marker"}
	item, _ := f.table.Item(opaque)
	item.Predicates = []types.Predicate{&types.TraitPredicate{Trait: marker, TraitName: "Marker", Args: types.Substs{op}}}
	sig.Output = op
	return owner, opaque, anyFn
}

func TestOpaqueReturnFallback(t *testing.T) {
	tests := []struct {
		name     string
		mode     FallbackMode
		pinned   bool
		want     string
		defining bool
		codes    []ilerr.ErrCode
	}{
		{"pinned by the body", FallbackModeNoOpaque, true, "u8", true, nil},
		{"pinned by the body in all mode", FallbackModeAll, true, "u8", true, nil},
		{"unconstrained falls back to the opaque type", FallbackModeAll, false, "impl Marker", false, nil},
		{"unconstrained without opaque fallback", FallbackModeNoOpaque, false, "{type error}", false, []ilerr.ErrCode{ilerr.CannotInfer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner, opaque, anyFn := f.opaqueReturn()
			var tail ast.Expr = f.call(f.path(anyFn))
			if tt.pinned {
				tail = f.suffixed("5", "u8")
			}
			cfg := DefaultConfig()
			cfg.FallbackMode = tt.mode
			res := f.check(owner, cfg, nil, tail)

			assert.Equal(t, tt.codes, codes(res))
			use, ok := res.OpaqueTypes[opaque]
			require.True(t, ok)
			assert.Equal(t, tt.want, use.Ty.String())
			assert.Equal(t, tt.defining, use.Defining)
		})
	}
}

func TestOpaqueBoundIsChecked(t *testing.T) {
	f := newFixture(t)
	owner, _, _ := f.opaqueReturn()
	// bool does not implement Marker
	res := f.check(owner, DefaultConfig(), nil, f.boolLit(true))
	assert.Equal(t, []ilerr.ErrCode{ilerr.Unsatisfied}, codes(res))
}

func TestDivergingFallbackIsNeverType(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	x := f.binding("x")
	l := f.loop(nil)
	res := f.check(owner, DefaultConfig(), stmts(f.let(x, nil, l)), nil)

	require.Empty(t, res.Diagnostics.Errors())
	assert.Equal(t, "!", res.NodeTypes[x.ID()].String())
	assert.Equal(t, "!", res.NodeTypes[l.ID()].String())
}
