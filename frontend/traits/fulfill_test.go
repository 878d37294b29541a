package traits

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/infer"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	table *items.Table
	add   ast.DefID
	sized ast.DefID
}

// newFixture declares `trait Add<Rhs> { type Output; }` with impls for i32
// and u8, and the Sized lang item
func newFixture() fixture {
	table := items.NewTable()
	sized := table.Add(&items.Item{Kind: ast.DefTrait, Name: "Sized", Generics: &types.Generics{
		HasSelf: true,
		Params:  []types.GenericParamDef{{Name: "Self", Index: 0, Kind: types.ParamType}},
	}})
	table.SetLang(items.LangSized, sized)

	add := table.Add(&items.Item{Kind: ast.DefTrait, Name: "Add", Generics: &types.Generics{
		HasSelf: true,
		Params: []types.GenericParamDef{
			{Name: "Self", Index: 0, Kind: types.ParamType},
			{Name: "Rhs", Index: 1, Kind: types.ParamType},
		},
	}})
	table.Add(&items.Item{Kind: ast.DefAssocTy, Name: "Output", Parent: add})
	table.SetLang(items.LangAdd, add)

	for _, prim := range []types.Ty{types.I32Ty, types.U8Ty} {
		impl := table.Add(&items.Item{
			Kind:     ast.DefImpl,
			Name:     "impl Add for " + prim.String(),
			Ty:       prim,
			TraitRef: &types.TraitPredicate{Trait: add, TraitName: "Add", Args: types.Substs{prim, prim}},
		})
		table.Add(&items.Item{Kind: ast.DefAssocTy, Name: "Output", Parent: impl, Ty: prim})
	}
	return fixture{table: table, add: add, sized: sized}
}

func (fx fixture) addPred(self, rhs types.Ty) *types.TraitPredicate {
	return &types.TraitPredicate{Trait: fx.add, TraitName: "Add", Args: types.Substs{self, rhs}}
}

func newEngine(fx fixture, env ...types.Predicate) (*infer.Ctxt, *Fulfillment) {
	infcx := infer.NewCtxt(log.Discard)
	return infcx, NewFulfillment(infcx, fx.table, env, log.Discard)
}

func TestSelectTrait(t *testing.T) {
	fx := newFixture()
	tests := []struct {
		name      string
		pred      func(infcx *infer.Ctxt) types.Predicate
		errors    int
		ambiguous bool
	}{
		{"impl applies", func(*infer.Ctxt) types.Predicate { return fx.addPred(types.I32Ty, types.I32Ty) }, 0, false},
		{"no impl", func(*infer.Ctxt) types.Predicate { return fx.addPred(types.BoolTy, types.BoolTy) }, 1, false},
		{"two impls for an integer variable", func(infcx *infer.Ctxt) types.Predicate {
			v := infcx.NextIntVar()
			return fx.addPred(v, v)
		}, 1, true},
		{"unsized str", func(*infer.Ctxt) types.Predicate {
			return &types.TraitPredicate{Trait: fx.sized, TraitName: "Sized", Args: types.Substs{types.StrTy}}
		}, 1, false},
		{"sized reference", func(*infer.Ctxt) types.Predicate {
			return &types.TraitPredicate{Trait: fx.sized, TraitName: "Sized", Args: types.Substs{&types.Ref{Elem: types.StrTy}}}
		}, 0, false},
		{"error types hold", func(*infer.Ctxt) types.Predicate { return fx.addPred(types.Err, types.BoolTy) }, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			infcx, f := newEngine(fx)
			f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: tt.pred(infcx)})
			errs := f.SelectAllOrError()
			require.Len(t, errs, tt.errors)
			if tt.errors > 0 {
				assert.Equal(t, tt.ambiguous, errs[0].Ambiguous)
			}
		})
	}
}

func TestSelectionBindsVariables(t *testing.T) {
	fx := newFixture()
	infcx, f := newEngine(fx)
	rhs := infcx.NextTyVar(ast.Range{})
	f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: fx.addPred(types.U8Ty, rhs)})
	assert.Empty(t, f.SelectWherePossible())
	assert.Equal(t, types.U8Ty, infcx.Resolve(rhs))
	assert.Equal(t, 0, f.PendingObligations().Len())
}

func TestPendingSnapshotIsImmutable(t *testing.T) {
	fx := newFixture()
	infcx, f := newEngine(fx)
	v := infcx.NextTyVar(ast.Range{})
	f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: fx.addPred(v, types.I32Ty)})
	snapshot := f.PendingObligations()
	assert.Empty(t, f.SelectWherePossible())
	assert.Equal(t, 1, snapshot.Len(), "a type variable self type stays pending")

	require.NoError(t, infcx.Eq(v, types.I32Ty))
	assert.Empty(t, f.SelectWherePossible())
	assert.Equal(t, 0, f.PendingObligations().Len())
	assert.Equal(t, 1, snapshot.Len())
}

func TestRegisterDedups(t *testing.T) {
	fx := newFixture()
	_, f := newEngine(fx)
	for range 3 {
		f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: fx.addPred(types.BoolTy, types.BoolTy)})
	}
	assert.Len(t, f.SelectAllOrError(), 1)
}

func TestWhereClauseCandidate(t *testing.T) {
	fx := newFixture()
	param := &types.Param{Index: 0, Name: "T"}
	_, f := newEngine(fx, fx.addPred(param, param))
	f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: fx.addPred(param, param)})
	f.Register(&Obligation{Cause: MiscCause(ast.Range{}), Predicate: fx.addPred(param, types.I32Ty)})
	errs := f.SelectAllOrError()
	require.Len(t, errs, 1)
	assert.Equal(t, "T: Add<i32>", errs[0].Obligation.Predicate.String())
}

func TestNormalize(t *testing.T) {
	fx := newFixture()
	infcx, f := newEngine(fx)
	proj := &types.Projection{Trait: fx.add, TraitName: "Add", Item: "Output", Args: types.Substs{types.I32Ty, types.I32Ty}}
	assert.Equal(t, types.I32Ty, f.Normalize(types.MkTuple(proj), MiscCause(ast.Range{})).(*types.Tuple).Elems[0])

	v := infcx.NextTyVar(ast.Range{})
	deferred := &types.Projection{Trait: fx.add, TraitName: "Add", Item: "Output", Args: types.Substs{v, types.U8Ty}}
	normalized := f.Normalize(deferred, MiscCause(ast.Range{}))
	require.True(t, types.IsTyVar(normalized))

	require.NoError(t, infcx.Eq(v, types.U8Ty))
	assert.Empty(t, f.SelectWherePossible())
	assert.Equal(t, types.U8Ty, infcx.Resolve(normalized))
}

func TestEvaluateLeavesNoTrace(t *testing.T) {
	fx := newFixture()
	infcx, f := newEngine(fx)
	v := infcx.NextIntVar()
	assert.True(t, f.Evaluate(fx.addPred(types.U8Ty, v)))
	assert.False(t, f.Evaluate(fx.addPred(types.BoolTy, types.BoolTy)))
	assert.Equal(t, 0, f.PendingObligations().Len())
	_, unbound := infcx.UnconstrainedNumeric(v)
	assert.True(t, unbound)
}
