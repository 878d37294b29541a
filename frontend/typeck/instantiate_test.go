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

// idFn declares `fn id<T>(x: T) -> T`
func (f *fixture) idFn() ast.DefID {
	t := &types.Param{Index: 0, Name: "T"}
	return f.table.Add(&items.Item{
		Kind:     ast.DefFn,
		Name:     "id",
		Generics: &types.Generics{Params: []types.GenericParamDef{{Name: "T", Index: 0, Kind: types.ParamType}}},
		Sig:      &types.FnSig{Inputs: []types.Ty{t}, Output: t},
	})
}

// pairCtor declares `struct Pair<A, B = A>(A, B)` and returns its constructor
func (f *fixture) pairCtor() ast.DefID {
	a, b := &types.Param{Index: 0, Name: "A"}, &types.Param{Index: 1, Name: "B"}
	variant := &types.VariantDef{Name: "Pair", CtorKind: types.CtorFn, Fields: []types.FieldDef{{Name: "0", Ty: a}, {Name: "1", Ty: b}}}
	adt := &types.AdtDef{Name: "Pair", Kind: types.AdtStruct, Variants: []*types.VariantDef{variant}}
	adt.Def = f.table.Add(&items.Item{
		Kind: ast.DefStruct,
		Name: "Pair",
		Adt:  adt,
		Generics: &types.Generics{Params: []types.GenericParamDef{
			{Name: "A", Index: 0, Kind: types.ParamType},
			{Name: "B", Index: 1, Kind: types.ParamType, Default: a},
		}},
	})
	variant.Def = adt.Def
	variant.Ctor = f.table.Add(&items.Item{Kind: ast.DefStructCtor, Name: "Pair", Parent: adt.Def})
	return variant.Ctor
}

func (f *fixture) typeArg(prim string) ast.GenericArg {
	ty := f.prim(prim)
	return ast.TypeArg{Range: ty.Range, Type: ty}
}

func (f *fixture) adtType(def ast.DefID) *ast.PathType {
	return &ast.PathType{Meta: f.meta(len(f.table.Name(def))), Res: ast.TypeRes{Kind: ast.TyResAdt, Def: def}}
}

// typeRelative is `Self::name` for the written self type
func (f *fixture) typeRelative(self *ast.PathType, name string, selfArgs *ast.GenericArgs) *ast.PathExpr {
	m := f.meta(len(name))
	return &ast.PathExpr{Meta: m, Path: &ast.Path{
		Range: m.Range,
		Res:   ast.Res{Kind: ast.ResTypeRelative},
		QSelf: self,
		Segments: []ast.PathSegment{
			{Range: self.Range, Name: f.table.Name(self.Res.Def), Args: selfArgs},
			{Range: m.Range, Name: name},
		},
	}}
}

func (f *fixture) assocFn(container ast.DefID, name string, output types.Ty) ast.DefID {
	return f.table.Add(&items.Item{Kind: ast.DefAssocFn, Name: name, Parent: container, Sig: &types.FnSig{Output: output}})
}

func TestInstantiateExplicitArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    func(f *fixture) []ast.GenericArg
		want    string
		codes   []ilerr.ErrCode
		tainted bool
	}{
		{"inferred", func(*fixture) []ast.GenericArg { return nil }, "i32", nil, false},
		{"written", func(f *fixture) []ast.GenericArg { return []ast.GenericArg{f.typeArg("u8")} }, "u8", nil, false},
		{"too many", func(f *fixture) []ast.GenericArg {
			return []ast.GenericArg{f.typeArg("u8"), f.typeArg("u8")}
		}, "{type error}", []ilerr.ErrCode{ilerr.WrongGenericArgCount}, true},
		{"constant for a type", func(f *fixture) []ast.GenericArg {
			m := f.meta(1)
			return []ast.GenericArg{ast.ConstArg{Range: m.Range, Value: 3}}
		}, "i32", []ilerr.ErrCode{ilerr.GenericArgKind}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.idFn()
			owner := f.fn("main", types.Unit)
			// `id::<..>(5)`
			callee := f.path(id, tt.args(f)...)
			call := f.call(callee, f.intLit("5"))
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

			assert.Equal(t, tt.codes, codes(res))
			assert.Equal(t, tt.tainted, res.TaintedByErrors)
			assert.Equal(t, tt.want, res.NodeTypes[call.ID()].String())
			assert.Equal(t, Resolution{Kind: ast.DefFn, Def: id}, res.Resolutions[callee.ID()])
		})
	}
}

func TestArgsOnLocalAreProhibited(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	x := f.binding("x")
	// `let x = 1u8; x::<u8>;`
	use := f.local(x)
	seg := &use.Path.Segments[0]
	seg.Args = &ast.GenericArgs{Range: seg.Range, Args: []ast.GenericArg{f.typeArg("u8")}}
	res := f.check(owner, DefaultConfig(), stmts(f.let(x, nil, f.suffixed("1", "u8")), f.semi(use)), nil)

	assert.Equal(t, []ilerr.ErrCode{ilerr.ProhibitedGenericArgs}, codes(res))
	assert.Equal(t, "u8", res.NodeTypes[use.ID()].String())
	assert.True(t, res.Resolutions[use.ID()].IsLocal)
}

func TestParamDefaults(t *testing.T) {
	tests := []struct {
		name  string
		args  func(f *fixture) []ast.GenericArg
		lits  func(f *fixture) []ast.Expr
		want  string
		codes []ilerr.ErrCode
	}{
		{"defaulted once arguments are written", func(f *fixture) []ast.GenericArg { return []ast.GenericArg{f.typeArg("u8")} },
			func(f *fixture) []ast.Expr { return []ast.Expr{f.intLit("1"), f.intLit("2")} }, "Pair<u8, u8>", nil},
		{"inferred when nothing is written", func(*fixture) []ast.GenericArg { return nil },
			func(f *fixture) []ast.Expr { return []ast.Expr{f.intLit("1"), f.suffixed("2", "u16")} }, "Pair<i32, u16>", nil},
		{"default does not bend to the argument", func(f *fixture) []ast.GenericArg { return []ast.GenericArg{f.typeArg("u8")} },
			func(f *fixture) []ast.Expr { return []ast.Expr{f.intLit("1"), f.boolLit(true)} }, "Pair<u8, u8>", []ilerr.ErrCode{ilerr.Mismatch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctor := f.pairCtor()
			owner := f.fn("main", types.Unit)
			callee := f.path(ctor, tt.args(f)...)
			call := f.call(callee, tt.lits(f)...)
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

			assert.Equal(t, tt.codes, codes(res))
			assert.Equal(t, tt.want, res.NodeTypes[call.ID()].String())
			assert.Equal(t, ast.DefStructCtor, res.Resolutions[callee.ID()].Kind)
		})
	}
}

func TestTypeRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		selfArgs bool
		want     string
		codes    []ilerr.ErrCode
		resolved bool
	}{
		{"inherent associated function", "new", false, "Counter", nil, true},
		{"no such item", "nope", false, "{type error}", []ilerr.ErrCode{ilerr.NoMethod}, false},
		{"same item in two traits", "make", false, "{type error}", []ilerr.ErrCode{ilerr.AmbiguousItem}, false},
		{"arguments on the self segment", "new", true, "Counter", []ilerr.ErrCode{ilerr.ProhibitedGenericArgs}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			counter := f.counter()
			adt := counter.(*types.Adt).Def.Def
			for _, name := range []string{"Make", "Build"} {
				trait := f.table.Add(&items.Item{Kind: ast.DefTrait, Name: name, Generics: selfGenerics()})
				f.assocFn(trait, "make", types.Unit)
				f.table.Add(&items.Item{
					Kind:     ast.DefImpl,
					Name:     "impl " + name + " for Counter",
					Ty:       counter,
					TraitRef: &types.TraitPredicate{Trait: trait, TraitName: name, Args: types.Substs{counter}},
				})
			}
			owner := f.fn("main", types.Unit)

			self := f.adtType(adt)
			var selfArgs *ast.GenericArgs
			if tt.selfArgs {
				selfArgs = &ast.GenericArgs{Range: self.Range, Args: []ast.GenericArg{f.typeArg("u8")}}
			}
			callee := f.typeRelative(self, tt.item, selfArgs)
			call := f.call(callee)
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

			assert.Equal(t, tt.codes, codes(res))
			assert.Equal(t, tt.want, res.NodeTypes[call.ID()].String())
			got := res.Resolutions[callee.ID()]
			if !tt.resolved {
				assert.Equal(t, errorResolution, got)
				return
			}
			assert.Equal(t, ast.DefAssocFn, got.Kind)
			assert.Equal(t, tt.item, f.table.Name(got.Def))
		})
	}
}

func TestAmbiguousItemNamesTraits(t *testing.T) {
	f := newFixture(t)
	counter := f.counter()
	for _, name := range []string{"Make", "Build"} {
		trait := f.table.Add(&items.Item{Kind: ast.DefTrait, Name: name, Generics: selfGenerics()})
		f.assocFn(trait, "make", types.Unit)
		f.table.Add(&items.Item{
			Kind:     ast.DefImpl,
			Name:     "impl " + name + " for Counter",
			Ty:       counter,
			TraitRef: &types.TraitPredicate{Trait: trait, TraitName: name, Args: types.Substs{counter}},
		})
	}
	owner := f.fn("main", types.Unit)
	callee := f.typeRelative(f.adtType(counter.(*types.Adt).Def.Def), "make", nil)
	res := f.check(owner, DefaultConfig(), stmts(f.semi(f.call(callee))), nil)

	errs := res.Diagnostics.WithCode(ilerr.AmbiguousItem)
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"Make", "Build"}, errs[0].(ilerr.NewAmbiguousItem).Candidates)
}

func TestSelfCtor(t *testing.T) {
	tests := []struct {
		name  string
		tuple bool
		want  string
		codes []ilerr.ErrCode
	}{
		{"tuple struct", true, "Pair<i32, bool>", nil},
		{"struct with named fields", false, "{type error}", []ilerr.ErrCode{ilerr.SelfCtorNotTuple}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var self types.Ty
			var args []ast.Expr
			if tt.tuple {
				ctor := f.pairCtor()
				pair := f.table.Parent(ctor)
				self = &types.Adt{Def: f.table.AdtOf(pair), Args: items.IdentitySubsts(f.table, pair)}
				args = []ast.Expr{f.intLit("1"), f.boolLit(true)}
			} else {
				self = f.counter()
			}
			var generics *types.Generics
			if adt := self.(*types.Adt); len(adt.Args) > 0 {
				generics = &types.Generics{Params: []types.GenericParamDef{
					{Name: "A", Index: 0, Kind: types.ParamType},
					{Name: "B", Index: 1, Kind: types.ParamType},
				}}
			}
			impl := f.table.Add(&items.Item{Kind: ast.DefImpl, Name: "impl", Ty: self, Generics: generics})
			owner := f.fn("main", types.Unit)

			m := f.meta(4)
			callee := &ast.PathExpr{Meta: m, Path: &ast.Path{
				Range:    m.Range,
				Res:      ast.Res{Kind: ast.ResSelfCtor, Def: impl},
				Segments: []ast.PathSegment{{Range: m.Range, Name: "Self"}},
			}}
			call := f.call(callee, args...)
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil)

			assert.Equal(t, tt.codes, codes(res))
			assert.Equal(t, tt.want, res.NodeTypes[call.ID()].String())
			if !tt.tuple {
				assert.Equal(t, errorResolution, res.Resolutions[callee.ID()])
				return
			}
			assert.Equal(t, ast.DefStructCtor, res.Resolutions[callee.ID()].Kind)
		})
	}
}

func TestImplSelfMismatchIsDelayedBug(t *testing.T) {
	f := newFixture(t)
	counter := f.counter()
	impl := f.table.Impls()[0]
	newFn, ok := items.FindAssoc(f.table, impl, "new", ast.DefAssocFn)
	require.True(t, ok)
	owner := f.fn("main", types.Unit)

	fcx := f.fnCtxt(owner, DefaultConfig())
	expr := f.typeRelative(f.adtType(counter.(*types.Adt).Def.Def), "new", nil)
	// resolution picked an impl whose self type cannot be the one written
	fcx.instantiateValuePath(expr, newFn, types.BoolTy)

	require.Len(t, fcx.delayedBugs, 1)
	assert.Contains(t, fcx.delayedBugs[0].Error(), "does not match")
	assert.Empty(t, fcx.results.Diagnostics.Errors())
}
