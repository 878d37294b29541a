package fixture

import (
	"path/filepath"
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/typeck"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTy(t *testing.T) {
	tests := []struct {
		src  string
		kind tyKind
		args int
	}{
		{"i32", tyPath, 0},
		{"Option<T>", tyPath, 1},
		{"&'a mut T", tyRef, 1},
		{"(i32, bool)", tyTuple, 2},
		{"(i32,)", tyTuple, 1},
		{"()", tyTuple, 0},
		{"(i32)", tyPath, 0},
		{"[u8; 4]", tyArray, 1},
		{"[u8]", tySlice, 1},
		{"fn(i32, ...) -> u8", tyFn, 1},
		{"!", tyNever, 0},
		{"_", tyInfer, 0},
		{"impl Fn(i32) -> i32", tyImpl, 1},
		{"dyn Marker", tyDyn, 0},
		{"<T as Add<T>>::Output", tyProj, 1},
		{"Arr<T, 'a, 3>", tyPath, 3},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := parseTy(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.kind)
			assert.Len(t, n.args, tt.args)
		})
	}
}

func TestParseTyErrors(t *testing.T) {
	for _, src := range []string{"", "&", "(i32", "[u8; x]", "fn(", "<T as>::X", "i32 i32", "$"} {
		t.Run(src, func(t *testing.T) {
			_, err := parseTy(src)
			assert.Error(t, err)
		})
	}
}

func TestParseBound(t *testing.T) {
	d, err := parseBound("T: Clone + Fn(u8) -> bool")
	require.NoError(t, err)
	require.Len(t, d.bounds, 2)
	assert.Equal(t, "Clone", d.bounds[0].name)
	assert.True(t, d.bounds[1].parenSugar)
	assert.Equal(t, "bool", d.bounds[1].out.name)

	d, err = parseBound("<T as Iter>::Item == u8")
	require.NoError(t, err)
	assert.Equal(t, "Item", d.proj.item)
	assert.Equal(t, "u8", d.eq.name)
}

const itemsSrc = `
items:
  - kind: trait
    name: Clone
  - kind: enum
    name: Option
    generics: [T]
    variants:
      - {name: None, ctor: const}
      - {name: Some, ctor: fn, fields: [{type: T}]}
  - kind: struct
    name: Pair
    generics: ["'a", A, B = A]
    fields: [{name: first, type: "&'a A"}, {name: second, type: B}]
  - kind: impl
    generics: [T]
    trait: Clone
    for: Option<T>
    bounds: ["T: Clone"]
  - kind: fn
    name: pick
    generics: [T]
    bounds: ["T: Clone"]
    inputs: ["&T", "[u8; 4]"]
    output: Option<T>
  - kind: fn
    name: printf
    inputs: [i32]
    variadic: true
  - kind: fn
    name: make
    output: impl Clone
body:
  owner: pick
`

func TestLoadItems(t *testing.T) {
	fx, err := Parse([]byte(itemsSrc), "items.yaml")
	require.NoError(t, err)
	table := fx.Table

	pick := lookup(t, table, "pick", ast.DefFn)
	assert.Equal(t, "fn(&T, [u8; 4]) -> Option<T>", table.SigOf(pick).String())
	require.Len(t, table.PredicatesOf(pick), 1)
	assert.Equal(t, "Clone", table.PredicatesOf(pick)[0].(*types.TraitPredicate).TraitName)

	printf := lookup(t, table, "printf", ast.DefFn)
	assert.Equal(t, "fn(i32, ...)", table.SigOf(printf).String())

	some := lookup(t, table, "Some", ast.DefVariantCtor)
	assert.Equal(t, "fn(T) -> Option<T>", table.SigOf(some).String())
	none := lookup(t, table, "None", ast.DefVariantCtor)
	assert.Equal(t, "Option<T>", table.TypeOf(none).String())

	pair := lookup(t, table, "Pair", ast.DefStruct)
	g := table.GenericsOf(pair)
	require.Len(t, g.Params, 3)
	assert.Equal(t, types.ParamLifetime, g.Params[0].Kind)
	assert.Equal(t, "A", g.Params[2].Default.String())
	assert.Equal(t, "&'a A", table.AdtOf(pair).NonEnumVariant().Fields[0].Ty.String())

	impls := table.Impls()
	require.Len(t, impls, 1)
	ref := items.TraitRefOf(table, impls[0])
	require.NotNil(t, ref)
	assert.Equal(t, "Option<T>", ref.Self().String())

	mk := lookup(t, table, "make", ast.DefFn)
	assert.Equal(t, "impl Clone", table.SigOf(mk).Output.String())
	opaque := table.SigOf(mk).Output.(*types.Opaque)
	assert.Equal(t, mk, table.Parent(opaque.Def))
}

func TestPreludeDeclaresLangItems(t *testing.T) {
	fx, err := Parse([]byte(itemsSrc), "items.yaml")
	require.NoError(t, err)
	for _, lang := range []items.LangItem{items.LangSized, items.LangFn, items.LangFnMut, items.LangFnOnce} {
		_, ok := fx.Table.LangItem(lang)
		assert.True(t, ok, lang)
	}

	fx, err = Parse([]byte("prelude: false\nitems: [{kind: fn, name: main}]\nbody: {owner: main}\n"), "bare.yaml")
	require.NoError(t, err)
	_, ok := fx.Table.LangItem(items.LangSized)
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no owner", "items: [{kind: fn, name: main}]\nbody: {}\n"},
		{"unknown owner", "body: {owner: main}\n"},
		{"unknown kind", "items: [{kind: module, name: m}]\nbody: {owner: m}\n"},
		{"unknown type", "items: [{kind: fn, name: main, output: Missing}]\nbody: {owner: main}\n"},
		{"wrong generic count", "items: [{kind: struct, name: S, generics: [T]}, {kind: fn, name: main, output: S}]\nbody: {owner: main}\n"},
		{"unresolved name", "items: [{kind: fn, name: main}]\nbody: {owner: main, tail: nope}\n"},
		{"undeclared label", "items: [{kind: fn, name: main}]\nbody: {owner: main, stmts: [{loop: [{break: \"'a\"}]}]}\n"},
		{"duplicate item", "items: [{kind: fn, name: main}, {kind: fn, name: main}]\nbody: {owner: main}\n"},
		{"bad yaml", "items: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.name+".yaml")
			assert.Error(t, err)
		})
	}
}

func TestBodyScoping(t *testing.T) {
	src := `
items: [{kind: fn, name: main, inputs: [i32]}]
body:
  owner: main
  params: [x]
  stmts:
    - {let: x, init: x}
    - {let: y, init: {closure: [x], body: x}}
  tail: x
`
	fx, err := Parse([]byte(src), "scoping.yaml")
	require.NoError(t, err)
	param := fx.Body.Params[0].(*ast.BindingPat)
	shadow := fx.Body.Value.Stmts[0].(*ast.Let)
	closure := fx.Body.Value.Stmts[1].(*ast.Let).Init.(*ast.Closure)

	// the initializer sees the parameter, the tail the shadowing binding
	assert.Equal(t, param.ID(), shadow.Init.(*ast.PathExpr).Path.Res.Local)
	assert.Equal(t, shadow.Pat.ID(), fx.Body.Value.Tail.(*ast.PathExpr).Path.Res.Local)
	assert.Equal(t, closure.Params[0].Pat.ID(), closure.Body.(*ast.PathExpr).Path.Res.Local)
}

func TestSyntheticPositions(t *testing.T) {
	src := "items: [{kind: fn, name: main}]\nbody:\n  owner: main\n  stmts:\n    - 1\n"
	fx, err := Parse([]byte(src), "pos.yaml")
	require.NoError(t, err)
	semi := fx.Body.Value.Stmts[0].(*ast.Semi)
	assert.Equal(t, "5:7", Position(semi.Pos()))
	// the statement ends after its `;`
	assert.Equal(t, semi.Expr.End()+1, semi.End())
	assert.Equal(t, "-", Position(0))
}

func TestTestdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			fx, err := Load(path)
			require.NoError(t, err)
			require.NotNil(t, fx.Expect, "fixture has no expect section")
			fx.Config.Logger = log.Discard
			res, err := fx.Check()
			require.NoError(t, err)
			assert.Empty(t, fx.Verify(res))
		})
	}
}

func TestVerifyReportsMismatches(t *testing.T) {
	fx, err := Load(filepath.Join("testdata", "infer_locals.yaml"))
	require.NoError(t, err)
	fx.Config.Logger = log.Discard
	res, err := fx.Check()
	require.NoError(t, err)

	tainted := true
	fx.Expect = &Expect{
		Codes:   []string{"E0308"},
		Types:   map[string]string{"x": "u8", "missing": "i32"},
		Tainted: &tainted,
	}
	assert.Equal(t, []string{
		"diagnostics: want [E0308], got []",
		"missing: no binding with that name",
		"x: want u8, got i32",
		"tainted: want true, got false",
	}, fx.Verify(res))
}

func TestConfigOverrides(t *testing.T) {
	src := "config: {fallback: no-opaque, warnUnreachable: false}\nitems: [{kind: fn, name: main}]\nbody: {owner: main}\n"
	fx, err := Parse([]byte(src), "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, typeck.FallbackModeNoOpaque, fx.Config.FallbackMode)
	assert.False(t, fx.Config.WarnUnreachable)

	fx, err = Parse([]byte("items: [{kind: fn, name: main}]\nbody: {owner: main}\n"), "default.yaml")
	require.NoError(t, err)
	assert.Equal(t, typeck.DefaultConfig(), fx.Config)
}

func lookup(t *testing.T, table *items.Table, name string, kind ast.DefKind) ast.DefID {
	t.Helper()
	for def := ast.DefID(1); ; def++ {
		item, ok := table.Item(def)
		if !ok {
			break
		}
		if item.Name == name && item.Kind == kind {
			return def
		}
	}
	t.Fatalf("no %s named %s", kind, name)
	return ast.NoDef
}
