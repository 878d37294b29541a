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

// counter declares
//
//	struct Counter { n: i32 }
//	impl Counter {
//	    fn get(&self) -> i32
//	    fn bump(&mut self)
//	    fn into_n(self) -> i32
//	    fn new() -> Counter
//	}
func (f *fixture) counter() types.Ty {
	adt := &types.AdtDef{Name: "Counter", Variants: []*types.VariantDef{{
		Name:   "Counter",
		Fields: []types.FieldDef{{Name: "n", Ty: types.I32Ty}},
	}}}
	adt.Def = f.table.Add(&items.Item{Kind: ast.DefStruct, Name: "Counter", Adt: adt})
	counter := &types.Adt{Def: adt}

	impl := f.table.Add(&items.Item{Kind: ast.DefImpl, Name: "impl Counter", Ty: counter})
	methods := []struct {
		name    string
		hasSelf bool
		sig     types.FnSig
	}{
		{"get", true, types.FnSig{Inputs: []types.Ty{&types.Ref{Elem: counter}}, Output: types.I32Ty}},
		{"bump", true, types.FnSig{Inputs: []types.Ty{&types.Ref{Mut: true, Elem: counter}}, Output: types.Unit}},
		{"into_n", true, types.FnSig{Inputs: []types.Ty{counter}, Output: types.I32Ty}},
		{"new", false, types.FnSig{Output: counter}},
	}
	for _, m := range methods {
		f.table.Add(&items.Item{Kind: ast.DefAssocFn, Name: m.name, Parent: impl, HasSelf: m.hasSelf, Sig: &m.sig})
	}
	return counter
}

func (f *fixture) methodCall(rcvr ast.Expr, name string, args ...ast.Expr) *ast.MethodCall {
	m := f.meta(len(name))
	return &ast.MethodCall{Meta: m, Receiver: rcvr, Segment: ast.PathSegment{Range: m.Range, Name: name}, Args: args}
}

func TestMethodAutoref(t *testing.T) {
	tests := []struct {
		name   string
		byRef  bool
		method string
		want   string
		adjust []AdjustKind
		mut    bool
	}{
		{"shared autoref", false, "get", "i32", []AdjustKind{AdjustBorrow}, false},
		{"mutable autoref", false, "bump", "()", []AdjustKind{AdjustBorrow}, true},
		{"by value", false, "into_n", "i32", nil, false},
		{"reborrow of a reference", true, "get", "i32", []AdjustKind{AdjustDeref, AdjustBorrow}, false},
		{"autoderef", true, "into_n", "i32", []AdjustKind{AdjustDeref}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			counter := f.counter()
			owner := f.fn("main", types.Unit, counter, &types.Ref{Elem: counter})
			c, r := f.binding("c"), f.binding("r")
			rcvr := f.local(c)
			if tt.byRef {
				rcvr = f.local(r)
			}
			call := f.methodCall(rcvr, tt.method)
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil, c, r)

			require.Empty(t, res.Diagnostics.Errors())
			assert.Equal(t, tt.want, res.NodeTypes[call.ID()].String())
			var kinds []AdjustKind
			for _, adj := range res.Adjustments[rcvr.ID()] {
				kinds = append(kinds, adj.Kind)
				assert.Equal(t, tt.mut, adj.Mut)
			}
			assert.Equal(t, tt.adjust, kinds)
			resolved := res.Resolutions[call.ID()]
			assert.Equal(t, ast.DefAssocFn, resolved.Kind)
			assert.Equal(t, tt.method, f.table.Name(resolved.Def))
		})
	}
}

func TestMethodNotFound(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"unknown name", "reset"},
		{"associated function without self", "new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			counter := f.counter()
			owner := f.fn("main", types.Unit, counter)
			c := f.binding("c")
			arg := f.intLit("1")
			call := f.methodCall(f.local(c), tt.method, arg)
			res := f.check(owner, DefaultConfig(), stmts(f.semi(call)), nil, c)

			assert.Equal(t, []ilerr.ErrCode{ilerr.NoMethod}, codes(res))
			assert.True(t, res.Resolutions[call.ID()].ErrorReported)
			// the arguments are still checked
			assert.Contains(t, res.NodeTypes, arg.ID())
		})
	}
}
