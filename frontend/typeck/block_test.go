package typeck

import (
	"testing"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreachableWarnedOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	ret := f.semi(f.ret(nil))
	s2, s3 := f.semi(f.intLit("1")), f.semi(f.intLit("2"))
	res := f.check(owner, DefaultConfig(), stmts(ret, s2, s3), nil)

	warnings := res.Diagnostics.WithCode(ilerr.UnreachableCode)
	require.Len(t, warnings, 1)
	assert.Equal(t, ast.RangeOf(s2), ast.RangeOf(warnings[0]))
	assert.Equal(t, ilerr.SeverityWarning, ilerr.SeverityOf(warnings[0]))
	assert.False(t, res.Diagnostics.HasError())
}

func TestUnreachableWarningCanBeDisabled(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	cfg := DefaultConfig()
	cfg.WarnUnreachable = false
	res := f.check(owner, cfg, stmts(f.semi(f.ret(nil)), f.semi(f.intLit("1"))), nil)
	assert.Empty(t, res.Diagnostics.Errors())
}

func TestSemicolonRemovalSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		last    func(f *fixture) ast.Expr
		suggest bool
	}{
		{"value of the expected type", func(f *fixture) ast.Expr { return f.intLit("1") }, true},
		{"value of another type", func(f *fixture) ast.Expr { return f.boolLit(true) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.fn("answer", types.I32Ty)
			last := f.semi(tt.last(f))
			res := f.check(owner, DefaultConfig(), stmts(last), nil)

			mismatches := res.Diagnostics.WithCode(ilerr.Mismatch)
			require.Len(t, mismatches, 1)
			fixes := ilerr.SuggestionsOf(mismatches[0])
			if !tt.suggest {
				assert.Empty(t, fixes)
				return
			}
			require.Len(t, fixes, 1)
			assert.Equal(t, ast.Range{PosStart: last.End() - 1, PosEnd: last.End()}, fixes[0].Range)
			assert.Equal(t, "", fixes[0].Replacement)
		})
	}
}

func TestBreakWithValue(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	x := f.binding("x")
	inner := f.loop(nil)
	outer := f.loop(nil)
	// `let x = 'outer: loop { loop { break 'outer 5u8; } };` with the target
	// given by identity
	inner.Body.Stmts = stmts(f.semi(f.brk(outer.ID(), f.suffixed("5", "u8"))))
	outer.Body.Stmts = stmts(&ast.ExprStmt{Meta: f.meta(1), Expr: inner})
	res := f.check(owner, DefaultConfig(), stmts(f.let(x, nil, outer)), nil)

	require.Empty(t, res.Diagnostics.Errors())
	assert.Equal(t, "u8", res.NodeTypes[x.ID()].String())
	assert.Equal(t, "u8", res.NodeTypes[outer.ID()].String())
	// the inner loop is never broken out of
	assert.Equal(t, "!", res.NodeTypes[inner.ID()].String())
}

func TestBreakMismatch(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	l := f.loop(nil)
	l.Body.Stmts = stmts(
		f.semi(f.brk(l.ID(), f.suffixed("1", "u8"))),
		f.semi(f.brk(l.ID(), f.boolLit(false))),
	)
	res := f.check(owner, DefaultConfig(), stmts(f.semi(l)), nil)
	assert.Len(t, res.Diagnostics.WithCode(ilerr.Mismatch), 1)
}

func TestBreakOutsideLoop(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	res := f.check(owner, DefaultConfig(), stmts(f.semi(f.brk(ast.NoNode, nil))), nil)
	assert.Equal(t, []ilerr.ErrCode{ilerr.BreakOutsideLoop}, codes(res))
}

func TestBreakableStack(t *testing.T) {
	e := newEnclosingBreakables()
	outer := &breakableCtxt{id: 1, label: "a", isLoop: true}
	block := &breakableCtxt{id: 2, label: "b"}
	e.push(outer)
	e.push(block)

	found, ok := e.find(1)
	require.True(t, ok)
	assert.Same(t, outer, found)
	loop, ok := e.innermostLoop()
	require.True(t, ok)
	assert.Same(t, outer, loop)
	labeled, ok := e.byLabel("b")
	require.True(t, ok)
	assert.Same(t, block, labeled)

	assertBug(t, func() { e.pop(1) })
}

func TestDivergingBlockTakesTailType(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.I32Ty)
	// `{ return 1; 2; 3 }`
	s2, tail := f.semi(f.intLit("2")), f.intLit("3")
	blk := f.block(stmts(f.semi(f.ret(f.intLit("1"))), s2), tail)
	res, err := f.tryCheck(owner, DefaultConfig(), blk)
	require.NoError(t, err)

	warnings := res.Diagnostics.WithCode(ilerr.UnreachableCode)
	require.Len(t, warnings, 1)
	assert.Equal(t, ast.RangeOf(s2), ast.RangeOf(warnings[0]))
	assert.False(t, res.Diagnostics.HasError())
	assert.Equal(t, "i32", res.NodeTypes[tail.ID()].String())
	assert.Equal(t, res.NodeTypes[tail.ID()], res.NodeTypes[blk.ID()])
}

func TestUnlabeledBreakSkipsLabeledBlock(t *testing.T) {
	f := newFixture(t)
	owner := f.fn("main", types.Unit)
	x := f.binding("x")
	// `let x = loop { 'b: { break 5u8; } };`
	brk := f.brk(ast.NoNode, f.suffixed("5", "u8"))
	labeled := f.block(stmts(f.semi(brk)), nil)
	labeled.Label, labeled.TargetedByBreak = "b", true
	l := f.loop(stmts(&ast.ExprStmt{Meta: f.meta(1), Expr: labeled}))
	res := f.check(owner, DefaultConfig(), stmts(f.let(x, nil, l)), nil)

	require.Empty(t, res.Diagnostics.Errors())
	assert.Equal(t, "u8", res.NodeTypes[x.ID()].String())
	assert.Equal(t, "u8", res.NodeTypes[l.ID()].String())
	assert.Equal(t, "!", res.NodeTypes[labeled.ID()].String())
}
