package fixture

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
	"gopkg.in/yaml.v3"
)

// bodyBuilder turns the YAML of a body into a resolved ast.Body.
//
// Expressions are either scalars or single-key mappings whose key names
// the kind of expression, with further keys as its operands:
//
//	5, 2.5, 5u8, true, "()"          literals and unit
//	x, foo, Option::Some             paths to locals and items
//	{path: foo, args: [u8]}          explicit generic arguments
//	{path: new, self: Counter}       type-relative paths
//	{call: foo, args: [1, 2]}
//	{method: get, recv: c, args: []}
//	{binary: "+", lhs: x, rhs: 1}    and {unary: "-" | "!" | "*", expr: x}
//	{ref: x, mut: true}
//	{block: [stmts], tail: e, label: "'a"}
//	{loop: [stmts], label: "'a"}     {break: "'a", value: e}   {return: e}
//	{if: cond, then: e, else: e}
//	{closure: [params], body: e, ret: ty, use: shared | mut | move}
//	{cast: e, to: ty}   {tuple: [..]}   {field: name, of: e}
//	{struct: Point, fields: {x: 1, y: 2}, base: e}   {struct: V, self: Enum}
//	{index: e, at: i}
//	{assign: lhs, value: rhs}   {yield: e}   {error: ~}
//	{char: c}   {str: s}   {int: 5, suffix: u8}   {float: 1, suffix: f32}
//
// Statements are {let: pat, type: ty, init: e}, {expr: e} (no semicolon),
// {item: name}, or any expression, which is followed by a semicolon.
//
// Patterns are `x`, `mut x`, `ref x`, `ref mut x`, `_`, literals, sequences
// for tuples, or {bind: x, mut: bool, ref: bool, sub: pat}.
type bodyBuilder struct {
	l     *loader
	owner ast.DefID
	next  ast.NodeID

	scopes   []map[string]*ast.BindingPat
	labels   []label
	bindings map[string]*ast.BindingPat
}

type label struct {
	name string
	node ast.NodeID
}

func newBodyBuilder(l *loader, owner ast.DefID) *bodyBuilder {
	return &bodyBuilder{l: l, owner: owner, bindings: make(map[string]*ast.BindingPat)}
}

func (b *bodyBuilder) meta(n *yaml.Node, width int) ast.Meta {
	b.next++
	pos := posAt(n)
	return ast.Meta{Range: ast.Range{PosStart: pos, PosEnd: pos + token.Pos(max(width, 1))}, NodeID: b.next}
}

// spanning is the meta of a node whose range covers all of children
func (b *bodyBuilder) spanning(n *yaml.Node, children ...ast.Positioner) ast.Meta {
	m := b.meta(n, 1)
	for _, c := range children {
		if c == nil {
			continue
		}
		m.PosStart = min(m.PosStart, c.Pos())
		m.PosEnd = max(m.PosEnd, c.End())
	}
	return m
}

func (b *bodyBuilder) failf(n *yaml.Node, format string, args ...any) {
	b.l.failf("body, "+describe(n)+": "+format, args...)
}

func (b *bodyBuilder) push() { b.scopes = append(b.scopes, make(map[string]*ast.BindingPat)) }
func (b *bodyBuilder) pop()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *bodyBuilder) bind(p *ast.BindingPat) {
	b.scopes[len(b.scopes)-1][p.Name] = p
	b.bindings[p.Name] = p
}

func (b *bodyBuilder) lookupLocal(name string) (*ast.BindingPat, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if p, ok := b.scopes[i][name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (b *bodyBuilder) body(d *BodyDecl) *ast.Body {
	b.push()
	defer b.pop()
	body := &ast.Body{Owner: b.owner}
	var params []ast.Pat
	for i := range d.Params {
		p := b.pat(&d.Params[i])
		params = append(params, p)
	}
	// parameters are in scope only once all of them are declared
	for _, p := range params {
		b.bindAll(p)
	}
	body.Params = params

	root := &yaml.Node{Line: 1, Column: 1}
	var tail *yaml.Node
	if !d.Tail.IsZero() {
		tail = &d.Tail
	}
	body.Value = b.blockOf(root, d.Stmts, tail, "")
	return body
}

func (b *bodyBuilder) bindAll(p ast.Pat) {
	ast.WalkPat(p, func(p ast.Pat) {
		if bp, ok := p.(*ast.BindingPat); ok {
			b.bind(bp)
		}
	})
}

// blockOf builds a block from statements and an optional tail
func (b *bodyBuilder) blockOf(n *yaml.Node, stmts []yaml.Node, tail *yaml.Node, lbl string) *ast.Block {
	block := &ast.Block{Meta: b.meta(n, 1), Label: lbl}
	if lbl != "" {
		block.TargetedByBreak = true
		b.labels = append(b.labels, label{lbl, block.ID()})
		defer func() { b.labels = b.labels[:len(b.labels)-1] }()
	}
	b.push()
	defer b.pop()
	for i := range stmts {
		block.Stmts = append(block.Stmts, b.stmt(&stmts[i]))
	}
	if tail != nil {
		block.Tail = b.expr(tail)
	}
	children := make([]ast.Positioner, 0, len(block.Stmts)+1)
	for _, s := range block.Stmts {
		children = append(children, s)
	}
	if block.Tail != nil {
		children = append(children, block.Tail)
	}
	m := b.spanning(n, children...)
	m.NodeID = block.NodeID
	block.Meta = m
	return block
}

// fields returns the value of each key of a mapping node
func fields(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out
}

func (b *bodyBuilder) stmt(n *yaml.Node) ast.Stmt {
	if n.Kind == yaml.MappingNode && len(n.Content) > 0 {
		f := fields(n)
		switch n.Content[0].Value {
		case "let":
			let := &ast.Let{Meta: b.meta(n, 3)}
			if t := f["type"]; t != nil {
				let.Type = b.typeExpr(t)
			}
			// the initializer cannot see the bindings it initializes
			if init := f["init"]; init != nil {
				let.Init = b.expr(init)
			}
			let.Pat = b.pat(f["let"])
			b.bindAll(let.Pat)
			m := b.spanning(n, let.Pat, let.Type, let.Init)
			m.NodeID = let.NodeID
			m.PosEnd++
			let.Meta = m
			return let
		case "expr":
			e := b.expr(f["expr"])
			return &ast.ExprStmt{Meta: b.spanning(n, e), Expr: e}
		case "item":
			return &ast.ItemStmt{Meta: b.meta(n, len(f["item"].Value))}
		}
	}
	e := b.expr(n)
	b.next++
	// the statement ends right after its `;`
	return &ast.Semi{Meta: ast.Meta{Range: ast.Range{PosStart: e.Pos(), PosEnd: e.End() + 1}, NodeID: b.next}, Expr: e}
}

func (b *bodyBuilder) expr(n *yaml.Node) ast.Expr {
	if n == nil {
		b.l.failf("body: missing expression")
		return &ast.ErrExpr{Meta: b.meta(&yaml.Node{}, 1)}
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return b.scalar(n)
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			b.failf(n, "empty expression")
			return &ast.ErrExpr{Meta: b.meta(n, 1)}
		}
		return b.compound(n.Content[0].Value, n, fields(n))
	}
	b.failf(n, "expected an expression")
	return &ast.ErrExpr{Meta: b.meta(n, 1)}
}

func (b *bodyBuilder) exprs(n *yaml.Node) []ast.Expr {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		b.failf(n, "expected a list")
		return nil
	}
	out := make([]ast.Expr, len(n.Content))
	for i, c := range n.Content {
		out[i] = b.expr(c)
	}
	return out
}

func (b *bodyBuilder) optExpr(n *yaml.Node) ast.Expr {
	if n == nil || n.ShortTag() == "!!null" {
		return nil
	}
	return b.expr(n)
}

func (b *bodyBuilder) scalar(n *yaml.Node) ast.Expr {
	v := n.Value
	switch {
	case n.ShortTag() == "!!bool":
		return &ast.Lit{Meta: b.meta(n, len(v)), Kind: ast.LitBool, Value: v}
	case v == "()":
		return &ast.Tuple{Meta: b.meta(n, 2)}
	case v != "" && unicode.IsDigit(rune(v[0])):
		return b.number(n, v, "")
	}
	return b.path(n, v, nil, nil)
}

// number reads an integer or float literal with an optional suffix such
// as u8 or f32
func (b *bodyBuilder) number(n *yaml.Node, v, suffix string) *ast.Lit {
	digits := v
	if suffix == "" {
		if i := strings.IndexAny(v, "iuf"); i > 0 {
			digits, suffix = v[:i], v[i:]
		}
	}
	kind := ast.LitInt
	if strings.ContainsAny(digits, ".eE") || strings.HasPrefix(suffix, "f") {
		kind = ast.LitFloat
	}
	return &ast.Lit{Meta: b.meta(n, len(v)+len(suffix)), Kind: kind, Value: digits, Suffix: suffix}
}

func (b *bodyBuilder) path(n *yaml.Node, name string, args, self *yaml.Node) ast.Expr {
	m := b.meta(n, len(name))
	seg := ast.PathSegment{Range: m.Range, Name: name}
	if args != nil {
		seg.Args = b.genericArgs(args)
	}
	path := &ast.Path{Range: m.Range, Segments: []ast.PathSegment{seg}}

	switch {
	case self != nil:
		path.Res = ast.Res{Kind: ast.ResTypeRelative}
		path.QSelf = b.typeExpr(self)
	case name == "Self":
		impl, ok := b.enclosingImpl()
		if !ok {
			b.failf(n, "Self outside an impl")
		}
		path.Res = ast.Res{Kind: ast.ResSelfCtor, Def: impl}
	default:
		if local, ok := b.lookupLocal(name); ok && args == nil {
			path.Res = ast.LocalRes(local.ID())
		} else if def, ok := b.l.values[name]; ok {
			path.Res = ast.DefRes(def)
		} else if ty, item, ok := strings.Cut(name, "::"); ok && b.l.types[ty] != ast.NoDef {
			// `Type::item` is resolved by the checker
			path.Res = ast.Res{Kind: ast.ResTypeRelative}
			path.QSelf = b.typeAt(n, ty)
			path.Segments = []ast.PathSegment{{Range: m.Range, Name: ty}, {Range: m.Range, Name: item, Args: seg.Args}}
		} else {
			b.failf(n, "unresolved name %s", name)
		}
	}
	return &ast.PathExpr{Meta: m, Path: path}
}

func (b *bodyBuilder) enclosingImpl() (ast.DefID, bool) {
	for def := b.owner; def != ast.NoDef; def = b.l.table.Parent(def) {
		if b.l.table.Kind(def) == ast.DefImpl {
			return def, true
		}
	}
	return ast.NoDef, false
}

var binOps = map[string]ast.BinOp{
	"+": ast.OpAdd, "-": ast.OpSub, "*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpRem,
	"==": ast.OpEq, "!=": ast.OpNe, "<": ast.OpLt, "<=": ast.OpLe, ">": ast.OpGt, ">=": ast.OpGe,
	"&&": ast.OpAnd, "||": ast.OpOr,
}

var unOps = map[string]ast.UnOp{"-": ast.UnNeg, "!": ast.UnNot, "*": ast.UnDeref}

var closureUses = map[string]ast.ClosureUse{"": ast.UseShared, "shared": ast.UseShared, "mut": ast.UseMutable, "move": ast.UseConsume}

func (b *bodyBuilder) compound(kind string, n *yaml.Node, f map[string]*yaml.Node) ast.Expr {
	key := f[kind]
	switch kind {
	case "int", "float":
		suffix := ""
		if s := f["suffix"]; s != nil {
			suffix = s.Value
		}
		lit := b.number(key, key.Value, suffix)
		if kind == "float" {
			lit.Kind = ast.LitFloat
		}
		return lit
	case "char":
		return &ast.Lit{Meta: b.meta(key, len(key.Value)+2), Kind: ast.LitChar, Value: key.Value}
	case "str":
		return &ast.Lit{Meta: b.meta(key, len(key.Value)+2), Kind: ast.LitStr, Value: key.Value}
	case "path":
		return b.path(key, key.Value, f["args"], f["self"])
	case "call":
		callee := b.expr(key)
		args := b.exprs(f["args"])
		return &ast.Call{Meta: b.spanning(n, append([]ast.Positioner{callee}, positioners(args)...)...), Callee: callee, Args: args}
	case "method":
		recv := b.expr(f["recv"])
		args := b.exprs(f["args"])
		seg := ast.PathSegment{Range: b.meta(key, len(key.Value)).Range, Name: key.Value}
		if ga := f["generics"]; ga != nil {
			seg.Args = b.genericArgs(ga)
		}
		m := b.spanning(n, append([]ast.Positioner{recv, seg}, positioners(args)...)...)
		return &ast.MethodCall{Meta: m, Receiver: recv, Segment: seg, Args: args}
	case "binary":
		op, ok := binOps[key.Value]
		if !ok {
			b.failf(key, "unknown binary operator")
		}
		lhs, rhs := b.expr(f["lhs"]), b.expr(f["rhs"])
		return &ast.Binary{Meta: b.spanning(n, lhs, rhs), Op: op, Lhs: lhs, Rhs: rhs}
	case "unary":
		op, ok := unOps[key.Value]
		if !ok {
			b.failf(key, "unknown unary operator")
		}
		operand := b.expr(f["expr"])
		return &ast.Unary{Meta: b.spanning(n, operand), Op: op, Operand: operand}
	case "ref":
		operand := b.expr(key)
		return &ast.AddrOf{Meta: b.spanning(n, operand), Mut: isTrue(f["mut"]), Operand: operand}
	case "block":
		return b.blockOf(n, seq(key), f["tail"], value(f["label"]))
	case "loop":
		loop := &ast.Loop{Meta: b.meta(n, 4), Label: value(f["label"])}
		b.labels = append(b.labels, label{loop.Label, loop.ID()})
		loop.Body = b.blockOf(key, seq(key), nil, "")
		b.labels = b.labels[:len(b.labels)-1]
		m := b.spanning(n, loop.Body)
		m.NodeID = loop.NodeID
		loop.Meta = m
		return loop
	case "break":
		brk := &ast.Break{Meta: b.meta(n, 5), Label: value(key)}
		brk.Target = b.breakTarget(key, brk.Label)
		brk.Value = b.optExpr(f["value"])
		return brk
	case "return":
		ret := &ast.Return{Meta: b.meta(n, 6), Value: b.optExpr(key)}
		if ret.Value != nil {
			ret.PosEnd = max(ret.PosEnd, ret.Value.End())
		}
		return ret
	case "if":
		cond := b.expr(key)
		then := b.asBlock(f["then"])
		expr := &ast.If{Cond: cond, Then: then}
		var els ast.Positioner
		if e := b.optExpr(f["else"]); e != nil {
			expr.Else, els = e, e
		}
		expr.Meta = b.spanning(n, cond, then, els)
		return expr
	case "closure":
		return b.closure(n, key, f)
	case "cast":
		operand := b.expr(key)
		ty := b.typeExpr(f["to"])
		return &ast.Cast{Meta: b.spanning(n, operand, ty), Operand: operand, Type: ty}
	case "tuple":
		elems := b.exprs(key)
		return &ast.Tuple{Meta: b.spanning(n, positioners(elems)...), Elems: elems}
	case "field":
		operand := b.expr(f["of"])
		return &ast.Field{Meta: b.spanning(n, operand), Operand: operand, Name: key.Value}
	case "struct":
		return b.structLit(n, key, f)
	case "index":
		operand, idx := b.expr(key), b.expr(f["at"])
		return &ast.Index{Meta: b.spanning(n, operand, idx), Operand: operand, Index: idx}
	case "assign":
		lhs, rhs := b.expr(key), b.expr(f["value"])
		return &ast.Assign{Meta: b.spanning(n, lhs, rhs), Lhs: lhs, Rhs: rhs}
	case "yield":
		return &ast.Yield{Meta: b.meta(n, 5), Value: b.optExpr(key)}
	case "error":
		return &ast.ErrExpr{Meta: b.meta(n, 1)}
	}
	b.failf(n, "unknown expression kind %q", kind)
	return &ast.ErrExpr{Meta: b.meta(n, 1)}
}

func (b *bodyBuilder) structLit(n, key *yaml.Node, f map[string]*yaml.Node) *ast.StructLit {
	lit := &ast.StructLit{Meta: b.meta(n, len(key.Value)), Path: b.structPath(key, f["args"], f["self"])}
	children := []ast.Positioner{lit.Path}
	if fs := f["fields"]; fs != nil {
		if fs.Kind != yaml.MappingNode {
			b.failf(fs, "struct fields must be a mapping")
		}
		for i := 0; i+1 < len(fs.Content); i += 2 {
			name := fs.Content[i]
			init := ast.FieldInit{Meta: b.meta(name, len(name.Value)), Name: name.Value, Expr: b.expr(fs.Content[i+1])}
			children = append(children, init.Expr)
			lit.Fields = append(lit.Fields, init)
		}
	}
	if base := f["base"]; base != nil {
		lit.Base = b.expr(base)
		children = append(children, lit.Base)
	}
	m := b.spanning(n, children...)
	m.NodeID = lit.NodeID
	lit.Meta = m
	return lit
}

// structPath resolves the path of a struct literal in the type namespace,
// where `Enum::Variant` names a variant
func (b *bodyBuilder) structPath(n, args, self *yaml.Node) *ast.Path {
	name := n.Value
	r := b.meta(n, len(name)).Range
	seg := ast.PathSegment{Range: r, Name: name}
	if args != nil {
		seg.Args = b.genericArgs(args)
	}
	path := &ast.Path{Range: r, Segments: []ast.PathSegment{seg}}

	switch {
	case self != nil:
		path.Res = ast.Res{Kind: ast.ResTypeRelative}
		path.QSelf = b.typeExpr(self)
	case name == "Self":
		impl, ok := b.enclosingImpl()
		if !ok {
			b.failf(n, "Self outside an impl")
		}
		path.Res = ast.Res{Kind: ast.ResSelfCtor, Def: impl}
	case b.l.types[name] != ast.NoDef:
		path.Res = ast.DefRes(b.l.types[name])
	default:
		if def, ok := b.variant(name); ok {
			enum, variant, _ := strings.Cut(name, "::")
			path.Res = ast.DefRes(def)
			path.Segments = []ast.PathSegment{{Range: r, Name: enum}, {Range: r, Name: variant, Args: seg.Args}}
		} else if def, ok := b.l.values[name]; ok {
			path.Res = ast.DefRes(def)
		} else {
			b.failf(n, "unresolved struct %s", name)
			path.Res = ast.Res{Kind: ast.ResErr}
		}
	}
	return path
}

// variant finds the enum variant written `Enum::Variant`
func (b *bodyBuilder) variant(name string) (ast.DefID, bool) {
	enum, variant, ok := strings.Cut(name, "::")
	if !ok {
		return ast.NoDef, false
	}
	def := b.l.types[enum]
	if def == ast.NoDef || b.l.table.Kind(def) != ast.DefEnum {
		return ast.NoDef, false
	}
	for _, v := range b.l.table.AdtOf(def).Variants {
		if v.Name == variant {
			return v.Def, true
		}
	}
	return ast.NoDef, false
}

// asBlock wraps an expression that is not a block into one
func (b *bodyBuilder) asBlock(n *yaml.Node) *ast.Block {
	if n == nil {
		b.l.failf("if without then")
		return &ast.Block{}
	}
	if n.Kind == yaml.SequenceNode {
		return b.blockOf(n, seq(n), nil, "")
	}
	e := b.expr(n)
	if block, ok := e.(*ast.Block); ok {
		return block
	}
	return &ast.Block{Meta: b.spanning(n, e), Tail: e}
}

func (b *bodyBuilder) breakTarget(n *yaml.Node, name string) ast.NodeID {
	if name == "" {
		// the innermost loop, which the checker finds
		return ast.NoNode
	}
	for i := len(b.labels) - 1; i >= 0; i-- {
		if b.labels[i].name == name {
			return b.labels[i].node
		}
	}
	b.failf(n, "undeclared label %s", name)
	return ast.NoNode
}

func (b *bodyBuilder) closure(n, params *yaml.Node, f map[string]*yaml.Node) *ast.Closure {
	c := &ast.Closure{Meta: b.meta(n, 1), Generator: isTrue(f["generator"])}
	use, ok := closureUses[value(f["use"])]
	if !ok {
		b.failf(f["use"], "closure use must be shared, mut or move")
	}
	c.Use = use
	b.push()
	defer b.pop()
	// labels do not cross closure boundaries
	outer := b.labels
	b.labels = nil
	defer func() { b.labels = outer }()

	for _, p := range seq(params) {
		param := ast.ClosureParam{}
		if p.Kind == yaml.MappingNode && fields(&p)["pat"] != nil {
			pf := fields(&p)
			param.Pat = b.pat(pf["pat"])
			if t := pf["type"]; t != nil {
				param.Type = b.typeExpr(t)
			}
		} else {
			param.Pat = b.pat(&p)
		}
		b.bindAll(param.Pat)
		c.Params = append(c.Params, param)
	}
	if r := f["ret"]; r != nil {
		c.Ret = b.typeExpr(r)
	}
	c.Body = b.expr(f["body"])
	m := b.spanning(n, c.Body)
	m.NodeID = c.NodeID
	c.Meta = m
	return c
}

func (b *bodyBuilder) pat(n *yaml.Node) ast.Pat {
	if n == nil {
		b.l.failf("body: missing pattern")
		return &ast.WildPat{Meta: b.meta(&yaml.Node{}, 1)}
	}
	switch n.Kind {
	case yaml.SequenceNode:
		tp := &ast.TuplePat{Meta: b.meta(n, 2)}
		for _, c := range n.Content {
			tp.Elems = append(tp.Elems, b.pat(c))
		}
		return tp
	case yaml.MappingNode:
		f := fields(n)
		name := f["bind"]
		if name == nil {
			b.failf(n, "pattern mapping needs a bind key")
			return &ast.WildPat{Meta: b.meta(n, 1)}
		}
		bp := &ast.BindingPat{Meta: b.meta(name, len(name.Value)), Name: name.Value, Mut: isTrue(f["mut"]), ByRef: isTrue(f["ref"])}
		if sub := f["sub"]; sub != nil {
			bp.Sub = b.pat(sub)
		}
		return bp
	}
	v := n.Value
	switch {
	case v == "_":
		return &ast.WildPat{Meta: b.meta(n, 1)}
	case n.ShortTag() == "!!bool", v != "" && unicode.IsDigit(rune(v[0])):
		lit, ok := b.scalar(n).(*ast.Lit)
		if !ok {
			b.failf(n, "expected a literal pattern")
			return &ast.WildPat{Meta: b.meta(n, 1)}
		}
		return &ast.LitPat{Meta: lit.Meta, Lit: lit}
	}
	bp := &ast.BindingPat{}
	if rest, ok := strings.CutPrefix(v, "ref "); ok {
		bp.ByRef, v = true, rest
	}
	if rest, ok := strings.CutPrefix(v, "mut "); ok {
		bp.Mut, v = true, rest
	}
	bp.Name = strings.TrimSpace(v)
	bp.Meta = b.meta(n, len(n.Value))
	return bp
}

func (b *bodyBuilder) genericArgs(n *yaml.Node) *ast.GenericArgs {
	ga := &ast.GenericArgs{Range: ast.Range{PosStart: posAt(n), PosEnd: posAt(n) + 1}}
	for _, c := range seq(n) {
		switch {
		case strings.HasPrefix(c.Value, "'"):
			ga.Args = append(ga.Args, ast.LifetimeArg{Range: b.meta(&c, len(c.Value)).Range, Name: c.Value})
		case c.ShortTag() == "!!int":
			v, _ := strconv.ParseInt(c.Value, 10, 64)
			ga.Args = append(ga.Args, ast.ConstArg{Range: b.meta(&c, len(c.Value)).Range, Value: v})
		default:
			t := b.typeExpr(&c)
			ga.Args = append(ga.Args, ast.TypeArg{Range: ast.RangeOf(t), Type: t})
		}
		ga.PosEnd = max(ga.PosEnd, posAt(&c)+token.Pos(len(c.Value)))
	}
	return ga
}

func (b *bodyBuilder) typeExpr(n *yaml.Node) ast.TypeExpr {
	return b.typeAt(n, n.Value)
}

func (b *bodyBuilder) typeAt(n *yaml.Node, text string) ast.TypeExpr {
	t, err := parseTy(text)
	if err != nil {
		b.failf(n, "%v", err)
		return &ast.InferType{Meta: b.meta(n, 1)}
	}
	return b.toTypeExpr(t, posAt(n))
}

func (b *bodyBuilder) toTypeExpr(t *tyNode, base token.Pos) ast.TypeExpr {
	b.next++
	m := ast.Meta{Range: ast.Range{PosStart: base + token.Pos(t.off), PosEnd: base + token.Pos(max(t.end, t.off+1))}, NodeID: b.next}
	sub := func(i int) ast.TypeExpr { return b.toTypeExpr(t.args[i], base) }
	switch t.kind {
	case tyNever:
		return &ast.NeverType{Meta: m}
	case tyInfer:
		return &ast.InferType{Meta: m}
	case tyRef:
		return &ast.RefType{Meta: m, Lifetime: t.name, Mut: t.mut, Elem: sub(0)}
	case tyTuple:
		tt := &ast.TupleType{Meta: m}
		for i := range t.args {
			tt.Elems = append(tt.Elems, sub(i))
		}
		return tt
	case tyArray:
		return &ast.ArrayType{Meta: m, Elem: sub(0), Len: t.n}
	case tySlice:
		return &ast.SliceType{Meta: m, Elem: sub(0)}
	case tyFn:
		ft := &ast.FnPtrType{Meta: m, Variadic: t.variadic}
		for i := range t.args {
			ft.Inputs = append(ft.Inputs, sub(i))
		}
		if t.out != nil {
			ft.Output = b.toTypeExpr(t.out, base)
		}
		return ft
	case tyDyn:
		trait, _ := b.l.trait(t.name)
		return &ast.DynType{Meta: m, Trait: trait}
	case tyProj:
		trait, _ := b.l.trait(t.name)
		return &ast.ProjectionType{Meta: m, Self: b.toTypeExpr(t.self, base), Trait: trait, Item: t.item}
	case tyPath:
		return b.pathType(t, m, base)
	}
	b.l.failf("%s is not allowed in a type annotation", t.name)
	return &ast.InferType{Meta: m}
}

func (b *bodyBuilder) pathType(t *tyNode, m ast.Meta, base token.Pos) ast.TypeExpr {
	pt := &ast.PathType{Meta: m}
	if len(t.args) > 0 {
		pt.Args = &ast.GenericArgs{Range: m.Range}
		for _, a := range t.args {
			r := ast.Range{PosStart: base + token.Pos(a.off), PosEnd: base + token.Pos(a.end)}
			switch a.kind {
			case tyLifetime:
				pt.Args.Args = append(pt.Args.Args, ast.LifetimeArg{Range: r, Name: a.name})
			case tyConst:
				pt.Args.Args = append(pt.Args.Args, ast.ConstArg{Range: r, Value: int64(a.n)})
			default:
				pt.Args.Args = append(pt.Args.Args, ast.TypeArg{Range: r, Type: b.toTypeExpr(a, base)})
			}
		}
	}
	sc := b.l.scopeOf(b.owner, nil)
	if p, ok := sc.params[t.name]; ok && p.Kind == types.ParamType {
		pt.Res = ast.TypeRes{Kind: ast.TyResParam, ParamIndex: p.Index, ParamName: p.Name}
		return pt
	}
	if _, ok := types.PrimByName(t.name); ok {
		pt.Res = ast.TypeRes{Kind: ast.TyResPrim, Prim: t.name}
		return pt
	}
	if def, ok := b.l.types[t.name]; ok && b.l.table.Kind(def) != ast.DefTrait {
		pt.Res = ast.TypeRes{Kind: ast.TyResAdt, Def: def}
		return pt
	}
	b.l.failf("unknown type %s", t.name)
	return pt
}

func positioners[E ast.Positioner](es []E) []ast.Positioner {
	out := make([]ast.Positioner, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func seq(n *yaml.Node) []yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out[i] = *c
	}
	return out
}

func value(n *yaml.Node) string {
	if n == nil || n.ShortTag() == "!!null" {
		return ""
	}
	return n.Value
}

func isTrue(n *yaml.Node) bool {
	return n != nil && n.Value == "true"
}
