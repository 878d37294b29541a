package ast

import "go/token"

var (
	_ Expr = (*Lit)(nil)
	_ Expr = (*PathExpr)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*MethodCall)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*AddrOf)(nil)
	_ Expr = (*Block)(nil)
	_ Expr = (*Loop)(nil)
	_ Expr = (*Break)(nil)
	_ Expr = (*Return)(nil)
	_ Expr = (*If)(nil)
	_ Expr = (*Closure)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*Tuple)(nil)
	_ Expr = (*Field)(nil)
	_ Expr = (*StructLit)(nil)
	_ Expr = (*Index)(nil)
	_ Expr = (*Assign)(nil)
	_ Expr = (*Yield)(nil)
	_ Expr = (*ErrExpr)(nil)
)

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitChar
	LitStr
	LitErr
)

// Lit is a literal. Suffix is empty for unsuffixed numbers, else e.g. "u8" or "f32".
type Lit struct {
	Meta
	Kind   LitKind
	Value  string
	Suffix string
}

type PathExpr struct {
	Meta
	Path *Path
}

type Call struct {
	Meta
	Callee Expr
	Args   []Expr
}

type MethodCall struct {
	Meta
	Receiver Expr
	Segment  PathSegment
	Args     []Expr
}

type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binOpTokens = [...]token.Token{
	OpAdd: token.ADD, OpSub: token.SUB, OpMul: token.MUL, OpDiv: token.QUO, OpRem: token.REM,
	OpEq: token.EQL, OpNe: token.NEQ, OpLt: token.LSS, OpLe: token.LEQ, OpGt: token.GTR, OpGe: token.GEQ,
	OpAnd: token.LAND, OpOr: token.LOR,
}

func (op BinOp) String() string { return binOpTokens[op].String() }

// IsComparison is true for ==, !=, <, <=, >, >=
func (op BinOp) IsComparison() bool { return op >= OpEq && op <= OpGe }

// IsLazy is true for && and ||
func (op BinOp) IsLazy() bool { return op == OpAnd || op == OpOr }

type Binary struct {
	Meta
	Op       BinOp
	Lhs, Rhs Expr
}

type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
	UnDeref
)

type Unary struct {
	Meta
	Op      UnOp
	Operand Expr
}

type AddrOf struct {
	Meta
	Mut     bool
	Operand Expr
}

// Block is `{ stmts; tail }`. A labeled block (or a desugared construct that
// breaks to it) sets TargetedByBreak.
type Block struct {
	Meta
	Stmts           []Stmt
	Tail            Expr
	Label           string
	TargetedByBreak bool
}

type Loop struct {
	Meta
	Body  *Block
	Label string
}

// Break carries the identity of the loop or block it exits. Target is NoNode
// for an unlabeled break whose target the checker resolves to the innermost loop.
type Break struct {
	Meta
	Label  string
	Target NodeID
	Value  Expr
}

type Return struct {
	Meta
	Value Expr
}

type If struct {
	Meta
	Cond Expr
	Then *Block
	Else Expr
}

// ClosureUse is how the closure body uses its captures, as reported by the
// capture analysis of the resolution layer
type ClosureUse uint8

const (
	UseShared ClosureUse = iota
	UseMutable
	UseConsume
)

type ClosureParam struct {
	Pat  Pat
	Type TypeExpr // nil when not annotated
}

type Closure struct {
	Meta
	Params    []ClosureParam
	Ret       TypeExpr // nil when not annotated
	Body      Expr
	Use       ClosureUse
	Generator bool
}

type Cast struct {
	Meta
	Operand Expr
	Type    TypeExpr
}

type Tuple struct {
	Meta
	Elems []Expr
}

type Field struct {
	Meta
	Operand Expr
	Name    string
}

// StructLit is `Path { name: expr, .. }`, with an optional `..base`.
// Path.Res is ResSelfCtor for `Self { .. }`.
type StructLit struct {
	Meta
	Path   *Path
	Fields []FieldInit
	Base   Expr
}

type FieldInit struct {
	Meta
	Name string
	Expr Expr
}

// Index is `Operand[Index]`
type Index struct {
	Meta
	Operand, Index Expr
}

type Assign struct {
	Meta
	Lhs, Rhs Expr
}

type Yield struct {
	Meta
	Value Expr
}

// ErrExpr stands in for an expression the parser could not make sense of
type ErrExpr struct{ Meta }

func (*Lit) exprNode()        {}
func (*PathExpr) exprNode()   {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*AddrOf) exprNode()     {}
func (*Block) exprNode()      {}
func (*Loop) exprNode()       {}
func (*Break) exprNode()      {}
func (*Return) exprNode()     {}
func (*If) exprNode()         {}
func (*Closure) exprNode()    {}
func (*Cast) exprNode()       {}
func (*Tuple) exprNode()      {}
func (*Field) exprNode()      {}
func (*StructLit) exprNode()  {}
func (*Index) exprNode()      {}
func (*Assign) exprNode()     {}
func (*Yield) exprNode()      {}
func (*ErrExpr) exprNode()    {}

func (e *Lit) Describe() string {
	switch e.Kind {
	case LitInt:
		return "integer literal"
	case LitFloat:
		return "float literal"
	case LitBool:
		return "boolean literal"
	case LitChar:
		return "char literal"
	case LitStr:
		return "string literal"
	default:
		return "literal"
	}
}
func (e *PathExpr) Describe() string   { return "path" }
func (e *Call) Describe() string       { return "function call" }
func (e *MethodCall) Describe() string { return "method call" }
func (e *Binary) Describe() string     { return "binary operation" }
func (e *Unary) Describe() string      { return "unary operation" }
func (e *AddrOf) Describe() string     { return "borrow" }
func (e *Block) Describe() string      { return "block" }
func (e *Loop) Describe() string       { return "loop" }
func (e *Break) Describe() string      { return "break" }
func (e *Return) Describe() string     { return "return" }
func (e *If) Describe() string         { return "if" }
func (e *Closure) Describe() string    { return "closure" }
func (e *Cast) Describe() string       { return "cast" }
func (e *Tuple) Describe() string      { return "tuple" }
func (e *Field) Describe() string      { return "field access" }
func (e *StructLit) Describe() string  { return "struct literal" }
func (e *Index) Describe() string      { return "index" }
func (e *Assign) Describe() string     { return "assignment" }
func (e *Yield) Describe() string      { return "yield" }
func (e *ErrExpr) Describe() string    { return "erroneous expression" }
