package ast

var (
	_ Stmt = (*Let)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*Semi)(nil)
	_ Stmt = (*ItemStmt)(nil)

	_ Pat = (*BindingPat)(nil)
	_ Pat = (*WildPat)(nil)
	_ Pat = (*TuplePat)(nil)
	_ Pat = (*LitPat)(nil)
)

// Let is `let pat: Type = init;`. Its own ID identifies the local declaration.
type Let struct {
	Meta
	Pat  Pat
	Type TypeExpr // nil when not annotated
	Init Expr     // nil for `let x;`
}

// ExprStmt is an expression in statement position without a trailing `;`
// (e.g. a block-like `if` or `loop`); its value must be unit.
type ExprStmt struct {
	Meta
	Expr Expr
}

// Semi is `expr;`. The statement's range ends right after the `;`.
type Semi struct {
	Meta
	Expr Expr
}

// ItemStmt is a nested item declaration, which the checker skips.
type ItemStmt struct{ Meta }

func (*Let) stmtNode()      {}
func (*ExprStmt) stmtNode() {}
func (*Semi) stmtNode()     {}
func (*ItemStmt) stmtNode() {}

// BindingPat introduces a local variable. Its ID is the local's identity:
// path expressions resolving to it carry the same NodeID.
type BindingPat struct {
	Meta
	Name  string
	Mut   bool
	ByRef bool
	Sub   Pat // `name @ sub`, usually nil
}

type WildPat struct{ Meta }

type TuplePat struct {
	Meta
	Elems []Pat
}

type LitPat struct {
	Meta
	Lit *Lit
}

func (*BindingPat) patNode() {}
func (*WildPat) patNode()    {}
func (*TuplePat) patNode()   {}
func (*LitPat) patNode()     {}

// WalkPat calls f on p and each of its sub-patterns, depth first
func WalkPat(p Pat, f func(Pat)) {
	if p == nil {
		return
	}
	f(p)
	switch p := p.(type) {
	case *BindingPat:
		WalkPat(p.Sub, f)
	case *TuplePat:
		for _, elem := range p.Elems {
			WalkPat(elem, f)
		}
	}
}

// ContainsExplicitRefBinding reports whether any binding in p is `ref` or `ref mut`,
// returning whether the strongest of those is mutable
func ContainsExplicitRefBinding(p Pat) (found bool, mut bool) {
	WalkPat(p, func(p Pat) {
		if b, ok := p.(*BindingPat); ok && b.ByRef {
			found = true
			mut = mut || b.Mut
		}
	})
	return found, mut
}
