package ast

import (
	"fmt"
	"strings"
)

// ExprString renders expr on a single line, close to source syntax.
// It is meant for logs and diagnostics, not for round-tripping.
func ExprString(expr Expr) string {
	ctx := &showContext{Builder: &strings.Builder{}}
	ctx.showExpr(expr)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func (ctx *showContext) list(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			ctx.WriteString(", ")
		}
		ctx.showExpr(e)
	}
}

func (ctx *showContext) showExpr(expr Expr) {
	if expr == nil {
		ctx.WriteString("nil")
		return
	}
	switch expr := expr.(type) {
	case *Lit:
		switch expr.Kind {
		case LitStr:
			fmt.Fprintf(ctx, "%q", expr.Value)
		case LitChar:
			fmt.Fprintf(ctx, "'%s'", expr.Value)
		default:
			ctx.WriteString(expr.Value + expr.Suffix)
		}
	case *PathExpr:
		ctx.WriteString(expr.Path.String())
	case *Call:
		ctx.showExpr(expr.Callee)
		ctx.WriteString("(")
		ctx.list(expr.Args)
		ctx.WriteString(")")
	case *MethodCall:
		ctx.showExpr(expr.Receiver)
		ctx.WriteString("." + expr.Segment.Name + "(")
		ctx.list(expr.Args)
		ctx.WriteString(")")
	case *Binary:
		ctx.showExpr(expr.Lhs)
		ctx.WriteString(" " + expr.Op.String() + " ")
		ctx.showExpr(expr.Rhs)
	case *Unary:
		ctx.WriteString([...]string{UnNeg: "-", UnNot: "!", UnDeref: "*"}[expr.Op])
		ctx.showExpr(expr.Operand)
	case *AddrOf:
		ctx.WriteString("&")
		if expr.Mut {
			ctx.WriteString("mut ")
		}
		ctx.showExpr(expr.Operand)
	case *Block:
		if expr.Label != "" {
			ctx.WriteString(expr.Label + ": ")
		}
		ctx.WriteString("{ ")
		for _, stmt := range expr.Stmts {
			ctx.showStmt(stmt)
			ctx.WriteString(" ")
		}
		if expr.Tail != nil {
			ctx.showExpr(expr.Tail)
			ctx.WriteString(" ")
		}
		ctx.WriteString("}")
	case *Loop:
		if expr.Label != "" {
			ctx.WriteString(expr.Label + ": ")
		}
		ctx.WriteString("loop ")
		ctx.showExpr(expr.Body)
	case *Break:
		ctx.WriteString("break")
		if expr.Label != "" {
			ctx.WriteString(" " + expr.Label)
		}
		if expr.Value != nil {
			ctx.WriteString(" ")
			ctx.showExpr(expr.Value)
		}
	case *Return:
		ctx.WriteString("return")
		if expr.Value != nil {
			ctx.WriteString(" ")
			ctx.showExpr(expr.Value)
		}
	case *If:
		ctx.WriteString("if ")
		ctx.showExpr(expr.Cond)
		ctx.WriteString(" ")
		ctx.showExpr(expr.Then)
		if expr.Else != nil {
			ctx.WriteString(" else ")
			ctx.showExpr(expr.Else)
		}
	case *Closure:
		ctx.WriteString("|")
		for i := range expr.Params {
			if i > 0 {
				ctx.WriteString(", ")
			}
			ctx.showPat(expr.Params[i].Pat)
		}
		ctx.WriteString("| ")
		ctx.showExpr(expr.Body)
	case *Cast:
		ctx.showExpr(expr.Operand)
		ctx.WriteString(" as _")
	case *Tuple:
		ctx.WriteString("(")
		ctx.list(expr.Elems)
		if len(expr.Elems) == 1 {
			ctx.WriteString(",")
		}
		ctx.WriteString(")")
	case *Field:
		ctx.showExpr(expr.Operand)
		ctx.WriteString("." + expr.Name)
	case *StructLit:
		ctx.WriteString(expr.Path.String() + " { ")
		for i, f := range expr.Fields {
			if i > 0 {
				ctx.WriteString(", ")
			}
			ctx.WriteString(f.Name + ": ")
			ctx.showExpr(f.Expr)
		}
		if expr.Base != nil {
			if len(expr.Fields) > 0 {
				ctx.WriteString(", ")
			}
			ctx.WriteString("..")
			ctx.showExpr(expr.Base)
		}
		ctx.WriteString(" }")
	case *Index:
		ctx.showExpr(expr.Operand)
		ctx.WriteString("[")
		ctx.showExpr(expr.Index)
		ctx.WriteString("]")
	case *Assign:
		ctx.showExpr(expr.Lhs)
		ctx.WriteString(" = ")
		ctx.showExpr(expr.Rhs)
	case *Yield:
		ctx.WriteString("yield ")
		ctx.showExpr(expr.Value)
	case *ErrExpr:
		ctx.WriteString("<error>")
	default:
		fmt.Fprintf(ctx, "<%T>", expr)
	}
}

func (ctx *showContext) showStmt(stmt Stmt) {
	switch stmt := stmt.(type) {
	case *Let:
		ctx.WriteString("let ")
		ctx.showPat(stmt.Pat)
		if stmt.Init != nil {
			ctx.WriteString(" = ")
			ctx.showExpr(stmt.Init)
		}
		ctx.WriteString(";")
	case *ExprStmt:
		ctx.showExpr(stmt.Expr)
	case *Semi:
		ctx.showExpr(stmt.Expr)
		ctx.WriteString(";")
	case *ItemStmt:
		ctx.WriteString("<item>")
	}
}

func (ctx *showContext) showPat(pat Pat) {
	switch pat := pat.(type) {
	case *BindingPat:
		if pat.ByRef {
			ctx.WriteString("ref ")
		}
		if pat.Mut {
			ctx.WriteString("mut ")
		}
		ctx.WriteString(pat.Name)
	case *WildPat:
		ctx.WriteString("_")
	case *TuplePat:
		ctx.WriteString("(")
		for i, elem := range pat.Elems {
			if i > 0 {
				ctx.WriteString(", ")
			}
			ctx.showPat(elem)
		}
		ctx.WriteString(")")
	case *LitPat:
		ctx.showExpr(pat.Lit)
	default:
		ctx.WriteString("<pat>")
	}
}
