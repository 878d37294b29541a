package items

import (
	"github.com/cottand/typeck/frontend/ast"
)

// LangItem names a trait the checker itself relies on
type LangItem string

const (
	LangSized  LangItem = "sized"
	LangFn     LangItem = "fn"
	LangFnMut  LangItem = "fn_mut"
	LangFnOnce LangItem = "fn_once"
	LangAdd    LangItem = "add"
	LangSub    LangItem = "sub"
	LangMul    LangItem = "mul"
	LangDiv    LangItem = "div"
	LangRem    LangItem = "rem"
	LangEq     LangItem = "eq"
	LangOrd    LangItem = "partial_ord"
	LangNeg    LangItem = "neg"
	LangNot    LangItem = "not"
	LangDeref  LangItem = "deref"
	LangIndex  LangItem = "index"
)

// FnOutput is the associated type of FnOnce naming a callable's return type
const FnOutput = "Output"

// OpOutput is the associated type of the operator traits
const OpOutput = "Output"

// BinOpLangItem returns the trait overloading op, and the name of its method
func BinOpLangItem(op ast.BinOp) (LangItem, string) {
	switch op {
	case ast.OpAdd:
		return LangAdd, "add"
	case ast.OpSub:
		return LangSub, "sub"
	case ast.OpMul:
		return LangMul, "mul"
	case ast.OpDiv:
		return LangDiv, "div"
	case ast.OpRem:
		return LangRem, "rem"
	case ast.OpEq, ast.OpNe:
		return LangEq, "eq"
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return LangOrd, "partial_cmp"
	}
	return "", ""
}

// ClosureKind is which of the Fn traits a closure implements at most
type ClosureKind uint8

const (
	KindFn ClosureKind = iota
	KindFnMut
	KindFnOnce
)

func (k ClosureKind) String() string {
	switch k {
	case KindFn:
		return "Fn"
	case KindFnMut:
		return "FnMut"
	default:
		return "FnOnce"
	}
}

func (k ClosureKind) LangItem() LangItem {
	switch k {
	case KindFn:
		return LangFn
	case KindFnMut:
		return LangFnMut
	default:
		return LangFnOnce
	}
}

// Extends reports whether a closure of kind k can be called as other: every
// Fn closure is also FnMut and FnOnce
func (k ClosureKind) Extends(other ClosureKind) bool {
	return k <= other
}

// FnTraitKind returns which Fn trait def is, if it is one
func FnTraitKind(src Source, def ast.DefID) (ClosureKind, bool) {
	for _, kind := range []ClosureKind{KindFn, KindFnMut, KindFnOnce} {
		if lang, ok := src.LangItem(kind.LangItem()); ok && lang == def {
			return kind, true
		}
	}
	return 0, false
}
