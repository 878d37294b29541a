package ast

var (
	_ TypeExpr = (*PathType)(nil)
	_ TypeExpr = (*RefType)(nil)
	_ TypeExpr = (*TupleType)(nil)
	_ TypeExpr = (*ArrayType)(nil)
	_ TypeExpr = (*SliceType)(nil)
	_ TypeExpr = (*NeverType)(nil)
	_ TypeExpr = (*InferType)(nil)
	_ TypeExpr = (*FnPtrType)(nil)
	_ TypeExpr = (*DynType)(nil)
	_ TypeExpr = (*ProjectionType)(nil)
)

type TypeResKind uint8

const (
	TyResErr TypeResKind = iota
	TyResPrim
	TyResAdt
	TyResParam
	TyResOpaque
)

// TypeRes is what a type path was resolved to
type TypeRes struct {
	Kind TypeResKind
	// Prim is the primitive's name, e.g. "i32"
	Prim string
	Def  DefID
	// ParamIndex is the index of the generic parameter in the owner's generics
	ParamIndex int
	ParamName  string
}

type PathType struct {
	Meta
	Res  TypeRes
	Args *GenericArgs
}

type RefType struct {
	Meta
	// Lifetime is empty when elided
	Lifetime string
	Mut      bool
	Elem     TypeExpr
}

type TupleType struct {
	Meta
	Elems []TypeExpr
}

type ArrayType struct {
	Meta
	Elem TypeExpr
	Len  uint64
}

type SliceType struct {
	Meta
	Elem TypeExpr
}

type NeverType struct{ Meta }

// InferType is `_`
type InferType struct{ Meta }

type FnPtrType struct {
	Meta
	Inputs   []TypeExpr
	Output   TypeExpr // nil means unit
	Variadic bool
}

type DynType struct {
	Meta
	Trait DefID
}

// ProjectionType is `<Self as Trait>::Item`
type ProjectionType struct {
	Meta
	Self  TypeExpr
	Trait DefID
	Item  string
}

func (*PathType) typeNode()       {}
func (*RefType) typeNode()        {}
func (*TupleType) typeNode()      {}
func (*ArrayType) typeNode()      {}
func (*SliceType) typeNode()      {}
func (*NeverType) typeNode()      {}
func (*InferType) typeNode()      {}
func (*FnPtrType) typeNode()      {}
func (*DynType) typeNode()        {}
func (*ProjectionType) typeNode() {}
