// Package types is the semantic type representation shared by the checker,
// the inference table and the trait solver.
package types

import (
	"fmt"

	"github.com/cottand/typeck/frontend/ast"
)

// GenericArg is anything a generic parameter can be instantiated with:
// a Ty, a Region or a *Const
type GenericArg interface {
	fmt.Stringer
	genericArg()
}

// Ty is a semantic type
type Ty interface {
	GenericArg
	isTy()
}

var (
	_ Ty = (*Prim)(nil)
	_ Ty = (*Tuple)(nil)
	_ Ty = (*Never)(nil)
	_ Ty = (*ErrorType)(nil)
	_ Ty = (*Ref)(nil)
	_ Ty = (*Array)(nil)
	_ Ty = (*Slice)(nil)
	_ Ty = (*Adt)(nil)
	_ Ty = (*FnDef)(nil)
	_ Ty = (*FnPtr)(nil)
	_ Ty = (*Closure)(nil)
	_ Ty = (*Param)(nil)
	_ Ty = (*Projection)(nil)
	_ Ty = (*Opaque)(nil)
	_ Ty = (*Dynamic)(nil)
	_ Ty = (*Infer)(nil)

	_ GenericArg = Region{}
	_ GenericArg = (*Const)(nil)
)

type PrimKind uint8

const (
	Bool PrimKind = iota
	Char
	Str
	I8
	I16
	I32
	I64
	I128
	Isize
	U8
	U16
	U32
	U64
	U128
	Usize
	F32
	F64
	primCount
)

var primNames = [primCount]string{
	Bool: "bool", Char: "char", Str: "str",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128", Isize: "isize",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128", Usize: "usize",
	F32: "f32", F64: "f64",
}

func (k PrimKind) String() string   { return primNames[k] }
func (k PrimKind) IsSigned() bool   { return k >= I8 && k <= Isize }
func (k PrimKind) IsUnsigned() bool { return k >= U8 && k <= Usize }
func (k PrimKind) IsIntegral() bool { return k.IsSigned() || k.IsUnsigned() }
func (k PrimKind) IsFloat() bool    { return k == F32 || k == F64 }
func (k PrimKind) IsNumeric() bool  { return k.IsIntegral() || k.IsFloat() }

// Prim is a primitive scalar (or `str`). There is exactly one *Prim per kind.
type Prim struct{ Kind PrimKind }

var prims = func() (all [primCount]*Prim) {
	for k := range all {
		all[k] = &Prim{Kind: PrimKind(k)}
	}
	return all
}()

// MkPrim returns the canonical primitive type of kind k
func MkPrim(k PrimKind) *Prim { return prims[k] }

// PrimByName looks up a primitive type by its source name, like "u8"
func PrimByName(name string) (*Prim, bool) {
	for k, n := range primNames {
		if n == name {
			return prims[k], true
		}
	}
	return nil, false
}

var (
	BoolTy  = MkPrim(Bool)
	CharTy  = MkPrim(Char)
	StrTy   = MkPrim(Str)
	I32Ty   = MkPrim(I32)
	U8Ty    = MkPrim(U8)
	F32Ty   = MkPrim(F32)
	F64Ty   = MkPrim(F64)
	UsizeTy = MkPrim(Usize)
)

// Tuple is `(A, B, ...)`; the empty tuple is unit
type Tuple struct{ Elems []Ty }

var Unit = &Tuple{}

func MkTuple(elems ...Ty) *Tuple {
	if len(elems) == 0 {
		return Unit
	}
	return &Tuple{Elems: elems}
}

// Never is `!`, the type of expressions that never produce a value
type Never struct{}

var NeverTy = &Never{}

// ErrorType stands in for a type that could not be computed because an
// error was already reported
type ErrorType struct{}

var Err = &ErrorType{}

type Ref struct {
	Region Region
	Mut    bool
	Elem   Ty
}

type Array struct {
	Elem Ty
	Len  uint64
}

type Slice struct{ Elem Ty }

type Adt struct {
	Def  *AdtDef
	Args Substs
}

// FnDef is the zero-sized type of a path to a function item or constructor
type FnDef struct {
	Def  ast.DefID
	Name string // display only
	Args Substs
}

type FnPtr struct{ Sig FnSig }

// Closure is the unique type of one closure expression
type Closure struct {
	ID  ast.NodeID
	Sig FnSig
	// Generator closures also carry the type of everything live across a yield
	Generator bool
	Interior  Ty
	Yield     Ty
}

// Param is a generic type parameter of the body's owner, by index
type Param struct {
	Index int
	Name  string
}

// Projection is `<Args[0] as Trait<Args[1:]...>>::Item`
type Projection struct {
	Trait     ast.DefID
	TraitName string // display only
	Item      string
	Args      Substs
}

func (p *Projection) Self() Ty { return p.Args.Type(0) }

// Opaque is an `impl Trait` return type seen from outside its defining scope
type Opaque struct {
	Def  ast.DefID
	Name string // display only
	Args Substs
}

// Dynamic is a trait object `dyn Trait`
type Dynamic struct {
	Trait ast.DefID
	Name  string // display only
}

type InferKind uint8

const (
	TyVar InferKind = iota
	IntVar
	FloatVar
)

// InferVar is an opaque handle on an inference variable. Only the
// inference table knows what it is bound to.
type InferVar struct {
	Kind InferKind
	ID   uint32
}

type Infer struct{ Var InferVar }

func (*Prim) genericArg()       {}
func (*Tuple) genericArg()      {}
func (*Never) genericArg()      {}
func (*ErrorType) genericArg()  {}
func (*Ref) genericArg()        {}
func (*Array) genericArg()      {}
func (*Slice) genericArg()      {}
func (*Adt) genericArg()        {}
func (*FnDef) genericArg()      {}
func (*FnPtr) genericArg()      {}
func (*Closure) genericArg()    {}
func (*Param) genericArg()      {}
func (*Projection) genericArg() {}
func (*Opaque) genericArg()     {}
func (*Dynamic) genericArg()    {}
func (*Infer) genericArg()      {}
func (Region) genericArg()      {}
func (*Const) genericArg()      {}

func (*Prim) isTy()       {}
func (*Tuple) isTy()      {}
func (*Never) isTy()      {}
func (*ErrorType) isTy()  {}
func (*Ref) isTy()        {}
func (*Array) isTy()      {}
func (*Slice) isTy()      {}
func (*Adt) isTy()        {}
func (*FnDef) isTy()      {}
func (*FnPtr) isTy()      {}
func (*Closure) isTy()    {}
func (*Param) isTy()      {}
func (*Projection) isTy() {}
func (*Opaque) isTy()     {}
func (*Dynamic) isTy()    {}
func (*Infer) isTy()      {}

// FnSig is the signature of a callable. Inputs of methods include the receiver.
type FnSig struct {
	Inputs    []Ty
	Output    Ty
	CVariadic bool
}

func IsUnit(t Ty) bool {
	tup, ok := t.(*Tuple)
	return ok && len(tup.Elems) == 0
}

func IsNever(t Ty) bool {
	_, ok := t.(*Never)
	return ok
}

func IsError(t Ty) bool {
	_, ok := t.(*ErrorType)
	return ok
}

// IsTyVar is true for general type variables, not integer or float ones
func IsTyVar(t Ty) bool {
	i, ok := t.(*Infer)
	return ok && i.Var.Kind == TyVar
}

// IsInfer is true for any inference variable
func IsInfer(t Ty) bool {
	_, ok := t.(*Infer)
	return ok
}

// IsIntegral is true for integer types and integer variables
func IsIntegral(t Ty) bool {
	switch t := t.(type) {
	case *Prim:
		return t.Kind.IsIntegral()
	case *Infer:
		return t.Var.Kind == IntVar
	}
	return false
}

// IsFloating is true for float types and float variables
func IsFloating(t Ty) bool {
	switch t := t.(type) {
	case *Prim:
		return t.Kind.IsFloat()
	case *Infer:
		return t.Var.Kind == FloatVar
	}
	return false
}

func IsNumeric(t Ty) bool { return IsIntegral(t) || IsFloating(t) }

// IsSized reports whether values of t have a statically known size.
// Type variables and params answer true: their sizedness is an obligation.
func IsSized(t Ty) bool {
	switch t := t.(type) {
	case *Slice, *Dynamic:
		return false
	case *Prim:
		return t.Kind != Str
	}
	return true
}
