package types

import "github.com/cottand/typeck/frontend/ast"

type AdtKind uint8

const (
	AdtStruct AdtKind = iota
	AdtEnum
)

// CtorKind is the shape of a struct or variant constructor
type CtorKind uint8

const (
	// CtorNone is a braced struct/variant, which has no value constructor
	CtorNone CtorKind = iota
	// CtorFn is a tuple-like constructor, a function of the fields
	CtorFn
	// CtorConst is a unit-like constructor, a constant
	CtorConst
)

type FieldDef struct {
	Name string
	// Ty is in terms of the ADT's own generic parameters
	Ty Ty
}

type VariantDef struct {
	Def      ast.DefID
	Name     string
	Ctor     ast.DefID
	CtorKind CtorKind
	Fields   []FieldDef
}

type AdtDef struct {
	Def      ast.DefID
	Name     string
	Kind     AdtKind
	Variants []*VariantDef
}

// NonEnumVariant returns the single variant of a struct
func (a *AdtDef) NonEnumVariant() *VariantDef {
	if a.Kind == AdtEnum || len(a.Variants) != 1 {
		panic("NonEnumVariant on " + a.Name)
	}
	return a.Variants[0]
}

// HasCtor is true for tuple and unit structs
func (a *AdtDef) HasCtor() bool {
	return a.Kind == AdtStruct && len(a.Variants) == 1 && a.Variants[0].CtorKind != CtorNone
}

// Field looks up a field of a struct by name
func (v *VariantDef) Field(name string) (int, *FieldDef) {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return i, &v.Fields[i]
		}
	}
	return -1, nil
}
