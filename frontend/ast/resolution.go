package ast

import "fmt"

// DefID identifies an item known to the item table (functions, ADTs,
// constructors, traits, impls, associated items)
type DefID uint32

const NoDef DefID = 0

func (d DefID) String() string {
	return fmt.Sprintf("d%d", uint32(d))
}

type DefKind uint8

const (
	DefFn DefKind = iota
	DefConst
	DefStatic
	DefStruct
	DefEnum
	DefVariant
	DefTrait
	DefImpl
	DefAssocFn
	DefAssocConst
	DefAssocTy
	DefStructCtor
	DefVariantCtor
	DefOpaque
	DefClosure
)

var defKindNames = [...]string{
	DefFn:          "function",
	DefConst:       "constant",
	DefStatic:      "static",
	DefStruct:      "struct",
	DefEnum:        "enum",
	DefVariant:     "variant",
	DefTrait:       "trait",
	DefImpl:        "impl",
	DefAssocFn:     "associated function",
	DefAssocConst:  "associated constant",
	DefAssocTy:     "associated type",
	DefStructCtor:  "struct constructor",
	DefVariantCtor: "variant constructor",
	DefOpaque:      "opaque type",
	DefClosure:     "closure",
}

func (k DefKind) String() string {
	if int(k) < len(defKindNames) {
		return defKindNames[k]
	}
	return fmt.Sprintf("DefKind(%d)", k)
}

// ResKind is the outcome of name resolution for a value path
type ResKind uint8

const (
	// ResErr means name resolution already failed and reported
	ResErr ResKind = iota
	ResLocal
	ResDef
	// ResSelfCtor is `Self(..)` inside an impl, Def is the impl
	ResSelfCtor
	// ResTypeRelative is `T::item` or `<T>::item`: the item is only known once
	// the self type is, so the checker has to resolve it
	ResTypeRelative
)

// Res is what the resolution layer decided a path refers to before types
// were available
type Res struct {
	Kind  ResKind
	Local NodeID
	Def   DefID
}

func LocalRes(id NodeID) Res { return Res{Kind: ResLocal, Local: id} }
func DefRes(def DefID) Res   { return Res{Kind: ResDef, Def: def} }

func (r Res) String() string {
	switch r.Kind {
	case ResLocal:
		return "local " + r.Local.String()
	case ResDef:
		return "def " + r.Def.String()
	case ResSelfCtor:
		return "Self ctor of " + r.Def.String()
	case ResTypeRelative:
		return "type-relative"
	default:
		return "err"
	}
}
