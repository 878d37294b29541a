// Package items is the read-only table of definitions a body is checked
// against: functions, ADTs, traits, impls, their generics and bounds.
package items

import (
	"fmt"
	"slices"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

// Source is what the checker and the trait solver need to know about items.
// *Table implements it; it is never mutated while bodies are checked.
type Source interface {
	Item(def ast.DefID) (*Item, bool)
	Kind(def ast.DefID) ast.DefKind
	Name(def ast.DefID) string
	Parent(def ast.DefID) ast.DefID
	GenericsOf(def ast.DefID) *types.Generics
	// PredicatesOf returns the bounds of def including those of its parent,
	// in terms of the full substitution of def
	PredicatesOf(def ast.DefID) []types.Predicate
	TypeOf(def ast.DefID) types.Ty
	SigOf(def ast.DefID) types.FnSig
	AdtOf(def ast.DefID) *types.AdtDef
	Impls() []ast.DefID
	AssocItems(container ast.DefID) []ast.DefID
	LangItem(name LangItem) (ast.DefID, bool)
}

type Item struct {
	Def    ast.DefID
	Kind   ast.DefKind
	Name   string
	Parent ast.DefID

	Generics   *types.Generics
	Predicates []types.Predicate

	// Ty is the declared type of a const or static, the self type of an impl,
	// the value of an associated type in an impl, or the hidden type of an opaque
	Ty types.Ty
	// Sig is set on functions and associated functions
	Sig *types.FnSig
	// HasSelf is set on associated functions taking a self receiver
	HasSelf bool
	// Adt is set on structs and enums
	Adt *types.AdtDef
	// TraitRef is set on trait impls: `Self: Trait<..>` in terms of the impl generics
	TraitRef *types.TraitPredicate
}

var _ Source = (*Table)(nil)

type Table struct {
	items    map[ast.DefID]*Item
	order    []ast.DefID
	children map[ast.DefID][]ast.DefID
	lang     map[LangItem]ast.DefID
	next     ast.DefID
}

func NewTable() *Table {
	return &Table{
		items:    make(map[ast.DefID]*Item),
		children: make(map[ast.DefID][]ast.DefID),
		lang:     make(map[LangItem]ast.DefID),
		next:     1,
	}
}

// Add inserts item, allocating a DefID if it has none
func (t *Table) Add(item *Item) ast.DefID {
	if item.Def == ast.NoDef {
		item.Def = t.next
	}
	if item.Def >= t.next {
		t.next = item.Def + 1
	}
	if _, exists := t.items[item.Def]; exists {
		panic(fmt.Sprintf("item %s defined twice", item.Def))
	}
	if item.Generics == nil {
		item.Generics = &types.Generics{Parent: item.Parent}
		if item.Parent != ast.NoDef {
			item.Generics.ParentCount = t.GenericsOf(item.Parent).Count()
		}
	}
	t.items[item.Def] = item
	t.order = append(t.order, item.Def)
	if item.Parent != ast.NoDef {
		t.children[item.Parent] = append(t.children[item.Parent], item.Def)
	}
	return item.Def
}

// SetLang registers def as the lang item name
func (t *Table) SetLang(name LangItem, def ast.DefID) {
	t.lang[name] = def
}

func (t *Table) LangItem(name LangItem) (ast.DefID, bool) {
	def, ok := t.lang[name]
	return def, ok
}

func (t *Table) Item(def ast.DefID) (*Item, bool) {
	item, ok := t.items[def]
	return item, ok
}

func (t *Table) mustItem(def ast.DefID) *Item {
	item, ok := t.items[def]
	if !ok {
		panic(fmt.Sprintf("unknown item %s", def))
	}
	return item
}

func (t *Table) Kind(def ast.DefID) ast.DefKind { return t.mustItem(def).Kind }
func (t *Table) Name(def ast.DefID) string      { return t.mustItem(def).Name }
func (t *Table) Parent(def ast.DefID) ast.DefID { return t.mustItem(def).Parent }

func (t *Table) GenericsOf(def ast.DefID) *types.Generics {
	item, ok := t.items[def]
	if !ok || item.Generics == nil {
		return types.NoGenerics
	}
	return item.Generics
}

func (t *Table) PredicatesOf(def ast.DefID) []types.Predicate {
	item := t.mustItem(def)
	var preds []types.Predicate
	if item.Parent != ast.NoDef && t.inheritsBounds(item) {
		preds = append(preds, t.PredicatesOf(item.Parent)...)
	}
	if item.Kind == ast.DefTrait {
		preds = append(preds, &types.TraitPredicate{Trait: def, TraitName: item.Name, Args: IdentitySubsts(t, def)})
	}
	return append(preds, item.Predicates...)
}

// inheritsBounds is true when the parent's generics are part of item's own
// substitution
func (t *Table) inheritsBounds(item *Item) bool {
	return item.Generics != nil && item.Generics.ParentCount > 0
}

func (t *Table) TypeOf(def ast.DefID) types.Ty {
	item := t.mustItem(def)
	switch item.Kind {
	case ast.DefFn, ast.DefAssocFn:
		return &types.FnDef{Def: def, Name: item.Name, Args: IdentitySubsts(t, def)}
	case ast.DefStruct, ast.DefEnum:
		return &types.Adt{Def: item.Adt, Args: IdentitySubsts(t, def)}
	case ast.DefVariant:
		// a variant is written `Enum::Variant { .. }` and builds its enum
		return &types.Adt{Def: t.mustItem(item.Parent).Adt, Args: IdentitySubsts(t, def)}
	case ast.DefStructCtor, ast.DefVariantCtor:
		variant := t.ctorVariant(item)
		adt := t.ctorAdt(item)
		if variant.CtorKind == types.CtorFn {
			return &types.FnDef{Def: def, Name: item.Name, Args: IdentitySubsts(t, def)}
		}
		return &types.Adt{Def: adt.Adt, Args: IdentitySubsts(t, def)}
	}
	if item.Ty == nil {
		return types.Err
	}
	return item.Ty
}

func (t *Table) SigOf(def ast.DefID) types.FnSig {
	item := t.mustItem(def)
	if item.Sig != nil {
		return *item.Sig
	}
	if item.Kind == ast.DefStructCtor || item.Kind == ast.DefVariantCtor {
		variant := t.ctorVariant(item)
		adt := t.ctorAdt(item)
		inputs := make([]types.Ty, len(variant.Fields))
		for i, f := range variant.Fields {
			inputs[i] = f.Ty
		}
		return types.FnSig{Inputs: inputs, Output: &types.Adt{Def: adt.Adt, Args: IdentitySubsts(t, def)}}
	}
	panic(fmt.Sprintf("%s %s has no signature", item.Kind, item.Name))
}

// ctorAdt returns the struct or enum a constructor builds
func (t *Table) ctorAdt(ctor *Item) *Item {
	parent := t.mustItem(ctor.Parent)
	if parent.Kind == ast.DefVariant {
		return t.mustItem(parent.Parent)
	}
	return parent
}

func (t *Table) ctorVariant(ctor *Item) *types.VariantDef {
	adt := t.ctorAdt(ctor).Adt
	for _, v := range adt.Variants {
		if v.Ctor == ctor.Def {
			return v
		}
	}
	panic(fmt.Sprintf("constructor %s not found in %s", ctor.Name, adt.Name))
}

// VariantOf returns the fields a struct or an enum variant is built from
func (t *Table) VariantOf(def ast.DefID) (*types.VariantDef, bool) {
	item := t.mustItem(def)
	switch item.Kind {
	case ast.DefStruct:
		if item.Adt == nil || item.Adt.Kind != types.AdtStruct {
			return nil, false
		}
		return item.Adt.NonEnumVariant(), true
	case ast.DefVariant:
		for _, v := range t.mustItem(item.Parent).Adt.Variants {
			if v.Def == def {
				return v, true
			}
		}
	}
	return nil, false
}

func (t *Table) AdtOf(def ast.DefID) *types.AdtDef {
	item := t.mustItem(def)
	if item.Adt == nil {
		panic(fmt.Sprintf("%s %s is not an ADT", item.Kind, item.Name))
	}
	return item.Adt
}

func (t *Table) Impls() []ast.DefID {
	var impls []ast.DefID
	for _, def := range t.order {
		if t.items[def].Kind == ast.DefImpl {
			impls = append(impls, def)
		}
	}
	return impls
}

func (t *Table) AssocItems(container ast.DefID) []ast.DefID {
	return slices.Clone(t.children[container])
}

// IdentitySubsts maps every parameter of def, including its parent's, to itself
func IdentitySubsts(src Source, def ast.DefID) types.Substs {
	g := src.GenericsOf(def)
	if g.Count() == 0 {
		return nil
	}
	out := make(types.Substs, g.Count())
	for g != nil {
		for _, p := range g.Params {
			if p.Index < len(out) {
				out[p.Index] = p.AsArg()
			}
		}
		if g.Parent == ast.NoDef || g.ParentCount == 0 {
			break
		}
		g = src.GenericsOf(g.Parent)
	}
	for i := range out {
		if out[i] == nil {
			out[i] = &types.Param{Index: i, Name: fmt.Sprintf("P%d", i)}
		}
	}
	return out
}

// FindAssoc looks up an associated item of container by name and kind
func FindAssoc(src Source, container ast.DefID, name string, kinds ...ast.DefKind) (ast.DefID, bool) {
	for _, child := range src.AssocItems(container) {
		if src.Name(child) == name && slices.Contains(kinds, src.Kind(child)) {
			return child, true
		}
	}
	return ast.NoDef, false
}

// TraitRefOf returns the trait an impl implements, or nil for inherent impls
func TraitRefOf(src Source, impl ast.DefID) *types.TraitPredicate {
	item, ok := src.Item(impl)
	if !ok {
		return nil
	}
	return item.TraitRef
}

// ContainerTrait returns the trait that declares an associated item, if any
func ContainerTrait(src Source, def ast.DefID) (ast.DefID, bool) {
	parent := src.Parent(def)
	if parent != ast.NoDef && src.Kind(parent) == ast.DefTrait {
		return parent, true
	}
	return ast.NoDef, false
}
