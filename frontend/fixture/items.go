package fixture

import (
	"fmt"
	"strings"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
	"github.com/pkg/errors"
)

// loader turns item declarations into an items.Table. Names are declared
// in a first pass so that declarations may refer to each other in any order.
type loader struct {
	table *items.Table
	// values are functions, constants, statics and constructors by path,
	// e.g. `foo` or `Option::Some`
	values map[string]ast.DefID
	// types are structs, enums and traits by name
	types map[string]ast.DefID

	pending []func()
	err     error
}

func newLoader() *loader {
	return &loader{
		table:  items.NewTable(),
		values: make(map[string]ast.DefID),
		types:  make(map[string]ast.DefID),
	}
}

func (l *loader) failf(format string, args ...any) {
	if l.err == nil {
		l.err = errors.Errorf(format, args...)
	}
}

// scope is what names mean inside one item's signature
type scope struct {
	params map[string]types.GenericParamDef
	self   types.Ty
	// owner is the function an `impl Trait` return type belongs to
	owner ast.DefID
}

func (l *loader) scopeOf(def ast.DefID, self types.Ty) *scope {
	sc := &scope{params: make(map[string]types.GenericParamDef), self: self}
	for g := l.table.GenericsOf(def); g != nil; {
		for _, p := range g.Params {
			if _, shadowed := sc.params[p.Name]; !shadowed {
				sc.params[p.Name] = p
			}
		}
		if g.Parent == ast.NoDef {
			break
		}
		g = l.table.GenericsOf(g.Parent)
	}
	return sc
}

// later queues work that needs every name declared
func (l *loader) later(f func()) {
	l.pending = append(l.pending, f)
}

func (l *loader) declareAll(decls []ItemDecl) {
	for i := range decls {
		l.declare(&decls[i])
	}
	for _, f := range l.pending {
		if l.err != nil {
			return
		}
		f()
	}
}

func (l *loader) declare(d *ItemDecl) {
	switch d.Kind {
	case "fn":
		item := &items.Item{Kind: ast.DefFn, Name: d.Name}
		item.Generics = l.generics(d, ast.NoDef, false)
		def := l.table.Add(item)
		l.values[d.Name] = def
		l.later(func() { l.fillFn(item, d, l.scopeOf(def, nil)) })
	case "const", "static":
		kind := ast.DefConst
		if d.Kind == "static" {
			kind = ast.DefStatic
		}
		item := &items.Item{Kind: kind, Name: d.Name}
		l.values[d.Name] = l.table.Add(item)
		l.later(func() { item.Ty = l.lowerText(d.Type, &scope{}) })
	case "struct":
		l.declareStruct(d)
	case "enum":
		l.declareEnum(d)
	case "trait":
		l.declareTrait(d)
	case "impl":
		l.declareImpl(d)
	default:
		l.failf("%s: unknown item kind %q", d.Name, d.Kind)
	}
}

// generics declares the own parameters of an item. Traits also get Self
// at index 0.
func (l *loader) generics(d *ItemDecl, parent ast.DefID, hasSelf bool) *types.Generics {
	g := &types.Generics{Parent: parent, HasSelf: hasSelf}
	if parent != ast.NoDef {
		g.ParentCount = l.table.GenericsOf(parent).Count()
	}
	if hasSelf {
		g.Params = append(g.Params, types.GenericParamDef{Name: "Self", Index: 0, Kind: types.ParamType})
	}
	for _, text := range d.Generics {
		p := types.GenericParamDef{Index: g.ParentCount + len(g.Params), Kind: types.ParamType}
		name, def, hasDefault := strings.Cut(text, "=")
		name = strings.TrimSpace(name)
		switch {
		case strings.HasPrefix(name, "'"):
			p.Kind = types.ParamLifetime
		case strings.HasPrefix(name, "const "):
			p.Kind = types.ParamConst
			name = strings.TrimSpace(strings.TrimPrefix(name, "const "))
		}
		p.Name = name
		g.Params = append(g.Params, p)
		if hasDefault {
			i := len(g.Params) - 1
			def := strings.TrimSpace(def)
			l.later(func() { g.Params[i].Default = l.lowerText(def, l.genericsScope(g)) })
		}
	}
	return g
}

// genericsScope resolves the parameters declared before a default
func (l *loader) genericsScope(g *types.Generics) *scope {
	sc := &scope{params: make(map[string]types.GenericParamDef)}
	for _, p := range g.Params {
		sc.params[p.Name] = p
	}
	return sc
}

func (l *loader) fillFn(item *items.Item, d *ItemDecl, sc *scope) {
	sc.owner = item.Def
	sig := &types.FnSig{CVariadic: d.Variadic, Output: types.Unit}
	switch d.Self {
	case "":
	case "value":
		sig.Inputs = append(sig.Inputs, sc.self)
	case "ref", "mut":
		sig.Inputs = append(sig.Inputs, &types.Ref{Region: types.ErasedRegion, Mut: d.Self == "mut", Elem: sc.self})
	default:
		l.failf("%s: receiver must be value, ref or mut, not %q", d.Name, d.Self)
	}
	item.HasSelf = d.Self != ""
	for _, in := range d.Inputs {
		sig.Inputs = append(sig.Inputs, l.lowerText(in, sc))
	}
	if d.Output != "" {
		sig.Output = l.lowerText(d.Output, sc)
	}
	item.Sig = sig
	item.Predicates = append(item.Predicates, l.bounds(d, sc)...)
}

func (l *loader) bounds(d *ItemDecl, sc *scope) []types.Predicate {
	var preds []types.Predicate
	for _, text := range d.Bounds {
		decl, err := parseBound(text)
		if err != nil {
			l.failf("%s: %v", d.Name, err)
			return nil
		}
		if decl.proj != nil {
			proj, ok := l.lower(decl.proj, sc).(*types.Projection)
			if ok {
				preds = append(preds, &types.ProjectionPredicate{Projection: proj, Ty: l.lower(decl.eq, sc)})
			}
			continue
		}
		self := l.lower(decl.self, sc)
		for _, b := range decl.bounds {
			preds = append(preds, l.boundPredicates(self, b, sc)...)
		}
	}
	return preds
}

// boundPredicates turns `self: Trait<..>` into predicates. The sugar
// `Fn(A, B) -> C` also fixes the FnOnce output.
func (l *loader) boundPredicates(self types.Ty, b *tyNode, sc *scope) []types.Predicate {
	trait, ok := l.trait(b.name)
	if !ok {
		return nil
	}
	if b.parenSugar {
		inputs := make([]types.Ty, len(b.args))
		for i, in := range b.args {
			inputs[i] = l.lower(in, sc)
		}
		args := types.Substs{self, types.MkTuple(inputs...)}
		preds := []types.Predicate{&types.TraitPredicate{Trait: trait, TraitName: b.name, Args: args}}
		once, ok := l.table.LangItem(items.LangFnOnce)
		if !ok {
			l.failf("%s(..) bounds need the FnOnce lang item", b.name)
			return nil
		}
		out := types.Ty(types.Unit)
		if b.out != nil {
			out = l.lower(b.out, sc)
		}
		return append(preds, &types.ProjectionPredicate{
			Projection: &types.Projection{Trait: once, TraitName: l.table.Name(once), Item: items.FnOutput, Args: args},
			Ty:         out,
		})
	}
	args := append(types.Substs{self}, l.lowerArgs(b.name, b.args, trait, sc, 1)...)
	return []types.Predicate{&types.TraitPredicate{Trait: trait, TraitName: b.name, Args: args}}
}

func (l *loader) trait(name string) (ast.DefID, bool) {
	def, ok := l.types[name]
	if !ok || l.table.Kind(def) != ast.DefTrait {
		l.failf("%s is not a trait", name)
		return ast.NoDef, false
	}
	return def, true
}

func (l *loader) declareStruct(d *ItemDecl) {
	adt := &types.AdtDef{Name: d.Name, Kind: types.AdtStruct}
	item := &items.Item{Kind: ast.DefStruct, Name: d.Name, Adt: adt}
	item.Generics = l.generics(d, ast.NoDef, false)
	def := l.table.Add(item)
	adt.Def = def
	l.types[d.Name] = def

	variant := &types.VariantDef{Def: def, Name: d.Name}
	adt.Variants = []*types.VariantDef{variant}
	l.declareCtor(d, def, variant, d.Name)
	l.later(func() {
		sc := l.scopeOf(def, nil)
		variant.Fields = l.fields(d, sc)
		item.Predicates = l.bounds(d, sc)
	})
}

func (l *loader) declareEnum(d *ItemDecl) {
	adt := &types.AdtDef{Name: d.Name, Kind: types.AdtEnum}
	item := &items.Item{Kind: ast.DefEnum, Name: d.Name, Adt: adt}
	item.Generics = l.generics(d, ast.NoDef, false)
	def := l.table.Add(item)
	adt.Def = def
	l.types[d.Name] = def

	for i := range d.Variants {
		vd := &d.Variants[i]
		vdef := l.table.Add(&items.Item{Kind: ast.DefVariant, Name: vd.Name, Parent: def})
		variant := &types.VariantDef{Def: vdef, Name: vd.Name}
		adt.Variants = append(adt.Variants, variant)
		l.declareCtor(vd, vdef, variant, d.Name+"::"+vd.Name)
		l.later(func() { variant.Fields = l.fields(vd, l.scopeOf(def, nil)) })
	}
	l.later(func() { item.Predicates = l.bounds(d, l.scopeOf(def, nil)) })
}

func (l *loader) declareCtor(d *ItemDecl, parent ast.DefID, variant *types.VariantDef, path string) {
	kind := ast.DefStructCtor
	if l.table.Kind(parent) == ast.DefVariant {
		kind = ast.DefVariantCtor
	}
	switch d.Ctor {
	case "":
		return
	case "fn":
		variant.CtorKind = types.CtorFn
	case "const":
		variant.CtorKind = types.CtorConst
	default:
		l.failf("%s: ctor must be fn or const, not %q", d.Name, d.Ctor)
		return
	}
	variant.Ctor = l.table.Add(&items.Item{Kind: kind, Name: d.Name, Parent: parent})
	l.values[path] = variant.Ctor
}

// fields of a tuple-like constructor may be left unnamed and are named by position
func (l *loader) fields(d *ItemDecl, sc *scope) []types.FieldDef {
	out := make([]types.FieldDef, len(d.Fields))
	for i, f := range d.Fields {
		name := f.Name
		if name == "" {
			name = fmt.Sprint(i)
		}
		out[i] = types.FieldDef{Name: name, Ty: l.lowerText(f.Type, sc)}
	}
	return out
}

func (l *loader) declareTrait(d *ItemDecl) {
	item := &items.Item{Kind: ast.DefTrait, Name: d.Name}
	item.Generics = l.generics(d, ast.NoDef, true)
	def := l.table.Add(item)
	l.types[d.Name] = def
	if d.Lang != "" {
		l.table.SetLang(items.LangItem(d.Lang), def)
	}
	self := &types.Param{Index: 0, Name: "Self"}
	l.later(func() { item.Predicates = l.bounds(d, l.scopeOf(def, self)) })
	l.declareAssoc(d, def, self)
}

func (l *loader) declareImpl(d *ItemDecl) {
	item := &items.Item{Kind: ast.DefImpl}
	item.Generics = l.generics(d, ast.NoDef, false)
	item.Name = "impl " + d.For
	if d.Trait != "" {
		item.Name = fmt.Sprintf("impl %s for %s", d.Trait, d.For)
	}
	def := l.table.Add(item)

	// the self type is only known once every name is declared, so
	// associated items take it from the impl when they are filled
	self := &lazyTy{}
	l.later(func() {
		sc := l.scopeOf(def, nil)
		item.Ty = l.lowerText(d.For, sc)
		self.ty = item.Ty
		sc.self = item.Ty
		if d.Trait != "" {
			node, err := parse(d.Trait, (*tyParser).bound)
			if err != nil {
				l.failf("%s: %v", item.Name, err)
				return
			}
			preds := l.boundPredicates(item.Ty, node, sc)
			if len(preds) > 0 {
				item.TraitRef, _ = preds[0].(*types.TraitPredicate)
			}
		}
		item.Predicates = l.bounds(d, sc)
	})
	l.declareAssocLazy(d, def, self)
}

// lazyTy is the self type of an impl, set once names are resolved
type lazyTy struct{ ty types.Ty }

func (l *loader) declareAssoc(d *ItemDecl, container ast.DefID, self types.Ty) {
	l.declareAssocLazy(d, container, &lazyTy{ty: self})
}

func (l *loader) declareAssocLazy(d *ItemDecl, container ast.DefID, self *lazyTy) {
	for i := range d.Assoc {
		ad := &d.Assoc[i]
		switch ad.Kind {
		case "fn":
			item := &items.Item{Kind: ast.DefAssocFn, Name: ad.Name, Parent: container}
			item.Generics = l.generics(ad, container, false)
			def := l.table.Add(item)
			l.later(func() { l.fillFn(item, ad, l.scopeOf(def, self.ty)) })
		case "const":
			item := &items.Item{Kind: ast.DefAssocConst, Name: ad.Name, Parent: container}
			def := l.table.Add(item)
			l.later(func() {
				if ad.Type != "" {
					item.Ty = l.lowerText(ad.Type, l.scopeOf(def, self.ty))
				}
			})
		case "type":
			item := &items.Item{Kind: ast.DefAssocTy, Name: ad.Name, Parent: container}
			def := l.table.Add(item)
			l.later(func() {
				if ad.Type != "" {
					item.Ty = l.lowerText(ad.Type, l.scopeOf(def, self.ty))
				}
			})
		default:
			l.failf("%s: unknown associated item kind %q", ad.Name, ad.Kind)
		}
	}
}

func (l *loader) lowerText(text string, sc *scope) types.Ty {
	n, err := parseTy(text)
	if err != nil {
		l.failf("%v", err)
		return types.Err
	}
	return l.lower(n, sc)
}

// lower resolves a type of an item signature
func (l *loader) lower(n *tyNode, sc *scope) types.Ty {
	switch n.kind {
	case tyNever:
		return types.NeverTy
	case tyInfer:
		l.failf("`_` is not allowed in item signatures")
		return types.Err
	case tyRef:
		return &types.Ref{Region: l.region(n.name, sc), Mut: n.mut, Elem: l.lower(n.args[0], sc)}
	case tyTuple:
		elems := make([]types.Ty, len(n.args))
		for i, a := range n.args {
			elems[i] = l.lower(a, sc)
		}
		return types.MkTuple(elems...)
	case tyArray:
		return &types.Array{Elem: l.lower(n.args[0], sc), Len: n.n}
	case tySlice:
		return &types.Slice{Elem: l.lower(n.args[0], sc)}
	case tyFn:
		sig := types.FnSig{Output: types.Unit, CVariadic: n.variadic}
		for _, in := range n.args {
			sig.Inputs = append(sig.Inputs, l.lower(in, sc))
		}
		if n.out != nil {
			sig.Output = l.lower(n.out, sc)
		}
		return &types.FnPtr{Sig: sig}
	case tyImpl:
		return l.opaque(n, sc)
	case tyDyn:
		trait, ok := l.trait(n.name)
		if !ok {
			return types.Err
		}
		return &types.Dynamic{Trait: trait, Name: n.name}
	case tyProj:
		trait, ok := l.trait(n.name)
		if !ok {
			return types.Err
		}
		args := append(types.Substs{l.lower(n.self, sc)}, l.lowerArgs(n.name, n.args, trait, sc, 1)...)
		return &types.Projection{Trait: trait, TraitName: n.name, Item: n.item, Args: args}
	case tyPath:
		return l.lowerPath(n, sc)
	}
	l.failf("unexpected %v in type position", n.name)
	return types.Err
}

func (l *loader) lowerPath(n *tyNode, sc *scope) types.Ty {
	if n.name == "Self" && sc.self != nil {
		return sc.self
	}
	if p, ok := sc.params[n.name]; ok {
		if p.Kind != types.ParamType {
			l.failf("%s is a %s parameter, not a type", n.name, p.Kind)
			return types.Err
		}
		return &types.Param{Index: p.Index, Name: p.Name}
	}
	if prim, ok := types.PrimByName(n.name); ok {
		return prim
	}
	def, ok := l.types[n.name]
	if !ok || l.table.Kind(def) == ast.DefTrait {
		l.failf("unknown type %s", n.name)
		return types.Err
	}
	return &types.Adt{Def: l.table.AdtOf(def), Args: l.lowerArgs(n.name, n.args, def, sc, 0)}
}

// lowerArgs lowers the generic arguments written for def. skip is the
// number of leading parameters that are not written, like a trait's Self.
func (l *loader) lowerArgs(name string, args []*tyNode, def ast.DefID, sc *scope, skip int) types.Substs {
	params := l.table.GenericsOf(def).Params
	if len(params)-skip != len(args) {
		l.failf("%s takes %d generic arguments, %d given", name, len(params)-skip, len(args))
		return nil
	}
	out := make(types.Substs, len(args))
	for i, a := range args {
		switch a.kind {
		case tyLifetime:
			out[i] = l.region(a.name, sc)
		case tyConst:
			out[i] = &types.Const{Kind: types.ConstValue, Value: int64(a.n)}
		default:
			out[i] = l.lower(a, sc)
		}
	}
	return out
}

func (l *loader) region(name string, sc *scope) types.Region {
	switch name {
	case "", "'_":
		return types.ErasedRegion
	case "'static":
		return types.StaticRegion
	}
	if p, ok := sc.params[name]; ok && p.Kind == types.ParamLifetime {
		return types.Region{Kind: types.ReEarlyBound, Index: p.Index, Name: p.Name}
	}
	l.failf("undeclared lifetime %s", name)
	return types.ErasedRegion
}

// opaque declares the opaque type of an `impl Trait` return type
func (l *loader) opaque(n *tyNode, sc *scope) types.Ty {
	if sc.owner == ast.NoDef {
		l.failf("impl %s is only allowed in function return types", n.name)
		return types.Err
	}
	item := &items.Item{Kind: ast.DefOpaque, Name: n.name, Parent: sc.owner}
	def := l.table.Add(item)
	op := &types.Opaque{Def: def, Name: n.name, Args: items.IdentitySubsts(l.table, def)}
	item.Predicates = l.boundPredicates(op, n, sc)
	return op
}
