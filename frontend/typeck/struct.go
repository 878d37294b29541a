package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/pkg/errors"
)

// checkStructLit checks `Path { name: expr, ..base }`. The type of the
// literal comes from its path alone; fields are checked against it.
func (fcx *FnCtxt) checkStructLit(lit *ast.StructLit, expected Expectation) types.Ty {
	variant, adtTy, ok := fcx.checkStructPath(lit)
	if !ok {
		for _, f := range lit.Fields {
			fcx.checkExpr(f.Expr)
		}
		if lit.Base != nil {
			fcx.checkExpr(lit.Base)
		}
		return types.Err
	}

	if hint := expected.onlyHasType(fcx); hint != nil && fcx.infcx.CanSub(adtTy, hint) {
		// lets the expected type flow into the fields, e.g. for literals
		_ = fcx.infcx.Sub(adtTy, hint)
	}

	hadError := fcx.checkStructFields(lit, variant, adtTy)

	if lit.Base != nil {
		if adtTy.Def.Kind != types.AdtStruct {
			fcx.report(ilerr.New(ilerr.Unclassified{
				Positioner: ast.RangeOf(lit.Base),
				From:       errors.New("functional record update syntax requires a struct"),
			}))
			fcx.checkExpr(lit.Base)
			return types.Err
		}
		fcx.checkExprHasType(lit.Base, adtTy)
	}
	if hadError {
		return types.Err
	}
	return adtTy
}

// checkStructFields checks every field initialiser against the field it
// names and reports the fields left out when there is no base
func (fcx *FnCtxt) checkStructFields(lit *ast.StructLit, variant *types.VariantDef, adtTy *types.Adt) bool {
	span := ast.RangeOf(lit)
	seen := make(map[int]ast.Range, len(lit.Fields))
	hadError := false

	for i := range lit.Fields {
		init := &lit.Fields[i]
		idx, field := variant.Field(init.Name)
		first, dup := seen[idx]
		switch {
		case field == nil:
			fcx.report(ilerr.New(ilerr.NewNoSuchField{Positioner: ast.RangeOf(init), Ty: adtTy, Name: init.Name}))
		case dup:
			fcx.report(ilerr.New(ilerr.NewFieldSpecifiedTwice{Positioner: ast.RangeOf(init), Name: init.Name, First: first}))
		default:
			seen[idx] = ast.RangeOf(init)
			fcx.WriteFieldIndex(init.ID(), idx)
			fieldTy := fcx.normalize(types.Subst(field.Ty, adtTy.Args), traits.MiscCause(ast.RangeOf(init)))
			fcx.checkExprCoercibleToType(init.Expr, fieldTy)
			continue
		}
		hadError = true
		fcx.checkExpr(init.Expr)
	}

	if lit.Base != nil || hadError {
		return hadError
	}
	var missing []string
	for i, f := range variant.Fields {
		if _, ok := seen[i]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		fcx.report(ilerr.New(ilerr.NewMissingFields{Positioner: span, Ty: fcx.infcx.Resolve(adtTy), Fields: missing}))
		return true
	}
	return false
}

// checkStructPath resolves the path of a struct literal to the variant it
// builds and the type of the literal
func (fcx *FnCtxt) checkStructPath(lit *ast.StructLit) (*types.VariantDef, *types.Adt, bool) {
	path := lit.Path
	span := ast.RangeOf(lit)
	fail := func() (*types.VariantDef, *types.Adt, bool) {
		fcx.report(ilerr.New(ilerr.NewNotAStruct{Positioner: span, Path: path.String()}))
		fcx.writeErrorResolution(lit.ID())
		return nil, nil, false
	}

	switch path.Res.Kind {
	case ast.ResErr:
		fcx.writeErrorResolution(lit.ID())
		return nil, nil, false

	case ast.ResSelfCtor:
		adt, ok := fcx.items.TypeOf(path.Res.Def).(*types.Adt)
		if !ok || adt.Def.Kind != types.AdtStruct {
			return fail()
		}
		substs := types.SubstSubsts(adt.Args, fcx.freshSubsts(span, path.Res.Def))
		ty := &types.Adt{Def: adt.Def, Args: substs}
		fcx.WriteSubsts(lit.ID(), substs)
		fcx.WriteResolution(lit.ID(), Resolution{Kind: ast.DefStruct, Def: adt.Def.Def})
		return adt.Def.NonEnumVariant(), ty, true

	case ast.ResTypeRelative:
		// `<E>::Variant { .. }`, only enums have type-relative variants
		selfTy := fcx.structurallyResolveType(span, fcx.lowerTy(path.QSelf))
		if types.IsError(selfTy) {
			fcx.writeErrorResolution(lit.ID())
			return nil, nil, false
		}
		adt, ok := selfTy.(*types.Adt)
		if !ok || adt.Def.Kind != types.AdtEnum {
			return fail()
		}
		for _, v := range adt.Def.Variants {
			if v.Name == path.Last().Name {
				fcx.prohibitGenerics(path.Last().Args, path.Last().Name)
				fcx.WriteResolution(lit.ID(), Resolution{Kind: ast.DefVariant, Def: v.Def})
				return v, adt, true
			}
		}
		return fail()

	case ast.ResDef:
		kind := fcx.items.Kind(path.Res.Def)
		if kind != ast.DefStruct && kind != ast.DefVariant {
			return fail()
		}
		variant, ok := fcx.items.VariantOf(path.Res.Def)
		if !ok {
			return fail()
		}
		ty := fcx.instantiateValuePath(&ast.PathExpr{Meta: lit.Meta, Path: path}, path.Res.Def, nil)
		adt, ok := fcx.structurallyResolveType(span, ty).(*types.Adt)
		if !ok {
			fcx.writeErrorResolution(lit.ID())
			return nil, nil, false
		}
		return variant, adt, true
	}
	return fail()
}

// checkIndex checks `operand[index]`. Arrays and slices, behind any number
// of references, are indexed by usize directly. Anything else goes
// through the Index trait at each autoderef step.
func (fcx *FnCtxt) checkIndex(expr *ast.Index) types.Ty {
	span := ast.RangeOf(expr)
	operandTy := fcx.checkExpr(expr.Operand)
	idxTy := fcx.checkExpr(expr.Index)
	if types.ReferencesError(operandTy) || types.ReferencesError(idxTy) {
		return types.Err
	}

	ty := fcx.structurallyResolveType(ast.RangeOf(expr.Operand), operandTy)
	var derefs []Adjustment
	for {
		var elem types.Ty
		switch t := ty.(type) {
		case *types.Array:
			elem = t.Elem
		case *types.Slice:
			elem = t.Elem
		}
		if elem != nil && types.IsIntegral(fcx.infcx.ShallowResolve(idxTy)) {
			fcx.demandCoerce(expr.Index, idxTy, types.UsizeTy)
			fcx.ApplyAdjustments(expr.Operand, derefs)
			return elem
		}
		if out, ok := fcx.lookupOpMethod(expr.ID(), span, items.LangIndex, "index", items.OpOutput, ty, idxTy); ok {
			fcx.ApplyAdjustments(expr.Operand, derefs)
			return out
		}
		ref, ok := ty.(*types.Ref)
		if !ok {
			break
		}
		ty = fcx.structurallyResolveType(span, ref.Elem)
		derefs = append(derefs, Adjustment{Kind: AdjustDeref, Target: ty})
	}
	fcx.report(ilerr.New(ilerr.NewCannotIndex{Positioner: span, Ty: fcx.infcx.Resolve(operandTy), Index: fcx.infcx.Resolve(idxTy)}))
	return types.Err
}
