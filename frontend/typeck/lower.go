package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
	"github.com/pkg/errors"
)

// lowerTy turns a type written in the body into a normalized type
func (fcx *FnCtxt) lowerTy(t ast.TypeExpr) types.Ty {
	return fcx.normalize(fcx.lowerUserTy(t), traits.MiscCause(ast.RangeOf(t)))
}

// lowerUserTy turns a type written in the body into a type, keeping
// projections as written. `_` and elided lifetimes become fresh variables.
func (fcx *FnCtxt) lowerUserTy(t ast.TypeExpr) types.Ty {
	span := ast.RangeOf(t)
	switch t := t.(type) {
	case *ast.PathType:
		return fcx.lowerPathType(t)
	case *ast.RefType:
		return &types.Ref{Region: fcx.lowerRegion(t.Lifetime), Mut: t.Mut, Elem: fcx.lowerUserTy(t.Elem)}
	case *ast.TupleType:
		elems := make([]types.Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = fcx.lowerUserTy(e)
		}
		return types.MkTuple(elems...)
	case *ast.ArrayType:
		return &types.Array{Elem: fcx.lowerUserTy(t.Elem), Len: t.Len}
	case *ast.SliceType:
		return &types.Slice{Elem: fcx.lowerUserTy(t.Elem)}
	case *ast.NeverType:
		return types.NeverTy
	case *ast.InferType:
		return fcx.infcx.NextTyVar(span)
	case *ast.FnPtrType:
		sig := types.FnSig{Inputs: make([]types.Ty, len(t.Inputs)), Output: types.Unit, CVariadic: t.Variadic}
		for i, in := range t.Inputs {
			sig.Inputs[i] = fcx.lowerUserTy(in)
		}
		if t.Output != nil {
			sig.Output = fcx.lowerUserTy(t.Output)
		}
		return &types.FnPtr{Sig: sig}
	case *ast.DynType:
		return &types.Dynamic{Trait: t.Trait, Name: fcx.items.Name(t.Trait)}
	case *ast.ProjectionType:
		// Self is parameter 0 of every trait
		self := fcx.lowerUserTy(t.Self)
		args := fcx.freshSubsts(span, t.Trait)
		if len(args) == 0 {
			args = types.Substs{self}
		}
		args[0] = self
		return &types.Projection{Trait: t.Trait, TraitName: fcx.items.Name(t.Trait), Item: t.Item, Args: args}
	}
	panic(ilerr.NewBug("unexpected type expression %T at %v", t, span))
}

func (fcx *FnCtxt) lowerPathType(t *ast.PathType) types.Ty {
	span := ast.RangeOf(t)
	switch t.Res.Kind {
	case ast.TyResPrim:
		if prim, ok := types.PrimByName(t.Res.Prim); ok {
			fcx.prohibitGenerics(t.Args, t.Res.Prim)
			return prim
		}
		fcx.report(ilerr.New(ilerr.Unclassified{Positioner: span, From: errors.Errorf("unknown primitive type `%s`", t.Res.Prim)}))
		return types.Err
	case ast.TyResParam:
		fcx.prohibitGenerics(t.Args, t.Res.ParamName)
		return &types.Param{Index: t.Res.ParamIndex, Name: t.Res.ParamName}
	case ast.TyResAdt:
		seg := &ast.PathSegment{Range: span, Name: fcx.items.Name(t.Res.Def), Args: t.Args}
		substs := fcx.createSubsts(span, t.Res.Def, map[ast.DefID]*ast.PathSegment{t.Res.Def: seg}, nil, false)
		return &types.Adt{Def: fcx.items.AdtOf(t.Res.Def), Args: substs}
	case ast.TyResOpaque:
		fcx.prohibitGenerics(t.Args, fcx.items.Name(t.Res.Def))
		return &types.Opaque{Def: t.Res.Def, Name: fcx.items.Name(t.Res.Def), Args: items.IdentitySubsts(fcx.items, t.Res.Def)}
	}
	return types.Err
}

// lowerRegion resolves a lifetime written in the body: the owner's named
// lifetime parameters and 'static are known, anything else is inferred
func (fcx *FnCtxt) lowerRegion(name string) types.Region {
	switch name {
	case "", "'_":
		return fcx.infcx.NextRegionVar()
	case "'static":
		return types.StaticRegion
	}
	for def := fcx.owner; def != ast.NoDef; {
		g := fcx.items.GenericsOf(def)
		for _, p := range g.Params {
			if p.Kind == types.ParamLifetime && p.Name == name {
				return types.Region{Kind: types.ReEarlyBound, Index: p.Index, Name: p.Name}
			}
		}
		if g.ParentCount == 0 {
			break
		}
		def = g.Parent
	}
	return fcx.infcx.NextRegionVar()
}

// prohibitGenerics reports generic arguments written where none are accepted
func (fcx *FnCtxt) prohibitGenerics(args *ast.GenericArgs, segment string) bool {
	if args == nil || len(args.Args) == 0 {
		return false
	}
	fcx.report(ilerr.New(ilerr.NewProhibitedGenericArgs{Positioner: args.Range, Segment: segment}))
	return true
}
