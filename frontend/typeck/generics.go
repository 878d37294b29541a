package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// genericsChain returns the generics of def and of every parent whose
// parameters are part of def's substitution, outermost first
func (fcx *FnCtxt) genericsChain(def ast.DefID) ([]ast.DefID, []*types.Generics) {
	var defs []ast.DefID
	var chain []*types.Generics
	for {
		g := fcx.items.GenericsOf(def)
		defs = append([]ast.DefID{def}, defs...)
		chain = append([]*types.Generics{g}, chain...)
		if g.Parent == ast.NoDef || g.ParentCount == 0 {
			return defs, chain
		}
		def = g.Parent
	}
}

// freshSubsts instantiates every parameter of def with a new variable
func (fcx *FnCtxt) freshSubsts(span ast.Range, def ast.DefID) types.Substs {
	return fcx.createSubsts(span, def, nil, nil, true)
}

func (fcx *FnCtxt) freshArg(span ast.Range, kind types.ParamKind) types.GenericArg {
	switch kind {
	case types.ParamLifetime:
		return fcx.infcx.NextRegionVar()
	case types.ParamConst:
		return fcx.infcx.NextConstVar()
	}
	return fcx.infcx.NextTyVar(span)
}

// createSubsts instantiates def for a path. segs holds the segment written
// for each definition of the generics chain; the parameters of a definition
// without a segment, or whose segment has no arguments, are inferred when
// inferArgs is set and defaulted otherwise. selfTy is the Self of a trait,
// inferred when nil.
func (fcx *FnCtxt) createSubsts(span ast.Range, def ast.DefID, segs map[ast.DefID]*ast.PathSegment, selfTy types.Ty, inferArgs bool) types.Substs {
	defs, chain := fcx.genericsChain(def)
	substs := make(types.Substs, chain[len(chain)-1].Count())

	for i, g := range chain {
		seg := segs[defs[i]]
		written := map[int]types.GenericArg{}
		if seg != nil && seg.Args != nil {
			written = fcx.matchGenericArgs(defs[i], g, seg)
		}
		infer := inferArgs
		if seg != nil {
			infer = seg.InferArgs()
		}

		for _, p := range g.Params {
			if p.Index >= len(substs) {
				continue
			}
			if g.HasSelf && p.Index == 0 {
				if selfTy != nil {
					substs[0] = selfTy
				} else {
					substs[0] = fcx.infcx.NextTyVar(span)
				}
				continue
			}
			if arg, ok := written[p.Index]; ok {
				substs[p.Index] = arg
				continue
			}
			switch {
			case p.Kind == types.ParamType && p.Default != nil && !infer:
				// defaults may refer to the parameters before them
				dflt := types.Subst(p.Default, substs[:p.Index])
				substs[p.Index] = fcx.normalize(dflt, traits.MiscCause(span))
			default:
				substs[p.Index] = fcx.freshArg(span, p.Kind)
			}
		}
	}
	for i := range substs {
		if substs[i] == nil {
			substs[i] = fcx.infcx.NextTyVar(span)
		}
	}
	return substs
}

// matchGenericArgs lowers the arguments written on seg and pairs them with
// the own parameters of g by position, lifetimes apart from the rest.
// Miscounts and kind mismatches are reported, and the parameters concerned
// are left out of the result to be inferred.
func (fcx *FnCtxt) matchGenericArgs(def ast.DefID, g *types.Generics, seg *ast.PathSegment) map[int]types.GenericArg {
	var lifetimeArgs, otherArgs []ast.GenericArg
	for _, arg := range seg.Args.Args {
		if _, isLifetime := arg.(ast.LifetimeArg); isLifetime {
			lifetimeArgs = append(lifetimeArgs, arg)
		} else {
			otherArgs = append(otherArgs, arg)
		}
	}
	var lifetimeParams, otherParams []types.GenericParamDef
	for _, p := range g.Params {
		if g.HasSelf && p.Index == 0 {
			continue
		}
		if p.Kind == types.ParamLifetime {
			lifetimeParams = append(lifetimeParams, p)
		} else {
			otherParams = append(otherParams, p)
		}
	}

	out := make(map[int]types.GenericArg)
	name := fcx.items.Name(def)
	if len(lifetimeArgs) > 0 {
		if len(lifetimeArgs) != len(lifetimeParams) {
			fcx.report(ilerr.New(ilerr.NewWrongGenericArgCount{
				Positioner: seg.Args.Range,
				Item:       name,
				Kind:       "lifetime",
				Expected:   len(lifetimeParams),
				Given:      len(lifetimeArgs),
			}))
		} else {
			for i, arg := range lifetimeArgs {
				out[lifetimeParams[i].Index] = fcx.lowerRegion(arg.(ast.LifetimeArg).Name)
			}
		}
	}

	required := 0
	for _, p := range otherParams {
		if p.Default == nil {
			required++
		}
	}
	if len(otherArgs) < required || len(otherArgs) > len(otherParams) {
		expected := required
		if len(otherArgs) > len(otherParams) {
			expected = len(otherParams)
		}
		fcx.report(ilerr.New(ilerr.NewWrongGenericArgCount{
			Positioner: seg.Args.Range,
			Item:       name,
			Kind:       "generic",
			Expected:   expected,
			Given:      len(otherArgs),
		}))
		fcx.setTainted()
		return out
	}
	for i, arg := range otherArgs {
		p := otherParams[i]
		lowered, ok := fcx.lowerGenericArg(arg, p.Kind)
		if !ok {
			fcx.report(ilerr.New(ilerr.NewGenericArgKind{
				Positioner: ast.RangeOf(arg),
				Expected:   p.Kind.String(),
				Found:      ast.ArgKind(arg),
			}))
			continue
		}
		out[p.Index] = lowered
	}
	return out
}

func (fcx *FnCtxt) lowerGenericArg(arg ast.GenericArg, kind types.ParamKind) (types.GenericArg, bool) {
	switch arg := arg.(type) {
	case ast.TypeArg:
		if kind == types.ParamType {
			return fcx.lowerUserTy(arg.Type), true
		}
	case ast.ConstArg:
		if kind == types.ParamConst {
			return &types.Const{Kind: types.ConstValue, Value: arg.Value}, true
		}
	}
	return nil, false
}
