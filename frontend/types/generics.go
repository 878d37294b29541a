package types

import "github.com/cottand/typeck/frontend/ast"

type ParamKind uint8

const (
	ParamLifetime ParamKind = iota
	ParamType
	ParamConst
)

func (k ParamKind) String() string {
	switch k {
	case ParamLifetime:
		return "lifetime"
	case ParamType:
		return "type"
	default:
		return "constant"
	}
}

type GenericParamDef struct {
	Name  string
	Index int
	Kind  ParamKind
	// Default is the declared default of a type parameter, in terms of the
	// earlier parameters; nil when there is none
	Default Ty
}

// AsArg returns the identity argument for p: the parameter itself
func (p GenericParamDef) AsArg() GenericArg {
	switch p.Kind {
	case ParamLifetime:
		return Region{Kind: ReEarlyBound, Index: p.Index, Name: p.Name}
	case ParamConst:
		return &Const{Kind: ConstParam, Index: p.Index, Name: p.Name}
	default:
		return &Param{Index: p.Index, Name: p.Name}
	}
}

// Generics lists the generic parameters of one definition. Parameters of
// the parent (the impl or trait of an associated item) come first in the
// substitution, so own parameter indices start at ParentCount.
type Generics struct {
	Parent      ast.DefID
	ParentCount int
	Params      []GenericParamDef
	// HasSelf is set on traits, whose parameter 0 is the implicit Self
	HasSelf bool
}

var NoGenerics = &Generics{}

// Count is the length of a full substitution for this definition
func (g *Generics) Count() int {
	return g.ParentCount + len(g.Params)
}

// OwnCounts counts the parameters declared by this definition itself, by kind,
// not counting the implicit Self
func (g *Generics) OwnCounts() (lifetimes, types, consts int) {
	for _, p := range g.Params {
		if g.HasSelf && p.Index == 0 {
			continue
		}
		switch p.Kind {
		case ParamLifetime:
			lifetimes++
		case ParamType:
			types++
		case ParamConst:
			consts++
		}
	}
	return
}

// OwnDefaults counts the own type parameters with a declared default
func (g *Generics) OwnDefaults() int {
	n := 0
	for _, p := range g.Params {
		if p.Default != nil {
			n++
		}
	}
	return n
}
