package types

import (
	"fmt"

	"github.com/cottand/typeck/frontend/ast"
)

// Predicate is something that must hold for a program to be well-typed
type Predicate interface {
	fmt.Stringer
	predicate()
}

var (
	_ Predicate = (*TraitPredicate)(nil)
	_ Predicate = (*ProjectionPredicate)(nil)
	_ Predicate = (*WellFormed)(nil)
	_ Predicate = (*TypeOutlives)(nil)
	_ Predicate = (*RegionOutlives)(nil)
)

// TraitPredicate is `Args[0]: Trait<Args[1:]...>`
type TraitPredicate struct {
	Trait     ast.DefID
	TraitName string // display only
	Args      Substs
}

func (p *TraitPredicate) Self() Ty { return p.Args.Type(0) }

// ProjectionPredicate is `<Self as Trait>::Item == Ty`
type ProjectionPredicate struct {
	Projection *Projection
	Ty         Ty
}

type WellFormed struct {
	Arg GenericArg
}

type TypeOutlives struct {
	Ty     Ty
	Region Region
}

type RegionOutlives struct {
	Long, Short Region
}

func (*TraitPredicate) predicate()      {}
func (*ProjectionPredicate) predicate() {}
func (*WellFormed) predicate()          {}
func (*TypeOutlives) predicate()        {}
func (*RegionOutlives) predicate()      {}

func (p *TraitPredicate) String() string {
	var rest Substs
	if len(p.Args) > 1 {
		rest = p.Args[1:]
	}
	return fmt.Sprintf("%s: %s%s", p.Args[0], p.TraitName, showArgs(rest))
}
func (p *ProjectionPredicate) String() string {
	return fmt.Sprintf("%s == %s", p.Projection, p.Ty)
}
func (p *WellFormed) String() string     { return fmt.Sprintf("WF(%s)", p.Arg) }
func (p *TypeOutlives) String() string   { return fmt.Sprintf("%s: %s", p.Ty, p.Region) }
func (p *RegionOutlives) String() string { return fmt.Sprintf("%s: %s", p.Long, p.Short) }

// FoldPredicate folds every type and region inside p
func FoldPredicate(p Predicate, f Folder) Predicate {
	switch p := p.(type) {
	case *TraitPredicate:
		return &TraitPredicate{Trait: p.Trait, TraitName: p.TraitName, Args: FoldSubsts(p.Args, f)}
	case *ProjectionPredicate:
		proj := f.FoldTy(p.Projection)
		asProj, ok := proj.(*Projection)
		if !ok {
			// already normalized away, keep the original shape but fold the args
			asProj = &Projection{Trait: p.Projection.Trait, TraitName: p.Projection.TraitName, Item: p.Projection.Item, Args: FoldSubsts(p.Projection.Args, f)}
		}
		return &ProjectionPredicate{Projection: asProj, Ty: f.FoldTy(p.Ty)}
	case *WellFormed:
		return &WellFormed{Arg: FoldArg(p.Arg, f)}
	case *TypeOutlives:
		return &TypeOutlives{Ty: f.FoldTy(p.Ty), Region: f.FoldRegion(p.Region)}
	case *RegionOutlives:
		return &RegionOutlives{Long: f.FoldRegion(p.Long), Short: f.FoldRegion(p.Short)}
	}
	return p
}

// SubstPredicate instantiates the generic parameters in p with s
func SubstPredicate(p Predicate, s Substs) Predicate {
	if len(s) == 0 {
		return p
	}
	return FoldPredicate(p, &substFolder{substs: s})
}
