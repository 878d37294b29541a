package types

import "fmt"

type RegionKind uint8

const (
	ReStatic RegionKind = iota
	// ReEarlyBound is a lifetime parameter of the owner, by Index
	ReEarlyBound
	// ReLateBound is bound by a fn signature and not yet instantiated
	ReLateBound
	// ReVar is a region inference variable
	ReVar
	// ReErased is a region nobody cares about anymore
	ReErased
)

type Region struct {
	Kind  RegionKind
	Index int
	Name  string
	Var   uint32
}

var (
	StaticRegion = Region{Kind: ReStatic, Name: "'static"}
	ErasedRegion = Region{Kind: ReErased}
)

// IsFree is true for regions that are not 'static or erased: they carry
// information a later region check needs
func (r Region) IsFree() bool {
	return r.Kind == ReEarlyBound || r.Kind == ReLateBound || r.Kind == ReVar
}

func (r Region) String() string {
	switch r.Kind {
	case ReStatic:
		return "'static"
	case ReEarlyBound, ReLateBound:
		return r.Name
	case ReVar:
		return fmt.Sprintf("'_#%dr", r.Var)
	default:
		return "'_"
	}
}

type ConstKind uint8

const (
	ConstValue ConstKind = iota
	ConstParam
	ConstInfer
	ConstError
)

// Const is a const generic argument
type Const struct {
	Kind  ConstKind
	Value int64
	Index int
	Name  string
	Var   uint32
}

func (c *Const) String() string {
	switch c.Kind {
	case ConstValue:
		return fmt.Sprint(c.Value)
	case ConstParam:
		return c.Name
	case ConstInfer:
		return fmt.Sprintf("_#%dc", c.Var)
	default:
		return "{const error}"
	}
}
