package types

import (
	"fmt"
	"strings"
)

// Substs is the instantiation of a generic item: one GenericArg per
// parameter, parent parameters first
type Substs []GenericArg

// Type returns the i-th argument, which must be a type
func (s Substs) Type(i int) Ty {
	ty, ok := s[i].(Ty)
	if !ok {
		panic(fmt.Sprintf("expected type for subst %d, found %v", i, s[i]))
	}
	return ty
}

// Types returns the type arguments only, in order
func (s Substs) Types() []Ty {
	var out []Ty
	for _, arg := range s {
		if ty, ok := arg.(Ty); ok {
			out = append(out, ty)
		}
	}
	return out
}

// IsIdentity reports whether s maps every parameter to itself, in which case
// it carries no information worth storing
func (s Substs) IsIdentity() bool {
	for i, arg := range s {
		switch arg := arg.(type) {
		case *Param:
			if arg.Index != i {
				return false
			}
		case Region:
			if arg.Kind != ReEarlyBound || arg.Index != i {
				return false
			}
		case *Const:
			if arg.Kind != ConstParam || arg.Index != i {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s Substs) String() string {
	parts := make([]string, len(s))
	for i, arg := range s {
		parts[i] = arg.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Subst replaces the generic parameters in t with their arguments from s
func Subst(t Ty, s Substs) Ty {
	if len(s) == 0 || !HasParams(t) {
		return t
	}
	return (&substFolder{substs: s}).FoldTy(t)
}

// SubstSig instantiates every type of sig with s
func SubstSig(sig FnSig, s Substs) FnSig {
	inputs := make([]Ty, len(sig.Inputs))
	for i, in := range sig.Inputs {
		inputs[i] = Subst(in, s)
	}
	return FnSig{Inputs: inputs, Output: Subst(sig.Output, s), CVariadic: sig.CVariadic}
}

type substFolder struct {
	substs Substs
}

func (f *substFolder) FoldTy(t Ty) Ty {
	if p, ok := t.(*Param); ok {
		if p.Index < len(f.substs) {
			if ty, ok := f.substs[p.Index].(Ty); ok {
				return ty
			}
		}
		// out of range or wrong kind: leave it, the caller already mismatched
		return t
	}
	return SuperFold(t, f)
}

func (f *substFolder) FoldRegion(r Region) Region {
	if r.Kind == ReEarlyBound && r.Index < len(f.substs) {
		if re, ok := f.substs[r.Index].(Region); ok {
			return re
		}
	}
	return r
}

func (f *substFolder) FoldConst(c *Const) *Const {
	if c.Kind == ConstParam && c.Index < len(f.substs) {
		if ct, ok := f.substs[c.Index].(*Const); ok {
			return ct
		}
	}
	return c
}

// SubstSubsts instantiates every argument of args with s
func SubstSubsts(args, s Substs) Substs {
	if len(s) == 0 {
		return args
	}
	return FoldSubsts(args, &substFolder{substs: s})
}
