package types

import "slices"

// Equal compares two generic arguments structurally. Inference variables are
// equal only to themselves: callers wanting to see through bindings must
// resolve first.
func Equal(a, b GenericArg) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Prim:
		b, ok := b.(*Prim)
		return ok && a.Kind == b.Kind
	case *Tuple:
		b, ok := b.(*Tuple)
		return ok && tysEqual(a.Elems, b.Elems)
	case *Never:
		_, ok := b.(*Never)
		return ok
	case *ErrorType:
		_, ok := b.(*ErrorType)
		return ok
	case *Ref:
		b, ok := b.(*Ref)
		return ok && a.Mut == b.Mut && Equal(a.Region, b.Region) && Equal(a.Elem, b.Elem)
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Len == b.Len && Equal(a.Elem, b.Elem)
	case *Slice:
		b, ok := b.(*Slice)
		return ok && Equal(a.Elem, b.Elem)
	case *Adt:
		b, ok := b.(*Adt)
		return ok && a.Def.Def == b.Def.Def && SubstsEqual(a.Args, b.Args)
	case *FnDef:
		b, ok := b.(*FnDef)
		return ok && a.Def == b.Def && SubstsEqual(a.Args, b.Args)
	case *FnPtr:
		b, ok := b.(*FnPtr)
		return ok && SigsEqual(a.Sig, b.Sig)
	case *Closure:
		b, ok := b.(*Closure)
		return ok && a.ID == b.ID
	case *Param:
		b, ok := b.(*Param)
		return ok && a.Index == b.Index
	case *Projection:
		b, ok := b.(*Projection)
		return ok && a.Trait == b.Trait && a.Item == b.Item && SubstsEqual(a.Args, b.Args)
	case *Opaque:
		b, ok := b.(*Opaque)
		return ok && a.Def == b.Def && SubstsEqual(a.Args, b.Args)
	case *Dynamic:
		b, ok := b.(*Dynamic)
		return ok && a.Trait == b.Trait
	case *Infer:
		b, ok := b.(*Infer)
		return ok && a.Var == b.Var
	case Region:
		b, ok := b.(Region)
		if !ok || a.Kind != b.Kind {
			return false
		}
		switch a.Kind {
		case ReEarlyBound, ReLateBound:
			return a.Index == b.Index
		case ReVar:
			return a.Var == b.Var
		}
		return true
	case *Const:
		b, ok := b.(*Const)
		return ok && *a == *b
	}
	return false
}

func tysEqual(a, b []Ty) bool {
	return slices.EqualFunc(a, b, func(x, y Ty) bool { return Equal(x, y) })
}

func SubstsEqual(a, b Substs) bool {
	return slices.EqualFunc(a, b, Equal)
}

func SigsEqual(a, b FnSig) bool {
	return a.CVariadic == b.CVariadic && tysEqual(a.Inputs, b.Inputs) && Equal(a.Output, b.Output)
}
