package types

// Folder rewrites types bottom-up or top-down; implementations usually
// handle the cases they care about and defer to SuperFold for the rest
type Folder interface {
	FoldTy(Ty) Ty
	FoldRegion(Region) Region
	FoldConst(*Const) *Const
}

// TyFolder is a Folder that only rewrites types, top-down: Fn sees each type
// before its children and returns nil to keep descending
type TyFolder struct {
	Fn func(Ty) Ty
}

func (f TyFolder) FoldTy(t Ty) Ty {
	if replaced := f.Fn(t); replaced != nil {
		return replaced
	}
	return SuperFold(t, f)
}
func (f TyFolder) FoldRegion(r Region) Region { return r }
func (f TyFolder) FoldConst(c *Const) *Const  { return c }

// FoldArg folds a single generic argument with f
func FoldArg(arg GenericArg, f Folder) GenericArg {
	switch arg := arg.(type) {
	case Ty:
		return f.FoldTy(arg)
	case Region:
		return f.FoldRegion(arg)
	case *Const:
		return f.FoldConst(arg)
	}
	return arg
}

func FoldSubsts(s Substs, f Folder) Substs {
	if s == nil {
		return nil
	}
	out := make(Substs, len(s))
	for i, arg := range s {
		out[i] = FoldArg(arg, f)
	}
	return out
}

func FoldSig(sig FnSig, f Folder) FnSig {
	inputs := make([]Ty, len(sig.Inputs))
	for i, in := range sig.Inputs {
		inputs[i] = f.FoldTy(in)
	}
	var out Ty
	if sig.Output != nil {
		out = f.FoldTy(sig.Output)
	}
	return FnSig{Inputs: inputs, Output: out, CVariadic: sig.CVariadic}
}

// SuperFold rebuilds t with each of its components folded by f.
// Leaf types are returned unchanged.
func SuperFold(t Ty, f Folder) Ty {
	switch t := t.(type) {
	case *Tuple:
		if len(t.Elems) == 0 {
			return t
		}
		elems := make([]Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = f.FoldTy(e)
		}
		return &Tuple{Elems: elems}
	case *Ref:
		return &Ref{Region: f.FoldRegion(t.Region), Mut: t.Mut, Elem: f.FoldTy(t.Elem)}
	case *Array:
		return &Array{Elem: f.FoldTy(t.Elem), Len: t.Len}
	case *Slice:
		return &Slice{Elem: f.FoldTy(t.Elem)}
	case *Adt:
		return &Adt{Def: t.Def, Args: FoldSubsts(t.Args, f)}
	case *FnDef:
		return &FnDef{Def: t.Def, Name: t.Name, Args: FoldSubsts(t.Args, f)}
	case *FnPtr:
		return &FnPtr{Sig: FoldSig(t.Sig, f)}
	case *Closure:
		c := &Closure{ID: t.ID, Sig: FoldSig(t.Sig, f), Generator: t.Generator}
		if t.Interior != nil {
			c.Interior = f.FoldTy(t.Interior)
		}
		if t.Yield != nil {
			c.Yield = f.FoldTy(t.Yield)
		}
		return c
	case *Projection:
		return &Projection{Trait: t.Trait, TraitName: t.TraitName, Item: t.Item, Args: FoldSubsts(t.Args, f)}
	case *Opaque:
		return &Opaque{Def: t.Def, Name: t.Name, Args: FoldSubsts(t.Args, f)}
	}
	return t
}

// Walk visits arg and everything inside it, pre-order.
// Returning false from visit skips the children of that argument.
func Walk(arg GenericArg, visit func(GenericArg) bool) {
	if arg == nil || !visit(arg) {
		return
	}
	walkSubsts := func(s Substs) {
		for _, a := range s {
			Walk(a, visit)
		}
	}
	walkSig := func(sig FnSig) {
		for _, in := range sig.Inputs {
			Walk(in, visit)
		}
		if sig.Output != nil {
			Walk(sig.Output, visit)
		}
	}
	switch t := arg.(type) {
	case *Tuple:
		for _, e := range t.Elems {
			Walk(e, visit)
		}
	case *Ref:
		Walk(t.Region, visit)
		Walk(t.Elem, visit)
	case *Array:
		Walk(t.Elem, visit)
	case *Slice:
		Walk(t.Elem, visit)
	case *Adt:
		walkSubsts(t.Args)
	case *FnDef:
		walkSubsts(t.Args)
	case *FnPtr:
		walkSig(t.Sig)
	case *Closure:
		walkSig(t.Sig)
		if t.Interior != nil {
			Walk(t.Interior, visit)
		}
		if t.Yield != nil {
			Walk(t.Yield, visit)
		}
	case *Projection:
		walkSubsts(t.Args)
	case *Opaque:
		walkSubsts(t.Args)
	}
}

type Flags uint16

const (
	HasTyInfer Flags = 1 << iota
	HasNumericInfer
	HasRegionInfer
	HasConstInfer
	HasErrorFlag
	HasProjectionFlag
	HasFreeRegionsFlag
	HasParamsFlag
	HasOpaqueFlag
	HasNeverFlag
)

// FlagsOf summarises what kinds of things appear inside arg
func FlagsOf(arg GenericArg) Flags {
	var flags Flags
	Walk(arg, func(a GenericArg) bool {
		switch a := a.(type) {
		case *Infer:
			if a.Var.Kind == TyVar {
				flags |= HasTyInfer
			} else {
				flags |= HasNumericInfer
			}
		case *ErrorType:
			flags |= HasErrorFlag
		case *Projection:
			flags |= HasProjectionFlag
		case *Param:
			flags |= HasParamsFlag
		case *Opaque:
			flags |= HasOpaqueFlag
		case *Never:
			flags |= HasNeverFlag
		case Region:
			if a.IsFree() {
				flags |= HasFreeRegionsFlag
			}
			if a.Kind == ReVar {
				flags |= HasRegionInfer
			}
			if a.Kind == ReEarlyBound {
				flags |= HasParamsFlag
			}
		case *Const:
			switch a.Kind {
			case ConstInfer:
				flags |= HasConstInfer
			case ConstParam:
				flags |= HasParamsFlag
			case ConstError:
				flags |= HasErrorFlag
			}
		}
		return true
	})
	return flags
}

func SubstsFlags(s Substs) Flags {
	var flags Flags
	for _, arg := range s {
		flags |= FlagsOf(arg)
	}
	return flags
}

// ReferencesError is true when an error type appears anywhere in arg
func ReferencesError(arg GenericArg) bool { return FlagsOf(arg)&HasErrorFlag != 0 }

// HasInfer is true when any type, numeric or const variable appears in arg
func HasInfer(arg GenericArg) bool {
	return FlagsOf(arg)&(HasTyInfer|HasNumericInfer|HasConstInfer) != 0
}

func HasParams(arg GenericArg) bool      { return FlagsOf(arg)&HasParamsFlag != 0 }
func HasProjections(arg GenericArg) bool { return FlagsOf(arg)&HasProjectionFlag != 0 }
