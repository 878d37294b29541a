package types

import (
	"fmt"
	"strings"
)

func (t *Prim) String() string      { return t.Kind.String() }
func (t *Never) String() string     { return "!" }
func (t *ErrorType) String() string { return "{type error}" }
func (t *Param) String() string     { return t.Name }
func (t *Dynamic) String() string   { return "dyn " + t.Name }
func (t *Slice) String() string     { return "[" + t.Elem.String() + "]" }

func (t *Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTys(t.Elems) + ")"
}

func (t *Ref) String() string {
	sb := &strings.Builder{}
	sb.WriteString("&")
	if t.Region.Kind == ReStatic || t.Region.Kind == ReEarlyBound {
		sb.WriteString(t.Region.String())
		sb.WriteString(" ")
	}
	if t.Mut {
		sb.WriteString("mut ")
	}
	sb.WriteString(t.Elem.String())
	return sb.String()
}

func (t *Array) String() string {
	return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
}

func (t *Adt) String() string {
	return t.Def.Name + showArgs(t.Args)
}

func (t *FnDef) String() string {
	return "fn item " + t.Name + showArgs(t.Args)
}

func (t *FnPtr) String() string {
	return t.Sig.String()
}

func (t *Closure) String() string {
	if t.Generator {
		return fmt.Sprintf("[generator@%s]", t.ID)
	}
	return fmt.Sprintf("[closure@%s]", t.ID)
}

func (t *Projection) String() string {
	self := "?"
	if len(t.Args) > 0 {
		self = t.Args[0].String()
	}
	var rest Substs
	if len(t.Args) > 1 {
		rest = t.Args[1:]
	}
	return fmt.Sprintf("<%s as %s%s>::%s", self, t.TraitName, showArgs(rest), t.Item)
}

func (t *Opaque) String() string {
	return "impl " + t.Name + showArgs(t.Args)
}

func (t *Infer) String() string {
	switch t.Var.Kind {
	case IntVar:
		return "{integer}"
	case FloatVar:
		return "{float}"
	default:
		return fmt.Sprintf("_#%dt", t.Var.ID)
	}
}

func (sig FnSig) String() string {
	sb := &strings.Builder{}
	sb.WriteString("fn(")
	sb.WriteString(joinTys(sig.Inputs))
	if sig.CVariadic {
		if len(sig.Inputs) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	if sig.Output != nil && !IsUnit(sig.Output) {
		sb.WriteString(" -> ")
		sb.WriteString(sig.Output.String())
	}
	return sb.String()
}

func joinTys(tys []Ty) string {
	parts := make([]string, len(tys))
	for i, t := range tys {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// showArgs renders `<A, B>` skipping regions nobody wrote
func showArgs(args Substs) string {
	var parts []string
	for _, arg := range args {
		if re, ok := arg.(Region); ok && !(re.Kind == ReStatic || re.Kind == ReEarlyBound) {
			continue
		}
		parts = append(parts, arg.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
