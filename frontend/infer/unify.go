package infer

import (
	"fmt"

	"github.com/cottand/typeck/frontend/types"
)

// TypeError is a failed unification. Expected and Found are the outermost
// types the caller related, resolved as far as possible.
type TypeError struct {
	Expected, Found types.Ty
	// Inner is the pair that actually mismatched
	InnerExpected, InnerFound types.Ty
	Cyclic                    bool
}

func (e *TypeError) Error() string {
	if e.Cyclic {
		return fmt.Sprintf("cyclic type: %v contains itself", e.InnerFound)
	}
	return fmt.Sprintf("expected `%v`, found `%v`", e.Expected, e.Found)
}

type mismatch struct {
	a, b   types.Ty
	cyclic bool
}

// Sub makes a a subtype of b. Without variance or lifetimes to speak of,
// this is unification, except that the roles of expected and found are kept
// for the error.
func (c *Ctxt) Sub(a, b types.Ty) error {
	return c.relateTop(b, a)
}

// Eq makes a and b the same type
func (c *Ctxt) Eq(a, b types.Ty) error {
	return c.relateTop(a, b)
}

// CanSub reports whether Sub(a, b) would succeed, without binding anything
func (c *Ctxt) CanSub(a, b types.Ty) bool {
	return c.Probe(func() error { return c.Sub(a, b) }) == nil
}

// CanEq reports whether Eq(a, b) would succeed, without binding anything
func (c *Ctxt) CanEq(a, b types.Ty) bool {
	return c.Probe(func() error { return c.Eq(a, b) }) == nil
}

// EqArgs unifies two substitutions argument by argument
func (c *Ctxt) EqArgs(expected, found types.Substs) error {
	return c.CommitIf(func() error {
		if m := c.relateSubsts(expected, found); m != nil {
			return c.typeError(nil, nil, m)
		}
		return nil
	})
}

func (c *Ctxt) relateTop(expected, found types.Ty) error {
	return c.CommitIf(func() error {
		if m := c.relate(expected, found); m != nil {
			err := c.typeError(expected, found, m)
			c.logger.Debug("unification failed", "expected", err.Expected, "found", err.Found)
			return err
		}
		return nil
	})
}

func (c *Ctxt) typeError(expected, found types.Ty, m *mismatch) *TypeError {
	if expected == nil {
		expected, found = m.a, m.b
	}
	return &TypeError{
		Expected:      c.Resolve(expected),
		Found:         c.Resolve(found),
		InnerExpected: c.Resolve(m.a),
		InnerFound:    c.Resolve(m.b),
		Cyclic:        m.cyclic,
	}
}

func (c *Ctxt) relate(a, b types.Ty) *mismatch {
	a, b = c.ShallowResolve(a), c.ShallowResolve(b)

	if ai, ok := a.(*types.Infer); ok {
		if bi, ok := b.(*types.Infer); ok {
			return c.unifyVars(ai.Var, bi.Var)
		}
		return c.bind(ai.Var, b)
	}
	if bi, ok := b.(*types.Infer); ok {
		return c.bind(bi.Var, a)
	}
	// an error type already caused a diagnostic: let it unify with anything
	if types.IsError(a) || types.IsError(b) {
		return nil
	}
	fail := &mismatch{a: a, b: b}

	switch a := a.(type) {
	case *types.Prim:
		if b, ok := b.(*types.Prim); ok && a.Kind == b.Kind {
			return nil
		}
		return fail
	case *types.Never:
		if types.IsNever(b) {
			return nil
		}
		return fail
	case *types.Tuple:
		b, ok := b.(*types.Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return fail
		}
		for i := range a.Elems {
			if m := c.relate(a.Elems[i], b.Elems[i]); m != nil {
				return m
			}
		}
		return nil
	case *types.Ref:
		b, ok := b.(*types.Ref)
		if !ok || a.Mut != b.Mut {
			return fail
		}
		return c.relate(a.Elem, b.Elem)
	case *types.Array:
		b, ok := b.(*types.Array)
		if !ok || a.Len != b.Len {
			return fail
		}
		return c.relate(a.Elem, b.Elem)
	case *types.Slice:
		b, ok := b.(*types.Slice)
		if !ok {
			return fail
		}
		return c.relate(a.Elem, b.Elem)
	case *types.Adt:
		b, ok := b.(*types.Adt)
		if !ok || a.Def.Def != b.Def.Def {
			return fail
		}
		return c.relateSubsts(a.Args, b.Args)
	case *types.FnDef:
		b, ok := b.(*types.FnDef)
		if !ok || a.Def != b.Def {
			return fail
		}
		return c.relateSubsts(a.Args, b.Args)
	case *types.FnPtr:
		b, ok := b.(*types.FnPtr)
		if !ok {
			return fail
		}
		return c.relateSigs(a.Sig, b.Sig, fail)
	case *types.Closure:
		b, ok := b.(*types.Closure)
		if !ok || a.ID != b.ID {
			return fail
		}
		return c.relateSigs(a.Sig, b.Sig, fail)
	case *types.Param:
		if b, ok := b.(*types.Param); ok && a.Index == b.Index {
			return nil
		}
		return fail
	case *types.Projection:
		b, ok := b.(*types.Projection)
		if !ok || a.Trait != b.Trait || a.Item != b.Item {
			return fail
		}
		return c.relateSubsts(a.Args, b.Args)
	case *types.Opaque:
		b, ok := b.(*types.Opaque)
		if !ok || a.Def != b.Def {
			return fail
		}
		return c.relateSubsts(a.Args, b.Args)
	case *types.Dynamic:
		if b, ok := b.(*types.Dynamic); ok && a.Trait == b.Trait {
			return nil
		}
		return fail
	}
	return fail
}

func (c *Ctxt) relateSigs(a, b types.FnSig, fail *mismatch) *mismatch {
	if len(a.Inputs) != len(b.Inputs) || a.CVariadic != b.CVariadic {
		return fail
	}
	for i := range a.Inputs {
		if m := c.relate(a.Inputs[i], b.Inputs[i]); m != nil {
			return m
		}
	}
	return c.relate(a.Output, b.Output)
}

func (c *Ctxt) relateSubsts(a, b types.Substs) *mismatch {
	if len(a) != len(b) {
		return &mismatch{a: types.Err, b: types.Err}
	}
	for i := range a {
		switch ax := a[i].(type) {
		case types.Ty:
			bx, ok := b[i].(types.Ty)
			if !ok {
				return &mismatch{a: ax, b: types.Err}
			}
			if m := c.relate(ax, bx); m != nil {
				return m
			}
		case *types.Const:
			bx, ok := b[i].(*types.Const)
			if !ok || !c.relateConsts(ax, bx) {
				return &mismatch{a: types.Err, b: types.Err}
			}
		case types.Region:
			// region constraints are left to the region checker
		}
	}
	return nil
}

func (c *Ctxt) relateConsts(a, b *types.Const) bool {
	a, b = c.resolveFolder().FoldConst(a), c.resolveFolder().FoldConst(b)
	switch {
	case a.Kind == types.ConstInfer:
		if b.Kind != types.ConstInfer || b.Var != a.Var {
			c.constVars = c.constVars.Set(a.Var, b)
		}
		return true
	case b.Kind == types.ConstInfer:
		c.constVars = c.constVars.Set(b.Var, a)
		return true
	case a.Kind == types.ConstError || b.Kind == types.ConstError:
		return true
	}
	return *a == *b
}

// unifyVars links two unbound roots. Integer and float variables win over
// general type variables, which can still become anything.
func (c *Ctxt) unifyVars(a, b types.InferVar) *mismatch {
	if a == b {
		return nil
	}
	switch {
	case a.Kind == b.Kind:
		da, db := c.data(a), c.data(b)
		da.parent = b.ID
		db.diverging = db.diverging || da.diverging
		c.setVar(a, da)
		c.setVar(b, db)
		return nil
	case a.Kind == types.TyVar:
		return c.bind(a, &types.Infer{Var: b})
	case b.Kind == types.TyVar:
		return c.bind(b, &types.Infer{Var: a})
	}
	// {integer} against {float}
	return &mismatch{a: &types.Infer{Var: a}, b: &types.Infer{Var: b}}
}

// bind sets the value of the unbound root v to t, which is not itself an
// unbound variable of the same class
func (c *Ctxt) bind(v types.InferVar, t types.Ty) *mismatch {
	self := &types.Infer{Var: v}
	switch v.Kind {
	case types.IntVar:
		if !types.IsIntegral(t) && !types.IsError(t) {
			return &mismatch{a: self, b: t}
		}
	case types.FloatVar:
		if !types.IsFloating(t) && !types.IsError(t) {
			return &mismatch{a: self, b: t}
		}
	default:
		if c.occurs(v, t) {
			return &mismatch{a: self, b: t, cyclic: true}
		}
	}
	data := c.data(v)
	data.value = t
	c.setVar(v, data)
	c.logger.Debug("bound variable", "var", self.String(), "to", t.String())
	return nil
}

func (c *Ctxt) occurs(v types.InferVar, t types.Ty) bool {
	found := false
	types.Walk(t, func(arg types.GenericArg) bool {
		if found {
			return false
		}
		if inf, ok := arg.(*types.Infer); ok {
			resolved := c.ShallowResolve(inf)
			if again, ok := resolved.(*types.Infer); ok {
				found = again.Var == v
				return false
			}
			found = c.occurs(v, resolved)
			return false
		}
		return true
	})
	return found
}
