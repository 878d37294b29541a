package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// coercion is the outcome of a successful tryCoerce
type coercion struct {
	adjustments []Adjustment
	target      types.Ty
	// obligations are registered only if the coercion is kept
	obligations []types.Predicate
}

// tryCoerce attempts to make a value of type source usable where target is
// expected, recording the adjustments on expr when it succeeds. expr is nil
// for values with no expression, like the implicit unit of a block.
func (fcx *FnCtxt) tryCoerce(expr ast.Expr, source, target types.Ty) (types.Ty, error) {
	source = fcx.infcx.ShallowResolve(source)
	target = fcx.infcx.ShallowResolve(target)
	if types.ReferencesError(source) || types.ReferencesError(target) {
		return types.Err, nil
	}

	var result coercion
	err := fcx.infcx.CommitIf(func() error {
		var err error
		result, err = fcx.coerce(source, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	span := ast.RangeOf(expr)
	for _, o := range result.obligations {
		fcx.register(traits.MiscCause(span), o)
	}
	if expr != nil && len(result.adjustments) > 0 {
		fcx.ApplyAdjustments(expr, result.adjustments)
	}
	return result.target, nil
}

func (fcx *FnCtxt) coerce(source, target types.Ty) (coercion, error) {
	if types.IsNever(source) {
		if types.IsNever(target) {
			return coercion{target: target}, nil
		}
		if types.IsTyVar(target) && !fcx.infcx.TypeVarDiverges(target) {
			// `!` flowing into a fresh variable makes it fall back to `!`
			if err := fcx.infcx.Eq(target, fcx.infcx.NextDivergingTyVar(ast.Range{})); err != nil {
				return coercion{}, err
			}
		}
		return coercion{adjustments: []Adjustment{{Kind: AdjustNeverToAny, Target: target}}, target: target}, nil
	}
	switch target := target.(type) {
	case *types.Ref:
		if source, ok := source.(*types.Ref); ok {
			return fcx.coerceBorrowedPointer(source, target)
		}
	case *types.FnPtr:
		if source, ok := source.(*types.FnDef); ok {
			return fcx.coerceFromFnItem(source, target)
		}
	}
	if err := fcx.infcx.Sub(source, target); err != nil {
		return coercion{}, err
	}
	return coercion{target: target}, nil
}

// coerceBorrowedPointer handles `&T` to `&U`: reborrowing `&mut T` as `&T`,
// and unsizing arrays to slices and values to trait objects
func (fcx *FnCtxt) coerceBorrowedPointer(source, target *types.Ref) (coercion, error) {
	if target.Mut && !source.Mut {
		return coercion{}, &coerceMismatch{expected: target, found: source}
	}
	srcElem := fcx.infcx.ShallowResolve(source.Elem)
	tgtElem := fcx.infcx.ShallowResolve(target.Elem)
	region := fcx.infcx.NextRegionVar()
	reborrow := []Adjustment{
		{Kind: AdjustDeref, Target: srcElem},
		{Kind: AdjustBorrow, Target: &types.Ref{Region: region, Mut: target.Mut, Elem: srcElem}, Mut: target.Mut},
	}

	switch tgt := tgtElem.(type) {
	case *types.Slice:
		if arr, ok := srcElem.(*types.Array); ok {
			if err := fcx.infcx.Sub(arr.Elem, tgt.Elem); err != nil {
				return coercion{}, err
			}
			unsized := &types.Ref{Region: region, Mut: target.Mut, Elem: &types.Slice{Elem: arr.Elem}}
			return coercion{
				adjustments: append(reborrow, Adjustment{Kind: AdjustUnsize, Target: unsized}),
				target:      unsized,
			}, nil
		}
	case *types.Dynamic:
		if _, isDyn := srcElem.(*types.Dynamic); !isDyn && !types.IsTyVar(srcElem) {
			object := &types.Ref{Region: region, Mut: target.Mut, Elem: tgt}
			return coercion{
				adjustments: append(reborrow, Adjustment{Kind: AdjustUnsize, Target: object}),
				target:      object,
				obligations: []types.Predicate{&types.TraitPredicate{Trait: tgt.Trait, TraitName: tgt.Name, Args: types.Substs{srcElem}}},
			}, nil
		}
	}

	if source.Mut && !target.Mut {
		if err := fcx.infcx.Sub(srcElem, tgtElem); err != nil {
			return coercion{}, err
		}
		return coercion{adjustments: reborrow, target: target}, nil
	}
	if err := fcx.infcx.Sub(source, target); err != nil {
		return coercion{}, err
	}
	return coercion{target: target}, nil
}

// coerceFromFnItem turns a function item into a function pointer
func (fcx *FnCtxt) coerceFromFnItem(source *types.FnDef, target *types.FnPtr) (coercion, error) {
	sig := types.SubstSig(fcx.items.SigOf(source.Def), source.Args)
	ptr := &types.FnPtr{Sig: fcx.normalizeSig(sig, traits.MiscCause(ast.Range{}))}
	if err := fcx.infcx.Sub(ptr, target); err != nil {
		return coercion{}, err
	}
	return coercion{adjustments: []Adjustment{{Kind: AdjustReifyFnPointer, Target: target}}, target: target}, nil
}

type coerceMismatch struct {
	expected, found types.Ty
}

func (e *coerceMismatch) Error() string {
	return "expected `" + e.expected.String() + "`, found `" + e.found.String() + "`"
}

// demandCoerce coerces expr to expected, reporting a mismatch on failure.
// It returns the type the expression has after coercion.
func (fcx *FnCtxt) demandCoerce(expr ast.Expr, checked, expected types.Ty, fixes ...ilerr.Suggestion) types.Ty {
	ty, err := fcx.tryCoerce(expr, checked, expected)
	if err != nil {
		fcx.reportMismatch(ast.RangeOf(expr), expected, checked, fixes...)
		return expected
	}
	return ty
}

// demandSuptype requires actual to be a subtype of expected
func (fcx *FnCtxt) demandSuptype(span ast.Range, expected, actual types.Ty) bool {
	if err := fcx.infcx.Sub(actual, expected); err != nil {
		fcx.reportMismatch(span, expected, actual)
		return false
	}
	return true
}

// demandEq requires actual to be exactly expected
func (fcx *FnCtxt) demandEq(node ast.Node, expected, actual types.Ty) bool {
	if err := fcx.infcx.Eq(expected, actual); err != nil {
		fcx.reportMismatch(ast.RangeOf(node), expected, actual)
		return false
	}
	return true
}

func (fcx *FnCtxt) reportMismatch(span ast.Range, expected, found types.Ty, fixes ...ilerr.Suggestion) {
	expected, found = fcx.infcx.Resolve(expected), fcx.infcx.Resolve(found)
	if types.ReferencesError(expected) || types.ReferencesError(found) {
		return
	}
	fcx.report(ilerr.New(ilerr.NewMismatch{Positioner: span, Expected: expected, Found: found, Fixes: fixes}))
}

// CoerceMany merges the values flowing into one place, such as the arms of
// an if or the breaks of a loop, into a single type
type CoerceMany struct {
	expected types.Ty
	// merged is the type merged so far; nil until a value was pushed
	merged types.Ty
	pushed int
}

func NewCoerceMany(expected types.Ty) *CoerceMany {
	return &CoerceMany{expected: expected}
}

func (c *CoerceMany) target() types.Ty {
	if c.merged != nil {
		return c.merged
	}
	return c.expected
}

// Coerce pushes the value of expr, of type exprTy
func (c *CoerceMany) Coerce(fcx *FnCtxt, expr ast.Expr, exprTy types.Ty) {
	c.coerceInner(fcx, expr, exprTy, func(target types.Ty) {
		fcx.reportMismatch(ast.RangeOf(expr), target, exprTy)
	})
}

// CoerceForcedUnit pushes an implicit unit value, like the one of a block
// without a tail. fixes are attached to the mismatch if unit does not fit.
func (c *CoerceMany) CoerceForcedUnit(fcx *FnCtxt, span ast.Range, fixes func(expected types.Ty) []ilerr.Suggestion) {
	c.coerceInner(fcx, nil, types.Unit, func(target types.Ty) {
		var suggestions []ilerr.Suggestion
		if fixes != nil {
			suggestions = fixes(target)
		}
		fcx.reportMismatch(span, target, types.Unit, suggestions...)
	})
}

// CoerceForcedUnitOr is CoerceForcedUnit with a custom diagnostic
func (c *CoerceMany) CoerceForcedUnitOr(fcx *FnCtxt, onMismatch func(expected types.Ty)) {
	c.coerceInner(fcx, nil, types.Unit, onMismatch)
}

func (c *CoerceMany) coerceInner(fcx *FnCtxt, expr ast.Expr, exprTy types.Ty, onMismatch func(target types.Ty)) {
	target := c.target()
	c.pushed++
	if types.ReferencesError(exprTy) {
		c.merged = types.Err
		return
	}
	ty, err := fcx.tryCoerce(expr, exprTy, target)
	if err == nil {
		c.merged = ty
		return
	}
	onMismatch(target)
	c.merged = types.Err
}

// Complete returns the merged type. With nothing pushed, control never
// reaches the merge point and the type is `!`.
func (c *CoerceMany) Complete(fcx *FnCtxt) types.Ty {
	if c.pushed == 0 {
		return types.NeverTy
	}
	return fcx.infcx.ShallowResolve(c.merged)
}

// MergedTy is the type merged so far, or the expected type
func (c *CoerceMany) MergedTy() types.Ty {
	return c.target()
}

// ExpectedTy is the type the accumulator was created with
func (c *CoerceMany) ExpectedTy() types.Ty {
	return c.expected
}
