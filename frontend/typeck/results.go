package typeck

import (
	"fmt"
	"slices"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/types"
)

type AdjustKind uint8

const (
	// AdjustNeverToAny turns a `!` into whatever type is expected
	AdjustNeverToAny AdjustKind = iota
	AdjustDeref
	AdjustBorrow
	AdjustUnsize
	AdjustReifyFnPointer
)

func (k AdjustKind) String() string {
	switch k {
	case AdjustNeverToAny:
		return "NeverToAny"
	case AdjustDeref:
		return "Deref"
	case AdjustBorrow:
		return "Borrow"
	case AdjustUnsize:
		return "Unsize"
	default:
		return "ReifyFnPointer"
	}
}

// Adjustment is one implicit coercion applied to an expression. Target is
// the type of the expression after it.
type Adjustment struct {
	Kind   AdjustKind
	Target types.Ty
	// Mut is the mutability of a Borrow
	Mut bool
}

func (a Adjustment) String() string {
	if a.Kind == AdjustBorrow && a.Mut {
		return fmt.Sprintf("BorrowMut -> %v", a.Target)
	}
	return fmt.Sprintf("%v -> %v", a.Kind, a.Target)
}

// Resolution is what a path, method call or overloaded operator resolved to
type Resolution struct {
	Kind  ast.DefKind
	Def   ast.DefID
	Local ast.NodeID
	// IsLocal is set for paths to local variables
	IsLocal bool
	// ErrorReported is the tombstone of a resolution that failed and was
	// already diagnosed: nothing should try to resolve the node again
	ErrorReported bool
}

var errorResolution = Resolution{ErrorReported: true}

func (r Resolution) String() string {
	switch {
	case r.ErrorReported:
		return "<error reported>"
	case r.IsLocal:
		return "local " + r.Local.String()
	default:
		return fmt.Sprintf("%v %v", r.Kind, r.Def)
	}
}

// CanonicalUserType is a type annotation as the programmer wrote it, before
// unification. Inference variables in it are canonical: renumbered from 0,
// which no live variable uses, with their kinds listed in Variables.
type CanonicalUserType struct {
	// Def and Substs are set for annotations on value paths
	Def    ast.DefID
	Substs types.Substs
	// UserSelf is the self type written on a type-relative path
	UserSelf types.Ty
	// Ty is set for annotations on let bindings and casts
	Ty        types.Ty
	Variables []types.InferKind
}

func (u CanonicalUserType) String() string {
	if u.Ty != nil {
		return u.Ty.String()
	}
	s := fmt.Sprintf("%v%v", u.Def, u.Substs)
	if u.UserSelf != nil {
		s += fmt.Sprintf(" (Self = %v)", u.UserSelf)
	}
	return s
}

type CastKind uint8

const (
	// CastTrivial is a cast to the very same type
	CastTrivial CastKind = iota
	// CastCoercion is a cast that an implicit coercion would have done
	CastCoercion
	CastNumeric
	CastPrimInt
	CastU8Char
	CastFnPtrAddr
)

func (k CastKind) String() string {
	return [...]string{"trivial", "coercion", "numeric", "prim-int", "u8-char", "fn-addr"}[k]
}

// OpaqueUse records what fallback and inference decided for the opaque
// return type of the body owner
type OpaqueUse struct {
	Ty types.Ty
	// Defining is false when nothing in the body pinned the hidden type
	// and fallback used the opaque type itself
	Defining bool
}

// Results is everything the checker learnt about one body
type Results struct {
	Owner ast.DefID

	NodeTypes    map[ast.NodeID]types.Ty
	NodeSubsts   map[ast.NodeID]types.Substs
	FieldIndices map[ast.NodeID]int
	Resolutions  map[ast.NodeID]Resolution
	Adjustments  map[ast.NodeID][]Adjustment
	UserTypes    map[ast.NodeID]CanonicalUserType

	ClosureKinds       map[ast.NodeID]items.ClosureKind
	CastKinds          map[ast.NodeID]CastKind
	GeneratorInteriors map[ast.NodeID]types.Ty
	OpaqueTypes        map[ast.DefID]OpaqueUse
	// SizedTypes are the types whose sizedness was required after the walk
	SizedTypes []types.Ty

	Diagnostics *ilerr.Errors
	// TaintedByErrors is set once any node was given the error type
	TaintedByErrors bool
}

func newResults(owner ast.DefID) *Results {
	return &Results{
		Owner:              owner,
		NodeTypes:          make(map[ast.NodeID]types.Ty),
		NodeSubsts:         make(map[ast.NodeID]types.Substs),
		FieldIndices:       make(map[ast.NodeID]int),
		Resolutions:        make(map[ast.NodeID]Resolution),
		Adjustments:        make(map[ast.NodeID][]Adjustment),
		UserTypes:          make(map[ast.NodeID]CanonicalUserType),
		ClosureKinds:       make(map[ast.NodeID]items.ClosureKind),
		CastKinds:          make(map[ast.NodeID]CastKind),
		GeneratorInteriors: make(map[ast.NodeID]types.Ty),
		OpaqueTypes:        make(map[ast.DefID]OpaqueUse),
		Diagnostics:        &ilerr.Errors{},
	}
}

// NodeIDs returns every node with a recorded type, in ascending order
func (r *Results) NodeIDs() []ast.NodeID {
	ids := make([]ast.NodeID, 0, len(r.NodeTypes))
	for id := range r.NodeTypes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ExprTyAdjusted is the type of node after its adjustments
func (r *Results) ExprTyAdjusted(node ast.NodeID) types.Ty {
	if adj := r.Adjustments[node]; len(adj) > 0 {
		return adj[len(adj)-1].Target
	}
	return r.NodeTypes[node]
}

// WriteTy records the type of a node. A node's type is written once; a
// second write may only replace it with the error type.
func (fcx *FnCtxt) WriteTy(node ast.Node, ty types.Ty) {
	id := node.ID()
	if prev, ok := fcx.results.NodeTypes[id]; ok && !types.IsError(ty) && !types.Equal(prev, ty) {
		panic(ilerr.NewBug("type of %v written twice: %v then %v", id, prev, ty))
	}
	fcx.logger.Debug("write type", "node", id, "ty", ty)
	fcx.results.NodeTypes[id] = ty
	fcx.nodeSpans[id] = ast.RangeOf(node)
	if types.ReferencesError(ty) {
		fcx.setTainted()
	}
}

func (fcx *FnCtxt) setTainted() {
	fcx.hasErrors = true
	fcx.results.TaintedByErrors = true
}

func (fcx *FnCtxt) WriteFieldIndex(node ast.NodeID, index int) {
	fcx.results.FieldIndices[node] = index
}

func (fcx *FnCtxt) WriteResolution(node ast.NodeID, res Resolution) {
	fcx.results.Resolutions[node] = res
}

// writeErrorResolution leaves the tombstone of a resolution that failed
func (fcx *FnCtxt) writeErrorResolution(node ast.NodeID) {
	fcx.results.Resolutions[node] = errorResolution
}

// WriteSubsts records the instantiation of the definition node refers to.
// Identity substitutions carry nothing and are not stored.
func (fcx *FnCtxt) WriteSubsts(node ast.NodeID, substs types.Substs) {
	if len(substs) == 0 || substs.IsIdentity() {
		return
	}
	fcx.results.NodeSubsts[node] = substs
}

// WriteMethodCall records the method a call resolved to. The user annotation
// keeps the method's own generic arguments as written, with the parent's
// parameters left to inference.
func (fcx *FnCtxt) WriteMethodCall(node ast.NodeID, method ast.DefID, substs types.Substs) {
	fcx.WriteResolution(node, Resolution{Kind: fcx.items.Kind(method), Def: method})
	fcx.WriteSubsts(node, substs)

	parentCount := fcx.items.GenericsOf(method).ParentCount
	if parentCount == len(substs) {
		return
	}
	user := make(types.Substs, len(substs))
	for i, arg := range substs {
		if i < parentCount {
			user[i] = fcx.freshArgLike(arg)
		} else {
			user[i] = arg
		}
	}
	fcx.WriteUserTypeAnnotationFromSubsts(node, method, user, nil)
}

func (fcx *FnCtxt) freshArgLike(arg types.GenericArg) types.GenericArg {
	switch arg.(type) {
	case types.Region:
		return fcx.infcx.NextRegionVar()
	case *types.Const:
		return fcx.infcx.NextConstVar()
	}
	return fcx.infcx.NextTyVar(ast.Range{})
}

// WriteUserTypeAnnotationFromSubsts stores the substitution a path was
// written with, when it says something unification might later erase
func (fcx *FnCtxt) WriteUserTypeAnnotationFromSubsts(node ast.NodeID, def ast.DefID, substs types.Substs, userSelf types.Ty) {
	flags := types.SubstsFlags(substs)
	if userSelf != nil {
		flags |= types.FlagsOf(userSelf)
	}
	if !fcx.cfg.PreserveAllUserAnnotations && !userAnnotationWorthKeeping(flags) {
		return
	}
	fcx.WriteUserTypeAnnotation(node, canonicalize(CanonicalUserType{Def: def, Substs: substs, UserSelf: userSelf}))
}

// WriteUserTypeAnnotationFromTy is WriteUserTypeAnnotationFromSubsts for
// annotations written as a type
func (fcx *FnCtxt) WriteUserTypeAnnotationFromTy(node ast.NodeID, ty types.Ty) {
	if !fcx.cfg.PreserveAllUserAnnotations && !userAnnotationWorthKeeping(types.FlagsOf(ty)) {
		return
	}
	fcx.WriteUserTypeAnnotation(node, canonicalize(CanonicalUserType{Ty: ty}))
}

func userAnnotationWorthKeeping(flags types.Flags) bool {
	return flags&(types.HasFreeRegionsFlag|types.HasProjectionFlag|types.HasTyInfer|types.HasNumericInfer|types.HasConstInfer) != 0
}

// WriteUserTypeAnnotation stores an annotation unless it is the identity,
// which says nothing
func (fcx *FnCtxt) WriteUserTypeAnnotation(node ast.NodeID, user CanonicalUserType) {
	if user.Ty == nil && user.UserSelf == nil && user.Substs.IsIdentity() {
		return
	}
	fcx.logger.Debug("write user type annotation", "node", node, "annotation", user)
	fcx.results.UserTypes[node] = user
}

// canonicalize renumbers the inference variables of an annotation so it
// stays meaningful once the inference table is gone
func canonicalize(user CanonicalUserType) CanonicalUserType {
	canonical := make(map[types.InferVar]*types.Infer)
	var regions []types.Region
	folder := canonicalFolder{vars: canonical, variables: &user.Variables, regions: &regions}
	user.Substs = types.FoldSubsts(user.Substs, folder)
	if user.UserSelf != nil {
		user.UserSelf = folder.FoldTy(user.UserSelf)
	}
	if user.Ty != nil {
		user.Ty = folder.FoldTy(user.Ty)
	}
	return user
}

type canonicalFolder struct {
	vars      map[types.InferVar]*types.Infer
	variables *[]types.InferKind
	regions   *[]types.Region
}

func (f canonicalFolder) FoldTy(t types.Ty) types.Ty {
	if inf, ok := t.(*types.Infer); ok {
		if c, seen := f.vars[inf.Var]; seen {
			return c
		}
		c := &types.Infer{Var: types.InferVar{Kind: inf.Var.Kind, ID: uint32(len(*f.variables))}}
		*f.variables = append(*f.variables, inf.Var.Kind)
		f.vars[inf.Var] = c
		return c
	}
	return types.SuperFold(t, f)
}

func (f canonicalFolder) FoldRegion(r types.Region) types.Region {
	if r.Kind != types.ReVar {
		return r
	}
	for i, seen := range *f.regions {
		if seen == r {
			return types.Region{Kind: types.ReVar, Var: uint32(i)}
		}
	}
	*f.regions = append(*f.regions, r)
	return types.Region{Kind: types.ReVar, Var: uint32(len(*f.regions) - 1)}
}

func (f canonicalFolder) FoldConst(c *types.Const) *types.Const { return c }

// ApplyAdjustments records the coercions applied to expr. Adjusting an
// expression that is already adjusted is only allowed when the result is
// unobservable: anything composed onto NeverToAny stays NeverToAny, and a
// reborrow over a deref collapses. Every other composition is a bug.
func (fcx *FnCtxt) ApplyAdjustments(expr ast.Node, adj []Adjustment) {
	if len(adj) == 0 {
		return
	}
	id := expr.ID()
	prev, ok := fcx.results.Adjustments[id]
	if !ok || len(prev) == 0 {
		fcx.logger.Debug("apply adjustments", "node", id, "adjustments", adj)
		fcx.results.Adjustments[id] = adj
		return
	}
	switch {
	case len(prev) == 1 && prev[0].Kind == AdjustNeverToAny:
		// an unreachable expression can be adjusted to anything
		return
	case len(prev) == 1 && prev[0].Kind == AdjustDeref && len(adj) >= 2 && adj[0].Kind == AdjustDeref && adj[1].Kind == AdjustBorrow:
		fcx.results.Adjustments[id] = adj
	default:
		panic(ilerr.NewBug("cannot compose adjustments %v onto %v for %v", adj, prev, id))
	}
}

// NodeTy returns the recorded type of node. A missing type is a bug,
// unless the body has errors, which can leave nodes unchecked.
func (fcx *FnCtxt) NodeTy(node ast.NodeID) types.Ty {
	if ty, ok := fcx.NodeTyOpt(node); ok {
		return ty
	}
	if fcx.results.TaintedByErrors {
		return types.Err
	}
	panic(ilerr.NewBug("no type for node %v in body of %v", node, fcx.owner))
}

func (fcx *FnCtxt) NodeTyOpt(node ast.NodeID) (types.Ty, bool) {
	ty, ok := fcx.results.NodeTypes[node]
	return ty, ok
}
