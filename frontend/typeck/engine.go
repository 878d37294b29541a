package typeck

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/infer"
	"github.com/cottand/typeck/frontend/traits"
	"github.com/cottand/typeck/frontend/types"
)

// InferCtxt is the inference table the checker creates variables in and
// unifies through. The checker never binds a variable itself.
type InferCtxt interface {
	NextTyVar(origin ast.Range) *types.Infer
	NextDivergingTyVar(origin ast.Range) *types.Infer
	NextIntVar() *types.Infer
	NextFloatVar() *types.Infer
	NextRegionVar() types.Region
	NextConstVar() *types.Const

	ShallowResolve(t types.Ty) types.Ty
	RootVar(v types.InferVar) types.InferVar
	Resolve(t types.Ty) types.Ty
	ResolveSubsts(s types.Substs) types.Substs
	ResolvePredicate(p types.Predicate) types.Predicate

	// Sub makes a a subtype of b
	Sub(a, b types.Ty) error
	Eq(a, b types.Ty) error
	CanSub(a, b types.Ty) bool
	// Probe runs f in a snapshot that is always rolled back
	Probe(f func() error) error
	// CommitIf keeps the effects of f only when it returns nil
	CommitIf(f func() error) error

	UnconstrainedNumeric(t types.Ty) (types.InferKind, bool)
	TypeVarDiverges(t types.Ty) bool
	UnresolvedVars() []*types.Infer
	VarOrigin(v types.InferVar) ast.Range
}

// ObligationEngine proves the predicates a body registers
type ObligationEngine interface {
	Register(o *traits.Obligation)
	SelectWherePossible() []*traits.Error
	SelectAllOrError() []*traits.Error
	PendingObligations() *immutable.List[*traits.Obligation]
	ObligationsForSelfTy(v types.InferVar) []*traits.Obligation
	// Normalize replaces projections by what they stand for, or by
	// variables tied to them with new obligations
	Normalize(t types.Ty, cause traits.Cause) types.Ty
	// Evaluate reports whether a predicate may hold, leaving no trace
	Evaluate(p types.Predicate) bool
	ImplMayApply(impl ast.DefID, self types.Ty) bool
	SetClosureKinds(kinds traits.ClosureKinds)
}

var (
	_ InferCtxt        = (*infer.Ctxt)(nil)
	_ ObligationEngine = (*traits.Fulfillment)(nil)
)
