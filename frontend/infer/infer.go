// Package infer owns inference variables: creating them, unifying them and
// resolving types through their bindings.
//
// Bindings live in persistent maps, so taking a snapshot is copying a few
// pointers and rolling back is restoring them.
package infer

import (
	"log/slog"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
	"github.com/cottand/typeck/internal/log"
	"github.com/hashicorp/go-set/v3"
)

type varData struct {
	// value is nil while the variable is unbound
	value types.Ty
	// parent links two unbound variables of the same class; 0 on roots
	parent uint32
	// diverging is set when any variable of the class was created diverging
	diverging bool
	origin    ast.Range
}

type tables struct {
	tyVars    *immutable.Map[uint32, varData]
	intVars   *immutable.Map[uint32, varData]
	floatVars *immutable.Map[uint32, varData]
	constVars *immutable.Map[uint32, *types.Const]

	nextTy, nextInt, nextFloat, nextRegion, nextConst uint32
}

// Ctxt is the inference table of one body
type Ctxt struct {
	tables
	snapshots int
	logger    *slog.Logger
}

// Snapshot is the state of a Ctxt at some point, to roll back to
type Snapshot struct {
	saved tables
	depth int
}

func NewCtxt(logger *slog.Logger) *Ctxt {
	if logger == nil {
		logger = log.DefaultLogger
	}
	hasher := immutable.NewHasher(uint32(0))
	return &Ctxt{
		tables: tables{
			tyVars:    immutable.NewMap[uint32, varData](hasher),
			intVars:   immutable.NewMap[uint32, varData](hasher),
			floatVars: immutable.NewMap[uint32, varData](hasher),
			constVars: immutable.NewMap[uint32, *types.Const](hasher),
			// ids start at 1 so that a zero parent means root
			nextTy: 1, nextInt: 1, nextFloat: 1, nextRegion: 1, nextConst: 1,
		},
		logger: logger.With("section", "infer"),
	}
}

func (c *Ctxt) newVar(kind types.InferKind, data varData) *types.Infer {
	var id uint32
	switch kind {
	case types.IntVar:
		id = c.nextInt
		c.nextInt++
		c.intVars = c.intVars.Set(id, data)
	case types.FloatVar:
		id = c.nextFloat
		c.nextFloat++
		c.floatVars = c.floatVars.Set(id, data)
	default:
		id = c.nextTy
		c.nextTy++
		c.tyVars = c.tyVars.Set(id, data)
	}
	return &types.Infer{Var: types.InferVar{Kind: kind, ID: id}}
}

// NextTyVar creates a general type variable; origin is where it came from,
// for diagnostics
func (c *Ctxt) NextTyVar(origin ast.Range) *types.Infer {
	return c.newVar(types.TyVar, varData{origin: origin})
}

// NextDivergingTyVar creates a type variable for a place control flow never
// reaches. If nothing constrains it, it falls back to `!`.
func (c *Ctxt) NextDivergingTyVar(origin ast.Range) *types.Infer {
	return c.newVar(types.TyVar, varData{origin: origin, diverging: true})
}

func (c *Ctxt) NextIntVar() *types.Infer {
	return c.newVar(types.IntVar, varData{})
}

func (c *Ctxt) NextFloatVar() *types.Infer {
	return c.newVar(types.FloatVar, varData{})
}

// NextRegionVar creates a region variable. Regions are never solved here.
func (c *Ctxt) NextRegionVar() types.Region {
	id := c.nextRegion
	c.nextRegion++
	return types.Region{Kind: types.ReVar, Var: id}
}

func (c *Ctxt) NextConstVar() *types.Const {
	id := c.nextConst
	c.nextConst++
	return &types.Const{Kind: types.ConstInfer, Var: id}
}

func (c *Ctxt) table(kind types.InferKind) *immutable.Map[uint32, varData] {
	switch kind {
	case types.IntVar:
		return c.intVars
	case types.FloatVar:
		return c.floatVars
	default:
		return c.tyVars
	}
}

func (c *Ctxt) setVar(v types.InferVar, data varData) {
	switch v.Kind {
	case types.IntVar:
		c.intVars = c.intVars.Set(v.ID, data)
	case types.FloatVar:
		c.floatVars = c.floatVars.Set(v.ID, data)
	default:
		c.tyVars = c.tyVars.Set(v.ID, data)
	}
}

func (c *Ctxt) data(v types.InferVar) varData {
	data, ok := c.table(v.Kind).Get(v.ID)
	if !ok {
		panic("unknown inference variable " + (&types.Infer{Var: v}).String())
	}
	return data
}

// RootVar returns the representative of the class of v
func (c *Ctxt) RootVar(v types.InferVar) types.InferVar {
	for {
		data := c.data(v)
		if data.parent == 0 {
			return v
		}
		v = types.InferVar{Kind: v.Kind, ID: data.parent}
	}
}

// ShallowResolve replaces an inference variable at the top of t with what
// it is bound to, if anything. Unbound variables come back as their root.
func (c *Ctxt) ShallowResolve(t types.Ty) types.Ty {
	for {
		inf, ok := t.(*types.Infer)
		if !ok {
			return t
		}
		root := c.RootVar(inf.Var)
		data := c.data(root)
		if data.value == nil {
			if root == inf.Var {
				return inf
			}
			return &types.Infer{Var: root}
		}
		t = data.value
	}
}

// Resolve replaces every bound inference variable inside t, recursively
func (c *Ctxt) Resolve(t types.Ty) types.Ty {
	if !types.HasInfer(t) {
		return t
	}
	return c.resolveFolder().FoldTy(t)
}

func (c *Ctxt) ResolveArg(arg types.GenericArg) types.GenericArg {
	return types.FoldArg(arg, c.resolveFolder())
}

func (c *Ctxt) ResolveSubsts(s types.Substs) types.Substs {
	return types.FoldSubsts(s, c.resolveFolder())
}

func (c *Ctxt) ResolvePredicate(p types.Predicate) types.Predicate {
	return types.FoldPredicate(p, c.resolveFolder())
}

type resolveFolder struct{ c *Ctxt }

func (c *Ctxt) resolveFolder() types.Folder { return resolveFolder{c} }

func (f resolveFolder) FoldTy(t types.Ty) types.Ty {
	if _, ok := t.(*types.Infer); ok {
		t = f.c.ShallowResolve(t)
		if _, still := t.(*types.Infer); still {
			return t
		}
		return f.FoldTy(t)
	}
	return types.SuperFold(t, f)
}
func (f resolveFolder) FoldRegion(r types.Region) types.Region { return r }
func (f resolveFolder) FoldConst(ct *types.Const) *types.Const {
	if ct.Kind == types.ConstInfer {
		if bound, ok := f.c.constVars.Get(ct.Var); ok {
			return f.FoldConst(bound)
		}
	}
	return ct
}

// TypeVarDiverges reports whether t is an unbound type variable whose class
// was created diverging
func (c *Ctxt) TypeVarDiverges(t types.Ty) bool {
	inf, ok := c.ShallowResolve(t).(*types.Infer)
	if !ok || inf.Var.Kind != types.TyVar {
		return false
	}
	return c.data(inf.Var).diverging
}

// UnconstrainedNumeric returns the kind of t if it is an unbound integer or
// float variable
func (c *Ctxt) UnconstrainedNumeric(t types.Ty) (types.InferKind, bool) {
	inf, ok := c.ShallowResolve(t).(*types.Infer)
	if !ok || inf.Var.Kind == types.TyVar {
		return 0, false
	}
	return inf.Var.Kind, true
}

// VarOrigin returns where the variable was created
func (c *Ctxt) VarOrigin(v types.InferVar) ast.Range {
	return c.data(v).origin
}

// UnresolvedVars lists the roots of every unbound variable, type variables
// first, each kind in creation order
func (c *Ctxt) UnresolvedVars() []*types.Infer {
	var out []*types.Infer
	seen := set.New[types.InferVar](0)
	collect := func(kind types.InferKind, next uint32) {
		for id := uint32(1); id < next; id++ {
			root := c.RootVar(types.InferVar{Kind: kind, ID: id})
			if c.data(root).value != nil || !seen.Insert(root) {
				continue
			}
			out = append(out, &types.Infer{Var: root})
		}
	}
	collect(types.TyVar, c.nextTy)
	collect(types.IntVar, c.nextInt)
	collect(types.FloatVar, c.nextFloat)
	return out
}

// StartSnapshot records the current state; it must be ended by RollbackTo or
// Commit, innermost first
func (c *Ctxt) StartSnapshot() Snapshot {
	c.snapshots++
	return Snapshot{saved: c.tables, depth: c.snapshots}
}

func (c *Ctxt) RollbackTo(s Snapshot) {
	c.checkSnapshot(s)
	c.tables = s.saved
	c.snapshots--
}

func (c *Ctxt) Commit(s Snapshot) {
	c.checkSnapshot(s)
	c.snapshots--
}

func (c *Ctxt) checkSnapshot(s Snapshot) {
	if s.depth != c.snapshots {
		panic("inference snapshots ended out of order")
	}
}

// InSnapshot reports whether some snapshot is open
func (c *Ctxt) InSnapshot() bool { return c.snapshots > 0 }

// Probe runs f and then undoes everything it did
func (c *Ctxt) Probe(f func() error) error {
	s := c.StartSnapshot()
	defer c.RollbackTo(s)
	return f()
}

// CommitIf keeps the effects of f only if it succeeds
func (c *Ctxt) CommitIf(f func() error) error {
	s := c.StartSnapshot()
	if err := f(); err != nil {
		c.RollbackTo(s)
		return err
	}
	c.Commit(s)
	return nil
}
