package typeck

import (
	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/util"
)

// breakableCtxt is a loop or labeled block that break expressions may exit
type breakableCtxt struct {
	id     ast.NodeID
	label  string
	isLoop bool
	// coerce merges the values of every break (and the tail, for blocks)
	coerce *CoerceMany
	// mayBreak is set once any break targets this context
	mayBreak bool
}

// enclosingBreakables is the stack of contexts around the expression being
// checked. Breaks find their target by node identity rather than depth.
type enclosingBreakables struct {
	stack util.Stack[*breakableCtxt]
	byID  map[ast.NodeID]int
}

func newEnclosingBreakables() *enclosingBreakables {
	return &enclosingBreakables{byID: make(map[ast.NodeID]int)}
}

func (e *enclosingBreakables) push(ctxt *breakableCtxt) {
	e.byID[ctxt.id] = e.stack.Len()
	e.stack.Push(ctxt)
}

// pop removes the innermost context, which must be the one of id
func (e *enclosingBreakables) pop(id ast.NodeID) *breakableCtxt {
	top, ok := e.stack.Pop()
	if !ok || top.id != id {
		panic(ilerr.NewBug("breakable context of %v popped out of order", id))
	}
	delete(e.byID, id)
	return top
}

func (e *enclosingBreakables) find(id ast.NodeID) (*breakableCtxt, bool) {
	i, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return e.stack.At(i), true
}

// innermostLoop is the target of an unlabeled break
func (e *enclosingBreakables) innermostLoop() (*breakableCtxt, bool) {
	for i := e.stack.Len() - 1; i >= 0; i-- {
		if ctxt := e.stack.At(i); ctxt.isLoop {
			return ctxt, true
		}
	}
	return nil, false
}

func (e *enclosingBreakables) byLabel(label string) (*breakableCtxt, bool) {
	for i := e.stack.Len() - 1; i >= 0; i-- {
		if ctxt := e.stack.At(i); ctxt.label == label {
			return ctxt, true
		}
	}
	return nil, false
}

// withBreakableCtxt runs f with ctxt pushed and returns ctxt once popped
func (fcx *FnCtxt) withBreakableCtxt(ctxt *breakableCtxt, f func()) *breakableCtxt {
	fcx.breakables.push(ctxt)
	f()
	return fcx.breakables.pop(ctxt.id)
}
