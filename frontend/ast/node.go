package ast

import "fmt"

// NodeID is the stable identity of a node within one body.
// The zero value never identifies a node.
type NodeID uint32

const NoNode NodeID = 0

func (id NodeID) String() string {
	return fmt.Sprintf("n%d", uint32(id))
}

// Node is the base interface for all nodes of a resolved body.
type Node interface {
	Positioner
	ID() NodeID
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	Describe() string
	exprNode() // Marker method to distinguish expressions
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // Marker method to distinguish statements
}

// Pat is the interface for all pattern nodes.
type Pat interface {
	Node
	patNode() // Marker method to distinguish patterns
}

// TypeExpr is a type written by the programmer, already resolved
type TypeExpr interface {
	Node
	typeNode() // Marker method to distinguish types
}

// Meta is embedded by every node and carries its identity and source range
type Meta struct {
	Range
	NodeID NodeID
}

func (m Meta) ID() NodeID { return m.NodeID }

// Body is the unit of type checking: one function or closure body.
type Body struct {
	// Owner is the item whose signature types this body
	Owner DefID
	// Params are the patterns binding each declared input, in order
	Params []Pat
	Value  *Block
}
