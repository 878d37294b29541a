package ast

import "strings"

// Path is a resolved value path such as `foo::<u8>`, `Vec::new` or `T::default`.
type Path struct {
	Range
	Res      Res
	Segments []PathSegment
	// QSelf is the explicit self type of `<T>::item` / `T::item`
	QSelf TypeExpr
}

func (p *Path) String() string {
	names := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		names = append(names, seg.Name)
	}
	return strings.Join(names, "::")
}

// Last returns the final segment of the path
func (p *Path) Last() *PathSegment {
	return &p.Segments[len(p.Segments)-1]
}

type PathSegment struct {
	Range
	Name string
	// Args is nil when the programmer wrote no generic arguments
	Args *GenericArgs
}

// InferArgs reports whether the generic parameters this segment covers
// should be inferred rather than defaulted
func (s *PathSegment) InferArgs() bool {
	return s.Args == nil
}

type GenericArgs struct {
	Range
	Args []GenericArg
}

// GenericArg is one explicit argument inside `::<...>`
type GenericArg interface {
	Positioner
	argKind() string
}

type LifetimeArg struct {
	Range
	// Name is "'static", a named parameter, or "'_"
	Name string
}

type TypeArg struct {
	Range
	Type TypeExpr
}

type ConstArg struct {
	Range
	Value int64
}

func (LifetimeArg) argKind() string { return "lifetime" }
func (TypeArg) argKind() string     { return "type" }
func (ConstArg) argKind() string    { return "constant" }

// ArgKind is "lifetime", "type" or "constant"
func ArgKind(arg GenericArg) string {
	return arg.argKind()
}
