package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/types"
)

// enableDebugErrorPrinting makes errors include the location that created them when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

// ErrCode is the number of a diagnostic. Errors print as E0308, warnings as W0001.
type ErrCode int

const (
	None            ErrCode = 0
	UnreachableCode ErrCode = 1

	BoolCast              ErrCode = 54
	TupleArgCount         ErrCode = 57
	NonTupleCallArgs      ErrCode = 59
	VariadicArgCount      ErrCode = 60
	ArgCount              ErrCode = 61
	FieldSpecifiedTwice   ErrCode = 62
	MissingFields         ErrCode = 63
	ReturnUnitInNonUnitFn ErrCode = 69
	InvalidAssignLhs      ErrCode = 70
	NotAStruct            ErrCode = 71
	WrongGenericArgCount  ErrCode = 107
	ProhibitedGenericArgs ErrCode = 109
	BreakOutsideLoop      ErrCode = 268
	Unsatisfied           ErrCode = 277
	CannotInfer           ErrCode = 282
	Mismatch              ErrCode = 308
	BinaryOpUnsupported   ErrCode = 369
	SelfCtorNotTuple      ErrCode = 533
	NoSuchField           ErrCode = 560
	ClosureArgCount       ErrCode = 593
	NoMethod              ErrCode = 599
	UnaryOpUnsupported    ErrCode = 600
	CharCast              ErrCode = 604
	NonPrimitiveCast      ErrCode = 605
	InvalidCast           ErrCode = 606
	CannotIndex           ErrCode = 608
	NoField               ErrCode = 609
	CannotDeref           ErrCode = 614
	VariadicPromotion     ErrCode = 617
	NotCallable           ErrCode = 618
	GenericArgKind        ErrCode = 747
	AmbiguousItem         ErrCode = 34
)

type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

// Suggestion is a machine-applicable edit attached to a diagnostic
type Suggestion struct {
	ast.Range
	Message     string
	Replacement string
}

type warning interface{ isWarning() }

type suggester interface{ Suggestions() []Suggestion }

// SeverityOf returns SeverityWarning for lints and SeverityError for everything else
func SeverityOf(e IleError) Severity {
	if _, ok := e.(warning); ok {
		return SeverityWarning
	}
	return SeverityError
}

// SuggestionsOf returns the suggestions attached to e, if it carries any
func SuggestionsOf(e IleError) []Suggestion {
	if s, ok := e.(suggester); ok {
		return s.Suggestions()
	}
	return nil
}

func FormatCode(e IleError) string {
	if SeverityOf(e) == SeverityWarning {
		return fmt.Sprintf("W%04d", e.Code())
	}
	return fmt.Sprintf("E%04d", e.Code())
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(%s) %s", stack, FormatCode(e), e.Error())
	}
	return fmt.Sprintf("(%s) %s", FormatCode(e), e.Error())
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMismatch struct {
	ast.Positioner
	Expected types.Ty
	Found    types.Ty
	Fixes    []Suggestion
	stack    []byte
}

func (e NewMismatch) Error() string {
	return fmt.Sprintf("mismatched types: expected `%v`, found `%v`", e.Expected, e.Found)
}
func (e NewMismatch) Code() ErrCode             { return Mismatch }
func (e NewMismatch) Suggestions() []Suggestion { return e.Fixes }
func (e NewMismatch) getStack() []byte          { return e.stack }
func (e NewMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewArgCount is a call with the wrong number of arguments. ErrCode
// distinguishes tuple-sugar calls, variadics and plain calls.
type NewArgCount struct {
	ast.Positioner
	ErrCode  ErrCode
	Expected int
	Supplied int
	Variadic bool
	Fixes    []Suggestion
	stack    []byte
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (e NewArgCount) Error() string {
	atLeast := ""
	if e.Variadic {
		atLeast = "at least "
	}
	wasWere := "were"
	if e.Supplied == 1 {
		wasWere = "was"
	}
	return fmt.Sprintf("this function takes %s%s but %s %s supplied",
		atLeast, pluralize(e.Expected, "argument"), pluralize(e.Supplied, "argument"), wasWere)
}
func (e NewArgCount) Code() ErrCode             { return e.ErrCode }
func (e NewArgCount) Suggestions() []Suggestion { return e.Fixes }
func (e NewArgCount) getStack() []byte          { return e.stack }
func (e NewArgCount) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewVariadicPromotion struct {
	ast.Positioner
	Ty     types.Ty
	CastTo string
	stack  []byte
}

func (e NewVariadicPromotion) Error() string {
	return fmt.Sprintf("can't pass `%v` to variadic function, cast the value to `%s`", e.Ty, e.CastTo)
}
func (e NewVariadicPromotion) Code() ErrCode    { return VariadicPromotion }
func (e NewVariadicPromotion) getStack() []byte { return e.stack }
func (e NewVariadicPromotion) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoMethod struct {
	ast.Positioner
	Name   string
	SelfTy types.Ty
	stack  []byte
}

func (e NewNoMethod) Error() string {
	return fmt.Sprintf("no method or associated item named `%s` found for `%v` in the current scope", e.Name, e.SelfTy)
}
func (e NewNoMethod) Code() ErrCode    { return NoMethod }
func (e NewNoMethod) getStack() []byte { return e.stack }
func (e NewNoMethod) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewAmbiguousItem struct {
	ast.Positioner
	Name       string
	Candidates []string
	stack      []byte
}

func (e NewAmbiguousItem) Error() string {
	return fmt.Sprintf("multiple applicable items in scope for `%s`: %s", e.Name, strings.Join(e.Candidates, ", "))
}
func (e NewAmbiguousItem) Code() ErrCode    { return AmbiguousItem }
func (e NewAmbiguousItem) getStack() []byte { return e.stack }
func (e NewAmbiguousItem) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewSelfCtorNotTuple struct {
	ast.Positioner
	stack []byte
}

func (e NewSelfCtorNotTuple) Error() string {
	return "the `Self` constructor can only be used with tuple or unit structs"
}
func (e NewSelfCtorNotTuple) Code() ErrCode    { return SelfCtorNotTuple }
func (e NewSelfCtorNotTuple) getStack() []byte { return e.stack }
func (e NewSelfCtorNotTuple) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewWrongGenericArgCount struct {
	ast.Positioner
	Item     string
	Kind     string
	Expected int
	Given    int
	stack    []byte
}

func (e NewWrongGenericArgCount) Error() string {
	return fmt.Sprintf("`%s` takes %s but %d %s supplied",
		e.Item, pluralize(e.Expected, e.Kind+" argument"), e.Given, map[bool]string{true: "was", false: "were"}[e.Given == 1])
}
func (e NewWrongGenericArgCount) Code() ErrCode    { return WrongGenericArgCount }
func (e NewWrongGenericArgCount) getStack() []byte { return e.stack }
func (e NewWrongGenericArgCount) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewProhibitedGenericArgs struct {
	ast.Positioner
	Segment string
	stack   []byte
}

func (e NewProhibitedGenericArgs) Error() string {
	return fmt.Sprintf("generic arguments are not allowed on `%s`", e.Segment)
}
func (e NewProhibitedGenericArgs) Code() ErrCode    { return ProhibitedGenericArgs }
func (e NewProhibitedGenericArgs) getStack() []byte { return e.stack }
func (e NewProhibitedGenericArgs) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewGenericArgKind struct {
	ast.Positioner
	Expected string
	Found    string
	stack    []byte
}

func (e NewGenericArgKind) Error() string {
	return fmt.Sprintf("%s provided when a %s was expected", e.Found, e.Expected)
}
func (e NewGenericArgKind) Code() ErrCode    { return GenericArgKind }
func (e NewGenericArgKind) getStack() []byte { return e.stack }
func (e NewGenericArgKind) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnsatisfied struct {
	ast.Positioner
	Predicate types.Predicate
	// Item is the definition whose bound required the predicate, if any
	Item  string
	stack []byte
}

func (e NewUnsatisfied) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("the bound `%v` is not satisfied, required by `%s`", e.Predicate, e.Item)
	}
	return fmt.Sprintf("the bound `%v` is not satisfied", e.Predicate)
}
func (e NewUnsatisfied) Code() ErrCode    { return Unsatisfied }
func (e NewUnsatisfied) getStack() []byte { return e.stack }
func (e NewUnsatisfied) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewCannotInfer struct {
	ast.Positioner
	Ty    types.Ty
	stack []byte
}

func (e NewCannotInfer) Error() string {
	return fmt.Sprintf("type annotations needed: cannot infer type `%v`", e.Ty)
}
func (e NewCannotInfer) Code() ErrCode    { return CannotInfer }
func (e NewCannotInfer) getStack() []byte { return e.stack }
func (e NewCannotInfer) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewBadCast covers every invalid `as` cast; ErrCode tells them apart
type NewBadCast struct {
	ast.Positioner
	ErrCode ErrCode
	From    types.Ty
	To      types.Ty
	stack   []byte
}

func (e NewBadCast) Error() string {
	switch e.ErrCode {
	case CharCast:
		return fmt.Sprintf("only `u8` can be cast as `char`, not `%v`", e.From)
	case BoolCast:
		return fmt.Sprintf("cannot cast `%v` as `bool`", e.From)
	case NonPrimitiveCast:
		return fmt.Sprintf("non-primitive cast: `%v` as `%v`", e.From, e.To)
	default:
		return fmt.Sprintf("casting `%v` as `%v` is invalid", e.From, e.To)
	}
}
func (e NewBadCast) Code() ErrCode    { return e.ErrCode }
func (e NewBadCast) getStack() []byte { return e.stack }
func (e NewBadCast) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoField struct {
	ast.Positioner
	Ty    types.Ty
	Name  string
	stack []byte
}

func (e NewNoField) Error() string {
	return fmt.Sprintf("no field `%s` on type `%v`", e.Name, e.Ty)
}
func (e NewNoField) Code() ErrCode    { return NoField }
func (e NewNoField) getStack() []byte { return e.stack }
func (e NewNoField) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoSuchField struct {
	ast.Positioner
	Ty    types.Ty
	Name  string
	stack []byte
}

func (e NewNoSuchField) Error() string {
	return fmt.Sprintf("struct `%v` has no field named `%s`", e.Ty, e.Name)
}
func (e NewNoSuchField) Code() ErrCode    { return NoSuchField }
func (e NewNoSuchField) getStack() []byte { return e.stack }
func (e NewNoSuchField) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewFieldSpecifiedTwice struct {
	ast.Positioner
	Name  string
	First ast.Range
	stack []byte
}

func (e NewFieldSpecifiedTwice) Error() string {
	return fmt.Sprintf("field `%s` specified more than once", e.Name)
}
func (e NewFieldSpecifiedTwice) Code() ErrCode    { return FieldSpecifiedTwice }
func (e NewFieldSpecifiedTwice) getStack() []byte { return e.stack }
func (e NewFieldSpecifiedTwice) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMissingFields struct {
	ast.Positioner
	Ty     types.Ty
	Fields []string
	stack  []byte
}

func (e NewMissingFields) Error() string {
	quoted := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		quoted[i] = "`" + f + "`"
	}
	return fmt.Sprintf("missing fields %s in initializer of `%v`", strings.Join(quoted, ", "), e.Ty)
}
func (e NewMissingFields) Code() ErrCode    { return MissingFields }
func (e NewMissingFields) getStack() []byte { return e.stack }
func (e NewMissingFields) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewNotAStruct is a struct literal whose path names something without fields
type NewNotAStruct struct {
	ast.Positioner
	Path  string
	stack []byte
}

func (e NewNotAStruct) Error() string {
	return fmt.Sprintf("expected struct, variant or union type, found `%s`", e.Path)
}
func (e NewNotAStruct) Code() ErrCode    { return NotAStruct }
func (e NewNotAStruct) getStack() []byte { return e.stack }
func (e NewNotAStruct) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewCannotIndex struct {
	ast.Positioner
	Ty    types.Ty
	Index types.Ty
	stack []byte
}

func (e NewCannotIndex) Error() string {
	return fmt.Sprintf("cannot index into a value of type `%v` with `%v`", e.Ty, e.Index)
}
func (e NewCannotIndex) Code() ErrCode    { return CannotIndex }
func (e NewCannotIndex) getStack() []byte { return e.stack }
func (e NewCannotIndex) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewCannotDeref struct {
	ast.Positioner
	Ty    types.Ty
	stack []byte
}

func (e NewCannotDeref) Error() string {
	return fmt.Sprintf("type `%v` cannot be dereferenced", e.Ty)
}
func (e NewCannotDeref) Code() ErrCode    { return CannotDeref }
func (e NewCannotDeref) getStack() []byte { return e.stack }
func (e NewCannotDeref) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNotCallable struct {
	ast.Positioner
	Ty    types.Ty
	stack []byte
}

func (e NewNotCallable) Error() string {
	return fmt.Sprintf("expected function, found `%v`", e.Ty)
}
func (e NewNotCallable) Code() ErrCode    { return NotCallable }
func (e NewNotCallable) getStack() []byte { return e.stack }
func (e NewNotCallable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewBinaryOpUnsupported struct {
	ast.Positioner
	Op       string
	Lhs, Rhs types.Ty
	stack    []byte
}

func (e NewBinaryOpUnsupported) Error() string {
	return fmt.Sprintf("cannot apply `%s` to `%v` and `%v`", e.Op, e.Lhs, e.Rhs)
}
func (e NewBinaryOpUnsupported) Code() ErrCode    { return BinaryOpUnsupported }
func (e NewBinaryOpUnsupported) getStack() []byte { return e.stack }
func (e NewBinaryOpUnsupported) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnaryOpUnsupported struct {
	ast.Positioner
	Op    string
	Ty    types.Ty
	stack []byte
}

func (e NewUnaryOpUnsupported) Error() string {
	return fmt.Sprintf("cannot apply unary operator `%s` to type `%v`", e.Op, e.Ty)
}
func (e NewUnaryOpUnsupported) Code() ErrCode    { return UnaryOpUnsupported }
func (e NewUnaryOpUnsupported) getStack() []byte { return e.stack }
func (e NewUnaryOpUnsupported) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewClosureArgCount struct {
	ast.Positioner
	Expected int
	Found    int
	stack    []byte
}

func (e NewClosureArgCount) Error() string {
	return fmt.Sprintf("closure is expected to take %s, but it takes %s",
		pluralize(e.Expected, "argument"), pluralize(e.Found, "argument"))
}
func (e NewClosureArgCount) Code() ErrCode    { return ClosureArgCount }
func (e NewClosureArgCount) getStack() []byte { return e.stack }
func (e NewClosureArgCount) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewBreakOutsideLoop struct {
	ast.Positioner
	stack []byte
}

func (e NewBreakOutsideLoop) Error() string    { return "`break` outside of a loop or labeled block" }
func (e NewBreakOutsideLoop) Code() ErrCode    { return BreakOutsideLoop }
func (e NewBreakOutsideLoop) getStack() []byte { return e.stack }
func (e NewBreakOutsideLoop) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewInvalidAssignLhs struct {
	ast.Positioner
	stack []byte
}

func (e NewInvalidAssignLhs) Error() string    { return "invalid left-hand side of assignment" }
func (e NewInvalidAssignLhs) Code() ErrCode    { return InvalidAssignLhs }
func (e NewInvalidAssignLhs) getStack() []byte { return e.stack }
func (e NewInvalidAssignLhs) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewReturnUnitInNonUnitFn struct {
	ast.Positioner
	Expected types.Ty
	stack    []byte
}

func (e NewReturnUnitInNonUnitFn) Error() string {
	return fmt.Sprintf("`return;` in a function whose return type is `%v`", e.Expected)
}
func (e NewReturnUnitInNonUnitFn) Code() ErrCode    { return ReturnUnitInNonUnitFn }
func (e NewReturnUnitInNonUnitFn) getStack() []byte { return e.stack }
func (e NewReturnUnitInNonUnitFn) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewUnreachable is a warning on code that can never run. Origin is the
// expression that made it unreachable.
type NewUnreachable struct {
	ast.Positioner
	Kind   string
	Origin ast.Range
	Note   string
	stack  []byte
}

func (e NewUnreachable) Error() string {
	msg := fmt.Sprintf("unreachable %s", e.Kind)
	if !e.Origin.IsZero() {
		msg += fmt.Sprintf(" (any code following the expression at %v is unreachable)", e.Origin)
	}
	if e.Note != "" {
		msg += "; " + e.Note
	}
	return msg
}
func (e NewUnreachable) Code() ErrCode    { return UnreachableCode }
func (e NewUnreachable) isWarning()       {}
func (e NewUnreachable) getStack() []byte { return e.stack }
func (e NewUnreachable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
