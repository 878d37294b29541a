// Package fixture loads bodies to check, and the items they are checked
// against, from YAML files. Fixtures drive the typeck CLI and end to end
// tests.
//
// A fixture has four sections:
//
//	config:  overrides of typeck.DefaultConfig
//	items:   functions, structs, enums, traits and impls
//	body:    the owner item, its parameter patterns, statements and tail
//	expect:  optional diagnostics and binding types the check must produce
//
// Node positions are synthetic: line*1000 + column of the YAML node the
// syntax was read from.
package fixture

import (
	_ "embed"
	"fmt"
	"go/token"
	"os"
	"slices"
	"strings"

	"github.com/cottand/typeck/frontend/ast"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/items"
	"github.com/cottand/typeck/frontend/typeck"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML form of a fixture
type File struct {
	Config typeck.Config `yaml:"config"`
	// Prelude declares Sized and the Fn traits as lang items. Defaults to true.
	Prelude *bool      `yaml:"prelude,omitempty"`
	Items   []ItemDecl `yaml:"items"`
	Body    BodyDecl   `yaml:"body"`
	Expect  *Expect    `yaml:"expect,omitempty"`
}

// ItemDecl declares one item. Which fields apply depends on Kind, one of
// fn, const, static, struct, enum, variant, trait, impl and, inside traits
// and impls, type.
type ItemDecl struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
	// Generics are written `T`, `T = Default`, `'a` or `const N`
	Generics []string `yaml:"generics,omitempty"`
	// Bounds are written `T: Trait<A> + Other` or `<T as Trait>::Item == U`
	Bounds []string `yaml:"bounds,omitempty"`
	Lang   string   `yaml:"lang,omitempty"`

	Inputs   []string `yaml:"inputs,omitempty"`
	Output   string   `yaml:"output,omitempty"`
	Variadic bool     `yaml:"variadic,omitempty"`
	// Self is the receiver of an associated function: value, ref or mut
	Self string `yaml:"self,omitempty"`

	// Type of a const or static, or the value of an associated type in an impl
	Type string `yaml:"type,omitempty"`

	Fields []FieldDecl `yaml:"fields,omitempty"`
	// Ctor of a struct or variant: fn for tuple-like, const for unit-like
	Ctor     string     `yaml:"ctor,omitempty"`
	Variants []ItemDecl `yaml:"variants,omitempty"`

	// Trait and For are the trait and self type of an impl
	Trait string     `yaml:"trait,omitempty"`
	For   string     `yaml:"for,omitempty"`
	Assoc []ItemDecl `yaml:"assoc,omitempty"`
}

type FieldDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type BodyDecl struct {
	Owner  string      `yaml:"owner"`
	Params []yaml.Node `yaml:"params,omitempty"`
	Stmts  []yaml.Node `yaml:"stmts,omitempty"`
	Tail   yaml.Node   `yaml:"tail,omitempty"`
}

// Expect is what checking the body must produce
type Expect struct {
	// Codes are diagnostic codes as printed, e.g. E0308 or W0001, in order
	Codes []string `yaml:"codes"`
	// Types maps binding names to their printed type. A name bound twice
	// refers to the last binding.
	Types   map[string]string `yaml:"types,omitempty"`
	Tainted *bool             `yaml:"tainted,omitempty"`
}

// Fixture is a loaded fixture, ready for typeck.CheckBody
type Fixture struct {
	Path   string
	Table  *items.Table
	Body   *ast.Body
	Config typeck.Config
	Expect *Expect
	// Bindings are the bindings of the body by name; the last one wins
	Bindings map[string]*ast.BindingPat
}

//go:embed prelude.yaml
var preludeSrc []byte

// Load reads and parses the fixture at path
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture %s", path)
	}
	return Parse(data, path)
}

// Parse parses fixture content. The path is used in error messages only.
func Parse(data []byte, path string) (*Fixture, error) {
	file := File{Config: typeck.DefaultConfig()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := file.validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}

	var decls []ItemDecl
	if file.Prelude == nil || *file.Prelude {
		var prelude File
		if err := yaml.Unmarshal(preludeSrc, &prelude); err != nil {
			return nil, errors.Wrap(err, "parsing prelude")
		}
		decls = append(decls, prelude.Items...)
	}
	decls = append(decls, file.Items...)

	l := newLoader()
	l.declareAll(decls)
	owner, ok := l.values[file.Body.Owner]
	if l.err == nil && !ok {
		l.failf("body owner %q is not declared", file.Body.Owner)
	}
	var body *ast.Body
	var bindings map[string]*ast.BindingPat
	if l.err == nil {
		b := newBodyBuilder(l, owner)
		body = b.body(&file.Body)
		bindings = b.bindings
	}
	if l.err != nil {
		return nil, errors.Wrap(l.err, path)
	}
	return &Fixture{
		Path:     path,
		Table:    l.table,
		Body:     body,
		Config:   file.Config,
		Expect:   file.Expect,
		Bindings: bindings,
	}, nil
}

func (f *File) validate() error {
	if f.Body.Owner == "" {
		return errors.New("body: owner is required")
	}
	seen := make(map[string]bool)
	for i, item := range f.Items {
		if item.Kind == "" {
			return errors.Errorf("items[%d]: kind is required", i)
		}
		if item.Kind == "impl" {
			if item.For == "" {
				return errors.Errorf("items[%d]: impl needs a self type in 'for'", i)
			}
			continue
		}
		if item.Name == "" {
			return errors.Errorf("items[%d]: %s needs a name", i, item.Kind)
		}
		if seen[item.Name] {
			return errors.Errorf("items[%d]: %s declared twice", i, item.Name)
		}
		seen[item.Name] = true
	}
	return nil
}

// Check runs the checker on the fixture body
func (f *Fixture) Check() (*typeck.Results, error) {
	return typeck.CheckBody(f.Table, f.Body, f.Config)
}

// Verify compares res against the expect section and returns one line per
// mismatch. A fixture without expectations always passes.
func (f *Fixture) Verify(res *typeck.Results) []string {
	if f.Expect == nil {
		return nil
	}
	var out []string
	got := Codes(res.Diagnostics)
	if !slices.Equal(got, f.Expect.Codes) {
		out = append(out, fmt.Sprintf("diagnostics: want %v, got %v", f.Expect.Codes, got))
	}
	names := make([]string, 0, len(f.Expect.Types))
	for name := range f.Expect.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		want := f.Expect.Types[name]
		b, ok := f.Bindings[name]
		if !ok {
			out = append(out, fmt.Sprintf("%s: no binding with that name", name))
			continue
		}
		ty, ok := res.NodeTypes[b.ID()]
		if !ok {
			out = append(out, fmt.Sprintf("%s: no type recorded", name))
			continue
		}
		if ty.String() != want {
			out = append(out, fmt.Sprintf("%s: want %s, got %s", name, want, ty))
		}
	}
	if f.Expect.Tainted != nil && *f.Expect.Tainted != res.TaintedByErrors {
		out = append(out, fmt.Sprintf("tainted: want %v, got %v", *f.Expect.Tainted, res.TaintedByErrors))
	}
	return out
}

// Codes returns the printed codes of diags, in order
func Codes(diags *ilerr.Errors) []string {
	var out []string
	for _, e := range diags.Errors() {
		out = append(out, ilerr.FormatCode(e))
	}
	return out
}

const lineWidth = 1000

func posAt(n *yaml.Node) token.Pos {
	return token.Pos(n.Line*lineWidth + n.Column)
}

// Position renders a synthetic position as line:column
func Position(p token.Pos) string {
	if p == token.NoPos {
		return "-"
	}
	return fmt.Sprintf("%d:%d", int(p)/lineWidth, int(p)%lineWidth)
}

// describe names a YAML node for error messages
func describe(n *yaml.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "line %d", n.Line)
	if n.Kind == yaml.ScalarNode {
		fmt.Fprintf(&sb, " (%q)", n.Value)
	}
	return sb.String()
}
