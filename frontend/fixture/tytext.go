package fixture

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tyNode is a type as written in a fixture, before names are resolved.
// The same text lowers either to a types.Ty (item signatures) or to an
// ast.TypeExpr (annotations inside a body).
type tyNode struct {
	kind tyKind
	off  int // byte offset of the first token
	end  int // byte offset right after the last token

	// name is the path of tyPath and tyDyn, the trait of tyImpl and tyProj,
	// the lifetime of tyLifetime and tyRef
	name string
	args []*tyNode
	mut  bool
	n    uint64
	// self is the self type of tyProj, out the output of tyFn and of Fn
	// sugar bounds like `Fn(i32) -> i32`
	self     *tyNode
	item     string
	out      *tyNode
	variadic bool
	// parenSugar marks a bound written `Trait(A, B) -> C`
	parenSugar bool
}

type tyKind uint8

const (
	tyPath tyKind = iota
	tyRef
	tyTuple
	tyArray
	tySlice
	tyNever
	tyInfer
	tyFn
	tyImpl
	tyDyn
	tyProj
	tyLifetime
	tyConst
)

type token struct {
	text string
	off  int
}

func lexTy(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case strings.HasPrefix(src[i:], "::"), strings.HasPrefix(src[i:], "->"), strings.HasPrefix(src[i:], "=="):
			toks = append(toks, token{src[i : i+2], i})
			i += 2
		case strings.HasPrefix(src[i:], "..."):
			toks = append(toks, token{"...", i})
			i += 3
		case strings.ContainsRune("&()[];,<>!:+", c):
			toks = append(toks, token{string(c), i})
			i++
		case c == '\'' || isIdent(c):
			j := i + 1
			for j < len(src) && isIdent(rune(src[j])) {
				j++
			}
			toks = append(toks, token{src[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d in %q", c, i, src)
		}
	}
	return toks, nil
}

func isIdent(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

type tyParser struct {
	src  string
	toks []token
	i    int
}

// bailout is raised by tyParser on the first syntax error
type bailout struct{ err error }

func (p *tyParser) failf(format string, args ...any) {
	panic(bailout{fmt.Errorf("in %q: %s", p.src, fmt.Sprintf(format, args...))})
}

func (p *tyParser) peek() string {
	if p.i < len(p.toks) {
		return p.toks[p.i].text
	}
	return ""
}

func (p *tyParser) offset() int {
	if p.i < len(p.toks) {
		return p.toks[p.i].off
	}
	return len(p.src)
}

func (p *tyParser) lastEnd() int {
	if p.i == 0 {
		return 0
	}
	last := p.toks[p.i-1]
	return last.off + len(last.text)
}

func (p *tyParser) next() string {
	tok := p.peek()
	if tok == "" {
		p.failf("unexpected end of type")
	}
	p.i++
	return tok
}

func (p *tyParser) eat(tok string) bool {
	if p.peek() == tok {
		p.i++
		return true
	}
	return false
}

func (p *tyParser) expect(tok string) {
	if got := p.next(); got != tok {
		p.failf("expected %q, found %q", tok, got)
	}
}

func (p *tyParser) ident() string {
	tok := p.next()
	if !isIdent(rune(tok[0])) {
		p.failf("expected a name, found %q", tok)
	}
	return tok
}

func parse[T any](src string, f func(p *tyParser) T) (out T, err error) {
	toks, err := lexTy(src)
	if err != nil {
		return out, err
	}
	p := &tyParser{src: src, toks: toks}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	out = f(p)
	if p.i != len(p.toks) {
		p.failf("unexpected %q", p.peek())
	}
	return out, nil
}

// parseTy parses a type such as `&mut [i32; 3]`, `fn(u8, ...) -> i32`,
// `impl Fn(i32) -> i32` or `<T as Add<T>>::Output`
func parseTy(src string) (*tyNode, error) {
	return parse(src, (*tyParser).ty)
}

func (p *tyParser) ty() *tyNode {
	n := &tyNode{off: p.offset()}
	defer func() { n.end = p.lastEnd() }()
	switch tok := p.next(); {
	case tok == "!":
		n.kind = tyNever
	case tok == "_":
		n.kind = tyInfer
	case tok == "&":
		n.kind = tyRef
		if strings.HasPrefix(p.peek(), "'") {
			n.name = p.next()
		}
		n.mut = p.eat("mut")
		n.args = []*tyNode{p.ty()}
	case tok == "(":
		n.kind = tyTuple
		trailingComma := false
		for !p.eat(")") {
			n.args = append(n.args, p.ty())
			trailingComma = p.eat(",")
			if !trailingComma {
				p.expect(")")
				break
			}
		}
		if len(n.args) == 1 && !trailingComma {
			// `(T)` is just T
			inner := n.args[0]
			inner.off = n.off
			return inner
		}
	case tok == "[":
		elem := p.ty()
		n.args = []*tyNode{elem}
		n.kind = tySlice
		if p.eat(";") {
			n.kind = tyArray
			n.n = p.number()
		}
		p.expect("]")
	case tok == "fn":
		n.kind = tyFn
		p.expect("(")
		for !p.eat(")") {
			if p.eat("...") {
				n.variadic = true
				p.expect(")")
				break
			}
			n.args = append(n.args, p.ty())
			if !p.eat(",") {
				p.expect(")")
				break
			}
		}
		if p.eat("->") {
			n.out = p.ty()
		}
	case tok == "impl":
		bound := p.bound()
		n.kind, n.name, n.args, n.out, n.parenSugar = tyImpl, bound.name, bound.args, bound.out, bound.parenSugar
	case tok == "dyn":
		n.kind = tyDyn
		n.name = p.ident()
	case tok == "<":
		n.kind = tyProj
		n.self = p.ty()
		p.expect("as")
		n.name = p.ident()
		n.args = p.genericArgs()
		p.expect(">")
		p.expect("::")
		n.item = p.ident()
	case isIdent(rune(tok[0])):
		n.kind = tyPath
		n.name = tok
		for p.peek() == "::" {
			p.next()
			n.name += "::" + p.ident()
		}
		n.args = p.genericArgs()
	default:
		p.failf("unexpected %q", tok)
	}
	return n
}

// genericArgs parses an optional `<A, 'a, 3>` list
func (p *tyParser) genericArgs() []*tyNode {
	if !p.eat("<") {
		return nil
	}
	var args []*tyNode
	for !p.eat(">") {
		args = append(args, p.genericArg())
		if !p.eat(",") {
			p.expect(">")
			break
		}
	}
	return args
}

func (p *tyParser) genericArg() *tyNode {
	tok := p.peek()
	switch {
	case strings.HasPrefix(tok, "'"):
		off := p.offset()
		p.next()
		return &tyNode{kind: tyLifetime, name: tok, off: off, end: p.lastEnd()}
	case tok != "" && unicode.IsDigit(rune(tok[0])):
		off := p.offset()
		return &tyNode{kind: tyConst, n: p.number(), off: off, end: p.lastEnd()}
	}
	return p.ty()
}

func (p *tyParser) number() uint64 {
	tok := p.next()
	n, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		p.failf("expected a number, found %q", tok)
	}
	return n
}

// bound parses `Trait`, `Trait<A>` or the sugar `Trait(A, B) -> C`
func (p *tyParser) bound() *tyNode {
	n := &tyNode{kind: tyPath, off: p.offset()}
	defer func() { n.end = p.lastEnd() }()
	n.name = p.ident()
	if !p.eat("(") {
		n.args = p.genericArgs()
		return n
	}
	n.parenSugar = true
	for !p.eat(")") {
		n.args = append(n.args, p.ty())
		if !p.eat(",") {
			p.expect(")")
			break
		}
	}
	if p.eat("->") {
		n.out = p.ty()
	}
	return n
}

// boundDecl is a where clause: `T: A + B<u8>` or `<T as Tr>::Out == u8`
type boundDecl struct {
	self   *tyNode
	bounds []*tyNode
	// projection equality
	proj *tyNode
	eq   *tyNode
}

func parseBound(src string) (*boundDecl, error) {
	return parse(src, func(p *tyParser) *boundDecl {
		self := p.ty()
		if self.kind == tyProj && p.eat("==") {
			return &boundDecl{proj: self, eq: p.ty()}
		}
		d := &boundDecl{self: self}
		p.expect(":")
		d.bounds = append(d.bounds, p.bound())
		for p.eat("+") {
			d.bounds = append(d.bounds, p.bound())
		}
		return d
	})
}
