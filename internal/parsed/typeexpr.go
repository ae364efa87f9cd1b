package parsed

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

type TypeExprKind uint8

const (
	TypeNamed TypeExprKind = iota
	TypeTuple
	TypeArray
	TypeStrArray
	// TypeResolved carries a handle interned before checking. Only code
	// synthesis produces it.
	TypeResolved
)

// TypeExpr is a type as written in source.
type TypeExpr struct {
	Kind     TypeExprKind
	Name     string
	Args     []TypeExpr
	Len      uint32
	Resolved types.TypeID
	Span     source.Span
}

func Named(name string, args ...TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeNamed, Name: name, Args: args, Span: source.NoSpan}
}

func TupleOf(elems ...TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeTuple, Args: elems, Span: source.NoSpan}
}

func ResolvedType(id types.TypeID) TypeExpr {
	return TypeExpr{Kind: TypeResolved, Resolved: id, Span: source.NoSpan}
}

func UnitType() TypeExpr {
	return TupleOf()
}

func (t TypeExpr) String() string {
	switch t.Kind {
	case TypeTuple:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeArray:
		return fmt.Sprintf("[%s; %d]", t.Args[0], t.Len)
	case TypeStrArray:
		return fmt.Sprintf("str[%d]", t.Len)
	case TypeResolved:
		return fmt.Sprintf("#%d", t.Resolved)
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

// ParseTypeExpr parses the textual type syntax:
//
//	u64  bool  str  str[4]  (u64, bool)  (u64,)  ()  [u8; 3]  Node<T>
//
// Every produced node carries sp.
func ParseTypeExpr(text string, sp source.Span) (TypeExpr, error) {
	p := &typeParser{src: text, span: sp}
	t, err := p.parseType()
	if err != nil {
		return TypeExpr{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeExpr{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src  string
	pos  int
	span source.Span
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if c == '_' || c == ':' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) number() (uint32, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseUint(p.src[start:p.pos], 10, 32)
	if err != nil {
		return 0, p.errorf("bad length: %v", err)
	}
	return uint32(n), nil
}

func (p *typeParser) parseType() (TypeExpr, error) {
	switch p.peek() {
	case '(':
		return p.parseTuple()
	case '[':
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		if err := p.expect(';'); err != nil {
			return TypeExpr{}, err
		}
		n, err := p.number()
		if err != nil {
			return TypeExpr{}, err
		}
		if err := p.expect(']'); err != nil {
			return TypeExpr{}, err
		}
		return TypeExpr{Kind: TypeArray, Args: []TypeExpr{elem}, Len: n, Span: p.span}, nil
	}
	name := p.ident()
	if name == "" {
		return TypeExpr{}, p.errorf("expected a type")
	}
	if name == "str" && p.peek() == '[' {
		p.pos++
		n, err := p.number()
		if err != nil {
			return TypeExpr{}, err
		}
		if err := p.expect(']'); err != nil {
			return TypeExpr{}, err
		}
		return TypeExpr{Kind: TypeStrArray, Len: n, Span: p.span}, nil
	}
	t := TypeExpr{Kind: TypeNamed, Name: name, Span: p.span}
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parseType()
			if err != nil {
				return TypeExpr{}, err
			}
			t.Args = append(t.Args, arg)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect('>'); err != nil {
			return TypeExpr{}, err
		}
	}
	return t, nil
}

func (p *typeParser) parseTuple() (TypeExpr, error) {
	p.pos++ // (
	t := TypeExpr{Kind: TypeTuple, Span: p.span}
	trailingComma := false
	for p.peek() != ')' {
		elem, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		t.Args = append(t.Args, elem)
		trailingComma = false
		if p.peek() == ',' {
			p.pos++
			trailingComma = true
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return TypeExpr{}, err
	}
	if len(t.Args) == 1 && !trailingComma {
		return t.Args[0], nil
	}
	return t, nil
}
