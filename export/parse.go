package export

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTurtle reads the Turtle subset this package writes: @prefix
// directives, comments, subject blocks with ';' and ',' lists, prefixed
// names, bracketed IRIs and quoted literals with an optional datatype.
// Terms are returned as written; prefixed names are not expanded, but their
// prefix must have been declared.
func ParseTurtle(text string) ([]Statement, error) {
	p := &turtleParser{src: text, prefixes: make(map[string]string)}
	return p.document()
}

type turtleParser struct {
	src      string
	pos      int
	prefixes map[string]string
}

func (p *turtleParser) document() ([]Statement, error) {
	var out []Statement
	for {
		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		if strings.HasPrefix(p.src[p.pos:], "@prefix") {
			if err := p.prefixDirective(); err != nil {
				return nil, err
			}
			continue
		}
		sts, err := p.block()
		if err != nil {
			return nil, err
		}
		out = append(out, sts...)
	}
}

func (p *turtleParser) prefixDirective() error {
	p.pos += len("@prefix")
	p.skipSpace()
	name := p.name()
	if !strings.HasSuffix(name, ":") {
		return p.errorf("malformed prefix name %q", name)
	}
	p.skipSpace()
	iri, err := p.iri()
	if err != nil {
		return err
	}
	p.skipSpace()
	if !p.consume('.') {
		return p.errorf("expected '.' after prefix %s", name)
	}
	p.prefixes[strings.TrimSuffix(name, ":")] = iri
	return nil
}

// block reads one subject with its predicate-object list.
func (p *turtleParser) block() ([]Statement, error) {
	subject, err := p.node()
	if err != nil {
		return nil, err
	}
	var out []Statement
	for {
		p.skipSpace()
		predicate, err := p.node()
		if err != nil {
			return nil, err
		}
		for {
			p.skipSpace()
			object, err := p.object()
			if err != nil {
				return nil, err
			}
			out = append(out, Statement{Subject: subject, Predicate: predicate, Object: object})
			p.skipSpace()
			if !p.consume(',') {
				break
			}
		}
		switch {
		case p.consume('.'):
			return out, nil
		case p.consume(';'):
			p.skipSpace()
			if p.consume('.') {
				return out, nil
			}
		default:
			return nil, p.errorf("expected ';' or '.' after %s %s", subject, predicate)
		}
	}
}

// node reads a prefixed name, the "a" keyword or a bracketed IRI.
func (p *turtleParser) node() (string, error) {
	if p.peek() == '<' {
		return p.iri()
	}
	name := p.name()
	if name == "" {
		return "", p.errorf("expected a name")
	}
	if name == "a" {
		return name, nil
	}
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return "", p.errorf("%q is not a prefixed name", name)
	}
	if _, ok := p.prefixes[name[:i]]; !ok {
		return "", p.errorf("undeclared prefix %q", name[:i])
	}
	return name, nil
}

func (p *turtleParser) object() (Object, error) {
	if p.peek() != '"' {
		ref, err := p.node()
		if err != nil {
			return Object{}, err
		}
		return Ref(ref), nil
	}
	lexical, err := p.literal()
	if err != nil {
		return Object{}, err
	}
	obj := Object{Lexical: lexical}
	switch {
	case strings.HasPrefix(p.src[p.pos:], "^^"):
		p.pos += 2
		dt, err := p.node()
		if err != nil {
			return Object{}, err
		}
		obj.Datatype = dt
	case p.peek() == '@':
		p.pos++
		p.name()
	}
	return obj, nil
}

func (p *turtleParser) literal() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\n':
			return "", p.errorf("newline in literal")
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.src[p.pos+1]
			p.pos += 2
			switch esc {
			case '\\', '"', '\'':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				if p.pos+4 > len(p.src) {
					return "", p.errorf("short \\u escape")
				}
				r, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
				if err != nil {
					return "", p.errorf("bad \\u escape")
				}
				b.WriteRune(rune(r))
				p.pos += 4
			default:
				return "", p.errorf("unknown escape \\%c", esc)
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated literal")
}

func (p *turtleParser) iri() (string, error) {
	if !p.consume('<') {
		return "", p.errorf("expected '<'")
	}
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		return "", p.errorf("unterminated IRI")
	}
	iri := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	return iri, nil
}

// name reads a bare token. A '.' ends the token when it is followed by
// whitespace or the end of input.
func (p *turtleParser) name() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isSpace(c) || c == ';' || c == ',' || c == '"' || c == '<' || c == '^' {
			break
		}
		if c == '.' && (p.pos+1 >= len(p.src) || isSpace(p.src[p.pos+1])) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *turtleParser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *turtleParser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *turtleParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *turtleParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *turtleParser) errorf(format string, args ...any) error {
	line := strings.Count(p.src[:min(p.pos, len(p.src))], "\n") + 1
	return fmt.Errorf("turtle line %d: %s", line, fmt.Sprintf(format, args...))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
