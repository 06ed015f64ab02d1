package rawtype

import (
	"fmt"
	"strings"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
)

type frameKind int

const (
	frameRoot frameKind = iota
	frameList
	frameMap
)

// frame is one open nesting level: the top level, or an open '[' or '{'.
type frame struct {
	kind    frameKind
	opened  int
	members []RawType // union members completed before the last '|'
	current RawType   // the term completed since the last '|', if any
	piped   bool      // a '|' was seen at this level
}

func (f *frame) closer() byte {
	if f.kind == frameMap {
		return '}'
	}
	return ']'
}

// Parser parses type expressions. The zero value is ready to use.
type Parser struct {
	input string
	stack []*frame
	start int // start offset of the pending token, -1 if none
}

// Parse parses a type expression into its canonical RawType.
func Parse(input string) (RawType, error) {
	var p Parser
	return p.Parse(input)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(input string) RawType {
	t, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses input. Nesting is tracked on an explicit stack so expression depth
// is not limited by the call stack.
func (p *Parser) Parse(input string) (RawType, error) {
	p.input = input
	p.stack = []*frame{{kind: frameRoot}}
	p.start = -1

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch c {
		case '{', '[':
			if err := p.flushToken(i); err != nil {
				return nil, err
			}
			top := p.top()
			if top.current != nil {
				return nil, p.errorf(cerrors.ErrContainerAfterType, i,
					"'%c' cannot follow '%s' without '|'", c, top.current.String())
			}
			kind := frameList
			if c == '{' {
				kind = frameMap
			}
			p.stack = append(p.stack, &frame{kind: kind, opened: i})

		case '}', ']':
			if err := p.flushToken(i); err != nil {
				return nil, err
			}
			top := p.top()
			if top.kind == frameRoot || top.closer() != c {
				return nil, p.errorf(cerrors.ErrMismatchedClose, i, "unexpected '%c'", c)
			}
			inner, err := p.finish(top, i)
			if err != nil {
				return nil, err
			}
			p.stack = p.stack[:len(p.stack)-1]

			var closed RawType
			if top.kind == frameMap {
				closed = &Map{Value: inner}
			} else {
				closed = &List{Value: inner}
			}
			p.top().current = closed

		case '|':
			if err := p.flushToken(i); err != nil {
				return nil, err
			}
			top := p.top()
			if top.current == nil {
				return nil, p.errorf(cerrors.ErrEmptyUnionMember, i, "missing type before '|'")
			}
			top.members = append(top.members, top.current)
			top.current = nil
			top.piped = true

		default:
			if p.start < 0 {
				p.start = i
			}
		}
	}

	if err := p.flushToken(len(input)); err != nil {
		return nil, err
	}
	if len(p.stack) > 1 {
		open := p.top()
		return nil, p.errorf(cerrors.ErrUnclosedContainer, len(input),
			"'%c' opened at offset %d is never closed", openerOf(open.kind), open.opened)
	}
	return p.finish(p.top(), len(input))
}

// flushToken completes the pending token, if any, ending at offset end.
func (p *Parser) flushToken(end int) error {
	if p.start < 0 {
		return nil
	}
	begin := p.start
	p.start = -1

	token := strings.TrimSpace(p.input[begin:end])
	if token == "" {
		return nil
	}
	top := p.top()
	if top.current != nil {
		return p.errorf(cerrors.ErrTokenAfterContainer, begin,
			"'%s' cannot follow '%s' without '|'", token, top.current.String())
	}
	top.current = Simple{Token: token}
	return nil
}

// finish closes frame f at offset and returns its single type or union.
func (p *Parser) finish(f *frame, offset int) (RawType, error) {
	if f.current == nil {
		if f.piped {
			return nil, p.errorf(cerrors.ErrEmptyUnionMember, offset, "missing type after '|'")
		}
		if f.kind == frameRoot {
			return nil, p.errorf(cerrors.ErrEmptyExpression, offset, "empty type expression")
		}
		return nil, p.errorf(cerrors.ErrEmptyExpression, offset, "empty '%c%c'", openerOf(f.kind), f.closer())
	}
	if len(f.members) == 0 {
		return f.current, nil
	}
	return NewUnion(append(f.members, f.current)...), nil
}

func (p *Parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) errorf(code cerrors.ErrorCode, offset int, format string, args ...any) *cerrors.ParseError {
	return cerrors.NewParseError(code, p.input, offset, fmt.Sprintf(format, args...))
}

func openerOf(kind frameKind) byte {
	if kind == frameMap {
		return '{'
	}
	return '['
}
