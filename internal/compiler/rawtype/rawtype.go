// Package rawtype implements the type-expression language used by property
// declarations. A type expression is parsed into a RawType: a canonical tree of
// simple tokens, lists, maps and unions that still refers to entities by name.
package rawtype

import (
	"slices"
	"sort"
	"strings"
)

// RawType is a parsed, unresolved type expression. Implementations are Simple,
// *List, *Map and *Union. Two RawTypes are identical iff their String forms are equal.
type RawType interface {
	// String returns the canonical textual form
	String() string

	rawType()
}

// Primitive names. The set is closed.
const (
	PrimitiveString  = "string"
	PrimitiveBoolean = "boolean"
	PrimitiveNumber  = "number"
	PrimitiveInteger = "integer"
	PrimitiveObject  = "object"
	PrimitiveAny     = "any"
)

var primitives = map[string]bool{
	PrimitiveString:  true,
	PrimitiveBoolean: true,
	PrimitiveNumber:  true,
	PrimitiveInteger: true,
	PrimitiveObject:  true,
	PrimitiveAny:     true,
}

// IsPrimitive reports whether token names a primitive type.
func IsPrimitive(token string) bool {
	return primitives[token]
}

// Simple is a single token: a primitive name or an entity reference.
type Simple struct {
	Token string
}

func (Simple) rawType() {}

func (s Simple) String() string { return s.Token }

// IsPrimitive reports whether the token names a primitive type.
func (s Simple) IsPrimitive() bool { return IsPrimitive(s.Token) }

// List is a homogeneous list, written [T].
type List struct {
	Value RawType
}

func (*List) rawType() {}

func (l *List) String() string { return "[" + l.Value.String() + "]" }

// Map is a string-keyed map, written {T}.
type Map struct {
	Value RawType
}

func (*Map) rawType() {}

func (m *Map) String() string { return "{" + m.Value.String() + "}" }

// Union is a set of alternatives, written a|b|c. Members are kept sorted by
// their canonical form and never contain another Union directly.
type Union struct {
	Members []RawType
}

func (*Union) rawType() {}

func (u *Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

// Member returns the member whose canonical form is branch.
func (u *Union) Member(branch string) (RawType, bool) {
	for _, m := range u.Members {
		if m.String() == branch {
			return m, true
		}
	}
	return nil, false
}

// NewUnion builds a canonical union from members: nested unions are flattened,
// duplicates removed and members sorted. A single surviving member is returned as is.
func NewUnion(members ...RawType) RawType {
	flat := make([]RawType, 0, len(members))
	for _, m := range members {
		if u, ok := m.(*Union); ok {
			flat = append(flat, u.Members...)
			continue
		}
		flat = append(flat, m)
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].String() < flat[j].String()
	})
	flat = slices.CompactFunc(flat, func(a, b RawType) bool {
		return a.String() == b.String()
	})

	if len(flat) == 1 {
		return flat[0]
	}
	return &Union{Members: flat}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b RawType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// Canonicalize returns the canonical form of t, re-sorting every union at every
// depth. Values produced by Parse are already canonical.
func Canonicalize(t RawType) RawType {
	switch v := t.(type) {
	case Simple:
		return v
	case *List:
		return &List{Value: Canonicalize(v.Value)}
	case *Map:
		return &Map{Value: Canonicalize(v.Value)}
	case *Union:
		members := make([]RawType, len(v.Members))
		for i, m := range v.Members {
			members[i] = Canonicalize(m)
		}
		return NewUnion(members...)
	default:
		return t
	}
}

// References returns the sorted, de-duplicated entity names referenced by t.
func References(t RawType) []string {
	seen := make(map[string]bool)
	stack := []RawType{t}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := top.(type) {
		case Simple:
			if !v.IsPrimitive() {
				seen[v.Token] = true
			}
		case *List:
			stack = append(stack, v.Value)
		case *Map:
			stack = append(stack, v.Value)
		case *Union:
			stack = append(stack, v.Members...)
		}
	}

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}
