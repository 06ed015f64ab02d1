package model

import (
	"github.com/conduit-lang/conceptgen/internal/compiler/rawtype"
)

// TypeID identifies a resolved type in a Model.
type TypeID int

// NoType marks an unresolved or absent type.
const NoType TypeID = -1

// Kind tags the variants of Type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindEntity
	KindList
	KindMap
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEntity:
		return "entity"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Type is a resolved, graph-aware type. The variants are *PrimitiveType,
// *EntityType, *ListType, *MapType and *UnionType; the set is closed.
type Type interface {
	ID() TypeID
	// Key is the deduplication key: equal keys denote the same type
	Key() string
	// Raw is the canonical raw form the type was resolved from
	Raw() rawtype.RawType
	Kind() Kind

	isType()
}

type header struct {
	id  TypeID
	key string
	raw rawtype.RawType
}

func (h *header) ID() TypeID           { return h.id }
func (h *header) Key() string          { return h.key }
func (h *header) Raw() rawtype.RawType { return h.raw }
func (*header) isType()                {}

func newHeader(id TypeID, key string, raw rawtype.RawType) header {
	return header{id: id, key: key, raw: raw}
}

// Composite holds the attributes every non-primitive type carries.
type Composite struct {
	Namespace NamespaceID
	Name      string
	Leaf      bool
	Root      bool
	// Parent is the same-named type one namespace level less specific
	Parent TypeID
}

// PrimitiveType is one of the closed set of primitive names.
type PrimitiveType struct {
	header
	Name string
}

// Kind implements Type.
func (*PrimitiveType) Kind() Kind { return KindPrimitive }

// EntityType wraps an entity.
type EntityType struct {
	header
	Composite
	Entity EntityID
}

// Kind implements Type.
func (*EntityType) Kind() Kind { return KindEntity }

// ListType is a list of Value.
type ListType struct {
	header
	Composite
	Value TypeID
}

// Kind implements Type.
func (*ListType) Kind() Kind { return KindList }

// MapType maps string keys to Value.
type MapType struct {
	header
	Composite
	Value TypeID
}

// Kind implements Type.
func (*MapType) Kind() Kind { return KindMap }

// KeyType returns the primitive name of the map key, which is always string.
func (*MapType) KeyType() string { return rawtype.PrimitiveString }

// UnionType is a set of alternatives with optional disambiguation rules.
type UnionType struct {
	header
	Composite
	// Members follow the canonical order of the raw union
	Members []TypeID
	Rules   []UnionRule
}

// Kind implements Type.
func (*UnionType) Kind() Kind { return KindUnion }

// RuleFor returns the rule for the member whose raw form is branch.
func (u *UnionType) RuleFor(branch rawtype.RawType) (UnionRule, bool) {
	want := branch.String()
	for _, r := range u.Rules {
		if r.Branch == want {
			return r, true
		}
	}
	return UnionRule{}, false
}

// NewPrimitiveType creates a primitive type.
func NewPrimitiveType(id TypeID, key, name string) *PrimitiveType {
	return &PrimitiveType{header: newHeader(id, key, rawtype.Simple{Token: name}), Name: name}
}

// NewEntityType creates an entity type.
func NewEntityType(id TypeID, key string, raw rawtype.RawType, info Composite, entity EntityID) *EntityType {
	return &EntityType{header: newHeader(id, key, raw), Composite: info, Entity: entity}
}

// NewListType creates a list type.
func NewListType(id TypeID, key string, raw rawtype.RawType, info Composite, value TypeID) *ListType {
	return &ListType{header: newHeader(id, key, raw), Composite: info, Value: value}
}

// NewMapType creates a map type.
func NewMapType(id TypeID, key string, raw rawtype.RawType, info Composite, value TypeID) *MapType {
	return &MapType{header: newHeader(id, key, raw), Composite: info, Value: value}
}

// NewUnionType creates a union type.
func NewUnionType(id TypeID, key string, raw rawtype.RawType, info Composite, members []TypeID, rules []UnionRule) *UnionType {
	return &UnionType{header: newHeader(id, key, raw), Composite: info, Members: members, Rules: rules}
}

// CompositeOf returns the composite attributes of t, or nil for primitives.
func CompositeOf(t Type) *Composite {
	switch v := t.(type) {
	case *PrimitiveType:
		return nil
	case *EntityType:
		return &v.Composite
	case *ListType:
		return &v.Composite
	case *MapType:
		return &v.Composite
	case *UnionType:
		return &v.Composite
	default:
		panic("model: unknown type variant")
	}
}

// directMembers returns the types nested one level inside t.
func directMembers(t Type) []TypeID {
	switch v := t.(type) {
	case *PrimitiveType, *EntityType:
		return nil
	case *ListType:
		return []TypeID{v.Value}
	case *MapType:
		return []TypeID{v.Value}
	case *UnionType:
		return v.Members
	default:
		panic("model: unknown type variant")
	}
}
