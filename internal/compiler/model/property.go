package model

import (
	"slices"

	"github.com/conduit-lang/conceptgen/internal/compiler/rawtype"
)

// Wildcard is the name of the catch-all property.
const Wildcard = "*"

// Property is a named, typed member of an entity or trait.
type Property struct {
	Name string
	// RawType is the type expression as declared
	RawType string
	// Parsed is the canonical parsed form of RawType
	Parsed rawtype.RawType
	// Type is the resolved type, NoType until unions are resolved
	Type TypeID
	// UnionRules are the explicitly declared disambiguation rules
	UnionRules []UnionRule
}

// NewProperty creates an unresolved property.
func NewProperty(name, raw string, parsed rawtype.RawType) *Property {
	return &Property{
		Name:    name,
		RawType: raw,
		Parsed:  parsed,
		Type:    NoType,
	}
}

// IsWildcard reports whether this is the catch-all property.
func (p *Property) IsWildcard() bool {
	return p.Name == Wildcard
}

// Canonical returns the canonical form of the parsed type.
func (p *Property) Canonical() string {
	return p.Parsed.String()
}

// SameShape reports whether p and other have the same name, canonical type and rules.
func (p *Property) SameShape(other *Property) bool {
	return p.Name == other.Name &&
		p.Canonical() == other.Canonical() &&
		slices.Equal(p.UnionRules, other.UnionRules)
}

// Clone returns an unresolved copy of p.
func (p *Property) Clone() *Property {
	c := *p
	c.Type = NoType
	c.UnionRules = slices.Clone(p.UnionRules)
	return &c
}

// PropertySet is an insertion-ordered set of properties with unique names.
type PropertySet struct {
	order  []string
	byName map[string]*Property
}

// NewPropertySet creates an empty set.
func NewPropertySet() *PropertySet {
	return &PropertySet{byName: make(map[string]*Property)}
}

// Add appends p. It returns false, leaving the set unchanged, if the name exists.
func (s *PropertySet) Add(p *Property) bool {
	if _, exists := s.byName[p.Name]; exists {
		return false
	}
	s.order = append(s.order, p.Name)
	s.byName[p.Name] = p
	return true
}

// Get returns the property with the given name.
func (s *PropertySet) Get(name string) (*Property, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Has reports whether a property with the given name exists.
func (s *PropertySet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Remove deletes the named property and reports whether it existed.
func (s *PropertySet) Remove(name string) bool {
	if _, ok := s.byName[name]; !ok {
		return false
	}
	delete(s.byName, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true
}

// Len returns the number of properties.
func (s *PropertySet) Len() int {
	return len(s.order)
}

// Names returns the property names in insertion order.
func (s *PropertySet) Names() []string {
	return slices.Clone(s.order)
}

// All returns the properties in insertion order.
func (s *PropertySet) All() []*Property {
	all := make([]*Property, len(s.order))
	for i, name := range s.order {
		all[i] = s.byName[name]
	}
	return all
}
