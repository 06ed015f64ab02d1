// Package spec holds the deserialized specification declarations consumed by the
// concept-model pipeline, and loads them from YAML files.
package spec

import "sort"

// Specification is one independently versioned specification.
type Specification struct {
	Name     string     `yaml:"name"`
	Versions []*Version `yaml:"versions"`

	// Source is the file the specification was loaded from, if any
	Source string `yaml:"-"`
}

// Version is one version of a specification. Its entities and traits live in Namespace.
type Version struct {
	Name      string        `yaml:"version"`
	Namespace string        `yaml:"namespace"`
	Entities  []*EntityDecl `yaml:"entities"`
	Traits    []*TraitDecl  `yaml:"traits"`
}

// EntityDecl declares an entity.
type EntityDecl struct {
	Name string `yaml:"name"`
	// Root marks the topmost entity of the version
	Root bool `yaml:"root"`
	// Traits lists the names of composed traits
	Traits        []string        `yaml:"traits"`
	PropertyOrder []string        `yaml:"propertyOrder"`
	Properties    []*PropertyDecl `yaml:"properties"`
}

// TraitDecl declares a trait.
type TraitDecl struct {
	Name        string          `yaml:"name"`
	Transparent bool            `yaml:"transparent"`
	Properties  []*PropertyDecl `yaml:"properties"`
}

// PropertyDecl declares a property with a raw type expression.
type PropertyDecl struct {
	Name       string           `yaml:"name"`
	Type       string           `yaml:"type"`
	UnionRules []*UnionRuleDecl `yaml:"unionRules"`
}

// UnionRuleDecl declares how to recognize one branch of a union property.
type UnionRuleDecl struct {
	Branch   string `yaml:"branch"`
	Rule     string `yaml:"rule"`
	Property string `yaml:"property"`
	Value    string `yaml:"value"`
}

// Registry is the read-only set of specifications for one generation run.
type Registry struct {
	specs []*Specification
}

// NewRegistry creates a registry holding specs.
func NewRegistry(specs ...*Specification) *Registry {
	r := &Registry{}
	for _, s := range specs {
		r.Add(s)
	}
	return r
}

// Add appends a specification.
func (r *Registry) Add(s *Specification) {
	r.specs = append(r.specs, s)
}

// Specifications returns the specifications sorted by name. Versions keep their
// declared order.
func (r *Registry) Specifications() []*Specification {
	out := append([]*Specification(nil), r.specs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// VersionEntry pairs a version with its specification.
type VersionEntry struct {
	Specification *Specification
	Version       *Version
}

// Versions returns every version of every specification in registry order.
func (r *Registry) Versions() []VersionEntry {
	var out []VersionEntry
	for _, s := range r.Specifications() {
		for _, v := range s.Versions {
			out = append(out, VersionEntry{Specification: s, Version: v})
		}
	}
	return out
}

// Len returns the number of specifications.
func (r *Registry) Len() int {
	return len(r.specs)
}
