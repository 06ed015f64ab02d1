// Package model holds the concept graph produced by the pipeline: namespaces,
// entities, traits, resolved types and visitor nodes, stored in an arena and
// linked by integer ids, plus the ConceptIndex used to look them up by name.
package model

import (
	"sort"
	"strings"
)

// NamespaceID identifies a namespace in a Model.
type NamespaceID int

// NoNamespace is the parent of a top-level namespace.
const NoNamespace NamespaceID = -1

// Namespace is a node of the dotted namespace tree.
type Namespace struct {
	ID       NamespaceID
	Name     string
	FullName string
	Parent   NamespaceID
	Children map[string]NamespaceID
	Entities map[string]EntityID
	Traits   map[string]TraitID
}

func newNamespace(id NamespaceID, name string, parent *Namespace) *Namespace {
	ns := &Namespace{
		ID:       id,
		Name:     name,
		FullName: name,
		Parent:   NoNamespace,
		Children: make(map[string]NamespaceID),
		Entities: make(map[string]EntityID),
		Traits:   make(map[string]TraitID),
	}
	if parent != nil {
		ns.Parent = parent.ID
		ns.FullName = parent.FullName + "." + name
	}
	return ns
}

// IsTopLevel reports whether the namespace has no parent.
func (n *Namespace) IsTopLevel() bool {
	return n.Parent == NoNamespace
}

// Depth returns the number of dots in the full name.
func (n *Namespace) Depth() int {
	return strings.Count(n.FullName, ".")
}

// ChildNames returns the names of direct children, sorted.
func (n *Namespace) ChildNames() []string {
	return sortedKeys(n.Children)
}

// EntityNames returns the names of entities declared here, sorted.
func (n *Namespace) EntityNames() []string {
	return sortedKeys(n.Entities)
}

// TraitNames returns the names of traits declared here, sorted.
func (n *Namespace) TraitNames() []string {
	return sortedKeys(n.Traits)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
