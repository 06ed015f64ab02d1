package model

import "strings"

// VisitorID identifies a visitor node in a Model.
type VisitorID int

// NoVisitor marks an absent visitor link.
const NoVisitor VisitorID = -1

// VisitorNode is a dispatch node mirroring a namespace.
type VisitorNode struct {
	ID        VisitorID
	Namespace NamespaceID
	FullName  string
	Parent    VisitorID
	Children  map[string]VisitorID
	// Entities assigned to this node, sorted by name
	Entities []EntityID
	Pruned   bool
}

// ChildNames returns the names of the live children, sorted.
func (v *VisitorNode) ChildNames() []string {
	return sortedKeys(v.Children)
}

// Depth returns the number of dots in the full name.
func (v *VisitorNode) Depth() int {
	return strings.Count(v.FullName, ".")
}
