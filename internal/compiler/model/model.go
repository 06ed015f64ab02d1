package model

import (
	"fmt"
	"sort"
)

// Model is the arena owning every node of one generation run. Relationships
// between nodes are stored as ids; the Index provides name lookups.
//
// A Model is mutated by a single goroutine at a time.
type Model struct {
	index      *Index
	namespaces []*Namespace
	entities   []*Entity
	traits     []*Trait
	types      []Type
	typeKeys   map[string]TypeID
	visitors   []*VisitorNode
}

// New creates an empty model.
func New() *Model {
	return &Model{
		index:    NewIndex(),
		typeKeys: make(map[string]TypeID),
	}
}

// Index returns the ConceptIndex of the model.
func (m *Model) Index() *Index {
	return m.index
}

// Namespace returns the namespace with the given id, or nil.
func (m *Model) Namespace(id NamespaceID) *Namespace {
	if id < 0 || int(id) >= len(m.namespaces) {
		return nil
	}
	return m.namespaces[id]
}

// Entity returns the entity with the given id, or nil.
func (m *Model) Entity(id EntityID) *Entity {
	if id < 0 || int(id) >= len(m.entities) {
		return nil
	}
	return m.entities[id]
}

// Trait returns the trait with the given id, or nil. Removed traits are still
// returned; check Removed.
func (m *Model) Trait(id TraitID) *Trait {
	if id < 0 || int(id) >= len(m.traits) {
		return nil
	}
	return m.traits[id]
}

// Type returns the type with the given id, or nil.
func (m *Model) Type(id TypeID) Type {
	if id < 0 || int(id) >= len(m.types) {
		return nil
	}
	return m.types[id]
}

// Visitor returns the visitor node with the given id, or nil.
func (m *Model) Visitor(id VisitorID) *VisitorNode {
	if id < 0 || int(id) >= len(m.visitors) {
		return nil
	}
	return m.visitors[id]
}

// CreateNamespace adds a namespace named name under parent (NoNamespace for a
// top-level namespace) and registers it in the index.
func (m *Model) CreateNamespace(name string, parent NamespaceID) *Namespace {
	var p *Namespace
	if parent != NoNamespace {
		p = m.Namespace(parent)
	}
	ns := newNamespace(NamespaceID(len(m.namespaces)), name, p)
	m.namespaces = append(m.namespaces, ns)
	if p != nil {
		p.Children[name] = ns.ID
	}
	m.index.addNamespace(ns)
	return ns
}

// CreateEntity adds an entity to a namespace. It fails if the namespace already
// declares an entity with that name.
func (m *Model) CreateEntity(nsID NamespaceID, name string) (*Entity, error) {
	ns := m.Namespace(nsID)
	if ns == nil {
		return nil, fmt.Errorf("unknown namespace id %d", nsID)
	}
	if _, exists := ns.Entities[name]; exists {
		return nil, fmt.Errorf("entity %s.%s already exists", ns.FullName, name)
	}
	e := &Entity{
		Node: Node{
			Namespace:  nsID,
			Name:       name,
			FullName:   ns.FullName + "." + name,
			Properties: NewPropertySet(),
			Leaf:       true,
		},
		ID:     EntityID(len(m.entities)),
		Parent: NoEntity,
	}
	m.entities = append(m.entities, e)
	ns.Entities[name] = e.ID
	m.index.addEntity(e)
	return e, nil
}

// CreateTrait adds a trait to a namespace. It fails if the namespace already
// declares a trait with that name.
func (m *Model) CreateTrait(nsID NamespaceID, name string) (*Trait, error) {
	ns := m.Namespace(nsID)
	if ns == nil {
		return nil, fmt.Errorf("unknown namespace id %d", nsID)
	}
	if _, exists := ns.Traits[name]; exists {
		return nil, fmt.Errorf("trait %s.%s already exists", ns.FullName, name)
	}
	t := &Trait{
		Node: Node{
			Namespace:  nsID,
			Name:       name,
			FullName:   ns.FullName + "." + name,
			Properties: NewPropertySet(),
			Leaf:       true,
		},
		ID:     TraitID(len(m.traits)),
		Parent: NoTrait,
	}
	m.traits = append(m.traits, t)
	ns.Traits[name] = t.ID
	m.index.addTrait(t)
	return t, nil
}

// RemoveTrait detaches a trait from its namespace and the index. Traits whose
// parent was the removed trait are re-linked to its parent. Removing a trait
// twice is a no-op.
func (m *Model) RemoveTrait(id TraitID) {
	t := m.Trait(id)
	if t == nil || t.Removed {
		return
	}
	t.Removed = true
	if ns := m.Namespace(t.Namespace); ns != nil {
		delete(ns.Traits, t.Name)
	}
	m.index.removeTrait(t)

	for _, other := range m.traits {
		if !other.Removed && other.Parent == id {
			other.Parent = t.Parent
		}
	}
	for _, e := range m.entities {
		kept := e.Traits[:0]
		for _, tid := range e.Traits {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		e.Traits = kept
	}
}

// InternType returns the type registered under key, creating it with build if
// absent. The boolean reports whether the type was created.
func (m *Model) InternType(key string, build func(id TypeID) Type) (Type, bool) {
	if id, ok := m.typeKeys[key]; ok {
		return m.types[id], false
	}
	id := TypeID(len(m.types))
	t := build(id)
	m.types = append(m.types, t)
	m.typeKeys[key] = id
	return t, true
}

// LookupType finds a type by its key.
func (m *Model) LookupType(key string) (Type, bool) {
	id, ok := m.typeKeys[key]
	if !ok {
		return nil, false
	}
	return m.types[id], true
}

// CreateVisitor adds a visitor node mirroring a namespace and registers it in the index.
func (m *Model) CreateVisitor(nsID NamespaceID, parent VisitorID) *VisitorNode {
	ns := m.Namespace(nsID)
	v := &VisitorNode{
		ID:        VisitorID(len(m.visitors)),
		Namespace: nsID,
		FullName:  ns.FullName,
		Parent:    parent,
		Children:  make(map[string]VisitorID),
	}
	m.visitors = append(m.visitors, v)
	if p := m.Visitor(parent); p != nil {
		p.Children[ns.Name] = v.ID
	}
	m.index.addVisitor(v)
	return v
}

// PruneVisitor detaches a visitor node from its parent and the index.
func (m *Model) PruneVisitor(id VisitorID) {
	v := m.Visitor(id)
	if v == nil || v.Pruned {
		return
	}
	v.Pruned = true
	if p := m.Visitor(v.Parent); p != nil {
		delete(p.Children, m.Namespace(v.Namespace).Name)
	}
	m.index.removeVisitor(v)
}

// Namespaces returns every namespace sorted by full name.
func (m *Model) Namespaces() []*Namespace {
	out := append([]*Namespace(nil), m.namespaces...)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// Entities returns every entity sorted by full name.
func (m *Model) Entities() []*Entity {
	out := append([]*Entity(nil), m.entities...)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// Traits returns every trait that has not been removed, sorted by full name.
func (m *Model) Traits() []*Trait {
	out := make([]*Trait, 0, len(m.traits))
	for _, t := range m.traits {
		if !t.Removed {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// Types returns every type in creation order.
func (m *Model) Types() []Type {
	return append([]Type(nil), m.types...)
}

// Visitors returns every visitor node that has not been pruned, sorted by full name.
func (m *Model) Visitors() []*VisitorNode {
	out := make([]*VisitorNode, 0, len(m.visitors))
	for _, v := range m.visitors {
		if !v.Pruned {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// ResolveEntity finds the entity named name in namespace from or the nearest
// ancestor namespace declaring one.
func (m *Model) ResolveEntity(from NamespaceID, name string) (*Entity, bool) {
	for ns := m.Namespace(from); ns != nil; ns = m.Namespace(ns.Parent) {
		if id, ok := ns.Entities[name]; ok {
			return m.entities[id], true
		}
	}
	return nil, false
}

// ResolveTrait finds the trait named name in namespace from or the nearest
// ancestor namespace declaring one.
func (m *Model) ResolveTrait(from NamespaceID, name string) (*Trait, bool) {
	for ns := m.Namespace(from); ns != nil; ns = m.Namespace(ns.Parent) {
		if id, ok := ns.Traits[name]; ok {
			return m.traits[id], true
		}
	}
	return nil, false
}

// EntityChildren returns the entities whose parent is id, sorted by full name.
func (m *Model) EntityChildren(id EntityID) []*Entity {
	var out []*Entity
	for _, e := range m.entities {
		if e.Parent == id && e.ID != id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// Lineage returns e followed by its parent chain, most specific first.
func (m *Model) Lineage(e *Entity) []*Entity {
	out := []*Entity{e}
	seen := map[EntityID]bool{e.ID: true}
	for p := m.Entity(e.Parent); p != nil && !seen[p.ID]; p = m.Entity(p.Parent) {
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// TraitChain returns t followed by its live parent chain, most specific first.
func (m *Model) TraitChain(t *Trait) []*Trait {
	out := []*Trait{t}
	seen := map[TraitID]bool{t.ID: true}
	for p := m.Trait(t.Parent); p != nil && !seen[p.ID]; p = m.Trait(p.Parent) {
		seen[p.ID] = true
		if !p.Removed {
			out = append(out, p)
		}
	}
	return out
}
