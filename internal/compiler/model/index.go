package model

import (
	"slices"
	"strings"
)

// prefixTable maps full names to values and keeps the names sorted so that all
// names sharing a prefix form one contiguous run.
type prefixTable[V any] struct {
	items map[string]V
	keys  []string
}

func newPrefixTable[V any]() prefixTable[V] {
	return prefixTable[V]{items: make(map[string]V)}
}

func (t *prefixTable[V]) put(key string, v V) {
	if _, exists := t.items[key]; !exists {
		i, _ := slices.BinarySearch(t.keys, key)
		t.keys = slices.Insert(t.keys, i, key)
	}
	t.items[key] = v
}

func (t *prefixTable[V]) get(key string) (V, bool) {
	v, ok := t.items[key]
	return v, ok
}

func (t *prefixTable[V]) remove(key string) {
	if _, exists := t.items[key]; !exists {
		return
	}
	delete(t.items, key)
	if i, found := slices.BinarySearch(t.keys, key); found {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
}

func (t *prefixTable[V]) withPrefix(prefix string) []V {
	start, _ := slices.BinarySearch(t.keys, prefix)
	var out []V
	for _, key := range t.keys[start:] {
		if !strings.HasPrefix(key, prefix) {
			break
		}
		out = append(out, t.items[key])
	}
	return out
}

func (t *prefixTable[V]) len() int {
	return len(t.keys)
}

// Index is the ConceptIndex: name and prefix lookups over the nodes of a Model,
// plus the per-entity property comparators. It owns no nodes itself.
type Index struct {
	namespaces prefixTable[*Namespace]
	entities   prefixTable[*Entity]
	traits     prefixTable[*Trait]
	visitors   prefixTable[*VisitorNode]
	orders     map[string]*PropertyOrder
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		namespaces: newPrefixTable[*Namespace](),
		entities:   newPrefixTable[*Entity](),
		traits:     newPrefixTable[*Trait](),
		visitors:   newPrefixTable[*VisitorNode](),
		orders:     make(map[string]*PropertyOrder),
	}
}

// LookupNamespace finds a namespace by full name.
func (x *Index) LookupNamespace(fullName string) (*Namespace, bool) {
	return x.namespaces.get(fullName)
}

// FindNamespaces returns namespaces whose full name starts with prefix, sorted.
func (x *Index) FindNamespaces(prefix string) []*Namespace {
	return x.namespaces.withPrefix(prefix)
}

// LookupEntity finds an entity by full name.
func (x *Index) LookupEntity(fullName string) (*Entity, bool) {
	return x.entities.get(fullName)
}

// FindEntities returns entities whose full name starts with prefix, sorted.
func (x *Index) FindEntities(prefix string) []*Entity {
	return x.entities.withPrefix(prefix)
}

// LookupTrait finds a trait by full name.
func (x *Index) LookupTrait(fullName string) (*Trait, bool) {
	return x.traits.get(fullName)
}

// FindTraits returns traits whose full name starts with prefix, sorted.
func (x *Index) FindTraits(prefix string) []*Trait {
	return x.traits.withPrefix(prefix)
}

// LookupVisitor finds a visitor node by the full name of its namespace.
func (x *Index) LookupVisitor(fullName string) (*VisitorNode, bool) {
	return x.visitors.get(fullName)
}

// FindVisitors returns visitor nodes whose full name starts with prefix, sorted.
func (x *Index) FindVisitors(prefix string) []*VisitorNode {
	return x.visitors.withPrefix(prefix)
}

// SetPropertyOrder registers the comparator for an entity.
func (x *Index) SetPropertyOrder(entity string, order *PropertyOrder) {
	x.orders[entity] = order
}

// PropertyOrder returns the comparator for an entity. Entities without a
// registered comparator sort alphabetically with the wildcard last.
func (x *Index) PropertyOrder(entity string) *PropertyOrder {
	if order, ok := x.orders[entity]; ok {
		return order
	}
	return NewPropertyOrder(nil)
}

// Counts returns the number of indexed namespaces, entities, traits and visitors.
func (x *Index) Counts() (namespaces, entities, traits, visitors int) {
	return x.namespaces.len(), x.entities.len(), x.traits.len(), x.visitors.len()
}

func (x *Index) addNamespace(ns *Namespace)   { x.namespaces.put(ns.FullName, ns) }
func (x *Index) addEntity(e *Entity)          { x.entities.put(e.FullName, e) }
func (x *Index) addTrait(t *Trait)            { x.traits.put(t.FullName, t) }
func (x *Index) removeTrait(t *Trait)         { x.traits.remove(t.FullName) }
func (x *Index) addVisitor(v *VisitorNode)    { x.visitors.put(v.FullName, v) }
func (x *Index) removeVisitor(v *VisitorNode) { x.visitors.remove(v.FullName) }
