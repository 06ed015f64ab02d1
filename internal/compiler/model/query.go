package model

import (
	"slices"
	"sort"
)

// Origin identifies where a listed property is declared: an entity or a trait.
type Origin struct {
	Entity *Entity
	Trait  *Trait
}

// FullName returns the full name of the declaring node.
func (o Origin) FullName() string {
	if o.Trait != nil {
		return o.Trait.FullName
	}
	if o.Entity != nil {
		return o.Entity.FullName
	}
	return ""
}

// IsTrait reports whether the property was donated by a trait.
func (o Origin) IsTrait() bool {
	return o.Trait != nil
}

// PropertyView is a property as seen from an entity, with its origin.
type PropertyView struct {
	Property *Property
	Origin   Origin
}

// AllEntityProperties returns every property of e: its own, those inherited from
// its parent chain, and those donated by composed traits anywhere on that chain.
// On a name clash the most specific declaration wins. The result is sorted with
// the entity's property comparator.
func (m *Model) AllEntityProperties(e *Entity) []PropertyView {
	var views []PropertyView
	seen := make(map[string]bool)

	for _, level := range m.Lineage(e) {
		for _, p := range level.Properties.All() {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			views = append(views, PropertyView{Property: p, Origin: Origin{Entity: level}})
		}
		for _, v := range m.traitProperties(level) {
			if seen[v.Property.Name] {
				continue
			}
			seen[v.Property.Name] = true
			views = append(views, v)
		}
	}

	m.sortViews(e, views)
	return views
}

// EntityPropertiesFromTraits returns the properties donated to e by the live
// traits composed anywhere on its parent chain, sorted with the entity's comparator.
func (m *Model) EntityPropertiesFromTraits(e *Entity) []PropertyView {
	var views []PropertyView
	seen := make(map[string]bool)

	for _, level := range m.Lineage(e) {
		for _, v := range m.traitProperties(level) {
			if seen[v.Property.Name] {
				continue
			}
			seen[v.Property.Name] = true
			views = append(views, v)
		}
	}

	m.sortViews(e, views)
	return views
}

// traitProperties lists the properties donated by the traits composed directly by
// e, walking each trait's parent chain. Within one chain the most specific wins.
func (m *Model) traitProperties(e *Entity) []PropertyView {
	var views []PropertyView
	seen := make(map[string]bool)
	for _, tid := range e.Traits {
		t := m.Trait(tid)
		if t == nil || t.Removed {
			continue
		}
		for _, level := range m.TraitChain(t) {
			for _, p := range level.Properties.All() {
				if seen[p.Name] {
					continue
				}
				seen[p.Name] = true
				views = append(views, PropertyView{Property: p, Origin: Origin{Trait: level}})
			}
		}
	}
	return views
}

func (m *Model) sortViews(e *Entity, views []PropertyView) {
	order := m.index.PropertyOrder(e.FullName)
	slices.SortStableFunc(views, func(a, b PropertyView) int {
		return order.Compare(a.Property.Name, b.Property.Name)
	})
}

// CollectNestedTypes returns the non-primitive types nested inside t. With shallow
// set only the direct members of a list, map or union are considered; otherwise
// every list, map and union member is descended into recursively. Entity types are
// collected but not descended into. Each type appears once, sorted by key.
func (m *Model) CollectNestedTypes(t Type, shallow bool) []Type {
	seen := make(map[TypeID]bool)
	var out []Type

	work := slices.Clone(directMembers(t))
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		nested := m.Type(id)
		if nested == nil {
			continue
		}
		if nested.Kind() != KindPrimitive {
			out = append(out, nested)
		}
		if !shallow {
			work = append(work, directMembers(nested)...)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
