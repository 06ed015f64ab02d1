package pipeline

import (
	"sort"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/compiler/rawtype"
)

func (p *Pipeline) normalize() error {
	m := p.model
	if err := synthesizeAncestors(m); err != nil {
		return err
	}
	if err := pullUp(m); err != nil {
		return err
	}
	markLeaves(m)
	assignPropertyOrders(m)
	return nil
}

// byDepthDesc sorts namespaces deepest first, then by full name.
func byDepthDesc(nss []*model.Namespace) {
	sort.SliceStable(nss, func(i, j int) bool {
		di, dj := nss[i].Depth(), nss[j].Depth()
		if di != dj {
			return di > dj
		}
		return nss[i].FullName < nss[j].FullName
	})
}

// synthesizeAncestors creates a shared entity P.N wherever two or more child
// subtrees of namespace P declare a topmost entity N and P declares none.
// Namespaces are visited deepest first so nested lineages form level by level.
func synthesizeAncestors(m *model.Model) error {
	nss := m.Namespaces()
	byDepthDesc(nss)

	for _, ns := range nss {
		found := make(map[string][]*model.Entity)
		for _, childName := range ns.ChildNames() {
			child := m.Namespace(ns.Children[childName])
			for name, e := range subtreeTops(m, child) {
				found[name] = append(found[name], e)
			}
		}

		names := make([]string, 0, len(found))
		for name := range found {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			kids := found[name]
			if len(kids) < 2 {
				continue
			}
			if _, exists := ns.Entities[name]; exists {
				continue
			}
			e, err := m.CreateEntity(ns.ID, name)
			if err != nil {
				return err
			}
			e.Synthetic = true
			e.Root = true
			for _, kid := range kids {
				e.Root = e.Root && kid.Root
			}
		}
	}

	linkEntityParents(m)
	return nil
}

// subtreeTops returns, per entity name, the entity declared closest to root
// within root's subtree.
func subtreeTops(m *model.Model, root *model.Namespace) map[string]*model.Entity {
	tops := make(map[string]*model.Entity)
	type item struct {
		ns     *model.Namespace
		shadow map[string]bool
	}
	stack := []item{{ns: root, shadow: map[string]bool{}}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		shadow := it.shadow
		if len(it.ns.Entities) > 0 {
			shadow = make(map[string]bool, len(it.shadow)+len(it.ns.Entities))
			for name := range it.shadow {
				shadow[name] = true
			}
			for _, name := range it.ns.EntityNames() {
				if !it.shadow[name] {
					tops[name] = m.Entity(it.ns.Entities[name])
				}
				shadow[name] = true
			}
		}
		for _, childName := range it.ns.ChildNames() {
			stack = append(stack, item{ns: m.Namespace(it.ns.Children[childName]), shadow: shadow})
		}
	}
	return tops
}

// pullUp moves properties shared by every child of an entity into that entity,
// repeating whole passes until one pass moves nothing. Every move strictly
// lowers the total property count, which bounds the number of passes.
func pullUp(m *model.Model) error {
	total := 0
	for _, e := range m.Entities() {
		total += e.Properties.Len()
	}
	bound := total + 1

	for pass := 0; ; pass++ {
		if pass > bound {
			return cerrors.NewConsistencyError(cerrors.ErrFixpointBound,
				"property pull-up did not converge within %d passes", bound)
		}

		moved := 0
		for _, anc := range pullUpTargets(m) {
			children := m.EntityChildren(anc.ID)
			for _, name := range sharedPropertyNames(children) {
				if pullUpProperty(m, anc, children, name) {
					moved++
				}
			}
		}
		if moved == 0 {
			return nil
		}
	}
}

// pullUpTargets lists entities with at least two children, deepest first.
func pullUpTargets(m *model.Model) []*model.Entity {
	counts := make(map[model.EntityID]int)
	for _, e := range m.Entities() {
		if e.Parent != model.NoEntity {
			counts[e.Parent]++
		}
	}

	var targets []*model.Entity
	for id, n := range counts {
		if n >= 2 {
			targets = append(targets, m.Entity(id))
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		di := m.Namespace(targets[i].Namespace).Depth()
		dj := m.Namespace(targets[j].Namespace).Depth()
		if di != dj {
			return di > dj
		}
		return targets[i].FullName < targets[j].FullName
	})
	return targets
}

// sharedPropertyNames returns the property names every child declares, sorted.
func sharedPropertyNames(children []*model.Entity) []string {
	if len(children) == 0 {
		return nil
	}
	var names []string
	for _, name := range children[0].Properties.Names() {
		shared := true
		for _, c := range children[1:] {
			if !c.Properties.Has(name) {
				shared = false
				break
			}
		}
		if shared {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func pullUpProperty(m *model.Model, anc *model.Entity, children []*model.Entity, name string) bool {
	first, _ := children[0].Properties.Get(name)
	for _, c := range children[1:] {
		prop, _ := c.Properties.Get(name)
		if !first.SameShape(prop) {
			return false
		}
	}
	if !referencesStable(m, anc, children, first) {
		return false
	}
	for _, v := range m.EntityPropertiesFromTraits(anc) {
		if v.Property.Name == name {
			return false
		}
	}

	if existing, ok := anc.Properties.Get(name); ok {
		if !existing.SameShape(first) {
			return false
		}
	} else {
		anc.Properties.Add(first.Clone())
	}
	for _, c := range children {
		c.Properties.Remove(name)
	}
	return true
}

// referencesStable reports whether every entity named by prop resolves to the
// same entity from anc's namespace as from each child's.
func referencesStable(m *model.Model, anc *model.Entity, children []*model.Entity, prop *model.Property) bool {
	for _, ref := range rawtype.References(prop.Parsed) {
		target, ok := m.ResolveEntity(anc.Namespace, ref)
		if !ok {
			return false
		}
		for _, c := range children {
			got, ok := m.ResolveEntity(c.Namespace, ref)
			if !ok || got.ID != target.ID {
				return false
			}
		}
	}
	return true
}

func markLeaves(m *model.Model) {
	entityParents := make(map[model.EntityID]bool)
	for _, e := range m.Entities() {
		entityParents[e.Parent] = true
	}
	for _, e := range m.Entities() {
		e.Leaf = !entityParents[e.ID]
	}

	traitParents := make(map[model.TraitID]bool)
	for _, t := range m.Traits() {
		traitParents[t.Parent] = true
	}
	for _, t := range m.Traits() {
		t.Leaf = !traitParents[t.ID]
	}
}

// assignPropertyOrders registers a comparator for every entity that declares an
// explicit order or inherits one from its lineage.
func assignPropertyOrders(m *model.Model) {
	for _, e := range m.Entities() {
		for _, level := range m.Lineage(e) {
			if len(level.PropertyOrder) > 0 {
				m.Index().SetPropertyOrder(e.FullName, model.NewPropertyOrder(level.PropertyOrder))
				break
			}
		}
	}
}
