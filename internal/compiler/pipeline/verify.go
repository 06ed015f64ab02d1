package pipeline

import (
	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// verify checks the finished model before it is handed out.
func (p *Pipeline) verify() error {
	m := p.model
	checks := []func(*model.Model) error{
		verifyParentChains,
		verifyPropertyTypes,
		verifyTraitReferences,
	}
	for _, check := range checks {
		if err := check(m); err != nil {
			return err
		}
	}
	return nil
}

// acyclic walks next from start and fails if the walk is longer than limit.
func acyclic(kind, name string, start int, next func(int) int, limit int) error {
	steps := 0
	for id := start; id >= 0; id = next(id) {
		steps++
		if steps > limit {
			return cerrors.NewConsistencyError(cerrors.ErrParentCycle, "%s %s has a cyclic parent chain", kind, name)
		}
	}
	return nil
}

func verifyParentChains(m *model.Model) error {
	namespaces := m.Namespaces()
	for _, ns := range namespaces {
		next := func(id int) int { return int(m.Namespace(model.NamespaceID(id)).Parent) }
		if err := acyclic("namespace", ns.FullName, int(ns.ID), next, len(namespaces)); err != nil {
			return err
		}
	}

	entities := m.Entities()
	for _, e := range entities {
		next := func(id int) int { return int(m.Entity(model.EntityID(id)).Parent) }
		if err := acyclic("entity", e.FullName, int(e.ID), next, len(entities)); err != nil {
			return err
		}
	}

	traits := m.Traits()
	for _, t := range traits {
		next := func(id int) int { return int(m.Trait(model.TraitID(id)).Parent) }
		if err := acyclic("trait", t.FullName, int(t.ID), next, len(traits)); err != nil {
			return err
		}
	}

	types := m.Types()
	for _, t := range types {
		if model.CompositeOf(t) == nil {
			continue
		}
		next := func(id int) int { return int(model.CompositeOf(m.Type(model.TypeID(id))).Parent) }
		if err := acyclic("type", t.Key(), int(t.ID()), next, len(types)); err != nil {
			return err
		}
	}

	visitors := m.Visitors()
	for _, v := range visitors {
		next := func(id int) int { return int(m.Visitor(model.VisitorID(id)).Parent) }
		if err := acyclic("visitor", v.FullName, int(v.ID), next, len(visitors)); err != nil {
			return err
		}
	}
	return nil
}

func verifyPropertyTypes(m *model.Model) error {
	check := func(node *model.Node) error {
		for _, prop := range node.Properties.All() {
			if prop.Type == model.NoType || m.Type(prop.Type) == nil {
				err := cerrors.NewConsistencyError(cerrors.ErrUnresolvedType, "property has no resolved type")
				err.WithOwner(m.Namespace(node.Namespace).FullName, node.FullName).WithProperty(prop.Name)
				return err
			}
		}
		return nil
	}
	for _, e := range m.Entities() {
		if err := check(&e.Node); err != nil {
			return err
		}
	}
	for _, t := range m.Traits() {
		if err := check(&t.Node); err != nil {
			return err
		}
	}
	return nil
}

// verifyTraitReferences fails if a removed trait is still indexed or composed.
func verifyTraitReferences(m *model.Model) error {
	for _, e := range m.Entities() {
		for _, tid := range e.Traits {
			t := m.Trait(tid)
			if t == nil || t.Removed {
				return cerrors.NewConsistencyError(cerrors.ErrDanglingReference,
					"entity %s composes removed trait %d", e.FullName, tid)
			}
		}
	}
	for _, t := range m.Index().FindTraits("") {
		if t.Removed {
			return cerrors.NewConsistencyError(cerrors.ErrDanglingReference,
				"removed trait %s is still indexed", t.FullName)
		}
	}
	return nil
}
