package pipeline

import (
	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// compose checks trait composition, merges transparent traits into the entities
// that compose them and then removes the transparent traits.
func (p *Pipeline) compose() error {
	m := p.model
	entities := m.Entities()

	for _, e := range entities {
		if err := checkComposition(m, e); err != nil {
			return err
		}
	}

	for _, e := range entities {
		for _, tid := range e.Traits {
			t := m.Trait(tid)
			if !t.Transparent {
				continue
			}
			for _, level := range m.TraitChain(t) {
				for _, prop := range level.Properties.All() {
					e.Properties.Add(prop.Clone())
				}
			}
		}
	}

	// A kept trait whose chain runs through a transparent trait absorbs the
	// transparent levels before they disappear.
	traits := m.Traits()
	for _, t := range traits {
		if t.Transparent {
			continue
		}
		for _, level := range m.TraitChain(t)[1:] {
			if !level.Transparent {
				continue
			}
			for _, prop := range level.Properties.All() {
				t.Properties.Add(prop.Clone())
			}
		}
	}

	for _, t := range traits {
		if t.Transparent {
			m.RemoveTrait(t.ID)
		}
	}
	return nil
}

// checkComposition rejects an entity that redeclares a property donated by one
// of its traits, or that composes two traits donating the same property.
func checkComposition(m *model.Model, e *model.Entity) error {
	ns := m.Namespace(e.Namespace)
	donors := make(map[string]*model.Trait)

	for _, tid := range e.Traits {
		seen := make(map[string]bool)
		for _, level := range m.TraitChain(m.Trait(tid)) {
			for _, prop := range level.Properties.All() {
				if seen[prop.Name] {
					continue
				}
				seen[prop.Name] = true

				if e.Properties.Has(prop.Name) {
					return cerrors.NewTraitPropertyRedeclared(ns.FullName, e.FullName, level.FullName, prop.Name)
				}
				if first, ok := donors[prop.Name]; ok {
					if first.ID == level.ID {
						continue
					}
					return cerrors.NewConflictingTraitProperty(ns.FullName, e.FullName, first.FullName, level.FullName, prop.Name)
				}
				donors[prop.Name] = level
			}
		}
	}
	return nil
}
