package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/compiler/rawtype"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// buildGraph creates every declared entity and trait, parses their properties,
// links same-named nodes across namespaces and checks every reference.
func (p *Pipeline) buildGraph() error {
	m := p.model
	p.traitRefs = make(map[model.EntityID][]string)

	for i, entry := range p.versions {
		ns := m.Namespace(p.versionNS[i])
		ref := &model.VersionRef{
			Specification: entry.Specification.Name,
			Version:       entry.Version.Name,
		}

		for _, decl := range entry.Version.Traits {
			t, err := m.CreateTrait(ns.ID, decl.Name)
			if err != nil {
				return cerrors.NewDuplicateDeclaration(ns.FullName, ns.FullName+"."+decl.Name, "trait "+decl.Name)
			}
			t.Transparent = decl.Transparent
			if err := addProperties(ns, &t.Node, decl.Properties); err != nil {
				return err
			}
		}

		for _, decl := range entry.Version.Entities {
			e, err := m.CreateEntity(ns.ID, decl.Name)
			if err != nil {
				return cerrors.NewDuplicateDeclaration(ns.FullName, ns.FullName+"."+decl.Name, "entity "+decl.Name)
			}
			e.Version = ref
			e.Root = decl.Root
			e.PropertyOrder = slices.Clone(decl.PropertyOrder)
			if err := addProperties(ns, &e.Node, decl.Properties); err != nil {
				return err
			}
			p.traitRefs[e.ID] = decl.Traits
		}
	}

	linkEntityParents(m)
	linkTraitParents(m)

	if err := p.linkTraits(); err != nil {
		return err
	}
	return checkReferences(m)
}

func addProperties(ns *model.Namespace, owner *model.Node, decls []*spec.PropertyDecl) error {
	for _, decl := range decls {
		prop, err := newProperty(ns, owner, decl)
		if err != nil {
			return err
		}
		if !owner.Properties.Add(prop) {
			return cerrors.NewDuplicateDeclaration(ns.FullName, owner.FullName, "property "+decl.Name)
		}
	}
	return nil
}

func newProperty(ns *model.Namespace, owner *model.Node, decl *spec.PropertyDecl) (*model.Property, error) {
	parsed, err := rawtype.Parse(decl.Type)
	if err != nil {
		return nil, withOwner(err, ns.FullName, owner.FullName, decl.Name)
	}
	prop := model.NewProperty(decl.Name, decl.Type, parsed)

	for _, r := range decl.UnionRules {
		branch, err := rawtype.Parse(r.Branch)
		if err != nil {
			return nil, withOwner(err, ns.FullName, owner.FullName, decl.Name)
		}
		rule, err := model.NewUnionRule(branch.String(), r.Rule, r.Property, r.Value)
		if err != nil {
			return nil, cerrors.NewInvalidUnionRule(ns.FullName, owner.FullName, decl.Name, r.Rule, err.Error())
		}
		if slices.ContainsFunc(prop.UnionRules, func(u model.UnionRule) bool { return u.Branch == rule.Branch }) {
			return nil, cerrors.NewInvalidUnionRule(ns.FullName, owner.FullName, decl.Name, r.Rule,
				fmt.Sprintf("branch %s already has a rule", rule.Branch))
		}
		prop.UnionRules = append(prop.UnionRules, rule)
	}
	slices.SortFunc(prop.UnionRules, func(a, b model.UnionRule) int {
		return strings.Compare(a.Branch, b.Branch)
	})
	return prop, nil
}

// withOwner attaches the declaring node to a parse error.
func withOwner(err error, namespace, owner, property string) error {
	var perr *cerrors.ParseError
	if errors.As(err, &perr) {
		perr.WithOwner(namespace, owner).WithProperty(property)
		return perr
	}
	return err
}

// linkEntityParents points every entity at the same-named entity in the nearest
// less specific namespace.
func linkEntityParents(m *model.Model) {
	for _, e := range m.Entities() {
		e.Parent = model.NoEntity
		ns := m.Namespace(e.Namespace)
		if parent, ok := m.ResolveEntity(ns.Parent, e.Name); ok {
			e.Parent = parent.ID
		}
	}
}

func linkTraitParents(m *model.Model) {
	for _, t := range m.Traits() {
		t.Parent = model.NoTrait
		ns := m.Namespace(t.Namespace)
		if parent, ok := m.ResolveTrait(ns.Parent, t.Name); ok {
			t.Parent = parent.ID
		}
	}
}

// linkTraits resolves composed trait names from each entity's namespace outward.
func (p *Pipeline) linkTraits() error {
	m := p.model
	for _, e := range m.Entities() {
		ns := m.Namespace(e.Namespace)
		for _, name := range p.traitRefs[e.ID] {
			t, ok := m.ResolveTrait(e.Namespace, name)
			if !ok {
				return cerrors.NewUnresolvedTrait(ns.FullName, e.FullName, name)
			}
			if !slices.Contains(e.Traits, t.ID) {
				e.Traits = append(e.Traits, t.ID)
			}
		}
	}
	return nil
}

// checkReferences fails on the first property naming an entity that cannot be
// resolved from the declaring namespace.
func checkReferences(m *model.Model) error {
	check := func(owner *model.Node) error {
		ns := m.Namespace(owner.Namespace)
		for _, prop := range owner.Properties.All() {
			for _, ref := range rawtype.References(prop.Parsed) {
				if _, ok := m.ResolveEntity(owner.Namespace, ref); !ok {
					return cerrors.NewUnresolvedEntity(ns.FullName, owner.FullName, prop.Name, prop.RawType, ref)
				}
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
