package pipeline

import (
	"fmt"
	"strings"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/compiler/rawtype"
	ustrings "github.com/conduit-lang/conceptgen/internal/util/strings"
)

// Type keys: primitives and entities are global, every other type is scoped to
// the namespace of the property that introduced it.
const (
	primitiveKeyPrefix = "primitive::"
	entityKeyPrefix    = "entity::"
	keySeparator       = "::"
)

func entityKey(e *model.Entity) string {
	return entityKeyPrefix + e.FullName
}

// typeResolver resolves the raw type of one property.
type typeResolver struct {
	m        *model.Model
	ns       *model.Namespace
	owner    string
	property *model.Property
}

// resolveUnions gives every entity a type and resolves every property type of
// every live entity and trait, then links same-named types across namespaces.
func (p *Pipeline) resolveUnions() error {
	m := p.model

	for _, e := range m.Entities() {
		m.InternType(entityKey(e), func(id model.TypeID) model.Type {
			info := model.Composite{
				Namespace: e.Namespace,
				Name:      e.Name,
				Root:      e.Root,
				Parent:    model.NoType,
			}
			return model.NewEntityType(id, entityKey(e), rawtype.Simple{Token: e.Name}, info, e.ID)
		})
	}

	resolveNode := func(node *model.Node) error {
		ns := m.Namespace(node.Namespace)
		for _, prop := range node.Properties.All() {
			r := &typeResolver{m: m, ns: ns, owner: node.FullName, property: prop}
			id, err := r.resolveProperty()
			if err != nil {
				return err
			}
			prop.Type = id
		}
		return nil
	}
	for _, e := range m.Entities() {
		if err := resolveNode(&e.Node); err != nil {
			return err
		}
	}
	for _, t := range m.Traits() {
		if err := resolveNode(&t.Node); err != nil {
			return err
		}
	}

	linkTypeParents(m)
	return nil
}

func (r *typeResolver) resolveProperty() (model.TypeID, error) {
	prop := r.property
	u, isUnion := prop.Parsed.(*rawtype.Union)
	if !isUnion {
		if len(prop.UnionRules) > 0 {
			return model.NoType, cerrors.NewUnknownUnionBranch(r.ns.FullName, r.owner, prop.Name,
				prop.RawType, prop.UnionRules[0].Branch)
		}
		return r.resolve(prop.Parsed)
	}

	for _, rule := range prop.UnionRules {
		if _, ok := u.Member(rule.Branch); !ok {
			return model.NoType, cerrors.NewUnknownUnionBranch(r.ns.FullName, r.owner, prop.Name,
				prop.RawType, rule.Branch)
		}
	}
	return r.resolveUnion(u, prop.UnionRules)
}

func (r *typeResolver) resolve(raw rawtype.RawType) (model.TypeID, error) {
	switch v := raw.(type) {
	case rawtype.Simple:
		return r.resolveSimple(v)
	case *rawtype.List:
		return r.resolveContainer(v, v.Value, "List")
	case *rawtype.Map:
		return r.resolveContainer(v, v.Value, "Map")
	case *rawtype.Union:
		return r.resolveUnion(v, nil)
	default:
		panic(fmt.Sprintf("pipeline: unknown raw type %T", raw))
	}
}

func (r *typeResolver) resolveSimple(s rawtype.Simple) (model.TypeID, error) {
	if s.IsPrimitive() {
		t, _ := r.m.InternType(primitiveKeyPrefix+s.Token, func(id model.TypeID) model.Type {
			return model.NewPrimitiveType(id, primitiveKeyPrefix+s.Token, s.Token)
		})
		return t.ID(), nil
	}

	e, ok := r.m.ResolveEntity(r.ns.ID, s.Token)
	if !ok {
		return model.NoType, cerrors.NewUnresolvedEntity(r.ns.FullName, r.owner, r.property.Name,
			r.property.RawType, s.Token)
	}
	t, ok := r.m.LookupType(entityKey(e))
	if !ok {
		return model.NoType, cerrors.NewConsistencyError(cerrors.ErrUnresolvedType,
			"entity %s has no type", e.FullName)
	}
	return t.ID(), nil
}

func (r *typeResolver) resolveContainer(raw, value rawtype.RawType, suffix string) (model.TypeID, error) {
	valueID, err := r.resolve(value)
	if err != nil {
		return model.NoType, err
	}
	key := r.ns.FullName + keySeparator + raw.String()
	info := model.Composite{
		Namespace: r.ns.ID,
		Name:      typeName(r.m.Type(valueID)) + suffix,
		Parent:    model.NoType,
	}
	t, _ := r.m.InternType(key, func(id model.TypeID) model.Type {
		if suffix == "List" {
			return model.NewListType(id, key, raw, info, valueID)
		}
		return model.NewMapType(id, key, raw, info, valueID)
	})
	return t.ID(), nil
}

func (r *typeResolver) resolveUnion(u *rawtype.Union, explicit []model.UnionRule) (model.TypeID, error) {
	members := make([]model.TypeID, len(u.Members))
	var name strings.Builder
	for i, member := range u.Members {
		id, err := r.resolve(member)
		if err != nil {
			return model.NoType, err
		}
		members[i] = id
		name.WriteString(typeName(r.m.Type(id)))
	}
	name.WriteString("Union")

	key := r.ns.FullName + keySeparator + u.String()
	if len(explicit) > 0 {
		sig := make([]string, len(explicit))
		for i, rule := range explicit {
			sig[i] = rule.Branch + "=" + rule.String()
		}
		key += "#" + strings.Join(sig, ",")
	}

	info := model.Composite{
		Namespace: r.ns.ID,
		Name:      name.String(),
		Parent:    model.NoType,
	}
	rules := unionRules(r.m, u, members, explicit)
	t, _ := r.m.InternType(key, func(id model.TypeID) model.Type {
		return model.NewUnionType(id, key, u, info, members, rules)
	})
	return t.ID(), nil
}

// unionRules returns the explicit rules plus a derived rule for every member
// whose shape alone identifies it among its siblings. Rules follow member order.
func unionRules(m *model.Model, u *rawtype.Union, members []model.TypeID, explicit []model.UnionRule) []model.UnionRule {
	lists, objects := 0, 0
	for _, id := range members {
		switch {
		case isListShaped(m.Type(id)):
			lists++
		case isObjectShaped(m.Type(id)):
			objects++
		}
	}

	var rules []model.UnionRule
	for i, member := range u.Members {
		branch := member.String()
		if rule, ok := findRule(explicit, branch); ok {
			rules = append(rules, rule)
			continue
		}

		t := m.Type(members[i])
		kind, ok := primitiveRule(t)
		switch {
		case ok:
		case isListShaped(t) && lists == 1:
			kind, ok = model.RuleIsArray, true
		case isObjectShaped(t) && objects == 1:
			kind, ok = model.RuleIsObject, true
		}
		if ok {
			rules = append(rules, model.UnionRule{Branch: branch, Kind: kind, Implicit: true})
		}
	}
	return rules
}

func findRule(rules []model.UnionRule, branch string) (model.UnionRule, bool) {
	for _, rule := range rules {
		if rule.Branch == branch {
			return rule, true
		}
	}
	return model.UnionRule{}, false
}

func primitiveRule(t model.Type) (model.RuleKind, bool) {
	p, ok := t.(*model.PrimitiveType)
	if !ok {
		return 0, false
	}
	switch p.Name {
	case rawtype.PrimitiveBoolean:
		return model.RuleIsBoolean, true
	case rawtype.PrimitiveString:
		return model.RuleIsString, true
	case rawtype.PrimitiveNumber:
		return model.RuleIsNumber, true
	case rawtype.PrimitiveInteger:
		return model.RuleIsInteger, true
	}
	return 0, false
}

func isListShaped(t model.Type) bool {
	return t.Kind() == model.KindList
}

func isObjectShaped(t model.Type) bool {
	switch v := t.(type) {
	case *model.MapType, *model.EntityType:
		return true
	case *model.PrimitiveType:
		return v.Name == rawtype.PrimitiveObject
	default:
		return false
	}
}

// typeName returns the identifier a type is known by in derived names.
func typeName(t model.Type) string {
	if p, ok := t.(*model.PrimitiveType); ok {
		return ustrings.ToPascalCase(p.Name)
	}
	return model.CompositeOf(t).Name
}

// linkTypeParents links entity types along entity parents and every other
// composite type to the type with the same shape in the nearest less specific
// namespace that has one. Types never used as a parent are leaves.
func linkTypeParents(m *model.Model) {
	types := m.Types()
	for _, t := range types {
		info := model.CompositeOf(t)
		if info == nil {
			continue
		}
		info.Parent = model.NoType

		if et, ok := t.(*model.EntityType); ok {
			if parent := m.Entity(m.Entity(et.Entity).Parent); parent != nil {
				if pt, ok := m.LookupType(entityKey(parent)); ok {
					info.Parent = pt.ID()
				}
			}
			continue
		}

		_, shape, _ := strings.Cut(t.Key(), keySeparator)
		ns := m.Namespace(info.Namespace)
		for anc := m.Namespace(ns.Parent); anc != nil; anc = m.Namespace(anc.Parent) {
			if pt, ok := m.LookupType(anc.FullName + keySeparator + shape); ok {
				info.Parent = pt.ID()
				break
			}
		}
	}

	parents := make(map[model.TypeID]bool)
	for _, t := range types {
		if info := model.CompositeOf(t); info != nil && info.Parent != model.NoType {
			parents[info.Parent] = true
		}
	}
	for _, t := range types {
		if info := model.CompositeOf(t); info != nil {
			info.Leaf = !parents[t.ID()]
		}
	}
}
