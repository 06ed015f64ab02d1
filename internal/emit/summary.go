package emit

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// SummaryLanguage is the target language of the built-in summary backend.
const SummaryLanguage = "summary"

// Supported summary formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Summary is the serialized form of a Ready model.
type Summary struct {
	RunID      string             `yaml:"runId,omitempty" json:"runId,omitempty"`
	Namespaces []NamespaceSummary `yaml:"namespaces" json:"namespaces"`
	Entities   []EntitySummary    `yaml:"entities" json:"entities"`
	Traits     []TraitSummary     `yaml:"traits" json:"traits"`
	Types      []TypeSummary      `yaml:"types" json:"types"`
	Visitors   []VisitorSummary   `yaml:"visitors" json:"visitors"`
}

// NamespaceSummary describes one namespace and the names declared in it.
type NamespaceSummary struct {
	Name     string   `yaml:"name" json:"name"`
	Parent   string   `yaml:"parent,omitempty" json:"parent,omitempty"`
	Entities []string `yaml:"entities,omitempty" json:"entities,omitempty"`
	Traits   []string `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// EntitySummary describes one entity with its merged, ordered properties.
type EntitySummary struct {
	Name       string            `yaml:"name" json:"name"`
	Namespace  string            `yaml:"namespace" json:"namespace"`
	Parent     string            `yaml:"parent,omitempty" json:"parent,omitempty"`
	Version    string            `yaml:"version,omitempty" json:"version,omitempty"`
	Root       bool              `yaml:"root,omitempty" json:"root,omitempty"`
	Leaf       bool              `yaml:"leaf" json:"leaf"`
	Synthetic  bool              `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
	Traits     []string          `yaml:"traits,omitempty" json:"traits,omitempty"`
	Properties []PropertySummary `yaml:"properties" json:"properties"`
}

// PropertySummary describes one property and the entity or trait it came from.
type PropertySummary struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	TypeName string `yaml:"typeName" json:"typeName"`
	Origin   string `yaml:"origin" json:"origin"`
}

// TraitSummary describes a trait that survived composition.
type TraitSummary struct {
	Name       string            `yaml:"name" json:"name"`
	Parent     string            `yaml:"parent,omitempty" json:"parent,omitempty"`
	Properties []PropertySummary `yaml:"properties" json:"properties"`
}

// TypeSummary describes one resolved type. Nested lists the keys of every
// non-primitive type reachable through list, map and union members.
type TypeSummary struct {
	Key       string        `yaml:"key" json:"key"`
	Kind      string        `yaml:"kind" json:"kind"`
	Name      string        `yaml:"name" json:"name"`
	Namespace string        `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Parent    string        `yaml:"parent,omitempty" json:"parent,omitempty"`
	Leaf      bool          `yaml:"leaf,omitempty" json:"leaf,omitempty"`
	Root      bool          `yaml:"root,omitempty" json:"root,omitempty"`
	Members   []string      `yaml:"members,omitempty" json:"members,omitempty"`
	Rules     []RuleSummary `yaml:"rules,omitempty" json:"rules,omitempty"`
	Nested    []string      `yaml:"nested,omitempty" json:"nested,omitempty"`
}

// RuleSummary describes how one union branch is recognized.
type RuleSummary struct {
	Branch   string `yaml:"branch" json:"branch"`
	Rule     string `yaml:"rule" json:"rule"`
	Implicit bool   `yaml:"implicit,omitempty" json:"implicit,omitempty"`
}

// VisitorSummary describes one node of the visitor tree.
type VisitorSummary struct {
	Name     string   `yaml:"name" json:"name"`
	Parent   string   `yaml:"parent,omitempty" json:"parent,omitempty"`
	Children []string `yaml:"children,omitempty" json:"children,omitempty"`
	Entities []string `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// SummaryBackend writes the model as one YAML or JSON document.
type SummaryBackend struct {
	format string
	runID  string
}

// NewSummaryBackend creates a summary backend. The format defaults to YAML.
func NewSummaryBackend(opts Options) (Backend, error) {
	format := opts.Format
	if format == "" {
		format = FormatYAML
	}
	if format != FormatYAML && format != FormatJSON {
		return nil, fmt.Errorf("unsupported summary format %q", format)
	}
	return &SummaryBackend{format: format, runID: opts.RunID}, nil
}

// FileName returns the name of the file the backend writes.
func (b *SummaryBackend) FileName() string {
	return "summary." + b.format
}

// Emit implements Backend.
func (b *SummaryBackend) Emit(m *model.Model, out Output) error {
	s := Summarize(m)
	s.RunID = b.runID

	var (
		data []byte
		err  error
	)
	if b.format == FormatJSON {
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return out.WriteFile(b.FileName(), data)
}

// Summarize builds the summary of m. Entity properties come from the merged,
// ordered property views, never from walking parent or trait chains.
func Summarize(m *model.Model) *Summary {
	s := &Summary{}

	for _, ns := range m.Index().FindNamespaces("") {
		entry := NamespaceSummary{
			Name:     ns.FullName,
			Entities: ns.EntityNames(),
			Traits:   ns.TraitNames(),
		}
		if parent := m.Namespace(ns.Parent); parent != nil {
			entry.Parent = parent.FullName
		}
		s.Namespaces = append(s.Namespaces, entry)
	}

	for _, e := range m.Index().FindEntities("") {
		entry := EntitySummary{
			Name:       e.FullName,
			Namespace:  m.Namespace(e.Namespace).FullName,
			Root:       e.Root,
			Leaf:       e.Leaf,
			Synthetic:  e.Synthetic,
			Properties: propertySummaries(m, m.AllEntityProperties(e)),
		}
		if parent := m.Entity(e.Parent); parent != nil {
			entry.Parent = parent.FullName
		}
		if e.Version != nil {
			entry.Version = e.Version.String()
		}
		for _, tid := range e.Traits {
			entry.Traits = append(entry.Traits, m.Trait(tid).FullName)
		}
		s.Entities = append(s.Entities, entry)
	}

	for _, t := range m.Index().FindTraits("") {
		entry := TraitSummary{Name: t.FullName}
		if parent := m.Trait(t.Parent); parent != nil {
			entry.Parent = parent.FullName
		}
		var views []model.PropertyView
		for _, p := range t.Properties.All() {
			views = append(views, model.PropertyView{Property: p, Origin: model.Origin{Trait: t}})
		}
		entry.Properties = propertySummaries(m, views)
		s.Traits = append(s.Traits, entry)
	}

	for _, t := range m.Types() {
		s.Types = append(s.Types, typeSummary(m, t))
	}

	for _, v := range m.Index().FindVisitors("") {
		entry := VisitorSummary{Name: v.FullName, Children: v.ChildNames()}
		if parent := m.Visitor(v.Parent); parent != nil {
			entry.Parent = parent.FullName
		}
		for _, id := range v.Entities {
			entry.Entities = append(entry.Entities, m.Entity(id).Name)
		}
		s.Visitors = append(s.Visitors, entry)
	}
	return s
}

func propertySummaries(m *model.Model, views []model.PropertyView) []PropertySummary {
	out := make([]PropertySummary, 0, len(views))
	for _, v := range views {
		out = append(out, PropertySummary{
			Name:     v.Property.Name,
			Type:     v.Property.Canonical(),
			TypeName: TypeName(m.Type(v.Property.Type)),
			Origin:   v.Origin.FullName(),
		})
	}
	return out
}

// TypeName returns the derived name of a resolved type, or "" for nil.
func TypeName(t model.Type) string {
	switch v := t.(type) {
	case nil:
		return ""
	case *model.PrimitiveType:
		return v.Name
	default:
		return model.CompositeOf(t).Name
	}
}

func typeSummary(m *model.Model, t model.Type) TypeSummary {
	entry := TypeSummary{
		Key:  t.Key(),
		Kind: t.Kind().String(),
		Name: TypeName(t),
	}
	if info := model.CompositeOf(t); info != nil {
		entry.Namespace = m.Namespace(info.Namespace).FullName
		entry.Leaf = info.Leaf
		entry.Root = info.Root
		if parent := m.Type(info.Parent); parent != nil {
			entry.Parent = parent.Key()
		}
	}
	if u, ok := t.(*model.UnionType); ok {
		for _, id := range u.Members {
			entry.Members = append(entry.Members, TypeName(m.Type(id)))
		}
		for _, r := range u.Rules {
			entry.Rules = append(entry.Rules, RuleSummary{Branch: r.Branch, Rule: r.String(), Implicit: r.Implicit})
		}
	}
	for _, nested := range m.CollectNestedTypes(t, false) {
		entry.Nested = append(entry.Nested, nested.Key())
	}
	return entry
}
