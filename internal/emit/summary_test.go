package emit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/compiler/pipeline"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

func readyModel(t *testing.T) *model.Model {
	t.Helper()
	doc := &spec.EntityDecl{
		Name:          "Document",
		Root:          true,
		Traits:        []string{"Extensible"},
		PropertyOrder: []string{"openapi", "info"},
		Properties: []*spec.PropertyDecl{
			{Name: "info", Type: "Info"},
			{Name: "openapi", Type: "string"},
			{Name: "paths", Type: "{PathItem|string}"},
		},
	}
	reg := spec.NewRegistry(&spec.Specification{
		Name: "openapi",
		Versions: []*spec.Version{{
			Name:      "3.0",
			Namespace: "io.example.openapi.v30",
			Traits: []*spec.TraitDecl{{
				Name:        "Extensible",
				Transparent: true,
				Properties:  []*spec.PropertyDecl{{Name: "*", Type: "{any}"}},
			}},
			Entities: []*spec.EntityDecl{
				doc,
				{Name: "Info", Properties: []*spec.PropertyDecl{{Name: "title", Type: "string"}}},
				{Name: "PathItem", Properties: []*spec.PropertyDecl{{Name: "summary", Type: "string"}}},
			},
		}},
	})

	m, err := pipeline.Build(context.Background(), reg)
	require.NoError(t, err)
	return m
}

func TestSummarize(t *testing.T) {
	s := Summarize(readyModel(t))

	require.Len(t, s.Entities, 3)
	doc := s.Entities[0]
	assert.Equal(t, "io.example.openapi.v30.Document", doc.Name)
	assert.Equal(t, "openapi@3.0", doc.Version)
	assert.True(t, doc.Root)
	assert.Empty(t, doc.Traits)

	var names []string
	for _, p := range doc.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"openapi", "info", "paths", "*"}, names)
	assert.Equal(t, "PathItemStringUnionMap", doc.Properties[2].TypeName)
	assert.Equal(t, "AnyMap", doc.Properties[3].TypeName)
	assert.Equal(t, "io.example.openapi.v30.Document", doc.Properties[3].Origin)

	assert.Empty(t, s.Traits)

	var visitors []string
	for _, v := range s.Visitors {
		visitors = append(visitors, v.Name)
	}
	assert.Equal(t, []string{"io", "io.example", "io.example.openapi", "io.example.openapi.v30"}, visitors)

	var union *TypeSummary
	for i := range s.Types {
		if s.Types[i].Kind == "union" {
			union = &s.Types[i]
		}
	}
	require.NotNil(t, union)
	assert.Equal(t, []string{"PathItem", "string"}, union.Members)
	require.Len(t, union.Rules, 2)
	assert.Equal(t, RuleSummary{Branch: "PathItem", Rule: "isObject", Implicit: true}, union.Rules[0])
}

func TestSummarizeNestedTypes(t *testing.T) {
	s := Summarize(readyModel(t))

	byKey := make(map[string]TypeSummary)
	for _, ts := range s.Types {
		byKey[ts.Key] = ts
	}

	paths, ok := byKey["io.example.openapi.v30::{PathItem|string}"]
	require.True(t, ok)
	assert.Equal(t, "PathItemStringUnionMap", paths.Name)
	assert.Equal(t, []string{
		"entity::io.example.openapi.v30.PathItem",
		"io.example.openapi.v30::PathItem|string",
	}, paths.Nested)

	union := byKey["io.example.openapi.v30::PathItem|string"]
	assert.Equal(t, []string{"entity::io.example.openapi.v30.PathItem"}, union.Nested)

	assert.Empty(t, byKey["io.example.openapi.v30::{any}"].Nested)
	assert.Empty(t, byKey["entity::io.example.openapi.v30.Info"].Nested)
}

func TestSummaryBackendYAML(t *testing.T) {
	backend, err := DefaultRegistry().New(SummaryLanguage, Options{RunID: "run-1"})
	require.NoError(t, err)

	out := NewMemoryOutput()
	require.NoError(t, backend.Emit(readyModel(t), out))

	data, ok := out.Files["summary.yaml"]
	require.True(t, ok)

	var decoded Summary
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Entities, 3)
}

func TestSummaryBackendJSON(t *testing.T) {
	backend, err := NewSummaryBackend(Options{Format: FormatJSON})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, backend.Emit(readyModel(t), DirOutput{Dir: filepath.Join(dir, "out")}))

	data, err := os.ReadFile(filepath.Join(dir, "out", "summary.json"))
	require.NoError(t, err)

	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Namespaces, 4)
	assert.Empty(t, decoded.RunID)
}

func TestSummaryBackendRejectsUnknownFormat(t *testing.T) {
	_, err := NewSummaryBackend(Options{Format: "toml"})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(Options) (Backend, error) { return &SummaryBackend{format: FormatYAML}, nil }

	require.NoError(t, r.Register("go", factory))
	assert.Error(t, r.Register("go", factory))
	assert.Error(t, r.Register("", factory))
	assert.True(t, r.Exists("go"))
	assert.False(t, r.Exists("rust"))

	_, err := r.New("rust", Options{})
	assert.Error(t, err)

	require.NoError(t, r.Register("csharp", factory))
	assert.Equal(t, []string{"csharp", "go"}, r.Languages())
	assert.Equal(t, []string{SummaryLanguage}, DefaultRegistry().Languages())
}
