package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec(name string) *Specification {
	return &Specification{
		Name: name,
		Versions: []*Version{{
			Name:      "1",
			Namespace: "io.example." + name,
			Entities: []*EntityDecl{{
				Name:       "Thing",
				Properties: []*PropertyDecl{{Name: "id", Type: "string"}},
			}},
			Traits: []*TraitDecl{{Name: "Named"}},
		}},
	}
}

func TestValidateAcceptsValidRegistry(t *testing.T) {
	reg := NewRegistry(validSpec("a"), validSpec("b"))
	assert.NoError(t, reg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Specification)
		message string
	}{
		{
			name:    "missing versions",
			mutate:  func(s *Specification) { s.Versions = nil },
			message: "no versions",
		},
		{
			name:    "bad namespace",
			mutate:  func(s *Specification) { s.Versions[0].Namespace = "io..example" },
			message: "invalid namespace",
		},
		{
			name: "duplicate version",
			mutate: func(s *Specification) {
				dup := *s.Versions[0]
				s.Versions = append(s.Versions, &dup)
			},
			message: "declared more than once",
		},
		{
			name: "duplicate entity",
			mutate: func(s *Specification) {
				v := s.Versions[0]
				v.Entities = append(v.Entities, &EntityDecl{Name: "Thing"})
			},
			message: "entity Thing declared more than once",
		},
		{
			name:    "bad entity name",
			mutate:  func(s *Specification) { s.Versions[0].Entities[0].Name = "9lives" },
			message: "invalid entity name",
		},
		{
			name: "duplicate property",
			mutate: func(s *Specification) {
				e := s.Versions[0].Entities[0]
				e.Properties = append(e.Properties, &PropertyDecl{Name: "id", Type: "integer"})
			},
			message: "property id declared more than once",
		},
		{
			name:    "property without type",
			mutate:  func(s *Specification) { s.Versions[0].Entities[0].Properties[0].Type = "" },
			message: "has no type",
		},
		{
			name: "incomplete union rule",
			mutate: func(s *Specification) {
				p := s.Versions[0].Entities[0].Properties[0]
				p.UnionRules = []*UnionRuleDecl{{Branch: "string"}}
			},
			message: "union rule without branch or rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec("a")
			tt.mutate(s)
			err := NewRegistry(s).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateRejectsEmptyEntries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Specification)
		message string
	}{
		{
			name:    "version",
			mutate:  func(s *Specification) { s.Versions = append(s.Versions, nil) },
			message: "specification a: empty version entry at index 1",
		},
		{
			name:    "trait",
			mutate:  func(s *Specification) { s.Versions[0].Traits = []*TraitDecl{nil} },
			message: "empty trait entry at index 0",
		},
		{
			name:    "entity",
			mutate:  func(s *Specification) { s.Versions[0].Entities = append(s.Versions[0].Entities, nil) },
			message: "empty entity entry at index 1",
		},
		{
			name: "property",
			mutate: func(s *Specification) {
				s.Versions[0].Entities[0].Properties = []*PropertyDecl{nil}
			},
			message: "entity Thing: empty property entry at index 0",
		},
		{
			name: "union rule",
			mutate: func(s *Specification) {
				s.Versions[0].Entities[0].Properties[0].UnionRules = []*UnionRuleDecl{nil}
			},
			message: "property id has an empty union rule entry at index 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec("a")
			tt.mutate(s)
			var err error
			require.NotPanics(t, func() { err = NewRegistry(s).Validate() })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateDecodedBareListItems(t *testing.T) {
	docs := []string{
		"name: a\nversions:\n  - \n",
		"name: a\nversions:\n  - version: \"1\"\n    namespace: io.a\n    entities:\n      - \n",
		"name: a\nversions:\n  - version: \"1\"\n    namespace: io.a\n    traits:\n      - \n",
		"name: a\nversions:\n  - version: \"1\"\n    namespace: io.a\n    entities:\n      - name: Thing\n        properties:\n          - \n",
	}
	for _, doc := range docs {
		specs, err := Decode(strings.NewReader(doc))
		require.NoError(t, err)

		require.NotPanics(t, func() { err = NewRegistry(specs...).Validate() })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	}
}

func TestValidateDuplicateSpecification(t *testing.T) {
	err := NewRegistry(validSpec("a"), validSpec("a")).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specification a: declared more than once")
}

func TestRegistryVersionsSortedBySpecification(t *testing.T) {
	reg := NewRegistry(validSpec("zeta"), validSpec("alpha"))
	versions := reg.Versions()
	require.Len(t, versions, 2)
	assert.Equal(t, "alpha", versions[0].Specification.Name)
	assert.Equal(t, "zeta", versions[1].Specification.Name)
}

func TestValidNamespace(t *testing.T) {
	assert.True(t, ValidNamespace("a"))
	assert.True(t, ValidNamespace("io.example.v3_1"))
	assert.False(t, ValidNamespace(""))
	assert.False(t, ValidNamespace("a."))
	assert.False(t, ValidNamespace("a.3b"))
}
