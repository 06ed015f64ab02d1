package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// entity builds a declaration from "name:type" property pairs.
func entity(name string, props ...string) *spec.EntityDecl {
	return &spec.EntityDecl{Name: name, Properties: properties(props...)}
}

func trait(name string, transparent bool, props ...string) *spec.TraitDecl {
	return &spec.TraitDecl{Name: name, Transparent: transparent, Properties: properties(props...)}
}

func properties(pairs ...string) []*spec.PropertyDecl {
	var out []*spec.PropertyDecl
	for _, pair := range pairs {
		name, typ, _ := strings.Cut(pair, ":")
		out = append(out, &spec.PropertyDecl{Name: name, Type: typ})
	}
	return out
}

// version builds a single-version specification named after its namespace.
func version(namespace string, entities []*spec.EntityDecl, traits ...*spec.TraitDecl) *spec.Specification {
	return &spec.Specification{
		Name: strings.ReplaceAll(namespace, ".", "_"),
		Versions: []*spec.Version{{
			Name:      "1",
			Namespace: namespace,
			Entities:  entities,
			Traits:    traits,
		}},
	}
}

func build(t *testing.T, specs ...*spec.Specification) *model.Model {
	t.Helper()
	m, err := Build(context.Background(), spec.NewRegistry(specs...))
	require.NoError(t, err)
	return m
}

func buildErr(t *testing.T, specs ...*spec.Specification) error {
	t.Helper()
	_, err := Build(context.Background(), spec.NewRegistry(specs...))
	require.Error(t, err)
	return err
}

func lookupEntity(t *testing.T, m *model.Model, fullName string) *model.Entity {
	t.Helper()
	e, ok := m.Index().LookupEntity(fullName)
	require.True(t, ok, "entity %s", fullName)
	return e
}

func viewNames(views []model.PropertyView) []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Property.Name
	}
	return names
}

func errorCode(t *testing.T, err error) cerrors.ErrorCode {
	t.Helper()
	details, ok := cerrors.Details(err)
	require.True(t, ok, "not a compiler error: %v", err)
	return details.Code
}

func TestInternNamespace(t *testing.T) {
	m := model.New()

	first, err := InternNamespace(m, "a.b.c")
	require.NoError(t, err)
	second, err := InternNamespace(m, "a.b.c")
	require.NoError(t, err)
	assert.Same(t, first, second)

	a, ok := m.Index().LookupNamespace("a")
	require.True(t, ok)
	ab, ok := m.Index().LookupNamespace("a.b")
	require.True(t, ok)

	assert.True(t, a.IsTopLevel())
	assert.Equal(t, a.ID, ab.Parent)
	assert.Equal(t, ab.ID, first.Parent)
	assert.Equal(t, ab.ID, a.Children["b"])
	assert.Equal(t, first.ID, ab.Children["c"])
	assert.Len(t, m.Namespaces(), 3)
}

func TestInternNamespaceRejectsEmptySegment(t *testing.T) {
	m := model.New()
	_, err := InternNamespace(m, "a..b")
	require.Error(t, err)
	assert.Empty(t, m.Namespaces())
}

func TestStepWalksEveryState(t *testing.T) {
	reg := spec.NewRegistry(version("p", []*spec.EntityDecl{entity("X", "id:string")}))
	p := New(reg)

	_, err := p.Model()
	require.Error(t, err)

	want := []State{
		StateIndexed, StateNamespacesBuilt, StateGraphBuilt, StateComposed,
		StateNormalized, StateUnionsResolved, StateVisitorsBuilt, StateReady,
	}
	for _, state := range want {
		require.NoError(t, p.Step())
		assert.Equal(t, state, p.State())
	}

	m, err := p.Model()
	require.NoError(t, err)
	assert.NotNil(t, m)

	err = p.Step()
	assert.Equal(t, cerrors.ErrStageOrder, errorCode(t, err))
	err = p.Run(context.Background())
	assert.Equal(t, cerrors.ErrStageOrder, errorCode(t, err))
}

func TestFailedStageStopsPipeline(t *testing.T) {
	reg := spec.NewRegistry(version("p", []*spec.EntityDecl{entity("X", "ref:Missing")}))
	p := New(reg)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage graph")
	assert.Equal(t, StateNamespacesBuilt, p.State())

	require.Error(t, p.Step())
	_, err = p.Model()
	require.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	reg := spec.NewRegistry(version("p", []*spec.EntityDecl{entity("X")}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(reg)
	require.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, StateNew, p.State())
}

func TestIndexStageValidatesRegistry(t *testing.T) {
	err := buildErr(t, version("bad..ns", nil))
	assert.Contains(t, err.Error(), "stage index")
	assert.Contains(t, err.Error(), "invalid namespace")
}

func TestRunLogsReadyWithRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := spec.NewRegistry(version("p", []*spec.EntityDecl{entity("X", "id:string")}))

	p := New(reg, WithLogger(zap.New(core)))
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, len(stages), logs.FilterMessage("stage complete").Len())
	ready := logs.FilterMessage("concept model ready").All()
	require.Len(t, ready, 1)
	fields := ready[0].ContextMap()
	assert.Equal(t, p.RunID(), fields["run_id"])
	assert.EqualValues(t, 1, fields["entities"])
}

func TestStepLogsFailureCompactly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := spec.NewRegistry(version("p", []*spec.EntityDecl{entity("X", "ref:[Missing]")}))

	err := New(reg, WithLogger(zap.New(core))).Run(context.Background())
	require.Error(t, err)

	failed := logs.FilterMessage("stage failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "graph", fields["stage"])
	assert.Equal(t, "p.X.ref: link: "+compilerMessage(t, err)+" [LNK101]", fields["error"])
}

func compilerMessage(t *testing.T, err error) string {
	t.Helper()
	e, ok := cerrors.Details(err)
	require.True(t, ok)
	return e.Message
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestGraphLinksSameNamedEntities(t *testing.T) {
	m := build(t,
		version("base", []*spec.EntityDecl{entity("Doc", "id:string")}),
		version("base.v1", []*spec.EntityDecl{entity("Doc", "title:string")}),
	)

	parent := lookupEntity(t, m, "base.Doc")
	child := lookupEntity(t, m, "base.v1.Doc")
	assert.Equal(t, parent.ID, child.Parent)
	assert.Equal(t, model.NoEntity, parent.Parent)
	assert.False(t, parent.Leaf)
	assert.True(t, child.Leaf)
	require.NotNil(t, child.Version)
	assert.Equal(t, "base_v1@1", child.Version.String())

	assert.Equal(t, []string{"id", "title"}, viewNames(m.AllEntityProperties(child)))
}

func TestDuplicateDeclarationAcrossSpecifications(t *testing.T) {
	first := version("p", []*spec.EntityDecl{entity("X")})
	second := version("p", []*spec.EntityDecl{entity("X")})
	second.Name = "other"

	err := buildErr(t, first, second)
	assert.Equal(t, cerrors.ErrDuplicateDeclaration, errorCode(t, err))
}

func TestParseErrorCarriesOwner(t *testing.T) {
	err := buildErr(t, version("p", []*spec.EntityDecl{entity("X", "bad:{string")}))

	var perr *cerrors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, cerrors.ErrUnclosedContainer, perr.Code)
	assert.Equal(t, "{string", perr.Input)
	assert.Equal(t, "p.X", perr.Owner)
	assert.Equal(t, "bad", perr.Property)
	assert.Equal(t, "p", perr.Namespace)
}

func TestLinkErrors(t *testing.T) {
	t.Run("unresolved entity", func(t *testing.T) {
		err := buildErr(t, version("p", []*spec.EntityDecl{entity("X", "ref:[Missing]")}))
		var lerr *cerrors.LinkError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, cerrors.ErrUnresolvedEntity, lerr.Code)
		assert.Equal(t, "Missing", lerr.Reference)
		assert.Equal(t, "p.X", lerr.Owner)
	})

	t.Run("unresolved trait", func(t *testing.T) {
		e := entity("X")
		e.Traits = []string{"Nope"}
		err := buildErr(t, version("p", []*spec.EntityDecl{e}))
		assert.Equal(t, cerrors.ErrUnresolvedTrait, errorCode(t, err))
	})

	t.Run("reference resolves from ancestor namespace", func(t *testing.T) {
		m := build(t,
			version("p", []*spec.EntityDecl{entity("Shared", "id:string")}),
			version("p.v1", []*spec.EntityDecl{entity("X", "ref:Shared")}),
		)
		x := lookupEntity(t, m, "p.v1.X")
		ref, _ := x.Properties.Get("ref")
		et, ok := m.Type(ref.Type).(*model.EntityType)
		require.True(t, ok)
		assert.Equal(t, lookupEntity(t, m, "p.Shared").ID, et.Entity)
	})
}

func TestCompositionErrors(t *testing.T) {
	t.Run("entity redeclares trait property", func(t *testing.T) {
		e := entity("X", "id:string")
		e.Traits = []string{"Identified"}
		err := buildErr(t, version("p", []*spec.EntityDecl{e}, trait("Identified", false, "id:string")))

		var cerr *cerrors.CompositionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, cerrors.ErrTraitPropertyRedeclared, cerr.Code)
		assert.Equal(t, "p.Identified", cerr.Trait)
		assert.Equal(t, "id", cerr.Property)
	})

	t.Run("two traits donate the same property", func(t *testing.T) {
		e := entity("X")
		e.Traits = []string{"A", "B"}
		err := buildErr(t, version("p", []*spec.EntityDecl{e},
			trait("A", true, "name:string"),
			trait("B", false, "name:string"),
		))
		assert.Equal(t, cerrors.ErrConflictingTraitProperty, errorCode(t, err))
	})
}

func TestTransparentTraitElimination(t *testing.T) {
	doc := entity("Doc", "openapi:string")
	doc.Traits = []string{"Extensible", "Described"}
	info := entity("Info", "title:string")
	info.Traits = []string{"Extensible"}

	m := build(t, version("api", []*spec.EntityDecl{doc, info},
		trait("Extensible", true, "*:{any}"),
		trait("Described", false, "description:string"),
	))

	_, ok := m.Index().LookupTrait("api.Extensible")
	assert.False(t, ok)
	for _, tr := range m.Index().FindTraits("") {
		assert.False(t, tr.Transparent)
	}
	ns, _ := m.Index().LookupNamespace("api")
	assert.Equal(t, []string{"Described"}, ns.TraitNames())

	d := lookupEntity(t, m, "api.Doc")
	assert.True(t, d.Properties.Has("*"))
	require.Len(t, d.Traits, 1)
	assert.Equal(t, "api.Described", m.Trait(d.Traits[0]).FullName)
	assert.Equal(t, []string{"description", "openapi", "*"}, viewNames(m.AllEntityProperties(d)))

	fromTraits := m.EntityPropertiesFromTraits(d)
	require.Len(t, fromTraits, 1)
	assert.Equal(t, "api.Described", fromTraits[0].Origin.FullName())

	i := lookupEntity(t, m, "api.Info")
	assert.True(t, i.Properties.Has("*"))
	assert.Empty(t, i.Traits)
}

func TestTraitParentChain(t *testing.T) {
	doc := entity("Doc")
	doc.Traits = []string{"Named"}

	m := build(t,
		version("base", nil, trait("Named", false, "name:string")),
		version("base.v1", []*spec.EntityDecl{doc}, trait("Named", false, "title:string")),
	)

	d := lookupEntity(t, m, "base.v1.Doc")
	views := m.EntityPropertiesFromTraits(d)
	assert.Equal(t, []string{"name", "title"}, viewNames(views))
	assert.Equal(t, "base.Named", views[0].Origin.FullName())
	assert.Equal(t, "base.v1.Named", views[1].Origin.FullName())
}

func TestPullUpThreeSiblings(t *testing.T) {
	m := build(t,
		version("p.a", []*spec.EntityDecl{entity("X", "id:string", "a:string")}),
		version("p.b", []*spec.EntityDecl{entity("X", "id:string", "b:integer")}),
		version("p.c", []*spec.EntityDecl{entity("X", "id:string")}),
	)

	parent := lookupEntity(t, m, "p.X")
	assert.True(t, parent.Synthetic)
	assert.Nil(t, parent.Version)
	assert.Equal(t, []string{"id"}, parent.Properties.Names())

	owners := 0
	for _, e := range m.Entities() {
		if e.Properties.Has("id") {
			owners++
		}
	}
	assert.Equal(t, 1, owners)

	for _, name := range []string{"p.a.X", "p.b.X", "p.c.X"} {
		child := lookupEntity(t, m, name)
		assert.False(t, child.Properties.Has("id"), name)
		assert.Equal(t, parent.ID, child.Parent, name)
		assert.Contains(t, viewNames(m.AllEntityProperties(child)), "id", name)
	}
	assert.Equal(t, []string{"a"}, lookupEntity(t, m, "p.a.X").Properties.Names())
}

func TestPullUpIntoDeclaredAncestor(t *testing.T) {
	m := build(t,
		version("p", []*spec.EntityDecl{entity("X")}),
		version("p.a", []*spec.EntityDecl{entity("X", "id:string")}),
		version("p.b", []*spec.EntityDecl{entity("X", "id:string")}),
	)
	parent := lookupEntity(t, m, "p.X")
	assert.False(t, parent.Synthetic)
	assert.True(t, parent.Properties.Has("id"))
	assert.False(t, lookupEntity(t, m, "p.a.X").Properties.Has("id"))
}

func TestPullUpThroughSeveralLevels(t *testing.T) {
	m := build(t,
		version("r.a.v1", []*spec.EntityDecl{entity("X", "id:string")}),
		version("r.a.v2", []*spec.EntityDecl{entity("X", "id:string")}),
		version("r.b", []*spec.EntityDecl{entity("X", "id:string")}),
	)

	top := lookupEntity(t, m, "r.X")
	mid := lookupEntity(t, m, "r.a.X")
	assert.True(t, top.Synthetic)
	assert.True(t, mid.Synthetic)
	assert.Equal(t, top.ID, mid.Parent)
	assert.Equal(t, mid.ID, lookupEntity(t, m, "r.a.v1.X").Parent)
	assert.Equal(t, top.ID, lookupEntity(t, m, "r.b.X").Parent)

	assert.True(t, top.Properties.Has("id"))
	for _, name := range []string{"r.a.X", "r.a.v1.X", "r.a.v2.X", "r.b.X"} {
		assert.False(t, lookupEntity(t, m, name).Properties.Has("id"), name)
	}
}

func TestPullUpSkipsDifferingProperties(t *testing.T) {
	m := build(t,
		version("p.a", []*spec.EntityDecl{entity("X", "id:string", "n:number|string")}),
		version("p.b", []*spec.EntityDecl{entity("X", "id:integer", "n:string|number")}),
	)
	parent := lookupEntity(t, m, "p.X")
	assert.Equal(t, []string{"n"}, parent.Properties.Names())
	assert.True(t, lookupEntity(t, m, "p.a.X").Properties.Has("id"))
	assert.True(t, lookupEntity(t, m, "p.b.X").Properties.Has("id"))
}

func TestPullUpKeepsVersionSpecificReferences(t *testing.T) {
	m := build(t,
		version("p.v1", []*spec.EntityDecl{entity("Doc", "info:Info"), entity("Info", "title:string")}),
		version("p.v2", []*spec.EntityDecl{entity("Doc", "info:Info"), entity("Info", "title:string")}),
	)

	assert.True(t, lookupEntity(t, m, "p.v1.Doc").Properties.Has("info"))
	assert.True(t, lookupEntity(t, m, "p.v2.Doc").Properties.Has("info"))
	assert.False(t, lookupEntity(t, m, "p.Doc").Properties.Has("info"))
	assert.True(t, lookupEntity(t, m, "p.Info").Properties.Has("title"))
}

func TestSyntheticRootFlag(t *testing.T) {
	a := entity("Doc")
	a.Root = true
	b := entity("Doc")
	b.Root = true
	c := entity("Item")
	c.Root = true

	m := build(t,
		version("p.a", []*spec.EntityDecl{a, entity("Item")}),
		version("p.b", []*spec.EntityDecl{b, c}),
	)
	assert.True(t, lookupEntity(t, m, "p.Doc").Root)
	assert.False(t, lookupEntity(t, m, "p.Item").Root)
}

func TestPropertyOrdering(t *testing.T) {
	ordered := entity("X", "a:string", "b:string", "c:string")
	ordered.PropertyOrder = []string{"b", "a"}

	wild := entity("Y", "a:string", "*:{any}", "b:string")
	wild.PropertyOrder = []string{"*", "b", "a"}

	m := build(t, version("p", []*spec.EntityDecl{ordered, wild}))

	assert.Equal(t, []string{"b", "a", "c"}, viewNames(m.AllEntityProperties(lookupEntity(t, m, "p.X"))))
	assert.Equal(t, []string{"b", "a", "*"}, viewNames(m.AllEntityProperties(lookupEntity(t, m, "p.Y"))))
}

func TestPropertyOrderInherited(t *testing.T) {
	base := entity("X", "z:string")
	base.PropertyOrder = []string{"z", "y"}

	m := build(t,
		version("p", []*spec.EntityDecl{base}),
		version("p.v1", []*spec.EntityDecl{entity("X", "a:string", "y:string")}),
	)
	child := lookupEntity(t, m, "p.v1.X")
	assert.Equal(t, []string{"z", "y", "a"}, viewNames(m.AllEntityProperties(child)))
}
