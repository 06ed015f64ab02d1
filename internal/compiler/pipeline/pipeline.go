// Package pipeline turns a specification registry into a Ready concept model.
//
// A run moves through a fixed sequence of states, one stage per transition:
//
//	New -> Indexed -> NamespacesBuilt -> GraphBuilt -> Composed -> Normalized
//	    -> UnionsResolved -> VisitorsBuilt -> Ready
//
// Stages run single-threaded against one model.Model. Any stage failure aborts
// the run; the model is only handed out once the pipeline reaches Ready.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// State is a pipeline state.
type State int

const (
	StateNew State = iota
	StateIndexed
	StateNamespacesBuilt
	StateGraphBuilt
	StateComposed
	StateNormalized
	StateUnionsResolved
	StateVisitorsBuilt
	StateReady
)

var stateNames = [...]string{
	StateNew:             "New",
	StateIndexed:         "Indexed",
	StateNamespacesBuilt: "NamespacesBuilt",
	StateGraphBuilt:      "GraphBuilt",
	StateComposed:        "Composed",
	StateNormalized:      "Normalized",
	StateUnionsResolved:  "UnionsResolved",
	StateVisitorsBuilt:   "VisitorsBuilt",
	StateReady:           "Ready",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type stage struct {
	name   string
	target State
	run    func(p *Pipeline) error
}

var stages = []stage{
	{"index", StateIndexed, (*Pipeline).index},
	{"namespaces", StateNamespacesBuilt, (*Pipeline).buildNamespaces},
	{"graph", StateGraphBuilt, (*Pipeline).buildGraph},
	{"compose", StateComposed, (*Pipeline).compose},
	{"normalize", StateNormalized, (*Pipeline).normalize},
	{"unions", StateUnionsResolved, (*Pipeline).resolveUnions},
	{"visitors", StateVisitorsBuilt, (*Pipeline).buildVisitors},
	{"verify", StateReady, (*Pipeline).verify},
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline drives one generation run.
type Pipeline struct {
	registry *spec.Registry
	model    *model.Model
	state    State
	failed   error
	runID    string
	logger   *zap.Logger

	// versions and their namespaces, in registry order
	versions  []spec.VersionEntry
	versionNS []model.NamespaceID
	// composed trait names per entity, resolved once every trait exists
	traitRefs map[model.EntityID][]string
}

// New creates a pipeline over registry.
func New(registry *spec.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		state:    StateNew,
		runID:    uuid.NewString(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("run_id", p.runID))
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	return p.state
}

// RunID returns the identifier attached to this run's logs.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Step runs the next stage.
func (p *Pipeline) Step() error {
	if p.failed != nil {
		return fmt.Errorf("pipeline failed earlier: %w", p.failed)
	}
	if p.state >= StateReady {
		return cerrors.NewConsistencyError(cerrors.ErrStageOrder, "pipeline is already %s", p.state)
	}

	st := stages[p.state]
	if st.target != p.state+1 {
		return cerrors.NewConsistencyError(cerrors.ErrStageOrder,
			"stage %s targets %s from %s", st.name, st.target, p.state)
	}

	start := time.Now()
	if err := st.run(p); err != nil {
		p.failed = err
		p.logger.Debug("stage failed",
			zap.String("stage", st.name),
			zap.Stringer("state", p.state),
			zap.String("error", cerrors.FormatCompact(err)))
		return fmt.Errorf("stage %s: %w", st.name, err)
	}
	p.state = st.target

	p.logger.Debug("stage complete",
		zap.String("stage", st.name),
		zap.Stringer("state", p.state),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Run runs every remaining stage until Ready. Cancellation is checked between
// stages; a stage itself always runs to completion.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.state >= StateReady {
		return cerrors.NewConsistencyError(cerrors.ErrStageOrder, "pipeline already ran")
	}
	for p.state < StateReady {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Step(); err != nil {
			return err
		}
	}

	namespaces, entities, traits, visitors := p.model.Index().Counts()
	p.logger.Info("concept model ready",
		zap.Int("namespaces", namespaces),
		zap.Int("entities", entities),
		zap.Int("traits", traits),
		zap.Int("types", len(p.model.Types())),
		zap.Int("visitors", visitors))
	return nil
}

// Model returns the finished model. It fails unless the pipeline is Ready.
func (p *Pipeline) Model() (*model.Model, error) {
	if p.state != StateReady {
		return nil, cerrors.NewConsistencyError(cerrors.ErrStageOrder,
			"model requested in state %s, want %s", p.state, StateReady)
	}
	return p.model, nil
}

// Build runs a fresh pipeline over registry and returns the Ready model.
func Build(ctx context.Context, registry *spec.Registry, opts ...Option) (*model.Model, error) {
	p := New(registry, opts...)
	if err := p.Run(ctx); err != nil {
		return nil, err
	}
	return p.Model()
}

// index validates the registry, fixes the version order and creates the model.
func (p *Pipeline) index() error {
	if p.registry == nil {
		return fmt.Errorf("no specification registry")
	}
	if err := p.registry.Validate(); err != nil {
		return err
	}
	p.versions = p.registry.Versions()
	p.model = model.New()
	return nil
}
