// Package emit hands a Ready concept model to code emission backends.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// Output receives the files a backend produces.
type Output interface {
	WriteFile(name string, data []byte) error
}

// DirOutput writes files below a directory.
type DirOutput struct {
	Dir string
}

// WriteFile writes data to Dir/name, creating directories as needed.
func (o DirOutput) WriteFile(name string, data []byte) error {
	path := filepath.Join(o.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// MemoryOutput collects files in memory.
type MemoryOutput struct {
	Files map[string][]byte
}

// NewMemoryOutput creates an empty in-memory output.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{Files: make(map[string][]byte)}
}

// WriteFile records data under name.
func (o *MemoryOutput) WriteFile(name string, data []byte) error {
	o.Files[name] = append([]byte(nil), data...)
	return nil
}

// Backend turns a Ready model into files for one target language.
type Backend interface {
	Emit(m *model.Model, out Output) error
}

// Options configures a backend instance.
type Options struct {
	// Format is the serialization format for data-oriented backends
	Format string
	// RunID identifies the generation run that produced the model
	RunID string
}

// Factory creates a backend.
type Factory func(opts Options) (Backend, error)

// Registry manages available backends, keyed by target language.
type Registry struct {
	factories map[string]Factory
	mutex     sync.RWMutex
}

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a backend factory for language
func (r *Registry) Register(language string, factory Factory) error {
	if language == "" {
		return fmt.Errorf("backend language must not be empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.factories[language]; exists {
		return fmt.Errorf("backend %s already registered", language)
	}

	r.factories[language] = factory
	return nil
}

// New creates the backend registered for language
func (r *Registry) New(language string, opts Options) (Backend, error) {
	r.mutex.RLock()
	factory, exists := r.factories[language]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no backend for target language %s", language)
	}
	return factory(opts)
}

// Languages returns the registered languages, sorted
func (r *Registry) Languages() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	languages := make([]string, 0, len(r.factories))
	for language := range r.factories {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// Exists checks if a backend is registered for language
func (r *Registry) Exists(language string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.factories[language]
	return exists
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(SummaryLanguage, NewSummaryBackend); err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the registry holding the built-in backends
func DefaultRegistry() *Registry {
	return defaultRegistry
}
