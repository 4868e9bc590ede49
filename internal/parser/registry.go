package parser

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// ErrUnknownParserType is returned when no constructor is registered for a type.
var ErrUnknownParserType = errors.New("unknown parser type")

// Registry maps parser type names to constructors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for parserType.
func (r *Registry) Register(parserType string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[parserType] = ctor
}

// Get returns the constructor for parserType.
func (r *Registry) Get(parserType string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[parserType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParserType, parserType)
	}
	return ctor, nil
}

// New resolves and constructs the parser for src.
func (r *Registry) New(src event.Source, deps Deps) (Parser, error) {
	ctor, err := r.Get(src.ParserType)
	if err != nil {
		return nil, err
	}
	return ctor(src, deps)
}

// Supported returns the registered parser types in sorted order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
