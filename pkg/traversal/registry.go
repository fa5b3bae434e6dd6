package traversal

import (
	"fmt"
	"maps"
	"slices"
)

// Registry maps pipetype names to handlers. A Registry is not safe for
// concurrent registration; register everything before compiling Programs.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty Registry. See NewBuiltinRegistry for one that
// knows the built-in pipetypes.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds name to h. Registering an existing name replaces its handler
// for every Program compiled afterwards; already compiled Programs keep the
// handler they were compiled with.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPipetype, name)
	}
	return h, nil
}

// Names returns the registered pipetype names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.handlers))
}
