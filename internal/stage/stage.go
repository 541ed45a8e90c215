// Package stage defines the contract analysis stages implement and the
// registry the pipeline executor runs them from.
package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"convolens/internal/conversation"
)

// Handler describes the contract the pipeline executor needs from each
// analysis stage. Run returns the stage's JSON payload; a non-nil error
// fails only this stage, never the run as a whole.
type Handler interface {
	Name() string
	Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error)
}

// Registry holds the stages enabled for pipeline runs, keyed by name.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry builds a registry from the given handlers. Duplicate stage
// names are rejected.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		name := h.Name()
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("duplicate stage %q", name)
		}
		r.handlers[name] = h
		r.order = append(r.order, name)
	}
	return r, nil
}

// Without returns a copy of the registry with the named stages removed.
// Unknown names are ignored.
func (r *Registry) Without(names ...string) *Registry {
	disabled := make(map[string]struct{}, len(names))
	for _, name := range names {
		disabled[name] = struct{}{}
	}
	filtered := &Registry{handlers: make(map[string]Handler, len(r.handlers))}
	for _, name := range r.order {
		if _, skip := disabled[name]; skip {
			continue
		}
		filtered.handlers[name] = r.handlers[name]
		filtered.order = append(filtered.order, name)
	}
	return filtered
}

// Handlers returns the registered stages in registration order.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.handlers[name])
	}
	return out
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	names = append(names, r.order...)
	sort.Strings(names)
	return names
}

// Len reports the number of registered stages.
func (r *Registry) Len() int {
	return len(r.handlers)
}
