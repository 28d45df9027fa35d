// Package worker holds the registry of external agents the supervisor
// can delegate to, the transfer_to_* handoff primitives, and the
// invocation logic that runs one worker against the conversation.
package worker

import (
	"context"
	"fmt"
	"strings"

	"overseer/internal/message"
)

// Capability is the narrow surface a worker exposes: message history
// in, the worker's own message list out.
type Capability interface {
	Invoke(ctx context.Context, msgs []message.Message) ([]message.Message, error)
}

// CapabilityFunc adapts a plain function to a Capability.
type CapabilityFunc func(ctx context.Context, msgs []message.Message) ([]message.Message, error)

func (f CapabilityFunc) Invoke(ctx context.Context, msgs []message.Message) ([]message.Message, error) {
	return f(ctx, msgs)
}

// OutputMode selects what part of a worker's reply is appended to the
// conversation.
type OutputMode string

const (
	OutputLastMessage OutputMode = "last_message"
	OutputFullHistory OutputMode = "full_history"
)

// Definition binds a worker name to its capability.
type Definition struct {
	Name        string
	Description string
	Mode        OutputMode
	Cap         Capability
}

// Registry is the orchestrator's worker lookup table, built once at
// construction. Registration order is preserved for prompts.
type Registry struct {
	order []string
	defs  map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

func (r *Registry) Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("worker name is required")
	}
	if def.Cap == nil {
		return fmt.Errorf("worker %q has no capability", name)
	}
	if _, dup := r.defs[name]; dup {
		return fmt.Errorf("worker %q already registered", name)
	}
	if def.Mode == "" {
		def.Mode = OutputLastMessage
	}
	def.Name = name
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }

// Descriptions returns worker-name → description for planner hints.
func (r *Registry) Descriptions() map[string]string {
	out := make(map[string]string, len(r.order))
	for _, name := range r.order {
		out[name] = r.defs[name].Description
	}
	return out
}

// Catalog renders the delegation primitives for the reasoner prompt.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	sb.WriteString("AVAILABLE AGENTS:\n")
	for _, name := range r.order {
		def := r.defs[name]
		sb.WriteString(fmt.Sprintf("- `%s` (delegate via `%s`): %s\n", name, ToolName(name), def.Description))
	}
	return sb.String()
}
