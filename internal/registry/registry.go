package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/model"
)

// Handler generates the text of one section. The input is the decoded
// arguments struct produced by the agent's NewInput factory, and sectionCtx
// carries the assembled excerpts of the section's dependencies (nil when the
// section has none).
type Handler func(ctx context.Context, input any, sectionCtx *string) (string, error)

// Module is implemented by every package under modules/; Register wires the
// package's agents into the registry during startup.
type Module interface {
	Register(ctx context.Context, r *Registry)
}

// RegisteredAgent bundles a handler with the factory for its typed input.
type RegisteredAgent struct {
	// NewInput returns a pointer to a fresh, zero-valued input struct that
	// the plan's arguments block is decoded into before each invocation.
	NewInput func() any

	Fn Handler
}

// Registry maps agent type names to their implementations. Registration
// happens once during startup and is not synchronized; lookups after that
// are read-only and safe for concurrent use.
type Registry struct {
	agents map[string]*RegisteredAgent
}

func New() *Registry {
	return &Registry{
		agents: make(map[string]*RegisteredAgent),
	}
}

// RegisterAgent adds an agent under the given type name. A duplicate name is
// a programmer error in module wiring, so it panics rather than returning.
func (r *Registry) RegisterAgent(ctx context.Context, name string, agent *RegisteredAgent) {
	logger := ctxlog.FromContext(ctx)

	if _, exists := r.agents[name]; exists {
		panic(fmt.Sprintf("agent type %q is already registered", name))
	}
	if agent == nil || agent.Fn == nil {
		panic(fmt.Sprintf("agent type %q registered without a handler", name))
	}

	r.agents[name] = agent
	logger.Debug("Registered agent", slog.String("type", name))
}

// Agent returns the registration for a type name, or an error naming the
// known types when it is missing.
func (r *Registry) Agent(name string) (*RegisteredAgent, error) {
	agent, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent type %q (registered: %v)", name, r.names())
	}
	return agent, nil
}

// Validate checks that every section in the plan refers to a registered
// agent type, so a typo fails before any work starts.
func (r *Registry) Validate(plan *model.Plan) error {
	for _, s := range plan.Sections {
		if _, err := r.Agent(s.AgentType); err != nil {
			return fmt.Errorf("section %q: %w", s.Name, err)
		}
	}
	return nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
