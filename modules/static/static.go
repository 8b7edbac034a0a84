// Package static implements the static agent: it emits fixed text verbatim.
// Useful for title pages and boilerplate sections, and as a deterministic
// stand-in when exercising a plan without an LLM endpoint.
package static

import (
	"context"
	"fmt"

	"github.com/vk/draftgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the static agent.
type Input struct {
	Heading string `hcl:"heading,optional"`
	Text    string `hcl:"text"`
}

// OnRunStatic is the handler for the 'static' agent.
func OnRunStatic(ctx context.Context, rawInput any, sectionCtx *string) (string, error) {
	input := rawInput.(*Input)
	if input.Heading == "" {
		return input.Text, nil
	}
	return fmt.Sprintf("## %s\n\n%s", input.Heading, input.Text), nil
}

// Register registers the agent with the engine.
func (m *Module) Register(ctx context.Context, r *registry.Registry) {
	r.RegisterAgent(ctx, "static", &registry.RegisteredAgent{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunStatic,
	})
}
