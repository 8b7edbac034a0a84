// Package llmsection implements the llm_section agent: it prompts a chat
// completion endpoint to write one document section, threading excerpts from
// the section's dependencies into the prompt.
package llmsection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/draftgrid/internal/llm"
	"github.com/vk/draftgrid/internal/registry"
)

const systemPrompt = "You are a technical writer producing one section of a larger Markdown document. " +
	"Write only the body of the requested section, in Markdown, without repeating the section heading."

// Module implements the registry.Module interface for this package.
type Module struct {
	Client *llm.Client
}

// Input defines the arguments for the llm_section agent.
type Input struct {
	Heading     string            `hcl:"heading,optional"`
	Prompt      string            `hcl:"prompt"`
	Data        map[string]string `hcl:"data,optional"`
	Temperature *float64          `hcl:"temperature,optional"`
	MaxTokens   int               `hcl:"max_tokens,optional"`
}

// OnRunSection is the handler for the 'llm_section' agent.
func (m *Module) OnRunSection(ctx context.Context, rawInput any, sectionCtx *string) (string, error) {
	input := rawInput.(*Input)

	resp, err := m.Client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(input, sectionCtx)},
		},
		Temperature: input.Temperature,
		MaxTokens:   input.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	body := strings.TrimSpace(resp.Content)
	if input.Heading == "" {
		return body, nil
	}
	return fmt.Sprintf("## %s\n\n%s", input.Heading, body), nil
}

// buildUserPrompt combines the section prompt with the optional data pairs
// and dependency context. Data keys are sorted so the prompt is stable
// across runs.
func buildUserPrompt(input *Input, sectionCtx *string) string {
	var b strings.Builder
	b.WriteString(input.Prompt)

	if len(input.Data) > 0 {
		b.WriteString("\n\nInput data:\n")
		keys := make([]string, 0, len(input.Data))
		for k := range input.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, input.Data[k])
		}
	}

	if sectionCtx != nil && strings.TrimSpace(*sectionCtx) != "" {
		b.WriteString("\n\nContext from earlier sections:\n\n")
		b.WriteString(*sectionCtx)
	}

	return b.String()
}

// Register registers the agent with the engine.
func (m *Module) Register(ctx context.Context, r *registry.Registry) {
	r.RegisterAgent(ctx, "llm_section", &registry.RegisteredAgent{
		NewInput: func() any { return new(Input) },
		Fn:       m.OnRunSection,
	})
}
