package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/draftgrid/internal/model"
	"github.com/vk/draftgrid/internal/testutil"
)

func noopAgent() *RegisteredAgent {
	return &RegisteredAgent{
		NewInput: func() any { return &struct{}{} },
		Fn: func(ctx context.Context, input any, sectionCtx *string) (string, error) {
			return "", nil
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.RegisterAgent(testutil.Context(t), "llm_section", noopAgent())

	agent, err := r.Agent("llm_section")
	require.NoError(t, err)
	assert.NotNil(t, agent.Fn)

	_, err = r.Agent("missing")
	assert.ErrorContains(t, err, `unknown agent type "missing"`)
	assert.ErrorContains(t, err, "llm_section")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New()
	ctx := testutil.Context(t)
	r.RegisterAgent(ctx, "static", noopAgent())

	assert.PanicsWithValue(t, `agent type "static" is already registered`, func() {
		r.RegisterAgent(ctx, "static", noopAgent())
	})
}

func TestRegistrationWithoutHandlerPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() {
		r.RegisterAgent(testutil.Context(t), "broken", &RegisteredAgent{})
	})
}

func TestValidatePlan(t *testing.T) {
	r := New()
	r.RegisterAgent(testutil.Context(t), "static", noopAgent())

	plan := model.NewPlan()
	plan.Sections = []*model.Section{
		{AgentType: "static", Name: "intro"},
	}
	require.NoError(t, r.Validate(plan))

	plan.Sections = append(plan.Sections, &model.Section{AgentType: "llm_section", Name: "body"})
	err := r.Validate(plan)
	assert.ErrorContains(t, err, `section "body"`)
	assert.ErrorContains(t, err, "unknown agent type")
}
