package static

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/draftgrid/internal/registry"
	"github.com/vk/draftgrid/internal/testutil"
)

func TestOnRunStatic(t *testing.T) {
	out, err := OnRunStatic(testutil.Context(t), &Input{Text: "plain body"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain body", out)

	out, err = OnRunStatic(testutil.Context(t), &Input{Heading: "Title Page", Text: "Acme Corp"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Title Page\n\nAcme Corp", out)
}

func TestRegisterWiresAgent(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(testutil.Context(t), r)

	agent, err := r.Agent("static")
	require.NoError(t, err)
	assert.IsType(t, &Input{}, agent.NewInput())
}
