package llmsection

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/draftgrid/internal/llm"
	"github.com/vk/draftgrid/internal/registry"
	"github.com/vk/draftgrid/internal/testutil"
)

func newModule(t *testing.T, handler http.HandlerFunc) *Module {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := llm.NewClient(llm.Config{BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)
	return &Module{Client: client}
}

func TestOnRunSectionPrependsHeading(t *testing.T) {
	var userPrompt string
	m := newModule(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		userPrompt = req.Messages[1].Content

		w.Write([]byte(`{"choices": [{"message": {"content": "The site is feasible.\n"}, "finish_reason": "stop"}]}`))
	})

	sectionCtx := "## site_survey\nFlat terrain."
	out, err := m.OnRunSection(testutil.Context(t), &Input{
		Heading: "Feasibility",
		Prompt:  "Assess feasibility.",
		Data:    map[string]string{"zone": "industrial", "area": "12ha"},
	}, &sectionCtx)
	require.NoError(t, err)

	assert.Equal(t, "## Feasibility\n\nThe site is feasible.", out)
	assert.Contains(t, userPrompt, "Assess feasibility.")
	assert.Contains(t, userPrompt, "- area: 12ha\n- zone: industrial", "data pairs are sorted by key")
	assert.Contains(t, userPrompt, "Context from earlier sections:\n\n## site_survey\nFlat terrain.")
}

func TestOnRunSectionWithoutHeadingOrContext(t *testing.T) {
	var userPrompt string
	m := newModule(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		userPrompt = req.Messages[1].Content
		w.Write([]byte(`{"choices": [{"message": {"content": "body only"}}]}`))
	})

	out, err := m.OnRunSection(testutil.Context(t), &Input{Prompt: "Write it."}, nil)
	require.NoError(t, err)
	assert.Equal(t, "body only", out)
	assert.Equal(t, "Write it.", userPrompt)
}

func TestOnRunSectionPropagatesClientError(t *testing.T) {
	m := newModule(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	})

	_, err := m.OnRunSection(testutil.Context(t), &Input{Prompt: "Write it."}, nil)
	assert.ErrorContains(t, err, "status 401")
}

func TestRegisterWiresAgent(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(testutil.Context(t), r)

	agent, err := r.Agent("llm_section")
	require.NoError(t, err)
	assert.IsType(t, &Input{}, agent.NewInput())
}
