package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalPlanPath(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"plans/"}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "plans/", cfg.PlanPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.MaxParallel)
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-plan", "report.hcl",
		"-output", "out/report.md",
		"-log-format", "text",
		"-log-level", "debug",
		"-max-parallel", "4",
		"-telemetry-port", "9090",
		"-progress-url", "http://localhost:3000/socket.io",
	}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "report.hcl", cfg.PlanPath)
	assert.Equal(t, "out/report.md", cfg.OutputPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, 9090, cfg.TelemetryPort)
	assert.Equal(t, "http://localhost:3000/socket.io", cfg.ProgressURL)
}

func TestParseReadsLLMEnvironment(t *testing.T) {
	t.Setenv("DRAFTGRID_LLM_URL", "http://localhost:8080/v1")
	t.Setenv("DRAFTGRID_LLM_MODEL", "local-model")
	t.Setenv("DRAFTGRID_LLM_API_KEY", "sk-test")

	cfg, _, err := Parse([]string{"plan.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLMBaseURL)
	assert.Equal(t, "local-model", cfg.LLMModel)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, _, err := Parse([]string{"-log-format", "xml", "plan.hcl"}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid log-format")

	_, _, err = Parse([]string{"-log-level", "loud", "plan.hcl"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-level")

	_, _, err = Parse([]string{"-max-parallel", "-2", "plan.hcl"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "MaxParallel")
}
