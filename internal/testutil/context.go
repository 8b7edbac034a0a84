// Package testutil provides small helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vk/draftgrid/internal/ctxlog"
)

// Context returns a context carrying a discard logger, satisfying the
// ctxlog contract without polluting test output.
func Context(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}
