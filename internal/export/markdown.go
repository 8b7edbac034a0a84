// Package export assembles section outputs into the final Markdown document
// and writes it to disk. Sections appear in plan order; a failed section
// leaves a visible placeholder instead of silently disappearing.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/engine"
	"github.com/vk/draftgrid/internal/model"
)

// Markdown renders the document: the plan's title followed by every
// section's output in plan order. Failed and cancelled sections are replaced
// by placeholders under the section's name.
func Markdown(plan *model.Plan, results map[string]engine.TaskResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", plan.Document.Title)

	for _, s := range plan.Sections {
		b.WriteString("\n")
		res, ok := results[s.Name]
		switch {
		case ok && res.Status == engine.StatusSucceeded:
			b.WriteString(strings.TrimRight(res.Output, "\n"))
			b.WriteString("\n")
		case ok && res.Status == engine.StatusCancelled:
			fmt.Fprintf(&b, "## %s\n\n_[section cancelled]_\n", s.Name)
		default:
			reason := "unknown error"
			if ok && res.Err != nil {
				reason = res.Err.Error()
			}
			fmt.Fprintf(&b, "## %s\n\n_[generation failed: %s]_\n", s.Name, reason)
		}
	}

	return b.String()
}

// WriteFile writes the assembled document, creating parent directories as
// needed.
func WriteFile(ctx context.Context, path string, content string) error {
	logger := ctxlog.FromContext(ctx)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	logger.Info("📄 Document written",
		slog.String("path", path), slog.Int("bytes", len(content)))
	return nil
}
