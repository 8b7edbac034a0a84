package engine

import (
	"fmt"
	"strings"
)

// BuildContext assembles the dependency context for a task: one labelled
// excerpt per succeeded dependency, truncated to excerptLimit characters.
// Dependencies that failed, were cancelled, or produced no text are skipped
// so downstream tasks degrade instead of inheriting garbage. The boolean is
// false only when the task declares no dependencies at all.
func BuildContext(dependsOn []string, results map[string]TaskResult, excerptLimit int) (string, bool) {
	if len(dependsOn) == 0 {
		return "", false
	}

	var b strings.Builder
	for _, dep := range dependsOn {
		res, ok := results[dep]
		if !ok || res.Status != StatusSucceeded {
			continue
		}
		text := strings.TrimSpace(res.Output)
		if text == "" {
			continue
		}
		if excerptLimit > 0 {
			// The limit counts characters, not bytes, so multi-byte
			// output is never cut mid-rune.
			if runes := []rune(text); len(runes) > excerptLimit {
				text = string(runes[:excerptLimit])
			}
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n%s", dep, text)
	}
	return b.String(), true
}
