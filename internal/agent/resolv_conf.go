package agent

import (
	"context"
	"os"

	"github.com/puetzp/pullconf/internal/catalog"
)

type resolvConfApplier struct {
	params catalog.ResolvConfParameters
}

func (a *resolvConfApplier) Apply(ctx context.Context) (Action, error) {
	target := a.params.Target

	if a.params.Ensure.IsAbsent() {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return Unchanged, nil
		} else if err != nil {
			return Failed, err
		}
		if err := os.Remove(target); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	desired := a.params.Render()
	current, err := os.ReadFile(target)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return Failed, err
	}

	if exists && string(current) == desired {
		return Unchanged, nil
	}

	if err := writeLines(target, splitRendered(desired)); err != nil {
		return Failed, err
	}
	if exists {
		return Changed, nil
	}
	return Created, nil
}

// splitRendered turns Render's trailing-newline-terminated text back into
// the line slice writeLines expects.
func splitRendered(text string) []string {
	if text == "" {
		return nil
	}
	if text[len(text)-1] == '\n' {
		text = text[:len(text)-1]
	}
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}
