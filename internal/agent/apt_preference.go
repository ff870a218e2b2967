package agent

import (
	"context"
	"os"

	"github.com/puetzp/pullconf/internal/catalog"
)

// aptPreferenceApplier manages an apt pinning stanza. Authored from scratch
// in the cron job applier's idiom (render, diff, write-temp-rename, delete
// on absent), since the original project never shipped an applier for this
// kind — see SPEC_FULL.md's supplemented features.
type aptPreferenceApplier struct {
	params catalog.AptPreferenceParameters
}

func (a *aptPreferenceApplier) Apply(ctx context.Context) (Action, error) {
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
	if !exists {
		if err := os.WriteFile(target, []byte(desired), 0o644); err != nil {
			return Failed, err
		}
		return Created, nil
	}
	if err := writeLines(target, splitRendered(desired)); err != nil {
		return Failed, err
	}
	return Changed, nil
}
