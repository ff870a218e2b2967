package agent

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/puetzp/pullconf/internal/catalog"
)

// cronJobApplier manages the whole crontab file at the job's target, grounded on
// original_source/client/src/resources/cron/job.rs's _apply.
type cronJobApplier struct {
	params catalog.CronJobParameters
}

func (a *cronJobApplier) Apply(ctx context.Context) (Action, error) {
	target := a.params.Target
	current, err := os.ReadFile(target)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return Failed, err
	}

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := os.Remove(target); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	desired := a.params.Render()

	if exists && sha256.Sum256(current) == sha256.Sum256([]byte(desired)) {
		return Unchanged, nil
	}

	if !exists {
		if err := os.WriteFile(target, []byte(desired), 0o644); err != nil {
			return Failed, err
		}
		return Created, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".pullconf-*")
	if err != nil {
		return Failed, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(desired); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Failed, err
	}
	tmp.Close()
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return Failed, err
	}
	return Changed, nil
}
