package agent

import (
	"context"
	"os"
	"path/filepath"

	"github.com/puetzp/pullconf/internal/catalog"
)

type directoryApplier struct {
	params   catalog.DirectoryParameters
	children []catalog.Child
}

func (a *directoryApplier) Apply(ctx context.Context) (Action, error) {
	path := a.params.Path
	info, statErr := os.Stat(path)
	exists := statErr == nil

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := os.Remove(path); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	action := Unchanged
	if !exists {
		if err := os.Mkdir(path, 0o755); err != nil {
			return Failed, err
		}
		action = Created
	} else if !info.IsDir() {
		return Failed, &os.PathError{Op: "mkdir", Path: path, Err: os.ErrExist}
	}

	if err := chownPath(path, a.params.Owner, a.params.Group); err != nil {
		return Failed, err
	}

	if a.params.Purge && len(a.children) > 0 {
		if purged, err := a.purge(path); err != nil {
			return Failed, err
		} else if purged && action == Unchanged {
			action = Changed
		}
	}

	return action, nil
}

// purge removes directory entries not recorded as this directory's
// children at compile time, per the directory "purge" mode.
func (a *directoryApplier) purge(path string) (bool, error) {
	known := make(map[string]bool, len(a.children))
	for _, c := range a.children {
		known[filepath.Base(c.Path)] = true
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}

	purged := false
	for _, entry := range entries {
		if known[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(path, entry.Name())); err != nil {
			return purged, err
		}
		purged = true
	}
	return purged, nil
}
