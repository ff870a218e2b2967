package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/puetzp/pullconf/internal/catalog"
)

// symlinkApplier compares the link's raw target string, uncanonicalized,
// matching original_source/client/src/resources/symlink.rs: a symlink
// pointing at "/a/./b" is not equivalent to one pointing at "/a/b".
type symlinkApplier struct {
	params catalog.SymlinkParameters
}

func (a *symlinkApplier) Apply(ctx context.Context) (Action, error) {
	path := a.params.Path
	current, err := os.Readlink(path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		if _, statErr := os.Lstat(path); statErr != nil && os.IsNotExist(statErr) {
			exists = false
		} else if statErr == nil {
			return Failed, fmt.Errorf("%s exists and is not a symlink", path)
		}
	}

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := os.Remove(path); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	if exists && current == a.params.Target {
		return Unchanged, nil
	}

	if _, err := os.Lstat(a.params.Target); err != nil {
		return Failed, fmt.Errorf("symlink target %q does not exist", a.params.Target)
	}

	if exists {
		if err := os.Remove(path); err != nil {
			return Failed, err
		}
	}
	if err := os.Symlink(a.params.Target, path); err != nil {
		return Failed, err
	}
	if exists {
		return Changed, nil
	}
	return Created, nil
}
