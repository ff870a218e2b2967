package agent

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/puetzp/pullconf/internal/catalog"
)

const (
	groupaddBin = "/usr/sbin/groupadd"
	groupdelBin = "/usr/sbin/groupdel"
)

// groupApplier manages a Unix group account, grounded on
// original_source/client/src/resources/group.rs.
type groupApplier struct {
	params catalog.GroupParameters
}

func (a *groupApplier) CheckPrerequisites() error {
	return requireBinaries(groupaddBin, groupdelBin)
}

func (a *groupApplier) Apply(ctx context.Context) (Action, error) {
	exists, err := groupExists(a.params.Name)
	if err != nil {
		return Failed, err
	}

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := exec.CommandContext(ctx, groupdelBin, a.params.Name).Run(); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	if exists {
		return Unchanged, nil
	}

	args := []string{}
	if a.params.System {
		args = append(args, "--system")
	}
	args = append(args, a.params.Name)
	if err := exec.CommandContext(ctx, groupaddBin, args...).Run(); err != nil {
		return Failed, err
	}
	return Created, nil
}

// groupExists scans /etc/group's first colon-delimited field, matching
// original_source/client/src/resources/group.rs's exists().
func groupExists(name string) (bool, error) {
	f, err := os.Open("/etc/group")
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		field, _, _ := strings.Cut(scanner.Text(), ":")
		if field == name {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func requireBinaries(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return err
		}
	}
	return nil
}
