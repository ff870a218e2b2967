package agent

import (
	"context"
	"os/exec"
	"os/user"
	"sort"
	"strings"

	"github.com/puetzp/pullconf/internal/catalog"
)

const (
	useraddBin  = "/usr/sbin/useradd"
	usermodBin  = "/usr/sbin/usermod"
	userdelBin  = "/usr/sbin/userdel"
	chpasswdBin = "/usr/sbin/chpasswd"
)

// userApplier manages a Unix user account, grounded on
// original_source/common/src/resources/user.rs. Existing accounts are looked
// up through os/user.
type userApplier struct {
	params catalog.UserParameters
}

func (a *userApplier) CheckPrerequisites() error {
	return requireBinaries(useraddBin, usermodBin, userdelBin)
}

func (a *userApplier) Apply(ctx context.Context) (Action, error) {
	u, lookupErr := user.Lookup(a.params.Name)
	exists := lookupErr == nil

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := exec.CommandContext(ctx, userdelBin, a.params.Name).Run(); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	if !exists {
		args := []string{"-d", a.params.Home, "-g", a.params.Group}
		if len(a.params.Groups) > 0 {
			args = append(args, "-G", strings.Join(a.params.SortedGroups(), ","))
		}
		if a.params.Comment != nil {
			args = append(args, "-c", *a.params.Comment)
		}
		if a.params.Shell != nil {
			args = append(args, "-s", *a.params.Shell)
		}
		if a.params.System {
			args = append(args, "--system")
		}
		args = append(args, a.params.Name)
		if err := exec.CommandContext(ctx, useraddBin, args...).Run(); err != nil {
			return Failed, err
		}
		if !a.params.Password.Locked {
			if err := setPassword(ctx, a.params.Name, a.params.Password.Hash); err != nil {
				return Failed, err
			}
		}
		return Created, nil
	}

	groups, err := currentSupplementaryGroups(u)
	if err != nil {
		return Failed, err
	}
	changed := u.HomeDir != a.params.Home || !sameSorted(groups, a.params.SortedGroups())

	if !changed {
		return Unchanged, nil
	}

	args := []string{"-d", a.params.Home, "-g", a.params.Group}
	if len(a.params.Groups) > 0 {
		args = append(args, "-G", strings.Join(a.params.SortedGroups(), ","))
	}
	args = append(args, a.params.Name)
	if err := exec.CommandContext(ctx, usermodBin, args...).Run(); err != nil {
		return Failed, err
	}
	return Changed, nil
}

func currentSupplementaryGroups(u *user.User) ([]string, error) {
	gids, err := u.GroupIds()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(gids))
	for _, gid := range gids {
		if gid == u.Gid {
			continue
		}
		g, err := user.LookupGroupId(gid)
		if err != nil {
			continue
		}
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names, nil
}

func sameSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func setPassword(ctx context.Context, name, hash string) error {
	cmd := exec.CommandContext(ctx, chpasswdBin, "-e")
	cmd.Stdin = strings.NewReader(name + ":" + hash + "\n")
	return cmd.Run()
}
