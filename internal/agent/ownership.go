package agent

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// resolveOwnerIDs resolves owner (and, if set, group) to numeric ids. An
// empty group resolves to owner's primary gid, which is what chownPath
// applies and what ownershipDiffers compares against on-disk state.
func resolveOwnerIDs(owner, group string) (uid, gid int, err error) {
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, 0, err
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}

	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return 0, 0, err
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return 0, 0, err
		}
		return uid, gid, nil
	}

	gid, err = strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

// chownPath resolves owner (and, if set, group) to numeric ids and applies
// them to path. An empty group sets the file's group to owner's primary
// group.
func chownPath(path, owner, group string) error {
	uid, gid, err := resolveOwnerIDs(owner, group)
	if err != nil {
		return err
	}
	return os.Chown(path, uid, gid)
}

// ownershipDiffers reports whether info's on-disk uid/gid differ from owner
// (and group, if set), per spec.md §4.7's independent ownership
// reconciliation and original_source/client/src/resources/file.rs:245's
// metadata.uid()/gid() comparison.
func ownershipDiffers(info os.FileInfo, owner, group string) (bool, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("cannot determine ownership of %s", info.Name())
	}
	uid, gid, err := resolveOwnerIDs(owner, group)
	if err != nil {
		return false, err
	}
	return int(stat.Uid) != uid || int(stat.Gid) != gid, nil
}
