package agent

import (
	"context"
	"os/exec"
	"strings"

	"github.com/puetzp/pullconf/internal/catalog"
)

const (
	dpkgQueryBin = "/usr/bin/dpkg-query"
	aptGetBin    = "/usr/bin/apt-get"
)

// aptPackageApplier manages a Debian package's installation state via
// apt-get, grounded on
// original_source/client/src/resources/apt/package.rs.
type aptPackageApplier struct {
	params catalog.AptPackageParameters
}

func (a *aptPackageApplier) CheckPrerequisites() error {
	return requireBinaries(dpkgQueryBin, aptGetBin)
}

func (a *aptPackageApplier) Apply(ctx context.Context) (Action, error) {
	installedVersion, installed := a.queryInstalled(ctx)

	switch a.params.Ensure {
	case catalog.PackageEnsureAbsent, catalog.PackageEnsurePurged:
		if !installed {
			return Unchanged, nil
		}
		args := []string{"remove"}
		if a.params.Ensure == catalog.PackageEnsurePurged {
			args = []string{"purge"}
		}
		args = append(args, "--quiet", "--quiet", "--yes", a.params.Name)
		if err := exec.CommandContext(ctx, aptGetBin, args...).Run(); err != nil {
			return Failed, err
		}
		return Deleted, nil

	default: // present
		if installed {
			if a.params.Version == nil || installedVersion == *a.params.Version {
				return Unchanged, nil
			}
		}
		name := a.params.Name
		if a.params.Version != nil {
			name = name + "=" + *a.params.Version
		}
		args := []string{"install", name, "--quiet", "--quiet", "--yes"}
		if err := exec.CommandContext(ctx, aptGetBin, args...).Run(); err != nil {
			return Failed, err
		}
		if installed {
			return Changed, nil
		}
		return Created, nil
	}
}

func (a *aptPackageApplier) queryInstalled(ctx context.Context) (string, bool) {
	out, err := exec.CommandContext(ctx, dpkgQueryBin, "-W", "-f", "${Version}", a.params.Name).Output()
	if err != nil {
		return "", false
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return "", false
	}
	return version, true
}
