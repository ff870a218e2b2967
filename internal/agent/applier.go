package agent

import (
	"context"
	"fmt"

	"github.com/puetzp/pullconf/internal/catalog"
)

// Applier implements one resource kind's state-reconciliation algorithm.
// An applier that also implements PrerequisiteChecker lets the scheduler
// skip a resource whose required binaries are missing from the host,
// mirroring the original's
// check_prerequisites/ResourceTrait split.
type Applier interface {
	Apply(ctx context.Context) (Action, error)
}

// PrerequisiteChecker is implemented by appliers that depend on external
// binaries (apt-get, dpkg-query, useradd, groupadd, ...).
type PrerequisiteChecker interface {
	CheckPrerequisites() error
}

// Dispatch returns the applier for r, mirroring the compiler's per-kind
// switch in internal/catalog/build.go. assets may be nil; it is only
// consulted by File resources whose source parameter is set.
func Dispatch(r catalog.Resource, assets *AssetFetcher) (Applier, error) {
	switch v := r.(type) {
	case *catalog.File:
		return &fileApplier{params: v.Parameters, assets: assets}, nil
	case *catalog.Directory:
		return &directoryApplier{params: v.Parameters, children: v.Children}, nil
	case *catalog.Symlink:
		return &symlinkApplier{params: v.Parameters}, nil
	case *catalog.Host:
		return &hostApplier{params: v.Parameters}, nil
	case *catalog.ResolvConf:
		return &resolvConfApplier{params: v.Parameters}, nil
	case *catalog.Group:
		return &groupApplier{params: v.Parameters}, nil
	case *catalog.User:
		return &userApplier{params: v.Parameters}, nil
	case *catalog.AptPackage:
		return &aptPackageApplier{params: v.Parameters}, nil
	case *catalog.AptPreference:
		return &aptPreferenceApplier{params: v.Parameters}, nil
	case *catalog.CronJob:
		return &cronJobApplier{params: v.Parameters}, nil
	default:
		return nil, fmt.Errorf("no applier registered for resource kind %s", r.Kind())
	}
}
