package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/puetzp/pullconf/internal/catalog"
	"github.com/puetzp/pullconf/pkg/logging"
)

const logScope = "scheduler"

// Scheduler drives convergence: a single-threaded pop-until-ready queue
// over a catalog's resources, grounded on
// original_source/client/src/configuration.rs's apply().
type Scheduler struct {
	queue   []catalog.Resource
	all     map[uuid.UUID]catalog.Resource
	applied map[uuid.UUID]Result
	assets  *AssetFetcher
}

// NewScheduler builds a scheduler over resources. assets may be nil when
// no File resource in the catalog sets source.
func NewScheduler(resources []catalog.Resource, assets *AssetFetcher) *Scheduler {
	queue := make([]catalog.Resource, len(resources))
	copy(queue, resources)
	all := make(map[uuid.UUID]catalog.Resource, len(resources))
	for _, r := range resources {
		all[r.ID()] = r
	}
	return &Scheduler{queue: queue, all: all, applied: make(map[uuid.UUID]Result, len(resources)), assets: assets}
}

// Run applies every resource in dependency order and returns the final
// per-resource results. Termination is guaranteed: the compiler's catalog
// is acyclic, so at least one queued resource is always ready.
func (s *Scheduler) Run(ctx context.Context) (map[uuid.UUID]Result, error) {
	for len(s.queue) > 0 {
		r := s.queue[0]
		s.queue = s.queue[1:]

		if !s.isReady(r) {
			s.queue = append(s.queue, r)
			continue
		}

		result := s.resolveByDependencyState(r)
		if result.Action == "" {
			result = s.apply(ctx, r)
		}
		s.applied[r.ID()] = result
		logging.Info(logScope, "applied resource", "kind", r.Kind(), "key", r.PrimaryKey(), "action", result.Action)
	}
	return s.applied, nil
}

func (s *Scheduler) isReady(r catalog.Resource) bool {
	for _, dep := range r.Dependencies() {
		if _, ok := s.applied[dep.ID]; !ok {
			return false
		}
	}
	return true
}

// resolveByDependencyState implements spec.md §4.6's failure/skip
// propagation: it returns a zero-value Result when the resource should
// proceed to its normal applier.
func (s *Scheduler) resolveByDependencyState(r catalog.Resource) Result {
	for _, dep := range r.Dependencies() {
		result := s.applied[dep.ID]
		if result.Action.IsFailed() {
			logging.Warn(logScope, "skipping resource: dependency failed", "kind", r.Kind(), "key", r.PrimaryKey(), "dependency", dep.ID)
			return Result{Action: Skipped}
		}
	}
	for _, dep := range r.Dependencies() {
		if s.applied[dep.ID].Action.IsSkipped() {
			return Result{Action: Skipped}
		}
	}
	if isEnsurePresent(r) {
		for _, dep := range r.Dependencies() {
			if depResource, ok := s.find(dep.ID); ok && isEnsureAbsent(depResource) {
				return Result{Action: Failed}
			}
		}
	}
	return Result{}
}

func (s *Scheduler) find(id uuid.UUID) (catalog.Resource, bool) {
	r, ok := s.all[id]
	return r, ok
}

func (s *Scheduler) apply(ctx context.Context, r catalog.Resource) Result {
	applier, err := Dispatch(r, s.assets)
	if err != nil {
		return Result{Action: Failed, Err: err}
	}
	if checker, ok := applier.(PrerequisiteChecker); ok {
		if err := checker.CheckPrerequisites(); err != nil {
			logging.Warn(logScope, "skipping resource: prerequisites unmet", "kind", r.Kind(), "key", r.PrimaryKey(), "error", err)
			return Result{Action: Skipped}
		}
	}
	action, err := applier.Apply(ctx)
	if err != nil {
		return Result{Action: Failed, Err: err}
	}
	return Result{Action: action}
}

func isEnsurePresent(r catalog.Resource) bool {
	return !isEnsureAbsent(r)
}

func isEnsureAbsent(r catalog.Resource) bool {
	switch v := r.(type) {
	case *catalog.File:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.Directory:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.Symlink:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.Host:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.ResolvConf:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.Group:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.User:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.AptPackage:
		return v.Parameters.Ensure == catalog.PackageEnsureAbsent || v.Parameters.Ensure == catalog.PackageEnsurePurged
	case *catalog.AptPreference:
		return v.Parameters.Ensure.IsAbsent()
	case *catalog.CronJob:
		return v.Parameters.Ensure.IsAbsent()
	default:
		return false
	}
}
