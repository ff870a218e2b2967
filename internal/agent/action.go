// Package agent implements pullconf-agent's convergence side: fetching the
// compiled catalog, scheduling resources in dependency order, and applying
// each kind's state-reconciliation algorithm. Grounded on
// original_source/client/src/configuration.rs and
// original_source/client/src/resources/*.rs.
package agent

// Action records what an applier did (or would have done) to a resource,
// mirroring original_source/client/src/resources/mod.rs's Action enum.
type Action string

const (
	Unchanged Action = "unchanged"
	Created   Action = "created"
	Changed   Action = "changed"
	Deleted   Action = "deleted"
	Skipped   Action = "skipped"
	Failed    Action = "failed"
)

func (a Action) IsFailed() bool  { return a == Failed }
func (a Action) IsSkipped() bool { return a == Skipped }

// Result is the outcome of applying one resource: the action taken, and the
// error that produced a Failed action, if any.
type Result struct {
	Action Action
	Err    error
}
