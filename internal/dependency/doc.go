// Package dependency implements the directed graph the catalog compiler
// uses to record "requires" edges between resources and to reject edges
// that would introduce a cycle.
//
// Nodes are resource ids (uuid.UUID); resources themselves are never
// stored here, which keeps the graph free of reference cycles regardless
// of how tangled the declared dependencies are.
package dependency
