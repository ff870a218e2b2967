package dependency

import "github.com/google/uuid"

// Graph is a directed adjacency map from a node to the nodes it depends on
// ("requires"). It is not safe for concurrent use; the compiler builds one
// graph per host sequentially.
type Graph struct {
	edges map[uuid.UUID][]uuid.UUID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[uuid.UUID][]uuid.UUID)}
}

// AddNode registers id with no dependencies if it is not already present.
// Safe to call multiple times for the same id.
func (g *Graph) AddNode(id uuid.UUID) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = nil
	}
}

// Dependencies returns a copy of the ids that from directly depends on.
func (g *Graph) Dependencies(from uuid.UUID) []uuid.UUID {
	deps := g.edges[from]
	out := make([]uuid.UUID, len(deps))
	copy(out, deps)
	return out
}

// HasEdge reports whether from already directly depends on to.
func (g *Graph) HasEdge(from, to uuid.UUID) bool {
	for _, dep := range g.edges[from] {
		if dep == to {
			return true
		}
	}
	return false
}

// WouldCycle reports whether adding the edge from -> to would introduce a
// cycle, i.e. whether to can already reach from. Call this before AddEdge.
func (g *Graph) WouldCycle(from, to uuid.UUID) bool {
	if from == to {
		return true
	}
	return g.reaches(to, from, make(map[uuid.UUID]bool))
}

// reaches performs a depth-first search to determine whether start can reach
// target through the current edge set.
func (g *Graph) reaches(start, target uuid.UUID, visited map[uuid.UUID]bool) bool {
	if start == target {
		return true
	}
	if visited[start] {
		return false
	}
	visited[start] = true

	for _, next := range g.edges[start] {
		if g.reaches(next, target, visited) {
			return true
		}
	}
	return false
}

// AddEdge records that from depends on to. The caller is responsible for
// having verified WouldCycle(from, to) is false beforehand; AddEdge itself
// performs no cycle check so that compiler call sites can report which
// specific edge triggered a cycle before mutating the graph.
func (g *Graph) AddEdge(from, to uuid.UUID) {
	g.AddNode(from)
	g.AddNode(to)
	if !g.HasEdge(from, to) {
		g.edges[from] = append(g.edges[from], to)
	}
}
