package adjacency

import (
	"fmt"
	"sort"

	"imperialism/internal/domain/territory"
)

// Pair is one raw adjacency record as it appears in the source dataset.
type Pair struct {
	Entity   territory.EntityID
	Neighbor territory.EntityID
}

// Graph is the symmetric neighbor relation over a fixed universe of entities.
// It is immutable once built.
type Graph struct {
	adj     map[territory.EntityID][]territory.EntityID
	edges   int
	skipped int
}

// Build discards self-pairs, adds the reverse of every edge and drops
// duplicates. Pairs naming an entity outside universe are skipped and counted.
func Build(universe []territory.EntityID, pairs []Pair) *Graph {
	sets := make(map[territory.EntityID]map[territory.EntityID]struct{}, len(universe))
	for _, id := range universe {
		sets[id] = map[territory.EntityID]struct{}{}
	}
	g := &Graph{}
	for _, p := range pairs {
		if p.Entity == p.Neighbor {
			continue
		}
		a, okA := sets[p.Entity]
		b, okB := sets[p.Neighbor]
		if !okA || !okB {
			g.skipped++
			continue
		}
		if _, seen := a[p.Neighbor]; !seen {
			g.edges++
		}
		a[p.Neighbor] = struct{}{}
		b[p.Entity] = struct{}{}
	}

	g.adj = make(map[territory.EntityID][]territory.EntityID, len(sets))
	for id, set := range sets {
		list := make([]territory.EntityID, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		g.adj[id] = list
	}
	return g
}

func (g *Graph) Len() int { return len(g.adj) }

// Edges is the number of undirected edges.
func (g *Graph) Edges() int { return g.edges }

// Skipped is the number of raw pairs that referenced entities outside the universe.
func (g *Graph) Skipped() int { return g.skipped }

func (g *Graph) Contains(id territory.EntityID) bool {
	_, ok := g.adj[id]
	return ok
}

func (g *Graph) Neighbors(id territory.EntityID) ([]territory.EntityID, error) {
	list, ok := g.adj[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", territory.ErrUnknownEntity, id)
	}
	return append([]territory.EntityID(nil), list...), nil
}

// AgentNeighbors returns, sorted, the agents other than agent that own an
// entity bordering one of agent's entities. Not cached: ownership changes
// between calls.
func (g *Graph) AgentNeighbors(agent territory.AgentID, state territory.State) []territory.AgentID {
	found := map[territory.AgentID]struct{}{}
	for _, id := range state.Entities(agent) {
		for _, n := range g.adj[id] {
			owner, err := state.Owner(n)
			if err != nil || owner == agent {
				continue
			}
			found[owner] = struct{}{}
		}
	}
	out := make([]territory.AgentID, 0, len(found))
	for a := range found {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
