package mock

import (
	"context"
	"fmt"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

type Provider struct {
	List  []territory.Entity
	Pairs []adjacency.Pair
	Err   error
}

func (p Provider) Entities(_ context.Context) ([]territory.Entity, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return append([]territory.Entity(nil), p.List...), nil
}

func (p Provider) AdjacencyPairs(_ context.Context) ([]adjacency.Pair, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return append([]adjacency.Pair(nil), p.Pairs...), nil
}

// Grid returns an n x n dataset with entity (r, c) at lat=r, lon=c and
// 4-neighbour adjacency, listed in one direction only.
func Grid(n int) Provider {
	id := func(r, c int) territory.EntityID { return territory.EntityID(fmt.Sprintf("%05d", r*n+c)) }
	p := Provider{}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			p.List = append(p.List, territory.Entity{ID: id(r, c), Name: fmt.Sprintf("Cell %d,%d", r, c), Lat: float64(r), Lon: float64(c)})
			if r+1 < n {
				p.Pairs = append(p.Pairs, adjacency.Pair{Entity: id(r, c), Neighbor: id(r+1, c)})
			}
			if c+1 < n {
				p.Pairs = append(p.Pairs, adjacency.Pair{Entity: id(r, c), Neighbor: id(r, c+1)})
			}
		}
	}
	return p
}
