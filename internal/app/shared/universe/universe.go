package universe

import (
	"context"
	"fmt"

	"imperialism/internal/app/ports"
	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

// Universe is the fixed entity set of a deployment and its adjacency graph.
// Built once at startup and shared read-only by every game.
type Universe struct {
	Entities []territory.Entity
	Graph    *adjacency.Graph
}

func Load(ctx context.Context, p ports.DatasetProvider) (Universe, error) {
	entities, err := p.Entities(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("load entities: %w", err)
	}
	pairs, err := p.AdjacencyPairs(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("load adjacency: %w", err)
	}
	ids := make([]territory.EntityID, 0, len(entities))
	seen := make(map[territory.EntityID]struct{}, len(entities))
	for _, e := range entities {
		if _, dup := seen[e.ID]; dup {
			return Universe{}, fmt.Errorf("load entities: %w: %s", geo.ErrDuplicateEntity, e.ID)
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}
	return Universe{Entities: entities, Graph: adjacency.Build(ids, pairs)}, nil
}
