package ports

import (
	"context"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

// DatasetProvider supplies the fixed universe of a deployment: entity
// centroids and raw adjacency records.
type DatasetProvider interface {
	Entities(ctx context.Context) ([]territory.Entity, error)
	AdjacencyPairs(ctx context.Context) ([]adjacency.Pair, error)
}
