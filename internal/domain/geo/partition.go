package geo

import (
	"errors"
	"fmt"

	"imperialism/internal/domain/territory"
)

var (
	ErrDegenerateRoster = errors.New("degenerate roster: at least 2 agents required")
	ErrDuplicateEntity  = errors.New("duplicate entity")
)

// BuildPartition assigns every entity to its nearest agent site.
func BuildPartition(roster territory.Roster, entities []territory.Entity) (territory.State, error) {
	if roster.Len() < 2 {
		return territory.State{}, fmt.Errorf("%w: got %d", ErrDegenerateRoster, roster.Len())
	}
	agents := roster.Agents()
	sites := make([]Point, 0, len(agents))
	for _, a := range agents {
		sites = append(sites, Point{Lat: a.Lat, Lon: a.Lon})
	}
	ix := NewIndex(sites)

	owners := make(map[territory.EntityID]territory.AgentID, len(entities))
	for _, e := range entities {
		if _, dup := owners[e.ID]; dup {
			return territory.State{}, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		i, _ := ix.Nearest(Point{Lat: e.Lat, Lon: e.Lon})
		owners[e.ID] = agents[i].ID
	}
	return territory.NewState(owners), nil
}
