package replay

import (
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

// Request selects the frames [FromStep, ToStep]. ToStep <= 0 means the last
// step.
type Request struct {
	GameID           string
	FromStep         int
	ToStep           int
	IncludeOwnership bool
}

// Frame is the territory after Step battles. Frame 0 is the initial
// partition and carries no battle.
type Frame struct {
	Step      int                                      `json:"step"`
	Battle    *conquest.BattleEvent                    `json:"battle,omitempty"`
	Counts    map[territory.AgentID]int                `json:"counts"`
	Active    []territory.AgentID                      `json:"active"`
	Ownership map[territory.EntityID]territory.AgentID `json:"ownership,omitempty"`
}

type Response struct {
	GameID string            `json:"game_id"`
	Agents []territory.Agent `json:"agents"`
	Steps  int               `json:"steps"`
	Frames []Frame           `json:"frames"`
}
