package history

import (
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

type ExportRequest struct {
	GameID string
}

type ExportResponse struct {
	GameID  string                 `json:"game_id"`
	Agents  []territory.Agent      `json:"agents"`
	Battles []conquest.BattleEvent `json:"battles"`
}

// ImportRequest carries a roster and a resolved log. Agent IDs are optional;
// battle sides and winners may name an agent by ID or by name.
type ImportRequest struct {
	Agents  []territory.Agent
	Battles []conquest.BattleEvent
	// Strict additionally requires every battle to be fought between
	// bordering agents.
	Strict bool
}

type ImportResponse struct {
	GameID  string                    `json:"game_id"`
	Version int64                     `json:"version"`
	Battles int                       `json:"battles"`
	Counts  map[territory.AgentID]int `json:"counts"`
	Outcome conquest.Outcome          `json:"outcome"`
}
