package battle

import (
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

type ProposeRequest struct {
	GameID string `json:"-"`
}

type ResolveRequest struct {
	GameID   string            `json:"-"`
	Attacker territory.AgentID `json:"attacker"`
	Defender territory.AgentID `json:"defender"`
	Winner   territory.AgentID `json:"winner"`
}

type AbandonRequest struct {
	GameID string `json:"-"`
}

type Response struct {
	GameID  string                    `json:"game_id"`
	Version int64                     `json:"version"`
	Seq     int                       `json:"seq,omitempty"`
	Battle  *conquest.BattleEvent     `json:"battle,omitempty"`
	Counts  map[territory.AgentID]int `json:"counts"`
	Outcome conquest.Outcome          `json:"outcome"`
}
