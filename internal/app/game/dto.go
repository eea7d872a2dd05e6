package game

import (
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

type AgentInput struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color,omitempty"`
}

type CreateRequest struct {
	Agents []AgentInput
}

type CreateResponse struct {
	GameID  string           `json:"game_id"`
	Version int64            `json:"version"`
	Agents  []AgentStatus    `json:"agents"`
	Outcome conquest.Outcome `json:"outcome"`
}

type AgentStatus struct {
	territory.Agent
	Entities int  `json:"entities"`
	Active   bool `json:"active"`
}

type StatusRequest struct {
	GameID           string
	IncludeOwnership bool
}

type StatusResponse struct {
	GameID    string                                   `json:"game_id"`
	Version   int64                                    `json:"version"`
	Agents    []AgentStatus                            `json:"agents"`
	Pending   *conquest.BattleEvent                    `json:"pending,omitempty"`
	Battles   int                                      `json:"battles"`
	Outcome   conquest.Outcome                         `json:"outcome"`
	Ownership map[territory.EntityID]territory.AgentID `json:"ownership,omitempty"`
}

type AgentNeighborsRequest struct {
	GameID  string
	AgentID territory.AgentID
}

type AgentNeighborsResponse struct {
	AgentID   territory.AgentID `json:"agent_id"`
	Neighbors []territory.Agent `json:"neighbors"`
}

type EntityNeighborsRequest struct {
	EntityID territory.EntityID
}

type EntityNeighborsResponse struct {
	EntityID  territory.EntityID   `json:"entity_id"`
	Neighbors []territory.EntityID `json:"neighbors"`
}
