package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"imperialism/internal/adapter/historyfile"
	"imperialism/internal/app/battle"
	"imperialism/internal/app/game"
	"imperialism/internal/app/history"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/replay"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	contentTypeJSONL     = "application/x-ndjson"
	contentTypeJSONLZstd = "application/zstd"
)

type Handler struct {
	CreateUC    game.CreateUseCase
	StatusUC    game.StatusUseCase
	NeighborsUC game.NeighborsUseCase
	BattleUC    battle.UseCase
	ReplayUC    replay.UseCase
	ExportUC    history.ExportUseCase
	ImportUC    history.ImportUseCase
	KPI         kpiSnapshotProvider
	// AllowedOrigins limits CORS; empty allows every origin.
	AllowedOrigins []string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))

	api := s.Group("/api")
	api.POST("/games", h.createGame)
	api.POST("/games/import", h.importHistory)
	api.GET("/games/:id", h.gameStatus)
	api.GET("/games/:id/agents/:agent/neighbors", h.agentNeighbors)
	api.GET("/games/:id/replay", h.replay)
	api.GET("/games/:id/history", h.exportHistory)
	api.GET("/entities/:entity/neighbors", h.entityNeighbors)

	battles := api.Group("/games/:id/battles")
	battles.POST("/propose", h.propose)
	battles.POST("/resolve", h.resolve)
	battles.POST("/abandon", h.abandon)

	s.GET("/ops/kpi", h.kpi)
}

type createGameRequest struct {
	Agents []game.AgentInput `json:"agents"`
}

func (h Handler) createGame(c context.Context, ctx *app.RequestContext) {
	var body createGameRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.CreateUC.Execute(c, game.CreateRequest{Agents: body.Agents})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) gameStatus(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c, game.StatusRequest{
		GameID:           ctx.Param("id"),
		IncludeOwnership: queryBool(ctx, "ownership"),
	})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) agentNeighbors(c context.Context, ctx *app.RequestContext) {
	resp, err := h.NeighborsUC.AgentNeighbors(c, game.AgentNeighborsRequest{
		GameID:  ctx.Param("id"),
		AgentID: territory.AgentID(ctx.Param("agent")),
	})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) entityNeighbors(c context.Context, ctx *app.RequestContext) {
	resp, err := h.NeighborsUC.EntityNeighbors(c, game.EntityNeighborsRequest{
		EntityID: territory.EntityID(ctx.Param("entity")),
	})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) propose(c context.Context, ctx *app.RequestContext) {
	resp, err := h.BattleUC.Propose(c, battle.ProposeRequest{GameID: ctx.Param("id")})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) resolve(c context.Context, ctx *app.RequestContext) {
	var body battle.ResolveRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	body.GameID = ctx.Param("id")
	resp, err := h.BattleUC.Resolve(c, body)
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) abandon(c context.Context, ctx *app.RequestContext) {
	resp, err := h.BattleUC.Abandon(c, battle.AbandonRequest{GameID: ctx.Param("id")})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	from, _ := strconv.Atoi(ctx.Query("from"))
	to, _ := strconv.Atoi(ctx.Query("to"))
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		GameID:           ctx.Param("id"),
		FromStep:         from,
		ToStep:           to,
		IncludeOwnership: queryBool(ctx, "ownership"),
	})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) exportHistory(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ExportUC.Execute(c, history.ExportRequest{GameID: ctx.Param("id")})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	doc := historyfile.Document{GameID: resp.GameID, Agents: resp.Agents, Battles: resp.Battles}

	var buf bytes.Buffer
	switch format := ctx.DefaultQuery("format", "json"); format {
	case "json":
		ctx.JSON(consts.StatusOK, doc)
		return
	case "jsonl":
		err = historyfile.WriteJSONL(&buf, doc)
		ctx.Response.Header.Set("Content-Type", contentTypeJSONL)
	case "jsonl.zst":
		err = historyfile.WriteJSONLZstd(&buf, doc)
		ctx.Response.Header.Set("Content-Type", contentTypeJSONLZstd)
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+resp.GameID+`.jsonl.zst"`)
	default:
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "unsupported format "+strconv.Quote(format))
		return
	}
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.SetStatusCode(consts.StatusOK)
	ctx.Response.SetBody(buf.Bytes())
}

// importHistory accepts a JSON document, or a JSONL stream (plain or zstd)
// when the content type says so.
func (h Handler) importHistory(c context.Context, ctx *app.RequestContext) {
	var (
		doc historyfile.Document
		err error
	)
	switch contentType := string(ctx.ContentType()); {
	case strings.HasPrefix(contentType, contentTypeJSONL), strings.HasPrefix(contentType, contentTypeJSONLZstd):
		doc, err = historyfile.ReadJSONL(bytes.NewReader(ctx.Request.Body()))
	default:
		doc, err = historyfile.DecodeJSON(ctx.Request.Body())
	}
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	resp, err := h.ImportUC.Execute(c, history.ImportRequest{
		Agents:  doc.Agents,
		Battles: doc.Battles,
		Strict:  doc.Strict || queryBool(ctx, "strict"),
	})
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func queryBool(ctx *app.RequestContext, key string) bool {
	v, _ := strconv.ParseBool(ctx.Query(key))
	return v
}

func writeError(c context.Context, ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, conquest.ErrBattlePending):
		writeErrorBody(ctx, consts.StatusConflict, "battle_pending", err.Error())
	case errors.Is(err, conquest.ErrNoPendingBattle):
		writeErrorBody(ctx, consts.StatusConflict, "no_pending_battle", err.Error())
	case errors.Is(err, conquest.ErrProposalMismatch):
		writeErrorBody(ctx, consts.StatusConflict, "proposal_mismatch", err.Error())
	case errors.Is(err, conquest.ErrNoViableAttacker):
		writeErrorBody(ctx, consts.StatusConflict, "no_viable_attacker", err.Error())
	case errors.Is(err, conquest.ErrInvalidWinner):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "invalid_winner", err.Error())
	case errors.Is(err, conquest.ErrMalformedLog):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "malformed_log", err.Error())
	case errors.Is(err, geo.ErrDegenerateRoster):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "degenerate_roster", err.Error())
	case errors.Is(err, territory.ErrInvalidRoster):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_roster", err.Error())
	case errors.Is(err, historyfile.ErrInvalidDocument):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_history", err.Error())
	case errors.Is(err, territory.ErrUnknownAgent):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_agent", err.Error())
	case errors.Is(err, territory.ErrUnknownEntity):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_entity", err.Error())
	case errors.Is(err, game.ErrInvalidRequest),
		errors.Is(err, battle.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, history.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		hlog.CtxErrorf(c, "%s %s: %v", ctx.Method(), ctx.Path(), err)
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
