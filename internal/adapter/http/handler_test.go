package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	datasetmock "imperialism/internal/adapter/dataset/mock"
	"imperialism/internal/adapter/historyfile"
	metricsinmem "imperialism/internal/adapter/metrics/inmemory"
	"imperialism/internal/adapter/repo/memory"
	"imperialism/internal/app/battle"
	"imperialism/internal/app/game"
	"imperialism/internal/app/history"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/replay"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

func newTestServer(t *testing.T) *server.Hertz {
	t.Helper()
	u, err := universe.Load(context.Background(), datasetmock.Grid(3))
	if err != nil {
		t.Fatalf("load universe: %v", err)
	}
	store := memory.NewStore()
	games := memory.NewGameRepo(store)
	battles := memory.NewBattleRepo(store)
	tx := memory.NewTxManager(store)
	kpi := metricsinmem.NewRecorder()

	h := Handler{
		CreateUC:    game.CreateUseCase{Games: games, Universe: u},
		StatusUC:    game.StatusUseCase{Games: games, Battles: battles, Universe: u},
		NeighborsUC: game.NeighborsUseCase{Games: games, Battles: battles, Universe: u},
		BattleUC: battle.UseCase{
			TxManager: tx,
			Games:     games,
			Battles:   battles,
			Universe:  u,
			Metrics:   kpi,
			NewRand:   func() conquest.Rand { return zeroRand{} },
		},
		ReplayUC: replay.UseCase{Games: games, Battles: battles, Universe: u},
		ExportUC: history.ExportUseCase{Games: games, Battles: battles},
		ImportUC: history.ImportUseCase{TxManager: tx, Games: games, Battles: battles, Universe: u},
		KPI:      kpi,
	}
	s := server.New(server.WithHostPorts("127.0.0.1:0"))
	h.RegisterRoutes(s)
	return s
}

func perform(s *server.Hertz, method, url, contentType string, body []byte) *ut.ResponseRecorder {
	var b *ut.Body
	if body != nil {
		b = &ut.Body{Body: bytes.NewReader(body), Len: len(body)}
	}
	headers := []ut.Header{}
	if contentType != "" {
		headers = append(headers, ut.Header{Key: "Content-Type", Value: contentType})
	}
	return ut.PerformRequest(s.Engine, method, url, b, headers...)
}

func decodeBody(t *testing.T, w *ut.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Result().Body(), out); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Result().Body(), err)
	}
}

func errorCode(t *testing.T, w *ut.ResponseRecorder) string {
	t.Helper()
	var body map[string]map[string]any
	decodeBody(t, w, &body)
	code, _ := body["error"]["code"].(string)
	return code
}

func TestRoutes_FullGame(t *testing.T) {
	s := newTestServer(t)

	w := perform(s, consts.MethodPost, "/api/games", "application/json", []byte(`{"agents":[
		{"name":"Bears","lat":0,"lon":0},
		{"name":"Lions","lat":2,"lon":2,"color":"#0076b6"}
	]}`))
	if got, want := w.Result().StatusCode(), consts.StatusCreated; got != want {
		t.Fatalf("create status mismatch: got=%d want=%d body=%s", got, want, w.Result().Body())
	}
	var created game.CreateResponse
	decodeBody(t, w, &created)
	bears, lions := created.Agents[0].ID, created.Agents[1].ID
	base := "/api/games/" + created.GameID

	w = perform(s, consts.MethodPost, base+"/battles/propose", "", nil)
	if got, want := w.Result().StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("propose status mismatch: got=%d want=%d body=%s", got, want, w.Result().Body())
	}
	var proposed battle.Response
	decodeBody(t, w, &proposed)
	if proposed.Battle == nil || proposed.Battle.Attacker != bears || proposed.Battle.Defender != lions {
		t.Fatalf("unexpected proposal: %+v", proposed.Battle)
	}

	w = perform(s, consts.MethodPost, base+"/battles/propose", "", nil)
	if got, want := w.Result().StatusCode(), consts.StatusConflict; got != want {
		t.Fatalf("second propose status mismatch: got=%d want=%d", got, want)
	}
	if got, want := errorCode(t, w), "battle_pending"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodPost, base+"/battles/resolve", "application/json",
		[]byte(fmt.Sprintf(`{"attacker":%q,"defender":%q,"winner":"nobody"}`, bears, lions)))
	if got, want := errorCode(t, w), "invalid_winner"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodPost, base+"/battles/resolve", "application/json",
		[]byte(fmt.Sprintf(`{"attacker":%q,"defender":%q,"winner":%q}`, bears, lions, lions)))
	if got, want := w.Result().StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("resolve status mismatch: got=%d want=%d body=%s", got, want, w.Result().Body())
	}
	var resolved battle.Response
	decodeBody(t, w, &resolved)
	if resolved.Outcome != conquest.OutcomeConquest || resolved.Counts[lions] != 9 {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}

	w = perform(s, consts.MethodGet, base+"?ownership=true", "", nil)
	var status game.StatusResponse
	decodeBody(t, w, &status)
	if status.Version != 3 || status.Battles != 1 || len(status.Ownership) != 9 {
		t.Fatalf("unexpected status: %+v", status)
	}

	w = perform(s, consts.MethodGet, base+"/replay", "", nil)
	var frames replay.Response
	decodeBody(t, w, &frames)
	if frames.Steps != 1 || len(frames.Frames) != 2 {
		t.Fatalf("unexpected replay: %+v", frames)
	}

	w = perform(s, consts.MethodGet, base+"/history?format=jsonl.zst", "", nil)
	if got, want := string(w.Result().Header.ContentType()), contentTypeJSONLZstd; got != want {
		t.Fatalf("content type mismatch: got=%q want=%q", got, want)
	}
	archive := append([]byte(nil), w.Result().Body()...)
	doc, err := historyfile.ReadJSONL(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("read exported history: %v", err)
	}
	if len(doc.Battles) != 1 || doc.Battles[0].Winner != lions {
		t.Fatalf("unexpected exported history: %+v", doc)
	}

	w = perform(s, consts.MethodPost, "/api/games/import", contentTypeJSONLZstd, archive)
	if got, want := w.Result().StatusCode(), consts.StatusCreated; got != want {
		t.Fatalf("import status mismatch: got=%d want=%d body=%s", got, want, w.Result().Body())
	}
	var imported history.ImportResponse
	decodeBody(t, w, &imported)
	if imported.GameID == created.GameID || imported.Battles != 1 || imported.Outcome != conquest.OutcomeConquest {
		t.Fatalf("unexpected import: %+v", imported)
	}

	w = perform(s, consts.MethodGet, "/ops/kpi", "", nil)
	var kpi metricsinmem.Snapshot
	decodeBody(t, w, &kpi)
	if kpi.BattleSuccess != 2 || kpi.BattleFailure != 2 {
		t.Fatalf("unexpected kpi: %+v", kpi)
	}
}

func TestRoutes_Neighbors(t *testing.T) {
	s := newTestServer(t)

	w := perform(s, consts.MethodGet, "/api/entities/00004/neighbors", "", nil)
	var resp game.EntityNeighborsResponse
	decodeBody(t, w, &resp)
	if len(resp.Neighbors) != 4 {
		t.Fatalf("expected 4 neighbors, got %v", resp.Neighbors)
	}

	w = perform(s, consts.MethodGet, "/api/entities/99999/neighbors", "", nil)
	if got, want := w.Result().StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got, want := errorCode(t, w), "unknown_entity"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodGet, "/api/games/missing/agents/a/neighbors", "", nil)
	if got, want := errorCode(t, w), "not_found"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

func TestRoutes_RejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	w := perform(s, consts.MethodPost, "/api/games", "application/json", []byte(`{"agents":[{"name":"Solo","lat":1,"lon":1}]}`))
	if got, want := errorCode(t, w), "degenerate_roster"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodPost, "/api/games", "application/json", []byte(`{"agents":`))
	if got, want := errorCode(t, w), "invalid_json"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodPost, "/api/games/import", "application/json", []byte(`{"agents":[]}`))
	if got, want := errorCode(t, w), "invalid_history"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodPost, "/api/games/import", "application/json", []byte(`{
		"agents":[{"name":"A","lat":0,"lon":0},{"name":"B","lat":2,"lon":2}],
		"battles":[{"attacker":"A","defender":"B","winner":"A"},{"attacker":"A","defender":"B","winner":"B"}]
	}`))
	if got, want := errorCode(t, w), "malformed_log"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	w = perform(s, consts.MethodGet, "/api/games/missing/history?format=xml", "", nil)
	if got, want := w.Result().StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestRoutes_PreflightShortCircuits(t *testing.T) {
	s := newTestServer(t)
	w := perform(s, consts.MethodOptions, "/api/games", "", nil)
	if got, want := w.Result().StatusCode(), consts.StatusNoContent; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got := string(w.Result().Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("allow-origin mismatch: got=%q", got)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{conquest.ErrNoPendingBattle, consts.StatusConflict, "no_pending_battle"},
		{fmt.Errorf("wrap: %w", conquest.ErrProposalMismatch), consts.StatusConflict, "proposal_mismatch"},
		{conquest.ErrNoViableAttacker, consts.StatusConflict, "no_viable_attacker"},
		{ports.ErrConflict, consts.StatusConflict, "conflict"},
		{replay.ErrInvalidRequest, consts.StatusBadRequest, "bad_request"},
		{errors.New("disk on fire"), consts.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		writeError(context.Background(), ctx, tc.err)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Fatalf("%v: status mismatch: got=%d want=%d", tc.err, got, tc.status)
		}
		var body map[string]map[string]any
		if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if got := body["error"]["code"]; got != tc.code {
			t.Fatalf("%v: error code mismatch: got=%q want=%q", tc.err, got, tc.code)
		}
	}
}
