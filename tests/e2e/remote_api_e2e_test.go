//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRemoteAPI_GameLifecycle(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", ""), "/")
	if baseURL == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("create rejects a single agent", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/games", map[string]any{
			"agents": []map[string]any{{"name": "Solo", "lat": 40.0, "lon": -90.0}},
		})
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d body=%s", status, string(body))
		}
	})

	status, createBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/games", map[string]any{
		"agents": []map[string]any{
			{"name": "Chicago", "lat": 41.88, "lon": -87.63},
			{"name": "Detroit", "lat": 42.33, "lon": -83.05},
			{"name": "Minneapolis", "lat": 44.98, "lon": -93.27},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", status, string(createBody))
	}
	var created map[string]any
	if err := json.Unmarshal(createBody, &created); err != nil {
		t.Fatalf("unmarshal create: %v body=%s", err, string(createBody))
	}
	gameID, _ := created["game_id"].(string)
	if gameID == "" {
		t.Fatalf("expected game_id, got %v", created)
	}
	gameURL := baseURL + "/api/games/" + gameID

	t.Run("propose resolve replay export", func(t *testing.T) {
		status, proposeBody := mustJSON(t, client, http.MethodPost, gameURL+"/battles/propose", map[string]any{})
		if status != http.StatusOK {
			t.Fatalf("propose status=%d body=%s", status, string(proposeBody))
		}
		var proposed map[string]any
		if err := json.Unmarshal(proposeBody, &proposed); err != nil {
			t.Fatalf("unmarshal propose: %v body=%s", err, string(proposeBody))
		}
		battle := asMap(proposed["battle"])
		attacker, _ := battle["attacker"].(string)
		if attacker == "" {
			t.Fatalf("expected a proposed battle, got %v", proposed)
		}

		status, againBody := mustJSON(t, client, http.MethodPost, gameURL+"/battles/propose", map[string]any{})
		if status != http.StatusConflict {
			t.Fatalf("second propose status=%d body=%s", status, string(againBody))
		}

		status, resolveBody := mustJSON(t, client, http.MethodPost, gameURL+"/battles/resolve", map[string]any{"winner": attacker})
		if status != http.StatusOK {
			t.Fatalf("resolve status=%d body=%s", status, string(resolveBody))
		}

		status, statusBody, err := doRequest(client, http.MethodGet, gameURL, nil)
		if err != nil {
			t.Fatalf("status request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("status endpoint status=%d body=%s", status, string(statusBody))
		}
		var st map[string]any
		if err := json.Unmarshal(statusBody, &st); err != nil {
			t.Fatalf("unmarshal status: %v body=%s", err, string(statusBody))
		}
		if st["battles"] != float64(1) {
			t.Fatalf("expected 1 battle, got %v", st["battles"])
		}

		status, replayBody, err := doRequest(client, http.MethodGet, gameURL+"/replay", nil)
		if err != nil {
			t.Fatalf("replay request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("replay status=%d body=%s", status, string(replayBody))
		}
		var rep map[string]any
		if err := json.Unmarshal(replayBody, &rep); err != nil {
			t.Fatalf("unmarshal replay: %v body=%s", err, string(replayBody))
		}
		if len(asSlice(rep["frames"])) != 2 {
			t.Fatalf("expected 2 replay frames, got %v", rep["frames"])
		}

		status, exportBody, err := doRequest(client, http.MethodGet, gameURL+"/history?format=jsonl", nil)
		if err != nil {
			t.Fatalf("export request: %v", err)
		}
		if status != http.StatusOK || !strings.Contains(string(exportBody), `"kind":"battle"`) {
			t.Fatalf("export status=%d body=%s", status, string(exportBody))
		}
	})

	t.Run("kpi", func(t *testing.T) {
		status, kpiBody, err := doRequest(client, http.MethodGet, baseURL+"/ops/kpi", nil)
		if err != nil {
			t.Fatalf("kpi request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(kpiBody))
		}
		var kpi map[string]any
		if err := json.Unmarshal(kpiBody, &kpi); err != nil {
			t.Fatalf("unmarshal kpi: %v body=%s", err, string(kpiBody))
		}
		if _, ok := kpi["battle_total"]; !ok {
			t.Fatalf("expected battle_total in kpi response")
		}
	})
}

func mustJSON(t *testing.T, client *http.Client, method, url string, body map[string]any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, body)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url string, body map[string]any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
