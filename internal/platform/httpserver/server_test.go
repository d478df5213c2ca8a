package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	thermostatengine "thermasense/contexts/building-comfort/thermostat-engine"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	thermostathttp "thermasense/contexts/building-comfort/thermostat-engine/transport/http"

	"github.com/shopspring/decimal"
)

func newTestServerWithOptions(options Options) (*Server, thermostatengine.Module) {
	module := thermostatengine.NewInMemoryModule([]entities.Zone{
		entities.NewZone("office_a", "Office A", decimal.RequireFromString("24.0")),
		entities.NewZone("library_b", "Library B", decimal.RequireFromString("26.0")),
	}, slog.Default())
	options.Addr = ":0"
	return New(module, slog.Default(), options), module
}

func newTestServer() *Server {
	server, _ := newTestServerWithOptions(Options{})
	return server
}

func postVote(server *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func voteBody(userN int, zoneID string, value int) string {
	return fmt.Sprintf(`{"user_id":"6f1c2a8e-7d8b-4b1a-9a3e-%012d","zone_id":%q,"vote_value":%d}`, userN, zoneID, value)
}

func TestRootReturnsServiceInfo(t *testing.T) {
	server := newTestServer()
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp thermostathttp.InfoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Welcome to ThermaSense API!" || resp.Service != "thermasense" {
		t.Fatalf("unexpected info %+v", resp)
	}
}

func TestSubmitVoteCreatesVote(t *testing.T) {
	server, module := newTestServerWithOptions(Options{})
	rr := postVote(server, voteBody(1, "office_a", -1))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp thermostathttp.VoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.VoteID == "" || resp.ZoneID != "office_a" || resp.VoteValue != -1 {
		t.Fatalf("unexpected vote response %+v", resp)
	}
	if resp.CycleDispatched {
		t.Fatalf("in-memory module has no dispatcher")
	}
	counts, err := module.Store.CountVotesByValue(t.Context(), "office_a", resp.CreatedAt.Add(-1))
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if counts[entities.VoteTooCold] != 1 {
		t.Fatalf("expected stored vote, got %v", counts)
	}
}

func TestSubmitVoteAcceptsFineVote(t *testing.T) {
	server := newTestServer()
	rr := postVote(server, voteBody(2, "office_a", 0))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitVoteValidation(t *testing.T) {
	server := newTestServer()
	cases := map[string]struct {
		body string
		code int
	}{
		"out of range value": {voteBody(1, "office_a", 2), http.StatusUnprocessableEntity},
		"missing value":      {`{"user_id":"6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69","zone_id":"office_a"}`, http.StatusUnprocessableEntity},
		"non uuid user":      {`{"user_id":"bob","zone_id":"office_a","vote_value":1}`, http.StatusUnprocessableEntity},
		"blank zone":         {`{"user_id":"6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69","zone_id":"  ","vote_value":1}`, http.StatusUnprocessableEntity},
		"malformed json":     {`{"user_id":`, http.StatusBadRequest},
		"unknown field":      {`{"user_id":"6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69","zone_id":"office_a","vote_value":1,"x":1}`, http.StatusBadRequest},
		"unknown zone":       {voteBody(1, "attic", 1), http.StatusNotFound},
	}
	for name, tc := range cases {
		rr := postVote(server, tc.body)
		if rr.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d body=%s", name, tc.code, rr.Code, rr.Body.String())
		}
	}
}

func TestSubmitVoteRateLimited(t *testing.T) {
	server, _ := newTestServerWithOptions(Options{VoteRateLimit: 2})
	for i := 0; i < 2; i++ {
		if rr := postVote(server, voteBody(i, "office_a", 1)); rr.Code != http.StatusCreated {
			t.Fatalf("vote %d: expected 201, got %d", i, rr.Code)
		}
	}
	rr := postVote(server, voteBody(3, "office_a", 1))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestZoneEndpoints(t *testing.T) {
	server := newTestServer()

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones", nil))
	var list thermostathttp.ZoneListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ZoneID != "library_b" {
		t.Fatalf("unexpected zone list %+v", list)
	}

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones/office_a/status", nil))
	var zone thermostathttp.ZoneResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &zone); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if zone.RecommendedTemp != 24.0 || zone.CurrentTemp != 24.0 {
		t.Fatalf("unexpected zone %+v", zone)
	}

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones/attic/status", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones/attic/stats", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for stats, got %d", rr.Code)
	}
}

func TestVoteStatsCountsWindow(t *testing.T) {
	server := newTestServer()
	for i, value := range []int{-1, -1, 1} {
		if rr := postVote(server, voteBody(i, "office_a", value)); rr.Code != http.StatusCreated {
			t.Fatalf("vote %d failed: %d", i, rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones/office_a/stats", nil))
	var stats thermostathttp.VoteStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TooCold != 2 || stats.TooHot != 1 || stats.Fine != 0 || stats.Total != 3 || stats.WindowMinutes != 15 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for key, want := range map[string]float64{"-1": 2, "0": 0, "1": 1} {
		if got, ok := raw[key].(float64); !ok || got != want {
			t.Fatalf("stats[%q]: expected %v, got %v", key, want, raw[key])
		}
	}
}

func TestDashboardPathsWithTrailingSlash(t *testing.T) {
	server := newTestServer()

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/zones/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/zones/: expected 200, got %d", rr.Code)
	}
	var zones []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &zones); err != nil {
		t.Fatalf("zone list must be a bare array: %v body=%s", err, rr.Body.String())
	}
	if len(zones) != 2 || zones[0]["zone_id"] != "library_b" {
		t.Fatalf("unexpected zones %v", zones)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/vote/", strings.NewReader(voteBody(7, "office_a", 0)))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /api/vote/: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRunCycleCommitsAndShowsInHistory(t *testing.T) {
	server, module := newTestServerWithOptions(Options{})
	for i, value := range []int{-1, -1, 0, 1} {
		if rr := postVote(server, voteBody(i, "office_a", value)); rr.Code != http.StatusCreated {
			t.Fatalf("vote %d failed: %d", i, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/zones/office_a/cycle", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var cycle thermostathttp.CycleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &cycle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cycle.Status != "committed" || cycle.Recommended != 23.9 || !cycle.Actuated {
		t.Fatalf("unexpected cycle %+v", cycle)
	}
	if calls := module.Actuator.Calls(); len(calls) != 1 || calls[0].Temperature.StringFixed(1) != "23.9" {
		t.Fatalf("unexpected actuator calls %+v", calls)
	}

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/history?hours=2", nil))
	var history thermostathttp.HistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if history.Hours != 2 || len(history.Zones) != 2 {
		t.Fatalf("unexpected history %+v", history)
	}
	var office thermostathttp.ZoneHistoryItem
	for _, zone := range history.Zones {
		if zone.ZoneID == "office_a" {
			office = zone
		}
	}
	if len(office.Records) != 1 || office.Records[0].RecommendedTemp != 23.9 {
		t.Fatalf("unexpected office history %+v", office)
	}
}

func TestRunCycleUnknownZone(t *testing.T) {
	server := newTestServer()
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/zones/attic/cycle", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRunAllCyclesReportsEveryZone(t *testing.T) {
	server := newTestServer()
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/cycles", bytes.NewReader(nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var sweep thermostathttp.SweepResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &sweep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sweep.Results) != 2 || len(sweep.Errors) != 0 {
		t.Fatalf("unexpected sweep %+v", sweep)
	}
	for _, result := range sweep.Results {
		if result.Status != "insufficient_votes" {
			t.Fatalf("expected insufficient_votes, got %+v", result)
		}
	}
}

func TestHistoryRejectsBadHours(t *testing.T) {
	server := newTestServer()
	for _, raw := range []string{"abc", "0", "169"} {
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/history?hours="+raw, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("hours=%s: expected 400, got %d", raw, rr.Code)
		}
	}
}

func TestMetricsAndDocsAreServed(t *testing.T) {
	server := newTestServer()
	for _, path := range []string{"/metrics", "/swagger/doc.json", "/healthz"} {
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestCORSPreflightOnVote(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/api/vote", nil)
	req.Header.Set("Origin", "https://kiosk.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q (status %d)", got, rr.Code)
	}
}

func TestHealthReportsFailedCheck(t *testing.T) {
	server, _ := newTestServerWithOptions(Options{
		HealthCheck: func(context.Context) error { return errors.New("connection refused") },
	})
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "unavailable") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}
