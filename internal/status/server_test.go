// filename: internal/status/server_test.go
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/attackmap/dataserver/internal/common/config"
	"github.com/attackmap/dataserver/internal/common/logging"
	"github.com/attackmap/dataserver/internal/dataserver"
	"github.com/attackmap/dataserver/internal/models"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestServer(t *testing.T, search, sink Pinger) (*Server, *dataserver.AggregateState) {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	state := dataserver.NewAggregateState()
	cfg := config.StatusConfig{Enabled: true, Host: "127.0.0.1", Port: 8080}
	return NewServer(cfg, state, search, sink, logger), state
}

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.GetRouter().ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	return w, body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &fakePinger{}, &fakePinger{})

	w, body := doRequest(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
	if body["instance_id"] == "" {
		t.Error("Expected non-empty instance_id")
	}
}

func TestReadyz_AllDependenciesUp(t *testing.T) {
	s, _ := newTestServer(t, &fakePinger{}, &fakePinger{})

	w, body := doRequest(t, s, "/readyz")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["status"] != "ready" {
		t.Errorf("Expected ready, got %v", body["status"])
	}
}

func TestReadyz_SearchDown(t *testing.T) {
	s, _ := newTestServer(t, &fakePinger{err: errors.New("connection refused")}, &fakePinger{})

	w, body := doRequest(t, s, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}
	if body["status"] != "not_ready" {
		t.Errorf("Expected not_ready, got %v", body["status"])
	}

	deps := body["dependencies"].(map[string]interface{})
	search := deps["search"].(map[string]interface{})
	if search["status"] != "unavailable" {
		t.Errorf("Expected search unavailable, got %v", search["status"])
	}
	sink := deps["sink"].(map[string]interface{})
	if sink["status"] != "ready" {
		t.Errorf("Expected sink ready, got %v", sink["status"])
	}
}

func TestStats(t *testing.T) {
	s, state := newTestServer(t, &fakePinger{}, &fakePinger{})

	state.RecordAlert(&models.NormalizedAlert{
		SrcIP:         "203.0.113.5",
		Country:       "Germany",
		CountryCode:   "DE",
		ContinentCode: "EU",
		ISOCode:       "DE",
		DstPort:       22,
	})
	state.RecordAlert(&models.NormalizedAlert{
		SrcIP:         "198.51.100.7",
		Country:       "France",
		CountryCode:   "FR",
		ContinentCode: "EU",
		ISOCode:       "FR",
		DstPort:       23,
	})

	w, body := doRequest(t, s, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["event_count"] != float64(2) {
		t.Errorf("Expected event_count 2, got %v", body["event_count"])
	}
	if body["unique_ips"] != float64(2) {
		t.Errorf("Expected unique_ips 2, got %v", body["unique_ips"])
	}
	if body["continents"] != float64(1) {
		t.Errorf("Expected continents 1, got %v", body["continents"])
	}

	ports := body["ports"].(map[string]interface{})
	if ports["22"] != float64(1) || ports["23"] != float64(1) {
		t.Errorf("Unexpected ports breakdown: %v", ports)
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, &fakePinger{}, &fakePinger{})

	w, _ := doRequest(t, s, "/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}
