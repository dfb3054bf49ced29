// filename: internal/dataserver/poller_test.go
package dataserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/attackmap/dataserver/internal/common/config"
	apperrors "github.com/attackmap/dataserver/internal/common/errors"
	"github.com/attackmap/dataserver/internal/common/logging"
)

// fakeBackend реализует SearchBackend для тестов
type fakeBackend struct {
	hits       []json.RawMessage
	searchErr  error
	countErr   map[string]error
	counts     map[string]int
	windows    [][2]time.Time
	lastSize   int
	countCalls []string
}

func (f *fakeBackend) SearchWindow(ctx context.Context, from, to time.Time, size int) ([]json.RawMessage, error) {
	f.windows = append(f.windows, [2]time.Time{from, to})
	f.lastSize = size
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeBackend) CountWindow(ctx context.Context, window string) (int, error) {
	f.countCalls = append(f.countCalls, window)
	if err, ok := f.countErr[window]; ok {
		return 0, err
	}
	return f.counts[window], nil
}

func createTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func testPollerConfig() config.PollerConfig {
	return config.PollerConfig{
		Tick:         500 * time.Millisecond,
		Lag:          10 * time.Second,
		PageSize:     100,
		StatsWindows: []string{"1m", "1h", "24h"},
	}
}

func TestPoll_WindowsAreContiguous(t *testing.T) {
	backend := &fakeBackend{}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	// Подменяем часы: тики с неравномерными интервалами имитируют
	// переменную латентность запросов
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	offsets := []time.Duration{0, 500 * time.Millisecond, 1700 * time.Millisecond, 1900 * time.Millisecond, 5 * time.Second}
	idx := 0
	p.now = func() time.Time { return base.Add(offsets[idx]) }
	p.last = base.Add(-10 * time.Second)

	for idx = 0; idx < len(offsets); idx++ {
		if _, err := p.Poll(context.Background()); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
	}

	if len(backend.windows) != len(offsets) {
		t.Fatalf("Expected %d windows, got %d", len(offsets), len(backend.windows))
	}

	// Верхняя граница окна N равна нижней границе окна N+1
	for i := 1; i < len(backend.windows); i++ {
		prevTo := backend.windows[i-1][1]
		curFrom := backend.windows[i][0]
		if !prevTo.Equal(curFrom) {
			t.Errorf("Window %d not contiguous: prev to=%s, cur from=%s", i, prevTo, curFrom)
		}
	}

	// Каждая верхняя граница — now-lag на момент тика
	for i, w := range backend.windows {
		expected := base.Add(offsets[i]).Add(-10 * time.Second)
		if !w[1].Equal(expected) {
			t.Errorf("Window %d upper bound = %s, want %s", i, w[1], expected)
		}
	}
}

func TestPoll_NormalizesHits(t *testing.T) {
	backend := &fakeBackend{
		hits: []json.RawMessage{
			json.RawMessage(`{"_id":"a","_source":{"type":"Cowrie","@timestamp":"2024-03-01T12:00:00.000Z","src_ip":"203.0.113.5","dest_port":22}}`),
			json.RawMessage(`{"_id":"b","_source":{"type":"Dionaea","@timestamp":"2024-03-01T12:00:00.100Z","src_ip":""}}`),
			json.RawMessage(`{"_id":"c","_source":"broken"}`),
			json.RawMessage(`{"_id":"d","_source":{"type":"Tanner","@timestamp":"2024-03-01T12:00:00.200Z","src_ip":"203.0.113.6","dest_port":80}}`),
		},
	}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	batch, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	// Пустой src_ip и битый документ отброшены, остальные нормализованы
	if len(batch) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(batch))
	}
	if batch[0].SrcIP != "203.0.113.5" || batch[0].Protocol != "SSH" {
		t.Errorf("Unexpected first alert: %+v", batch[0])
	}
	if batch[1].SrcIP != "203.0.113.6" || batch[1].Protocol != "HTTP" {
		t.Errorf("Unexpected second alert: %+v", batch[1])
	}
	if backend.lastSize != 100 {
		t.Errorf("Expected page size 100, got %d", backend.lastSize)
	}
}

func TestPoll_SearchErrorPropagates(t *testing.T) {
	backend := &fakeBackend{
		searchErr: apperrors.New(apperrors.ErrorCodeSearchConnection, "down"),
	}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	before := p.Last()
	_, err := p.Poll(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}
	if !apperrors.IsConnectivity(err) {
		t.Errorf("Expected connectivity error, got %s", apperrors.GetErrorCode(err))
	}
	// Окно продвинуто до запроса и сохраняется при повторе
	if !p.Last().After(before) && !p.Last().Equal(before) {
		t.Error("Window bound must not move backwards on failure")
	}
}

func TestCollectStats(t *testing.T) {
	backend := &fakeBackend{
		counts: map[string]int{"1m": 5, "1h": 120, "24h": 9000},
	}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	counts, err := p.CollectStats(context.Background())
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("Expected 3 windows, got %d", len(counts))
	}
	if counts["1h"] != 120 {
		t.Errorf("Expected 1h count 120, got %d", counts["1h"])
	}
}

func TestCollectStats_PartialFailure(t *testing.T) {
	// Отказ одного окна не прерывает остальные
	backend := &fakeBackend{
		counts:   map[string]int{"1m": 5, "24h": 9000},
		countErr: map[string]error{"1h": apperrors.New(apperrors.ErrorCodeSearchQuery, "bad query")},
	}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	counts, err := p.CollectStats(context.Background())
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if _, ok := counts["1h"]; ok {
		t.Error("Failed window key must be omitted")
	}
	if counts["1m"] != 5 || counts["24h"] != 9000 {
		t.Errorf("Remaining windows must be collected: %v", counts)
	}
	if len(backend.countCalls) != 3 {
		t.Errorf("All three windows must be queried, got %v", backend.countCalls)
	}
}

func TestCollectStats_ConnectivityAborts(t *testing.T) {
	backend := &fakeBackend{
		countErr: map[string]error{"1m": apperrors.New(apperrors.ErrorCodeSearchConnection, "down")},
	}
	p := NewPoller(backend, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	if _, err := p.CollectStats(context.Background()); err == nil {
		t.Fatal("Expected connectivity error to abort stats collection")
	}
}

func TestShouldEmitStats(t *testing.T) {
	p := NewPoller(&fakeBackend{}, NewNormalizer(NewClassifier()), testPollerConfig(), createTestLogger(t))

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"on boundary", time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC), true},
		{"boundary within gate", time.Date(2024, 3, 1, 12, 0, 20, 499000000, time.UTC), true},
		{"boundary past gate", time.Date(2024, 3, 1, 12, 0, 30, 500000000, time.UTC), false},
		{"off boundary", time.Date(2024, 3, 1, 12, 0, 13, 0, time.UTC), false},
		{"minute boundary", time.Date(2024, 3, 1, 12, 1, 0, 100, time.UTC), true},
	}

	for _, tt := range tests {
		if got := p.ShouldEmitStats(tt.at); got != tt.want {
			t.Errorf("%s: ShouldEmitStats(%s) = %v, want %v", tt.name, tt.at, got, tt.want)
		}
	}
}
