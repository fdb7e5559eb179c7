package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Buu205/vnsignal/internal/app"
	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

type stubSource struct {
	index   []store.IndexRecord
	breadth []store.BreadthRecord
	sectors []store.SectorRecord
	batch   store.DetectionBatch
	pingErr error
}

func (s *stubSource) IndexHistory(ctx context.Context, days int) ([]store.IndexRecord, error) {
	if len(s.index) == 0 {
		return nil, store.ErrNoData
	}
	return s.index, nil
}

func (s *stubSource) BreadthHistory(ctx context.Context, days int) ([]store.BreadthRecord, error) {
	if len(s.breadth) == 0 {
		return nil, store.ErrNoData
	}
	return s.breadth, nil
}

func (s *stubSource) SectorHistory(ctx context.Context, days int) ([]store.SectorRecord, error) {
	if len(s.sectors) == 0 {
		return nil, store.ErrNoData
	}
	return s.sectors, nil
}

func (s *stubSource) RatingHistory(ctx context.Context, days int) ([]store.RatingRecord, error) {
	return nil, store.ErrNoData
}

func (s *stubSource) Detections(ctx context.Context, days int) (store.DetectionBatch, error) {
	return s.batch, nil
}

func (s *stubSource) SymbolContexts(ctx context.Context, symbols []string) (map[string]signals.Aux, error) {
	return map[string]signals.Aux{}, nil
}

func (s *stubSource) Ping(ctx context.Context) error { return s.pingErr }

func testServer(t *testing.T, src *stubSource) *Server {
	t.Helper()
	metrics := telemetry.New()
	h := NewHandlers(
		app.NewMarketService(src, app.DefaultMarketConfig(), metrics),
		app.NewRotationService(src, app.DefaultRotationConfig(), metrics),
		app.NewSignalService(src, app.DefaultSignalConfig(), metrics),
		src, nil, metrics,
	)
	return NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, h, metrics)
}

func tradingDay(n int) time.Time {
	return time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func healthySource() *stubSource {
	src := &stubSource{
		index: []store.IndexRecord{
			{Date: tradingDay(0), Close: 1250, EMAFast: 1248, EMASlow: 1240},
			{Date: tradingDay(1), Close: 1262, EMAFast: 1255, EMASlow: 1242},
		},
	}
	for i := 0; i < 30; i++ {
		src.breadth = append(src.breadth, store.BreadthRecord{
			Date: tradingDay(i), AboveMA20: 72, AboveMA50: 61, AboveMA100: 58,
		})
	}
	return src
}

func TestMarketEndpoint(t *testing.T) {
	srv := testServer(t, healthySource())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/market", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var state app.MarketState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "BULLISH", string(state.Regime))
	assert.Equal(t, 100, state.Exposure)
}

func TestMarketEndpoint_NoData(t *testing.T) {
	srv := testServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/market", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["available"])
}

func TestRotationEndpoint_UnknownScope(t *testing.T) {
	srv := testServer(t, healthySource())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rotation/indexes", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRotationEndpoint_SectorsEmpty(t *testing.T) {
	srv := testServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rotation/sectors", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignalsEndpoint(t *testing.T) {
	src := healthySource()
	src.batch = store.DetectionBatch{
		Breakouts: []signals.BreakoutDetection{
			{Symbol: "HPG", Date: tradingDay(1), Price: 28.4, VolumeConfirmed: true, VolumeRatio: 1.8},
		},
	}
	srv := testServer(t, src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var scored []signals.ScoredSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scored))
	require.Len(t, scored, 1)
	assert.Equal(t, "HPG", scored[0].Slot.Symbol)
	assert.GreaterOrEqual(t, scored[0].Score.Total, 0.0)
	assert.LessOrEqual(t, scored[0].Score.Total, 100.0)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, healthySource())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	srv := testServer(t, &stubSource{pingErr: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, healthySource())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
