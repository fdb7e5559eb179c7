package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Buu205/vnsignal/internal/app"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/store/cache"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

// Handlers serves the engine outputs. The optional snapshot cache keeps the
// refresh policy out of the engine itself.
type Handlers struct {
	market   *app.MarketService
	rotation *app.RotationService
	signals  *app.SignalService
	source   store.Source
	cache    *cache.Cache
	metrics  *telemetry.Metrics
	hub      *Hub
}

// NewHandlers wires the service set. cache may be nil.
func NewHandlers(market *app.MarketService, rotation *app.RotationService, signals *app.SignalService,
	source store.Source, snapshotCache *cache.Cache, metrics *telemetry.Metrics) *Handlers {
	return &Handlers{
		market:   market,
		rotation: rotation,
		signals:  signals,
		source:   source,
		cache:    snapshotCache,
		metrics:  metrics,
		hub:      NewHub(),
	}
}

// Market serves the latest MarketState snapshot.
func (h *Handlers) Market(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached app.MarketState
		if hit, err := h.cache.Get(ctx, "market", &cached); err == nil && hit {
			h.metrics.CacheHits.Inc()
			writeJSON(w, http.StatusOK, cached)
			return
		}
		h.metrics.CacheMisses.Inc()
	}

	state, err := h.market.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, "market", state); err != nil {
			log.Warn().Err(err).Msg("snapshot cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, state)
}

// Rotation serves the sector or stock rotation map.
func (h *Handlers) Rotation(w http.ResponseWriter, r *http.Request) {
	scope := mux.Vars(r)["scope"]
	switch scope {
	case "sectors":
		points, err := h.rotation.Sectors(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, points)
	case "stocks":
		points, err := h.rotation.Stocks(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, points)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown rotation scope: "+scope))
	}
}

// Signals serves the deduplicated, scored signal list.
func (h *Handlers) Signals(w http.ResponseWriter, r *http.Request) {
	scored, err := h.signals.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

// Health reports data source and cache reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.source.Ping(ctx); err != nil {
		status["status"] = "degraded"
		status["store"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			status["cache"] = err.Error()
		}
	}
	writeJSON(w, code, status)
}

// Broadcast pushes a refreshed snapshot to websocket subscribers.
func (h *Handlers) Broadcast(state *app.MarketState) {
	h.hub.Broadcast(state)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	log.Error().Err(err).Int("status", code).Msg("request failed")
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
