// Package app composes the domain engines over an injected data source
// into the three surfaces the dashboard consumes: the market state
// snapshot, rotation maps, and the scored signal list.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Buu205/vnsignal/internal/domain/regime"
	"github.com/Buu205/vnsignal/internal/domain/swinglow"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

// SwingSummary is the per-series swing-low digest carried on MarketState.
type SwingSummary struct {
	RecentLow        float64 `json:"recent_low"`
	PrevLow          float64 `json:"prev_low"`
	HasRecentLow     bool    `json:"has_recent_low"`
	HigherLow        bool    `json:"higher_low"`
	RisingFromLow    bool    `json:"rising_from_low"`
	HasPendingLow    bool    `json:"has_pending_low"`
	PendingLow       float64 `json:"pending_low,omitempty"`
	PendingHigherLow bool    `json:"pending_higher_low"`
	ConfirmedToday   bool    `json:"confirmed_today"`
}

// MarketState is the per-date market snapshot.
type MarketState struct {
	Date      time.Time     `json:"date"`
	Close     float64       `json:"close"`
	ChangePct float64       `json:"change_pct"`
	Regime    regime.Regime `json:"regime"`
	EMAFast   float64       `json:"ema_fast"`
	EMASlow   float64       `json:"ema_slow"`

	Breadth20     float64 `json:"breadth_ma20"`
	Breadth50     float64 `json:"breadth_ma50"`
	Breadth100    float64 `json:"breadth_ma100"`
	PrevBreadth20 float64 `json:"prev_breadth_ma20"`
	PrevBreadth50 float64 `json:"prev_breadth_ma50"`

	Exposure int               `json:"exposure"`
	Risk     regime.RiskSignal `json:"risk"`

	BottomStage *swinglow.Stage `json:"bottom_stage,omitempty"`

	MA20 SwingSummary `json:"ma20"`
	MA50 SwingSummary `json:"ma50"`
}

// MarketConfig bundles the market snapshot tunables.
type MarketConfig struct {
	Regime   regime.Config       `yaml:"regime"`
	SwingLow swinglow.Config     `yaml:"swing_low"`
	Stage    swinglow.StageConfig `yaml:"stage"`
	// HistoryDays bounds how much breadth history each snapshot scans.
	HistoryDays int `yaml:"history_days"`
}

// DefaultMarketConfig returns the standard snapshot parameters.
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		Regime:      regime.DefaultConfig(),
		SwingLow:    swinglow.DefaultConfig(),
		Stage:       swinglow.DefaultStageConfig(),
		HistoryDays: 120,
	}
}

// MarketService derives the MarketState snapshot.
type MarketService struct {
	source  store.MarketSource
	cfg     MarketConfig
	metrics *telemetry.Metrics
}

func NewMarketService(source store.MarketSource, cfg MarketConfig, metrics *telemetry.Metrics) *MarketService {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 120
	}
	return &MarketService{source: source, cfg: cfg, metrics: metrics}
}

// Snapshot computes the market state for the latest available date.
// Absence of data returns (nil, store.ErrNoData); it is a normal day-one
// condition, not a failure.
func (s *MarketService) Snapshot(ctx context.Context) (*MarketState, error) {
	started := time.Now()

	index, err := s.source.IndexHistory(ctx, s.cfg.HistoryDays)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, store.ErrNoData
		}
		s.metrics.SnapshotErrors.Inc()
		return nil, fmt.Errorf("market snapshot: %w", err)
	}
	breadth, err := s.source.BreadthHistory(ctx, s.cfg.HistoryDays)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, store.ErrNoData
		}
		s.metrics.SnapshotErrors.Inc()
		return nil, fmt.Errorf("market snapshot: %w", err)
	}

	latestIdx := index[len(index)-1]
	latestBr := breadth[len(breadth)-1]

	state := &MarketState{
		Date:       latestIdx.Date,
		Close:      latestIdx.Close,
		EMAFast:    latestIdx.EMAFast,
		EMASlow:    latestIdx.EMASlow,
		Regime:     regime.Classify(latestIdx.EMAFast, latestIdx.EMASlow, s.cfg.Regime.Epsilon),
		Breadth20:  latestBr.AboveMA20,
		Breadth50:  latestBr.AboveMA50,
		Breadth100: latestBr.AboveMA100,
	}
	if len(index) > 1 {
		prev := index[len(index)-2]
		if prev.Close > 0 {
			state.ChangePct = (latestIdx.Close - prev.Close) / prev.Close * 100
		}
	}
	if len(breadth) > 1 {
		prev := breadth[len(breadth)-2]
		state.PrevBreadth20 = prev.AboveMA20
		state.PrevBreadth50 = prev.AboveMA50
	}

	state.Exposure, state.Risk = s.cfg.Regime.ExposureFor(state.Regime, state.Breadth20)

	series20 := make([]float64, len(breadth))
	series50 := make([]float64, len(breadth))
	for i, b := range breadth {
		series20[i] = b.AboveMA20
		series50[i] = b.AboveMA50
	}
	a20 := swinglow.Detect(series20, s.cfg.SwingLow)
	a50 := swinglow.Detect(series50, s.cfg.SwingLow)
	state.MA20 = summarize(a20)
	state.MA50 = summarize(a50)

	if stage, ok := swinglow.StageBottom(state.Breadth20, state.Breadth50, state.Breadth100, a20, a50, s.cfg.Stage); ok {
		state.BottomStage = &stage
	}

	s.metrics.SnapshotTotal.Inc()
	s.metrics.ScanDuration.WithLabelValues("market_snapshot").Observe(time.Since(started).Seconds())
	log.Debug().
		Time("date", state.Date).
		Str("regime", string(state.Regime)).
		Int("exposure", state.Exposure).
		Msg("market snapshot computed")
	return state, nil
}

func summarize(a swinglow.Analysis) SwingSummary {
	out := SwingSummary{
		RecentLow:      a.RecentLow,
		HasRecentLow:   a.HasRecentLow,
		HigherLow:      a.HigherLow,
		RisingFromLow:  a.RisingFromLow,
		ConfirmedToday: a.ConfirmedToday,
	}
	if a.HasPrevLow {
		out.PrevLow = a.PrevLow
	}
	if a.Pending != nil {
		out.HasPendingLow = true
		out.PendingLow = a.Pending.Value
		out.PendingHigherLow = a.PendingHigherLow
	}
	return out
}
