package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

// SignalConfig bundles the aggregation and scoring tunables.
type SignalConfig struct {
	Producer signals.ProducerConfig `yaml:"producer"`
	Scorer   signals.ScorerConfig   `yaml:"scorer"`
	// WindowDays bounds how far back detections are pulled.
	WindowDays int `yaml:"window_days"`
}

func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		Producer:   signals.DefaultProducerConfig(),
		Scorer:     signals.DefaultScorerConfig(),
		WindowDays: 5,
	}
}

// SignalService runs the full detection-to-score pipeline.
type SignalService struct {
	source  store.SignalSource
	cfg     SignalConfig
	scorer  *signals.Scorer
	metrics *telemetry.Metrics
}

func NewSignalService(source store.SignalSource, cfg SignalConfig, metrics *telemetry.Metrics) *SignalService {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 5
	}
	return &SignalService{
		source:  source,
		cfg:     cfg,
		scorer:  signals.NewScorer(cfg.Scorer),
		metrics: metrics,
	}
}

// Scan normalizes every producer batch, deduplicates into slots, joins the
// scoring context, and returns the ranked, scored signal list. Absence of
// detections yields an empty list.
func (s *SignalService) Scan(ctx context.Context) ([]signals.ScoredSlot, error) {
	started := time.Now()

	batch, err := s.source.Detections(ctx, s.cfg.WindowDays)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	raw := make([]signals.RawSignal, 0,
		len(batch.Patterns)+len(batch.Crossovers)+len(batch.VolumeSpikes)+len(batch.Breakouts))
	for _, d := range batch.Patterns {
		raw = append(raw, s.cfg.Producer.NormalizePattern(d))
	}
	for _, d := range batch.Crossovers {
		raw = append(raw, s.cfg.Producer.NormalizeCrossover(d))
	}
	for _, d := range batch.VolumeSpikes {
		raw = append(raw, s.cfg.Producer.NormalizeVolumeSpike(d))
	}
	for _, d := range batch.Breakouts {
		raw = append(raw, s.cfg.Producer.NormalizeBreakout(d))
	}
	for _, sig := range raw {
		s.metrics.SignalsEmitted.WithLabelValues(string(sig.Source)).Inc()
	}

	slots := signals.Aggregate(raw)
	if len(slots) == 0 {
		return nil, nil
	}

	symbols := uniqueSymbols(slots)
	contexts, err := s.source.SymbolContexts(ctx, symbols)
	if err != nil {
		// Scoring context is an enrichment; score with neutral factors
		// rather than dropping the scan.
		log.Warn().Err(err).Msg("symbol contexts unavailable, scoring with neutral factors")
		contexts = map[string]signals.Aux{}
	}

	out := make([]signals.ScoredSlot, 0, len(slots))
	for _, slot := range slots {
		aux, ok := contexts[slot.Symbol]
		if !ok {
			aux = signals.EmptyAux()
		}
		out = append(out, signals.ScoredSlot{
			Slot:  slot,
			Score: s.scorer.Score(slot, aux),
		})
	}

	s.metrics.ScanDuration.WithLabelValues("signal_scan").Observe(time.Since(started).Seconds())
	log.Info().
		Int("raw", len(raw)).
		Int("slots", len(slots)).
		Msg("signal scan complete")
	return out, nil
}

func uniqueSymbols(slots []signals.Slot) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !seen[slot.Symbol] {
			seen[slot.Symbol] = true
			out = append(out, slot.Symbol)
		}
	}
	return out
}
