package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Buu205/vnsignal/internal/domain/rotation"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

// RotationConfig bundles the two rotation runs.
type RotationConfig struct {
	Sector rotation.Config `yaml:"sector"`
	Stock  rotation.Config `yaml:"stock"`
	// HistoryDays bounds the fetched strength history.
	HistoryDays int `yaml:"history_days"`
}

// DefaultRotationConfig mirrors the sector defaults and disables smoothing
// for stocks.
func DefaultRotationConfig() RotationConfig {
	sector := rotation.DefaultConfig()
	stock := rotation.DefaultConfig()
	stock.Smoothing = 1
	stock.MinConstituents = 0
	return RotationConfig{Sector: sector, Stock: stock, HistoryDays: 60}
}

// RotationService classifies sectors and stocks into rotation quadrants.
type RotationService struct {
	source  store.RotationSource
	cfg     RotationConfig
	metrics *telemetry.Metrics
}

func NewRotationService(source store.RotationSource, cfg RotationConfig, metrics *telemetry.Metrics) *RotationService {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 60
	}
	return &RotationService{source: source, cfg: cfg, metrics: metrics}
}

// Sectors returns the latest rotation point per sector. Absence of data
// yields an empty slice.
func (s *RotationService) Sectors(ctx context.Context) ([]rotation.Point, error) {
	started := time.Now()
	records, err := s.source.SectorHistory(ctx, s.cfg.HistoryDays)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	bySector := map[string]*rotation.SectorSeries{}
	order := []string{}
	for _, r := range records {
		series, ok := bySector[r.Sector]
		if !ok {
			series = &rotation.SectorSeries{Sector: r.Sector}
			bySector[r.Sector] = series
			order = append(order, r.Sector)
		}
		series.Points = append(series.Points, rotation.SeriesPoint{Date: r.Date, Value: r.Strength})
		if r.Constituents > series.Constituents {
			series.Constituents = r.Constituents
		}
	}
	input := make([]rotation.SectorSeries, 0, len(order))
	for _, name := range order {
		input = append(input, *bySector[name])
	}

	points := rotation.NewEngine(s.cfg.Sector).Sectors(input)
	s.metrics.ScanDuration.WithLabelValues("rotation_sectors").Observe(time.Since(started).Seconds())
	log.Debug().Int("sectors", len(points)).Msg("sector rotation classified")
	return points, nil
}

// Stocks returns the latest rotation point per stock.
func (s *RotationService) Stocks(ctx context.Context) ([]rotation.Point, error) {
	started := time.Now()
	records, err := s.source.RatingHistory(ctx, s.cfg.HistoryDays)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	bySymbol := map[string]*rotation.StockSeries{}
	order := []string{}
	for _, r := range records {
		series, ok := bySymbol[r.Symbol]
		if !ok {
			series = &rotation.StockSeries{Symbol: r.Symbol}
			bySymbol[r.Symbol] = series
			order = append(order, r.Symbol)
		}
		series.Points = append(series.Points, rotation.SeriesPoint{Date: r.Date, Value: r.Rating})
	}
	input := make([]rotation.StockSeries, 0, len(order))
	for _, name := range order {
		input = append(input, *bySymbol[name])
	}

	points := rotation.NewEngine(s.cfg.Stock).Stocks(input)
	s.metrics.ScanDuration.WithLabelValues("rotation_stocks").Observe(time.Since(started).Seconds())
	log.Debug().Int("stocks", len(points)).Msg("stock rotation classified")
	return points, nil
}
