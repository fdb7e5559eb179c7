// Package store defines the data-access contracts the engine consumes:
// ordered, date-indexed record streams per market, sector, and stock, plus
// raw signal detection batches. Implementations live in the subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Buu205/vnsignal/internal/domain/signals"
)

// ErrNoData marks a normal absence-of-data condition (day one, stale
// pipeline). Callers surface an empty result, not a failure.
var ErrNoData = errors.New("store: no data available")

// ErrInsufficientHistory marks series too short for a windowed computation.
var ErrInsufficientHistory = errors.New("store: insufficient history")

// IndexRecord is one day of the market index with its regime EMAs.
type IndexRecord struct {
	Date    time.Time `db:"date" json:"date"`
	Close   float64   `db:"close" json:"close"`
	EMAFast float64   `db:"ema_fast" json:"ema_fast"`
	EMASlow float64   `db:"ema_slow" json:"ema_slow"`
}

// BreadthRecord is one day of market-wide breadth percentages.
type BreadthRecord struct {
	Date           time.Time `db:"date" json:"date"`
	AboveMA20      float64   `db:"above_ma20" json:"above_ma20"`
	AboveMA50      float64   `db:"above_ma50" json:"above_ma50"`
	AboveMA100     float64   `db:"above_ma100" json:"above_ma100"`
	AdvanceDecline float64   `db:"advance_decline" json:"advance_decline"`
}

// SectorRecord is one day of one sector's strength score.
type SectorRecord struct {
	Sector       string    `db:"sector" json:"sector"`
	Date         time.Time `db:"date" json:"date"`
	Strength     float64   `db:"strength" json:"strength"`
	Constituents int       `db:"constituents" json:"constituents"`
}

// RatingRecord is one day of one stock's relative-strength rating (1-99).
type RatingRecord struct {
	Symbol string    `db:"symbol" json:"symbol"`
	Date   time.Time `db:"date" json:"date"`
	Rating float64   `db:"rating" json:"rating"`
}

// DetectionBatch bundles the raw, unordered detections from every producer
// for one scan window.
type DetectionBatch struct {
	Patterns     []signals.PatternDetection
	Crossovers   []signals.CrossoverDetection
	VolumeSpikes []signals.VolumeSpikeDetection
	Breakouts    []signals.BreakoutDetection
}

// SymbolContext is the per-symbol auxiliary data the composite scorer joins
// onto a signal slot.
type SymbolContext struct {
	Symbol string
	Aux    signals.Aux
}

// MarketSource serves the index and breadth series, newest record last.
type MarketSource interface {
	IndexHistory(ctx context.Context, days int) ([]IndexRecord, error)
	BreadthHistory(ctx context.Context, days int) ([]BreadthRecord, error)
}

// RotationSource serves sector strength and stock rating histories.
type RotationSource interface {
	SectorHistory(ctx context.Context, days int) ([]SectorRecord, error)
	RatingHistory(ctx context.Context, days int) ([]RatingRecord, error)
}

// SignalSource serves raw detections and scoring context.
type SignalSource interface {
	Detections(ctx context.Context, days int) (DetectionBatch, error)
	SymbolContexts(ctx context.Context, symbols []string) (map[string]signals.Aux, error)
}

// Source is the full data-access contract.
type Source interface {
	MarketSource
	RotationSource
	SignalSource
	Ping(ctx context.Context) error
}
