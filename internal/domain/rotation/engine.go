// Package rotation computes relative-strength rotation quadrants for
// sectors and stocks, the two axes being RS ratio and RS momentum.
package rotation

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Quadrant partitions the (ratio, momentum) plane.
type Quadrant string

const (
	Leading   Quadrant = "LEADING"   // ratio > 1, momentum > 0
	Weakening Quadrant = "WEAKENING" // ratio > 1, momentum <= 0
	Lagging   Quadrant = "LAGGING"   // ratio <= 1, momentum <= 0
	Improving Quadrant = "IMPROVING" // ratio <= 1, momentum > 0
	Unknown   Quadrant = "UNKNOWN"   // undefined inputs
)

// SeriesPoint is one dated strength observation for an entity.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// TrailPoint is one historical (ratio, momentum) pair kept for trajectory
// rendering.
type TrailPoint struct {
	Date     time.Time
	Ratio    float64
	Momentum float64
}

// Point is the latest rotation classification for one entity.
type Point struct {
	Entity         string
	Date           time.Time
	Ratio          float64
	SmoothRatio    float64
	Momentum       float64
	SmoothMomentum float64
	Quadrant       Quadrant
	Trail          []TrailPoint
}

// Config holds the rotation tunables.
type Config struct {
	// MomentumLookback is the ratio-difference distance, in observations.
	MomentumLookback int `yaml:"momentum_lookback"`
	// ClipMin/ClipMax bound the scaled momentum to suppress early-series
	// outliers. Zero values disable clipping.
	ClipMin float64 `yaml:"clip_min"`
	ClipMax float64 `yaml:"clip_max"`
	// Smoothing is the trailing SMA window for both axes; 1 = none.
	Smoothing int `yaml:"smoothing"`
	// TrailLength is how many trailing points to retain per entity.
	TrailLength int `yaml:"trail_length"`
	// MinObservations excludes entities with too little history.
	MinObservations int `yaml:"min_observations"`
	// MinConstituents excludes sector aggregates built from too few
	// members. Ignored for stocks.
	MinConstituents int `yaml:"min_constituents"`
	// ReferenceFloor keeps the sector reference mean away from zero.
	ReferenceFloor float64 `yaml:"reference_floor"`
	// StockRatingCenter divides stock ratings into a ratio centered on
	// 1.0 (a 1-99 rating scale centers at 50).
	StockRatingCenter float64 `yaml:"stock_rating_center"`
}

// DefaultConfig returns the sector-grade defaults. Stock runs override
// Smoothing to 1 and skip the constituent gate.
func DefaultConfig() Config {
	return Config{
		MomentumLookback:  5,
		ClipMin:           -100,
		ClipMax:           150,
		Smoothing:         3,
		TrailLength:       10,
		MinObservations:   10,
		MinConstituents:   3,
		ReferenceFloor:    0.1,
		StockRatingCenter: 50,
	}
}

// Engine classifies entities into rotation quadrants.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.MomentumLookback <= 0 {
		cfg.MomentumLookback = 5
	}
	if cfg.Smoothing <= 0 {
		cfg.Smoothing = 1
	}
	return &Engine{cfg: cfg}
}

// SectorSeries is one sector's strength history plus its constituent count.
type SectorSeries struct {
	Sector       string
	Points       []SeriesPoint
	Constituents int
}

// Sectors classifies every sector against the cross-sectional mean strength
// per date. Sectors with insufficient history or too few constituents are
// excluded. A failure in one sector never aborts the batch.
func (e *Engine) Sectors(series []SectorSeries) []Point {
	reference := e.sectorReference(series)

	out := make([]Point, 0, len(series))
	for _, s := range series {
		if s.Constituents < e.cfg.MinConstituents {
			continue
		}
		p, ok := e.classifyEntity(s.Sector, s.Points, func(sp SeriesPoint) float64 {
			ref := reference[sp.Date.Format("2006-01-02")]
			if ref < e.cfg.ReferenceFloor {
				ref = e.cfg.ReferenceFloor
			}
			return sp.Value / ref
		})
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// StockSeries is one stock's relative-strength rating history.
type StockSeries struct {
	Symbol string
	Points []SeriesPoint
}

// Stocks classifies every stock by centering its 1-99 rating around 1.0.
func (e *Engine) Stocks(series []StockSeries) []Point {
	center := e.cfg.StockRatingCenter
	if center <= 0 {
		center = 50
	}
	out := make([]Point, 0, len(series))
	for _, s := range series {
		p, ok := e.classifyEntity(s.Symbol, s.Points, func(sp SeriesPoint) float64 {
			return sp.Value / center
		})
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// classifyEntity runs the full ratio/momentum/smoothing/quadrant pipeline
// for one entity. It recovers from panics so a malformed entity cannot take
// down the rest of the batch.
func (e *Engine) classifyEntity(entity string, points []SeriesPoint, ratioOf func(SeriesPoint) float64) (p Point, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("entity", entity).Interface("panic", r).Msg("rotation entity skipped after panic")
			ok = false
		}
	}()

	if len(points) < e.cfg.MinObservations {
		return Point{}, false
	}
	sorted := make([]SeriesPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	ratios := make([]float64, len(sorted))
	for i, sp := range sorted {
		ratios[i] = ratioOf(sp)
	}

	momentum := make([]float64, len(sorted))
	for i := range sorted {
		if i < e.cfg.MomentumLookback {
			momentum[i] = math.NaN()
			continue
		}
		m := (ratios[i] - ratios[i-e.cfg.MomentumLookback]) * 100
		momentum[i] = e.clip(m)
	}

	smoothRatio := trailingSMA(ratios, e.cfg.Smoothing)
	smoothMomentum := trailingSMA(momentum, e.cfg.Smoothing)

	last := len(sorted) - 1
	p = Point{
		Entity:         entity,
		Date:           sorted[last].Date,
		Ratio:          ratios[last],
		SmoothRatio:    smoothRatio[last],
		Momentum:       momentum[last],
		SmoothMomentum: smoothMomentum[last],
		Quadrant:       ClassifyQuadrant(smoothRatio[last], smoothMomentum[last]),
	}

	if e.cfg.TrailLength > 0 {
		start := len(sorted) - e.cfg.TrailLength
		if start < 0 {
			start = 0
		}
		for i := start; i <= last; i++ {
			if math.IsNaN(smoothRatio[i]) || math.IsNaN(smoothMomentum[i]) {
				continue
			}
			p.Trail = append(p.Trail, TrailPoint{
				Date:     sorted[i].Date,
				Ratio:    smoothRatio[i],
				Momentum: smoothMomentum[i],
			})
		}
	}
	return p, true
}

// ClassifyQuadrant maps a smoothed (ratio, momentum) pair to its quadrant.
// Undefined inputs map to UNKNOWN rather than a degenerate quadrant.
func ClassifyQuadrant(ratio, momentum float64) Quadrant {
	if math.IsNaN(ratio) || math.IsNaN(momentum) {
		return Unknown
	}
	switch {
	case ratio > 1 && momentum > 0:
		return Leading
	case ratio > 1:
		return Weakening
	case momentum > 0:
		return Improving
	default:
		return Lagging
	}
}

func (e *Engine) clip(v float64) float64 {
	if e.cfg.ClipMin == 0 && e.cfg.ClipMax == 0 {
		return v
	}
	if v < e.cfg.ClipMin {
		return e.cfg.ClipMin
	}
	if v > e.cfg.ClipMax {
		return e.cfg.ClipMax
	}
	return v
}

// sectorReference computes the mean strength across sectors per date.
func (e *Engine) sectorReference(series []SectorSeries) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range series {
		for _, sp := range s.Points {
			if math.IsNaN(sp.Value) {
				continue
			}
			key := sp.Date.Format("2006-01-02")
			sums[key] += sp.Value
			counts[key]++
		}
	}
	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = sum / float64(counts[key])
	}
	return out
}

// trailingSMA smooths a series with a trailing window, propagating NaN
// inputs as NaN outputs. Window 1 returns the input unchanged.
func trailingSMA(series []float64, window int) []float64 {
	if window <= 1 {
		out := make([]float64, len(series))
		copy(out, series)
		return out
	}
	out := make([]float64, len(series))
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for j := start; j <= i; j++ {
			if math.IsNaN(series[j]) {
				continue
			}
			sum += series[j]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}
