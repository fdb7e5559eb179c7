// Package signals fuses raw detections from independent producers into
// deduplicated, priority-ranked, composite-scored trading signals.
package signals

import "time"

// SourceType identifies which producer emitted a detection.
type SourceType string

const (
	SourcePattern     SourceType = "pattern"
	SourceMACrossover SourceType = "ma_crossover"
	SourceVolumeSpike SourceType = "volume_spike"
	SourceBreakout    SourceType = "breakout"
)

// Direction is the trade action a signal suggests.
type Direction string

const (
	Buy      Direction = "BUY"
	Sell     Direction = "SELL"
	Pullback Direction = "PULLBACK"
	Bounce   Direction = "BOUNCE"
	DirNone  Direction = "NEUTRAL"
)

// RawSignal is one normalized detection, ready for deduplication.
type RawSignal struct {
	Symbol    string     `json:"symbol"`
	Date      time.Time  `json:"date"`
	Source    SourceType `json:"source"`
	Label     string     `json:"label"`
	Direction Direction  `json:"direction"`
	Price     float64    `json:"price"`
	// Strength is the producer-assigned quality in [0,100].
	Strength float64 `json:"strength"`
	// Priority is the producer group, 1 (highest) through 5.
	Priority int `json:"priority"`
}

// Slot is the deduplicated result for one (symbol, date): exactly one
// primary signal plus every remaining detection in ranked order.
type Slot struct {
	Symbol    string      `json:"symbol"`
	Date      time.Time   `json:"date"`
	Primary   RawSignal   `json:"primary"`
	Secondary []RawSignal `json:"secondary,omitempty"`
}

// FactorBreakdown carries the six composite-score factors. VSA and trend
// alignment may be negative; the total is clamped to [0,100].
type FactorBreakdown struct {
	PatternQuality    float64 `json:"pattern_quality"`
	VSAContext        float64 `json:"vsa_context"`
	TrendAlignment    float64 `json:"trend_alignment"`
	SupportResistance float64 `json:"support_resistance"`
	RelativeStrength  float64 `json:"relative_strength"`
	Liquidity         float64 `json:"liquidity"`
	Total             float64 `json:"total"`
}

// ScoredSlot pairs a slot with its composite score.
type ScoredSlot struct {
	Slot  Slot            `json:"slot"`
	Score FactorBreakdown `json:"score"`
}
