// Package swinglow detects delayed-confirmation swing lows in breadth series
// and classifies the multi-day bottom-formation stage built on top of them.
package swinglow

import "math"

// Status marks how settled a swing-low candidate is.
type Status string

const (
	// Pending lows have only a single higher observation after them;
	// confirmation is still outstanding.
	Pending Status = "PENDING"
	// Confirmed lows have the full confirm window of higher observations
	// behind them.
	Confirmed Status = "CONFIRMED"
)

// Point is one detected swing low inside a series.
type Point struct {
	Index int
	Value float64
	// Depth is the vertical drop from the highest value in the short
	// window preceding the low, in breadth percentage points.
	Depth  float64
	Status Status
}

// Config holds the detection tunables.
type Config struct {
	// Lookback is the number of strictly-higher observations required
	// immediately before a low.
	Lookback int `yaml:"lookback"`
	// Confirm is the number of strictly-higher observations required
	// immediately after a low for CONFIRMED status.
	Confirm int `yaml:"confirm"`
	// MinDepth filters shallow dips: the drop from the preceding local
	// high must be at least this many percentage points.
	MinDepth float64 `yaml:"min_depth"`
	// HighWindow bounds how far back the preceding-high scan reaches.
	HighWindow int `yaml:"high_window"`
}

// DefaultConfig returns the detection parameters used for daily breadth.
func DefaultConfig() Config {
	return Config{
		Lookback:   3,
		Confirm:    3,
		MinDepth:   3.0,
		HighWindow: 10,
	}
}

// Analysis is the swing-low summary for one breadth series.
type Analysis struct {
	Confirmed []Point

	// RecentLow and PrevLow are the two most recent confirmed low values.
	RecentLow    float64
	PrevLow      float64
	HasRecentLow bool
	HasPrevLow   bool

	// HigherLow is true when the most recent confirmed low sits strictly
	// above the one before it.
	HigherLow bool
	// RisingFromLow is true when the latest series value sits above the
	// most recent confirmed low.
	RisingFromLow bool

	// Pending is the unconfirmed candidate at the series tail, if any.
	Pending *Point
	// PendingHigherLow is the provisional higher-low verdict for the
	// pending candidate against the most recent confirmed low.
	PendingHigherLow bool

	// ConfirmedToday is true when the most recent confirmed low became
	// confirmed as of the latest observation. A pending candidate always
	// forces this false, since confirmation is still outstanding.
	ConfirmedToday bool
}

// Detect scans a breadth series for confirmed and pending swing lows and
// derives the higher-low summary. Series too short for the configured
// windows yield a zero-value Analysis rather than an error.
func Detect(series []float64, cfg Config) Analysis {
	var out Analysis
	n := len(series)
	if n < cfg.Lookback+2 {
		return out
	}

	for i := cfg.Lookback; i <= n-cfg.Confirm-1; i++ {
		if p, ok := candidateAt(series, i, cfg, cfg.Confirm); ok {
			out.Confirmed = append(out.Confirmed, Point{Index: i, Value: series[i], Depth: p, Status: Confirmed})
		}
	}

	// A pending low at the second-to-last position needs only the single
	// next value to be higher.
	tail := n - 2
	if tail >= cfg.Lookback && !confirmedAt(out.Confirmed, tail) {
		if depth, ok := candidateAt(series, tail, cfg, 1); ok {
			out.Pending = &Point{Index: tail, Value: series[tail], Depth: depth, Status: Pending}
		}
	}

	latest := series[n-1]
	switch len(out.Confirmed) {
	case 0:
	case 1:
		p := out.Confirmed[0]
		out.RecentLow, out.HasRecentLow = p.Value, true
		out.PrevLow, out.HasPrevLow = p.Value, false
		out.RisingFromLow = !math.IsNaN(latest) && latest > p.Value
	default:
		recent := out.Confirmed[len(out.Confirmed)-1]
		prev := out.Confirmed[len(out.Confirmed)-2]
		out.RecentLow, out.HasRecentLow = recent.Value, true
		out.PrevLow, out.HasPrevLow = prev.Value, true
		out.HigherLow = recent.Value > prev.Value
		out.RisingFromLow = !math.IsNaN(latest) && latest > recent.Value
	}

	if out.Pending != nil {
		out.PendingHigherLow = out.HasRecentLow && out.Pending.Value > out.RecentLow
		return out
	}
	if out.HasRecentLow {
		recent := out.Confirmed[len(out.Confirmed)-1]
		out.ConfirmedToday = recent.Index == n-1-cfg.Confirm
	}
	return out
}

// candidateAt tests position i as a swing low with an after-window of
// `after` strictly-higher observations, returning the measured depth.
func candidateAt(series []float64, i int, cfg Config, after int) (float64, bool) {
	v := series[i]
	if math.IsNaN(v) {
		return 0, false
	}
	for j := i - cfg.Lookback; j < i; j++ {
		if math.IsNaN(series[j]) || series[j] <= v {
			return 0, false
		}
	}
	if i+after >= len(series) {
		return 0, false
	}
	for j := i + 1; j <= i+after; j++ {
		if math.IsNaN(series[j]) || series[j] <= v {
			return 0, false
		}
	}

	depth := depthAt(series, i, cfg.HighWindow)
	if depth < cfg.MinDepth {
		return 0, false
	}
	return depth, true
}

// depthAt measures the drop from the highest value in the short window
// preceding position i, bounded by available history.
func depthAt(series []float64, i, window int) float64 {
	start := i - window
	if start < 0 {
		start = 0
	}
	high := math.Inf(-1)
	for j := start; j < i; j++ {
		if !math.IsNaN(series[j]) && series[j] > high {
			high = series[j]
		}
	}
	if math.IsInf(high, -1) {
		return 0
	}
	return high - series[i]
}

func confirmedAt(points []Point, idx int) bool {
	for _, p := range points {
		if p.Index == idx {
			return true
		}
	}
	return false
}
