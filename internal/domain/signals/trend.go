package signals

import "math"

// TrendClass is the prevailing short/medium trend of a stock, derived from
// the price distance to its 20- and 50-day moving averages.
type TrendClass string

const (
	StrongUp   TrendClass = "STRONG_UP"
	Uptrend    TrendClass = "UPTREND"
	Sideways   TrendClass = "SIDEWAYS"
	Downtrend  TrendClass = "DOWNTREND"
	StrongDown TrendClass = "STRONG_DOWN"
)

// TrendConfig holds the MA-distance thresholds, in percent.
type TrendConfig struct {
	// StrongNear/StrongFar: minimum distance to MA20/MA50 for a strong
	// trend call.
	StrongNear float64 `yaml:"strong_near"`
	StrongFar  float64 `yaml:"strong_far"`
}

func DefaultTrendConfig() TrendConfig {
	return TrendConfig{StrongNear: 3, StrongFar: 5}
}

// ClassifyTrend maps price vs MA20/MA50 distances to a trend class.
// Undefined inputs degrade to SIDEWAYS so downstream direction resolution
// stays neutral rather than failing.
func ClassifyTrend(price, ma20, ma50 float64, cfg TrendConfig) TrendClass {
	if price <= 0 || ma20 <= 0 || ma50 <= 0 ||
		math.IsNaN(price) || math.IsNaN(ma20) || math.IsNaN(ma50) {
		return Sideways
	}
	d20 := (price - ma20) / ma20 * 100
	d50 := (price - ma50) / ma50 * 100

	switch {
	case d20 >= cfg.StrongNear && d50 >= cfg.StrongFar:
		return StrongUp
	case d20 > 0 && d50 > 0:
		return Uptrend
	case d20 <= -cfg.StrongNear && d50 <= -cfg.StrongFar:
		return StrongDown
	case d20 < 0 && d50 < 0:
		return Downtrend
	default:
		return Sideways
	}
}

// isUp reports whether the trend class is on the bullish side.
func (t TrendClass) isUp() bool { return t == StrongUp || t == Uptrend }

// isDown reports whether the trend class is on the bearish side.
func (t TrendClass) isDown() bool { return t == StrongDown || t == Downtrend }

// Polarity is the raw directional read of a candlestick pattern before the
// prevailing trend is folded in.
type Polarity string

const (
	PolarityBullish Polarity = "bullish"
	PolarityBearish Polarity = "bearish"
	PolarityNeutral Polarity = "neutral"
)

// ResolveDirection combines a (possibly trend-refined) pattern polarity
// with the prevailing trend into a final trade direction:
// bullish with the trend reads as entry, bearish against it as a pullback
// warning, and the mirror cases as SELL and BOUNCE.
func ResolveDirection(p Polarity, trend TrendClass) Direction {
	switch p {
	case PolarityBullish:
		if trend.isDown() {
			return Bounce
		}
		return Buy
	case PolarityBearish:
		if trend.isUp() {
			return Pullback
		}
		return Sell
	default:
		return DirNone
	}
}

// RefinePolarity re-reads indecision candles in trend context: a doji in an
// uptrend is a bearish warning, in a downtrend a bullish hope, and stays
// neutral in a sideways market. Directional patterns pass through.
func RefinePolarity(p Polarity, trend TrendClass) Polarity {
	if p != PolarityNeutral {
		return p
	}
	switch {
	case trend.isUp():
		return PolarityBearish
	case trend.isDown():
		return PolarityBullish
	default:
		return PolarityNeutral
	}
}
