package signals

import (
	"fmt"
	"strings"
	"time"
)

// PatternDetection is a raw candlestick-pattern hit from the pattern scanner.
type PatternDetection struct {
	Symbol  string
	Date    time.Time
	Pattern string
	Price   float64
	// Close/MA20/MA50 give the trend context the polarity refinement
	// needs. Zero values degrade to a sideways read.
	MA20 float64
	MA50 float64
}

// CrossoverDetection is a moving-average crossover hit.
type CrossoverDetection struct {
	Symbol string
	Date   time.Time
	Period int
	// Bullish is true for an upward cross.
	Bullish bool
	Price   float64
}

// VolumeSpikeDetection is an abnormal-volume hit with a confidence score.
type VolumeSpikeDetection struct {
	Symbol     string
	Date       time.Time
	Label      string
	Direction  Direction
	Confidence float64 // [0,1]
	Price      float64
}

// BreakoutDetection is a resistance-break hit.
type BreakoutDetection struct {
	Symbol          string
	Date            time.Time
	Price           float64
	VolumeConfirmed bool
	VolumeRatio     float64
}

// PatternSpec describes one known candlestick pattern.
type PatternSpec struct {
	Polarity Polarity `yaml:"polarity"`
	Priority int      `yaml:"priority"`
	Strength float64  `yaml:"strength"`
}

// ProducerConfig holds the injected lookup tables for signal normalization.
// Keeping them on the config rather than as package globals lets deployments
// tune priorities without a rebuild.
type ProducerConfig struct {
	// Patterns maps lowercase pattern names to their spec. Unknown names
	// fall back to DefaultPattern.
	Patterns       map[string]PatternSpec `yaml:"patterns"`
	DefaultPattern PatternSpec            `yaml:"default_pattern"`

	// CrossoverStrength maps the MA period that crossed to a strength.
	CrossoverStrength map[int]float64 `yaml:"crossover_strength"`
	CrossoverPriority int             `yaml:"crossover_priority"`

	VolumeSpikePriority int `yaml:"volume_spike_priority"`

	BreakoutPriority     int     `yaml:"breakout_priority"`
	BreakoutBase         float64 `yaml:"breakout_base"`
	BreakoutVolumeBonus  float64 `yaml:"breakout_volume_bonus"`
	BreakoutRatioBonus   float64 `yaml:"breakout_ratio_bonus"`
	BreakoutRatioTrigger float64 `yaml:"breakout_ratio_trigger"`
	TrendAdjust          float64 `yaml:"trend_adjust"`

	Trend TrendConfig `yaml:"trend"`
}

// DefaultProducerConfig returns the standard priority and strength tables.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Patterns: map[string]PatternSpec{
			// Strong multi-candle reversals.
			"bullish_engulfing": {PolarityBullish, 2, 85},
			"bearish_engulfing": {PolarityBearish, 2, 85},
			"morning_star":      {PolarityBullish, 2, 85},
			"evening_star":      {PolarityBearish, 2, 85},
			"three_white_soldiers": {PolarityBullish, 2, 85},
			"three_black_crows":    {PolarityBearish, 2, 85},
			// Single-candle reversals.
			"hammer":        {PolarityBullish, 3, 70},
			"shooting_star": {PolarityBearish, 3, 70},
			"hanging_man":   {PolarityBearish, 3, 70},
			// Indecision candles; polarity resolved from trend context.
			"doji":          {PolarityNeutral, 5, 40},
			"spinning_top":  {PolarityNeutral, 5, 40},
		},
		DefaultPattern: PatternSpec{PolarityNeutral, 4, 60},
		CrossoverStrength: map[int]float64{
			20:  50,
			50:  75,
			100: 85,
			200: 100,
		},
		CrossoverPriority:    4,
		VolumeSpikePriority:  4,
		BreakoutPriority:     1,
		BreakoutBase:         70,
		BreakoutVolumeBonus:  15,
		BreakoutRatioBonus:   15,
		BreakoutRatioTrigger: 1.5,
		TrendAdjust:          10,
		Trend:                DefaultTrendConfig(),
	}
}

// NormalizePattern turns a pattern hit into a RawSignal. The pattern's
// polarity is refined against the prevailing trend before the final trade
// direction is resolved, and the strength is nudged by trend alignment.
func (c ProducerConfig) NormalizePattern(d PatternDetection) RawSignal {
	spec, ok := c.Patterns[strings.ToLower(strings.TrimSpace(d.Pattern))]
	if !ok {
		spec = c.DefaultPattern
	}

	trend := ClassifyTrend(d.Price, d.MA20, d.MA50, c.Trend)
	polarity := RefinePolarity(spec.Polarity, trend)
	direction := ResolveDirection(polarity, trend)

	strength := spec.Strength
	switch direction {
	case Buy, Sell:
		// With-trend signals read stronger.
		strength += c.TrendAdjust
	case Pullback, Bounce:
		strength -= c.TrendAdjust
	}

	return RawSignal{
		Symbol:    d.Symbol,
		Date:      d.Date,
		Source:    SourcePattern,
		Label:     d.Pattern,
		Direction: direction,
		Price:     d.Price,
		Strength:  clampStrength(strength),
		Priority:  spec.Priority,
	}
}

// NormalizeCrossover turns a crossover hit into a RawSignal. Strength is
// assigned purely by which MA period crossed.
func (c ProducerConfig) NormalizeCrossover(d CrossoverDetection) RawSignal {
	strength, ok := c.CrossoverStrength[d.Period]
	if !ok {
		strength = 50
	}
	direction := Sell
	label := fmt.Sprintf("death_cross_ma%d", d.Period)
	if d.Bullish {
		direction = Buy
		label = fmt.Sprintf("golden_cross_ma%d", d.Period)
	}
	return RawSignal{
		Symbol:    d.Symbol,
		Date:      d.Date,
		Source:    SourceMACrossover,
		Label:     label,
		Direction: direction,
		Price:     d.Price,
		Strength:  strength,
		Priority:  c.CrossoverPriority,
	}
}

// NormalizeVolumeSpike turns a volume-spike hit into a RawSignal, taking
// the direction straight from the source label.
func (c ProducerConfig) NormalizeVolumeSpike(d VolumeSpikeDetection) RawSignal {
	direction := d.Direction
	if direction == "" {
		direction = DirNone
	}
	return RawSignal{
		Symbol:    d.Symbol,
		Date:      d.Date,
		Source:    SourceVolumeSpike,
		Label:     d.Label,
		Direction: direction,
		Price:     d.Price,
		Strength:  clampStrength(d.Confidence * 100),
		Priority:  c.VolumeSpikePriority,
	}
}

// NormalizeBreakout turns a breakout hit into a RawSignal: base strength
// plus a bonus for volume confirmation and another when the volume ratio
// clears the trigger, capped at 100.
func (c ProducerConfig) NormalizeBreakout(d BreakoutDetection) RawSignal {
	strength := c.BreakoutBase
	if d.VolumeConfirmed {
		strength += c.BreakoutVolumeBonus
	}
	if d.VolumeRatio > c.BreakoutRatioTrigger {
		strength += c.BreakoutRatioBonus
	}
	return RawSignal{
		Symbol:    d.Symbol,
		Date:      d.Date,
		Source:    SourceBreakout,
		Label:     "breakout",
		Direction: Buy,
		Price:     d.Price,
		Strength:  clampStrength(strength),
		Priority:  c.BreakoutPriority,
	}
}

func clampStrength(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
