// Package regime derives the market trend regime and the recommended
// portfolio exposure from index EMA values and market breadth.
package regime

import "math"

// Regime is the 3-state market trend classification.
type Regime string

const (
	Bullish Regime = "BULLISH"
	Neutral Regime = "NEUTRAL"
	Bearish Regime = "BEARISH"
)

// RiskSignal summarizes the exposure level as a discrete risk stance.
type RiskSignal string

const (
	RiskOn  RiskSignal = "RISK_ON"
	RiskOff RiskSignal = "RISK_OFF"
	Caution RiskSignal = "CAUTION"
)

// ExposureStep maps a minimum breadth percentage to an exposure level.
// Steps are evaluated top-down, first match wins.
type ExposureStep struct {
	MinBreadth float64 `yaml:"min_breadth"`
	Level      int     `yaml:"level"`
}

// Config holds the regime and exposure tunables.
type Config struct {
	// Epsilon is the EMA tolerance band that keeps near-equal EMAs from
	// flapping between regimes. 0.005 = 0.5%.
	Epsilon float64 `yaml:"epsilon"`

	// ExposureSteps is the breadth-to-exposure step table for non-bearish
	// regimes. A bearish regime always forces exposure 0.
	ExposureSteps []ExposureStep `yaml:"exposure_steps"`

	// FloorLevel is the exposure when no step matches.
	FloorLevel int `yaml:"floor_level"`

	// RiskOnLevel and below-zero define the risk signal boundaries.
	RiskOnLevel int `yaml:"risk_on_level"`
}

// DefaultConfig returns the standard tolerance and step table.
func DefaultConfig() Config {
	return Config{
		Epsilon: 0.005,
		ExposureSteps: []ExposureStep{
			{MinBreadth: 70, Level: 100},
			{MinBreadth: 55, Level: 80},
			{MinBreadth: 40, Level: 60},
			{MinBreadth: 25, Level: 40},
		},
		FloorLevel:  20,
		RiskOnLevel: 60,
	}
}

// Classify maps a fast/slow EMA pair to a trend regime. The tolerance band
// keeps the classification stable when the EMAs are nearly equal.
func Classify(fast, slow, epsilon float64) Regime {
	if math.IsNaN(fast) || math.IsNaN(slow) || slow <= 0 {
		return Neutral
	}
	switch {
	case fast > slow*(1+epsilon):
		return Bullish
	case fast < slow*(1-epsilon):
		return Bearish
	default:
		return Neutral
	}
}

// ExposureFor maps regime and breadth (% of stocks above MA20) to a discrete
// exposure level and the matching risk signal. A bearish regime overrides
// breadth entirely.
func (c Config) ExposureFor(r Regime, breadth20 float64) (int, RiskSignal) {
	level := c.FloorLevel
	if r == Bearish {
		level = 0
	} else {
		for _, step := range c.ExposureSteps {
			if breadth20 >= step.MinBreadth {
				level = step.Level
				break
			}
		}
	}
	return level, c.riskFor(level)
}

func (c Config) riskFor(level int) RiskSignal {
	switch {
	case level == 0:
		return RiskOff
	case level >= c.RiskOnLevel:
		return RiskOn
	default:
		return Caution
	}
}
