package swinglow

// Stage is the bottom-formation phase derived from breadth swing lows.
type Stage string

const (
	// Capitulation: every breadth horizon is washed out and MA20 has not
	// yet printed a higher low.
	Capitulation Stage = "CAPITULATION"
	// Accumulating: still oversold across the board, but MA20 already
	// shows a confirmed higher low and is lifting off it.
	Accumulating Stage = "ACCUMULATING"
	// EarlyReversal: MA20 breadth has recovered past the minimum
	// threshold with higher lows on both MA20 and MA50.
	EarlyReversal Stage = "EARLY_REVERSAL"
)

// StageConfig holds the breadth thresholds for bottom staging.
type StageConfig struct {
	// ExtremeOversold gates CAPITULATION; all three breadth horizons
	// must sit below it.
	ExtremeOversold float64 `yaml:"extreme_oversold"`
	// Oversold gates ACCUMULATING.
	Oversold float64 `yaml:"oversold"`
	// Recovery is the minimum MA20 breadth for EARLY_REVERSAL.
	Recovery float64 `yaml:"recovery"`
	// BullGate disables staging once the longer breadth horizons
	// (MA50, MA100) are both at or above it.
	BullGate float64 `yaml:"bull_gate"`
}

// DefaultStageConfig returns the calibrated staging thresholds. These are
// tunable operating points, not invariants.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		ExtremeOversold: 15,
		Oversold:        25,
		Recovery:        30,
		BullGate:        50,
	}
}

// StageBottom classifies the bottom-formation stage from the latest breadth
// readings and the per-series swing-low analyses. The three conditions are
// checked in order of increasing permissiveness, so at most one matches.
// The second return is false when no stage applies.
func StageBottom(b20, b50, b100 float64, a20, a50 Analysis, cfg StageConfig) (Stage, bool) {
	// Staging only matters while the longer horizons are still weak.
	if b50 >= cfg.BullGate || b100 >= cfg.BullGate {
		return "", false
	}

	allBelow := func(limit float64) bool {
		return b20 < limit && b50 < limit && b100 < limit
	}

	if allBelow(cfg.ExtremeOversold) && !a20.HigherLow {
		return Capitulation, true
	}
	if allBelow(cfg.Oversold) && a20.HigherLow && a20.RisingFromLow {
		return Accumulating, true
	}
	if b20 > cfg.Recovery && a20.HigherLow && a50.HigherLow && a50.RisingFromLow {
		return EarlyReversal, true
	}
	return "", false
}
