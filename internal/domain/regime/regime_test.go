package regime

import (
	"math"
	"testing"
)

func TestClassify_ToleranceBand(t *testing.T) {
	cases := []struct {
		name string
		fast float64
		slow float64
		want Regime
	}{
		{"clear_bull", 1060, 1000, Bullish},
		{"clear_bear", 940, 1000, Bearish},
		{"just_inside_band_above", 1004, 1000, Neutral},
		{"just_inside_band_below", 996, 1000, Neutral},
		{"just_outside_band_above", 1005.01, 1000, Bullish},
		{"just_outside_band_below", 994.99, 1000, Bearish},
		{"equal", 1000, 1000, Neutral},
	}

	for _, tc := range cases {
		got := Classify(tc.fast, tc.slow, 0.005)
		if got != tc.want {
			t.Errorf("%s: Classify(%.2f, %.2f) = %s, want %s", tc.name, tc.fast, tc.slow, got, tc.want)
		}
	}
}

func TestClassify_UndefinedInputs(t *testing.T) {
	if got := Classify(math.NaN(), 1000, 0.005); got != Neutral {
		t.Errorf("NaN fast EMA: got %s, want %s", got, Neutral)
	}
	if got := Classify(1000, 0, 0.005); got != Neutral {
		t.Errorf("zero slow EMA: got %s, want %s", got, Neutral)
	}
}

func TestExposureFor_StepTable(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		regime    Regime
		breadth   float64
		wantLevel int
		wantRisk  RiskSignal
	}{
		{Bullish, 72, 100, RiskOn},
		{Bullish, 70, 100, RiskOn},
		{Neutral, 61, 80, RiskOn},
		{Bullish, 55, 80, RiskOn},
		{Neutral, 47, 60, RiskOn},
		{Neutral, 30, 40, Caution},
		{Bullish, 10, 20, Caution},
		{Bearish, 80, 0, RiskOff},
		{Bearish, 0, 0, RiskOff},
	}

	for _, tc := range cases {
		level, risk := cfg.ExposureFor(tc.regime, tc.breadth)
		if level != tc.wantLevel || risk != tc.wantRisk {
			t.Errorf("ExposureFor(%s, %.0f) = (%d, %s), want (%d, %s)",
				tc.regime, tc.breadth, level, risk, tc.wantLevel, tc.wantRisk)
		}
	}
}

func TestExposureFor_LevelDomain(t *testing.T) {
	cfg := DefaultConfig()
	valid := map[int]bool{0: true, 20: true, 40: true, 60: true, 80: true, 100: true}

	for _, r := range []Regime{Bullish, Neutral, Bearish} {
		for breadth := 0.0; breadth <= 100.0; breadth += 0.5 {
			level, _ := cfg.ExposureFor(r, breadth)
			if !valid[level] {
				t.Fatalf("ExposureFor(%s, %.1f) produced level %d outside the step domain", r, breadth, level)
			}
			if r == Bearish && level != 0 {
				t.Fatalf("bearish regime must force exposure 0, got %d at breadth %.1f", level, breadth)
			}
		}
	}
}
