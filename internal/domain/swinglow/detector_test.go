package swinglow

import (
	"math"
	"testing"
)

// cfg with a small depth floor so synthetic series stay readable.
func testConfig() Config {
	return Config{Lookback: 3, Confirm: 3, MinDepth: 3.0, HighWindow: 10}
}

// lowAt builds a V-shape around a low value so the lookback/confirm windows
// are strictly higher on both sides.
func seriesWithLows() []float64 {
	return []float64{
		40, 38, 35, 30, 18, 25, 28, 32, // confirmed low 18 at index 4
		30, 28, 26, 24, 33, 36, 38, 40, // confirmed low 24 at index 11
		42, 44, 46,
	}
}

func TestDetect_ConfirmedHigherLow(t *testing.T) {
	a := Detect(seriesWithLows(), testConfig())

	if len(a.Confirmed) != 2 {
		t.Fatalf("expected 2 confirmed lows, got %d: %+v", len(a.Confirmed), a.Confirmed)
	}
	if a.RecentLow != 24 || a.PrevLow != 18 {
		t.Errorf("recent/prev = %.0f/%.0f, want 24/18", a.RecentLow, a.PrevLow)
	}
	if !a.HigherLow {
		t.Error("expected higher low for [18, 24]")
	}
	if !a.RisingFromLow {
		t.Error("latest 46 > recent low 24 should count as rising")
	}
	if a.Pending != nil {
		t.Errorf("no pending low expected at tail, got %+v", a.Pending)
	}
}

func TestDetect_LowerLow(t *testing.T) {
	series := []float64{
		40, 38, 35, 30, 24, 28, 30, 32,
		30, 28, 26, 18, 25, 28, 30, 32,
	}
	a := Detect(series, testConfig())
	if len(a.Confirmed) != 2 {
		t.Fatalf("expected 2 confirmed lows, got %d", len(a.Confirmed))
	}
	if a.HigherLow {
		t.Error("second low 18 below first low 24 must not be a higher low")
	}
}

func TestDetect_DepthFilterRejectsShallowDip(t *testing.T) {
	// A 1.5pt dip is noise under a 3pt minimum depth.
	series := []float64{30, 29.8, 29.6, 29.4, 28.5, 29.5, 29.7, 29.9, 30}
	a := Detect(series, testConfig())
	if len(a.Confirmed) != 0 {
		t.Errorf("shallow dip should be filtered, got %+v", a.Confirmed)
	}
}

func TestDetect_PendingLowAtTail(t *testing.T) {
	series := []float64{
		40, 38, 35, 30, 18, 25, 28, 32,
		30, 28, 26, 22, 27, // 22 at index 11: only one higher value after
	}
	a := Detect(series, testConfig())

	if a.Pending == nil {
		t.Fatal("expected a pending low at the tail")
	}
	if a.Pending.Value != 22 || a.Pending.Index != 11 {
		t.Errorf("pending = %+v, want value 22 at index 11", a.Pending)
	}
	if !a.PendingHigherLow {
		t.Error("pending 22 above confirmed 18 should be a provisional higher low")
	}
	if a.ConfirmedToday {
		t.Error("a pending low must force ConfirmedToday=false")
	}
}

func TestDetect_ConfirmedToday(t *testing.T) {
	// Low at index 4, exactly Confirm values after it, none newer.
	series := []float64{40, 38, 35, 30, 18, 25, 28, 32}
	a := Detect(series, testConfig())

	if len(a.Confirmed) != 1 {
		t.Fatalf("expected 1 confirmed low, got %d", len(a.Confirmed))
	}
	if !a.ConfirmedToday {
		t.Error("low confirmed as of the latest observation should set ConfirmedToday")
	}
	if a.HigherLow {
		t.Error("a single confirmed low cannot be a higher low")
	}
	if !a.RisingFromLow {
		t.Error("latest 32 > low 18 should count as rising")
	}
}

func TestDetect_PendingNeverCoexistsWithConfirmedToday(t *testing.T) {
	// Property from the swing-low contract, checked across shifted tails.
	base := seriesWithLows()
	for cut := len(base) / 2; cut <= len(base); cut++ {
		a := Detect(base[:cut], testConfig())
		if a.Pending != nil && a.ConfirmedToday {
			t.Fatalf("cut=%d: pending low and ConfirmedToday are mutually exclusive", cut)
		}
	}
}

func TestDetect_InsufficientHistory(t *testing.T) {
	a := Detect([]float64{30, 28, 26}, testConfig())
	if a.HasRecentLow || a.Pending != nil || a.HigherLow {
		t.Errorf("short series should yield a zero analysis, got %+v", a)
	}
}

func TestDetect_NaNExcludedFromCandidacy(t *testing.T) {
	series := []float64{
		40, 38, 35, 30, math.NaN(), 25, 28, 32,
		30, 28, 26, 24, 33, 36, 38, 40,
	}
	a := Detect(series, testConfig())
	for _, p := range a.Confirmed {
		if math.IsNaN(p.Value) {
			t.Fatalf("NaN position must not become a swing low: %+v", p)
		}
	}
	if len(a.Confirmed) != 1 || a.Confirmed[0].Value != 24 {
		t.Errorf("expected only the 24 low, got %+v", a.Confirmed)
	}
}

func TestStageBottom_Capitulation(t *testing.T) {
	cfg := DefaultStageConfig()
	stage, ok := StageBottom(10, 10, 10, Analysis{}, Analysis{}, cfg)
	if !ok || stage != Capitulation {
		t.Errorf("all horizons at 10%% with no higher low: got (%s, %v), want CAPITULATION", stage, ok)
	}
}

func TestStageBottom_Accumulating(t *testing.T) {
	cfg := DefaultStageConfig()
	a20 := Analysis{HigherLow: true, RisingFromLow: true, HasRecentLow: true}
	stage, ok := StageBottom(20, 18, 16, a20, Analysis{}, cfg)
	if !ok || stage != Accumulating {
		t.Errorf("oversold with rising higher low: got (%s, %v), want ACCUMULATING", stage, ok)
	}
}

func TestStageBottom_EarlyReversal(t *testing.T) {
	cfg := DefaultStageConfig()
	a20 := Analysis{HigherLow: true, RisingFromLow: true}
	a50 := Analysis{HigherLow: true, RisingFromLow: true}
	stage, ok := StageBottom(35, 30, 28, a20, a50, cfg)
	if !ok || stage != EarlyReversal {
		t.Errorf("recovered breadth with twin higher lows: got (%s, %v), want EARLY_REVERSAL", stage, ok)
	}
}

func TestStageBottom_BullGateDisablesStaging(t *testing.T) {
	cfg := DefaultStageConfig()
	a := Analysis{HigherLow: true, RisingFromLow: true}
	if stage, ok := StageBottom(40, 55, 30, a, a, cfg); ok {
		t.Errorf("MA50 breadth above the bull gate must disable staging, got %s", stage)
	}
}

func TestStageBottom_NoMatch(t *testing.T) {
	cfg := DefaultStageConfig()
	if stage, ok := StageBottom(28, 40, 40, Analysis{}, Analysis{}, cfg); ok {
		t.Errorf("no condition should match, got %s", stage)
	}
}

func TestStageBottom_MutuallyExclusive(t *testing.T) {
	cfg := DefaultStageConfig()
	// Sweep a grid; at most one stage can ever match because the
	// conditions are checked in order.
	analyses := []Analysis{
		{},
		{HigherLow: true},
		{HigherLow: true, RisingFromLow: true},
	}
	for _, a20 := range analyses {
		for _, a50 := range analyses {
			for b := 0.0; b < 60; b += 5 {
				_, _ = StageBottom(b, b, b, a20, a50, cfg)
			}
		}
	}
}
