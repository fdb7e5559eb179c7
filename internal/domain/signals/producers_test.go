package signals

import (
	"testing"
	"time"
)

var testDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestClassifyTrend(t *testing.T) {
	cfg := DefaultTrendConfig()
	cases := []struct {
		name  string
		price float64
		ma20  float64
		ma50  float64
		want  TrendClass
	}{
		{"strong_up", 110, 104, 100, StrongUp},
		{"uptrend", 102, 101, 100, Uptrend},
		{"strong_down", 88, 94, 100, StrongDown},
		{"downtrend", 99, 99.5, 100, Downtrend},
		{"mixed_sideways", 100, 99, 101, Sideways},
		{"missing_ma", 100, 0, 100, Sideways},
	}
	for _, tc := range cases {
		if got := ClassifyTrend(tc.price, tc.ma20, tc.ma50, cfg); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestResolveDirection_Matrix(t *testing.T) {
	cases := []struct {
		polarity Polarity
		trend    TrendClass
		want     Direction
	}{
		{PolarityBullish, Uptrend, Buy},
		{PolarityBullish, StrongUp, Buy},
		{PolarityBearish, Uptrend, Pullback},
		{PolarityBearish, Downtrend, Sell},
		{PolarityBearish, StrongDown, Sell},
		{PolarityBullish, Downtrend, Bounce},
		{PolarityBullish, Sideways, Buy},
		{PolarityBearish, Sideways, Sell},
		{PolarityNeutral, Uptrend, DirNone},
	}
	for _, tc := range cases {
		if got := ResolveDirection(tc.polarity, tc.trend); got != tc.want {
			t.Errorf("ResolveDirection(%s, %s) = %s, want %s", tc.polarity, tc.trend, got, tc.want)
		}
	}
}

func TestNormalizePattern_DojiReinterpretedByTrend(t *testing.T) {
	cfg := DefaultProducerConfig()

	// Doji in a clear uptrend reads as a bearish warning: pullback.
	up := cfg.NormalizePattern(PatternDetection{
		Symbol: "AAA", Date: testDate, Pattern: "doji",
		Price: 110, MA20: 104, MA50: 100,
	})
	if up.Direction != Pullback {
		t.Errorf("doji in uptrend: direction = %s, want PULLBACK", up.Direction)
	}

	// Doji in a downtrend reads as a bullish hope: bounce.
	down := cfg.NormalizePattern(PatternDetection{
		Symbol: "AAA", Date: testDate, Pattern: "doji",
		Price: 88, MA20: 94, MA50: 100,
	})
	if down.Direction != Bounce {
		t.Errorf("doji in downtrend: direction = %s, want BOUNCE", down.Direction)
	}

	// Doji in a sideways market stays neutral.
	flat := cfg.NormalizePattern(PatternDetection{
		Symbol: "AAA", Date: testDate, Pattern: "doji",
		Price: 100, MA20: 99, MA50: 101,
	})
	if flat.Direction != DirNone {
		t.Errorf("doji sideways: direction = %s, want NEUTRAL", flat.Direction)
	}
}

func TestNormalizePattern_PriorityGroups(t *testing.T) {
	cfg := DefaultProducerConfig()
	cases := []struct {
		pattern string
		want    int
	}{
		{"bullish_engulfing", 2},
		{"morning_star", 2},
		{"hammer", 3},
		{"shooting_star", 3},
		{"doji", 5},
		{"spinning_top", 5},
		{"some_exotic_pattern", 4}, // unknown names fall to mid priority
	}
	for _, tc := range cases {
		sig := cfg.NormalizePattern(PatternDetection{
			Symbol: "AAA", Date: testDate, Pattern: tc.pattern,
			Price: 102, MA20: 101, MA50: 100,
		})
		if sig.Priority != tc.want {
			t.Errorf("%s: priority = %d, want %d", tc.pattern, sig.Priority, tc.want)
		}
	}
}

func TestNormalizePattern_DirectionMatrix(t *testing.T) {
	cfg := DefaultProducerConfig()

	// Bearish pattern in an uptrend warns of a pullback, not a sell.
	sig := cfg.NormalizePattern(PatternDetection{
		Symbol: "AAA", Date: testDate, Pattern: "bearish_engulfing",
		Price: 110, MA20: 104, MA50: 100,
	})
	if sig.Direction != Pullback {
		t.Errorf("bearish in uptrend: got %s, want PULLBACK", sig.Direction)
	}

	// Same pattern in a downtrend is a straight sell.
	sig = cfg.NormalizePattern(PatternDetection{
		Symbol: "AAA", Date: testDate, Pattern: "bearish_engulfing",
		Price: 88, MA20: 94, MA50: 100,
	})
	if sig.Direction != Sell {
		t.Errorf("bearish in downtrend: got %s, want SELL", sig.Direction)
	}
}

func TestNormalizeCrossover_StrengthByPeriod(t *testing.T) {
	cfg := DefaultProducerConfig()
	cases := []struct {
		period int
		want   float64
	}{
		{20, 50}, {50, 75}, {100, 85}, {200, 100},
	}
	for _, tc := range cases {
		sig := cfg.NormalizeCrossover(CrossoverDetection{
			Symbol: "AAA", Date: testDate, Period: tc.period, Bullish: true, Price: 100,
		})
		if sig.Strength != tc.want {
			t.Errorf("period %d: strength = %.0f, want %.0f", tc.period, sig.Strength, tc.want)
		}
		if sig.Priority != 4 || sig.Direction != Buy {
			t.Errorf("period %d: priority/direction = %d/%s", tc.period, sig.Priority, sig.Direction)
		}
	}
}

func TestNormalizeVolumeSpike(t *testing.T) {
	cfg := DefaultProducerConfig()
	sig := cfg.NormalizeVolumeSpike(VolumeSpikeDetection{
		Symbol: "AAA", Date: testDate, Label: "accumulation_spike",
		Direction: Buy, Confidence: 0.85, Price: 100,
	})
	if sig.Strength != 85 {
		t.Errorf("strength = %.0f, want confidence*100 = 85", sig.Strength)
	}
	if sig.Direction != Buy || sig.Priority != 4 {
		t.Errorf("direction/priority = %s/%d, want BUY/4", sig.Direction, sig.Priority)
	}
}

func TestNormalizeBreakout_StrengthLadder(t *testing.T) {
	cfg := DefaultProducerConfig()
	cases := []struct {
		confirmed bool
		ratio     float64
		want      float64
	}{
		{false, 1.0, 70},
		{true, 1.0, 85},
		{true, 1.6, 100},
		{false, 2.0, 85},
	}
	for _, tc := range cases {
		sig := cfg.NormalizeBreakout(BreakoutDetection{
			Symbol: "AAA", Date: testDate, Price: 100,
			VolumeConfirmed: tc.confirmed, VolumeRatio: tc.ratio,
		})
		if sig.Strength != tc.want {
			t.Errorf("confirmed=%v ratio=%.1f: strength = %.0f, want %.0f",
				tc.confirmed, tc.ratio, sig.Strength, tc.want)
		}
		if sig.Priority != 1 {
			t.Errorf("breakout priority = %d, want 1", sig.Priority)
		}
	}
}
