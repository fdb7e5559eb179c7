package store

import "testing"

func TestCanonicalColumn(t *testing.T) {
	cases := map[string]string{
		"pct_above_ma20": "above_ma20",
		"Breadth_MA50":   "above_ma50",
		"ema9":           "ema_fast",
		"EMA_21":         "ema_slow",
		"rs_rating":      "rating",
		"already_canonical": "already_canonical",
	}
	for in, want := range cases {
		if got := CanonicalColumn(in); got != want {
			t.Errorf("CanonicalColumn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalRow_CanonicalValueWins(t *testing.T) {
	row := map[string]float64{
		"above_ma20":     42,
		"pct_above_ma20": 99, // stale alias duplicate must not clobber
		"ema9":           1280,
	}
	out := CanonicalRow(row)
	if out["above_ma20"] != 42 {
		t.Errorf("above_ma20 = %.0f, want canonical value 42", out["above_ma20"])
	}
	if out["ema_fast"] != 1280 {
		t.Errorf("ema_fast = %.0f, want 1280", out["ema_fast"])
	}
	if _, ok := out["pct_above_ma20"]; ok {
		t.Error("alias key must not survive normalization")
	}
}
