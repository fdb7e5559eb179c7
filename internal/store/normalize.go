package store

import "strings"

// Source batches name the same column differently depending on which
// upstream pipeline produced them. The aliases are resolved here, at the
// store boundary, so the engine only ever sees canonical names.
var columnAliases = map[string]string{
	// breadth
	"pct_above_ma20":  "above_ma20",
	"breadth_ma20":    "above_ma20",
	"ma20_pct":        "above_ma20",
	"pct_above_ma50":  "above_ma50",
	"breadth_ma50":    "above_ma50",
	"ma50_pct":        "above_ma50",
	"pct_above_ma100": "above_ma100",
	"breadth_ma100":   "above_ma100",
	"ma100_pct":       "above_ma100",
	"ad_ratio":        "advance_decline",
	"adv_dec":         "advance_decline",
	// index
	"close_price": "close",
	"ema9":        "ema_fast",
	"ema_9":       "ema_fast",
	"ema21":       "ema_slow",
	"ema_21":      "ema_slow",
	// sector / stock
	"sector_strength": "strength",
	"strength_score":  "strength",
	"member_count":    "constituents",
	"rs_rating":       "rating",
	"relative_strength_rating": "rating",
	// signal context
	"vol_ratio":     "volume_ratio",
	"trading_value": "value",
}

// CanonicalColumn resolves a raw column name to its canonical form. Unknown
// names pass through lowercased.
func CanonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := columnAliases[key]; ok {
		return canonical
	}
	return key
}

// CanonicalRow re-keys an entire row to canonical column names. When an
// alias and its canonical name both appear, the canonical value wins.
func CanonicalRow(row map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(row))
	for name, v := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		canonical := CanonicalColumn(key)
		if canonical != key {
			if _, exists := row[canonical]; exists {
				continue
			}
		}
		out[canonical] = v
	}
	return out
}
