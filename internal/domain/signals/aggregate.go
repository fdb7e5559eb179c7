package signals

import "sort"

// Aggregate merges raw detections from every producer into per-(symbol,
// date) slots. Detections are ranked by (date desc, priority asc, strength
// desc); the first of each group becomes the primary signal and the rest
// attach to it, in rank order, as secondaries. Nothing is discarded.
func Aggregate(raw []RawSignal) []Slot {
	if len(raw) == 0 {
		return nil
	}

	ranked := make([]RawSignal, len(raw))
	copy(ranked, raw)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Strength > b.Strength
	})

	slots := make([]Slot, 0, len(ranked))
	index := make(map[slotKey]int, len(ranked))
	for _, sig := range ranked {
		key := slotKey{sig.Symbol, sig.Date.Format("2006-01-02")}
		if i, ok := index[key]; ok {
			slots[i].Secondary = append(slots[i].Secondary, sig)
			continue
		}
		index[key] = len(slots)
		slots = append(slots, Slot{
			Symbol:  sig.Symbol,
			Date:    sig.Date,
			Primary: sig,
		})
	}
	return slots
}

type slotKey struct {
	symbol string
	date   string
}
