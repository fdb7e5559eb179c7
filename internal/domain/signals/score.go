package signals

import "math"

// Aux carries the auxiliary context joined onto a slot during aggregation:
// trend class, volume behaviour, support/resistance distances, the stock's
// relative-strength rating and its trading value versus the expected level.
// NaN fields mean "not available" and contribute a factor's neutral value.
type Aux struct {
	Trend TrendClass

	// VolumeRatio is actual volume over its recent average.
	VolumeRatio float64

	// DistToSupportPct / DistToResistancePct are percent distances from
	// price to the nearest support below / resistance above.
	DistToSupportPct    float64
	DistToResistancePct float64

	// RSRating is the 1-99 relative-strength rating.
	RSRating float64

	// TradingValue / ExpectedTradingValue measure liquidity.
	TradingValue         float64
	ExpectedTradingValue float64
}

// EmptyAux returns an Aux with every numeric field undefined.
func EmptyAux() Aux {
	nan := math.NaN()
	return Aux{
		Trend:                Sideways,
		VolumeRatio:          nan,
		DistToSupportPct:     nan,
		DistToResistancePct:  nan,
		RSRating:             nan,
		TradingValue:         nan,
		ExpectedTradingValue: nan,
	}
}

// ScorerConfig bounds each factor's contribution.
type ScorerConfig struct {
	PatternCap   float64 `yaml:"pattern_cap"`    // <= 15
	VSACap       float64 `yaml:"vsa_cap"`        // <= 25, may go negative
	VSAPenalty   float64 `yaml:"vsa_penalty"`    // low-volume bullish penalty
	TrendCap     float64 `yaml:"trend_cap"`      // <= 20, may go negative
	TrendPenalty float64 `yaml:"trend_penalty"`  // counter-trend penalty
	SRCap        float64 `yaml:"sr_cap"`         // <= 15
	RSCap        float64 `yaml:"rs_cap"`         // <= 15
	LiquidityCap float64 `yaml:"liquidity_cap"`  // <= 10
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		PatternCap:   15,
		VSACap:       25,
		VSAPenalty:   10,
		TrendCap:     20,
		TrendPenalty: 10,
		SRCap:        15,
		RSCap:        15,
		LiquidityCap: 10,
	}
}

// Scorer computes the bounded 100-point composite score for a slot.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the six factors for a slot's primary signal and sums them,
// clamping the total to [0,100]. A factor with missing inputs contributes
// zero; no factor can fail the others.
func (s *Scorer) Score(slot Slot, aux Aux) FactorBreakdown {
	b := FactorBreakdown{
		PatternQuality:    s.patternQuality(slot.Primary),
		VSAContext:        s.vsaContext(slot.Primary, aux),
		TrendAlignment:    s.trendAlignment(slot.Primary, aux),
		SupportResistance: s.supportResistance(slot.Primary, aux),
		RelativeStrength:  s.relativeStrength(aux),
		Liquidity:         s.liquidity(aux),
	}
	total := b.PatternQuality + b.VSAContext + b.TrendAlignment +
		b.SupportResistance + b.RelativeStrength + b.Liquidity
	b.Total = math.Min(100, math.Max(0, total))
	return b
}

// patternQuality rewards high-priority, high-strength primaries.
func (s *Scorer) patternQuality(sig RawSignal) float64 {
	base := map[int]float64{1: 1.0, 2: 0.8, 3: 0.6, 4: 0.4, 5: 0.2}[sig.Priority]
	return s.cfg.PatternCap * base * (sig.Strength / 100)
}

// vsaContext reads volume-spread behaviour: directional signals on strong
// volume score high, bullish signals on abnormally thin volume are
// penalized outright.
func (s *Scorer) vsaContext(sig RawSignal, aux Aux) float64 {
	if math.IsNaN(aux.VolumeRatio) || sig.Direction == DirNone {
		return 0
	}
	switch {
	case aux.VolumeRatio >= 2.0:
		return s.cfg.VSACap
	case aux.VolumeRatio >= 1.5:
		return s.cfg.VSACap * 0.7
	case aux.VolumeRatio >= 1.0:
		return s.cfg.VSACap * 0.4
	case aux.VolumeRatio < 0.7 && (sig.Direction == Buy || sig.Direction == Bounce):
		// A bullish read without volume behind it is suspect.
		return -s.cfg.VSAPenalty
	default:
		return 0
	}
}

// trendAlignment rewards with-trend signals and penalizes counter-trend
// ones.
func (s *Scorer) trendAlignment(sig RawSignal, aux Aux) float64 {
	switch sig.Direction {
	case Buy:
		switch aux.Trend {
		case StrongUp:
			return s.cfg.TrendCap
		case Uptrend:
			return s.cfg.TrendCap * 0.75
		case Downtrend, StrongDown:
			return -s.cfg.TrendPenalty
		}
	case Sell:
		switch aux.Trend {
		case StrongDown:
			return s.cfg.TrendCap
		case Downtrend:
			return s.cfg.TrendCap * 0.75
		case Uptrend, StrongUp:
			return -s.cfg.TrendPenalty
		}
	case Bounce, Pullback:
		// Counter-trend by definition; neither rewarded nor punished.
		return 0
	}
	return 0
}

// supportResistance rewards entries near support and exits near resistance.
func (s *Scorer) supportResistance(sig RawSignal, aux Aux) float64 {
	var dist float64
	switch sig.Direction {
	case Buy, Bounce:
		dist = aux.DistToSupportPct
	case Sell, Pullback:
		dist = aux.DistToResistancePct
	default:
		return 0
	}
	if math.IsNaN(dist) || dist < 0 {
		return 0
	}
	switch {
	case dist <= 2:
		return s.cfg.SRCap
	case dist <= 5:
		return s.cfg.SRCap * 0.66
	case dist <= 10:
		return s.cfg.SRCap * 0.33
	default:
		return 0
	}
}

// relativeStrength rewards signals on market leaders.
func (s *Scorer) relativeStrength(aux Aux) float64 {
	if math.IsNaN(aux.RSRating) {
		return 0
	}
	switch {
	case aux.RSRating >= 80:
		return s.cfg.RSCap
	case aux.RSRating >= 60:
		return s.cfg.RSCap * 0.66
	case aux.RSRating >= 40:
		return s.cfg.RSCap * 0.33
	default:
		return 0
	}
}

// liquidity rewards signals backed by above-expected trading value.
func (s *Scorer) liquidity(aux Aux) float64 {
	if math.IsNaN(aux.TradingValue) || math.IsNaN(aux.ExpectedTradingValue) ||
		aux.ExpectedTradingValue <= 0 {
		return 0
	}
	ratio := aux.TradingValue / aux.ExpectedTradingValue
	switch {
	case ratio >= 1.5:
		return s.cfg.LiquidityCap
	case ratio >= 1.0:
		return s.cfg.LiquidityCap * 0.7
	case ratio >= 0.5:
		return s.cfg.LiquidityCap * 0.4
	default:
		return s.cfg.LiquidityCap * 0.1
	}
}
