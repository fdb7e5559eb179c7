// Package remote implements the store contracts over the warehouse's HTTP
// export API, with a rate limiter and a circuit breaker between the engine
// and the upstream.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
)

// Config holds the remote source settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS bounds outbound request rate.
	RPS   float64
	Burst int
}

// Client fetches series batches over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New builds a hardened client: requests pass the rate limiter first and
// then the circuit breaker, so a dead upstream fails fast instead of
// stalling every refresh cycle.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "warehouse-export",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
	}
}

// fetchRows GETs a JSON array of row objects and normalizes column names at
// the boundary, so only canonical names travel further in.
func (c *Client) fetchRows(ctx context.Context, path string, params url.Values) ([]row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		u := c.baseURL + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream returned %d for %s", resp.StatusCode, path)
		}

		var rows []map[string]json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", path, err)
	}

	raw := result.([]map[string]json.RawMessage)
	out := make([]row, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeRow(r))
	}
	return out, nil
}

// row is one normalized record: canonical numeric columns plus the string
// fields that survive as-is.
type row struct {
	nums map[string]float64
	strs map[string]string
}

func normalizeRow(raw map[string]json.RawMessage) row {
	nums := make(map[string]float64, len(raw))
	strs := make(map[string]string)
	for name, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			nums[name] = f
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			strs[store.CanonicalColumn(name)] = s
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			if b {
				nums[name] = 1
			} else {
				nums[name] = 0
			}
		}
	}
	return row{nums: store.CanonicalRow(nums), strs: strs}
}

func (r row) num(name string) float64 {
	if v, ok := r.nums[name]; ok {
		return v
	}
	return math.NaN()
}

func (r row) date() (time.Time, bool) {
	s, ok := r.strs["date"]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func daysParam(days int) url.Values {
	return url.Values{"days": []string{strconv.Itoa(days)}}
}

// IndexHistory implements store.MarketSource.
func (c *Client) IndexHistory(ctx context.Context, days int) ([]store.IndexRecord, error) {
	rows, err := c.fetchRows(ctx, "/v1/index", daysParam(days))
	if err != nil {
		return nil, err
	}
	out := make([]store.IndexRecord, 0, len(rows))
	for _, r := range rows {
		d, ok := r.date()
		if !ok {
			continue
		}
		out = append(out, store.IndexRecord{
			Date: d, Close: r.num("close"),
			EMAFast: r.num("ema_fast"), EMASlow: r.num("ema_slow"),
		})
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// BreadthHistory implements store.MarketSource.
func (c *Client) BreadthHistory(ctx context.Context, days int) ([]store.BreadthRecord, error) {
	rows, err := c.fetchRows(ctx, "/v1/breadth", daysParam(days))
	if err != nil {
		return nil, err
	}
	out := make([]store.BreadthRecord, 0, len(rows))
	for _, r := range rows {
		d, ok := r.date()
		if !ok {
			continue
		}
		out = append(out, store.BreadthRecord{
			Date:           d,
			AboveMA20:      r.num("above_ma20"),
			AboveMA50:      r.num("above_ma50"),
			AboveMA100:     r.num("above_ma100"),
			AdvanceDecline: r.num("advance_decline"),
		})
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// SectorHistory implements store.RotationSource.
func (c *Client) SectorHistory(ctx context.Context, days int) ([]store.SectorRecord, error) {
	rows, err := c.fetchRows(ctx, "/v1/sectors", daysParam(days))
	if err != nil {
		return nil, err
	}
	out := make([]store.SectorRecord, 0, len(rows))
	for _, r := range rows {
		d, ok := r.date()
		if !ok {
			continue
		}
		out = append(out, store.SectorRecord{
			Sector:       r.strs["sector"],
			Date:         d,
			Strength:     r.num("strength"),
			Constituents: int(r.num("constituents")),
		})
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// RatingHistory implements store.RotationSource.
func (c *Client) RatingHistory(ctx context.Context, days int) ([]store.RatingRecord, error) {
	rows, err := c.fetchRows(ctx, "/v1/ratings", daysParam(days))
	if err != nil {
		return nil, err
	}
	out := make([]store.RatingRecord, 0, len(rows))
	for _, r := range rows {
		d, ok := r.date()
		if !ok {
			continue
		}
		out = append(out, store.RatingRecord{
			Symbol: r.strs["symbol"], Date: d, Rating: r.num("rating"),
		})
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// Detections implements store.SignalSource.
func (c *Client) Detections(ctx context.Context, days int) (store.DetectionBatch, error) {
	var batch store.DetectionBatch

	patterns, err := c.fetchRows(ctx, "/v1/detections/patterns", daysParam(days))
	if err != nil {
		return batch, err
	}
	for _, r := range patterns {
		d, ok := r.date()
		if !ok {
			continue
		}
		batch.Patterns = append(batch.Patterns, signals.PatternDetection{
			Symbol: r.strs["symbol"], Date: d, Pattern: r.strs["pattern"],
			Price: r.num("price"), MA20: r.num("ma20"), MA50: r.num("ma50"),
		})
	}

	crossovers, err := c.fetchRows(ctx, "/v1/detections/crossovers", daysParam(days))
	if err != nil {
		return batch, err
	}
	for _, r := range crossovers {
		d, ok := r.date()
		if !ok {
			continue
		}
		batch.Crossovers = append(batch.Crossovers, signals.CrossoverDetection{
			Symbol: r.strs["symbol"], Date: d,
			Period: int(r.num("period")), Bullish: r.num("bullish") > 0,
			Price: r.num("price"),
		})
	}

	spikes, err := c.fetchRows(ctx, "/v1/detections/volume-spikes", daysParam(days))
	if err != nil {
		return batch, err
	}
	for _, r := range spikes {
		d, ok := r.date()
		if !ok {
			continue
		}
		batch.VolumeSpikes = append(batch.VolumeSpikes, signals.VolumeSpikeDetection{
			Symbol: r.strs["symbol"], Date: d, Label: r.strs["label"],
			Direction:  signals.Direction(r.strs["direction"]),
			Confidence: r.num("confidence"), Price: r.num("price"),
		})
	}

	breakouts, err := c.fetchRows(ctx, "/v1/detections/breakouts", daysParam(days))
	if err != nil {
		return batch, err
	}
	for _, r := range breakouts {
		d, ok := r.date()
		if !ok {
			continue
		}
		batch.Breakouts = append(batch.Breakouts, signals.BreakoutDetection{
			Symbol: r.strs["symbol"], Date: d, Price: r.num("price"),
			VolumeConfirmed: r.num("volume_confirmed") > 0,
			VolumeRatio:     r.num("volume_ratio"),
		})
	}

	return batch, nil
}

// SymbolContexts implements store.SignalSource.
func (c *Client) SymbolContexts(ctx context.Context, symbols []string) (map[string]signals.Aux, error) {
	params := url.Values{"symbols": symbols}
	rows, err := c.fetchRows(ctx, "/v1/context", params)
	if err != nil {
		return nil, err
	}
	out := make(map[string]signals.Aux, len(rows))
	for _, r := range rows {
		symbol := r.strs["symbol"]
		if symbol == "" {
			continue
		}
		aux := signals.EmptyAux()
		if trend := r.strs["trend"]; trend != "" {
			aux.Trend = signals.TrendClass(trend)
		}
		aux.VolumeRatio = r.num("volume_ratio")
		aux.DistToSupportPct = r.num("dist_support_pct")
		aux.DistToResistancePct = r.num("dist_resistance_pct")
		aux.RSRating = r.num("rating")
		aux.TradingValue = r.num("value")
		aux.ExpectedTradingValue = r.num("expected_value")
		out[symbol] = aux
	}
	return out, nil
}

// Ping checks upstream health without tripping the breaker.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream health returned %d", resp.StatusCode)
	}
	return nil
}
