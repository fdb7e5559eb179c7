// Package postgres implements the store contracts over a PostgreSQL
// warehouse populated by the daily ingest jobs.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
)

// Store serves the engine's series contracts from Postgres.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, timeout: timeout}, nil
}

// NewWithDB wraps an existing connection, mainly for tests.
func NewWithDB(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// IndexHistory returns the last `days` index records, oldest first.
func (s *Store) IndexHistory(ctx context.Context, days int) ([]store.IndexRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT date, close, ema_fast, ema_slow
		FROM (
			SELECT date, close, ema_fast, ema_slow
			FROM index_daily
			ORDER BY date DESC
			LIMIT $1
		) recent
		ORDER BY date ASC`

	var out []store.IndexRecord
	if err := s.db.SelectContext(ctx, &out, query, days); err != nil {
		return nil, fmt.Errorf("failed to load index history: %w", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// BreadthHistory returns the last `days` market breadth records, oldest
// first.
func (s *Store) BreadthHistory(ctx context.Context, days int) ([]store.BreadthRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT date, above_ma20, above_ma50, above_ma100, advance_decline
		FROM (
			SELECT date, above_ma20, above_ma50, above_ma100, advance_decline
			FROM market_breadth
			ORDER BY date DESC
			LIMIT $1
		) recent
		ORDER BY date ASC`

	var out []store.BreadthRecord
	if err := s.db.SelectContext(ctx, &out, query, days); err != nil {
		return nil, fmt.Errorf("failed to load breadth history: %w", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// SectorHistory returns sector strength rows for the trailing window,
// ordered by sector then date.
func (s *Store) SectorHistory(ctx context.Context, days int) ([]store.SectorRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT sector, date, strength, constituents
		FROM sector_strength
		WHERE date >= (SELECT MAX(date) FROM sector_strength) - $1 * INTERVAL '1 day'
		ORDER BY sector, date ASC`

	var out []store.SectorRecord
	if err := s.db.SelectContext(ctx, &out, query, days); err != nil {
		return nil, fmt.Errorf("failed to load sector history: %w", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// RatingHistory returns stock RS rating rows for the trailing window.
func (s *Store) RatingHistory(ctx context.Context, days int) ([]store.RatingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT symbol, date, rating
		FROM stock_rs_rating
		WHERE date >= (SELECT MAX(date) FROM stock_rs_rating) - $1 * INTERVAL '1 day'
		ORDER BY symbol, date ASC`

	var out []store.RatingRecord
	if err := s.db.SelectContext(ctx, &out, query, days); err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

// Detections loads the raw producer batches for the trailing window.
func (s *Store) Detections(ctx context.Context, days int) (store.DetectionBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var batch store.DetectionBatch

	patternRows := []struct {
		Symbol  string    `db:"symbol"`
		Date    time.Time `db:"date"`
		Pattern string    `db:"pattern"`
		Price   float64   `db:"price"`
		MA20    float64   `db:"ma20"`
		MA50    float64   `db:"ma50"`
	}{}
	if err := s.db.SelectContext(ctx, &patternRows, `
		SELECT symbol, date, pattern, price, ma20, ma50
		FROM signal_patterns
		WHERE date >= (SELECT MAX(date) FROM signal_patterns) - $1 * INTERVAL '1 day'`, days); err != nil {
		return batch, fmt.Errorf("failed to load pattern detections: %w", err)
	}
	for _, r := range patternRows {
		batch.Patterns = append(batch.Patterns, signals.PatternDetection{
			Symbol: r.Symbol, Date: r.Date, Pattern: r.Pattern,
			Price: r.Price, MA20: r.MA20, MA50: r.MA50,
		})
	}

	crossRows := []struct {
		Symbol  string    `db:"symbol"`
		Date    time.Time `db:"date"`
		Period  int       `db:"period"`
		Bullish bool      `db:"bullish"`
		Price   float64   `db:"price"`
	}{}
	if err := s.db.SelectContext(ctx, &crossRows, `
		SELECT symbol, date, period, bullish, price
		FROM signal_crossovers
		WHERE date >= (SELECT MAX(date) FROM signal_crossovers) - $1 * INTERVAL '1 day'`, days); err != nil {
		return batch, fmt.Errorf("failed to load crossover detections: %w", err)
	}
	for _, r := range crossRows {
		batch.Crossovers = append(batch.Crossovers, signals.CrossoverDetection{
			Symbol: r.Symbol, Date: r.Date, Period: r.Period, Bullish: r.Bullish, Price: r.Price,
		})
	}

	spikeRows := []struct {
		Symbol     string    `db:"symbol"`
		Date       time.Time `db:"date"`
		Label      string    `db:"label"`
		Direction  string    `db:"direction"`
		Confidence float64   `db:"confidence"`
		Price      float64   `db:"price"`
	}{}
	if err := s.db.SelectContext(ctx, &spikeRows, `
		SELECT symbol, date, label, direction, confidence, price
		FROM signal_volume_spikes
		WHERE date >= (SELECT MAX(date) FROM signal_volume_spikes) - $1 * INTERVAL '1 day'`, days); err != nil {
		return batch, fmt.Errorf("failed to load volume spike detections: %w", err)
	}
	for _, r := range spikeRows {
		batch.VolumeSpikes = append(batch.VolumeSpikes, signals.VolumeSpikeDetection{
			Symbol: r.Symbol, Date: r.Date, Label: r.Label,
			Direction: signals.Direction(r.Direction), Confidence: r.Confidence, Price: r.Price,
		})
	}

	breakoutRows := []struct {
		Symbol          string    `db:"symbol"`
		Date            time.Time `db:"date"`
		Price           float64   `db:"price"`
		VolumeConfirmed bool      `db:"volume_confirmed"`
		VolumeRatio     float64   `db:"volume_ratio"`
	}{}
	if err := s.db.SelectContext(ctx, &breakoutRows, `
		SELECT symbol, date, price, volume_confirmed, volume_ratio
		FROM signal_breakouts
		WHERE date >= (SELECT MAX(date) FROM signal_breakouts) - $1 * INTERVAL '1 day'`, days); err != nil {
		return batch, fmt.Errorf("failed to load breakout detections: %w", err)
	}
	for _, r := range breakoutRows {
		batch.Breakouts = append(batch.Breakouts, signals.BreakoutDetection{
			Symbol: r.Symbol, Date: r.Date, Price: r.Price,
			VolumeConfirmed: r.VolumeConfirmed, VolumeRatio: r.VolumeRatio,
		})
	}

	return batch, nil
}

// SymbolContexts loads the latest scoring context per symbol. Symbols with
// no context row are simply absent from the result; the scorer treats their
// factors as neutral.
func (s *Store) SymbolContexts(ctx context.Context, symbols []string) (map[string]signals.Aux, error) {
	if len(symbols) == 0 {
		return map[string]signals.Aux{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := sqlx.In(`
		SELECT DISTINCT ON (symbol)
			symbol, trend, volume_ratio, dist_support_pct, dist_resistance_pct,
			rating, value, expected_value
		FROM symbol_context
		WHERE symbol IN (?)
		ORDER BY symbol, date DESC`, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to build context query: %w", err)
	}
	query = s.db.Rebind(query)

	rows := []struct {
		Symbol            string          `db:"symbol"`
		Trend             string          `db:"trend"`
		VolumeRatio       sql.NullFloat64 `db:"volume_ratio"`
		DistSupportPct    sql.NullFloat64 `db:"dist_support_pct"`
		DistResistancePct sql.NullFloat64 `db:"dist_resistance_pct"`
		Rating            sql.NullFloat64 `db:"rating"`
		Value             sql.NullFloat64 `db:"value"`
		ExpectedValue     sql.NullFloat64 `db:"expected_value"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[string]signals.Aux{}, nil
		}
		return nil, fmt.Errorf("failed to load symbol contexts: %w", err)
	}

	out := make(map[string]signals.Aux, len(rows))
	for _, r := range rows {
		aux := signals.EmptyAux()
		if r.Trend != "" {
			aux.Trend = signals.TrendClass(r.Trend)
		}
		aux.VolumeRatio = nullToNaN(r.VolumeRatio)
		aux.DistToSupportPct = nullToNaN(r.DistSupportPct)
		aux.DistToResistancePct = nullToNaN(r.DistResistancePct)
		aux.RSRating = nullToNaN(r.Rating)
		aux.TradingValue = nullToNaN(r.Value)
		aux.ExpectedTradingValue = nullToNaN(r.ExpectedValue)
		out[r.Symbol] = aux
	}
	return out, nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
