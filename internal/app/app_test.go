package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Buu205/vnsignal/internal/domain/regime"
	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

type fakeSource struct {
	index    []store.IndexRecord
	breadth  []store.BreadthRecord
	sectors  []store.SectorRecord
	ratings  []store.RatingRecord
	batch    store.DetectionBatch
	contexts map[string]signals.Aux
	err      error
}

func (f *fakeSource) IndexHistory(ctx context.Context, days int) ([]store.IndexRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.index) == 0 {
		return nil, store.ErrNoData
	}
	return f.index, nil
}

func (f *fakeSource) BreadthHistory(ctx context.Context, days int) ([]store.BreadthRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.breadth) == 0 {
		return nil, store.ErrNoData
	}
	return f.breadth, nil
}

func (f *fakeSource) SectorHistory(ctx context.Context, days int) ([]store.SectorRecord, error) {
	if len(f.sectors) == 0 {
		return nil, store.ErrNoData
	}
	return f.sectors, nil
}

func (f *fakeSource) RatingHistory(ctx context.Context, days int) ([]store.RatingRecord, error) {
	if len(f.ratings) == 0 {
		return nil, store.ErrNoData
	}
	return f.ratings, nil
}

func (f *fakeSource) Detections(ctx context.Context, days int) (store.DetectionBatch, error) {
	return f.batch, nil
}

func (f *fakeSource) SymbolContexts(ctx context.Context, symbols []string) (map[string]signals.Aux, error) {
	if f.contexts == nil {
		return map[string]signals.Aux{}, nil
	}
	return f.contexts, nil
}

func (f *fakeSource) Ping(ctx context.Context) error { return nil }

func day(n int) time.Time {
	return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func flatBreadth(n int, ma20, ma50, ma100 float64) []store.BreadthRecord {
	out := make([]store.BreadthRecord, n)
	for i := range out {
		out[i] = store.BreadthRecord{
			Date: day(i), AboveMA20: ma20, AboveMA50: ma50, AboveMA100: ma100,
		}
	}
	return out
}

func TestMarketSnapshot_BullishRiskOn(t *testing.T) {
	src := &fakeSource{
		index: []store.IndexRecord{
			{Date: day(0), Close: 1250, EMAFast: 1248, EMASlow: 1240},
			{Date: day(1), Close: 1262, EMAFast: 1255, EMASlow: 1242},
		},
		breadth: flatBreadth(30, 72, 61, 58),
	}
	svc := NewMarketService(src, DefaultMarketConfig(), telemetry.New())

	state, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, regime.Bullish, state.Regime)
	assert.Equal(t, 100, state.Exposure)
	assert.Equal(t, regime.RiskOn, state.Risk)
	assert.InDelta(t, (1262.0-1250.0)/1250.0*100, state.ChangePct, 1e-9)
	assert.Nil(t, state.BottomStage, "healthy breadth must not stage a bottom")
}

func TestMarketSnapshot_BearishOverridesBreadth(t *testing.T) {
	src := &fakeSource{
		index: []store.IndexRecord{
			{Date: day(0), Close: 1250, EMAFast: 1200, EMASlow: 1260},
		},
		breadth: flatBreadth(30, 80, 70, 65),
	}
	svc := NewMarketService(src, DefaultMarketConfig(), telemetry.New())

	state, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, regime.Bearish, state.Regime)
	assert.Equal(t, 0, state.Exposure)
	assert.Equal(t, regime.RiskOff, state.Risk)
}

func TestMarketSnapshot_CapitulationStage(t *testing.T) {
	src := &fakeSource{
		index: []store.IndexRecord{
			{Date: day(0), Close: 900, EMAFast: 890, EMASlow: 940},
		},
		breadth: flatBreadth(30, 10, 10, 10),
	}
	svc := NewMarketService(src, DefaultMarketConfig(), telemetry.New())

	state, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state.BottomStage)
	assert.Equal(t, "CAPITULATION", string(*state.BottomStage))
}

func TestMarketSnapshot_NoDataIsNotAnError(t *testing.T) {
	svc := NewMarketService(&fakeSource{}, DefaultMarketConfig(), telemetry.New())
	state, err := svc.Snapshot(context.Background())
	assert.Nil(t, state)
	assert.ErrorIs(t, err, store.ErrNoData)
}

func TestSignalScan_EndToEnd(t *testing.T) {
	d := day(10)
	src := &fakeSource{
		batch: store.DetectionBatch{
			Breakouts: []signals.BreakoutDetection{
				{Symbol: "AAA", Date: d, Price: 50, VolumeConfirmed: true, VolumeRatio: 1.2},
			},
			Patterns: []signals.PatternDetection{
				{Symbol: "AAA", Date: d, Pattern: "hammer", Price: 50, MA20: 49, MA50: 48},
			},
			VolumeSpikes: []signals.VolumeSpikeDetection{
				{Symbol: "AAA", Date: d, Label: "spike", Direction: signals.Buy, Confidence: 0.6, Price: 50},
			},
		},
		contexts: map[string]signals.Aux{},
	}
	svc := NewSignalService(src, DefaultSignalConfig(), telemetry.New())

	scored, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, 1)

	slot := scored[0].Slot
	assert.Equal(t, signals.SourceBreakout, slot.Primary.Source, "breakout has the highest priority group")
	assert.Len(t, slot.Secondary, 2)
	assert.GreaterOrEqual(t, scored[0].Score.Total, 0.0)
	assert.LessOrEqual(t, scored[0].Score.Total, 100.0)
}

func TestSignalScan_EmptyBatch(t *testing.T) {
	svc := NewSignalService(&fakeSource{}, DefaultSignalConfig(), telemetry.New())
	scored, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestRotation_SectorsFromRecords(t *testing.T) {
	var records []store.SectorRecord
	for i := 0; i < 12; i++ {
		records = append(records,
			store.SectorRecord{Sector: "BANK", Date: day(i), Strength: 10 + float64(i)*0.5, Constituents: 12},
			store.SectorRecord{Sector: "STEEL", Date: day(i), Strength: 10 - float64(i)*0.2, Constituents: 8},
		)
	}
	svc := NewRotationService(&fakeSource{sectors: records}, DefaultRotationConfig(), telemetry.New())

	points, err := svc.Sectors(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
}

func TestRotation_NoDataYieldsEmpty(t *testing.T) {
	svc := NewRotationService(&fakeSource{}, DefaultRotationConfig(), telemetry.New())
	points, err := svc.Sectors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, points)
}
