package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Buu205/vnsignal/internal/app"
	"github.com/Buu205/vnsignal/internal/config"
	"github.com/Buu205/vnsignal/internal/domain/signals"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/store/postgres"
	"github.com/Buu205/vnsignal/internal/store/remote"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

func newScanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one full scan and print the results",
		Long:  "Computes the market snapshot, rotation maps, and scored signals once, then exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON instead of tables")
	return cmd
}

// buildSource constructs the configured data backend. The caller owns the
// returned closer.
func buildSource(cfg config.StoreConfig) (store.Source, func() error, error) {
	switch cfg.Backend {
	case "postgres":
		st, err := postgres.Open(cfg.PostgresDSN, cfg.PostgresTimeout())
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, st.Close, nil
	case "remote":
		client := remote.New(cfg.RemoteConfig())
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

type scanResult struct {
	Market  *app.MarketState     `json:"market,omitempty"`
	Sectors []rotationRow        `json:"sectors,omitempty"`
	Stocks  []rotationRow        `json:"stocks,omitempty"`
	Signals []signals.ScoredSlot `json:"signals"`
}

type rotationRow struct {
	Entity   string  `json:"entity"`
	Quadrant string  `json:"quadrant"`
	Ratio    float64 `json:"ratio"`
	Momentum float64 `json:"momentum"`
}

func runScan(asJSON bool) error {
	cfg, err := loadConfig(!asJSON)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(cfg.Store)
	if err != nil {
		return err
	}
	defer closeSource()

	metrics := telemetry.New()
	marketSvc := app.NewMarketService(source, cfg.Market, metrics)
	rotationSvc := app.NewRotationService(source, cfg.Rotation, metrics)
	signalSvc := app.NewSignalService(source, cfg.Signals, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var result scanResult

	state, err := marketSvc.Snapshot(ctx)
	switch {
	case err == nil:
		result.Market = state
	case errors.Is(err, store.ErrNoData):
		log.Warn().Msg("no index history available, skipping market snapshot")
	default:
		return fmt.Errorf("market snapshot: %w", err)
	}

	sectors, err := rotationSvc.Sectors(ctx)
	if err != nil {
		return fmt.Errorf("sector rotation: %w", err)
	}
	for _, p := range sectors {
		result.Sectors = append(result.Sectors, rotationRow{
			Entity: p.Entity, Quadrant: string(p.Quadrant),
			Ratio: p.SmoothRatio, Momentum: p.SmoothMomentum,
		})
	}

	stocks, err := rotationSvc.Stocks(ctx)
	if err != nil {
		return fmt.Errorf("stock rotation: %w", err)
	}
	for _, p := range stocks {
		result.Stocks = append(result.Stocks, rotationRow{
			Entity: p.Entity, Quadrant: string(p.Quadrant),
			Ratio: p.SmoothRatio, Momentum: p.SmoothMomentum,
		})
	}

	scored, err := signalSvc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("signal scan: %w", err)
	}
	result.Signals = scored

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printScan(result)
	return nil
}

func printScan(r scanResult) {
	if r.Market != nil {
		m := r.Market
		fmt.Printf("Market %s  regime=%s exposure=%d%% risk=%s breadth20=%.1f%%\n",
			m.Date.Format("2006-01-02"), m.Regime, m.Exposure, m.Risk, m.Breadth20)
		if m.BottomStage != nil {
			fmt.Printf("Bottom formation: %s\n", *m.BottomStage)
		}
	}

	if len(r.Sectors) > 0 {
		fmt.Println("\nSector rotation:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SECTOR\tQUADRANT\tRATIO\tMOMENTUM")
		for _, row := range r.Sectors {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\n", row.Entity, row.Quadrant, row.Ratio, row.Momentum)
		}
		w.Flush()
	}

	fmt.Printf("\nSignals (%d):\n", len(r.Signals))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tDATE\tSIGNAL\tDIRECTION\tSCORE\tSECONDARY")
	for _, s := range r.Signals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%d\n",
			s.Slot.Symbol, s.Slot.Date.Format("2006-01-02"),
			s.Slot.Primary.Label, s.Slot.Primary.Direction,
			s.Score.Total, len(s.Slot.Secondary))
	}
	w.Flush()
}
