package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Buu205/vnsignal/internal/store/cache"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check data source and cache connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth()
		},
	}
}

func runHealth() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	source, closeSource, err := buildSource(cfg.Store)
	if err != nil {
		return err
	}
	defer closeSource()

	healthy := true
	if err := source.Ping(ctx); err != nil {
		fmt.Printf("store (%s): FAIL: %v\n", cfg.Store.Backend, err)
		healthy = false
	} else {
		fmt.Printf("store (%s): OK\n", cfg.Store.Backend)
	}

	if cfg.Store.CacheAddr != "" {
		snapshotCache := cache.New(cfg.Store.CacheConfig())
		defer snapshotCache.Close()
		if err := snapshotCache.Health(ctx); err != nil {
			fmt.Printf("cache (%s): FAIL: %v\n", cfg.Store.CacheAddr, err)
			healthy = false
		} else {
			fmt.Printf("cache (%s): OK\n", cfg.Store.CacheAddr)
		}
	} else {
		fmt.Println("cache: disabled")
	}

	if !healthy {
		return fmt.Errorf("one or more dependencies unreachable")
	}
	return nil
}
