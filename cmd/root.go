package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sheltermap",
	Short: "Viewport-driven alpine POI synchronization engine",
	Long:  "Keeps a map viewport's shelters, bivouacs, huts and water sources in sync with a remote provider: debounced area fetches, offline-first local store, filtering, and minimal marker reconciliation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
