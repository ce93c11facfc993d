package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Merge the embedded seed POIs into the store",
	Long:  "Loads the store and merges the embedded seed catalog into it. Existing POIs are never overwritten; useful to prime a fresh database for offline use.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("seed"); err != nil {
			return err
		}
		ctx := cmd.Context()

		s, pers, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pers.Close()

		added, err := s.Merge(ctx, store.Seed())
		if err != nil {
			return eris.Wrap(err, "seed: merge")
		}

		zap.L().Info("seed complete",
			zap.Int("added", added),
			zap.Int("store_size", s.Len()),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
