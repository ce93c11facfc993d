package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/shapefile"
)

var (
	importShpPath     string
	importDefaultType string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import POIs from a point shapefile into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()

		defaultType, err := poi.ParseType(importDefaultType)
		if err != nil {
			return eris.Wrap(err, "import: default type")
		}

		pois, err := shapefile.ParsePoints(importShpPath, defaultType)
		if err != nil {
			return err
		}

		s, pers, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pers.Close()

		added, err := s.Merge(ctx, pois)
		if err != nil {
			return eris.Wrap(err, "import: merge")
		}

		zap.L().Info("import complete",
			zap.String("shapefile", importShpPath),
			zap.Int("parsed", len(pois)),
			zap.Int("added", added),
			zap.Int("store_size", s.Len()),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importShpPath, "shp", "", "path to point shapefile (required)")
	importCmd.Flags().StringVar(&importDefaultType, "type", "shelter", "type for records without one")
	_ = importCmd.MarkFlagRequired("shp")
	rootCmd.AddCommand(importCmd)
}
