package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/export"
)

var (
	exportPath   string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the POI store to xlsx or csv",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		ctx := cmd.Context()

		s, pers, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pers.Close()

		pois := s.All()

		switch exportFormat {
		case "xlsx":
			err = export.WriteXLSX(exportPath, pois)
		case "csv":
			err = export.WriteCSV(exportPath, pois)
		default:
			return eris.Errorf("export: unknown format %q (want xlsx or csv)", exportFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportPath),
			zap.String("format", exportFormat),
			zap.Int("pois", len(pois)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPath, "out", "pois.xlsx", "output path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx or csv")
	rootCmd.AddCommand(exportCmd)
}
