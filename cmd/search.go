package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trailbeacon/sheltermap/internal/engine"
	"github.com/trailbeacon/sheltermap/internal/provider"
	"github.com/trailbeacon/sheltermap/internal/resilience"
)

var searchOffline bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find one POI by name",
	Long:  "Searches the remote provider (merging any results into the local store) or, with --offline, the local store only. Prints the first match.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		ctx := cmd.Context()
		s, pers, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pers.Close()

		prov := provider.NewHTTPClient(
			provider.WithBaseURL(cfg.Provider.BaseURL),
			provider.WithUserAgent(cfg.Provider.UserAgent),
			provider.WithRateLimit(cfg.Provider.RateLimit),
			provider.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
			}),
		)

		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Search.Retries + 1
		searcher := engine.NewSearcher(s, prov, engine.NewConnectivity(!searchOffline), retry)

		match, err := searcher.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if match == nil {
			fmt.Println("no match")
			return nil
		}

		fmt.Printf("%s  %s (%s)\n", match.ID, match.Name, match.Type)
		fmt.Printf("  lat %.5f  lon %.5f  altitude %dm\n", match.Latitude, match.Longitude, match.Altitude)
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchOffline, "offline", false, "search the local store only")
	rootCmd.AddCommand(searchCmd)
}
