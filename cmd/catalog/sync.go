package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/ingest"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/scraper"
)

func syncTrustpilotCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sync-trustpilot",
		Short: "Refresh Trustpilot ratings and reviews for every service",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			store, closeCache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			catalogService := catalog.NewCatalogService(catalog.Repositories{
				Services:   catalog.NewServiceRepository(db),
				Tags:       catalog.NewTagRepository(db),
				Categories: catalog.NewCategoryRepository(db),
				Ratings:    catalog.NewRatingRepository(db),
				Reviews:    catalog.NewReviewRepository(db),
			})
			client := scraper.NewClient(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)

			syncer := ingest.NewSyncer(catalogService, client,
				ingest.WithCache(store),
				ingest.WithBaseURL(cfg.Scrape.TrustpilotBaseURL),
			)

			report, err := syncer.Run(cmd.Context())
			out := cmd.OutOrStdout()
			if verbose && report != nil {
				printReport(out, report)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Successfully synced %d services\n", report.Total)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the outcome of every service")
	return cmd
}

// printReport writes one line per service plus skipped review reasons.
func printReport(w io.Writer, report *ingest.Report) {
	for _, it := range report.Items {
		line := fmt.Sprintf("%-8s #%d %s", it.Status, it.ServiceID, it.ServiceName)
		if it.Reason != "" {
			line += " (" + it.Reason + ")"
		}
		if it.Status == ingest.StatusSynced {
			line += fmt.Sprintf(": score %.1f, %d reviews", it.Score, it.Reviews)
		}
		fmt.Fprintln(w, line)
		for _, sk := range it.SkippedReviews {
			fmt.Fprintf(w, "         review %d skipped: %s\n", sk.Index, sk.Reason)
		}
	}
	fmt.Fprintf(w, "synced %d, skipped %d, failed %d of %d\n",
		report.Count(ingest.StatusSynced),
		report.Count(ingest.StatusSkipped),
		report.Count(ingest.StatusFailed),
		report.Total,
	)
}
