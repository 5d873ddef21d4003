package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_careerlift/internal/app"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

var (
	ingestFilters  jobs.Filters
	limitPerSource int
	seedLimit      int
	seedOffline    bool

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Pull job postings into the graph",
	}

	ingestSourceCmd = &cobra.Command{
		Use:       "source <usajobs|adzuna|remotive|weworkremotely>",
		Short:     "Ingest one job source",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"usajobs", "adzuna", "remotive", "weworkremotely"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				src := jobs.Source(strings.ToLower(args[0]))
				res, err := a.Ingest.IngestSource(ctx, src, ingestFilters)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	ingestAllCmd = &cobra.Command{
		Use:   "all",
		Short: "Ingest every job source in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Ingest.IngestAll(ctx, limitPerSource))
			})
		},
	}

	ingestSeedsCmd = &cobra.Command{
		Use:   "seeds [url...]",
		Short: "Crawl career pages (default JOBS_SEED_URLS) or replay the offline fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Ingest.IngestSeeds(ctx, args, seedLimit, seedOffline)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
)

func init() {
	f := ingestSourceCmd.Flags()
	f.StringVarP(&ingestFilters.Keyword, "keyword", "k", "", "search keyword")
	f.StringVarP(&ingestFilters.Location, "location", "l", "", "location filter")
	f.BoolVar(&ingestFilters.Remote, "remote", false, "usajobs: remote positions only")
	f.StringVarP(&ingestFilters.Category, "category", "c", "", "remotive category or weworkremotely feed")
	f.IntVarP(&ingestFilters.Limit, "limit", "n", 0, "max postings to fetch (source default when 0)")

	ingestAllCmd.Flags().IntVarP(&limitPerSource, "limit-per-source", "n", 0, "max postings per source (default 50)")

	ingestSeedsCmd.Flags().IntVarP(&seedLimit, "limit", "n", 0, "stop after this many new postings (default JOBS_INGEST_LIMIT)")
	ingestSeedsCmd.Flags().BoolVar(&seedOffline, "offline", false, "replay JOBS_SAMPLE_PATH instead of crawling")

	ingestCmd.AddCommand(ingestSourceCmd, ingestAllCmd, ingestSeedsCmd)
	rootCmd.AddCommand(ingestCmd)
}
