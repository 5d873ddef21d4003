package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_careerlift/internal/app"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

var (
	listFilter   jobs.ListFilter
	listSource   string
	listResumeID string

	jobsCmd = &cobra.Command{
		Use:   "jobs",
		Short: "Query stored job postings",
	}

	jobsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored postings, newest first, or best match first with --resume-id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				f := listFilter
				f.Source = jobs.Source(listSource)
				list, err := a.Jobs.List(ctx, f)
				if err != nil {
					return err
				}
				if listResumeID != "" {
					if err := a.Resumes.Rank(ctx, listResumeID, list); err != nil {
						return err
					}
				}
				out := struct {
					Jobs        []jobs.StoredJob `json:"jobs"`
					Count       int              `json:"count"`
					Attribution string           `json:"attribution,omitempty"`
				}{Jobs: list, Count: len(list)}
				if jobs.HasSource(list, jobs.SourceAdzuna) {
					out.Attribution = jobs.AdzunaAttribution
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
)

func init() {
	f := jobsListCmd.Flags()
	f.StringVarP(&listFilter.Query, "query", "q", "", "text in title or description")
	f.StringVarP(&listFilter.Location, "location", "l", "", "location substring")
	f.StringVarP(&listSource, "source", "s", "", "exact source")
	f.BoolVar(&listFilter.RemoteOnly, "remote-only", false, "only remote postings")
	f.IntVarP(&listFilter.Limit, "limit", "n", jobs.DefaultListLimit, "max postings (up to 500)")
	f.StringVar(&listResumeID, "resume-id", "", "score and sort against this resume")

	jobsCmd.AddCommand(jobsListCmd)
	rootCmd.AddCommand(jobsCmd)
}
