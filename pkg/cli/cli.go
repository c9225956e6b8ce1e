// Package cli implements the mailmetrics command-line client.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mailmetrics/internal/domain"
	"mailmetrics/internal/report"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var addr, token string

	root := &cobra.Command{
		Use:           "mailmetrics",
		Short:         "Client for the email-campaign reporting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "reporting server base URL")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token (omit when the server is unauthenticated)")

	client := func() *Client { return NewClient(addr, token) }

	root.AddCommand(
		newSummaryCmd(client),
		newRowsCmd(client),
		newRefreshCmd(client),
		newJobsCmd(client),
	)
	return root
}

func newSummaryCmd(client func() *Client) *cobra.Command {
	var campaign string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show KPI totals and open/click rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if cmd.Flags().Changed("campaign") {
				query.Set("campaign", campaign)
			}

			var summary report.Summary
			if err := client().get(cmd.Context(), "/v1/report/summary", query, &summary); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, t := range domain.EventTypes {
				fmt.Fprintf(w, "%s\t%d\n", t, summary.Totals[t])
			}
			fmt.Fprintf(w, "Open rate\t%.2f%%\n", summary.OpenRate)
			fmt.Fprintf(w, "Click rate\t%.2f%%\n", summary.ClickRate)
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&campaign, "campaign", "", "restrict to one campaign (empty selects all)")
	return cmd
}

func newRowsCmd(client func() *Client) *cobra.Command {
	var campaign string

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Show the raw per-day, per-campaign event counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if cmd.Flags().Changed("campaign") {
				query.Set("campaign", campaign)
			}

			var resp struct {
				Rows        []domain.EventRecord `json:"rows"`
				SourceJobID string               `json:"sourceJobId"`
				FetchedAt   time.Time            `json:"fetchedAt"`
			}
			if err := client().get(cmd.Context(), "/v1/report", query, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tCAMPAIGN\tEVENT\tCOUNT")
			for _, r := range resp.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Day.Format("2006-01-02"), r.CampaignID, r.EventType, r.Count)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d rows (job %s, fetched %s)\n", len(resp.Rows), resp.SourceJobID, resp.FetchedAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&campaign, "campaign", "", "restrict to one campaign (empty selects all)")
	return cmd
}

func newRefreshCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Invalidate the cache and load fresh data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				SourceJobID string    `json:"sourceJobId"`
				FetchedAt   time.Time `json:"fetchedAt"`
				RowCount    int       `json:"rowCount"`
			}
			if err := client().post(cmd.Context(), "/v1/report/refresh", &resp); err != nil {
				return err
			}
			fmt.Printf("refreshed: %d rows (job %s, fetched %s)\n", resp.RowCount, resp.SourceJobID, resp.FetchedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newJobsCmd(client func() *Client) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show recent remote query attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", fmt.Sprint(limit))
			}

			var entries []domain.JobHistoryEntry
			if err := client().get(cmd.Context(), "/v1/jobs", query, &entries); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tSTATE\tROWS\tDURATION\tSUBMITTED")
			for _, e := range entries {
				rows := "-"
				if e.RowCount != nil {
					rows = fmt.Sprint(*e.RowCount)
				}
				duration := "-"
				if e.DurationMs != nil {
					duration = fmt.Sprintf("%dms", *e.DurationMs)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.JobID, e.State, rows, duration, e.SubmittedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}
