package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/thebtf/worklog/internal/analyzer"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/pkg/models"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history saved yet. Use --save-history when generating a report.")
				return nil
			}

			fmt.Fprintf(out, "Saved reports (%d):\n\n", len(entries))
			for _, e := range entries {
				items := e.Items()
				fmt.Fprintf(out, "  %s  %-40s  %3d items  %s\n",
					time.UnixMilli(e.CreatedAtEpoch).Format("2006-01-02 15:04"),
					dates.FormatRange(e.DateRange()),
					len(items),
					strings.Join(e.SourceList(), ","))
				for _, p := range e.Projects {
					fmt.Fprintf(out, "    %s (%d)\n", p.Name, len(p.Items))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of reports to show (0 for all)")

	cmd.AddCommand(newHistoryAnalyzeCommand(a))
	return cmd
}

func newHistoryAnalyzeCommand(a *app) *cobra.Command {
	var (
		threshold float64
		since     string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Cluster every saved work item into themes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			th, err := resolveThreshold(threshold, a.cfg.ClusterThreshold)
			if err != nil {
				return err
			}

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var items []models.WorkItem
			if since != "" {
				start, err := dates.ParseDateInput(since, a.now())
				if err != nil {
					return err
				}
				items, err = store.ItemsInRange(cmd.Context(), models.DateRange{Start: dates.StartOfDay(start), End: a.now()})
				if err != nil {
					return err
				}
			} else if items, err = store.AllItems(cmd.Context()); err != nil {
				return err
			}

			smart := analyzer.BuildSmartSummary(items, th)
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(smart, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintln(out, smart.Narrative)
			for _, c := range smart.Clusters {
				fmt.Fprintf(out, "\n%s (%d items, coherence %.2f)\n", c.Theme, c.Size(), c.CoherenceScore)
				for _, item := range c.Items {
					fmt.Fprintf(out, "  - %s\n", item.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", -1, "Cluster similarity threshold (0-1, default from config)")
	cmd.Flags().StringVar(&since, "since", "", "Only analyze items from this day on (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}
