package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/schedule"
)

func newBackfillCommand(a *app) *cobra.Command {
	var (
		plan        schedule.BackfillOptions
		execOpts    schedule.ExecuteOptions
		since       string
		until       string
		asJSON      bool
		noSlack     bool
		saveHistory bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Write snapshots for past periods",
		Long: `Plan and write snapshots for periods that were missed.

With --since/--until every day in the range is written, and weeks, months and
quarters that end inside it. Otherwise the last --weeks weeks of days and weeks,
the last --months months and the previous quarter are planned.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := a.now()
			plan.Now = now

			var err error
			if since != "" {
				if plan.Since, err = dates.ParseDateInput(since, now); err != nil {
					return err
				}
			}
			if until != "" {
				if plan.Until, err = dates.ParseDateInput(until, now); err != nil {
					return err
				}
			}
			if !plan.Daily && !plan.Weekly && !plan.Monthly && !plan.Quarterly {
				plan.Daily, plan.Weekly, plan.Monthly = true, true, true
			}

			if execOpts.Webhook == "" && !noSlack && !execOpts.DryRun {
				execOpts.Webhook = a.cfg.SlackWebhook
			}
			execOpts.SaveHistory = saveHistory

			deps, store, err := a.scheduleDeps(saveHistory && !execOpts.DryRun)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			items := schedule.BuildBackfillPlan(deps.Snapshots, plan)
			res, err := schedule.ExecuteBackfillPlan(cmd.Context(), items, execOpts, deps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				for _, r := range res.Results {
					line := fmt.Sprintf("%-8s %-10s %s", r.Status, r.Period, r.Path)
					if r.Error != "" {
						line += "  (" + r.Error + ")"
					}
					fmt.Fprintln(out, line)
				}
				fmt.Fprintf(out, "\nPlanned %d, written %d, skipped %d, errors %d\n",
					res.Planned, res.Written, res.Skipped, res.Errors)
			}

			if res.Errors > 0 {
				return fmt.Errorf("%d backfill runs failed", res.Errors)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&plan.Weeks, "weeks", 4, "Weeks to backfill")
	f.IntVar(&plan.Months, "months", 1, "Months to backfill")
	f.BoolVar(&plan.Daily, "daily", false, "Backfill daily snapshots")
	f.BoolVar(&plan.Weekly, "weekly", false, "Backfill weekly snapshots")
	f.BoolVar(&plan.Monthly, "monthly", false, "Backfill monthly snapshots")
	f.BoolVar(&plan.Quarterly, "quarterly", false, "Backfill quarterly snapshots")
	f.StringVar(&since, "since", "", "First day to backfill (YYYY-MM-DD)")
	f.StringVar(&until, "until", "", "Last day to backfill (YYYY-MM-DD, default yesterday)")
	f.BoolVar(&execOpts.SkipExisting, "skip-existing", true, "Skip periods that already have a snapshot")
	f.BoolVar(&execOpts.Overwrite, "overwrite", false, "Rewrite existing snapshots")
	f.BoolVar(&execOpts.DryRun, "dry-run", false, "Only print the plan")
	f.StringVar(&execOpts.Webhook, "slack", "", "Slack webhook URL (default from config)")
	f.BoolVar(&noSlack, "no-slack", false, "Do not post to Slack")
	f.BoolVar(&saveHistory, "save-history", false, "Store the collected items in the history database")
	f.BoolVarP(&asJSON, "json", "j", false, "Output the result as JSON")
	return cmd
}
