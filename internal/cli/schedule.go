package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/history"
	"github.com/thebtf/worklog/internal/schedule"
	"github.com/thebtf/worklog/internal/sources"
)

func newScheduleCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Write periodic standup snapshots",
	}
	cmd.AddCommand(newScheduleRunCommand(a))
	cmd.AddCommand(newScheduleInstallCommand(a))
	cmd.AddCommand(newScheduleDaemonCommand(a))
	return cmd
}

// scheduleDeps wires the collaborators of a scheduled run. The returned
// history store, when non-nil, must be closed by the caller.
func (a *app) scheduleDeps(saveHistory bool) (schedule.Deps, *history.Store, error) {
	deps := schedule.Deps{
		Config:    a.cfg,
		Readers:   sources.ByNames(a.cfg.Sources),
		Snapshots: a.snapshots(),
		Projects:  a.registry(),
		Renderer:  a.renderer(),
	}
	if !saveHistory {
		return deps, nil, nil
	}
	store, err := a.openHistory()
	if err != nil {
		return deps, nil, err
	}
	deps.History = store
	return deps, store, nil
}

func newScheduleRunCommand(a *app) *cobra.Command {
	var (
		period      string
		webhook     string
		noSlack     bool
		saveHistory bool
		threshold   float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Write the snapshot of the previous period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := dates.ParsePeriod(period)
			if err != nil {
				return err
			}
			th, err := resolveThreshold(threshold, a.cfg.ClusterThreshold)
			if err != nil {
				return err
			}
			if webhook == "" && !noSlack {
				webhook = a.cfg.SlackWebhook
			}

			deps, store, err := a.scheduleDeps(saveHistory)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			res, err := schedule.Run(cmd.Context(), schedule.RunOptions{
				Period:      p,
				Now:         a.now(),
				Webhook:     webhook,
				Threshold:   &th,
				SaveHistory: saveHistory,
			}, deps)
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s snapshot %s (%d items) to %s\n", p, res.Key, res.Items, res.Path)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&period, "period", string(dates.Daily), "Period to write (daily, weekly, monthly, quarterly)")
	cmd.Flags().StringVar(&webhook, "slack", "", "Slack webhook URL (default from config)")
	cmd.Flags().BoolVar(&noSlack, "no-slack", false, "Do not post to Slack even when a webhook is configured")
	cmd.Flags().BoolVar(&saveHistory, "save-history", false, "Store the collected items in the history database")
	cmd.Flags().Float64Var(&threshold, "threshold", -1, "Cluster similarity threshold (0-1, default from config)")
	return cmd
}

func newScheduleInstallCommand(a *app) *cobra.Command {
	var (
		periods   []string
		command   string
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install crontab entries for scheduled runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if command == "" {
				exe, err := os.Executable()
				if err != nil {
					return fmt.Errorf("locate executable: %w", err)
				}
				command = exe
			}

			lines := make(map[dates.Period]string)
			var ordered []string
			for _, name := range periods {
				p, err := dates.ParsePeriod(name)
				if err != nil {
					return err
				}
				lines[p] = schedule.BuildCronLineAt(p, command, a.cfg.ScheduleHour)
				ordered = append(ordered, lines[p])
			}

			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ordered, "\n"))
				return nil
			}

			existing, err := readCrontab()
			if err != nil {
				return err
			}
			if err := writeCrontab(schedule.MergeCrontab(existing, lines)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d crontab entries\n", len(lines))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&periods, "period", []string{string(dates.Daily)}, "Periods to schedule (repeatable or comma-separated)")
	cmd.Flags().StringVar(&command, "command", "", "Command cron should run (default: this executable)")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the crontab lines instead of installing them")
	return cmd
}

// readCrontab returns the current user crontab, empty when none is installed.
func readCrontab() (string, error) {
	var stdout, stderr bytes.Buffer
	c := exec.Command("crontab", "-l")
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(strings.ToLower(stderr.String()), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func writeCrontab(content string) error {
	var stderr bytes.Buffer
	c := exec.Command("crontab", "-")
	c.Stdin = strings.NewReader(content)
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func newScheduleDaemonCommand(a *app) *cobra.Command {
	var (
		periods     []string
		saveHistory bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled snapshots in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var ps []dates.Period
			for _, name := range periods {
				p, err := dates.ParsePeriod(name)
				if err != nil {
					return err
				}
				ps = append(ps, p)
			}

			deps, store, err := a.scheduleDeps(saveHistory)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			log.Info().Int("hour", a.cfg.ScheduleHour).Msg("Starting schedule daemon")
			return schedule.NewDaemon(deps, schedule.DaemonOptions{
				Periods:      ps,
				SaveHistory:  saveHistory,
				SettingsPath: config.SettingsPath(),
			}).Run(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&periods, "period", []string{"daily", "weekly", "monthly", "quarterly"}, "Periods to run")
	cmd.Flags().BoolVar(&saveHistory, "save-history", false, "Store the collected items in the history database")
	return cmd
}
