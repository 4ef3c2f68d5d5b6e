package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/worklog/internal/analyzer"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/format"
	"github.com/thebtf/worklog/internal/sources"
	"github.com/thebtf/worklog/pkg/models"
)

type reportOptions struct {
	rng dates.RangeOptions

	json  bool
	plain bool
	slack bool

	sources     string
	repos       string
	threshold   float64
	noSmart     bool
	saveHistory bool
}

func addReportFlags(cmd *cobra.Command, a *app) {
	opts := &reportOptions{}
	f := cmd.Flags()
	f.StringVarP(&opts.rng.Date, "date", "d", "", "Specific date (YYYY-MM-DD or weekday name)")
	f.BoolVarP(&opts.rng.Yesterday, "yesterday", "y", false, "Use yesterday's date")
	f.BoolVarP(&opts.rng.Week, "week", "w", false, "Include the entire current week")
	f.BoolVarP(&opts.rng.Month, "month", "m", false, "Include the entire current month")
	f.BoolVarP(&opts.rng.Quarter, "quarter", "q", false, "Include the entire current quarter")
	f.BoolVar(&opts.rng.Last, "last", false, "Use the previous week, month or quarter")
	f.BoolVarP(&opts.json, "json", "j", false, "Output as JSON")
	f.BoolVarP(&opts.plain, "plain", "p", false, "Output as plain text")
	f.BoolVarP(&opts.slack, "slack", "s", false, "Output in Slack format")
	f.StringVar(&opts.sources, "sources", "", "Comma-separated list of sources ("+strings.Join(sourceNames(), ",")+")")
	f.StringVar(&opts.repos, "repos", "", "Comma-separated list of git repo paths")
	f.Float64Var(&opts.threshold, "threshold", -1, "Cluster similarity threshold (0-1, default from config)")
	f.BoolVar(&opts.noSmart, "no-smart", false, "Skip theme clustering")
	f.BoolVar(&opts.saveHistory, "save-history", false, "Store the collected items in the history database")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return a.runReport(cmd, opts)
	}
}

func sourceNames() []string {
	names := make([]string, len(models.AllSources))
	for i, s := range models.AllSources {
		names[i] = string(s)
	}
	return names
}

func (o *reportOptions) format() format.Format {
	switch {
	case o.json:
		return format.JSON
	case o.plain:
		return format.Plain
	case o.slack:
		return format.Slack
	}
	return format.Markdown
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveThreshold returns the flag value when set, otherwise the configured one.
func resolveThreshold(flag, configured float64) (float64, error) {
	if flag < 0 {
		return configured, nil
	}
	if flag > 1 {
		return 0, fmt.Errorf("threshold must be between 0 and 1, got %g", flag)
	}
	return flag, nil
}

func (a *app) runReport(cmd *cobra.Command, opts *reportOptions) error {
	cfg := *a.cfg
	if opts.repos != "" {
		cfg.GitRepos = splitList(opts.repos)
	}
	names := cfg.Sources
	if opts.sources != "" {
		names = splitList(opts.sources)
	}

	threshold, err := resolveThreshold(opts.threshold, cfg.ClusterThreshold)
	if err != nil {
		return err
	}

	rng, err := dates.ParseRange(opts.rng, a.now())
	if err != nil {
		return err
	}

	readers := sources.ByNames(names)
	log.Debug().Str("range", dates.FormatRange(rng)).Int("sources", len(readers)).Msg("Collecting work items")

	items := sources.Collect(cmd.Context(), readers, rng, &cfg)
	summary := models.NewWorkSummary(rng, items, a.now())
	log.Debug().Int("items", len(summary.Items)).Msg("Collected work items")

	if !opts.noSmart {
		smart := analyzer.BuildSmartSummary(summary.Items, threshold)
		summary.Smart = &smart
	}

	if opts.saveHistory {
		store, err := a.openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		entry, err := store.Save(cmd.Context(), rng, summary.Items, a.registry())
		if err != nil {
			return err
		}
		log.Info().Str("id", entry.ID).Msg("Saved to history")
	}

	out, err := a.renderer().Render(summary, opts.format())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
	return nil
}
