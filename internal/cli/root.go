// Package cli implements the worklog command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/format"
	"github.com/thebtf/worklog/internal/history"
	"github.com/thebtf/worklog/internal/projects"
	"github.com/thebtf/worklog/internal/snapshot"
)

// app holds state shared by every command.
type app struct {
	version string
	verbose bool
	cfg     *config.Config
	now     func() time.Time
	stderr  io.Writer
}

// NewRootCommand builds the worklog command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{version: version, now: time.Now, stderr: os.Stderr})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "worklog",
		Short: "Stand-up summaries from AI coding sessions, git commits and GitHub activity",
		Long: `worklog collects what you worked on from coding agent transcripts, git
history and GitHub events, groups it into themes and prints a report.

Without a subcommand it reports on today.`,
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stderr = cmd.ErrOrStderr()
			a.setupLogging()
			return a.loadConfig()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Show verbose output")

	addReportFlags(root, a)

	root.AddCommand(newScheduleCommand(a))
	root.AddCommand(newBackfillCommand(a))
	root.AddCommand(newHistoryCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newConfigCommand(a))

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error:")
	fmt.Fprintln(w, "", err)
}

// setupLogging sends zerolog output to stderr; stdout carries the report.
func (a *app) setupLogging() {
	level := zerolog.InfoLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: a.stderr, NoColor: true, TimeFormat: time.Kitchen})
}

func (a *app) loadConfig() error {
	cfg, err := config.Reload()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	a.cfg = cfg
	return nil
}

func (a *app) snapshots() *snapshot.Store {
	return snapshot.NewStore(a.cfg.SnapshotRoot())
}

func (a *app) renderer() format.Renderer {
	return format.Renderer{Location: time.Local, KeyTerms: a.cfg.KeyTerms}
}

func (a *app) registry() *projects.Registry {
	reg, err := projects.Load(a.cfg.ProjectsPath())
	if err != nil {
		log.Warn().Err(err).Str("path", a.cfg.ProjectsPath()).Msg("Ignoring unreadable projects file")
		return projects.NewRegistry(nil)
	}
	return reg
}

// openHistory opens the configured database, defaulting to sqlite in the data dir.
func (a *app) openHistory() (*history.Store, error) {
	dsn := a.cfg.DatabaseDSN
	if dsn == "" {
		if err := config.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = config.DBPath()
	}
	store, err := history.NewStore(history.Config{DSN: dsn, LogLevel: logger.Silent})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}
