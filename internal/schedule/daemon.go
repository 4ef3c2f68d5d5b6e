package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/sources"
	"github.com/thebtf/worklog/internal/watcher"
)

// DaemonOptions configures a Daemon.
type DaemonOptions struct {
	Periods []dates.Period
	// Interval between checks; defaults to one minute.
	Interval    time.Duration
	SaveHistory bool
	// SettingsPath is watched for changes; empty disables reloading.
	SettingsPath string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Daemon runs each period once its previous period has no snapshot and the
// configured hour has been reached. Failed keys are not retried until the key changes.
type Daemon struct {
	opts DaemonOptions

	mu        sync.Mutex
	deps      Deps
	attempted map[dates.Period]string
}

// NewDaemon creates a daemon. deps.Config is replaced on settings reload.
func NewDaemon(deps Deps, opts DaemonOptions) *Daemon {
	if len(opts.Periods) == 0 {
		opts.Periods = dates.Periods
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if deps.Config == nil {
		deps.Config = config.Get()
	}
	return &Daemon{
		opts:      opts,
		deps:      deps,
		attempted: make(map[dates.Period]string),
	}
}

// Run checks immediately and then on every interval until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if d.opts.SettingsPath != "" {
		w, err := watcher.New(ctx, d.opts.SettingsPath, d.reload)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create config watcher")
		} else if err := w.Start(); err != nil {
			log.Warn().Err(err).Str("path", d.opts.SettingsPath).Msg("Failed to start config watcher")
		} else {
			defer w.Stop()
			log.Info().Str("path", d.opts.SettingsPath).Msg("Config file watcher started")
		}
	}

	log.Info().Int("periods", len(d.opts.Periods)).Dur("interval", d.opts.Interval).Msg("Schedule daemon started")

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		d.Tick(ctx)
		select {
		case <-ctx.Done():
			log.Info().Msg("Schedule daemon stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs every due period once and returns the successful runs.
func (d *Daemon) Tick(ctx context.Context) []*RunResult {
	now := d.opts.Clock()

	d.mu.Lock()
	deps := d.deps
	d.mu.Unlock()

	if now.Hour() < deps.Config.ScheduleHour {
		return nil
	}

	var results []*RunResult
	for _, period := range d.opts.Periods {
		if ctx.Err() != nil {
			break
		}
		key := deps.Snapshots.Key(period, PreviousPeriodRange(period, now).Start)
		if deps.Snapshots.Exists(period, key) || d.attemptedKey(period) == key {
			continue
		}
		d.markAttempted(period, key)

		res, err := Run(ctx, RunOptions{
			Period:      period,
			Now:         now,
			Webhook:     deps.Config.SlackWebhook,
			SaveHistory: d.opts.SaveHistory,
		}, deps)
		if err != nil {
			log.Error().Err(err).Str("period", string(period)).Str("key", key).Msg("Scheduled run failed")
			continue
		}
		results = append(results, res)
	}
	return results
}

func (d *Daemon) attemptedKey(period dates.Period) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempted[period]
}

func (d *Daemon) markAttempted(period dates.Period, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempted[period] = key
}

func (d *Daemon) reload() {
	cfg, err := config.Reload()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to reload config, keeping previous settings")
		return
	}
	d.SetConfig(cfg)
	log.Info().Msg("Config reloaded")
}

// SetConfig swaps the configuration used by later ticks and rebuilds the source readers.
func (d *Daemon) SetConfig(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deps.Config = cfg
	d.deps.Readers = sources.ByNames(cfg.Sources)
}
