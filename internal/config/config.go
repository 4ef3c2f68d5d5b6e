// Package config provides configuration management for worklog.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Setting keys. The same names are read from settings.json, the .env file
// in the data directory and the process environment, in increasing priority.
const (
	KeySources          = "WORKLOG_SOURCES"
	KeyGitRepos         = "WORKLOG_GIT_REPOS"
	KeyGitAuthor        = "WORKLOG_GIT_AUTHOR"
	KeyGitHubUser       = "WORKLOG_GITHUB_USER"
	KeyOpenCodePath     = "WORKLOG_OPENCODE_PATH"
	KeyClaudePath       = "WORKLOG_CLAUDE_PATH"
	KeyCodexPath        = "WORKLOG_CODEX_PATH"
	KeyFactoryPath      = "WORKLOG_FACTORY_PATH"
	KeyClusterThreshold = "WORKLOG_CLUSTER_THRESHOLD"
	KeyKeyTerms         = "WORKLOG_KEY_TERMS"
	KeySnapshotDir      = "WORKLOG_SNAPSHOT_DIR"
	KeyDatabaseDSN      = "WORKLOG_DATABASE_DSN"
	KeyProjectsFile     = "WORKLOG_PROJECTS_FILE"
	KeySlackWebhook     = "WORKLOG_SLACK_WEBHOOK"
	KeyScheduleHour     = "WORKLOG_SCHEDULE_HOUR"
	KeyServerAddr       = "WORKLOG_SERVER_ADDR"
)

const (
	// DefaultClusterThreshold is the similarity needed to join a cluster.
	DefaultClusterThreshold = 0.3

	// DefaultKeyTerms is the number of key terms shown in reports.
	DefaultKeyTerms = 10

	// DefaultScheduleHour is the local hour scheduled reports run at.
	DefaultScheduleHour = 9

	// DefaultServerAddr is the listen address of the report server.
	DefaultServerAddr = "127.0.0.1:37801"
)

// DefaultSources lists every source reader, in report order.
var DefaultSources = []string{"opencode", "claude", "codex", "factory", "git", "github"}

// Config holds worklog settings. Paths may start with "~"; use ExpandPath before opening them.
type Config struct {
	Sources          []string `json:"WORKLOG_SOURCES"`
	GitRepos         []string `json:"WORKLOG_GIT_REPOS"`
	GitAuthor        string   `json:"WORKLOG_GIT_AUTHOR"`
	GitHubUser       string   `json:"WORKLOG_GITHUB_USER"`
	OpenCodePath     string   `json:"WORKLOG_OPENCODE_PATH"`
	ClaudePath       string   `json:"WORKLOG_CLAUDE_PATH"`
	CodexPath        string   `json:"WORKLOG_CODEX_PATH"`
	FactoryPath      string   `json:"WORKLOG_FACTORY_PATH"`
	ClusterThreshold float64  `json:"WORKLOG_CLUSTER_THRESHOLD"`
	KeyTerms         int      `json:"WORKLOG_KEY_TERMS"`
	SnapshotDir      string   `json:"WORKLOG_SNAPSHOT_DIR"`
	DatabaseDSN      string   `json:"WORKLOG_DATABASE_DSN"`
	ProjectsFile     string   `json:"WORKLOG_PROJECTS_FILE"`
	SlackWebhook     string   `json:"WORKLOG_SLACK_WEBHOOK"`
	ScheduleHour     int      `json:"WORKLOG_SCHEDULE_HOUR"`
	ServerAddr       string   `json:"WORKLOG_SERVER_ADDR"`
}

var (
	globalMu sync.RWMutex
	global   *Config
)

// DataDir returns the worklog data directory (~/.worklog).
func DataDir() string {
	return ExpandPath("~/.worklog")
}

// SettingsPath returns the path to settings.json.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnvPath returns the path to the optional .env file.
func EnvPath() string {
	return filepath.Join(DataDir(), ".env")
}

// DBPath returns the default sqlite history database path.
func DBPath() string {
	return filepath.Join(DataDir(), "worklog.db")
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings.json if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat settings: %w", err)
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode default settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Default returns the default configuration.
func Default() *Config {
	sources := make([]string, len(DefaultSources))
	copy(sources, DefaultSources)

	return &Config{
		Sources:          sources,
		GitRepos:         []string{},
		OpenCodePath:     "~/.local/share/opencode/storage/session",
		ClaudePath:       "~/.claude/projects",
		CodexPath:        "~/.codex/sessions",
		FactoryPath:      "~/.factory/sessions",
		ClusterThreshold: DefaultClusterThreshold,
		KeyTerms:         DefaultKeyTerms,
		SnapshotDir:      "~/.local/share/worklog",
		ProjectsFile:     "~/.worklog/projects.yml",
		ScheduleHour:     DefaultScheduleHour,
		ServerAddr:       DefaultServerAddr,
	}
}

// Load reads settings.json, then the .env file, then the environment.
// A missing or malformed settings file yields defaults.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(SettingsPath()); err == nil {
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Warn().Err(err).Str("path", SettingsPath()).Msg("Ignoring malformed settings file")
		} else {
			for key, value := range raw {
				cfg.apply(key, settingString(value))
			}
		}
	}

	dotenv, err := godotenv.Read(EnvPath())
	if err != nil {
		dotenv = map[string]string{}
	}
	for _, key := range Keys() {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			cfg.apply(key, v)
		} else if v, ok := dotenv[key]; ok && v != "" {
			cfg.apply(key, v)
		}
	}

	return cfg, nil
}

// Get returns the cached configuration, loading it on first use.
func Get() *Config {
	globalMu.RLock()
	cfg := global
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		loaded, err := Load()
		if err != nil {
			loaded = Default()
		}
		global = loaded
	}
	return global
}

// Reload re-reads the configuration and replaces the cached copy.
func Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	globalMu.Lock()
	global = cfg
	globalMu.Unlock()
	return cfg, nil
}

// Keys lists every recognised setting key in sorted order.
func Keys() []string {
	keys := []string{
		KeySources, KeyGitRepos, KeyGitAuthor, KeyGitHubUser,
		KeyOpenCodePath, KeyClaudePath, KeyCodexPath, KeyFactoryPath,
		KeyClusterThreshold, KeyKeyTerms, KeySnapshotDir, KeyDatabaseDSN,
		KeyProjectsFile, KeySlackWebhook, KeyScheduleHour, KeyServerAddr,
	}
	sort.Strings(keys)
	return keys
}

// SourcePath returns the expanded transcript directory for an agent source.
func (c *Config) SourcePath(source string) string {
	switch source {
	case "opencode":
		return ExpandPath(c.OpenCodePath)
	case "claude":
		return ExpandPath(c.ClaudePath)
	case "codex":
		return ExpandPath(c.CodexPath)
	case "factory":
		return ExpandPath(c.FactoryPath)
	}
	return ""
}

// SnapshotRoot returns the expanded snapshot directory.
func (c *Config) SnapshotRoot() string {
	return ExpandPath(c.SnapshotDir)
}

// ProjectsPath returns the expanded projects registry path.
func (c *Config) ProjectsPath() string {
	return ExpandPath(c.ProjectsFile)
}

// apply sets one key from its string form. Unknown keys and unparseable
// numbers leave the current value unchanged.
func (c *Config) apply(key, value string) {
	switch key {
	case KeySources:
		c.Sources = splitTrim(value)
	case KeyGitRepos:
		c.GitRepos = splitTrim(value)
	case KeyGitAuthor:
		c.GitAuthor = value
	case KeyGitHubUser:
		c.GitHubUser = value
	case KeyOpenCodePath:
		c.OpenCodePath = value
	case KeyClaudePath:
		c.ClaudePath = value
	case KeyCodexPath:
		c.CodexPath = value
	case KeyFactoryPath:
		c.FactoryPath = value
	case KeyClusterThreshold:
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 && v <= 1 {
			c.ClusterThreshold = v
		}
	case KeyKeyTerms:
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			c.KeyTerms = v
		}
	case KeySnapshotDir:
		c.SnapshotDir = value
	case KeyDatabaseDSN:
		c.DatabaseDSN = value
	case KeyProjectsFile:
		c.ProjectsFile = value
	case KeySlackWebhook:
		c.SlackWebhook = value
	case KeyScheduleHour:
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v < 24 {
			c.ScheduleHour = v
		}
	case KeyServerAddr:
		c.ServerAddr = value
	}
}

// settingString flattens a JSON value to the string form used by the environment.
func settingString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, settingString(p))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

// splitTrim splits a comma-separated string and drops empty values.
func splitTrim(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			result = append(result, p)
		}
	}
	return result
}
