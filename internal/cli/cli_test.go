package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/snapshot"
)

type CLISuite struct {
	suite.Suite
	home        string
	snapshotDir string
	now         time.Time
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	color.NoColor = true
	s.home = s.T().TempDir()
	s.snapshotDir = filepath.Join(s.home, "snapshots")
	s.now = time.Date(2025, 1, 10, 12, 0, 0, 0, time.Local)

	s.T().Setenv("HOME", s.home)
	for _, key := range config.Keys() {
		s.T().Setenv(key, "")
	}
	s.T().Setenv(config.KeySources, "git")
	s.T().Setenv(config.KeySnapshotDir, s.snapshotDir)
}

func (s *CLISuite) run(args ...string) (string, error) {
	a := &app{version: "test", now: func() time.Time { return s.now }, stderr: &bytes.Buffer{}}
	cmd := newRootCommand(a)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func (s *CLISuite) TestConfigPath() {
	out, err := s.run("config", "path")
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.home, ".worklog", "settings.json"), strings.TrimSpace(out))
}

func (s *CLISuite) TestConfigInitAndShow() {
	_, err := s.run("config", "init")
	s.Require().NoError(err)
	s.FileExists(filepath.Join(s.home, ".worklog", "settings.json"))

	out, err := s.run("config", "show")
	s.Require().NoError(err)

	var shown map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &shown))
	s.Equal(0.3, shown[config.KeyClusterThreshold])
	s.Equal(s.snapshotDir, shown[config.KeySnapshotDir])
}

func (s *CLISuite) TestReportJSONEmptyDay() {
	out, err := s.run("-d", "2025-01-09", "-j")
	s.Require().NoError(err)

	var report struct {
		ItemCount    int `json:"itemCount"`
		SmartSummary struct {
			Narrative string `json:"narrative"`
		} `json:"smartSummary"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal(0, report.ItemCount)
	s.Equal("No work items found for this period.", report.SmartSummary.Narrative)
}

func (s *CLISuite) TestReportMarkdownDefault() {
	out, err := s.run("--yesterday", "--no-smart")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(out, "# "), out)
}

func (s *CLISuite) TestReportRejectsBadThreshold() {
	_, err := s.run("--threshold", "2")
	s.Error(err)
}

func (s *CLISuite) TestReportRejectsBadDate() {
	_, err := s.run("-d", "someday")
	s.Error(err)
}

func (s *CLISuite) TestScheduleInstallPrint() {
	out, err := s.run("schedule", "install", "--print", "--period", "daily,weekly", "--command", "worklog")
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	s.Require().Len(lines, 2)
	s.True(strings.HasPrefix(lines[0], "0 9 * * * worklog schedule run --period daily"))
	s.True(strings.HasPrefix(lines[1], "0 9 * * 1 worklog schedule run --period weekly"))
}

func (s *CLISuite) TestScheduleRunWritesSnapshot() {
	out, err := s.run("schedule", "run", "--period", "daily", "--no-slack")
	s.Require().NoError(err)
	s.Contains(out, "Wrote daily snapshot 2025-01-09")
	s.True(snapshot.NewStore(s.snapshotDir).Exists(dates.Daily, "2025-01-09"))
}

func (s *CLISuite) TestScheduleRunBadPeriod() {
	_, err := s.run("schedule", "run", "--period", "hourly")
	s.Error(err)
}

func (s *CLISuite) TestBackfillDryRun() {
	out, err := s.run("backfill", "--dry-run", "--daily", "--since", "2025-01-01", "--until", "2025-01-03")
	s.Require().NoError(err)
	s.Contains(out, "Planned 3, written 0, skipped 3, errors 0")
	s.NoDirExists(filepath.Join(s.snapshotDir, "daily"))
}

func (s *CLISuite) TestBackfillJSON() {
	out, err := s.run("backfill", "--daily", "--since", "2025-01-01", "--until", "2025-01-02", "--json")
	s.Require().NoError(err)

	var res struct {
		Planned int `json:"planned"`
		Written int `json:"written"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &res))
	s.Equal(2, res.Planned)
	s.Equal(2, res.Written)
}

func (s *CLISuite) TestHistoryEmptyThenSaved() {
	out, err := s.run("history")
	s.Require().NoError(err)
	s.Contains(out, "No history saved yet")

	_, err = s.run("-d", "2025-01-09", "--save-history", "-j")
	s.Require().NoError(err)

	out, err = s.run("history")
	s.Require().NoError(err)
	s.Contains(out, "Saved reports (1)")

	out, err = s.run("history", "analyze", "--json")
	s.Require().NoError(err)
	s.Contains(out, `"narrative"`)
}

func TestPrintError(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}

func TestResolveThreshold(t *testing.T) {
	v, err := resolveThreshold(-1, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)

	v, err = resolveThreshold(0.5, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = resolveThreshold(1.5, 0.3)
	assert.Error(t, err)
}
