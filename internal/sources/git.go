package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/pkg/models"
)

const (
	gitFieldSep  = "\x1f"
	gitRecordSep = "\x1e"
)

// GitReader reads commits from the configured local repositories.
type GitReader struct {
	run CommandRunner
}

// NewGitReader creates a GitReader. A nil runner uses ExecRunner.
func NewGitReader(run CommandRunner) *GitReader {
	if run == nil {
		run = ExecRunner
	}
	return &GitReader{run: run}
}

func (*GitReader) Name() models.SourceType { return models.SourceGit }

// Read runs git log in every configured repository. A repository that fails
// is logged and skipped.
func (g *GitReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	items := []models.WorkItem{}
	for _, repo := range cfg.GitRepos {
		repoPath := config.ExpandPath(repo)
		repoItems, err := g.readRepo(ctx, repoPath, r, cfg.GitAuthor)
		if err != nil {
			log.Warn().Err(err).Str("repo", repoPath).Msg("Skipping git repository")
			continue
		}
		items = append(items, repoItems...)
	}
	models.SortByTimestamp(items)
	return items, nil
}

func (g *GitReader) readRepo(ctx context.Context, repoPath string, r models.DateRange, author string) ([]models.WorkItem, error) {
	args := []string{
		"-C", repoPath, "log",
		"--no-merges",
		"--since=" + r.Start.Format(time.RFC3339),
		"--until=" + r.End.Format(time.RFC3339),
		"--pretty=format:%H" + gitFieldSep + "%aI" + gitFieldSep + "%s" + gitFieldSep + "%b" + gitRecordSep,
	}
	if author != "" {
		args = append(args, "--author="+author)
	}

	out, err := g.run(ctx, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return parseGitLog(string(out), repoPath, r), nil
}

// parseGitLog converts formatted git log output into work items.
func parseGitLog(out, repoPath string, r models.DateRange) []models.WorkItem {
	repo := filepath.Base(repoPath)
	items := []models.WorkItem{}

	for _, record := range strings.Split(out, gitRecordSep) {
		record = strings.TrimLeft(record, "\r\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, gitFieldSep, 4)
		if len(fields) < 3 {
			continue
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[1]))
		if err != nil || !r.Contains(ts) {
			continue
		}

		hash := strings.TrimSpace(fields[0])
		item := models.WorkItem{
			Source:    models.SourceGit,
			Timestamp: ts,
			Title:     fmt.Sprintf("[%s] %s", repo, strings.TrimSpace(fields[2])),
			Metadata: map[string]any{
				"repo":     repo,
				"repoPath": repoPath,
				"hash":     hash,
			},
		}
		if len(fields) == 4 {
			item.Description = firstLine(fields[3])
		}
		items = append(items, item)
	}
	return items
}
