package sources

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/noise"
	"github.com/thebtf/worklog/pkg/models"
)

// maxTitleRunes caps the prompt excerpt used in session titles.
const maxTitleRunes = 200

// extractTextContent extracts text from message content (handles both string and array formats).
// Array parts are kept when their type is one of textTypes.
func extractTextContent(content any, textTypes ...string) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var texts []string
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			partType, _ := m["type"].(string)
			for _, want := range textTypes {
				if partType == want {
					if text, ok := m["text"].(string); ok {
						texts = append(texts, text)
					}
					break
				}
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}

// parseTimestamp accepts RFC 3339 strings and unix milliseconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case float64:
		if ts <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ts)), true
	}
	return time.Time{}, false
}

// firstLine returns the first non-empty line of text, truncated to maxTitleRunes.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > maxTitleRunes {
			return string(runes[:maxTitleRunes])
		}
		return line
	}
	return ""
}

// session accumulates one transcript file into at most one work item.
type session struct {
	rng      models.DateRange
	start    time.Time
	started  bool
	prompts  []string
	metadata map[string]any
}

func newSession(r models.DateRange, file string) *session {
	return &session{
		rng:      r,
		metadata: map[string]any{"sessionFile": filepath.Base(file)},
	}
}

// observe records that the session was active at t; the first call fixes its start.
func (s *session) observe(t time.Time) {
	if !s.started {
		s.start = t
		s.started = true
	}
}

// addPrompt records a user prompt sent at t if it is in range and not noise.
func (s *session) addPrompt(t time.Time, text string) {
	s.observe(t)
	if !s.rng.Contains(t) {
		return
	}
	cleaned := noise.Clean(text)
	if cleaned == "" || noise.IsNoise(cleaned, "") {
		return
	}
	if line := firstLine(cleaned); line != "" {
		s.prompts = append(s.prompts, line)
	}
}

// setMeta stores a non-empty metadata value.
func (s *session) setMeta(key, value string) {
	if value != "" {
		s.metadata[key] = value
	}
}

// item builds the session work item. Sessions starting outside the range or
// without prompts produce nothing.
func (s *session) item(source models.SourceType, label string) (models.WorkItem, bool) {
	if !s.started || !s.rng.Contains(s.start) || len(s.prompts) == 0 {
		return models.WorkItem{}, false
	}

	s.metadata["messageCount"] = len(s.prompts)
	item := models.WorkItem{
		Source:    source,
		Timestamp: s.start,
		Title:     fmt.Sprintf("%s session: %s", label, s.prompts[0]),
		Metadata:  s.metadata,
	}
	if len(s.prompts) > 1 {
		item.Description = fmt.Sprintf("%d interactions", len(s.prompts))
	}
	return item, true
}

// scanJSONL decodes each line of a JSONL file into a fresh map and passes it to fn.
// Malformed lines are skipped.
func scanJSONL(path string, fn func(line map[string]any)) error {
	file, err := os.Open(path) // #nosec G304 -- path comes from walking the configured transcript directory
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Increase buffer size for large messages
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		fn(entry)
	}
	return scanner.Err()
}

// transcriptFiles lists *.jsonl files under root, recursing when recursive is set.
// A missing root yields no files.
func transcriptFiles(ctx context.Context, root string, recursive bool) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// modifiedBefore reports whether a file was last written before t, so it cannot
// hold activity at or after t.
func modifiedBefore(path string, t time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().Before(t)
}

// readSessions parses every transcript under root with parse and returns the
// resulting session items, oldest first.
func readSessions(
	ctx context.Context,
	source models.SourceType,
	root string,
	recursive bool,
	r models.DateRange,
	parse func(path string, r models.DateRange) (models.WorkItem, bool, error),
) ([]models.WorkItem, error) {
	files, err := transcriptFiles(ctx, root, recursive)
	if err != nil {
		return nil, err
	}

	items := []models.WorkItem{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if modifiedBefore(path, r.Start) {
			continue
		}
		item, ok, err := parse(path, r)
		if err != nil {
			log.Debug().Err(err).Str("source", string(source)).Str("file", path).Msg("Skipping transcript")
			continue
		}
		if ok {
			items = append(items, item)
		}
	}

	models.SortByTimestamp(items)
	return items, nil
}
