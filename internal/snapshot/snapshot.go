// Package snapshot stores finished period reports as versioned JSON files.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/pkg/models"
)

// SchemaVersion is the only snapshot layout this package reads and writes.
const SchemaVersion = 1

// ErrNotFound is returned when a snapshot file does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Item is a stored work item.
type Item struct {
	Source      models.SourceType `json:"source"`
	Timestamp   time.Time         `json:"timestamp"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// Snapshot is the on-disk layout.
type Snapshot struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Period        dates.Period        `json:"period"`
	DateRange     models.DateRange    `json:"dateRange"`
	GeneratedAt   time.Time           `json:"generatedAt"`
	Sources       []models.SourceType `json:"sources"`
	Items         []Item              `json:"items"`
}

// Store reads and writes snapshots under a root directory, one subdirectory per period.
type Store struct {
	root string
	loc  *time.Location
}

// NewStore creates a Store rooted at root using local time for keys.
func NewStore(root string) *Store {
	return &Store{root: root, loc: time.Local}
}

// WithLocation returns a copy of the store that computes keys in loc.
func (s *Store) WithLocation(loc *time.Location) *Store {
	return &Store{root: s.root, loc: loc}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Key names the period that starts at anchor.
func (s *Store) Key(period dates.Period, anchor time.Time) string {
	anchor = anchor.In(s.loc)
	switch period {
	case dates.Monthly:
		return anchor.Format("2006-01")
	case dates.Quarterly:
		return fmt.Sprintf("%d-Q%d", anchor.Year(), dates.Quarter(anchor))
	}
	return anchor.Format("2006-01-02")
}

// Filename returns the file name for a key.
func Filename(period dates.Period, key string) string {
	switch period {
	case dates.Weekly:
		return "standup-week-" + key + ".json"
	case dates.Monthly:
		return "standup-month-" + key + ".json"
	case dates.Quarterly:
		return "standup-quarter-" + key + ".json"
	}
	return "standup-" + key + ".json"
}

var filenamePatterns = map[dates.Period]*regexp.Regexp{
	dates.Daily:     regexp.MustCompile(`^standup-(\d{4}-\d{2}-\d{2})\.json$`),
	dates.Weekly:    regexp.MustCompile(`^standup-week-(\d{4}-\d{2}-\d{2})\.json$`),
	dates.Monthly:   regexp.MustCompile(`^standup-month-(\d{4}-\d{2})\.json$`),
	dates.Quarterly: regexp.MustCompile(`^standup-quarter-(\d{4}-Q[1-4])\.json$`),
}

// Dir returns the directory holding snapshots of one period.
func (s *Store) Dir(period dates.Period) string {
	return filepath.Join(s.root, string(period))
}

// Path returns the file path of one snapshot.
func (s *Store) Path(period dates.Period, key string) string {
	return filepath.Join(s.Dir(period), Filename(period, key))
}

// Exists reports whether a snapshot has been written.
func (s *Store) Exists(period dates.Period, key string) bool {
	_, err := os.Stat(s.Path(period, key))
	return err == nil
}

// Write stores summary as the snapshot of the period starting at its range start.
// The file is written to a temporary name and renamed into place.
func (s *Store) Write(period dates.Period, summary models.WorkSummary) (key, path string, err error) {
	key = s.Key(period, summary.DateRange.Start)
	dir := s.Dir(period)
	path = s.Path(period, key)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(fromSummary(period, summary), "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+Filename(period, key)+"-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", "", fmt.Errorf("rename snapshot: %w", err)
	}
	return key, path, nil
}

// Load reads one snapshot back into a summary.
func (s *Store) Load(period dates.Period, key string) (models.WorkSummary, error) {
	path := s.Path(period, key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.WorkSummary{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return models.WorkSummary{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.WorkSummary{}, fmt.Errorf("invalid snapshot JSON %s: %w", path, err)
	}
	if snap.SchemaVersion != SchemaVersion {
		return models.WorkSummary{}, fmt.Errorf("unsupported snapshot schemaVersion: %d", snap.SchemaVersion)
	}
	return toSummary(snap), nil
}

// ListKeys returns the keys of stored snapshots, newest first.
func (s *Store) ListKeys(period dates.Period) ([]string, error) {
	pattern, ok := filenamePatterns[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	entries, err := os.ReadDir(s.Dir(period))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		if m := pattern.FindStringSubmatch(entry.Name()); m != nil {
			keys = append(keys, m[1])
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// AggregateDaily merges the daily snapshots from start's day through end's day.
// Missing days are skipped.
func (s *Store) AggregateDaily(start, end time.Time) (models.WorkSummary, error) {
	startDay := dates.StartOfDay(start.In(s.loc))
	endDay := dates.EndOfDay(end.In(s.loc))
	if startDay.After(endDay) {
		return models.WorkSummary{}, errors.New("start date must be <= end date")
	}

	var items []models.WorkItem
	for cursor := startDay; !cursor.After(endDay); cursor = cursor.AddDate(0, 0, 1) {
		key := s.Key(dates.Daily, cursor)
		if !s.Exists(dates.Daily, key) {
			continue
		}
		summary, err := s.Load(dates.Daily, key)
		if err != nil {
			return models.WorkSummary{}, err
		}
		items = append(items, summary.Items...)
	}

	return models.NewWorkSummary(models.DateRange{Start: startDay, End: endDay}, items, time.Now()), nil
}

var quarterKey = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)

// DateRange returns the range a key covers.
func (s *Store) DateRange(period dates.Period, key string) (models.DateRange, error) {
	switch period {
	case dates.Daily, dates.Weekly:
		day, err := time.ParseInLocation("2006-01-02", key, s.loc)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid %s key %q: %w", period, key, err)
		}
		if period == dates.Weekly {
			return models.DateRange{Start: day, End: dates.EndOfDay(day.AddDate(0, 0, 6))}, nil
		}
		return dates.RangeFor(dates.Daily, day), nil

	case dates.Monthly:
		month, err := time.ParseInLocation("2006-01", key, s.loc)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid monthly key %q: %w", key, err)
		}
		return dates.RangeFor(dates.Monthly, month), nil

	case dates.Quarterly:
		m := quarterKey.FindStringSubmatch(key)
		if m == nil {
			return models.DateRange{}, fmt.Errorf("invalid quarterly key: %s", key)
		}
		year, _ := strconv.Atoi(m[1])
		quarter, _ := strconv.Atoi(m[2])
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, s.loc)
		return dates.RangeFor(dates.Quarterly, start), nil
	}
	return models.DateRange{}, fmt.Errorf("unknown period %q", period)
}

func fromSummary(period dates.Period, summary models.WorkSummary) Snapshot {
	sources := summary.Sources
	if sources == nil {
		sources = []models.SourceType{}
	}
	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		Period:        period,
		DateRange:     models.DateRange{Start: summary.DateRange.Start.UTC(), End: summary.DateRange.End.UTC()},
		GeneratedAt:   summary.GeneratedAt.UTC(),
		Sources:       sources,
		Items:         make([]Item, 0, len(summary.Items)),
	}
	for _, item := range summary.Items {
		snap.Items = append(snap.Items, Item{
			Source:      item.Source,
			Timestamp:   item.Timestamp.UTC(),
			Title:       item.Title,
			Description: item.Description,
			Metadata:    item.Metadata,
		})
	}
	return snap
}

func toSummary(snap Snapshot) models.WorkSummary {
	items := make([]models.WorkItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, models.WorkItem{
			Source:      item.Source,
			Timestamp:   item.Timestamp,
			Title:       item.Title,
			Description: item.Description,
			Metadata:    item.Metadata,
		})
	}
	sources := snap.Sources
	if sources == nil {
		sources = []models.SourceType{}
	}
	return models.WorkSummary{
		DateRange:   snap.DateRange,
		GeneratedAt: snap.GeneratedAt,
		Items:       items,
		Sources:     sources,
	}
}
