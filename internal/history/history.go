package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/thebtf/worklog/internal/noise"
	"github.com/thebtf/worklog/internal/projects"
	"github.com/thebtf/worklog/pkg/models"
)

// Save stores the items of one report grouped by project. Noise items are dropped.
func (s *Store) Save(ctx context.Context, r models.DateRange, items []models.WorkItem, registry *projects.Registry) (*Entry, error) {
	if registry == nil {
		registry = projects.NewRegistry(nil)
	}

	kept := noise.Filter(items)
	entry := &Entry{
		ID:              uuid.NewString(),
		RangeStartEpoch: r.Start.UnixMilli(),
		RangeEndEpoch:   r.End.UnixMilli(),
		Sources:         joinSources(models.ActiveSources(kept)),
	}

	for _, group := range registry.GroupItems(kept) {
		project := Project{Name: group.Name, Path: group.Path}
		for _, item := range group.Items {
			project.Items = append(project.Items, Item{
				Project:        group.Name,
				Source:         string(item.Source),
				TimestampEpoch: item.Timestamp.UnixMilli(),
				Title:          item.Title,
				Description:    item.Description,
				Metadata:       JSONMap(item.Metadata),
			})
		}
		entry.Projects = append(entry.Projects, project)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save history entry: %w", err)
	}

	log.Debug().
		Str("id", entry.ID).
		Int("projects", len(entry.Projects)).
		Int("items", len(kept)).
		Msg("Saved history entry")
	return entry, nil
}

// List returns saved entries newest first with their projects and items.
// A limit of zero or less returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := s.DB.WithContext(ctx).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Projects.Items", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp_epoch ASC, id ASC") }).
		Order("created_at_epoch DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// AllItems returns every stored item, oldest first.
func (s *Store) AllItems(ctx context.Context) ([]models.WorkItem, error) {
	var rows []Item
	err := s.DB.WithContext(ctx).
		Order("timestamp_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history items: %w", err)
	}

	items := make([]models.WorkItem, len(rows))
	for i, row := range rows {
		items[i] = row.WorkItem()
	}
	return items, nil
}

// ItemsInRange returns stored items whose timestamp falls within r, oldest first.
func (s *Store) ItemsInRange(ctx context.Context, r models.DateRange) ([]models.WorkItem, error) {
	var rows []Item
	err := s.DB.WithContext(ctx).
		Where("timestamp_epoch BETWEEN ? AND ?", r.Start.UnixMilli(), r.End.UnixMilli()).
		Order("timestamp_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history items: %w", err)
	}

	items := make([]models.WorkItem, len(rows))
	for i, row := range rows {
		items[i] = row.WorkItem()
	}
	return items, nil
}

func joinSources(sources []models.SourceType) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

// SourceList splits the stored source list.
func (e *Entry) SourceList() []string {
	if e.Sources == "" {
		return []string{}
	}
	return strings.Split(e.Sources, ",")
}
