package history

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/thebtf/worklog/pkg/models"
)

// JSONMap stores item metadata as a JSON text column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan JSONMap: unsupported type %T", value)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Entry is one saved report.
type Entry struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt       string    `gorm:"not null"`
	CreatedAtEpoch  int64     `gorm:"index:idx_history_entries_created,sort:desc;not null"`
	RangeStartEpoch int64     `gorm:"not null"`
	RangeEndEpoch   int64     `gorm:"not null"`
	Sources         string    `gorm:"type:text"` // comma separated
	Projects        []Project `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

func (Entry) TableName() string { return "history_entries" }

// BeforeCreate hook to ensure timestamps are set.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAtEpoch == 0 {
		now := time.Now()
		e.CreatedAtEpoch = now.UnixMilli()
		e.CreatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// DateRange returns the period the entry covers.
func (e *Entry) DateRange() models.DateRange {
	return models.DateRange{
		Start: time.UnixMilli(e.RangeStartEpoch),
		End:   time.UnixMilli(e.RangeEndEpoch),
	}
}

// Items flattens every project's items.
func (e *Entry) Items() []models.WorkItem {
	var items []models.WorkItem
	for _, p := range e.Projects {
		for _, item := range p.Items {
			items = append(items, item.WorkItem())
		}
	}
	return items
}

// Project is the items of one project within an entry.
type Project struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	EntryID string `gorm:"type:varchar(36);index;not null"`
	Name    string `gorm:"index;not null"`
	Path    string
	Items   []Item `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string { return "history_projects" }

// Item is a stored work item.
type Item struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	ProjectID      int64   `gorm:"index;not null"`
	Project        string  `gorm:"column:project_name;index"`
	Source         string  `gorm:"type:text;index;not null"`
	TimestampEpoch int64   `gorm:"index:idx_history_items_timestamp;not null"`
	Title          string  `gorm:"type:text;not null"`
	Description    string  `gorm:"type:text"`
	Metadata       JSONMap `gorm:"type:text"`
}

func (Item) TableName() string { return "history_items" }

// WorkItem converts the stored row back to a work item.
func (i Item) WorkItem() models.WorkItem {
	return models.WorkItem{
		Source:      models.SourceType(i.Source),
		Timestamp:   time.UnixMilli(i.TimestampEpoch),
		Title:       i.Title,
		Description: i.Description,
		Metadata:    i.Metadata,
	}
}
