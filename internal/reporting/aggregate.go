package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
)

// Aggregate is everything a report shows. GeneratedAt is the only time value the
// renderer reads, so rendering the same aggregate twice gives identical bytes.
type Aggregate struct {
	Job           db.Job                 `json:"job"`
	Client        db.Client              `json:"client"`
	Configuration db.ReportConfiguration `json:"configuration"`
	Tasks         []TaskEntry            `json:"tasks"`
	Photos        []PhotoEntry           `json:"photos"`
	Notes         []db.Note              `json:"notes"`
	LogoURL       string                 `json:"logo_url,omitempty"`
	PortalURL     string                 `json:"portal_url,omitempty"`
	TimerSeconds  int64                  `json:"timer_seconds"`
	GeneratedAt   time.Time              `json:"generated_at"`

	// Degraded lists the optional tables that were missing and replaced by defaults.
	Degraded []string `json:"degraded,omitempty"`
}

// TaskEntry is a task with its report selection applied.
type TaskEntry struct {
	TaskID       uuid.UUID `json:"task_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Completed    bool      `json:"completed"`
	Include      bool      `json:"include"`
	DisplayOrder int       `json:"display_order"`
}

// PhotoEntry is a photo with its report selection applied and its URL resolved.
type PhotoEntry struct {
	PhotoID      uuid.UUID    `json:"photo_id"`
	URL          string       `json:"url"`
	Caption      string       `json:"caption,omitempty"`
	PhotoType    db.PhotoType `json:"photo_type"`
	Include      bool         `json:"include"`
	DisplayOrder int          `json:"display_order"`
}

// IncludedTasks returns the tasks selected for the report in display order.
func (a *Aggregate) IncludedTasks() []TaskEntry {
	var out []TaskEntry
	for _, t := range a.Tasks {
		if t.Include {
			out = append(out, t)
		}
	}
	return out
}

// IncludedPhotos returns the photos selected for the report in display order.
func (a *Aggregate) IncludedPhotos() []PhotoEntry {
	var out []PhotoEntry
	for _, p := range a.Photos {
		if p.Include {
			out = append(out, p)
		}
	}
	return out
}
