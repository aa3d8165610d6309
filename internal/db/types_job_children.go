package db

import (
	"time"

	"github.com/google/uuid"
)

// PhotoType classifies a job photo.
type PhotoType string

const (
	PhotoBefore  PhotoType = "before"
	PhotoAfter   PhotoType = "after"
	PhotoGeneral PhotoType = "general"
)

// Valid reports whether t is a known photo type.
func (t PhotoType) Valid() bool {
	switch t {
	case PhotoBefore, PhotoAfter, PhotoGeneral:
		return true
	}
	return false
}

// Task is a checklist item of a job
type Task struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Photo is an uploaded image attached to a job. StoragePath is an object key in the
// configured bucket.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	StoragePath string    `json:"storage_path"`
	Caption     string    `json:"caption,omitempty"`
	PhotoType   PhotoType `json:"photo_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Note is a free-text note on a job
type Note struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
