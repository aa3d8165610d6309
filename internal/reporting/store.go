// Package reporting assembles a job's tasks, photos, notes and the owner's report
// configuration into an aggregate and renders it as a self-contained HTML document.
package reporting

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
)

// Store is the persistence the report pipeline needs. *db.DB implements it.
// Report configuration and selection methods return errors matching
// db.ErrNotProvisioned when their tables do not exist.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetJob(ctx context.Context, userID, id uuid.UUID) (*db.Job, error)
	GetClient(ctx context.Context, userID, id uuid.UUID) (*db.Client, error)
	ListTasks(ctx context.Context, userID, jobID uuid.UUID) ([]db.Task, error)
	ListPhotos(ctx context.Context, userID, jobID uuid.UUID) ([]db.Photo, error)
	ListNotes(ctx context.Context, userID, jobID uuid.UUID) ([]db.Note, error)
	GetTask(ctx context.Context, userID, id uuid.UUID) (*db.Task, error)
	GetPhoto(ctx context.Context, userID, id uuid.UUID) (*db.Photo, error)

	GetReportConfiguration(ctx context.Context, userID uuid.UUID) (*db.ReportConfiguration, error)
	UpsertReportConfiguration(ctx context.Context, c *db.ReportConfiguration) error

	ListReportPhotos(ctx context.Context, jobID uuid.UUID) ([]db.ReportPhoto, error)
	InsertReportPhotos(ctx context.Context, selections []db.ReportPhoto) error
	UpsertReportPhoto(ctx context.Context, rp *db.ReportPhoto) error
	ListReportTasks(ctx context.Context, jobID uuid.UUID) ([]db.ReportTask, error)
	InsertReportTasks(ctx context.Context, selections []db.ReportTask) error
	UpsertReportTask(ctx context.Context, rt *db.ReportTask) error
}

var _ Store = (*db.DB)(nil)
