package reporting

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
)

// PhotoSelection is a change to one photo's report selection. Nil fields keep their
// current values.
type PhotoSelection struct {
	Include   bool
	Caption   *string
	PhotoType *db.PhotoType
}

// UpdatePhotoSelection includes or excludes a photo from the job's report. Calling it
// twice with the same arguments leaves the same row.
func (p *Pipeline) UpdatePhotoSelection(ctx context.Context, userID, jobID, photoID uuid.UUID, sel PhotoSelection) (*db.ReportPhoto, error) {
	if sel.PhotoType != nil && !sel.PhotoType.Valid() {
		return nil, apperr.Validation("photo_type", "unsupported value %q", *sel.PhotoType)
	}
	if err := p.requireJob(ctx, userID, jobID); err != nil {
		return nil, err
	}
	photo, err := p.store.GetPhoto(ctx, userID, photoID)
	if err != nil {
		return nil, apperr.Storage("get photo", err)
	}
	if photo == nil || photo.JobID != jobID {
		return nil, apperr.NotFound("photo", photoID)
	}
	photos, err := p.store.ListPhotos(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("list photos", err)
	}

	rows, ok, err := p.ensurePhotoSelections(ctx, jobID, photos)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Storage("update photo selection", db.ErrNotProvisioned)
	}

	var rp db.ReportPhoto
	for _, row := range rows {
		if row.PhotoID == photoID {
			rp = row
			break
		}
	}
	rp.JobID, rp.PhotoID = jobID, photoID
	rp.IncludeInReport = sel.Include
	if sel.Caption != nil {
		rp.Caption = *sel.Caption
	}
	if sel.PhotoType != nil {
		rp.PhotoType = *sel.PhotoType
	}
	if !rp.PhotoType.Valid() {
		rp.PhotoType = photo.PhotoType
	}

	if err := p.store.UpsertReportPhoto(ctx, &rp); err != nil {
		return nil, apperr.Storage("update photo selection", err)
	}
	p.logger.Infow("Updated report photo selection", "job_id", jobID, "photo_id", photoID, "include", rp.IncludeInReport)
	return &rp, nil
}

// UpdateTaskSelection includes or excludes a task from the job's report.
func (p *Pipeline) UpdateTaskSelection(ctx context.Context, userID, jobID, taskID uuid.UUID, include bool) (*db.ReportTask, error) {
	if err := p.requireJob(ctx, userID, jobID); err != nil {
		return nil, err
	}
	task, err := p.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, apperr.Storage("get task", err)
	}
	if task == nil || task.JobID != jobID {
		return nil, apperr.NotFound("task", taskID)
	}
	tasks, err := p.store.ListTasks(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}

	rows, ok, err := p.ensureTaskSelections(ctx, jobID, tasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Storage("update task selection", db.ErrNotProvisioned)
	}

	var rt db.ReportTask
	for _, row := range rows {
		if row.TaskID == taskID {
			rt = row
			break
		}
	}
	rt.JobID, rt.TaskID = jobID, taskID
	rt.IncludeInReport = include

	if err := p.store.UpsertReportTask(ctx, &rt); err != nil {
		return nil, apperr.Storage("update task selection", err)
	}
	p.logger.Infow("Updated report task selection", "job_id", jobID, "task_id", taskID, "include", include)
	return &rt, nil
}

func (p *Pipeline) requireJob(ctx context.Context, userID, jobID uuid.UUID) error {
	job, err := p.store.GetJob(ctx, userID, jobID)
	if err != nil {
		return apperr.Storage("get job", err)
	}
	if job == nil {
		return apperr.NotFound("job", jobID)
	}
	return nil
}
