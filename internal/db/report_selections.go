package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Selection rows are keyed by job. Callers check job ownership before using them.

// -----------------------------------------------------------------------------
// Report Photo Methods
// -----------------------------------------------------------------------------

// ListReportPhotos returns a job's photo selections by display_order
func (db *DB) ListReportPhotos(ctx context.Context, jobID uuid.UUID) ([]ReportPhoto, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, photo_id, include_in_report, caption, photo_type, display_order
		 FROM report_photos WHERE job_id = $1
		 ORDER BY display_order, id`, jobID)
	if err != nil {
		return nil, classify("report_photos", "list report photos", err)
	}
	defer rows.Close()

	var out []ReportPhoto
	for rows.Next() {
		var rp ReportPhoto
		if err := rows.Scan(&rp.ID, &rp.JobID, &rp.PhotoID, &rp.IncludeInReport, &rp.Caption,
			&rp.PhotoType, &rp.DisplayOrder); err != nil {
			return nil, classify("report_photos", "scan report photo", err)
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("report_photos", "list report photos", err)
	}
	return out, nil
}

// InsertReportPhotos creates default selection rows, leaving existing rows untouched.
func (db *DB) InsertReportPhotos(ctx context.Context, selections []ReportPhoto) error {
	if len(selections) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rp := range selections {
		batch.Queue(
			`INSERT INTO report_photos (job_id, photo_id, include_in_report, caption, photo_type, display_order)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (job_id, photo_id) DO NOTHING`,
			rp.JobID, rp.PhotoID, rp.IncludeInReport, rp.Caption, rp.PhotoType, rp.DisplayOrder)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return classify("report_photos", "insert report photos", err)
	}
	return nil
}

// UpsertReportPhoto creates or updates one photo selection and fills in its id.
func (db *DB) UpsertReportPhoto(ctx context.Context, rp *ReportPhoto) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO report_photos (job_id, photo_id, include_in_report, caption, photo_type, display_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (job_id, photo_id) DO UPDATE SET
		     include_in_report = EXCLUDED.include_in_report,
		     caption = EXCLUDED.caption,
		     photo_type = EXCLUDED.photo_type,
		     display_order = EXCLUDED.display_order
		 RETURNING id`,
		rp.JobID, rp.PhotoID, rp.IncludeInReport, rp.Caption, rp.PhotoType, rp.DisplayOrder,
	).Scan(&rp.ID)
	if err != nil {
		return classify("report_photos", "upsert report photo", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Report Task Methods
// -----------------------------------------------------------------------------

// ListReportTasks returns a job's task selections by display_order
func (db *DB) ListReportTasks(ctx context.Context, jobID uuid.UUID) ([]ReportTask, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, task_id, include_in_report, display_order
		 FROM report_tasks WHERE job_id = $1
		 ORDER BY display_order, id`, jobID)
	if err != nil {
		return nil, classify("report_tasks", "list report tasks", err)
	}
	defer rows.Close()

	var out []ReportTask
	for rows.Next() {
		var rt ReportTask
		if err := rows.Scan(&rt.ID, &rt.JobID, &rt.TaskID, &rt.IncludeInReport, &rt.DisplayOrder); err != nil {
			return nil, classify("report_tasks", "scan report task", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("report_tasks", "list report tasks", err)
	}
	return out, nil
}

// InsertReportTasks creates default selection rows, leaving existing rows untouched.
func (db *DB) InsertReportTasks(ctx context.Context, selections []ReportTask) error {
	if len(selections) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rt := range selections {
		batch.Queue(
			`INSERT INTO report_tasks (job_id, task_id, include_in_report, display_order)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (job_id, task_id) DO NOTHING`,
			rt.JobID, rt.TaskID, rt.IncludeInReport, rt.DisplayOrder)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return classify("report_tasks", "insert report tasks", err)
	}
	return nil
}

// UpsertReportTask creates or updates one task selection and fills in its id.
func (db *DB) UpsertReportTask(ctx context.Context, rt *ReportTask) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO report_tasks (job_id, task_id, include_in_report, display_order)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (job_id, task_id) DO UPDATE SET
		     include_in_report = EXCLUDED.include_in_report,
		     display_order = EXCLUDED.display_order
		 RETURNING id`,
		rt.JobID, rt.TaskID, rt.IncludeInReport, rt.DisplayOrder,
	).Scan(&rt.ID)
	if err != nil {
		return classify("report_tasks", "upsert report task", err)
	}
	return nil
}
