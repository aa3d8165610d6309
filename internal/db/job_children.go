package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Children of a job are reached through their job, so every query joins jobs to
// check ownership.

// -----------------------------------------------------------------------------
// Task Methods
// -----------------------------------------------------------------------------

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.JobID, &t.Title, &t.Description, &t.IsCompleted, &t.OrderIndex, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CreateTask appends a task to a job owned by userID. Returns false when the job
// does not exist for the user. A zero OrderIndex places the task last.
func (db *DB) CreateTask(ctx context.Context, userID uuid.UUID, t *Task) (bool, error) {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO tasks (job_id, title, description, is_completed, order_index)
		 SELECT j.id, $3, $4, $5,
		        CASE WHEN $6 > 0 THEN $6
		             ELSE COALESCE((SELECT MAX(order_index) + 1 FROM tasks WHERE job_id = j.id), 0)
		        END
		 FROM jobs j WHERE j.id = $1 AND j.user_id = $2
		 RETURNING id, order_index, created_at`,
		t.JobID, userID, t.Title, t.Description, t.IsCompleted, t.OrderIndex,
	).Scan(&t.ID, &t.OrderIndex, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create task: %w", err)
	}
	return true, nil
}

// GetTask retrieves a task whose job is owned by userID
func (db *DB) GetTask(ctx context.Context, userID, id uuid.UUID) (*Task, error) {
	t, err := scanTask(db.pool.QueryRow(ctx,
		`SELECT t.id, t.job_id, t.title, t.description, t.is_completed, t.order_index, t.created_at
		 FROM tasks t JOIN jobs j ON j.id = t.job_id
		 WHERE t.id = $1 AND j.user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks returns a job's tasks by order_index
func (db *DB) ListTasks(ctx context.Context, userID, jobID uuid.UUID) ([]Task, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT t.id, t.job_id, t.title, t.description, t.is_completed, t.order_index, t.created_at
		 FROM tasks t JOIN jobs j ON j.id = t.job_id
		 WHERE t.job_id = $1 AND j.user_id = $2
		 ORDER BY t.order_index, t.created_at, t.id`, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask updates title, description, completion and order
func (db *DB) UpdateTask(ctx context.Context, userID uuid.UUID, t *Task) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE tasks t SET title = $3, description = $4, is_completed = $5, order_index = $6
		 FROM jobs j
		 WHERE t.id = $1 AND t.job_id = j.id AND j.user_id = $2`,
		t.ID, userID, t.Title, t.Description, t.IsCompleted, t.OrderIndex)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteTask removes a task
func (db *DB) DeleteTask(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM tasks t USING jobs j
		 WHERE t.id = $1 AND t.job_id = j.id AND j.user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// -----------------------------------------------------------------------------
// Photo Methods
// -----------------------------------------------------------------------------

func scanPhoto(row pgx.Row) (*Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.JobID, &p.StoragePath, &p.Caption, &p.PhotoType, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CreatePhoto records an uploaded photo. Returns false when the job does not exist
// for the user.
func (db *DB) CreatePhoto(ctx context.Context, userID uuid.UUID, p *Photo) (bool, error) {
	if p.PhotoType == "" {
		p.PhotoType = PhotoGeneral
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO photos (job_id, storage_path, caption, photo_type)
		 SELECT j.id, $3, $4, $5 FROM jobs j WHERE j.id = $1 AND j.user_id = $2
		 RETURNING id, created_at`,
		p.JobID, userID, p.StoragePath, p.Caption, p.PhotoType,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create photo: %w", err)
	}
	return true, nil
}

// GetPhoto retrieves a photo whose job is owned by userID
func (db *DB) GetPhoto(ctx context.Context, userID, id uuid.UUID) (*Photo, error) {
	p, err := scanPhoto(db.pool.QueryRow(ctx,
		`SELECT p.id, p.job_id, p.storage_path, p.caption, p.photo_type, p.created_at
		 FROM photos p JOIN jobs j ON j.id = p.job_id
		 WHERE p.id = $1 AND j.user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// ListPhotos returns a job's photos in upload order
func (db *DB) ListPhotos(ctx context.Context, userID, jobID uuid.UUID) ([]Photo, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.job_id, p.storage_path, p.caption, p.photo_type, p.created_at
		 FROM photos p JOIN jobs j ON j.id = p.job_id
		 WHERE p.job_id = $1 AND j.user_id = $2
		 ORDER BY p.created_at, p.id`, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

// DeletePhoto removes a photo record. The stored object is left in the bucket.
func (db *DB) DeletePhoto(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM photos p USING jobs j
		 WHERE p.id = $1 AND p.job_id = j.id AND j.user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete photo: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// -----------------------------------------------------------------------------
// Note Methods
// -----------------------------------------------------------------------------

// CreateNote adds a note to a job. Returns false when the job does not exist for
// the user.
func (db *DB) CreateNote(ctx context.Context, userID uuid.UUID, n *Note) (bool, error) {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO notes (job_id, content)
		 SELECT j.id, $3 FROM jobs j WHERE j.id = $1 AND j.user_id = $2
		 RETURNING id, created_at`,
		n.JobID, userID, n.Content,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create note: %w", err)
	}
	return true, nil
}

// ListNotes returns a job's notes oldest first
func (db *DB) ListNotes(ctx context.Context, userID, jobID uuid.UUID) ([]Note, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT n.id, n.job_id, n.content, n.created_at
		 FROM notes n JOIN jobs j ON j.id = n.job_id
		 WHERE n.job_id = $1 AND j.user_id = $2
		 ORDER BY n.created_at, n.id`, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.JobID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note
func (db *DB) DeleteNote(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM notes n USING jobs j
		 WHERE n.id = $1 AND n.job_id = j.id AND j.user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
