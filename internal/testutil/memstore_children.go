package testutil

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
)

// -----------------------------------------------------------------------------
// Tasks
// -----------------------------------------------------------------------------

func (s *MemStore) CreateTask(_ context.Context, userID uuid.UUID, t *db.Task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateTask"); err != nil {
		return false, err
	}
	if !s.ownsJobLocked(userID, t.JobID) {
		return false, nil
	}
	if t.OrderIndex <= 0 {
		next := 0
		for _, existing := range s.tasks {
			if existing.JobID == t.JobID && existing.OrderIndex >= next {
				next = existing.OrderIndex + 1
			}
		}
		t.OrderIndex = next
	}
	t.ID = uuid.New()
	t.CreatedAt = s.stamp()
	s.tasks[t.ID] = *t
	return true, nil
}

func (s *MemStore) GetTask(_ context.Context, userID, id uuid.UUID) (*db.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetTask"); err != nil {
		return nil, err
	}
	t, ok := s.tasks[id]
	if !ok || !s.ownsJobLocked(userID, t.JobID) {
		return nil, nil
	}
	return &t, nil
}

func (s *MemStore) ListTasks(_ context.Context, userID, jobID uuid.UUID) ([]db.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListTasks"); err != nil {
		return nil, err
	}
	if !s.ownsJobLocked(userID, jobID) {
		return nil, nil
	}
	var out []db.Task
	for _, t := range s.tasks {
		if t.JobID == jobID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].OrderIndex != out[b].OrderIndex {
			return out[a].OrderIndex < out[b].OrderIndex
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) UpdateTask(_ context.Context, userID uuid.UUID, t *db.Task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateTask"); err != nil {
		return false, err
	}
	cur, ok := s.tasks[t.ID]
	if !ok || !s.ownsJobLocked(userID, cur.JobID) {
		return false, nil
	}
	cur.Title, cur.Description, cur.IsCompleted, cur.OrderIndex = t.Title, t.Description, t.IsCompleted, t.OrderIndex
	s.tasks[t.ID] = cur
	*t = cur
	return true, nil
}

func (s *MemStore) DeleteTask(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteTask"); err != nil {
		return false, err
	}
	t, ok := s.tasks[id]
	if !ok || !s.ownsJobLocked(userID, t.JobID) {
		return false, nil
	}
	delete(s.tasks, id)
	for rid, rt := range s.reportTasks {
		if rt.TaskID == id {
			delete(s.reportTasks, rid)
		}
	}
	return true, nil
}

// -----------------------------------------------------------------------------
// Photos
// -----------------------------------------------------------------------------

func (s *MemStore) CreatePhoto(_ context.Context, userID uuid.UUID, p *db.Photo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreatePhoto"); err != nil {
		return false, err
	}
	if !s.ownsJobLocked(userID, p.JobID) {
		return false, nil
	}
	if p.PhotoType == "" {
		p.PhotoType = db.PhotoGeneral
	}
	p.ID = uuid.New()
	p.CreatedAt = s.stamp()
	s.photos[p.ID] = *p
	return true, nil
}

func (s *MemStore) GetPhoto(_ context.Context, userID, id uuid.UUID) (*db.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetPhoto"); err != nil {
		return nil, err
	}
	p, ok := s.photos[id]
	if !ok || !s.ownsJobLocked(userID, p.JobID) {
		return nil, nil
	}
	return &p, nil
}

func (s *MemStore) ListPhotos(_ context.Context, userID, jobID uuid.UUID) ([]db.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListPhotos"); err != nil {
		return nil, err
	}
	if !s.ownsJobLocked(userID, jobID) {
		return nil, nil
	}
	var out []db.Photo
	for _, p := range s.photos {
		if p.JobID == jobID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (s *MemStore) DeletePhoto(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeletePhoto"); err != nil {
		return false, err
	}
	p, ok := s.photos[id]
	if !ok || !s.ownsJobLocked(userID, p.JobID) {
		return false, nil
	}
	delete(s.photos, id)
	for rid, rp := range s.reportPhotos {
		if rp.PhotoID == id {
			delete(s.reportPhotos, rid)
		}
	}
	return true, nil
}

// -----------------------------------------------------------------------------
// Notes
// -----------------------------------------------------------------------------

func (s *MemStore) CreateNote(_ context.Context, userID uuid.UUID, n *db.Note) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateNote"); err != nil {
		return false, err
	}
	if !s.ownsJobLocked(userID, n.JobID) {
		return false, nil
	}
	n.ID = uuid.New()
	n.CreatedAt = s.stamp()
	s.notes[n.ID] = *n
	return true, nil
}

func (s *MemStore) ListNotes(_ context.Context, userID, jobID uuid.UUID) ([]db.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListNotes"); err != nil {
		return nil, err
	}
	if !s.ownsJobLocked(userID, jobID) {
		return nil, nil
	}
	var out []db.Note
	for _, n := range s.notes {
		if n.JobID == jobID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (s *MemStore) DeleteNote(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteNote"); err != nil {
		return false, err
	}
	n, ok := s.notes[id]
	if !ok || !s.ownsJobLocked(userID, n.JobID) {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}

// -----------------------------------------------------------------------------
// Report configuration and selections
// -----------------------------------------------------------------------------

func (s *MemStore) GetReportConfiguration(_ context.Context, userID uuid.UUID) (*db.ReportConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.missing("report_configurations"); err != nil {
		return nil, err
	}
	if err := s.fail("GetReportConfiguration"); err != nil {
		return nil, err
	}
	c, ok := s.configs[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemStore) UpsertReportConfiguration(_ context.Context, c *db.ReportConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.missing("report_configurations"); err != nil {
		return err
	}
	if err := s.fail("UpsertReportConfiguration"); err != nil {
		return err
	}
	now := s.stamp()
	if cur, ok := s.configs[c.UserID]; ok {
		c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		c.ID, c.CreatedAt = uuid.New(), now
	}
	c.UpdatedAt = now
	s.configs[c.UserID] = *c
	return nil
}

func (s *MemStore) ListReportPhotos(_ context.Context, jobID uuid.UUID) ([]db.ReportPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListReportPhotos"); err != nil {
		return nil, err
	}
	if err := s.missing("report_photos"); err != nil {
		return nil, err
	}
	var out []db.ReportPhoto
	for _, rp := range s.reportPhotos {
		if rp.JobID == jobID {
			out = append(out, rp)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].DisplayOrder != out[b].DisplayOrder {
			return out[a].DisplayOrder < out[b].DisplayOrder
		}
		return out[a].ID.String() < out[b].ID.String()
	})
	return out, nil
}

func (s *MemStore) InsertReportPhotos(_ context.Context, selections []db.ReportPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.missing("report_photos"); err != nil {
		return err
	}
	if err := s.fail("InsertReportPhotos"); err != nil {
		return err
	}
	for _, rp := range selections {
		if s.findReportPhotoLocked(rp.JobID, rp.PhotoID) != nil {
			continue
		}
		rp.ID = uuid.New()
		s.reportPhotos[rp.ID] = rp
	}
	return nil
}

func (s *MemStore) UpsertReportPhoto(_ context.Context, rp *db.ReportPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertReportPhoto"); err != nil {
		return err
	}
	if err := s.missing("report_photos"); err != nil {
		return err
	}
	if cur := s.findReportPhotoLocked(rp.JobID, rp.PhotoID); cur != nil {
		rp.ID = cur.ID
	} else {
		rp.ID = uuid.New()
	}
	s.reportPhotos[rp.ID] = *rp
	return nil
}

func (s *MemStore) findReportPhotoLocked(jobID, photoID uuid.UUID) *db.ReportPhoto {
	for _, rp := range s.reportPhotos {
		if rp.JobID == jobID && rp.PhotoID == photoID {
			return &rp
		}
	}
	return nil
}

func (s *MemStore) ListReportTasks(_ context.Context, jobID uuid.UUID) ([]db.ReportTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListReportTasks"); err != nil {
		return nil, err
	}
	if err := s.missing("report_tasks"); err != nil {
		return nil, err
	}
	var out []db.ReportTask
	for _, rt := range s.reportTasks {
		if rt.JobID == jobID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].DisplayOrder != out[b].DisplayOrder {
			return out[a].DisplayOrder < out[b].DisplayOrder
		}
		return out[a].ID.String() < out[b].ID.String()
	})
	return out, nil
}

func (s *MemStore) InsertReportTasks(_ context.Context, selections []db.ReportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertReportTasks"); err != nil {
		return err
	}
	if err := s.missing("report_tasks"); err != nil {
		return err
	}
	for _, rt := range selections {
		if s.findReportTaskLocked(rt.JobID, rt.TaskID) != nil {
			continue
		}
		rt.ID = uuid.New()
		s.reportTasks[rt.ID] = rt
	}
	return nil
}

func (s *MemStore) UpsertReportTask(_ context.Context, rt *db.ReportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertReportTask"); err != nil {
		return err
	}
	if err := s.missing("report_tasks"); err != nil {
		return err
	}
	if cur := s.findReportTaskLocked(rt.JobID, rt.TaskID); cur != nil {
		rt.ID = cur.ID
	} else {
		rt.ID = uuid.New()
	}
	s.reportTasks[rt.ID] = *rt
	return nil
}

func (s *MemStore) findReportTaskLocked(jobID, taskID uuid.UUID) *db.ReportTask {
	for _, rt := range s.reportTasks {
		if rt.JobID == jobID && rt.TaskID == taskID {
			return &rt
		}
	}
	return nil
}
