// Package testutil provides an in-memory store with the same method set as *db.DB
// for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
)

// BaseTime is the creation timestamp of the first row; each later row is one second
// newer, so upload order is stable.
var BaseTime = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

// MemStore is a mutex-protected in-memory implementation of the db.DB methods used
// by the services.
type MemStore struct {
	mu  sync.Mutex
	seq int

	users         map[uuid.UUID]db.User
	clients       map[uuid.UUID]db.Client
	recurring     map[uuid.UUID]db.RecurringJob
	jobs          map[uuid.UUID]db.Job
	tasks         map[uuid.UUID]db.Task
	photos        map[uuid.UUID]db.Photo
	notes         map[uuid.UUID]db.Note
	configs       map[uuid.UUID]db.ReportConfiguration
	reportPhotos  map[uuid.UUID]db.ReportPhoto
	reportTasks   map[uuid.UUID]db.ReportTask
	failures      map[string]error
	missingTables map[string]bool

	// CreateJobCalls counts CreateJob invocations, including failed ones.
	CreateJobCalls int
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:         map[uuid.UUID]db.User{},
		clients:       map[uuid.UUID]db.Client{},
		recurring:     map[uuid.UUID]db.RecurringJob{},
		jobs:          map[uuid.UUID]db.Job{},
		tasks:         map[uuid.UUID]db.Task{},
		photos:        map[uuid.UUID]db.Photo{},
		notes:         map[uuid.UUID]db.Note{},
		configs:       map[uuid.UUID]db.ReportConfiguration{},
		reportPhotos:  map[uuid.UUID]db.ReportPhoto{},
		reportTasks:   map[uuid.UUID]db.ReportTask{},
		failures:      map[string]error{},
		missingTables: map[string]bool{},
	}
}

// FailOn makes every later call of the named method return err. Every exported
// store method honours it. A nil err clears it.
func (s *MemStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// DropTable makes queries against table fail with db.ErrNotProvisioned.
func (s *MemStore) DropTable(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missingTables[table] = true
}

func (s *MemStore) fail(method string) error {
	return s.failures[method]
}

func (s *MemStore) missing(table string) error {
	if s.missingTables[table] {
		return &db.MissingTableError{Table: table, Cause: errors.New(`relation "` + table + `" does not exist`)}
	}
	return nil
}

func (s *MemStore) stamp() time.Time {
	s.seq++
	return BaseTime.Add(time.Duration(s.seq) * time.Second)
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *MemStore) CreateUser(_ context.Context, name, email, phone, businessName string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateUser"); err != nil {
		return uuid.Nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return uuid.Nil, errors.New("duplicate email")
		}
	}
	now := s.stamp()
	u := db.User{ID: uuid.New(), Name: name, Email: email, Phone: phone, BusinessName: businessName, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *MemStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetUserByEmail"); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	err := s.fail("CheckEmailExists")
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	u, err := s.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (s *MemStore) UpdateUser(_ context.Context, u *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateUser"); err != nil {
		return err
	}
	cur, ok := s.users[u.ID]
	if !ok {
		return nil
	}
	cur.Name, cur.Phone, cur.BusinessName = u.Name, u.Phone, u.BusinessName
	cur.UpdatedAt = s.stamp()
	s.users[u.ID] = cur
	return nil
}

func (s *MemStore) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdatePassword"); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return errors.New("user not found: " + userID.String())
	}
	u.PasswordHash, u.PasswordSet = hash, true
	u.UpdatedAt = s.stamp()
	s.users[userID] = u
	return nil
}

func (s *MemStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteUser"); err != nil {
		return err
	}
	delete(s.users, id)
	return nil
}

// -----------------------------------------------------------------------------
// Clients
// -----------------------------------------------------------------------------

func (s *MemStore) CreateClient(_ context.Context, c *db.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateClient"); err != nil {
		return err
	}
	if c.PortalToken == "" {
		token, err := db.NewPortalToken()
		if err != nil {
			return err
		}
		c.PortalToken = token
	}
	c.ID = uuid.New()
	c.CreatedAt = s.stamp()
	c.UpdatedAt = c.CreatedAt
	s.clients[c.ID] = *c
	return nil
}

func (s *MemStore) GetClient(_ context.Context, userID, id uuid.UUID) (*db.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetClient"); err != nil {
		return nil, err
	}
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

func (s *MemStore) GetClientByPortalToken(_ context.Context, token string) (*db.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetClientByPortalToken"); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	for _, c := range s.clients {
		if c.PortalToken == token {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListClients(_ context.Context, userID uuid.UUID) ([]db.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListClients"); err != nil {
		return nil, err
	}
	var out []db.Client
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemStore) UpdateClient(_ context.Context, c *db.Client) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateClient"); err != nil {
		return false, err
	}
	cur, ok := s.clients[c.ID]
	if !ok || cur.UserID != c.UserID {
		return false, nil
	}
	cur.Name, cur.Email, cur.Phone, cur.Address, cur.Notes = c.Name, c.Email, c.Phone, c.Address, c.Notes
	cur.UpdatedAt = s.stamp()
	s.clients[c.ID] = cur
	*c = cur
	return true, nil
}

func (s *MemStore) DeleteClient(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteClient"); err != nil {
		return false, err
	}
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(s.clients, id)
	for jid, j := range s.jobs {
		if j.ClientID == id {
			s.deleteJobLocked(jid)
		}
	}
	for rid, r := range s.recurring {
		if r.ClientID == id {
			delete(s.recurring, rid)
		}
	}
	return true, nil
}

// -----------------------------------------------------------------------------
// Recurring jobs
// -----------------------------------------------------------------------------

func (s *MemStore) CreateRecurringJob(_ context.Context, r *db.RecurringJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateRecurringJob"); err != nil {
		return err
	}
	r.ID = uuid.New()
	r.CreatedAt = s.stamp()
	r.UpdatedAt = r.CreatedAt
	s.recurring[r.ID] = cloneRecurring(*r)
	return nil
}

func (s *MemStore) GetRecurringJob(_ context.Context, userID, id uuid.UUID) (*db.RecurringJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetRecurringJob"); err != nil {
		return nil, err
	}
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	r = cloneRecurring(r)
	return &r, nil
}

func (s *MemStore) ListRecurringJobs(_ context.Context, userID uuid.UUID) ([]db.RecurringJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListRecurringJobs"); err != nil {
		return nil, err
	}
	var out []db.RecurringJob
	for _, r := range s.recurring {
		if r.UserID == userID {
			out = append(out, cloneRecurring(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemStore) UpdateRecurringJob(_ context.Context, r *db.RecurringJob) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateRecurringJob"); err != nil {
		return false, err
	}
	cur, ok := s.recurring[r.ID]
	if !ok || cur.UserID != r.UserID {
		return false, nil
	}
	r.CreatedAt = cur.CreatedAt
	r.UpdatedAt = s.stamp()
	s.recurring[r.ID] = cloneRecurring(*r)
	return true, nil
}

func (s *MemStore) SetRecurringJobActive(_ context.Context, userID, id uuid.UUID, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetRecurringJobActive"); err != nil {
		return false, err
	}
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	r.IsActive = active
	r.UpdatedAt = s.stamp()
	s.recurring[id] = r
	return true, nil
}

func (s *MemStore) DeleteRecurringJob(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteRecurringJob"); err != nil {
		return false, err
	}
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(s.recurring, id)
	for jid, j := range s.jobs {
		if j.RecurringJobID != nil && *j.RecurringJobID == id {
			j.RecurringJobID = nil
			s.jobs[jid] = j
		}
	}
	return true, nil
}

func cloneRecurring(r db.RecurringJob) db.RecurringJob {
	if r.EndDate != nil {
		end := *r.EndDate
		r.EndDate = &end
	}
	return r
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func (s *MemStore) CreateJob(_ context.Context, j *db.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateJobCalls++
	if err := s.fail("CreateJob"); err != nil {
		return err
	}
	if j.Status == "" {
		j.Status = db.StatusScheduled
	}
	j.ID = uuid.New()
	j.CreatedAt = s.stamp()
	j.UpdatedAt = j.CreatedAt
	s.jobs[j.ID] = cloneJob(*j)
	return nil
}

func (s *MemStore) GetJob(_ context.Context, userID, id uuid.UUID) (*db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetJob"); err != nil {
		return nil, err
	}
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return nil, nil
	}
	j = cloneJob(j)
	return &j, nil
}

func (s *MemStore) ListJobs(_ context.Context, userID uuid.UUID, f db.JobFilters) ([]db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListJobs"); err != nil {
		return nil, err
	}
	var out []db.Job
	for _, j := range s.jobs {
		if j.UserID != userID {
			continue
		}
		if f.From != nil && j.ScheduledDate.Before(*f.From) {
			continue
		}
		if f.To != nil && j.ScheduledDate.After(*f.To) {
			continue
		}
		if f.ClientID != nil && j.ClientID != *f.ClientID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		out = append(out, cloneJob(j))
	}
	sortJobs(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) UpdateJob(_ context.Context, j *db.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateJob"); err != nil {
		return false, err
	}
	cur, ok := s.jobs[j.ID]
	if !ok || cur.UserID != j.UserID {
		return false, nil
	}
	j.CreatedAt = cur.CreatedAt
	j.RecurringJobID = cur.RecurringJobID
	j.UpdatedAt = s.stamp()
	s.jobs[j.ID] = cloneJob(*j)
	return true, nil
}

func (s *MemStore) DeleteJob(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteJob"); err != nil {
		return false, err
	}
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return false, nil
	}
	s.deleteJobLocked(id)
	return true, nil
}

func (s *MemStore) deleteJobLocked(id uuid.UUID) {
	delete(s.jobs, id)
	for tid, t := range s.tasks {
		if t.JobID == id {
			delete(s.tasks, tid)
		}
	}
	for pid, p := range s.photos {
		if p.JobID == id {
			delete(s.photos, pid)
		}
	}
	for nid, n := range s.notes {
		if n.JobID == id {
			delete(s.notes, nid)
		}
	}
	for rid, rp := range s.reportPhotos {
		if rp.JobID == id {
			delete(s.reportPhotos, rid)
		}
	}
	for rid, rt := range s.reportTasks {
		if rt.JobID == id {
			delete(s.reportTasks, rid)
		}
	}
}

func (s *MemStore) instancesLocked(userID, recurringJobID uuid.UUID) []db.Job {
	var out []db.Job
	for _, j := range s.jobs {
		if j.UserID == userID && j.RecurringJobID != nil && *j.RecurringJobID == recurringJobID {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].ScheduledDate.Equal(out[b].ScheduledDate) {
			return out[a].ScheduledDate.Before(out[b].ScheduledDate)
		}
		return out[a].ID.String() < out[b].ID.String()
	})
	return out
}

func (s *MemStore) ListInstances(_ context.Context, userID, recurringJobID uuid.UUID) ([]db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListInstances"); err != nil {
		return nil, err
	}
	return s.instancesLocked(userID, recurringJobID), nil
}

func (s *MemStore) LatestInstanceDate(_ context.Context, userID, recurringJobID uuid.UUID) (*db.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("LatestInstanceDate"); err != nil {
		return nil, err
	}
	instances := s.instancesLocked(userID, recurringJobID)
	if len(instances) == 0 {
		return nil, nil
	}
	latest := instances[len(instances)-1].ScheduledDate
	return &latest, nil
}

func (s *MemStore) InstanceExists(_ context.Context, userID, recurringJobID uuid.UUID, date db.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InstanceExists"); err != nil {
		return false, err
	}
	for _, j := range s.instancesLocked(userID, recurringJobID) {
		if j.ScheduledDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) DeleteInstancesFrom(_ context.Context, userID, recurringJobID uuid.UUID, from db.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteInstancesFrom"); err != nil {
		return 0, err
	}
	n := 0
	for _, j := range s.instancesLocked(userID, recurringJobID) {
		if !j.ScheduledDate.Before(from) {
			s.deleteJobLocked(j.ID)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) DeleteInstances(_ context.Context, userID, recurringJobID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteInstances"); err != nil {
		return 0, err
	}
	instances := s.instancesLocked(userID, recurringJobID)
	for _, j := range instances {
		s.deleteJobLocked(j.ID)
	}
	return len(instances), nil
}

func cloneJob(j db.Job) db.Job {
	if j.RecurringJobID != nil {
		id := *j.RecurringJobID
		j.RecurringJobID = &id
	}
	if j.EndTime != nil {
		end := *j.EndTime
		j.EndTime = &end
	}
	if j.TimerStartedAt != nil {
		started := *j.TimerStartedAt
		j.TimerStartedAt = &started
	}
	return j
}

func sortJobs(jobs []db.Job) {
	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].ScheduledDate.Equal(jobs[b].ScheduledDate) {
			return jobs[a].ScheduledDate.Before(jobs[b].ScheduledDate)
		}
		if jobs[a].ScheduledTime != jobs[b].ScheduledTime {
			return jobs[a].ScheduledTime < jobs[b].ScheduledTime
		}
		return jobs[a].ID.String() < jobs[b].ID.String()
	})
}

func (s *MemStore) ownsJobLocked(userID, jobID uuid.UUID) bool {
	j, ok := s.jobs[jobID]
	return ok && j.UserID == userID
}
