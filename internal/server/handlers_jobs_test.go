package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCRUD(t *testing.T) {
	ts := newTestServer(t)
	userID, _ := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	rec := ts.do(http.MethodPost, "/v1/clients", token, map[string]string{
		"name":    "  Acme Offices ",
		"email":   "facilities@acme.test",
		"address": "1 Acme Way",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[db.Client](t, rec)
	assert.Equal(t, "Acme Offices", created.Name)
	assert.Equal(t, userID, created.UserID)
	assert.NotEmpty(t, created.PortalToken)

	rec = ts.do(http.MethodGet, "/v1/clients", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]db.Client](t, rec), 2)

	rec = ts.do(http.MethodPut, "/v1/clients/"+created.ID.String(), token, map[string]string{
		"name":  "Acme Ltd",
		"phone": "555-0199",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[db.Client](t, rec)
	assert.Equal(t, "Acme Ltd", updated.Name)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, created.PortalToken, updated.PortalToken, "portal token survives updates")

	rec = ts.do(http.MethodGet, "/v1/clients/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Ltd", decodeBody[db.Client](t, rec).Name)

	rec = ts.do(http.MethodDelete, "/v1/clients/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/clients/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodDelete, "/v1/clients/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClients_TenantIsolation(t *testing.T) {
	ts := newTestServer(t)
	_, client := testutil.SeedOwner(t, ts.store)
	otherID, _ := testutil.SeedOwner(t, ts.store)
	other := ts.token(otherID)

	rec := ts.do(http.MethodGet, "/v1/clients/"+client.ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPut, "/v1/clients/"+client.ID.String(), other, map[string]string{"name": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/v1/clients/"+client.ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClients_EmptyListIsArray(t *testing.T) {
	ts := newTestServer(t)
	userID, err := ts.store.CreateUser(t.Context(), "Solo", "solo@example.com", "", "")
	require.NoError(t, err)

	rec := ts.do(http.MethodGet, "/v1/clients", ts.token(userID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func jobBody(clientID uuid.UUID, date string) map[string]any {
	return map[string]any{
		"client_id":      clientID.String(),
		"title":          "Deep clean",
		"scheduled_date": date,
		"scheduled_time": "09:00",
		"end_time":       "12:00",
		"agreed_hours":   "3",
		"hourly_rate":    "25.50",
	}
}

func TestCreateJob(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	rec := ts.do(http.MethodPost, "/v1/jobs", token, jobBody(client.ID, "2024-06-10"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decodeBody[db.Job](t, rec)
	assert.Equal(t, db.StatusScheduled, job.Status)
	assert.Equal(t, "2024-06-10", job.ScheduledDate.String())
	require.NotNil(t, job.EndTime)
	assert.Equal(t, "12:00", *job.EndTime)
	assert.True(t, decimal.NewFromInt(3).Equal(job.AgreedHours))
	assert.True(t, job.HourlyRate.Valid)
	assert.False(t, job.TotalCost.Valid)

	body := jobBody(client.ID, "2024-06-11")
	body["status"] = "enquiry"
	rec = ts.do(http.MethodPost, "/v1/jobs", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, db.StatusEnquiry, decodeBody[db.Job](t, rec).Status)
}

func TestCreateJob_Validation(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
		want   string
	}{
		{"end before start", func(b map[string]any) { b["end_time"] = "08:30" }, http.StatusBadRequest, "end_time"},
		{"negative rate", func(b map[string]any) { b["hourly_rate"] = "-1" }, http.StatusBadRequest, "hourly_rate"},
		{"negative hours", func(b map[string]any) { b["agreed_hours"] = "-2" }, http.StatusBadRequest, "agreed_hours"},
		{"bad date", func(b map[string]any) { b["scheduled_date"] = "10/06/2024" }, http.StatusBadRequest, "validation error"},
		{"bad time", func(b map[string]any) { b["scheduled_time"] = "9am" }, http.StatusBadRequest, "validation error"},
		{"completed on create", func(b map[string]any) { b["status"] = "completed" }, http.StatusBadRequest, "validation error"},
		{"missing title", func(b map[string]any) { delete(b, "title") }, http.StatusBadRequest, "validation error"},
		{"unknown client", func(b map[string]any) { b["client_id"] = uuid.NewString() }, http.StatusNotFound, "client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := jobBody(client.ID, "2024-06-10")
			tt.mutate(body)
			rec := ts.do(http.MethodPost, "/v1/jobs", token, body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, errorMessage(t, rec), tt.want)
		})
	}

	jobs, err := ts.store.ListJobs(t.Context(), userID, db.JobFilters{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestListJobs_Filters(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	other := &db.Client{UserID: userID, Name: "Other"}
	require.NoError(t, ts.store.CreateClient(t.Context(), other))

	testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 3))
	testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 10))
	testutil.SeedJob(t, ts.store, userID, other, db.NewDate(2024, time.June, 17))

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?from=2024-06-04", 2},
		{"?from=2024-06-04&to=2024-06-10", 1},
		{"?client_id=" + other.ID.String(), 1},
		{"?status=scheduled", 3},
		{"?status=completed", 0},
		{"?limit=2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/v1/jobs"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decodeBody[[]db.Job](t, rec), tt.want)
		})
	}

	for _, bad := range []string{"?from=yesterday", "?from=2024-06-10&to=2024-06-01", "?status=done", "?limit=0", "?limit=501", "?client_id=x"} {
		rec := ts.do(http.MethodGet, "/v1/jobs"+bad, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestUpdateAndDeleteJob(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)
	job := testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 3))
	path := "/v1/jobs/" + job.ID.String()

	body := jobBody(client.ID, "2024-06-05")
	body["title"] = "Moved clean"
	body["status"] = "enquiry"
	rec := ts.do(http.MethodPut, path, token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[db.Job](t, rec)
	assert.Equal(t, "Moved clean", updated.Title)
	assert.Equal(t, "2024-06-05", updated.ScheduledDate.String())
	assert.Equal(t, db.StatusScheduled, updated.Status, "status only changes through the status endpoint")

	rec = ts.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Moved clean", decodeBody[db.Job](t, rec).Title)

	rec = ts.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodPut, path, token, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransitionStatus(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	rec := ts.do(http.MethodPost, "/v1/jobs", token, jobBody(client.ID, "2024-06-03"))
	require.Equal(t, http.StatusCreated, rec.Code)
	job := decodeBody[db.Job](t, rec)
	path := "/v1/jobs/" + job.ID.String() + "/status"

	rec = ts.do(http.MethodPost, path, token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "scheduled cannot jump to completed")

	rec = ts.do(http.MethodPost, path, token, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.StatusInProgress, decodeBody[db.Job](t, rec).Status)

	// Record actual hours, then complete.
	body := jobBody(client.ID, "2024-06-03")
	body["actual_hours"] = "2.5"
	rec = ts.do(http.MethodPut, "/v1/jobs/"+job.ID.String(), token, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, path, token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[db.Job](t, rec)
	assert.Equal(t, db.StatusCompleted, done.Status)
	require.True(t, done.TotalCost.Valid)
	assert.Equal(t, "63.75", done.TotalCost.Decimal.StringFixed(2))

	rec = ts.do(http.MethodPost, path, token, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "completed is terminal")

	rec = ts.do(http.MethodPost, path, token, map[string]string{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/jobs/"+uuid.NewString()+"/status", token, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimer(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)
	job := testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 3))
	base := "/v1/jobs/" + job.ID.String() + "/timer/"

	rec := ts.do(http.MethodPost, base+"stop", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "timer not running")

	rec = ts.do(http.MethodPost, base+"start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decodeBody[timerResponse](t, rec)
	assert.True(t, started.Running)
	assert.Equal(t, db.StatusInProgress, started.Status)
	assert.Equal(t, int64(0), started.ElapsedSeconds)

	rec = ts.do(http.MethodPost, base+"start", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "already running")

	ts.advance(90 * time.Minute)
	rec = ts.do(http.MethodPost, base+"stop", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stopped := decodeBody[timerResponse](t, rec)
	assert.False(t, stopped.Running)
	assert.Equal(t, int64(5400), stopped.ElapsedSeconds)
	assert.Equal(t, "1h 30m 00s", stopped.Elapsed)
	require.True(t, stopped.ActualHours.Valid)
	assert.Equal(t, "1.50", stopped.ActualHours.Decimal.StringFixed(2))

	// A second session accumulates.
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"start", token, nil).Code)
	ts.advance(30 * time.Minute)
	rec = ts.do(http.MethodPost, base+"stop", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7200), decodeBody[timerResponse](t, rec).TotalTimeSeconds)
}

func TestTimer_RejectsEnquiries(t *testing.T) {
	ts := newTestServer(t)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	body := jobBody(client.ID, "2024-06-03")
	body["status"] = "enquiry"
	rec := ts.do(http.MethodPost, "/v1/jobs", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	job := decodeBody[db.Job](t, rec)

	rec = ts.do(http.MethodPost, "/v1/jobs/"+job.ID.String()+"/timer/start", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
