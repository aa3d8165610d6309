package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/jonathan/cleanops/internal/storage"
	"github.com/jonathan/cleanops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePDF records the HTML it was given and returns a fixed document.
type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) Render(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func withCDN(d *Deps) {
	d.Resolver = &storage.BaseURLResolver{Base: "https://cdn.example.com"}
}

func TestJobChildren(t *testing.T) {
	ts := newTestServer(t, withCDN)
	userID, client := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)
	job := testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 3))
	base := "/v1/jobs/" + job.ID.String()

	// Tasks
	rec := ts.do(http.MethodPost, base+"/tasks", token, map[string]any{"title": "Kitchen", "order_index": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decodeBody[db.Task](t, rec)
	assert.Equal(t, job.ID, task.JobID)

	rec = ts.do(http.MethodPut, "/v1/tasks/"+task.ID.String(), token, map[string]any{"title": "Kitchen and hob", "is_completed": true, "order_index": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[db.Task](t, rec)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "Kitchen and hob", updated.Title)

	rec = ts.do(http.MethodGet, base+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]db.Task](t, rec), 1)

	// Photos
	rec = ts.do(http.MethodPost, base+"/photos", token, map[string]string{"storage_path": "jobs/kitchen.jpg", "caption": "Before"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	photo := decodeBody[photoResponse](t, rec)
	assert.Equal(t, db.PhotoGeneral, photo.PhotoType)
	assert.Equal(t, "https://cdn.example.com/jobs/kitchen.jpg", photo.URL)

	rec = ts.do(http.MethodGet, base+"/photos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	photos := decodeBody[[]photoResponse](t, rec)
	require.Len(t, photos, 1)
	assert.Equal(t, photo.URL, photos[0].URL)

	rec = ts.do(http.MethodPost, base+"/photos", token, map[string]string{"storage_path": "x.jpg", "photo_type": "during"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Notes
	rec = ts.do(http.MethodPost, base+"/notes", token, map[string]string{"content": "Key under the mat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	note := decodeBody[db.Note](t, rec)

	rec = ts.do(http.MethodGet, base+"/notes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]db.Note](t, rec), 1)

	// Deletes
	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/v1/tasks/"+task.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/v1/photos/"+photo.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/v1/notes/"+note.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/v1/tasks/"+task.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/v1/photos/"+photo.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/v1/notes/"+note.ID.String(), token, nil).Code)
}

func TestJobChildren_UnknownJob(t *testing.T) {
	ts := newTestServer(t)
	userID, _ := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)
	base := "/v1/jobs/" + uuid.NewString()

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base+"/tasks", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, base+"/tasks", token, map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, base+"/photos", token, map[string]string{"storage_path": "x.jpg"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, base+"/notes", token, map[string]string{"content": "x"}).Code)
}

// reportFixture is a completed job with one task, one photo and one note.
type reportFixture struct {
	userID uuid.UUID
	token  string
	client *db.Client
	job    *db.Job
	task   db.Task
	photo  db.Photo
}

func seedReport(t *testing.T, ts *testServer) reportFixture {
	t.Helper()
	ctx := t.Context()
	userID, client := testutil.SeedOwner(t, ts.store)
	job := testutil.SeedJob(t, ts.store, userID, client, db.NewDate(2024, time.June, 3))

	f := reportFixture{userID: userID, token: ts.token(userID), client: client, job: job}
	f.task = db.Task{JobID: job.ID, Title: "Hoover stairs", IsCompleted: true}
	ok, err := ts.store.CreateTask(ctx, userID, &f.task)
	require.NoError(t, err)
	require.True(t, ok)
	f.photo = db.Photo{JobID: job.ID, StoragePath: "jobs/stairs.jpg", PhotoType: db.PhotoAfter, Caption: "Stairs"}
	ok, err = ts.store.CreatePhoto(ctx, userID, &f.photo)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = ts.store.CreateNote(ctx, userID, &db.Note{JobID: job.ID, Content: "All done"})
	require.NoError(t, err)
	require.True(t, ok)

	job.Status = db.StatusCompleted
	ok, err = ts.store.UpdateJob(ctx, job)
	require.NoError(t, err)
	require.True(t, ok)
	return f
}

func TestGetReport(t *testing.T) {
	ts := newTestServer(t, withCDN)
	f := seedReport(t, ts)

	rec := ts.do(http.MethodGet, "/v1/jobs/"+f.job.ID.String()+"/report", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	agg := decodeBody[reporting.Aggregate](t, rec)
	assert.Equal(t, f.job.ID, agg.Job.ID)
	assert.Equal(t, f.client.Name, agg.Client.Name)
	require.Len(t, agg.Tasks, 1)
	assert.True(t, agg.Tasks[0].Include)
	require.Len(t, agg.Photos, 1)
	assert.Equal(t, "https://cdn.example.com/jobs/stairs.jpg", agg.Photos[0].URL)
	assert.Len(t, agg.Notes, 1)
	assert.Equal(t, "https://app.example.com/portal/"+f.client.PortalToken, agg.PortalURL)

	rec = ts.do(http.MethodGet, "/v1/jobs/"+uuid.NewString()+"/report", f.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHTML_RespectsSelections(t *testing.T) {
	ts := newTestServer(t, withCDN)
	f := seedReport(t, ts)
	base := "/v1/jobs/" + f.job.ID.String()

	rec := ts.do(http.MethodGet, base+"/report.html", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	html := rec.Body.String()
	assert.Contains(t, html, f.job.Title)
	assert.Contains(t, html, "Hoover stairs")
	assert.Contains(t, html, "https://cdn.example.com/jobs/stairs.jpg")

	rec = ts.do(http.MethodPut, base+"/report/tasks/"+f.task.ID.String(), f.token, map[string]bool{"include": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decodeBody[db.ReportTask](t, rec).IncludeInReport)

	caption := "Stairs, after"
	rec = ts.do(http.MethodPut, base+"/report/photos/"+f.photo.ID.String(), f.token, map[string]any{
		"include": false,
		"caption": caption,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sel := decodeBody[db.ReportPhoto](t, rec)
	assert.False(t, sel.IncludeInReport)
	assert.Equal(t, caption, sel.Caption)
	assert.Equal(t, db.PhotoAfter, sel.PhotoType)

	rec = ts.do(http.MethodGet, base+"/report.html", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	html = rec.Body.String()
	assert.NotContains(t, html, "Hoover stairs")
	assert.NotContains(t, html, "jobs/stairs.jpg")
}

func TestReportSelections_Validation(t *testing.T) {
	ts := newTestServer(t)
	f := seedReport(t, ts)
	base := "/v1/jobs/" + f.job.ID.String()

	rec := ts.do(http.MethodPut, base+"/report/tasks/"+f.task.ID.String(), f.token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "include is required")

	rec = ts.do(http.MethodPut, base+"/report/photos/"+f.photo.ID.String(), f.token, map[string]any{"include": true, "photo_type": "during"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, base+"/report/tasks/"+uuid.NewString(), f.token, map[string]bool{"include": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPut, base+"/report/photos/"+uuid.NewString(), f.token, map[string]bool{"include": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportPDF(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t)
		f := seedReport(t, ts)

		rec := ts.do(http.MethodGet, "/v1/jobs/"+f.job.ID.String()+"/report.pdf", f.token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "pdf")
	})

	t.Run("rendered", func(t *testing.T) {
		renderer := &fakePDF{}
		ts := newTestServer(t, func(d *Deps) { d.PDF = renderer })
		f := seedReport(t, ts)

		rec := ts.do(http.MethodGet, "/v1/jobs/"+f.job.ID.String()+"/report.pdf", f.token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="report-`+f.job.ID.String()+`.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
		assert.Contains(t, string(renderer.html), f.job.Title)
	})

	t.Run("renderer failure", func(t *testing.T) {
		ts := newTestServer(t, func(d *Deps) { d.PDF = &fakePDF{err: errors.New("chrome crashed")} })
		f := seedReport(t, ts)

		rec := ts.do(http.MethodGet, "/v1/jobs/"+f.job.ID.String()+"/report.pdf", f.token, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", errorMessage(t, rec))
	})
}

func TestReportConfiguration(t *testing.T) {
	ts := newTestServer(t)
	userID, _ := testutil.SeedOwner(t, ts.store)
	token := ts.token(userID)

	rec := ts.do(http.MethodGet, "/v1/report-configuration", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decodeBody[db.ReportConfiguration](t, rec)
	assert.Equal(t, db.TemplateStandard, cfg.Template)
	assert.True(t, cfg.IncludePhotos)

	rec = ts.do(http.MethodPut, "/v1/report-configuration", token, `{"template":"compact","primary_color":"#0f766e","include_qr_code":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decodeBody[db.ReportConfiguration](t, rec)
	assert.Equal(t, db.TemplateCompact, saved.Template)
	assert.Equal(t, "#0f766e", saved.PrimaryColor)
	assert.True(t, saved.IncludeQRCode)
	assert.True(t, saved.IncludePhotos, "absent fields keep their values")

	rec = ts.do(http.MethodGet, "/v1/report-configuration", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.TemplateCompact, decodeBody[db.ReportConfiguration](t, rec).Template)

	for _, bad := range []string{`{"template":"fancy"}`, `{"primary_color":"teal"}`, `not json`} {
		rec = ts.do(http.MethodPut, "/v1/report-configuration", token, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestPortal(t *testing.T) {
	ts := newTestServer(t, withCDN)
	f := seedReport(t, ts)
	upcoming := testutil.SeedJob(t, ts.store, f.userID, f.client, db.NewDate(2024, time.June, 10))

	// A job for another client of the same owner stays hidden.
	other := &db.Client{UserID: f.userID, Name: "Other client"}
	require.NoError(t, ts.store.CreateClient(t.Context(), other))
	testutil.SeedJob(t, ts.store, f.userID, other, db.NewDate(2024, time.June, 11))

	rec := ts.do(http.MethodGet, "/portal/"+f.client.PortalToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[portalView](t, rec)
	assert.Equal(t, "Sparkle Cleaning", view.BusinessName)
	assert.Equal(t, f.client.Name, view.ClientName)
	require.Len(t, view.Upcoming, 1)
	assert.Equal(t, upcoming.ID, view.Upcoming[0].ID)
	assert.Empty(t, view.Upcoming[0].ReportPath)
	require.Len(t, view.Completed, 1)
	assert.Equal(t, f.job.ID, view.Completed[0].ID)
	assert.Equal(t, "/portal/"+f.client.PortalToken+"/jobs/"+f.job.ID.String()+"/report", view.Completed[0].ReportPath)

	rec = ts.do(http.MethodGet, view.Completed[0].ReportPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), f.job.Title)

	// Reports of unfinished jobs are not published.
	rec = ts.do(http.MethodGet, "/portal/"+f.client.PortalToken+"/jobs/"+upcoming.ID.String()+"/report", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/portal/"+other.PortalToken+"/jobs/"+f.job.ID.String()+"/report", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "jobs of another client")

	rec = ts.do(http.MethodGet, "/portal/not-a-real-token", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "portal not found", errorMessage(t, rec))
}
