package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/timetrack"
	"golang.org/x/sync/errgroup"
)

// PrepareReportData gathers everything needed to render the report of one job. Missing
// report tables degrade to defaults; any other storage failure aborts.
func (p *Pipeline) PrepareReportData(ctx context.Context, userID, jobID uuid.UUID) (*Aggregate, error) {
	job, err := p.store.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("get job", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", jobID)
	}

	var (
		client *db.Client
		owner  *db.User
		tasks  []db.Task
		photos []db.Photo
		notes  []db.Note
		config *db.ReportConfiguration
		cfgOK  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := p.store.GetClient(gctx, userID, job.ClientID)
		if err != nil {
			return apperr.Storage("get client", err)
		}
		if c == nil {
			return apperr.NotFound("client", job.ClientID)
		}
		client = c
		return nil
	})
	g.Go(func() error {
		u, err := p.store.GetUser(gctx, userID)
		if err != nil {
			return apperr.Storage("get user", err)
		}
		owner = u
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = p.store.ListTasks(gctx, userID, jobID)
		return apperr.Storage("list tasks", err)
	})
	g.Go(func() error {
		var err error
		photos, err = p.store.ListPhotos(gctx, userID, jobID)
		return apperr.Storage("list photos", err)
	})
	g.Go(func() error {
		var err error
		notes, err = p.store.ListNotes(gctx, userID, jobID)
		return apperr.Storage("list notes", err)
	})
	g.Go(func() error {
		var err error
		config, cfgOK, err = p.loadOrCreateConfiguration(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := &Aggregate{
		Job:           *job,
		Client:        *client,
		Configuration: *config,
		Notes:         notes,
		GeneratedAt:   p.opts.Now().UTC().Truncate(time.Second),
	}
	if agg.Notes == nil {
		agg.Notes = []db.Note{}
	}
	if !cfgOK {
		agg.Degraded = append(agg.Degraded, "report_configurations")
	}
	if agg.Configuration.CompanyName == "" && owner != nil {
		agg.Configuration.CompanyName = owner.BusinessName
	}

	photoSel, ok, err := p.ensurePhotoSelections(ctx, jobID, photos)
	if err != nil {
		return nil, err
	}
	if !ok {
		agg.Degraded = append(agg.Degraded, "report_photos")
	}
	agg.Photos = p.mergePhotos(ctx, photos, photoSel)

	taskSel, ok, err := p.ensureTaskSelections(ctx, jobID, tasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		agg.Degraded = append(agg.Degraded, "report_tasks")
	}
	agg.Tasks = mergeTasks(tasks, taskSel)

	agg.LogoURL = p.resolve(ctx, agg.Configuration.LogoPath)
	agg.PortalURL = p.PortalURL(client.PortalToken)
	agg.TimerSeconds = timetrack.Elapsed(job, agg.GeneratedAt)

	p.logger.Debugw("Prepared report data",
		"job_id", jobID,
		"tasks", len(agg.Tasks),
		"photos", len(agg.Photos),
		"notes", len(agg.Notes),
		"degraded", agg.Degraded,
	)
	return agg, nil
}

// loadOrCreateConfiguration returns the user's configuration, persisting defaults on
// first use. ok is false when the table is missing and defaults were substituted.
func (p *Pipeline) loadOrCreateConfiguration(ctx context.Context, userID uuid.UUID) (*db.ReportConfiguration, bool, error) {
	cfg, err := p.store.GetReportConfiguration(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report configuration table missing, using defaults", "user_id", userID, "error", err)
			def := db.DefaultReportConfiguration(userID)
			return &def, false, nil
		}
		return nil, false, apperr.Storage("get report configuration", err)
	}
	if cfg != nil {
		return cfg, true, nil
	}

	def := db.DefaultReportConfiguration(userID)
	if err := p.store.UpsertReportConfiguration(ctx, &def); err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report configuration table missing, using defaults", "user_id", userID, "error", err)
			return &def, false, nil
		}
		return nil, false, apperr.Storage("create report configuration", err)
	}
	return &def, true, nil
}

// ensurePhotoSelections creates include=true rows for photos that have none, appended
// after the existing display order in upload order. ok is false when the selection
// table is missing; the returned rows are then in-memory defaults.
func (p *Pipeline) ensurePhotoSelections(ctx context.Context, jobID uuid.UUID, photos []db.Photo) ([]db.ReportPhoto, bool, error) {
	existing, err := p.store.ListReportPhotos(ctx, jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report photo selections table missing, including all photos", "job_id", jobID, "error", err)
			return defaultPhotoSelections(jobID, photos, nil, 0), false, nil
		}
		return nil, false, apperr.Storage("list report photos", err)
	}

	next := 0
	for _, rp := range existing {
		if rp.DisplayOrder >= next {
			next = rp.DisplayOrder + 1
		}
	}
	missing := defaultPhotoSelections(jobID, photos, existing, next)
	if len(missing) == 0 {
		return existing, true, nil
	}
	if err := p.store.InsertReportPhotos(ctx, missing); err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report photo selections table missing, including all photos", "job_id", jobID, "error", err)
			return append(existing, missing...), false, nil
		}
		return nil, false, apperr.Storage("create report photos", err)
	}
	return append(existing, missing...), true, nil
}

func defaultPhotoSelections(jobID uuid.UUID, photos []db.Photo, existing []db.ReportPhoto, start int) []db.ReportPhoto {
	have := make(map[uuid.UUID]bool, len(existing))
	for _, rp := range existing {
		have[rp.PhotoID] = true
	}
	var out []db.ReportPhoto
	for _, ph := range photos {
		if have[ph.ID] {
			continue
		}
		out = append(out, db.ReportPhoto{
			JobID:           jobID,
			PhotoID:         ph.ID,
			IncludeInReport: true,
			Caption:         ph.Caption,
			PhotoType:       ph.PhotoType,
			DisplayOrder:    start + len(out),
		})
	}
	return out
}

// ensureTaskSelections mirrors ensurePhotoSelections for tasks.
func (p *Pipeline) ensureTaskSelections(ctx context.Context, jobID uuid.UUID, tasks []db.Task) ([]db.ReportTask, bool, error) {
	existing, err := p.store.ListReportTasks(ctx, jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report task selections table missing, including all tasks", "job_id", jobID, "error", err)
			return defaultTaskSelections(jobID, tasks, nil, 0), false, nil
		}
		return nil, false, apperr.Storage("list report tasks", err)
	}

	next := 0
	for _, rt := range existing {
		if rt.DisplayOrder >= next {
			next = rt.DisplayOrder + 1
		}
	}
	missing := defaultTaskSelections(jobID, tasks, existing, next)
	if len(missing) == 0 {
		return existing, true, nil
	}
	if err := p.store.InsertReportTasks(ctx, missing); err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report task selections table missing, including all tasks", "job_id", jobID, "error", err)
			return append(existing, missing...), false, nil
		}
		return nil, false, apperr.Storage("create report tasks", err)
	}
	return append(existing, missing...), true, nil
}

func defaultTaskSelections(jobID uuid.UUID, tasks []db.Task, existing []db.ReportTask, start int) []db.ReportTask {
	have := make(map[uuid.UUID]bool, len(existing))
	for _, rt := range existing {
		have[rt.TaskID] = true
	}
	var out []db.ReportTask
	for _, t := range tasks {
		if have[t.ID] {
			continue
		}
		out = append(out, db.ReportTask{
			JobID:           jobID,
			TaskID:          t.ID,
			IncludeInReport: true,
			DisplayOrder:    start + len(out),
		})
	}
	return out
}

// mergePhotos joins photos with their selections in display order. Ties keep upload
// order. Selections whose photo no longer exists are dropped.
func (p *Pipeline) mergePhotos(ctx context.Context, photos []db.Photo, selections []db.ReportPhoto) []PhotoEntry {
	byPhoto := make(map[uuid.UUID]db.ReportPhoto, len(selections))
	for _, rp := range selections {
		byPhoto[rp.PhotoID] = rp
	}
	out := make([]PhotoEntry, 0, len(photos))
	for _, ph := range photos {
		entry := PhotoEntry{
			PhotoID:      ph.ID,
			Caption:      ph.Caption,
			PhotoType:    ph.PhotoType,
			Include:      true,
			DisplayOrder: len(out),
		}
		if rp, ok := byPhoto[ph.ID]; ok {
			entry.Include = rp.IncludeInReport
			entry.DisplayOrder = rp.DisplayOrder
			if rp.Caption != "" {
				entry.Caption = rp.Caption
			}
			if rp.PhotoType.Valid() {
				entry.PhotoType = rp.PhotoType
			}
		}
		entry.URL = p.resolve(ctx, ph.StoragePath)
		out = append(out, entry)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DisplayOrder < out[b].DisplayOrder })
	return out
}

func mergeTasks(tasks []db.Task, selections []db.ReportTask) []TaskEntry {
	byTask := make(map[uuid.UUID]db.ReportTask, len(selections))
	for _, rt := range selections {
		byTask[rt.TaskID] = rt
	}
	out := make([]TaskEntry, 0, len(tasks))
	for _, t := range tasks {
		entry := TaskEntry{
			TaskID:       t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Completed:    t.IsCompleted,
			Include:      true,
			DisplayOrder: len(out),
		}
		if rt, ok := byTask[t.ID]; ok {
			entry.Include = rt.IncludeInReport
			entry.DisplayOrder = rt.DisplayOrder
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DisplayOrder < out[b].DisplayOrder })
	return out
}

// resolve maps a stored path to a URL. Failures are logged and yield "" so one bad
// object key does not block the report.
func (p *Pipeline) resolve(ctx context.Context, path string) string {
	if path == "" {
		return ""
	}
	u, err := p.resolver.PublicURL(ctx, path)
	if err != nil {
		p.logger.Warnw("Failed to resolve storage path", "path", path, "error", err)
		return ""
	}
	return u
}
