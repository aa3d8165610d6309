package reporting

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/timetrack"
	qrcode "github.com/skip2/go-qrcode"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const qrCodeSize = 160

var loadTemplates = sync.OnceValues(func() (*template.Template, error) {
	tmpl, err := template.New("report").ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse report templates", Cause: err}
	}
	return tmpl, nil
})

// documentView is the flattened, pre-formatted data the templates read.
type documentView struct {
	Title       string
	ThemeCSS    template.CSS
	CompanyName string
	LogoURL     template.URL

	JobTitle    string
	JobDate     string
	JobTime     string
	Status      string
	Description string
	AgreedHours string
	ActualHours string
	TotalCost   string

	ClientName    string
	ClientAddress string
	ClientEmail   string
	ClientPhone   string

	Tasks  []taskView
	Photos []photoView
	Notes  []noteView
	Timer  string

	GeneratedAt string
	FooterText  string
	PortalURL   string
	QRCode      template.URL
}

type taskView struct {
	Title       string
	Description string
	Completed   bool
}

type photoView struct {
	URL     template.URL
	Caption string
	Type    string
}

type noteView struct {
	Content string
	Date    string
}

// Render produces the HTML document for agg. It reads no clock, so equal aggregates
// render to equal bytes.
func Render(agg *Aggregate) ([]byte, error) {
	if agg == nil {
		return nil, &RenderError{Message: "aggregate is nil"}
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	view, err := buildView(agg)
	if err != nil {
		return nil, &RenderError{Message: "failed to build document data", Cause: err}
	}

	name := agg.Configuration.Template
	if name != db.TemplateCompact {
		name = db.TemplateStandard
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, &TemplateError{Message: "failed to execute template " + name, Cause: err}
	}
	return buf.Bytes(), nil
}

func buildView(agg *Aggregate) (*documentView, error) {
	cfg := agg.Configuration
	job := agg.Job

	v := &documentView{
		Title:         job.Title + " - Job Report",
		ThemeCSS:      ThemeFor(cfg).CSS(),
		CompanyName:   cfg.CompanyName,
		LogoURL:       imageURL(agg.LogoURL),
		JobTitle:      job.Title,
		JobDate:       job.ScheduledDate.Format("Monday, 2 January 2006"),
		JobTime:       job.ScheduledTime,
		Status:        statusLabel(job.Status),
		Description:   job.Description,
		ClientName:    agg.Client.Name,
		ClientAddress: agg.Client.Address,
		ClientEmail:   agg.Client.Email,
		ClientPhone:   agg.Client.Phone,
		GeneratedAt:   agg.GeneratedAt.UTC().Format("2 January 2006 15:04 UTC"),
		FooterText:    cfg.FooterText,
	}
	if job.EndTime != nil && *job.EndTime != "" {
		v.JobTime += " - " + *job.EndTime
	}
	if !job.AgreedHours.IsZero() {
		v.AgreedHours = job.AgreedHours.StringFixed(2)
	}
	if job.ActualHours.Valid {
		v.ActualHours = job.ActualHours.Decimal.StringFixed(2)
	}
	if job.TotalCost.Valid {
		v.TotalCost = job.TotalCost.Decimal.StringFixed(2)
	}

	if cfg.IncludeTasks {
		for _, t := range agg.IncludedTasks() {
			v.Tasks = append(v.Tasks, taskView{Title: t.Title, Description: t.Description, Completed: t.Completed})
		}
	}
	if cfg.IncludePhotos {
		for _, p := range agg.IncludedPhotos() {
			u := imageURL(p.URL)
			if u == "" {
				continue
			}
			v.Photos = append(v.Photos, photoView{URL: u, Caption: p.Caption, Type: photoTypeLabel(p.PhotoType)})
		}
	}
	if cfg.IncludeNotes {
		for _, n := range agg.Notes {
			v.Notes = append(v.Notes, noteView{Content: n.Content, Date: n.CreatedAt.UTC().Format("2 Jan 2006 15:04")})
		}
	}
	if cfg.IncludeTimer && agg.TimerSeconds > 0 {
		v.Timer = timetrack.FormatDuration(agg.TimerSeconds)
	}
	if agg.PortalURL != "" {
		v.PortalURL = agg.PortalURL
		if cfg.IncludeQRCode {
			qr, err := qrDataURI(agg.PortalURL)
			if err != nil {
				return nil, err
			}
			v.QRCode = qr
		}
	}
	return v, nil
}

func qrDataURI(content string) (template.URL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

// imageURL admits http(s), data:image and relative URLs. Anything else renders as "".
func imageURL(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "data:") {
		if strings.HasPrefix(lower, "data:image/") {
			return template.URL(raw)
		}
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "", "http", "https":
		return template.URL(raw)
	}
	return ""
}

func statusLabel(s db.JobStatus) string {
	switch s {
	case db.StatusInProgress:
		return "In progress"
	case "":
		return ""
	}
	str := string(s)
	return strings.ToUpper(str[:1]) + str[1:]
}

func photoTypeLabel(t db.PhotoType) string {
	switch t {
	case db.PhotoBefore:
		return "Before"
	case db.PhotoAfter:
		return "After"
	}
	return ""
}

// RenderDocument prepares and renders the HTML report of a job.
func (p *Pipeline) RenderDocument(ctx context.Context, userID, jobID uuid.UUID) ([]byte, error) {
	agg, err := p.PrepareReportData(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	return Render(agg)
}

// RenderPDF prepares and renders a job report and prints it to PDF.
func (p *Pipeline) RenderPDF(ctx context.Context, userID, jobID uuid.UUID) ([]byte, error) {
	if p.opts.PDF == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := p.RenderDocument(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	out, err := p.opts.PDF.Render(ctx, html)
	if err != nil {
		return nil, &RenderError{Message: "failed to print pdf", Cause: err}
	}
	p.logger.Infow("Rendered report pdf", "job_id", jobID, "bytes", len(out))
	return out, nil
}
