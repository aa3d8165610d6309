package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/schemas"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAggregate() *Aggregate {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cfg := db.DefaultReportConfiguration(userID)
	cfg.CompanyName = "Sparkle Cleaning"
	cfg.FooterText = "Thank you for your business"
	end := "12:00"

	return &Aggregate{
		Job: db.Job{
			ID:            uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			UserID:        userID,
			Title:         "End of tenancy clean",
			Description:   "Three bedroom flat",
			ScheduledDate: db.NewDate(2024, time.June, 4),
			ScheduledTime: "09:00",
			EndTime:       &end,
			Status:        db.StatusCompleted,
			AgreedHours:   decimal.RequireFromString("3"),
			ActualHours:   decimal.NewNullDecimal(decimal.RequireFromString("3.25")),
			TotalCost:     decimal.NewNullDecimal(decimal.RequireFromString("81.25")),
		},
		Client:        db.Client{Name: "Jane Client", Address: "12 High Street", Email: "jane@example.com"},
		Configuration: cfg,
		Tasks: []TaskEntry{
			{Title: "Hoover carpets", Completed: true, Include: true, DisplayOrder: 0},
			{Title: "Secret task", Include: false, DisplayOrder: 1},
			{Title: "Clean oven", Description: "Inside and racks", Include: true, DisplayOrder: 2},
		},
		Photos: []PhotoEntry{
			{URL: "https://cdn.example.com/b.jpg", Caption: "Kitchen before", PhotoType: db.PhotoBefore, Include: true, DisplayOrder: 0},
			{URL: "https://cdn.example.com/hidden.jpg", Caption: "Hidden", Include: false, DisplayOrder: 1},
			{URL: "https://cdn.example.com/a.jpg", Caption: "Kitchen after", PhotoType: db.PhotoAfter, Include: true, DisplayOrder: 2},
		},
		Notes:        []db.Note{{Content: "Key under the mat", CreatedAt: time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC)}},
		PortalURL:    "https://app.example.com/portal/abc123",
		TimerSeconds: 11709,
		GeneratedAt:  time.Date(2024, 6, 4, 15, 30, 0, 0, time.UTC),
	}
}

func parse(t *testing.T, html []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRender_Deterministic(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.IncludeQRCode = true
	agg.Configuration.IncludeTimer = true

	first, err := Render(agg)
	require.NoError(t, err)
	second, err := Render(sampleAggregateWith(func(a *Aggregate) {
		a.Configuration.IncludeQRCode = true
		a.Configuration.IncludeTimer = true
	}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func sampleAggregateWith(mod func(*Aggregate)) *Aggregate {
	agg := sampleAggregate()
	mod(agg)
	return agg
}

func TestRender_StandardSections(t *testing.T) {
	html, err := Render(sampleAggregate())
	require.NoError(t, err)
	doc := parse(t, html)

	assert.Equal(t, 1, doc.Find("body.template-standard").Length())
	assert.Equal(t, "End of tenancy clean", strings.TrimSpace(doc.Find("header h1").Text()))
	assert.Equal(t, "Sparkle Cleaning", strings.TrimSpace(doc.Find("header .company").Text()))
	assert.Contains(t, doc.Find(".job-info").Text(), "Tuesday, 4 June 2024")
	assert.Contains(t, doc.Find(".job-info").Text(), "09:00 - 12:00")
	assert.Contains(t, doc.Find(".job-info").Text(), "81.25")
	assert.Contains(t, doc.Find(".client-info").Text(), "12 High Street")

	var tasks []string
	doc.Find(".tasks li").Each(func(_ int, s *goquery.Selection) {
		tasks = append(tasks, s.Text())
	})
	require.Len(t, tasks, 2)
	assert.Contains(t, tasks[0], "Hoover carpets")
	assert.Contains(t, tasks[1], "Clean oven")
	assert.Equal(t, 1, doc.Find(".tasks li.done").Length())

	var srcs []string
	doc.Find(".photos img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	assert.Equal(t, []string{"https://cdn.example.com/b.jpg", "https://cdn.example.com/a.jpg"}, srcs)
	assert.Contains(t, doc.Find(".photos figcaption").First().Text(), "Before")

	assert.Contains(t, doc.Find(".notes").Text(), "Key under the mat")
	assert.Contains(t, doc.Find(".footer").Text(), "Generated 4 June 2024 15:30 UTC")
	assert.Contains(t, doc.Find(".footer").Text(), "Thank you for your business")

	// Timer and QR code are off by default.
	assert.Equal(t, 0, doc.Find(".timer").Length())
	assert.Equal(t, 0, doc.Find("img.qr").Length())
}

func TestRender_TogglesHideSections(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.IncludeTasks = false
	agg.Configuration.IncludePhotos = false
	agg.Configuration.IncludeNotes = false

	html, err := Render(agg)
	require.NoError(t, err)
	doc := parse(t, html)

	assert.Equal(t, 0, doc.Find(".task-list").Length())
	assert.Equal(t, 0, doc.Find(".photo-grid").Length())
	assert.Equal(t, 0, doc.Find(".notes").Length())
}

func TestRender_TimerAndQRCode(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.IncludeTimer = true
	agg.Configuration.IncludeQRCode = true

	html, err := Render(agg)
	require.NoError(t, err)
	doc := parse(t, html)

	assert.Contains(t, doc.Find(".timer").Text(), "3h 15m 09s")
	src, ok := doc.Find("img.qr").Attr("src")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(src, "data:image/png;base64,"), src)
	href, _ := doc.Find(".portal a").Attr("href")
	assert.Equal(t, "https://app.example.com/portal/abc123", href)
}

func TestRender_NoQRCodeWithoutPortal(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.IncludeQRCode = true
	agg.PortalURL = ""

	html, err := Render(agg)
	require.NoError(t, err)
	assert.Equal(t, 0, parse(t, html).Find("img.qr").Length())
}

func TestRender_CompactTemplate(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.Template = db.TemplateCompact

	html, err := Render(agg)
	require.NoError(t, err)
	doc := parse(t, html)

	assert.Equal(t, 1, doc.Find("body.template-compact").Length())
	assert.Contains(t, doc.Find("table.summary").Text(), "Jane Client")
	assert.Equal(t, 2, doc.Find(".photos img").Length())
}

func TestRender_UnknownTemplateFallsBackToStandard(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.Template = "fancy"

	html, err := Render(agg)
	require.NoError(t, err)
	assert.Equal(t, 1, parse(t, html).Find("body.template-standard").Length())
}

func TestRender_ThemeSanitized(t *testing.T) {
	agg := sampleAggregate()
	agg.Configuration.PrimaryColor = "red;} body{background:url(https://evil.example)"
	agg.Configuration.SecondaryColor = "#0F766E"
	agg.Configuration.FontFamily = "Comic Sans MS"

	html, err := Render(agg)
	require.NoError(t, err)
	style := parse(t, html).Find("style").Text()

	assert.Contains(t, style, "--primary: #1e40af;")
	assert.Contains(t, style, "--secondary: #0F766E;")
	assert.Contains(t, style, "--font: Helvetica, Arial, sans-serif;")
	assert.NotContains(t, style, "evil.example")
}

func TestRender_EscapesContent(t *testing.T) {
	agg := sampleAggregate()
	agg.Notes = []db.Note{{Content: `<script>alert("x")</script>`}}
	agg.Photos[0].URL = "javascript:alert(1)"

	html, err := Render(agg)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>alert")
	assert.NotContains(t, string(html), "javascript:")

	doc := parse(t, html)
	assert.Equal(t, 1, doc.Find(".photos img").Length())
	assert.Contains(t, doc.Find(".notes").Text(), `<script>alert("x")</script>`)
}

func TestRender_Nil(t *testing.T) {
	_, err := Render(nil)
	var re *RenderError
	assert.True(t, errors.As(err, &re))
}

func TestImageURL(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/a.jpg": "https://cdn.example.com/a.jpg",
		"jobs/a.jpg":                    "jobs/a.jpg",
		"data:image/png;base64,AAAA":    "data:image/png;base64,AAAA",
		"data:text/html,<b>x</b>":       "",
		"javascript:alert(1)":           "",
		"  ":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, string(imageURL(in)), in)
	}
}

func TestFontFamilies_MatchSchema(t *testing.T) {
	var schema struct {
		Properties struct {
			FontFamily struct {
				Enum []string `json:"enum"`
			} `json:"font_family"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(schemas.ReportConfigurationSchema()), &schema))
	assert.ElementsMatch(t, schema.Properties.FontFamily.Enum, FontFamilies())
}

type fakePDF struct {
	got []byte
	err error
}

func (f *fakePDF) Render(_ context.Context, html []byte) ([]byte, error) {
	f.got = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.RenderPDF(ctx, f.userID, f.job.ID)
	assert.ErrorIs(t, err, ErrPDFUnavailable)

	renderer := &fakePDF{}
	p := NewPipeline(f.store, nil, Options{PDF: renderer, Now: func() time.Time { return reportTime }}, nil)
	out, err := p.RenderPDF(ctx, f.userID, f.job.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(out))
	assert.Contains(t, string(renderer.got), "<!DOCTYPE html>")

	renderer.err = errors.New("chrome crashed")
	_, err = p.RenderPDF(ctx, f.userID, f.job.ID)
	var re *RenderError
	assert.True(t, errors.As(err, &re))
}
