package db

import (
	"time"

	"github.com/google/uuid"
)

// Report templates.
const (
	TemplateStandard = "standard"
	TemplateCompact  = "compact"
)

// ReportConfiguration holds a user's report theme and content toggles.
type ReportConfiguration struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	FontFamily     string    `json:"font_family"`
	LogoPath       string    `json:"logo_path,omitempty"`
	CompanyName    string    `json:"company_name,omitempty"`
	Template       string    `json:"template"`
	IncludePhotos  bool      `json:"include_photos"`
	IncludeTasks   bool      `json:"include_tasks"`
	IncludeNotes   bool      `json:"include_notes"`
	IncludeTimer   bool      `json:"include_timer"`
	IncludeQRCode  bool      `json:"include_qr_code"`
	FooterText     string    `json:"footer_text,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DefaultReportConfiguration is used for new users and whenever the
// report_configurations table is not provisioned.
func DefaultReportConfiguration(userID uuid.UUID) ReportConfiguration {
	return ReportConfiguration{
		UserID:         userID,
		PrimaryColor:   "#1e40af",
		SecondaryColor: "#64748b",
		FontFamily:     "Helvetica",
		Template:       TemplateStandard,
		IncludePhotos:  true,
		IncludeTasks:   true,
		IncludeNotes:   true,
		IncludeTimer:   false,
		IncludeQRCode:  false,
	}
}

// ReportPhoto is the per-report selection of a Photo.
type ReportPhoto struct {
	ID              uuid.UUID `json:"id"`
	JobID           uuid.UUID `json:"job_id"`
	PhotoID         uuid.UUID `json:"photo_id"`
	IncludeInReport bool      `json:"include_in_report"`
	Caption         string    `json:"caption,omitempty"`
	PhotoType       PhotoType `json:"photo_type"`
	DisplayOrder    int       `json:"display_order"`
}

// ReportTask is the per-report selection of a Task.
type ReportTask struct {
	ID              uuid.UUID `json:"id"`
	JobID           uuid.UUID `json:"job_id"`
	TaskID          uuid.UUID `json:"task_id"`
	IncludeInReport bool      `json:"include_in_report"`
	DisplayOrder    int       `json:"display_order"`
}
