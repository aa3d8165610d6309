package types

import (
	"github.com/shopspring/decimal"
)

// ClientRequest creates or replaces a client.
type ClientRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
	Address string `json:"address,omitempty" validate:"max=500"`
	Notes   string `json:"notes,omitempty"`
}

// Validate validates the ClientRequest using the validator.
func (r *ClientRequest) Validate() error {
	return validate.Struct(r)
}

// RecurringJobRequest creates a recurring job definition. GenerateNow creates the
// first batch of instances immediately.
type RecurringJobRequest struct {
	ClientID      string           `json:"client_id" validate:"required,uuid"`
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description,omitempty"`
	Frequency     string           `json:"frequency" validate:"required,oneof=daily weekly bi_weekly monthly"`
	StartDate     string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string           `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime string           `json:"scheduled_time" validate:"required,datetime=15:04"`
	DurationHours *decimal.Decimal `json:"duration_hours,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
	GenerateNow   bool             `json:"generate_now,omitempty"`
}

// Validate validates the RecurringJobRequest using the validator.
func (r *RecurringJobRequest) Validate() error {
	return validate.Struct(r)
}

// RecurringJobPatchRequest partially updates a definition. Absent fields are left
// unchanged; clear_end_date removes the end date.
type RecurringJobPatchRequest struct {
	ClientID      *string          `json:"client_id,omitempty" validate:"omitempty,uuid"`
	Title         *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description,omitempty"`
	Frequency     *string          `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly bi_weekly monthly"`
	StartDate     *string          `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string          `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearEndDate  bool             `json:"clear_end_date,omitempty"`
	ScheduledTime *string          `json:"scheduled_time,omitempty" validate:"omitempty,datetime=15:04"`
	DurationHours *decimal.Decimal `json:"duration_hours,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// Validate validates the RecurringJobPatchRequest using the validator.
func (r *RecurringJobPatchRequest) Validate() error {
	return validate.Struct(r)
}

// ActiveRequest toggles a definition's is_active flag.
type ActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// Validate validates the ActiveRequest using the validator.
func (r *ActiveRequest) Validate() error {
	return validate.Struct(r)
}

// JobRequest creates or replaces a one-off job.
type JobRequest struct {
	ClientID      string           `json:"client_id" validate:"required,uuid"`
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description,omitempty"`
	ScheduledDate string           `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime string           `json:"scheduled_time" validate:"required,datetime=15:04"`
	EndTime       string           `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Status        string           `json:"status,omitempty" validate:"omitempty,oneof=enquiry scheduled"`
	AgreedHours   *decimal.Decimal `json:"agreed_hours,omitempty"`
	ActualHours   *decimal.Decimal `json:"actual_hours,omitempty"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate,omitempty"`
}

// Validate validates the JobRequest using the validator.
func (r *JobRequest) Validate() error {
	return validate.Struct(r)
}

// StatusRequest moves a job through the status state machine.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=enquiry scheduled in_progress completed cancelled"`
}

// Validate validates the StatusRequest using the validator.
func (r *StatusRequest) Validate() error {
	return validate.Struct(r)
}

// TaskRequest creates or replaces a checklist task.
type TaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
}

// Validate validates the TaskRequest using the validator.
func (r *TaskRequest) Validate() error {
	return validate.Struct(r)
}

// PhotoRequest records an uploaded photo's object key.
type PhotoRequest struct {
	StoragePath string `json:"storage_path" validate:"required,max=1024"`
	Caption     string `json:"caption,omitempty" validate:"max=500"`
	PhotoType   string `json:"photo_type,omitempty" validate:"omitempty,oneof=before after general"`
}

// Validate validates the PhotoRequest using the validator.
func (r *PhotoRequest) Validate() error {
	return validate.Struct(r)
}

// NoteRequest adds a note to a job.
type NoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// Validate validates the NoteRequest using the validator.
func (r *NoteRequest) Validate() error {
	return validate.Struct(r)
}

// PhotoSelectionRequest includes or excludes a photo from the job report.
type PhotoSelectionRequest struct {
	Include   *bool   `json:"include" validate:"required"`
	Caption   *string `json:"caption,omitempty" validate:"omitempty,max=500"`
	PhotoType *string `json:"photo_type,omitempty" validate:"omitempty,oneof=before after general"`
}

// Validate validates the PhotoSelectionRequest using the validator.
func (r *PhotoSelectionRequest) Validate() error {
	return validate.Struct(r)
}

// TaskSelectionRequest includes or excludes a task from the job report.
type TaskSelectionRequest struct {
	Include *bool `json:"include" validate:"required"`
}

// Validate validates the TaskSelectionRequest using the validator.
func (r *TaskSelectionRequest) Validate() error {
	return validate.Struct(r)
}

// ReportConfigurationRequest updates the caller's report configuration. Absent
// fields keep their stored or default values.
type ReportConfigurationRequest struct {
	PrimaryColor   *string `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color,omitempty" validate:"omitempty,hexcolor"`
	FontFamily     *string `json:"font_family,omitempty" validate:"omitempty,max=64"`
	LogoPath       *string `json:"logo_path,omitempty" validate:"omitempty,max=1024"`
	CompanyName    *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Template       *string `json:"template,omitempty" validate:"omitempty,oneof=standard compact"`
	IncludePhotos  *bool   `json:"include_photos,omitempty"`
	IncludeTasks   *bool   `json:"include_tasks,omitempty"`
	IncludeNotes   *bool   `json:"include_notes,omitempty"`
	IncludeTimer   *bool   `json:"include_timer,omitempty"`
	IncludeQRCode  *bool   `json:"include_qr_code,omitempty"`
	FooterText     *string `json:"footer_text,omitempty" validate:"omitempty,max=500"`
}

// Validate validates the ReportConfigurationRequest using the validator.
func (r *ReportConfigurationRequest) Validate() error {
	return validate.Struct(r)
}
