package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Report Configuration Methods
// -----------------------------------------------------------------------------

// GetReportConfiguration returns the user's configuration, nil when none is stored,
// or a *MissingTableError when the table is not provisioned.
func (db *DB) GetReportConfiguration(ctx context.Context, userID uuid.UUID) (*ReportConfiguration, error) {
	var c ReportConfiguration
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, primary_color, secondary_color, font_family, logo_path, company_name,
		        template, include_photos, include_tasks, include_notes, include_timer,
		        include_qr_code, footer_text, created_at, updated_at
		 FROM report_configurations WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.PrimaryColor, &c.SecondaryColor, &c.FontFamily, &c.LogoPath,
		&c.CompanyName, &c.Template, &c.IncludePhotos, &c.IncludeTasks, &c.IncludeNotes,
		&c.IncludeTimer, &c.IncludeQRCode, &c.FooterText, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("report_configurations", "get report configuration", err)
	}
	return &c, nil
}

// UpsertReportConfiguration creates or replaces the user's configuration and fills
// in id and timestamps.
func (db *DB) UpsertReportConfiguration(ctx context.Context, c *ReportConfiguration) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO report_configurations (user_id, primary_color, secondary_color, font_family,
		        logo_path, company_name, template, include_photos, include_tasks, include_notes,
		        include_timer, include_qr_code, footer_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (user_id) DO UPDATE SET
		     primary_color = EXCLUDED.primary_color,
		     secondary_color = EXCLUDED.secondary_color,
		     font_family = EXCLUDED.font_family,
		     logo_path = EXCLUDED.logo_path,
		     company_name = EXCLUDED.company_name,
		     template = EXCLUDED.template,
		     include_photos = EXCLUDED.include_photos,
		     include_tasks = EXCLUDED.include_tasks,
		     include_notes = EXCLUDED.include_notes,
		     include_timer = EXCLUDED.include_timer,
		     include_qr_code = EXCLUDED.include_qr_code,
		     footer_text = EXCLUDED.footer_text,
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		c.UserID, c.PrimaryColor, c.SecondaryColor, c.FontFamily, c.LogoPath, c.CompanyName,
		c.Template, c.IncludePhotos, c.IncludeTasks, c.IncludeNotes, c.IncludeTimer,
		c.IncludeQRCode, c.FooterText,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return classify("report_configurations", "save report configuration", err)
	}
	return nil
}
