package reporting

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/schemas"
	"github.com/jonathan/cleanops/internal/types"
)

// GetConfiguration returns the user's report configuration, or the defaults when none
// is stored or the table is missing. Nothing is persisted.
func (p *Pipeline) GetConfiguration(ctx context.Context, userID uuid.UUID) (*db.ReportConfiguration, error) {
	cfg, err := p.store.GetReportConfiguration(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotProvisioned) {
			p.logger.Warnw("Report configuration table missing, using defaults", "user_id", userID, "error", err)
			def := db.DefaultReportConfiguration(userID)
			return &def, nil
		}
		return nil, apperr.Storage("get report configuration", err)
	}
	if cfg == nil {
		def := db.DefaultReportConfiguration(userID)
		return &def, nil
	}
	return cfg, nil
}

// SaveConfiguration validates payload and merges it over the stored configuration.
// Fields absent from the payload are unchanged.
func (p *Pipeline) SaveConfiguration(ctx context.Context, userID uuid.UUID, payload []byte) (*db.ReportConfiguration, error) {
	if !json.Valid(payload) {
		return nil, apperr.Validation("configuration", "payload is not valid JSON")
	}
	if err := schemas.ValidateReportConfiguration(payload); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return nil, apperr.Validation("configuration", "%s", ve.Summary())
		}
		return nil, err
	}

	var req types.ReportConfigurationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Validation("configuration", "%v", err)
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("configuration", "%s", types.ValidationMessage(err))
	}

	cur, err := p.store.GetReportConfiguration(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("get report configuration", err)
	}
	cfg := db.DefaultReportConfiguration(userID)
	if cur != nil {
		cfg = *cur
	}
	applyConfiguration(&cfg, &req)

	if err := p.store.UpsertReportConfiguration(ctx, &cfg); err != nil {
		return nil, apperr.Storage("save report configuration", err)
	}
	p.logger.Infow("Saved report configuration", "user_id", userID, "template", cfg.Template)
	return &cfg, nil
}

func applyConfiguration(cfg *db.ReportConfiguration, req *types.ReportConfigurationRequest) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&cfg.PrimaryColor, req.PrimaryColor)
	setString(&cfg.SecondaryColor, req.SecondaryColor)
	setString(&cfg.FontFamily, req.FontFamily)
	setString(&cfg.LogoPath, req.LogoPath)
	setString(&cfg.CompanyName, req.CompanyName)
	setString(&cfg.Template, req.Template)
	setString(&cfg.FooterText, req.FooterText)
	setBool(&cfg.IncludePhotos, req.IncludePhotos)
	setBool(&cfg.IncludeTasks, req.IncludeTasks)
	setBool(&cfg.IncludeNotes, req.IncludeNotes)
	setBool(&cfg.IncludeTimer, req.IncludeTimer)
	setBool(&cfg.IncludeQRCode, req.IncludeQRCode)
}
