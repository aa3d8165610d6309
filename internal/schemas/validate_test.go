package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportConfiguration_Valid(t *testing.T) {
	payload := `{
		"primary_color": "#1e40af",
		"secondary_color": "#64748B",
		"font_family": "Georgia",
		"template": "compact",
		"include_photos": true,
		"include_qr_code": false,
		"footer_text": "Thank you for your business"
	}`
	assert.NoError(t, ValidateReportConfiguration([]byte(payload)))
	assert.NoError(t, ValidateReportConfiguration([]byte(`{}`)))
}

func TestValidateReportConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"short hex", `{"primary_color": "#fff"}`, "primary_color"},
		{"named color", `{"secondary_color": "red"}`, "secondary_color"},
		{"unknown font", `{"font_family": "Comic Sans MS"}`, "font_family"},
		{"unknown template", `{"template": "fancy"}`, "template"},
		{"wrong type", `{"include_photos": "yes"}`, "include_photos"},
		{"unknown property", `{"background": "#000000"}`, "(root)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReportConfiguration([]byte(tt.payload))
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.field, validationErr.Errors[0].Field)
			assert.Contains(t, validationErr.Summary(), tt.field)
		})
	}
}

func TestValidateReportConfiguration_MalformedJSON(t *testing.T) {
	err := ValidateReportConfiguration([]byte(`{"primary_color":`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "ok"}`))

	err := ValidateJSONString(schema, `{}`)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Error(), "validation failed")
}
