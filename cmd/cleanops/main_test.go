package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/cleanops/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command in-process with fresh flag values.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestSchedulePreview(t *testing.T) {
	out, err := executeCommand(t, "schedule", "preview", "--frequency", "weekly", "--start", "2024-06-03", "--end", "2024-06-24")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03 Mon\n2024-06-10 Mon\n2024-06-17 Mon\n2024-06-24 Mon\n", out)
}

func TestSchedulePreview_MonthlyClamps(t *testing.T) {
	out, err := executeCommand(t, "schedule", "preview", "-f", "monthly", "-s", "2024-01-31", "-n", "4")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2024-01-31 Wed", lines[0])
	assert.Equal(t, "2024-02-29 Thu", lines[1])
	assert.Equal(t, "2024-03-31 Sun", lines[2])
	assert.Equal(t, "2024-04-30 Tue", lines[3])
}

func TestSchedulePreview_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing frequency", []string{"schedule", "preview", "--start", "2024-06-03"}, `required flag(s) "frequency" not set`},
		{"unknown frequency", []string{"schedule", "preview", "-f", "hourly", "-s", "2024-06-03"}, "unknown frequency"},
		{"bad start", []string{"schedule", "preview", "-f", "daily", "-s", "03/06/2024"}, "invalid --start"},
		{"end before start", []string{"schedule", "preview", "-f", "daily", "-s", "2024-06-03", "-e", "2024-06-01"}, "before --start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandsRequireDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := executeCommand(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	_, err = executeCommand(t, "report", "render", "-u", "6f1c1a52-2f7c-4d8e-9d6c-0c8b2b0a7d11", "-j", "a8f0e3c4-3d0b-4f4e-8c8a-3b2f1e0d9c7b", "-o", filepath.Join(t.TempDir(), "r.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	_, err = executeCommand(t, "schedule", "generate", "-u", "not-a-uuid", "-d", "a8f0e3c4-3d0b-4f4e-8c8a-3b2f1e0d9c7b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --user-id")
}

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleanops.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": 9000,
		"portal_base_url": "https://file.example.com",
		"log": {"format": "json"}
	}`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://localhost/cleanops")
	t.Setenv("PORT", "")
	t.Setenv("PORTAL_BASE_URL", "https://env.example.com")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("SCHEDULE_MAX_BATCH", "")

	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port, "file value when env is unset")
	assert.Equal(t, "https://env.example.com", cfg.PortalBaseURL, "env wins over file")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, config.Defaults().Schedule.MaxBatch, cfg.Schedule.MaxBatch, "defaults fill the rest")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	prev := configPath
	configPath = ""
	t.Cleanup(func() { configPath = prev })

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log format")
}
