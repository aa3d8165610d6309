package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect and generate recurring job schedules",
}

var (
	previewFrequency string
	previewStart     string
	previewEnd       string
	previewLimit     int
	previewHorizon   int
)

var schedulePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the dates a recurring definition would produce",
	Long:  "Expands a frequency and start date into occurrence dates without touching the database. Monthly schedules clamp to the last day of shorter months.",
	RunE:  runSchedulePreview,
}

var (
	generateUserID       string
	generateDefinitionID string
)

var scheduleGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the next batch of instances for a recurring definition",
	RunE:  runScheduleGenerate,
}

func init() {
	schedulePreviewCmd.Flags().StringVarP(&previewFrequency, "frequency", "f", "", "daily, weekly, bi_weekly or monthly (required)")
	schedulePreviewCmd.Flags().StringVarP(&previewStart, "start", "s", "", "First date, YYYY-MM-DD (required)")
	schedulePreviewCmd.Flags().StringVarP(&previewEnd, "end", "e", "", "Last date, YYYY-MM-DD (optional)")
	schedulePreviewCmd.Flags().IntVarP(&previewLimit, "limit", "n", scheduling.DefaultMaxBatch, "Maximum number of dates")
	schedulePreviewCmd.Flags().IntVar(&previewHorizon, "horizon", scheduling.DefaultHorizonDays, "Window in days from the first date")
	_ = schedulePreviewCmd.MarkFlagRequired("frequency")
	_ = schedulePreviewCmd.MarkFlagRequired("start")

	scheduleGenerateCmd.Flags().StringVarP(&generateUserID, "user-id", "u", "", "Owner user ID (required)")
	scheduleGenerateCmd.Flags().StringVarP(&generateDefinitionID, "definition", "d", "", "Recurring job ID (required)")
	_ = scheduleGenerateCmd.MarkFlagRequired("user-id")
	_ = scheduleGenerateCmd.MarkFlagRequired("definition")

	scheduleCmd.AddCommand(schedulePreviewCmd, scheduleGenerateCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedulePreview(cmd *cobra.Command, _ []string) error {
	def := &db.RecurringJob{Frequency: db.Frequency(previewFrequency)}
	if !def.Frequency.Valid() {
		return fmt.Errorf("unknown frequency %q (want daily, weekly, bi_weekly or monthly)", previewFrequency)
	}
	start, err := db.ParseDate(previewStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	def.StartDate = start
	if previewEnd != "" {
		end, err := db.ParseDate(previewEnd)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("--end %s is before --start %s", end, start)
		}
		def.EndDate = &end
	}

	printDates(cmd.OutOrStdout(), scheduling.Occurrences(def, start, previewLimit, previewHorizon))
	return nil
}

func printDates(w io.Writer, dates []db.Date) {
	for _, d := range dates {
		fmt.Fprintf(w, "%s %s\n", d.String(), d.Weekday().String()[:3])
	}
}

func runScheduleGenerate(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(generateUserID)
	if err != nil {
		return fmt.Errorf("invalid --user-id: %w", err)
	}
	definitionID, err := uuid.Parse(generateDefinitionID)
	if err != nil {
		return fmt.Errorf("invalid --definition: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	manager := scheduling.NewManager(database, cfg.SchedulingConfig(), logger)
	created, err := manager.GenerateInstances(ctx, userID, definitionID)
	dates := make([]db.Date, len(created))
	for i, job := range created {
		dates[i] = job.ScheduledDate
	}
	printDates(cmd.OutOrStdout(), dates)
	if err != nil {
		return fmt.Errorf("generation stopped after %d instance(s): %w", len(created), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %d instance(s)\n", len(created))
	return nil
}
