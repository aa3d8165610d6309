package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/pdf"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/jonathan/cleanops/internal/storage"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with job reports",
}

var (
	reportUserID string
	reportJobID  string
	reportOut    string
	reportHTML   bool
)

var reportRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a job report to a PDF or HTML file",
	Long:  "Prepares the report of a job exactly as the API does and writes it to --out. PDF output needs a local Chrome or Chromium.",
	RunE:  runReportRender,
}

func init() {
	reportRenderCmd.Flags().StringVarP(&reportUserID, "user-id", "u", "", "Owner user ID (required)")
	reportRenderCmd.Flags().StringVarP(&reportJobID, "job", "j", "", "Job ID (required)")
	reportRenderCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file (required)")
	reportRenderCmd.Flags().BoolVar(&reportHTML, "html", false, "Write HTML instead of PDF")
	_ = reportRenderCmd.MarkFlagRequired("user-id")
	_ = reportRenderCmd.MarkFlagRequired("job")
	_ = reportRenderCmd.MarkFlagRequired("out")

	reportCmd.AddCommand(reportRenderCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportRender(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(reportUserID)
	if err != nil {
		return fmt.Errorf("invalid --user-id: %w", err)
	}
	jobID, err := uuid.Parse(reportJobID)
	if err != nil {
		return fmt.Errorf("invalid --job: %w", err)
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

	resolver, closeResolver, err := storage.NewResolver(ctx, cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("failed to create storage resolver: %w", err)
	}
	defer func() { _ = closeResolver() }()

	opts := reporting.Options{PortalBaseURL: cfg.PortalBaseURL}
	if !reportHTML {
		opts.PDF = pdf.NewRenderer(cfg.PDFConfig(), logger)
	}
	pipeline := reporting.NewPipeline(database, resolver, opts, logger)

	var out []byte
	if reportHTML {
		out, err = pipeline.RenderDocument(ctx, userID, jobID)
	} else {
		out, err = pipeline.RenderPDF(ctx, userID, jobID)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(reportOut, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", reportOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", reportOut, len(out))
	return nil
}
