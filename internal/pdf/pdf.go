// Package pdf prints HTML documents to PDF with a headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/cleanops/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one Render call, browser start-up included.
const DefaultTimeout = 30 * time.Second

// A4 in inches, as PrintToPDF expects.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.4
)

// readyExpression is true once the document and all of its images have settled.
// Broken images count as complete.
const readyExpression = `document.readyState === "complete" && Array.from(document.images).every(function (i) { return i.complete; })`

// Config configures the renderer.
type Config struct {
	Timeout  time.Duration `json:"timeout"`
	ExecPath string        `json:"exec_path,omitempty"` // Chrome binary; empty means search PATH
}

func (c *Config) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Renderer starts a fresh browser per document. It is safe for concurrent use.
type Renderer struct {
	cfg    Config
	logger *zap.SugaredLogger
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg Config, logger *zap.SugaredLogger) *Renderer {
	cfg.normalize()
	return &Renderer{cfg: cfg, logger: logging.OrNop(logger)}
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	return opts
}

// Render loads html into a blank page and prints it as A4 with backgrounds.
func (r *Renderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	start := time.Now()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancel()

	var (
		out   []byte
		ready bool
	)
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.Poll(readyExpression, &ready),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}

	r.logger.Debugw("Printed pdf", "html_bytes", len(html), "pdf_bytes", len(out), "elapsed", time.Since(start))
	return out, nil
}
