package reporting

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/cleanops/internal/logging"
	"github.com/jonathan/cleanops/internal/storage"
	"go.uber.org/zap"
)

// PDFRenderer turns a complete HTML document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Options configures a Pipeline. Zero values are usable.
type Options struct {
	// PortalBaseURL prefixes client portal links, e.g. "https://app.example.com".
	// Without it reports carry no portal link or QR code.
	PortalBaseURL string
	PDF           PDFRenderer
	Now           func() time.Time
}

// Pipeline prepares and renders job reports.
type Pipeline struct {
	store    Store
	resolver storage.URLResolver
	opts     Options
	logger   *zap.SugaredLogger
}

// NewPipeline creates a report pipeline. A nil resolver returns stored paths unchanged.
func NewPipeline(store Store, resolver storage.URLResolver, opts Options, logger *zap.SugaredLogger) *Pipeline {
	if resolver == nil {
		resolver = &storage.BaseURLResolver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.PortalBaseURL = strings.TrimRight(strings.TrimSpace(opts.PortalBaseURL), "/")
	return &Pipeline{
		store:    store,
		resolver: resolver,
		opts:     opts,
		logger:   logging.OrNop(logger),
	}
}

// PortalURL returns the public portal link for token, or "" when no base URL is set.
func (p *Pipeline) PortalURL(token string) string {
	if p.opts.PortalBaseURL == "" || token == "" {
		return ""
	}
	return p.opts.PortalBaseURL + "/portal/" + url.PathEscape(token)
}
