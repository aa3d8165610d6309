package scheduling

import (
	"github.com/jonathan/cleanops/internal/logging"
	"go.uber.org/zap"
)

// Config bounds a single GenerateInstances batch.
type Config struct {
	MaxBatch    int // instances per call, default 52
	HorizonDays int // window from the first candidate date, default 365
}

func (c Config) normalize() Config {
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	return c
}

// Manager is the recurring schedule manager. Every operation is scoped to the
// calling user's id.
type Manager struct {
	store  Store
	cfg    Config
	logger *zap.SugaredLogger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(store Store, cfg Config, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		store:  store,
		cfg:    cfg.normalize(),
		logger: logging.OrNop(logger),
	}
}

// Config returns the effective batch bounds.
func (m *Manager) Config() Config {
	return m.cfg
}
