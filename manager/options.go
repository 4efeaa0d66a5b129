package manager

import (
	"github.com/sharnoff/seqtune/dataset"
	"go.uber.org/zap"
)

// Loader reads the dataset at path.
type Loader func(path string) (dataset.Supplier, error)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDatasets gives the Manager its datasets directly. Nothing is loaded from the configured
// paths.
func WithDatasets(train, val, test dataset.Supplier) Option {
	return func(m *Manager) {
		m.train, m.val, m.test = train, val, test
		m.preloaded = true
	}
}

// WithLoader sets how datasets are read from the configured paths. The default reads CSV with
// dataset.Load.
func WithLoader(l Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithSeed overrides the configured seed, which determines initial weights, dropout, and the order
// of training batches.
func WithSeed(seed int64) Option {
	return func(m *Manager) {
		m.seed = seed
		m.seedSet = true
	}
}
