package arbor

import (
	"time"

	"github.com/arbordb/arbor/blobstore"
)

// DefaultDirectory is the local storage root used when no store is
// configured.
const DefaultDirectory = "bin"

// DefaultMaxMemoryBytes is the resident memory budget used when none is
// configured (1 GiB).
const DefaultMaxMemoryBytes = 1024 << 20

// Limits bounds request parameters at the service boundary.
type Limits struct {
	// MaxDimension is the largest accepted point dimensionality.
	MaxDimension int

	// MaxK is the largest accepted neighbor count per query.
	MaxK int
}

// DefaultLimits are the limits applied when none are configured.
var DefaultLimits = Limits{
	MaxDimension: 4096,
	MaxK:         4096,
}

type options struct {
	store              blobstore.Store
	directory          string
	maxMemoryBytes     int64
	maxConcurrentLoads int64
	ioLimitBytesPerSec int64
	limits             Limits
	logger             *Logger
	metrics            MetricsCollector
	clock              func() time.Time
}

// Option configures Forest construction.
type Option func(*options)

// WithStore configures the blob store trees are persisted to. Without this
// option a local filesystem store under WithDirectory's path is used.
func WithStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithDirectory configures the local storage root used when no store is
// set. Defaults to DefaultDirectory.
func WithDirectory(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.directory = dir
		}
	}
}

// WithMaxMemoryBytes configures the resident memory budget. The cache
// evicts least-recently-used trees when the budget is exceeded; a single
// tree larger than the budget may still be resident while it is served.
func WithMaxMemoryBytes(n int64) Option {
	return func(o *options) {
		o.maxMemoryBytes = n
	}
}

// WithMaxConcurrentLoads caps how many trees are decoded from storage at
// the same time.
func WithMaxConcurrentLoads(n int64) Option {
	return func(o *options) {
		o.maxConcurrentLoads = n
	}
}

// WithIOLimitBytesPerSec throttles persistence IO. Zero means unlimited.
func WithIOLimitBytesPerSec(n int64) Option {
	return func(o *options) {
		o.ioLimitBytesPerSec = n
	}
}

// WithLimits overrides the request limits. Zero fields keep their
// defaults.
func WithLimits(l Limits) Option {
	return func(o *options) {
		if l.MaxDimension > 0 {
			o.limits.MaxDimension = l.MaxDimension
		}
		if l.MaxK > 0 {
			o.limits.MaxK = l.MaxK
		}
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to keep the default (no logging).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to keep metrics disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

// WithClock replaces the time source used for last-access tracking.
// Tests use a fixed clock to make ages deterministic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

func defaultOptions() *options {
	return &options{
		directory:      DefaultDirectory,
		maxMemoryBytes: DefaultMaxMemoryBytes,
		limits:         DefaultLimits,
		logger:         NoopLogger(),
		metrics:        NoopMetricsCollector{},
	}
}
