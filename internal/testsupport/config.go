package testsupport

import (
	"path/filepath"
	"testing"

	"convolens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.SocketPath = filepath.Join(base, "convolensd.sock")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRetentionWindow overrides the record retention window, in seconds.
func WithRetentionWindow(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retention.WindowSeconds = seconds
	}
}

// WithWorkerCount overrides the analysis worker count on the test config.
func WithWorkerCount(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.WorkerCount = count
	}
}

// WithDisabledStages marks the named stages as disabled on the test config.
func WithDisabledStages(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.DisabledStages = append(b.cfg.Analysis.DisabledStages, names...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.UploadDir)
}
