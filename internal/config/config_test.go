package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"convolens/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.RetentionWindow() != 30*time.Minute {
		t.Fatalf("unexpected default retention window: %v", cfg.RetentionWindow())
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := strings.Join([]string{
		"[paths]",
		`upload_dir = "` + filepath.Join(dir, "uploads") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[retention]",
		"window_seconds = 120",
		"sweep_interval_seconds = 30",
		"[workflow]",
		"worker_count = 4",
		"[analysis]",
		`default_language = "DE"`,
		`disabled_stages = ["Emotion", " "]`,
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to resolve, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Retention.WindowSeconds != 120 {
		t.Fatalf("expected retention override, got %d", cfg.Retention.WindowSeconds)
	}
	if cfg.Workflow.WorkerCount != 4 {
		t.Fatalf("expected worker count override, got %d", cfg.Workflow.WorkerCount)
	}
	if cfg.Analysis.DefaultLanguage != "de" {
		t.Fatalf("expected normalized language, got %q", cfg.Analysis.DefaultLanguage)
	}
	if len(cfg.Analysis.DisabledStages) != 1 || cfg.Analysis.DisabledStages[0] != "emotion" {
		t.Fatalf("expected normalized disabled stages, got %v", cfg.Analysis.DisabledStages)
	}
	if cfg.Workflow.QueueCapacity == 0 {
		t.Fatal("expected defaults retained for unset fields")
	}
}

func TestValidateRejectsBadRetention(t *testing.T) {
	cfg := config.Default()
	cfg.Retention.WindowSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero retention window")
	}

	cfg = config.Default()
	cfg.Retention.SweepIntervalSeconds = cfg.Retention.WindowSeconds + 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sweep interval exceeding window")
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.WorkerCount = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero worker count")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.UploadDir = filepath.Join(dir, "uploads")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, p := range []string{cfg.Paths.UploadDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", p, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("embedded sample should load cleanly: %v", err)
	}
}
