package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"convolens/internal/services"
)

func TestConsoleHandlerIncludesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = NewComponentLogger(logger, "dispatcher")
	logger.Info("task accepted", String(FieldSubjectKey, "abc123"), String(FieldTaskID, "t-1"))

	line := buf.String()
	if !strings.Contains(line, "[dispatcher]") {
		t.Fatalf("expected component in output, got %q", line)
	}
	if !strings.Contains(line, "subject_key=abc123") || !strings.Contains(line, "task_id=t-1") {
		t.Fatalf("expected attrs in output, got %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithSubjectKey(context.Background(), "abc123")
	ctx = services.WithTaskID(ctx, "t-9")
	ctx = services.WithStage(ctx, "emotion")

	fields := ContextFields(ctx)
	got := map[string]string{}
	for _, attr := range fields {
		got[attr.Key] = attr.Value.String()
	}
	if got[FieldSubjectKey] != "abc123" || got[FieldTaskID] != "t-9" || got[FieldStage] != "emotion" {
		t.Fatalf("unexpected context fields: %v", got)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
