package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTranscript writes transcript content to the target path, creating
// parent directories as needed, and fails the test on error.
func WriteTranscript(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
