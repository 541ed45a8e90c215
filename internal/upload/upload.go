// Package upload receives transcript files and registers their subject
// records. The issued subject key doubles as the stored file name, so
// an expired record never leaves an unexpired reference behind.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"convolens/internal/conversation"
	"convolens/internal/jobs"
	"convolens/internal/language"
	"convolens/internal/logging"
	"convolens/internal/services"
)

// Service stores uploads and creates their job records.
type Service struct {
	catalog         *jobs.Catalog
	uploadDir       string
	defaultLanguage string
	logger          *slog.Logger
	now             func() time.Time
	newSubjectKey   func() string
}

// New builds an upload service writing into uploadDir.
func New(catalog *jobs.Catalog, uploadDir, defaultLanguage string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		catalog:         catalog,
		uploadDir:       uploadDir,
		defaultLanguage: defaultLanguage,
		logger:          logger.With(logging.String(logging.FieldComponent, "upload")),
		now:             time.Now,
		newSubjectKey:   func() string { return uuid.New().String() },
	}
}

// Store saves the transcript and registers an uploaded job for it. The
// file name decides the format; langHint may be empty.
func (s *Service) Store(ctx context.Context, fileName string, src io.Reader, langHint string) (*jobs.ConversationJob, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, services.Wrap(services.ErrValidation, "upload", "store",
			"missing file name", nil)
	}
	format, ok := conversation.DetectFormat(fileName)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "upload", "store",
			fmt.Sprintf("file type %q not allowed; allowed types: %s",
				format, strings.Join(conversation.AllowedFormats(), ", ")), nil)
	}

	subjectKey := s.newSubjectKey() + "." + format
	storedPath := filepath.Join(s.uploadDir, subjectKey)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "upload", "store",
			"create upload directory", err)
	}
	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "upload", "store",
			"create transcript file", err)
	}
	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, services.Wrap(services.ErrUnavailable, "upload", "store",
			"write transcript file", err)
	}
	if written == 0 {
		_ = os.Remove(storedPath)
		return nil, services.Wrap(services.ErrValidation, "upload", "store",
			"uploaded file is empty", nil)
	}

	now := s.now().UTC()
	job := &jobs.ConversationJob{
		SubjectKey: subjectKey,
		FileName:   fileName,
		StoredPath: storedPath,
		Format:     format,
		Language:   language.Normalize(langHint, s.defaultLanguage),
		Status:     jobs.StatusUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.catalog.PutJob(ctx, job); err != nil {
		_ = os.Remove(storedPath)
		return nil, services.Wrap(services.ErrUnavailable, "upload", "store",
			"register subject record", err)
	}

	s.logger.Info("transcript stored",
		logging.String(logging.FieldSubjectKey, subjectKey),
		logging.String("file_name", fileName),
		logging.String("format", format),
		logging.Int64("bytes", written))
	return job, nil
}
