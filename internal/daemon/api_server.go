package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"convolens/internal/api"
	"convolens/internal/config"
	"convolens/internal/logging"
	"convolens/internal/reconciler"
	"convolens/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	upgrader websocket.Upgrader
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleDaemonStatus))
	mux.HandleFunc("/api/upload", authMiddleware(token, srv.handleUpload))
	mux.HandleFunc("/api/analyze/", authMiddleware(token, srv.handleAnalyze))
	mux.HandleFunc("/api/status/", authMiddleware(token, srv.handleTaskStatus))
	mux.HandleFunc("/api/result/", authMiddleware(token, srv.handleResult))
	mux.HandleFunc("/api/conversations", authMiddleware(token, srv.handleConversations))
	mux.HandleFunc("/api/ws", authMiddleware(token, srv.handleWebSocket))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address once the server is started.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleDaemonStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

// maxUploadBytes bounds a single transcript upload.
const maxUploadBytes = 32 << 20

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	language := strings.TrimSpace(r.FormValue("language"))
	job, err := s.daemon.Uploads().Store(r.Context(), header.Filename, file, language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromJob(job))
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	subjectKey := pathSuffix(r.URL.Path, "/api/analyze/")
	if subjectKey == "" {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	force := parseBool(r.URL.Query().Get("force"))
	language := strings.TrimSpace(r.URL.Query().Get("language"))

	receipt, err := s.daemon.Dispatcher().Submit(r.Context(), subjectKey, language, force)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
		TaskID:     receipt.TaskID,
		SubjectKey: receipt.SubjectKey,
		Status:     "processing",
		StatusURL:  "/api/status/" + receipt.TaskID,
		ResultURL:  "/api/result/" + receipt.TaskID,
	})
}

func (s *apiServer) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	taskID := pathSuffix(r.URL.Path, "/api/status/")
	if taskID == "" {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	view, err := s.daemon.Reconciler().Status(r.Context(), taskID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromStatusView(view))
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	taskID := pathSuffix(r.URL.Path, "/api/result/")
	if taskID == "" {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	view, err := s.daemon.Reconciler().Result(r.Context(), taskID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !view.Ready {
		s.writeJSON(w, http.StatusAccepted, api.PendingResponse{
			TaskID: taskID,
			Status: string(view.Status),
			Detail: "analysis in progress",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResultView(view))
}

func (s *apiServer) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filter := reconciler.ListFilter{
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		Language: strings.TrimSpace(r.URL.Query().Get("language")),
	}
	summaries, err := s.daemon.Reconciler().List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ConversationListResponse{Items: api.FromSummaries(summaries)})
}

func (s *apiServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	subjectKey := strings.TrimSpace(r.URL.Query().Get("subject"))
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	s.daemon.Hub().Add(conn, subjectKey)
}

// pathSuffix extracts the single trailing path element after prefix.
func pathSuffix(path, prefix string) string {
	suffix := strings.TrimPrefix(path, prefix)
	if suffix == "" || strings.Contains(suffix, "/") {
		return ""
	}
	return suffix
}

func parseBool(raw string) bool {
	return raw == "1" || strings.EqualFold(raw, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinel errors onto HTTP statuses.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
