package ipc

import "convolens/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the daemon status DTO for IPC callers.
type StatusResponse struct {
	Status api.DaemonStatus `json:"status"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ListRequest fetches the live conversation listing. Empty filter
// fields match everything.
type ListRequest struct {
	Status   string `json:"status,omitempty"`
	Language string `json:"language,omitempty"`
}

// ListResponse contains conversation summaries.
type ListResponse struct {
	Items []api.ConversationSummary `json:"items"`
}

// SweepRequest triggers an immediate retention sweep.
type SweepRequest struct{}

// SweepResponse reports the number of purged rows.
type SweepResponse struct {
	Removed int64 `json:"removed"`
}
