package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"convolens/internal/api"
)

// apiClient talks to the daemon's HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do executes the request and decodes the body into out when the
// response status matches wantStatus. Any other status is surfaced as an
// error carrying the server's message.
func (c *apiClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s (HTTP %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
}

// Upload streams a transcript file to the daemon.
func (c *apiClient) Upload(path, language string) (api.UploadResponse, error) {
	var out api.UploadResponse

	file, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return out, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return out, fmt.Errorf("read transcript: %w", err)
	}
	if language = strings.TrimSpace(language); language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return out, err
		}
	}
	if err := writer.Close(); err != nil {
		return out, err
	}

	req, err := c.newRequest(http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return out, c.do(req, http.StatusCreated, &out)
}

// Analyze submits a stored conversation for analysis. A non-empty
// language overrides the stored language for this run.
func (c *apiClient) Analyze(subjectKey, language string, force bool) (api.SubmitResponse, error) {
	var out api.SubmitResponse
	path := "/api/analyze/" + url.PathEscape(subjectKey)
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	if language = strings.TrimSpace(language); language != "" {
		query.Set("language", language)
	}
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	req, err := c.newRequest(http.MethodPost, path, nil)
	if err != nil {
		return out, err
	}
	return out, c.do(req, http.StatusAccepted, &out)
}

// Status fetches the lifecycle state for a task id.
func (c *apiClient) Status(taskID string) (api.StatusResponse, error) {
	var out api.StatusResponse
	req, err := c.newRequest(http.MethodGet, "/api/status/"+url.PathEscape(taskID), nil)
	if err != nil {
		return out, err
	}
	return out, c.do(req, http.StatusOK, &out)
}

// Result fetches the report for a task id. pending is true while the
// run has not settled.
func (c *apiClient) Result(taskID string) (result api.ResultResponse, pending bool, err error) {
	req, err := c.newRequest(http.MethodGet, "/api/result/"+url.PathEscape(taskID), nil)
	if err != nil {
		return result, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return result, false, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return result, false, fmt.Errorf("decode response: %w", err)
		}
		return result, false, nil
	case http.StatusAccepted:
		return result, true, nil
	default:
		return result, false, apiError(resp)
	}
}

// List fetches live conversations, optionally narrowed by status and
// language.
func (c *apiClient) List(status, language string) (api.ConversationListResponse, error) {
	var out api.ConversationListResponse
	path := "/api/conversations"
	query := url.Values{}
	if status = strings.TrimSpace(status); status != "" {
		query.Set("status", status)
	}
	if language = strings.TrimSpace(language); language != "" {
		query.Set("language", language)
	}
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	req, err := c.newRequest(http.MethodGet, path, nil)
	if err != nil {
		return out, err
	}
	return out, c.do(req, http.StatusOK, &out)
}

// wsURL builds the websocket endpoint for progress watching.
func (c *apiClient) wsURL(subjectKey string) string {
	base := strings.Replace(c.baseURL, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	endpoint := base + "/api/ws"
	if subjectKey != "" {
		endpoint += "?subject=" + url.QueryEscape(subjectKey)
	}
	return endpoint
}
