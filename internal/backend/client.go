// Package backend talks to the document-drafting service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/model"
)

// Client is the contract the services depend on.
type Client interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	CreateSession(ctx context.Context) (string, error)
	GetHistory(ctx context.Context, sessionID string) (*History, error)
	PushDocument(ctx context.Context, sessionID, document, title string) error
	RenameSession(ctx context.Context, sessionID, title string) error
	ClearHistory(ctx context.Context, sessionID string) error
	OpenChatStream(ctx context.Context, sessionID, content string) (io.ReadCloser, error)
	Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error)
}

// GenerateRequest drives the one-shot drafting endpoint. Optional fields are
// left out of the request when empty.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	CompanyName  string `json:"company_name,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Tone         string `json:"tone,omitempty"`
}

// History is the stored conversation of one session.
type History struct {
	SessionID string         `json:"session_id"`
	Messages  []HistoryEntry `json:"messages"`
	Meta      HistoryMeta    `json:"meta"`
}

// HistoryEntry carries the role label as the backend spells it.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryMeta is the subset of session metadata the client uses.
type HistoryMeta struct {
	CreatedAt string `json:"created_at,omitempty"`
	Title     string `json:"document_title,omitempty"`
	Document  string `json:"document_html,omitempty"`
}

type httpClient struct {
	client  *http.Client
	baseURL string
}

// NewClient returns a Client for the API rooted at baseURL
// (e.g. http://localhost:8000/api). The http.Client has no overall timeout
// because generation streams are long-lived; callers bound short requests
// through their context.
func NewClient(baseURL string) Client {
	return &httpClient{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type sessionWire struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Title     string `json:"document_title"`
	Document  string `json:"document_html"`
}

func (w sessionWire) toModel() model.Session {
	return model.Session{
		ID:           w.SessionID,
		CreatedAt:    parseTime(w.CreatedAt),
		Title:        w.Title,
		LastDocument: w.Document,
	}
}

func (c *httpClient) ListSessions(ctx context.Context) ([]model.Session, error) {
	var resp struct {
		Sessions []sessionWire `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/session/list", nil, &resp); err != nil {
		return nil, err
	}
	sessions := make([]model.Session, 0, len(resp.Sessions))
	for _, s := range resp.Sessions {
		if s.SessionID == "" {
			continue
		}
		sessions = append(sessions, s.toModel())
	}
	return sessions, nil
}

func (c *httpClient) CreateSession(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/session/start", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", app_errors.ErrSessionUnavailable, err)
	}
	if strings.TrimSpace(resp.SessionID) == "" {
		return "", fmt.Errorf("%w: backend returned no session id", app_errors.ErrSessionUnavailable)
	}
	return resp.SessionID, nil
}

func (c *httpClient) GetHistory(ctx context.Context, sessionID string) (*History, error) {
	var h History
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID, "history"), nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// PushDocument checkpoints the document the next turn edits from. title is
// omitted when empty.
func (c *httpClient) PushDocument(ctx context.Context, sessionID, document, title string) error {
	body := map[string]string{"html": document}
	if title != "" {
		body["title"] = title
	}
	return c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "document"), body, nil)
}

func (c *httpClient) RenameSession(ctx context.Context, sessionID, title string) error {
	body := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "title"), body, nil)
}

func (c *httpClient) ClearHistory(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "clear"), nil, nil)
}

type chatRequest struct {
	SessionID string      `json:"session_id"`
	Message   chatMessage `json:"message"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenChatStream starts a generation turn and returns the raw envelope body.
// The caller owns the body and must close it; cancelling ctx cuts the read.
func (c *httpClient) OpenChatStream(ctx context.Context, sessionID, content string) (io.ReadCloser, error) {
	return c.openStream(ctx, "/chat", "application/json", chatRequest{
		SessionID: sessionID,
		Message:   chatMessage{Role: string(model.RoleUser), Content: content},
	})
}

// Generate starts a one-shot draft. The body is plain markdown, not wrapped
// in an envelope.
func (c *httpClient) Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/generate", "text/markdown", req)
}

func (c *httpClient) openStream(ctx context.Context, path, accept string, payload any) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app_errors.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", app_errors.ErrTransport, failureText(resp))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fmt.Errorf("%w: response has no readable body", app_errors.ErrTransport)
	}
	return resp.Body, nil
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", app_errors.ErrNotFound, failureText(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api returned non-2xx status %d: %s", resp.StatusCode, failureText(resp))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

// failureText is the best message available for a rejected request: the
// backend's `detail`/`error` field, the raw body, or the status line.
func failureText(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	text := strings.TrimSpace(string(raw))

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Detail != "":
			return payload.Detail
		case payload.Error != "":
			return payload.Error
		}
	}
	if text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}

func sessionPath(sessionID, action string) string {
	return "/session/" + url.PathEscape(sessionID) + "/" + action
}

// parseTime accepts the timestamp shapes the backend emits; unknown values
// yield the zero time.
func parseTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
