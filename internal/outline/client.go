// Package outline is an HTTP client for an Outline-compatible document store.
// Every endpoint is a JSON POST under /api/ whose response wraps the payload
// in {"data": ...}.
package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is wrapped by RemoteError for 404 responses.
var ErrNotFound = errors.New("not found")

// RemoteError is a failed remote operation.
type RemoteError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: API error %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: API error %d", e.Op, e.Status)
}

func (e *RemoteError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client talks to the document store API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// --- HTTP helpers ---

func (c *Client) post(ctx context.Context, op string, body any) (*http.Response, error) {
	if body == nil {
		body = map[string]any{}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+op, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func remoteError(op string, resp *http.Response) error {
	re := &RemoteError{Op: op, Status: resp.StatusCode}
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
		re.Code = apiErr.Error
		re.Message = apiErr.Message
	}
	return re
}

func decodeResponse[T any](op string, resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var zero T

	if resp.StatusCode >= 400 {
		return zero, remoteError(op, resp)
	}

	var wrapper struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return zero, fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return wrapper.Data, nil
}

func call[T any](ctx context.Context, c *Client, op string, body any) (T, error) {
	resp, err := c.post(ctx, op, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeResponse[T](op, resp)
}

func drain(op string, resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return remoteError(op, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
