package statusdecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Statusdeck HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Classification is the derived display category for a status code.
type Classification struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sentiment   string `json:"sentiment"`
	Actionable  bool   `json:"actionable"`
}

// Report is the API report model (partial).
type Report struct {
	HasStatus      bool            `json:"has_status"`
	Family         string          `json:"family,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Application    map[string]any  `json:"application"`
	Primary        map[string]any  `json:"primary,omitempty"`
	Findings       map[string]any  `json:"findings,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type reportList struct {
	Items []Report `json:"items"`
}

// BuildReports normalizes and classifies a raw payload without saving it.
func (c *Client) BuildReports(ctx context.Context, payload []byte) ([]Report, error) {
	var resp reportList
	err := c.doRaw(ctx, http.MethodPost, "v0/reports", payload, &resp)
	return resp.Items, err
}

// Codes lists the known status codes.
func (c *Client) Codes(ctx context.Context) ([]Classification, error) {
	var resp struct {
		Items []Classification `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/codes", nil, &resp)
	return resp.Items, err
}

// Snapshot returns the last saved reports.
func (c *Client) Snapshot(ctx context.Context) ([]Report, error) {
	var resp reportList
	err := c.do(ctx, http.MethodGet, "v0/snapshot", nil, &resp)
	return resp.Items, err
}

// SaveSnapshot normalizes a raw payload and saves it server-side.
func (c *Client) SaveSnapshot(ctx context.Context, payload []byte) ([]Report, error) {
	var resp reportList
	err := c.doRaw(ctx, http.MethodPut, "v0/snapshot", payload, &resp)
	return resp.Items, err
}

// ClearSnapshot drops the saved snapshot.
func (c *Client) ClearSnapshot(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "v0/snapshot", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	return c.doRaw(ctx, method, endpoint, raw, out)
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, body []byte, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
