// Package scan is the best-effort collaborator that re-fetches a status
// payload from a list of candidate endpoints. The endpoint list and its
// header guesses are configuration, not behavior: candidates are tried
// strictly in order and the first parseable, schema-matching response wins.
// The core consumes the result through the same normalizer as pasted input.
package scan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"statusdeck/internal/config"
	"statusdeck/internal/domain"
	"statusdeck/internal/normalize"
)

// Scanner runs the ordered endpoint fallback chain.
type Scanner struct {
	Endpoints  []config.Endpoint
	HTTPClient *http.Client
	Timeout    time.Duration
}

func New(endpoints []config.Endpoint) *Scanner {
	return &Scanner{
		Endpoints: endpoints,
		Timeout:   10 * time.Second,
	}
}

// Unavailable is returned when every candidate endpoint failed. It carries
// one reason per attempt, in attempt order.
type Unavailable struct {
	Attempts []string
}

func (e *Unavailable) Error() string {
	if len(e.Attempts) == 0 {
		return "scan: no endpoints configured"
	}
	return fmt.Sprintf("scan: all %d endpoints failed: %s", len(e.Attempts), strings.Join(e.Attempts, "; "))
}

// Scan tries each candidate in order and returns the first batch that
// normalizes. A failed attempt never cancels the rest of the chain; there is
// no retry beyond the ordered list.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Application, error) {
	if len(s.Endpoints) == 0 {
		return nil, &Unavailable{}
	}
	var attempts []string
	for _, ep := range s.Endpoints {
		apps, err := s.fetch(ctx, ep)
		if err == nil {
			return apps, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", ep.URL, err))
	}
	return nil, &Unavailable{Attempts: attempts}
}

func (s *Scanner) fetch(ctx context.Context, ep config.Endpoint) ([]domain.Application, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: s.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(body)
}
