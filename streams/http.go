package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

var _ Provider = (*HTTPProvider)(nil)

// I created an interface so the HTTP client can be tested by providing a
// custom implementation.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProvider talks to the public streams API over HTTPS. Every call is
// bearer-authenticated, rate limited when MaxRPS is set, and retried with
// exponential backoff on transport errors, 429 and 5xx responses.
type HTTPProvider struct {
	client           HTTPDoer
	cfg              *config.StreamsConfig
	limiter          *rate.Limiter
	requestCount     int64      // Total requests made
	lastRequestCount int64      // Request count at last RPS calculation
	lastRPS          int64      // Last calculated RPS
	lastRPSTime      time.Time  // Time of last RPS calculation
	mu               sync.Mutex // Protects RPS calculation fields
}

// NewHTTPProvider creates a new HTTPProvider from configuration
func NewHTTPProvider(cfg *config.StreamsConfig) (*HTTPProvider, error) {
	cfg.Common.ApplyDefaults()
	if cfg.HTTP != nil {
		cfg.HTTP.ApplyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid streams configuration: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.Common.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Common.MaxRPS), cfg.Common.MaxRPS) // burst = MaxRPS
	}

	return &HTTPProvider{
		client:      &http.Client{},
		cfg:         cfg,
		limiter:     limiter,
		lastRPSTime: time.Now(),
	}, nil
}

// projectScope builds the organization/project URL prefix. The optional
// environment suffix is part of the project name on the remote side.
func (p *HTTPProvider) projectScope() string {
	project := p.cfg.Project
	if p.cfg.EnvSuffix != "" {
		project = project + "-" + p.cfg.EnvSuffix
	}
	return fmt.Sprintf("%s/%s/projects/%s",
		strings.TrimRight(p.cfg.HTTP.BaseURL, "/"),
		url.PathEscape(p.cfg.Organization),
		url.PathEscape(project))
}

// Wire types for the searches and timeseries endpoints.
type searchList struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name  string `json:"name"`
			Query string `json:"query"`
		} `json:"attributes"`
	} `json:"data"`
}

type timeseries struct {
	Data struct {
		Attributes struct {
			Points []struct {
				OpsCounts float64 `json:"ops-counts"`
			} `json:"points"`
		} `json:"attributes"`
	} `json:"data"`
}

// ListCandidates lists all saved streams in the project and applies the
// configured service and exclusion predicates before returning IDs. The
// predicates run here, not in the engine: the engine only ever sees streams
// that are fair game for deletion.
func (p *HTTPProvider) ListCandidates(ctx context.Context) ([]model.StreamID, error) {
	var list searchList
	if err := p.doJSON(ctx, http.MethodGet, p.projectScope()+"/searches", &list); err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	var ids []model.StreamID
	for _, s := range list.Data {
		if p.excluded(s.Attributes.Name, s.Attributes.Query) {
			continue
		}
		ids = append(ids, model.StreamID(s.ID))
	}
	return ids, nil
}

func (p *HTTPProvider) excluded(name, query string) bool {
	if p.cfg.Service != "" && !strings.Contains(query, p.cfg.Service) {
		return true
	}
	for _, sub := range p.cfg.ExcludeSubstrings {
		if strings.Contains(name, sub) || strings.Contains(query, sub) {
			return true
		}
	}
	return false
}

// QueryActivity fetches the stream's timeseries over the window and reports
// whether any point carries operations.
func (p *HTTPProvider) QueryActivity(ctx context.Context, id model.StreamID, window model.RunWindow) (bool, error) {
	params := url.Values{}
	params.Set("oldest-time", window.Oldest.UTC().Format(time.RFC3339))
	params.Set("youngest-time", window.Youngest.UTC().Format(time.RFC3339))
	params.Set("resolution-ms", "3600000")

	endpoint := fmt.Sprintf("%s/streams/%s/timeseries?%s", p.projectScope(), url.PathEscape(string(id)), params.Encode())

	var ts timeseries
	if err := p.doJSON(ctx, http.MethodGet, endpoint, &ts); err != nil {
		return false, fmt.Errorf("failed to query activity for stream %s: %w", id, err)
	}

	for _, point := range ts.Data.Attributes.Points {
		if point.OpsCounts > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the saved stream from the project.
func (p *HTTPProvider) Delete(ctx context.Context, id model.StreamID) error {
	endpoint := fmt.Sprintf("%s/searches/%s", p.projectScope(), url.PathEscape(string(id)))
	if err := p.doJSON(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("failed to delete stream %s: %w", id, err)
	}
	return nil
}

// doJSON executes one API call with rate limiting, timeout, and retry, and
// decodes the response body into out when out is non-nil. 429 and 5xx
// responses are retried; other non-2xx responses fail immediately.
func (p *HTTPProvider) doJSON(ctx context.Context, method, endpoint string, out interface{}) error {
	operation := func() error {
		// Rate limiting: wait for a token before each attempt
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("rate limiter error: %w", err))
			}
		}
		atomic.AddInt64(&p.requestCount, 1)

		reqCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Common.TimeoutSeconds)*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, method, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+p.cfg.HTTP.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%s %s: %s", method, endpoint, resp.Status)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("%s %s: %s: %s", method, endpoint, resp.Status, strings.TrimSpace(string(body))))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.cfg.Common.MaxRetries)),
		ctx,
	)
	return backoff.Retry(operation, bo)
}

// GetCurrentRPS calculates and returns the current requests per second rate
// This method is thread-safe and can be called periodically for monitoring
func (p *HTTPProvider) GetCurrentRPS() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(p.lastRPSTime).Seconds()

	// Only recalculate if at least 1 second has passed
	if elapsed >= 1.0 {
		currentCount := atomic.LoadInt64(&p.requestCount)
		requestsDelta := currentCount - p.lastRequestCount

		p.lastRPS = int64(float64(requestsDelta) / elapsed)
		p.lastRequestCount = currentCount
		p.lastRPSTime = now
	}

	return p.lastRPS
}
