// Package hfradar fetches tabular surface-current data from the NDBC HF
// radar download endpoint.
package hfradar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/currentpoint/internal/domain"
	"github.com/tidewatch/currentpoint/internal/observability"
)

// Client fetches one tabular query with bounded retry. It implements
// pipeline.Fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a fetcher for the tabular download endpoint. maxRetries
// counts retries after the first attempt; baseDelay is the linear backoff
// unit (attempt 1 waits baseDelay, attempt 2 waits 2×baseDelay, and so on).
func NewClient(baseURL string, timeout time.Duration, maxRetries int, baseDelay time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch issues the query and returns the response body, retrying on 5xx,
// 429, and network failures with linearly growing backoff. It never reports
// an error: any terminal condition — non-retryable status, blank body,
// exhausted retries, cancelled context — comes back as an empty string, so
// the caller treats "upstream briefly down" and "genuinely no data" the same
// way. The second return value is the exact URL queried, for traceability.
func (c *Client) Fetch(ctx context.Context, q domain.Query) (string, string) {
	sourceURL := c.QueryURL(q)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retryable := c.attempt(ctx, sourceURL)
		if body != "" {
			return body, sourceURL
		}
		if !retryable {
			return "", sourceURL
		}
		if attempt == c.maxRetries {
			break
		}

		delay := time.Duration(attempt+1) * c.baseDelay
		c.metrics.FetchRetries.Inc()
		c.logger.Warn("upstream fetch failed, backing off",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"delay", delay,
		)
		select {
		case <-ctx.Done():
			return "", sourceURL
		case <-c.clock.After(delay):
		}
	}

	c.logger.Warn("upstream fetch retries exhausted", "url", sourceURL)
	return "", sourceURL
}

// attempt performs one GET. It returns the body when the attempt succeeded,
// and otherwise whether the failure is worth retrying.
func (c *Client) attempt(ctx context.Context, fullURL string) (body string, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		c.metrics.FetchAttempts.WithLabelValues("network_error").Inc()
		c.logger.Error("build upstream request", "error", err)
		return "", false
	}
	// The endpoint serves an HTML error page to clients it does not
	// recognize; ask for CSV with a browser-ish agent.
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; currentpoint)")

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchAttempts.WithLabelValues("network_error").Inc()
		c.logger.Warn("upstream request failed", "error", err)
		return "", true
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FetchAttempts.WithLabelValues("network_error").Inc()
		c.logger.Warn("read upstream response", "error", err)
		return "", true
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if strings.TrimSpace(string(data)) == "" {
			c.metrics.FetchAttempts.WithLabelValues("empty_body").Inc()
			return "", false
		}
		c.metrics.FetchAttempts.WithLabelValues("success").Inc()
		return string(data), false
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.FetchAttempts.WithLabelValues("retryable").Inc()
		c.logger.Warn("upstream server error", "status", resp.StatusCode)
		return "", true
	default:
		c.metrics.FetchAttempts.WithLabelValues("client_error").Inc()
		c.logger.Warn("upstream rejected query", "status", resp.StatusCode)
		return "", false
	}
}

// QueryURL renders the full GET URL for a query.
func (c *Client) QueryURL(q domain.Query) string {
	params := url.Values{
		"from": {domain.FormatQueryTime(q.From)},
		"to":   {domain.FormatQueryTime(q.To)},
		"lat":  {formatCoord(q.Box.Lat1)},
		"lng":  {formatCoord(q.Box.Lon1)},
		"lat2": {formatCoord(q.Box.Lat2)},
		"lng2": {formatCoord(q.Box.Lon2)},
		"uom":  {q.UOM},
		"fmt":  {"csv"},
	}
	return c.baseURL + "?" + params.Encode()
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%g", v)
}
