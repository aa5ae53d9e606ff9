package hfradar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/currentpoint/internal/domain"
	"github.com/tidewatch/currentpoint/internal/observability"
)

const sampleCSV = "time,latitude,longitude,u,v\n2026-03-14 17:00:00,37.75,-122.30,12.5,-3.0\n"

func testQuery() domain.Query {
	to := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	return domain.Query{
		From: to.Add(-6 * time.Hour),
		To:   to,
		Box:  domain.BoundingBoxAround(domain.GeoPoint{Lat: 37.7477, Lon: -122.3020}, 12),
		UOM:  "cms",
	}
}

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(
		baseURL,
		5*time.Second,
		maxRetries,
		time.Millisecond,
		clockwork.NewRealClock(),
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestFetch_SuccessFirstAttempt(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, sourceURL := c.Fetch(context.Background(), testQuery())

	assert.Equal(t, sampleCSV, body)
	assert.Contains(t, sourceURL, srv.URL)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Equal(t, sampleCSV, body)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetch_RetriesOn500(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Equal(t, sampleCSV, body)
	assert.Equal(t, int64(2), calls.Load())
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Empty(t, body)
	// First attempt plus three retries.
	assert.Equal(t, int64(4), calls.Load())
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Empty(t, body)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_BlankBodyNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		io.WriteString(w, "  \n\t\n")
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Empty(t, body)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_NetworkErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // refuse all connections

	c := testClient(srv.URL, 2)
	body, _ := c.Fetch(context.Background(), testQuery())

	assert.Empty(t, body)
}

func TestFetch_CancelledContextStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	// Long base delay: cancellation must win over the backoff timer.
	c := NewClient(srv.URL, 5*time.Second, 5, time.Hour,
		clockwork.NewRealClock(),
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan string, 1)
	go func() {
		body, _ := c.Fetch(ctx, testQuery())
		done <- body
	}()

	select {
	case body := <-done:
		assert.Empty(t, body)
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not return after context cancellation")
	}
}

func TestQueryURL_Parameters(t *testing.T) {
	c := testClient("https://hfradar.ndbc.noaa.gov/tabdownload.php", 5)
	u := c.QueryURL(testQuery())

	parsed, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	q := parsed.URL.Query()

	assert.Equal(t, "2026-03-14 12:00:00", q.Get("from"))
	assert.Equal(t, "2026-03-14 18:00:00", q.Get("to"))
	assert.Equal(t, "cms", q.Get("uom"))
	assert.Equal(t, "csv", q.Get("fmt"))
	assert.NotEmpty(t, q.Get("lat"))
	assert.NotEmpty(t, q.Get("lng"))
	assert.NotEmpty(t, q.Get("lat2"))
	assert.NotEmpty(t, q.Get("lng2"))
}
