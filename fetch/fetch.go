package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ptfeed_fetch_attempts_total",
		Help: "The total number of source fetch attempts",
	}, []string{"source"})

	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ptfeed_fetch_errors_total",
		Help: "The total number of failed source fetches, by reason",
	}, []string{"source", "reason"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ptfeed_fetch_duration_seconds",
		Help:    "Duration of source fetches",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // Start at 50ms, double each bucket, 10 buckets
	}, []string{"source"})

	fetchBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ptfeed_fetch_bytes_total",
		Help: "Bytes read from sources",
	}, []string{"source"})
)

// DefaultMaxPayloadSize bounds a single feed document
const DefaultMaxPayloadSize = 10 * 1024 * 1024

var (
	// ErrStatus is returned for non-2xx responses
	ErrStatus = errors.New("unexpected status")
	// ErrTooLarge is returned when a document exceeds the payload limit
	ErrTooLarge = errors.New("payload too large")
)

// Config holds configuration for the HTTP fetcher
type Config struct {
	Timeout   time.Duration
	UserAgent string
	// Defaults to DefaultMaxPayloadSize
	MaxPayloadSize int64
}

// HTTPFetcher downloads feed documents
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	maxPayloadSize int64
}

// NewHTTPFetcher creates a fetcher whose every request is bounded by config.Timeout
func NewHTTPFetcher(config Config) *HTTPFetcher {
	maxSize := config.MaxPayloadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxPayloadSize
	}
	return &HTTPFetcher{
		client:         &http.Client{Timeout: config.Timeout},
		userAgent:      config.UserAgent,
		maxPayloadSize: maxSize,
	}
}

// Fetch returns the body of url. Redirects are followed.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	fetchAttempts.WithLabelValues(url).Inc()
	start := time.Now()
	defer func() {
		fetchDuration.WithLabelValues(url).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fetchErrors.WithLabelValues(url, "request").Inc()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		fetchErrors.WithLabelValues(url, reason(err)).Inc()
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fetchErrors.WithLabelValues(url, "status").Inc()
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	// One byte past the limit tells a full document from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxPayloadSize+1))
	if err != nil {
		fetchErrors.WithLabelValues(url, reason(err)).Inc()
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxPayloadSize {
		fetchErrors.WithLabelValues(url, "size").Inc()
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, f.maxPayloadSize)
	}
	fetchBytes.WithLabelValues(url).Add(float64(len(body)))

	log.WithFields(log.Fields{
		"url":      url,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debug("Fetched source")

	return body, nil
}

func reason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network"
}
