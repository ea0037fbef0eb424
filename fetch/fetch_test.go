package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptfeed/fetch"
)

func TestFetch(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher(fetch.Config{Timeout: time.Second, UserAgent: "test-agent/1.0"})
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "<rss/>", string(body))
	assert.Equal(t, "test-agent/1.0", userAgent)
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher(fetch.Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, fetch.ErrStatus)
}

func TestFetchPayloadLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "below limit", size: 15},
		{name: "at limit", size: 16},
		{name: "over limit", size: 17, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(strings.Repeat("x", tt.size)))
			}))
			defer server.Close()

			f := fetch.NewHTTPFetcher(fetch.Config{Timeout: time.Second, MaxPayloadSize: 16})
			body, err := f.Fetch(context.Background(), server.URL)
			if tt.wantErr {
				assert.ErrorIs(t, err, fetch.ErrTooLarge)
				assert.Nil(t, body)
			} else {
				require.NoError(t, err)
				assert.Len(t, body, tt.size)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := fetch.NewHTTPFetcher(fetch.Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchUnreachable(t *testing.T) {
	f := fetch.NewHTTPFetcher(fetch.Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/feed.xml")
	assert.Error(t, err)
}
