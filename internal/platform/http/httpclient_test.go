package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_SlowSourceTimesOut(t *testing.T) {
	t.Parallel()

	// ヘッダーを返さない価格ソース
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(50*time.Millisecond, "price-collector")
	assert.Equal(t, 50*time.Millisecond, client.Timeout)

	start := time.Now()
	resp, err := client.Get(server.URL + "/api/v3/simple/price")
	if err == nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewHTTPClient_ContextDeadlineWins(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewHTTPClient(10*time.Second, "price-collector")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	if err == nil {
		_ = resp.Body.Close()
	}
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewHTTPClient_UserAgent(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
	}))
	defer server.Close()

	t.Run("default user agent is set", func(t *testing.T) {
		client := NewHTTPClient(time.Second, "price-collector")
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, "price-collector", <-got)
		assert.Empty(t, req.Header.Get("User-Agent"), "caller request must stay untouched")
	})

	t.Run("explicit user agent is kept", func(t *testing.T) {
		client := NewHTTPClient(time.Second, "price-collector")
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "sheets-webhook/2")
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, "sheets-webhook/2", <-got)
	})
}

func TestNewHTTPClient_TransportSettings(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient(3*time.Second, "")
	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "no user agent keeps the bare transport")
	assert.Equal(t, 3*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 4, tr.MaxIdleConnsPerHost)
	assert.NotNil(t, tr.Proxy)
}
