package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchlens/backend/internal/domain"
)

const exportBody = `[
	{"url": "https://shop.example/rolex-1", "site": "shop", "title": "Rolex Submariner 116610LN", "price": "£8,500"},
	{"url": "https://shop.example/omega-1", "site": "shop", "title": "Omega Speedmaster", "price": 4250.5, "year": 2019}
]`

// newTestClient returns a client that does not wait between retries
func newTestClient() *Client {
	client := NewClient(ClientConfig{RequestsPerSecond: 1000, Burst: 100})
	client.backoff = func(int) time.Duration { return 0 }
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{})

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, DefaultMaxRetries, client.maxRetries)
	assert.Equal(t, "WatchLens/1.0", client.userAgent)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFetchRecords_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export.json", r.URL.Path)
		assert.Equal(t, "WatchLens/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(exportBody))
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL+"/export.json")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://shop.example/rolex-1", records[0].StringOr("url", ""))
	assert.Equal(t, "£8,500", records[0].StringOr("price", ""))
	assert.Equal(t, "4250.5", records[1].StringOr("price", ""))
	assert.Equal(t, "2019", records[1].StringOr("year", ""))
}

func TestFetchRecords_ServerError_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(exportBody))
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 3, attempts)
}

func TestFetchRecords_AllRetriesFail(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL)

	assert.Nil(t, records)
	assert.ErrorIs(t, err, domain.ErrFeedFailure)
	assert.Equal(t, DefaultMaxRetries, attempts)
}

func TestFetchRecords_ClientError_NoRetry(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL)

	assert.Nil(t, records)
	assert.ErrorIs(t, err, domain.ErrFeedFailure)
	assert.Equal(t, 1, attempts) // 4xx other than 429 is final
}

func TestFetchRecords_TooManyRequests_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(exportBody))
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, attempts)
}

func TestFetchRecords_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := newTestClient()

	records, err := client.FetchRecords(context.Background(), server.URL)

	assert.Nil(t, records)
	assert.ErrorIs(t, err, domain.ErrFeedFailure)
	assert.Contains(t, err.Error(), "not JSON")
}

func TestFetchRecords_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	records, err := client.FetchRecords(ctx, server.URL)

	assert.Nil(t, records)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
