package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{BaseURL: serverURL, Timeout: 5 * time.Second})
}

func TestFetch_Success(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"PC_Compounds": [{"id": {"id": {"cid": 2244}}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, err := client.Fetch(context.Background(), 2244)
	require.NoError(t, err)
	assert.JSONEq(t, `{"PC_Compounds": [{"id": {"id": {"cid": 2244}}}]}`, string(body))
	assert.Equal(t, "/compound/cid/2244/JSON", gotPath)
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetch_BadRequestIsTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"cid": 2244, "name": "Aspirin"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, err := client.Fetch(context.Background(), 2244)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Aspirin")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RetriesExhaustedIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), 2244)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, int32(MaxRetries+1), calls.Load())
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL)
	_, err := client.Fetch(ctx, 2244)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultTimeout, client.client.Timeout)
}
