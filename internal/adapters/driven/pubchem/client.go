// Package pubchem provides the upstream compound-data client against
// the PubChem PUG REST API, with proactive throttling and capped,
// jittered retry for transient failures.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.CompoundFetcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	DefaultTimeout = 30 * time.Second

	// RequestsPerSecond follows PubChem's published usage policy of no
	// more than five requests per second.
	RequestsPerSecond = 5

	// MaxRetries caps retry attempts for 429/5xx responses.
	MaxRetries = 3

	// BaseBackoff is the initial retry delay; each retry doubles it and
	// adds jitter.
	BaseBackoff = 500 * time.Millisecond
)

// Config holds configuration for the PubChem client.
type Config struct {
	// BaseURL is the PUG REST base URL (default: the public endpoint).
	BaseURL string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client fetches raw compound records by CID.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a PubChem client with proactive throttling.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
}

// Fetch returns the raw PUG REST record for a CID. 429 and 5xx
// responses are retried with capped exponential backoff and jitter;
// 404 maps to domain.ErrNotFound and 400 is terminal.
func (c *Client) Fetch(ctx context.Context, cid int64) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/compound/cid/%d/JSON", c.baseURL, cid)

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := BaseBackoff << (attempt - 1)
			backoff += time.Duration(rand.Int63n(int64(backoff))) //nolint:gosec // jitter, not crypto
			logger.Debug("PubChem retry %d for CID %d after %s", attempt, cid, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, lastErr)
}

// fetchOnce performs one request. retry reports whether the failure is
// transient.
func (c *Client) fetchOnce(ctx context.Context, url string) (body json.RawMessage, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Connectivity and timeout failures are transient.
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("read response: %w", err)
		}
		return json.RawMessage(data), false, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, domain.ErrNotFound

	case resp.StatusCode == http.StatusBadRequest:
		return nil, false, fmt.Errorf("%w: pubchem rejected request (status 400)", domain.ErrInvalidInput)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("pubchem status %d", resp.StatusCode)

	default:
		return nil, false, fmt.Errorf("pubchem status %d", resp.StatusCode)
	}
}
