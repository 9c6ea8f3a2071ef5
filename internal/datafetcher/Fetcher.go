/*

This file contains the shared HTTP fetcher used by the price and pool
retrievers. All fetches run with a bounded timeout and recover to static
fallback data, so an upstream failure never aborts an allocation cycle.

*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/starkfolio/apa/internal/logger"
)

var (
	ErrUpstreamStatus = errors.New("upstream returned non-OK status")
)

const (
	defaultPriceBaseURL  = "https://api.coingecko.com/api/v3"
	defaultZkLendBaseURL = "https://app.zklend.com/api"
	defaultEkuboBaseURL  = "https://mainnet-api.ekubo.org"

	requestTimeout = 15 * time.Second
)

// Fetcher retrieves market and protocol data over HTTP. Base URLs are
// overridable for tests.
type Fetcher struct {
	httpClient    *http.Client
	priceBaseURL  string
	zklendBaseURL string
	ekuboBaseURL  string
	logger        zerolog.Logger
}

// Option overrides a Fetcher default.
type Option func(*Fetcher)

// WithPriceBaseURL overrides the price API base URL.
func WithPriceBaseURL(url string) Option { return func(f *Fetcher) { f.priceBaseURL = url } }

// WithZkLendBaseURL overrides the zkLend API base URL.
func WithZkLendBaseURL(url string) Option { return func(f *Fetcher) { f.zklendBaseURL = url } }

// WithEkuboBaseURL overrides the Ekubo API base URL.
func WithEkuboBaseURL(url string) Option { return func(f *Fetcher) { f.ekuboBaseURL = url } }

// NewFetcher creates a fetcher with production endpoints and a bounded
// client timeout.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:    &http.Client{Timeout: requestTimeout},
		priceBaseURL:  defaultPriceBaseURL,
		zklendBaseURL: defaultZkLendBaseURL,
		ekuboBaseURL:  defaultEkuboBaseURL,
		logger:        logger.GetForComponent("data_fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// getJSON performs one GET and decodes the response body into out.
func (f *Fetcher) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d from %s", ErrUpstreamStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response from %s: %w", url, err)
	}
	return nil
}
