// Package location geocodes UK postcodes and finds nearby places to
// enrich listing prompts.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for geocoding failures. ErrInvalidPostcode means the
// input does not resolve to coordinates; the others mean the upstream
// service itself failed.
var (
	ErrInvalidPostcode      = errors.New("postcode does not resolve to a location")
	ErrPostcodesUnreachable = errors.New("postcodes.io unreachable")
	ErrPostcodesQueryError  = errors.New("postcodes.io query error")
)

// PostcodesClient is the interface for postcode geocoding.
type PostcodesClient interface {
	Lookup(ctx context.Context, postcode string) (Coordinates, error)
}

// Coordinates is a raw lat/lon pair from a geocoding lookup.
type Coordinates struct {
	Lat float64
	Lon float64
}

// HTTPPostcodesClient implements PostcodesClient using the postcodes.io API.
type HTTPPostcodesClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPostcodesClient creates a new postcodes.io HTTP client.
func NewHTTPPostcodesClient(baseURL string, timeout time.Duration) *HTTPPostcodesClient {
	return &HTTPPostcodesClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPPostcodesClient) Lookup(ctx context.Context, postcode string) (Coordinates, error) {
	u := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(postcode))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Coordinates{}, classifyTransportError(err, ErrPostcodesUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Coordinates{}, ErrInvalidPostcode
	}
	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrPostcodesQueryError, resp.StatusCode)
	}

	var lookupResp postcodesLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookupResp); err != nil {
		return Coordinates{}, fmt.Errorf("decoding postcodes.io response: %w", err)
	}
	if lookupResp.Status != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrPostcodesQueryError, lookupResp.Status)
	}

	// Some valid postcodes carry no coordinates (e.g. PO boxes); callers
	// treat that the same as an unknown postcode.
	if lookupResp.Result.Latitude == nil || lookupResp.Result.Longitude == nil {
		return Coordinates{}, ErrInvalidPostcode
	}

	return Coordinates{
		Lat: *lookupResp.Result.Latitude,
		Lon: *lookupResp.Result.Longitude,
	}, nil
}

// classifyTransportError maps transport-level errors to a sentinel error.
func classifyTransportError(err error, unreachable error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", unreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", unreachable, err)
	}

	return fmt.Errorf("%w: %v", unreachable, err)
}

// --- postcodes.io response types ---

type postcodesLookupResponse struct {
	Status int                   `json:"status"`
	Result postcodesLookupResult `json:"result"`
}

type postcodesLookupResult struct {
	Postcode  string   `json:"postcode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Compile-time check that HTTPPostcodesClient implements PostcodesClient.
var _ PostcodesClient = (*HTTPPostcodesClient)(nil)
