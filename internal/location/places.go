package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sentinel errors for place-search failures.
var (
	ErrPlacesUnreachable = errors.New("places api unreachable")
	ErrPlacesQueryError  = errors.New("places api query error")
)

// PlacesClient is the interface for nearby place search.
type PlacesClient interface {
	// Nearby returns places matching keyword within radiusMeters of loc,
	// ordered by provider relevance. Zero results is not an error.
	Nearby(ctx context.Context, loc Coordinates, radiusMeters int, keyword string) ([]Place, error)
}

// Place is one raw place-search result.
type Place struct {
	Name string
	Lat  float64
	Lon  float64
}

// HTTPPlacesClient implements PlacesClient using the Google Places
// nearby-search API.
type HTTPPlacesClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPPlacesClient creates a new Places HTTP client.
func NewHTTPPlacesClient(baseURL, apiKey string, timeout time.Duration) *HTTPPlacesClient {
	return &HTTPPlacesClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPPlacesClient) Nearby(ctx context.Context, loc Coordinates, radiusMeters int, keyword string) ([]Place, error) {
	params := url.Values{
		"key":      {c.apiKey},
		"location": {fmt.Sprintf("%f,%f", loc.Lat, loc.Lon)},
		"radius":   {strconv.Itoa(radiusMeters)},
		"keyword":  {keyword},
	}

	u := fmt.Sprintf("%s/maps/api/place/nearbysearch/json?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err, ErrPlacesUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrPlacesQueryError, resp.StatusCode)
	}

	var placesResp placesNearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&placesResp); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}

	// An error_message signals provider-level degradation even with a 200.
	if placesResp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrPlacesQueryError, placesResp.ErrorMessage)
	}

	places := make([]Place, 0, len(placesResp.Results))
	for _, r := range placesResp.Results {
		places = append(places, Place{
			Name: r.Name,
			Lat:  r.Geometry.Location.Lat,
			Lon:  r.Geometry.Location.Lng,
		})
	}
	return places, nil
}

// --- Places response types ---

type placesNearbyResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message"`
	Results      []placesResultEntry `json:"results"`
}

type placesResultEntry struct {
	Name     string         `json:"name"`
	Geometry placesGeometry `json:"geometry"`
}

type placesGeometry struct {
	Location placesLatLng `json:"location"`
}

type placesLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Compile-time check that HTTPPlacesClient implements PlacesClient.
var _ PlacesClient = (*HTTPPlacesClient)(nil)
