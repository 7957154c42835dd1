package location

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"github.com/propscribe/propscribe/pkg/models"
)

// nearbyLookup describes one enrichment kind: what to search for and how
// far out the search may reach. Radii are tuned per kind; people will
// travel further to a station than to a pub.
type nearbyLookup struct {
	kind         string
	keyword      string
	radiusMeters int
}

var nearbyLookups = []nearbyLookup{
	{kind: models.PlaceKindStation, keyword: "railway station", radiusMeters: 2500},
	{kind: models.PlaceKindPub, keyword: "pub", radiusMeters: 900},
	{kind: models.PlaceKindPark, keyword: "park or common", radiusMeters: 1500},
}

// Service resolves postcodes to coordinates and fans out nearby-place
// lookups. Safe for concurrent use across requests.
type Service struct {
	postcodes PostcodesClient
	places    PlacesClient
}

// NewService creates a new location Service.
func NewService(postcodes PostcodesClient, places PlacesClient) *Service {
	return &Service{postcodes: postcodes, places: places}
}

// Geocode resolves a UK postcode to coordinates. An unknown postcode
// returns ErrInvalidPostcode; upstream failures return the client's
// sentinel errors.
func (s *Service) Geocode(ctx context.Context, postcode string) (models.Location, error) {
	coords, err := s.postcodes.Lookup(ctx, postcode)
	if err != nil {
		return models.Location{}, err
	}
	return models.Location{Lat: coords.Lat, Lon: coords.Lon}, nil
}

// NearbyPlaces runs one lookup per place kind concurrently and merges the
// nearest hit of each kind. Kinds with zero results are omitted; a
// provider-level failure on any lookup fails the whole step, since it
// signals service degradation rather than an empty neighbourhood.
func (s *Service) NearbyPlaces(ctx context.Context, loc models.Location) ([]models.NearbyPlace, error) {
	origin := Coordinates{Lat: loc.Lat, Lon: loc.Lon}
	found := make([]*models.NearbyPlace, len(nearbyLookups))

	g, gctx := errgroup.WithContext(ctx)
	for i, lookup := range nearbyLookups {
		g.Go(func() error {
			places, err := s.places.Nearby(gctx, origin, lookup.radiusMeters, lookup.keyword)
			if err != nil {
				return fmt.Errorf("nearby %s: %w", lookup.kind, err)
			}
			if len(places) == 0 {
				return nil
			}
			nearest := places[0]
			found[i] = &models.NearbyPlace{
				Kind:       lookup.kind,
				Name:       nearest.Name,
				DistanceKM: roundKM(haversineMeters(origin, Coordinates{Lat: nearest.Lat, Lon: nearest.Lon})),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]models.NearbyPlace, 0, len(found))
	for _, p := range found {
		if p != nil {
			merged = append(merged, *p)
		}
	}
	return merged, nil
}

const earthRadiusMeters = 6371000

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(a, b Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// roundKM converts meters to km rounded to 2 decimals.
func roundKM(meters float64) float64 {
	return math.Round(meters/10) / 100
}
