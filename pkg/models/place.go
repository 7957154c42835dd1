package models

// Place kinds returned by the enrichment fan-out.
const (
	PlaceKindStation = "station"
	PlaceKindPub     = "pub"
	PlaceKindPark    = "park"
)

// Location is a geocoded coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NearbyPlace is one enrichment result: the nearest entity of a kind and
// its distance from the geocoded location, in km rounded to 2 decimals.
type NearbyPlace struct {
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	DistanceKM float64 `json:"distance_km"`
}
