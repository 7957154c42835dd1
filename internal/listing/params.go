// Package listing generates UK property listing descriptions: it
// composes a prompt from listing parameters and location enrichment,
// calls the model, and tracks every attempt as a completion record.
package listing

// Params describes the property a caller wants a listing for.
type Params struct {
	Postcode     string `json:"postcode"`
	PropertyType string `json:"property_type"`
	Floors       int    `json:"floors"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`

	Character *Character `json:"character,omitempty"`
	Interior  *Interior  `json:"interior,omitempty"`
	Exterior  *Exterior  `json:"exterior,omitempty"`
	Location  *Locality  `json:"location,omitempty"`
}

// Character captures the property's age and period style. The period
// style flags are mutually exclusive; composition picks the first set
// flag in a fixed priority order and ignores the rest.
type Character struct {
	NewBuild bool `json:"new_build"`
	Period   bool `json:"period"`

	Georgian  bool `json:"georgian,omitempty"`
	Edwardian bool `json:"edwardian,omitempty"`
	Victorian bool `json:"victorian,omitempty"`
	Twenties  bool `json:"twenties,omitempty"`
	Thirties  bool `json:"thirties,omitempty"`
	Forties   bool `json:"forties,omitempty"`
	Fifties   bool `json:"fifties,omitempty"`
	Sixties   bool `json:"sixties,omitempty"`
	Seventies bool `json:"seventies,omitempty"`
	Eighties  bool `json:"eighties,omitempty"`
	Nineties  bool `json:"nineties,omitempty"`
	Modern    bool `json:"modern,omitempty"`
}

// Interior flags notable interior features and condition.
type Interior struct {
	Dated            bool `json:"dated,omitempty"`
	NeedsRenovation  bool `json:"needs_renovation,omitempty"`
	Modern           bool `json:"modern,omitempty"`
	ModernKitchen    bool `json:"modern_kitchen,omitempty"`
	ModernBathroom   bool `json:"modern_bathroom,omitempty"`
	RecentRenovation bool `json:"recent_renovation,omitempty"`
	OpenPlanLiving   bool `json:"open_plan_living,omitempty"`
	KitchenDining    bool `json:"kitchen_dining,omitempty"`
	EnsuiteMaster    bool `json:"ensuite_master,omitempty"`
	UtilityRoom      bool `json:"utility_room,omitempty"`
}

// Exterior flags outdoor space, parking and fittings.
type Exterior struct {
	LandAcres   float64 `json:"land_acres,omitempty"`
	GardenAcres float64 `json:"garden_acres,omitempty"`

	Garden           bool `json:"garden,omitempty"`
	FrontGarden      bool `json:"front_garden,omitempty"`
	Terrace          bool `json:"terrace,omitempty"`
	Balcony          bool `json:"balcony,omitempty"`
	CarPort          bool `json:"car_port,omitempty"`
	Garage           bool `json:"garage,omitempty"`
	DoubleGarage     bool `json:"double_garage,omitempty"`
	OnStreetParking  bool `json:"onstreet_parking,omitempty"`
	OffStreetParking bool `json:"offstreet_parking,omitempty"`
	SecureParking    bool `json:"secure_parking,omitempty"`
	StorageUnit      bool `json:"storage_unit,omitempty"`
	OutdoorWater     bool `json:"outdoor_water,omitempty"`
	DoubleGlazing    bool `json:"double_glazing,omitempty"`
}

// Locality flags what the seller says about the surrounding area, as
// opposed to the verified enrichment results.
type Locality struct {
	CommuteToLargeCity    bool `json:"commute_to_large_city,omitempty"`
	WalkToStation         bool `json:"walk_to_station,omitempty"`
	WalkToHighStreet      bool `json:"walk_to_highstreet,omitempty"`
	WalkToPub             bool `json:"walk_to_pub,omitempty"`
	WalkToPark            bool `json:"walk_to_park,omitempty"`
	NearbyPrimarySchool   bool `json:"nearby_primary_school,omitempty"`
	NearbySecondarySchool bool `json:"nearby_secondary_school,omitempty"`
	NearbyNature          bool `json:"nearby_nature,omitempty"`
	NearbyNationalPark    bool `json:"nearby_national_park,omitempty"`
	NearbySeaside         bool `json:"nearby_seaside,omitempty"`
}
