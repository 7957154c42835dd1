package listing

import (
	"fmt"
	"strings"

	"github.com/propscribe/propscribe/internal/llm"
	"github.com/propscribe/propscribe/pkg/models"
)

const systemPrompt = "You are helpfully generating passages of text which will be published on a website."

const noNearbyFallback = "It does not have any nearby amenities but may be a short drive away from somewhere more populated."

// periodStyles is the priority order for the mutually exclusive period
// flags. The first set flag wins; the rest are ignored.
var periodStyles = []struct {
	name string
	set  func(*Character) bool
}{
	{"Georgian", func(c *Character) bool { return c.Georgian }},
	{"Edwardian", func(c *Character) bool { return c.Edwardian }},
	{"Victorian", func(c *Character) bool { return c.Victorian }},
	{"1920s", func(c *Character) bool { return c.Twenties }},
	{"1930s", func(c *Character) bool { return c.Thirties }},
	{"1940s", func(c *Character) bool { return c.Forties }},
	{"1950s", func(c *Character) bool { return c.Fifties }},
	{"1960s", func(c *Character) bool { return c.Sixties }},
	{"1970s", func(c *Character) bool { return c.Seventies }},
	{"1980s", func(c *Character) bool { return c.Eighties }},
	{"1990s", func(c *Character) bool { return c.Nineties }},
	{"modern", func(c *Character) bool { return c.Modern }},
}

// ComposePrompt builds the chat messages for a listing request. It is
// pure: same params and places always produce the same messages, in a
// fixed section order (base facts, character, interior, exterior,
// locality, nearby places).
func ComposePrompt(params Params, places []models.NearbyPlace) []llm.Message {
	lines := []string{
		"Generate a description for a property listing in the style of Rightmove and Zoopla.",
		fmt.Sprintf("The type of property is %s across %d floors.", params.PropertyType, params.Floors),
		fmt.Sprintf("It has %d bedrooms and %d bathrooms.", params.Bedrooms, params.Bathrooms),
		fmt.Sprintf("The property has the postcode of %s which is in the United Kingdom.", params.Postcode),
	}

	lines = append(lines, characterLines(params.Character)...)
	lines = append(lines, interiorLines(params.Interior)...)
	lines = append(lines, exteriorLines(params.Exterior)...)
	lines = append(lines, localityLines(params.Location)...)
	lines = append(lines, nearbyLines(places)...)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: strings.Join(lines, "\n")},
	}
}

func characterLines(c *Character) []string {
	if c == nil {
		return nil
	}

	var lines []string
	if c.NewBuild {
		lines = append(lines, "The property is a new build.")
	}

	style := ""
	for _, s := range periodStyles {
		if s.set(c) {
			style = s.name
			break
		}
	}

	switch {
	case c.Period && style != "":
		lines = append(lines, fmt.Sprintf("It is a period property with %s character.", style))
	case c.Period:
		lines = append(lines, "It is a period property.")
	case style != "":
		lines = append(lines, fmt.Sprintf("It has a %s style.", style))
	}

	return lines
}

func interiorLines(i *Interior) []string {
	if i == nil {
		return nil
	}

	var lines []string
	switch {
	case i.NeedsRenovation:
		lines = append(lines, "The interior needs renovation.")
	case i.Dated:
		lines = append(lines, "The interior is dated.")
	case i.RecentRenovation:
		lines = append(lines, "The interior has been recently renovated.")
	case i.Modern:
		lines = append(lines, "The interior is modern throughout.")
	}

	features := joinFeatures([]feature{
		{i.ModernKitchen, "a modern kitchen"},
		{i.ModernBathroom, "a modern bathroom"},
		{i.OpenPlanLiving, "open-plan living space"},
		{i.KitchenDining, "a kitchen-diner"},
		{i.EnsuiteMaster, "an en-suite master bedroom"},
		{i.UtilityRoom, "a utility room"},
	})
	if features != "" {
		lines = append(lines, fmt.Sprintf("Inside there is %s.", features))
	}

	return lines
}

func exteriorLines(e *Exterior) []string {
	if e == nil {
		return nil
	}

	var lines []string
	if e.LandAcres > 0 {
		lines = append(lines, fmt.Sprintf("The property sits on %g acres of land.", e.LandAcres))
	}
	if e.GardenAcres > 0 {
		lines = append(lines, fmt.Sprintf("It has %g acres of garden.", e.GardenAcres))
	}

	features := joinFeatures([]feature{
		{e.Garden, "a garden"},
		{e.FrontGarden, "a front garden"},
		{e.Terrace, "a terrace"},
		{e.Balcony, "a balcony"},
		{e.CarPort, "a car port"},
		{e.DoubleGarage, "a double garage"},
		{e.Garage && !e.DoubleGarage, "a garage"},
		{e.SecureParking, "secure parking"},
		{e.OffStreetParking, "off-street parking"},
		{e.OnStreetParking, "on-street parking"},
		{e.StorageUnit, "a storage unit"},
		{e.OutdoorWater, "an outdoor water supply"},
		{e.DoubleGlazing, "double glazing"},
	})
	if features != "" {
		lines = append(lines, fmt.Sprintf("Outside the property has %s.", features))
	}

	return lines
}

func localityLines(l *Locality) []string {
	if l == nil {
		return nil
	}

	var lines []string
	if l.CommuteToLargeCity {
		lines = append(lines, "It is within commuting distance of a large city.")
	}

	walkable := joinFeatures([]feature{
		{l.WalkToStation, "the station"},
		{l.WalkToHighStreet, "the high street"},
		{l.WalkToPub, "a pub"},
		{l.WalkToPark, "a park"},
	})
	if walkable != "" {
		lines = append(lines, fmt.Sprintf("It is within walking distance of %s.", walkable))
	}

	area := joinFeatures([]feature{
		{l.NearbyPrimarySchool, "a primary school"},
		{l.NearbySecondarySchool, "a secondary school"},
		{l.NearbyNature, "areas of natural beauty"},
		{l.NearbyNationalPark, "a national park"},
		{l.NearbySeaside, "the seaside"},
	})
	if area != "" {
		lines = append(lines, fmt.Sprintf("The area is close to %s.", area))
	}

	return lines
}

func nearbyLines(places []models.NearbyPlace) []string {
	if len(places) == 0 {
		return []string{noNearbyFallback}
	}

	lines := []string{"The local places and amenities nearby are:"}
	for _, p := range places {
		lines = append(lines, fmt.Sprintf("%s is a %s which is %gkm away;", p.Name, p.Kind, p.DistanceKM))
	}
	lines = append(lines, "Mention these places in the listing. Do not mention any other nearby places other than these.")
	return lines
}

type feature struct {
	set  bool
	text string
}

// joinFeatures renders set features as a natural list ("a, b and c").
func joinFeatures(features []feature) string {
	var parts []string
	for _, f := range features {
		if f.set {
			parts = append(parts, f.text)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
