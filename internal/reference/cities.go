package reference

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// Lookup failures.
var (
	ErrUnknownCity     = errors.New("unknown city")
	ErrUnknownRoomType = errors.New("unknown room type")
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// City is a static reference record for a searchable city.
type City struct {
	Key            string      `json:"key"`
	Name           string      `json:"name"`
	CountryCode    string      `json:"country_code"`
	Center         Coordinates `json:"center"`
	CostMultiplier float64     `json:"cost_multiplier"`

	// Provider location identifiers. Empty means the provider has no
	// mapping for this city and live searches there fall back to demo data.
	BookingDestID     string `json:"booking_dest_id,omitempty"`
	TripAdvisorGeoID  string `json:"tripadvisor_geo_id,omitempty"`
	curatedHotelNames []string
}

// HotelNames returns the curated hotel names used for demo inventory.
// Nil means the city has no curated list.
func (c City) HotelNames() []string {
	return slices.Clone(c.curatedHotelNames)
}

var cities = map[string]City{
	"paris": {
		Key: "paris", Name: "Paris", CountryCode: "FR",
		Center:         Coordinates{Lat: 48.8566, Lon: 2.3522},
		CostMultiplier: 1.3,
		BookingDestID:  "-1456928", TripAdvisorGeoID: "187147",
		curatedHotelNames: []string{
			"Hôtel Le Marais", "Grand Hôtel Opéra", "Hôtel Saint-Germain",
			"Le Petit Montmartre", "Hôtel Rive Gauche", "Maison Bastille",
			"Hôtel des Tuileries", "Le Louvre Boutique", "Hôtel Champs-Élysées Plaza",
			"Résidence Latin Quarter",
		},
	},
	"london": {
		Key: "london", Name: "London", CountryCode: "GB",
		Center:         Coordinates{Lat: 51.5074, Lon: -0.1278},
		CostMultiplier: 1.4,
		BookingDestID:  "-2601889", TripAdvisorGeoID: "186338",
		curatedHotelNames: []string{
			"The Covent Garden Hotel", "Kensington Gardens Inn", "The Shoreditch House",
			"Westminster Bridge Lodge", "The Soho Townhouse", "Mayfair Court Hotel",
			"Camden Lock Rooms", "The Southbank Residence", "Bloomsbury Square Hotel",
		},
	},
	"rome": {
		Key: "rome", Name: "Rome", CountryCode: "IT",
		Center:         Coordinates{Lat: 41.9028, Lon: 12.4964},
		CostMultiplier: 1.1,
		BookingDestID:  "-126693", TripAdvisorGeoID: "187791",
		curatedHotelNames: []string{
			"Hotel Trastevere", "Albergo del Colosseo", "Palazzo Navona",
			"Hotel Via Veneto", "Residenza Pantheon", "Hotel Campo de' Fiori",
			"Locanda Monti", "Hotel Spagna",
		},
	},
	"barcelona": {
		Key: "barcelona", Name: "Barcelona", CountryCode: "ES",
		Center:         Coordinates{Lat: 41.3874, Lon: 2.1686},
		CostMultiplier: 1.0,
		BookingDestID:  "-372490", TripAdvisorGeoID: "187497",
		curatedHotelNames: []string{
			"Hotel Gòtic", "Casa Eixample", "Hotel Barceloneta Mar",
			"Ramblas Central", "Hotel Sagrada Vista", "Gràcia Boutique Rooms",
			"Hotel Montjuïc", "El Born Suites",
		},
	},
	"berlin": {
		Key: "berlin", Name: "Berlin", CountryCode: "DE",
		Center:         Coordinates{Lat: 52.5200, Lon: 13.4050},
		CostMultiplier: 0.95,
		BookingDestID:  "-1746443", TripAdvisorGeoID: "187323",
		curatedHotelNames: []string{
			"Hotel am Alexanderplatz", "Mitte Residenz", "Kreuzberg Loft Hotel",
			"Hotel Tiergarten", "Prenzlauer Berg Pension", "Hotel Unter den Linden",
			"Friedrichshain Rooms",
		},
	},
	"amsterdam": {
		Key: "amsterdam", Name: "Amsterdam", CountryCode: "NL",
		Center:         Coordinates{Lat: 52.3676, Lon: 4.9041},
		CostMultiplier: 1.25,
		BookingDestID:  "-2140479", TripAdvisorGeoID: "188590",
		curatedHotelNames: []string{
			"Canal House Hotel", "Hotel Jordaan", "De Pijp Residence",
			"Hotel Dam Square", "Vondelpark Lodge", "Herengracht Suites",
			"Hotel Oosterdok",
		},
	},
	"new_york": {
		Key: "new_york", Name: "New York", CountryCode: "US",
		Center:         Coordinates{Lat: 40.7128, Lon: -74.0060},
		CostMultiplier: 1.6,
		BookingDestID:  "20088325", TripAdvisorGeoID: "60763",
		curatedHotelNames: []string{
			"The Midtown Grand", "SoHo Loft Hotel", "Chelsea Park Inn",
			"The Tribeca Residence", "Hotel Central Park South", "Brooklyn Bridge Suites",
			"The Greenwich Village House", "Times Square Plaza",
		},
	},
	"lisbon": {
		Key: "lisbon", Name: "Lisbon", CountryCode: "PT",
		Center:         Coordinates{Lat: 38.7223, Lon: -9.1393},
		CostMultiplier: 0.85,
		BookingDestID:  "-2167973", TripAdvisorGeoID: "189158",
	},
	"prague": {
		Key: "prague", Name: "Prague", CountryCode: "CZ",
		Center:         Coordinates{Lat: 50.0755, Lon: 14.4378},
		CostMultiplier: 0.7,
		BookingDestID:  "-553173", TripAdvisorGeoID: "274707",
	},
	"vienna": {
		Key: "vienna", Name: "Vienna", CountryCode: "AT",
		Center:         Coordinates{Lat: 48.2082, Lon: 16.3738},
		CostMultiplier: 1.0,
		BookingDestID:  "-1995499", TripAdvisorGeoID: "190454",
	},
	"reykjavik": {
		Key: "reykjavik", Name: "Reykjavik", CountryCode: "IS",
		Center:         Coordinates{Lat: 64.1466, Lon: -21.9426},
		CostMultiplier: 1.35,
		BookingDestID:  "-2651798",
	},
}

// LookupCity returns the reference record for a city key. Keys are
// matched case-insensitively.
func LookupCity(key string) (City, bool) {
	c, ok := cities[strings.ToLower(strings.TrimSpace(key))]
	return c, ok
}

// Cities returns every city record ordered by key.
func Cities() []City {
	out := make([]City, 0, len(cities))
	for _, key := range slices.Sorted(maps.Keys(cities)) {
		out = append(out, cities[key])
	}
	return out
}
