package providers

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alex-user-go/hotelfeed/internal/obs"
	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/demo"
	"github.com/alex-user-go/hotelfeed/internal/search/extract"
	"github.com/alex-user-go/hotelfeed/internal/search/links"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// TripAdvisor defaults for the RapidAPI travel-advisor endpoint.
const (
	TripAdvisorName        = "tripadvisor"
	TripAdvisorDefaultURL  = "https://travel-advisor.p.rapidapi.com"
	TripAdvisorDefaultHost = "travel-advisor.p.rapidapi.com"
)

const (
	tripAdvisorRatingScale = 5
	tripAdvisorMaxEntries  = 30
)

// NewTripAdvisorAdapter creates the adapter for the review-site provider.
func NewTripAdvisorAdapter(
	cfg Config,
	fetcher Fetcher,
	searchCache Cache,
	synth *demo.Synthesizer,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = TripAdvisorDefaultURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = TripAdvisorDefaultHost
	}
	return newAdapter(tripAdvisorProvider{}, cfg, fetcher, searchCache, synth, metrics, logger)
}

type tripAdvisorProvider struct{}

func (tripAdvisorProvider) name() string             { return TripAdvisorName }
func (tripAdvisorProvider) liveSource() types.Source { return types.SourceTripAdvisor }
func (tripAdvisorProvider) demoSource() types.Source { return types.SourceTripAdvisorDemo }
func (tripAdvisorProvider) path() string             { return "/hotels/list" }
func (tripAdvisorProvider) maxEntries() int          { return tripAdvisorMaxEntries }

func (tripAdvisorProvider) locationID(city reference.City) string {
	return city.TripAdvisorGeoID
}

func (tripAdvisorProvider) query(req types.SearchRequest, locationID string) url.Values {
	q := url.Values{}
	q.Set("location_id", locationID)
	q.Set("checkin", req.CheckIn.Format(types.DateLayout))
	q.Set("nights", strconv.Itoa(req.Nights()))
	q.Set("adults", strconv.Itoa(req.Adults))
	q.Set("rooms", strconv.Itoa(req.Rooms))
	q.Set("currency", defaultCurrency)
	q.Set("lang", "en_US")
	q.Set("subcategory", "hotel")
	q.Set("limit", strconv.Itoa(tripAdvisorMaxEntries))
	return q
}

func (tripAdvisorProvider) entries(payload any) ([]any, error) {
	return listAt(payload, "data")
}

// normalize rejects entries without a name; the list endpoint mixes
// sponsored placeholders into the results that carry none.
func (tripAdvisorProvider) normalize(index int, raw map[string]any, _ types.SearchRequest, city reference.City, room reference.RoomType) (types.HotelRecord, error) {
	name := extract.String(raw["name"])
	if name == "" {
		return types.HotelRecord{}, fmt.Errorf("%w: missing name", ErrInvalidEntry)
	}

	locationID := extract.String(raw["location_id"])
	id := locationID
	if id == "" {
		id = fmt.Sprintf("%s_%d", TripAdvisorName, index+1)
	}

	address := extract.String(raw["address"])
	if address == "" {
		address = extract.String(raw["location_string"])
	}
	if address == "" {
		address = city.Name
	}

	coords, _ := extract.Coordinates(raw["latitude"], raw["longitude"], city.Center, index)
	rating, _ := extract.Rating(raw["rating"], tripAdvisorRatingScale)

	return types.HotelRecord{
		ID:              id,
		Name:            name,
		Address:         address,
		Latitude:        coords.Lat,
		Longitude:       coords.Lon,
		Price:           extract.Price(raw["price"]),
		Currency:        defaultCurrency,
		Rating:          rating,
		RoomType:        room.Name,
		RoomDescription: room.Description,
		URL:             links.TripAdvisor(locationID, name, city),
		Source:          types.SourceTripAdvisor,
	}, nil
}

func (tripAdvisorProvider) demoLink(name string, _ types.SearchRequest, city reference.City) string {
	return links.TripAdvisor("", name, city)
}
