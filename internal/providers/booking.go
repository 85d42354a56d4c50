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

// Booking defaults for the RapidAPI booking-com endpoint.
const (
	BookingName        = "booking"
	BookingDefaultURL  = "https://booking-com.p.rapidapi.com"
	BookingDefaultHost = "booking-com.p.rapidapi.com"
)

const (
	bookingRatingScale = 10
	bookingMaxEntries  = 30
	defaultCurrency    = "EUR"
)

// NewBookingAdapter creates the adapter for the primary booking provider.
func NewBookingAdapter(
	cfg Config,
	fetcher Fetcher,
	searchCache Cache,
	synth *demo.Synthesizer,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BookingDefaultURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = BookingDefaultHost
	}
	return newAdapter(bookingProvider{}, cfg, fetcher, searchCache, synth, metrics, logger)
}

type bookingProvider struct{}

func (bookingProvider) name() string             { return BookingName }
func (bookingProvider) liveSource() types.Source { return types.SourceBooking }
func (bookingProvider) demoSource() types.Source { return types.SourceBookingDemo }
func (bookingProvider) path() string             { return "/v1/hotels/search" }
func (bookingProvider) maxEntries() int          { return bookingMaxEntries }

func (bookingProvider) locationID(city reference.City) string {
	return city.BookingDestID
}

func (bookingProvider) query(req types.SearchRequest, locationID string) url.Values {
	q := url.Values{}
	q.Set("dest_id", locationID)
	q.Set("dest_type", "city")
	q.Set("checkin_date", req.CheckIn.Format(types.DateLayout))
	q.Set("checkout_date", req.CheckOut.Format(types.DateLayout))
	q.Set("adults_number", strconv.Itoa(req.Adults))
	q.Set("room_number", strconv.Itoa(req.Rooms))
	q.Set("filter_by_currency", defaultCurrency)
	q.Set("locale", "en-gb")
	q.Set("order_by", "popularity")
	q.Set("units", "metric")
	q.Set("page_number", "0")
	return q
}

func (bookingProvider) entries(payload any) ([]any, error) {
	return listAt(payload, "result")
}

func (bookingProvider) normalize(index int, raw map[string]any, req types.SearchRequest, city reference.City, room reference.RoomType) (types.HotelRecord, error) {
	name := extract.String(raw["hotel_name"])
	if name == "" {
		name = extract.String(raw["hotel_name_trans"])
	}
	if name == "" {
		return types.HotelRecord{}, fmt.Errorf("%w: missing hotel_name", ErrInvalidEntry)
	}

	id := extract.String(raw["hotel_id"])
	if id == "" {
		id = fmt.Sprintf("%s_%d", BookingName, index+1)
	}

	address := extract.String(raw["address"])
	if address == "" {
		address = city.Name
	}

	currency := extract.String(raw["currencycode"])
	if currency == "" {
		currency = defaultCurrency
	}

	coords, _ := extract.Coordinates(raw["latitude"], raw["longitude"], city.Center, index)
	rating, _ := extract.Rating(raw["review_score"], bookingRatingScale)

	return types.HotelRecord{
		ID:              id,
		Name:            name,
		Address:         address,
		Latitude:        coords.Lat,
		Longitude:       coords.Lon,
		Price:           bookingPrice(raw),
		Currency:        currency,
		Rating:          rating,
		RoomType:        room.Name,
		RoomDescription: room.Description,
		URL:             links.Booking(name, city, req),
		Source:          types.SourceBooking,
	}, nil
}

// bookingPrice prefers the rounded display amount and falls back to the
// numeric gross and minimum totals.
func bookingPrice(raw map[string]any) types.Price {
	candidates := []any{
		extract.Lookup(raw, "composite_price_breakdown", "gross_amount", "amount_rounded"),
		extract.Lookup(raw, "price_breakdown", "gross_price"),
		raw["min_total_price"],
	}
	for _, c := range candidates {
		if p := extract.Price(c); p.Available {
			return p
		}
	}
	return types.PriceUnavailable
}

func (bookingProvider) demoLink(name string, req types.SearchRequest, city reference.City) string {
	return links.Booking(name, city, req)
}
