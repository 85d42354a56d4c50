package links

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

const (
	bookingHost     = "https://www.booking.com"
	tripAdvisorHost = "https://www.tripadvisor.com"

	// genericBookingSuffix is used for countries without a localized site.
	genericBookingSuffix = "en-gb"
)

var bookingSuffixes = map[string]string{
	"FR": "fr",
	"DE": "de",
	"AT": "de",
	"IT": "it",
	"ES": "es",
	"NL": "nl",
	"PT": "pt-pt",
	"CZ": "cs",
	"GB": "en-gb",
	"US": "en-us",
}

// BookingSuffix returns the searchresults page suffix for a country code.
func BookingSuffix(countryCode string) string {
	if s, ok := bookingSuffixes[strings.ToUpper(countryCode)]; ok {
		return s
	}
	return genericBookingSuffix
}

// Booking builds a searchresults deep link for a hotel name.
//
// The room_type parameter is only sent for junior suites. Other room types
// rely on Booking's default room selection.
func Booking(name string, city reference.City, req types.SearchRequest) string {
	q := url.Values{}
	q.Set("ss", strings.TrimSpace(name+" "+city.Name))
	q.Set("dest_type", "city")
	if city.BookingDestID != "" {
		q.Set("dest_id", city.BookingDestID)
	}
	if !req.CheckIn.IsZero() {
		q.Set("checkin", req.CheckIn.Format(types.DateLayout))
	}
	if !req.CheckOut.IsZero() {
		q.Set("checkout", req.CheckOut.Format(types.DateLayout))
	}
	if req.Adults > 0 {
		q.Set("group_adults", strconv.Itoa(req.Adults))
	}
	if req.Rooms > 0 {
		q.Set("no_rooms", strconv.Itoa(req.Rooms))
	}
	if req.RoomType == reference.RoomJuniorSuite {
		q.Set("room_type", req.RoomType)
	}

	return fmt.Sprintf("%s/searchresults.%s.html?%s", bookingHost, BookingSuffix(city.CountryCode), q.Encode())
}

// TripAdvisor builds a hotel review link when both the city geo id and the
// hotel id are known, and a name search link otherwise.
func TripAdvisor(hotelID, name string, city reference.City) string {
	if hotelID != "" && city.TripAdvisorGeoID != "" {
		return fmt.Sprintf("%s/Hotel_Review-g%s-d%s-Reviews.html",
			tripAdvisorHost, url.PathEscape(city.TripAdvisorGeoID), url.PathEscape(hotelID))
	}

	q := url.Values{}
	q.Set("q", strings.TrimSpace(name+" "+city.Name))
	if city.TripAdvisorGeoID != "" {
		q.Set("geo", city.TripAdvisorGeoID)
	}
	return tripAdvisorHost + "/Search?" + q.Encode()
}
