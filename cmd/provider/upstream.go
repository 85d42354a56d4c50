package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

var errProviderUnavailable = errors.New("provider unavailable")

// upstream generates provider-shaped payloads with random latency and
// occasional failures.
type upstream struct {
	mu  sync.Mutex
	rng *rand.Rand

	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64
	logger      *slog.Logger
}

func newUpstream(seed int64, logger *slog.Logger) *upstream {
	return &upstream{
		rng:         rand.New(rand.NewSource(seed)),
		minLatency:  50 * time.Millisecond,
		maxLatency:  200 * time.Millisecond,
		failureRate: 0.1,
		logger:      logger,
	}
}

func (u *upstream) intn(n int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Intn(n)
}

func (u *upstream) float64() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Float64()
}

// simulate waits a random latency and then fails failureRate of the time.
func (u *upstream) simulate(ctx context.Context) error {
	latency := u.minLatency
	if spread := u.maxLatency - u.minLatency; spread > 0 {
		latency += time.Duration(u.intn(int(spread)))
	}
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return context.Cause(ctx)
	}
	if u.float64() < u.failureRate {
		return errProviderUnavailable
	}
	return nil
}

func cityBy(match func(reference.City) bool) (reference.City, bool) {
	for _, c := range reference.Cities() {
		if match(c) {
			return c, true
		}
	}
	return reference.City{}, false
}

func hotelNames(city reference.City) []string {
	names := city.HotelNames()
	if len(names) == 0 {
		for i := range 8 {
			names = append(names, fmt.Sprintf("%s Hotel %d", city.Name, i+1))
		}
	}
	return names
}

// bookingSearch mimics GET /v1/hotels/search of the booking-com API.
func (u *upstream) bookingSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	destID := q.Get("dest_id")
	checkin, errIn := time.Parse(types.DateLayout, q.Get("checkin_date"))
	checkout, errOut := time.Parse(types.DateLayout, q.Get("checkout_date"))
	if destID == "" || errIn != nil || errOut != nil || !checkout.After(checkin) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid search parameters"})
		return
	}
	nights := int(checkout.Sub(checkin).Hours() / 24)

	if err := u.simulate(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	city, ok := cityBy(func(c reference.City) bool { return c.BookingDestID == destID })
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"result": []any{}})
		return
	}

	var result []any
	for i, name := range hotelNames(city) {
		perNight := 60 + u.intn(240)
		entry := map[string]any{
			"hotel_id":     100000 + i*37,
			"hotel_name":   name,
			"address":      fmt.Sprintf("%d Rue %d", 1+u.intn(120), i+1),
			"latitude":     city.Center.Lat + (u.float64()*2-1)*0.02,
			"longitude":    city.Center.Lon + (u.float64()*2-1)*0.02,
			"review_score": float64(60+u.intn(40)) / 10,
			"currencycode": "EUR",
		}
		switch i % 3 {
		case 0:
			entry["composite_price_breakdown"] = map[string]any{
				"gross_amount": map[string]any{"amount_rounded": fmt.Sprintf("€ %s", thousands(perNight*nights))},
			}
		case 1:
			entry["price_breakdown"] = map[string]any{"gross_price": float64(perNight*nights) + 0.45}
		default:
			entry["min_total_price"] = perNight * nights
			delete(entry, "review_score")
		}
		result = append(result, entry)
	}
	// The live API occasionally returns entries without a name.
	result = append(result, map[string]any{"hotel_id": 999999, "review_score": 7.5})

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// tripAdvisorList mimics GET /hotels/list of the travel-advisor API.
func (u *upstream) tripAdvisorList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID := q.Get("location_id")
	if _, err := time.Parse(types.DateLayout, q.Get("checkin")); locationID == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid search parameters"})
		return
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 30
	}

	if err := u.simulate(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	city, ok := cityBy(func(c reference.City) bool { return c.TripAdvisorGeoID == locationID })
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
		return
	}

	var data []any
	for i, name := range hotelNames(city) {
		if i == 2 {
			data = append(data, map[string]any{"ad_position": "inline1", "ad_size": "8X8", "doubleclick_zone": "na"})
		}
		low := 70 + u.intn(200)
		entry := map[string]any{
			"location_id":     strconv.Itoa(200000 + i*53),
			"name":            name,
			"location_string": city.Name,
			"latitude":        strconv.FormatFloat(city.Center.Lat+(u.float64()*2-1)*0.02, 'f', 6, 64),
			"longitude":       strconv.FormatFloat(city.Center.Lon+(u.float64()*2-1)*0.02, 'f', 6, 64),
			"rating":          strconv.FormatFloat(float64(6+u.intn(5))/2, 'f', 1, 64),
		}
		if i%4 != 3 {
			entry["price"] = fmt.Sprintf("€%d - €%d", low, low+40+u.intn(80))
		}
		data = append(data, entry)
	}
	if len(data) > limit {
		data = data[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
