package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/hotelfeed/internal/handler"
	"github.com/alex-user-go/hotelfeed/internal/obs"
	"github.com/alex-user-go/hotelfeed/internal/providers"
	"github.com/alex-user-go/hotelfeed/internal/search"
	"github.com/alex-user-go/hotelfeed/internal/search/cache"
	"github.com/alex-user-go/hotelfeed/internal/search/demo"
	"github.com/alex-user-go/hotelfeed/internal/search/ratelimit"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// fetcherFunc adapts a function to providers.Fetcher.
type fetcherFunc func(ctx context.Context, req providers.FetchRequest) (*providers.FetchResponse, error)

func (f fetcherFunc) Fetch(ctx context.Context, req providers.FetchRequest) (*providers.FetchResponse, error) {
	return f(ctx, req)
}

// liveBooking serves one Booking hotel and fails every other provider.
func liveBooking(ctx context.Context, req providers.FetchRequest) (*providers.FetchResponse, error) {
	if !strings.HasSuffix(req.URL, "/v1/hotels/search") {
		return nil, errors.New("connection refused")
	}
	return &providers.FetchResponse{
		StatusCode: http.StatusOK,
		Payload: map[string]any{"result": []any{
			map[string]any{"hotel_id": json.Number("77"), "hotel_name": "Hotel Lutetia", "min_total_price": json.Number("310"), "review_score": json.Number("9")},
		}},
	}, nil
}

func newRouter(t *testing.T, fetch fetcherFunc, limit int) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(prometheus.NewRegistry())
	synth := demo.New(rand.New(rand.NewSource(1)))
	cfg := providers.Config{APIKey: "key"}

	bookingCache := cache.NewCache(cache.DefaultTTL, cache.WithSweepInterval(0))
	tripCache := cache.NewCache(cache.DefaultTTL, cache.WithSweepInterval(0))
	t.Cleanup(bookingCache.Close)
	t.Cleanup(tripCache.Close)

	svc, err := search.NewService([]search.Searcher{
		providers.NewBookingAdapter(cfg, fetch, bookingCache, synth, metrics, logger),
		providers.NewTripAdvisorAdapter(cfg, fetch, tripCache, synth, metrics, logger),
	}, "booking", logger)
	require.NoError(t, err)

	limiter := ratelimit.New(limit, time.Minute)
	t.Cleanup(limiter.Close)

	r := chi.NewRouter()
	handler.New(svc, limiter, metrics, logger).Routes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "192.0.2.10:51234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SearchHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantError  string
		wantSource types.Source
	}{
		{
			name:       "live default provider",
			query:      "city=paris&checkin=2026-07-01&checkout=2026-07-03",
			wantStatus: http.StatusOK,
			wantSource: types.SourceBooking,
		},
		{
			name:       "demo fallback for failing provider",
			query:      "city=rome&checkin=2026-07-01&checkout=2026-07-03&provider=tripadvisor&room_type=suite",
			wantStatus: http.StatusOK,
			wantSource: types.SourceTripAdvisorDemo,
		},
		{
			name:       "missing city",
			query:      "checkin=2026-07-01&checkout=2026-07-03",
			wantStatus: http.StatusBadRequest,
			wantError:  "bad parameter: city is required",
		},
		{
			name:       "missing checkout",
			query:      "city=paris&checkin=2026-07-01",
			wantStatus: http.StatusBadRequest,
			wantError:  "bad parameter: checkout is required",
		},
		{
			name:       "invalid checkin format",
			query:      "city=paris&checkin=2026/07/01&checkout=2026-07-03",
			wantStatus: http.StatusBadRequest,
			wantError:  "bad parameter: checkin must be in YYYY-MM-DD format",
		},
		{
			name:       "invalid adults",
			query:      "city=paris&checkin=2026-07-01&checkout=2026-07-03&adults=abc",
			wantStatus: http.StatusBadRequest,
			wantError:  "bad parameter: adults must be a positive integer",
		},
		{
			name:       "zero rooms",
			query:      "city=paris&checkin=2026-07-01&checkout=2026-07-03&rooms=0",
			wantStatus: http.StatusBadRequest,
			wantError:  "bad parameter: rooms must be a positive integer",
		},
		{
			name:       "unknown city",
			query:      "city=atlantis&checkin=2026-07-01&checkout=2026-07-03",
			wantStatus: http.StatusBadRequest,
			wantError:  `unknown city: "atlantis"`,
		},
		{
			name:       "unknown room type",
			query:      "city=paris&checkin=2026-07-01&checkout=2026-07-03&room_type=penthouse",
			wantStatus: http.StatusBadRequest,
			wantError:  `unknown room type: "penthouse"`,
		},
		{
			name:       "checkout before checkin",
			query:      "city=paris&checkin=2026-07-03&checkout=2026-07-01",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid dates: checkout must be after checkin",
		},
		{
			name:       "unknown provider",
			query:      "city=paris&checkin=2026-07-01&checkout=2026-07-03&provider=expedia",
			wantStatus: http.StatusBadRequest,
			wantError:  `unknown provider: "expedia"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, liveBooking, 100)
			rec := get(t, h, "/search?"+tt.query)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body["error"])
				return
			}

			var env types.ResultEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.wantSource, env.Source)
			assert.Equal(t, len(env.Hotels), env.TotalFound)
			assert.Equal(t, types.SchemaVersion, env.APIInfo.Version)
		})
	}
}

func TestHandler_SearchHandler_EnvelopeShape(t *testing.T) {
	h := newRouter(t, liveBooking, 100)
	target := "/search?city=Paris&checkin=2026-07-01&checkout=2026-07-03"

	rec := get(t, h, target)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "booking", raw["source"])
	assert.Equal(t, "Paris", raw["city"])
	assert.Equal(t, float64(1), raw["total_found"])
	info := raw["api_info"].(map[string]any)
	assert.Equal(t, false, info["cached"])
	assert.Equal(t, "live", info["source_type"])
	assert.NotContains(t, info, "fallback_reason")

	hotel := raw["hotels"].([]any)[0].(map[string]any)
	assert.Equal(t, "77", hotel["id"])
	assert.Equal(t, float64(310), hotel["price"])
	assert.Equal(t, 4.5, hotel["rating"])

	rec = get(t, h, target)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, true, raw["api_info"].(map[string]any)["cached"])
}

func TestHandler_SearchHandler_FallbackReason(t *testing.T) {
	h := newRouter(t, liveBooking, 100)

	rec := get(t, h, "/search?city=reykjavik&checkin=2026-07-01&checkout=2026-07-03&provider=tripadvisor")
	require.Equal(t, http.StatusOK, rec.Code)

	var env types.ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, types.SourceTripAdvisorDemo, env.Source)
	assert.Equal(t, types.SourceTypeDemo, env.APIInfo.SourceType)
	assert.Equal(t, "provider has no location mapping for this city", env.APIInfo.FallbackReason)
	assert.Len(t, env.Hotels, demo.DefaultCount)
}

func TestHandler_SearchAllHandler(t *testing.T) {
	h := newRouter(t, liveBooking, 100)

	rec := get(t, h, "/search/all?city=paris&checkin=2026-07-01&checkout=2026-07-03")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handler.SearchAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, types.SourceBooking, body.Results[0].Source)
	assert.Equal(t, types.SourceTripAdvisorDemo, body.Results[1].Source)
	assert.Equal(t, "provider unreachable", body.Results[1].APIInfo.FallbackReason)

	rec = get(t, h, "/search/all?city=paris")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RateLimit(t *testing.T) {
	h := newRouter(t, liveBooking, 2)
	target := "/search?city=paris&checkin=2026-07-01&checkout=2026-07-03"

	assert.Equal(t, http.StatusOK, get(t, h, target).Code)
	assert.Equal(t, http.StatusOK, get(t, h, target).Code)

	rec := get(t, h, target)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())

	other := httptest.NewRequest(http.MethodGet, target, nil)
	other.RemoteAddr = "198.51.100.7:4000"
	otherRec := httptest.NewRecorder()
	h.ServeHTTP(otherRec, other)
	assert.Equal(t, http.StatusOK, otherRec.Code)
}

type errService struct{ err error }

func (s errService) Search(context.Context, types.SearchRequest) (types.ResultEnvelope, error) {
	return types.ResultEnvelope{}, s.err
}

func (s errService) SearchAll(context.Context, types.SearchRequest) ([]types.ResultEnvelope, error) {
	return nil, s.err
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

func TestHandler_InternalError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(errService{err: errors.New("boom")}, allowAll{}, obs.NewMetrics(prometheus.NewRegistry()), logger)
	r := chi.NewRouter()
	h.Routes(r)

	rec := get(t, r, "/search?city=paris&checkin=2026-07-01&checkout=2026-07-03")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"search failed"}`, rec.Body.String())
}

func TestHandler_ReferenceListings(t *testing.T) {
	h := newRouter(t, liveBooking, 100)

	rec := get(t, h, "/cities")
	require.Equal(t, http.StatusOK, rec.Code)
	var cities struct {
		Cities []struct {
			Key         string `json:"key"`
			Name        string `json:"name"`
			CountryCode string `json:"country_code"`
		} `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cities))
	require.NotEmpty(t, cities.Cities)
	assert.Equal(t, "amsterdam", cities.Cities[0].Key)

	rec = get(t, h, "/room-types")
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms struct {
		RoomTypes []struct {
			Key        string  `json:"key"`
			Multiplier float64 `json:"price_multiplier"`
		} `json:"room_types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	assert.Len(t, rooms.RoomTypes, 5)
}

func TestParseSearchParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?city=+Rome+&checkin=2026-09-10&checkout=2026-09-12&adults=3&rooms=2&room_type=family&provider=tripadvisor", nil)
	got, err := handler.ParseSearchParams(req)
	require.NoError(t, err)
	assert.Equal(t, "Rome", got.City)
	assert.Equal(t, 2, got.Nights())
	assert.Equal(t, 3, got.Adults)
	assert.Equal(t, 2, got.Rooms)
	assert.Equal(t, "family", got.RoomType)
	assert.Equal(t, "tripadvisor", got.Provider)

	req = httptest.NewRequest(http.MethodGet, "/search?city=rome&checkin=2026-09-10&checkout=2026-09-12", nil)
	got, err = handler.ParseSearchParams(req)
	require.NoError(t, err)
	assert.Equal(t, handler.DefaultAdults, got.Adults)
	assert.Equal(t, handler.DefaultRooms, got.Rooms)
	assert.Equal(t, handler.DefaultRoomType, got.RoomType)
	assert.Empty(t, got.Provider)

	req = httptest.NewRequest(http.MethodGet, "/search?checkin=2026-09-10", nil)
	_, err = handler.ParseSearchParams(req)
	assert.ErrorIs(t, err, handler.ErrBadParameter)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{remoteAddr: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, handler.ExtractIP(req))
		})
	}
}
