package app_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/hotelfeed/internal/app"
	"github.com/alex-user-go/hotelfeed/internal/config"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		CacheTTL:        time.Minute,
		CacheBackend:    config.CacheMemory,
		FetchTimeout:    time.Second,
		DemoCount:       4,
		DefaultProvider: "booking",
		RateLimit:       100,
		RateWindow:      time.Minute,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}
}

func newApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func serve(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApp_DemoWithoutCredentials(t *testing.T) {
	a := newApp(t, testConfig())
	target := "/search?city=prague&checkin=2026-08-01&checkout=2026-08-04&room_type=junior_suite"

	rec := serve(t, a.Router, target)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var env types.ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, types.SourceBookingDemo, env.Source)
	assert.Equal(t, "provider credentials are not configured", env.APIInfo.FallbackReason)
	assert.Len(t, env.Hotels, 4)
	assert.Contains(t, env.Hotels[0].URL, "room_type=junior_suite")

	rec = serve(t, a.Router, target)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.APIInfo.Cached)
}

func TestApp_LiveThroughUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "booking.test", r.Header.Get("X-RapidAPI-Host"))
		_, _ = w.Write([]byte(`{"result":[{"hotel_id":5,"hotel_name":"Pension Vienna","min_total_price":"240.40","review_score":7.2}]}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Booking = config.ProviderConfig{BaseURL: upstream.URL, APIKey: "key", APIHost: "booking.test"}
	a := newApp(t, cfg)

	rec := serve(t, a.Router, "/search?city=vienna&checkin=2026-08-01&checkout=2026-08-02")
	require.Equal(t, http.StatusOK, rec.Code)

	var env types.ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, types.SourceBooking, env.Source)
	require.Len(t, env.Hotels, 1)
	assert.Equal(t, types.PriceOf(240), env.Hotels[0].Price)
	assert.Equal(t, 3.6, env.Hotels[0].Rating)
}

func TestApp_BreakerOpensOnFailingUpstream(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Booking = config.ProviderConfig{BaseURL: upstream.URL, APIKey: "key"}
	a := newApp(t, cfg)

	var reasons []string
	for _, city := range []string{"paris", "rome", "berlin"} {
		rec := serve(t, a.Router, "/search?city="+city+"&checkin=2026-08-01&checkout=2026-08-02")
		require.Equal(t, http.StatusOK, rec.Code)
		var env types.ResultEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		reasons = append(reasons, env.APIInfo.FallbackReason)
	}

	assert.Equal(t, []string{
		"provider returned HTTP 502",
		"provider returned HTTP 502",
		"provider temporarily disabled after repeated failures",
	}, reasons)
	assert.Equal(t, int32(2), hits.Load())
}

func TestApp_OperationalEndpoints(t *testing.T) {
	a := newApp(t, testConfig())

	rec := serve(t, a.Router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	serve(t, a.Router, "/search?city=rome&checkin=2026-08-01&checkout=2026-08-02")
	serve(t, a.Router, "/cities")

	rec = serve(t, a.Router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hotelfeed_search_requests_total 1")
	assert.Contains(t, body, `hotelfeed_demo_fallbacks_total{provider="booking"} 1`)
	assert.Contains(t, body, `route="/cities"`)

	rec = serve(t, a.Router, "/room-types")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_RealIPRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	a := newApp(t, cfg)
	target := "/search?city=rome&checkin=2026-08-01&checkout=2026-08-02"

	assert.Equal(t, http.StatusOK, serve(t, a.Router, target, "X-Real-IP", "203.0.113.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, a.Router, target, "X-Real-IP", "203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, serve(t, a.Router, target, "X-Real-IP", "203.0.113.2").Code)
}

func TestApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.CacheBackend = config.CacheRedis
	cfg.Redis = config.RedisConfig{Addr: mr.Addr()}
	a := newApp(t, cfg)
	target := "/search?city=lisbon&checkin=2026-08-01&checkout=2026-08-03&provider=tripadvisor"

	rec := serve(t, a.Router, target)
	require.Equal(t, http.StatusOK, rec.Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "hotelfeed:search:tripadvisor|"))

	var env types.ResultEnvelope
	rec = serve(t, a.Router, target)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.APIInfo.Cached)
}

func TestApp_UnknownDefaultProvider(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultProvider = "expedia"

	_, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
