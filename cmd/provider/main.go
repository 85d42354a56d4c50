// Command provider runs a local stand-in for one of the upstream hotel APIs,
// so the service can be exercised end to end without RapidAPI credentials.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/alex-user-go/hotelfeed/internal/obs"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("PORT", "9001")
	providerType := getEnv("PROVIDER_TYPE", "booking")
	apiKey := os.Getenv("MOCK_API_KEY")

	logger := obs.NewLogger(os.Stdout, getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", obs.LogFormatText))

	router, err := newRouter(providerType, apiKey, newUpstream(time.Now().UnixNano(), logger))
	if err != nil {
		logger.Error("unknown provider type", "type", providerType)
		os.Exit(1)
	}
	logger.Info("starting provider", "type", providerType, "port", port, "auth", apiKey != "")

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

var errUnknownType = errors.New("unknown provider type")

// newRouter mounts the endpoints of the requested provider type: "booking",
// "tripadvisor", or "flaky" (both paths, misbehaving on purpose).
func newRouter(providerType, apiKey string, u *upstream) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", obs.HealthHandler(u.logger))

	api := r.With(requireKey(apiKey))
	switch providerType {
	case "booking":
		api.Get("/v1/hotels/search", u.bookingSearch)
	case "tripadvisor":
		api.Get("/hotels/list", u.tripAdvisorList)
	case "flaky":
		f := &flaky{}
		api.Get("/v1/hotels/search", f.serve(u.bookingSearch))
		api.Get("/hotels/list", f.serve(u.tripAdvisorList))
	default:
		return nil, errUnknownType
	}
	return r, nil
}

// requireKey rejects requests without the expected RapidAPI key. An empty
// key disables the check.
func requireKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("X-RapidAPI-Key") != key {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
