package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/alex-user-go/hotelfeed/internal/config"
	"github.com/alex-user-go/hotelfeed/internal/handler"
	"github.com/alex-user-go/hotelfeed/internal/middleware"
	"github.com/alex-user-go/hotelfeed/internal/obs"
	"github.com/alex-user-go/hotelfeed/internal/providers"
	"github.com/alex-user-go/hotelfeed/internal/search"
	"github.com/alex-user-go/hotelfeed/internal/search/cache"
	"github.com/alex-user-go/hotelfeed/internal/search/demo"
	"github.com/alex-user-go/hotelfeed/internal/search/ratelimit"
)

// App is the assembled service.
type App struct {
	Router  http.Handler
	Service *search.Service
	Metrics *obs.Metrics

	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

// New wires every component described by cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	metrics := obs.NewMetrics(prometheus.NewRegistry())
	a.Metrics = metrics

	newCache, err := a.cacheFactory()
	if err != nil {
		return nil, err
	}

	httpFetcher := providers.NewHTTPFetcher(&http.Client{})
	synth := demo.New(rand.New(rand.NewSource(time.Now().UnixNano())))

	adapterConfig := func(p config.ProviderConfig) providers.Config {
		return providers.Config{
			BaseURL:   p.BaseURL,
			APIKey:    p.APIKey,
			APIHost:   p.APIHost,
			Timeout:   cfg.FetchTimeout,
			DemoCount: cfg.DemoCount,
		}
	}
	breaker := func(name string) providers.Fetcher {
		return providers.NewBreakerFetcher(name, httpFetcher, cfg.BreakerFailures, cfg.BreakerCooldown, logger)
	}

	booking := providers.NewBookingAdapter(
		adapterConfig(cfg.Booking),
		breaker(providers.BookingName),
		newCache(),
		synth, metrics, logger,
	)
	tripAdvisor := providers.NewTripAdvisorAdapter(
		adapterConfig(cfg.TripAdvisor),
		breaker(providers.TripAdvisorName),
		newCache(),
		synth, metrics, logger,
	)

	svc, err := search.NewService([]search.Searcher{booking, tripAdvisor}, cfg.DefaultProvider, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc

	limiter := ratelimit.New(cfg.RateLimit, cfg.RateWindow)
	a.closers = append(a.closers, func() error { limiter.Close(); return nil })

	h := handler.New(svc, limiter, metrics, logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(chimw.Recoverer)

	h.Routes(r)
	r.Get("/healthz", obs.HealthHandler(logger))
	r.Handle("/metrics", metrics.MetricsHandler())
	a.Router = r

	logger.Info("service configured",
		"providers", svc.Providers(),
		"default_provider", svc.DefaultProvider(),
		"cache_backend", cfg.CacheBackend,
		"cache_ttl", cfg.CacheTTL.String(),
		"booking_live", cfg.Booking.APIKey != "",
		"tripadvisor_live", cfg.TripAdvisor.APIKey != "",
	)
	return a, nil
}

// cacheFactory returns a constructor for per-provider caches on the
// configured backend.
func (a *App) cacheFactory() (func() providers.Cache, error) {
	switch a.cfg.CacheBackend {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// Searches still work; every lookup is a miss until Redis is back.
			a.logger.Warn("redis unreachable at startup", "addr", a.cfg.Redis.Addr, "error", err)
		}
		return func() providers.Cache {
			return cache.NewRedisCache(client, a.cfg.CacheTTL, a.logger)
		}, nil
	case config.CacheMemory, "":
		return func() providers.Cache {
			c := cache.NewCache(a.cfg.CacheTTL)
			a.closers = append(a.closers, func() error { c.Close(); return nil })
			return c
		}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.CacheBackend)
	}
}

// Close releases background goroutines and connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run loads configuration, serves HTTP and shuts down on SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := obs.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Live fetches may take up to FetchTimeout; /search/all runs them in
		// parallel.
		WriteTimeout: cfg.FetchTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
