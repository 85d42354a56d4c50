package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alex-user-go/hotelfeed/internal/obs"
	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/cache"
	"github.com/alex-user-go/hotelfeed/internal/search/demo"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// Cache is the TTL store an Adapter reads and populates.
type Cache interface {
	Get(ctx context.Context, key string) (cache.Entry, bool)
	Put(ctx context.Context, key string, env types.ResultEnvelope)
}

// Config holds the per-provider connection settings.
type Config struct {
	BaseURL   string
	APIKey    string
	APIHost   string
	Timeout   time.Duration
	DemoCount int
}

// provider is the provider-specific half of an Adapter: how to call the
// API and how to read one of its entries.
type provider interface {
	name() string
	liveSource() types.Source
	demoSource() types.Source
	locationID(city reference.City) string
	path() string
	query(req types.SearchRequest, locationID string) url.Values
	// entries extracts the raw hotel list from a decoded payload.
	entries(payload any) ([]any, error)
	normalize(index int, raw map[string]any, req types.SearchRequest, city reference.City, room reference.RoomType) (types.HotelRecord, error)
	demoLink(name string, req types.SearchRequest, city reference.City) string
	// maxEntries bounds how many raw entries are normalized; 0 is unbounded.
	maxEntries() int
}

// Adapter runs the cache → live fetch → normalize → demo fallback pipeline
// for one provider.
type Adapter struct {
	p       provider
	cfg     Config
	fetcher Fetcher
	cache   Cache
	synth   *demo.Synthesizer
	metrics *obs.Metrics
	logger  *slog.Logger
}

func newAdapter(
	p provider,
	cfg Config,
	fetcher Fetcher,
	searchCache Cache,
	synth *demo.Synthesizer,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	return &Adapter{
		p:       p,
		cfg:     cfg,
		fetcher: fetcher,
		cache:   searchCache,
		synth:   synth,
		metrics: metrics,
		logger:  logger.With("provider", p.name()),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return a.p.name()
}

// Search returns hotels for req. Live failures never surface as errors: they
// produce a demo envelope instead. The error return is reserved for unknown
// cities and room types.
func (a *Adapter) Search(ctx context.Context, req types.SearchRequest) (types.ResultEnvelope, error) {
	city, ok := reference.LookupCity(req.City)
	if !ok {
		return types.ResultEnvelope{}, fmt.Errorf("%w: %q", reference.ErrUnknownCity, req.City)
	}
	room, ok := reference.LookupRoomType(req.RoomType)
	if !ok {
		return types.ResultEnvelope{}, fmt.Errorf("%w: %q", reference.ErrUnknownRoomType, req.RoomType)
	}

	key := cache.Key(a.Name(), req.Params())
	if entry, hit := a.cache.Get(ctx, key); hit {
		a.metrics.IncCacheHits(a.Name())
		env := entry.Envelope.Clone()
		env.APIInfo.Cached = true
		return env, nil
	}

	// The fetch outlives an abandoning caller so the cached envelope reflects
	// the provider, not the client. It stays bounded by the fetch timeout.
	ctx = context.WithoutCancel(ctx)

	var env types.ResultEnvelope
	hotels, err := a.fetchLive(ctx, req, city, room)
	if err != nil {
		a.metrics.IncProviderErrors(a.Name())
		a.metrics.IncFallbacks(a.Name())
		a.logger.Warn("live search failed, serving demo inventory",
			"city", city.Key,
			"room_type", room.Key,
			"error", err,
		)
		env = a.fallback(req, city, room, err)
	} else {
		env = types.NewLiveEnvelope(a.p.liveSource(), city.Name, hotels)
	}

	a.cache.Put(ctx, key, env)
	return env, nil
}

func (a *Adapter) fetchLive(ctx context.Context, req types.SearchRequest, city reference.City, room reference.RoomType) ([]types.HotelRecord, error) {
	locationID := a.p.locationID(city)
	if locationID == "" {
		return nil, fmt.Errorf("%w %q", ErrMissingLocation, city.Key)
	}
	if a.cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	start := time.Now()
	resp, err := a.fetcher.Fetch(ctx, FetchRequest{
		URL:   a.cfg.BaseURL + a.p.path(),
		Query: a.p.query(req, locationID),
		Headers: map[string]string{
			"X-RapidAPI-Key":  a.cfg.APIKey,
			"X-RapidAPI-Host": a.cfg.APIHost,
		},
		Timeout: a.cfg.Timeout,
	})
	a.metrics.ObserveProviderLatency(a.Name(), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	raws, err := a.p.entries(resp.Payload)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, ErrNoResults
	}
	if limit := a.p.maxEntries(); limit > 0 && len(raws) > limit {
		raws = raws[:limit]
	}

	hotels := make([]types.HotelRecord, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	skipped := 0
	for i, raw := range raws {
		hotel, err := a.normalizeEntry(i, raw, req, city, room)
		if err == nil {
			if _, dup := seen[hotel.ID]; dup {
				err = fmt.Errorf("%w: duplicate id %q", ErrInvalidEntry, hotel.ID)
			}
		}
		if err != nil {
			skipped++
			a.logger.Warn("skipping provider entry", "index", i, "error", err)
			continue
		}
		seen[hotel.ID] = struct{}{}
		hotels = append(hotels, hotel)
	}
	a.metrics.AddSkippedEntries(a.Name(), skipped)

	if len(hotels) == 0 {
		return nil, fmt.Errorf("%w: %d rejected", ErrNoValidEntries, skipped)
	}
	return hotels, nil
}

func (a *Adapter) normalizeEntry(index int, raw any, req types.SearchRequest, city reference.City, room reference.RoomType) (types.HotelRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return types.HotelRecord{}, fmt.Errorf("%w: entry is %T, not an object", ErrInvalidEntry, raw)
	}
	return a.p.normalize(index, obj, req, city, room)
}

func (a *Adapter) fallback(req types.SearchRequest, city reference.City, room reference.RoomType, cause error) types.ResultEnvelope {
	hotels := a.synth.Generate(demo.Params{
		Source:   a.p.demoSource(),
		City:     city,
		RoomType: room,
		Count:    a.cfg.DemoCount,
		Link: func(name string) string {
			return a.p.demoLink(name, req, city)
		},
	})
	return types.NewDemoEnvelope(a.p.demoSource(), city.Name, hotels, FallbackReason(cause))
}

// listAt returns payload[field] as a list.
func listAt(payload any, field string) ([]any, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, not an object", ErrMalformedPayload, payload)
	}
	raw, present := obj[field]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, not a list", ErrMalformedPayload, field, raw)
	}
	return list, nil
}
