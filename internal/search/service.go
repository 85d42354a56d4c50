package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// Validation errors. Callers map these to client errors.
var (
	ErrUnknownCity     = reference.ErrUnknownCity
	ErrUnknownRoomType = reference.ErrUnknownRoomType
	ErrInvalidDates    = errors.New("invalid dates")
	ErrInvalidParty    = errors.New("invalid party size")
	ErrUnknownProvider = errors.New("unknown provider")
)

// IsValidation reports whether err is caused by a bad request rather than a
// server-side failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownCity) ||
		errors.Is(err, ErrUnknownRoomType) ||
		errors.Is(err, ErrInvalidDates) ||
		errors.Is(err, ErrInvalidParty) ||
		errors.Is(err, ErrUnknownProvider)
}

// Searcher is one provider pipeline. *providers.Adapter satisfies it.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req types.SearchRequest) (types.ResultEnvelope, error)
}

// Service validates search requests and dispatches them to provider
// adapters.
type Service struct {
	searchers       []Searcher
	byName          map[string]Searcher
	defaultProvider string
	logger          *slog.Logger
}

// NewService creates a Service over searchers. An empty defaultProvider
// selects the first searcher.
func NewService(searchers []Searcher, defaultProvider string, logger *slog.Logger) (*Service, error) {
	if len(searchers) == 0 {
		return nil, errors.New("no providers configured")
	}

	byName := make(map[string]Searcher, len(searchers))
	for _, s := range searchers {
		name := strings.ToLower(s.Name())
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("duplicate provider %q", name)
		}
		byName[name] = s
	}

	defaultProvider = strings.ToLower(strings.TrimSpace(defaultProvider))
	if defaultProvider == "" {
		defaultProvider = strings.ToLower(searchers[0].Name())
	}
	if _, ok := byName[defaultProvider]; !ok {
		return nil, fmt.Errorf("default provider: %w: %q", ErrUnknownProvider, defaultProvider)
	}

	return &Service{
		searchers:       searchers,
		byName:          byName,
		defaultProvider: defaultProvider,
		logger:          logger,
	}, nil
}

// Providers returns the provider names in dispatch order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.searchers))
	for _, sr := range s.searchers {
		names = append(names, sr.Name())
	}
	return names
}

// DefaultProvider returns the provider used when a request names none.
func (s *Service) DefaultProvider() string {
	return s.defaultProvider
}

// Validate checks req and returns it with canonical city, room type and
// provider keys, so equal searches share a cache entry.
func (s *Service) Validate(req types.SearchRequest) (types.SearchRequest, error) {
	city, ok := reference.LookupCity(req.City)
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownCity, req.City)
	}
	req.City = city.Key

	if strings.TrimSpace(req.RoomType) == "" {
		req.RoomType = reference.RoomDouble
	}
	room, ok := reference.LookupRoomType(req.RoomType)
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownRoomType, req.RoomType)
	}
	req.RoomType = room.Key

	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return req, fmt.Errorf("%w: checkin and checkout are required", ErrInvalidDates)
	}
	if !req.CheckOut.After(req.CheckIn) {
		return req, fmt.Errorf("%w: checkout must be after checkin", ErrInvalidDates)
	}

	if req.Adults < 1 {
		return req, fmt.Errorf("%w: adults must be at least 1", ErrInvalidParty)
	}
	if req.Rooms < 1 {
		return req, fmt.Errorf("%w: rooms must be at least 1", ErrInvalidParty)
	}

	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	if req.Provider == "" {
		req.Provider = s.defaultProvider
	}
	if _, ok := s.byName[req.Provider]; !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownProvider, req.Provider)
	}
	return req, nil
}

// Search runs req against the requested provider, or the default one.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (types.ResultEnvelope, error) {
	req, err := s.Validate(req)
	if err != nil {
		return types.ResultEnvelope{}, err
	}
	return s.byName[req.Provider].Search(ctx, req)
}

// SearchAll runs req against every provider concurrently. Envelopes come back
// in provider order; req.Provider is ignored.
func (s *Service) SearchAll(ctx context.Context, req types.SearchRequest) ([]types.ResultEnvelope, error) {
	req, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		results = make([]types.ResultEnvelope, len(s.searchers))
		errs    = make([]error, len(s.searchers))
	)
	for i, sr := range s.searchers {
		wg.Go(func() {
			r := req
			r.Provider = strings.ToLower(sr.Name())
			results[i], errs[i] = sr.Search(ctx, r)
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("provider search errors", "city", req.City, "error", err)
		return nil, err
	}
	return results, nil
}
