package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alex-user-go/hotelfeed/internal/middleware"
	"github.com/alex-user-go/hotelfeed/internal/obs"
	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// Query defaults.
const (
	DefaultAdults   = 2
	DefaultRooms    = 1
	DefaultRoomType = reference.RoomDouble
)

// ErrBadParameter marks a query parameter that could not be parsed.
var ErrBadParameter = errors.New("bad parameter")

// Service is the search facade the handler serves.
type Service interface {
	Search(ctx context.Context, req types.SearchRequest) (types.ResultEnvelope, error)
	SearchAll(ctx context.Context, req types.SearchRequest) ([]types.ResultEnvelope, error)
}

// Limiter decides whether a client may issue another search.
type Limiter interface {
	Allow(key string) bool
}

// Handler handles HTTP requests.
type Handler struct {
	service     Service
	rateLimiter Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
}

// New creates a new Handler.
func New(service Service, rateLimiter Limiter, metrics *obs.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
	}
}

// Routes mounts the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/search", h.SearchHandler)
	r.Get("/search/all", h.SearchAllHandler)
	r.Get("/cities", h.CitiesHandler)
	r.Get("/room-types", h.RoomTypesHandler)
}

// SearchAllResponse wraps the per-provider envelopes of /search/all.
type SearchAllResponse struct {
	Results []types.ResultEnvelope `json:"results"`
}

// SearchHandler handles /search requests.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.admit(w, r)
	if !ok {
		return
	}

	env, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, req, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, env)
}

// SearchAllHandler handles /search/all requests.
func (h *Handler) SearchAllHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.admit(w, r)
	if !ok {
		return
	}

	results, err := h.service.SearchAll(r.Context(), req)
	if err != nil {
		h.fail(w, r, req, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, SearchAllResponse{Results: results})
}

// CitiesHandler lists the searchable cities.
func (h *Handler) CitiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"cities": reference.Cities()})
}

// RoomTypesHandler lists the room types and their price multipliers.
func (h *Handler) RoomTypesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"room_types": reference.RoomTypes()})
}

// admit applies rate limiting and parses the query. It writes the error
// response itself when the request cannot proceed.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request) (types.SearchRequest, bool) {
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())

	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(ip) {
		h.metrics.IncRateLimitDrops()
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return types.SearchRequest{}, false
	}

	req, err := ParseSearchParams(r)
	if err != nil {
		h.logger.Debug("invalid request parameters", "request_id", requestID, "error", err, "ip", ip)
		writeError(w, http.StatusBadRequest, err.Error())
		return types.SearchRequest{}, false
	}
	return req, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, req types.SearchRequest, err error) {
	requestID := middleware.RequestID(r.Context())
	if search.IsValidation(err) {
		h.logger.Debug("search rejected", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("search failed",
		"request_id", requestID,
		"error", err,
		"city", req.City,
		"provider", req.Provider,
	)
	writeError(w, http.StatusInternalServerError, "search failed")
}

// ParseSearchParams reads a search request from the query string. It checks
// syntax only; the service validates values against the reference data.
func ParseSearchParams(r *http.Request) (types.SearchRequest, error) {
	query := r.URL.Query()

	city := strings.TrimSpace(query.Get("city"))
	if city == "" {
		return types.SearchRequest{}, fmt.Errorf("%w: city is required", ErrBadParameter)
	}

	checkin, err := parseDate(query.Get("checkin"), "checkin")
	if err != nil {
		return types.SearchRequest{}, err
	}
	checkout, err := parseDate(query.Get("checkout"), "checkout")
	if err != nil {
		return types.SearchRequest{}, err
	}

	adults, err := parseCount(query.Get("adults"), "adults", DefaultAdults)
	if err != nil {
		return types.SearchRequest{}, err
	}
	rooms, err := parseCount(query.Get("rooms"), "rooms", DefaultRooms)
	if err != nil {
		return types.SearchRequest{}, err
	}

	roomType := strings.TrimSpace(query.Get("room_type"))
	if roomType == "" {
		roomType = DefaultRoomType
	}

	return types.SearchRequest{
		City:     city,
		CheckIn:  checkin,
		CheckOut: checkout,
		Adults:   adults,
		Rooms:    rooms,
		RoomType: roomType,
		Provider: strings.TrimSpace(query.Get("provider")),
	}, nil
}

func parseDate(raw, name string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrBadParameter, name)
	}
	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be in YYYY-MM-DD format", ErrBadParameter, name)
	}
	return t, nil
}

func parseCount(raw, name string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadParameter, name)
	}
	return n, nil
}

// ExtractIP returns the client IP without its port. Forwarding headers are
// resolved into RemoteAddr by the RealIP middleware upstream.
func ExtractIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Can't change status after WriteHeader, just log
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
