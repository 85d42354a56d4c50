package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultFetchTimeout bounds a single live provider call.
const DefaultFetchTimeout = 15 * time.Second

// FetchRequest describes one live provider call.
type FetchRequest struct {
	URL     string
	Query   url.Values
	Headers map[string]string
	Timeout time.Duration
}

// FetchResponse is a successful provider response with its decoded JSON body.
// Numbers in Payload are json.Number values.
type FetchResponse struct {
	StatusCode int
	Payload    any
}

// Fetcher performs live provider calls.
type Fetcher interface {
	// Fetch returns the decoded payload of a 2xx response. Any other outcome
	// is an error; non-2xx statuses are reported as *StatusError.
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// Live fetch failures. Every one of them is answered with demo inventory.
var (
	ErrMissingLocation    = errors.New("provider has no location id for city")
	ErrMissingCredentials = errors.New("provider api key not configured")
	ErrMalformedPayload   = errors.New("malformed provider payload")
	ErrNoResults          = errors.New("provider returned no hotels")
	ErrInvalidEntry       = errors.New("invalid provider entry")
	ErrNoValidEntries     = errors.New("no provider entry could be normalized")
	ErrCircuitOpen        = errors.New("provider circuit open")
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// FallbackReason turns a live fetch failure into the human-readable reason
// carried in a demo envelope.
func FallbackReason(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingLocation):
		return "provider has no location mapping for this city"
	case errors.Is(err, ErrMissingCredentials):
		return "provider credentials are not configured"
	case errors.Is(err, ErrCircuitOpen):
		return "provider temporarily disabled after repeated failures"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("provider returned HTTP %d", statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "provider timed out"
	case errors.Is(err, ErrMalformedPayload):
		return "provider returned a malformed payload"
	case errors.Is(err, ErrNoResults):
		return "provider returned no hotels"
	case errors.Is(err, ErrNoValidEntries):
		return "no provider entries could be normalized"
	default:
		return "provider unreachable"
	}
}
