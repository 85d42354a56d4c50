package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// SchemaVersion is reported in every envelope's api_info.
const SchemaVersion = "2.0"

// DateLayout is the calendar-date format used in requests and provider calls.
const DateLayout = "2006-01-02"

// Source identifies which provider, live or demo, produced a record.
type Source string

// Known sources.
const (
	SourceBooking         Source = "booking"
	SourceTripAdvisor     Source = "tripadvisor"
	SourceBookingDemo     Source = "booking_demo"
	SourceTripAdvisorDemo Source = "tripadvisor_demo"
)

// Source types reported in api_info.
const (
	SourceTypeLive = "live"
	SourceTypeDemo = "demo"
)

// SearchRequest holds validated search parameters.
type SearchRequest struct {
	City     string
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Rooms    int
	RoomType string
	// Provider selects an adapter by name. Empty means the configured default.
	Provider string
}

// Nights returns the number of calendar days between check-in and
// check-out, counted on each date's own Y/M/D so DST shifts do not matter.
func (r SearchRequest) Nights() int {
	return int(civilDate(r.CheckOut).Sub(civilDate(r.CheckIn)).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Params returns the named request parameters that identify a search.
// Provider is not included; callers add it to the cache key separately.
func (r SearchRequest) Params() map[string]string {
	return map[string]string{
		"city":      r.City,
		"checkin":   r.CheckIn.Format(DateLayout),
		"checkout":  r.CheckOut.Format(DateLayout),
		"adults":    strconv.Itoa(r.Adults),
		"rooms":     strconv.Itoa(r.Rooms),
		"room_type": r.RoomType,
	}
}

// Price is a non-negative amount or the explicit "unavailable" marker.
// The zero value is unavailable.
type Price struct {
	Amount    int
	Available bool
}

// PriceUnavailable marks a record whose provider gave no usable price.
var PriceUnavailable = Price{}

// PriceOf returns an available price. Negative amounts are unavailable.
func PriceOf(amount int) Price {
	if amount < 0 {
		return PriceUnavailable
	}
	return Price{Amount: amount, Available: true}
}

// MarshalJSON encodes an unavailable price as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.Amount)), nil
}

// UnmarshalJSON decodes null as unavailable.
func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = PriceUnavailable
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	*p = PriceOf(n)
	return nil
}

// HotelRecord is the canonical, provider-agnostic hotel.
type HotelRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Price           Price   `json:"price"`
	Currency        string  `json:"currency"`
	Rating          float64 `json:"rating"`
	RoomType        string  `json:"room_type"`
	RoomDescription string  `json:"room_description"`
	URL             string  `json:"url"`
	Source          Source  `json:"source"`
}

// APIInfo is the envelope metadata block.
type APIInfo struct {
	Cached         bool   `json:"cached"`
	Version        string `json:"version"`
	SourceType     string `json:"source_type"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// ResultEnvelope is the uniform response returned for a search.
type ResultEnvelope struct {
	Source     Source        `json:"source"`
	City       string        `json:"city"`
	Hotels     []HotelRecord `json:"hotels"`
	TotalFound int           `json:"total_found"`
	APIInfo    APIInfo       `json:"api_info"`
}

// NewLiveEnvelope wraps hotels fetched from a live provider.
func NewLiveEnvelope(source Source, city string, hotels []HotelRecord) ResultEnvelope {
	return newEnvelope(source, city, hotels, APIInfo{
		Version:    SchemaVersion,
		SourceType: SourceTypeLive,
	})
}

// NewDemoEnvelope wraps synthesized hotels and records why live data was not used.
func NewDemoEnvelope(source Source, city string, hotels []HotelRecord, reason string) ResultEnvelope {
	return newEnvelope(source, city, hotels, APIInfo{
		Version:        SchemaVersion,
		SourceType:     SourceTypeDemo,
		FallbackReason: reason,
	})
}

func newEnvelope(source Source, city string, hotels []HotelRecord, info APIInfo) ResultEnvelope {
	if hotels == nil {
		hotels = []HotelRecord{}
	}
	return ResultEnvelope{
		Source:     source,
		City:       city,
		Hotels:     hotels,
		TotalFound: len(hotels),
		APIInfo:    info,
	}
}

// Clone returns a copy that shares no mutable state with e.
func (e ResultEnvelope) Clone() ResultEnvelope {
	out := e
	out.Hotels = slices.Clone(e.Hotels)
	if out.Hotels == nil {
		out.Hotels = []HotelRecord{}
	}
	return out
}

// IsDemo reports whether the envelope carries synthesized data.
func (e ResultEnvelope) IsDemo() bool {
	return e.APIInfo.SourceType == SourceTypeDemo
}
