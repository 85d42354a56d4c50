// Package extract pulls coordinates, prices and ratings out of loosely typed
// provider payloads. Every function is total: malformed input yields the
// documented fallback value, never an error or a panic.
package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// DefaultRating is used when a provider supplies no usable rating.
const DefaultRating = 4.0

const (
	minRating = 1.0
	maxRating = 5.0

	// Synthesized coordinates walk diagonally across the city center so that
	// records without a position do not stack on one point.
	latStep       = 0.002
	latHalfSpread = 0.01
	lonStep       = 0.003
	lonHalfSpread = 0.015
)

// digitRun matches a number with optional thousands grouping by comma, dot,
// space or non-breaking space: "1,250", "1.250", "1 250".
var digitRun = regexp.MustCompile(`\d+(?:[,. \x{00a0}\x{202f}]\d{3})*`)

// Lookup walks nested JSON objects and returns the value at path, or nil.
func Lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

// String returns v as a trimmed string. Numbers are formatted; anything
// else yields "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

// Float parses v as a finite float.
func Float(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coordinates returns the payload's position when lat and lon both parse to
// a plausible, non-null-island pair. Otherwise it synthesizes a point near
// center offset by the record's index in the result list. The bool reports
// whether the payload value was used.
func Coordinates(lat, lon any, center reference.Coordinates, index int) (reference.Coordinates, bool) {
	la, okLat := Float(lat)
	lo, okLon := Float(lon)
	if okLat && okLon && math.Abs(la) <= 90 && math.Abs(lo) <= 180 && (la != 0 || lo != 0) {
		return reference.Coordinates{Lat: la, Lon: lo}, true
	}

	i := float64(index)
	return reference.Coordinates{
		Lat: center.Lat + i*latStep - latHalfSpread,
		Lon: center.Lon + i*lonStep - lonHalfSpread,
	}, false
}

// Price extracts a whole monetary amount. Strings contribute their first run
// of digits with thousands separators dropped, so "€ 1,250" and "1.250 €" are
// 1250. Numbers are rounded. Anything without digits is types.PriceUnavailable.
func Price(raw any) types.Price {
	switch x := raw.(type) {
	case string:
		loc := digitRun.FindStringIndex(x)
		if loc == nil {
			return types.PriceUnavailable
		}
		run := x[loc[0]:loc[1]]
		// "1.2500" is a decimal, not a group followed by a digit.
		if loc[1] < len(x) && isDigit(x[loc[1]]) {
			if i := strings.LastIndexFunc(run, func(r rune) bool { return keepDigits(r) < 0 }); i >= 0 {
				run = run[:i]
			}
		}
		n, err := strconv.Atoi(strings.Map(keepDigits, run))
		if err != nil {
			return types.PriceUnavailable
		}
		return types.PriceOf(n)
	case nil:
		return types.PriceUnavailable
	default:
		f, ok := Float(x)
		if !ok || f < 0 {
			return types.PriceUnavailable
		}
		return types.PriceOf(int(math.Round(f)))
	}
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func keepDigits(r rune) rune {
	if '0' <= r && r <= '9' {
		return r
	}
	return -1
}

// Rating converts a provider rating on a 0..scale range to the 5-point
// scale, clamps it to [1, 5] and rounds to one decimal. Missing or
// unparseable values yield DefaultRating and false.
func Rating(raw any, scale float64) (float64, bool) {
	f, ok := Float(raw)
	if !ok || scale <= 0 {
		return DefaultRating, false
	}
	f = f * maxRating / scale
	f = math.Max(minRating, math.Min(maxRating, f))
	return Round1(f), true
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}
