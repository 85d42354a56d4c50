package demo

import (
	"fmt"
	"math"
	"sync"

	"github.com/alex-user-go/hotelfeed/internal/reference"
	"github.com/alex-user-go/hotelfeed/internal/search/extract"
	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// Inventory bounds.
const (
	DefaultCount = 18
	MaxCount     = 30
)

const (
	minBasePrice = 85
	maxBasePrice = 380

	minRating   = 3.9
	ratingRange = 0.9

	jitterRadius = 0.03
	currency     = "EUR"
)

var genericNames = []string{
	"Grand Hotel %s",
	"Hotel Central %s",
	"%s Plaza",
	"The %s Residence",
	"Park Inn %s",
	"%s City Suites",
	"Boutique Hotel %s",
	"%s Garden Hotel",
}

var streets = []string{
	"Main Street", "Market Square", "Station Road", "Harbour Lane",
	"Park Avenue", "Old Town Row", "Riverside Walk", "Cathedral Street",
}

// Source supplies randomness. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Params describes one batch of demo inventory.
type Params struct {
	Source   types.Source
	City     reference.City
	RoomType reference.RoomType
	// Count is clamped to [1, MaxCount]; zero or negative means DefaultCount.
	Count int
	// Link builds the deep link for a synthesized hotel name.
	Link func(name string) string
}

// Synthesizer generates plausible hotel records when live data is missing.
type Synthesizer struct {
	mu  sync.Mutex
	rnd Source
}

// New creates a Synthesizer drawing from src.
func New(src Source) *Synthesizer {
	return &Synthesizer{rnd: src}
}

// Generate returns synthesized hotels for a city and room type.
func (s *Synthesizer) Generate(p Params) []types.HotelRecord {
	count := p.Count
	switch {
	case count <= 0:
		count = DefaultCount
	case count > MaxCount:
		count = MaxCount
	}

	names := hotelNames(p.City, count)

	s.mu.Lock()
	defer s.mu.Unlock()

	hotels := make([]types.HotelRecord, 0, count)
	for i, name := range names {
		var url string
		if p.Link != nil {
			url = p.Link(name)
		}
		hotels = append(hotels, types.HotelRecord{
			ID:              fmt.Sprintf("%s_%02d", p.Source, i+1),
			Name:            name,
			Address:         fmt.Sprintf("%d %s, %s", 1+s.rnd.Intn(150), streets[i%len(streets)], p.City.Name),
			Latitude:        p.City.Center.Lat + s.jitter(),
			Longitude:       p.City.Center.Lon + s.jitter(),
			Price:           types.PriceOf(Price(s.basePrice(), p.City.CostMultiplier, p.RoomType.Multiplier)),
			Currency:        currency,
			Rating:          extract.Round1(minRating + s.rnd.Float64()*ratingRange),
			RoomType:        p.RoomType.Name,
			RoomDescription: p.RoomType.Description,
			URL:             url,
			Source:          p.Source,
		})
	}
	return hotels
}

// Price applies the city and room multipliers to a base nightly price.
func Price(base int, cityMultiplier, roomMultiplier float64) int {
	return int(math.Round(float64(base) * cityMultiplier * roomMultiplier))
}

func (s *Synthesizer) basePrice() int {
	return minBasePrice + s.rnd.Intn(maxBasePrice-minBasePrice+1)
}

func (s *Synthesizer) jitter() float64 {
	return (s.rnd.Float64()*2 - 1) * jitterRadius
}

// hotelNames returns count names, cycling through the curated list (or the
// generic templates) and numbering repeats so names stay distinct.
func hotelNames(city reference.City, count int) []string {
	base := city.HotelNames()
	if len(base) == 0 {
		base = make([]string, len(genericNames))
		for i, tmpl := range genericNames {
			base[i] = fmt.Sprintf(tmpl, city.Name)
		}
	}

	out := make([]string, count)
	for i := range out {
		name := base[i%len(base)]
		if round := i / len(base); round > 0 {
			name = fmt.Sprintf("%s %d", name, round+1)
		}
		out[i] = name
	}
	return out
}
