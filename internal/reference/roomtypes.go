package reference

import (
	"maps"
	"slices"
	"strings"
)

// RoomType describes one of the fixed room-type options.
type RoomType struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Multiplier  float64 `json:"price_multiplier"`
}

// Room type keys.
const (
	RoomDouble      = "double"
	RoomSingle      = "single"
	RoomSuite       = "suite"
	RoomJuniorSuite = "junior_suite"
	RoomFamily      = "family"
)

var roomTypes = map[string]RoomType{
	RoomDouble: {
		Key: RoomDouble, Name: "Double Room",
		Description: "Room with one double bed for two guests",
		Multiplier:  1.0,
	},
	RoomSingle: {
		Key: RoomSingle, Name: "Single Room",
		Description: "Compact room with one single bed",
		Multiplier:  0.75,
	},
	RoomSuite: {
		Key: RoomSuite, Name: "Suite",
		Description: "Separate bedroom and living area",
		Multiplier:  2.0,
	},
	RoomJuniorSuite: {
		Key: RoomJuniorSuite, Name: "Junior Suite",
		Description: "Spacious room with a sitting area",
		Multiplier:  1.5,
	},
	RoomFamily: {
		Key: RoomFamily, Name: "Family Room",
		Description: "Room for up to four guests with extra beds",
		Multiplier:  1.3,
	},
}

// LookupRoomType returns the reference record for a room-type key.
func LookupRoomType(key string) (RoomType, bool) {
	rt, ok := roomTypes[strings.ToLower(strings.TrimSpace(key))]
	return rt, ok
}

// RoomTypes returns every room type ordered by key.
func RoomTypes() []RoomType {
	out := make([]RoomType, 0, len(roomTypes))
	for _, key := range slices.Sorted(maps.Keys(roomTypes)) {
		out = append(out, roomTypes[key])
	}
	return out
}
