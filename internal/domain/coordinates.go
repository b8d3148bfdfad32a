package domain

import (
	"hash/fnv"
	"strings"
)

// Kenya's bounding box, used for approximate positions.
const (
	MinLatitude  = -4.7
	MaxLatitude  = 5.0
	MinLongitude = 34.0
	MaxLongitude = 41.9
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// GenerateCoordsFromLocation maps a location string to a stable pseudo
// position inside Kenya. It is not a geocode: callers must mark listings
// using it with IsApproximateLocation.
func GenerateCoordsFromLocation(location string) Coordinates {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
	sum := h.Sum64()

	latFrac := float64(uint32(sum)) / float64(^uint32(0))
	lonFrac := float64(uint32(sum>>32)) / float64(^uint32(0))

	return Coordinates{
		Latitude:  MinLatitude + latFrac*(MaxLatitude-MinLatitude),
		Longitude: MinLongitude + lonFrac*(MaxLongitude-MinLongitude),
	}
}

// InKenya reports whether c falls inside the bounding box.
func (c Coordinates) InKenya() bool {
	return c.Latitude >= MinLatitude && c.Latitude <= MaxLatitude &&
		c.Longitude >= MinLongitude && c.Longitude <= MaxLongitude
}
