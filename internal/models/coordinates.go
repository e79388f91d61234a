package models

// Coordinates represents a geographical point defined by its longitude and latitude.
// Geocoding and routing APIs exchange points longitude-first, so this is the
// order used everywhere outside the map renderer.
type Coordinates struct {
	Longitude float64 // Longitude of the geographical point.
	Latitude  float64 // Latitude of the geographical point.
}

// LatLng is a latitude-first point as consumed by the map renderer.
type LatLng [2]float64

// ToLatLng swaps the axis order for rendering.
func (c Coordinates) ToLatLng() LatLng {
	return LatLng{c.Latitude, c.Longitude}
}

// Lat returns the latitude component.
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude component.
func (p LatLng) Lng() float64 { return p[1] }
