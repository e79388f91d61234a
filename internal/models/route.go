package models

// Route is a resolved driving route ready for display.
type Route struct {
	Path         []LatLng // Path is the route geometry, latitude first.
	Instructions []string // Instructions holds one human-readable entry per maneuver.
	Distance     float64  // Distance in meters.
	Duration     float64  // Duration in seconds.
}
