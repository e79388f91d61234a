// Package view renders presenter state as a map page and pushes updates to open pages.
package view

import (
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/presenter"
)

// Placeholder replaces empty instruction entries in the rendered list.
const Placeholder = "No instruction available"

// Bounds is the viewport that exactly contains a polyline.
type Bounds struct {
	SouthWest models.LatLng `json:"south_west"`
	NorthEast models.LatLng `json:"north_east"`
}

// Model is everything the page needs to draw the current state.
type Model struct {
	RouteID      uint64          `json:"route_id"` // request that produced the displayed route, 0 if none
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	Polyline     []models.LatLng `json:"polyline"`
	Bounds       *Bounds         `json:"bounds,omitempty"`
	Instructions []string        `json:"instructions"`
	Distance     float64         `json:"distance"`
	Duration     float64         `json:"duration"`
	RequestID    uint64          `json:"request_id"` // latest request
	Phase        presenter.Phase `json:"phase"`
	Message      string          `json:"message,omitempty"`
}

// NewModel builds the view model for a snapshot (nil when nothing is displayed yet)
// and the status of the latest request.
func NewModel(snapshot *presenter.Snapshot, status presenter.Status) Model {
	model := Model{
		Polyline:     []models.LatLng{},
		Instructions: []string{},
		RequestID:    status.RequestID,
		Phase:        status.Phase,
		Message:      status.Message,
	}
	if snapshot == nil {
		return model
	}

	model.RouteID = snapshot.RequestID
	model.Origin = snapshot.Origin
	model.Destination = snapshot.Destination
	model.Distance = snapshot.Route.Distance
	model.Duration = snapshot.Route.Duration
	if snapshot.Route.Path != nil {
		model.Polyline = snapshot.Route.Path
	}
	model.Bounds = FitBounds(snapshot.Route.Path)

	model.Instructions = make([]string, len(snapshot.Route.Instructions))
	for idx, instruction := range snapshot.Route.Instructions {
		if instruction == "" {
			instruction = Placeholder
		}
		model.Instructions[idx] = instruction
	}

	return model
}

// FitBounds returns the bounding box of path, or nil for an empty path.
func FitBounds(path []models.LatLng) *Bounds {
	if len(path) == 0 {
		return nil
	}

	bounds := &Bounds{SouthWest: path[0], NorthEast: path[0]}
	for _, point := range path[1:] {
		bounds.SouthWest[0] = min(bounds.SouthWest[0], point.Lat())
		bounds.SouthWest[1] = min(bounds.SouthWest[1], point.Lng())
		bounds.NorthEast[0] = max(bounds.NorthEast[0], point.Lat())
		bounds.NorthEast[1] = max(bounds.NorthEast[1], point.Lng())
	}

	return bounds
}
