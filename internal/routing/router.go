// Package routing resolves driving routes between two coordinates.
package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// ErrNoRoute is returned when the routing service answers without a usable route.
var ErrNoRoute = errors.New("no route found")

// Router requests a route between two longitude-first coordinates.
type Router interface {
	Route(ctx context.Context, from, to models.Coordinates) (*models.Route, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
