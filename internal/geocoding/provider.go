package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// ErrAddressNotFound is wrapped by every provider when the service returns no candidates.
var ErrAddressNotFound = errors.New("address not found")

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and an address string as input,
// and returns the coordinates of the first (most relevant) candidate and an error if any occurs.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
