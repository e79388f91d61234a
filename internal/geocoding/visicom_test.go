package geocoding_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestVisicomProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	apiKey := "test-api-key"
	defaultRL := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), geocoding.VisicomBaseURL)
				assert.Equal(t, "Eiffel Tower", req.URL.Query().Get("text"))
				assert.Equal(t, apiKey, req.URL.Query().Get("key"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, "application/json", req.Header.Get("Accept"))

				return jsonResponse(http.StatusOK, `{"geo_centroid":{"coordinates":[2.2945,48.8584]}}`), nil
			},
		}

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Eiffel Tower")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 48.8584, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 2.2945, coords.Longitude, 0.0001)
	})

	t.Run("empty response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{}`), nil
			},
		}

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "")

		assert.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrVisicomEmptyResponse)
		assert.ErrorIs(t, err, geocoding.ErrAddressNotFound)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"geo_centroid":{"coordinates":[30.5]}}`), nil
			},
		}

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "bad coords")

		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrVisicomInvalidCoords)
	})

	t.Run("unauthorized", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusUnauthorized, `unathorized`), nil
			},
		}

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrVisicomUnathorized)
	})

	t.Run("server error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusBadGateway, `upstream down`), nil
			},
		}

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, defaultRL, logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorContains(t, err, "visicom API returned status 502")
	})

	t.Run("limiter wait aborted", func(t *testing.T) {
		rateCtx, cancel := context.WithCancel(context.Background())
		cancel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called when the limiter blocks")
				return &http.Response{}, nil
			},
		}

		limiter := rate.NewLimiter(rate.Every(time.Second), 1)

		provider := geocoding.NewVisicomProvider(mockClient, apiKey, limiter, logger)
		coords, err := provider.Geocode(rateCtx, "some address")

		assert.Nil(t, coords)
		assert.ErrorContains(t, err, "rate limiter wait failed")
	})
}
