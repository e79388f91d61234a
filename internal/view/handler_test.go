package view_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/presenter"
	"github.com/UnknownOlympus/wayfinder/internal/service"
	"github.com/UnknownOlympus/wayfinder/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirections struct {
	fn func(ctx context.Context, origin, destination string) (*presenter.Snapshot, error)
}

func (s *stubDirections) GetDirections(ctx context.Context, origin, destination string) (*presenter.Snapshot, error) {
	return s.fn(ctx, origin, destination)
}

var londonSnapshot = presenter.Snapshot{
	Origin:      "10 Downing Street, London",
	Destination: "Buckingham Palace, London",
	Route: models.Route{
		Path:         []models.LatLng{{51.503, -0.127}, {51.501, -0.141}},
		Instructions: []string{"depart onto Downing Street", "arrive"},
	},
}

func newTestRouter(t *testing.T, directions view.Directions) (http.Handler, *presenter.Store, *view.Hub) {
	t.Helper()

	logger := slog.Default()
	store := presenter.NewStore()
	hub := view.NewHub(logger, store, metrics.NewMetrics(prometheus.NewRegistry()))
	page := view.PageConfig{
		Center:  models.LatLng{51.505, -0.09},
		Zoom:    13,
		TileURL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	}
	handler := view.NewHandler(directions, store, hub, page, logger)

	return view.NewRouter(handler, logger), store, hub
}

func postDirections(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/directions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestHandler_GetDirections(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		directions := &stubDirections{fn: func(_ context.Context, origin, destination string) (*presenter.Snapshot, error) {
			assert.Equal(t, "10 Downing Street, London", origin)
			assert.Equal(t, "Buckingham Palace, London", destination)
			snap := londonSnapshot
			snap.RequestID = 1
			return &snap, nil
		}}
		router, _, _ := newTestRouter(t, directions)

		rec := postDirections(t, router,
			`{"origin":"10 Downing Street, London","destination":"Buckingham Palace, London"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var model view.Model
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
		assert.Equal(t, uint64(1), model.RouteID)
		assert.Equal(t, presenter.PhaseSucceeded, model.Phase)
		assert.Len(t, model.Polyline, 2)
		assert.Equal(t, londonSnapshot.Route.Instructions, model.Instructions)
		require.NotNil(t, model.Bounds)
	})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"address not found", service.ErrAddressNotFound, http.StatusNotFound, "One or both addresses not found"},
		{"no route", service.ErrNoRoute, http.StatusNotFound, "No route found"},
		{"network failure", service.ErrFetchFailed, http.StatusBadGateway,
			"Failed to fetch directions. Please check your network connection."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			directions := &stubDirections{fn: func(context.Context, string, string) (*presenter.Snapshot, error) {
				return nil, tc.err
			}}
			router, _, _ := newTestRouter(t, directions)

			rec := postDirections(t, router, `{"origin":"","destination":"Eiffel Tower"}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, `{"error":"`+tc.message+`"}`, rec.Body.String())
		})
	}

	t.Run("superseded failure answers with displayed route", func(t *testing.T) {
		var store *presenter.Store
		directions := &stubDirections{fn: func(context.Context, string, string) (*presenter.Snapshot, error) {
			_, err := store.Publish(store.Begin(), londonSnapshot)
			require.NoError(t, err)
			return nil, fmt.Errorf("%w: %w", service.ErrSuperseded, service.ErrNoRoute)
		}}
		router, routerStore, _ := newTestRouter(t, directions)
		store = routerStore

		rec := postDirections(t, router, `{"origin":"a","destination":"b"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var model view.Model
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
		assert.Equal(t, uint64(1), model.RouteID)
		assert.Equal(t, presenter.PhaseSucceeded, model.Phase)
		assert.NotContains(t, rec.Body.String(), "No route found")
	})

	t.Run("invalid body", func(t *testing.T) {
		directions := &stubDirections{fn: func(context.Context, string, string) (*presenter.Snapshot, error) {
			t.Fatal("directions must not be requested for an invalid body")
			return nil, nil
		}}
		router, _, _ := newTestRouter(t, directions)

		rec := postDirections(t, router, `not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewRouter_KeepsGinMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Cleanup(func() { gin.SetMode(gin.DebugMode) })

	newTestRouter(t, &stubDirections{})

	assert.Equal(t, gin.TestMode, gin.Mode())
}

func TestHandler_GetRoute(t *testing.T) {
	router, store, _ := newTestRouter(t, &stubDirections{})

	id := store.Begin()
	_, err := store.Publish(id, londonSnapshot)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/route", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var model view.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, id, model.RouteID)
	assert.Equal(t, londonSnapshot.Origin, model.Origin)
}

func TestHandler_Index(t *testing.T) {
	router, store, _ := newTestRouter(t, &stubDirections{})

	snap := londonSnapshot
	snap.Route.Instructions = []string{"depart onto Downing Street", ""}
	id := store.Begin()
	_, err := store.Publish(id, snap)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="origin"`)
	assert.Contains(t, body, `id="destination"`)
	assert.Contains(t, body, "<li>depart onto Downing Street</li>")
	assert.Contains(t, body, "<li>No instruction available</li>")
	assert.Contains(t, body, "tile.openstreetmap.org")
}

func TestHub_PushesStoreEvents(t *testing.T) {
	router, store, hub := newTestRouter(t, &stubDirections{})
	go hub.Run(t.Context())

	server := httptest.NewServer(router)
	defer server.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial view.Model
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, presenter.PhaseIdle, initial.Phase)
	assert.Zero(t, initial.RouteID)

	id := store.Begin()
	var fetching view.Model
	require.NoError(t, conn.ReadJSON(&fetching))
	assert.Equal(t, presenter.PhaseFetching, fetching.Phase)
	assert.Equal(t, id, fetching.RequestID)

	_, err = store.Publish(id, londonSnapshot)
	require.NoError(t, err)
	var published view.Model
	require.NoError(t, conn.ReadJSON(&published))
	assert.Equal(t, presenter.PhaseSucceeded, published.Phase)
	assert.Equal(t, id, published.RouteID)
	assert.Len(t, published.Polyline, 2)
}

func TestHub_BurstDeliversFinalState(t *testing.T) {
	router, store, hub := newTestRouter(t, &stubDirections{})
	go hub.Run(t.Context())

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	conns := make([]*websocket.Conn, 0, 2)
	for range 2 {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var initial view.Model
		require.NoError(t, conn.ReadJSON(&initial))
		conns = append(conns, conn)
	}

	var latest uint64
	for range 200 {
		latest = store.Begin()
	}
	_, err := store.Publish(latest, londonSnapshot)
	require.NoError(t, err)

	for _, conn := range conns {
		var model view.Model
		for model.Phase != presenter.PhaseSucceeded {
			require.NoError(t, conn.ReadJSON(&model))
		}
		assert.Equal(t, latest, model.RouteID)
	}
}
