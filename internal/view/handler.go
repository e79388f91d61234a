package view

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/presenter"
	"github.com/UnknownOlympus/wayfinder/internal/service"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templates embed.FS

// Directions is the orchestration routine behind the trigger button.
type Directions interface {
	GetDirections(ctx context.Context, origin, destination string) (*presenter.Snapshot, error)
}

// PageConfig holds the base map settings rendered into the page.
type PageConfig struct {
	Center  models.LatLng
	Zoom    int
	TileURL string
}

// Handler serves the map page and its JSON/websocket API.
type Handler struct {
	directions Directions
	store      *presenter.Store
	hub        *Hub
	page       PageConfig
	log        *slog.Logger
}

type directionsRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// NewHandler creates a new Handler.
func NewHandler(directions Directions, store *presenter.Store, hub *Hub, page PageConfig, log *slog.Logger) *Handler {
	return &Handler{
		directions: directions,
		store:      store,
		hub:        hub,
		page:       page,
		log:        log,
	}
}

// NewRouter builds the gin engine with recovery, request logging and all routes.
func NewRouter(handler *Handler, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	handler.RegisterRoutes(router)

	return router
}

// RegisterRoutes registers the page and API routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.POST("/api/directions", h.GetDirections)
	r.GET("/api/route", h.GetRoute)
	r.GET("/api/ws", h.Subscribe)
}

// Index renders the map page with the current state.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Page":  h.page,
		"Model": NewModel(h.store.Current(), h.store.Status()),
	})
}

// GetDirections triggers a new orchestration run.
func (h *Handler) GetDirections(c *gin.Context) {
	var req directionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snapshot, err := h.directions.GetDirections(c.Request.Context(), req.Origin, req.Destination)
	if errors.Is(err, service.ErrSuperseded) {
		// A newer request owns the page; answer with what is displayed instead of an alert.
		c.JSON(http.StatusOK, NewModel(h.store.Current(), h.store.Status()))
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": service.Notification(err)})
		return
	}

	c.JSON(http.StatusOK, NewModel(snapshot, presenter.Status{
		RequestID: snapshot.RequestID,
		Phase:     presenter.PhaseSucceeded,
	}))
}

// GetRoute returns the model for what is currently displayed.
func (h *Handler) GetRoute(c *gin.Context) {
	c.JSON(http.StatusOK, NewModel(h.store.Current(), h.store.Status()))
}

// Subscribe upgrades to a websocket that receives a Model on every change.
func (h *Handler) Subscribe(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrAddressNotFound), errors.Is(err, service.ErrNoRoute):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.DebugContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
