package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

const (
	// OSRMBaseURL is the public OSRM demo server.
	OSRMBaseURL = "https://router.project-osrm.org"
	// DefaultProfile is the OSRM routing profile used when none is configured.
	DefaultProfile = "driving"

	osrmCodeOk = "Ok"
)

// ErrOSRMInvalidGeometry is returned when a geometry point has fewer than two ordinates.
var ErrOSRMInvalidGeometry = errors.New("osrm API returned invalid geometry")

// OSRMRouter implements Router on top of the OSRM HTTP route service.
type OSRMRouter struct {
	client    HTTPClient
	baseURL   string
	profile   string
	userAgent string
	log       *slog.Logger
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Legs []struct {
		Steps []osrmStep `json:"steps"`
	} `json:"legs"`
}

type osrmStep struct {
	Name     string `json:"name"`
	Maneuver struct {
		Type string `json:"type"`
	} `json:"maneuver"`
}

// NewOSRMRouter creates an OSRM client. Empty baseURL and profile fall back to
// the public demo server and the driving profile.
func NewOSRMRouter(client HTTPClient, baseURL, profile, userAgent string, log *slog.Logger) *OSRMRouter {
	if baseURL == "" {
		baseURL = OSRMBaseURL
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &OSRMRouter{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		profile:   profile,
		userAgent: userAgent,
		log:       log,
	}
}

// Route requests the full geometry and step list between from and to.
// The returned path is latitude-first; instructions are derived per step.
func (r *OSRMRouter) Route(ctx context.Context, from, to models.Coordinates) (*models.Route, error) {
	reqURL, err := r.routeURL(from, to)
	if err != nil {
		return nil, err
	}

	r.log.DebugContext(ctx, "OSRM request URL", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute routing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// OSRM reports NoRoute and friends as 4xx with a JSON body carrying the code.
	var result osrmResponse
	if err = json.Unmarshal(body, &result); err != nil || result.Code == "" {
		if resp.StatusCode != http.StatusOK {
			r.log.ErrorContext(ctx, "OSRM API error", "status", resp.StatusCode, "body", string(body))
			return nil, fmt.Errorf("osrm API returned status %d: %s", resp.StatusCode, string(body))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode osrm response: %w", err)
		}
	}

	if result.Code != osrmCodeOk {
		r.log.WarnContext(ctx, "OSRM returned no route", "code", result.Code, "message", result.Message)
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, result.Code, result.Message)
	}
	if len(result.Routes) == 0 {
		return nil, fmt.Errorf("%w: empty route list", ErrNoRoute)
	}

	return toRoute(result.Routes[0])
}

func (r *OSRMRouter) routeURL(from, to models.Coordinates) (string, error) {
	if _, err := url.Parse(r.baseURL); err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := url.Values{}
	query.Set("overview", "full")
	query.Set("geometries", "geojson")
	query.Set("steps", "true")

	return fmt.Sprintf("%s/route/v1/%s/%s;%s?%s",
		r.baseURL, url.PathEscape(r.profile), formatPair(from), formatPair(to), query.Encode(),
	), nil
}

// formatPair renders a coordinate as OSRM's "lon,lat".
func formatPair(c models.Coordinates) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

func toRoute(route osrmRoute) (*models.Route, error) {
	path := make([]models.LatLng, 0, len(route.Geometry.Coordinates))
	for idx, point := range route.Geometry.Coordinates {
		if len(point) < 2 {
			return nil, fmt.Errorf("%w: point %d has %d ordinates", ErrOSRMInvalidGeometry, idx, len(point))
		}
		path = append(path, models.LatLng{point[1], point[0]})
	}

	var instructions []string
	for _, leg := range route.Legs {
		for _, step := range leg.Steps {
			instructions = append(instructions, Instruction(step.Maneuver.Type, step.Name))
		}
	}

	return &models.Route{
		Path:         path,
		Instructions: instructions,
		Distance:     route.Distance,
		Duration:     route.Duration,
	}, nil
}

// Instruction joins a maneuver type and an optional road name.
func Instruction(maneuver, name string) string {
	if name == "" {
		return maneuver
	}

	return maneuver + " onto " + name
}
