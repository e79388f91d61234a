package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "WAYFINDER"

// Config holds the configuration settings for the directions service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the map page and API server.
// - HealthPort: The port for the monitoring server.
// - Provider: Geocoding provider selection and credentials.
// - Router: OSRM endpoint and profile.
// - UserAgent: User-Agent sent to public OSM services.
// - HTTPTimeout: Timeout for outbound requests, 0 disables it.
// - Map: Base map settings for the page.
type Config struct {
	Env         string         `yaml:"env"`          // Env is the current environment: local, development, production.
	Port        int            `yaml:"port"`         // Port is the map page and API server port.
	HealthPort  int            `yaml:"health_port"`  // HealthPort is the monitoring server port.
	Provider    ProviderConfig `yaml:"provider"`     // Provider holds the geocoding provider configuration.
	Router      RouterConfig   `yaml:"router"`       // Router holds the routing backend configuration.
	UserAgent   string         `yaml:"user_agent"`   // UserAgent identifies the service to public APIs.
	HTTPTimeout time.Duration  `yaml:"http_timeout"` // HTTPTimeout bounds every outbound request.
	Map         MapConfig      `yaml:"map"`          // Map holds the base map settings.
}

// ProviderConfig selects and authenticates the geocoding provider.
type ProviderConfig struct {
	Type         string `yaml:"type"`          // Type is one of google, nominatim, visicom.
	APIKey       string `yaml:"api_key"`       // APIKey is required for google and visicom.
	RateLimit    int    `yaml:"rate_limit"`    // RateLimit is the account quota in requests per second.
	NominatimURL string `yaml:"nominatim_url"` // NominatimURL overrides the public search endpoint.
}

// RouterConfig points at the OSRM route service.
type RouterConfig struct {
	URL     string `yaml:"url"`     // URL is the OSRM server base URL.
	Profile string `yaml:"profile"` // Profile is the OSRM routing profile.
}

// MapConfig holds the initial viewport and tile source.
type MapConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Zoom      int     `yaml:"zoom"`
	TileURL   string  `yaml:"tile_url"`
}

// MustLoad reads the optional .env file and the WAYFINDER_* environment and
// returns the resulting Config. It panics on values that cannot be parsed.
func MustLoad() *Config {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	// Missing .env is fine, the environment alone is a valid configuration.
	_ = godotenv.Load(v.GetString("env_file"))

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for map server from configuration")
	}

	healthPort, err := strconv.Atoi(v.GetString("health_port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("provider_rate_limit"))
	if err != nil {
		panic("failed to parse provider rate limit from configuration, must be an integer")
	}

	timeout, err := time.ParseDuration(v.GetString("http_timeout"))
	if err != nil {
		panic("failed to parse http timeout from configuration")
	}

	lat, lon, err := parseCenter(v.GetString("map_center"))
	if err != nil {
		panic("failed to parse map center from configuration, expected \"lat,lon\"")
	}

	zoom, err := strconv.Atoi(v.GetString("map_zoom"))
	if err != nil {
		panic("failed to parse map zoom from configuration")
	}

	return &Config{
		Env:        v.GetString("env"),
		Port:       port,
		HealthPort: healthPort,
		Provider: ProviderConfig{
			Type:         v.GetString("provider_type"),
			APIKey:       v.GetString("provider_key"),
			RateLimit:    rateLimit,
			NominatimURL: v.GetString("nominatim_url"),
		},
		Router: RouterConfig{
			URL:     v.GetString("osrm_url"),
			Profile: v.GetString("osrm_profile"),
		},
		UserAgent:   v.GetString("user_agent"),
		HTTPTimeout: timeout,
		Map: MapConfig{
			Latitude:  lat,
			Longitude: lon,
			Zoom:      zoom,
			TileURL:   v.GetString("tile_url"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env_file", ".env")
	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("health_port", "8081")
	v.SetDefault("provider_type", "nominatim")
	v.SetDefault("provider_key", "")
	v.SetDefault("provider_rate_limit", "0")
	v.SetDefault("nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("osrm_url", "https://router.project-osrm.org")
	v.SetDefault("osrm_profile", "driving")
	v.SetDefault("user_agent", "Wayfinder/1.0 (https://github.com/UnknownOlympus/wayfinder)")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("map_center", "51.505,-0.09")
	v.SetDefault("map_zoom", "13")
	v.SetDefault("tile_url", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
}

func parseCenter(value string) (float64, float64, error) {
	latStr, lonStr, _ := strings.Cut(value, ",")

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}
