// Package config loads process configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	CacheBackend string // "file" or "redis"
	CacheDir     string
	RedisAddr    string

	ThemesDir   string
	FontsDir    string
	TexturesDir string
	OutputDir   string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocodeInterval   time.Duration
	GeocodeAttempts   int
	GeocodeBackoff    time.Duration

	OverpassURL string

	Invalidation InvalidationCfg
}

// Load reads configuration from POSTER_* environment variables with defaults.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("poster")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8070")
	v.SetDefault("log_level", "info")

	v.SetDefault("cache_backend", "file")
	v.SetDefault("cache_dir", ".cache")
	v.SetDefault("redis_addr", "localhost:6379")

	v.SetDefault("themes_dir", "themes")
	v.SetDefault("fonts_dir", "assets/fonts")
	v.SetDefault("textures_dir", "assets/textures")
	v.SetDefault("output_dir", "outputs")

	v.SetDefault("geocoder_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder_user_agent", "cartapress/1.0")
	v.SetDefault("geocode_interval", time.Second)
	v.SetDefault("geocode_attempts", 3)
	v.SetDefault("geocode_backoff", time.Second)

	v.SetDefault("overpass_url", "https://overpass-api.de/api/interpreter")

	v.SetDefault("invalidation_enabled", false)
	v.SetDefault("invalidation_brokers", "localhost:9092")
	v.SetDefault("invalidation_topic", "poster-cache-invalidation")
	v.SetDefault("invalidation_group_id", "poster-invalidator")

	return Config{
		Addr:     v.GetString("addr"),
		LogLevel: v.GetString("log_level"),

		CacheBackend: v.GetString("cache_backend"),
		CacheDir:     v.GetString("cache_dir"),
		RedisAddr:    v.GetString("redis_addr"),

		ThemesDir:   v.GetString("themes_dir"),
		FontsDir:    v.GetString("fonts_dir"),
		TexturesDir: v.GetString("textures_dir"),
		OutputDir:   v.GetString("output_dir"),

		GeocoderURL:       v.GetString("geocoder_url"),
		GeocoderUserAgent: v.GetString("geocoder_user_agent"),
		GeocodeInterval:   v.GetDuration("geocode_interval"),
		GeocodeAttempts:   v.GetInt("geocode_attempts"),
		GeocodeBackoff:    v.GetDuration("geocode_backoff"),

		OverpassURL: v.GetString("overpass_url"),

		Invalidation: InvalidationCfg{
			Enabled: v.GetBool("invalidation_enabled"),
			Brokers: strings.Split(v.GetString("invalidation_brokers"), ","),
			Topic:   v.GetString("invalidation_topic"),
			GroupID: v.GetString("invalidation_group_id"),
		},
	}
}
