// Package config loads server settings from an optional config file, an optional .env
// file and the environment. Environment variables use the key path upper-cased with
// dots replaced by underscores: jwt.secret is JWT_SECRET.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trono-server/models"
	"trono-server/services"
	"trono-server/utils/format"
)

type Config struct {
	Env string `mapstructure:"app_env"`

	Server struct {
		Addr           string        `mapstructure:"addr"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
		ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
	} `mapstructure:"server"`

	JWT struct {
		Secret     string        `mapstructure:"secret"`
		SessionTTL time.Duration `mapstructure:"session_ttl"`
	} `mapstructure:"jwt"`

	Mongo struct {
		URI        string `mapstructure:"uri"`
		Database   string `mapstructure:"database"`
		Collection string `mapstructure:"collection"`
	} `mapstructure:"mongo"`

	POI struct {
		SeedFile        string        `mapstructure:"seed_file"`
		Limit           int64         `mapstructure:"limit"`
		RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	} `mapstructure:"poi"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Location struct {
		CacheKey           string        `mapstructure:"cache_key"`
		EnableHighAccuracy bool          `mapstructure:"enable_high_accuracy"`
		MaxAge             time.Duration `mapstructure:"max_age"`
		Timeout            time.Duration `mapstructure:"timeout"`
		IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
		EvictInterval      time.Duration `mapstructure:"evict_interval"`
	} `mapstructure:"location"`

	Ranking struct {
		services.RankOptions `mapstructure:",squash"`
		MemoTTL              time.Duration `mapstructure:"memo_ttl"`
	} `mapstructure:"ranking"`

	Map struct {
		DefaultCenter struct {
			Latitude  float64 `mapstructure:"latitude"`
			Longitude float64 `mapstructure:"longitude"`
		} `mapstructure:"default_center"`
		DefaultZoom float64 `mapstructure:"default_zoom"`
	} `mapstructure:"map"`

	Labels format.Labels `mapstructure:"labels"`
}

// Development reports whether the process runs with developer-friendly output.
func (c Config) Development() bool {
	return c.Env == "" || c.Env == "development"
}

// SourceOptions maps the location.* keys onto the options every session watch uses.
func (c Config) SourceOptions() services.SourceOptions {
	return services.SourceOptions{
		EnableHighAccuracy: c.Location.EnableHighAccuracy,
		MaximumAge:         c.Location.MaxAge,
		Timeout:            c.Location.Timeout,
	}
}

// DefaultMapView is where new sessions' maps start.
func (c Config) DefaultMapView() models.MapView {
	return models.MapView{
		Latitude:  c.Map.DefaultCenter.Latitude,
		Longitude: c.Map.DefaultCenter.Longitude,
		Zoom:      c.Map.DefaultZoom,
	}
}

var (
	ErrMissingJWTSecret = errors.New("jwt.secret (JWT_SECRET) is not set")
	ErrInvalidMapView   = errors.New("map.default_center must be a valid coordinate and map.default_zoom positive")
)


func setDefaults(v *viper.Viper) {
	labels := format.DefaultLabels()
	source := services.DefaultSourceOptions()
	mapView := models.DefaultMapView()

	v.SetDefault("app_env", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.session_ttl", 24*time.Hour)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "trono")
	v.SetDefault("mongo.collection", "pois")

	v.SetDefault("poi.seed_file", "data/pois.json")
	v.SetDefault("poi.limit", 0)
	v.SetDefault("poi.refresh_interval", 5*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("location.cache_key", services.DefaultLocationCacheKey)
	v.SetDefault("location.enable_high_accuracy", source.EnableHighAccuracy)
	v.SetDefault("location.max_age", source.MaximumAge)
	v.SetDefault("location.timeout", source.Timeout)
	v.SetDefault("location.idle_timeout", 30*time.Minute)
	v.SetDefault("location.evict_interval", time.Minute)

	v.SetDefault("ranking.implicit_gender_match", false)
	v.SetDefault("ranking.memo_ttl", time.Minute)

	v.SetDefault("map.default_center.latitude", mapView.Latitude)
	v.SetDefault("map.default_center.longitude", mapView.Longitude)
	v.SetDefault("map.default_zoom", mapView.Zoom)

	v.SetDefault("labels.free", labels.Free)
	v.SetDefault("labels.currency", labels.Currency)
	v.SetDefault("labels.no_address", labels.NoAddress)
}

// Load reads .env (if present), then config.yml from the working directory or ./config
// (if present), then the environment, which wins.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	if !cfg.DefaultMapView().Valid() {
		return Config{}, ErrInvalidMapView
	}
	return cfg, nil
}
