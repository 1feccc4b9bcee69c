package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 2342
	defaultEnv      = "development"
	defaultMongoURL = "mongodb://localhost:27017"
	defaultMongoDB  = "geopulse"
	defaultRedisURL = "redis://localhost:6379/0"

	defaultIntervalMS        = 30000
	defaultMinDistanceMeters = 10
	defaultRetentionDays     = 7
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Mongo          MongoConfig    `yaml:"mongo"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Timezone       string         `yaml:"timezone"`
	Tracking       TrackingConfig `yaml:"tracking"`
}

type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// TrackingConfig is the fixed configuration surface of the tracking core.
type TrackingConfig struct {
	IntervalMS        int     `yaml:"interval_ms"`
	MinDistanceMeters float64 `yaml:"min_distance_meters"`
	RetentionDays     int     `yaml:"retention_days"`
}

// Interval returns the sampling period as a duration.
func (t TrackingConfig) Interval() time.Duration {
	return time.Duration(t.IntervalMS) * time.Millisecond
}

// Load reads the YAML config file, applies GP_* environment overrides and
// fills in defaults. A missing file is not an error; env and defaults apply.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("GP_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("GP_ENV")); v != "" {
		c.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("GP_MONGO_URL")); v != "" {
		c.Mongo.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("GP_MONGO_DB")); v != "" {
		c.Mongo.Database = v
	}
	if v := strings.TrimSpace(os.Getenv("GP_REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GP_JWT_SECRET")); v != "" {
		c.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("GP_ALLOWED_ORIGINS")); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		c.AllowedOrigins = origins
	}
}

// Normalize fills defaults for anything left unset.
func (c *AppConfig) Normalize() {
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = defaultPort
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = defaultEnv
	}
	if strings.TrimSpace(c.Mongo.URL) == "" {
		c.Mongo.URL = defaultMongoURL
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		c.Mongo.Database = defaultMongoDB
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.Tracking.IntervalMS <= 0 {
		c.Tracking.IntervalMS = defaultIntervalMS
	}
	if c.Tracking.MinDistanceMeters < 0 {
		c.Tracking.MinDistanceMeters = 0
	} else if c.Tracking.MinDistanceMeters == 0 {
		c.Tracking.MinDistanceMeters = defaultMinDistanceMeters
	}
	if c.Tracking.RetentionDays <= 0 {
		c.Tracking.RetentionDays = defaultRetentionDays
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}
