package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingMongoURI is returned when neither MONGODB_URI nor MONGO_URI is set.
var ErrMissingMongoURI = errors.New("MONGODB_URI (or MONGO_URI) is required")

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Health    HealthConfig
	API       APIConfig
	MinIO     MinIOConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
	// TrustedProxies lists proxy addresses/CIDRs whose X-Forwarded-For is
	// honoured. Empty means the peer address is always the client IP.
	TrustedProxies []string
}

type MongoDBConfig struct {
	URI         string
	Database    string
	Collection  string
	Timeout     time.Duration
	PingTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// HealthConfig controls how often the database is actually probed.
// Zero values mean every connectivity check performs a round trip.
type HealthConfig struct {
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

// APIConfig feeds the metadata block of the listing endpoint.
type APIConfig struct {
	Version       string
	DatabaseLabel string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	// MONGO_URI is the name the first deployments used
	_ = v.BindEnv("MONGODB_URI", "MONGODB_URI", "MONGO_URI")

	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("MONGODB_DATABASE", "tutedude")
	v.SetDefault("MONGODB_COLLECTION", "todos docker")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_PING_TIMEOUT", 2)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("HEALTH_CACHE_TTL", 0)
	v.SetDefault("HEALTH_REFRESH_INTERVAL", 0)
	v.SetDefault("API_VERSION", "2.0")
	v.SetDefault("API_DATABASE_LABEL", "MongoDB Atlas")
	v.SetDefault("MINIO_BUCKET", "todo-exports")
	v.SetDefault("LOG_LEVEL", "info")

	var durations [4]time.Duration
	for i, key := range []string{"MONGODB_TIMEOUT", "MONGODB_PING_TIMEOUT", "HEALTH_CACHE_TTL", "HEALTH_REFRESH_INTERVAL"} {
		d, err := seconds(v, key)
		if err != nil {
			return nil, err
		}
		durations[i] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			Environment:    v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		MongoDB: MongoDBConfig{
			URI:         strings.TrimSpace(v.GetString("MONGODB_URI")),
			Database:    v.GetString("MONGODB_DATABASE"),
			Collection:  v.GetString("MONGODB_COLLECTION"),
			Timeout:     durations[0],
			PingTimeout: durations[1],
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Health: HealthConfig{
			CacheTTL:        durations[2],
			RefreshInterval: durations[3],
		},
		API: APIConfig{
			Version:       v.GetString("API_VERSION"),
			DatabaseLabel: v.GetString("API_DATABASE_LABEL"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.MongoDB.URI == "" {
		return nil, ErrMissingMongoURI
	}
	if cfg.MongoDB.Database == "" || cfg.MongoDB.Collection == "" {
		return nil, errors.New("MONGODB_DATABASE and MONGODB_COLLECTION must not be empty")
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsProduction reports whether the service runs with SERVER_ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// seconds reads key as a duration. Bare numbers are seconds ("2", "0.5");
// anything else must be a Go duration string ("500ms", "5s").
func seconds(v *viper.Viper, key string) (time.Duration, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s: invalid duration %q", key, s)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
