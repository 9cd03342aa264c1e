package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/articlehub/articlehub/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	RateLimit RateLimitConfig
	Snapshot  SnapshotConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StaticDir    string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
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

// IdentityConfig selects how bearer credentials are verified. The first
// configured source wins: Firebase project, generic OIDC issuer, Keycloak
// realm, HMAC secret, insecure payload decoding.
type IdentityConfig struct {
	FirebaseProjectID string
	OIDCIssuer        string
	OIDCClientID      string
	KeycloakURL       string
	KeycloakRealm     string
	HMACSecret        string
	AllowInsecure     bool
	CacheTTL          time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// SnapshotConfig holds the MinIO target used by `articlectl snapshot`.
type SnapshotConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_STATIC_DIR", "../dist")
	v.SetDefault("MONGODB_DATABASE", "full-stack-db")
	v.SetDefault("MONGODB_COLLECTION", "articles")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDENTITY_CACHE_TTL", 300)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "article-snapshots")
	v.SetDefault("MINIO_REGION", "us-east-1")

	// PORT is what most hosting platforms set; SERVER_PORT overrides it.
	port := v.GetString("SERVER_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}
	if port == "" {
		port = "3000"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			StaticDir:    v.GetString("SERVER_STATIC_DIR"),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Identity: IdentityConfig{
			FirebaseProjectID: v.GetString("FIREBASE_PROJECT_ID"),
			OIDCIssuer:        v.GetString("OIDC_ISSUER"),
			OIDCClientID:      v.GetString("OIDC_CLIENT_ID"),
			KeycloakURL:       v.GetString("KEYCLOAK_URL"),
			KeycloakRealm:     v.GetString("KEYCLOAK_REALM"),
			HMACSecret:        v.GetString("JWT_SECRET"),
			AllowInsecure:     strings.EqualFold(strings.TrimSpace(v.GetString("ALLOW_INSECURE_TOKEN")), "true"),
			CacheTTL:          time.Duration(v.GetInt("IDENTITY_CACHE_TTL")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Snapshot: SnapshotConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Region:    v.GetString("MINIO_REGION"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Identity.AllowInsecure && cfg.Server.Environment == "production" {
		logger.Warnf("ALLOW_INSECURE_TOKEN is set in production; token signatures will not be checked")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoDB.Timeout <= 0 {
		return fmt.Errorf("MONGODB_TIMEOUT must be positive, got %s", c.MongoDB.Timeout)
	}
	if c.Identity.CacheTTL < 0 {
		return fmt.Errorf("IDENTITY_CACHE_TTL must not be negative, got %s", c.Identity.CacheTTL)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RPS)
		}
		if c.RateLimit.Burst < 0 {
			return fmt.Errorf("RATE_LIMIT_BURST must not be negative, got %d", c.RateLimit.Burst)
		}
	}
	if c.Identity.OIDCIssuer != "" && c.Identity.OIDCClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC_ISSUER is set")
	}
	return nil
}
