package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends selectable through DUCK_STORE.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     string
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	BasePath     string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Collection      string
	Timeout         time.Duration
	ConnectAttempts int
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

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Region     string
	Bucket     string
	Prefix     string
	PresignTTL time.Duration
}

// Enabled reports whether snapshot export to object storage is configured.
func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// SetDefaults registers the defaults on v. Exposed so command-line flags can
// be bound to the same keys before LoadFrom is called.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_BASE_PATH", "/ducks")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("DUCK_STORE", StoreMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "pikecape")
	v.SetDefault("MONGODB_COLLECTION", "duck")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 1)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_BUCKET", "ducks")
	v.SetDefault("MINIO_PREFIX", "snapshots")
	v.SetDefault("MINIO_PRESIGN_TTL", 60)
}

// LoadConfig loads configuration from environment variables and the .env file
// named by DUCK_ENV_FILE (default ".env").
func LoadConfig() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return LoadFrom(v)
}

// LoadFrom reads the configuration out of an already prepared viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("DUCK_ENV_FILE", ".env")
	// a missing env file is fine; real environment variables win over it
	_ = godotenv.Load(v.GetString("DUCK_ENV_FILE"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			BasePath:     v.GetString("SERVER_BASE_PATH"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
		},
		Store: strings.ToLower(strings.TrimSpace(v.GetString("DUCK_STORE"))),
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGODB_URI"),
			Database:        v.GetString("MONGODB_DATABASE"),
			Collection:      v.GetString("MONGODB_COLLECTION"),
			Timeout:         time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts: v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
			Region:     v.GetString("MINIO_REGION"),
			Bucket:     v.GetString("MINIO_BUCKET"),
			Prefix:     strings.Trim(v.GetString("MINIO_PREFIX"), "/"),
			PresignTTL: time.Duration(v.GetInt("MINIO_PRESIGN_TTL")) * time.Minute,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMongo:
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" || c.MongoDB.Collection == "" {
			return fmt.Errorf("config: MONGODB_URI, MONGODB_DATABASE and MONGODB_COLLECTION are required for the mongo store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown DUCK_STORE %q", c.Store)
	}
	if c.MongoDB.ConnectAttempts < 1 {
		c.MongoDB.ConnectAttempts = 1
	}
	if c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("config: RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
	return nil
}
