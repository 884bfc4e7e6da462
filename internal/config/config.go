package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `yaml:"environment"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	DB struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"db"`

	Server struct {
		Port            string        `yaml:"port"`
		GinMode         string        `yaml:"gin_mode"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Type string `yaml:"type"`
	} `yaml:"storage"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Archive ArchiveConfig `yaml:"archive"`

	CORS struct {
		AllowOrigins string `yaml:"allow_origins"`
		AllowMethods string `yaml:"allow_methods"`
		AllowHeaders string `yaml:"allow_headers"`
	} `yaml:"cors"`
}

// ArchiveConfig points at the bucket finished polls are archived to
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Load loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnv("LOG_FORMAT", config.Log.Format)

	config.DB.Host = getEnv("DB_HOST", config.DB.Host)
	config.DB.Port = getEnv("DB_PORT", config.DB.Port)
	config.DB.User = getEnv("DB_USER", config.DB.User)
	config.DB.Password = getEnv("DB_PASSWORD", config.DB.Password)
	config.DB.Name = getEnv("DB_NAME", config.DB.Name)
	config.DB.SSLMode = getEnv("DB_SSLMODE", config.DB.SSLMode)

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Server.GinMode = getEnv("GIN_MODE", config.Server.GinMode)
	config.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeout)

	config.Storage.Type = getEnv("STORAGE_TYPE", config.Storage.Type)

	config.Auth.JWTSecret = getEnv("JWT_SECRET", config.Auth.JWTSecret)
	config.Auth.Issuer = getEnv("JWT_ISSUER", config.Auth.Issuer)

	config.Archive.Enabled = getEnvAsBool("ARCHIVE_ENABLED", config.Archive.Enabled)
	config.Archive.Endpoint = getEnv("ARCHIVE_ENDPOINT", config.Archive.Endpoint)
	config.Archive.AccessKey = getEnv("ARCHIVE_ACCESS_KEY", config.Archive.AccessKey)
	config.Archive.SecretKey = getEnv("ARCHIVE_SECRET_KEY", config.Archive.SecretKey)
	config.Archive.Bucket = getEnv("ARCHIVE_BUCKET", config.Archive.Bucket)
	config.Archive.UseSSL = getEnvAsBool("ARCHIVE_USE_SSL", config.Archive.UseSSL)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", config.CORS.AllowOrigins)
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", config.CORS.AllowMethods)
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", config.CORS.AllowHeaders)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func defaults() *Config {
	config := &Config{}

	config.Environment = "development"
	config.Log.Level = "info"
	config.Log.Format = "text"

	config.DB.Host = "localhost"
	config.DB.Port = "5432"
	config.DB.User = "gathering"
	config.DB.Password = "gathering_password"
	config.DB.Name = "gathering_db"
	config.DB.SSLMode = "disable"

	config.Server.Port = "8080"
	config.Server.GinMode = "debug"
	config.Server.ShutdownTimeout = 10 * time.Second

	config.Storage.Type = "postgres"

	config.Auth.Issuer = "gathering-api"

	config.Archive.Bucket = "poll-archive"

	config.CORS.AllowOrigins = "*"
	config.CORS.AllowMethods = "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS"
	config.CORS.AllowHeaders = "Origin,Content-Length,Content-Type,Authorization"

	return config
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks settings that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch c.Server.GinMode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported gin mode: %s", c.Server.GinMode)
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}

	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("archive endpoint and bucket are required when the archive is enabled")
	}

	return nil
}

// IsDevelopment reports whether the service runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// SplitList splits a comma separated setting such as CORS_ALLOW_ORIGINS
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as time.Duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
