package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Storage    StorageConfig
	Log        LogConfig
	CORS       CORSConfig
	Extraction RemoteConfig
	Matching   RemoteConfig
	Ingest     IngestConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig holds object storage settings for uploaded originals.
// Provider "none" keeps only the document row.
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// MaxFileSizeBytes returns the upload size limit in bytes.
func (s *StorageConfig) MaxFileSizeBytes() int64 {
	return s.MaxFileSizeMB * 1024 * 1024
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RemoteConfig holds settings for a remote capability (extraction or matching).
type RemoteConfig struct {
	URL         string `mapstructure:"url"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	StagingDir  string `mapstructure:"staging_dir"`
}

// Timeout returns the request timeout, defaulting to 120s.
func (r *RemoteConfig) Timeout() time.Duration {
	if r.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(r.TimeoutSecs) * time.Second
}

// IngestConfig holds settings for committing line items.
type IngestConfig struct {
	ResavePolicy   string        `mapstructure:"resave_policy"`
	StorageTimeout time.Duration `mapstructure:"storage_timeout"`
}

// Load reads configuration from environment variables with the DOCPROC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCPROC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":5009")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docproc")
	v.SetDefault("db.password", "docproc_secret")
	v.SetDefault("db.name", "document_processor")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Storage defaults
	v.SetDefault("storage.provider", "none")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "docproc-uploads")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.max_file_size_mb", 50)
	v.SetDefault("storage.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Remote capability defaults
	v.SetDefault("extraction.url", "http://localhost:8081/extraction_api")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.timeout_secs", 120)
	v.SetDefault("extraction.staging_dir", "")
	v.SetDefault("matching.url", "http://localhost:8082/match")
	v.SetDefault("matching.api_key", "")
	v.SetDefault("matching.timeout_secs", 30)

	// Ingest defaults
	v.SetDefault("ingest.resave_policy", "replace")
	v.SetDefault("ingest.storage_timeout", "30s")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "DOCPROC_SERVER_PORT",
		"server.read_timeout":      "DOCPROC_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "DOCPROC_SERVER_WRITE_TIMEOUT",
		"server.environment":       "DOCPROC_SERVER_ENVIRONMENT",
		"db.host":                  "DOCPROC_DB_HOST",
		"db.port":                  "DOCPROC_DB_PORT",
		"db.user":                  "DOCPROC_DB_USER",
		"db.password":              "DOCPROC_DB_PASSWORD",
		"db.name":                  "DOCPROC_DB_NAME",
		"db.sslmode":               "DOCPROC_DB_SSLMODE",
		"db.max_open":              "DOCPROC_DB_MAX_OPEN",
		"db.max_idle":              "DOCPROC_DB_MAX_IDLE",
		"storage.provider":         "DOCPROC_STORAGE_PROVIDER",
		"storage.region":           "DOCPROC_STORAGE_REGION",
		"storage.bucket":           "DOCPROC_STORAGE_BUCKET",
		"storage.endpoint":         "DOCPROC_STORAGE_ENDPOINT",
		"storage.access_key":       "DOCPROC_STORAGE_ACCESS_KEY",
		"storage.secret_key":       "DOCPROC_STORAGE_SECRET_KEY",
		"storage.max_file_size_mb": "DOCPROC_STORAGE_MAX_FILE_SIZE_MB",
		"storage.presign_expiry":   "DOCPROC_STORAGE_PRESIGN_EXPIRY",
		"log.level":                "DOCPROC_LOG_LEVEL",
		"log.format":               "DOCPROC_LOG_FORMAT",
		"cors.allowed_origins":     "DOCPROC_CORS_ALLOWED_ORIGINS",
		"extraction.url":           "DOCPROC_EXTRACTION_URL",
		"extraction.api_key":       "DOCPROC_EXTRACTION_API_KEY",
		"extraction.timeout_secs":  "DOCPROC_EXTRACTION_TIMEOUT_SECS",
		"extraction.staging_dir":   "DOCPROC_EXTRACTION_STAGING_DIR",
		"matching.url":             "DOCPROC_MATCHING_URL",
		"matching.api_key":         "DOCPROC_MATCHING_API_KEY",
		"matching.timeout_secs":    "DOCPROC_MATCHING_TIMEOUT_SECS",
		"ingest.resave_policy":     "DOCPROC_INGEST_RESAVE_POLICY",
		"ingest.storage_timeout":   "DOCPROC_INGEST_STORAGE_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Platforms like Railway and Render set PORT. Use it unless DOCPROC_SERVER_PORT is set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCPROC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Storage = StorageConfig{
		Provider:      v.GetString("storage.provider"),
		Region:        v.GetString("storage.region"),
		Bucket:        v.GetString("storage.bucket"),
		Endpoint:      v.GetString("storage.endpoint"),
		AccessKey:     v.GetString("storage.access_key"),
		SecretKey:     v.GetString("storage.secret_key"),
		MaxFileSizeMB: v.GetInt64("storage.max_file_size_mb"),
		PresignExpiry: v.GetInt64("storage.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Extraction = RemoteConfig{
		URL:         v.GetString("extraction.url"),
		APIKey:      v.GetString("extraction.api_key"),
		TimeoutSecs: v.GetInt("extraction.timeout_secs"),
		StagingDir:  v.GetString("extraction.staging_dir"),
	}
	cfg.Matching = RemoteConfig{
		URL:         v.GetString("matching.url"),
		APIKey:      v.GetString("matching.api_key"),
		TimeoutSecs: v.GetInt("matching.timeout_secs"),
	}

	cfg.Ingest = IngestConfig{
		ResavePolicy:   strings.ToLower(v.GetString("ingest.resave_policy")),
		StorageTimeout: v.GetDuration("ingest.storage_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Ingest.ResavePolicy {
	case "replace", "reject":
	default:
		return fmt.Errorf("invalid ingest.resave_policy %q: must be replace or reject", c.Ingest.ResavePolicy)
	}
	switch c.Storage.Provider {
	case "none", "s3":
	default:
		return fmt.Errorf("invalid storage.provider %q: must be none or s3", c.Storage.Provider)
	}
	if c.Extraction.URL == "" {
		return fmt.Errorf("extraction.url is required")
	}
	if c.Matching.URL == "" {
		return fmt.Errorf("matching.url is required")
	}
	return nil
}
