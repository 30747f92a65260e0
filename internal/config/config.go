// Package config reads the service settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreCSV      = "csv"
	StorePostgres = "postgres"
)

// Upload backends.
const (
	UploadDisk = "disk"
	UploadS3   = "s3"
)

// Config holds all application configuration.
type Config struct {
	Addr string

	AdminUser     string
	AdminPass     string
	SessionSecret []byte
	SessionTTL    time.Duration

	Store       string
	DataFile    string
	DatabaseURL string

	UploadDir      string
	UploadBackend  string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	Bucket         string
	MaxUploadBytes int64
	DeleteUploads  bool

	LogLevel  string
	LogFormat string
	Env       string
}

// Load reads files (default ".env") into the environment without overriding
// variables that are already set, then parses the environment. A missing
// default .env is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, err
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv and validates it. All problems are
// reported in one error.
func Parse(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	v := NewValidator()

	cfg := &Config{
		Addr:          get("PR_ADDR", ":8080"),
		AdminUser:     get("PR_ADMIN_USER", "admin"),
		AdminPass:     getenv("PR_ADMIN_PASS"),
		Store:         strings.ToLower(get("PR_STORE", StoreCSV)),
		DataFile:      get("PR_DATA_FILE", "records.csv"),
		DatabaseURL:   get("DATABASE_URL", ""),
		UploadDir:     get("PR_UPLOAD_DIR", "uploads"),
		UploadBackend: strings.ToLower(get("PR_UPLOAD_BACKEND", UploadDisk)),
		S3Endpoint:    get("PR_S3_ENDPOINT", ""),
		S3AccessKey:   get("PR_S3_ACCESS_KEY", ""),
		S3SecretKey:   get("PR_S3_SECRET_KEY", ""),
		Bucket:        get("PR_BUCKET", ""),
		LogLevel:      strings.ToLower(get("PR_LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(get("PR_LOG_FORMAT", "text")),
		Env:           strings.ToLower(get("PR_ENV", "")),
	}

	secret := getenv("PR_SESSION_SECRET")
	cfg.SessionSecret = []byte(secret)
	cfg.SessionTTL = v.Duration("PR_SESSION_TTL", get("PR_SESSION_TTL", ""), 12*time.Hour)
	cfg.MaxUploadBytes = v.NonNegativeInt("PR_MAX_UPLOAD_BYTES", get("PR_MAX_UPLOAD_BYTES", ""), 0)
	cfg.DeleteUploads = v.Bool("PR_DELETE_UPLOADS", get("PR_DELETE_UPLOADS", ""))

	v.Addr("PR_ADDR", cfg.Addr)
	v.Required("PR_ADMIN_USER", cfg.AdminUser)
	v.Required("PR_ADMIN_PASS", cfg.AdminPass)
	v.BcryptHash("PR_ADMIN_PASS", cfg.AdminPass)
	v.Required("PR_SESSION_SECRET", secret)
	v.MinLength("PR_SESSION_SECRET", secret, 16)

	v.Enum("PR_STORE", cfg.Store, []string{StoreCSV, StorePostgres})
	switch cfg.Store {
	case StoreCSV:
		v.Required("PR_DATA_FILE", cfg.DataFile)
	case StorePostgres:
		v.Required("DATABASE_URL", cfg.DatabaseURL)
		if cfg.DatabaseURL != "" &&
			!strings.HasPrefix(cfg.DatabaseURL, "postgres://") &&
			!strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
			v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
		}
	}

	v.Enum("PR_UPLOAD_BACKEND", cfg.UploadBackend, []string{UploadDisk, UploadS3})
	v.Required("PR_UPLOAD_DIR", cfg.UploadDir)
	if cfg.UploadBackend == UploadS3 {
		v.Required("PR_S3_ENDPOINT", cfg.S3Endpoint)
		v.Required("PR_S3_ACCESS_KEY", cfg.S3AccessKey)
		v.Required("PR_S3_SECRET_KEY", cfg.S3SecretKey)
		v.Required("PR_BUCKET", cfg.Bucket)
		// Either host:port or a URL.
		if strings.Contains(cfg.S3Endpoint, "://") {
			v.URL("PR_S3_ENDPOINT", cfg.S3Endpoint)
		}
	}

	v.Enum("PR_LOG_FORMAT", cfg.LogFormat, []string{"json", "text"})
	v.Enum("PR_LOG_LEVEL", cfg.LogLevel, []string{"debug", "info", "warn", "error"})
	v.Enum("PR_ENV", cfg.Env, []string{"", "development", "production", "staging"})

	if err := v.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JSONLogs reports whether logs should be written as JSON.
func (c *Config) JSONLogs() bool {
	return c.LogFormat == "json" || c.Env == "production"
}
