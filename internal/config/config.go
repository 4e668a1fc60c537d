package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// StoreBackendPostgres keeps metadata in PostgreSQL and bytes in MinIO.
	StoreBackendPostgres = "postgres"
	// StoreBackendMemory keeps everything in process memory (development and tests).
	StoreBackendMemory = "memory"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnectAttempts    int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds credential issuing settings.
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// DocumentsConfig holds upload, signing and listing settings.
type DocumentsConfig struct {
	PageSize          int
	MaxPageSize       int
	MaxUploadBytes    int
	AllowedExtensions []string
	SigningKeyBits    int
}

// OCRConfig points at the OCR backend.
type OCRConfig struct {
	Enabled  bool
	Endpoint string
	Language string
	Timeout  time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost       string
	Port          string
	Env           string
	Timezone      string
	LogLevel      string
	PublicBaseURL string
	StoreBackend  string
	Database      DatabaseConfig
	MinIO         MinIOConfig
	Auth          AuthConfig
	Documents     DocumentsConfig
	OCR           OCRConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("APP_ENV", "development"),
		Timezone:      getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
			Issuer:        getEnv("AUTH_ISSUER", "docauth"),
			AccessTTL:     getEnvDuration("AUTH_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getEnvDuration("AUTH_REFRESH_TTL", 7*24*time.Hour),
			AdminUsername: getEnv("ADMIN_USERNAME", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		},
		Documents: DocumentsConfig{
			PageSize:          getEnvInt("DOCUMENTS_PAGE_SIZE", 10),
			MaxPageSize:       getEnvInt("DOCUMENTS_MAX_PAGE_SIZE", 100),
			MaxUploadBytes:    getEnvInt("UPLOAD_MAX_BYTES", 32<<20),
			AllowedExtensions: getEnvList("UPLOAD_ALLOWED_EXTENSIONS", []string{"pdf", "png", "jpg", "jpeg"}),
			SigningKeyBits:    getEnvInt("SIGNING_KEY_BITS", 2048),
		},
		OCR: OCRConfig{
			Enabled:  getEnvBool("OCR_ENABLED", true),
			Endpoint: getEnv("OCR_ENDPOINT", ""),
			Language: getEnv("OCR_LANGUAGE", "eng"),
			Timeout:  getEnvDuration("OCR_TIMEOUT", 10*time.Second),
		},
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
		}
	case StoreBackendMemory:
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be postgres or memory"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL and AUTH_REFRESH_TTL must be positive"))
	}
	if c.Auth.RefreshTTL < c.Auth.AccessTTL {
		errs = append(errs, errors.New("AUTH_REFRESH_TTL must not be shorter than AUTH_ACCESS_TTL"))
	}
	if c.Documents.PageSize <= 0 || c.Documents.MaxPageSize < c.Documents.PageSize {
		errs = append(errs, errors.New("DOCUMENTS_PAGE_SIZE must be positive and not exceed DOCUMENTS_MAX_PAGE_SIZE"))
	}
	if c.Documents.SigningKeyBits < 1024 {
		errs = append(errs, errors.New("SIGNING_KEY_BITS must be at least 1024"))
	}
	if c.OCR.Enabled && c.OCR.Endpoint == "" {
		errs = append(errs, errors.New("OCR_ENDPOINT is required when OCR_ENABLED is true"))
	}
	if c.OCR.Timeout <= 0 {
		errs = append(errs, errors.New("OCR_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Location resolves the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma-separated value, dropping blanks and lower-casing entries.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, strings.TrimPrefix(p, "."))
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
