package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is loaded once in main and passed
// to the components that need it.
type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string

	SessionSecret string
	SessionTTL    time.Duration
	JWTSecret     string
	BearerTTL     time.Duration
	CookieSecure  bool

	AllowedOrigins []string

	LoginPath     string
	AdminZoneRoot string
	GatePatterns  []string

	StatsMaxAttempts  int
	StatsRetryBackoff time.Duration

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string

	Storage StorageConfig
	Upload  UploadConfig
}

type StorageConfig struct {
	Provider string // r2, gcs or none

	R2Bucket          string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Endpoint        string
	R2PublicDomain    string

	GCSBucket          string
	GCSCredentialsFile string
}

type UploadConfig struct {
	MaxSizeMB         int
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

// Retry defaults for the stats engine's version-guarded writes.
const (
	DefaultStatsMaxAttempts  = 10
	DefaultStatsRetryBackoff = 5 * time.Millisecond
)

// Load reads a .env file (if present) and the environment, then validates.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}

	cfg := Config{
		Port:         fallback(os.Getenv("PORT"), "8080"),
		MongoURI:     strings.TrimSpace(os.Getenv("MONGODB_URI")),
		DatabaseName: fallback(os.Getenv("DATABASE_NAME"), "drivequiz"),

		SessionSecret: strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTL:    time.Duration(envIntOr("SESSION_TTL_HOURS", 8)) * time.Hour,
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		BearerTTL:     time.Duration(envIntOr("BEARER_TTL_DAYS", 30)) * 24 * time.Hour,
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",

		AllowedOrigins: parseCSV(os.Getenv("ALLOWED_ORIGINS")),

		LoginPath:     fallback(os.Getenv("LOGIN_PATH"), "/login"),
		AdminZoneRoot: fallback(os.Getenv("ADMIN_ZONE_ROOT"), "/admin"),
		GatePatterns:  parseCSV(os.Getenv("GATE_PATTERNS")),

		StatsMaxAttempts:  envIntOr("STATS_MAX_ATTEMPTS", DefaultStatsMaxAttempts),
		StatsRetryBackoff: time.Duration(envIntOr("STATS_RETRY_BACKOFF_MS", int(DefaultStatsRetryBackoff/time.Millisecond))) * time.Millisecond,

		LogLevel:  fallback(os.Getenv("LOG_LEVEL"), "INFO"),
		LogFormat: fallback(os.Getenv("LOG_FORMAT"), "text"),

		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Storage: StorageConfig{
			Provider:           strings.ToLower(fallback(os.Getenv("STORAGE_PROVIDER"), "none")),
			R2Bucket:           os.Getenv("R2_BUCKET"),
			R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
			R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
			R2Endpoint:         os.Getenv("R2_ENDPOINT"),
			R2PublicDomain:     strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),
			GCSBucket:          os.Getenv("GCS_BUCKET"),
			GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},
		Upload: UploadConfig{
			MaxSizeMB:         envIntOr("MAX_UPLOAD_SIZE_MB", 5),
			AllowedExtensions: parseCSV(fallback(os.Getenv("ALLOWED_FILE_EXTENSIONS"), ".jpg,.jpeg,.png,.webp")),
			AllowedMimeTypes:  parseCSV(fallback(os.Getenv("ALLOWED_FILE_MIME_TYPES"), "image/jpeg,image/png,image/webp")),
		},
	}
	if len(cfg.GatePatterns) == 0 {
		cfg.GatePatterns = []string{"/", cfg.LoginPath, cfg.AdminZoneRoot + "/:path*"}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SessionSecret != "" && c.SessionSecret == c.JWTSecret {
		errs = append(errs, errors.New("SESSION_SECRET and JWT_SECRET must differ"))
	}
	if c.SessionTTL <= 0 || c.BearerTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if !strings.HasPrefix(c.LoginPath, "/") || !strings.HasPrefix(c.AdminZoneRoot, "/") {
		errs = append(errs, errors.New("LOGIN_PATH and ADMIN_ZONE_ROOT must start with /"))
	}
	if c.LoginPath == c.AdminZoneRoot || strings.HasPrefix(c.LoginPath, strings.TrimRight(c.AdminZoneRoot, "/")+"/") {
		errs = append(errs, errors.New("LOGIN_PATH must be outside ADMIN_ZONE_ROOT"))
	}
	if c.StatsMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("STATS_MAX_ATTEMPTS must be >= 1, got %d", c.StatsMaxAttempts))
	}
	switch c.Storage.Provider {
	case "none":
	case "r2":
		if c.Storage.R2Bucket == "" || c.Storage.R2AccessKeyID == "" || c.Storage.R2SecretAccessKey == "" || c.Storage.R2Endpoint == "" {
			errs = append(errs, errors.New("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)"))
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required when STORAGE_PROVIDER=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}
	return errors.Join(errs...)
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func envIntOr(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
