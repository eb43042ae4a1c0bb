package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Auth       AuthConfig
	Attendance AttendanceConfig
	Scope      ScopeConfig
	Dashboard  DashboardConfig
	Reports    ReportsConfig
	Profile    ProfileConfig
	SeedAdmin  SeedAdminConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig controls self-service registration and login throttling.
type AuthConfig struct {
	AllowRegistration  bool
	SingleSession      bool
	LoginRatePerMinute int
	LoginRateBurst     int

	// SessionSweepInterval is how often stale refresh tokens are purged.
	SessionSweepInterval time.Duration
}

// AttendanceConfig holds the check-in classification rules.
type AttendanceConfig struct {
	// LateCutoff is the offset from local midnight after which a check-in is LATE.
	LateCutoff      time.Duration
	LateCutoffRaw   string
	Location        *time.Location
	HistoryLimit    int
	MaxHistoryLimit int
}

// ScopeConfig toggles the legacy supervisor name match.
type ScopeConfig struct {
	LegacyNameMatch bool
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ProfileConfig configures profile photo storage.
type ProfileConfig struct {
	PhotoDir      string
	PhotoMaxBytes int64
}

// SeedAdminConfig is consumed by cmd/seed-admin.
type SeedAdminConfig struct {
	Identifier string
	Password   string
	FullName   string
}

// Development secrets that must never reach a production deployment.
const (
	devJWTSecret     = "dev_secret"
	devReportsSecret = "dev_reports_secret"
)

var defaults = map[string]interface{}{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api/v1",

	"DATABASE_URL":      "",
	"DB_HOST":           "localhost",
	"DB_PORT":           5432,
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "postgres",
	"DB_NAME":           "internship_tracker",
	"DB_SSL_MODE":       "disable",
	"DB_MAX_OPEN_CONNS": 10,
	"DB_MAX_IDLE_CONNS": 5,

	"REDIS_ENABLED":  false,
	"REDIS_URL":      "",
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"JWT_SECRET":               devJWTSecret,
	"JWT_ISSUER":               "internship-tracker-api",
	"JWT_EXPIRATION":           "4h",
	"REFRESH_TOKEN_EXPIRATION": "168h",

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"AUTH_ALLOW_REGISTRATION":     true,
	"AUTH_SINGLE_SESSION":         false,
	"AUTH_SESSION_SWEEP_INTERVAL": "6h",
	"LOGIN_RATE_LIMIT_PER_MINUTE": 10,
	"LOGIN_RATE_LIMIT_BURST":      10,

	"ATTENDANCE_LATE_CUTOFF":       "08:00",
	"ATTENDANCE_TIMEZONE":          "UTC",
	"ATTENDANCE_HISTORY_LIMIT":     5,
	"ATTENDANCE_HISTORY_MAX_LIMIT": 100,

	"SCOPE_LEGACY_NAME_MATCH": true,

	"ENABLE_DASHBOARD_CACHE": false,
	"DASHBOARD_CACHE_TTL":    "1m",

	"ENABLE_REPORTS":             false,
	"REPORTS_STORAGE_DIR":        "./exports",
	"REPORTS_SIGNED_URL_SECRET":  devReportsSecret,
	"REPORTS_SIGNED_URL_TTL":     "24h",
	"REPORTS_CLEANUP_INTERVAL":   "1h",
	"REPORTS_WORKER_CONCURRENCY": 1,
	"REPORTS_WORKER_RETRIES":     3,

	"PROFILE_PHOTO_DIR":       "./uploads",
	"PROFILE_PHOTO_MAX_BYTES": defaultPhotoMaxBytes,

	"ADMIN_IDENTIFIER": "admin",
	"ADMIN_PASSWORD":   "",
	"ADMIN_NAME":       "Administrator",
}

const defaultPhotoMaxBytes = 2 << 20

// Load reads configuration from the environment, falling back to an optional
// .env file and then to built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	attendance, err := attendanceFrom(v)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Env:        v.GetString("ENV"),
		Port:       v.GetInt("PORT"),
		APIPrefix:  v.GetString("API_PREFIX"),
		Database:   databaseFrom(v),
		Redis:      redisFrom(v),
		JWT:        jwtFrom(v),
		CORS:       CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))},
		Log:        LogConfig{Level: v.GetString("LOG_LEVEL"), Format: v.GetString("LOG_FORMAT")},
		Attendance: attendance,
		Scope:      ScopeConfig{LegacyNameMatch: v.GetBool("SCOPE_LEGACY_NAME_MATCH")},
		Auth: AuthConfig{
			AllowRegistration:    v.GetBool("AUTH_ALLOW_REGISTRATION"),
			SingleSession:        v.GetBool("AUTH_SINGLE_SESSION"),
			LoginRatePerMinute:   v.GetInt("LOGIN_RATE_LIMIT_PER_MINUTE"),
			LoginRateBurst:       v.GetInt("LOGIN_RATE_LIMIT_BURST"),
			SessionSweepInterval: parseDuration(v.GetString("AUTH_SESSION_SWEEP_INTERVAL"), 6*time.Hour),
		},
		Dashboard: DashboardConfig{
			CacheEnabled: v.GetBool("ENABLE_DASHBOARD_CACHE"),
			CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
		},
		Reports: reportsFrom(v),
		Profile: ProfileConfig{
			PhotoDir:      v.GetString("PROFILE_PHOTO_DIR"),
			PhotoMaxBytes: positive64(v.GetInt64("PROFILE_PHOTO_MAX_BYTES"), defaultPhotoMaxBytes),
		},
		SeedAdmin: SeedAdminConfig{
			Identifier: v.GetString("ADMIN_IDENTIFIER"),
			Password:   v.GetString("ADMIN_PASSWORD"),
			FullName:   v.GetString("ADMIN_NAME"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with. Production
// deployments must replace the development secrets.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if c.Attendance.HistoryLimit <= 0 || c.Attendance.HistoryLimit > c.Attendance.MaxHistoryLimit {
		problems = append(problems, "ATTENDANCE_HISTORY_LIMIT must be between 1 and ATTENDANCE_HISTORY_MAX_LIMIT")
	}
	if c.Reports.Enabled && c.Reports.WorkerConcurrency <= 0 {
		problems = append(problems, "REPORTS_WORKER_CONCURRENCY must be positive")
	}
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" || c.JWT.Secret == devJWTSecret {
			problems = append(problems, "JWT_SECRET must be set in production")
		}
		if c.Reports.Enabled && (c.Reports.SignedURLSecret == "" || c.Reports.SignedURLSecret == devReportsSecret) {
			problems = append(problems, "REPORTS_SIGNED_URL_SECRET must be set in production")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func databaseFrom(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func redisFrom(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func jwtFrom(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 4*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}
}

func attendanceFrom(v *viper.Viper) (AttendanceConfig, error) {
	raw := v.GetString("ATTENDANCE_LATE_CUTOFF")
	cutoff, err := ParseClock(raw)
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("ATTENDANCE_LATE_CUTOFF: %w", err)
	}
	loc, err := time.LoadLocation(v.GetString("ATTENDANCE_TIMEZONE"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("ATTENDANCE_TIMEZONE: %w", err)
	}
	return AttendanceConfig{
		LateCutoff:      cutoff,
		LateCutoffRaw:   raw,
		Location:        loc,
		HistoryLimit:    v.GetInt("ATTENDANCE_HISTORY_LIMIT"),
		MaxHistoryLimit: v.GetInt("ATTENDANCE_HISTORY_MAX_LIMIT"),
	}, nil
}

func reportsFrom(v *viper.Viper) ReportsConfig {
	return ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}
}

// ParseClock converts an "HH:MM" or "HH:MM:SS" wall-clock value into an offset from midnight.
func ParseClock(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q, expected HH:MM", raw)
	}
	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid clock %q, expected HH:MM", raw)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func positive64(n, fallback int64) int64 {
	if n <= 0 {
		return fallback
	}
	return n
}

// splitAndTrim splits a comma list, dropping blank entries.
func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
