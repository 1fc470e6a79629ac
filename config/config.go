package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort string `json:"app_port" yaml:"app_port"`
	// Gin framework configuration
	GinMode string `json:"gin_mode" yaml:"gin_mode"`
	GinPath string `json:"gin_path" yaml:"gin_path"`
	// Database: driver is one of mysql, postgres, sqlite
	DBDriver    string `json:"db_driver" yaml:"db_driver"`
	DatabaseURI string `json:"database_uri" yaml:"database_uri"`
	DBHost      string `json:"db_host" yaml:"db_host"`
	DBPort      string `json:"db_port" yaml:"db_port"`
	DBUser      string `json:"db_user" yaml:"db_user"`
	DBPassword  string `json:"db_password" yaml:"db_password"`
	DBName      string `json:"db_name" yaml:"db_name"`
	// Tokens
	JWTSecret          string        `json:"jwt_secret" yaml:"jwt_secret"`
	JWTPreviousSecrets []string      `json:"jwt_previous_secrets" yaml:"jwt_previous_secrets"`
	JWTIssuer          string        `json:"jwt_issuer" yaml:"jwt_issuer"`
	AccessTokenTTL     time.Duration `json:"-" yaml:"-"`
	RefreshTokenTTL    time.Duration `json:"-" yaml:"-"`
	AccessTokenTTLRaw  string        `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTLRaw string        `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	// HTTP
	RateLimitPerMinute int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string `json:"allowed_origins" yaml:"allowed_origins"`
	PageSize           int      `json:"page_size" yaml:"page_size"`
	MaxPageSize        int      `json:"max_page_size" yaml:"max_page_size"`
	// Redis for caching; caching is off unless enabled
	CacheEnabled    bool   `json:"cache_enabled" yaml:"cache_enabled"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	RedisHost       string `json:"redis_host" yaml:"redis_host"`
	RedisPort       int    `json:"redis_port" yaml:"redis_port"`
	RedisDB         int    `json:"redis_db" yaml:"redis_db"`
	RedisPassword   string `json:"redis_password" yaml:"redis_password"`
	// Logging configuration
	LogLevel      string `json:"log_level" yaml:"log_level"`
	LogPath       string `json:"log_path" yaml:"log_path"`
	LogMaxSizeMB  int    `json:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups" yaml:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days" yaml:"log_max_age_days"`
	LogCompress   bool   `json:"log_compress" yaml:"log_compress"`
}

// TokenConfig is the explicit configuration injected into the token manager.
type TokenConfig struct {
	Secret          string
	PreviousSecrets []string
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
}

// DefaultConfigPath is used when no path is given on the command line.
var DefaultConfigPath = filepath.Join("config", "config.json")

// Load reads the configuration. Precedence: config file -> defaults -> environment variable overrides.
// A missing file is not an error; an unreadable or malformed one is.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}

	if err := resolveDurations(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, fmt.Errorf("JWT_SECRET must be set in config file or environment")
	}

	return cfg, nil
}

// TokenConfig derives the token manager settings.
func (c AppConfig) TokenConfig() TokenConfig {
	return TokenConfig{
		Secret:          c.JWTSecret,
		PreviousSecrets: c.JWTPreviousSecrets,
		Issuer:          c.JWTIssuer,
		AccessTTL:       c.AccessTokenTTL,
		RefreshTTL:      c.RefreshTokenTTL,
	}
}

// CacheTTL returns the configured cache lifetime.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// defaultDBPort is resolved after env overrides since DB_DRIVER may change the driver.
func defaultDBPort(driver string) string {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return "5432"
	case "sqlite", "sqlite3":
		return ""
	default:
		return "3306"
	}
}

func loadFile(path string, out *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "multiplex"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "multiplex"
	}
	if c.AccessTokenTTLRaw == "" {
		c.AccessTokenTTLRaw = "5m"
	}
	if c.RefreshTokenTTLRaw == "" {
		c.RefreshTokenTTLRaw = "24h"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.PageSize == 0 {
		c.PageSize = 10
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = 100
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var err error
	setInt := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v := getEnv(key, ""); v != "" {
			var n int
			n, err = strconv.Atoi(v)
			if err != nil {
				err = fmt.Errorf("invalid integer value for %s: %w", key, err)
				return
			}
			*dst = n
		}
	}
	setString := func(key string, dst *string) {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_PATH", &c.GinPath)
	setString("DB_DRIVER", &c.DBDriver)
	setString("DATABASE_URI", &c.DatabaseURI)
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("JWT_ISSUER", &c.JWTIssuer)
	setString("JWT_ACCESS_TTL", &c.AccessTokenTTLRaw)
	setString("JWT_REFRESH_TTL", &c.RefreshTokenTTLRaw)
	c.JWTPreviousSecrets = readListEnv("JWT_PREVIOUS_SECRETS", c.JWTPreviousSecrets)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	setInt("PAGE_SIZE", &c.PageSize)
	setInt("MAX_PAGE_SIZE", &c.MaxPageSize)
	setBool("CACHE_ENABLED", &c.CacheEnabled)
	setInt("CACHE_TTL_SECONDS", &c.CacheTTLSeconds)
	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)
	return err
}

func resolveDurations(c *AppConfig) error {
	access, err := time.ParseDuration(c.AccessTokenTTLRaw)
	if err != nil || access <= 0 {
		return fmt.Errorf("invalid access token ttl %q", c.AccessTokenTTLRaw)
	}
	refresh, err := time.ParseDuration(c.RefreshTokenTTLRaw)
	if err != nil || refresh <= 0 {
		return fmt.Errorf("invalid refresh token ttl %q", c.RefreshTokenTTLRaw)
	}
	c.AccessTokenTTL = access
	c.RefreshTokenTTL = refresh
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
