package app

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"courseboard/content"
)

// Config is the process configuration. Values come from defaults, then the
// optional YAML file, then COURSEBOARD_* environment variables; command-line
// flags are applied last by main.
type Config struct {
	Addr      string          `yaml:"addr"`
	Origin    string          `yaml:"origin"`
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthSettings    `yaml:"auth"`
	Math      MathConfig      `yaml:"math"`
	Highlight HighlightConfig `yaml:"highlight"`
	Cache     CacheConfig     `yaml:"cache"`
	Media     MediaConfig     `yaml:"media"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthSettings configures viewer tokens and the seeded instructor account.
type AuthSettings struct {
	TokenSecret  string        `yaml:"token_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SeedUser     string        `yaml:"seed_user"`
	SeedPassword string        `yaml:"seed_password"`
}

type MathConfig struct {
	MaxSize int `yaml:"max_size"`
}

type HighlightConfig struct {
	LightTheme string `yaml:"light_theme"`
	DarkTheme  string `yaml:"dark_theme"`
}

// CacheConfig sizes the render cache. TTL bounds how stale a cached
// render may be relative to the database; zero disables expiry.
type CacheConfig struct {
	Size     int           `yaml:"size"`
	TTL      time.Duration `yaml:"ttl"`
	Previews int           `yaml:"previews"`
}

type MediaConfig struct {
	ProxyPath string `yaml:"proxy_path"`
	FilesPath string `yaml:"files_path"`
}

// maxConfigSize bounds the YAML file read at startup.
const maxConfigSize = 1 << 20

const (
	defaultAddr         = ":8080"
	defaultPreviewLimit = 256
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Addr:     defaultAddr,
		Origin:   content.DefaultOrigin,
		LogLevel: "info",
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "courseboard.db"},
		Auth:     AuthSettings{TokenTTL: 24 * time.Hour},
		Math:     MathConfig{MaxSize: content.DefaultMathMaxSize},
		Highlight: HighlightConfig{
			LightTheme: content.DefaultLightTheme,
			DarkTheme:  content.DefaultDarkTheme,
		},
		Cache: CacheConfig{
			Size:     content.DefaultCacheSize,
			TTL:      content.DefaultCacheTTL,
			Previews: defaultPreviewLimit,
		},
		Media: MediaConfig{
			ProxyPath: content.DefaultMediaProxyPath,
			FilesPath: content.DefaultFilesPath,
		},
	}
}

// LoadConfig reads path (if not empty) over the defaults and applies
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if len(data) > maxConfigSize {
			return cfg, fmt.Errorf("config %s exceeds %d bytes", path, maxConfigSize)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) {
	if addr := envAddr(); addr != "" {
		cfg.Addr = addr
	}
	if origin := getenvTrim("COURSEBOARD_ORIGIN"); origin != "" {
		cfg.Origin = origin
	}
	if level := getenvTrim("COURSEBOARD_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if driver := getenvTrim("COURSEBOARD_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := firstEnv("COURSEBOARD_DB_DSN", "DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := getenvTrim("COURSEBOARD_TOKEN_SECRET"); secret != "" {
		cfg.Auth.TokenSecret = secret
	}
	if user := getenvTrim("COURSEBOARD_SEED_USER"); user != "" {
		cfg.Auth.SeedUser = user
	}
	if pass := getenvTrim("COURSEBOARD_SEED_PASS"); pass != "" {
		cfg.Auth.SeedPassword = pass
	}
	cfg.Cache.Size = envInt("COURSEBOARD_CACHE_SIZE", cfg.Cache.Size)
	cfg.Math.MaxSize = envInt("COURSEBOARD_MATH_MAX_SIZE", cfg.Math.MaxSize)
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Cache.Size < 0 || c.Cache.Previews < 0 {
		return fmt.Errorf("cache sizes must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return nil
}

// AuthConfig holds the resolved token signing settings.
type AuthConfig struct {
	Username  string
	Password  string
	JWTSecret []byte
	TokenTTL  time.Duration
}

func openDatabase(cfg DatabaseConfig) (*sql.DB, error) {
	return sql.Open(cfg.Driver, cfg.DSN)
}

// ------------------- Auth Config -------------------

func loadAuthConfig(settings AuthSettings) AuthConfig {
	username := strings.TrimSpace(settings.SeedUser)
	password := strings.TrimSpace(settings.SeedPassword)
	secret := strings.TrimSpace(settings.TokenSecret)

	if username == "" {
		username = "admin"
		log.Warn("COURSEBOARD_SEED_USER not set; defaulting to 'admin'")
	}
	if password == "" {
		password = "admin"
		log.Warn("COURSEBOARD_SEED_PASS not set; defaulting to 'admin'")
	}

	config := AuthConfig{
		Username:  username,
		Password:  password,
		JWTSecret: []byte(secret),
		TokenTTL:  settings.TokenTTL,
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	if secret == "" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			log.Fatalf("Failed to generate token secret: %v", err)
		}
		log.Warn("COURSEBOARD_TOKEN_SECRET not set; using a random secret for this process")
		config.JWTSecret = secretBytes
	}
	return config
}
