package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// KV backends.
const (
	KVBackendSQLite = "sqlite"
	KVBackendRedis  = "redis"
)

// Board persistence backends.
const (
	BoardBackendHTTP = "http"
	BoardBackendFile = "file"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	KV    KVConfig          `yaml:"kv"`
	Auth  AuthConfig        `yaml:"auth"`
	Board BoardConfig       `yaml:"board"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.KV.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Board.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// LogFile receives the board's logs; the terminal owns stdout.
	LogFile string `yaml:"log_file"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFile, validation.Required),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// KVConfig selects and configures the key-value store behind the service.
type KVConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
	Cache   CacheConfig  `yaml:"cache"`
}

// Validate validates the KV configuration.
func (c *KVConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(KVBackendSQLite, KVBackendRedis)),
	); err != nil {
		return fmt.Errorf("kv: %w", err)
	}
	switch c.Backend {
	case KVBackendSQLite:
		return c.SQLite.Validate()
	case KVBackendRedis:
		return c.Redis.Validate()
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
	)
}

// CacheConfig controls the in-process read cache in front of the KV store.
// A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// The token guards the transport only; the auth key in each request
// namespaces data and is not a credential.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// BoardConfig configures the board and MCP hosts: where the note collection
// lives and how the terminal maps cells to canvas pixels.
type BoardConfig struct {
	Backend  string        `yaml:"backend"`
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	FilePath string        `yaml:"file_path"`
	AuthKey  string        `yaml:"auth_key"`
	DataKey  string        `yaml:"data_key"`
	Timeout  time.Duration `yaml:"timeout"`

	CellWidth  int `yaml:"cell_width"`
	CellHeight int `yaml:"cell_height"`
}

// Validate validates the board configuration.
func (c *BoardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BoardBackendHTTP, BoardBackendFile)),
		validation.Field(&c.Endpoint, validation.When(c.Backend == BoardBackendHTTP, validation.Required)),
		validation.Field(&c.FilePath, validation.When(c.Backend == BoardBackendFile, validation.Required)),
		validation.Field(&c.AuthKey, validation.When(c.Backend == BoardBackendHTTP, validation.Required)),
		validation.Field(&c.DataKey, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.CellWidth, validation.Required, validation.Min(1)),
		validation.Field(&c.CellHeight, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			LogFile: "./stickies.log",
		},
		KV: KVConfig{
			Backend: KVBackendSQLite,
			SQLite: SQLiteConfig{
				Path: "./stickies.db",
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Board: BoardConfig{
			Backend:    BoardBackendHTTP,
			Endpoint:   "http://localhost:8080",
			FilePath:   "./notes",
			AuthKey:    "sticky-api-startpoint",
			DataKey:    "sticky-notes",
			Timeout:    10 * time.Second,
			CellWidth:  10,
			CellHeight: 20,
		},
	}
}
