package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	HomeAssistant HomeAssistantConfig `mapstructure:"home_assistant"`
	Circle        CircleConfig        `mapstructure:"circle"`
	Devices       DevicesConfig       `mapstructure:"devices"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	WebSocket     WebSocketConfig     `mapstructure:"websocket"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry int    `mapstructure:"token_expiry"`
}

// HomeAssistantConfig points at the building's hub. URL and Token are each
// independently optional; when either is missing, device control is disabled
// rather than failing startup.
type HomeAssistantConfig struct {
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	Discovery bool   `mapstructure:"discovery"`
}

// CircleConfig carries the payments-provider credentials for the development
// proxy. EntitySecretHex is the 32-byte secret in hex form; EntitySecret is
// the legacy single-ciphertext mode where the operator supplies a
// pre-registered ciphertext directly.
type CircleConfig struct {
	APIKey          string `mapstructure:"api_key"`
	EntitySecretHex string `mapstructure:"entity_secret_hex"`
	EntitySecret    string `mapstructure:"entity_secret"`
	BaseURL         string `mapstructure:"base_url"`
	ProxyPrefix     string `mapstructure:"proxy_prefix"`
	Timeout         string `mapstructure:"timeout"`
}

// DevicesConfig tunes the reconciliation controllers.
type DevicesConfig struct {
	Entities        []EntityConfig `mapstructure:"entities"`
	PollInterval    string         `mapstructure:"poll_interval"`
	RefreshThrottle string         `mapstructure:"refresh_throttle"`
	AutoRefresh     bool           `mapstructure:"auto_refresh"`
}

// EntityConfig is one tracked hub entity, identified by the hub's
// domain.object_id convention.
type EntityConfig struct {
	EntityID string `mapstructure:"entity_id"`
	Name     string `mapstructure:"name"`
	Kind     string `mapstructure:"kind"`
}

type StorageConfig struct {
	BasePath    string `mapstructure:"base_path"`
	UploadsPath string `mapstructure:"uploads_path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// Hub bindings
	viper.BindEnv("home_assistant.url", "HOME_ASSISTANT_URL", "HA_URL")
	viper.BindEnv("home_assistant.token", "HOME_ASSISTANT_TOKEN", "HA_TOKEN")

	// Payments provider bindings. The VITE_-prefixed names are accepted for
	// parity with the frontend dev environment files.
	viper.BindEnv("circle.api_key", "CIRCLE_API_KEY", "VITE_CIRCLE_API_KEY")
	viper.BindEnv("circle.entity_secret_hex", "CIRCLE_ENTITY_SECRET_HEX", "VITE_CIRCLE_ENTITY_SECRET_HEX")
	viper.BindEnv("circle.entity_secret", "CIRCLE_ENTITY_SECRET")

	// Ignore a missing config file; env vars and defaults are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.path", "./data/casacolor.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 25)

	// Auth defaults
	viper.SetDefault("auth.enabled", true)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_expiry", 86400)

	// Hub defaults
	viper.SetDefault("home_assistant.url", "")
	viper.SetDefault("home_assistant.token", "")
	viper.SetDefault("home_assistant.discovery", true)

	// Payments provider defaults
	viper.SetDefault("circle.api_key", "")
	viper.SetDefault("circle.entity_secret_hex", "")
	viper.SetDefault("circle.entity_secret", "")
	viper.SetDefault("circle.base_url", "https://api.circle.com")
	viper.SetDefault("circle.proxy_prefix", "/v1/w3s")
	viper.SetDefault("circle.timeout", "30s")

	// Device defaults
	viper.SetDefault("devices.poll_interval", "10s")
	viper.SetDefault("devices.refresh_throttle", "300ms")
	viper.SetDefault("devices.auto_refresh", true)

	// Storage defaults
	viper.SetDefault("storage.base_path", "./data")
	viper.SetDefault("storage.uploads_path", "./data/uploads")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// WebSocket defaults
	viper.SetDefault("websocket.ping_interval", 30)
	viper.SetDefault("websocket.pong_timeout", 60)
	viper.SetDefault("websocket.write_timeout", 10)
}
