package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between deployments (ports, store connection,
//   device identity, secrets)
// - default: Values common across all deployments (timeouts, backoff, paths)
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Device DeviceConfig
	Local  LocalStateConfig
	Sync   SyncConfig
	CORS   CORSConfig
	Log    LogConfig
	JWT    JWTConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

// StoreConfig points at the authoritative check-in store (PostgreSQL).
type StoreConfig struct {
	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     string `envconfig:"STORE_DB_PORT" default:"5432"`
	User     string `envconfig:"STORE_DB_USER" required:"true"`
	Password string `envconfig:"STORE_DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"STORE_DB_NAME" required:"true"`
	SSLMode  string `envconfig:"STORE_DB_SSL_MODE" default:"disable"`
}

// DeviceConfig identifies this scanning device and the event it serves.
type DeviceConfig struct {
	DeviceID string `envconfig:"DEVICE_ID" required:"true"`
	EventID  string `envconfig:"EVENT_ID" required:"true"`
}

// LocalStateConfig selects the durable backend for the ticket cache and the
// offline queue. "file" keeps JSON snapshots under Dir; "redis" keeps them in
// a local Redis instance.
type LocalStateConfig struct {
	Backend  string `envconfig:"LOCAL_STATE_BACKEND" default:"file"`
	Dir      string `envconfig:"LOCAL_STATE_DIR" default:"/var/lib/ticketgate"`
	RedisURL string `envconfig:"LOCAL_STATE_REDIS_URL" default:"redis://localhost:6379/0"`
}

type SyncConfig struct {
	CommitTimeout time.Duration `envconfig:"SYNC_COMMIT_TIMEOUT" default:"5s"`
	BackoffBase   time.Duration `envconfig:"SYNC_BACKOFF_BASE" default:"2s"`
	BackoffMax    time.Duration `envconfig:"SYNC_BACKOFF_MAX" default:"2m"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

func (c *StoreConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		Store: StoreConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Device: DeviceConfig{
			DeviceID: "8d7f5b21-0000-4000-8000-000000000001",
			EventID:  "8d7f5b21-0000-4000-8000-000000000002",
		},
		Local: LocalStateConfig{
			Backend: "file",
			Dir:     "",
		},
		Sync: SyncConfig{
			CommitTimeout: 200 * time.Millisecond,
			BackoffBase:   time.Millisecond,
			BackoffMax:    10 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "error", // Error level only for tests
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
	}
}
