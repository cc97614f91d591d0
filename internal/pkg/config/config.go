package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	OFDB      OFDBConfig      `mapstructure:"ofdb"`
	Engine    EngineConfig    `mapstructure:"engine"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type NominatimConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type OFDBConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Categories []string      `mapstructure:"categories"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type EngineConfig struct {
	QueueSize     int           `mapstructure:"queue_size"`
	SettleDelayMS int           `mapstructure:"settle_delay_ms"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	TitleMin      int           `mapstructure:"title_min"`
	TitleMax      int           `mapstructure:"title_max"`
}

// SettleDelay returns the viewport settle delay.
func (e EngineConfig) SettleDelay() time.Duration {
	return time.Duration(e.SettleDelayMS) * time.Millisecond
}

// NATSConfig: an empty URL disables publishing.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig: an empty Addr disables caching.
type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config file, an
// optional .env file and environment variables, in increasing precedence.
func Load(service string) (*Config, error) {
	// A local .env is a development convenience; missing is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: MAPGOOD_NOMINATIM_BASE_URL → nominatim.base_url
	v.SetEnvPrefix("MAPGOOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "mapgood/1.0 (+https://github.com/samirrijal/mapgood)")
	v.SetDefault("nominatim.timeout", 10*time.Second)
	v.SetDefault("ofdb.base_url", "https://api.ofdb.io/v0")
	v.SetDefault("ofdb.categories", []string{"2cd00bebec0c48ba9db761da48678134", "77b3c33a92554bcf8e8c2c86cedd6f6f"})
	v.SetDefault("ofdb.timeout", 10*time.Second)
	v.SetDefault("engine.queue_size", 256)
	v.SetDefault("engine.settle_delay_ms", 15)
	v.SetDefault("engine.lookup_timeout", 15*time.Second)
	v.SetDefault("engine.title_min", 3)
	v.SetDefault("engine.title_max", 25)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.key_prefix", "mapgood")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Nominatim.BaseURL == "" {
		errs = append(errs, "nominatim.base_url is required")
	}
	if c.Nominatim.UserAgent == "" {
		errs = append(errs, "nominatim.user_agent is required by the geocoder usage policy")
	}
	if c.OFDB.BaseURL == "" {
		errs = append(errs, "ofdb.base_url is required")
	}
	if c.Engine.QueueSize <= 0 {
		errs = append(errs, fmt.Sprintf("engine.queue_size must be positive, got %d", c.Engine.QueueSize))
	}
	if c.Engine.SettleDelayMS < 0 {
		errs = append(errs, "engine.settle_delay_ms must not be negative")
	}
	if c.Engine.LookupTimeout <= 0 {
		errs = append(errs, "engine.lookup_timeout must be positive")
	}
	if c.Engine.TitleMax < 1 {
		errs = append(errs, fmt.Sprintf("engine.title_max must be positive, got %d", c.Engine.TitleMax))
	}
	if c.Engine.TitleMin < 0 || c.Engine.TitleMax < c.Engine.TitleMin {
		errs = append(errs, fmt.Sprintf("engine.title_min/title_max must satisfy 0 <= min <= max, got %d/%d",
			c.Engine.TitleMin, c.Engine.TitleMax))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
