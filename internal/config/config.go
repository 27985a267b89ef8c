package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "MIRADOR_SCHEDULER_"

// Config captures the settings required to boot the scheduler service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Cache     CacheConfig     `yaml:"cache"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig controls the gRPC, HTTP and metrics listeners.
type ServerConfig struct {
	GRPCAddress     string        `yaml:"grpcAddress"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	// Reflection exposes gRPC server reflection for grpcurl and friends.
	Reflection bool `yaml:"reflection"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// OptimizerConfig holds engine defaults applied to every request.
type OptimizerConfig struct {
	// PolicyPath points at the org settings YAML used as the base policy.
	PolicyPath          string        `yaml:"policyPath"`
	DefaultTimezone     string        `yaml:"defaultTimezone"`
	TopK                int           `yaml:"topK"`
	StepMinutes         int           `yaml:"stepMinutes"`
	AlignToStep         bool          `yaml:"alignToStep"`
	RequireParticipants bool          `yaml:"requireParticipants"`
	MaxWindow           time.Duration `yaml:"maxWindow"`
}

// CacheConfig controls caching of optimization results.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Backend is "memory" or "redis".
	Backend      string        `yaml:"backend"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	ResultTTL    time.Duration `yaml:"resultTTL"`
}

// EventsConfig controls publication of proposed slots to Kafka.
type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Optimizer.TopK < 0 {
		return fmt.Errorf("optimizer.topK must not be negative")
	}
	if c.Optimizer.StepMinutes < 0 {
		return fmt.Errorf("optimizer.stepMinutes must not be negative")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return fmt.Errorf("events enabled but brokers or topic missing")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddress:     ":50061",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2113",
			GracefulTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
			Reflection:      true,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Optimizer: OptimizerConfig{
			PolicyPath:      "configs/org_settings.yaml",
			DefaultTimezone: "America/New_York",
			TopK:            5,
			MaxWindow:       31 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			Enabled:      false,
			Backend:      "memory",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			ResultTTL:    5 * time.Minute,
		},
		Events: EventsConfig{
			Topic:        "scheduler.slots.proposed",
			WriteTimeout: 2 * time.Second,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	envString("GRPC_ADDRESS", &cfg.Server.GRPCAddress)
	envString("HTTP_ADDRESS", &cfg.Server.HTTPAddress)
	envString("METRICS_ADDRESS", &cfg.Server.MetricsAddress)
	envDuration("GRACEFUL_TIMEOUT", &cfg.Server.GracefulTimeout)
	envList("ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)
	envBool("GRPC_REFLECTION", &cfg.Server.Reflection)

	envString("LOG_LEVEL", &cfg.Logging.Level)
	if v := os.Getenv(envPrefix + "LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}

	envString("POLICY_PATH", &cfg.Optimizer.PolicyPath)
	envString("DEFAULT_TIMEZONE", &cfg.Optimizer.DefaultTimezone)
	envInt("TOP_K", &cfg.Optimizer.TopK)
	envInt("STEP_MINUTES", &cfg.Optimizer.StepMinutes)
	envBool("ALIGN_TO_STEP", &cfg.Optimizer.AlignToStep)
	envBool("REQUIRE_PARTICIPANTS", &cfg.Optimizer.RequireParticipants)
	envDuration("MAX_WINDOW", &cfg.Optimizer.MaxWindow)

	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("CACHE_BACKEND", &cfg.Cache.Backend)
	envString("CACHE_ADDR", &cfg.Cache.Addr)
	envString("CACHE_USERNAME", &cfg.Cache.Username)
	envString("CACHE_PASSWORD", &cfg.Cache.Password)
	envInt("CACHE_DB", &cfg.Cache.DB)
	envBool("CACHE_TLS", &cfg.Cache.TLS)
	envDuration("CACHE_DIAL_TIMEOUT", &cfg.Cache.DialTimeout)
	envDuration("CACHE_READ_TIMEOUT", &cfg.Cache.ReadTimeout)
	envDuration("CACHE_WRITE_TIMEOUT", &cfg.Cache.WriteTimeout)
	envInt("CACHE_MAX_RETRIES", &cfg.Cache.MaxRetries)
	envDuration("CACHE_RESULT_TTL", &cfg.Cache.ResultTTL)

	envBool("EVENTS_ENABLED", &cfg.Events.Enabled)
	envList("EVENTS_BROKERS", &cfg.Events.Brokers)
	envString("EVENTS_TOPIC", &cfg.Events.Topic)
	envDuration("EVENTS_WRITE_TIMEOUT", &cfg.Events.WriteTimeout)
}

func envString(name string, dst *string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(envPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(envPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envList(name string, dst *[]string) {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
