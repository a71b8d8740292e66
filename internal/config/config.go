package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhisek/medquiz/internal/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	Tutor  TutorConfig  `mapstructure:"tutor"`

	// BankPath points at a question bank JSON file. Empty uses the
	// embedded bank.
	BankPath string `mapstructure:"bank_path"`

	// LLM comes from the MEDQUIZ_* / provider API key environment.
	LLM llm.Config `mapstructure:"-"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=sqlite memory redis postgres"`
	// DB is the SQLite file. Empty resolves to the XDG data directory.
	DB          string `mapstructure:"db"`
	RedisURL    string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	PostgresURL string `mapstructure:"postgres_url" validate:"required_if=Backend postgres"`
	MaxConns    int32  `mapstructure:"max_conns" validate:"min=1,max=100"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=pretty json"`
}

// ServerConfig configures `medquiz serve`.
type ServerConfig struct {
	Addr    string `mapstructure:"addr" validate:"required"`
	GinMode string `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	// AllowedOrigins restricts CORS and websocket origins. Empty allows all.
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	ChatRatePerMinute int           `mapstructure:"chat_rate_per_minute" validate:"min=1"`
	ChatBurst         int           `mapstructure:"chat_burst" validate:"min=1"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

type TutorConfig struct {
	HistoryLimit int    `mapstructure:"history_limit" validate:"min=1,max=50"`
	Language     string `mapstructure:"language" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.db", "")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.redis_prefix", "medquiz")
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.max_conns", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")

	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.chat_rate_per_minute", 20)
	v.SetDefault("server.chat_burst", 5)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("tutor.history_limit", 10)
	v.SetDefault("tutor.language", "English")

	v.SetDefault("bank_path", "")
}

// Load reads configuration in increasing priority: defaults, the optional
// YAML/JSON/TOML file at path, a .env file in the working directory and
// MEDQUIZ_* environment variables (e.g. MEDQUIZ_STORE_BACKEND).
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetEnvPrefix("MEDQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LLM = loadLLM()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadLLM prefers explicit MEDQUIZ_* settings and falls back to whichever
// provider API key is present in the environment.
func loadLLM() llm.Config {
	cfg := llm.ConfigFromEnv()
	if os.Getenv("MEDQUIZ_LLM_PROVIDER") != "" || cfg.Validate() == nil {
		return cfg
	}
	if discovered, ok := llm.DiscoverConfig(); ok {
		discovered.Timeout = cfg.Timeout
		discovered.Retry = cfg.Retry
		return discovered
	}
	return cfg
}
