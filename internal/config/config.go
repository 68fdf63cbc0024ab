package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the planner.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	KV       KVConfig       `mapstructure:"kv"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig locates the SQLite file holding the record store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// KVConfig selects where small aggregates are stored: "sqlite" or "redis".
type KVConfig struct {
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// AutosaveConfig controls the write-behind quiet period.
type AutosaveConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type NotesConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type ReportsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type BackupConfig struct {
	ReminderDays int `mapstructure:"reminder_days"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from an optional .env file and STUDYPLANNER_*
// environment variables, falling back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STUDYPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/studyplanner.db")
	v.SetDefault("kv.backend", "sqlite")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "studyplanner:")
	v.SetDefault("autosave.debounce", 500*time.Millisecond)
	v.SetDefault("autosave.flush_interval", time.Minute)
	v.SetDefault("notes.max_size_bytes", int64(10<<20))
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.filename", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("reports.interval", 5*time.Hour)
	v.SetDefault("backup.reminder_days", 7)
	v.SetDefault("metrics.addr", "")
}

// Validate checks the values the rest of the app relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.KV.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown kv backend %q", c.KV.Backend)
	}
	if c.Autosave.Debounce <= 0 {
		return fmt.Errorf("autosave debounce must be positive")
	}
	if c.Notes.MaxSizeBytes <= 0 {
		return fmt.Errorf("notes max size must be positive")
	}
	switch c.Logger.Output {
	case "stderr", "stdout":
	case "file":
		if strings.TrimSpace(c.Logger.Filename) == "" {
			return fmt.Errorf("logger filename is required for file output")
		}
	default:
		return fmt.Errorf("unknown logger output %q", c.Logger.Output)
	}
	if c.Reports.Interval < 0 {
		return fmt.Errorf("reports interval cannot be negative")
	}
	return nil
}
