// Package config loads the application configuration from a YAML file with
// TIMECARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gookit/validate"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"timecard/internal/storage"
)

// EnvFileName is an optional dotenv file next to the config file. Its
// variables never override ones already set in the environment.
const EnvFileName = ".env"

// ErrInvalid indicates a configuration value that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Clock    ClockConfig    `yaml:"clock"`
	Backup   BackupConfig   `yaml:"backup"`
	Settings SettingsConfig `yaml:"settings"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"TIMECARD_LOG_LEVEL" env-default:"info" validate:"required|in:debug,info,warn,error"`
	Format string `yaml:"format" env:"TIMECARD_LOG_FORMAT" env-default:"console" validate:"required|in:console,json"`
	File   string `yaml:"file" env:"TIMECARD_LOG_FILE"`
}

// ClockConfig configures the tick source.
type ClockConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"TIMECARD_CLOCK_TICK_INTERVAL" env-default:"1s" validate:"required|min:1"`
}

// BackupConfig configures crash recovery.
type BackupConfig struct {
	Disabled   bool          `yaml:"disabled" env:"TIMECARD_BACKUP_DISABLED"`
	Dir        string        `yaml:"dir" env:"TIMECARD_BACKUP_DIR"`
	QueryDelay time.Duration `yaml:"query_delay" env:"TIMECARD_BACKUP_QUERY_DELAY" env-default:"1s" validate:"required|min:1"`
}

// SettingsConfig locates the user settings file. Empty means the per-user default.
type SettingsConfig struct {
	Path string `yaml:"path" env:"TIMECARD_SETTINGS_PATH"`
}

// Load reads path, applies environment overrides (including EnvFileName in
// the same directory) and validates the result.
// When path does not exist it is created from the effective configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := loadEnvFile(filepath.Join(filepath.Dir(path), EnvFileName)); err != nil {
		return nil, err
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
		if err := Write(path, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("stat config %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its validate tag.
func (cfg *Config) Validate() error {
	v := validate.Struct(cfg)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalid, v.Errors.One())
	}
	return nil
}

// Write stores cfg as YAML, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	return nil
}
