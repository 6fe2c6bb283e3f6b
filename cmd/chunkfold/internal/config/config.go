// Package config loads chunkfold CLI settings.
//
// Precedence, highest first: command-line flags, environment variables
// (CHUNKFOLD_ prefix, plus the variables read by client.ConfigFromEnv),
// the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete CLI configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

// APIConfig configures the API client.
type APIConfig struct {
	BaseURL     string            `mapstructure:"base_url" validate:"required,url"`
	APIKey      string            `mapstructure:"api_key"`
	UserAgent   string            `mapstructure:"user_agent"`
	XTitle      string            `mapstructure:"x_title"`
	HTTPReferer string            `mapstructure:"http_referer" validate:"omitempty,url"`
	Headers     map[string]string `mapstructure:"headers"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
}

// LoggingConfig selects the logrus level and formatter.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// ReplayConfig tunes the replay command.
type ReplayConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
}

// envBindings maps config keys to the unprefixed variables the library
// client also reads.
var envBindings = map[string][]string{
	"api.base_url":     {"CHUNKFOLD_API_BASE"},
	"api.api_key":      {"CHUNKFOLD_API_KEY"},
	"api.user_agent":   {"CHUNKFOLD_USER_AGENT", "USER_AGENT"},
	"api.x_title":      {"CHUNKFOLD_X_TITLE", "X_TITLE"},
	"api.http_referer": {"CHUNKFOLD_HTTP_REFERER", "HTTP_REFERER"},
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.objective-ai.io")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.user_agent", "chunkfold")
	v.SetDefault("api.x_title", "")
	v.SetDefault("api.http_referer", "")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("replay.concurrency", 4)
}

// Load reads configuration into a Config. path may be empty, in which case
// only defaults, environment and bound flags apply.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("CHUNKFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, vars := range envBindings {
		if err := v.BindEnv(append([]string{key}, vars...)...); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error unless required is set.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}
