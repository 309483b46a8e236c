// Package config loads the colchunk command line configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/arloliu/colchunk/reader"
	"github.com/arloliu/colchunk/source"
)

// Config aggregates the command line configuration.
type Config struct {
	Budget BudgetConfig `mapstructure:"budget"`
	Log    LogConfig    `mapstructure:"log"`
	S3     S3Config     `mapstructure:"s3"`
}

// BudgetConfig holds the reader budgets as human readable sizes ("64MiB", "1 GB").
// Empty or "0" means unbounded.
type BudgetConfig struct {
	Output string `mapstructure:"output"`
	Input  string `mapstructure:"input"`
}

// LogConfig selects the log level and outputs.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// Format of the stderr handler, "text" or "json".
	Format string `mapstructure:"format"`
	// File optionally receives a JSON copy of every record.
	File string `mapstructure:"file"`
}

// S3Config configures the S3 client used for s3:// locations.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from an optional file and environment variables.
// Environment variables use the prefix "COLCHUNK" and the dot character in keys
// is replaced by an underscore. For example, "budget.output" becomes
// "COLCHUNK_BUDGET_OUTPUT".
//
// An empty path looks for colchunk.{yaml,json,toml} in the working directory
// and ignores a missing file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("colchunk")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("COLCHUNK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, _, err := cfg.Budget.Limits(); err != nil {
		return nil, err
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag) //nolint: gocritic
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Limits parses the output and input limits in bytes.
func (b BudgetConfig) Limits() (output, input int64, err error) {
	if output, err = ParseSize(b.Output); err != nil {
		return 0, 0, fmt.Errorf("budget.output: %w", err)
	}
	if input, err = ParseSize(b.Input); err != nil {
		return 0, 0, fmt.Errorf("budget.input: %w", err)
	}

	return output, input, nil
}

// ReaderOption returns the reader budget option of b. Load has validated b.
func (b BudgetConfig) ReaderOption() reader.Option {
	output, input, _ := b.Limits()

	return reader.WithBudget(output, input)
}

// ParseSize parses a human readable byte size. Empty means 0.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}

	return int64(n), nil //nolint: gosec
}

// SlogLevel maps Level to a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}

	return level, nil
}

// ClientOptions converts the configuration into S3 client options.
func (c S3Config) ClientOptions() source.S3ClientOptions {
	return source.S3ClientOptions{Region: c.Region, Endpoint: c.Endpoint, UsePathStyle: c.PathStyle}
}
