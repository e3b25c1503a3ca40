// Package config loads the rendering and logging settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	MeasurerFace = "face"
	MeasurerMono = "mono"
)

// Config is the root configuration.
type Config struct {
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// RenderConfig controls the rendering pipeline.
type RenderConfig struct {
	// Width is the default viewport width in px.
	Width        float64 `mapstructure:"width" yaml:"width"`
	RootFontSize float64 `mapstructure:"root_font_size" yaml:"root_font_size"`
	// LineHeight is the factor applied to font metrics for line-height: normal.
	LineHeight  float64 `mapstructure:"line_height" yaml:"line_height"`
	Measurer    string  `mapstructure:"measurer" yaml:"measurer"`
	MonoAdvance float64 `mapstructure:"mono_advance" yaml:"mono_advance"`
	ViewSource  bool    `mapstructure:"view_source" yaml:"view_source"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File, when set, receives a JSON copy of the log, rotated by size.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Render --
	v.SetDefault("render.width", 800.0)
	v.SetDefault("render.root_font_size", 16.0)
	v.SetDefault("render.line_height", 1.25)
	v.SetDefault("render.measurer", MeasurerFace)
	v.SetDefault("render.mono_advance", 0.5)
	v.SetDefault("render.view_source", false)

	// -- Log --
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}

// NewDefaultConfig returns a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads the configuration from path, if given, with OCTO_ environment
// variables taking precedence (OCTO_RENDER_WIDTH for render.width).
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller supplied viper instance, for example one with
// command line flags bound to keys.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("OCTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper creates a validated configuration from a viper
// instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (r *RenderConfig) Validate() error {
	if r.Width < 0 {
		return fmt.Errorf("width must not be negative")
	}
	if r.RootFontSize <= 0 {
		return fmt.Errorf("root_font_size must be positive")
	}
	if r.LineHeight <= 0 {
		return fmt.Errorf("line_height must be positive")
	}
	switch r.Measurer {
	case MeasurerFace:
	case MeasurerMono:
		if r.MonoAdvance <= 0 {
			return fmt.Errorf("mono_advance must be positive")
		}
	default:
		return fmt.Errorf("unknown measurer %q", r.Measurer)
	}
	return nil
}

func (l *LogConfig) Validate() error {
	switch strings.ToLower(l.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	if l.File != "" && l.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive when logging to a file")
	}
	return nil
}
