// Package pipeline - ordered chains of raster filters driven by configuration.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-raster/images"
	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/logging"
)

// Filter names accepted in a Step.
const (
	FilterScore    = "score"
	FilterRestore  = "restore"
	FilterUpscale  = "upscale"
	FilterStyle    = "style"
	FilterColorize = "colorize"
)

// MaxScale is the largest upscale factor a Step accepts. Keep it in sync with
// the lte bound on Step.Scale.
const MaxScale = 8

// EnvPrefix is the environment variable prefix consulted by LoadConfig.
const EnvPrefix = "RASTERFX"

var validator = validatorV10.New()

var edgeModes = map[string]kernels.EdgeMode{
	"skip":   kernels.EdgeSkip,
	"clamp":  kernels.EdgeClamp,
	"mirror": kernels.EdgeMirror,
}

// Step is one filter invocation. Only the parameters relevant to Filter are read.
// Scale is limited to MaxScale to bound memory; the other numeric values are
// clamped by the filter.
type Step struct {
	Filter    string  `mapstructure:"filter" json:"filter" yaml:"filter" validate:"required,oneof=score restore upscale style colorize"`
	Strength  float64 `mapstructure:"strength" json:"strength,omitempty" yaml:"strength"`
	Scale     int     `mapstructure:"scale" json:"scale,omitempty" yaml:"scale" default:"2" validate:"gte=0,lte=8"`
	Style     string  `mapstructure:"style" json:"style,omitempty" yaml:"style" default:"vintage" validate:"oneof=vintage cool warm vivid monochrome"`
	Scheme    string  `mapstructure:"scheme" json:"scheme,omitempty" yaml:"scheme" default:"natural" validate:"oneof=natural cool warm"`
	Intensity float64 `mapstructure:"intensity" json:"intensity,omitempty" yaml:"intensity"`
}

// OutputConfig controls how results are written by the CLI.
type OutputConfig struct {
	Dir     string `mapstructure:"dir" json:"dir" yaml:"dir" default:"out"`
	Format  string `mapstructure:"format" json:"format" yaml:"format" validate:"omitempty,oneof=png jpeg jpg webp bmp"`
	Quality int    `mapstructure:"quality" json:"quality" yaml:"quality" default:"90" validate:"gte=1,lte=100"`
	// Preview is the bounding box edge of an optional thumbnail; 0 disables it.
	Preview uint   `mapstructure:"preview" json:"preview" yaml:"preview"`
	Report  string `mapstructure:"report" json:"report" yaml:"report"`
}

// Config describes a full pipeline run.
type Config struct {
	Steps []Step `mapstructure:"steps" json:"steps" yaml:"steps" validate:"required,min=1,dive"`
	// Parallel splits each filter's rows across Workers goroutines.
	Parallel bool `mapstructure:"parallel" json:"parallel" yaml:"parallel"`
	Workers  int  `mapstructure:"workers" json:"workers" yaml:"workers" validate:"gte=0"`
	// Edge is the border policy of the upscale sharpening pass.
	Edge             string `mapstructure:"edge" json:"edge" yaml:"edge" default:"skip" validate:"oneof=skip clamp mirror"`
	IndependentSepia bool   `mapstructure:"independent-sepia" json:"independentSepia" yaml:"independent-sepia"`
	// Concurrency bounds how many buffers RunBatch processes at once.
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency" default:"2" validate:"gte=1"`
	// SkipScore disables the before/after sharpness scores.
	SkipScore bool `mapstructure:"skip-score" json:"skipScore" yaml:"skip-score"`

	Output OutputConfig   `mapstructure:"output" json:"output" yaml:"output"`
	Log    logging.Config `mapstructure:"log" json:"log" yaml:"log"`
}

// DefaultConfig returns a single-step restore pipeline with every default applied.
func DefaultConfig() Config {
	cfg := Config{Steps: []Step{{Filter: FilterRestore, Strength: 0.5}}}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "apply config defaults")
	}
	for i := range c.Steps {
		if err := defaults.Set(&c.Steps[i]); err != nil {
			return errors.Wrapf(err, "apply defaults to step %d", i)
		}
	}
	return nil
}

// Validate checks the configuration against its validation tags.
func (c *Config) Validate() error {
	err := validator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validatorV10.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", strings.TrimPrefix(fe.Namespace(), "Config."), validationMessage(fe)))
	}
	return errors.Errorf("invalid pipeline config: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}

// EdgeMode returns the kernels edge mode named by Edge.
func (c *Config) EdgeMode() kernels.EdgeMode {
	return edgeModes[c.Edge]
}

// OutputFormat returns the configured output format, or "" to keep the input's.
func (c *Config) OutputFormat() (images.ImageFormat, error) {
	if c.Output.Format == "" {
		return "", nil
	}
	return images.ParseFormat(c.Output.Format)
}

// LoadConfig reads a YAML, JSON or TOML configuration file. Environment variables
// prefixed with RASTERFX_ override file values (e.g. RASTERFX_WORKERS=4).
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return FromViper(v)
}

// NewViper returns a viper instance wired for the RASTERFX_ environment prefix.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper decodes, defaults and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
