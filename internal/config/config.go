// Package config loads receiver settings from YAML and the environment and
// assembles a ready-to-use interference helper from them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/signalsfoundry/wifi-interference/core"
	"github.com/signalsfoundry/wifi-interference/internal/logging"
	"github.com/signalsfoundry/wifi-interference/internal/observability"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// ErrorModelNist selects the NIST OFDM/DSSS error-rate model.
const ErrorModelNist = "nist"

// Config is the top-level configuration of one receiver.
type Config struct {
	Receiver   ReceiverConfig              `yaml:"receiver"`
	ErrorModel ErrorModelConfig            `yaml:"errorModel"`
	Logging    logging.Config              `yaml:"logging"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
}

// ReceiverConfig holds the thermal noise parameters.
type ReceiverConfig struct {
	NoiseFigureDB float64 `yaml:"noiseFigureDb"`
	Boltzmann     float64 `yaml:"boltzmann"`
	TemperatureK  float64 `yaml:"temperatureK"`
}

// ErrorModelConfig selects the error-rate model and its memo cache.
type ErrorModelConfig struct {
	Name  string      `yaml:"name"`
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig sizes the error-rate model memo cache. Zero sizes select
// the cache defaults.
type CacheConfig struct {
	Enabled     bool  `yaml:"enabled"`
	NumCounters int64 `yaml:"numCounters"`
	MaxCost     int64 `yaml:"maxCost"`
}

// Default returns a 7 dB receiver at 290 K scored by the uncached NIST
// model, logging at info level with tracing disabled.
func Default() Config {
	return Config{
		Receiver: ReceiverConfig{
			NoiseFigureDB: core.DefaultNoiseFigureDB,
			Boltzmann:     core.BoltzmannConstant,
			TemperatureK:  core.ReferenceTemperatureK,
		},
		ErrorModel: ErrorModelConfig{Name: ErrorModelNist},
		Logging:    logging.Config{Level: "info", Format: "text"},
		Tracing:    observability.DefaultTracingConfig(),
	}
}

// Parse decodes YAML from r over the defaults and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any PHY_* environment variables that are
// set and validates the result.
func (c *Config) ApplyEnv() error {
	if raw := os.Getenv("PHY_NOISE_FIGURE_DB"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: PHY_NOISE_FIGURE_DB: %v", ErrInvalidConfig, err)
		}
		c.Receiver.NoiseFigureDB = v
	}
	if name := os.Getenv("PHY_ERROR_MODEL"); name != "" {
		c.ErrorModel.Name = strings.ToLower(name)
	}
	if raw := os.Getenv("PHY_ERROR_MODEL_CACHE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: PHY_ERROR_MODEL_CACHE: %v", ErrInvalidConfig, err)
		}
		c.ErrorModel.Cache.Enabled = v
	}
	if level := os.Getenv("PHY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("PHY_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	c.Tracing = observability.ApplyTracingEnv(c.Tracing)
	return c.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Receiver.Boltzmann <= 0 {
		return fmt.Errorf("%w: receiver.boltzmann must be positive, got %g", ErrInvalidConfig, c.Receiver.Boltzmann)
	}
	if c.Receiver.TemperatureK <= 0 {
		return fmt.Errorf("%w: receiver.temperatureK must be positive, got %g", ErrInvalidConfig, c.Receiver.TemperatureK)
	}
	if c.ErrorModel.Name != ErrorModelNist {
		return fmt.Errorf("%w: errorModel.name %q is not supported", ErrInvalidConfig, c.ErrorModel.Name)
	}
	if c.ErrorModel.Cache.NumCounters < 0 || c.ErrorModel.Cache.MaxCost < 0 {
		return fmt.Errorf("%w: errorModel.cache sizes must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q is not text or json", ErrInvalidConfig, c.Logging.Format)
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("%w: tracing.exporter %q is not supported", ErrInvalidConfig, c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sampleRatio must be within [0,1], got %g", ErrInvalidConfig, c.Tracing.SampleRatio)
	}
	return nil
}

// NoiseModel converts the receiver settings to the engine's noise model.
func (r ReceiverConfig) NoiseModel() core.NoiseModel {
	return core.NoiseModel{
		NoiseFigure:  core.NoiseFigureFromDB(r.NoiseFigureDB),
		Boltzmann:    r.Boltzmann,
		TemperatureK: r.TemperatureK,
	}
}
