package config

import (
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/validation"
)

// Config is the configuration of a seqkit process.
//
// Example config.yml:
//
//	name: seqkit
//	environment: production
//	logging:
//	  level: warn
//	pipeline:
//	  materialize_limit: 100000
//	observability:
//	  tracing: true
//	  endpoint: otel-collector:4318
type Config struct {
	Name          string              `yaml:"name" mapstructure:"name" validate:"required"`
	Environment   string              `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version       string              `yaml:"version" mapstructure:"version"`
	Debug         bool                `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	// Propagate the name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags on every section, then the rules that span
// fields. Failures are INVALID_CONFIG errors.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	o := c.Observability
	return validation.New().
		Custom(!(o.Tracing || o.Metrics) || o.Endpoint != "",
			"observability.endpoint", "is required when tracing or metrics is enabled").
		Err()
}

// TracerConfig returns the tracer settings for this process.
func (c *Config) TracerConfig() *observability.TracerConfig {
	return &observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Observability.Endpoint,
		Insecure:       c.Observability.Insecure,
		SampleRate:     c.Observability.SampleRate,
	}
}

// MeterConfig returns the meter settings for this process.
func (c *Config) MeterConfig() *observability.MeterConfig {
	return &observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Observability.Endpoint,
		Insecure:       c.Observability.Insecure,
		Interval:       c.Observability.MetricsInterval,
	}
}
