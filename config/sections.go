package config

import "time"

// PipelineConfig bounds pipeline evaluation.
type PipelineConfig struct {
	// MaterializeLimit caps how many elements Sort, Reverse, GroupBy and the
	// Distinct family may buffer. Zero means unlimited.
	MaterializeLimit int `yaml:"materialize_limit" mapstructure:"materialize_limit" validate:"gte=0"`
}

// ObservabilityConfig enables the OTLP exporters.
type ObservabilityConfig struct {
	Tracing         bool          `yaml:"tracing" mapstructure:"tracing"`
	Metrics         bool          `yaml:"metrics" mapstructure:"metrics"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval" validate:"gte=0"`
}

// Enabled reports whether any exporter is on.
func (c *ObservabilityConfig) Enabled() bool {
	return c.Tracing || c.Metrics
}

// ApplyDefaults fills the endpoint and export interval of enabled exporters.
func (c *ObservabilityConfig) ApplyDefaults() {
	if !c.Enabled() {
		return
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Metrics && c.MetricsInterval == 0 {
		c.MetricsInterval = DefaultMetricsInterval
	}
}
