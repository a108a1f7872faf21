// Package validation checks configuration values.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report failures as an
// INVALID_CONFIG errors.AppError whose "fields" detail lists each field.
//
// # Struct Tag Validation
//
//	type PipelineConfig struct {
//	    MaterializeLimit int `mapstructure:"materialize_limit" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Min("step", step, 1).
//	    Regexp("grep", pattern).
//	    Err()
package validation
