// Package logger provides structured logging for seqkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Pipelines log through the "pipeline" component
// at debug level, so attaching stages and running terminals is silent unless
// the level is lowered.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Debug("stage attached", logger.Fields(logger.FieldStage, "map"))
package logger
