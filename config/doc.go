// Package config loads and validates seqkit configuration.
//
// It uses Viper to merge, from lowest to highest precedence, built-in
// defaults, a YAML config file, SEQKIT_* environment variables (a .env file
// is loaded into the environment first) and explicitly set command-line
// flags.
//
// # Usage
//
//	cfg, err := config.Load(
//	    config.WithConfigFile(path),
//	    config.WithFlags(flags, map[string]string{"logging.level": "log-level"}),
//	)
//
// Environment variables use underscore-separated paths, e.g.
// SEQKIT_PIPELINE_MATERIALIZE_LIMIT=10000.
package config
