package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kbukum/seqkit/logger"
)

// Defaults used when neither a file, the environment nor a flag sets a key.
const (
	DefaultName            = "seqkit"
	DefaultEndpoint        = "localhost:4318"
	DefaultMetricsInterval = 15 * time.Second
)

// EnvPrefix prefixes every environment override, e.g.
// SEQKIT_PIPELINE_MATERIALIZE_LIMIT for pipeline.materialize_limit.
const EnvPrefix = "SEQKIT"

// Defaults returns the default value of every configuration key. Keys are
// registered with viper so that environment variables can override them
// even when no config file mentions them.
func Defaults() map[string]any {
	return map[string]any{
		"name":                           DefaultName,
		"environment":                    "production",
		"version":                        "",
		"debug":                          false,
		"logging.level":                  "warn",
		"logging.format":                 "console",
		"logging.output":                 "stderr",
		"logging.no_color":               false,
		"logging.timestamp":              true,
		"logging.caller":                 false,
		"pipeline.materialize_limit":     0,
		"observability.tracing":          false,
		"observability.metrics":          false,
		"observability.endpoint":         DefaultEndpoint,
		"observability.insecure":         true,
		"observability.sample_rate":      1.0,
		"observability.metrics_interval": DefaultMetricsInterval,
	}
}

// FileSystem abstracts the file operations of the loader (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise the first file
// found in the search paths.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.first(cr.configSearchPaths(serviceName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.first([]string{
			fmt.Sprintf(".env.%s", serviceName),
			".env",
		})
	}
	return resolved
}

// configSearchPaths lists config.yml candidates: the working directory
// first, then the user config directory.
func (cr *Resolver) configSearchPaths(serviceName string) []string {
	paths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
		fmt.Sprintf("./.%s.yml", serviceName),
	}
	if dir, err := cr.FileSystem.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths, filepath.Join(dir, serviceName, "config.yml"))
	}
	return paths
}

func (cr *Resolver) first(paths []string) string {
	for _, path := range paths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Flags      *pflag.FlagSet
	FlagKeys   map[string]string // config key -> flag name
	Defaults   map[string]any
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlags binds command-line flags to configuration keys. keys maps a
// config key (e.g. "logging.level") to a flag name (e.g. "log-level"). A
// flag only overrides the other sources when it was set explicitly.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// WithDefaults registers default values for configuration keys.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// Load reads the seqkit configuration, applies defaults and validates it.
// Precedence, highest first: explicitly set flags, SEQKIT_* environment
// variables (including those from a .env file), the config file, defaults.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	opts = append([]LoaderOption{WithDefaults(Defaults())}, opts...)
	if err := LoadConfig(DefaultName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration for a service into the provided cfg struct.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	return loadFromResolvedFiles(serviceName, cfg, files, lc)
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(serviceName string, cfg interface{}, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()
	for key, value := range lc.Defaults {
		v.SetDefault(key, value)
	}

	// 1. YAML config (base configuration). An explicit file must load.
	if files.ConfigFile != "" {
		switch {
		case lc.FileSystem.Exists(files.ConfigFile):
			v.SetConfigFile(files.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
			}
		case lc.ConfigFile != "":
			return fmt.Errorf("config file %s not found", files.ConfigFile)
		}
	}

	// 2. .env file, loaded into the process environment.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields(
				"service", serviceName,
				"path", files.EnvFile,
				logger.FieldError, err.Error(),
			))
		}
	}

	// 3. Environment overrides for every known key.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	// 4. Flags.
	if lc.Flags != nil {
		for key, name := range lc.FlagKeys {
			flag := lc.Flags.Lookup(name)
			if flag == nil {
				return fmt.Errorf("flag --%s for %s is not defined", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}
