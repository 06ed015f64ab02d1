package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/conceptgen/internal/emit"
	"github.com/conduit-lang/conceptgen/internal/logging"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// FileName is the base name of the configuration file, without extension
const FileName = "conceptgen"

// EnvPrefix prefixes environment overrides, e.g. CONCEPTGEN_OUTPUT_DIR
const EnvPrefix = "CONCEPTGEN"

// Config represents the conceptgen configuration
type Config struct {
	Specs  SpecsConfig  `mapstructure:"specs" yaml:"specs"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Target TargetConfig `mapstructure:"target" yaml:"target"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Loader LoaderConfig `mapstructure:"loader" yaml:"loader"`
}

// SpecsConfig locates the specification files
type SpecsConfig struct {
	Dir   string   `mapstructure:"dir" yaml:"dir"`
	Files []string `mapstructure:"files" yaml:"files,omitempty"`
}

// OutputConfig controls where and how the model is written
type OutputConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TargetConfig selects the emission backend
type TargetConfig struct {
	Language string `mapstructure:"language" yaml:"language"`
}

// LogConfig configures logging
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// CacheConfig configures incremental generation
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	File    string `mapstructure:"file" yaml:"file"`
}

// LoaderConfig configures specification loading
type LoaderConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// Defaults returns the configuration used when no file is present
func Defaults() *Config {
	return &Config{
		Specs:  SpecsConfig{Dir: "specs"},
		Output: OutputConfig{Dir: "build/model", Format: emit.FormatYAML},
		Target: TargetConfig{Language: emit.SummaryLanguage},
		Log:    LogConfig{Level: "info"},
		Cache:  CacheConfig{Enabled: true, File: ".conceptgen/fingerprint"},
		Loader: LoaderConfig{Concurrency: 4},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("specs.dir", d.Specs.Dir)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("target.language", d.Target.Language)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.file", d.Cache.File)
	v.SetDefault("loader.concurrency", d.Loader.Concurrency)
}

// Load loads the configuration. An explicit path must exist; otherwise
// conceptgen.yml or conceptgen.yaml in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if cfg.Output.Format != emit.FormatYAML && cfg.Output.Format != emit.FormatJSON {
		return fmt.Errorf("output.format must be %q or %q, got: %s", emit.FormatYAML, emit.FormatJSON, cfg.Output.Format)
	}
	language := strings.TrimSpace(cfg.Target.Language)
	if language == "" || strings.ContainsAny(language, ", ") {
		return fmt.Errorf("target.language must name exactly one target, got: %q", cfg.Target.Language)
	}
	if cfg.Loader.Concurrency < 1 {
		return fmt.Errorf("loader.concurrency must be at least 1, got: %d", cfg.Loader.Concurrency)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Cache.Enabled && cfg.Cache.File == "" {
		return fmt.Errorf("cache.file must be set when the cache is enabled")
	}
	return nil
}

// Save writes cfg as YAML to path
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// SpecFiles returns the configured specification files: the explicit list if
// set, otherwise every specification file below specs.dir.
func (c *Config) SpecFiles() ([]string, error) {
	if len(c.Specs.Files) > 0 {
		return append([]string(nil), c.Specs.Files...), nil
	}
	files, err := spec.FindSpecFiles(c.Specs.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find specification files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no specification files found in %s", c.Specs.Dir)
	}
	return files, nil
}

// Salt returns the configuration values that change generated output, for use
// in the input fingerprint.
func (c *Config) Salt() string {
	return strings.Join([]string{c.Target.Language, c.Output.Format}, "|")
}

// InProject checks if the current directory holds a conceptgen configuration
func InProject() bool {
	for _, name := range []string{FileName + ".yml", FileName + ".yaml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// GetProjectRoot finds the nearest directory holding a conceptgen configuration
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{FileName + ".yml", FileName + ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a conceptgen project (no %s.yml found)", FileName)
		}
		dir = parent
	}
}
