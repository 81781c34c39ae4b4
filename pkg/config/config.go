package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration files merged by LoadConfiguration
const FileName = "kbuilder.yaml"

// Config represents the merged configuration from all kbuilder.yaml files
type Config struct {
	Toolchain Toolchain `yaml:"toolchain"`

	// Verbose enables stage tracing and the timing summary
	Verbose bool `yaml:"verbose"`

	// LogLevel is one of debug, info, warn, error (default info)
	LogLevel string `yaml:"log_level"`

	// LogFormat is text or json (default text)
	LogFormat string `yaml:"log_format"`

	// DefaultRuleKind is recorded in jar manifests when a task has no rule kind
	DefaultRuleKind string `yaml:"default_rule_kind"`

	// JDepsWorkers bounds the number of class files analysed concurrently
	JDepsWorkers int `yaml:"jdeps_workers"`
}

// Toolchain locates the external compilers
type Toolchain struct {
	Kotlinc     string   `yaml:"kotlinc"`
	KotlincArgs []string `yaml:"kotlinc_args"`
	Javac       string   `yaml:"javac"`
	JavacArgs   []string `yaml:"javac_args"`

	// JavacOptions are appended to every javac invocation before the sources
	JavacOptions []string `yaml:"javac_options"`

	// KaptPlugin is used when a task does not name its own kapt plugin jar
	KaptPlugin string `yaml:"kapt_plugin"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfiguration loads and merges all kbuilder.yaml files from the directory hierarchy
func LoadConfiguration(startDir string) (*Config, error) {
	config := &Config{}

	// Walk up the directory hierarchy looking for config files
	currentDir := startDir
	var configFiles []string

	for {
		configPath := filepath.Join(currentDir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			configFiles = append(configFiles, configPath)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	// Process config files from root to leaf (so leaf configs override parent configs)
	for i := len(configFiles) - 1; i >= 0; i-- {
		if err := config.mergeConfigFile(configFiles[i]); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", configFiles[i], err)
		}
	}

	config.applyDefaults()
	return config, nil
}

// mergeConfigFile decodes a config file over the current configuration.
// Keys absent from the file keep their current value.
func (c *Config) mergeConfigFile(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Toolchain.Kotlinc == "" {
		c.Toolchain.Kotlinc = "kotlinc"
	}
	if c.Toolchain.Javac == "" {
		c.Toolchain.Javac = "javac"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Verbose {
		c.LogLevel = "debug"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DefaultRuleKind == "" {
		c.DefaultRuleKind = "kt_jvm_library"
	}
	if c.JDepsWorkers <= 0 {
		c.JDepsWorkers = runtime.NumCPU()
	}
}
