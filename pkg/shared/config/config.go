package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the YAML configuration of the tool.
type Config struct {
	Logger   Logger   `yaml:"logger"`
	Analyzer Analyzer `yaml:"analyzer"`
	Rules    Rules    `yaml:"rules"`
	Output   Output   `yaml:"output"`
}

// Logger holds the logging settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Analyzer describes how the analysis engine is launched.
type Analyzer struct {
	Path          string            `yaml:"path"`
	IsScript      bool              `yaml:"is_script"`
	Timeout       time.Duration     `yaml:"timeout"`
	Arguments     []string          `yaml:"arguments"`
	Environment   map[string]string `yaml:"environment"`
	SensitiveKeys []string          `yaml:"sensitive_keys"`
}

// Rules points to the rules file.
type Rules struct {
	Path string `yaml:"path"`
}

// Output holds report settings.
type Output struct {
	Format string `yaml:"format"`
}

// Default values.
const (
	DefaultConfigFile   = "config.yml"
	DefaultOutputFormat = "sarif"
	DefaultTimeout      = 60 * time.Second
	MaxTimeout          = 1 * time.Hour
)

// DefaultSensitiveKeys are always redacted, on top of the configured ones.
var DefaultSensitiveKeys = []string{"sonar.password", "sonar.login", "sonar.token"}

// ValidateConfigPath checks that path exists and is a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration, applies environment overrides and
// defaults. A missing file is not an error when optional is set.
func LoadConfig(configPath string, optional bool) (*Config, error) {
	cfg := &Config{}

	if err := LoadYAML(configPath, cfg); err != nil {
		if !(optional && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
		}
	}

	UpdateConfigFromEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Output.Format = SetThen(cfg.Output.Format, DefaultOutputFormat)
	cfg.Analyzer.Timeout = SetThen(cfg.Analyzer.Timeout, DefaultTimeout)
	cfg.Analyzer.SensitiveKeys = mergeKeys(DefaultSensitiveKeys, cfg.Analyzer.SensitiveKeys)
}

func mergeKeys(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, k := range append(append([]string{}, base...), extra...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
