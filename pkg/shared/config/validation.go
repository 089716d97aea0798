package config

import (
	"fmt"
	"strings"
	"time"
)

// SupportedFormats lists the report formats the tool can write.
var SupportedFormats = []string{"sarif", "json"}

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateAnalyzerConfig(&cfg.Analyzer); err != nil {
		return fmt.Errorf("YAML global config: analyzer directive is invalid: %w", err)
	}
	if err := ValidateFormat(cfg.Output.Format); err != nil {
		return fmt.Errorf("YAML global config: output directive is invalid: %w", err)
	}
	return nil
}

// ValidateAnalyzerConfig checks the analyzer settings. An empty path is
// allowed here; commands that need the analyzer check it themselves.
func ValidateAnalyzerConfig(analyzer *Analyzer) error {
	if analyzer == nil {
		return fmt.Errorf("analyzer configuration is nil")
	}
	if err := validateDuration(analyzer.Timeout, "timeout", MaxTimeout); err != nil {
		return err
	}
	for name := range analyzer.Environment {
		if name == "" || strings.ContainsAny(name, "=\x00") {
			return fmt.Errorf("invalid environment variable name %q", name)
		}
	}
	return nil
}

// ValidateFormat checks that format is one of SupportedFormats.
func ValidateFormat(format string) error {
	for _, f := range SupportedFormats {
		if strings.EqualFold(f, format) {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q, expected one of: %s", format, strings.Join(SupportedFormats, ", "))
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}
