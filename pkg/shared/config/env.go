package config

import "os"

// UpdateConfigFromEnv sets configuration values from environment variables, if they are set.
func UpdateConfigFromEnv(cfg *Config) {
	envVars := map[string]*string{
		"SCANIO_CFAMILY_ANALYZER_PATH": &cfg.Analyzer.Path,
		"SCANIO_CFAMILY_RULES_PATH":    &cfg.Rules.Path,
		"SCANIO_CFAMILY_OUTPUT_FORMAT": &cfg.Output.Format,
	}

	for env, val := range envVars {
		if v := os.Getenv(env); v != "" {
			*val = v
		}
	}
}

// ConfigPathFromEnv returns the config file path from SCANIO_CFAMILY_CONFIG.
func ConfigPathFromEnv() string {
	return os.Getenv("SCANIO_CFAMILY_CONFIG")
}
