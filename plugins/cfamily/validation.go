package main

import (
	"fmt"
	"os"

	"github.com/scan-io-git/cfamily-bridge/internal/report"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/files"
)

// validateScan checks the necessary fields in ScannerScanRequest and fills in
// defaults from the plugin configuration.
func (g *ScannerCFamily) validateScan(args *shared.ScannerScanRequest, cfg *config.Config) error {
	if cfg.Analyzer.Path == "" {
		return fmt.Errorf("the analyzer path is not configured")
	}
	if args.TargetPath == "" {
		return fmt.Errorf("target path is required")
	}
	if args.ResultsPath == "" {
		return fmt.Errorf("results path is required")
	}

	args.ConfigPath = config.SetThen(args.ConfigPath, cfg.Rules.Path)
	if args.ConfigPath == "" {
		return fmt.Errorf("rules file is required")
	}

	args.ReportFormat = config.SetThen(args.ReportFormat, config.SetThen(cfg.Output.Format, config.DefaultOutputFormat))
	if !report.IsSupported(args.ReportFormat) {
		g.logger.Warn("Unsupported report format requested. Defaulting to SARIF.", "requested_format", args.ReportFormat)
		args.ReportFormat = report.FormatSARIF
	}

	paths := map[string]*string{
		"target path":  &args.TargetPath,
		"results path": &args.ResultsPath,
		"rules file":   &args.ConfigPath,
	}
	for name, path := range paths {
		expandedPath, err := files.ExpandPath(*path)
		if err != nil {
			return fmt.Errorf("failed to expand path '%s': %w", *path, err)
		}
		*path = expandedPath

		if name == "results path" {
			continue
		}
		if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %s", name, expandedPath)
		}
	}

	return nil
}
