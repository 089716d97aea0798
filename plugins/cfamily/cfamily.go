package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/cfamily-bridge/internal/analyzer"
	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/processrunner"
	"github.com/scan-io-git/cfamily-bridge/internal/report"
	"github.com/scan-io-git/cfamily-bridge/internal/rules"
	"github.com/scan-io-git/cfamily-bridge/internal/scanner"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/logger"
)

const pluginName = "cfamily"

// defaultConcurrentJobs bounds the analyzer processes of one Scan call.
const defaultConcurrentJobs = 4

// ScannerCFamily serves the scanner plugin contract on top of the analyzer.
type ScannerCFamily struct {
	logger hclog.Logger

	mu  sync.Mutex
	cfg *config.Config
}

// Setup stores the host configuration for later scans.
func (g *ScannerCFamily) Setup(configData config.Config) (bool, error) {
	if err := config.ValidateConfig(&configData); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = &configData
	g.logger.Debug("plugin configured", "analyzer", configData.Analyzer.Path)
	return true, nil
}

func (g *ScannerCFamily) config() *config.Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cfg == nil {
		return &config.Config{}
	}
	return g.cfg
}

// Scan analyses the target file, or every source file of the target folder,
// and writes the report to ResultsPath.
func (g *ScannerCFamily) Scan(args shared.ScannerScanRequest) (shared.ScannerScanResponse, error) {
	var response shared.ScannerScanResponse
	cfg := g.config()

	g.logger.Info("Scan is starting", "target", args.TargetPath)
	g.logger.Debug("Debug info", "args", args)

	if err := g.validateScan(&args, cfg); err != nil {
		g.logger.Error("invalid scan arguments", "error", err)
		return response, err
	}

	rulesCfg, err := rules.Load(args.ConfigPath)
	if err != nil {
		return response, err
	}

	sources, err := scanner.CollectSources(args.TargetPath)
	if err != nil {
		return response, err
	}
	requests, err := scanner.PrepareRequests(sources, args.AdditionalArgs, false)
	if err != nil {
		return response, err
	}

	a := analyzer.New(
		analyzer.ConfigFrom(cfg),
		processrunner.New(g.logger.Named("runner")),
		rulesCfg,
		issues.NewConverter(),
		g.logger.Named("analyzer"),
	)
	collector := issues.NewCollector()
	results, scanErr := scanner.New(a, defaultConcurrentJobs, g.logger.Named("scanner")).
		ScanFiles(context.Background(), requests, collector)

	resultsPath, err := report.Write(args.ResultsPath, args.ReportFormat, collector.Issues())
	if err != nil {
		g.logger.Error("failed to write report", "error", err)
		return response, err
	}

	response = shared.ScannerScanResponse{
		ResultsPath:   resultsPath,
		AnalysedFiles: len(results.Launches),
		FailedFiles:   results.Failed(),
		IssueCount:    collector.Len(),
	}
	g.logger.Info("Scan finished", "target", args.TargetPath, "issues", response.IssueCount, "failed", response.FailedFiles)
	g.logger.Info("Result is saved to", "path to a result file", resultsPath)

	if scanErr != nil {
		return response, fmt.Errorf("%s scan of %q: %w", pluginName, args.TargetPath, scanErr)
	}
	return response, nil
}

func main() {
	Scanner := &ScannerCFamily{
		logger: logger.NewPluginLogger(pluginName),
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins:         shared.NewPluginMap(Scanner),
	})
}
