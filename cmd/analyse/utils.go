package analyse

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/cfamily-bridge/internal/analyzer"
	"github.com/scan-io-git/cfamily-bridge/internal/issuediff"
	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/processrunner"
	"github.com/scan-io-git/cfamily-bridge/internal/report"
	"github.com/scan-io-git/cfamily-bridge/internal/rules"
	"github.com/scan-io-git/cfamily-bridge/internal/scanner"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
)

// defaultLanguage is used for syntax-only runs without a rules file.
const defaultLanguage = "cpp"

// analyseJob is one complete pass over the targets. In watch mode it runs
// again on every change.
type analyseJob struct {
	options *RunOptionsAnalyse
	scanner *scanner.Scanner
	stdout  io.Writer
	logger  hclog.Logger

	// previous holds the issues of the last run; nil before the first one.
	previous []*issues.Issue
}

// newAnalyseJob loads the rules and wires the analyzer for the given options.
func newAnalyseJob(cfg *config.Config, options *RunOptionsAnalyse, logger hclog.Logger, stdout io.Writer) (*analyseJob, error) {
	rulesCfg, err := loadRules(options)
	if err != nil {
		return nil, err
	}

	a := analyzer.New(
		analyzer.ConfigFrom(cfg),
		processrunner.New(logger.Named("runner")),
		rulesCfg,
		issues.NewConverter(),
		logger.Named("analyzer"),
	)
	return &analyseJob{
		options: options,
		scanner: scanner.New(a, options.Threads, logger.Named("scanner")),
		stdout:  stdout,
		logger:  logger,
	}, nil
}

func loadRules(options *RunOptionsAnalyse) (*rules.Config, error) {
	if options.RulesPath == "" {
		return rules.New(defaultLanguage), nil
	}
	rulesCfg, err := rules.Load(options.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return rulesCfg, nil
}

// run analyses every target and writes the report. The report is written
// even when some analyses failed.
func (j *analyseJob) run(ctx context.Context) error {
	sources, err := collectTargets(j.options.Targets)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no C/C++ source files found in %v", j.options.Targets)
	}

	requests, err := scanner.PrepareRequests(sources, j.options.CompilerOptions, j.options.SyntaxOnly)
	if err != nil {
		return err
	}

	collector := issues.NewCollector()
	results, scanErr := j.scanner.ScanFiles(ctx, requests, collector)

	found := collector.Issues()
	if err := j.writeReport(found); err != nil {
		return err
	}

	summary := report.CollectSeverityInfo(found)
	j.logger.Info("analysis summary",
		"files", len(results.Launches),
		"failed", results.Failed(),
		"issues", summary["total"],
		"errors", summary["error"],
		"warnings", summary["warning"],
		"notes", summary["note"],
	)
	j.logChanges(found)
	return scanErr
}

// logChanges reports the issues that appeared or were fixed since the
// previous run.
func (j *analyseJob) logChanges(found []*issues.Issue) {
	previous := j.previous
	j.previous = found
	if previous == nil {
		return
	}

	diff := issuediff.Compare(previous, found)
	if !diff.Changed() {
		j.logger.Info("no issue changes since the previous run", "issues", len(found))
		return
	}
	j.logger.Info("issue changes since the previous run",
		"new", len(diff.New),
		"resolved", len(diff.Resolved),
		"unchanged", diff.Unchanged,
	)
	for _, issue := range diff.New {
		j.logger.Info("new issue", "rule", issue.RuleKey, "file", issue.FilePath, "line", startLine(issue), "message", issue.Message)
	}
	for _, issue := range diff.Resolved {
		j.logger.Info("resolved issue", "rule", issue.RuleKey, "file", issue.FilePath, "line", startLine(issue))
	}
}

func startLine(issue *issues.Issue) int {
	if issue.Range == nil {
		return 0
	}
	return issue.Range.StartLine
}

func (j *analyseJob) writeReport(found []*issues.Issue) error {
	if j.options.OutputPath == "" {
		return report.WriteTo(j.stdout, j.options.ReportFormat, found)
	}
	path, err := report.Write(j.options.OutputPath, j.options.ReportFormat, found)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	j.logger.Info("result is saved to", "path", path)
	return nil
}

// collectTargets expands folders into their source files and removes
// duplicates, keeping a stable order.
func collectTargets(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	var sources []string
	for _, target := range targets {
		found, err := scanner.CollectSources(target)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			sources = append(sources, f)
		}
	}
	sort.Strings(sources)
	return sources, nil
}
