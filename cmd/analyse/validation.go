package analyse

import (
	"fmt"
	"os"

	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/files"
)

// validateAnalyseArgs validates the arguments provided to the analyse command
// and fills in the values taken from the configuration.
func validateAnalyseArgs(options *RunOptionsAnalyse, cfg *config.Config, args []string, argsLenAtDash int) error {
	options.Targets = args
	options.CompilerOptions = nil
	if argsLenAtDash > -1 {
		options.Targets = args[:argsLenAtDash]
		options.CompilerOptions = args[argsLenAtDash:]
	}

	if len(options.Targets) == 0 {
		return fmt.Errorf("at least one target path must be specified")
	}
	for i, target := range options.Targets {
		expanded, err := files.ExpandPath(target)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", target, err)
		}
		if _, err := os.Stat(expanded); os.IsNotExist(err) {
			return fmt.Errorf("the target path does not exist: %v", target)
		}
		options.Targets[i] = expanded
	}

	if options.Threads <= 0 {
		return fmt.Errorf("the 'threads' flag must be a positive integer")
	}

	if options.Watch {
		if len(options.Targets) != 1 {
			return fmt.Errorf("the 'watch' flag requires exactly one target file")
		}
		if err := files.ValidatePath(options.Targets[0]); err != nil {
			return fmt.Errorf("the 'watch' flag requires a file: %w", err)
		}
	}

	if cfg != nil {
		options.ReportFormat = config.SetThen(options.ReportFormat, cfg.Output.Format)
		options.RulesPath = config.SetThen(options.RulesPath, cfg.Rules.Path)
	}
	options.ReportFormat = config.SetThen(options.ReportFormat, config.DefaultOutputFormat)
	if err := config.ValidateFormat(options.ReportFormat); err != nil {
		return err
	}

	if cfg == nil || cfg.Analyzer.Path == "" {
		return fmt.Errorf("the analyzer path must be set in the configuration or with SCANIO_CFAMILY_ANALYZER_PATH")
	}

	if options.RulesPath == "" && !options.SyntaxOnly {
		return fmt.Errorf("the 'rules' flag must be specified")
	}
	if options.RulesPath != "" {
		expanded, err := files.ExpandPath(options.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", options.RulesPath, err)
		}
		if err := files.ValidatePath(expanded); err != nil {
			return fmt.Errorf("invalid rules file: %w", err)
		}
		options.RulesPath = expanded
	}

	return nil
}
