package analyse

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/cfamily-bridge/internal/watch"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/errors"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/logger"
)

// ExitCodeAnalysisFailed is returned when at least one analysis failed.
const ExitCodeAnalysisFailed = 2

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	RulesPath       string
	ReportFormat    string
	OutputPath      string
	SyntaxOnly      bool
	Watch           bool
	Threads         int
	Targets         []string
	CompilerOptions []string
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Analysing a single file and printing a SARIF report
  cfamily analyse --rules rules.yml src/main.cpp

  # Analysing a single file with compiler options
  cfamily analyse --rules rules.yml src/main.cpp -- -std=c++17 -Iinclude -DNDEBUG

  # Analysing every source file of a folder with 4 analyzer processes and writing a JSON report
  cfamily analyse --rules rules.yml --format json --output reports/ -j 4 src/

  # Checking syntax only
  cfamily analyse --syntax-only src/main.cpp

  # Re-analysing a file every time it is saved
  cfamily analyse --rules rules.yml --watch --output report.sarif src/main.cpp`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse [--rules/-r PATH] [--format/-f OUTPUT_FORMAT] [--output/-o PATH] [--syntax-only] [--watch] [-j THREADS_NUMBER, default=1] PATH... -- [compiler options...]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Runs the C/C++ analyzer on files or folders and reports the issues it finds",
	RunE:                  runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyse")

	if err := validateAnalyseArgs(&analyseOptions, AppConfig, args, cmd.ArgsLenAtDash()); err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return errors.NewCommandError(err, 1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	job, err := newAnalyseJob(AppConfig, &analyseOptions, logger, cmd.OutOrStdout())
	if err != nil {
		logger.Error("failed to prepare the analysis", "error", err)
		return errors.NewCommandError(err, 1)
	}

	if analyseOptions.Watch {
		return watch.Watch(ctx, analyseOptions.Targets[0], logger.Named("watch"), job.run)
	}

	if err := job.run(ctx); err != nil {
		logger.Error("analyse command failed", "error", err)
		return errors.NewCommandError(err, ExitCodeAnalysisFailed)
	}

	logger.Info("analyse command completed successfully")
	return nil
}

// Initialize flags for the analyse command.
func init() {
	AnalyseCmd.Flags().StringVarP(&analyseOptions.RulesPath, "rules", "r", "", "Path to the rules file. Defaults to rules.path from the configuration.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.ReportFormat, "format", "f", "", "Format for the report with results: sarif or json.")
	AnalyseCmd.Flags().BoolP("help", "h", false, "Show help for the analyse command.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.OutputPath, "output", "o", "", "Path to the output file or directory. The report is printed to stdout when omitted.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.SyntaxOnly, "syntax-only", false, "Only check that the files parse; no issues are reported.")
	AnalyseCmd.Flags().BoolVarP(&analyseOptions.Watch, "watch", "w", false, "Analyse the file again every time it changes.")
	AnalyseCmd.Flags().IntVarP(&analyseOptions.Threads, "threads", "j", 1, "Number of analyzer processes to run at once.")
}
