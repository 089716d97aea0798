package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/cfamily-bridge/cmd/analyse"
	"github.com/scan-io-git/cfamily-bridge/cmd/version"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
	sharederrors "github.com/scan-io-git/cfamily-bridge/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "cfamily [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "cfamily runs the C/C++ analyzer and reports the issues it finds.",
		Long: `cfamily drives the out-of-process C/C++ analysis engine: it sends analysis requests,
	decodes the findings, filters them by the active rules and writes SARIF or JSON reports.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		var cmdErr *sharederrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	optional := false
	if cfgFile == "" {
		cfgFile = config.ConfigPathFromEnv()
	}
	if cfgFile == "" {
		cfgFile = config.DefaultConfigFile
		optional = true
	}
	AppConfig, err = config.LoadConfig(cfgFile, optional)
	if err != nil {
		fmt.Printf("initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	analyse.Init(AppConfig)
	version.Init(AppConfig)
}
