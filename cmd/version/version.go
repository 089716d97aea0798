package version

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/cfamily-bridge/pkg/shared"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// CoreVersions holds version information for the tool and its analyzer.
type CoreVersions struct {
	Versions     shared.Versions `json:"versions"`
	AnalyzerMeta AnalyzerMeta    `json:"analyzer_meta"`
}

// AnalyzerMeta describes the configured analyzer.
type AnalyzerMeta struct {
	Path      string `json:"path"`
	Version   string `json:"version"`
	Available bool   `json:"available"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and the analyzer",
		Run: func(cmd *cobra.Command, args []string) {
			versionInfo := shared.Versions{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
			}
			version := CoreVersions{
				Versions:     versionInfo,
				AnalyzerMeta: getAnalyzerMeta(AppConfig),
			}

			printVersionInfo(cmd.OutOrStdout(), &version)
		},
	}
}

// readVersionFile reads and parses the version file as JSON.
func readVersionFile(versionFilePath string) string {
	var meta struct {
		Version string `json:"version"`
	}
	data, err := os.ReadFile(versionFilePath)
	if err != nil {
		return "unknown"
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Version == "" {
		return "unknown"
	}
	return meta.Version
}

// getAnalyzerMeta resolves the analyzer executable and reads the VERSION file
// shipped next to it.
func getAnalyzerMeta(cfg *config.Config) AnalyzerMeta {
	meta := AnalyzerMeta{Version: "unknown"}
	if cfg == nil || cfg.Analyzer.Path == "" {
		return meta
	}
	meta.Path = cfg.Analyzer.Path

	resolved := cfg.Analyzer.Path
	if cfg.Analyzer.IsScript {
		if _, err := os.Stat(resolved); err != nil {
			return meta
		}
	} else {
		p, err := exec.LookPath(resolved)
		if err != nil {
			return meta
		}
		resolved = p
	}
	meta.Available = true
	meta.Version = readVersionFile(filepath.Join(filepath.Dir(resolved), "VERSION"))
	return meta
}

// printVersionInfo prints the version information for the tool and the analyzer.
func printVersionInfo(w io.Writer, versions *CoreVersions) {
	fmt.Fprintf(w, "Core Version: v%s\n", versions.Versions.Version)
	analyzer := versions.AnalyzerMeta
	switch {
	case analyzer.Path == "":
		fmt.Fprintln(w, "Analyzer: not configured")
	case !analyzer.Available:
		fmt.Fprintf(w, "Analyzer: %s (not found)\n", analyzer.Path)
	default:
		fmt.Fprintf(w, "Analyzer: %s (v%s)\n", analyzer.Path, analyzer.Version)
	}
	fmt.Fprintf(w, "Go Version: %s\n", versions.Versions.GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", versions.Versions.BuildTime)
}
