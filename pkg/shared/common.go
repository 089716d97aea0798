package shared

import (
	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"
)

const PluginTypeScanner string = "scanner"

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SCANIO",
	MagicCookieValue: "a65de33ff91e68ab6f5cd1fd5abb1235294816f5",
}

// NewPluginMap returns the plugin set a scanner binary serves.
func NewPluginMap(impl Scanner) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginTypeScanner: &ScannerPlugin{Impl: impl},
	}
}

// Versions holds build information reported by the version command.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// HasFlags reports whether any flag was set explicitly on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	hasFlags := false
	flags.Visit(func(*pflag.Flag) {
		hasFlags = true
	})
	return hasFlags
}
