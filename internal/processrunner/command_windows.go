//go:build windows

package processrunner

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// buildCommand runs scripts through cmd.exe with a command line we quote
// ourselves, since Go's own escaping does not account for cmd.exe parsing.
func buildCommand(ctx context.Context, args *Arguments) *exec.Cmd {
	if !args.IsScript {
		return exec.CommandContext(ctx, args.ExePath, args.CmdLineArgs...)
	}

	comspec := os.Getenv("COMSPEC")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	line := QuoteArgument(args.ExePath, true)
	if len(args.CmdLineArgs) > 0 {
		line += " " + CommandLine(args.CmdLineArgs, true)
	}

	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: strings.Join([]string{quoteArgv(comspec), "/d", "/s", "/c", `"` + line + `"`}, " "),
	}
	return cmd
}
