//go:build !windows

package processrunner

import (
	"context"
	"os/exec"
)

// buildCommand runs scripts through /bin/sh; arguments are passed as argv so
// no further quoting is needed.
func buildCommand(ctx context.Context, args *Arguments) *exec.Cmd {
	if !args.IsScript {
		return exec.CommandContext(ctx, args.ExePath, args.CmdLineArgs...)
	}
	return exec.CommandContext(ctx, "/bin/sh", append([]string{args.ExePath}, args.CmdLineArgs...)...)
}
