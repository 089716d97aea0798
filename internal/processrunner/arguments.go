package processrunner

import (
	"errors"
	"io"
	"time"
)

// Exit codes reported by the runner that do not come from the child.
const (
	// CancelledExitCode is reported when the child was killed because the
	// context was canceled or the timeout elapsed.
	CancelledExitCode = -1
	// ErrorExitCode is reported when the process could not be started.
	ErrorExitCode = -2
)

// ErrNilArguments is returned by Execute when called without arguments.
var ErrNilArguments = errors.New("processrunner: args must not be nil")

// Arguments describes a single process invocation.
type Arguments struct {
	// ExePath is the executable, or the script when IsScript is set.
	ExePath string
	// IsScript launches ExePath through the platform shell.
	IsScript bool
	// CmdLineArgs are passed one by one, each quoted on its own.
	CmdLineArgs []string
	// WorkingDirectory defaults to the current directory.
	WorkingDirectory string
	// EnvironmentVariables are applied on top of the inherited environment.
	EnvironmentVariables map[string]string
	// SensitivePropertyKeys name arguments whose values never reach the logs.
	SensitivePropertyKeys []string
	// Timeout kills the process after the given duration. Zero disables it.
	Timeout time.Duration

	// HandleInputStream, when set, gets the child's standard input. The
	// stream is closed once the handler returns.
	HandleInputStream func(w io.Writer) error
	// HandleOutputStream, when set, consumes the child's standard output.
	// Whatever it leaves unread is drained.
	HandleOutputStream func(r io.Reader) error
	// HandleErrorStream, when set, consumes the child's standard error.
	HandleErrorStream func(r io.Reader) error
}

// Result is the outcome of Execute.
type Result struct {
	ExitCode int
	// Canceled is set when the context ended before or during the run.
	Canceled bool
	// TimedOut is set when Arguments.Timeout elapsed.
	TimedOut bool
	// Output holds standard output and error for streams without a handler.
	Output string
}

// Succeeded reports a normal exit with code zero.
func (r *Result) Succeeded() bool {
	return r != nil && r.ExitCode == 0 && !r.Canceled
}
