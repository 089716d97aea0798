package processrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// waitDelay bounds how long Wait keeps the pipes open after the child exits,
// in case a grandchild inherited them.
const waitDelay = 5 * time.Second

// Runner starts external processes and pumps their standard streams.
// A Runner holds no per-call state and can be shared.
type Runner struct {
	logger hclog.Logger
}

// New creates a Runner that logs through logger.
func New(logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{logger: logger}
}

// Execute runs the process described by args and blocks until it exits and
// every stream handler has returned.
//
// Failing to start the process is reported through ErrorExitCode, and
// cancellation through CancelledExitCode; neither is an error. The returned
// error is non-nil only for nil args or when a stream handler failed.
func (r *Runner) Execute(ctx context.Context, args *Arguments) (*Result, error) {
	if args == nil {
		return nil, ErrNilArguments
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		r.logger.Debug("cancellation requested before the process was started", "exe", args.ExePath)
		return &Result{ExitCode: 0, Canceled: true}, nil
	}

	if err := checkExecutable(args); err != nil {
		r.logger.Error(fmt.Sprintf("the specified executable does not exist: %s", args.ExePath))
		return &Result{ExitCode: ErrorExitCode}, nil
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if args.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, args.Timeout)
	}
	defer cancel()

	cmd := buildCommand(runCtx, args)
	cmd.Dir = args.WorkingDirectory
	cmd.Env = mergeEnvironment(r.logger, os.Environ(), args.EnvironmentVariables, args.SensitivePropertyKeys)
	cmd.WaitDelay = waitDelay

	r.logger.Debug("executing process",
		"exe", args.ExePath,
		"args", CommandLine(RedactArguments(args.CmdLineArgs, args.SensitivePropertyKeys), args.IsScript),
		"workingDirectory", args.WorkingDirectory,
	)

	p, err := r.attachStreams(cmd, args)
	if err != nil {
		r.logger.Error("failed to set up process streams", "exe", args.ExePath, "error", err)
		return &Result{ExitCode: ErrorExitCode}, nil
	}

	if err := cmd.Start(); err != nil {
		p.closeWriters()
		r.logger.Error(fmt.Sprintf("failed to start the process: %s", args.ExePath), "error", err)
		return &Result{ExitCode: ErrorExitCode}, nil
	}

	g := p.start()
	waitErr := cmd.Wait()
	p.closeWriters()
	pumpErr := g.Wait()

	result := r.classify(ctx, runCtx, args, waitErr)
	result.Output = p.output.String()

	if pumpErr != nil && !result.Canceled {
		return result, fmt.Errorf("process %q stream handling failed: %w", args.ExePath, pumpErr)
	}
	return result, nil
}

func (r *Runner) classify(ctx, runCtx context.Context, args *Arguments, waitErr error) *Result {
	result := &Result{}
	var exitErr *exec.ExitError

	switch {
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
		result.ExitCode = 0
		if waitErr != nil {
			r.logger.Debug("process output pipes stayed open after exit", "exe", args.ExePath)
		}
	case runCtx.Err() != nil:
		result.ExitCode = CancelledExitCode
		result.Canceled = true
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
			r.logger.Warn("process timed out and was killed", "exe", args.ExePath, "timeout", args.Timeout)
		} else {
			r.logger.Debug("process was killed because cancellation was requested", "exe", args.ExePath)
		}
		return result
	case errors.As(waitErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		r.logger.Error("failed waiting for the process", "exe", args.ExePath, "error", waitErr)
		result.ExitCode = ErrorExitCode
		return result
	}

	r.logger.Debug("process exited", "exe", args.ExePath, "exitCode", result.ExitCode)
	return result
}

// pumps owns the stream plumbing of one invocation.
type pumps struct {
	logger hclog.Logger
	args   *Arguments

	stdin         io.WriteCloser
	stdoutR       *io.PipeReader
	stdoutW       *io.PipeWriter
	stderrR       *io.PipeReader
	stderrW       *io.PipeWriter
	output        bytes.Buffer
	closedWriters bool
}

// attachStreams wires the command's standard streams before Start. Streams
// with a handler get a pipe; the others are logged and captured.
func (r *Runner) attachStreams(cmd *exec.Cmd, args *Arguments) (*pumps, error) {
	p := &pumps{logger: r.logger, args: args}

	if args.HandleInputStream != nil {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		p.stdin = stdin
	}

	var sink io.Writer
	if args.HandleOutputStream == nil || args.HandleErrorStream == nil {
		sink = io.MultiWriter(
			r.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true, ForceLevel: hclog.Debug}),
			&p.output,
		)
	}

	if args.HandleOutputStream != nil {
		p.stdoutR, p.stdoutW = io.Pipe()
		cmd.Stdout = p.stdoutW
	} else {
		cmd.Stdout = sink
	}

	if args.HandleErrorStream != nil {
		p.stderrR, p.stderrW = io.Pipe()
		cmd.Stderr = p.stderrW
	} else {
		cmd.Stderr = sink
	}
	return p, nil
}

// start launches one goroutine per handled stream.
func (p *pumps) start() *errgroup.Group {
	var g errgroup.Group

	if p.stdin != nil {
		g.Go(func() error {
			err := p.args.HandleInputStream(p.stdin)
			closeErr := p.stdin.Close()
			if err == nil {
				err = closeErr
			}
			if isClosedPipe(err) {
				p.logger.Debug("process closed its input before the request was fully written", "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("input stream: %w", err)
			}
			return nil
		})
	}
	if p.stdoutR != nil {
		g.Go(func() error {
			return consume("output stream", p.stdoutR, p.args.HandleOutputStream)
		})
	}
	if p.stderrR != nil {
		g.Go(func() error {
			return consume("error stream", p.stderrR, p.args.HandleErrorStream)
		})
	}
	return &g
}

// closeWriters ends the streams seen by the output handlers. Called once the
// process has exited and Wait has copied everything.
func (p *pumps) closeWriters() {
	if p.closedWriters {
		return
	}
	p.closedWriters = true
	if p.stdoutW != nil {
		_ = p.stdoutW.Close()
	}
	if p.stderrW != nil {
		_ = p.stderrW.Close()
	}
}

// consume runs handler on r and drains whatever it did not read, so the
// child never blocks on a full pipe.
func consume(name string, r *io.PipeReader, handler func(io.Reader) error) error {
	err := handler(r)
	if _, drainErr := io.Copy(io.Discard, r); err == nil && drainErr != nil {
		err = drainErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func isClosedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// checkExecutable verifies the target exists before anything is started.
func checkExecutable(args *Arguments) error {
	if args.ExePath == "" {
		return errors.New("empty executable path")
	}
	if args.IsScript {
		info, err := os.Stat(args.ExePath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%q is a directory", args.ExePath)
		}
		return nil
	}
	_, err := exec.LookPath(args.ExePath)
	return err
}
