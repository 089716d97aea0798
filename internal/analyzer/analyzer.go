package analyzer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/cfamily-bridge/internal/messagehandler"
	"github.com/scan-io-git/cfamily-bridge/internal/processrunner"
	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
)

// ErrNoFile is returned for a request without a file to analyse.
var ErrNoFile = errors.New("analysis request has no file")

// ErrNoAnalyzer is returned when the analyzer executable is not configured.
var ErrNoAnalyzer = errors.New("analyzer path is not configured")

// Config describes how the analyzer process is launched.
type Config struct {
	Path             string
	IsScript         bool
	Arguments        []string
	Environment      map[string]string
	SensitiveKeys    []string
	Timeout          time.Duration
	WorkingDirectory string
}

// ConfigFrom extracts the analyzer settings from the tool configuration.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Path:          cfg.Analyzer.Path,
		IsScript:      cfg.Analyzer.IsScript,
		Arguments:     cfg.Analyzer.Arguments,
		Environment:   cfg.Analyzer.Environment,
		SensitiveKeys: cfg.Analyzer.SensitiveKeys,
		Timeout:       cfg.Analyzer.Timeout,
	}
}

// ProcessRunner runs one analyzer process.
type ProcessRunner interface {
	Execute(ctx context.Context, args *processrunner.Arguments) (*processrunner.Result, error)
}

// Rules is the rule set sent with every request.
type Rules interface {
	messagehandler.RulesConfig
	Properties() map[string]string
}

// Request is one file to analyse.
type Request struct {
	File             string
	Options          []string
	PchFile          string
	SyntaxOnly       bool
	CreateReproducer bool
}

func (r Request) flags() int32 {
	var flags int32
	if r.SyntaxOnly {
		flags |= protocol.FlagSyntaxOnly
	}
	if r.CreateReproducer {
		flags |= protocol.FlagCreateReproducer
	}
	return flags
}

// Result is the outcome of one analysis.
type Result struct {
	ID         string        `json:"id"`
	File       string        `json:"file"`
	ExitCode   int           `json:"exit_code"`
	Succeeded  bool          `json:"succeeded"`
	IssueCount int           `json:"issue_count"`
	Canceled   bool          `json:"canceled"`
	TimedOut   bool          `json:"timed_out"`
	Duration   time.Duration `json:"duration"`
}

// Analyzer sends analysis requests to the external analyzer and dispatches
// what it reports.
type Analyzer struct {
	cfg       Config
	runner    ProcessRunner
	rules     Rules
	converter messagehandler.IssueConverter
	logger    hclog.Logger
	newID     func() string
}

// New creates an Analyzer.
func New(cfg Config, runner ProcessRunner, rules Rules, converter messagehandler.IssueConverter, logger hclog.Logger) *Analyzer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Analyzer{
		cfg:       cfg,
		runner:    runner,
		rules:     rules,
		converter: converter,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Analyze runs the analyzer for req and hands accepted issues to consumer.
//
// Issues are only dispatched when the whole response was decoded and the run
// was not canceled. A decode failure is returned as an error wrapping
// protocol.ErrInvalidData; a non-zero exit code only marks the result as
// failed.
func (a *Analyzer) Analyze(ctx context.Context, req Request, consumer messagehandler.IssueConsumer) (*Result, error) {
	if req.File == "" {
		return nil, ErrNoFile
	}
	if a.cfg.Path == "" {
		return nil, ErrNoAnalyzer
	}

	result := &Result{ID: a.newID(), File: req.File}
	logger := a.logger.With("request", result.ID, "file", req.File)

	var handler messagehandler.Handler = messagehandler.NoOp
	if !req.SyntaxOnly {
		handler = messagehandler.New(req.File, a.rules, a.converter, consumer, logger.Named("handler"))
	}

	wireRequest := protocol.Request{
		File:       req.File,
		Flags:      req.flags(),
		PchFile:    req.PchFile,
		Options:    req.Options,
		Properties: a.rules.Properties(),
	}

	args := &processrunner.Arguments{
		ExePath:               a.cfg.Path,
		IsScript:              a.cfg.IsScript,
		CmdLineArgs:           a.cfg.Arguments,
		WorkingDirectory:      a.cfg.WorkingDirectory,
		EnvironmentVariables:  a.cfg.Environment,
		SensitivePropertyKeys: a.cfg.SensitiveKeys,
		Timeout:               a.cfg.Timeout,
		HandleInputStream: func(w io.Writer) error {
			return protocol.WriteRequest(w, wireRequest)
		},
		HandleOutputStream: func(r io.Reader) error {
			return protocol.Read(r, func(msg protocol.Message) {
				handler.HandleMessage(&msg)
			})
		},
		HandleErrorStream: func(r io.Reader) error {
			return logLines(logger.Named("stderr"), r)
		},
	}

	logger.Debug("analysis starting", "syntaxOnly", req.SyntaxOnly, "options", len(req.Options))
	start := time.Now()
	runResult, err := a.runner.Execute(ctx, args)
	result.Duration = time.Since(start)
	if err != nil {
		if runResult != nil {
			result.ExitCode = runResult.ExitCode
		}
		logger.Error("analysis failed", "error", err)
		return result, fmt.Errorf("analysis of %q failed: %w", req.File, err)
	}

	result.ExitCode = runResult.ExitCode
	result.Canceled = runResult.Canceled
	result.TimedOut = runResult.TimedOut

	if result.Canceled {
		logger.Info("analysis canceled", "timedOut", result.TimedOut)
		return result, nil
	}

	handler.Complete()
	result.IssueCount = handler.IssueCount()
	result.Succeeded = runResult.Succeeded() && handler.AnalysisSucceeded()

	if runResult.ExitCode != 0 {
		logger.Error("analyzer exited with a non-zero code", "exitCode", runResult.ExitCode)
	}
	logger.Info("analysis finished",
		"succeeded", result.Succeeded,
		"issues", result.IssueCount,
		"duration", result.Duration,
	)
	return result, nil
}

// logLines forwards the analyzer's diagnostics line by line.
func logLines(logger hclog.Logger, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Debug(scanner.Text())
	}
	return scanner.Err()
}
