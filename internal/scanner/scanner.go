package scanner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/cfamily-bridge/internal/analyzer"
	"github.com/scan-io-git/cfamily-bridge/internal/messagehandler"
)

// Launch statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Analyzer analyses a single file.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request, consumer messagehandler.IssueConsumer) (*analyzer.Result, error)
}

// LaunchResult is the outcome of one file of a batch.
type LaunchResult struct {
	Request analyzer.Request `json:"request"`
	Result  *analyzer.Result `json:"result,omitempty"`
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
}

// LaunchesResult aggregates a batch, in request order.
type LaunchesResult struct {
	Launches []LaunchResult `json:"launches"`
}

// Failed returns the number of launches that did not succeed.
func (r LaunchesResult) Failed() int {
	n := 0
	for _, l := range r.Launches {
		if l.Status != StatusOK {
			n++
		}
	}
	return n
}

// Scanner analyses several files with a bounded number of analyzer
// processes running at once.
type Scanner struct {
	analyzer       Analyzer
	concurrentJobs int
	logger         hclog.Logger
}

// New creates a Scanner. concurrentJobs below one means one.
func New(a Analyzer, concurrentJobs int, logger hclog.Logger) *Scanner {
	if concurrentJobs < 1 {
		concurrentJobs = 1
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{analyzer: a, concurrentJobs: concurrentJobs, logger: logger}
}

// PrepareRequests builds one request per file, with absolute paths and the
// same compiler options.
func PrepareRequests(paths []string, options []string, syntaxOnly bool) ([]analyzer.Request, error) {
	requests := make([]analyzer.Request, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", p, err)
		}
		requests = append(requests, analyzer.Request{File: abs, Options: options, SyntaxOnly: syntaxOnly})
	}
	return requests, nil
}

// ScanFiles analyses every request and reports each outcome. The returned
// error is set when at least one analysis failed.
func (s *Scanner) ScanFiles(ctx context.Context, requests []analyzer.Request, consumer messagehandler.IssueConsumer) (LaunchesResult, error) {
	s.logger.Info("scan starting", "total", len(requests), "goroutines", s.concurrentJobs)

	results := LaunchesResult{Launches: make([]LaunchResult, len(requests))}

	var g errgroup.Group
	g.SetLimit(s.concurrentJobs)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			s.logger.Debug("analysis started", "#", i+1, "file", req.File)
			results.Launches[i] = s.scanFile(ctx, req, consumer)
			return nil
		})
	}
	_ = g.Wait()

	if failed := results.Failed(); failed > 0 {
		s.logger.Warn("scan finished with failures", "failed", failed, "total", len(requests))
		return results, fmt.Errorf("%d of %d analyses failed", failed, len(requests))
	}
	s.logger.Info("scan finished", "total", len(requests))
	return results, nil
}

func (s *Scanner) scanFile(ctx context.Context, req analyzer.Request, consumer messagehandler.IssueConsumer) LaunchResult {
	launch := LaunchResult{Request: req, Status: StatusOK}

	result, err := s.analyzer.Analyze(ctx, req, consumer)
	launch.Result = result
	switch {
	case err != nil:
		launch.Status = StatusFailed
		launch.Message = err.Error()
	case result.Canceled:
		launch.Status = StatusFailed
		launch.Message = "analysis was canceled"
	case !result.Succeeded:
		launch.Status = StatusFailed
		launch.Message = fmt.Sprintf("analysis failed with exit code %d", result.ExitCode)
	}
	return launch
}
