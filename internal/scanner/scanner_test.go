package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/cfamily-bridge/internal/analyzer"
	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/messagehandler"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	seen     []string
	running  atomic.Int32
	maxSeen  atomic.Int32
	outcomes map[string]func() (*analyzer.Result, error)
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analyzer.Request, consumer messagehandler.IssueConsumer) (*analyzer.Result, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.maxSeen.Load()
		if n <= peak || f.maxSeen.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)

	f.mu.Lock()
	f.seen = append(f.seen, req.File)
	f.mu.Unlock()

	if outcome, ok := f.outcomes[req.File]; ok {
		return outcome()
	}
	consumer.Accept(req.File, []*issues.Issue{{RuleKey: "cpp:S100", FilePath: req.File}})
	return &analyzer.Result{File: req.File, Succeeded: true, IssueCount: 1}, nil
}

func TestScanFiles(t *testing.T) {
	fake := &fakeAnalyzer{outcomes: map[string]func() (*analyzer.Result, error){
		"/src/broken.cpp": func() (*analyzer.Result, error) {
			return &analyzer.Result{File: "/src/broken.cpp", ExitCode: 1}, nil
		},
		"/src/garbage.cpp": func() (*analyzer.Result, error) {
			return &analyzer.Result{File: "/src/garbage.cpp"}, errors.New("invalid analyzer protocol data")
		},
	}}
	collector := issues.NewCollector()
	s := New(fake, 2, nil)

	requests := []analyzer.Request{
		{File: "/src/a.cpp"}, {File: "/src/broken.cpp"}, {File: "/src/b.cpp"}, {File: "/src/garbage.cpp"},
	}
	results, err := s.ScanFiles(context.Background(), requests, collector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4")

	require.Len(t, results.Launches, 4)
	assert.Equal(t, StatusOK, results.Launches[0].Status)
	assert.Equal(t, StatusFailed, results.Launches[1].Status)
	assert.Contains(t, results.Launches[1].Message, "exit code 1")
	assert.Equal(t, StatusOK, results.Launches[2].Status)
	assert.Equal(t, StatusFailed, results.Launches[3].Status)
	assert.Equal(t, 2, results.Failed())

	assert.Equal(t, 2, collector.Len())
	assert.LessOrEqual(t, fake.maxSeen.Load(), int32(2))
	assert.Len(t, fake.seen, 4)
}

func TestScanFilesAllSucceeded(t *testing.T) {
	s := New(&fakeAnalyzer{}, 0, nil)
	results, err := s.ScanFiles(context.Background(), []analyzer.Request{{File: "/src/a.cpp"}}, issues.NewCollector())
	require.NoError(t, err)
	assert.Zero(t, results.Failed())
}

func TestPrepareRequests(t *testing.T) {
	requests, err := PrepareRequests([]string{"main.cpp"}, []string{"-std=c11"}, true)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	assert.True(t, filepath.IsAbs(requests[0].File))
	assert.Equal(t, "main.cpp", filepath.Base(requests[0].File))
	assert.Equal(t, []string{"-std=c11"}, requests[0].Options)
	assert.True(t, requests[0].SyntaxOnly)
}

func TestCollectSources(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"main.cpp", "util.c", "util.h", "README.md", "sub/deep.cc", ".git/hook.c"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	sources, err := CollectSources(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "main.cpp"),
		filepath.Join(root, "sub", "deep.cc"),
		filepath.Join(root, "util.c"),
	}, sources)

	single, err := CollectSources(filepath.Join(root, "util.h"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "util.h")}, single)

	_, err = CollectSources(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("a.CPP"))
	assert.True(t, IsSourceFile("dir/b.mm"))
	assert.False(t, IsSourceFile("c.hpp"))
	assert.False(t, IsSourceFile("Makefile"))
}
