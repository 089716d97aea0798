package analyse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/config"
)

// TestHelperProcess is not a real test: it acts as the analyzer for the
// end-to-end tests, reporting one issue on line 1 of every file.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	req, err := protocol.ReadRequest(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rw := protocol.NewResponseWriter(os.Stdout)
	if req.Flags&protocol.FlagSyntaxOnly == 0 {
		_ = rw.WriteMessage(protocol.Message{
			RuleKey: "S100", Filename: req.File,
			Line: 1, Column: 1, EndLine: 1, EndColumn: 4,
			Text: "found in " + filepath.Base(req.File),
		})
	}
	_ = rw.Close()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig() *config.Config {
	return &config.Config{
		Analyzer: config.Analyzer{
			Path:        os.Args[0],
			Arguments:   []string{"-test.run=TestHelperProcess", "--"},
			Environment: map[string]string{"GO_WANT_HELPER_PROCESS": "1"},
		},
		Output: config.Output{Format: "sarif"},
	}
}

func TestValidateAnalyseArgs(t *testing.T) {
	tmpDir := t.TempDir()
	source := writeFile(t, filepath.Join(tmpDir, "main.cpp"), "int main() {}")
	rulesFile := writeFile(t, filepath.Join(tmpDir, "rules.yml"), "language: cpp\n")

	cfg := testConfig()
	cfgWithRules := testConfig()
	cfgWithRules.Rules.Path = rulesFile

	tests := []struct {
		name          string
		options       RunOptionsAnalyse
		cfg           *config.Config
		args          []string
		argsLenAtDash int
		wantTargets   []string
		wantCompiler  []string
		wantFormat    string
		wantErr       string
	}{
		{
			// valid: cfamily analyse --rules rules.yml main.cpp
			name:          "Valid target and rules",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1},
			cfg:           cfg,
			args:          []string{source},
			argsLenAtDash: -1,
			wantTargets:   []string{source},
			wantFormat:    "sarif",
		},
		{
			// valid: cfamily analyse main.cpp -- -std=c++17 -DNDEBUG
			name:          "Compiler options after dash, rules from config",
			options:       RunOptionsAnalyse{Threads: 1, ReportFormat: "json"},
			cfg:           cfgWithRules,
			args:          []string{source, "-std=c++17", "-DNDEBUG"},
			argsLenAtDash: 1,
			wantTargets:   []string{source},
			wantCompiler:  []string{"-std=c++17", "-DNDEBUG"},
			wantFormat:    "json",
		},
		{
			name:          "Syntax only needs no rules",
			options:       RunOptionsAnalyse{Threads: 1, SyntaxOnly: true},
			cfg:           cfg,
			args:          []string{tmpDir},
			argsLenAtDash: -1,
			wantTargets:   []string{tmpDir},
			wantFormat:    "sarif",
		},
		{
			name:          "Missing target",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1},
			cfg:           cfg,
			args:          []string{"-std=c++17"},
			argsLenAtDash: 0,
			wantErr:       "at least one target path must be specified",
		},
		{
			name:          "Invalid target path",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1},
			cfg:           cfg,
			args:          []string{filepath.Join(tmpDir, "missing.cpp")},
			argsLenAtDash: -1,
			wantErr:       "the target path does not exist",
		},
		{
			name:          "Invalid threads",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 0},
			cfg:           cfg,
			args:          []string{source},
			argsLenAtDash: -1,
			wantErr:       "the 'threads' flag must be a positive integer",
		},
		{
			name:          "Watch needs a single file",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1, Watch: true},
			cfg:           cfg,
			args:          []string{tmpDir},
			argsLenAtDash: -1,
			wantErr:       "the 'watch' flag requires a file",
		},
		{
			name:          "Unsupported format",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1, ReportFormat: "html"},
			cfg:           cfg,
			args:          []string{source},
			argsLenAtDash: -1,
			wantErr:       "unsupported format",
		},
		{
			name:          "Missing rules",
			options:       RunOptionsAnalyse{Threads: 1},
			cfg:           cfg,
			args:          []string{source},
			argsLenAtDash: -1,
			wantErr:       "the 'rules' flag must be specified",
		},
		{
			name:          "Missing analyzer",
			options:       RunOptionsAnalyse{RulesPath: rulesFile, Threads: 1},
			cfg:           &config.Config{},
			args:          []string{source},
			argsLenAtDash: -1,
			wantErr:       "the analyzer path must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := tt.options
			err := validateAnalyseArgs(&options, tt.cfg, tt.args, tt.argsLenAtDash)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTargets, options.Targets)
			assert.Equal(t, tt.wantCompiler, options.CompilerOptions)
			assert.Equal(t, tt.wantFormat, options.ReportFormat)
		})
	}
}

func TestCollectTargets(t *testing.T) {
	tmpDir := t.TempDir()
	a := writeFile(t, filepath.Join(tmpDir, "a.cpp"), "")
	b := writeFile(t, filepath.Join(tmpDir, "lib", "b.c"), "")
	writeFile(t, filepath.Join(tmpDir, "lib", "b.h"), "")

	sources, err := collectTargets([]string{tmpDir, a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, sources)
}

func TestAnalyseJobWritesReport(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "src", "main.cpp"), "int main() {}")
	writeFile(t, filepath.Join(tmpDir, "src", "util.cc"), "void f() {}")
	rulesFile := writeFile(t, filepath.Join(tmpDir, "rules.yml"), "language: cpp\nrules:\n  - key: S100\n    severity: CRITICAL\n")

	options := RunOptionsAnalyse{
		RulesPath:    rulesFile,
		ReportFormat: "json",
		OutputPath:   filepath.Join(tmpDir, "out"),
		Threads:      2,
	}
	cfg := testConfig()
	require.NoError(t, validateAnalyseArgs(&options, cfg, []string{filepath.Join(tmpDir, "src")}, -1))

	job, err := newAnalyseJob(cfg, &options, hclog.NewNullLogger(), &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, job.run(context.Background()))

	data, err := os.ReadFile(filepath.Join(tmpDir, "out", "report.json"))
	require.NoError(t, err)

	var decoded struct {
		Summary map[string]int `json:"summary"`
		Issues  []struct {
			RuleKey string `json:"rule_key"`
			Message string `json:"message"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.Summary["total"])
	assert.Equal(t, 2, decoded.Summary["error"])

	messages := []string{decoded.Issues[0].Message, decoded.Issues[1].Message}
	assert.ElementsMatch(t, []string{"found in main.cpp", "found in util.cc"}, messages)
	assert.Equal(t, "cpp:S100", decoded.Issues[0].RuleKey)
}

func TestAnalyseJobSyntaxOnlyToStdout(t *testing.T) {
	tmpDir := t.TempDir()
	source := writeFile(t, filepath.Join(tmpDir, "main.cpp"), "int main() {}")

	options := RunOptionsAnalyse{SyntaxOnly: true, Threads: 1}
	cfg := testConfig()
	require.NoError(t, validateAnalyseArgs(&options, cfg, []string{source}, -1))

	var stdout bytes.Buffer
	job, err := newAnalyseJob(cfg, &options, hclog.NewNullLogger(), &stdout)
	require.NoError(t, err)
	require.NoError(t, job.run(context.Background()))

	assert.Contains(t, stdout.String(), `"version": "2.1.0"`)
	assert.NotContains(t, stdout.String(), "found in")
}

func TestAnalyseJobFailsWithoutAnalyzer(t *testing.T) {
	tmpDir := t.TempDir()
	source := writeFile(t, filepath.Join(tmpDir, "main.cpp"), "int main() {}")

	cfg := testConfig()
	cfg.Analyzer.Path = filepath.Join(tmpDir, "no-such-analyzer")
	options := RunOptionsAnalyse{SyntaxOnly: true, Threads: 1, Targets: []string{source}, ReportFormat: "sarif"}

	job, err := newAnalyseJob(cfg, &options, hclog.NewNullLogger(), &bytes.Buffer{})
	require.NoError(t, err)

	err = job.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 analyses failed")
}

func TestAnalyseJobLogsChangesOnRerun(t *testing.T) {
	tmpDir := t.TempDir()
	source := writeFile(t, filepath.Join(tmpDir, "main.cpp"), "int main() {}")
	rulesFile := writeFile(t, filepath.Join(tmpDir, "rules.yml"), "language: cpp\nrules:\n  - key: S100\n")

	options := RunOptionsAnalyse{RulesPath: rulesFile, ReportFormat: "json", Threads: 1}
	cfg := testConfig()
	require.NoError(t, validateAnalyseArgs(&options, cfg, []string{source}, -1))

	var logs bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Info})
	job, err := newAnalyseJob(cfg, &options, logger, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, job.run(context.Background()))
	assert.NotContains(t, logs.String(), "since the previous run")

	require.NoError(t, job.run(context.Background()))
	assert.Contains(t, logs.String(), "no issue changes since the previous run")

	job.previous = append(job.previous, &issues.Issue{RuleKey: "cpp:S999", FilePath: source})
	require.NoError(t, job.run(context.Background()))
	assert.Contains(t, logs.String(), "resolved issue")
}
