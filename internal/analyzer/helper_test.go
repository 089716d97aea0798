package analyzer

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
	"github.com/scan-io-git/cfamily-bridge/internal/rules"
)

const testRules = `
language: cpp
rules:
  - key: S100
    severity: MINOR
    parameters:
      max: "10"
  - key: S200
    active: false
`

// TestHelperProcess is not a real test: it plays the analyzer when the tests
// below start the test binary with GO_WANT_HELPER_PROCESS set.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	mode := os.Args[len(os.Args)-1]
	if mode == "garbage" {
		fmt.Print("definitely not a response")
		return
	}

	req, err := protocol.ReadRequest(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "analysing", req.File)

	rw := protocol.NewResponseWriter(os.Stdout)
	switch mode {
	case "respond", "exit":
		writeStandardResponse(rw, req)
	case "sleep":
		_ = rw.Flush()
		time.Sleep(time.Minute)
	}
	_ = rw.Close()

	if mode == "exit" {
		os.Exit(3)
	}
}

// writeStandardResponse emits one issue on the file, one on another file,
// one of an inactive rule and one module-level issue, around metrics blocks.
func writeStandardResponse(rw *protocol.ResponseWriter, req *protocol.Request) {
	_ = rw.WriteMessage(protocol.Message{
		RuleKey: "S100", Filename: req.File,
		Line: 3, Column: 2, EndLine: 3, EndColumn: 9,
		Text: "limit is " + req.Properties["S100.max"],
	})
	_ = rw.WriteMeasures([]protocol.Measure{{Filename: req.File, Functions: 1, ExecLines: []byte{1, 0, 1}}})
	_ = rw.WriteMessage(protocol.Message{RuleKey: "S100", Filename: "/elsewhere/other.h", Line: 1, Column: 1, EndLine: 1, EndColumn: 2})
	_ = rw.WriteMessage(protocol.Message{RuleKey: "S200", Filename: req.File, Line: 1, Column: 1, EndLine: 1, EndColumn: 2})
	_ = rw.WriteSymbols([][]protocol.SymbolReference{{{Line: 1, Column: 1, EndLine: 1, EndColumn: 4}}})
	_ = rw.WriteMessage(protocol.Message{
		RuleKey: "S100", Line: -1, Column: -1, EndLine: -1, EndColumn: -1,
		Text: "options: " + strings.Join(req.Options, " "),
	})
}

// helperConfig launches the test binary as an analyzer in the given mode.
func helperConfig(mode string) Config {
	return Config{
		Path:        os.Args[0],
		Arguments:   []string{"-test.run=TestHelperProcess", "--", mode},
		Environment: map[string]string{"GO_WANT_HELPER_PROCESS": "1"},
		Timeout:     30 * time.Second,
	}
}

func testRulesConfig(t *testing.T) *rules.Config {
	t.Helper()
	cfg, err := rules.Parse([]byte(testRules))
	require.NoError(t, err)
	return cfg
}

func newTestLogger() (hclog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{
		Name:        "test",
		Level:       hclog.Trace,
		Output:      &buf,
		DisableTime: true,
	})
	return logger, &buf
}
