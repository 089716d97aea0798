package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/pkg/shared/files"
)

// Report formats.
const (
	FormatSARIF = "sarif"
	FormatJSON  = "json"
)

// DefaultToolName is the driver name written into SARIF reports.
const DefaultToolName = "cfamily-bridge"

// jsonReport is the layout of a JSON report.
type jsonReport struct {
	Summary map[string]int  `json:"summary"`
	Issues  []*issues.Issue `json:"issues"`
}

// WriteJSON writes the issues as an indented JSON document.
func WriteJSON(w io.Writer, found []*issues.Issue) error {
	if found == nil {
		found = []*issues.Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{Summary: CollectSeverityInfo(found), Issues: found}); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

// Write creates the report at path in the given format and returns the file
// it wrote. A folder, or a path without an extension, gets a report file
// named after the format inside it. Missing folders are created.
func Write(path, format string, found []*issues.Issue) (string, error) {
	if !IsSupported(format) {
		return "", fmt.Errorf("unsupported report format %q", format)
	}
	fullPath, folder, err := files.DetermineFileFullPath(path, "report."+Extension(format))
	if err != nil {
		return "", err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return "", err
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create report %q: %w", fullPath, err)
	}
	defer func() { _ = file.Close() }()

	if err := WriteTo(file, format, found); err != nil {
		return "", err
	}
	return fullPath, file.Close()
}

// WriteTo writes the report to w in the given format.
func WriteTo(w io.Writer, format string, found []*issues.Issue) error {
	switch strings.ToLower(format) {
	case FormatSARIF:
		return WriteSARIF(w, DefaultToolName, found)
	case FormatJSON:
		return WriteJSON(w, found)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// IsSupported reports whether format can be written.
func IsSupported(format string) bool {
	switch strings.ToLower(format) {
	case FormatSARIF, FormatJSON:
		return true
	}
	return false
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	if strings.EqualFold(format, FormatJSON) {
		return "json"
	}
	return "sarif"
}
