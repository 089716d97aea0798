package report

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/cfamily-bridge/internal/issues"
)

const informationURI = "https://github.com/scan-io-git/cfamily-bridge"

// levelOrder sorts results from the most to the least severe.
var levelOrder = map[string]int{
	"error":   0,
	"warning": 1,
	"note":    2,
	"none":    3,
}

// WriteSARIF writes the issues as a SARIF 2.1.0 log with a single run.
func WriteSARIF(w io.Writer, toolName string, found []*issues.Issue) error {
	report, err := BuildSARIF(toolName, found)
	if err != nil {
		return err
	}
	if err := report.PrettyWrite(w); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	return nil
}

// BuildSARIF converts the issues into a SARIF report. Rules are declared
// once per key; results are ordered by level.
func BuildSARIF(toolName string, found []*issues.Issue) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, informationURI)
	for _, issue := range found {
		level := toSarifLevel(issue.Severity)
		rule := run.AddRule(issue.RuleKey).
			WithDescription(issue.RuleKey).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
		rule.WithProperties(sarif.Properties{
			"type":     issue.Type,
			"severity": issue.Severity,
		})

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(issue.Message)).
			WithLevel(level).
			WithLocations([]*sarif.Location{newLocation(issue.FilePath, issue.Range, "")})
		if codeFlows := toCodeFlows(issue.Flows); len(codeFlows) > 0 {
			result.CodeFlows = codeFlows
		}

		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("Level", level)
		result.Add("fingerprint", fingerprint(issue))
		if len(issue.Fixes) > 0 {
			result.Add("quickFixes", len(issue.Fixes))
		}
		run.AddResult(result)
	}

	sortResultsByLevel(run)
	report.AddRun(run)
	return report, nil
}

func newLocation(path string, r *issues.TextRange, message string) *sarif.Location {
	uri := artifactURI(path)
	physical := &sarif.PhysicalLocation{
		ArtifactLocation: &sarif.ArtifactLocation{URI: &uri},
	}
	if r != nil {
		physical.Region = toRegion(r)
	}

	loc := &sarif.Location{PhysicalLocation: physical}
	if message != "" {
		text := message
		loc.Message = &sarif.Message{Text: &text}
	}
	return loc
}

func toRegion(r *issues.TextRange) *sarif.Region {
	region := &sarif.Region{StartLine: intPtr(r.StartLine)}
	if r.StartColumn > 0 {
		region.StartColumn = intPtr(r.StartColumn)
	}
	if r.EndLine > 0 {
		region.EndLine = intPtr(r.EndLine)
	}
	if r.EndColumn > 0 {
		region.EndColumn = intPtr(r.EndColumn)
	}
	return region
}

// toCodeFlows maps every issue flow onto a code flow with a single thread.
func toCodeFlows(flows []issues.Flow) []*sarif.CodeFlow {
	var codeFlows []*sarif.CodeFlow
	for _, flow := range flows {
		if len(flow.Locations) == 0 {
			continue
		}
		threadFlow := &sarif.ThreadFlow{}
		for _, l := range flow.Locations {
			threadFlow.Locations = append(threadFlow.Locations, &sarif.ThreadFlowLocation{
				Location: newLocation(l.FilePath, l.Range, l.Message),
			})
		}
		codeFlows = append(codeFlows, &sarif.CodeFlow{ThreadFlows: []*sarif.ThreadFlow{threadFlow}})
	}
	return codeFlows
}

// artifactURI turns absolute paths into file URIs and keeps relative ones.
func artifactURI(path string) string {
	slashed := filepath.ToSlash(path)
	switch {
	case strings.HasPrefix(slashed, "/"):
		return "file://" + slashed
	case len(slashed) > 1 && slashed[1] == ':':
		return "file:///" + slashed
	default:
		return slashed
	}
}

// fingerprint identifies an issue across runs independently of its ID.
func fingerprint(issue *issues.Issue) string {
	var line int
	if issue.Range != nil {
		line = issue.Range.StartLine
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%d|%s", issue.RuleKey, filepath.ToSlash(issue.FilePath), line, issue.Message)))
	return hex.EncodeToString(sum[:])
}

func sortResultsByLevel(run *sarif.Run) {
	sort.SliceStable(run.Results, func(i, j int) bool {
		return levelOrder[resultLevel(run.Results[i])] < levelOrder[resultLevel(run.Results[j])]
	})
}

func resultLevel(r *sarif.Result) string {
	if r.Level == nil {
		return "none"
	}
	return *r.Level
}

// toSarifLevel maps issue severities onto SARIF levels.
func toSarifLevel(severity string) string {
	switch strings.ToUpper(severity) {
	case "BLOCKER", "CRITICAL":
		return "error"
	case "MAJOR":
		return "warning"
	case "MINOR", "INFO":
		return "note"
	default:
		return "none"
	}
}

func intPtr(v int) *int {
	return &v
}
