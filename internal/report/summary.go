package report

import "github.com/scan-io-git/cfamily-bridge/internal/issues"

// CollectSeverityInfo counts issues per SARIF level, plus a total.
func CollectSeverityInfo(found []*issues.Issue) map[string]int {
	info := map[string]int{
		"error":   0,
		"warning": 0,
		"note":    0,
		"none":    0,
		"total":   0,
	}
	for _, issue := range found {
		info[toSarifLevel(issue.Severity)]++
		info["total"]++
	}
	return info
}
