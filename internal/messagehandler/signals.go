package messagehandler

import "strings"

// internalRulePrefix marks messages that carry analyzer signals instead of
// findings.
const internalRulePrefix = "internal."

// Signals that fail the analysis. Each template takes the message text.
var internalSignals = map[string]string{
	"internal.InvalidInput":      "analysis failed: the analyzer rejected its input: %s",
	"internal.UnexpectedFailure": "analysis failed: the analyzer stopped on an unexpected failure: %s",
	"internal.UnsupportedConfig": "analysis failed: the analyzer does not support this configuration: %s",
}

func isInternal(ruleKey string) bool {
	return strings.HasPrefix(ruleKey, internalRulePrefix)
}
