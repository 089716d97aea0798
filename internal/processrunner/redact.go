package processrunner

import (
	"strings"
	"unicode"
)

// SensitiveDataPlaceholder replaces sensitive values in log output.
const SensitiveDataPlaceholder = "<sensitive data removed>"

// RedactArguments returns a copy of args with the values of sensitive keys
// replaced by SensitiveDataPlaceholder.
//
// Keys are matched case-insensitively anywhere in an argument, so
// "/d:sonar.password=x", "-Dsonar.password=x" and "sonar.password =x" are all
// caught. The value is everything after the first '=' or ':' following the
// key. When the key ends the argument, the next argument is taken as its
// value and redacted too.
func RedactArguments(args []string, sensitiveKeys []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	if len(sensitiveKeys) == 0 {
		return out
	}

	for i := 0; i < len(out); i++ {
		redacted, valueFollows := redactArgument(out[i], sensitiveKeys)
		out[i] = redacted
		if valueFollows && i+1 < len(out) {
			out[i+1] = SensitiveDataPlaceholder
			i++
		}
	}
	return out
}

// IsSensitive reports whether name matches one of the sensitive keys.
func IsSensitive(name string, sensitiveKeys []string) bool {
	for _, k := range sensitiveKeys {
		k = strings.TrimSpace(k)
		if k != "" && indexFold(name, k) >= 0 {
			return true
		}
	}
	return false
}

func redactArgument(arg string, sensitiveKeys []string) (string, bool) {
	for _, k := range sensitiveKeys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		idx := indexFold(arg, k)
		if idx < 0 {
			continue
		}

		rest := strings.TrimLeftFunc(arg[idx+len(k):], unicode.IsSpace)
		if rest == "" {
			return arg, true
		}
		if rest[0] == '=' || rest[0] == ':' {
			sep := len(arg) - len(rest)
			return arg[:sep+1] + SensitiveDataPlaceholder, false
		}
		// The key is only a prefix of a longer name: when in doubt, redact.
		if eq := strings.IndexAny(rest, "=:"); eq >= 0 {
			sep := len(arg) - len(rest) + eq
			return arg[:sep+1] + SensitiveDataPlaceholder, false
		}
	}
	return arg, false
}

// indexFold is a case-insensitive strings.Index. The returned offset is into
// s itself, unlike an index into strings.ToLower(s), whose byte length may
// differ.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
