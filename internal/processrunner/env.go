package processrunner

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// mergeEnvironment applies overlay on top of base ("NAME=value" entries).
// Variable names compare case-insensitively on Windows.
func mergeEnvironment(logger hclog.Logger, base []string, overlay map[string]string, sensitiveKeys []string) []string {
	if len(overlay) == 0 {
		return base
	}

	fold := runtime.GOOS == "windows"
	normalize := func(name string) string {
		if fold {
			return strings.ToUpper(name)
		}
		return name
	}

	names := make([]string, 0, len(overlay))
	byName := make(map[string]string, len(overlay))
	for name := range overlay {
		names = append(names, name)
		byName[normalize(name)] = name
	}
	sort.Strings(names)

	env := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		name, oldValue, _ := strings.Cut(kv, "=")
		key, ok := byName[normalize(name)]
		if !ok {
			env = append(env, kv)
			continue
		}
		if IsSensitive(name, sensitiveKeys) {
			logger.Debug(fmt.Sprintf("overwriting the value of environment variable %q", name))
		} else {
			logger.Debug(fmt.Sprintf("overwriting the value of environment variable %q", name),
				"old", oldValue, "new", overlay[key])
		}
	}
	for _, name := range names {
		env = append(env, name+"="+overlay[name])
	}
	return env
}
