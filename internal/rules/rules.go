package rules

import (
	"fmt"
	"os"
	"sort"

	yaml "gopkg.in/yaml.v2"
)

// Default metadata for rules that do not declare their own.
const (
	DefaultSeverity = "MAJOR"
	DefaultType     = "CODE_SMELL"
)

// Metadata describes how issues of a rule are reported.
type Metadata struct {
	Type     string
	Severity string
}

// Rule is one entry of the rules file.
type Rule struct {
	Key        string            `yaml:"key"`
	Active     *bool             `yaml:"active"`
	Type       string            `yaml:"type"`
	Severity   string            `yaml:"severity"`
	Parameters map[string]string `yaml:"parameters"`
}

type file struct {
	Language string `yaml:"language"`
	Rules    []Rule `yaml:"rules"`
}

// Config is the rule set of one language. Rule keys are case-sensitive.
type Config struct {
	language string
	rules    map[string]Rule
}

// Load reads a rules file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a rules document:
//
//	language: cpp
//	rules:
//	  - key: S100
//	    severity: MINOR
//	    parameters: {format: "^[a-z]+$"}
//	  - key: S101
//	    active: false
//
// Rules are active unless "active: false" is given.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, WrapDecodeFailure(err)
	}
	if f.Language == "" {
		return nil, WrapDecodeFailure(fmt.Errorf("'language' is required"))
	}

	cfg := &Config{language: f.Language, rules: make(map[string]Rule, len(f.Rules))}
	for i, r := range f.Rules {
		if r.Key == "" {
			return nil, WrapDecodeFailure(fmt.Errorf("rule #%d has no key", i+1))
		}
		if _, ok := cfg.rules[r.Key]; ok {
			return nil, WrapDecodeFailure(fmt.Errorf("rule %q is declared more than once", r.Key))
		}
		cfg.rules[r.Key] = r
	}
	return cfg, nil
}

// New builds a Config in memory; every given key is active.
func New(language string, activeKeys ...string) *Config {
	cfg := &Config{language: language, rules: make(map[string]Rule, len(activeKeys))}
	for _, k := range activeKeys {
		cfg.rules[k] = Rule{Key: k}
	}
	return cfg
}

// LanguageKey returns the language the rules apply to.
func (c *Config) LanguageKey() string {
	return c.language
}

// IsRuleActive reports whether ruleKey is known and active. The comparison
// is exact.
func (c *Config) IsRuleActive(ruleKey string) bool {
	r, ok := c.rules[ruleKey]
	return ok && (r.Active == nil || *r.Active)
}

// ActiveRuleKeys returns the active keys, sorted.
func (c *Config) ActiveRuleKeys() []string {
	keys := make([]string, 0, len(c.rules))
	for k := range c.rules {
		if c.IsRuleActive(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Metadata returns the reporting metadata of a known rule, with defaults
// applied.
func (c *Config) Metadata(ruleKey string) (Metadata, bool) {
	r, ok := c.rules[ruleKey]
	if !ok {
		return Metadata{}, false
	}
	md := Metadata{Type: r.Type, Severity: r.Severity}
	if md.Type == "" {
		md.Type = DefaultType
	}
	if md.Severity == "" {
		md.Severity = DefaultSeverity
	}
	return md, true
}

// Parameters returns the parameters of a rule; nil when it has none.
func (c *Config) Parameters(ruleKey string) map[string]string {
	return c.rules[ruleKey].Parameters
}

// Properties flattens the parameters of active rules into "rule.param"
// entries, the form the analyzer expects in its request.
func (c *Config) Properties() map[string]string {
	props := make(map[string]string)
	for _, k := range c.ActiveRuleKeys() {
		for name, value := range c.rules[k].Parameters {
			props[k+"."+name] = value
		}
	}
	return props
}
