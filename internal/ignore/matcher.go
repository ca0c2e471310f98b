package ignore

import (
	"path"
	"strings"
)

// DefaultPatterns are applied to every run, even without an ignore file.
var DefaultPatterns = []string{
	".git/",
	".hg/",
	".svn/",
	".idea/",
	".vscode/",
	"__pycache__/",
	".mypy_cache/",
	".pytest_cache/",
	"*.pyc",
	"*.log",
	".env",
	"*venv/",
	"node_modules/",
	"dist/",
	"build/",
}

// RuleSet is an ordered collection of compiled rules. Order does not change
// the outcome of a match; it only fixes iteration order for logging.
type RuleSet []Rule

// Warning describes a pattern that could not be compiled. The pattern is kept
// in the rule set as a no-op.
type Warning struct {
	Pattern string
	Origin  string
	Err     error
}

// Compile translates every pattern, tagging warnings with origin (for example
// a file path or "command line"). Rules are scoped to base when it is set.
func Compile(patterns []string, base string, origin string) (RuleSet, []Warning) {
	var rules RuleSet
	var warnings []Warning
	for _, pattern := range patterns {
		rule, err := Translate(pattern)
		if err != nil {
			warnings = append(warnings, Warning{Pattern: pattern, Origin: origin, Err: err})
		}
		if base != "" {
			rule = rule.Scoped(base)
		}
		rules = append(rules, rule)
	}
	return rules, warnings
}

// Defaults returns the compiled DefaultPatterns.
func Defaults() RuleSet {
	rules := make(RuleSet, 0, len(DefaultPatterns))
	for _, pattern := range DefaultPatterns {
		rules = append(rules, MustTranslate(pattern))
	}
	return rules
}

// Sources returns the source patterns in order, for logging.
func (rules RuleSet) Sources() []string {
	sources := make([]string, 0, len(rules))
	for _, rule := range rules {
		sources = append(sources, rule.String())
	}
	return sources
}

// Matcher answers ignore decisions for paths relative to the processing root.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	rules RuleSet
}

// NewMatcher builds a Matcher over the concatenation of the given rule sets.
func NewMatcher(ruleSets ...RuleSet) *Matcher {
	var combined RuleSet
	for _, ruleSet := range ruleSets {
		for _, rule := range ruleSet {
			if rule.IsNoop() {
				continue
			}
			combined = append(combined, rule)
		}
	}
	return &Matcher{rules: combined}
}

// Rules returns a copy of the active rules.
func (matcher *Matcher) Rules() RuleSet {
	return append(RuleSet(nil), matcher.rules...)
}

// ShouldIgnore reports whether relativePath is excluded. A path is excluded
// when it, or any of its ancestor directories, matches a rule. Directory-only
// rules apply to the path itself only when isDirectory is set.
func (matcher *Matcher) ShouldIgnore(relativePath string, isDirectory bool) bool {
	_, ignored := matcher.Match(relativePath, isDirectory)
	return ignored
}

// Match is ShouldIgnore that also returns the first matching rule.
func (matcher *Matcher) Match(relativePath string, isDirectory bool) (Rule, bool) {
	if matcher == nil {
		return Rule{}, false
	}
	normalizedPath := normalizePath(relativePath)
	if normalizedPath == "" || normalizedPath == "." {
		return Rule{}, false
	}
	for _, rule := range matcher.rules {
		candidate := normalizedPath
		if rule.Base != "" {
			if !strings.HasPrefix(candidate, rule.Base+pathSeparator) {
				continue
			}
			candidate = strings.TrimPrefix(candidate, rule.Base+pathSeparator)
		}
		if ruleMatchesPath(rule, candidate, isDirectory) {
			return rule, true
		}
	}
	return Rule{}, false
}

func ruleMatchesPath(rule Rule, candidate string, isDirectory bool) bool {
	for separatorIndex := strings.Index(candidate, pathSeparator); separatorIndex >= 0; {
		if rule.MatchString(candidate[:separatorIndex]) {
			return true
		}
		next := strings.Index(candidate[separatorIndex+1:], pathSeparator)
		if next < 0 {
			break
		}
		separatorIndex += next + 1
	}
	if rule.DirectoryOnly && !isDirectory {
		return false
	}
	return rule.MatchString(candidate)
}

// normalizePath converts a relative path to clean forward-slash form without
// leading "./" or "/".
func normalizePath(relativePath string) string {
	normalized := strings.ReplaceAll(relativePath, `\`, pathSeparator)
	if normalized == "" {
		return ""
	}
	normalized = path.Clean(normalized)
	normalized = strings.TrimPrefix(normalized, pathSeparator)
	normalized = strings.TrimPrefix(normalized, "./")
	return normalized
}
