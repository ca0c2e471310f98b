package ignore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/flatten/internal/ignore"
)

func compileRules(t *testing.T, patterns ...string) ignore.RuleSet {
	t.Helper()
	rules, warnings := ignore.Compile(patterns, "", "test")
	require.Empty(t, warnings)
	return rules
}

func TestMatcherShouldIgnore(t *testing.T) {
	matcher := ignore.NewMatcher(compileRules(t, "*.log", "build/", "/README.md", "secret.txt"))

	testCases := []struct {
		name        string
		path        string
		isDirectory bool
		expected    bool
	}{
		{name: "root log", path: "b.log", expected: true},
		{name: "nested log", path: "sub/c.log", expected: true},
		{name: "python file", path: "a.py", expected: false},
		{name: "build directory", path: "build", isDirectory: true, expected: true},
		{name: "file named build", path: "build", isDirectory: false, expected: false},
		{name: "inside build", path: "build/out/app.js", expected: true},
		{name: "nested build directory", path: "pkg/build", isDirectory: true, expected: true},
		{name: "inside nested build", path: "pkg/build/x.go", expected: true},
		{name: "builder is not build", path: "builder/x.go", expected: false},
		{name: "root readme", path: "README.md", expected: true},
		{name: "nested readme", path: "docs/README.md", expected: false},
		{name: "windows separators", path: `sub\deep\trace.log`, expected: true},
		{name: "dot prefix", path: "./secret.txt", expected: true},
		{name: "file pattern covers directory contents", path: "secret.txt/inner.py", expected: true},
		{name: "root itself", path: ".", isDirectory: true, expected: false},
		{name: "empty", path: "", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, matcher.ShouldIgnore(testCase.path, testCase.isDirectory))
		})
	}
}

func TestMatcherIsPure(t *testing.T) {
	matcher := ignore.NewMatcher(ignore.Defaults(), compileRules(t, "*.tmp"))
	paths := []string{"a.tmp", "node_modules/x/y.js", "src/main.go", ".git", ".venv/lib/site.py"}
	first := make([]bool, len(paths))
	for index, candidate := range paths {
		first[index] = matcher.ShouldIgnore(candidate, false)
	}
	for round := 0; round < 3; round++ {
		for index, candidate := range paths {
			assert.Equal(t, first[index], matcher.ShouldIgnore(candidate, false), candidate)
		}
	}
}

func TestDefaultsAlwaysApply(t *testing.T) {
	matcher := ignore.NewMatcher(ignore.Defaults())

	ignoredDirectories := []string{".git", "node_modules", "__pycache__", "venv", ".venv", "dist", "build", "sub/.git"}
	for _, directory := range ignoredDirectories {
		assert.True(t, matcher.ShouldIgnore(directory, true), directory)
	}
	ignoredFiles := []string{".env", "config/.env", "debug.log", "pkg/mod.pyc", ".git/HEAD", "web/node_modules/react/index.js"}
	for _, file := range ignoredFiles {
		assert.True(t, matcher.ShouldIgnore(file, false), file)
	}
	keptFiles := []string{"main.go", "env.py", ".envrc", "src/distance.py"}
	for _, file := range keptFiles {
		assert.False(t, matcher.ShouldIgnore(file, false), file)
	}
}

func TestScopedRulesOnlyApplyUnderBase(t *testing.T) {
	scoped, warnings := ignore.Compile([]string{"*.gen.go", "/local/"}, "service", "service/.gitignore")
	require.Empty(t, warnings)
	matcher := ignore.NewMatcher(scoped)

	assert.True(t, matcher.ShouldIgnore("service/api.gen.go", false))
	assert.True(t, matcher.ShouldIgnore("service/inner/api.gen.go", false))
	assert.False(t, matcher.ShouldIgnore("api.gen.go", false))
	assert.True(t, matcher.ShouldIgnore("service/local", true))
	assert.True(t, matcher.ShouldIgnore("service/local/a.go", false))
	assert.False(t, matcher.ShouldIgnore("service/inner/local", true))
}

func TestCompileKeepsGoingAfterWarnings(t *testing.T) {
	rules, warnings := ignore.Compile([]string{"*.tmp", "!keep.tmp", "bad[", "cache/"}, "", ".gitignore")
	require.Len(t, warnings, 2)
	assert.Equal(t, "!keep.tmp", warnings[0].Pattern)
	assert.ErrorIs(t, warnings[0].Err, ignore.ErrNegationUnsupported)
	assert.Equal(t, ".gitignore", warnings[1].Origin)
	assert.ErrorIs(t, warnings[1].Err, ignore.ErrMalformedPattern)
	assert.Len(t, rules, 4)

	matcher := ignore.NewMatcher(rules)
	assert.Len(t, matcher.Rules(), 2)
	assert.True(t, matcher.ShouldIgnore("keep.tmp", false))
	assert.True(t, matcher.ShouldIgnore("cache", true))
	assert.False(t, matcher.ShouldIgnore("bad[", false))
}

func TestMatchReportsRule(t *testing.T) {
	matcher := ignore.NewMatcher(compileRules(t, "*.md", "docs/"))
	rule, matched := matcher.Match("docs/guide.txt", false)
	require.True(t, matched)
	assert.Equal(t, "docs/", rule.Source)

	_, matched = matcher.Match("src/guide.txt", false)
	assert.False(t, matched)

	var nilMatcher *ignore.Matcher
	assert.False(t, nilMatcher.ShouldIgnore("anything", false))
}
