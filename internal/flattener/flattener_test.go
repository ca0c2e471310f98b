package flattener_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/flatten/internal/flattener"
	"github.com/temirov/flatten/internal/ignore"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/types"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(t, os.WriteFile(absolutePath, []byte(content), 0o644))
	}
}

func recordPaths(records []types.FileRecord) []string {
	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.RelativePath)
	}
	return paths
}

func matcherFor(t *testing.T, patterns ...string) *ignore.Matcher {
	t.Helper()
	rules, warnings := ignore.Compile(patterns, "", "test")
	require.Empty(t, warnings)
	return ignore.NewMatcher(ignore.Defaults(), rules)
}

func TestRunIgnoresMatchingFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":      "print('a')\n",
		"b.log":     "log line\n",
		"sub/c.log": "log line\n",
	})
	rules, warnings := ignore.Compile([]string{"*.log"}, "", ".gitignore")
	require.Empty(t, warnings)

	result, err := flattener.Run(context.Background(), flattener.Options{
		Root:            root,
		Matcher:         ignore.NewMatcher(rules),
		IncludeAllFiles: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, recordPaths(result.Files))
	assert.Empty(t, result.Skipped)
}

func TestRunCleansPythonContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.py": "# comment\ncode()\n\n\"\"\"doc\"\"\"\nmore()",
	})

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root}, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	record := result.Files[0]
	assert.Equal(t, "code()\nmore()", record.Content)
	assert.Equal(t, "python", record.Language)
	assert.Equal(t, 2, record.LineCount)
	assert.Equal(t, 6, record.EstimatedTokens)
	assert.False(t, record.Truncated)
	assert.Equal(t, int64(len("# comment\ncode()\n\n\"\"\"doc\"\"\"\nmore()")), record.SizeBytes)
}

func TestRunTruncatesOverBudgetFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"big.go": strings.Repeat("alpha beta gamma delta epsilon\n", 100),
	})

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root, MaxTokens: 10}, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	record := result.Files[0]
	assert.True(t, record.Truncated)
	assert.LessOrEqual(t, record.EstimatedTokens, 10)
	assert.True(t, strings.HasSuffix(record.Content, tokenizer.TruncationMarker))
	assert.Equal(t, 1, result.Summary().TruncatedFiles)
}

func TestRunSkipsOversizedFilesWithNotice(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.py": "x = 1\n",
		"large.py": strings.Repeat("y = 2\n", 400),
	})
	core, logs := observer.New(zapcore.InfoLevel)

	result, err := flattener.Run(context.Background(), flattener.Options{
		Root:             root,
		MaxFileSizeBytes: 1024,
	}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, []string{"small.py"}, recordPaths(result.Files))
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "large.py", result.Skipped[0].RelativePath)
	assert.Equal(t, types.SkipReasonTooLarge, result.Skipped[0].Reason)
	for _, record := range result.Files {
		assert.NotContains(t, record.Content, "y = 2")
	}

	notices := logs.FilterMessage("skipping file over size limit").All()
	require.Len(t, notices, 1)
	assert.Equal(t, "large.py", notices[0].ContextMap()["path"])
}

func TestRunAppliesDefaultsAndSortsOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.go":                      "package z\n",
		"a/b.go":                    "package b\n",
		"a/a.go":                    "package a\n",
		"node_modules/lib/index.js": "module.exports = 1\n",
		".git/config.toml":          "[core]\n",
		"build/out.js":              "var x\n",
		"notes.rst":                 "unregistered extension\n",
		"image.png":                 "\x89PNG\x00\x00",
	})

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root, Workers: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/a.go", "a/b.go", "z.go"}, recordPaths(result.Files))
	assert.Empty(t, result.Skipped)
	assert.Equal(t, tokenizer.KindHeuristic, result.Tokenizer)
}

func TestRunIncludeAllFilesSkipsBinary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"notes.rst": "title\n\n\nbody\n",
		"image.png": "\x89PNG\x00\x00",
		"bad.txt":   "\xff\xfe",
	})

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root, IncludeAllFiles: true}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"notes.rst"}, recordPaths(result.Files))
	assert.Equal(t, "title\nbody", result.Files[0].Content)
	assert.Equal(t, "text", result.Files[0].Language)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "bad.txt", result.Skipped[0].RelativePath)
	assert.Equal(t, types.SkipReasonBinary, result.Skipped[0].Reason)
	assert.Equal(t, "image.png", result.Skipped[1].RelativePath)
}

func TestRunHonorsMatcherAndExcludedPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.py":                "x = 1\n",
		"generated/schema.py":    "y = 2\n",
		"flattened_codebase.md":  "# previous digest\n",
		"docs/guide.md":          "# Guide\n",
		"docs/internal/notes.md": "private\n",
	})

	result, err := flattener.Run(context.Background(), flattener.Options{
		Root:         root,
		Matcher:      matcherFor(t, "generated/", "/docs/internal/"),
		ExcludePaths: []string{filepath.Join(root, "flattened_codebase.md")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.md", "keep.py"}, recordPaths(result.Files))
}

func TestRunOmitsFilesEmptyAfterCleaning(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.py":     "print('kept')\n",
		"comments.py": "# only a comment\n\n\"\"\"docstring\"\"\"\n",
		"blank.go":    "\n\n",
		"empty.js":    "",
	})
	core, logs := observer.New(zapcore.DebugLevel)

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, recordPaths(result.Files))
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 1, result.Summary().TotalFiles)

	var omitted []string
	for _, entry := range logs.FilterMessage("skipping file with no content after cleaning").All() {
		omitted = append(omitted, entry.ContextMap()["path"].(string))
	}
	assert.ElementsMatch(t, []string{"comments.py", "blank.go", "empty.js"}, omitted)
}

func TestRunSummary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py": "a = 1\nb = 2\n",
		"b.js": "// note\nlet c = 3;\n",
	})

	result, err := flattener.Run(context.Background(), flattener.Options{Root: root}, nil)
	require.NoError(t, err)
	summary := result.Summary()
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 3, summary.TotalLines)
	assert.Equal(t, int64(len("a = 1\nb = 2\n")+len("// note\nlet c = 3;\n")), summary.TotalSizeBytes)
	assert.Equal(t, result.Files[0].EstimatedTokens+result.Files[1].EstimatedTokens, summary.TotalTokens)
	assert.Equal(t, "0.0 KB", summary.TotalSize)
}

func TestRunRejectsInvalidRoot(t *testing.T) {
	_, err := flattener.Run(context.Background(), flattener.Options{Root: filepath.Join(t.TempDir(), "absent")}, nil)
	assert.ErrorIs(t, err, flattener.ErrRootNotFound)

	filePath := filepath.Join(t.TempDir(), "file.py")
	require.NoError(t, os.WriteFile(filePath, []byte("x = 1\n"), 0o644))
	_, err = flattener.Run(context.Background(), flattener.Options{Root: filePath}, nil)
	assert.ErrorIs(t, err, flattener.ErrRootNotDirectory)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "x = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flattener.Run(ctx, flattener.Options{Root: root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExceedsSizeLimit(t *testing.T) {
	testCases := []struct {
		name     string
		size     int64
		limit    int64
		expected bool
	}{
		{name: "under", size: 10, limit: 100, expected: false},
		{name: "equal", size: 100, limit: 100, expected: false},
		{name: "over", size: 101, limit: 100, expected: true},
		{name: "disabled", size: 1 << 40, limit: 0, expected: false},
		{name: "negative disables", size: 5, limit: -1, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, flattener.ExceedsSizeLimit(testCase.size, testCase.limit))
		})
	}
}
