// Package config loads ignore files and application configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/ignore"
	"github.com/temirov/flatten/internal/utils"
)

const (
	commentPrefix         = "#"
	patternListSeparator  = ","
	commandLineOrigin     = "--ignore"
	warningInvalidPattern = "ignoring invalid pattern"
	warningUnreadableFile = "ignore file unreadable, continuing without it"
	debugLoadedIgnoreFile = "loaded ignore file"
	infoMissingIgnoreFile = "ignore file not found"
)

// IgnoreOptions selects the sources that contribute ignore rules.
type IgnoreOptions struct {
	UseGitignore  bool
	UseIgnoreFile bool
	Nested        bool
	// Patterns are extra patterns from the command line or configuration,
	// applied relative to the root.
	Patterns []string
}

// LoadIgnoreFilePatterns reads an ignore file and returns its patterns in
// file order. Blank lines and lines starting with "#" are skipped. A missing
// file yields no patterns and no error.
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	ignorePatterns, _, loadError := readIgnoreFile(ignoreFilePath)
	return ignorePatterns, loadError
}

// readIgnoreFile is LoadIgnoreFilePatterns that also reports whether the file
// exists.
//
// #nosec G304
func readIgnoreFile(ignoreFilePath string) ([]string, bool, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if errors.Is(openFileError, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, openFileError
	}
	defer fileHandle.Close()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, true, fmt.Errorf("scan %s: %w", ignoreFilePath, scanError)
	}
	return ignorePatterns, true, nil
}

// SplitPatternList flattens comma-separated pattern values, trimming blanks
// and dropping duplicates while keeping first-seen order.
func SplitPatternList(values []string) []string {
	var patterns []string
	for _, value := range values {
		for _, candidate := range strings.Split(value, patternListSeparator) {
			trimmed := strings.TrimSpace(candidate)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
	}
	return utils.DeduplicatePatterns(patterns)
}

// LoadIgnoreRuleSet assembles the rules that apply beneath rootDirectoryPath:
// the defaults, then the root ignore files, then nested ignore files scoped
// to their directories, then options.Patterns. Problems with individual
// patterns or files are logged and skipped.
func LoadIgnoreRuleSet(rootDirectoryPath string, options IgnoreOptions, logger *zap.Logger) ignore.RuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	ruleSet := append(ignore.RuleSet{}, ignore.Defaults()...)

	ruleSet = append(ruleSet, loadDirectoryRules(rootDirectoryPath, "", options, logger)...)

	if options.Nested {
		ruleSet = append(ruleSet, loadNestedRules(rootDirectoryPath, ruleSet, options, logger)...)
	}

	extraRules, warnings := ignore.Compile(SplitPatternList(options.Patterns), "", commandLineOrigin)
	logWarnings(logger, warnings)
	ruleSet = append(ruleSet, extraRules...)
	return ruleSet
}

// BuildMatcher is LoadIgnoreRuleSet wrapped in a ready-to-use Matcher.
func BuildMatcher(rootDirectoryPath string, options IgnoreOptions, logger *zap.Logger) *ignore.Matcher {
	return ignore.NewMatcher(LoadIgnoreRuleSet(rootDirectoryPath, options, logger))
}

// loadNestedRules walks below the root, skipping directories already ignored
// by the rules gathered so far, and compiles ignore files found in them.
func loadNestedRules(rootDirectoryPath string, inherited ignore.RuleSet, options IgnoreOptions, logger *zap.Logger) ignore.RuleSet {
	var nestedRules ignore.RuleSet
	matcher := ignore.NewMatcher(inherited)

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			logger.Debug(warningUnreadableFile, zap.String("path", currentPath), zap.Error(walkError))
			if directoryEntry != nil && directoryEntry.IsDir() && currentPath != rootDirectoryPath {
				return filepath.SkipDir
			}
			return nil
		}
		if !directoryEntry.IsDir() || currentPath == rootDirectoryPath {
			return nil
		}
		relativeDirectory := utils.RelativePathOrSelf(currentPath, rootDirectoryPath)
		if matcher.ShouldIgnore(relativeDirectory, true) {
			return filepath.SkipDir
		}
		directoryRules := loadDirectoryRules(currentPath, relativeDirectory, options, logger)
		if len(directoryRules) > 0 {
			nestedRules = append(nestedRules, directoryRules...)
			matcher = ignore.NewMatcher(inherited, nestedRules)
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		logger.Warn(warningUnreadableFile, zap.String("path", rootDirectoryPath), zap.Error(walkError))
	}
	return nestedRules
}

func loadDirectoryRules(directoryPath string, base string, options IgnoreOptions, logger *zap.Logger) ignore.RuleSet {
	var fileNames []string
	if options.UseGitignore {
		fileNames = append(fileNames, utils.GitIgnoreFileName)
	}
	if options.UseIgnoreFile {
		fileNames = append(fileNames, utils.IgnoreFileName)
	}

	var directoryRules ignore.RuleSet
	for _, fileName := range fileNames {
		ignoreFilePath := filepath.Join(directoryPath, fileName)
		patterns, found, loadError := readIgnoreFile(ignoreFilePath)
		if loadError != nil {
			logger.Warn(warningUnreadableFile, zap.String("path", ignoreFilePath), zap.Error(loadError))
			continue
		}
		if !found {
			if base == "" {
				logger.Info(infoMissingIgnoreFile, zap.String("path", ignoreFilePath))
			}
			continue
		}
		if len(patterns) == 0 {
			continue
		}
		origin := fileName
		if base != "" {
			origin = base + "/" + fileName
		}
		rules, warnings := ignore.Compile(patterns, base, origin)
		logWarnings(logger, warnings)
		logger.Debug(debugLoadedIgnoreFile, zap.String("path", origin), zap.Int("patterns", len(patterns)))
		directoryRules = append(directoryRules, rules...)
	}
	return directoryRules
}

func logWarnings(logger *zap.Logger, warnings []ignore.Warning) {
	for _, warning := range warnings {
		logger.Warn(warningInvalidPattern,
			zap.String("pattern", warning.Pattern),
			zap.String("source", warning.Origin),
			zap.Error(warning.Err),
		)
	}
}
