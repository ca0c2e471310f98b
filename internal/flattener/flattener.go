// Package flattener walks a source tree and turns every kept file into a
// cleaned, token-bounded FileRecord.
package flattener

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/flatten/internal/cleaner"
	"github.com/temirov/flatten/internal/ignore"
	"github.com/temirov/flatten/internal/language"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/types"
	"github.com/temirov/flatten/internal/utils"
)

const (
	logMessageStart          = "flattening codebase"
	logMessageFinished       = "finished flattening codebase"
	logMessageIgnored        = "ignored"
	logMessageUnsupported    = "skipping unsupported file type"
	logMessageNotRegular     = "skipping non-regular file"
	logMessageTooLarge       = "skipping file over size limit"
	logMessageBinary         = "skipping binary file"
	logMessageUnreadable     = "skipping unreadable file"
	logMessageTruncated      = "truncated file to token limit"
	logMessageProcessed      = "processed file"
	logMessageEmptyContent   = "skipping file with no content after cleaning"
	logMessageWalkError      = "cannot access path"
	logMessageExcludedOutput = "skipping output file"
)

var (
	// ErrRootNotFound is returned when the root directory does not exist.
	ErrRootNotFound = errors.New("root directory not found")
	// ErrRootNotDirectory is returned when the root path is not a directory.
	ErrRootNotDirectory = errors.New("root path is not a directory")
)

// Options configures one run. The zero value of every limit disables it.
type Options struct {
	Root string
	// Matcher decides which paths are skipped; nil applies only the defaults.
	Matcher *ignore.Matcher
	// Counter measures tokens; nil selects the heuristic estimator.
	Counter          tokenizer.Counter
	MaxFileSizeBytes int64
	MaxTokens        int
	// IncludeAllFiles processes every non-binary file instead of only
	// files with a registered language profile.
	IncludeAllFiles bool
	// Workers bounds concurrent file processing; non-positive means NumCPU.
	Workers int
	// ExcludePaths are absolute paths never processed, such as the output file.
	ExcludePaths []string
}

// Result is the aggregated outcome of a run.
type Result struct {
	Root      string
	Tokenizer string
	Files     []types.FileRecord
	Skipped   []types.SkippedFile
}

// Summary aggregates the statistics of the result.
func (result Result) Summary() types.Summary {
	summary := types.Summary{
		TotalFiles:   len(result.Files),
		SkippedFiles: len(result.Skipped),
		Tokenizer:    result.Tokenizer,
	}
	for _, record := range result.Files {
		summary.TotalLines += record.LineCount
		summary.TotalTokens += record.EstimatedTokens
		summary.TotalSizeBytes += record.SizeBytes
		if record.Truncated {
			summary.TruncatedFiles++
		}
	}
	summary.TotalSize = utils.FormatKilobytes(summary.TotalSizeBytes)
	return summary
}

// ExceedsSizeLimit reports whether a file of sizeBytes is over the limit.
// A non-positive limit never excludes anything.
func ExceedsSizeLimit(sizeBytes int64, maxFileSizeBytes int64) bool {
	return maxFileSizeBytes > 0 && sizeBytes > maxFileSizeBytes
}

// ProcessContent cleans raw content for the language of relativePath and
// bounds it to maxTokens.
func ProcessContent(relativePath string, raw []byte, sizeBytes int64, counter tokenizer.Counter, maxTokens int) types.FileRecord {
	profile := language.Lookup(relativePath)
	cleaned := cleaner.Clean(string(raw), profile)
	bounded := tokenizer.Bound(counter, cleaned, maxTokens)
	return types.FileRecord{
		RelativePath:    relativePath,
		Language:        profile.Name,
		SizeBytes:       sizeBytes,
		LineCount:       cleaner.CountLines(bounded.Text),
		EstimatedTokens: bounded.Tokens,
		Truncated:       bounded.Truncated,
		Content:         bounded.Text,
	}
}

type candidateFile struct {
	absolutePath string
	relativePath string
	sizeBytes    int64
}

// collector accumulates results from concurrent workers.
type collector struct {
	mutex   sync.Mutex
	files   []types.FileRecord
	skipped []types.SkippedFile
}

func (target *collector) addFile(record types.FileRecord) {
	target.mutex.Lock()
	defer target.mutex.Unlock()
	target.files = append(target.files, record)
}

func (target *collector) skip(relativePath string, reason string, sizeBytes int64) {
	target.mutex.Lock()
	defer target.mutex.Unlock()
	target.skipped = append(target.skipped, types.SkippedFile{RelativePath: relativePath, Reason: reason, SizeBytes: sizeBytes})
}

// Run walks options.Root, pruning ignored directories, and processes kept
// files on a bounded worker pool. Per-file problems are recorded in
// Result.Skipped; only an invalid root or a cancelled context fail the run.
func Run(ctx context.Context, options Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	absoluteRoot, rootErr := validateRoot(options.Root)
	if rootErr != nil {
		return Result{}, rootErr
	}
	matcher := options.Matcher
	if matcher == nil {
		matcher = ignore.NewMatcher(ignore.Defaults())
	}
	counter := options.Counter
	if counter == nil {
		counter = tokenizer.EstimateCounter{}
	}
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Info(logMessageStart, zap.String("root", absoluteRoot), zap.String("tokenizer", counter.Name()))

	results := &collector{}
	candidates, walkErr := collectCandidates(ctx, absoluteRoot, matcher, options, results, logger)
	if walkErr != nil {
		return Result{}, walkErr
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, candidate := range candidates {
		if groupCtx.Err() != nil {
			break
		}
		candidate := candidate
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			processCandidate(candidate, counter, options, results, logger)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sort.Slice(results.files, func(left, right int) bool {
		return results.files[left].RelativePath < results.files[right].RelativePath
	})
	sort.Slice(results.skipped, func(left, right int) bool {
		return results.skipped[left].RelativePath < results.skipped[right].RelativePath
	})

	result := Result{Root: absoluteRoot, Tokenizer: counter.Name(), Files: results.files, Skipped: results.skipped}
	logger.Info(logMessageFinished, zap.Int("files", len(result.Files)), zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func validateRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	absoluteRoot, absErr := filepath.Abs(root)
	if absErr != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, absErr)
	}
	info, statErr := os.Stat(absoluteRoot)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, absoluteRoot)
		}
		return "", fmt.Errorf("stat root %s: %w", absoluteRoot, statErr)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRootNotDirectory, absoluteRoot)
	}
	return absoluteRoot, nil
}

// collectCandidates walks the tree serially so that pruning decisions are
// made in a deterministic order.
func collectCandidates(ctx context.Context, absoluteRoot string, matcher *ignore.Matcher, options Options, results *collector, logger *zap.Logger) ([]candidateFile, error) {
	excluded := make(map[string]struct{}, len(options.ExcludePaths))
	for _, excludePath := range options.ExcludePaths {
		if absolutePath, absErr := filepath.Abs(excludePath); absErr == nil {
			excluded[absolutePath] = struct{}{}
		}
	}

	var candidates []candidateFile
	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if currentPath == absoluteRoot {
			return walkError
		}
		relativePath := utils.RelativePathOrSelf(currentPath, absoluteRoot)
		if walkError != nil {
			logger.Warn(logMessageWalkError, zap.String("path", relativePath), zap.Error(walkError))
			if directoryEntry == nil || !directoryEntry.IsDir() {
				results.skip(relativePath, types.SkipReasonUnreadable, 0)
			}
			return nil
		}
		if directoryEntry.IsDir() {
			if rule, ignored := matcher.Match(relativePath, true); ignored {
				logger.Debug(logMessageIgnored, zap.String("path", relativePath+"/"), zap.String("rule", rule.String()))
				return filepath.SkipDir
			}
			return nil
		}
		if rule, ignored := matcher.Match(relativePath, false); ignored {
			logger.Debug(logMessageIgnored, zap.String("path", relativePath), zap.String("rule", rule.String()))
			return nil
		}
		if _, isExcluded := excluded[currentPath]; isExcluded {
			logger.Debug(logMessageExcludedOutput, zap.String("path", relativePath))
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			logger.Debug(logMessageNotRegular, zap.String("path", relativePath))
			return nil
		}
		if !options.IncludeAllFiles && !language.IsSupported(relativePath) {
			logger.Debug(logMessageUnsupported, zap.String("path", relativePath))
			return nil
		}
		info, infoErr := directoryEntry.Info()
		if infoErr != nil {
			logger.Warn(logMessageUnreadable, zap.String("path", relativePath), zap.Error(infoErr))
			results.skip(relativePath, types.SkipReasonUnreadable, 0)
			return nil
		}
		candidates = append(candidates, candidateFile{absolutePath: currentPath, relativePath: relativePath, sizeBytes: info.Size()})
		return nil
	}

	if walkErr := filepath.WalkDir(absoluteRoot, walkFunction); walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", absoluteRoot, walkErr)
	}
	return candidates, nil
}

// processCandidate applies the size gate before reading, then cleans and
// bounds the content.
//
// #nosec G304
func processCandidate(candidate candidateFile, counter tokenizer.Counter, options Options, results *collector, logger *zap.Logger) {
	if ExceedsSizeLimit(candidate.sizeBytes, options.MaxFileSizeBytes) {
		logger.Info(logMessageTooLarge,
			zap.String("path", candidate.relativePath),
			zap.String("size", utils.FormatFileSize(candidate.sizeBytes)),
			zap.String("limit", utils.FormatFileSize(options.MaxFileSizeBytes)),
		)
		results.skip(candidate.relativePath, types.SkipReasonTooLarge, candidate.sizeBytes)
		return
	}
	raw, readErr := os.ReadFile(candidate.absolutePath)
	if readErr != nil {
		logger.Warn(logMessageUnreadable, zap.String("path", candidate.relativePath), zap.Error(readErr))
		results.skip(candidate.relativePath, types.SkipReasonUnreadable, candidate.sizeBytes)
		return
	}
	if utils.IsBinary(raw) {
		logger.Debug(logMessageBinary, zap.String("path", candidate.relativePath))
		results.skip(candidate.relativePath, types.SkipReasonBinary, candidate.sizeBytes)
		return
	}

	record := ProcessContent(candidate.relativePath, raw, candidate.sizeBytes, counter, options.MaxTokens)
	if record.Content == "" {
		logger.Debug(logMessageEmptyContent, zap.String("path", record.RelativePath))
		return
	}
	if record.Truncated {
		logger.Info(logMessageTruncated, zap.String("path", record.RelativePath), zap.Int("tokens", record.EstimatedTokens))
	}
	logger.Debug(logMessageProcessed,
		zap.String("path", record.RelativePath),
		zap.Int("lines", record.LineCount),
		zap.Int("tokens", record.EstimatedTokens),
	)
	results.addFile(record)
}
