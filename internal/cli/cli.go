// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/config"
	"github.com/temirov/flatten/internal/flattener"
	"github.com/temirov/flatten/internal/output"
	"github.com/temirov/flatten/internal/services/clipboard"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/types"
	"github.com/temirov/flatten/internal/utils"
)

const (
	outputFlagName       = "output"
	outputFlagShorthand  = "o"
	ignoreFlagName       = "ignore"
	noGitignoreFlagName  = "no-gitignore"
	noIgnoreFlagName     = "no-ignore"
	nestedIgnoreFlagName = "nested-ignore"
	maxFileSizeFlagName  = "max-file-size"
	maxTokensFlagName    = "max-tokens"
	tokenizerFlagName    = "tokenizer"
	modelFlagName        = "model"
	formatFlagName       = "format"
	allFilesFlagName     = "all-files"
	workersFlagName      = "workers"
	copyFlagName         = "copy"
	configFlagName       = "config"
	verboseFlagName      = "verbose"
	verboseFlagShorthand = "v"
	versionFlagName      = "version"

	defaultPath                 = "."
	defaultMaxFileSizeMegabytes = 1.0
	defaultMaxTokens            = 100000
	defaultTokenizerModelName   = "gpt-4o"

	versionTemplate      = "flatten version: %s\n"
	rootUse              = "flatten [root]"
	rootShortDescription = "flatten a codebase into a single token-efficient document"
	rootLongDescription  = `flatten walks a project directory, strips comments and blank lines from
every recognised source file, bounds each file to a token budget and writes
the result as one markdown, JSON or XML document.

Ignore rules come from .gitignore, .ignore and --ignore patterns. Defaults
for every flag can be stored in .flatten.yaml (see "flatten init").`
	rootUsageExample = `  # Flatten the current directory into flattened_codebase.md
  flatten

  # Flatten ./service to stdout as JSON, ignoring generated code
  flatten ./service -o - --format json --ignore "gen/,*.pb.go"

  # Count tokens exactly and copy the digest to the clipboard
  flatten --tokenizer tiktoken --model gpt-4o --copy`

	outputFlagDescription       = "output file path, or - for stdout"
	ignoreFlagDescription       = "additional ignore pattern (repeatable, comma-separated)"
	noGitignoreFlagDescription  = "do not use .gitignore"
	noIgnoreFlagDescription     = "do not use .ignore"
	nestedIgnoreFlagDescription = "also honour ignore files in subdirectories"
	maxFileSizeFlagDescription  = "skip files larger than this many megabytes (0 disables)"
	maxTokensFlagDescription    = "truncate files to this many tokens (0 disables)"
	tokenizerFlagDescription    = "token counter: heuristic or tiktoken"
	modelFlagDescription        = "model whose encoding the tiktoken counter uses"
	formatFlagDescription       = "output format: markdown, json or xml"
	allFilesFlagDescription     = "include every text file, not only recognised languages"
	workersFlagDescription      = "number of files processed concurrently (0 uses all CPUs)"
	copyFlagDescription         = "copy the rendered digest to the system clipboard"
	configFlagDescription       = "path to a configuration file"
	verboseFlagDescription      = "log every decision at debug level"
	versionFlagDescription      = "display application version"

	invalidFormatMessage        = "invalid format value '%s'"
	invalidNumericFlagFormat    = "--%s must not be negative"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	writeOutputErrorFormat      = "write output %s: %w"
	loggerErrorFormat           = "initialize logger: %w"

	logMessageWroteOutput     = "wrote flattened codebase"
	logMessageCopied          = "copied output to clipboard"
	logMessageCopyFailed      = "failed to copy output to clipboard"
	logMessageConfiguration   = "resolved configuration"
	logMessageIgnoreRuleCount = "loaded ignore rules"
)

// dependencies are the collaborators of the root command that tests replace.
type dependencies struct {
	copier           clipboard.Copier
	logger           *zap.Logger
	workingDirectory string
	skipEnvironment  bool
}

// flagValues receives the raw command line flags.
type flagValues struct {
	outputPath           string
	ignorePatterns       []string
	disableGitignore     bool
	disableIgnoreFile    bool
	nestedIgnore         bool
	maxFileSizeMegabytes float64
	maxTokens            int
	tokenizerKind        string
	tokenizerModel       string
	format               string
	includeAllFiles      bool
	workers              int
	copyToClipboard      bool
	configFilePath       string
	verbose              bool
	showVersion          bool
}

// runSettings are the effective settings of one run after layering the
// defaults, the configuration files, the environment and the flags.
type runSettings struct {
	root                 string
	outputPath           string
	format               string
	ignore               config.IgnoreOptions
	maxFileSizeMegabytes float64
	maxTokens            int
	tokenizer            tokenizer.Config
	includeAllFiles      bool
	workers              int
	copyToClipboard      bool
}

// Execute runs the flatten application.
func Execute() error {
	rootCommand := createRootCommand(dependencies{copier: clipboard.NewService()})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	var flags flagValues

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if flags.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return runFlatten(command, arguments, flags, deps)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&flags.outputPath, outputFlagName, outputFlagShorthand, utils.DefaultOutputFileName, outputFlagDescription)
	flagSet.StringArrayVar(&flags.ignorePatterns, ignoreFlagName, nil, ignoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.disableGitignore, noGitignoreFlagName, false, noGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.disableIgnoreFile, noIgnoreFlagName, false, noIgnoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.nestedIgnore, nestedIgnoreFlagName, false, nestedIgnoreFlagDescription)
	flagSet.Float64Var(&flags.maxFileSizeMegabytes, maxFileSizeFlagName, defaultMaxFileSizeMegabytes, maxFileSizeFlagDescription)
	flagSet.IntVar(&flags.maxTokens, maxTokensFlagName, defaultMaxTokens, maxTokensFlagDescription)
	flagSet.StringVar(&flags.tokenizerKind, tokenizerFlagName, tokenizer.KindHeuristic, tokenizerFlagDescription)
	flagSet.StringVar(&flags.tokenizerModel, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	flagSet.StringVar(&flags.format, formatFlagName, types.FormatMarkdown, formatFlagDescription)
	registerBooleanFlag(flagSet, &flags.includeAllFiles, allFilesFlagName, false, allFilesFlagDescription)
	flagSet.IntVar(&flags.workers, workersFlagName, 0, workersFlagDescription)
	registerBooleanFlag(flagSet, &flags.copyToClipboard, copyFlagName, false, copyFlagDescription)
	flagSet.StringVar(&flags.configFilePath, configFlagName, "", configFlagDescription)
	registerBooleanFlagP(flagSet, &flags.verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)
	registerBooleanFlag(flagSet, &flags.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(deps))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// runFlatten executes one flatten run and writes its output.
func runFlatten(command *cobra.Command, arguments []string, flags flagValues, deps dependencies) error {
	logger := deps.logger
	if logger == nil {
		createdLogger, loggerError := utils.NewApplicationLogger(flags.verbose)
		if loggerError != nil {
			return fmt.Errorf(loggerErrorFormat, loggerError)
		}
		defer func() { _ = createdLogger.Sync() }()
		logger = createdLogger
	}

	workingDirectory, workingDirectoryError := resolveWorkingDirectory(deps)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: flags.configFilePath,
		SkipEnvironment:  deps.skipEnvironment,
	})
	if configurationError != nil {
		return configurationError
	}

	settings, settingsError := resolveSettings(command, arguments, flags, applicationConfiguration, workingDirectory)
	if settingsError != nil {
		return settingsError
	}
	logger.Debug(logMessageConfiguration,
		zap.String("root", settings.root),
		zap.String("output", settings.outputPath),
		zap.String("format", settings.format),
		zap.Int("maxTokens", settings.maxTokens),
		zap.Float64("maxFileSizeMB", settings.maxFileSizeMegabytes),
		zap.String("tokenizer", settings.tokenizer.Kind),
	)

	counter, _, counterError := tokenizer.NewCounter(settings.tokenizer)
	if counterError != nil {
		return counterError
	}

	matcher := config.BuildMatcher(settings.root, settings.ignore, logger)
	logger.Debug(logMessageIgnoreRuleCount, zap.Int("rules", len(matcher.Rules())), zap.Strings("sources", matcher.Rules().Sources()))

	var excludedPaths []string
	if settings.outputPath != utils.StandardStreamPath {
		excludedPaths = append(excludedPaths, settings.outputPath)
	}

	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, runError := flattener.Run(ctx, flattener.Options{
		Root:             settings.root,
		Matcher:          matcher,
		Counter:          counter,
		MaxFileSizeBytes: utils.MegabytesToBytes(settings.maxFileSizeMegabytes),
		MaxTokens:        settings.maxTokens,
		IncludeAllFiles:  settings.includeAllFiles,
		Workers:          settings.workers,
		ExcludePaths:     excludedPaths,
	}, logger)
	if runError != nil {
		return runError
	}

	summary := result.Summary()
	rendered, renderError := output.Render(settings.format, output.BuildDigest(result.Root, summary, result.Files, result.Skipped))
	if renderError != nil {
		return renderError
	}
	if writeError := writeOutput(command.OutOrStdout(), settings.outputPath, rendered); writeError != nil {
		return writeError
	}
	if settings.outputPath != utils.StandardStreamPath {
		logger.Info(logMessageWroteOutput, zap.String("path", settings.outputPath))
	}

	if settings.copyToClipboard && deps.copier != nil {
		if copyError := deps.copier.Copy(rendered); copyError != nil {
			logger.Warn(logMessageCopyFailed, zap.Error(copyError))
		} else {
			logger.Info(logMessageCopied)
		}
	}

	logger.Info(output.FormatSummary(summary))
	return nil
}

func resolveWorkingDirectory(deps dependencies) (string, error) {
	if deps.workingDirectory != "" {
		return deps.workingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

// resolveSettings layers explicitly set flags over the loaded configuration,
// which itself is layered over the flag defaults.
func resolveSettings(command *cobra.Command, arguments []string, flags flagValues, applicationConfiguration config.ApplicationConfiguration, workingDirectory string) (runSettings, error) {
	changed := func(name string) bool {
		return command.Flags().Changed(name)
	}

	settings := runSettings{
		root:                 defaultPath,
		outputPath:           flags.outputPath,
		format:               flags.format,
		maxFileSizeMegabytes: flags.maxFileSizeMegabytes,
		maxTokens:            flags.maxTokens,
		tokenizer:            tokenizer.Config{Kind: flags.tokenizerKind, Model: flags.tokenizerModel},
		includeAllFiles:      flags.includeAllFiles,
		workers:              flags.workers,
		copyToClipboard:      flags.copyToClipboard,
		ignore: config.IgnoreOptions{
			UseGitignore:  !flags.disableGitignore,
			UseIgnoreFile: !flags.disableIgnoreFile,
			Nested:        flags.nestedIgnore,
		},
	}
	if len(arguments) > 0 {
		settings.root = arguments[0]
	}

	if applicationConfiguration.Output != "" && !changed(outputFlagName) {
		settings.outputPath = applicationConfiguration.Output
	}
	if applicationConfiguration.Format != "" && !changed(formatFlagName) {
		settings.format = applicationConfiguration.Format
	}
	if applicationConfiguration.AllFiles != nil && !changed(allFilesFlagName) {
		settings.includeAllFiles = *applicationConfiguration.AllFiles
	}
	if applicationConfiguration.Workers != nil && !changed(workersFlagName) {
		settings.workers = *applicationConfiguration.Workers
	}
	if applicationConfiguration.Clipboard != nil && !changed(copyFlagName) {
		settings.copyToClipboard = *applicationConfiguration.Clipboard
	}
	if applicationConfiguration.Ignore.UseGitignore != nil && !changed(noGitignoreFlagName) {
		settings.ignore.UseGitignore = *applicationConfiguration.Ignore.UseGitignore
	}
	if applicationConfiguration.Ignore.UseIgnoreFile != nil && !changed(noIgnoreFlagName) {
		settings.ignore.UseIgnoreFile = *applicationConfiguration.Ignore.UseIgnoreFile
	}
	if applicationConfiguration.Ignore.Nested != nil && !changed(nestedIgnoreFlagName) {
		settings.ignore.Nested = *applicationConfiguration.Ignore.Nested
	}
	if applicationConfiguration.Limits.MaxFileSizeMegabytes != nil && !changed(maxFileSizeFlagName) {
		settings.maxFileSizeMegabytes = *applicationConfiguration.Limits.MaxFileSizeMegabytes
	}
	if applicationConfiguration.Limits.MaxTokens != nil && !changed(maxTokensFlagName) {
		settings.maxTokens = *applicationConfiguration.Limits.MaxTokens
	}
	if applicationConfiguration.Tokens.Tokenizer != "" && !changed(tokenizerFlagName) {
		settings.tokenizer.Kind = applicationConfiguration.Tokens.Tokenizer
	}
	if applicationConfiguration.Tokens.Model != "" && !changed(modelFlagName) {
		settings.tokenizer.Model = applicationConfiguration.Tokens.Model
	}
	settings.ignore.Patterns = config.SplitPatternList(append(append([]string{}, applicationConfiguration.Ignore.Patterns...), flags.ignorePatterns...))

	settings.format = strings.ToLower(strings.TrimSpace(settings.format))
	if !isSupportedFormat(settings.format) {
		return runSettings{}, fmt.Errorf(invalidFormatMessage, settings.format)
	}
	if settings.maxFileSizeMegabytes < 0 {
		return runSettings{}, fmt.Errorf(invalidNumericFlagFormat, maxFileSizeFlagName)
	}
	if settings.maxTokens < 0 {
		return runSettings{}, fmt.Errorf(invalidNumericFlagFormat, maxTokensFlagName)
	}
	if settings.workers < 0 {
		return runSettings{}, fmt.Errorf(invalidNumericFlagFormat, workersFlagName)
	}
	if settings.workers == 0 {
		settings.workers = runtime.NumCPU()
	}

	if !filepath.IsAbs(settings.root) {
		settings.root = filepath.Join(workingDirectory, settings.root)
	}
	if settings.outputPath == "" {
		settings.outputPath = utils.DefaultOutputFileName
	}
	if settings.outputPath != utils.StandardStreamPath && !filepath.IsAbs(settings.outputPath) {
		settings.outputPath = filepath.Join(workingDirectory, settings.outputPath)
	}
	return settings, nil
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	for _, supportedFormat := range output.Formats() {
		if format == supportedFormat {
			return true
		}
	}
	return false
}

// writeOutput writes rendered to stdout for "-" and to outputPath otherwise.
func writeOutput(stdout io.Writer, outputPath string, rendered string) error {
	if outputPath == utils.StandardStreamPath {
		_, writeError := io.WriteString(stdout, rendered)
		return writeError
	}
	if writeError := os.WriteFile(outputPath, []byte(rendered), 0o644); writeError != nil {
		if errors.Is(writeError, os.ErrNotExist) {
			if mkdirError := os.MkdirAll(filepath.Dir(outputPath), 0o755); mkdirError != nil {
				return fmt.Errorf(writeOutputErrorFormat, outputPath, mkdirError)
			}
			if retryError := os.WriteFile(outputPath, []byte(rendered), 0o644); retryError != nil {
				return fmt.Errorf(writeOutputErrorFormat, outputPath, retryError)
			}
			return nil
		}
		return fmt.Errorf(writeOutputErrorFormat, outputPath, writeError)
	}
	return nil
}
