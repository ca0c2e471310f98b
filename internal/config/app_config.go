package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/temirov/flatten/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironment disables the FLATTEN_* environment layer.
	SkipEnvironment bool
}

// ApplicationConfiguration holds defaults for the flatten command. Pointer
// fields distinguish "unset" from zero values so that layers merge cleanly.
type ApplicationConfiguration struct {
	Output    string              `mapstructure:"output"`
	Format    string              `mapstructure:"format"`
	AllFiles  *bool               `mapstructure:"all_files"`
	Workers   *int                `mapstructure:"workers"`
	Clipboard *bool               `mapstructure:"clipboard"`
	Ignore    IgnoreConfiguration `mapstructure:"ignore"`
	Limits    LimitsConfiguration `mapstructure:"limits"`
	Tokens    TokenConfiguration  `mapstructure:"tokens"`
}

// IgnoreConfiguration configures which ignore sources are consulted.
type IgnoreConfiguration struct {
	Patterns      []string `mapstructure:"patterns"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
	Nested        *bool    `mapstructure:"nested"`
}

// LimitsConfiguration bounds per-file input and output.
type LimitsConfiguration struct {
	MaxFileSizeMegabytes *float64 `mapstructure:"max_file_size_mb"`
	MaxTokens            *int     `mapstructure:"max_tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Tokenizer string `mapstructure:"tokenizer"`
	Model     string `mapstructure:"model"`
}

// environmentKeys lists every configuration key that may be overridden from
// the environment, e.g. limits.max_tokens as FLATTEN_LIMITS_MAX_TOKENS.
var environmentKeys = []string{
	"output",
	"format",
	"all_files",
	"workers",
	"clipboard",
	"ignore.patterns",
	"ignore.use_gitignore",
	"ignore.use_ignore",
	"ignore.nested",
	"limits.max_file_size_mb",
	"limits.max_tokens",
	"tokens.tokenizer",
	"tokens.model",
}

// LoadApplicationConfiguration loads configuration from the global file, the
// local (or explicit) file, a .env file in the working directory and the
// process environment, later layers winning.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if !options.SkipEnvironment {
		dotenvConfig, dotenvErr := loadConfigurationFromDotenv(workingDirectory)
		if dotenvErr != nil {
			return ApplicationConfiguration{}, dotenvErr
		}
		merged = merged.Merge(dotenvConfig)

		environmentConfig, envErr := loadConfigurationFromEnvironment()
		if envErr != nil {
			return ApplicationConfiguration{}, envErr
		}
		merged = merged.Merge(environmentConfig)
	}

	merged.Ignore.Patterns = SplitPatternList(merged.Ignore.Patterns)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadConfigurationFromEnvironment decodes FLATTEN_* variables. Only
// variables that are present contribute values.
func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range environmentKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode %s_* environment: %w", utils.EnvironmentPrefix, decodeErr)
	}
	return config, nil
}

// loadConfigurationFromDotenv decodes the FLATTEN_* entries of a .env file in
// the working directory. A missing file contributes nothing.
func loadConfigurationFromDotenv(workingDirectory string) (ApplicationConfiguration, error) {
	dotenvPath := filepath.Join(workingDirectory, utils.DotenvFileName)
	values, readErr := godotenv.Read(dotenvPath)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("read %s: %w", dotenvPath, readErr)
	}
	reader := viper.New()
	for _, key := range environmentKeys {
		if value, present := values[environmentVariableName(key)]; present {
			reader.Set(key, value)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode %s: %w", dotenvPath, decodeErr)
	}
	return config, nil
}

// environmentVariableName maps a configuration key such as limits.max_tokens
// to FLATTEN_LIMITS_MAX_TOKENS.
func environmentVariableName(key string) string {
	return utils.EnvironmentPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.AllFiles != nil {
		result.AllFiles = cloneBool(override.AllFiles)
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Ignore = result.Ignore.merge(override.Ignore)
	result.Limits = result.Limits.merge(override.Limits)
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config IgnoreConfiguration) merge(override IgnoreConfiguration) IgnoreConfiguration {
	result := config
	if len(override.Patterns) > 0 {
		result.Patterns = append([]string{}, utils.DeduplicatePatterns(override.Patterns)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	if override.Nested != nil {
		result.Nested = cloneBool(override.Nested)
	}
	return result
}

func (config LimitsConfiguration) merge(override LimitsConfiguration) LimitsConfiguration {
	result := config
	if override.MaxFileSizeMegabytes != nil {
		value := *override.MaxFileSizeMegabytes
		result.MaxFileSizeMegabytes = &value
	}
	if override.MaxTokens != nil {
		result.MaxTokens = cloneInt(override.MaxTokens)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Tokenizer != "" {
		result.Tokenizer = override.Tokenizer
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
