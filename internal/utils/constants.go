package utils

// Well-known file and directory names.
const (
	// IgnoreFileName is the name of the tool-specific ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// ConfigFileName is the name of the local configuration file.
	ConfigFileName = ".flatten.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding config.yaml.
	GlobalConfigDirectoryName = ".flatten"
	// GlobalConfigFileName is the file name of the global configuration.
	GlobalConfigFileName = "config.yaml"
	// DefaultOutputFileName is where the digest is written when no output is given.
	DefaultOutputFileName = "flattened_codebase.md"
	// StandardStreamPath selects stdout as the output destination.
	StandardStreamPath = "-"
	// DotenvFileName is the optional file holding FLATTEN_* overrides.
	DotenvFileName = ".env"
	// EnvironmentPrefix prefixes environment variable overrides.
	EnvironmentPrefix = "FLATTEN"
)

// Messages used by the command entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %v"
	// ApplicationExecutionFailedMessage prefixes a fatal command error.
	ApplicationExecutionFailedMessage = "flatten failed"
)
