package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "warnscan"

	// ConfigFileName is the default config file name
	ConfigFileName = "warnscan.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "WARNSCAN"

	// ConfigEnvVar points to a configuration file outside the search path
	ConfigEnvVar = EnvVarPrefix + "_CONFIG"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
	OutputFormatHTML = "html"
)

// Execution defaults
const (
	DefaultMaxGoroutines  = 4
	DefaultTimeoutSeconds = 300
	DefaultServerAddress  = ":8080"
	DefaultReportDir      = ".warnscan/reports"
)

// Exit codes of the check command
const (
	ExitSuccess  = 0
	ExitUnstable = 1
	ExitFailure  = 2
)
