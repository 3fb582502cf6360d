package cmd

// Exit codes for the reqpace CLI
const (
	// ExitSuccess indicates the run completed
	ExitSuccess = 0

	// ExitRunFailure indicates one or more requests failed
	ExitRunFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
