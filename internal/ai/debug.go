package ai

import "sync/atomic"

// debugLoggingEnabled controls whether debug logging is enabled for the AI
// subsystem. Package-level flag to avoid the overhead of a handler level
// check on every tick. Set via EnableDebugLogging() during initialization
// based on the configured log level.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables debug logging for the AI
// subsystem. Call during initialization, after the log level is known.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
// Use this to guard debug log calls that build arguments:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("scan finished", "candidates", collectCandidates())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
