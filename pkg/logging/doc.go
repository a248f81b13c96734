// Package logging provides structured logging utilities for MinBackup components.
//
// # Overview
//
// This package wraps the standard library slog package with project defaults
// and conventions for consistent logging across the CLI and the scheduler
// daemon. It supports environment-based log level configuration, module and
// version context injection, and source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("minbackup", "v1.0.0")
//
//	    slog.Info("creating snapshot", "vm", "dev", "name", snapName)
//	    slog.Error("snapshot failed", "error", err)
//	}
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug minbackup snapshot create dev
package logging
