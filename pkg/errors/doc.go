// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Error codes cover two families with different propagation rules:
//
//   - Platform conditions (PLATFORM_UNAVAILABLE, PLATFORM_TIMEOUT,
//     PLATFORM_ERROR) are recoverable at the caller's discretion. The
//     registry and the scheduler treat them as per-item failures to report,
//     never as reasons to abort a larger list, batch, or tick.
//   - Validation failures (INVALID_INTERVAL, INVALID_RETENTION_COUNT,
//     UNKNOWN_PLATFORM, AMBIGUOUS_VM) indicate a caller or configuration
//     mistake and always abort the single operation that triggered them.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodePlatformTimeout,
//	    "failed to list snapshots",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "command": "vboxmanage",
//	        "vm": vmName,
//	    },
//	)
package errors
