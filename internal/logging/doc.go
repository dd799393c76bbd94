// Package logging provides structured logging for the ut181a tools.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent unless a level is requested, so command output is never mixed
// with diagnostics.
//
// # Log Levels
//
//   - Debug: Frame hex dumps, discarded messages, resynchronization
//   - Info: Connections, monitor start/stop, server lifecycle
//   - Warn: Recoverable problems (decode errors, dropped clients)
//   - Error: Failures that end an operation
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the UT181A_LOG_LEVEL environment variable.
//
// # Protocol Logging
//
//	logging.LogFrame("tx", cmd.Name, frame)
//	logging.LogRawBytes("Serial read", chunk)
//
// Dumps are only built when debug logging is enabled.
package logging
