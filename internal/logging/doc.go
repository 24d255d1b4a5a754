// Package logging provides structured logging for agentboard.
//
// The package wraps log/slog with a JSON handler and adds context
// propagation for the things agentboard reasons about: the session source,
// the workspace within it, and the session being derived.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(dir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithSource("teams").WithWorkspace("alpha").Info("scan complete", "tasks", 4)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"scan complete","source":"teams","workspace":"alpha","tasks":4}
//
// An empty directory sends output to stderr.
//
// # Log Rotation
//
// [NewLoggerWithRotation] routes output through a [RotatingWriter]. When the
// file exceeds MaxSizeMB it is renamed to agentboard.log.1 (shifting older
// backups up) and, with Compress set, gzipped to agentboard.log.1.gz.
//
// # Reading Logs Back
//
// [AggregateLogs], [FilterLogs] and [WriteLogEntries] back the
// `agentboard logs` command.
//
// # Thread Safety
//
// All types are safe for concurrent use. Child loggers created with the
// With* methods share the parent's writer and lock.
package logging
