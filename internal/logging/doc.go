// Package logging provides structured logging for Rostrum debates.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. It is
// designed to help troubleshoot multi-session debate runs by providing
// structured, filterable logs that can be analyzed after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (session ID, component, judge)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for a data directory:
//
//	logger, err := logging.NewLogger("/path/to/data/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("round completed", "round", 2)
//	logger.Warn("persist retry", "attempt", 3)
//	logger.Error("generation failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	sessionLogger := logger.WithSession("session-abc123")
//	judgeLogger := sessionLogger.WithJudge("Prof. Chen")
//
//	// All logs from judgeLogger will include session_id and judge
//	judgeLogger.Info("evaluation complete", "pro_total", 78.5)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"evaluation complete","session_id":"session-abc123","judge":"Prof. Chen","pro_total":78.5}
//
// # Log Rotation
//
// For long-running services, use log rotation to prevent unbounded growth:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	}
//
//	logger, err := logging.NewLoggerWithRotation("/path/to/data/logs", "INFO", config)
//
// Rotated files are named: rostrum.log.1, rostrum.log.2, etc., where .1 is
// the most recent backup. When compression is enabled, rotated files become
// rostrum.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NewNopLogger] to discard all log output, or
// [NewWriterLogger] to capture output in a buffer:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NewNopLogger()
//	    // Use logger in tests without creating files
//	}
package logging
