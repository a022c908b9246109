// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber admin API and the background sync runner.
//
// # Correlation
//
// Two helpers attach correlation identifiers to log entries:
//   - WithRayID extracts the RayID from a Fiber context (HTTP requests).
//   - WithRun tags every entry produced during one sync pass with its run_id.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync runner started")
//
//	l := logger.WithRun(log, runID)
//	l.Error("Guild sync failed", zap.Error(err))
package logger
