// Package logging provides structured logging for the ccapi tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the client. Logging is silent by default so the
// library can be embedded in CLI tools without unexpected output; set
// CCAPI_LOG_LEVEL (debug, info, warn, error) to enable it.
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device discovered",
//	    zap.String("device_id", "001A2B3C4D5E"),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
