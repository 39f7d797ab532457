// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	cfg := logging.DefaultConfig()
//	cfg.Level = "debug"
//	logger, err := logging.New(cfg)
//	logger.Info("Relay starting", zap.String("port", "8787"))
//	logger.Error("Failed to upgrade connection", zap.Error(err))
package logging
