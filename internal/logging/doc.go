// Package logging provides structured logging for the kiosk launcher.
//
// # Overview
//
// Records fan out to up to three sinks through a [MultiHandler]:
//   - console: stderr (or Config.Console), debug level only with --debug
//   - file: every record at debug level, truncated on each start
//   - journal: systemd journal when available, same level as the console
//
// # Usage
//
// Initialize once at startup and close before exit:
//
//	if err := logging.Initialize(logging.Config{
//		Debug: false,
//		File:  logging.DefaultLogFile,
//	}); err != nil {
//		logging.GetLogger("kiosk").Warn("File logging disabled", "error", err)
//	}
//	defer logging.Close()
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("runner")
//	logger.Info("Application has terminated", "exit_code", 0)
//
// Loggers obtained before Initialize are rebuilt in place, so packages may
// grab one at construction time.
//
// # Viewing Logs
//
//	journalctl -t javakiosk                  # All kiosk logs
//	journalctl -t javakiosk MODULE=app       # Application output only
//	less /tmp/java-kiosk.log                 # Full debug log of the last run
//
// # Configuration
//
//	[logging]
//	debug = false
//	format = "text"
//	file = "/tmp/java-kiosk.log"
//
//	[logging.modules]
//	app = "warn"
package logging
