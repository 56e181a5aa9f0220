package cmd

import (
	"log/slog"
	"time"

	"github.com/smazurov/kiosk/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
// Environment variables carry the KIOSK_ prefix.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/kiosk/kiosk.toml"`

	// Logging settings
	Debug     bool   `help:"Show debug output on the console" short:"d" default:"false" toml:"logging.debug" env:"DEBUG"`
	LogFile   string `help:"Debug log file, truncated on start (empty disables)" default:"/tmp/java-kiosk.log" toml:"logging.file" env:"LOG_FILE"`
	LogFormat string `help:"Console log format (text, json)" default:"text" toml:"logging.format" env:"LOG_FORMAT"`

	// JVM settings
	JavaBin       string `help:"Java binary, looked up in PATH" default:"java" toml:"jvm.java_bin" env:"JAVA_BIN"`
	JavafxPath    string `help:"Gluon JavaFX SDK directory" default:"/opt/javafx-sdk" toml:"jvm.javafx_path" env:"JAVAFX_PATH"`
	DetectCardBin string `help:"Helper printing the primary DRM card" default:"/usr/local/bin/detect-primary-card" toml:"jvm.detect_card_bin" env:"DETECT_CARD_BIN"`
	ExtraJvmArgs  string `help:"JVM arguments placed before the command line ones" toml:"jvm.extra_args" env:"EXTRA_JVM_ARGS"`

	// Display mode settings
	EnterCommand   string `help:"Command switching into kiosk display mode" default:"/usr/sbin/init 3" toml:"display.enter_command" env:"ENTER_COMMAND"`
	RestoreCommand string `help:"Command restoring normal display mode" default:"/usr/sbin/init 5" toml:"display.restore_command" env:"RESTORE_COMMAND"`
	DisplayUnit    string `help:"Systemd unit whose state is logged around the run" default:"graphical.target" toml:"display.unit" env:"DISPLAY_UNIT"`

	// Runner settings
	SwitchTimeout string `help:"Deadline for the enter command" default:"10s" toml:"runner.switch_timeout" env:"SWITCH_TIMEOUT"`
	GracePeriod   string `help:"Time between SIGTERM and SIGKILL" default:"15s" toml:"runner.grace_period" env:"GRACE_PERIOD"`
	PollInterval  string `help:"Process liveness check interval" default:"100ms" toml:"runner.poll_interval" env:"POLL_INTERVAL"`
	LockFile      string `help:"Single-instance lock file" default:"/run/java-kiosk.lock" toml:"runner.lock_file" env:"LOCK_FILE"`
	RequireRoot   bool   `help:"Refuse to run without root privileges" default:"true" toml:"runner.require_root" env:"REQUIRE_ROOT"`

	MetricsTextfile string `help:"Write run metrics here for the node_exporter textfile collector" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`

	// Fleet reporting
	NatsURL  string `help:"Publish run events to this NATS server (empty disables)" toml:"nats.url" env:"NATS_URL"`
	NodeName string `help:"Node name in NATS subjects, defaults to the host name" toml:"nats.node" env:"NODE_NAME"`
}

// parseDuration parses a duration option. Empty or malformed values fall back to def.
func parseDuration(name, value string, def time.Duration, logger *slog.Logger) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", def)
		return def
	}
	return d
}

// loggingConfig builds the logging configuration, keeping per-module levels from the file.
func (o *Options) loggingConfig(fileCfg logging.Config) logging.Config {
	fileCfg.Debug = o.Debug
	fileCfg.File = o.LogFile
	fileCfg.Format = o.LogFormat
	return fileCfg
}
