package jvm

import "strings"

// ParseLogLevel maps a line of JVM output to a log level. It understands
// java.util.logging ("SEVERE: ...") and log4j/logback style ("... [WARN] ...")
// markers among the first few fields. Markers are upper case only, so
// ordinary words such as "error" in a message do not match. The line is
// returned unchanged.
func ParseLogLevel(line string) (level, msg string) {
	fields := strings.Fields(line)
	if len(fields) > 4 {
		fields = fields[:4]
	}

	for _, field := range fields {
		token := strings.Trim(field, "[]:")
		switch token {
		case "SEVERE", "ERROR", "FATAL":
			return "error", line
		case "WARNING", "WARN":
			return "warning", line
		case "FINE", "FINER", "FINEST", "DEBUG", "TRACE":
			return "debug", line
		case "INFO", "CONFIG":
			return "info", line
		}
	}
	return "info", line
}
