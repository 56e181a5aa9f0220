package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultLogFile is where the debug log is written unless configured otherwise.
const DefaultLogFile = "/tmp/java-kiosk.log"

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers = make(map[string]*slog.Logger)
	moduleRefs    = make(map[string]*handlerRef)
	globalConfig  Config
	isInitialized bool
	logFile       *os.File
	mutex         sync.RWMutex

	// journalEnabled is swapped in tests.
	journalEnabled = IsJournalAvailable
)

// Config represents logging configuration.
type Config struct {
	// Debug lowers the console and journal level to debug.
	Debug bool `toml:"debug"`

	// Format of the console sink: text or json. The file sink is always text.
	Format string `toml:"format"`

	// File receives every record at debug level. Truncated on Initialize.
	// Empty disables the file sink.
	File string `toml:"file"`

	// Modules overrides the console level per module.
	Modules map[string]string `toml:"modules"`

	// Console is where console records go. Defaults to os.Stderr.
	Console io.Writer `toml:"-"`
}

// Initialize sets up the logging system and replaces the default slog logger.
// If the log file cannot be opened, logging continues without it and the error is returned.
func Initialize(config Config) error {
	mutex.Lock()
	defer mutex.Unlock()

	_ = closeFileLocked()

	var fileErr error
	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			fileErr = fmt.Errorf("open log file: %w", err)
		} else {
			logFile = f
		}
	}

	globalConfig = config
	isInitialized = true

	rebuildModulesLocked()

	slog.SetDefault(slog.New(createHandler(consoleLevel(""))))
	return fileErr
}

// Close flushes and closes the file sink. Console and journal sinks stay active.
func Close() error {
	mutex.Lock()
	defer mutex.Unlock()

	err := closeFileLocked()
	rebuildModulesLocked()
	if isInitialized {
		slog.SetDefault(slog.New(createHandler(consoleLevel(""))))
	}
	return err
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	_ = logFile.Sync()
	err := logFile.Close()
	logFile = nil
	return err
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	// Double-check in case another goroutine created it
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	logger := newModuleLogger(module)
	moduleLoggers[module] = logger
	return logger
}

func newModuleLogger(module string) *slog.Logger {
	ref := &handlerRef{}
	ref.set(createHandler(consoleLevel(module)))
	moduleRefs[module] = ref
	return slog.New(&dynamicHandler{ref: ref}).With("module", module)
}

// rebuildModulesLocked points every cached module logger at the current sinks.
func rebuildModulesLocked() {
	for module, ref := range moduleRefs {
		ref.set(createHandler(consoleLevel(module)))
	}
}

// consoleLevel returns the level for the console and journal sinks.
// Before Initialize everything logs at info to stderr.
func consoleLevel(module string) slog.Level {
	if !isInitialized {
		return slog.LevelInfo
	}

	level := slog.LevelInfo
	if globalConfig.Debug {
		level = slog.LevelDebug
	}
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			level = *parsed
		}
	}
	return level
}

// createHandler creates the handler chain for the current configuration.
// Console at level, journal at level when available, file always at debug.
func createHandler(level slog.Level) slog.Handler {
	var handlers []slog.Handler

	console := globalConfig.Console
	if console == nil && isConsoleAvailable(os.Stderr) {
		console = os.Stderr
	}
	if console != nil {
		opts := &slog.HandlerOptions{Level: level}
		if globalConfig.Format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(console, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(console, opts))
		}
	}

	if isInitialized && journalEnabled() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	if logFile != nil {
		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	switch len(handlers) {
	case 0:
		return slog.NewTextHandler(io.Discard, nil)
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isConsoleAvailable checks if f is connected to a terminal, pipe, socket, or file.
func isConsoleAvailable(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		l := slog.LevelDebug
		return &l
	case "info":
		l := slog.LevelInfo
		return &l
	case "warn", "warning":
		l := slog.LevelWarn
		return &l
	case "error":
		l := slog.LevelError
		return &l
	default:
		return nil
	}
}
