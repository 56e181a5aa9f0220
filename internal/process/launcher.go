package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/smazurov/kiosk/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrLaunchFailed is wrapped by errors from steps whose process could not be started.
var ErrLaunchFailed = errors.New("launch failed")

// Launcher starts the process described by a step.
type Launcher interface {
	Launch(step Step) (Handle, error)
}

// Handle controls a launched process.
type Handle interface {
	// Pid returns the OS process identifier.
	Pid() int

	// Exited reports whether the process has exited. Never blocks.
	Exited() bool

	// ExitCode returns the exit status, or -1 while the process is running.
	ExitCode() int

	// Wait blocks until the process exits or timeout elapses.
	// A negative timeout waits forever. Returns true if the process exited.
	Wait(timeout time.Duration) bool

	// Terminate sends SIGTERM.
	Terminate() error

	// Kill sends SIGKILL.
	Kill() error
}

// LogParser parses a log line and returns the log level and message.
// Used to extract structured log info from process output.
type LogParser func(line string) (level, msg string)

// ExecLauncher launches steps with os/exec in their own process group,
// so terminal signals sent to the kiosk are not delivered to children.
type ExecLauncher struct {
	logger        logging.Logger
	processLogger logging.Logger // logger for process output (nil = use logger)
	logParser     LogParser      // parses process output for log level (nil = no parsing)
}

// NewExecLauncher creates a launcher that logs process output to logger.
func NewExecLauncher(logger logging.Logger) *ExecLauncher {
	return &ExecLauncher{logger: logger}
}

// SetLogParser sets a custom logger and log parser for process output.
func (l *ExecLauncher) SetLogParser(logger logging.Logger, parser LogParser) {
	l.processLogger = logger
	l.logParser = parser
}

// Launch starts the step's process and returns a handle to it.
func (l *ExecLauncher) Launch(step Step) (Handle, error) {
	if len(step.Args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(step.Args[0], step.Args[1:]...)
	cmd.Env = step.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, err
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{}), drained: make(chan struct{}), exitCode: -1}
	var drain errgroup.Group
	drain.Go(func() error {
		defer stdoutR.Close()
		l.streamOutput(stdoutR, step.Name, "stdout")
		return nil
	})
	drain.Go(func() error {
		defer stderrR.Close()
		l.streamOutput(stderrR, step.Name, "stderr")
		return nil
	})
	go func() {
		_ = drain.Wait()
		close(h.drained)
	}()

	go func() {
		waitErr := cmd.Wait()
		h.exitCode = exitCodeFromError(waitErr)
		close(h.done)
	}()

	return h, nil
}

// streamOutput logs each line of a process output stream.
func (l *ExecLauncher) streamOutput(reader io.Reader, step, source string) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	logger := l.processLogger
	if logger == nil {
		logger = l.logger
	}

	for scanner.Scan() {
		level, msg := "info", scanner.Text()
		if l.logParser != nil {
			level, msg = l.logParser(msg)
		}

		switch level {
		case "fatal", "error":
			logger.Error(msg, "step", step, "source", source)
		case "warning":
			logger.Warn(msg, "step", step, "source", source)
		case "debug", "trace":
			logger.Debug(msg, "step", step, "source", source)
		default:
			logger.Info(msg, "step", step, "source", source)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		l.logger.Warn("Error reading output", "step", step, "source", source, "error", err)
	}
}

// drainTimeout bounds how long Wait lingers for buffered output after exit.
// Descendants that inherited the pipes may keep them open indefinitely.
const drainTimeout = 500 * time.Millisecond

type execHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	drained  chan struct{}
	exitCode int // written before done is closed
}

func (h *execHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *execHandle) ExitCode() int {
	if !h.Exited() {
		return -1
	}
	return h.exitCode
}

func (h *execHandle) Wait(timeout time.Duration) bool {
	if timeout < 0 {
		<-h.done
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-h.done:
		case <-timer.C:
			return false
		}
	}
	select {
	case <-h.drained:
	case <-time.After(drainTimeout):
	}
	return true
}

func (h *execHandle) Terminate() error {
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

func (h *execHandle) Kill() error {
	return h.cmd.Process.Kill()
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, 128+signal for signalled processes,
// the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}
