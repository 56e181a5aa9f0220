package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/smazurov/kiosk/internal/events"
	"github.com/smazurov/kiosk/internal/jvm"
	"github.com/smazurov/kiosk/internal/lock"
	"github.com/smazurov/kiosk/internal/logging"
	"github.com/smazurov/kiosk/internal/metrics"
	"github.com/smazurov/kiosk/internal/nats"
	"github.com/smazurov/kiosk/internal/process"
	"github.com/smazurov/kiosk/internal/systemd"
)

const detectTimeout = 10 * time.Second

// runKiosk prepares the JVM invocation and runs it between the display mode
// switches. Preparation failures return 1 before the display is touched.
func runKiosk(ctx context.Context, opts *Options, jvmArgs []string) int {
	logger := logging.GetLogger("kiosk")

	if opts.RequireRoot && os.Geteuid() != 0 {
		logger.Error("Unable to execute javakiosk without running as root")
		return 1
	}

	app, err := buildApplication(ctx, opts, jvmArgs, logger)
	if err != nil {
		logger.Error("Failed to prepare application", "error", err)
		return 1
	}

	switchTimeout := parseDuration("switch-timeout", opts.SwitchTimeout, process.DefaultSwitchTimeout, logger)
	enter, err := process.NewStep("enter", opts.EnterCommand, switchTimeout)
	if err != nil {
		logger.Error("Invalid enter command", "command", opts.EnterCommand, "error", err)
		return 1
	}
	restore, err := process.NewStep("restore", opts.RestoreCommand, 0)
	if err != nil {
		logger.Error("Invalid restore command", "command", opts.RestoreCommand, "error", err)
		return 1
	}

	instance, err := lock.Acquire(opts.LockFile)
	if err != nil {
		logger.Error("Refusing to start", "error", err)
		return 1
	}
	defer func() {
		if releaseErr := instance.Release(); releaseErr != nil {
			logger.Warn("Failed to release lock", "error", releaseErr)
		}
	}()

	recorder := metrics.NewRecorder()
	bus := events.New()
	stopBridge := systemd.NewNotifier(logging.GetLogger("systemd")).Bridge(bus)
	defer stopBridge()

	monitor := newDisplayMonitor(ctx, opts.DisplayUnit, logging.GetLogger("systemd"))
	defer monitor.Close()

	notifier := nats.NewRemoteNotifier(process.OSNotifier{})
	if opts.NatsURL != "" {
		client := nats.NewClient(opts.NatsURL, nodeName(opts.NodeName), logging.GetLogger("nats"))
		// A failed connect is logged by the client; the run continues offline
		_ = client.Connect()
		client.OnStop(func(reason string) {
			if !notifier.Deliver() {
				logger.Warn("Remote stop ignored, runner is not accepting signals", "reason", reason)
			}
		})
		defer client.Close()
		stopNats := client.Bridge(bus)
		defer stopNats()
	}

	runnerLogger := logging.GetLogger("runner")
	launcher := process.NewExecLauncher(runnerLogger)
	launcher.SetLogParser(logging.GetLogger("app"), jvm.ParseLogLevel)

	runner := process.NewRunner(app, &process.RunnerOptions{
		Enter:        enter,
		Restore:      restore,
		Launcher:     launcher,
		Notifier:     notifier,
		Logger:       runnerLogger,
		PollInterval: parseDuration("poll-interval", opts.PollInterval, process.DefaultPollInterval, logger),
		GracePeriod:  parseDuration("grace-period", opts.GracePeriod, process.DefaultGracePeriod, logger),
		Hooks:        buildHooks(recorder, bus, monitor),
	})

	report, err := runner.Run()
	if err != nil {
		logger.Error("Kiosk runner failed", "error", err)
		return 1
	}
	recorder.RunCompleted(time.Now())

	if opts.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(opts.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}

	exitCode := report.ExitCode()
	logger.Debug("javakiosk has completed and will now exit",
		"exit_code", exitCode, "cancelled", report.Cancelled, "signal", report.Signal)
	return exitCode
}

// nodeName returns name, or the host name when name is empty.
func nodeName(name string) string {
	if name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// buildApplication resolves the Java binary and builds the patched JVM step.
func buildApplication(ctx context.Context, opts *Options, jvmArgs []string, logger logging.Logger) (process.Step, error) {
	javaPath, err := exec.LookPath(opts.JavaBin)
	if err != nil {
		return process.Step{}, fmt.Errorf("unable to find %q binary in current PATH: %w", opts.JavaBin, err)
	}
	logger.Debug("Found JVM to launch Java kiosk application", "path", javaPath)

	extra, err := process.ParseCommand(opts.ExtraJvmArgs)
	if err != nil {
		return process.Step{}, fmt.Errorf("parse extra JVM arguments: %w", err)
	}

	inv, err := jvm.ParseArgs(append(extra, jvmArgs...))
	if err != nil {
		return process.Step{}, fmt.Errorf("parse JVM arguments: %w", err)
	}
	logger.Debug("Parsed user-specified JVM properties", "properties", inv.Properties)
	logger.Debug("Additional JVM arguments", "args", inv.Extra)

	inv.Patch(opts.JavafxPath)
	logger.Debug("Patched module options", "module_path", inv.ModulePath, "add_modules", inv.AddModules)

	if displayID, ok := inv.Property(jvm.DisplayIDProperty); ok {
		logger.Debug("Skipping auto-detection of primary video card due to user-specified value", "card", displayID)
	} else {
		detectCtx, cancel := context.WithTimeout(ctx, detectTimeout)
		card, detectErr := jvm.DetectDisplayID(detectCtx, opts.DetectCardBin, logger)
		cancel()
		if detectErr != nil {
			return process.Step{}, fmt.Errorf("could not auto-detect primary video card, "+
				"please manually specify `-D%s=/dev/dri/card<X>` property: %w", jvm.DisplayIDProperty, detectErr)
		}
		inv.SetProperty(jvm.DisplayIDProperty, card)
		logger.Debug("Auto-detected primary video card", "card", card)
	}

	inv.PatchLibraryPath(opts.JavafxPath)

	step := process.Step{
		Name: "app",
		Args: append([]string{javaPath}, inv.Args()...),
		Env:  jvm.PatchEnv(os.Environ()),
	}
	logger.Debug("Final JVM arguments", "args", step.Args[1:])
	return step, nil
}
