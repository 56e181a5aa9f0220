package cmd

import (
	"context"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/kiosk/internal/config"
	"github.com/smazurov/kiosk/internal/logging"
	"github.com/spf13/cobra"
)

// legacyDebugEnv enables console debug output like KIOSK_DEBUG.
const legacyDebugEnv = "JAVA_KIOSK_DEBUG"

type runFunc func(ctx context.Context, opts *Options, jvmArgs []string) int

// NewCLI creates the javakiosk command line. The exit status of a run is
// stored in exitCode.
func NewCLI(exitCode *int) humacli.CLI {
	return newCLI(exitCode, runKiosk)
}

func newCLI(exitCode *int, run runFunc) humacli.CLI {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		root := cli.Root()

		// Runs before every subcommand too, so all of them share config and logging
		loadErr := config.LoadConfig(opts, root)
		if os.Getenv(legacyDebugEnv) != "" && !root.PersistentFlags().Changed("debug") {
			opts.Debug = true
		}

		// The debug log file belongs to the kiosk run and is truncated when it
		// starts, so subcommands stay on the console and journal.
		logCfg := opts.loggingConfig(config.LoadLoggingConfig(opts.Config))
		consoleCfg := logCfg
		consoleCfg.File = ""
		_ = logging.Initialize(consoleCfg)

		logger := logging.GetLogger("kiosk")
		if loadErr != nil {
			logger.Warn("Failed to load config", "error", loadErr)
		}

		finished := make(chan struct{})
		hooks.OnStart(func() {
			defer close(finished)
			if loadErr != nil {
				logger.Error("Refusing to start without a readable config", "config", opts.Config)
				*exitCode = 1
				return
			}

			if err := logging.Initialize(logCfg); err != nil {
				logger.Warn("File logging disabled", "error", err)
			}
			defer logging.Close()

			*exitCode = run(root.Context(), opts, root.Flags().Args())
		})

		// humacli returns on the first SIGINT or SIGTERM. The runner sees the
		// same signal; wait until it has restored the display.
		hooks.OnStop(func() {
			<-finished
		})
	})

	root := cli.Root()
	root.Use = "javakiosk [flags] -- [jvm args]"
	root.Short = "Run a JavaFX application in kiosk mode"
	root.Long = `Switches the host out of the graphical target, runs the JVM with the Gluon JavaFX SDK ` +
		`on the Monocle EGL platform and restores the graphical target when the application exits ` +
		`or the launcher receives SIGINT, SIGHUP or SIGTERM.`
	root.Example = "  javakiosk -- -p /opt/app/lib -m com.example.app/com.example.Main"
	root.Args = cobra.ArbitraryArgs
	root.SilenceUsage = true

	root.AddCommand(newVersionCmd(), newUpdateCmd())
	return cli
}

// Execute runs the CLI and returns the process exit status.
func Execute() int {
	exitCode := 0
	if err := NewCLI(&exitCode).Root().Execute(); err != nil {
		return 1
	}
	return exitCode
}
