package cmd

import (
	"fmt"

	"github.com/smazurov/kiosk/internal/updater"
	"github.com/spf13/cobra"
)

type updateOptions struct {
	check      bool
	rollback   bool
	repository string
	prerelease bool
	backupDir  string
}

func newUpdateCmd() *cobra.Command {
	opts := &updateOptions{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace javakiosk with the latest release",
		Long: `Downloads the latest GitHub release and replaces the javakiosk binary. ` +
			`The current binary is backed up first and restored if the replacement fails. ` +
			`A running kiosk keeps its binary until the next start.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.check && opts.rollback {
				return fmt.Errorf("--check and --rollback are mutually exclusive")
			}

			svc, err := updater.NewService(&updater.Options{
				Repository: opts.repository,
				Prerelease: opts.prerelease,
				BackupDir:  opts.backupDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			switch {
			case opts.rollback:
				if err := svc.Rollback(ctx); err != nil {
					return err
				}
				fmt.Fprintf(out, "Restored javakiosk %s\n", svc.BackupVersion())

			case opts.check:
				info, err := svc.CheckForUpdate(ctx)
				if err != nil {
					return err
				}
				if info.UpdateAvailable {
					fmt.Fprintf(out, "Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
				} else {
					fmt.Fprintf(out, "javakiosk %s is up to date\n", info.CurrentVersion)
				}

			default:
				info, err := svc.ApplyUpdate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated javakiosk %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.check, "check", false, "Only report whether an update is available")
	cmd.Flags().BoolVar(&opts.rollback, "rollback", false, "Restore the binary replaced by the last update")
	cmd.Flags().StringVar(&opts.repository, "repository", updater.DefaultRepository, "GitHub repository to fetch releases from")
	cmd.Flags().BoolVar(&opts.prerelease, "prerelease", false, "Include prereleases")
	cmd.Flags().StringVar(&opts.backupDir, "backup-dir", updater.DefaultBackupDir, "Where the replaced binary is kept")

	return cmd
}
