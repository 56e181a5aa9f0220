package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/kiosk/internal/logging"
	"github.com/smazurov/kiosk/internal/version"
)

// releaseUpdater is the part of selfupdate.Updater the service uses.
type releaseUpdater interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

// Service checks for, applies and rolls back binary updates.
type Service struct {
	repository    selfupdate.Repository
	updater       releaseUpdater
	backupManager *backupManager
	execPath      string

	// Disabled state
	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates an updater service. The service is returned disabled,
// not as an error, when the executable cannot be replaced.
func NewService(opts *Options) (*Service, error) {
	logger := logging.GetLogger("updater")

	execPath := opts.ExecPath
	if execPath == "" {
		exe, err := selfupdate.ExecutablePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		execPath = exe
	}

	if canWrite, reason := checkWritePermission(execPath); !canWrite {
		logger.Warn("Update service disabled", "reason", reason)
		return &Service{execPath: execPath, disabledReason: reason, logger: logger}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backupDir := opts.BackupDir
	if backupDir == "" {
		backupDir = DefaultBackupDir
	}
	backupMgr, err := newBackupManager(backupDir, logger)
	if err != nil {
		logger.Warn("Failed to create backup manager", "error", err)
	}

	repository := opts.Repository
	if repository == "" {
		repository = DefaultRepository
	}

	return &Service{
		repository:    selfupdate.ParseSlug(repository),
		updater:       updater,
		backupManager: backupMgr,
		execPath:      execPath,
		enabled:       true,
		logger:        logger,
	}, nil
}

// checkWritePermission reports whether files can be created beside execPath.
func checkWritePermission(execPath string) (bool, string) {
	exe, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	f, err := os.CreateTemp(dir, ".javakiosk.update.test*")
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return true, ""
}

// IsEnabled returns whether the update service is operational.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// DisabledReason returns why the update service is disabled.
func (s *Service) DisabledReason() string {
	return s.disabledReason
}

// BackupVersion returns the version of the backed up binary, if any.
func (s *Service) BackupVersion() string {
	if s.backupManager == nil {
		return ""
	}
	return s.backupManager.backupVersion()
}

// CheckForUpdate queries GitHub for the latest release and compares
// it against the current version. A dev build is always outdated.
func (s *Service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	_, info, err := s.detect(ctx)
	return info, err
}

func (s *Service) detect(ctx context.Context) (*selfupdate.Release, *UpdateInfo, error) {
	if !s.enabled {
		return nil, nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	currentVersion := version.Version
	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		return nil, nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		return nil, nil, newError(ErrCodeNotFound, "repository not found or has no releases", nil)
	}

	info := &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: currentVersion == "dev" || release.GreaterThan(currentVersion),
	}
	s.logger.Debug("Checked for update", "current", info.CurrentVersion, "latest", info.LatestVersion,
		"available", info.UpdateAvailable)
	return release, info, nil
}

// ApplyUpdate backs up the current binary and replaces it with the latest
// release. A failed replacement restores the backup.
func (s *Service) ApplyUpdate(ctx context.Context) (*UpdateInfo, error) {
	release, info, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, newError(ErrCodeNoUpdate, "no update available", nil)
	}

	if s.backupManager != nil {
		if err := s.backupManager.createBackup(s.execPath, version.Version); err != nil {
			return info, newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	if err := s.updater.UpdateTo(ctx, release, s.execPath); err != nil {
		s.attemptRollback()
		return info, newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.logger.Info("Update applied, takes effect on next start", "version", info.LatestVersion)
	return info, nil
}

// Rollback restores the previously backed up binary.
func (s *Service) Rollback(_ context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if s.backupManager == nil || !s.backupManager.hasBackup() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}

	if err := s.backupManager.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	return nil
}

func (s *Service) attemptRollback() {
	if s.backupManager == nil {
		s.logger.Error("No backup available for automatic rollback")
		return
	}

	if err := s.backupManager.restore(); err != nil {
		if errors.Is(err, errNoBackup) {
			s.logger.Error("No backup available for automatic rollback")
			return
		}
		s.logger.Error("Failed to restore backup", "error", err)
		return
	}
	s.logger.Info("Automatic rollback completed")
}
