package updater

import "time"

// DefaultRepository is the GitHub slug releases are fetched from.
const DefaultRepository = "smazurov/kiosk"

// DefaultBackupDir holds the binary replaced by the last update.
const DefaultBackupDir = "/var/lib/kiosk/backup"

// UpdateInfo describes the latest release relative to the running binary.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Options contains configuration for the updater service.
type Options struct {
	Repository string // GitHub repo slug, e.g. "smazurov/kiosk"
	Prerelease bool
	BackupDir  string
	// ExecPath is the binary to replace. Empty means the running executable.
	ExecPath string
}
