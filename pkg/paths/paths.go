// Package paths provides centralized path handling for settle.
// The journal and backup store live in a well-known state directory
// relative to the working directory (overridable by environment), while
// configuration and logs follow the XDG Base Directory specification.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/settle-sh/settle/pkg/errors"
)

// Environment variable names
const (
	// EnvStateDir overrides the directory holding the journal and backups
	EnvStateDir = "SETTLE_STATE_DIR"

	// EnvConfigDir overrides the configuration directory
	EnvConfigDir = "SETTLE_CONFIG_DIR"
)

// Default directories and files
// IMPORTANT: These constants define settle's state layout and are NOT
// user-configurable. The journal location must stay stable across
// invocations or reversal cannot find a prior run's history.
const (
	// StateDirName is the state directory created in the working directory
	StateDirName = ".settle"

	// JournalFileName is the name of the mutation journal file
	JournalFileName = "journal.txt"

	// BackupsDirName is the subdirectory holding per-run backup trees
	BackupsDirName = "backups"

	// ConfigFileName is the base name of the configuration file
	ConfigFileName = "settle"
)

// Privileged roots: paths under these prefixes are mutated through the
// elevated execution path.
var privilegedRoots = []string{"/opt", "/usr/local"}

// Paths provides centralized path management for settle
type Paths struct {
	stateDir  string
	configDir string
	home      string
}

// New creates a Paths instance rooted at workDir. An empty workDir means
// the current working directory.
func New(workDir string) (*Paths, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine working directory")
		}
		workDir = wd
	}

	stateDir := os.Getenv(EnvStateDir)
	if stateDir == "" {
		stateDir = filepath.Join(workDir, StateDirName)
	}

	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, "settle")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine home directory")
	}

	return &Paths{
		stateDir:  stateDir,
		configDir: configDir,
		home:      home,
	}, nil
}

// StateDir returns the directory holding the journal and backup store.
func (p *Paths) StateDir() string {
	return p.stateDir
}

// JournalFile returns the path of the mutation journal.
func (p *Paths) JournalFile() string {
	return filepath.Join(p.stateDir, JournalFileName)
}

// BackupsRoot returns the directory under which per-run backups live.
func (p *Paths) BackupsRoot() string {
	return filepath.Join(p.stateDir, BackupsDirName)
}

// BackupRunDir returns the timestamped backup namespace for one run.
func (p *Paths) BackupRunDir(runStamp string) string {
	return filepath.Join(p.BackupsRoot(), runStamp)
}

// ConfigDir returns the settle configuration directory.
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ConfigFileCandidates returns the configuration files probed in order.
func (p *Paths) ConfigFileCandidates() []string {
	return []string{
		filepath.Join(p.configDir, ConfigFileName+".toml"),
		filepath.Join(p.configDir, ConfigFileName+".yaml"),
	}
}

// UserAppsDir is where unprivileged installs place application bundles.
func (p *Paths) UserAppsDir() string {
	return filepath.Join(p.home, ".local", "share", "settle", "apps")
}

// PrivilegedAppsDir is where privileged installs place application bundles.
func (p *Paths) PrivilegedAppsDir() string {
	return "/opt"
}

// AppRoot returns the install root for an application.
func (p *Paths) AppRoot(appName string, privileged bool) string {
	if privileged {
		return filepath.Join(p.PrivilegedAppsDir(), appName)
	}
	return filepath.Join(p.UserAppsDir(), appName)
}

// LauncherBinDir is where the command-line launcher symlink is placed.
func (p *Paths) LauncherBinDir() string {
	return filepath.Join(p.home, ".local", "bin")
}

// LauncherLink returns the launcher symlink path for a launcher name.
func (p *Paths) LauncherLink(launcher string) string {
	return filepath.Join(p.LauncherBinDir(), launcher)
}

// EnvironmentDir is where the Wayland environment snippet is written.
func (p *Paths) EnvironmentDir() string {
	return filepath.Join(p.home, ".config", "environment.d")
}

// EnvironmentFile returns the environment snippet path for an application.
func (p *Paths) EnvironmentFile(appName string) string {
	return filepath.Join(p.EnvironmentDir(), "90-"+appName+".conf")
}

// ApplicationsDir is where the freedesktop .desktop entry is written.
func (p *Paths) ApplicationsDir() string {
	return filepath.Join(p.home, ".local", "share", "applications")
}

// DesktopFile returns the .desktop entry path for an application.
func (p *Paths) DesktopFile(appName string) string {
	return filepath.Join(p.ApplicationsDir(), appName+".desktop")
}

// MenusDir is where the merged freedesktop menu fragment is written.
func (p *Paths) MenusDir() string {
	return filepath.Join(p.home, ".config", "menus", "applications-merged")
}

// MenuFile returns the menu fragment path for an application.
func (p *Paths) MenuFile(appName string) string {
	return filepath.Join(p.MenusDir(), "settle-"+appName+".menu")
}

// PrivilegedRoots returns the path prefixes mutated through the elevated
// execution path.
func PrivilegedRoots() []string {
	roots := make([]string, len(privilegedRoots))
	copy(roots, privilegedRoots)
	return roots
}

// IsPrivileged reports whether path falls under a privileged root. The
// decision is made per path, never cached for a run.
func IsPrivileged(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range privilegedRoots {
		if clean == root || strings.HasPrefix(clean, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
