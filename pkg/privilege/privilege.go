package privilege

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/settle-sh/settle/pkg/backup"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/types"
)

// Runner executes the undo primitives for one target path.
type Runner interface {
	// Remove deletes the path and anything under it. Absence is not an
	// error.
	Remove(path string) error

	// Restore overwrites targetPath with the backup's contents.
	Restore(backupPath, targetPath string) error
}

// CommandRunner abstracts elevated command execution so tests can fake it.
type CommandRunner interface {
	Run(name string, args ...string) error
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command and surfaces its combined output on failure.
func (ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "%s %s failed: %s",
			name, strings.Join(args, " "), strings.TrimSpace(string(output)))
	}
	return nil
}

// normalRunner undoes mutations through the plain filesystem.
type normalRunner struct {
	fs types.FS
}

func (r *normalRunner) Remove(path string) error {
	return r.fs.RemoveAll(path)
}

func (r *normalRunner) Restore(backupPath, targetPath string) error {
	return backup.Restore(r.fs, backupPath, targetPath)
}

// elevatedRunner undoes mutations under privileged roots by shelling out
// through sudo.
type elevatedRunner struct {
	cmd CommandRunner
}

func (r *elevatedRunner) Remove(path string) error {
	return r.cmd.Run("sudo", "rm", "-rf", path)
}

func (r *elevatedRunner) Restore(backupPath, targetPath string) error {
	if err := r.cmd.Run("sudo", "rm", "-rf", targetPath); err != nil {
		return err
	}
	if err := r.cmd.Run("sudo", "mkdir", "-p", filepath.Dir(targetPath)); err != nil {
		return err
	}
	// cp -a keeps permission bits and symlink targets, matching what the
	// backup store preserved.
	return r.cmd.Run("sudo", "cp", "-a", backupPath, targetPath)
}

// Strategy selects the execution path for a target: elevated for paths
// under a privileged root, normal elsewhere. The choice is made per path,
// for every single mutation, never cached for a run.
type Strategy struct {
	roots    []string
	normal   Runner
	elevated Runner
}

// NewStrategy creates a strategy over the given privileged root prefixes.
func NewStrategy(fs types.FS, cmd CommandRunner, roots []string) *Strategy {
	return &Strategy{
		roots:    roots,
		normal:   &normalRunner{fs: fs},
		elevated: &elevatedRunner{cmd: cmd},
	}
}

// For returns the runner for one target path.
func (s *Strategy) For(path string) Runner {
	if s.isPrivileged(path) {
		logger := logging.GetLogger("privilege")
		logger.Debug().
			Str("path", path).
			Msg("Using elevated execution")
		return s.elevated
	}
	return s.normal
}

// Elevated reports whether path would run through the elevated path.
func (s *Strategy) Elevated(path string) bool {
	return s.isPrivileged(path)
}

func (s *Strategy) isPrivileged(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range s.roots {
		if clean == root || strings.HasPrefix(clean, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
