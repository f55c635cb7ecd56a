package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/types"
)

// Result describes the outcome of snapshotting a path.
type Result struct {
	// Existed reports whether anything was present at the path. When
	// false, the caller records a *Created kind and Path is empty.
	Existed bool

	// IsDir reports whether the snapshotted path was a directory.
	IsDir bool

	// Path is the backup location inside the store. Under dry-run this is
	// a synthetic location for logging only; callers must not assume it
	// is real.
	Path string
}

// Store is the content-preserving snapshot area for one run. Each run gets
// a timestamped namespace, and each snapshot of a path within the run gets
// a numbered layer under it, oldest first, so repeated snapshots of one
// path never collide.
type Store struct {
	fs     types.FS
	root   string
	ctx    types.RunContext
	layers map[string]int
}

// NewStore creates a backup store rooted at runDir, the timestamped
// namespace for this run.
func NewStore(fs types.FS, runDir string, ctx types.RunContext) *Store {
	return &Store{
		fs:     fs,
		root:   runDir,
		ctx:    ctx,
		layers: make(map[string]int),
	}
}

// Root returns the store's run namespace directory.
func (s *Store) Root() string {
	return s.root
}

// Snapshot preserves the current state of path, recursively for
// directories, keeping permission bits and symlink targets verbatim.
// A missing path is not an error: the result reports Existed=false and
// the caller records the corresponding *Created kind. Any copy failure is
// BackupFailed, and the caller must not mutate the original path.
func (s *Store) Snapshot(path string) (Result, error) {
	logger := logging.GetLogger("backup")

	info, err := s.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("Nothing to preserve, path does not exist")
			return Result{}, nil
		}
		return Result{}, errors.Wrapf(err, errors.ErrBackupFailed, "cannot inspect %s before backup", path)
	}

	layer := s.layers[path]
	s.layers[path]++
	dest := filepath.Join(s.root, fmt.Sprintf("%03d", layer), trimRoot(path))

	result := Result{
		Existed: true,
		IsDir:   info.IsDir(),
		Path:    dest,
	}

	if s.ctx.DryRun {
		logger.Info().
			Str("path", path).
			Str("backup", dest).
			Int("layer", layer).
			Msg("Would snapshot")
		return result, nil
	}

	if err := copyAny(s.fs, path, dest); err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrBackupFailed, "cannot snapshot %s", path)
	}

	logger.Info().
		Str("path", path).
		Str("backup", dest).
		Int("layer", layer).
		Bool("dir", info.IsDir()).
		Msg("Snapshotted")

	return result, nil
}

// Restore overwrites targetPath with the contents of backupPath. Restoring
// over an already-restored or never-mutated target is a safe overwrite,
// which is what makes replaying a failed mutation's record a no-op.
func Restore(fsys types.FS, backupPath, targetPath string) error {
	if _, err := fsys.Lstat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrBackupNotFound, "backup %s is missing", backupPath)
		}
		return errors.Wrapf(err, errors.ErrBackupNotFound, "cannot inspect backup %s", backupPath)
	}

	// Clear whatever is at the target so symlinks and type changes
	// restore cleanly.
	if err := fsys.RemoveAll(targetPath); err != nil {
		return errors.Wrapf(err, errors.ErrMutationFailed, "cannot clear %s before restore", targetPath)
	}

	if err := copyAny(fsys, backupPath, targetPath); err != nil {
		return errors.Wrapf(err, errors.ErrMutationFailed, "cannot restore %s from %s", targetPath, backupPath)
	}

	return nil
}

// trimRoot strips the leading separator so absolute paths mirror cleanly
// under the store root.
func trimRoot(path string) string {
	return strings.TrimPrefix(filepath.Clean(path), string(filepath.Separator))
}

// copyAny copies a file, directory tree, or symlink from src to dst,
// preserving permission bits and symlink targets.
func copyAny(fsys types.FS, src, dst string) error {
	info, err := fsys.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := fsys.Readlink(src)
		if err != nil {
			return err
		}
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return fsys.Symlink(target, dst)

	case info.IsDir():
		if err := fsys.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		if err := fsys.Chmod(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := fsys.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := copyAny(fsys, filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil

	default:
		data, err := fsys.ReadFile(src)
		if err != nil {
			return err
		}
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := fsys.WriteFile(dst, data, info.Mode().Perm()); err != nil {
			return err
		}
		// WriteFile permissions are subject to umask; force the exact bits.
		return fsys.Chmod(dst, info.Mode().Perm())
	}
}
