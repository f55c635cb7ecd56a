// Package installer contains the forward installation phases. Phases are
// deliberately thin: all filesystem changes go through the guarded
// mutator, so the journal alone decides what reversal must undo.
package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/settle-sh/settle/pkg/config"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/mutate"
	"github.com/settle-sh/settle/pkg/paths"
	"github.com/settle-sh/settle/pkg/types"
	"github.com/settle-sh/settle/pkg/ui/confirmations"
)

// Installer runs the forward phases in order: bundle copy, environment
// snippet, menu entry, launcher symlink. Each phase is approval-gated;
// declining any gate stops the run immediately. Mutations from earlier,
// approved phases stay journaled and are undone only by an explicit
// reversal run.
type Installer struct {
	fs    types.FS
	ctx   types.RunContext
	mut   *mutate.Mutator
	gate  confirmations.Gate
	cfg   config.Config
	paths *paths.Paths
	out   io.Writer

	// created tracks directories this run has already journaled as
	// DirCreated, so under dry-run (where nothing lands on disk) the
	// intent sequence matches a real run instead of re-reporting the
	// same ancestor per phase.
	created map[string]bool
}

// New creates an installer over the guarded mutator.
func New(fs types.FS, ctx types.RunContext, mut *mutate.Mutator, gate confirmations.Gate, cfg config.Config, p *paths.Paths, out io.Writer) *Installer {
	if out == nil {
		out = os.Stdout
	}
	return &Installer{
		fs:      fs,
		ctx:     ctx,
		mut:     mut,
		gate:    gate,
		cfg:     cfg,
		paths:   p,
		out:     out,
		created: make(map[string]bool),
	}
}

// AppRoot returns where this installation places the bundle.
func (i *Installer) AppRoot() string {
	return i.paths.AppRoot(i.cfg.AppName, i.cfg.Privileged)
}

// LauncherLink returns the command-line symlink this installation creates.
func (i *Installer) LauncherLink() string {
	return i.paths.LauncherLink(filepath.Base(i.cfg.Launcher))
}

// Run executes all phases. It returns UserDeclined when a gate declines,
// which callers treat as a graceful abort, not a failure.
func (i *Installer) Run() error {
	logger := logging.GetLogger("installer")

	if err := i.cfg.Validate(); err != nil {
		return err
	}

	appRoot := i.AppRoot()

	phases := []struct {
		name string
		req  types.ConfirmationRequest
		run  func() error
	}{
		{
			name: "bundle",
			req: types.ConfirmationRequest{
				ID:          "bundle",
				Title:       fmt.Sprintf("Install %s", i.cfg.DisplayName),
				Description: fmt.Sprintf("Copies the bundle %s into %s.", i.cfg.BundlePath, appRoot),
				Items:       []string{appRoot},
			},
			run: func() error { return i.copyBundle(appRoot) },
		},
		{
			name: "environment",
			req: types.ConfirmationRequest{
				ID:          "environment",
				Title:       "Write Wayland environment snippet",
				Items:       []string{i.paths.EnvironmentFile(i.cfg.AppName)},
				Default:     true,
			},
			run: i.writeEnvironment,
		},
		{
			name: "menu",
			req: types.ConfirmationRequest{
				ID:      "menu",
				Title:   "Register desktop menu entry",
				Items:   []string{i.paths.DesktopFile(i.cfg.AppName), i.paths.MenuFile(i.cfg.AppName)},
				Default: true,
			},
			run: i.writeMenuEntry,
		},
		{
			name: "launcher",
			req: types.ConfirmationRequest{
				ID:      "launcher",
				Title:   "Link launcher into your bin directory",
				Items:   []string{i.LauncherLink()},
				Default: true,
			},
			run: i.linkLauncher,
		},
	}

	for _, phase := range phases {
		if !i.gate.Confirm(phase.req) {
			logger.Info().Str("phase", phase.name).Msg("User declined, stopping installation")
			return errors.Newf(errors.ErrUserDeclined, "installation declined at %s phase", phase.name)
		}

		done := logging.LogOperationStart(logger, phase.name)
		if err := phase.run(); err != nil {
			return err
		}
		done()
	}

	logger.Info().Str("app", i.cfg.AppName).Str("root", appRoot).Msg("Installation complete")
	return nil
}

// copyBundle mirrors the prepared bundle directory into the app root,
// file by file, so every piece is individually journaled and reversible.
func (i *Installer) copyBundle(appRoot string) error {
	info, err := i.fs.Lstat(i.cfg.BundlePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "bundle %s is not readable", i.cfg.BundlePath)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "bundle %s is not a directory", i.cfg.BundlePath)
	}

	if err := i.ensureParents(appRoot); err != nil {
		return err
	}

	perm := info.Mode().Perm()
	if err := i.mut.MutateDirectory(appRoot, func(fsys types.FS, path string) error {
		return fsys.MkdirAll(path, perm)
	}); err != nil {
		return err
	}

	return i.copyEntries(i.cfg.BundlePath, appRoot)
}

func (i *Installer) copyEntries(srcDir, dstDir string) error {
	entries, err := i.fs.ReadDir(srcDir)
	if err != nil {
		if i.ctx.DryRun && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrInvalidInput, "cannot read bundle directory %s", srcDir)
	}

	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		info, err := i.fs.Lstat(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInvalidInput, "cannot inspect bundle entry %s", src)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := i.fs.Readlink(src)
			if err != nil {
				return errors.Wrapf(err, errors.ErrInvalidInput, "cannot read bundle symlink %s", src)
			}
			if err := i.mut.MutateFile(dst, symlinkWriter(target)); err != nil {
				return err
			}

		case info.IsDir():
			perm := info.Mode().Perm()
			if err := i.mut.MutateDirectory(dst, func(fsys types.FS, path string) error {
				return fsys.MkdirAll(path, perm)
			}); err != nil {
				return err
			}
			if err := i.copyEntries(src, dst); err != nil {
				return err
			}

		default:
			data, err := i.fs.ReadFile(src)
			if err != nil {
				return errors.Wrapf(err, errors.ErrInvalidInput, "cannot read bundle file %s", src)
			}
			perm := info.Mode().Perm()
			if err := i.mut.MutateFile(dst, func(fsys types.FS, path string) error {
				if err := fsys.WriteFile(path, data, perm); err != nil {
					return err
				}
				return fsys.Chmod(path, perm)
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeEnvironment writes the environment.d snippet for the compositor
// session.
func (i *Installer) writeEnvironment() error {
	content := environmentSnippet(i.cfg.AppName, i.cfg.Environment)
	return i.writeFile(i.paths.EnvironmentFile(i.cfg.AppName), textWriter(content))
}

// writeMenuEntry writes the .desktop entry and the merged menu fragment.
func (i *Installer) writeMenuEntry() error {
	desktop := desktopEntry(i.cfg, i.AppRoot())
	if err := i.writeFile(i.paths.DesktopFile(i.cfg.AppName), textWriter(desktop)); err != nil {
		return err
	}

	menu, err := menuFragment(i.cfg.AppName)
	if err != nil {
		return err
	}
	return i.writeFile(i.paths.MenuFile(i.cfg.AppName), textWriter(menu))
}

// linkLauncher symlinks the installed launcher into the user's bin dir.
func (i *Installer) linkLauncher() error {
	target := filepath.Join(i.AppRoot(), i.cfg.Launcher)
	return i.writeFile(i.LauncherLink(), symlinkWriter(target))
}

// writeFile journals any missing ancestor directories before journaling
// the file mutation itself, so reversal removes everything the install
// created.
func (i *Installer) writeFile(path string, write mutate.FileWriter) error {
	if err := i.ensureParents(path); err != nil {
		return err
	}
	return i.mut.MutateFile(path, write)
}

// ensureParents creates every missing ancestor of path through the
// guarded mutator, outermost first, so each one gets its own DirCreated
// record. Ancestors that already exist are left alone and unjournaled.
func (i *Installer) ensureParents(path string) error {
	var missing []string
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if i.created[dir] {
			break
		}
		if _, err := i.fs.Lstat(dir); err == nil {
			break
		}
		missing = append(missing, dir)
		if dir == filepath.Dir(dir) {
			break
		}
	}

	for j := len(missing) - 1; j >= 0; j-- {
		if err := i.mut.MutateDirectory(missing[j], func(fsys types.FS, p string) error {
			return fsys.MkdirAll(p, 0755)
		}); err != nil {
			return err
		}
		i.created[missing[j]] = true
	}
	return nil
}

func textWriter(content string) mutate.FileWriter {
	return func(fsys types.FS, path string) error {
		return fsys.WriteFile(path, []byte(content), 0644)
	}
}

func symlinkWriter(target string) mutate.FileWriter {
	return func(fsys types.FS, path string) error {
		if _, err := fsys.Lstat(path); err == nil {
			if err := fsys.Remove(path); err != nil {
				return err
			}
		}
		return fsys.Symlink(target, path)
	}
}
