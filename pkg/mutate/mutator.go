package mutate

import (
	"github.com/settle-sh/settle/pkg/backup"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/journal"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/types"
)

// FileWriter performs the actual file mutation at path. It runs only
// after the path has been backed up and journaled.
type FileWriter func(fsys types.FS, path string) error

// DirBuilder performs the actual directory mutation at path, under the
// same contract as FileWriter.
type DirBuilder func(fsys types.FS, path string) error

// Mutator is the only sanctioned entry point for a filesystem change that
// must be undoable. Every call follows the same sequence: snapshot the
// current state, append a journal record, then perform the mutation.
// The journal may over-report intent (a journaled mutation that then
// failed) but never under-reports a completed one.
type Mutator struct {
	fs      types.FS
	store   *backup.Store
	journal *journal.Journal
	ctx     types.RunContext
}

// New creates a guarded mutator writing through the given backup store
// and journal.
func New(fs types.FS, store *backup.Store, jnl *journal.Journal, ctx types.RunContext) *Mutator {
	return &Mutator{
		fs:      fs,
		store:   store,
		journal: jnl,
		ctx:     ctx,
	}
}

// MutateFile backs up, journals, and then applies a file mutation.
func (m *Mutator) MutateFile(path string, write FileWriter) error {
	return m.mutate(path, false, func() error { return write(m.fs, path) })
}

// MutateDirectory backs up, journals, and then applies a directory mutation.
func (m *Mutator) MutateDirectory(path string, build DirBuilder) error {
	return m.mutate(path, true, func() error { return build(m.fs, path) })
}

func (m *Mutator) mutate(path string, wantDir bool, perform func() error) error {
	logger := logging.GetLogger("mutate").With().
		Str("target", path).
		Bool("dry_run", m.ctx.DryRun).
		Logger()

	// 1. Snapshot. A failed backup aborts before anything is journaled
	// or touched: a missing backup must never be silently treated as
	// success, or reversal becomes lossy.
	res, err := m.store.Snapshot(path)
	if err != nil {
		logger.Error().Err(err).Msg("Backup failed, mutation aborted")
		return err
	}

	// A *Modified record describes what was there before, not what the
	// mutation is about to write.
	isDir := wantDir
	if res.Existed {
		isDir = res.IsDir
	}

	rec := journal.Record{
		Kind:   journal.KindFor(res.Existed, isDir),
		Target: path,
	}
	if res.Existed {
		rec.Backup = res.Path
	}

	// 2. Journal before mutating, dry-run included. A crash between the
	// append and the mutation leaves the journal saying "this path was
	// touched", which reversal handles as a safe no-op restore.
	if err := m.journal.Append(rec); err != nil {
		logger.Error().Err(err).Msg("Journal append failed, mutation aborted")
		return err
	}

	if m.ctx.DryRun {
		logger.Info().
			Str("kind", string(rec.Kind)).
			Msg("Would mutate")
		return nil
	}

	// 3. Perform. On failure the journal entry stays: the mutation may
	// have partially happened, and replaying it during reversal restores
	// from backup either way.
	if err := perform(); err != nil {
		wrapped := errors.Wrapf(err, errors.ErrMutationFailed, "mutation of %s failed", path).
			WithDetail("kind", string(rec.Kind))
		logger.Error().Err(err).
			Str("kind", string(rec.Kind)).
			Msg("Mutation failed, journal entry retained")
		return wrapped
	}

	logger.Info().
		Str("kind", string(rec.Kind)).
		Str("backup", rec.Backup).
		Msg("Mutated")

	return nil
}
