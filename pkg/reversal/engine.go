package reversal

import (
	"fmt"
	"io"
	"os"

	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/journal"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/privilege"
	"github.com/settle-sh/settle/pkg/style"
	"github.com/settle-sh/settle/pkg/types"
	"github.com/settle-sh/settle/pkg/ui/confirmations"
)

// ConfirmWord is the literal phrase the second gate demands before a
// reversal may execute.
const ConfirmWord = "revert"

// Summary reports the outcome of a reversal run.
type Summary struct {
	// Processed counts the records replayed, failures included.
	Processed int

	// Failed counts per-record failures (missing backups, failed
	// restores). Reversal is best effort across records, so failures do
	// not stop the run.
	Failed int

	// BackupRoot is where the backup store remains for manual
	// inspection. Backups are never deleted automatically.
	BackupRoot string
}

// Options configures the parts of the engine that vary per installation.
type Options struct {
	// LauncherLink, if set, is removed after the record loop as a final
	// cleanup step. It is not journaled: it is always derivable from
	// install completion.
	LauncherLink string

	// BackupRoot is reported in the summary.
	BackupRoot string

	// Out receives the plan and summary. Defaults to stdout.
	Out io.Writer
}

// Engine replays the journal backward to restore prior state. It moves
// through Loaded, Previewed, Confirmed, Executing, and Done, with Aborted
// reachable from Previewed or Confirmed on user decline.
type Engine struct {
	fs       types.FS
	ctx      types.RunContext
	journal  *journal.Journal
	strategy *privilege.Strategy
	gate     confirmations.Gate
	opts     Options

	state   State
	records []journal.Record
}

// New creates a reversal engine. The journal is read-only for the
// engine's whole lifetime; reversal never appends.
func New(fs types.FS, ctx types.RunContext, jnl *journal.Journal, strategy *privilege.Strategy, gate confirmations.Gate, opts Options) *Engine {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Engine{
		fs:       fs,
		ctx:      ctx,
		journal:  jnl,
		strategy: strategy,
		gate:     gate,
		opts:     opts,
		state:    StateInitial,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Load reads every record from the journal. Reversal requires a prior
// forward run: a missing journal is NoJournal.
func (e *Engine) Load() error {
	records, err := e.journal.ReadAll()
	if err != nil {
		return err
	}
	e.records = records
	e.state = StateLoaded

	logger := logging.GetLogger("reversal")
	logger.Info().
		Int("records", len(records)).
		Str("journal", e.journal.Path()).
		Msg("Journal loaded")

	return nil
}

// Preview renders the human-readable plan, one line per record, newest
// first since that is the order reversal will visit them. The journal
// must have been loaded first.
func (e *Engine) Preview() (string, error) {
	if e.state != StateLoaded && e.state != StatePreviewed {
		return "", errors.Newf(errors.ErrInternal, "cannot preview from state %s, load the journal first", e.state)
	}

	lines := make([]string, 0, len(e.records))
	for i := len(e.records) - 1; i >= 0; i-- {
		lines = append(lines, planLine(e.records[i]))
	}

	e.state = StatePreviewed

	styled := false
	if f, ok := e.opts.Out.(*os.File); ok {
		styled = style.ColorEnabled(f)
	}
	return style.RenderPlan("Reversal plan (newest first)", lines, styled), nil
}

// Confirm runs the double gate: a lightweight yes/no, then the literal
// confirmation phrase. Reversal is destructive and irreversible once
// backups are themselves discarded, hence two independent gates. The
// plan must have been previewed first.
func (e *Engine) Confirm() (bool, error) {
	if e.state != StatePreviewed {
		return false, errors.Newf(errors.ErrInternal, "cannot confirm from state %s, preview the plan first", e.state)
	}

	approved := e.gate.Confirm(types.ConfirmationRequest{
		ID:          "reversal",
		Title:       "Reverse this installation?",
		Description: fmt.Sprintf("%d journaled mutations will be undone, newest first.", len(e.records)),
	})
	if !approved {
		e.state = StateAborted
		return false, nil
	}

	prompt := fmt.Sprintf("This cannot be undone. Type %q to confirm", ConfirmWord)
	if !e.gate.ConfirmPhrase(prompt, ConfirmWord) {
		e.state = StateAborted
		return false, nil
	}

	e.state = StateConfirmed
	return true, nil
}

// Execute replays every record in strict reverse-of-append order. Each
// record is undone independently; per-record failures are reported and
// skipped so the operator sees the complete picture. Compaction is
// deliberately absent: a path modified twice is restored twice, newest
// backup first, and the older backup's restore lands last, leaving the
// path at its original state only because the log drains fully.
func (e *Engine) Execute() (Summary, error) {
	if e.state != StateConfirmed {
		return Summary{}, errors.Newf(errors.ErrInternal, "cannot execute from state %s, confirmation is required", e.state)
	}

	logger := logging.GetLogger("reversal")
	e.state = StateExecuting

	summary := Summary{BackupRoot: e.opts.BackupRoot}

	for i := len(e.records) - 1; i >= 0; i-- {
		rec := e.records[i]
		summary.Processed++

		if err := e.undoOne(rec); err != nil {
			summary.Failed++
			logger.Error().Err(err).
				Str("kind", string(rec.Kind)).
				Str("target", rec.Target).
				Msg("Record could not be undone, continuing")
			fmt.Fprintf(e.opts.Out, "failed: %s: %v\n", planLine(rec), err)
		}
	}

	e.cleanupLauncher()

	e.state = StateDone
	logger.Info().
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Str("backups", summary.BackupRoot).
		Msg("Reversal finished")

	return summary, nil
}

// Run drives the whole state machine and prints plan and summary.
func (e *Engine) Run() (Summary, error) {
	if err := e.Load(); err != nil {
		return Summary{}, err
	}

	plan, err := e.Preview()
	if err != nil {
		return Summary{}, err
	}
	fmt.Fprint(e.opts.Out, plan)

	approved, err := e.Confirm()
	if err != nil {
		return Summary{}, err
	}
	if !approved {
		return Summary{}, errors.New(errors.ErrUserDeclined, "reversal declined")
	}

	summary, err := e.Execute()
	if err != nil {
		return Summary{}, err
	}

	styled := false
	if f, ok := e.opts.Out.(*os.File); ok {
		styled = style.ColorEnabled(f)
	}
	fmt.Fprint(e.opts.Out, style.RenderSummary(summary.Processed, summary.Failed, summary.BackupRoot, styled))

	return summary, nil
}

// undoOne undoes a single record. The privilege strategy is consulted
// fresh for every record.
func (e *Engine) undoOne(rec journal.Record) error {
	logger := logging.GetLogger("reversal").With().
		Str("kind", string(rec.Kind)).
		Str("target", rec.Target).
		Bool("dry_run", e.ctx.DryRun).
		Logger()

	if e.ctx.DryRun {
		logger.Info().Msg("Would undo")
		return nil
	}

	runner := e.strategy.For(rec.Target)

	if rec.Kind.IsCreated() {
		if _, err := e.fs.Lstat(rec.Target); os.IsNotExist(err) {
			// Idempotent: re-deleting an already-deleted path is benign.
			logger.Info().Msg("Already absent")
			return nil
		}
		if err := runner.Remove(rec.Target); err != nil {
			return errors.Wrapf(err, errors.ErrMutationFailed, "cannot remove %s", rec.Target)
		}
		logger.Info().Msg("Removed")
		return nil
	}

	if _, err := e.fs.Lstat(rec.Backup); os.IsNotExist(err) {
		return errors.Newf(errors.ErrBackupNotFound, "backup %s for %s is missing", rec.Backup, rec.Target)
	}

	if err := runner.Restore(rec.Backup, rec.Target); err != nil {
		return err
	}
	logger.Info().Str("backup", rec.Backup).Msg("Restored")
	return nil
}

// cleanupLauncher removes the registered launcher symlink if it still
// exists. This runs outside the record loop and tolerates absence.
func (e *Engine) cleanupLauncher() {
	if e.opts.LauncherLink == "" {
		return
	}

	logger := logging.GetLogger("reversal").With().
		Str("link", e.opts.LauncherLink).
		Logger()

	if e.ctx.DryRun {
		logger.Info().Msg("Would remove launcher symlink")
		return
	}

	if _, err := e.fs.Lstat(e.opts.LauncherLink); os.IsNotExist(err) {
		return
	}

	if err := e.strategy.For(e.opts.LauncherLink).Remove(e.opts.LauncherLink); err != nil {
		logger.Warn().Err(err).Msg("Could not remove launcher symlink")
		return
	}
	logger.Info().Msg("Removed launcher symlink")
}

func planLine(rec journal.Record) string {
	switch rec.Kind {
	case journal.FileCreated:
		return "delete file " + rec.Target
	case journal.DirCreated:
		return "delete directory " + rec.Target
	case journal.FileModified:
		return "restore file " + rec.Target
	case journal.DirModified:
		return "restore directory " + rec.Target
	default:
		return rec.String()
	}
}
