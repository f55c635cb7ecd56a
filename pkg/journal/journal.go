package journal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/types"
)

// Journal is the durable, append-only, strictly ordered sequence of
// mutation records for one installation lineage. Append order is
// chronological order is reversal order.
//
// The journal is plain state on disk with no locking of its own: callers
// must guarantee that no two processes write to the same journal
// concurrently. A settle run is a single-operator, single-invocation
// operation, so this is a documented precondition, not an enforced one.
type Journal struct {
	path string
	ctx  types.RunContext

	// intents collects records under dry-run, where nothing is persisted
	// but the sequence of intent must still exist for display and tests.
	intents []Record
}

// New creates a journal handle for the file at path. The file itself is
// created on first append.
func New(path string, ctx types.RunContext) *Journal {
	return &Journal{path: path, ctx: ctx}
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Exists reports whether a journal file from a prior run is present.
func (j *Journal) Exists() bool {
	_, err := os.Stat(j.path)
	return err == nil
}

// Append durably appends one record. It does not return until the record
// is synced to disk, so a caller may proceed with the mutation the record
// describes knowing a crash cannot lose the entry. Under dry-run the
// record is retained in memory and logged, and disk is never touched.
func (j *Journal) Append(rec Record) error {
	logger := logging.GetLogger("journal")

	if err := rec.Validate(); err != nil {
		return err
	}

	if j.ctx.DryRun {
		j.intents = append(j.intents, rec)
		logger.Info().
			Str("kind", string(rec.Kind)).
			Str("target", rec.Target).
			Str("backup", rec.Backup).
			Msg("Would append journal record")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrJournalAppend,
			"cannot create journal directory for %s", j.path)
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrJournalAppend, "cannot open journal %s", j.path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(rec.encode() + "\n"); err != nil {
		return errors.Wrapf(err, errors.ErrJournalAppend, "cannot append to journal %s", j.path)
	}

	// The record must be durable before the mutation it describes runs.
	if err := f.Sync(); err != nil {
		return errors.Wrapf(err, errors.ErrJournalAppend, "cannot sync journal %s", j.path)
	}

	logger.Debug().
		Str("kind", string(rec.Kind)).
		Str("target", rec.Target).
		Str("backup", rec.Backup).
		Msg("Appended journal record")

	return nil
}

// ReadAll returns every record in exact append order. No reordering,
// filtering, or deduplication happens here: a path touched N times yields
// N records, and reversal replays all of them. Returns NoJournal if the
// file does not exist.
func (j *Journal) ReadAll() ([]Record, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNoJournal, "no journal at %s; nothing to reverse", j.path)
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot read journal %s", j.path)
	}

	var records []Record
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		rec, err := decodeRecord(line, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Intents returns the records collected under dry-run, in append order.
func (j *Journal) Intents() []Record {
	out := make([]Record, len(j.intents))
	copy(out, j.intents)
	return out
}
