package journal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/settle-sh/settle/pkg/errors"
)

// Kind tags a mutation record with the change it describes.
type Kind string

const (
	// FileCreated records a file written where nothing existed before.
	FileCreated Kind = "FileCreated"

	// DirCreated records a directory created where nothing existed before.
	DirCreated Kind = "DirCreated"

	// FileModified records a file overwritten; Backup holds the prior state.
	FileModified Kind = "FileModified"

	// DirModified records a directory mutated; Backup holds the prior state.
	DirModified Kind = "DirModified"
)

// IsCreated reports whether the kind implies no prior state existed.
func (k Kind) IsCreated() bool {
	return k == FileCreated || k == DirCreated
}

// IsModified reports whether the kind carries a backup reference.
func (k Kind) IsModified() bool {
	return k == FileModified || k == DirModified
}

// IsDir reports whether the kind describes a directory mutation.
func (k Kind) IsDir() bool {
	return k == DirCreated || k == DirModified
}

// KindFor maps a mutation's pre-state to the record kind for it.
func KindFor(existed, isDir bool) Kind {
	switch {
	case existed && isDir:
		return DirModified
	case existed:
		return FileModified
	case isDir:
		return DirCreated
	default:
		return FileCreated
	}
}

func validKind(k Kind) bool {
	switch k {
	case FileCreated, DirCreated, FileModified, DirModified:
		return true
	}
	return false
}

// Record is one journaled filesystem change. Records are immutable once
// appended; the journal is only ever appended to, never edited.
type Record struct {
	// Kind tags the change.
	Kind Kind

	// Target is the absolute path that was or will be changed.
	Target string

	// Backup is set only for *Modified kinds: the backup store location
	// holding the pre-mutation snapshot.
	Backup string
}

// Validate checks the record invariants before it is appended.
func (r Record) Validate() error {
	if !validKind(r.Kind) {
		return errors.Newf(errors.ErrInvalidInput, "unknown record kind %q", r.Kind)
	}
	if !filepath.IsAbs(r.Target) {
		return errors.Newf(errors.ErrInvalidInput, "record target must be absolute: %q", r.Target)
	}
	if r.Kind.IsCreated() && r.Backup != "" {
		return errors.Newf(errors.ErrInvalidInput, "%s record for %s must not carry a backup", r.Kind, r.Target)
	}
	if r.Kind.IsModified() && r.Backup == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s record for %s requires a backup", r.Kind, r.Target)
	}
	return nil
}

// String renders the record for plan display, one line per record.
func (r Record) String() string {
	if r.Backup != "" {
		return fmt.Sprintf("%s %s (backup: %s)", r.Kind, r.Target, r.Backup)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Target)
}

// encode serializes a record as one pipe-delimited journal line.
func (r Record) encode() string {
	if r.Backup != "" {
		return string(r.Kind) + "|" + r.Target + "|" + r.Backup
	}
	return string(r.Kind) + "|" + r.Target
}

// decodeRecord parses one journal line. lineNo is 1-based and used only
// for error context.
func decodeRecord(line string, lineNo int) (Record, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 2 || len(fields) > 3 {
		return Record{}, errors.Newf(errors.ErrJournalDecode,
			"journal line %d: expected 2 or 3 fields, got %d", lineNo, len(fields))
	}

	rec := Record{Kind: Kind(fields[0]), Target: fields[1]}
	if len(fields) == 3 {
		rec.Backup = fields[2]
	}

	if !validKind(rec.Kind) {
		return Record{}, errors.Newf(errors.ErrJournalDecode,
			"journal line %d: unknown kind %q", lineNo, fields[0])
	}
	if rec.Kind.IsModified() && rec.Backup == "" {
		return Record{}, errors.Newf(errors.ErrJournalDecode,
			"journal line %d: %s record missing backup field", lineNo, rec.Kind)
	}
	if rec.Kind.IsCreated() && rec.Backup != "" {
		return Record{}, errors.Newf(errors.ErrJournalDecode,
			"journal line %d: %s record must not carry a backup field", lineNo, rec.Kind)
	}

	return rec, nil
}
