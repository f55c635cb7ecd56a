// Package backup implements the backup store: a per-run, timestamped
// directory tree mirroring original absolute paths, holding pre-mutation
// snapshots referenced by journal records. Backups outlive the journal and
// are never deleted automatically, so reversal can be re-run or resumed.
package backup
