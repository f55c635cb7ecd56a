package journal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/journal"
	"github.com/settle-sh/settle/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T, ctx types.RunContext) *journal.Journal {
	t.Helper()
	return journal.New(filepath.Join(t.TempDir(), "journal.txt"), ctx)
}

func TestAppendAndReadAllPreservesOrder(t *testing.T) {
	j := newJournal(t, types.RunContext{})

	records := []journal.Record{
		{Kind: journal.DirCreated, Target: "/opt/beacon"},
		{Kind: journal.FileCreated, Target: "/opt/beacon/bin/beacon"},
		{Kind: journal.FileModified, Target: "/home/u/.config/beacon.conf", Backup: "/state/backups/r/000/home/u/.config/beacon.conf"},
		{Kind: journal.FileModified, Target: "/home/u/.config/beacon.conf", Backup: "/state/backups/r/001/home/u/.config/beacon.conf"},
	}
	for _, rec := range records {
		require.NoError(t, j.Append(rec))
	}

	got, err := j.ReadAll()
	require.NoError(t, err)
	// every entry survives, in exact append order, duplicates included
	assert.Equal(t, records, got)
}

func TestAppendIsDurableBeforeReturn(t *testing.T) {
	j := newJournal(t, types.RunContext{})

	require.NoError(t, j.Append(journal.Record{Kind: journal.DirCreated, Target: "/opt/beacon"}))

	// bytes must be on disk without any close/flush step by the caller
	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Equal(t, "DirCreated|/opt/beacon\n", string(data))
}

func TestReadAllMissingFileIsNoJournal(t *testing.T) {
	j := newJournal(t, types.RunContext{})

	_, err := j.ReadAll()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoJournal))
	assert.False(t, j.Exists())
}

func TestAppendValidatesRecords(t *testing.T) {
	j := newJournal(t, types.RunContext{})

	tests := []struct {
		name string
		rec  journal.Record
	}{
		{"unknown kind", journal.Record{Kind: "FileRenamed", Target: "/a"}},
		{"relative target", journal.Record{Kind: journal.FileCreated, Target: "a/b"}},
		{"created with backup", journal.Record{Kind: journal.FileCreated, Target: "/a", Backup: "/b"}},
		{"modified without backup", journal.Record{Kind: journal.FileModified, Target: "/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := j.Append(tt.rec)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		})
	}

	// nothing was persisted by the rejected appends
	assert.False(t, j.Exists())
}

func TestReadAllRejectsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.txt")
	require.NoError(t, os.WriteFile(path, []byte("DirCreated|/opt/beacon\ngarbage\n"), 0644))

	j := journal.New(path, types.RunContext{})
	_, err := j.ReadAll()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrJournalDecode))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadAllRejectsModifiedWithoutBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.txt")
	require.NoError(t, os.WriteFile(path, []byte("FileModified|/etc/app.conf\n"), 0644))

	j := journal.New(path, types.RunContext{})
	_, err := j.ReadAll()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrJournalDecode))
}

func TestReadAllRejectsCreatedWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.txt")
	require.NoError(t, os.WriteFile(path, []byte("FileCreated|/opt/beacon|/b/opt/beacon\n"), 0644))

	j := journal.New(path, types.RunContext{})
	_, err := j.ReadAll()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrJournalDecode))
	assert.Contains(t, err.Error(), "must not carry a backup")
}

func TestDryRunAppendTouchesNothing(t *testing.T) {
	j := newJournal(t, types.RunContext{DryRun: true})

	rec := journal.Record{Kind: journal.FileCreated, Target: "/opt/beacon/bin/beacon"}
	require.NoError(t, j.Append(rec))

	assert.False(t, j.Exists(), "dry-run must not create the journal file")
	assert.Equal(t, []journal.Record{rec}, j.Intents())
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "DirCreated /opt/beacon",
		journal.Record{Kind: journal.DirCreated, Target: "/opt/beacon"}.String())
	assert.Equal(t, "FileModified /etc/app.conf (backup: /b/etc/app.conf)",
		journal.Record{Kind: journal.FileModified, Target: "/etc/app.conf", Backup: "/b/etc/app.conf"}.String())
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, journal.DirModified, journal.KindFor(true, true))
	assert.Equal(t, journal.FileModified, journal.KindFor(true, false))
	assert.Equal(t, journal.DirCreated, journal.KindFor(false, true))
	assert.Equal(t, journal.FileCreated, journal.KindFor(false, false))
}
