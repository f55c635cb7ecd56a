package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/settle-sh/settle/pkg/backup"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/filesystem"
	"github.com/settle-sh/settle/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ctx types.RunContext) (*backup.Store, string) {
	t.Helper()
	runDir := filepath.Join(t.TempDir(), "backups", ctx.RunStamp)
	return backup.NewStore(filesystem.NewOS(), runDir, ctx), runDir
}

func TestSnapshotMissingPath(t *testing.T) {
	store, _ := newStore(t, types.RunContext{RunStamp: "run"})

	res, err := store.Snapshot(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, res.Existed)
	assert.Empty(t, res.Path)
}

func TestSnapshotFilePreservesContentAndMode(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.conf")
	require.NoError(t, os.WriteFile(src, []byte("content A"), 0600))

	store, runDir := newStore(t, types.RunContext{RunStamp: "run"})
	res, err := store.Snapshot(src)
	require.NoError(t, err)
	require.True(t, res.Existed)
	assert.False(t, res.IsDir)

	// layered under 000, mirroring the absolute path without its leading slash
	want := filepath.Join(runDir, "000", src[1:])
	assert.Equal(t, want, res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "content A", string(data))

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSnapshotDirectoryRecursesAndKeepsSymlinks(t *testing.T) {
	srcDir := filepath.Join(t.TempDir(), "bundle")
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin", "beacon"), []byte("#!"), 0755))
	require.NoError(t, os.Symlink("bin/beacon", filepath.Join(srcDir, "run")))

	store, _ := newStore(t, types.RunContext{RunStamp: "run"})
	res, err := store.Snapshot(srcDir)
	require.NoError(t, err)
	require.True(t, res.Existed)
	assert.True(t, res.IsDir)

	copied, err := os.ReadFile(filepath.Join(res.Path, "bin", "beacon"))
	require.NoError(t, err)
	assert.Equal(t, "#!", string(copied))

	target, err := os.Readlink(filepath.Join(res.Path, "run"))
	require.NoError(t, err)
	assert.Equal(t, "bin/beacon", target)

	info, err := os.Stat(filepath.Join(res.Path, "bin", "beacon"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestRepeatedSnapshotsLayerOldestFirst(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.conf")
	store, runDir := newStore(t, types.RunContext{RunStamp: "run"})

	require.NoError(t, os.WriteFile(src, []byte("first"), 0644))
	first, err := store.Snapshot(src)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("second"), 0644))
	second, err := store.Snapshot(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(runDir, "000", src[1:]), first.Path)
	assert.Equal(t, filepath.Join(runDir, "001", src[1:]), second.Path)

	a, _ := os.ReadFile(first.Path)
	b, _ := os.ReadFile(second.Path)
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "second", string(b))
}

func TestDryRunSnapshotDoesNoIO(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.conf")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	store, runDir := newStore(t, types.RunContext{DryRun: true, RunStamp: "run"})
	res, err := store.Snapshot(src)
	require.NoError(t, err)
	assert.True(t, res.Existed)
	assert.NotEmpty(t, res.Path)

	// the synthetic location is for logging only; nothing was written
	_, err = os.Stat(runDir)
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotFailureIsBackupFailed(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	srcDir := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "secret"), []byte("x"), 0644))
	require.NoError(t, os.Chmod(srcDir, 0000))
	t.Cleanup(func() { _ = os.Chmod(srcDir, 0755) })

	store, _ := newStore(t, types.RunContext{RunStamp: "run"})
	_, err := store.Snapshot(srcDir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupFailed))
}

func TestRestoreOverwritesTarget(t *testing.T) {
	fs := filesystem.NewOS()
	dir := t.TempDir()
	target := filepath.Join(dir, "app.conf")
	backupPath := filepath.Join(dir, "backup", "app.conf")

	require.NoError(t, os.MkdirAll(filepath.Dir(backupPath), 0755))
	require.NoError(t, os.WriteFile(backupPath, []byte("original"), 0600))
	require.NoError(t, os.WriteFile(target, []byte("mutated"), 0644))

	require.NoError(t, backup.Restore(fs, backupPath, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRestoreIsIdempotent(t *testing.T) {
	fs := filesystem.NewOS()
	dir := t.TempDir()
	target := filepath.Join(dir, "app.conf")
	backupPath := filepath.Join(dir, "backup", "app.conf")

	require.NoError(t, os.MkdirAll(filepath.Dir(backupPath), 0755))
	require.NoError(t, os.WriteFile(backupPath, []byte("original"), 0644))

	// target absent: restore recreates it; a second restore is a benign overwrite
	require.NoError(t, backup.Restore(fs, backupPath, target))
	require.NoError(t, backup.Restore(fs, backupPath, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestRestoreMissingBackup(t *testing.T) {
	fs := filesystem.NewOS()
	dir := t.TempDir()

	err := backup.Restore(fs, filepath.Join(dir, "gone"), filepath.Join(dir, "target"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupNotFound))
}
