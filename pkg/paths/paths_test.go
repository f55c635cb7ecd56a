package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/settle-sh/settle/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToWorkDir(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv(paths.EnvStateDir, "")

	p, err := paths.New(workDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(workDir, ".settle"), p.StateDir())
	assert.Equal(t, filepath.Join(workDir, ".settle", "journal.txt"), p.JournalFile())
	assert.Equal(t, filepath.Join(workDir, ".settle", "backups"), p.BackupsRoot())
	assert.Equal(t, filepath.Join(workDir, ".settle", "backups", "20240101-120000"),
		p.BackupRunDir("20240101-120000"))
}

func TestNewStateDirOverride(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv(paths.EnvStateDir, stateDir)

	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, stateDir, p.StateDir())
	assert.Equal(t, filepath.Join(stateDir, "journal.txt"), p.JournalFile())
}

func TestAppRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/opt/beacon", p.AppRoot("beacon", true))
	assert.Equal(t, filepath.Join(home, ".local", "share", "settle", "apps", "beacon"),
		p.AppRoot("beacon", false))
}

func TestHomeDerivedTargets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "bin", "beacon"), p.LauncherLink("beacon"))
	assert.Equal(t, filepath.Join(home, ".config", "environment.d", "90-beacon.conf"),
		p.EnvironmentFile("beacon"))
	assert.Equal(t, filepath.Join(home, ".local", "share", "applications", "beacon.desktop"),
		p.DesktopFile("beacon"))
	assert.Equal(t, filepath.Join(home, ".config", "menus", "applications-merged", "settle-beacon.menu"),
		p.MenuFile("beacon"))
}

func TestIsPrivileged(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/opt/beacon/bin/beacon", true},
		{"/opt", true},
		{"/usr/local/bin/beacon", true},
		{"/optical/illusion", false},
		{"/home/user/.local/bin/beacon", false},
		{"/tmp/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.IsPrivileged(tt.path))
		})
	}
}

func TestConfigFileCandidates(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, configDir)

	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	candidates := p.ConfigFileCandidates()
	require.Len(t, candidates, 2)
	assert.Equal(t, filepath.Join(configDir, "settle.toml"), candidates[0])
	assert.Equal(t, filepath.Join(configDir, "settle.yaml"), candidates[1])
}
