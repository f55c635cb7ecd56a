package privilege_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/settle-sh/settle/pkg/filesystem"
	"github.com/settle-sh/settle/pkg/privilege"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCommandRunner implements privilege.CommandRunner for testing
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(name string, args ...string) error {
	callArgs := m.Called(name, args)
	return callArgs.Error(0)
}

func newStrategy(cmd privilege.CommandRunner) *privilege.Strategy {
	return privilege.NewStrategy(filesystem.NewOS(), cmd, []string{"/opt", "/usr/local"})
}

func TestForSelectsPerPath(t *testing.T) {
	s := newStrategy(&MockCommandRunner{})

	tests := []struct {
		path     string
		elevated bool
	}{
		{"/opt/beacon/bin/beacon", true},
		{"/usr/local/share/x", true},
		{"/optimal/not-privileged", false},
		{"/home/user/.local/bin/beacon", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.elevated, s.Elevated(tt.path))
		})
	}
}

func TestNormalRunnerRemove(t *testing.T) {
	s := newStrategy(&MockCommandRunner{})
	dir := filepath.Join(t.TempDir(), "beacon")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	runner := s.For(dir)
	require.NoError(t, runner.Remove(dir))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// removing an already-absent path is a no-op
	require.NoError(t, runner.Remove(dir))
}

func TestNormalRunnerRestore(t *testing.T) {
	s := newStrategy(&MockCommandRunner{})
	dir := t.TempDir()
	backupPath := filepath.Join(dir, "backup", "conf")
	target := filepath.Join(dir, "conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(backupPath), 0755))
	require.NoError(t, os.WriteFile(backupPath, []byte("A"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("B"), 0644))

	require.NoError(t, s.For(target).Restore(backupPath, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

func TestElevatedRunnerRemoveShellsOut(t *testing.T) {
	cmd := &MockCommandRunner{}
	cmd.On("Run", "sudo", []string{"rm", "-rf", "/opt/beacon"}).Return(nil)

	s := newStrategy(cmd)
	require.NoError(t, s.For("/opt/beacon").Remove("/opt/beacon"))
	cmd.AssertExpectations(t)
}

func TestElevatedRunnerRestoreShellsOut(t *testing.T) {
	cmd := &MockCommandRunner{}
	cmd.On("Run", "sudo", []string{"rm", "-rf", "/opt/beacon/bin/beacon"}).Return(nil)
	cmd.On("Run", "sudo", []string{"mkdir", "-p", "/opt/beacon/bin"}).Return(nil)
	cmd.On("Run", "sudo", []string{"cp", "-a", "/state/b/000/opt/beacon/bin/beacon", "/opt/beacon/bin/beacon"}).Return(nil)

	s := newStrategy(cmd)
	require.NoError(t, s.For("/opt/beacon/bin/beacon").
		Restore("/state/b/000/opt/beacon/bin/beacon", "/opt/beacon/bin/beacon"))
	cmd.AssertExpectations(t)
}

func TestExecRunnerSurfacesOutput(t *testing.T) {
	err := privilege.ExecRunner{}.Run("sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "broken"))
}
