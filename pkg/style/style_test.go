package style_test

import (
	"strings"
	"testing"

	"github.com/settle-sh/settle/pkg/style"
	"github.com/stretchr/testify/assert"
)

func TestRenderPlanPlain(t *testing.T) {
	out := style.RenderPlan("Reversal plan", []string{
		"DirCreated /opt/beacon",
		"FileModified /home/u/.config/beacon.conf",
	}, false)

	assert.True(t, strings.HasPrefix(out, "Reversal plan\n"))
	assert.Contains(t, out, "DirCreated /opt/beacon")
	assert.Contains(t, out, "FileModified /home/u/.config/beacon.conf")
}

func TestRenderSummaryPlain(t *testing.T) {
	out := style.RenderSummary(4, 1, "/state/backups/run", false)
	assert.Contains(t, out, "Processed 4 records, 1 failures")
	assert.Contains(t, out, "/state/backups/run")
}

func TestRenderWarningPlain(t *testing.T) {
	assert.Equal(t, "destructive", style.RenderWarning("destructive", false))
}
