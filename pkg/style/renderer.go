package style

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

// ColorEnabled reports whether styled output should be used for the given
// stream.
func ColorEnabled(output *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(output.Fd()) && !isatty.IsCygwinTerminal(output.Fd()) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// RenderPlan renders a titled list of plan lines, one item per line.
func RenderPlan(title string, lines []string, styled bool) string {
	var result strings.Builder

	if styled {
		result.WriteString(TitleStyle.Render(title) + "\n\n")
	} else {
		result.WriteString(title + "\n\n")
	}

	for _, line := range lines {
		if styled {
			result.WriteString(fmt.Sprintf("%s %s\n", pterm.Info.Prefix.Text, PathStyle.Render(line)))
		} else {
			result.WriteString("  " + line + "\n")
		}
	}

	return result.String()
}

// RenderWarning renders a prominent warning line.
func RenderWarning(message string, styled bool) string {
	if styled {
		return WarningStyle.Render(message)
	}
	return message
}

// RenderSummary renders the reversal completion summary.
func RenderSummary(processed, failed int, backupRoot string, styled bool) string {
	var result strings.Builder

	line := fmt.Sprintf("Processed %d records, %d failures", processed, failed)
	switch {
	case !styled:
		result.WriteString(line + "\n")
	case failed > 0:
		result.WriteString(ErrorStyle.Render(line) + "\n")
	default:
		result.WriteString(SuccessStyle.Render(line) + "\n")
	}

	backups := fmt.Sprintf("Backups kept for inspection at %s", backupRoot)
	if styled {
		result.WriteString(MutedStyle.Render(backups) + "\n")
	} else {
		result.WriteString(backups + "\n")
	}

	return result.String()
}
