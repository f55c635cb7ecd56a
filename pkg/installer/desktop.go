package installer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/settle-sh/settle/pkg/config"
)

// desktopEntry renders the freedesktop .desktop entry for the installed
// application.
func desktopEntry(cfg config.Config, appRoot string) string {
	var b strings.Builder

	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", cfg.DisplayName)
	if cfg.Comment != "" {
		fmt.Fprintf(&b, "Comment=%s\n", cfg.Comment)
	}
	fmt.Fprintf(&b, "Exec=%s\n", filepath.Join(appRoot, cfg.Launcher))
	if len(cfg.Categories) > 0 {
		fmt.Fprintf(&b, "Categories=%s;\n", strings.Join(cfg.Categories, ";"))
	}
	b.WriteString("Terminal=false\n")

	return b.String()
}

// environmentSnippet renders the environment.d file, one KEY=VALUE per
// line in stable order.
func environmentSnippet(appName string, env map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Wayland environment for %s, managed by settle\n", appName)

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}

	return b.String()
}
