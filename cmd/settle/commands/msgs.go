package commands

// User-facing strings for the settle command tree.
const (
	MsgRootShort = "A reversible desktop application installer"

	MsgRootLong = `settle installs a prepared application bundle onto your machine: it
copies the bundle into place, writes a Wayland environment snippet,
registers a desktop menu entry, and links the launcher into your bin
directory.

Every filesystem change is journaled with a backup of whatever it
replaced, so a later "settle --reverse" can restore your machine to
exactly its prior state.`

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without executing them"
	MsgFlagReverse = "Undo a previous installation from its journal"
	MsgFlagConfig  = "Path to the configuration file"

	MsgDeclined = "Aborted: nothing was changed beyond already-approved phases."
)
