// Package mutate implements the guarded mutator: the API surface installer
// phases call instead of touching the filesystem directly. Every call
// produces exactly one journal entry, preceded by a backup of whatever the
// target path held.
package mutate
