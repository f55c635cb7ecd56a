package types

import "time"

// RunContext carries the mode switches and run identity for one invocation.
// It is built once by the CLI and passed into every component constructor;
// components never read mode flags from process-wide state.
type RunContext struct {
	// DryRun simulates all mutation, backup, and reversal side effects,
	// logging intent without touching disk.
	DryRun bool

	// Reverse selects reversal behavior instead of forward installation.
	Reverse bool

	// RunStamp namespaces this run's backups so runs never collide.
	RunStamp string
}

// NewRunContext creates a RunContext with a fresh timestamp namespace.
func NewRunContext(dryRun, reverse bool) RunContext {
	return RunContext{
		DryRun:   dryRun,
		Reverse:  reverse,
		RunStamp: time.Now().Format("20060102-150405"),
	}
}
