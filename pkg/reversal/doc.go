// Package reversal implements the engine that replays the mutation
// journal backward to restore prior state: load, preview, double-gated
// confirmation, then best-effort reverse replay of every record.
package reversal
