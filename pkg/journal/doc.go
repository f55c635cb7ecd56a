// Package journal implements the transactional mutation journal: an
// append-only text log of filesystem mutations, one pipe-delimited record
// per line, durable before the mutation it describes proceeds. The
// reversal engine replays it tail-to-head to restore prior state.
package journal
