// Package filesystem provides filesystem implementations for settle.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem and an afero-backed filesystem
// used by tests.
package filesystem
