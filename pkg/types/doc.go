// Package types contains the shared interfaces and value types used across
// settle: the filesystem abstraction, the per-invocation run context, and
// the confirmation contract consumed by installer phases and the reversal
// engine.
package types
