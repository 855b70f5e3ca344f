package types

import "fmt"

// ConfigError indicates invalid CLI arguments or an unreadable rule file.
// Fatal before scanning begins.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config error: " + e.Reason }

// RuleCompileError is emitted per rule that fails to compile. Non-fatal as
// long as at least one rule survives.
type RuleCompileError struct {
	RuleID string
	Err    error
}

func (e *RuleCompileError) Error() string {
	return fmt.Sprintf("rule %s: compile error: %v", e.RuleID, e.Err)
}
func (e *RuleCompileError) Unwrap() error { return e.Err }

// SourceFetchError is per-adapter, per-target. Logged and skipped; the
// adapter may continue with other targets.
type SourceFetchError struct {
	Target string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source fetch error for %s: %v", e.Target, e.Err)
}
func (e *SourceFetchError) Unwrap() error { return e.Err }

// BlobReadError is per-blob; the blob is skipped.
type BlobReadError struct {
	Path string
	Err  error
}

func (e *BlobReadError) Error() string { return fmt.Sprintf("blob read error for %s: %v", e.Path, e.Err) }
func (e *BlobReadError) Unwrap() error { return e.Err }

// MatcherError is internal to matching; logged and the blob is skipped.
type MatcherError struct {
	RuleID string
	Err    error
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("matcher error (rule %s): %v", e.RuleID, e.Err)
}
func (e *MatcherError) Unwrap() error { return e.Err }

// ValidationError degrades a match to StatusUndetermined; never aborts a
// scan.
type ValidationError struct {
	RuleID string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (rule %s): %v", e.RuleID, e.Err)
}
func (e *ValidationError) Unwrap() error { return e.Err }

// StorePersistError covers failures writing the baseline or report;
// logged, and the scan still returns in-memory findings.
type StorePersistError struct {
	Path string
	Err  error
}

func (e *StorePersistError) Error() string {
	return fmt.Sprintf("store persist error for %s: %v", e.Path, e.Err)
}
func (e *StorePersistError) Unwrap() error { return e.Err }
