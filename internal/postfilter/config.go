// Package postfilter implements the scanner's fixed-order post-match
// pipeline: confidence floor, ignore directives, context regex, entropy
// floor, allow/deny lists, an AWS account skip list, and a base64
// decode-then-rematch recursion step. Every stage may only narrow the
// candidate set a tier-2 confirmation regex produced; none of them can
// invent a match.
package postfilter

import "github.com/kingfisher-scan/kingfisher/internal/types"

// Config holds the scan-wide settings the pipeline applies to every
// candidate Match. It is built once from CLI flags and shared read-only
// across workers.
type Config struct {
	// MinConfidence drops any match whose rule confidence is below this
	// floor. Defaults to ConfidenceLow (accept everything).
	MinConfidence types.Confidence

	// IgnoreMarkers are substrings that, found on a match's line (or the
	// line above, for rules with IgnoreOnLineAbove set), suppress the
	// match entirely. e.g. "kingfisher:ignore", "nosecret".
	IgnoreMarkers []string

	// GlobalMinEntropy applies to rules that don't declare their own
	// MinEntropy. Nil means no global floor.
	GlobalMinEntropy *float64

	// AllowPatterns: if non-empty, a match's canonical secret must match
	// at least one to survive (used to scope a scan to a known-format
	// secret during triage).
	AllowPatterns []string
	// DenyPatterns: a match whose canonical secret matches any of these
	// is dropped (e.g. known placeholder/test values).
	DenyPatterns []string

	// AWSAccountSkipList holds known-benign AWS account ids; a captured
	// account-id-shaped token found in this set is dropped.
	AWSAccountSkipList map[string]bool

	// Base64Recurse enables decode-then-rematch: a match whose captured
	// secret is valid base64 is decoded and re-run through the matcher,
	// surfacing any secret hidden inside an encoded blob.
	Base64Recurse bool
}

// DefaultConfig returns a permissive pipeline: accept every confidence,
// no ignore markers, no entropy floor, no allow/deny lists, base64
// recursion enabled.
func DefaultConfig() Config {
	return Config{
		MinConfidence: types.ConfidenceLow,
		Base64Recurse: true,
	}
}
