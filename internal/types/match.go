package types

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Match is a single detection produced by the matcher for one blob.
//
// Two fingerprints are carried, per spec: LocationFingerprint is a
// per-location hash (rule + blob + offsets) used only to deduplicate
// identical (rule, location) pairs within a single matcher pass.
// RuleFindingFingerprint is the content-based identity that survives
// renames and rescans: it depends only on the rule id and the canonical
// captured secret, never on file path or commit, and is what the findings
// store groups on.
type Match struct {
	BlobID BlobID

	LocationFingerprint    string
	RuleFindingFingerprint string

	RuleID   string
	RuleName string

	Location Location

	Groups      [][]byte
	NamedGroups map[string][]byte

	Snippet Snippet

	Confidence Confidence
	Entropy    float64

	// Visible is false when suppressed by the baseline or a post-filter
	// rule. A suppressed match is still counted, just not reported.
	Visible bool

	// BaseLayer is true when this match was recovered by decoding a
	// base64 capture from an outer match and re-running the matcher on
	// the decoded bytes.
	BaseLayer bool

	ValidationResult *ValidationResult
}

// computeLocationFingerprint hashes rule-structural-id + blob-id + start + end.
func computeLocationFingerprint(ruleStructuralID string, blobID BlobID, start, end int64) string {
	h := sha1.New()
	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})
	h.Write(blobID[:])
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", start)
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", end)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalSecret returns the text the rule_finding_fingerprint should be
// derived from: the first named capture group if present (by convention
// rules name the credential group "secret"), else the full match.
func (m *Match) CanonicalSecret() []byte {
	if v, ok := m.NamedGroups["secret"]; ok && len(v) > 0 {
		return v
	}
	if len(m.Groups) > 0 && len(m.Groups[0]) > 0 {
		return m.Groups[0]
	}
	return m.Snippet.Matching
}

// ComputeRuleFindingFingerprint hashes rule-structural-id + JSON(secret).
// Using json.Marshal over a single value keeps the encoding deterministic
// and side-steps manual escaping.
func ComputeRuleFindingFingerprint(ruleStructuralID string, canonicalSecret []byte) string {
	h := sha1.New()
	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})
	encoded, _ := json.Marshal(canonicalSecret)
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil))
}

// FinalizeFingerprints computes and sets both fingerprints on m. Call once
// per match, after Groups/NamedGroups/Snippet are populated.
func (m *Match) FinalizeFingerprints(ruleStructuralID string) {
	m.LocationFingerprint = computeLocationFingerprint(ruleStructuralID, m.BlobID, m.Location.Offset.Start, m.Location.Offset.End)
	m.RuleFindingFingerprint = ComputeRuleFindingFingerprint(ruleStructuralID, m.CanonicalSecret())
}
