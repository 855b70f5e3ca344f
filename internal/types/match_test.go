package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_FinalizeFingerprints_Deterministic(t *testing.T) {
	blobID := ComputeBlobID([]byte("token = ghp_deadbeef"))
	rule := &Rule{ID: "kf.github.pat", Pattern: `ghp_[0-9a-f]+`}
	structuralID := rule.ComputeStructuralID()

	build := func() *Match {
		m := &Match{
			BlobID:   blobID,
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Location: ComputeLocation([]byte("token = ghp_deadbeef"), 8, 20),
			Snippet:  Snippet{Matching: []byte("ghp_deadbeef")},
		}
		m.FinalizeFingerprints(structuralID)
		return m
	}

	m1 := build()
	m2 := build()

	assert.Equal(t, m1.LocationFingerprint, m2.LocationFingerprint)
	assert.Equal(t, m1.RuleFindingFingerprint, m2.RuleFindingFingerprint)
	require.NotEmpty(t, m1.RuleFindingFingerprint)
}

func TestMatch_RuleFindingFingerprint_IgnoresLocation(t *testing.T) {
	rule := &Rule{ID: "kf.github.pat", Pattern: `ghp_[0-9a-f]+`}
	structuralID := rule.ComputeStructuralID()

	m1 := &Match{
		BlobID:   ComputeBlobID([]byte("a.txt")),
		Snippet:  Snippet{Matching: []byte("ghp_deadbeef")},
		Location: ComputeLocation([]byte("x"), 0, 0),
	}
	m1.FinalizeFingerprints(structuralID)

	m2 := &Match{
		BlobID:   ComputeBlobID([]byte("b.txt")), // different blob
		Snippet:  Snippet{Matching: []byte("ghp_deadbeef")},
		Location: ComputeLocation([]byte("y"), 5, 5), // different offset
	}
	m2.FinalizeFingerprints(structuralID)

	// Same rule, same secret text -> same rule_finding_fingerprint even
	// though blob and location differ. This is what lets a finding
	// survive a file rename or a rescan.
	assert.Equal(t, m1.RuleFindingFingerprint, m2.RuleFindingFingerprint)
	// But the per-location fingerprint must differ.
	assert.NotEqual(t, m1.LocationFingerprint, m2.LocationFingerprint)
}

func TestMatch_CanonicalSecret_PrefersNamedGroup(t *testing.T) {
	m := &Match{
		NamedGroups: map[string][]byte{"secret": []byte("named-value")},
		Groups:      [][]byte{[]byte("positional-value")},
		Snippet:     Snippet{Matching: []byte("full-match")},
	}
	assert.Equal(t, "named-value", string(m.CanonicalSecret()))

	m2 := &Match{
		Groups:  [][]byte{[]byte("positional-value")},
		Snippet: Snippet{Matching: []byte("full-match")},
	}
	assert.Equal(t, "positional-value", string(m2.CanonicalSecret()))

	m3 := &Match{Snippet: Snippet{Matching: []byte("full-match")}}
	assert.Equal(t, "full-match", string(m3.CanonicalSecret()))
}
