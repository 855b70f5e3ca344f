package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func occurrenceWithValidation(status ValidationStatus) FindingOccurrence {
	return FindingOccurrence{
		Origins:  NewOriginSet(FileOrigin{FilePath: "a.txt"}),
		Metadata: &BlobMetadata{},
		Match: &Match{
			RuleFindingFingerprint: "fp1",
			ValidationResult:       &ValidationResult{Status: status},
		},
	}
}

func TestFinding_Extend_TracksBestValidation(t *testing.T) {
	f := NewFinding(occurrenceWithValidation(StatusUndetermined))
	assert.Equal(t, StatusUndetermined, f.BestValidation.Status)

	f.Extend(occurrenceWithValidation(StatusInvalid))
	assert.Equal(t, StatusInvalid, f.BestValidation.Status)

	f.Extend(occurrenceWithValidation(StatusValid))
	assert.Equal(t, StatusValid, f.BestValidation.Status)

	// A later Unknown never downgrades an already-Active finding.
	f.Extend(occurrenceWithValidation(StatusUndetermined))
	assert.Equal(t, StatusValid, f.BestValidation.Status)

	assert.Len(t, f.Occurrences, 4)
}

func TestBaseline_Contains(t *testing.T) {
	b := NewBaseline()
	b.Entries["fp1"] = BaselineEntry{RuleFindingFingerprint: "fp1"}

	assert.True(t, b.Contains("fp1"))
	assert.False(t, b.Contains("fp2"))

	var nilBaseline *Baseline
	assert.False(t, nilBaseline.Contains("fp1"))
}
