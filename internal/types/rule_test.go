package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_ComputeStructuralID_StableAcrossNamedGroups(t *testing.T) {
	named := &Rule{Pattern: `AKIA(?P<secret>[0-9A-Z]{16})`}
	unnamed := &Rule{Pattern: `AKIA([0-9A-Z]{16})`}

	assert.Equal(t, unnamed.ComputeStructuralID(), named.ComputeStructuralID())
}

func TestRule_ComputeStructuralID_DiffersOnPatternChange(t *testing.T) {
	a := &Rule{Pattern: `AKIA[0-9A-Z]{16}`}
	b := &Rule{Pattern: `AKIA[0-9A-Z]{17}`}

	assert.NotEqual(t, a.ComputeStructuralID(), b.ComputeStructuralID())
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in      string
		want    Confidence
		wantErr bool
	}{
		{"low", ConfidenceLow, false},
		{"medium", ConfidenceMedium, false},
		{"high", ConfidenceHigh, false},
		{"nonsense", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseConfidence(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRulesDatabase_Lookup(t *testing.T) {
	r1 := &Rule{ID: "kf.aws.1"}
	r2 := &Rule{ID: "kf.github.pat"}
	db := NewRulesDatabase([]*Rule{r1, r2})

	assert.Same(t, r1, db.Lookup("kf.aws.1"))
	assert.Same(t, r2, db.Lookup("kf.github.pat"))
	assert.Nil(t, db.Lookup("nope"))
}
