package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func TestValidateRule_RequiredFields(t *testing.T) {
	assert.Error(t, ValidateRule(nil))
	assert.Error(t, ValidateRule(&types.Rule{}))
	assert.Error(t, ValidateRule(&types.Rule{ID: "x", Name: "X"}))
}

func TestValidateRule_BadPattern(t *testing.T) {
	r := &types.Rule{ID: "x", Name: "X", Pattern: "("}
	assert.Error(t, ValidateRule(r))
}

func TestValidateRule_EntropyOutOfRange(t *testing.T) {
	bad := 12.0
	r := &types.Rule{ID: "x", Name: "X", Pattern: "a", MinEntropy: &bad}
	assert.Error(t, ValidateRule(r))
}

func TestValidateRule_ValidationMissingURL(t *testing.T) {
	r := &types.Rule{
		ID: "x", Name: "X", Pattern: "a",
		Validation: &types.HTTPValidationSpec{Method: "GET"},
	}
	assert.Error(t, ValidateRule(r))
}

func TestValidateRule_OK(t *testing.T) {
	r := &types.Rule{ID: "x", Name: "X", Pattern: "a"}
	r.StructuralID = r.ComputeStructuralID()
	assert.NoError(t, ValidateRule(r))
}

func TestValidateRuleset_UnknownRuleID(t *testing.T) {
	rs := &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"a", "b"}}
	known := map[string]bool{"a": true}
	assert.Error(t, ValidateRuleset(rs, known))
}

func TestValidateRuleset_Duplicate(t *testing.T) {
	rs := &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"a", "a"}}
	assert.Error(t, ValidateRuleset(rs, nil))
}

func TestValidateRuleset_OK(t *testing.T) {
	rs := &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"a", "b"}}
	assert.NoError(t, ValidateRuleset(rs, nil))
}
