package rule

import (
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// ValidateRule checks rule consistency and required fields.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}

	// The confirmation engine tries RE2 mode first and falls back to
	// regexp2's Perl-ish mode; validate with the same sequence so a
	// pattern rejected here is exactly one the matcher couldn't run.
	if _, err := regexp2.Compile(r.Pattern, regexp2.RE2|regexp2.Multiline); err != nil {
		if _, err := regexp2.Compile(r.Pattern, regexp2.None); err != nil {
			return fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
		}
	}

	if r.ContextRegex != "" {
		if _, err := regexp.Compile(r.ContextRegex); err != nil {
			return fmt.Errorf("invalid context_regex for rule %s: %w", r.ID, err)
		}
	}

	if r.MinEntropy != nil && (*r.MinEntropy < 0 || *r.MinEntropy > 8) {
		return fmt.Errorf("rule %s has out-of-range min_entropy %v, want [0,8]", r.ID, *r.MinEntropy)
	}

	if r.Validation != nil {
		if r.Validation.Method == "" {
			return fmt.Errorf("rule %s validation requires a method", r.ID)
		}
		if r.Validation.URL == "" {
			return fmt.Errorf("rule %s validation requires a url template", r.ID)
		}
	}

	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	return nil
}

// ValidateRuleset checks ruleset consistency and required fields.
// knownRuleIDs is a map of valid rule IDs for reference checking.
func ValidateRuleset(rs *types.Ruleset, knownRuleIDs map[string]bool) error {
	if rs == nil {
		return fmt.Errorf("ruleset is nil")
	}
	if rs.ID == "" {
		return fmt.Errorf("ruleset ID is required")
	}
	if rs.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	if len(rs.RuleIDs) == 0 {
		return fmt.Errorf("ruleset %s must reference at least one rule", rs.ID)
	}

	if knownRuleIDs != nil {
		for _, ruleID := range rs.RuleIDs {
			if !knownRuleIDs[ruleID] {
				return fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, ruleID)
			}
		}
	}

	seen := make(map[string]bool)
	for _, ruleID := range rs.RuleIDs {
		if seen[ruleID] {
			return fmt.Errorf("ruleset %s contains duplicate rule ID: %s", rs.ID, ruleID)
		}
		seen[ruleID] = true
	}

	return nil
}
