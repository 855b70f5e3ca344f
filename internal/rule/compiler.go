package rule

import (
	"fmt"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Compile deduplicates rules by id, validates each survivor, and
// assembles the valid ones into a RulesDatabase. Per-rule failures
// (bad regex, missing fields, duplicate id) come back as
// RuleCompileErrors for the caller to report; compilation only fails
// outright when no rule survives, since scanning with an empty rule
// set would silently report nothing.
func Compile(rules []*types.Rule) (*types.RulesDatabase, []*types.RuleCompileError, error) {
	var compileErrs []*types.RuleCompileError
	seen := make(map[string]bool, len(rules))
	surviving := make([]*types.Rule, 0, len(rules))

	for _, r := range rules {
		if r != nil && seen[r.ID] {
			compileErrs = append(compileErrs, &types.RuleCompileError{
				RuleID: r.ID,
				Err:    fmt.Errorf("duplicate rule id"),
			})
			continue
		}
		if err := ValidateRule(r); err != nil {
			id := ""
			if r != nil {
				id = r.ID
			}
			compileErrs = append(compileErrs, &types.RuleCompileError{RuleID: id, Err: err})
			continue
		}
		seen[r.ID] = true
		surviving = append(surviving, r)
	}

	if len(surviving) == 0 {
		return nil, compileErrs, fmt.Errorf("no rules survived compilation (%d failed)", len(compileErrs))
	}
	return types.NewRulesDatabase(surviving), compileErrs, nil
}

// ResolveRuleset expands a ruleset's rule IDs against a RulesDatabase,
// returning the concrete rules it names.
func ResolveRuleset(db *types.RulesDatabase, rs *types.Ruleset) ([]*types.Rule, error) {
	resolved := make([]*types.Rule, 0, len(rs.RuleIDs))
	for _, id := range rs.RuleIDs {
		r := db.Lookup(id)
		if r == nil {
			return nil, fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, id)
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}
