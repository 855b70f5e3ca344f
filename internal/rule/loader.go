package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Loader handles loading rules and rulesets from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in rules
}

// NewLoader creates a loader backed by the built-in embedded rule set.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS creates a loader backed by a custom filesystem, used for
// testing and for loading a user-supplied rules directory.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRule loads a single rule from YAML bytes.
func (l *Loader) LoadRule(data []byte) (*types.Rule, error) {
	var yamlFile yamlRulesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yamlFile.Rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}
	if len(yamlFile.Rules) > 1 {
		return nil, fmt.Errorf("expected single rule, found %d", len(yamlFile.Rules))
	}
	return convertYAMLRule(yamlFile.Rules[0])
}

// LoadRuleFile loads a rule from a YAML file path on disk.
func (l *Loader) LoadRuleFile(path string) (*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadRule(data)
}

// LoadRulesFile loads every rule defined in a single YAML file, which may
// contain a "rules:" list of more than one entry.
func (l *Loader) LoadRulesFile(path string) ([]*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return parseRulesFile(data)
}

// LoadRulesetFile loads a ruleset from a YAML file path.
func (l *Loader) LoadRulesetFile(path string) (*types.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return parseRulesetsFile(data, path)
}

// LoadDir walks a directory of *.yml/*.yaml files and loads every rule
// found, for the --rules-path CLI flag.
func (l *Loader) LoadDir(dir string) ([]*types.Rule, error) {
	var rules []*types.Rule
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		found, err := parseRulesFile(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rules = append(rules, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadBuiltinRules loads every rule shipped inside the scanner binary.
func (l *Loader) LoadBuiltinRules() ([]*types.Rule, error) {
	var rules []*types.Rule

	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		found, err := parseRulesFile(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rules = append(rules, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// LoadBuiltinRulesets loads every ruleset shipped inside the scanner binary.
func (l *Loader) LoadBuiltinRulesets() ([]*types.Ruleset, error) {
	var rulesets []*types.Ruleset

	err := fs.WalkDir(l.fs, "rulesets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		rs, err := parseRulesetsFile(data, path)
		if err != nil {
			return err
		}
		rulesets = append(rulesets, rs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rulesets, nil
}

func parseRulesFile(data []byte) ([]*types.Rule, error) {
	var yamlFile yamlRulesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	rules := make([]*types.Rule, 0, len(yamlFile.Rules))
	for _, yr := range yamlFile.Rules {
		r, err := convertYAMLRule(yr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRulesetsFile(data []byte, path string) (*types.Ruleset, error) {
	var yamlFile yamlRulesetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yamlFile.Rulesets) == 0 {
		return nil, fmt.Errorf("no rulesets found in %s", path)
	}
	if len(yamlFile.Rulesets) > 1 {
		return nil, fmt.Errorf("expected single ruleset in %s, found %d", path, len(yamlFile.Rulesets))
	}
	return convertYAMLRuleset(yamlFile.Rulesets[0]), nil
}

func isYAMLFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

// convertYAMLRule converts yamlRule to types.Rule and computes its
// StructuralID.
func convertYAMLRule(yr yamlRule) (*types.Rule, error) {
	r := &types.Rule{
		ID:                yr.ID,
		Name:              yr.Name,
		Pattern:           yr.Pattern,
		Description:       yr.Description,
		Examples:          yr.Examples,
		NegativeExamples:  yr.NegativeExamples,
		References:        yr.References,
		Categories:        yr.Categories,
		Keywords:          yr.Keywords,
		Confidence:        types.ConfidenceMedium,
		MinEntropy:        yr.MinEntropy,
		Visible:           true,
		ContextRegex:      yr.ContextRegex,
		IgnoreOnLineAbove: yr.IgnoreOnLineAbove,
	}

	if yr.Confidence != "" {
		c, err := types.ParseConfidence(yr.Confidence)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", yr.ID, err)
		}
		r.Confidence = c
	}
	if yr.Visible != nil {
		r.Visible = *yr.Visible
	}
	if yr.Validation != nil {
		r.Validation = &types.HTTPValidationSpec{
			Method:          yr.Validation.Method,
			URL:             yr.Validation.URL,
			Body:            yr.Validation.Body,
			Headers:         yr.Validation.Headers,
			SuccessStatus:   yr.Validation.SuccessStatus,
			FailureStatus:   yr.Validation.FailureStatus,
			BodyContainsAny: yr.Validation.BodyContainsAny,
			Auth: types.AuthSpec{
				Type:        yr.Validation.Auth.Type,
				SecretGroup: yr.Validation.Auth.SecretGroup,
				HeaderName:  yr.Validation.Auth.HeaderName,
				QueryParam:  yr.Validation.Auth.QueryParam,
				Username:    yr.Validation.Auth.Username,
				KeyPrefix:   yr.Validation.Auth.KeyPrefix,
			},
		}
	}

	r.StructuralID = r.ComputeStructuralID()
	return r, nil
}

func convertYAMLRuleset(yrs yamlRuleset) *types.Ruleset {
	return &types.Ruleset{
		ID:          yrs.ID,
		Name:        yrs.Name,
		Description: yrs.Description,
		RuleIDs:     yrs.RuleIDs,
	}
}
