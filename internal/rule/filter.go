package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering,
// matched against rule IDs, plus an optional confidence floor.
type FilterConfig struct {
	Include          []string // regex patterns - only matching rules included
	Exclude          []string // regex patterns - matching rules excluded
	MinConfidence    types.Confidence
	HasMinConfidence bool
}

// ParsePatterns splits a comma-separated string into individual patterns.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns, then a confidence floor, to
// rules. Include is applied first, then exclude, then confidence. Empty
// include means "include all".
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	includeRegexes, err := compilePatterns(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compilePatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := rules
	if len(includeRegexes) > 0 {
		filtered = applyInclude(filtered, includeRegexes)
	}
	if len(excludeRegexes) > 0 {
		filtered = applyExclude(filtered, excludeRegexes)
	}
	if config.HasMinConfidence {
		filtered = applyMinConfidence(filtered, config.MinConfidence)
	}

	return filtered, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func applyInclude(rules []*types.Rule, regexes []*regexp.Regexp) []*types.Rule {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		if matchesAny(rule.ID, regexes) {
			result = append(result, rule)
		}
	}
	return result
}

func applyExclude(rules []*types.Rule, regexes []*regexp.Regexp) []*types.Rule {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		if !matchesAny(rule.ID, regexes) {
			result = append(result, rule)
		}
	}
	return result
}

func applyMinConfidence(rules []*types.Rule, min types.Confidence) []*types.Rule {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		if rule.Confidence >= min {
			result = append(result, rule)
		}
	}
	return result
}

func matchesAny(ruleID string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(ruleID) {
			return true
		}
	}
	return false
}
