// Package prefilter implements the matcher's tier-1 pre-filter: a
// multi-pattern Aho-Corasick scan over each rule's keyword set, used to
// cheaply narrow down which rules are even worth confirming against a
// blob. Over-matching is fine here (the confirmation regex re-checks);
// under-matching is not, so a rule with no keywords is always a
// candidate.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Prefilter narrows the rule set a blob needs tier-2 confirmation against.
type Prefilter struct {
	matcher        *ahocorasick.Matcher
	keywords       []string
	keywordRules   map[string][]*types.Rule
	noKeywordRules []*types.Rule
}

// New builds a Prefilter from the compiled rule set.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules:   make(map[string][]*types.Rule),
		noKeywordRules: make([]*types.Rule, 0),
	}

	keywordSet := make(map[string]bool)
	for _, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, rule)
			continue
		}
		for _, keyword := range rule.Keywords {
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], rule)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Candidates returns the rules that may match content: every keywordless
// rule, plus every rule whose keyword was found in content.
func (pf *Prefilter) Candidates(content []byte) []*types.Rule {
	result := make([]*types.Rule, 0, len(pf.noKeywordRules))
	result = append(result, pf.noKeywordRules...)

	if pf.matcher == nil {
		return result
	}

	hits := pf.matcher.Match(content)

	seen := make(map[*types.Rule]bool, len(result))
	for _, rule := range pf.noKeywordRules {
		seen[rule] = true
	}

	for _, hit := range hits {
		keyword := pf.keywords[hit]
		for _, rule := range pf.keywordRules[keyword] {
			if !seen[rule] {
				seen[rule] = true
				result = append(result, rule)
			}
		}
	}

	return result
}
