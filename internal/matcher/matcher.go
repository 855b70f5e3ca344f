// Package matcher implements the scanner's two-tier matching engine:
// a tier-1 Aho-Corasick pre-filter (see internal/prefilter) narrows the
// rules worth trying, and this package's tier-2 confirmation regexes
// extract the exact spans, capture groups and surrounding context that
// become candidate Matches.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/kingfisher-scan/kingfisher/internal/prefilter"
	"github.com/kingfisher-scan/kingfisher/internal/types"
)

const (
	// parallelThreshold is the content size above which a blob's rule set
	// is split across goroutines rather than scanned rule-by-rule inline.
	parallelThreshold = 10_000 // bytes
	matchTimeout       = 5 * time.Second
)

// Matcher is the compiled, read-only, concurrency-safe confirmation
// engine for a RulesDatabase. One Matcher is built per scan and shared
// by every worker.
type Matcher struct {
	db             *types.RulesDatabase
	prefilter      *prefilter.Prefilter
	regexCache     map[string]*regexp2.Regexp
	groupNameCache map[string][]string
	contextLines   int
	chunkConfig    ChunkConfig
}

// New compiles every rule's confirmation regex and builds the tier-1
// pre-filter. Rules reach this point already validated against the
// same regex engine, so a compile failure here fails the whole build
// rather than silently narrowing the rule set.
func New(db *types.RulesDatabase, contextLines int) (*Matcher, error) {
	if db == nil || len(db.Rules) == 0 {
		return nil, fmt.Errorf("matcher: no rules provided")
	}

	m := &Matcher{
		db:             db,
		prefilter:      prefilter.New(db.Rules),
		regexCache:     make(map[string]*regexp2.Regexp, len(db.Rules)),
		groupNameCache: make(map[string][]string, len(db.Rules)),
		contextLines:   contextLines,
		chunkConfig:    DefaultChunkConfig(),
	}

	for _, rule := range db.Rules {
		re, err := compileConfirmationRegex(rule.Pattern)
		if err != nil {
			return nil, &types.MatcherError{RuleID: rule.ID, Err: err}
		}
		m.regexCache[rule.ID] = re
		m.groupNameCache[rule.ID] = re.GetGroupNames()
	}

	return m, nil
}

// compileConfirmationRegex tries RE2 mode first (linear-time, no
// catastrophic backtracking); patterns using features RE2 can't express
// (lookaround, backreferences) fall back to regexp2's default Perl-ish
// mode.
func compileConfirmationRegex(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
		}
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// Match runs the two-tier pipeline over a blob's content and returns the
// resulting candidate Matches (post-filtering happens downstream in
// internal/postfilter). Matches are deduplicated by LocationFingerprint
// within this single call: the same rule matching the exact same span
// twice (e.g. across overlapping chunks) collapses to one Match.
func (m *Matcher) Match(content []byte, blobID types.BlobID) []*types.Match {
	candidates := m.prefilter.Candidates(content)
	if len(candidates) == 0 {
		return nil
	}

	chunks := ChunkContent(content, m.chunkConfig)
	seen := make(map[string]bool)
	results := make([]*types.Match, 0, len(candidates))

	for _, chunk := range chunks {
		for _, rule := range candidates {
			re := m.regexCache[rule.ID]
			if re == nil {
				continue
			}
			chunkStr := string(chunk.Content)

			match, err := re.FindStringMatch(chunkStr)
			for match != nil {
				start := chunk.StartOffset + match.Index
				end := start + match.Length

				result := m.buildMatch(content, blobID, rule, start, end, match, m.groupNameCache[rule.ID])
				if !seen[result.LocationFingerprint] {
					seen[result.LocationFingerprint] = true
					results = append(results, result)
				}

				match, err = re.FindNextMatch(match)
			}
			if err != nil && !strings.Contains(err.Error(), "match timeout") {
				// Any other error surfaces only as a skipped rule for this
				// blob; one bad pattern must never abort the whole scan.
				continue
			}
		}
	}

	return results
}

func (m *Matcher) buildMatch(content []byte, blobID types.BlobID, rule *types.Rule, start, end int, match *regexp2.Match, groupNames []string) *types.Match {
	groups, namedGroups := extractGroups(match, groupNames)
	before, after := extractContext(content, start, end, m.contextLines)

	result := &types.Match{
		BlobID:      blobID,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Location:    types.ComputeLocation(content, start, end),
		Groups:      groups,
		NamedGroups: namedGroups,
		Snippet: types.Snippet{
			Before:   before,
			Matching: append([]byte{}, content[start:end]...),
			After:    after,
		},
		Confidence: rule.Confidence,
		Visible:    rule.Visible,
	}
	result.FinalizeFingerprints(rule.StructuralID)
	return result
}

func extractGroups(match *regexp2.Match, groupNames []string) ([][]byte, map[string][]byte) {
	var positional [][]byte
	matchGroups := match.Groups()
	for i := 1; i < len(matchGroups); i++ {
		group := matchGroups[i]
		if len(group.Captures) > 0 {
			positional = append(positional, []byte(group.Captures[0].String()))
		}
	}

	named := make(map[string][]byte)
	for _, name := range groupNames {
		if name == "" || isAllDigits(name) {
			continue // numbered groups surface as "0", "1", ... - not user-declared names
		}
		group := match.GroupByName(name)
		if group != nil && len(group.Captures) > 0 {
			named[name] = []byte(group.Captures[0].String())
		}
	}

	return positional, named
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
