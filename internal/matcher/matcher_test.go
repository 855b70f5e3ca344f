package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func rulesDB(rules ...*types.Rule) *types.RulesDatabase {
	for _, r := range rules {
		r.StructuralID = r.ComputeStructuralID()
	}
	return types.NewRulesDatabase(rules)
}

func TestMatcher_FindsNamedCapture(t *testing.T) {
	rule := &types.Rule{
		ID: "kf.github.pat", Name: "GitHub PAT",
		Pattern:  `(?P<secret>ghp_[0-9A-Za-z]{10})`,
		Keywords: []string{"ghp_"},
		Visible:  true,
	}
	m, err := New(rulesDB(rule), 2)
	require.NoError(t, err)

	content := []byte("token = ghp_abcdefghij and nothing else")
	blobID := types.ComputeBlobID(content)

	matches := m.Match(content, blobID)
	require.Len(t, matches, 1)
	assert.Equal(t, "ghp_abcdefghij", string(matches[0].NamedGroups["secret"]))
	assert.Equal(t, "kf.github.pat", matches[0].RuleID)
	assert.NotEmpty(t, matches[0].LocationFingerprint)
	assert.NotEmpty(t, matches[0].RuleFindingFingerprint)
}

func TestMatcher_MultipleNonOverlappingMatches(t *testing.T) {
	rule := &types.Rule{ID: "kf.t", Name: "T", Pattern: `tok_[0-9]{4}`}
	m, err := New(rulesDB(rule), 0)
	require.NoError(t, err)

	content := []byte("tok_1111 ... tok_2222")
	matches := m.Match(content, types.ComputeBlobID(content))
	require.Len(t, matches, 2)
}

func TestMatcher_NoPrefilterCandidate_NoMatches(t *testing.T) {
	rule := &types.Rule{ID: "kf.aws", Name: "AWS", Pattern: `AKIA[0-9A-Z]{16}`, Keywords: []string{"AKIA"}}
	m, err := New(rulesDB(rule), 0)
	require.NoError(t, err)

	matches := m.Match([]byte("nothing interesting"), types.ComputeBlobID([]byte("nothing interesting")))
	assert.Empty(t, matches)
}

func TestMatcher_DedupesSameLocationAcrossChunkOverlap(t *testing.T) {
	rule := &types.Rule{ID: "kf.t", Name: "T", Pattern: `tok_[0-9]{4}`}
	m, err := New(rulesDB(rule), 0)
	require.NoError(t, err)
	m.chunkConfig = ChunkConfig{MaxChunkSize: 5, OverlapLines: 3}

	content := []byte("a\nb\ntok_9999\nc\n")
	matches := m.Match(content, types.ComputeBlobID(content))

	seen := make(map[string]bool)
	for _, match := range matches {
		assert.False(t, seen[match.LocationFingerprint], "duplicate LocationFingerprint across chunk overlap")
		seen[match.LocationFingerprint] = true
	}
}

func TestNew_RejectsEmptyRuleSet(t *testing.T) {
	_, err := New(types.NewRulesDatabase(nil), 0)
	assert.Error(t, err)
}

func TestNew_ReportsCompileErrorWithRuleID(t *testing.T) {
	rule := &types.Rule{ID: "kf.bad", Name: "Bad", Pattern: `(unterminated`}
	_, err := New(rulesDB(rule), 0)
	require.Error(t, err)

	var compileErr *types.MatcherError
	assert.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "kf.bad", compileErr.RuleID)
}
