package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func TestFilter_IncludeThenExclude(t *testing.T) {
	rules := []*types.Rule{
		{ID: "kf.aws.key"},
		{ID: "kf.aws.secret"},
		{ID: "kf.github.pat"},
	}

	got, err := Filter(rules, FilterConfig{Include: []string{`^kf\.aws\.`}, Exclude: []string{`secret$`}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kf.aws.key", got[0].ID)
}

func TestFilter_MinConfidence(t *testing.T) {
	rules := []*types.Rule{
		{ID: "low", Confidence: types.ConfidenceLow},
		{ID: "med", Confidence: types.ConfidenceMedium},
		{ID: "high", Confidence: types.ConfidenceHigh},
	}

	got, err := Filter(rules, FilterConfig{MinConfidence: types.ConfidenceMedium, HasMinConfidence: true})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []string{"med", "high"}, ids)
}

func TestFilter_InvalidPattern(t *testing.T) {
	rules := []*types.Rule{{ID: "x"}}
	_, err := Filter(rules, FilterConfig{Include: []string{"("}})
	assert.Error(t, err)
}

func TestParsePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParsePatterns("a, b"))
	assert.Equal(t, []string{}, ParsePatterns(""))
}
