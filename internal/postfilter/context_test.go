package postfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesContextRegex_EmptyPatternAlwaysMatches(t *testing.T) {
	ok, err := matchesContextRegex([]byte("anything"), 0, 4, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesContextRegex_FindsTermInWindow(t *testing.T) {
	content := []byte("aws_secret_access_key = \"SECRETVALUEHERE1234567890\"")
	start, end := 25, 50
	ok, err := matchesContextRegex(content, start, end, `aws_secret_access_key`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesContextRegex_NoMatchOutsideWindow(t *testing.T) {
	content := make([]byte, 500)
	for i := range content {
		content[i] = 'x'
	}
	copy(content[0:6], []byte("marker"))
	copy(content[300:306], []byte("SECRET"))

	ok, err := matchesContextRegex(content, 300, 306, "marker")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesContextRegex_InvalidPatternErrors(t *testing.T) {
	_, err := matchesContextRegex([]byte("x"), 0, 1, "(")
	assert.Error(t, err)
}
