package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContext_BeforeAndAfter(t *testing.T) {
	content := []byte("line1\nline2\nMATCHline3\nline4\n")
	start := 12
	end := 17 // "MATCH"

	before, after := extractContext(content, start, end, 1)
	assert.Equal(t, "line2\n", string(before))
	assert.Equal(t, "line3\n", string(after))
}

func TestExtractContext_AtFileBoundaries(t *testing.T) {
	content := []byte("MATCH\nrest")
	before, after := extractContext(content, 0, 5, 1)
	assert.Nil(t, before)
	assert.Equal(t, "rest", string(after))
}

func TestExtractContext_ZeroLinesReturnsNil(t *testing.T) {
	content := []byte("line1\nMATCH\nline2\n")
	before, after := extractContext(content, 6, 11, 0)
	assert.Nil(t, before)
	assert.Nil(t, after)
}

func TestExtractContext_DoesNotPinOriginalBackingArray(t *testing.T) {
	content := []byte("line1\nMATCH\nline2\n")
	before, _ := extractContext(content, 6, 11, 1)
	before[0] = 'X'
	assert.Equal(t, byte('l'), content[0])
}
