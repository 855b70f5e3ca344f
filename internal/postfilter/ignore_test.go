package postfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasIgnoreMarker_SameLine(t *testing.T) {
	content := []byte("token = \"ghp_x\" // kingfisher:ignore\nnext line\n")
	start := 9
	assert.True(t, hasIgnoreMarker(content, start, false, []string{"kingfisher:ignore"}))
}

func TestHasIgnoreMarker_LineAbove(t *testing.T) {
	content := []byte("// kingfisher:ignore\ntoken = \"ghp_x\"\n")
	start := 28 // inside the second line
	assert.True(t, hasIgnoreMarker(content, start, true, []string{"kingfisher:ignore"}))
	assert.False(t, hasIgnoreMarker(content, start, false, []string{"kingfisher:ignore"}))
}

func TestHasIgnoreMarker_NoMarkersConfigured(t *testing.T) {
	content := []byte("token = secret\n")
	assert.False(t, hasIgnoreMarker(content, 0, true, nil))
}

func TestHasIgnoreMarker_NoMatch(t *testing.T) {
	content := []byte("token = secret\nnext\n")
	assert.False(t, hasIgnoreMarker(content, 0, true, []string{"kingfisher:ignore"}))
}

func TestLineContainingOffset_FirstLine(t *testing.T) {
	content := []byte("first\nsecond\n")
	assert.Equal(t, "first", string(lineContainingOffset(content, 2)))
}

func TestLineContainingOffset_LastLineNoTrailingNewline(t *testing.T) {
	content := []byte("first\nsecond")
	assert.Equal(t, "second", string(lineContainingOffset(content, 8)))
}
