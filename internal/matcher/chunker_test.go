package matcher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkContent_SmallContentSingleChunk(t *testing.T) {
	content := []byte("small content")
	chunks := ChunkContent(content, DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(content), chunks[0].EndOffset)
}

func TestChunkContent_SplitsOversizedContent(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 100; i++ {
		buf.WriteString("0123456789\n")
	}
	content := buf.Bytes()

	chunks := ChunkContent(content, ChunkConfig{MaxChunkSize: 50, OverlapLines: 2})
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(content), last.EndOffset)
}
