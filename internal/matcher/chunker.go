package matcher

import "bytes"

// ChunkConfig bounds how large a single regexp2 pass is allowed to get.
// Confirmation regexes are re-run per candidate rule per blob, so without
// chunking a single multi-gigabyte blob would dominate a worker's time
// budget.
type ChunkConfig struct {
	MaxChunkSize int // bytes
	OverlapLines int // lines of overlap between consecutive chunks, so a match straddling a boundary is still found
}

// DefaultChunkConfig matches the scanner's default --max-file-size-mb-scale
// chunking behavior.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 5 * 1024 * 1024,
		OverlapLines: 10,
	}
}

// Chunk is a byte-offset-addressable slice of a blob's content.
type Chunk struct {
	Content     []byte
	StartOffset int
	EndOffset   int
	Index       int
}

// ChunkContent splits content into line-aligned, overlapping chunks no
// larger than config.MaxChunkSize. Content at or under the limit is
// returned as a single chunk.
func ChunkContent(content []byte, config ChunkConfig) []Chunk {
	if len(content) <= config.MaxChunkSize {
		return []Chunk{{Content: content, StartOffset: 0, EndOffset: len(content), Index: 0}}
	}

	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 {
		return []Chunk{{Content: content, StartOffset: 0, EndOffset: len(content), Index: 0}}
	}

	var chunks []Chunk
	var currentChunk []byte
	var chunkStartOffset int

	for lineIdx := 0; lineIdx < len(lines); lineIdx++ {
		line := lines[lineIdx]
		lineWithNewline := line
		if lineIdx < len(lines)-1 {
			lineWithNewline = append(append([]byte{}, line...), '\n')
		}

		if len(currentChunk)+len(lineWithNewline) > config.MaxChunkSize && len(currentChunk) > 0 {
			chunks = append(chunks, Chunk{
				Content:     currentChunk,
				StartOffset: chunkStartOffset,
				EndOffset:   chunkStartOffset + len(currentChunk),
				Index:       len(chunks),
			})

			overlapStartLine := maxInt(0, lineIdx-config.OverlapLines)
			chunkStartOffset = 0
			for i := 0; i < overlapStartLine; i++ {
				chunkStartOffset += len(lines[i]) + 1
			}

			currentChunk = nil
			for i := overlapStartLine; i < lineIdx; i++ {
				currentChunk = append(currentChunk, lines[i]...)
				if i < len(lines)-1 {
					currentChunk = append(currentChunk, '\n')
				}
			}
		}

		currentChunk = append(currentChunk, lineWithNewline...)
	}

	if len(currentChunk) > 0 {
		chunks = append(chunks, Chunk{
			Content:     currentChunk,
			StartOffset: chunkStartOffset,
			EndOffset:   len(content),
			Index:       len(chunks),
		})
	}

	if len(chunks) == 0 {
		return []Chunk{{Content: content, StartOffset: 0, EndOffset: len(content), Index: 0}}
	}

	return chunks
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
