package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLineColumn(t *testing.T) {
	content := []byte("line one\nline two\nline three")

	tests := []struct {
		offset     int
		wantLine   int
		wantColumn int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{9, 2, 1},
		{18, 3, 1},
	}

	for _, tt := range tests {
		line, col := ComputeLineColumn(content, tt.offset)
		assert.Equal(t, tt.wantLine, line, "offset %d line", tt.offset)
		assert.Equal(t, tt.wantColumn, col, "offset %d column", tt.offset)
	}
}

func TestComputeLineColumn_OffsetPastEnd(t *testing.T) {
	content := []byte("abc")
	line, col := ComputeLineColumn(content, 100)
	assert.Equal(t, 1, line)
	assert.Equal(t, 4, col)
}

func TestComputeLocation(t *testing.T) {
	content := []byte("token = secret\nnext line")
	loc := ComputeLocation(content, 8, 14)
	assert.Equal(t, int64(8), loc.Offset.Start)
	assert.Equal(t, int64(14), loc.Offset.End)
	assert.Equal(t, 1, loc.Source.Start.Line)
	assert.Equal(t, 9, loc.Source.Start.Column)
}
