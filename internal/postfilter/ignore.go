package postfilter

import (
	"bytes"
	"strings"
)

// lineContainingOffset returns the full line of content that byteOffset
// falls within.
func lineContainingOffset(content []byte, byteOffset int) []byte {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(content) {
		byteOffset = len(content)
	}

	start := bytes.LastIndexByte(content[:byteOffset], '\n') + 1
	relEnd := bytes.IndexByte(content[byteOffset:], '\n')
	end := len(content)
	if relEnd >= 0 {
		end = byteOffset + relEnd
	}
	return content[start:end]
}

// lineAbove returns the line immediately preceding the one byteOffset
// falls within, or nil if there isn't one.
func lineAbove(content []byte, byteOffset int) []byte {
	line := lineContainingOffset(content, byteOffset)
	lineStartOffset := byteOffset - len(line)
	if lineStartOffset <= 0 {
		return nil
	}
	return lineContainingOffset(content, lineStartOffset-1)
}

// hasIgnoreMarker reports whether any configured ignore marker appears on
// the match's line, or on the line above when checkLineAbove is set.
func hasIgnoreMarker(content []byte, matchStart int, checkLineAbove bool, markers []string) bool {
	if len(markers) == 0 {
		return false
	}

	if containsAnyMarker(lineContainingOffset(content, matchStart), markers) {
		return true
	}
	if checkLineAbove {
		if above := lineAbove(content, matchStart); above != nil {
			return containsAnyMarker(above, markers)
		}
	}
	return false
}

func containsAnyMarker(line []byte, markers []string) bool {
	s := string(line)
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
