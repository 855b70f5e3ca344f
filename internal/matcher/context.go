package matcher

// extractContext returns lines bytes before start and after end. Returned
// slices are independent copies, not sub-slices of content, so a stored
// Snippet never pins the whole blob in memory.
func extractContext(content []byte, start, end, lines int) (before, after []byte) {
	if lines <= 0 {
		return nil, nil
	}
	if start < 0 || start > len(content) || end < 0 || end > len(content) || start > end {
		return nil, nil
	}

	if b := extractBefore(content, start, lines); len(b) > 0 {
		before = append([]byte{}, b...)
	}
	if a := extractAfter(content, end, lines); len(a) > 0 {
		after = append([]byte{}, a...)
	}
	return before, after
}

func extractBefore(content []byte, start, lines int) []byte {
	if start == 0 {
		return nil
	}

	pos := start - 1
	linesFound := 0

	for pos >= 0 {
		if content[pos] == '\n' {
			linesFound++
			if linesFound == lines {
				for pos > 0 {
					pos--
					if content[pos] == '\n' {
						return content[pos+1 : start]
					}
				}
				return content[0:start]
			}
		}
		pos--
	}

	return content[0:start]
}

func extractAfter(content []byte, end, lines int) []byte {
	if end >= len(content) {
		return nil
	}

	start := end
	if content[end] == '\n' {
		start = end + 1
		if start >= len(content) {
			return nil
		}
	}

	pos := start
	linesFound := 0

	for pos < len(content) {
		if content[pos] == '\n' {
			linesFound++
			if linesFound == lines {
				return content[start : pos+1]
			}
		}
		pos++
	}

	return content[start:]
}
