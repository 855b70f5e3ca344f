package postfilter

import (
	"regexp"
	"sync"
)

// contextWindowBytes is how far on either side of a match the context
// regex is allowed to look.
const contextWindowBytes = 64

var contextRegexCache sync.Map // pattern string -> *regexp.Regexp

// matchesContextRegex reports whether pattern matches anywhere within
// the ±contextWindowBytes window around [start,end) in content. An empty
// pattern always matches (no context constraint declared).
func matchesContextRegex(content []byte, start, end int, pattern string) (bool, error) {
	if pattern == "" {
		return true, nil
	}

	re, err := compiledContextRegex(pattern)
	if err != nil {
		return false, err
	}

	windowStart := start - contextWindowBytes
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := end + contextWindowBytes
	if windowEnd > len(content) {
		windowEnd = len(content)
	}

	return re.Match(content[windowStart:windowEnd]), nil
}

func compiledContextRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := contextRegexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := contextRegexCache.LoadOrStore(pattern, compiled)
	return actual.(*regexp.Regexp), nil
}
