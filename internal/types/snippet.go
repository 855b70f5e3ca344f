package types

// Snippet is the decoded context around a match: the bytes immediately
// before and after, plus the matched span itself. Before/After are
// independent copies, never sub-slices of the original blob, so holding a
// Snippet does not pin the whole blob's backing array in memory.
type Snippet struct {
	Before   []byte
	Matching []byte
	After    []byte
}
