package orchestrator

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kingfisher-scan/kingfisher/internal/blobstore"
)

// Counters accumulates per-item outcomes across a scan. Every field is
// safe for concurrent increment from worker goroutines; read it only
// after Scanner.Run returns.
type Counters struct {
	BlobsObserved   atomic.Int64
	BlobsSkippedDup atomic.Int64
	// BlobsRejected counts blobs dropped before matching for either
	// reason the blob processor rejects outright: oversize or (when
	// NoBinary is set) binary content.
	BlobsRejected    atomic.Int64
	MatchesFound     atomic.Int64
	MatchesFiltered  atomic.Int64
	FindingsNew      atomic.Int64
	ValidationErrors atomic.Int64
	SourceErrors     atomic.Int64
	BlobReadErrors   atomic.Int64
}

// Snapshot is a point-in-time, non-atomic copy suitable for logging or
// a summary line.
type Snapshot struct {
	BlobsObserved    int64
	BlobsSkippedDup  int64
	BlobsRejected    int64
	MatchesFound     int64
	MatchesFiltered  int64
	FindingsNew      int64
	ValidationErrors int64
	SourceErrors     int64
	BlobReadErrors   int64
}

// Snapshot reads every counter once into a plain struct.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		BlobsObserved:    c.BlobsObserved.Load(),
		BlobsSkippedDup:  c.BlobsSkippedDup.Load(),
		BlobsRejected:    c.BlobsRejected.Load(),
		MatchesFound:     c.MatchesFound.Load(),
		MatchesFiltered:  c.MatchesFiltered.Load(),
		FindingsNew:      c.FindingsNew.Load(),
		ValidationErrors: c.ValidationErrors.Load(),
		SourceErrors:     c.SourceErrors.Load(),
		BlobReadErrors:   c.BlobReadErrors.Load(),
	}
}

// RuleTally counts recorded matches per rule for the end-of-scan
// summary, keyed by the scan's shared string interner handle so the
// per-match increment stays a small-int map operation instead of
// re-hashing the rule id string on every match.
type RuleTally struct {
	mu       sync.Mutex
	interner *blobstore.Interner
	counts   map[uint32]int64
}

// NewRuleTally builds a tally sharing the scan's interner.
func NewRuleTally(interner *blobstore.Interner) *RuleTally {
	return &RuleTally{interner: interner, counts: make(map[uint32]int64)}
}

// Add increments the count for ruleID by n.
func (t *RuleTally) Add(ruleID string, n int64) {
	h := t.interner.Intern(ruleID)
	t.mu.Lock()
	t.counts[h] += n
	t.mu.Unlock()
}

// RuleCount is one row of the per-rule summary.
type RuleCount struct {
	RuleID string
	Count  int64
}

// Counts resolves every handle back to its rule id and returns the
// tally sorted by rule id, for a deterministic summary.
func (t *RuleTally) Counts() []RuleCount {
	t.mu.Lock()
	out := make([]RuleCount, 0, len(t.counts))
	for h, n := range t.counts {
		out = append(out, RuleCount{RuleID: t.interner.Lookup(h), Count: n})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}
