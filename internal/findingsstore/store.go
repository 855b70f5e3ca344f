// Package findingsstore is the thread-safe deduplicating sink every
// worker records matches into. A RuleFindingFingerprint maps to
// exactly one Finding; additional matches sharing that fingerprint
// extend it with a new occurrence rather than creating a duplicate.
package findingsstore

import (
	"fmt"
	"sync"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// RecordBatchItem is one match plus the provenance needed to attach it
// to a Finding.
type RecordBatchItem struct {
	Origins  *types.OriginSet
	Metadata *types.BlobMetadata
	Match    *types.Match
}

// Store is the in-memory findings sink. Record takes an exclusive lock
// for the duration of a batch and releases it before returning, so
// recording is serialised and totally ordered by lock acquisition.
type Store struct {
	mu       sync.RWMutex
	findings map[string]*types.Finding
	// dupCounter lets Record(..., dedup=false) keep distinct entries
	// for the same fingerprint instead of collapsing them.
	dupCounter int

	// Side-tables: small registries adapters populate without the
	// store needing to know what a "clone" or a "Slack message" is.
	// The registration points themselves are the contract; the
	// adapters that consume them live outside this module's core.
	slackLinks map[string]string // blob path -> message permalink
	cloneRoots map[string]string // clone URL -> local root path
	baseline   *types.Baseline
}

// New creates an empty Store with no baseline loaded.
func New() *Store {
	return &Store{
		findings:   make(map[string]*types.Finding),
		slackLinks: make(map[string]string),
		cloneRoots: make(map[string]string),
		baseline:   types.NewBaseline(),
	}
}

// LoadBaseline replaces the store's baseline. Call before the first
// Record so visibility suppression applies from the first match seen.
func (s *Store) LoadBaseline(b *types.Baseline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b == nil {
		b = types.NewBaseline()
	}
	s.baseline = b
}

// Record groups batch by RuleFindingFingerprint. When dedup is true, a
// match whose fingerprint already exists extends the existing Finding
// instead of creating a duplicate; when false, every item becomes its
// own Finding unconditionally. Returns how many genuinely new Findings
// were created by this call.
func (s *Store) Record(batch []RecordBatchItem, dedup bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCount := 0
	for _, item := range batch {
		if item.Match == nil {
			continue
		}
		if s.baseline.Contains(item.Match.RuleFindingFingerprint) {
			item.Match.Visible = false
		}

		occ := types.FindingOccurrence{Origins: item.Origins, Metadata: item.Metadata, Match: item.Match}

		key := item.Match.RuleFindingFingerprint
		if !dedup {
			s.dupCounter++
			key = fmt.Sprintf("%s#%d", key, s.dupCounter)
		}

		if existing, ok := s.findings[key]; ok {
			existing.Extend(occ)
			continue
		}

		s.findings[key] = types.NewFinding(occ)
		newCount++
	}
	return newCount
}

// GetFindings returns every recorded Finding. The returned slice is a
// fresh copy of the map's values; mutating it does not affect the
// store.
func (s *Store) GetFindings() []*types.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Finding, 0, len(s.findings))
	for _, f := range s.findings {
		out = append(out, f)
	}
	return out
}

// GetMatches flattens every occurrence across every Finding back into
// a single slice of Matches, for callers (report, SARIF) that want a
// flat view rather than the grouped one.
func (s *Store) GetMatches() []*types.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Match
	for _, f := range s.findings {
		for _, occ := range f.Occurrences {
			out = append(out, occ.Match)
		}
	}
	return out
}

// Len reports how many distinct findings have been recorded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.findings)
}

// RegisterSlackMessage associates a blob path with the permalink of
// the chat message it was extracted from, so a report can link a
// finding back to its message. Registration only; posting anything to
// Slack is an adapter concern outside this package.
func (s *Store) RegisterSlackMessage(path, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slackLinks[path] = link
}

// SlackMessageLink returns the message permalink registered for path,
// if any.
func (s *Store) SlackMessageLink(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.slackLinks[path]
	return link, ok
}

// CloneDestination records where a clone URL was checked out to, so a
// later lookup (e.g. building a report's origin path) can resolve a
// clone URL back to its local root.
func (s *Store) CloneDestination(cloneURL, localRoot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloneRoots[cloneURL] = localRoot
}

// CloneRoot returns the local root a clone URL was checked out to, if
// recorded.
func (s *Store) CloneRoot(cloneURL string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	root, ok := s.cloneRoots[cloneURL]
	return root, ok
}
