package findingsstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// baselineDocument is the on-disk shape of a baseline file: a flat list
// of entries, each keyed by fingerprint once loaded into a
// types.Baseline. A list (rather than a top-level map) keeps the YAML
// readable and diff-friendly when a human inspects it.
type baselineDocument struct {
	Entries []types.BaselineEntry `yaml:"entries"`
}

// LoadBaselineFile reads a fingerprint-keyed baseline document from
// path. A missing file is not an error; it just means no findings are
// pre-accepted yet.
func LoadBaselineFile(path string) (*types.Baseline, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.NewBaseline(), nil
	}
	if err != nil {
		return nil, &types.StorePersistError{Path: path, Err: err}
	}

	var doc baselineDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &types.StorePersistError{Path: path, Err: fmt.Errorf("parsing baseline: %w", err)}
	}

	baseline := types.NewBaseline()
	for _, e := range doc.Entries {
		baseline.Entries[e.RuleFindingFingerprint] = e
	}
	return baseline, nil
}

// SaveBaselineFile writes the store's current findings out as a
// baseline document, pruning any fingerprint no longer observed in
// this scan. One representative occurrence per finding supplies the
// example path recorded for human review.
func (s *Store) SaveBaselineFile(path string) error {
	s.mu.RLock()
	doc := baselineDocument{Entries: make([]types.BaselineEntry, 0, len(s.findings))}
	for _, f := range s.findings {
		entry := types.BaselineEntry{
			RuleFindingFingerprint: f.RuleFindingFingerprint,
			RuleID:                 f.RuleID,
			RuleName:               f.RuleName,
		}
		if len(f.Occurrences) > 0 {
			if origin := f.Occurrences[0].Origins.First(); origin != nil {
				entry.ExamplePath = origin.Path()
			}
		}
		doc.Entries = append(doc.Entries, entry)
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return &types.StorePersistError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &types.StorePersistError{Path: path, Err: err}
	}
	return nil
}
