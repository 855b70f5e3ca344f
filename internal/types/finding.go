package types

// FindingOccurrence pairs one Match with the set of origins it was
// observed under and the metadata of the blob it was found in.
type FindingOccurrence struct {
	Origins  *OriginSet
	Metadata *BlobMetadata
	Match    *Match
}

// Finding is the deduplicated aggregation of every Match sharing a
// RuleFindingFingerprint. Within a FindingsStore a fingerprint maps to
// exactly one Finding; additional matches extend its Occurrences.
type Finding struct {
	RuleFindingFingerprint string
	RuleID                 string
	RuleName               string

	Occurrences []FindingOccurrence

	// BestValidation is the most conclusive ValidationResult observed
	// across all occurrences (Active beats Inactive beats Unknown/nil).
	BestValidation *ValidationResult
}

// Extend appends an occurrence, aggregating a new origin into the first
// occurrence's OriginSet when the match is truly identical at the same
// location, or appending a distinct occurrence otherwise. Callers
// typically pre-merge same-location origins before calling Extend; this
// method is intentionally simple and just appends.
func (f *Finding) Extend(occ FindingOccurrence) {
	f.Occurrences = append(f.Occurrences, occ)
	f.updateBestValidation(occ.Match.ValidationResult)
}

func (f *Finding) updateBestValidation(vr *ValidationResult) {
	if vr == nil {
		return
	}
	if f.BestValidation == nil || rank(vr.Status) > rank(f.BestValidation.Status) {
		f.BestValidation = vr
	}
}

func rank(s ValidationStatus) int {
	switch s {
	case StatusValid:
		return 2
	case StatusInvalid:
		return 1
	default:
		return 0
	}
}

// NewFinding starts a Finding from its first occurrence.
func NewFinding(occ FindingOccurrence) *Finding {
	f := &Finding{
		RuleFindingFingerprint: occ.Match.RuleFindingFingerprint,
		RuleID:                 occ.Match.RuleID,
		RuleName:               occ.Match.RuleName,
	}
	f.Extend(occ)
	return f
}
