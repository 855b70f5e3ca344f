// Package report shapes findings into the record stream a CLI
// formatter writes out. Building the record structs is this package's
// job; JSON/JSONL encoding and SARIF translation are the two concrete
// renderings it ships. Terminal/pretty styling stays with the caller.
package report

import (
	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// RuleSummary is the `rule` block of a report record.
type RuleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ValidationDetail is the `finding.validation` block. Status uses the
// report vocabulary (types.ValidationStatus.ReportStatus()), not the
// internal enum value.
type ValidationDetail struct {
	Status         string `json:"status"`
	Body           string `json:"body,omitempty"`
	ResponseStatus int    `json:"response_status,omitempty"`
}

// MatchDetail is the `finding.match` block: the located span plus
// enough surrounding context to render a snippet without reopening the
// source.
type MatchDetail struct {
	Snippet     string `json:"snippet"`
	Before      string `json:"before,omitempty"`
	After       string `json:"after,omitempty"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	StartByte   int64  `json:"start_byte"`
	EndByte     int64  `json:"end_byte"`
}

// CommitDetail is attached to OriginDetail when the origin is a git
// commit with metadata available.
type CommitDetail struct {
	ID        string `json:"id"`
	Author    string `json:"author,omitempty"`
	Committer string `json:"committer,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OriginDetail is the `finding.origin` block: where this occurrence
// was observed.
type OriginDetail struct {
	Kind   string        `json:"kind"`
	Path   string        `json:"path"`
	Commit *CommitDetail `json:"commit,omitempty"`
}

// FindingDetail is the `finding` block of a report record.
type FindingDetail struct {
	Fingerprint string           `json:"fingerprint"`
	Language    string           `json:"language,omitempty"`
	Confidence  string           `json:"confidence"`
	Entropy     float64          `json:"entropy"`
	Validation  ValidationDetail `json:"validation"`
	Match       MatchDetail      `json:"match"`
	Origin      OriginDetail     `json:"origin"`
	Visible     bool             `json:"visible"`
}

// Record is one report row. BuildRecords emits one Record per (Finding, occurrence)
// pair, since each occurrence has its own match location and origin
// even when several occurrences share a fingerprint.
type Record struct {
	Rule    RuleSummary   `json:"rule"`
	Finding FindingDetail `json:"finding"`
}

// BuildRecords flattens a set of Findings into report Records, one per
// occurrence. redact, when true, blanks the matched snippet text (the
// `--redact` flag's effect), leaving location and validation
// information intact.
func BuildRecords(findings []*types.Finding, redact bool) []Record {
	var records []Record
	for _, f := range findings {
		for _, occ := range f.Occurrences {
			records = append(records, buildRecord(f, occ, redact))
		}
	}
	return records
}

func buildRecord(f *types.Finding, occ types.FindingOccurrence, redact bool) Record {
	m := occ.Match

	validation := ValidationDetail{Status: types.StatusUndetermined.ReportStatus()}
	if m.ValidationResult != nil {
		validation = ValidationDetail{
			Status:         m.ValidationResult.Status.ReportStatus(),
			Body:           m.ValidationResult.ResponseBody,
			ResponseStatus: m.ValidationResult.ResponseStatus,
		}
	}

	snippet := string(m.Snippet.Matching)
	before := string(m.Snippet.Before)
	after := string(m.Snippet.After)
	if redact {
		snippet = redactText(snippet)
		before = redactText(before)
		after = redactText(after)
	}

	var origin OriginDetail
	if o := occ.Origins.First(); o != nil {
		origin = OriginDetail{Kind: o.Kind(), Path: o.Path()}
		if g, ok := o.(types.GitOrigin); ok && g.Commit != nil {
			origin.Commit = &CommitDetail{
				ID:        g.Commit.CommitID,
				Author:    g.Commit.AuthorName,
				Committer: g.Commit.CommitterName,
				Message:   g.Commit.Message,
			}
		}
	}

	var language string
	if occ.Metadata != nil {
		language = occ.Metadata.Language
	}

	return Record{
		Rule: RuleSummary{ID: f.RuleID, Name: f.RuleName},
		Finding: FindingDetail{
			Fingerprint: f.RuleFindingFingerprint,
			Language:    language,
			Confidence:  m.Confidence.String(),
			Entropy:     m.Entropy,
			Validation:  validation,
			Match: MatchDetail{
				Snippet:     snippet,
				Before:      before,
				After:       after,
				StartLine:   m.Location.Source.Start.Line,
				StartColumn: m.Location.Source.Start.Column,
				EndLine:     m.Location.Source.End.Line,
				EndColumn:   m.Location.Source.End.Column,
				StartByte:   m.Location.Offset.Start,
				EndByte:     m.Location.Offset.End,
			},
			Origin:  origin,
			Visible: m.Visible,
		},
	}
}

// redactText replaces every character with a placeholder, preserving
// length so a reviewer can still gauge the secret's shape without
// seeing it.
func redactText(s string) string {
	if s == "" {
		return s
	}
	out := make([]byte, len(s))
	for i := range out {
		out[i] = '*'
	}
	return string(out)
}
