package report

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// SARIF 2.1.0 constants.
const (
	sarifSchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersion   = "2.1.0"
	sarifToolName  = "kingfisher"
)

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []SARIFRule `json:"rules,omitempty"`
}

type SARIFRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription SARIFShortDescription  `json:"shortDescription"`
	HelpURI          string                 `json:"helpUri,omitempty"`
}

type SARIFShortDescription struct {
	Text string `json:"text"`
}

type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations"`
}

type SARIFMessage struct {
	Text string `json:"text"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           SARIFRegion           `json:"region"`
}

type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

type SARIFRegion struct {
	StartLine   int         `json:"startLine"`
	StartColumn int         `json:"startColumn"`
	EndLine     int         `json:"endLine"`
	EndColumn   int         `json:"endColumn"`
	Snippet     SARIFSnippet `json:"snippet,omitempty"`
}

type SARIFSnippet struct {
	Text string `json:"text"`
}

// toolVersion is overridable so callers embedding a real version string
// (from a build-time ldflag, say) don't need to touch this file.
var toolVersion = "0.1.0"

// NewSARIFReport creates an empty SARIF document with one Run.
func NewSARIFReport() *SARIFReport {
	return &SARIFReport{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs: []SARIFRun{{
			Tool:    SARIFTool{Driver: SARIFDriver{Name: sarifToolName, Version: toolVersion, Rules: []SARIFRule{}}},
			Results: []SARIFResult{},
		}},
	}
}

// AddRule registers a detection rule in the SARIF driver's rule list.
func (r *SARIFReport) AddRule(rule *types.Rule) {
	sr := SARIFRule{ID: rule.ID, Name: rule.Name, ShortDescription: SARIFShortDescription{Text: rule.Description}}
	if len(rule.References) > 0 {
		sr.HelpURI = rule.References[0]
	}
	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, sr)
}

// AddRecord appends one report Record as a SARIF result.
func (r *SARIFReport) AddRecord(rec Record) {
	region := SARIFRegion{
		StartLine:   rec.Finding.Match.StartLine,
		StartColumn: rec.Finding.Match.StartColumn,
		EndLine:     rec.Finding.Match.EndLine,
		EndColumn:   rec.Finding.Match.EndColumn,
	}
	if rec.Finding.Match.Snippet != "" {
		region.Snippet = SARIFSnippet{Text: rec.Finding.Match.Snippet}
	}

	level := "warning"
	if rec.Finding.Validation.Status == types.StatusValid.ReportStatus() {
		level = "error"
	}

	r.Runs[0].Results = append(r.Runs[0].Results, SARIFResult{
		RuleID:  rec.Rule.ID,
		Level:   level,
		Message: SARIFMessage{Text: rec.Rule.Name},
		Locations: []SARIFLocation{{
			PhysicalLocation: SARIFPhysicalLocation{
				ArtifactLocation: SARIFArtifactLocation{URI: formatFileURI(rec.Finding.Origin.Path)},
				Region:           region,
			},
		}},
	})
}

// ToJSON serializes the report.
func (r *SARIFReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// BuildSARIF assembles a complete SARIF report from rules and records
// in one call, the common case for the CLI's `--format sarif` path.
func BuildSARIF(rules []*types.Rule, records []Record) *SARIFReport {
	report := NewSARIFReport()
	for _, rule := range rules {
		report.AddRule(rule)
	}
	for _, rec := range records {
		if !rec.Finding.Visible {
			continue
		}
		report.AddRecord(rec)
	}
	return report
}

func formatFileURI(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		p := filepath.ToSlash(path)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return "file://" + p
	}
	return filepath.ToSlash(path)
}
