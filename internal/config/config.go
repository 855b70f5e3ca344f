// Package config assembles the flat set of `scan` CLI flags into the
// typed config structs the rest of the module consumes:
// orchestrator.Config, orchestrator.Limits, postfilter.Config, and the
// source adapters' source.Limits. One assembly point keeps
// cmd/kingfisher thin and lets the split be tested without a cobra
// command in the loop.
package config

import (
	"fmt"

	"github.com/kingfisher-scan/kingfisher/internal/clonecache"
	"github.com/kingfisher-scan/kingfisher/internal/orchestrator"
	"github.com/kingfisher-scan/kingfisher/internal/postfilter"
	"github.com/kingfisher-scan/kingfisher/internal/source"
	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// ScanConfig is every flag the `scan` command accepts, before being
// split apart into the narrower configs each package wants.
type ScanConfig struct {
	RuleSpecifiers    []string // --rule (repeatable), defaults to "all"
	RulesPath         string   // --rules-path
	Path              string   // --path
	GitURL            string   // --git-url
	MinConfidence     string   // --confidence {low,medium,high}
	MinEntropy        float64  // --min-entropy
	NoValidate        bool     // --no-validate
	OnlyValid         bool     // --only-valid
	NoBinary          bool     // --no-binary
	MaxFileSizeMB     int64    // --max-file-size-mb
	ExtractionDepth   int      // --extraction-depth
	NoExtractArchives bool     // --no-extract-archives
	Exclude           []string // --exclude
	Format            string   // --format {pretty,json,jsonl,sarif}
	Output            string   // --output
	BaselineFile      string   // --baseline-file
	ManageBaseline    bool     // --manage-baseline
	NoDedup           bool     // --no-dedup
	NumJobs           int      // --num-jobs
	GitClone          string   // --git-clone {bare,mirror}
	GitHistory        string   // --git-history {full,none}
	GitRepoTimeout    int      // --git-repo-timeout, seconds
	Redact            bool     // --redact
	Datastore         string   // --datastore, sqlite file to persist findings into
	ContextLines      int
}

// DefaultScanConfig returns the `scan` command's permissive defaults:
// accept every confidence, validate by default, extract nested
// archives two levels deep.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		RuleSpecifiers:  []string{"all"},
		MinConfidence:   "low",
		MaxFileSizeMB:   10,
		ExtractionDepth: 2,
		Format:          "pretty",
		NumJobs:         4,
		GitClone:        string(clonecache.CloneBare),
		GitHistory:      "full",
		GitRepoTimeout:  300,
		ContextLines:    3,
	}
}

// OrchestratorConfig builds the orchestrator.Config half of the split.
func (c ScanConfig) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Limits: orchestrator.Limits{
			MaxFileSize: c.MaxFileSizeMB * 1024 * 1024,
			NoBinary:    c.NoBinary,
		},
		Dedup:                    !c.NoDedup,
		NoValidate:               c.NoValidate,
		OnlyValid:                c.OnlyValid,
		NumJobs:                  c.NumJobs,
		MaxConcurrentValidations: 16,
		ContextLines:             c.ContextLines,
	}
}

// PostFilterConfig builds the postfilter.Config half, resolving the
// confidence-floor string flag into the typed enum.
func (c ScanConfig) PostFilterConfig() (postfilter.Config, error) {
	pf := postfilter.DefaultConfig()
	if c.MinConfidence != "" {
		conf, err := types.ParseConfidence(c.MinConfidence)
		if err != nil {
			return postfilter.Config{}, &types.ConfigError{Reason: fmt.Sprintf("--confidence: %v", err)}
		}
		pf.MinConfidence = conf
	}
	if c.MinEntropy > 0 {
		floor := c.MinEntropy
		pf.GlobalMinEntropy = &floor
	}
	pf.IgnoreMarkers = []string{"kingfisher:ignore"}
	return pf, nil
}

// SourceLimits builds the source.Limits every adapter shares.
func (c ScanConfig) SourceLimits() source.Limits {
	extract := "all"
	if c.NoExtractArchives {
		extract = ""
	}
	return source.Limits{
		MaxFileSize:     c.MaxFileSizeMB * 1024 * 1024,
		ExcludeGlobs:    c.Exclude,
		ExtractArchives: extract,
		ExtractionDepth: c.ExtractionDepth,
	}
}

// Validate rejects CLI input that can't possibly produce a valid scan
// before any adapter or worker pool is started; a ConfigError here is
// fatal, nothing has run yet.
func (c ScanConfig) Validate() error {
	if c.Path == "" && c.GitURL == "" {
		return &types.ConfigError{Reason: "one of --path or --git-url is required"}
	}
	switch c.Format {
	case "pretty", "json", "jsonl", "sarif":
	default:
		return &types.ConfigError{Reason: fmt.Sprintf("unknown --format %q", c.Format)}
	}
	switch c.GitHistory {
	case "full", "none", "":
	default:
		return &types.ConfigError{Reason: fmt.Sprintf("unknown --git-history %q", c.GitHistory)}
	}
	switch c.GitClone {
	case string(clonecache.CloneBare), string(clonecache.CloneMirror), "":
	default:
		return &types.ConfigError{Reason: fmt.Sprintf("unknown --git-clone %q", c.GitClone)}
	}
	if c.MaxFileSizeMB <= 0 {
		return &types.ConfigError{Reason: "--max-file-size-mb must be positive"}
	}
	if c.NumJobs <= 0 {
		return &types.ConfigError{Reason: "--num-jobs must be positive"}
	}
	return nil
}
