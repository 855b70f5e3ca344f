package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingfisher-scan/kingfisher/internal/blobstore"
	"github.com/kingfisher-scan/kingfisher/internal/clonecache"
	"github.com/kingfisher-scan/kingfisher/internal/config"
	"github.com/kingfisher-scan/kingfisher/internal/findingsstore"
	"github.com/kingfisher-scan/kingfisher/internal/logging"
	"github.com/kingfisher-scan/kingfisher/internal/orchestrator"
	"github.com/kingfisher-scan/kingfisher/internal/report"
	"github.com/kingfisher-scan/kingfisher/internal/rule"
	"github.com/kingfisher-scan/kingfisher/internal/source"
	"github.com/kingfisher-scan/kingfisher/internal/types"
)

var scanCfg = config.DefaultScanConfig()

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a path or git repository for secrets",
	Long: `Scan enumerates content from a local path or a remote git repository,
runs it through the rule catalogue's two-tier matcher, applies post-filters
and optional live validation, and reports deduplicated findings.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanCfg.RuleSpecifiers, "rule", scanCfg.RuleSpecifiers, "rule id or glob to enable (repeatable); \"all\" enables every loaded rule")
	scanCmd.Flags().StringVar(&scanCfg.RulesPath, "rules-path", "", "path to a custom rules file or directory, merged with the builtin catalogue")
	scanCmd.Flags().StringVar(&scanCfg.Path, "path", "", "local path to scan")
	scanCmd.Flags().StringVar(&scanCfg.GitURL, "git-url", "", "git repository URL (or local path) to clone and scan")
	scanCmd.Flags().StringVar(&scanCfg.MinConfidence, "confidence", scanCfg.MinConfidence, "minimum rule confidence: low, medium, high")
	scanCmd.Flags().Float64Var(&scanCfg.MinEntropy, "min-entropy", scanCfg.MinEntropy, "global minimum Shannon entropy (bits) for rules without their own floor")
	scanCmd.Flags().BoolVar(&scanCfg.NoValidate, "no-validate", false, "skip live validation of matches")
	scanCmd.Flags().BoolVar(&scanCfg.OnlyValid, "only-valid", false, "report only matches validated as active")
	scanCmd.Flags().BoolVar(&scanCfg.NoBinary, "no-binary", false, "skip binary content")
	scanCmd.Flags().Int64Var(&scanCfg.MaxFileSizeMB, "max-file-size-mb", scanCfg.MaxFileSizeMB, "skip blobs larger than this many megabytes")
	scanCmd.Flags().IntVar(&scanCfg.ExtractionDepth, "extraction-depth", scanCfg.ExtractionDepth, "maximum nested-archive depth to extract")
	scanCmd.Flags().BoolVar(&scanCfg.NoExtractArchives, "no-extract-archives", false, "disable archive member extraction")
	scanCmd.Flags().StringSliceVar(&scanCfg.Exclude, "exclude", nil, "glob pattern to exclude (repeatable)")
	scanCmd.Flags().StringVar(&scanCfg.Format, "format", scanCfg.Format, "report format: pretty, json, jsonl, sarif")
	scanCmd.Flags().StringVar(&scanCfg.Output, "output", "", "write the report to this file instead of stdout")
	scanCmd.Flags().StringVar(&scanCfg.BaselineFile, "baseline-file", "", "baseline file of previously-accepted findings to suppress")
	scanCmd.Flags().BoolVar(&scanCfg.ManageBaseline, "manage-baseline", false, "write the post-scan fingerprint set back to --baseline-file")
	scanCmd.Flags().BoolVar(&scanCfg.NoDedup, "no-dedup", false, "disable content-hash blob dedup and finding dedup")
	scanCmd.Flags().IntVar(&scanCfg.NumJobs, "num-jobs", scanCfg.NumJobs, "number of CPU worker goroutines")
	scanCmd.Flags().StringVar(&scanCfg.GitClone, "git-clone", scanCfg.GitClone, "clone mode for --git-url: bare, mirror")
	scanCmd.Flags().StringVar(&scanCfg.GitHistory, "git-history", scanCfg.GitHistory, "git history mode: full, none")
	scanCmd.Flags().IntVar(&scanCfg.GitRepoTimeout, "git-repo-timeout", scanCfg.GitRepoTimeout, "timeout in seconds for a single repo clone/fetch")
	scanCmd.Flags().BoolVar(&scanCfg.Redact, "redact", false, "replace matched secret text with asterisks in the report")
	scanCmd.Flags().StringVar(&scanCfg.Datastore, "datastore", "", "sqlite file to persist findings into after the scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := scanCfg.Validate(); err != nil {
		return err
	}

	level := logging.LevelWarn
	if verbose {
		level = logging.LevelDebug
	}
	if quiet {
		level = logging.LevelQuiet
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	rules, err := loadRules(scanCfg)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	db, compileErrs, err := rule.Compile(rules)
	for _, cerr := range compileErrs {
		logger.Warn("%v", cerr)
	}
	if err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}
	logger.Debug("compiled %d rules (%d failed)", len(db.Rules), len(compileErrs))

	pfConfig, err := scanCfg.PostFilterConfig()
	if err != nil {
		return err
	}

	store := findingsstore.New()
	if scanCfg.BaselineFile != "" {
		baseline, err := findingsstore.LoadBaselineFile(scanCfg.BaselineFile)
		if err != nil {
			logger.Warn("loading baseline: %v", err)
		} else {
			store.LoadBaseline(baseline)
		}
	}

	blobs := blobstore.New()
	scanner, err := orchestrator.NewScanner(db, pfConfig, store, blobs, scanCfg.OrchestratorConfig())
	if err != nil {
		return fmt.Errorf("building scanner: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	adapters, err := buildAdapters(ctx, scanCfg, store, logger)
	if err != nil {
		return fmt.Errorf("preparing sources: %w", err)
	}

	start := time.Now()
	runErr := scanner.Run(ctx, adapters)
	elapsed := time.Since(start)
	if runErr != nil {
		return fmt.Errorf("scan failed: %w", runErr)
	}

	if scanCfg.ManageBaseline && scanCfg.BaselineFile != "" {
		if err := store.SaveBaselineFile(scanCfg.BaselineFile); err != nil {
			logger.Warn("saving baseline: %v", err)
		}
	}

	if scanCfg.Datastore != "" {
		if err := persistDatastore(scanCfg.Datastore, store); err != nil {
			logger.Warn("persisting datastore: %v", err)
		}
	}

	if err := writeReport(cmd, scanCfg, store); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	snap := scanner.Counters.Snapshot()
	printSummary(cmd.ErrOrStderr(), snap, scanner.RuleCounts.Counts(), elapsed)

	total, validatedActive := orchestrator.VisibleFindingCounts(store)
	os.Exit(orchestrator.DetermineExitCode(total, validatedActive))
	return nil
}

// loadRules merges the builtin catalogue with an optional user-supplied
// rules path, then applies the --rule include specifiers and the
// --confidence floor.
func loadRules(c config.ScanConfig) ([]*types.Rule, error) {
	loader := rule.NewLoader()

	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		return nil, err
	}

	if c.RulesPath != "" {
		extra, err := loadRuleSet(c.RulesPath)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*types.Rule, len(rules))
		for _, r := range rules {
			byID[r.ID] = r
		}
		for _, r := range extra {
			byID[r.ID] = r // user rules override a builtin rule with the same id
		}
		rules = rules[:0]
		for _, r := range byID {
			rules = append(rules, r)
		}
	}

	filterCfg := rule.FilterConfig{HasMinConfidence: true}
	if conf, err := types.ParseConfidence(c.MinConfidence); err == nil {
		filterCfg.MinConfidence = conf
	}
	if !specifiesAll(c.RuleSpecifiers) {
		filterCfg.Include = c.RuleSpecifiers
	}
	return rule.Filter(rules, filterCfg)
}

func specifiesAll(specifiers []string) bool {
	if len(specifiers) == 0 {
		return true
	}
	for _, s := range specifiers {
		if s == "all" {
			return true
		}
	}
	return false
}

// buildAdapters resolves --path / --git-url into the concrete
// source.Adapter set a Scanner.Run call fans out across, cloning a
// remote --git-url into the shared clone cache first.
func buildAdapters(ctx context.Context, c config.ScanConfig, store *findingsstore.Store, logger *logging.Logger) ([]source.Adapter, error) {
	limits := c.SourceLimits()
	var adapters []source.Adapter

	if c.Path != "" {
		timeout := time.Duration(c.GitRepoTimeout) * time.Second
		if c.GitHistory != "none" && isGitRepo(c.Path) {
			adapters = append(adapters, source.NewGitAdapter(c.Path, limits, timeout))
		} else {
			adapters = append(adapters, source.NewFilesystemAdapter(c.Path, limits))
		}
	}

	if c.GitURL != "" {
		cacheRoot, err := defaultClonecacheRoot()
		if err != nil {
			return nil, err
		}
		cache := clonecache.New(cacheRoot, clonecache.CloneMode(c.GitClone), time.Duration(c.GitRepoTimeout)*time.Second)
		localRoot, err := cache.GetOrClone(ctx, c.GitURL)
		if err != nil {
			return nil, &types.SourceFetchError{Target: c.GitURL, Err: err}
		}
		store.CloneDestination(c.GitURL, localRoot)
		logger.Debug("git source %s resolved to %s", c.GitURL, localRoot)

		if c.GitHistory == "none" {
			adapters = append(adapters, source.NewFilesystemAdapter(localRoot, limits))
		} else {
			adapters = append(adapters, source.NewGitAdapter(localRoot, limits, time.Duration(c.GitRepoTimeout)*time.Second))
		}
	}

	return adapters, nil
}

// isGitRepo reports whether --path points at a working tree with a
// .git directory; such paths are scanned through the git history
// adapter by default rather than the plain filesystem walk.
func isGitRepo(path string) bool {
	info, err := os.Stat(path + "/.git")
	return err == nil && info.IsDir()
}

func defaultClonecacheRoot() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return cacheDir + "/kingfisher/clones", nil
}

// writeReport builds the report.Record stream from the store and
// writes it in the requested format to --output or stdout.
func writeReport(cmd *cobra.Command, c config.ScanConfig, store *findingsstore.Store) error {
	out := cmd.OutOrStdout()
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return &types.StorePersistError{Path: c.Output, Err: err}
		}
		defer f.Close()
		out = f
	}

	findings := store.GetFindings()
	records := visibleRecords(report.BuildRecords(findings, c.Redact))

	switch c.Format {
	case "json":
		return report.WriteJSON(out, records)
	case "jsonl":
		return report.WriteJSONL(out, records)
	case "sarif":
		rules := collectRuleSummaries(findings)
		sarifReport := report.BuildSARIF(rules, records)
		data, err := sarifReport.ToJSON()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "pretty":
		return printPretty(out, records)
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
}

// collectRuleSummaries recovers a minimal *types.Rule per distinct
// rule id seen in findings, enough for SARIF's rule catalogue section;
// the report package only needs ID/Name/Pattern out of it.
func collectRuleSummaries(findings []*types.Finding) []*types.Rule {
	seen := make(map[string]bool)
	var rules []*types.Rule
	for _, f := range findings {
		if seen[f.RuleID] {
			continue
		}
		seen[f.RuleID] = true
		rules = append(rules, &types.Rule{ID: f.RuleID, Name: f.RuleName})
	}
	return rules
}

// visibleRecords drops baseline-suppressed and otherwise-hidden rows
// from the report stream; suppressed findings stay in the store and in
// the counters, they just don't reach the output.
func visibleRecords(records []report.Record) []report.Record {
	out := make([]report.Record, 0, len(records))
	for _, r := range records {
		if r.Finding.Visible {
			out = append(out, r)
		}
	}
	return out
}

func printPretty(out io.Writer, records []report.Record) error {
	for _, r := range records {
		fmt.Fprintf(out, "%s  %s  %s:%d\n", r.Rule.ID, r.Finding.Validation.Status, r.Finding.Origin.Path, r.Finding.Match.StartLine)
		fmt.Fprintf(out, "  %s\n\n", r.Finding.Match.Snippet)
	}
	return nil
}

// persistDatastore mirrors the in-memory store into a sqlite file so a
// later invocation (or a downstream query tool) can reopen the scan's
// results without rerunning it.
func persistDatastore(path string, store *findingsstore.Store) error {
	backend, err := findingsstore.OpenSQLiteBackend(path)
	if err != nil {
		return err
	}
	defer backend.Close()
	return backend.Persist(store)
}

func printSummary(w io.Writer, snap orchestrator.Snapshot, ruleCounts []orchestrator.RuleCount, elapsed time.Duration) {
	fmt.Fprintf(w, "scanned %d blobs (%d duplicate, %d rejected) in %s: %d matches, %d findings\n",
		snap.BlobsObserved, snap.BlobsSkippedDup, snap.BlobsRejected, elapsed.Round(time.Millisecond),
		snap.MatchesFound, snap.FindingsNew)
	for _, rc := range ruleCounts {
		fmt.Fprintf(w, "  %s: %d\n", rc.RuleID, rc.Count)
	}
	if snap.SourceErrors > 0 || snap.BlobReadErrors > 0 || snap.ValidationErrors > 0 {
		fmt.Fprintf(w, "%d source errors, %d blob read errors, %d validation errors\n",
			snap.SourceErrors, snap.BlobReadErrors, snap.ValidationErrors)
	}
}

func statPath(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
