package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kingfisher-scan/kingfisher/internal/blobstore"
	"github.com/kingfisher-scan/kingfisher/internal/findingsstore"
	"github.com/kingfisher-scan/kingfisher/internal/matcher"
	"github.com/kingfisher-scan/kingfisher/internal/postfilter"
	"github.com/kingfisher-scan/kingfisher/internal/source"
	"github.com/kingfisher-scan/kingfisher/internal/types"
	"github.com/kingfisher-scan/kingfisher/internal/validator"
)

// channelCapacity bounds the producer/consumer queue between the I/O
// pool (adapters) and the CPU pool (blob processing). This is the
// scan's backpressure mechanism: a burst of blobs from a fast adapter
// blocks on Send rather than growing memory without limit.
const channelCapacity = 256

// sourceItem is one blob handed from an adapter to a CPU worker.
type sourceItem struct {
	content []byte
	blobID  types.BlobID
	origin  types.Origin
}

// Config holds everything a Scanner needs beyond the adapters
// themselves: compiled rules, size/binary limits, dedup/validation
// toggles and the worker-pool width.
type Config struct {
	Limits                   Limits
	Dedup                    bool
	NoValidate               bool
	OnlyValid                bool
	NumJobs                  int
	MaxConcurrentValidations int
	ContextLines             int
}

// Scanner owns the full pipeline for one scan: an I/O pool fanning
// adapters into a bounded channel, and a CPU pool of NumJobs workers
// draining it through the blob processor, validator and findings
// store.
type Scanner struct {
	processor  *blobProcessor
	blobs      *blobstore.BlobStore
	store      *findingsstore.Store
	validator  *validator.Engine
	cfg        Config
	Counters   *Counters
	RuleCounts *RuleTally
}

// NewScanner compiles the matcher and post-filter pipeline from rules
// and builds a ready-to-run Scanner. store and blobs may be shared
// across multiple Scanner.Run calls (e.g. incremental scans); a fresh
// instance is equally valid for a single one-shot scan.
func NewScanner(rules *types.RulesDatabase, pfConfig postfilter.Config, store *findingsstore.Store, blobs *blobstore.BlobStore, cfg Config) (*Scanner, error) {
	m, err := matcher.New(rules, cfg.ContextLines)
	if err != nil {
		return nil, err
	}
	pf, err := postfilter.New(pfConfig)
	if err != nil {
		return nil, err
	}

	var engine *validator.Engine
	if !cfg.NoValidate {
		engine = validator.NewEngine(rules, cfg.MaxConcurrentValidations)
	}

	if cfg.NumJobs <= 0 {
		cfg.NumJobs = 4
	}

	return &Scanner{
		processor:  newBlobProcessor(m, pf, rules, cfg.Limits),
		blobs:      blobs,
		store:      store,
		validator:  engine,
		cfg:        cfg,
		Counters:   &Counters{},
		RuleCounts: NewRuleTally(blobs.Interner()),
	}, nil
}

// Run drives every adapter concurrently (the I/O pool), feeding a
// bounded channel that cfg.NumJobs CPU workers drain. It blocks until
// every adapter has finished, every in-flight blob has been processed,
// and returns the first fatal error encountered (adapter or worker),
// if any. Cancelling ctx stops adapters from issuing new work and lets
// in-flight blobs finish; no partial Match is ever recorded.
func (s *Scanner) Run(ctx context.Context, adapters []source.Adapter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan sourceItem, channelCapacity)

	ioGroup, ioCtx := errgroup.WithContext(ctx)
	for _, adapter := range adapters {
		adapter := adapter
		ioGroup.Go(func() error {
			err := adapter.Enumerate(ioCtx, func(content []byte, blobID types.BlobID, origin types.Origin) error {
				select {
				case items <- sourceItem{content: content, blobID: blobID, origin: origin}:
					return nil
				case <-ioCtx.Done():
					return ioCtx.Err()
				}
			})
			if err != nil {
				s.Counters.SourceErrors.Add(1)
			}
			return err
		})
	}

	cpuGroup, cpuCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.NumJobs; i++ {
		cpuGroup.Go(func() error {
			return s.worker(cpuCtx, items)
		})
	}

	ioErr := ioGroup.Wait()
	close(items)
	cpuErr := cpuGroup.Wait()

	if ioErr != nil {
		return ioErr
	}
	return cpuErr
}

// worker drains items until the channel closes or ctx is cancelled,
// running each blob through the full per-blob pipeline.
func (s *Scanner) worker(ctx context.Context, items <-chan sourceItem) error {
	for {
		select {
		case item, ok := <-items:
			if !ok {
				return nil
			}
			if err := s.processOne(ctx, item); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processOne runs the dedup gate and then delegates to the blob
// processor, validator and findings store.
func (s *Scanner) processOne(ctx context.Context, item sourceItem) error {
	s.Counters.BlobsObserved.Add(1)

	outcome := s.blobs.Observe(item.blobID, nil)
	if outcome == types.Seen && s.cfg.Dedup {
		s.Counters.BlobsSkippedDup.Add(1)
		return nil
	}

	result := s.processor.process(item.content, item.origin)
	if result == nil {
		s.Counters.BlobsRejected.Add(1)
		return nil
	}
	if len(result.Matches) == 0 {
		return nil
	}

	s.Counters.MatchesFound.Add(int64(len(result.Matches)))

	batch := make([]findingsstore.RecordBatchItem, 0, len(result.Matches))
	for _, match := range result.Matches {
		if s.validator != nil {
			vr, err := s.validator.ValidateMatch(ctx, match)
			if err != nil {
				return err // context cancellation only; ordinary failures degrade to Undetermined inside ValidateMatch
			}
			match.ValidationResult = vr
		}

		if s.cfg.OnlyValid && (match.ValidationResult == nil || match.ValidationResult.Status != types.StatusValid) {
			s.Counters.MatchesFiltered.Add(1)
			continue
		}

		s.RuleCounts.Add(match.RuleID, 1)
		batch = append(batch, findingsstore.RecordBatchItem{
			Origins:  result.Origins,
			Metadata: result.Metadata,
			Match:    match,
		})
	}

	if len(batch) == 0 {
		return nil
	}

	newCount := s.store.Record(batch, s.cfg.Dedup)
	s.Counters.FindingsNew.Add(int64(newCount))
	return nil
}

// VisibleFindingCounts walks the store's findings and returns how many
// are visible and how many of those carry an Active validation result,
// the two inputs DetermineExitCode needs.
func VisibleFindingCounts(store *findingsstore.Store) (total int, validatedActive int) {
	for _, f := range store.GetFindings() {
		visible := false
		for _, occ := range f.Occurrences {
			if occ.Match.Visible {
				visible = true
				break
			}
		}
		if !visible {
			continue
		}
		total++
		if f.BestValidation != nil && f.BestValidation.Status == types.StatusValid {
			validatedActive++
		}
	}
	return total, validatedActive
}
