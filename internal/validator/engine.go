package validator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// maxValidationTimeout is the hard ceiling on a single probe, regardless
// of what a rule's validation spec might otherwise imply.
const maxValidationTimeout = 10 * time.Second

// Engine coordinates validation across every rule that declares a
// Validation spec, bounding total in-flight probes with a semaphore
// and caching results per distinct secret value. Rules without a
// declarative spec fall through to the provider validators, which
// claim rules by id.
type Engine struct {
	byRuleID  map[string]Validator
	providers []Validator
	cache     *Cache
	sem       chan struct{}
	client    *http.Client
}

// NewEngine builds an Engine from a RulesDatabase: every rule with a
// Validation spec gets its own HTTPValidator, and provider validators
// (AWS STS) cover the rules whose probes cannot be written as an HTTP
// template. maxConcurrent bounds the number of in-flight probes across
// the whole scan.
func NewEngine(db *types.RulesDatabase, maxConcurrent int) *Engine {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	client := &http.Client{Timeout: maxValidationTimeout}
	byRuleID := make(map[string]Validator)
	for _, rule := range db.Rules {
		if rule.Validation != nil {
			byRuleID[rule.ID] = NewHTTPValidator(rule.ID, rule.Validation, client)
		}
	}

	return &Engine{
		byRuleID:  byRuleID,
		providers: []Validator{NewAWSValidator()},
		cache:     NewCache(),
		sem:       make(chan struct{}, maxConcurrent),
		client:    client,
	}
}

// ValidateMatch validates a single match, blocking until a concurrency
// slot is free or ctx is cancelled. It never returns a non-nil error for
// an ordinary validation failure (those degrade to StatusUndetermined),
// reserving the error return for ctx cancellation.
func (e *Engine) ValidateMatch(ctx context.Context, match *types.Match) (*types.ValidationResult, error) {
	secret := match.CanonicalSecret()
	if len(secret) == 0 {
		return types.NewValidationResult(types.StatusUndetermined, 0, "no secret value found in match"), nil
	}

	if cached := e.cache.Get(secret); cached != nil {
		return cached, nil
	}

	v := e.lookupValidator(match.RuleID)
	if v == nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, "no validator configured for this rule"), nil
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.sem }()

	probeCtx, cancel := context.WithTimeout(ctx, maxValidationTimeout)
	defer cancel()

	result, err := v.Validate(probeCtx, match)
	if err != nil {
		result = types.NewValidationResult(types.StatusUndetermined, 0, fmt.Sprintf("validation error: %v", err))
	}

	e.cache.Set(secret, result)
	return result, nil
}

// lookupValidator resolves the validator for a rule: a declarative
// spec wins, then the provider validators are asked in order.
func (e *Engine) lookupValidator(ruleID string) Validator {
	if v, ok := e.byRuleID[ruleID]; ok {
		return v
	}
	for _, p := range e.providers {
		if p.CanValidate(ruleID) {
			return p
		}
	}
	return nil
}

// HasValidator reports whether ruleID has a registered validator.
func (e *Engine) HasValidator(ruleID string) bool {
	return e.lookupValidator(ruleID) != nil
}
