// Package validator implements the scanner's optional live-validation
// step, classifying a Match as Active, Inactive, or Undetermined.
// Most probes are declarative HTTP requests described entirely in a
// rule's YAML Validation spec; rules whose services need signed or
// non-HTTP auth (AWS STS) are covered by provider validators behind
// the same interface. Validation never aborts a scan: network
// failure, a missing secret group, or an unsupported auth type all
// degrade to Undetermined rather than propagating an error upward.
package validator

import (
	"context"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Validator probes a single Match's secret against its issuing service.
type Validator interface {
	// CanValidate reports whether this validator handles ruleID.
	CanValidate(ruleID string) bool
	// Validate performs the probe. It returns a non-nil result even on
	// failure (StatusUndetermined); the error return is reserved for
	// programmer errors that should never happen in practice.
	Validate(ctx context.Context, match *types.Match) (*types.ValidationResult, error)
}
