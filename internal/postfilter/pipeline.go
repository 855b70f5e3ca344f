package postfilter

import (
	"regexp"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Pipeline is the compiled, read-only post-filter built from a Config.
// One Pipeline is shared across every worker in a scan.
type Pipeline struct {
	cfg          Config
	allowRegexes []*regexp.Regexp
	denyRegexes  []*regexp.Regexp
}

// New compiles a Config's allow/deny pattern lists into a ready-to-use
// Pipeline.
func New(cfg Config) (*Pipeline, error) {
	allow, err := compilePatterns(cfg.AllowPatterns)
	if err != nil {
		return nil, err
	}
	deny, err := compilePatterns(cfg.DenyPatterns)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, allowRegexes: allow, denyRegexes: deny}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply runs the fixed-order post-filter pipeline against a single
// candidate match. content is the full blob the match was found in,
// rule is the rule that produced it. It returns whether the match
// survives, plus any additional matches recovered by recursing into a
// base64-decoded secret (empty unless Base64Recurse is enabled and the
// secret decodes to plausible text).
//
// Order: confidence floor -> ignore directives -> context regex ->
// entropy floor -> allow/deny + AWS account skip list -> base64 recurse.
func (p *Pipeline) Apply(match *types.Match, content []byte, rule *types.Rule, recurseInto rematcher) (keep bool, recovered []*types.Match, err error) {
	if rule.Confidence < p.cfg.MinConfidence {
		return false, nil, nil
	}

	if hasIgnoreMarker(content, int(match.Location.Offset.Start), rule.IgnoreOnLineAbove, p.cfg.IgnoreMarkers) {
		return false, nil, nil
	}

	if rule.ContextRegex != "" {
		ok, cerr := matchesContextRegex(content, int(match.Location.Offset.Start), int(match.Location.Offset.End), rule.ContextRegex)
		if cerr != nil {
			return false, nil, cerr
		}
		if !ok {
			return false, nil, nil
		}
	}

	if floor := effectiveEntropyFloor(rule.MinEntropy, p.cfg.GlobalMinEntropy); floor != nil {
		match.Entropy = ShannonEntropy(match.CanonicalSecret())
		if match.Entropy < *floor {
			return false, nil, nil
		}
	} else {
		match.Entropy = ShannonEntropy(match.CanonicalSecret())
	}

	secret := string(match.CanonicalSecret())
	if !passesAllowDeny(secret, p.allowRegexes, p.denyRegexes) {
		return false, nil, nil
	}
	if isSkippedAWSAccount(secret, p.cfg.AWSAccountSkipList) {
		return false, nil, nil
	}

	if p.cfg.Base64Recurse && recurseInto != nil {
		recovered = recurseBase64(recurseInto, match)
	}

	return true, recovered, nil
}

func effectiveEntropyFloor(ruleFloor, globalFloor *float64) *float64 {
	if ruleFloor != nil {
		return ruleFloor
	}
	return globalFloor
}
