package rule

import "embed"

//go:embed rules rulesets
var builtinRulesFS embed.FS
