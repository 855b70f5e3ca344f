package postfilter

import "regexp"

// awsAccountIDPattern matches a bare 12-digit token, the shape an AWS
// account id takes when it shows up inside a captured secret (e.g. an
// ARN or a role name).
var awsAccountIDPattern = regexp.MustCompile(`\b\d{12}\b`)

// passesAllowDeny applies the allow list (if any rule is configured, the
// secret must match at least one) and the deny list (the secret must
// match none).
func passesAllowDeny(secret string, allow, deny []*regexp.Regexp) bool {
	if len(allow) > 0 && !matchesAny(secret, allow) {
		return false
	}
	if matchesAny(secret, deny) {
		return false
	}
	return true
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// isSkippedAWSAccount reports whether secret contains a 12-digit AWS
// account id present in skipList. A match with no embedded 12-digit run
// is never skipped by this rule.
func isSkippedAWSAccount(secret string, skipList map[string]bool) bool {
	if len(skipList) == 0 {
		return false
	}
	for _, id := range awsAccountIDPattern.FindAllString(secret, -1) {
		if skipList[id] {
			return true
		}
	}
	return false
}
