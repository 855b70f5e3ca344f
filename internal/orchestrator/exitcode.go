package orchestrator

// Exit codes per spec: 0 when nothing visible was found, 200 when
// findings exist but none validated active, 205 when at least one did.
// Fatal errors use a non-zero code distinct from both (the caller's
// responsibility; this function only ever returns one of these three).
const (
	ExitNoFindings       = 0
	ExitFindingsNoActive = 200
	ExitFindingsActive   = 205
)

// DetermineExitCode maps a scan's result counts onto the exit-code
// vocabulary. total is the number of *visible* findings (baseline
// suppression already applied); validatedActive is how many of those
// carry a StatusValid validation result.
func DetermineExitCode(total, validatedActive int) int {
	if total == 0 {
		return ExitNoFindings
	}
	if validatedActive > 0 {
		return ExitFindingsActive
	}
	return ExitFindingsNoActive
}
