package runner

import (
	"fmt"

	"github.com/julianshen/unityctx/internal/analysis"
)

// Process exit codes used by the one-shot CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitTimedOut    = 3
	ExitUnavailable = 4
)

// ExitError is returned when the CLI should exit with a non-zero code.
// Using a typed error instead of os.Exit ensures deferred cleanup runs.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCodeFor maps a pipeline error to a CLI exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	switch analysis.KindOf(err) {
	case analysis.InvalidRequest, analysis.PathNotFound:
		return ExitUsage
	case analysis.TimedOut:
		return ExitTimedOut
	case analysis.LaunchFailed:
		return ExitUnavailable
	default:
		return ExitFailure
	}
}
