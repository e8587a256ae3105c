package runner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"invalid request", analysis.Errorf(analysis.InvalidRequest, "bad"), ExitUsage},
		{"path not found", analysis.Errorf(analysis.PathNotFound, "gone"), ExitUsage},
		{"timed out", analysis.Errorf(analysis.TimedOut, "slow"), ExitTimedOut},
		{"launch failed", analysis.Errorf(analysis.LaunchFailed, "missing"), ExitUnavailable},
		{"analyzer exit", analysis.Errorf(analysis.AnalyzerExit, "boom"), ExitFailure},
		{"wrapped", fmt.Errorf("cli: %w", analysis.Errorf(analysis.TimedOut, "slow")), ExitTimedOut},
		{"plain error", errors.New("other"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 1}
	assert.Equal(t, "exit code 1", err.Error())

	// Verify errors.As works for type matching.
	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}
