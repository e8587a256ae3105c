// Package output formats one-shot analysis reports for the CLI.
package output

import (
	"errors"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/artifact"
	"github.com/julianshen/unityctx/internal/pipeline"
)

// Report is the printable outcome of one CLI analysis.
type Report struct {
	RunID      string           `json:"run_id,omitempty"`
	Kind       string           `json:"kind"`
	Target     string           `json:"target"`
	Context    string           `json:"context,omitempty"`
	Analysis   *artifact.Bundle `json:"analysis,omitempty"`
	Stdout     string           `json:"stdout,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Error      *ErrorInfo       `json:"error,omitempty"`
}

// ErrorInfo describes a failed analysis.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromResult builds a Report for a successful run.
func FromResult(res *pipeline.Result) *Report {
	return &Report{
		RunID:      res.RunID,
		Kind:       string(res.Kind),
		Target:     res.Target,
		Context:    res.Context,
		Analysis:   res.Bundle,
		Stdout:     res.Stdout,
		DurationMs: res.Duration.Milliseconds(),
	}
}

// FromError builds a Report for a failed request.
func FromError(req analysis.Request, err error) *Report {
	r := &Report{Error: &ErrorInfo{Kind: string(analysis.KindOf(err)), Message: err.Error()}}
	if req != nil {
		r.Kind = string(req.Kind())
		r.Target = req.Target()
	}
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		r.Error.Message = aerr.Msg
		r.Error.Detail = aerr.Detail
		r.Stdout = aerr.Stdout
	}
	return r
}

// Failed reports whether the report carries an error.
func (r *Report) Failed() bool { return r.Error != nil }

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(r *Report) ([]byte, error)
}

// ForName returns the formatter for an --output value. Unknown names
// return an error.
func ForName(name string) (Formatter, error) {
	switch name {
	case "", "markdown":
		return NewMarkdownFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, analysis.Errorf(analysis.InvalidRequest, "unknown output format %q (want markdown or json)", name)
	}
}
