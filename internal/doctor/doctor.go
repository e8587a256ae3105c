// Package doctor checks that the configured analyzer can run.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianshen/unityctx/internal/config"
	"github.com/julianshen/unityctx/internal/runner"
)

// VersionTimeout bounds the analyzer --version probe.
const VersionTimeout = 10 * time.Second

// ProcessRunner executes the analyzer.
type ProcessRunner interface {
	Run(ctx context.Context, spec runner.Spec) (runner.Outcome, error)
}

// Status is the result of one check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one line of the doctor report.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Report collects all checks for one analyzer.
type Report struct {
	Analyzer string  `json:"analyzer"`
	Version  string  `json:"version,omitempty"`
	Checks   []Check `json:"checks"`
}

// OK is true when no check failed. Warnings do not count.
func (r Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

type versionProbe struct{ path string }

func (p versionProbe) Args() []string       { return []string{p.path, "--version"} }
func (versionProbe) Env() map[string]string { return nil }
func (versionProbe) Timeout() time.Duration { return VersionTimeout }

// Run probes the analyzer's version and the credential variable.
func Run(ctx context.Context, cfg config.AnalyzerConfig, r ProcessRunner) (Report, error) {
	rep := Report{Analyzer: cfg.Path}

	outcome, err := r.Run(ctx, versionProbe{path: cfg.Path})
	if err != nil {
		return rep, err
	}
	rep.Checks = append(rep.Checks, versionChecks(&rep, cfg.VersionConstraint, outcome)...)
	rep.Checks = append(rep.Checks, credentialCheck(cfg.CredentialEnv))
	return rep, nil
}

func versionChecks(rep *Report, constraint string, o runner.Outcome) []Check {
	switch o.State {
	case runner.LaunchFailed:
		return []Check{{Name: "analyzer", Status: StatusFail, Detail: "cannot start: " + o.Reason}}
	case runner.TimedOut:
		return []Check{{Name: "analyzer", Status: StatusFail, Detail: "--version " + o.Reason}}
	}
	if o.ExitCode != 0 {
		detail := strings.TrimSpace(o.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", o.ExitCode)
		}
		return []Check{{Name: "analyzer", Status: StatusFail, Detail: "--version failed: " + detail}}
	}

	checks := []Check{{Name: "analyzer", Status: StatusOK, Detail: "runs"}}
	v, err := ParseVersion(o.Stdout + "\n" + o.Stderr)
	if err != nil {
		return append(checks, Check{Name: "version", Status: StatusWarn, Detail: err.Error()})
	}
	rep.Version = v.String()

	ok, err := Satisfies(v, constraint)
	switch {
	case err != nil:
		checks = append(checks, Check{Name: "version", Status: StatusFail, Detail: err.Error()})
	case !ok:
		checks = append(checks, Check{Name: "version", Status: StatusFail,
			Detail: fmt.Sprintf("%s does not satisfy %q", v, constraint)})
	default:
		detail := v.String()
		if constraint != "" {
			detail += fmt.Sprintf(" satisfies %q", constraint)
		}
		checks = append(checks, Check{Name: "version", Status: StatusOK, Detail: detail})
	}
	return checks
}

// credentialCheck warns rather than fails: the analyzer works without
// its AI service.
func credentialCheck(envVar string) Check {
	val, err := config.ResolveCredential(envVar)
	if err != nil {
		return Check{Name: "credential", Status: StatusWarn, Detail: err.Error()}
	}
	return Check{Name: "credential", Status: StatusOK, Detail: fmt.Sprintf("%s=%s", envVar, config.MaskSecret(val))}
}
