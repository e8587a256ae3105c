// Package invoke turns an analysis request into a concrete analyzer command
// line, environment override and time budget.
package invoke

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/config"
)

// Analyzer command-line flags.
const (
	FlagVerbose   = "--verbose"
	FlagDirectory = "--directory"
	FlagFormat    = "--format"
	FlagOutput    = "--output"
	FormatLLM     = "llm"
)

// Invocation is everything needed to run the analyzer once. It is built
// once per request and never mutated; accessors return copies.
type Invocation struct {
	args    []string
	env     map[string]string
	timeout time.Duration
	workDir string
	source  string

	cleanup func() error
}

// Args returns the full command line; Args()[0] is the analyzer path.
func (inv *Invocation) Args() []string {
	return append([]string(nil), inv.args...)
}

// Env returns the environment overrides, or nil when the ambient
// environment is inherited unchanged.
func (inv *Invocation) Env() map[string]string {
	if inv.env == nil {
		return nil
	}
	out := make(map[string]string, len(inv.env))
	for k, v := range inv.env {
		out[k] = v
	}
	return out
}

// Timeout is the wall-clock budget for the child process.
func (inv *Invocation) Timeout() time.Duration { return inv.timeout }

// WorkDir is where the analyzer is told to write its artifacts.
func (inv *Invocation) WorkDir() string { return inv.workDir }

// SourcePath is the file whose text belongs in the report excerpt. Empty for
// project runs.
func (inv *Invocation) SourcePath() string { return inv.source }

// Close releases resources scoped to the invocation, such as the temporary
// file backing an inline snippet. It is safe to call more than once.
func (inv *Invocation) Close() error {
	if inv == nil || inv.cleanup == nil {
		return nil
	}
	fn := inv.cleanup
	inv.cleanup = nil
	return fn()
}

// Builder builds invocations for the configured analyzer.
type Builder struct {
	analyzerPath   string
	extraArgs      []string
	credentialEnv  string
	fileTimeout    time.Duration
	projectTimeout time.Duration
	tempDir        string
}

// NewBuilder creates a Builder from the analyzer section of the config.
func NewBuilder(cfg config.AnalyzerConfig) (*Builder, error) {
	extra, err := cfg.ExtraArgList()
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("analyzer path is required")
	}
	return &Builder{
		analyzerPath:   cfg.Path,
		extraArgs:      extra,
		credentialEnv:  cfg.CredentialEnv,
		fileTimeout:    cfg.FileTimeout,
		projectTimeout: cfg.ProjectTimeout,
	}, nil
}

// SetTempDir changes where inline snippets are written. Empty means the
// system default.
func (b *Builder) SetTempDir(dir string) { b.tempDir = dir }

// AnalyzerPath returns the configured executable.
func (b *Builder) AnalyzerPath() string { return b.analyzerPath }

// FileTimeout is the budget for single-file and snippet runs.
func (b *Builder) FileTimeout() time.Duration { return b.fileTimeout }

// ProjectTimeout is the budget for project runs.
func (b *Builder) ProjectTimeout() time.Duration { return b.projectTimeout }

// Build validates req and produces its invocation. workDir is the run's
// private artifact directory.
func (b *Builder) Build(req analysis.Request, workDir string) (*Invocation, error) {
	if err := analysis.Validate(req); err != nil {
		return nil, err
	}
	switch r := req.(type) {
	case analysis.SingleFile:
		if err := requireFile(r.Path); err != nil {
			return nil, err
		}
		return b.fileInvocation(r.Path, r.Mode, workDir), nil
	case analysis.Project:
		return b.projectInvocation(r, workDir)
	case analysis.InlineSnippet:
		return b.snippetInvocation(r, workDir)
	default:
		return nil, analysis.Errorf(analysis.InvalidRequest, "unsupported request type %T", req)
	}
}

func (b *Builder) fileInvocation(path string, mode analysis.Mode, workDir string) *Invocation {
	args := []string{b.analyzerPath, path, FlagVerbose}
	if mode == analysis.ModeLLMOptimized {
		args = append(args, FlagFormat, FormatLLM)
	}
	args = append(args, FlagOutput, workDir)
	args = append(args, b.extraArgs...)
	return &Invocation{
		args:    args,
		timeout: b.fileTimeout,
		workDir: workDir,
		source:  path,
	}
}

func (b *Builder) projectInvocation(r analysis.Project, workDir string) (*Invocation, error) {
	if err := requireDir(r.Dir); err != nil {
		return nil, err
	}
	args := []string{b.analyzerPath, FlagDirectory, r.Dir, FlagVerbose, FlagOutput, workDir}
	args = append(args, b.extraArgs...)

	inv := &Invocation{
		args:    args,
		timeout: b.projectTimeout,
		workDir: workDir,
	}
	if !r.IncludeExternalAnalysis && b.credentialEnv != "" {
		inv.env = map[string]string{b.credentialEnv: ""}
	}
	return inv, nil
}

func (b *Builder) snippetInvocation(r analysis.InlineSnippet, workDir string) (*Invocation, error) {
	path, err := writeSnippet(b.tempDir, r)
	if err != nil {
		return nil, analysis.Wrap(analysis.Internal, err, "persist snippet")
	}
	inv := b.fileInvocation(path, analysis.ModeDetailed, workDir)
	inv.cleanup = func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return inv, nil
}

// SnippetExt picks the temp-file extension for a snippet from its filename.
func SnippetExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		return filepath.Ext(analysis.DefaultSnippetFilename)
	}
	return ext
}

func writeSnippet(dir string, r analysis.InlineSnippet) (string, error) {
	f, err := os.CreateTemp(dir, "unityctx-snippet-*"+SnippetExt(r.Target()))
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(r.Code); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return analysis.Errorf(analysis.PathNotFound, "file not found: %s", path)
		}
		return analysis.Wrap(analysis.InvalidRequest, err, "stat %s", path)
	}
	if info.IsDir() {
		return analysis.Errorf(analysis.InvalidRequest, "%s is a directory; use directory_path", path)
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return analysis.Errorf(analysis.PathNotFound, "directory not found: %s", path)
		}
		return analysis.Wrap(analysis.InvalidRequest, err, "stat %s", path)
	}
	if !info.IsDir() {
		return analysis.Errorf(analysis.InvalidRequest, "%s is not a directory", path)
	}
	return nil
}
