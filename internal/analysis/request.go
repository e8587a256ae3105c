// Package analysis defines the request, error, and stage types shared by the
// analyzer dispatch pipeline and both of its front-ends.
package analysis

import (
	"fmt"
	"strings"
)

// Kind names a request variant.
type Kind string

const (
	KindFile    Kind = "file"
	KindProject Kind = "project"
	KindSnippet Kind = "snippet"
)

// Mode selects how much the analyzer produces for a single file.
type Mode string

const (
	ModeBasic        Mode = "basic"
	ModeDetailed     Mode = "detailed"
	ModeLLMOptimized Mode = "llm_optimized"
)

// ParseMode validates a mode string. Empty input yields ModeDetailed.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case "", ModeDetailed:
		return ModeDetailed, nil
	case ModeBasic:
		return ModeBasic, nil
	case ModeLLMOptimized:
		return ModeLLMOptimized, nil
	default:
		return "", Errorf(InvalidRequest, "unknown analysis_type %q (want basic, detailed or llm_optimized)", s)
	}
}

// Request is one of SingleFile, Project or InlineSnippet.
type Request interface {
	Kind() Kind
	// Target is the human-facing identity of the request: a file name or a
	// directory path.
	Target() string
	Validate() error
	request()
}

// SingleFile analyzes one source file on disk.
type SingleFile struct {
	Path string
	Mode Mode
}

func (SingleFile) Kind() Kind       { return KindFile }
func (r SingleFile) Target() string { return r.Path }
func (SingleFile) request()         {}

func (r SingleFile) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return Errorf(InvalidRequest, "file_path is required")
	}
	if r.Mode != "" {
		if _, err := ParseMode(string(r.Mode)); err != nil {
			return err
		}
	}
	return nil
}

// Project analyzes every source file under a directory.
type Project struct {
	Dir string
	// IncludeExternalAnalysis lets the analyzer reach its AI service. When
	// false the analyzer's credential variable is cleared for the run.
	IncludeExternalAnalysis bool
}

func (Project) Kind() Kind       { return KindProject }
func (r Project) Target() string { return r.Dir }
func (Project) request()         {}

func (r Project) Validate() error {
	if strings.TrimSpace(r.Dir) == "" {
		return Errorf(InvalidRequest, "directory_path is required")
	}
	return nil
}

// DefaultSnippetFilename is used when an inline snippet arrives without a name.
const DefaultSnippetFilename = "script.cs"

// InlineSnippet analyzes source text that is not on disk yet.
type InlineSnippet struct {
	Code     string
	Filename string
}

func (InlineSnippet) Kind() Kind { return KindSnippet }
func (InlineSnippet) request()   {}

func (r InlineSnippet) Target() string {
	if strings.TrimSpace(r.Filename) == "" {
		return DefaultSnippetFilename
	}
	return r.Filename
}

func (r InlineSnippet) Validate() error {
	if r.Code == "" {
		return Errorf(InvalidRequest, "code is required")
	}
	return nil
}

// Validate rejects nil requests before delegating to the variant.
func Validate(req Request) error {
	if req == nil {
		return Errorf(InvalidRequest, "provide code, file_path or directory_path")
	}
	return req.Validate()
}

// Describe renders a request for logs.
func Describe(req Request) string {
	if req == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%s", req.Kind(), req.Target())
}
