package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianshen/unityctx/internal/analysis"
)

// Target kinds offered by the form.
const (
	TargetFile    = "file"
	TargetProject = "project"
	TargetSnippet = "snippet"
)

// TargetForm asks for an analysis target when the CLI got none.
type TargetForm struct {
	form      *huh.Form
	kind      string
	path      string
	mode      string
	includeAI bool
	code      string
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}

// NewTargetForm creates the multi-step target form.
func NewTargetForm() *TargetForm {
	tf := &TargetForm{kind: TargetFile, mode: string(analysis.ModeDetailed)}

	kindGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("What do you want to analyze?").
			Options(
				huh.NewOption("A single C# script", TargetFile),
				huh.NewOption("A Unity project directory", TargetProject),
				huh.NewOption("Pasted code", TargetSnippet),
			).
			Value(&tf.kind),
	).Title(Banner)

	fileGroup := huh.NewGroup(
		huh.NewInput().
			Title("Script path").
			Placeholder("Assets/Scripts/Player.cs").
			Value(&tf.path).
			Validate(required("path")),
		huh.NewSelect[string]().
			Title("Analysis depth").
			Options(
				huh.NewOption("Detailed", string(analysis.ModeDetailed)),
				huh.NewOption("Basic", string(analysis.ModeBasic)),
				huh.NewOption("LLM optimized", string(analysis.ModeLLMOptimized)),
			).
			Value(&tf.mode),
	).WithHideFunc(func() bool { return tf.kind != TargetFile })

	projectGroup := huh.NewGroup(
		huh.NewInput().
			Title("Project directory").
			Placeholder(".").
			Value(&tf.path).
			Validate(required("directory")),
		huh.NewConfirm().
			Title("Allow the analyzer's AI service?").
			Value(&tf.includeAI),
	).WithHideFunc(func() bool { return tf.kind != TargetProject })

	snippetGroup := huh.NewGroup(
		huh.NewText().
			Title("C# code").
			Value(&tf.code).
			Validate(required("code")),
	).WithHideFunc(func() bool { return tf.kind != TargetSnippet })

	tf.form = huh.NewForm(kindGroup, fileGroup, projectGroup, snippetGroup)
	return tf
}

// Form returns the underlying huh.Form.
func (f *TargetForm) Form() *huh.Form { return f.form }

// Run shows the form and returns the chosen request. An aborted form
// returns huh.ErrUserAborted.
func (f *TargetForm) Run() (analysis.Request, error) {
	if err := f.form.Run(); err != nil {
		return nil, err
	}
	return f.Request()
}

// Request converts the form's values into a request.
func (f *TargetForm) Request() (analysis.Request, error) {
	var req analysis.Request
	switch f.kind {
	case TargetFile:
		mode, err := analysis.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		req = analysis.SingleFile{Path: strings.TrimSpace(f.path), Mode: mode}
	case TargetProject:
		req = analysis.Project{Dir: strings.TrimSpace(f.path), IncludeExternalAnalysis: f.includeAI}
	case TargetSnippet:
		req = analysis.InlineSnippet{Code: f.code}
	default:
		return nil, analysis.Errorf(analysis.InvalidRequest, "unknown target kind %q", f.kind)
	}
	return req, analysis.Validate(req)
}
