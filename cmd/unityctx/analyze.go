package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/output"
	"github.com/julianshen/unityctx/internal/pipeline"
	"github.com/julianshen/unityctx/internal/runner"
	"github.com/julianshen/unityctx/internal/tui"
)

// analyzeFlags holds the analyze command's flag values.
type analyzeFlags struct {
	directory string
	includeAI bool
	code      string
	codeFile  string
	stdin     bool
	filename  string
	mode      string
	output    string
}

func analyzeCmd() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a script, project, or snippet once and print the context",
		Long: `Run the analyzer once and print the synthesized LLM context.

Exactly one target is used:
  unityctx analyze Assets/Scripts/Player.cs
  unityctx analyze --directory ./MyGame
  unityctx analyze --code 'public class A : MonoBehaviour {}'
  cat Player.cs | unityctx analyze --stdin

On a terminal without a target, an interactive form asks for one.

Exit codes: 0 success, 1 analysis failed, 2 bad request or missing path,
3 timed out, 4 analyzer could not start.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, f, args)
		},
	}
	cmd.Flags().StringVar(&f.directory, "directory", "", "analyze a Unity project directory")
	cmd.Flags().BoolVar(&f.includeAI, "include-ai", false, "let the analyzer call its AI service (project analysis)")
	cmd.Flags().StringVar(&f.code, "code", "", "analyze inline C# code")
	cmd.Flags().StringVar(&f.codeFile, "code-file", "", "analyze C# code read from a file as a snippet")
	cmd.Flags().BoolVar(&f.stdin, "stdin", false, "read a C# snippet from stdin")
	cmd.Flags().StringVar(&f.filename, "filename", "", "display name for a snippet (default "+analysis.DefaultSnippetFilename+")")
	cmd.Flags().StringVar(&f.mode, "mode", "", "single-file analysis type: basic, detailed, llm_optimized")
	cmd.Flags().StringVarP(&f.output, "output", "o", "markdown", "output format: markdown or json")
	return cmd
}

// isInteractive reports whether both stdin and stdout are terminals.
var isInteractive = func() bool {
	return tui.IsTerminal(os.Stdin) && tui.IsTerminal(os.Stdout)
}

// buildRequest maps flags and arguments onto one request. It returns
// (nil, nil) when no target was given at all.
func buildRequest(f analyzeFlags, args []string, stdin io.Reader) (analysis.Request, error) {
	var targets []string
	if len(args) > 0 {
		targets = append(targets, "file argument")
	}
	if f.directory != "" {
		targets = append(targets, "--directory")
	}
	snippet := f.code != "" || f.codeFile != "" || f.stdin
	if snippet {
		targets = append(targets, "snippet")
	}
	if len(targets) > 1 {
		return nil, analysis.Errorf(analysis.InvalidRequest, "choose one target, got %s", strings.Join(targets, " and "))
	}
	if f.mode != "" && len(args) == 0 {
		return nil, analysis.Errorf(analysis.InvalidRequest, "--mode only applies to a file argument")
	}
	if f.includeAI && f.directory == "" {
		return nil, analysis.Errorf(analysis.InvalidRequest, "--include-ai only applies to --directory")
	}

	switch {
	case len(args) > 0:
		mode, err := analysis.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		return analysis.SingleFile{Path: args[0], Mode: mode}, nil
	case f.directory != "":
		return analysis.Project{Dir: f.directory, IncludeExternalAnalysis: f.includeAI}, nil
	case snippet:
		if !f.stdin {
			stdin = nil
		}
		code, err := runner.ResolveSnippet(f.code, f.codeFile, stdin)
		if err != nil {
			return nil, analysis.Wrap(analysis.InvalidRequest, err, "snippet")
		}
		return analysis.InlineSnippet{Code: code, Filename: f.filename}, nil
	}
	return nil, nil
}

func runAnalyze(cmd *cobra.Command, f analyzeFlags, args []string) error {
	formatter, err := output.ForName(f.output)
	if err != nil {
		return err
	}

	req, err := buildRequest(f, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	interactive := isInteractive()
	if req == nil {
		if !interactive {
			return analysis.Errorf(analysis.InvalidRequest, "no target: pass a file, --directory, --code, --code-file or --stdin")
		}
		req, err = tui.NewTargetForm().Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var res *pipeline.Result
	work := func(ctx context.Context) error {
		var err error
		res, err = a.svc.Analyze(ctx, req)
		return err
	}
	if interactive && f.output != "json" {
		label := fmt.Sprintf("Analyzing %s", req.Target())
		err = tui.RunWithSpinner(cmd.Context(), cmd.ErrOrStderr(), label, work)
	} else {
		err = work(cmd.Context())
	}

	if err != nil {
		return reportFailure(cmd, formatter, req, err)
	}

	out, err := formatter.Format(output.FromResult(res))
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	if interactive && f.output != "json" {
		out = renderForTerminal(out)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// reportFailure prints the failure in the selected format and returns an
// ExitError carrying the failure's exit code. JSON goes to stdout so
// callers can parse it; markdown goes to stderr.
func reportFailure(cmd *cobra.Command, formatter output.Formatter, req analysis.Request, err error) error {
	out, ferr := formatter.Format(output.FromError(req, err))
	if ferr != nil {
		return err
	}
	w := cmd.ErrOrStderr()
	if _, ok := formatter.(*output.JSONFormatter); ok {
		w = cmd.OutOrStdout()
	}
	fmt.Fprint(w, string(out))
	return &runner.ExitError{Code: runner.ExitCodeFor(err)}
}

func renderForTerminal(md []byte) []byte {
	r, err := tui.NewMarkdownRenderer(tui.Width(os.Stdout))
	if err != nil {
		return md
	}
	styled, err := r.Render(string(md))
	if err != nil {
		return md
	}
	return []byte(styled)
}
