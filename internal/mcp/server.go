// Package mcp exposes the analysis pipeline as MCP tools. Handlers only
// translate tool arguments into requests and results into text blocks.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/logging"
	"github.com/julianshen/unityctx/internal/pipeline"
)

// ServerName is announced during the MCP handshake.
const ServerName = "unity-context-generator"

// Server wraps the MCP SDK server around a pipeline.
type Server struct {
	MCPServer *sdkmcp.Server

	svc    *pipeline.Service
	logger *slog.Logger
}

// NewServer creates an MCP server with the four analysis tools registered.
func NewServer(svc *pipeline.Service, version string) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.New("mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: ServerName, Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves the MCP protocol over t until the client disconnects or ctx
// is canceled.
func (s *Server) Run(ctx context.Context, t sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_unity_file",
		Description: "Analyze a single Unity C# script and return an LLM-ready report.",
	}, s.handleAnalyzeFile)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_unity_project",
		Description: "Analyze every script in a Unity project directory.",
	}, s.handleAnalyzeProject)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_unity_api_patterns",
		Description: "List the Unity API patterns the analyzer recognizes.",
	}, s.handleGetPatterns)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "generate_llm_context",
		Description: "Render a saved JSON analysis result as LLM-ready context without re-running the analyzer.",
	}, s.handleGenerateContext)
}

// --- Tool input types ---

type analyzeFileInput struct {
	FilePath     string `json:"file_path" jsonschema:"path of the Unity C# file to analyze"`
	AnalysisType string `json:"analysis_type,omitempty" jsonschema:"analysis depth: basic, detailed (default) or llm_optimized"`
}

type analyzeProjectInput struct {
	DirectoryPath     string `json:"directory_path" jsonschema:"Unity project directory to analyze"`
	IncludeAIAnalysis bool   `json:"include_ai_analysis,omitempty" jsonschema:"allow the analyzer to call its AI service (default false)"`
}

type getPatternsInput struct{}

type generateContextInput struct {
	AnalysisResultPath string `json:"analysis_result_path" jsonschema:"path of a saved JSON analysis result"`
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeFile(ctx context.Context, _ *sdkmcp.CallToolRequest, in analyzeFileInput) (*sdkmcp.CallToolResult, any, error) {
	mode, err := analysis.ParseMode(in.AnalysisType)
	if err != nil {
		return errorResult(err), nil, nil
	}
	res, err := s.svc.Analyze(ctx, analysis.SingleFile{Path: in.FilePath, Mode: mode})
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(res.Context, runFooter(res.RunID)), nil, nil
}

func (s *Server) handleAnalyzeProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in analyzeProjectInput) (*sdkmcp.CallToolResult, any, error) {
	res, err := s.svc.Analyze(ctx, analysis.Project{
		Dir:                     in.DirectoryPath,
		IncludeExternalAnalysis: in.IncludeAIAnalysis,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(res.Context, runFooter(res.RunID)), nil, nil
}

func (s *Server) handleGetPatterns(_ context.Context, _ *sdkmcp.CallToolRequest, _ getPatternsInput) (*sdkmcp.CallToolResult, any, error) {
	c, err := s.svc.Patterns()
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(c.Markdown()), nil, nil
}

func (s *Server) handleGenerateContext(_ context.Context, _ *sdkmcp.CallToolRequest, in generateContextInput) (*sdkmcp.CallToolResult, any, error) {
	text, err := s.svc.RenderStored(in.AnalysisResultPath)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(text), nil, nil
}

func textResult(blocks ...string) *sdkmcp.CallToolResult {
	res := &sdkmcp.CallToolResult{}
	for _, b := range blocks {
		res.Content = append(res.Content, &sdkmcp.TextContent{Text: b})
	}
	return res
}

func runFooter(runID string) string {
	return "run_id: " + runID
}

// errorResult renders a pipeline failure as a tool error. Analyzer exits
// carry the analyzer's stderr.
func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: ErrorText(err)}},
	}
}

// ErrorText formats err for a tool error block.
func ErrorText(err error) string {
	var aerr *analysis.Error
	if !errors.As(err, &aerr) {
		return "Error: " + err.Error()
	}
	switch aerr.Kind {
	case analysis.AnalyzerExit:
		detail := strings.TrimSpace(aerr.Detail)
		if detail == "" {
			detail = aerr.Msg
		}
		return "Analysis failed:\n" + detail
	case analysis.TimedOut:
		return "Analysis timed out: " + strings.TrimPrefix(aerr.Msg, "analysis timed out ")
	case analysis.PathNotFound, analysis.InvalidRequest:
		return "Error: " + aerr.Msg
	default:
		return fmt.Sprintf("Error during analysis: %s", aerr.Error())
	}
}
