package mcp_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/unityctx/internal/analyzertest"
	"github.com/julianshen/unityctx/internal/catalog"
	"github.com/julianshen/unityctx/internal/config"
	"github.com/julianshen/unityctx/internal/invoke"
	mcpserver "github.com/julianshen/unityctx/internal/mcp"
	"github.com/julianshen/unityctx/internal/pipeline"
	"github.com/julianshen/unityctx/internal/runner"
	"github.com/julianshen/unityctx/internal/workspace"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, analyzerBody string, fileTimeout time.Duration) *mcpserver.Server {
	t.Helper()
	b, err := invoke.NewBuilder(config.AnalyzerConfig{
		Path:           analyzertest.Script(t, analyzerBody),
		CredentialEnv:  "UNITYCTX_TEST_CREDENTIAL",
		FileTimeout:    fileTimeout,
		ProjectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	ws, err := workspace.NewManager(t.TempDir(), 2)
	require.NoError(t, err)
	svc := pipeline.New(b, ws, pipeline.WithRunner(runner.New(runner.WithWaitDelay(200*time.Millisecond))))
	return mcpserver.NewServer(svc, "test")
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool returns the text blocks of a tool result and its error flag.
func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) ([]string, bool) {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s) transport error", name)
	var texts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts, res.IsError
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv := newTestServer(t, "exit 0", time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"analyze_unity_file",
		"analyze_unity_project",
		"get_unity_api_patterns",
		"generate_llm_context",
	}, names)
}

func TestServer_AnalyzeFile(t *testing.T) {
	srv := newTestServer(t, analyzertest.Writing(map[string]string{
		"summary.md":         "**Analysis Duration:** 12ms\nOK",
		"detailed_report.md": "Caches GetComponent.",
	}), 5*time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	src := writeFile(t, "Player.cs", "public class Player {}")
	texts, isErr := callTool(t, ctx, session, "analyze_unity_file", map[string]any{"file_path": src})
	require.False(t, isErr, texts)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "- **Name:** Player.cs")
	assert.Contains(t, texts[0], "- **Analysis duration:** 12 ms")
	assert.Contains(t, texts[0], "Caches GetComponent.")
	assert.True(t, strings.HasPrefix(texts[1], "run_id: "))
}

func TestServer_AnalyzeFileErrors(t *testing.T) {
	srv := newTestServer(t, `echo "CS0246: type not found" >&2; exit 1`, 5*time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	texts, isErr := callTool(t, ctx, session, "analyze_unity_file", map[string]any{"file_path": "/missing/Player.cs"})
	assert.True(t, isErr)
	assert.Equal(t, []string{"Error: file not found: /missing/Player.cs"}, texts)

	src := writeFile(t, "Bad.cs", "class Bad {")
	texts, isErr = callTool(t, ctx, session, "analyze_unity_file", map[string]any{"file_path": src})
	assert.True(t, isErr)
	assert.Equal(t, []string{"Analysis failed:\nCS0246: type not found"}, texts)

	texts, isErr = callTool(t, ctx, session, "analyze_unity_file", map[string]any{"file_path": src, "analysis_type": "deep"})
	assert.True(t, isErr)
	assert.Contains(t, texts[0], "unknown analysis_type")
}

func TestServer_AnalyzeFileTimeout(t *testing.T) {
	srv := newTestServer(t, analyzertest.Sleeping(), 200*time.Millisecond)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	src := writeFile(t, "Slow.cs", "class Slow {}")
	texts, isErr := callTool(t, ctx, session, "analyze_unity_file", map[string]any{"file_path": src})
	assert.True(t, isErr)
	assert.Equal(t, []string{"Analysis timed out: (200ms)"}, texts)
}

func TestServer_AnalyzeProject(t *testing.T) {
	t.Setenv("UNITYCTX_TEST_CREDENTIAL", "secret")
	srv := newTestServer(t, `echo "key=[$UNITYCTX_TEST_CREDENTIAL]" > "$OUT/llm_prompt.md"`, time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	dir := t.TempDir()

	texts, isErr := callTool(t, ctx, session, "analyze_unity_project", map[string]any{"directory_path": dir})
	require.False(t, isErr, texts)
	assert.Contains(t, texts[0], "- **Path:** "+dir)
	assert.Contains(t, texts[0], "key=[]")

	texts, isErr = callTool(t, ctx, session, "analyze_unity_project", map[string]any{"directory_path": dir, "include_ai_analysis": true})
	require.False(t, isErr, texts)
	assert.Contains(t, texts[0], "key=[secret]")

	texts, isErr = callTool(t, ctx, session, "analyze_unity_project", map[string]any{"directory_path": filepath.Join(dir, "nope")})
	assert.True(t, isErr)
	assert.Contains(t, texts[0], "directory not found")
}

func TestServer_GetPatterns(t *testing.T) {
	srv := newTestServer(t, "exit 0", time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	c, err := catalog.Default()
	require.NoError(t, err)

	texts, isErr := callTool(t, ctx, session, "get_unity_api_patterns", map[string]any{})
	require.False(t, isErr)
	assert.Equal(t, []string{c.Markdown()}, texts)
}

func TestServer_GenerateContext(t *testing.T) {
	srv := newTestServer(t, "exit 0", time.Second)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	path := writeFile(t, "result.json", `{"architecture":"MVC","quality_score":7}`)
	texts, isErr := callTool(t, ctx, session, "generate_llm_context", map[string]any{"analysis_result_path": path})
	require.False(t, isErr, texts)
	assert.Contains(t, texts[0], "- **Architecture:** MVC")
	assert.Contains(t, texts[0], "- **Quality score:** 7")

	texts, isErr = callTool(t, ctx, session, "generate_llm_context", map[string]any{"analysis_result_path": "/missing.json"})
	assert.True(t, isErr)
	assert.Contains(t, texts[0], "analysis result file not found")
}
