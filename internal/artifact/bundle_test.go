package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestCollectEmptyDir(t *testing.T) {
	b := Collect(t.TempDir())
	assert.Equal(t, 0, b.Len())
	for _, f := range Files {
		_, ok := b.Get(f.Key)
		assert.False(t, ok, f.Key)
		assert.Empty(t, b.Text(f.Key))
	}
}

func TestCollectMissingDir(t *testing.T) {
	b := Collect(filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, 0, b.Len())
}

func TestCollectAllSix(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"summary.md":            "OK",
		"detailed_report.md":    "# Report",
		"llm_prompt.md":         "prompt",
		"project_metadata.json": `{"name":"Game"}`,
		"project_context.json":  `["a","b"]`,
		"llm_optimized.json":    `{"score":9}`,
	})

	b := Collect(dir)
	require.Equal(t, 6, b.Len())
	assert.Equal(t, []Key{Summary, DetailedReport, LLMPrompt, ProjectMetadata, ProjectContext, LLMOptimized}, b.Keys())
	assert.Equal(t, "OK", b.Text(Summary))

	meta, ok := b.Get(ProjectMetadata)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Game"}, meta.Data)
	assert.False(t, meta.Failed())
}

func TestCollectOnlySummary(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"summary.md": "OK\n"})

	b := Collect(dir)
	assert.Equal(t, []Key{Summary}, b.Keys())
	assert.Equal(t, "OK\n", b.Text(Summary), "text artifacts keep their exact bytes")
	assert.Empty(t, b.Text(DetailedReport))
}

func TestCollectParseErrorIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"summary.md":            "fine",
		"project_metadata.json": "{not json",
	})

	b := Collect(dir)
	e, ok := b.Get(ProjectMetadata)
	require.True(t, ok)
	assert.True(t, e.Failed())
	assert.Contains(t, e.Err, "parse error:")
	assert.Equal(t, "fine", b.Text(Summary))
}

func TestCollectIgnoresUnknownFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"other.txt": "x", "summary.md": "s"})
	assert.Equal(t, 1, Collect(dir).Len())
}

func TestBundleMarshalJSON(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"summary.md":           "OK",
		"project_context.json": `{"scripts":3}`,
		"llm_optimized.json":   "oops",
	})

	data, err := json.Marshal(Collect(dir))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 3)
	assert.Equal(t, "OK", got["summary"])
	assert.Equal(t, map[string]any{"scripts": float64(3)}, got["project_context"])
	assert.Contains(t, got["llm_optimized"], "parse error:")
	assert.NotContains(t, got, "detailed_report")
}

func TestBundleMarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(NewBundle())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestCollectJSONNull(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"project_metadata.json": "null"})

	b := Collect(dir)
	_, ok := b.Get(ProjectMetadata)
	assert.True(t, ok)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"project_metadata":null}`, string(data))
}
