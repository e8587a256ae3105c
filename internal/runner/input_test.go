package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSnippetFromCodeFlag(t *testing.T) {
	code, err := ResolveSnippet("class A {}", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "class A {}", code)
}

func TestResolveSnippetFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.cs")
	require.NoError(t, os.WriteFile(path, []byte("class Player {}\n"), 0644))

	code, err := ResolveSnippet("", path, nil)
	require.NoError(t, err)
	assert.Equal(t, "class Player {}\n", code, "code is passed through untrimmed")
}

func TestResolveSnippetFromStdin(t *testing.T) {
	code, err := ResolveSnippet("", "", strings.NewReader("piped code"))
	require.NoError(t, err)
	assert.Equal(t, "piped code", code)
}

func TestResolveSnippetCodeTakesPrecedence(t *testing.T) {
	code, err := ResolveSnippet("flag wins", "", strings.NewReader("stdin"))
	require.NoError(t, err)
	assert.Equal(t, "flag wins", code)
}

func TestResolveSnippetFileTakesPrecedenceOverStdin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cs")
	require.NoError(t, os.WriteFile(path, []byte("file wins"), 0644))

	code, err := ResolveSnippet("", path, strings.NewReader("stdin"))
	require.NoError(t, err)
	assert.Equal(t, "file wins", code)
}

func TestResolveSnippetNoInput(t *testing.T) {
	_, err := ResolveSnippet("", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}

func TestResolveSnippetBlankInput(t *testing.T) {
	_, err := ResolveSnippet("   ", "", strings.NewReader("\n\t"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}

func TestResolveSnippetFileMissing(t *testing.T) {
	_, err := ResolveSnippet("", "/nonexistent/path.cs", nil)
	require.Error(t, err)
}

func TestResolveSnippetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.cs")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	_, err := ResolveSnippet("", path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
