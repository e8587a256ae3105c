// Package analyzertest writes fake analyzer executables for tests. A fake
// is a shell script that finds its --output directory in $OUT and then runs
// the given body.
package analyzertest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const prelude = `#!/bin/sh
OUT=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then OUT="$a"; fi
  prev="$a"
done
`

// Script writes a fake analyzer running body and returns its path. Tests
// are skipped on platforms without /bin/sh.
func Script(t testing.TB, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake analyzers require a unix shell")
	}
	path := filepath.Join(t.TempDir(), "unity_context_generator")
	if err := os.WriteFile(path, []byte(prelude+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake analyzer: %v", err)
	}
	return path
}

// Writing returns a body that writes each file into $OUT and exits 0.
func Writing(files map[string]string) string {
	body := ""
	for name, content := range files {
		body += "cat > \"$OUT/" + name + "\" <<'UNITYCTX_EOF'\n" + content + "\nUNITYCTX_EOF\n"
	}
	return body + "exit 0"
}

// Sleeping returns a body that outlives any short test budget.
func Sleeping() string {
	return "exec sleep 30"
}
