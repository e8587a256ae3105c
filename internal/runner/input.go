package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ResolveSnippet determines the code of an inline snippet from the
// available sources.
// Priority: codeFlag > filePath > stdinReader.
// stdinReader may be nil if stdin is a TTY (no pipe). The returned code is
// not trimmed; only its emptiness is judged on trimmed text.
func ResolveSnippet(codeFlag, filePath string, stdinReader io.Reader) (string, error) {
	if strings.TrimSpace(codeFlag) != "" {
		return codeFlag, nil
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("reading snippet file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("snippet file is empty: %s", filePath)
		}
		return string(data), nil
	}

	if stdinReader != nil {
		data, err := io.ReadAll(stdinReader)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) != "" {
			return string(data), nil
		}
	}

	return "", fmt.Errorf("no input provided: use --code, --code-file, or pipe to stdin")
}
