package synth

import (
	"fmt"
	"strings"

	"github.com/julianshen/unityctx/internal/parser"
)

// Outline lists the types and methods declared in source. It reports false
// when the file is not C#, does not parse cleanly, or declares nothing.
func Outline(filename, source string) (string, bool) {
	if source == "" || !parser.Supported(filename) {
		return "", false
	}
	tree, err := parser.NewParser().Parse(filename, []byte(source))
	if err != nil {
		return "", false
	}
	defer tree.Close()
	if tree.HasErrors() {
		return "", false
	}

	types := tree.Types()
	if len(types) == 0 {
		return "", false
	}

	var sb strings.Builder
	if usings := tree.Imports(); len(usings) > 0 {
		fmt.Fprintf(&sb, "Uses: %s\n\n", strings.Join(usings, ", "))
	}
	for _, td := range types {
		fmt.Fprintf(&sb, "- %s `%s`", td.Kind, td.Name)
		if len(td.Bases) > 0 {
			fmt.Fprintf(&sb, " : %s", strings.Join(td.Bases, ", "))
		}
		if td.Namespace != "" {
			fmt.Fprintf(&sb, " (in %s)", td.Namespace)
		}
		fmt.Fprintf(&sb, ", lines %d-%d\n", td.StartLine, td.EndLine)
		for _, m := range td.Methods {
			fmt.Fprintf(&sb, "  - `%s()` line %d\n", m.Name, m.StartLine)
		}
	}
	return sb.String(), true
}
