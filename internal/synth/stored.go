package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StoredResult renders a previously saved JSON analysis result without
// running the analyzer again. Missing fields fall back to defaults.
func StoredResult(data map[string]any) string {
	var sb strings.Builder
	sb.WriteString("# Unity project LLM context\n\n")
	sb.WriteString("## Overview\n")
	fmt.Fprintf(&sb, "- **Type:** %s\n", scalar(data, "project_type", "Unity Game"))
	fmt.Fprintf(&sb, "- **Architecture:** %s\n", scalar(data, "architecture", "Component-based"))
	fmt.Fprintf(&sb, "- **Quality score:** %s\n\n", scalar(data, "quality_score", "N/A"))

	sb.WriteString("## Components\n")
	sb.WriteString("```json\n")
	sb.WriteString(prettyJSON(data["components"]))
	sb.WriteString("\n```\n\n")

	sb.WriteString("## Development guidelines\n")
	sb.WriteString("This project follows Unity's component-based architecture. ")
	sb.WriteString("Keep existing patterns when changing code and follow Unity's optimization guidelines.\n")
	return sb.String()
}

func scalar(data map[string]any, key, fallback string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func prettyJSON(v any) string {
	if v == nil {
		v = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}
