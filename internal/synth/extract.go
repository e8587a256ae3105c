package synth

import "strings"

// DurationMarker labels the analysis duration inside the analyzer summary.
const DurationMarker = "**Analysis Duration:**"

// NotAvailable is shown when a best-effort field cannot be found.
const NotAvailable = "not available"

// ExtractField returns the text following marker on the same line, trimmed.
// It reports false when the marker is missing or nothing follows it.
func ExtractField(text, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	_, rest, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	line, _, _ := strings.Cut(rest, "\n")
	line = strings.TrimSpace(line)
	return line, line != ""
}

// Duration extracts the analysis duration from a summary. The value is
// whatever precedes "ms" after the duration marker, or NotAvailable.
func Duration(summary string) string {
	v, ok := ExtractField(summary, DurationMarker)
	if !ok {
		return NotAvailable
	}
	v, _, _ = strings.Cut(v, "ms")
	v = strings.TrimSpace(v)
	if v == "" {
		return NotAvailable
	}
	return v + " ms"
}

// NoAPIUsage is returned by ExtractAPIUsage when stdout has no usage lines.
const NoAPIUsage = "No Unity API usage information found."

// ExtractAPIUsage picks the analyzer's Unity API detection and quality
// score lines out of its verbose stdout.
func ExtractAPIUsage(stdout string) string {
	var lines []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.Contains(line, "UnityAPIDetector") && strings.Contains(line, "Detected"):
			lines = append(lines, line)
		case strings.Contains(line, "Quality Score"):
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return NoAPIUsage
	}
	return strings.Join(lines, "\n")
}
