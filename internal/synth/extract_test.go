package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractField(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		want   string
		ok     bool
	}{
		{"present", "x\n**Analysis Duration:** 42ms\ny", DurationMarker, "42ms", true},
		{"first line only", "**Analysis Duration:** 7 ms\n**Other:** 1", DurationMarker, "7 ms", true},
		{"missing", "no marker here", DurationMarker, "", false},
		{"marker at end", "text **Analysis Duration:**", DurationMarker, "", false},
		{"blank after marker", "**Analysis Duration:**   \nnext", DurationMarker, "", false},
		{"empty text", "", DurationMarker, "", false},
		{"empty marker", "anything", "", "", false},
		{"first occurrence wins", "**K:** a\n**K:** b", "**K:**", "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractField(tt.text, tt.marker)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "42 ms", Duration("**Analysis Duration:** 42ms"))
	assert.Equal(t, "1.5 ms", Duration("**Analysis Duration:** 1.5 ms\n"))
	assert.Equal(t, "120 ms", Duration("**Analysis Duration:** 120"))
	assert.Equal(t, NotAvailable, Duration("OK"))
	assert.Equal(t, NotAvailable, Duration("**Analysis Duration:** ms"))
	assert.Equal(t, NotAvailable, Duration(""))
}

func TestExtractAPIUsage(t *testing.T) {
	stdout := "starting\r\n" +
		"[UnityAPIDetector] Detected GetComponent in Update\r\n" +
		"[UnityAPIDetector] scanning\n" +
		"Detected nothing else\n" +
		"Quality Score: 8.5/10\n"

	assert.Equal(t,
		"[UnityAPIDetector] Detected GetComponent in Update\nQuality Score: 8.5/10",
		ExtractAPIUsage(stdout))
}

func TestExtractAPIUsageNone(t *testing.T) {
	assert.Equal(t, NoAPIUsage, ExtractAPIUsage(""))
	assert.Equal(t, NoAPIUsage, ExtractAPIUsage("plain\noutput\n"))
}
