package synth

import (
	"strings"
	"testing"

	"github.com/julianshen/unityctx/internal/artifact"
	"github.com/stretchr/testify/assert"
)

func bundle(entries map[artifact.Key]artifact.Entry) *artifact.Bundle {
	b := artifact.NewBundle()
	for k, e := range entries {
		b.Set(k, e)
	}
	return b
}

func TestExcerptShort(t *testing.T) {
	src := strings.Repeat("a", ExcerptLimit)
	assert.Equal(t, src, Excerpt(src))
	assert.Equal(t, "", Excerpt(""))
}

func TestExcerptTruncated(t *testing.T) {
	src := strings.Repeat("b", ExcerptLimit+1)
	got := Excerpt(src)
	assert.Equal(t, strings.Repeat("b", ExcerptLimit)+TruncationMarker, got)
}

func TestExcerptCountsRunes(t *testing.T) {
	src := strings.Repeat("한", ExcerptLimit+5)
	got := Excerpt(src)
	assert.Equal(t, ExcerptLimit+len(TruncationMarker), len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))

	exact := strings.Repeat("한", ExcerptLimit)
	assert.Equal(t, exact, Excerpt(exact))
}

func TestSingleTargetSummaryOnly(t *testing.T) {
	b := bundle(map[artifact.Key]artifact.Entry{artifact.Summary: {Text: "OK"}})
	out := SingleTarget(Target{Name: "Player.cs", Source: "class Player {}"}, b)

	assert.Contains(t, out, "- **Name:** Player.cs")
	assert.Contains(t, out, "- **Analysis duration:** not available")
	assert.Contains(t, out, "## Summary\nOK\n")
	assert.Contains(t, out, "## Detailed analysis\n_No detailed analysis available._")
	assert.Contains(t, out, "```csharp\nclass Player {}\n```")
	assert.Contains(t, out, "## Suggested questions")
}

func TestSingleTargetDurationAndReport(t *testing.T) {
	b := bundle(map[artifact.Key]artifact.Entry{
		artifact.Summary:        {Text: "# Summary\n**Analysis Duration:** 15ms\n"},
		artifact.DetailedReport: {Text: "Uses GetComponent in Update."},
	})
	out := SingleTarget(Target{Name: "A.cs", Source: "x"}, b)
	assert.Contains(t, out, "- **Analysis duration:** 15 ms")
	assert.Contains(t, out, "## Detailed analysis\nUses GetComponent in Update.")
}

func TestSingleTargetTrimsArtifactsAtRenderTime(t *testing.T) {
	b := bundle(map[artifact.Key]artifact.Entry{
		artifact.Summary:        {Text: "\n  All good  \n\n"},
		artifact.DetailedReport: {Text: " \n\t"},
	})
	out := SingleTarget(Target{Name: "A.cs"}, b)
	assert.Contains(t, out, "## Summary\nAll good\n\n")
	assert.Contains(t, out, "## Detailed analysis\n_No detailed analysis available._")
	assert.Equal(t, "\n  All good  \n\n", b.Text(artifact.Summary))
}

func TestSingleTargetEmptyBundle(t *testing.T) {
	out := SingleTarget(Target{Name: "A.cs"}, artifact.NewBundle())
	assert.Contains(t, out, "_No summary available._")
	assert.Contains(t, out, "_No detailed analysis available._")
	assert.NotContains(t, out, "## Declared types")
}

func TestSingleTargetReadError(t *testing.T) {
	b := bundle(map[artifact.Key]artifact.Entry{artifact.Summary: {Err: "read error: denied"}})
	out := SingleTarget(Target{Name: "A.cs"}, b)
	assert.Contains(t, out, "## Summary\n_read error: denied_")
}

func TestSingleTargetTruncatesSource(t *testing.T) {
	src := strings.Repeat("x", ExcerptLimit+10)
	out := SingleTarget(Target{Name: "Big.cs", Source: src}, artifact.NewBundle())
	assert.Contains(t, out, strings.Repeat("x", ExcerptLimit)+"...\n```")
	assert.NotContains(t, out, strings.Repeat("x", ExcerptLimit+1))
}

func TestSingleTargetOutline(t *testing.T) {
	src := "using UnityEngine;\npublic class Player : MonoBehaviour {\n  void Update() {}\n}\n"
	out := SingleTarget(Target{Name: "Player.cs", Source: src}, artifact.NewBundle())
	assert.Contains(t, out, "## Declared types\nUses: UnityEngine\n\n- class `Player` : MonoBehaviour, lines 2-4\n  - `Update()` line 3\n")
}

func TestProjectRendering(t *testing.T) {
	b := bundle(map[artifact.Key]artifact.Entry{
		artifact.Summary:   {Text: "12 scripts"},
		artifact.LLMPrompt: {Text: "You are helping with a Unity game."},
	})
	out := Project(Target{Name: "/proj", APIUsage: "Quality Score: 7"}, b)

	assert.Contains(t, out, "- **Path:** /proj")
	assert.Contains(t, out, "## Summary\n12 scripts")
	assert.Contains(t, out, "## Architecture analysis\n_No detailed analysis available._")
	assert.Contains(t, out, "## Unity API usage\nQuality Score: 7")
	assert.Contains(t, out, "## LLM-optimized context\nYou are helping with a Unity game.")
	for _, topic := range []string{"### Architecture", "### Performance", "### Code quality", "### Project management"} {
		assert.Contains(t, out, topic)
	}
	assert.NotContains(t, out, "```csharp")
}

func TestProjectTopicsAreStatic(t *testing.T) {
	a := Project(Target{Name: "/a"}, artifact.NewBundle())
	b := Project(Target{Name: "/a"}, bundle(map[artifact.Key]artifact.Entry{artifact.Summary: {Text: "s"}}))
	_, topicsA, _ := strings.Cut(a, "## Follow-up topics")
	_, topicsB, _ := strings.Cut(b, "## Follow-up topics")
	assert.Equal(t, topicsA, topicsB)
	assert.Contains(t, a, "## Unity API usage\n"+NoAPIUsage)
}
