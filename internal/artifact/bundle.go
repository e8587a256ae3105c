// Package artifact reads the analyzer's output files from a working
// directory and packages them for download.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Key names one artifact in a Bundle.
type Key string

const (
	Summary         Key = "summary"
	DetailedReport  Key = "detailed_report"
	LLMPrompt       Key = "llm_prompt"
	ProjectMetadata Key = "project_metadata"
	ProjectContext  Key = "project_context"
	LLMOptimized    Key = "llm_optimized"
)

// File binds a key to the file the analyzer writes for it.
type File struct {
	Key  Key
	Name string
}

// Structured reports whether the file holds JSON.
func (f File) Structured() bool {
	return strings.HasSuffix(f.Name, ".json")
}

// Files lists the known artifacts in presentation order.
var Files = []File{
	{Summary, "summary.md"},
	{DetailedReport, "detailed_report.md"},
	{LLMPrompt, "llm_prompt.md"},
	{ProjectMetadata, "project_metadata.json"},
	{ProjectContext, "project_context.json"},
	{LLMOptimized, "llm_optimized.json"},
}

// maxReaders bounds concurrent file reads during Collect.
const maxReaders = 3

// Entry is the value stored for one present artifact. Exactly one of Text,
// Data, or Err is meaningful.
type Entry struct {
	Text string
	Data any
	Err  string
}

// Failed reports whether the artifact existed but could not be used.
func (e Entry) Failed() bool { return e.Err != "" }

// Bundle is the set of artifacts found in one working directory. Missing
// files have no entry.
type Bundle struct {
	entries map[Key]Entry
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{entries: make(map[Key]Entry)}
}

// Set stores an entry. Mostly useful for tests and stored results.
func (b *Bundle) Set(key Key, e Entry) {
	b.entries[key] = e
}

// Get returns the entry for key.
func (b *Bundle) Get(key Key) (Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Text returns the raw contents of a text artifact. It returns "" when the
// key is absent, structured, or failed.
func (b *Bundle) Text(key Key) string {
	e, ok := b.entries[key]
	if !ok || e.Failed() {
		return ""
	}
	return e.Text
}

// Keys returns the present keys in presentation order.
func (b *Bundle) Keys() []Key {
	var keys []Key
	for _, f := range Files {
		if _, ok := b.entries[f.Key]; ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Len returns the number of present artifacts.
func (b *Bundle) Len() int { return len(b.entries) }

// MarshalJSON emits present keys only: text as a string, structured data as
// its JSON value, and failures as their error string.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(string(key))
		buf.Write(k)
		buf.WriteByte(':')

		e := b.entries[key]
		var v any
		switch {
		case e.Failed():
			v = e.Err
		case e.Data != nil:
			v = e.Data
		default:
			v = e.Text
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding artifact %s: %w", key, err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Collect reads every known artifact from dir. It never fails: missing
// files are left absent, unreadable or malformed files become error
// strings under their key.
func Collect(dir string) *Bundle {
	b := NewBundle()
	p := pool.New().WithMaxGoroutines(maxReaders)
	var mu sync.Mutex

	for _, f := range Files {
		p.Go(func() {
			e, ok := readEntry(filepath.Join(dir, f.Name), f.Structured())
			if !ok {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			b.entries[f.Key] = e
		})
	}

	p.Wait()
	return b
}

func readEntry(path string, structured bool) (Entry, bool) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false
	}
	if err != nil {
		return Entry{Err: "read error: " + err.Error()}, true
	}
	if !structured {
		return Entry{Text: string(data)}, true
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Entry{Err: "parse error: " + err.Error()}, true
	}
	if v == nil {
		// A literal null still counts as present.
		return Entry{Data: json.RawMessage("null")}, true
	}
	return Entry{Data: v}, true
}
