// Package workspace allocates one private working directory per analysis
// run. The analyzer writes its artifacts there (passed explicitly with
// --output), so concurrent runs never share an artifact set.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Workspace is the working directory owned by one run.
type Workspace struct {
	ID  string
	Dir string
}

// Manager creates and prunes run directories under Root. Released
// directories are kept until more than Retain of them exist. Directories of
// runs still in flight are invisible to Prune, Latest and Lookup.
type Manager struct {
	root   string
	retain int

	mu   sync.Mutex
	live map[string]bool
}

// NewManager ensures root exists. retain < 0 is treated as 0.
func NewManager(root string, retain int) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}
	if retain < 0 {
		retain = 0
	}
	return &Manager{root: root, retain: retain, live: make(map[string]bool)}, nil
}

// Root returns the directory all run directories live under.
func (m *Manager) Root() string { return m.root }

// Allocate creates a fresh, uniquely named directory for a run.
func (m *Manager) Allocate() (*Workspace, error) {
	return m.AllocateID(uuid.NewString())
}

// AllocateID creates the directory for a run whose id was assigned by the
// caller. id must be a UUID so Lookup and Prune recognize it.
func (m *Manager) AllocateID(id string) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q", id)
	}
	dir := filepath.Join(m.root, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	m.live[id] = true
	return &Workspace{ID: id, Dir: dir}, nil
}

// Release hands a finished run's directory back. With retention disabled the
// directory is removed immediately; otherwise older runs beyond the
// retention window are pruned.
func (m *Manager) Release(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, ws.ID)
	if m.retain == 0 {
		return os.RemoveAll(ws.Dir)
	}
	return m.prune()
}

// Discard removes a run directory regardless of retention. Used for runs
// that never produced trustworthy artifacts.
func (m *Manager) Discard(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, ws.ID)
	return os.RemoveAll(ws.Dir)
}

// Lookup returns the directory for a released run. A run still in flight
// reports os.ErrNotExist.
func (m *Manager) Lookup(id string) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live[id] {
		return nil, fmt.Errorf("run %s still in progress: %w", id, os.ErrNotExist)
	}
	dir := filepath.Join(m.root, id)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// ErrEmpty is returned by Latest when no run directory exists.
var ErrEmpty = errors.New("no retained runs")

// Latest returns the most recently modified released run directory.
func (m *Manager) Latest() (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs, err := m.list()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrEmpty
	}
	return runs[0].ws, nil
}

// Prune removes all but the newest Retain released run directories.
func (m *Manager) Prune() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune()
}

func (m *Manager) prune() error {
	runs, err := m.list()
	if err != nil {
		return err
	}
	var errs []error
	for i := m.retain; i < len(runs); i++ {
		if err := os.RemoveAll(runs[i].ws.Dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type entry struct {
	ws      *Workspace
	modTime time.Time
}

// list returns released run directories newest first. Entries that are not
// run directories are ignored. m.mu must be held.
func (m *Manager) list() ([]entry, error) {
	des, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace root: %w", err)
	}
	var runs []entry
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		if _, err := uuid.Parse(de.Name()); err != nil {
			continue
		}
		if m.live[de.Name()] {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		runs = append(runs, entry{
			ws:      &Workspace{ID: de.Name(), Dir: filepath.Join(m.root, de.Name())},
			modTime: info.ModTime(),
		})
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].modTime.After(runs[j].modTime)
	})
	return runs, nil
}
