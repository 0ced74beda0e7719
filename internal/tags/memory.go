package tags

import (
	"context"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/skelly-dev/srcweb/internal/anchor"
)

type location struct {
	path string
	line int
}

// MemoryStore is a Store and Paths kept in maps. It serves tests and small
// fact files loaded without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	tags      [3]map[string][]location
	aggIDs    [3]map[string]string
	overrides [3]map[string]Resolution
	includes  map[string][]location
	pathToID  map[string]string
	idToPath  map[string]string
	nextID    int
	nextAgg   int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		includes: make(map[string][]location),
		pathToID: make(map[string]string),
		idToPath: make(map[string]string),
	}
	for i := range m.tags {
		m.tags[i] = make(map[string][]location)
		m.aggIDs[i] = make(map[string]string)
		m.overrides[i] = make(map[string]Resolution)
	}
	return m
}

// AddPath registers p and every directory above it, returning the id of p.
func (m *MemoryStore) AddPath(p string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addPathLocked(NormalizePath(p))
}

func (m *MemoryStore) addPathLocked(p string) string {
	if id, ok := m.pathToID[p]; ok {
		return id
	}
	if dir := path.Dir(p); dir != "." && dir != "/" {
		m.addPathLocked(NormalizePath(dir))
	}
	m.nextID++
	id := strconv.Itoa(m.nextID)
	for m.idToPath[id] != "" {
		m.nextID++
		id = strconv.Itoa(m.nextID)
	}
	m.pathToID[p] = id
	m.idToPath[id] = p
	return id
}

// SetPathID registers p under a caller-chosen id.
func (m *MemoryStore) SetPathID(p, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = NormalizePath(p)
	m.pathToID[p] = id
	m.idToPath[id] = p
}

// Add records a tag occurrence.
func (m *MemoryStore) Add(ns Namespace, name, p string, line int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = NormalizePath(p)
	m.addPathLocked(p)
	m.tags[ns][name] = append(m.tags[ns][name], location{path: p, line: line})
	if _, ok := m.aggIDs[ns][name]; !ok {
		m.nextAgg++
		m.aggIDs[ns][name] = strconv.Itoa(m.nextAgg)
	}
}

// SetResolution makes Lookup return r for name regardless of recorded tags.
func (m *MemoryStore) SetResolution(ns Namespace, name string, r Resolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[ns][name] = r
}

// AddInclude records that p includes target on line.
func (m *MemoryStore) AddInclude(target, p string, line int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = NormalizePath(p)
	m.addPathLocked(p)
	target = path.Base(target)
	m.includes[target] = append(m.includes[target], location{path: p, line: line})
}

// AddFact records one indexer fact.
func (m *MemoryStore) AddFact(f Fact) {
	if f.Kind == FactInclude {
		m.AddInclude(f.Target, f.Path, f.Line)
		return
	}
	if ns, ok := f.Namespace(); ok {
		m.Add(ns, f.Name, f.Path, f.Line)
	}
}

func (m *MemoryStore) Lookup(_ context.Context, ns Namespace, name string) (Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.overrides[ns][name]; ok {
		return r, nil
	}
	locs := m.tags[ns][name]
	switch len(locs) {
	case 0:
		return Resolution{Shape: NotFound}, nil
	case 1:
		return Resolution{
			Shape:  Single,
			Line:   locs[0].line,
			FileID: m.pathToID[locs[0].path],
			Path:   locs[0].path,
		}, nil
	default:
		return Resolution{Shape: Aggregate, FileID: m.aggIDs[ns][name], Count: len(locs)}, nil
	}
}

func (m *MemoryStore) Anchors(_ context.Context, p string) ([]anchor.Anchor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = NormalizePath(p)
	out := make([]anchor.Anchor, 0)
	for ns := range m.tags {
		for name, locs := range m.tags[ns] {
			for _, loc := range locs {
				if loc.path == p {
					out = append(out, anchor.Anchor{Line: loc.line, Site: SiteOf(Namespace(ns)), Tag: name})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		if out[i].Site != out[j].Site {
			return out[i].Site < out[j].Site
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (m *MemoryStore) Included(_ context.Context, basename string) (Inclusion, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locs := m.includes[basename]
	if len(locs) == 0 {
		return Inclusion{}, false, nil
	}
	inc := Inclusion{ID: m.includeID(basename), Count: len(locs)}
	if len(locs) == 1 {
		inc.Line = locs[0].line
		inc.Path = locs[0].path
	}
	return inc, true, nil
}

func (m *MemoryStore) Candidates(_ context.Context, basename string) (Inclusion, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]string, 0)
	for p := range m.pathToID {
		if path.Base(p) == basename && path.Ext(p) != "" {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return Inclusion{}, false, nil
	}
	sort.Strings(matches)
	inc := Inclusion{ID: m.includeID(basename), Count: len(matches)}
	if len(matches) == 1 {
		inc.Path = matches[0]
	}
	return inc, true, nil
}

// includeID numbers basenames by sort order so ids are stable for a given
// set of includes.
func (m *MemoryStore) includeID(basename string) int {
	names := make([]string, 0, len(m.includes))
	for name := range m.includes {
		names = append(names, name)
	}
	if _, ok := m.includes[basename]; !ok {
		names = append(names, basename)
	}
	sort.Strings(names)
	return sort.SearchStrings(names, basename) + 1
}

func (m *MemoryStore) PathToID(p string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.pathToID[NormalizePath(p)]
	return id, ok
}

func (m *MemoryStore) IDToPath(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.idToPath[id]
	return p, ok
}

// Paths returns every registered path in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.pathToID))
	for p := range m.pathToID {
		if strings.HasPrefix(p, "./") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
