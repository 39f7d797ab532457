package store

import (
	"sort"
	"sync"
	"time"
)

// Memory is a map-backed store. It is the default backing for targets that
// do not configure a disk root, and the workhorse of the executor tests.
type Memory struct {
	mu    sync.RWMutex
	root  *memDir
	quota uint64
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithQuota sets the advertised quota in bytes.
func WithQuota(quota uint64) MemoryOption {
	return func(m *Memory) { m.quota = quota }
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{root: newMemDir()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Root() (Dir, error) {
	return &memDirHandle{store: m, node: m.root}, nil
}

func (m *Memory) Available() (bool, string) {
	return true, ""
}

func (m *Memory) Estimate() (uint64, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root.usage(), m.quota, nil
}

type memDir struct {
	dirs  map[string]*memDir
	files map[string]*memFile
}

type memFile struct {
	data    []byte
	modTime time.Time
	locked  bool
}

func newMemDir() *memDir {
	return &memDir{
		dirs:  make(map[string]*memDir),
		files: make(map[string]*memFile),
	}
}

func (d *memDir) usage() uint64 {
	var total uint64
	for _, f := range d.files {
		total += uint64(len(f.data))
	}
	for _, sub := range d.dirs {
		total += sub.usage()
	}
	return total
}

// LockFile marks the file at the given slash-separated segments as held by
// another consumer, so tests can exercise LOCKED surfacing.
func (m *Memory) LockFile(segments []string, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := m.root
	for _, seg := range segments {
		sub, ok := dir.dirs[seg]
		if !ok {
			return false
		}
		dir = sub
	}
	f, ok := dir.files[name]
	if !ok {
		return false
	}
	f.locked = true
	return true
}

type memDirHandle struct {
	store *Memory
	node  *memDir
}

func (h *memDirHandle) Lookup(name string) Kind {
	if !validName(name) {
		return KindMissing
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	if _, ok := h.node.dirs[name]; ok {
		return KindDirectory
	}
	if _, ok := h.node.files[name]; ok {
		return KindFile
	}
	return KindMissing
}

func (h *memDirHandle) OpenDir(name string, create bool) (Dir, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if sub, ok := h.node.dirs[name]; ok {
		return &memDirHandle{store: h.store, node: sub}, nil
	}
	if _, ok := h.node.files[name]; ok {
		return nil, ErrTypeMismatch
	}
	if !create {
		return nil, ErrNotFound
	}
	sub := newMemDir()
	h.node.dirs[name] = sub
	return &memDirHandle{store: h.store, node: sub}, nil
}

func (h *memDirHandle) OpenFile(name string, create bool) (File, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if f, ok := h.node.files[name]; ok {
		return &memFileHandle{store: h.store, node: f}, nil
	}
	if _, ok := h.node.dirs[name]; ok {
		return nil, ErrTypeMismatch
	}
	if !create {
		return nil, ErrNotFound
	}
	f := &memFile{modTime: time.Now()}
	h.node.files[name] = f
	return &memFileHandle{store: h.store, node: f}, nil
}

func (h *memDirHandle) Remove(name string, recursive bool) error {
	if !validName(name) {
		return ErrNotFound
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if f, ok := h.node.files[name]; ok {
		if f.locked {
			return ErrLocked
		}
		delete(h.node.files, name)
		return nil
	}
	if sub, ok := h.node.dirs[name]; ok {
		if !recursive && (len(sub.dirs) > 0 || len(sub.files) > 0) {
			return ErrInvalidModification
		}
		delete(h.node.dirs, name)
		return nil
	}
	return ErrNotFound
}

func (h *memDirHandle) Entries() ([]string, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	names := make([]string, 0, len(h.node.dirs)+len(h.node.files))
	for name := range h.node.dirs {
		names = append(names, name)
	}
	for name := range h.node.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type memFileHandle struct {
	store *Memory
	node  *memFile
}

func (h *memFileHandle) ReadAll() ([]byte, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	if h.node.locked {
		return nil, ErrLocked
	}
	out := make([]byte, len(h.node.data))
	copy(out, h.node.data)
	return out, nil
}

func (h *memFileHandle) ReadAt(p []byte, off int64) (int, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	if h.node.locked {
		return 0, ErrLocked
	}
	if off >= int64(len(h.node.data)) {
		return 0, nil
	}
	return copy(p, h.node.data[off:]), nil
}

func (h *memFileHandle) WriteAll(data []byte) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.node.locked {
		return ErrLocked
	}
	h.node.data = make([]byte, len(data))
	copy(h.node.data, data)
	h.node.modTime = time.Now()
	return nil
}

func (h *memFileHandle) Size() (int64, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	if h.node.locked {
		return 0, ErrLocked
	}
	return int64(len(h.node.data)), nil
}

func (h *memFileHandle) ModTime() (time.Time, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.node.modTime, nil
}
