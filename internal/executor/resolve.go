package executor

import (
	"fmt"

	"github.com/opfskit/bridge/internal/shared/vpath"
	"github.com/opfskit/bridge/internal/store"
)

// resolveDirectory walks from root one directory level per path segment,
// creating missing levels when create is set.
func resolveDirectory(root store.Dir, path string, create bool) (store.Dir, error) {
	dir := root
	for _, seg := range vpath.Segments(path) {
		next, err := dir.OpenDir(seg, create)
		if err != nil {
			return nil, fmt.Errorf("open directory %q: %w", seg, err)
		}
		dir = next
	}
	return dir, nil
}

// resolveFile walks all but the last segment as directories, then opens the
// last segment as a file.
func resolveFile(root store.Dir, path string, create bool) (store.File, error) {
	segs := vpath.Segments(path)
	if len(segs) == 0 {
		return nil, fmt.Errorf("open file %q: %w", path, store.ErrTypeMismatch)
	}
	parent, err := resolveDirectory(root, vpath.Parent(path), create)
	if err != nil {
		return nil, err
	}
	name := segs[len(segs)-1]
	f, err := parent.OpenFile(name, create)
	if err != nil {
		return nil, fmt.Errorf("open file %q: %w", name, err)
	}
	return f, nil
}

// resolved is the tagged outcome of resolveAny: exactly one of dir or file
// is set, matching kind.
type resolved struct {
	kind store.Kind
	dir  store.Dir
	file store.File
}

// resolveAny resolves a path whose kind the caller does not know a priori.
// The final segment is classified with a single Lookup so the decision is a
// branch on a tagged value, not a probe-and-fallback.
func resolveAny(root store.Dir, path string) (resolved, error) {
	if vpath.IsRoot(path) {
		return resolved{kind: store.KindDirectory, dir: root}, nil
	}
	parent, err := resolveDirectory(root, vpath.Parent(path), false)
	if err != nil {
		return resolved{}, err
	}
	name := vpath.Base(path)
	switch parent.Lookup(name) {
	case store.KindDirectory:
		dir, err := parent.OpenDir(name, false)
		if err != nil {
			return resolved{}, err
		}
		return resolved{kind: store.KindDirectory, dir: dir}, nil
	case store.KindFile:
		f, err := parent.OpenFile(name, false)
		if err != nil {
			return resolved{}, err
		}
		return resolved{kind: store.KindFile, file: f}, nil
	default:
		return resolved{}, fmt.Errorf("resolve %q: %w", path, store.ErrNotFound)
	}
}
