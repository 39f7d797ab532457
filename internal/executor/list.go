package executor

import (
	"context"
	"time"

	"github.com/opfskit/bridge/internal/shared/vpath"
	"github.com/opfskit/bridge/internal/store"
)

// Entry kinds as they appear on the wire.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// Entry describes one directory child. Size and LastModified are nil when
// an individual stat failed (for example because another writer holds the
// file); the entry is still emitted.
type Entry struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Kind         string  `json:"kind"`
	Size         *int64  `json:"size,omitempty"`
	LastModified *int64  `json:"lastModified,omitempty"`
	MimeType     string  `json:"mimeType,omitempty"`
	Children     []Entry `json:"children,omitempty"`
}

// list enumerates direct children of the directory at path, recursing into
// subdirectories while depth > 1. includeFiles/includeDirs filter per
// entry; an excluded directory prunes its whole subtree, an excluded file
// only drops itself.
func (e *Executor) list(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	depth := intParam(params, "depth", 1)
	if depth < 1 {
		depth = 1
	}
	includeFiles := boolParam(params, "includeFiles", true)
	includeDirs := boolParam(params, "includeDirs", true)

	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	dir, err := resolveDirectory(root, path, false)
	if err != nil {
		return nil, err
	}
	return e.listDir(ctx, dir, vpath.Normalize(path), depth, includeFiles, includeDirs)
}

func (e *Executor) listDir(ctx context.Context, dir store.Dir, base string, depth int, includeFiles, includeDirs bool) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := dir.Entries()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		childPath := vpath.Join(base, name)
		switch dir.Lookup(name) {
		case store.KindDirectory:
			if !includeDirs {
				continue
			}
			entry := Entry{Name: name, Path: childPath, Kind: KindDirectory}
			if depth > 1 {
				sub, err := dir.OpenDir(name, false)
				if err != nil {
					return nil, err
				}
				children, err := e.listDir(ctx, sub, childPath, depth-1, includeFiles, includeDirs)
				if err != nil {
					return nil, err
				}
				entry.Children = children
			}
			entries = append(entries, entry)
		case store.KindFile:
			if !includeFiles {
				continue
			}
			entry := Entry{Name: name, Path: childPath, Kind: KindFile, MimeType: mimeFromPath(childPath)}
			// Stat opportunistically; a file held by another writer is
			// still listed, minus the optional fields.
			if f, err := dir.OpenFile(name, false); err == nil {
				if size, err := f.Size(); err == nil {
					entry.Size = &size
					if mod, err := f.ModTime(); err == nil {
						ms := mod.UnixMilli()
						entry.LastModified = &ms
					}
				}
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// stat reports kind and metadata for one path. Directories carry no native
// timestamp in this model, so they report size 0 and "now".
func (e *Executor) stat(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	res, err := resolveAny(root, path)
	if err != nil {
		return nil, err
	}

	if res.kind == store.KindDirectory {
		return map[string]interface{}{
			"kind":         KindDirectory,
			"size":         0,
			"lastModified": time.Now().UnixMilli(),
		}, nil
	}

	size, err := res.file.Size()
	if err != nil {
		return nil, err
	}
	mod, err := res.file.ModTime()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"kind":         KindFile,
		"size":         size,
		"lastModified": mod.UnixMilli(),
		"mimeType":     mimeFromPath(path),
	}, nil
}
