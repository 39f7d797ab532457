package executor

import (
	"context"
	"fmt"

	"github.com/opfskit/bridge/internal/shared/vpath"
	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/wire"
)

// delete resolves the parent directory and removes the named child.
// recursive must be set to remove a non-empty directory; otherwise the
// store's own non-recursive-removal failure propagates.
func (e *Executor) delete(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	recursive := boolParam(params, "recursive", false)

	if vpath.IsRoot(path) {
		return nil, fmt.Errorf("delete root: %w", store.ErrInvalidModification)
	}
	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	parent, err := resolveDirectory(root, vpath.Parent(path), false)
	if err != nil {
		return nil, err
	}
	if err := parent.Remove(vpath.Base(path), recursive); err != nil {
		return nil, fmt.Errorf("delete %q: %w", path, err)
	}
	return nil, nil
}

// copy duplicates a file or a whole directory subtree, depth-first. The
// backing store has no native recursive operation, so a large copy is an
// unbounded sequence of independent single-entry reads and writes; a
// concurrent external mutation of the source during the copy can yield a
// torn result. That is a documented limitation of the storage model.
func (e *Executor) copy(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	from, err := stringParam(params, "from")
	if err != nil {
		return nil, err
	}
	to, err := stringParam(params, "to")
	if err != nil {
		return nil, err
	}
	overwrite := boolParam(params, "overwrite", false)
	return nil, e.copyPath(ctx, from, to, overwrite)
}

// move is strictly copy followed by recursive delete of the source. There
// is no atomic rename primitive: a failure between the two steps leaves
// both the source and a complete copy at the destination.
func (e *Executor) move(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	from, err := stringParam(params, "from")
	if err != nil {
		return nil, err
	}
	to, err := stringParam(params, "to")
	if err != nil {
		return nil, err
	}
	overwrite := boolParam(params, "overwrite", false)

	if err := e.copyPath(ctx, from, to, overwrite); err != nil {
		return nil, err
	}
	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	parent, err := resolveDirectory(root, vpath.Parent(from), false)
	if err != nil {
		return nil, err
	}
	if err := parent.Remove(vpath.Base(from), true); err != nil {
		return nil, fmt.Errorf("delete source %q after copy: %w", from, err)
	}
	return nil, nil
}

func (e *Executor) copyPath(ctx context.Context, from, to string, overwrite bool) error {
	// A destination at or below the source would replicate the source into
	// itself without ever reaching a fixed point.
	if vpath.Within(from, to) {
		return wire.Errorf(wire.CodeInvalidModification, "cannot copy %q to %q: destination is the source or lies inside it", from, to)
	}
	root, err := e.store.Root()
	if err != nil {
		return err
	}
	src, err := resolveAny(root, from)
	if err != nil {
		return err
	}

	if src.kind == store.KindFile {
		dstParent, err := resolveDirectory(root, vpath.Parent(to), true)
		if err != nil {
			return err
		}
		return copyFileInto(src.file, dstParent, vpath.Base(to), overwrite)
	}

	dst, err := resolveDirectory(root, to, true)
	if err != nil {
		return err
	}
	return copyDir(ctx, src.dir, dst, overwrite)
}

// copyDir replicates every child of src into dst, preserving structure
// depth-first. Existing destination directories merge (directory creation
// is idempotent); file conflicts honor the overwrite flag.
func copyDir(ctx context.Context, src, dst store.Dir, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names, err := src.Entries()
	if err != nil {
		return err
	}
	for _, name := range names {
		switch src.Lookup(name) {
		case store.KindDirectory:
			srcSub, err := src.OpenDir(name, false)
			if err != nil {
				return err
			}
			dstSub, err := dst.OpenDir(name, true)
			if err != nil {
				return err
			}
			if err := copyDir(ctx, srcSub, dstSub, overwrite); err != nil {
				return err
			}
		case store.KindFile:
			f, err := src.OpenFile(name, false)
			if err != nil {
				return err
			}
			if err := copyFileInto(f, dst, name, overwrite); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFileInto(src store.File, dstParent store.Dir, name string, overwrite bool) error {
	if !overwrite && dstParent.Lookup(name) == store.KindFile {
		return wire.Errorf(wire.CodeInvalidModification, "destination %q already exists and overwrite is false", name)
	}
	data, err := src.ReadAll()
	if err != nil {
		return err
	}
	dst, err := dstParent.OpenFile(name, true)
	if err != nil {
		return err
	}
	return dst.WriteAll(data)
}
