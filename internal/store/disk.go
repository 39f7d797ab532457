package store

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Disk is a store rooted at a per-target directory on the host filesystem,
// the same model the original storage uses for a per-origin private root.
type Disk struct {
	root  string
	quota uint64
}

// DiskOption configures a Disk store.
type DiskOption func(*Disk)

// WithDiskQuota sets the advertised quota in bytes. Zero means "platform
// omits the figure" and is reported as-is.
func WithDiskQuota(quota uint64) DiskOption {
	return func(d *Disk) { d.quota = quota }
}

// NewDisk creates a store rooted at dir, creating the directory when absent.
func NewDisk(dir string, opts ...DiskOption) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mapOSError(err)
	}
	d := &Disk{root: dir}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Disk) Root() (Dir, error) {
	return &diskDir{path: d.root}, nil
}

func (d *Disk) Available() (bool, string) {
	info, err := os.Stat(d.root)
	if err != nil {
		return false, "storage root not accessible: " + err.Error()
	}
	if !info.IsDir() {
		return false, "storage root is not a directory"
	}
	return true, ""
}

// Estimate walks the root and sums file sizes. Quota is whatever was
// configured; zero when unset.
func (d *Disk) Estimate() (uint64, uint64, error) {
	var usage uint64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, d.root, func(_ string, de os.DirEntry, err error) error {
		if err != nil || de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		usage += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, 0, mapOSError(err)
	}
	return usage, d.quota, nil
}

// validName rejects child names that would traverse outside the handle's
// directory. The virtual path layer never produces such names; this guards
// the raw handle API.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsRune(name, os.PathSeparator)
}

type diskDir struct {
	path string
}

func (d *diskDir) Lookup(name string) Kind {
	if !validName(name) {
		return KindMissing
	}
	info, err := os.Stat(filepath.Join(d.path, name))
	if err != nil {
		return KindMissing
	}
	if info.IsDir() {
		return KindDirectory
	}
	return KindFile
}

func (d *diskDir) OpenDir(name string, create bool) (Dir, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	p := filepath.Join(d.path, name)
	info, err := os.Stat(p)
	switch {
	case err == nil && info.IsDir():
		return &diskDir{path: p}, nil
	case err == nil:
		return nil, ErrTypeMismatch
	case !errors.Is(err, fs.ErrNotExist):
		return nil, mapOSError(err)
	case !create:
		return nil, ErrNotFound
	}
	if err := os.Mkdir(p, 0o755); err != nil {
		return nil, mapOSError(err)
	}
	return &diskDir{path: p}, nil
}

func (d *diskDir) OpenFile(name string, create bool) (File, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	p := filepath.Join(d.path, name)
	info, err := os.Stat(p)
	switch {
	case err == nil && info.IsDir():
		return nil, ErrTypeMismatch
	case err == nil:
		return &diskFile{path: p}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, mapOSError(err)
	case !create:
		return nil, ErrNotFound
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, mapOSError(err)
	}
	if err := f.Close(); err != nil {
		return nil, mapOSError(err)
	}
	return &diskFile{path: p}, nil
}

func (d *diskDir) Remove(name string, recursive bool) error {
	if !validName(name) {
		return ErrNotFound
	}
	p := filepath.Join(d.path, name)
	info, err := os.Stat(p)
	if err != nil {
		return mapOSError(err)
	}
	if info.IsDir() && recursive {
		return mapOSError(os.RemoveAll(p))
	}
	return mapOSError(os.Remove(p))
}

func (d *diskDir) Entries() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, mapOSError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

type diskFile struct {
	path string
}

func (f *diskFile) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, mapOSError(err)
	}
	return data, nil
}

func (f *diskFile) ReadAt(p []byte, off int64) (int, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return 0, mapOSError(err)
	}
	defer fh.Close()
	n, err := fh.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, mapOSError(err)
	}
	return n, nil
}

// WriteAll replaces the content and syncs before returning, so durability
// holds once the call resolves.
func (f *diskFile) WriteAll(data []byte) error {
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return mapOSError(err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return mapOSError(err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return mapOSError(err)
	}
	return mapOSError(fh.Close())
}

func (f *diskFile) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, mapOSError(err)
	}
	return info.Size(), nil
}

func (f *diskFile) ModTime() (time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, mapOSError(err)
	}
	return info.ModTime(), nil
}

// mapOSError folds host filesystem failures onto the store's sentinel set.
func mapOSError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrNotAllowed
	case errors.Is(err, syscall.ENOTEMPTY), errors.Is(err, syscall.EEXIST):
		return ErrInvalidModification
	case errors.Is(err, syscall.ENOTDIR), errors.Is(err, syscall.EISDIR):
		return ErrTypeMismatch
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return ErrLocked
	}
	return err
}
