package fdt

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var loaderLog = logrus.StandardLogger()

// SetLogger replaces the logger OpenFile and FileCache use, so an
// embedding application can route facade diagnostics into its own
// logging pipeline instead of logrus's default stderr output.
func SetLogger(l *logrus.Logger) {
	loaderLog = l
}

// loadedFile is a memory-mapped or heap-loaded DTB blob plus the means
// to release it.
type loadedFile struct {
	data   []byte
	mapped bool
}

func (f *loadedFile) Close() error {
	if f.mapped {
		return unix.Munmap(f.data)
	}
	return nil
}

// OpenFile loads a DTB from disk and parses it. It prefers a read-only
// mmap of the file, so the returned Parser borrows pages straight from
// the kernel page cache rather than copying the whole blob onto the Go
// heap, consistent with the core decoder's own zero-copy discipline. On
// platforms or filesystems where mmap fails (network filesystems,
// special files), it falls back to a plain read.
//
// This is an out-of-core facade, not part of the core FDT decoder.
func OpenFile(path string) (*Parser, func() error, error) {
	loaderLog.WithField("path", path).Debug("fdt: opening file")

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fdt: open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fdt: stat %s", path)
	}
	if st.Size() == 0 {
		return nil, nil, errors.Errorf("fdt: %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	lf := &loadedFile{mapped: err == nil}
	if err != nil {
		loaderLog.WithError(err).WithField("path", path).Warn("fdt: mmap failed, falling back to ReadFile")
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "fdt: read %s", path)
		}
		lf.mapped = false
	}
	lf.data = data

	p, err := Open(data)
	if err != nil {
		lf.Close()
		return nil, nil, errors.Wrapf(err, "fdt: parse %s", path)
	}
	return p, lf.Close, nil
}

// FileCache bounds the cost of repeatedly opening the same DTB path,
// for tools that re-inspect a small
// fixed set of device trees many times. Grounded on
// github.com/hashicorp/golang-lru, pulled from the btrfs recovery
// tool's dependency stack; its pre-generics v0.5 API (interface{}
// values) is what that pack version exposes.
type FileCache struct {
	cache *lru.Cache
}

// NewFileCache returns a FileCache holding at most size parsed files.
func NewFileCache(size int) (*FileCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "fdt: create file cache")
	}
	return &FileCache{cache: c}, nil
}

// cacheEntry pairs a cached Parser with the release function OpenFile
// returned for it. Get hands out only the Parser; Purge calls the
// release function of every entry still in the cache.
type cacheEntry struct {
	parser *Parser
	close  func() error
}

// Get returns the Parser for path, loading and caching it on first
// access. The absolute path is used as the cache key so relative and
// symlinked references to the same file still share one entry.
func (c *FileCache) Get(path string) (*Parser, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "fdt: resolve %s", path)
	}
	if v, ok := c.cache.Get(abs); ok {
		return v.(*cacheEntry).parser, nil
	}
	p, closeFn, err := OpenFile(abs)
	if err != nil {
		return nil, err
	}
	c.cache.Add(abs, &cacheEntry{parser: p, close: closeFn})
	return p, nil
}

// Purge releases every cached entry's backing mapping and empties the
// cache.
func (c *FileCache) Purge() {
	for _, key := range c.cache.Keys() {
		if v, ok := c.cache.Peek(key); ok {
			if err := v.(*cacheEntry).close(); err != nil {
				loaderLog.WithError(err).WithField("path", key).Warn("fdt: closing cached file")
			}
		}
	}
	c.cache.Purge()
}
