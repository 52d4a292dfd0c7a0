package flags

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const tempPrefix = ".tmp-"

// FileStore keeps one file per key in a single directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// Write replaces the file for key via write-to-temp and rename, so concurrent
// readers see either the old or the new document, never a partial one.
func (s *FileStore) Write(key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *FileStore) Read(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key)) //nolint:gosec // G304: key is sanitized and base-named
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *FileStore) Delete(key string) {
	_ = os.Remove(s.path(key))
}

// Sweep removes every file except LogFile and the sqlite backend's files whose mtime is older than maxAge.
// Files that vanish mid-sweep are ignored.
func (s *FileStore) Sweep(maxAge time.Duration, now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == LogFile || strings.HasPrefix(e.Name(), DBFile) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}

func (s *FileStore) List() []Entry {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == LogFile || strings.HasPrefix(e.Name(), tempPrefix) || strings.HasPrefix(e.Name(), DBFile) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Key: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out
}

func (s *FileStore) Close() error { return nil }
