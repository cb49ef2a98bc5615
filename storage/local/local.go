// Package local implements storage.Storage on the local filesystem.
package local

import (
	"context"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

// Storage serves files below a base directory.
type Storage struct {
	basePath string
}

// NewStorage creates a local storage rooted at basePath, creating the
// directory if needed.
func NewStorage(basePath string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.IO("resolve", basePath, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.IO("mkdir", abs, err)
	}
	return &Storage{basePath: abs}, nil
}

// BasePath returns the absolute root directory.
func (s *Storage) BasePath() string { return s.basePath }

// resolve maps a storage path to a filesystem path that cannot escape the
// base directory.
func (s *Storage) resolve(p string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(filepath.Clean("/"+p)))
}

// Upload writes data from reader to a local file, creating parent
// directories.
func (s *Storage) Upload(_ context.Context, p string, reader io.Reader) error {
	fullPath := s.resolve(p)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return errors.IO("mkdir", p, err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return errors.IO("create", p, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		return errors.IO("write", p, err)
	}
	if err := f.Close(); err != nil {
		return errors.IO("close", p, err)
	}
	return nil
}

// Download opens the local file at p.
func (s *Storage) Download(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("file", p)
		}
		return nil, errors.IO("open", p, err)
	}
	return f, nil
}

// Delete removes a local file. Returns nil if the file does not exist.
func (s *Storage) Delete(_ context.Context, p string) error {
	if err := os.Remove(s.resolve(p)); err != nil && !os.IsNotExist(err) {
		return errors.IO("delete", p, err)
	}
	return nil
}

// Exists checks whether a local file exists.
func (s *Storage) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(s.resolve(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.IO("stat", p, err)
	}
	return true, nil
}

// URL returns a file:// URL for p.
func (s *Storage) URL(_ context.Context, p string) (string, error) {
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(s.resolve(p))}
	return u.String(), nil
}

// List walks the directory part of prefix and returns the files whose
// slash-separated relative path starts with prefix. Symlinks to regular
// files are listed like the files themselves.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	walkRoot := s.resolve(prefix)
	if !strings.HasSuffix(prefix, "/") && prefix != "" {
		walkRoot = filepath.Dir(walkRoot)
	}

	var files []storage.FileInfo
	err := filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, ok := regularFile(p, d)
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		files = append(files, fileInfo(rel, info))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.FileInfo{}, nil
		}
		return nil, errors.IO("list", prefix, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// ListDir reads only dir itself, so nested directories are never opened.
func (s *Storage) ListDir(_ context.Context, dir string) ([]storage.FileInfo, error) {
	prefix := storage.DirPrefix(dir)
	full := s.resolve(prefix)
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.FileInfo{}, nil
		}
		return nil, errors.IO("list", full, err)
	}

	files := make([]storage.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, ok := regularFile(filepath.Join(full, e.Name()), e)
		if !ok {
			continue
		}
		files = append(files, fileInfo(prefix+e.Name(), info))
	}
	return files, nil
}

// regularFile reports whether d is a regular file or a symlink resolving
// to one, and returns the file's info. Broken links are skipped.
func regularFile(p string, d fs.DirEntry) (fs.FileInfo, bool) {
	switch {
	case d.Type().IsRegular():
		info, err := d.Info()
		return info, err == nil
	case d.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		return info, true
	default:
		return nil, false
	}
}

func fileInfo(rel string, info fs.FileInfo) storage.FileInfo {
	ct := mime.TypeByExtension(filepath.Ext(rel))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return storage.FileInfo{
		Path:         rel,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ContentType:  ct,
	}
}

var (
	_ storage.Storage   = (*Storage)(nil)
	_ storage.DirLister = (*Storage)(nil)
)
