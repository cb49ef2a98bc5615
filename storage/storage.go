package storage

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Name returns the last element of the path.
func (f FileInfo) Name() string {
	return path.Base(f.Path)
}

// Storage defines the operations asrkit needs from a file backend.
type Storage interface {
	// Upload writes data from reader to the given path, replacing any
	// existing object.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller closes it. A missing object is a NOT_FOUND AppError.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns a URL locating the object or directory at path.
	URL(ctx context.Context, path string) (string, error)

	// List returns every object whose path starts with prefix, recursively,
	// sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// ReadAll downloads the object at p into memory.
func ReadAll(ctx context.Context, s Storage, p string) ([]byte, error) {
	rc, err := s.Download(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // read-only
	return io.ReadAll(rc)
}

// WriteString uploads content to p.
func WriteString(ctx context.Context, s Storage, p, content string) error {
	return s.Upload(ctx, p, strings.NewReader(content))
}

// DirLister is implemented by backends that can list one directory without
// descending into nested ones.
type DirLister interface {
	ListDir(ctx context.Context, dir string) ([]FileInfo, error)
}

// ListDir returns the files directly inside dir, sorted by path, skipping
// anything in nested directories. An empty dir means the backend root.
func ListDir(ctx context.Context, s Storage, dir string) ([]FileInfo, error) {
	if dl, ok := s.(DirLister); ok {
		files, err := dl.ListDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		return files, nil
	}
	prefix := DirPrefix(dir)
	all, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(all))
	for _, f := range all {
		rest := strings.TrimPrefix(f.Path, prefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// DirPrefix normalizes a directory path into a List prefix ending in "/",
// or "" for the root.
func DirPrefix(dir string) string {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

// Join joins a directory and a file name into a storage path.
func Join(dir, name string) string {
	return DirPrefix(dir) + name
}
