package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// inode is a shared data node so hardlinked names alias the same bytes.
type inode struct {
	data []byte
}

// Memory is an in-memory Backend for tests. It models hardlinks as shared
// inodes and offers fault hooks: refusing hardlinks entirely and producing
// truncated copies for a configurable number of attempts.
type Memory struct {
	mu    sync.Mutex
	files map[string]*inode
	dirs  map[string]bool

	// DenyHardLinks makes TryCreateHardLink always report false,
	// simulating a filesystem without hardlink support.
	DenyHardLinks bool
	// ShortCopies makes the next n CopyFile calls write only half of the
	// source bytes, simulating a partial copy.
	ShortCopies int
	// FailCopies makes the next n CopyFile calls fail outright.
	FailCopies int

	// CopyCalls counts CopyFile invocations, for asserting retry budgets.
	CopyCalls int
}

// NewMemory creates an empty in-memory backend with a root directory.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]*inode),
		dirs:  map[string]bool{"/": true},
	}
}

// WriteFile seeds a file, creating parent directories.
func (m *Memory) WriteFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(filepath.Dir(path))
	m.files[filepath.Clean(path)] = &inode{data: append([]byte(nil), data...)}
}

// ReadFile returns a copy of a file's contents.
func (m *Memory) ReadFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), node.data...), true
}

func (m *Memory) mkdirs(path string) {
	path = filepath.Clean(path)
	for path != "/" && path != "." {
		m.dirs[path] = true
		path = filepath.Dir(path)
	}
}

func (m *Memory) FileExists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok, nil
}

func (m *Memory) DirExists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[filepath.Clean(path)], nil
}

func (m *Memory) CreateDir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(path)
	return nil
}

func (m *Memory) DeleteFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := m.files[path]; !ok {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) DeleteDir(path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if !m.dirs[path] {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	prefix := path + string(filepath.Separator)
	if !recursive {
		for p := range m.files {
			if strings.HasPrefix(p, prefix) {
				return fmt.Errorf("directory not empty: %s", path)
			}
		}
	}
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *Memory) CopyFile(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CopyCalls++

	if m.FailCopies > 0 {
		m.FailCopies--
		return fmt.Errorf("injected copy failure: %s", src)
	}

	node, ok := m.files[filepath.Clean(src)]
	if !ok {
		return &os.PathError{Op: "open", Path: src, Err: os.ErrNotExist}
	}

	data := append([]byte(nil), node.data...)
	if m.ShortCopies > 0 {
		m.ShortCopies--
		data = data[:len(data)/2]
	}

	m.mkdirs(filepath.Dir(dst))
	m.files[filepath.Clean(dst)] = &inode{data: data}
	return nil
}

func (m *Memory) MoveFile(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	node, ok := m.files[src]
	if !ok {
		return &os.PathError{Op: "rename", Path: src, Err: os.ErrNotExist}
	}
	m.mkdirs(filepath.Dir(dst))
	m.files[dst] = node
	delete(m.files, src)
	return nil
}

func (m *Memory) TryCreateHardLink(src, dst string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DenyHardLinks {
		return false
	}
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	node, ok := m.files[src]
	if !ok {
		return false
	}
	if _, exists := m.files[dst]; exists {
		return false
	}
	m.mkdirs(filepath.Dir(dst))
	m.files[dst] = node // same inode: names alias the same bytes
	return true
}

func (m *Memory) FileSize(path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.files[filepath.Clean(path)]
	if !ok {
		return 0, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return int64(len(node.data)), nil
}

func (m *Memory) ListDirs(path string) ([]Entry, error) {
	return m.list(path, true)
}

func (m *Memory) ListFiles(path string) ([]Entry, error) {
	return m.list(path, false)
}

func (m *Memory) list(path string, dirs bool) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if !m.dirs[path] {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}

	prefix := path + string(filepath.Separator)
	if path == "/" {
		prefix = "/"
	}

	seen := make(map[string]bool)
	var out []Entry

	collect := func(p string) {
		if p == path || !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		if strings.Contains(rest, string(filepath.Separator)) {
			return // direct children only
		}
		if seen[rest] {
			return
		}
		seen[rest] = true
		out = append(out, Entry{Name: rest, Path: p})
	}

	if dirs {
		for d := range m.dirs {
			collect(d)
		}
	} else {
		for f := range m.files {
			collect(f)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
