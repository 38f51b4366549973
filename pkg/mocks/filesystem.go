package mocks

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/user/accidentscan/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Directories are implied by the
// files below them and by MkdirAll. Missing paths report fs.ErrNotExist.
// Any Func field set overrides the in-memory behavior.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	ReadFileFunc  func(path string) ([]byte, error)
	ReadHeadFunc  func(path string, n int) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error
}

// NewFileSystem returns an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func clean(p string) string { return path.Clean(strings.ReplaceAll(p, "\\", "/")) }

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}

func (m *FileSystem) ReadFile(p string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(p)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[clean(p)]
	if !ok {
		return nil, notExist("open", p)
	}
	return append([]byte(nil), data...), nil
}

func (m *FileSystem) ReadHead(p string, n int) ([]byte, error) {
	if m.ReadHeadFunc != nil {
		return m.ReadHeadFunc(p, n)
	}
	data, err := m.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return data[:min(n, len(data))], nil
}

func (m *FileSystem) WriteFile(p string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(p, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	if m.dirs[p] {
		return fmt.Errorf("write %s: is a directory", p)
	}
	m.files[p] = append([]byte(nil), data...)
	m.markParents(p)
	return nil
}

func (m *FileSystem) MkdirAll(p string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.dirs[p] = true
	m.markParents(p)
	return nil
}

// markParents records every ancestor of p as a directory. Callers hold mu.
func (m *FileSystem) markParents(p string) {
	for dir := path.Dir(p); dir != "." && dir != "/" && !m.dirs[dir]; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *FileSystem) Exists(p string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(p)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p = clean(p)
	_, isFile := m.files[p]
	return isFile || m.dirs[p], nil
}

func (m *FileSystem) Remove(p string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		return nil
	}
	if m.dirs[p] {
		delete(m.dirs, p)
		return nil
	}
	return notExist("remove", p)
}

// PutFile seeds a file.
func (m *FileSystem) PutFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.files[p] = data
	m.markParents(p)
}

// GetFile returns a file's contents.
func (m *FileSystem) GetFile(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[clean(p)]
	return data, ok
}

// Paths lists stored files in sorted order.
func (m *FileSystem) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var _ ports.FileSystem = (*FileSystem)(nil)
