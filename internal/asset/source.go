package asset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Source is where asset bytes come from.
type Source interface {
	ReadFile(name string) ([]byte, error)
	ModTime(name string) (time.Time, error)
}

// DirSource reads resources relative to a root directory.
type DirSource struct {
	Root string
}

func (d DirSource) path(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

func (d DirSource) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(d.path(name))
}

func (d DirSource) ModTime(name string) (time.Time, error) {
	info, err := os.Stat(d.path(name))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// MemSource is an in-memory Source. Put bumps the modification time so a
// PollWatcher sees every write.
type MemSource struct {
	mu    sync.Mutex
	files map[string]memFile
	clock time.Time
}

type memFile struct {
	data []byte
	mod  time.Time
}

func NewMemSource() *MemSource {
	return &MemSource{
		files: make(map[string]memFile),
		clock: time.Unix(0, 0),
	}
}

func (m *MemSource) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Second)
	m.files[name] = memFile{data: append([]byte(nil), data...), mod: m.clock}
}

func (m *MemSource) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

func (m *MemSource) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

func (m *MemSource) ModTime(name string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	if !ok {
		return time.Time{}, fmt.Errorf("stat %s: %w", name, fs.ErrNotExist)
	}
	return f.mod, nil
}
