package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps each snapshot as a JSON file in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed.
// If dir is empty, defaults to <user config dir>/slocmap/snapshots.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		dir = filepath.Join(base, "slocmap", "snapshots")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *FileStore) Put(_ context.Context, s *Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(s.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, id string) (*Snapshot, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	f.mu.RLock()
	s, err := f.read(f.path(id))
	f.mu.RUnlock()
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		f.Delete(context.Background(), id)
		return nil, notFound(id)
	}
	return s, nil
}

func (f *FileStore) read(p string) (*Snapshot, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", filepath.Base(p), err)
	}
	return &s, nil
}

func (f *FileStore) List(_ context.Context) ([]*Snapshot, error) {
	var out []*Snapshot
	now := time.Now()
	err := f.each(func(_ string, s *Snapshot) {
		if !s.Expired(now) {
			out = append(out, s.summary())
		}
	})
	if err != nil {
		return nil, err
	}
	sortNewest(out)
	return out, nil
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) Cleanup(_ context.Context) error {
	var expired []string
	now := time.Now()
	err := f.each(func(p string, s *Snapshot) {
		if s.Expired(now) {
			expired = append(expired, p)
		}
	})
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range expired {
		os.Remove(p)
	}
	return nil
}

// each calls fn for every readable snapshot file. Unreadable files are skipped.
func (f *FileStore) each(fn func(path string, s *Snapshot)) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read snapshot dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		p := filepath.Join(f.dir, e.Name())
		s, err := f.read(p)
		if err != nil {
			continue
		}
		fn(p, s)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
