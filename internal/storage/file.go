package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"ammcore/internal/model"
)

const lockRetryDelay = 10 * time.Millisecond

// FileStore keeps every pool in one JSON document, rewritten atomically
// through a temp file and rename on each save. Writers hold an OS lock on
// Path+".lock", so several processes may share one state file.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

type fileDocument struct {
	Pools []model.Pool `json:"pools"`
}

func (s *FileStore) LoadPool(_ context.Context, key string) (model.Pool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools, err := s.read()
	if err != nil {
		return model.Pool{}, false, err
	}
	pool, ok := pools[key]
	return pool, ok, nil
}

// SavePool writes pool unconditionally.
func (s *FileStore) SavePool(ctx context.Context, pool model.Pool) error {
	if pool.Key == "" {
		return fmt.Errorf("pool key required")
	}
	return s.locked(ctx, func(pools map[string]model.Pool) (bool, error) {
		pools[pool.Key] = pool
		return true, nil
	})
}

func (s *FileStore) CreatePool(ctx context.Context, pool model.Pool) (bool, error) {
	if pool.Key == "" {
		return false, fmt.Errorf("pool key required")
	}
	created := false
	err := s.locked(ctx, func(pools map[string]model.Pool) (bool, error) {
		if _, ok := pools[pool.Key]; ok {
			return false, nil
		}
		pools[pool.Key] = pool
		created = true
		return true, nil
	})
	return created, err
}

func (s *FileStore) UpdatePool(ctx context.Context, key string, fn UpdateFunc) (model.Pool, error) {
	var saved model.Pool
	err := s.locked(ctx, func(pools map[string]model.Pool) (bool, error) {
		current, ok := pools[key]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		next, err := fn(current)
		if err != nil {
			return false, err
		}
		next.Key = key
		pools[key] = next
		saved = next
		return true, nil
	})
	if err != nil {
		return model.Pool{}, err
	}
	return saved, nil
}

// locked runs a read-modify-write cycle while holding both the in-process
// mutex and the OS lock. The document is rewritten only when fn asks for it.
func (s *FileStore) locked(ctx context.Context, fn func(map[string]model.Pool) (bool, error)) error {
	if s.Path == "" {
		return fmt.Errorf("state file path required")
	}
	if err := s.ensureDir(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := flock.New(s.Path + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock state: %s is held by another writer", lock.Path())
	}
	defer lock.Unlock()

	pools, err := s.read()
	if err != nil {
		return err
	}
	dirty, err := fn(pools)
	if err != nil || !dirty {
		return err
	}
	return s.write(pools)
}

// ListPools returns all stored pools ordered by key.
func (s *FileStore) ListPools(_ context.Context) ([]model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]model.Pool, 0, len(pools))
	for _, pool := range pools {
		out = append(out, pool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *FileStore) read() (map[string]model.Pool, error) {
	pools := make(map[string]model.Pool)
	if s.Path == "" {
		return nil, fmt.Errorf("state file path required")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return pools, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	for _, pool := range doc.Pools {
		pools[pool.Key] = pool
	}
	return pools, nil
}

func (s *FileStore) ensureDir() error {
	dir := filepath.Dir(s.Path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return nil
}

func (s *FileStore) write(pools map[string]model.Pool) error {
	doc := fileDocument{Pools: make([]model.Pool, 0, len(pools))}
	for _, pool := range pools {
		doc.Pools = append(doc.Pools, pool)
	}
	sort.Slice(doc.Pools, func(i, j int) bool { return doc.Pools[i].Key < doc.Pools[j].Key })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
