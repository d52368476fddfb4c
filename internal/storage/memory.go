package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore 内存对象存储，用于local provider与测试
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// ListErr 设置后List直接失败，用于模拟存储级错误
	ListErr error
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) && !strings.HasSuffix(key, "/") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return nil
}

func (s *MemoryStore) Copy(ctx context.Context, sourceKey, targetKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[sourceKey]
	if !ok {
		return ErrNotFound
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[targetKey] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}
