package storage

import (
	"context"
	"sync"
	"time"

	"careerhub-backend/errors"
)

// Memory is an in-process ObjectStore for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	contentType string
	data        []byte
}

func NewMemory() *Memory {
	return &Memory{objects: map[string]object{}}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{contentType: contentType, data: cp}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, errors.NotFoundf("object %s", key)
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (m *Memory) URL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}
