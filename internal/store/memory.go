package store

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Updates are serialized by a mutex.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory { return &Memory{data: map[string][]byte{}} }

type memoryKV struct {
	data map[string][]byte
	w    *pending
}

func (kv *memoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := kv.w.lookup(key); ok {
		return v, nil
	}
	v, ok := kv.data[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (kv *memoryKV) Set(key string, value []byte) { kv.w.put(key, value) }
func (kv *memoryKV) Del(key string)               { kv.w.del(key) }

func (m *Memory) Update(ctx context.Context, fn func(kv KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv := &memoryKV{data: m.data, w: newPending()}
	if err := fn(kv); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range kv.w.order {
		if v := kv.w.vals[k]; v == nil {
			delete(m.data, k)
		} else {
			m.data[k] = v
		}
	}
	return nil
}

func (m *Memory) View(ctx context.Context, fn func(kv KV) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryKV{data: m.data, w: newPending()})
}

func (m *Memory) Close() error { return nil }

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
