// Package store provides the atomic key/value backends under all game state.
//
// Every mutating operation runs inside Update. The closure sees its own
// writes, and either all of them land or none do. The closure may run more
// than once on contention, so it must not have side effects outside KV.
package store

import (
	"context"
	"errors"
)

// ErrConflict is returned when an update kept losing optimistic races.
var ErrConflict = errors.New("store: too many concurrent updates")

// KV is the view a transaction closure works against.
type KV interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(key string, value []byte)
	Del(key string)
}

// Backend runs atomic read-modify-write transactions.
type Backend interface {
	Update(ctx context.Context, fn func(kv KV) error) error
	// View runs fn read-only; writes made by fn are discarded.
	View(ctx context.Context, fn func(kv KV) error) error
	Close() error
}

// pending buffers writes in issue order.
type pending struct {
	vals  map[string][]byte // nil value = delete
	order []string
}

func newPending() *pending { return &pending{vals: map[string][]byte{}} }

func (p *pending) lookup(key string) ([]byte, bool) {
	v, ok := p.vals[key]
	return v, ok
}

func (p *pending) put(key string, value []byte) {
	if _, seen := p.vals[key]; !seen {
		p.order = append(p.order, key)
	}
	if value == nil {
		value = []byte{}
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	p.vals[key] = cp
}

func (p *pending) del(key string) {
	if _, seen := p.vals[key]; !seen {
		p.order = append(p.order, key)
	}
	p.vals[key] = nil
}

func (p *pending) empty() bool { return len(p.order) == 0 }
