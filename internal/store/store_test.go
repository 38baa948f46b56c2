package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, opts ...RedisOption) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	r, err := DialRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), opts...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	r, _ := newTestRedis(t, WithMaxRetries(1000))
	return map[string]Backend{
		"memory": NewMemory(),
		"redis":  r,
	}
}

func TestReadYourWrites(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := b.Update(ctx, func(kv KV) error {
				if v, err := kv.Get(ctx, "k"); err != nil || v != nil {
					t.Fatalf("missing key: %q %v", v, err)
				}
				kv.Set("k", []byte("v1"))
				v, err := kv.Get(ctx, "k")
				if err != nil || string(v) != "v1" {
					t.Fatalf("read after set: %q %v", v, err)
				}
				kv.Del("k")
				if v, _ := kv.Get(ctx, "k"); v != nil {
					t.Fatalf("read after delete: %q", v)
				}
				kv.Set("other", []byte("x"))
				return nil
			})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			_ = b.View(ctx, func(kv KV) error {
				if v, _ := kv.Get(ctx, "k"); v != nil {
					t.Fatalf("deleted key persisted: %q", v)
				}
				if v, _ := kv.Get(ctx, "other"); string(v) != "x" {
					t.Fatalf("other = %q", v)
				}
				return nil
			})
		})
	}
}

func TestFailedUpdateWritesNothing(t *testing.T) {
	boom := errors.New("boom")
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = b.Update(ctx, func(kv KV) error { kv.Set("keep", []byte("1")); return nil })
			err := b.Update(ctx, func(kv KV) error {
				kv.Set("keep", []byte("2"))
				kv.Set("new", []byte("x"))
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("want boom, got %v", err)
			}
			_ = b.View(ctx, func(kv KV) error {
				if v, _ := kv.Get(ctx, "keep"); string(v) != "1" {
					t.Fatalf("keep = %q", v)
				}
				if v, _ := kv.Get(ctx, "new"); v != nil {
					t.Fatalf("new leaked: %q", v)
				}
				return nil
			})
		})
	}
}

func TestConcurrentIncrementsAreSerializable(t *testing.T) {
	const workers, per = 6, 15
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < per; i++ {
						err := b.Update(ctx, func(kv KV) error {
							raw, err := kv.Get(ctx, "counter")
							if err != nil {
								return err
							}
							n, _ := strconv.Atoi(string(raw))
							kv.Set("counter", []byte(strconv.Itoa(n+1)))
							return nil
						})
						if err != nil {
							errs <- err
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("update: %v", err)
			}
			_ = b.View(ctx, func(kv KV) error {
				raw, _ := kv.Get(ctx, "counter")
				if string(raw) != strconv.Itoa(workers*per) {
					t.Fatalf("counter = %s, want %d", raw, workers*per)
				}
				return nil
			})
		})
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	r, mr := newTestRedis(t, WithKeyPrefix("c4:"))
	ctx := context.Background()
	if err := r.Update(ctx, func(kv KV) error { kv.Set("nonce", []byte("7")); return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := mr.Get("c4:nonce")
	if err != nil || got != "7" {
		t.Fatalf("raw key = %q %v", got, err)
	}
}

func TestRedisUpdateConflictsWhenWatchedKeyChanges(t *testing.T) {
	r, _ := newTestRedis(t, WithMaxRetries(1))
	ctx := context.Background()
	other := redis.NewClient(&redis.Options{Addr: r.Client().Options().Addr})
	t.Cleanup(func() { _ = other.Close() })

	err := r.Update(ctx, func(kv KV) error {
		if _, err := kv.Get(ctx, "k"); err != nil {
			return err
		}
		if err := other.Set(ctx, "k", "theirs", 0).Err(); err != nil {
			return err
		}
		kv.Set("k", []byte("mine"))
		return nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	v, _ := other.Get(ctx, "k").Result()
	if v != "theirs" {
		t.Fatalf("k = %q", v)
	}
}

func TestParseRedisURL(t *testing.T) {
	o, err := ParseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Addr != "localhost:6380" || o.Password != "secret" || o.DB != 3 {
		t.Fatalf("options = %+v", o)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("http scheme must be rejected")
	}
}
