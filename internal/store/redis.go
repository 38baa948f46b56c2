package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/obslog"
)

const defaultMaxRetries = 16

// Redis runs transactions with WATCH/MULTI/EXEC. Every key read inside the
// closure is watched first; writes are buffered and committed in one
// pipeline. A concurrent write to any read key aborts EXEC and the closure
// is retried.
type Redis struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
}

type RedisOption func(*Redis)

// WithKeyPrefix namespaces every key, e.g. "c4:".
func WithKeyPrefix(p string) RedisOption { return func(r *Redis) { r.prefix = p } }

func WithMaxRetries(n int) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, maxRetries: defaultMaxRetries}
	for _, o := range opts {
		o(r)
	}
	return r
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, redisURL string, opts ...RedisOption) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	o, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(o)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb, opts...), nil
}

// Client exposes the underlying connection for publishers sharing it.
func (r *Redis) Client() *redis.Client { return r.rdb }

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

type redisKV struct {
	tx      *redis.Tx
	prefix  string
	watched map[string]struct{}
	w       *pending
	// readOnly views skip WATCH
	readOnly bool
}

func (kv *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := kv.w.lookup(key); ok {
		return v, nil
	}
	full := kv.prefix + key
	if !kv.readOnly {
		if _, ok := kv.watched[full]; !ok {
			if err := kv.tx.Watch(ctx, full).Err(); err != nil {
				return nil, fmt.Errorf("watch %s: %w", key, err)
			}
			kv.watched[full] = struct{}{}
		}
	}
	raw, err := kv.tx.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return raw, nil
}

func (kv *redisKV) Set(key string, value []byte) { kv.w.put(key, value) }
func (kv *redisKV) Del(key string)               { kv.w.del(key) }

func (r *Redis) Update(ctx context.Context, fn func(kv KV) error) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			kv := &redisKV{tx: tx, prefix: r.prefix, watched: map[string]struct{}{}, w: newPending()}
			if err := fn(kv); err != nil {
				return err
			}
			if kv.w.empty() {
				return nil
			}
			_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				for _, k := range kv.w.order {
					if v := kv.w.vals[k]; v == nil {
						p.Del(ctx, r.prefix+k)
					} else {
						p.Set(ctx, r.prefix+k, v, 0)
					}
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			obslog.L().Debug("store_tx_retry", zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
	obslog.L().Warn("store_tx_conflict", zap.Int("max_retries", r.maxRetries))
	return ErrConflict
}

func (r *Redis) View(ctx context.Context, fn func(kv KV) error) error {
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		return fn(&redisKV{tx: tx, prefix: r.prefix, w: newPending(), readOnly: true})
	})
}

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional /db path.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
