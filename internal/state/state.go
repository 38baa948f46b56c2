// Package state maps the game tables onto a store transaction.
//
// Layout (keys are relative; the redis backend adds its own prefix):
//
//	session:<id>           JSON domain.Session
//	sessions               JSON []string, ids of stored sessions
//	player:<account>       JSON domain.PlayerStatus, absent when idle
//	queue                  JSON []string, queued accounts in enqueue order
//	challenges:to:<acct>   JSON []string, challengers aiming at acct
//	score:<account>        decimal int64
//	scores                 JSON []string, accounts holding a score entry
//	nonce                  decimal uint64
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

func sessionKey(id string) string       { return "session:" + id }
func playerKey(account string) string   { return "player:" + account }
func scoreKey(account string) string    { return "score:" + account }
func incomingKey(account string) string { return "challenges:to:" + account }

const (
	sessionsKey = "sessions"
	queueKey    = "queue"
	scoresKey   = "scores"
	nonceKey    = "nonce"
)

// Tx is one atomic unit of work. Events emitted on it are delivered only
// after the surrounding store update commits.
type Tx struct {
	kv     store.KV
	outbox []events.Event
}

func NewTx(kv store.KV) *Tx { return &Tx{kv: kv} }

// Emit queues an event for post-commit delivery.
func (t *Tx) Emit(e events.Event) { t.outbox = append(t.outbox, e) }

// Outbox returns the events emitted so far.
func (t *Tx) Outbox() []events.Event { return t.outbox }

func getJSON[T any](ctx context.Context, kv store.KV, key string) (*T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func putJSON(kv store.KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	kv.Set(key, raw)
	return nil
}

func getList(ctx context.Context, kv store.KV, key string) ([]string, error) {
	l, err := getJSON[[]string](ctx, kv, key)
	if err != nil || l == nil {
		return nil, err
	}
	return *l, nil
}

func putList(kv store.KV, key string, l []string) error {
	if len(l) == 0 {
		kv.Del(key)
		return nil
	}
	return putJSON(kv, key, l)
}

func getInt(ctx context.Context, kv store.KV, key string) (int64, bool, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil || raw == nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, true, nil
}

// Session returns nil when id is unknown.
func (t *Tx) Session(ctx context.Context, id string) (*domain.Session, error) {
	return getJSON[domain.Session](ctx, t.kv, sessionKey(id))
}

// PutSession stores s. The sessions index is read and rewritten only when
// s is new, so moves in different sessions never contend on it.
func (t *Tx) PutSession(ctx context.Context, s *domain.Session) error {
	existing, err := t.kv.Get(ctx, sessionKey(s.ID))
	if err != nil {
		return err
	}
	if existing == nil {
		if err := t.addToIndex(ctx, sessionsKey, s.ID); err != nil {
			return err
		}
	}
	return putJSON(t.kv, sessionKey(s.ID), s)
}

func (t *Tx) addToIndex(ctx context.Context, key, member string) error {
	members, err := getList(ctx, t.kv, key)
	if err != nil {
		return err
	}
	if slices.Contains(members, member) {
		return nil
	}
	return putList(t.kv, key, append(members, member))
}

func (t *Tx) DeleteSession(ctx context.Context, id string) error {
	ids, err := getList(ctx, t.kv, sessionsKey)
	if err != nil {
		return err
	}
	t.kv.Del(sessionKey(id))
	return putList(t.kv, sessionsKey, slices.DeleteFunc(ids, func(v string) bool { return v == id }))
}

// SessionIDs lists stored sessions in creation order.
func (t *Tx) SessionIDs(ctx context.Context) ([]string, error) {
	return getList(ctx, t.kv, sessionsKey)
}

// Status returns the account's activity; the zero value means idle.
func (t *Tx) Status(ctx context.Context, account string) (domain.PlayerStatus, error) {
	st, err := getJSON[domain.PlayerStatus](ctx, t.kv, playerKey(account))
	if err != nil || st == nil {
		return domain.PlayerStatus{}, err
	}
	return *st, nil
}

func (t *Tx) PutStatus(account string, st domain.PlayerStatus) error {
	if st.Kind == domain.StatusIdle {
		t.kv.Del(playerKey(account))
		return nil
	}
	return putJSON(t.kv, playerKey(account), st)
}

func (t *Tx) ClearStatus(account string) { t.kv.Del(playerKey(account)) }

// Queue returns queued accounts in enqueue order.
func (t *Tx) Queue(ctx context.Context) ([]string, error) { return getList(ctx, t.kv, queueKey) }

func (t *Tx) PutQueue(accounts []string) error { return putList(t.kv, queueKey, accounts) }

// Incoming lists challengers whose challenge targets account.
func (t *Tx) Incoming(ctx context.Context, account string) ([]string, error) {
	return getList(ctx, t.kv, incomingKey(account))
}

func (t *Tx) PutIncoming(account string, challengers []string) error {
	return putList(t.kv, incomingKey(account), challengers)
}

// Score returns the ledger entry; ok is false when the account has none.
func (t *Tx) Score(ctx context.Context, account string) (score int64, ok bool, err error) {
	return getInt(ctx, t.kv, scoreKey(account))
}

func (t *Tx) PutScore(ctx context.Context, account string, score int64) error {
	existing, err := t.kv.Get(ctx, scoreKey(account))
	if err != nil {
		return err
	}
	if existing == nil {
		if err := t.addToIndex(ctx, scoresKey, account); err != nil {
			return err
		}
	}
	t.kv.Set(scoreKey(account), []byte(strconv.FormatInt(score, 10)))
	return nil
}

// ScoredAccounts lists accounts with a ledger entry.
func (t *Tx) ScoredAccounts(ctx context.Context) ([]string, error) {
	return getList(ctx, t.kv, scoresKey)
}

// NextNonce increments and returns the persisted creation counter.
func (t *Tx) NextNonce(ctx context.Context) (uint64, error) {
	raw, err := t.kv.Get(ctx, nonceKey)
	if err != nil {
		return 0, err
	}
	var n uint64
	if raw != nil {
		if n, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
			return 0, fmt.Errorf("decode nonce: %w", err)
		}
	}
	n++
	t.kv.Set(nonceKey, []byte(strconv.FormatUint(n, 10)))
	return n, nil
}
