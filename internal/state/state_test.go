package state

import (
	"context"
	"testing"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

func update(t *testing.T, b store.Backend, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := b.Update(ctx, func(kv store.KV) error { return fn(ctx, NewTx(kv)) }); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestNonceIsPersistedAndIncrements(t *testing.T) {
	b := store.NewMemory()
	var got []uint64
	for i := 0; i < 3; i++ {
		update(t, b, func(ctx context.Context, tx *Tx) error {
			n, err := tx.NextNonce(ctx)
			got = append(got, n)
			return err
		})
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("nonces = %v", got)
	}
}

func TestSessionIndexFollowsPutAndDelete(t *testing.T) {
	b := store.NewMemory()
	update(t, b, func(ctx context.Context, tx *Tx) error {
		for _, id := range []string{"a", "b", "a"} {
			if err := tx.PutSession(ctx, &domain.Session{ID: id, Lifecycle: domain.Running()}); err != nil {
				return err
			}
		}
		return tx.DeleteSession(ctx, "a")
	})
	update(t, b, func(ctx context.Context, tx *Tx) error {
		ids, err := tx.SessionIDs(ctx)
		if err != nil {
			return err
		}
		if len(ids) != 1 || ids[0] != "b" {
			t.Fatalf("ids = %v", ids)
		}
		s, err := tx.Session(ctx, "a")
		if err != nil || s != nil {
			t.Fatalf("deleted session = %+v %v", s, err)
		}
		return nil
	})
}

// readLog records the keys a transaction reads.
type readLog struct {
	store.KV
	reads []string
}

func (r *readLog) Get(ctx context.Context, key string) ([]byte, error) {
	r.reads = append(r.reads, key)
	return r.KV.Get(ctx, key)
}

func TestUpdatesOfExistingEntriesSkipIndexes(t *testing.T) {
	b := store.NewMemory()
	update(t, b, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutSession(ctx, &domain.Session{ID: "g1", Lifecycle: domain.Running()}); err != nil {
			return err
		}
		return tx.PutScore(ctx, "alice", 10)
	})

	var log *readLog
	ctx := context.Background()
	err := b.Update(ctx, func(kv store.KV) error {
		log = &readLog{KV: kv}
		tx := NewTx(log)
		if err := tx.PutSession(ctx, &domain.Session{ID: "g1", Lifecycle: domain.Running(), Moves: 1}); err != nil {
			return err
		}
		return tx.PutScore(ctx, "alice", 15)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, key := range log.reads {
		if key == sessionsKey || key == scoresKey {
			t.Fatalf("existing entries read index %q; reads = %v", key, log.reads)
		}
	}

	update(t, b, func(ctx context.Context, tx *Tx) error {
		ids, err := tx.SessionIDs(ctx)
		if err != nil || len(ids) != 1 || ids[0] != "g1" {
			t.Fatalf("ids = %v %v", ids, err)
		}
		accts, err := tx.ScoredAccounts(ctx)
		if err != nil || len(accts) != 1 || accts[0] != "alice" {
			t.Fatalf("scored = %v %v", accts, err)
		}
		s, err := tx.Session(ctx, "g1")
		if err != nil || s == nil || s.Moves != 1 {
			t.Fatalf("session = %+v %v", s, err)
		}
		return nil
	})
}

func TestStatusIdleIsAbsent(t *testing.T) {
	b := store.NewMemory()
	update(t, b, func(ctx context.Context, tx *Tx) error {
		st, err := tx.Status(ctx, "alice")
		if err != nil || st.Kind != domain.StatusIdle {
			t.Fatalf("fresh status = %+v %v", st, err)
		}
		if err := tx.PutStatus("alice", domain.Playing("g1")); err != nil {
			return err
		}
		return tx.PutStatus("bob", domain.PlayerStatus{})
	})
	if b.Len() != 1 {
		t.Fatalf("idle status must not be stored, keys = %d", b.Len())
	}
}

func TestScoresIndexAndEmptyListsRemoved(t *testing.T) {
	b := store.NewMemory()
	update(t, b, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutScore(ctx, "a", -5); err != nil {
			return err
		}
		if err := tx.PutScore(ctx, "a", 5); err != nil {
			return err
		}
		if err := tx.PutQueue([]string{"x"}); err != nil {
			return err
		}
		return tx.PutQueue(nil)
	})
	update(t, b, func(ctx context.Context, tx *Tx) error {
		accts, _ := tx.ScoredAccounts(ctx)
		if len(accts) != 1 || accts[0] != "a" {
			t.Fatalf("scored = %v", accts)
		}
		v, ok, err := tx.Score(ctx, "a")
		if err != nil || !ok || v != 5 {
			t.Fatalf("score = %d %v %v", v, ok, err)
		}
		if _, ok, _ := tx.Score(ctx, "nobody"); ok {
			t.Fatalf("absent entry reported present")
		}
		q, _ := tx.Queue(ctx)
		if len(q) != 0 {
			t.Fatalf("queue = %v", q)
		}
		return nil
	})
}

func TestOutbox(t *testing.T) {
	tx := NewTx(nil)
	tx.Emit(events.Event{Kind: events.QueueJoined})
	tx.Emit(events.Event{Kind: events.QueueCancelled})
	if len(tx.Outbox()) != 2 || tx.Outbox()[1].Kind != events.QueueCancelled {
		t.Fatalf("outbox = %+v", tx.Outbox())
	}
}
