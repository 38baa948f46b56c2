package connect4

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/idgen"
	"github.com/park285/Cheese-Connect4-bot/internal/metrics"
	"github.com/park285/Cheese-Connect4-bot/internal/pvpc4"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

var drawSequence = []int{5, 3, 2, 3, 1, 5, 3, 1, 0, 1, 4, 1, 2, 5, 0, 5, 6, 6, 2, 0, 6, 0, 4, 2, 3, 0, 3, 4, 2, 3, 2, 6, 0, 4, 1, 1, 5, 4, 4, 5, 6, 6}

type fixture struct {
	svc     *Service
	rec     *events.Recorder
	results *pvpc4.MemoryResults
	metrics *metrics.Metrics
}

func backends(t *testing.T) map[string]func() store.Backend {
	return map[string]func() store.Backend{
		"memory": func() store.Backend { return store.NewMemory() },
		"redis": func() store.Backend {
			mr := miniredis.RunT(t)
			return store.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), store.WithKeyPrefix("c4test:"))
		},
	}
}

func newFixture(t *testing.T, b store.Backend) *fixture {
	t.Helper()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		rec:     &events.Recorder{},
		results: pvpc4.NewMemoryResults(),
		metrics: metrics.New("c4svc"),
	}
	svc, err := NewService(Deps{
		Store:    b,
		IDs:      idgen.NewSeeded([]byte("service-test")),
		Results:  f.results,
		Renderer: NewPNGBoardRenderer(),
		Sink:     f.rec,
		Metrics:  f.metrics,
	}, Config{
		Clock:        func() time.Time { return t0 },
		StartingSlot: func([]byte) board.Slot { return board.First },
	})
	require.NoError(t, err)
	f.svc = svc
	t.Cleanup(func() { _ = svc.Close() })
	return f
}

func TestQueueGameToWin(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, mk())
			ctx := context.Background()

			sess, err := f.svc.FindMatch(ctx, "alice")
			require.NoError(t, err)
			assert.Nil(t, sess)

			sess, err = f.svc.FindMatch(ctx, "bob")
			require.NoError(t, err)
			require.NotNil(t, sess)
			assert.Equal(t, "bob", sess.First)
			assert.Equal(t, "alice", sess.Second)
			assert.Equal(t, domain.DefaultAward, sess.Award)

			// bob stacks column 0, alice column 1
			var last *pvpc4.Outcome
			for i := 0; i < 7; i++ {
				who, col := "bob", 0
				if i%2 == 1 {
					who, col = "alice", 1
				}
				last, err = f.svc.PlayTurn(ctx, who, col)
				require.NoError(t, err, "move %d", i)
			}
			require.True(t, last.Finished())
			winner, ok := last.Session.Lifecycle.Winner()
			require.True(t, ok)
			assert.Equal(t, "bob", winner)

			bob, err := f.svc.Score(ctx, "bob")
			require.NoError(t, err)
			alice, err := f.svc.Score(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(10), bob)
			assert.Equal(t, int64(-5), alice)

			lb, err := f.svc.Leaderboard(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, []domain.ScoreEntry{{Account: "bob", Score: 10}, {Account: "alice", Score: -5}}, lb)

			active, err := f.svc.ActiveSession(ctx, "bob")
			require.NoError(t, err)
			assert.Nil(t, active)
			_, err = f.svc.Session(ctx, sess.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			hist, err := f.svc.History(ctx, "alice", 0)
			require.NoError(t, err)
			require.Len(t, hist, 1)
			assert.Equal(t, "first", hist[0].Result)
			assert.Equal(t, 7, hist[0].Moves)

			kinds := f.rec.Kinds()
			assert.Equal(t, events.QueueJoined, kinds[0])
			assert.Equal(t, events.SessionCreated, kinds[1])
			assert.Equal(t, events.SessionFinished, kinds[len(kinds)-1])
			assert.Equal(t, float64(7), testutil.ToFloat64(f.metrics.MovesPlayed))
			assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionsFinished.WithLabelValues("won")))
		})
	}
}

func TestChallengeGameToDraw(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, mk())
			ctx := context.Background()

			terms := domain.AwardTerms{Win: 30, Lose: 1}
			_, err := f.svc.Challenge(ctx, "x", "y", &terms)
			require.NoError(t, err)

			in, err := f.svc.Incoming(ctx, "y")
			require.NoError(t, err)
			require.Len(t, in, 1)

			sess, err := f.svc.Respond(ctx, "y", "x", true)
			require.NoError(t, err)
			require.NotNil(t, sess)
			assert.Equal(t, "y", sess.First)
			assert.Equal(t, terms, sess.Award)

			players := [2]string{"y", "x"}
			var last *pvpc4.Outcome
			for i, col := range drawSequence {
				last, err = f.svc.PlayTurn(ctx, players[i%2], col)
				require.NoError(t, err, "move %d", i)
			}
			require.True(t, last.Finished())
			assert.True(t, last.Session.Lifecycle.IsDraw())

			lb, err := f.svc.Leaderboard(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, lb)

			hist, err := f.svc.History(ctx, "x", 0)
			require.NoError(t, err)
			require.Len(t, hist, 1)
			assert.Equal(t, "draw", hist[0].Result)

			active, queued, err := f.svc.Counts(ctx)
			require.NoError(t, err)
			assert.Zero(t, active)
			assert.Zero(t, queued)
		})
	}
}

func TestRejectionIsCountedAndNotPublished(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	ctx := context.Background()

	_, err := f.svc.PlayTurn(ctx, "nobody", 3)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Empty(t, f.rec.Events())
	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.Rejections.WithLabelValues(OpPlayTurn, string(domain.CodeNoActiveSession))))

	_, err = f.svc.Challenge(ctx, "a", "a", nil)
	assert.ErrorIs(t, err, domain.ErrSelfPlayNotAllowed)
}

type brokenSink struct{}

func (brokenSink) Publish(context.Context, events.Event) error { return errors.New("sink down") }

func TestSinkFailureKeepsCommittedState(t *testing.T) {
	svc, err := NewService(Deps{
		Store: store.NewMemory(),
		IDs:   idgen.NewSeeded([]byte("sink")),
		Sink:  brokenSink{},
	}, Config{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.FindMatch(ctx, "a")
	require.NoError(t, err)
	entries, err := svc.QueueEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Account)

	st, err := svc.Status(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, st.Kind)
}

func TestRenderBoard(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	ctx := context.Background()

	_, err := f.svc.Challenge(ctx, "p", "q", nil)
	require.NoError(t, err)
	sess, err := f.svc.Respond(ctx, "q", "p", true)
	require.NoError(t, err)
	out, err := f.svc.PlayTurn(ctx, "q", 3)
	require.NoError(t, err)

	img, err := f.svc.RenderBoard(ctx, out.Session, &CellRef{Column: out.Column, Row: out.Row}, nil)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, cellSize*board.Columns+sideMargin*2, decoded.Bounds().Dx())
	assert.Equal(t, cellSize*board.Rows+topMargin+bottomMargin, decoded.Bounds().Dy())
	assert.Equal(t, sess.ID, out.Session.ID)
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(Deps{IDs: idgen.NewSeeded(nil)}, Config{})
	assert.Error(t, err)
	_, err = NewService(Deps{Store: store.NewMemory()}, Config{})
	assert.Error(t, err)
}
