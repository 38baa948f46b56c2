package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Connect4-bot/internal/adapter/c4presenter"
	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/idgen"
	"github.com/park285/Cheese-Connect4-bot/internal/irisfast"
	"github.com/park285/Cheese-Connect4-bot/internal/msgcat"
	svc "github.com/park285/Cheese-Connect4-bot/internal/service/connect4"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

type outbox struct {
	mu     sync.Mutex
	texts  []string
	images int
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.texts) == 0 {
		return ""
	}
	return o.texts[len(o.texts)-1]
}

func newTestHandler(t *testing.T, images bool) (*Handler, *outbox) {
	t.Helper()
	st := store.NewMemory()
	s, err := svc.NewService(svc.Deps{
		Store:    st,
		IDs:      idgen.NewSeeded([]byte("bot")),
		Renderer: svc.NewPNGBoardRenderer(),
	}, svc.Config{StartingSlot: func([]byte) board.Slot { return board.First }})
	require.NoError(t, err)
	o := &outbox{}
	p := c4presenter.NewPresenter(
		func(room, msg string) error {
			o.mu.Lock()
			o.texts = append(o.texts, msg)
			o.mu.Unlock()
			return nil
		},
		func(room, img string) error {
			o.mu.Lock()
			o.images++
			o.mu.Unlock()
			return nil
		},
	)
	h := NewHandler(s, NewDirectory(st), c4presenter.NewFormatter(msgcat.MustDefault(), "!"), p, Options{
		Prefix:      "!",
		RoomAllowed: func(room string) bool { return room != "blocked" },
		BoardImages: images,
	}, nil)
	return h, o
}

func say(h *Handler, room, who, text string) {
	h.Handle(context.Background(), &irisfast.Message{Msg: text, Room: room, Sender: &who})
}

func sayAs(h *Handler, room, userID, name, text string) {
	h.Handle(context.Background(), &irisfast.Message{
		Msg: text, Room: room, Sender: &name, JSON: &irisfast.MessageJSON{UserID: userID},
	})
}

func TestQueueMatchAndWin(t *testing.T) {
	h, o := newTestHandler(t, true)

	say(h, "r", "철수", "!찾기")
	assert.Contains(t, o.last(), "철수님을 매칭 대기열에 등록했습니다")

	say(h, "r", "영희", "!찾기")
	assert.Contains(t, o.last(), "대국 시작! 영희 🔴 vs 철수 🟡")
	assert.Equal(t, 1, o.images)

	// 영희가 1열, 철수가 2열
	for i := 0; i < 3; i++ {
		say(h, "r", "영희", "!1")
		say(h, "r", "철수", "!2")
	}
	say(h, "r", "영희", "!1")
	assert.Contains(t, o.last(), "영희님 승리! (+10) / 철수님 (-5)")

	say(h, "r", "영희", "!랭킹")
	assert.Contains(t, o.last(), "1. 영희 - 10")
	assert.Contains(t, o.last(), "2. 철수 - -5")
}

func TestChallengeFlow(t *testing.T) {
	h, o := newTestHandler(t, false)

	say(h, "r", "b", "!도움")
	say(h, "r", "a", "!도전 @b 20 3")
	assert.Contains(t, o.last(), "a님이 b님에게 도전장을 보냈습니다. (승 +20 / 패 -3)")

	say(h, "r", "b", "!점수")
	assert.Contains(t, o.last(), "- a (승 +20 / 패 -3)")

	say(h, "r", "b", "!수락 a")
	assert.Contains(t, o.last(), "대국 시작! b 🔴 vs a 🟡")
	assert.Zero(t, o.images)

	say(h, "r", "a", "!3")
	assert.Equal(t, "지금은 당신의 차례가 아닙니다.", o.last())

	say(h, "r", "b", "!9")
	assert.Equal(t, "열 번호는 1부터 7까지입니다.", o.last())

	say(h, "r", "b", "!현황")
	assert.True(t, strings.HasSuffix(o.last(), "다음 차례: b"))
}

func TestRejectAndCancel(t *testing.T) {
	h, o := newTestHandler(t, false)

	say(h, "r", "b", "!도움")
	say(h, "r", "a", "!도전 b")
	say(h, "r", "b", "!거절 a")
	assert.Equal(t, "b님이 a님의 도전을 거절했습니다.", o.last())

	say(h, "r", "a", "!도전취소")
	assert.Equal(t, "해당 도전장이나 대기 기록이 없습니다.", o.last())

	say(h, "r", "a", "!찾기")
	say(h, "r", "a", "!찾기")
	assert.Equal(t, "이미 매칭 대기 중입니다.", o.last())
	say(h, "r", "a", "!취소")
	assert.Equal(t, "a님의 매칭 대기를 취소했습니다.", o.last())
}

func TestIgnoredMessages(t *testing.T) {
	h, o := newTestHandler(t, false)
	say(h, "blocked", "a", "!찾기")
	say(h, "r", "a", "찾기")
	h.Handle(context.Background(), nil)
	assert.Empty(t, o.texts)

	say(h, "r", "a", "!")
	assert.Contains(t, o.last(), "사목 명령어 안내")
}

func TestAccountOfPrefersUserID(t *testing.T) {
	name := "철수"
	assert.Equal(t, "777", AccountOf(&irisfast.Message{Sender: &name, JSON: &irisfast.MessageJSON{UserID: "777"}}))
	assert.Equal(t, "철수", AccountOf(&irisfast.Message{Sender: &name}))
}

func TestSameNameDifferentUsers(t *testing.T) {
	h, o := newTestHandler(t, true)
	ctx := context.Background()

	sayAs(h, "r", "uid-alice", "철수", "!찾기")
	assert.Contains(t, o.last(), "철수님을 매칭 대기열에 등록했습니다")

	// 같은 이름의 다른 사용자는 남의 대기를 취소할 수 없다
	sayAs(h, "r", "uid-mallory", "철수", "!취소")
	assert.Equal(t, "해당 도전장이나 대기 기록이 없습니다.", o.last())
	entries, err := h.svc.QueueEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "uid-alice", entries[0].Account)

	sayAs(h, "r", "uid-alice", "철수", "!취소")
	assert.Equal(t, "철수님의 매칭 대기를 취소했습니다.", o.last())

	sayAs(h, "r", "uid-bob", "영희", "!도전 철수")
	assert.Contains(t, o.last(), "철수(이)라는 이름이 여러 명 있습니다")
	sayAs(h, "r", "uid-bob", "영희", "!도전 민수")
	assert.Contains(t, o.last(), "민수님을 찾을 수 없습니다")

	sayAs(h, "r", "uid-bob", "영희", "!도전 uid-alice")
	assert.Contains(t, o.last(), "영희님이 철수님에게 도전장을 보냈습니다.")
	out, err := h.svc.Outgoing(ctx, "uid-bob")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "uid-alice", out.Opponent)

	sayAs(h, "r", "uid-mallory", "철수", "!수락 영희")
	assert.Equal(t, "해당 도전장이나 대기 기록이 없습니다.", o.last())

	sayAs(h, "r", "uid-alice", "철수", "!수락 영희")
	assert.Contains(t, o.last(), "대국 시작! 철수 🔴 vs 영희 🟡")
	sess, err := h.svc.ActiveSession(ctx, "uid-alice")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "uid-alice", sess.First)
	assert.Equal(t, "uid-bob", sess.Second)
	assert.Equal(t, 1, o.images)
}

func TestDirectoryFollowsRenames(t *testing.T) {
	st := store.NewMemory()
	d := NewDirectory(st)
	ctx := context.Background()

	require.NoError(t, d.Remember(ctx, "r", "uid-1", "철수"))
	require.NoError(t, d.Remember(ctx, "r", "uid-1", "철수"))
	got, err := d.Resolve(ctx, "r", "철수")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got)

	_, err = d.Resolve(ctx, "other", "철수")
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	require.NoError(t, d.Remember(ctx, "r", "uid-1", "민수"))
	_, err = d.Resolve(ctx, "r", "철수")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.Equal(t, "민수", d.Name(ctx, "uid-1"))
	assert.Equal(t, "uid-9", d.Name(ctx, "uid-9"))

	got, err = d.Resolve(ctx, "other", "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got)
}
