package c4presenter

import (
	"errors"
	"strings"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/pvpc4"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
	"github.com/park285/Cheese-Connect4-bot/pkg/c4dto"
)

func toAward(a domain.AwardTerms) c4dto.Award { return c4dto.Award{Win: a.Win, Lose: a.Lose} }

// FromAward converts wire award terms, nil meaning the default.
func FromAward(a *c4dto.Award) *domain.AwardTerms {
	if a == nil {
		return nil
	}
	return &domain.AwardTerms{Win: a.Win, Lose: a.Lose}
}

func ToDTOSession(s *domain.Session) *c4dto.SessionState {
	if s == nil {
		return nil
	}
	out := &c4dto.SessionState{
		ID:           s.ID,
		First:        s.First,
		Second:       s.Second,
		Rows:         strings.Split(board.Text(s.Board), "\n"),
		State:        s.Lifecycle.String(),
		Award:        toAward(s.Award),
		Source:       string(s.Source),
		Moves:        s.Moves,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
	if s.Lifecycle.IsRunning() {
		out.Turn = s.AccountOf(s.Turn)
	}
	if w, ok := s.Lifecycle.Winner(); ok {
		out.Winner = w
	}
	return out
}

func ToDTOMove(o *pvpc4.Outcome) *c4dto.MoveResult {
	if o == nil {
		return nil
	}
	return &c4dto.MoveResult{
		State:    ToDTOSession(o.Session),
		Account:  o.Account,
		Column:   o.Column,
		Row:      o.Row,
		Finished: o.Finished(),
	}
}

func ToDTOChallenge(c *domain.ChallengeRecord) *c4dto.Challenge {
	if c == nil {
		return nil
	}
	return &c4dto.Challenge{
		Challenger: c.Challenger,
		Opponent:   c.Opponent,
		Award:      toAward(c.Award),
		CreatedAt:  c.CreatedAt,
	}
}

func ToDTOChallenges(list []domain.ChallengeRecord) []c4dto.Challenge {
	out := make([]c4dto.Challenge, 0, len(list))
	for i := range list {
		out = append(out, *ToDTOChallenge(&list[i]))
	}
	return out
}

// ToDTOProfile assembles an account view from its parts.
func ToDTOProfile(account string, score int64, st domain.PlayerStatus, outgoing *domain.ChallengeRecord, incoming []domain.ChallengeRecord) *c4dto.Profile {
	status := string(st.Kind)
	if st.Kind == domain.StatusIdle {
		status = "idle"
	}
	return &c4dto.Profile{
		Account:   account,
		Score:     score,
		Status:    status,
		SessionID: st.SessionID,
		Outgoing:  ToDTOChallenge(outgoing),
		Incoming:  ToDTOChallenges(incoming),
	}
}

// ToDTOScores ranks entries; ties share the higher rank.
func ToDTOScores(list []domain.ScoreEntry) []c4dto.ScoreEntry {
	out := make([]c4dto.ScoreEntry, 0, len(list))
	for i, e := range list {
		rank := i + 1
		if i > 0 && e.Score == list[i-1].Score {
			rank = out[i-1].Rank
		}
		out = append(out, c4dto.ScoreEntry{Rank: rank, Account: e.Account, Score: e.Score})
	}
	return out
}

func ToDTOQueue(list []domain.QueueEntry) []c4dto.QueueEntry {
	out := make([]c4dto.QueueEntry, 0, len(list))
	for _, e := range list {
		out = append(out, c4dto.QueueEntry{Account: e.Account, Score: e.Score, QueuedAt: e.QueuedAt})
	}
	return out
}

func ToDTOHistory(list []domain.GameResult) []c4dto.GameRecord {
	out := make([]c4dto.GameRecord, 0, len(list))
	for _, g := range list {
		out = append(out, c4dto.GameRecord{
			SessionID:  g.SessionID,
			First:      g.First,
			Second:     g.Second,
			Winner:     g.Winner,
			Result:     g.Result,
			Award:      toAward(g.Award),
			Source:     string(g.Source),
			Moves:      g.Moves,
			FinalBoard: strings.Split(g.FinalBoard, "\n"),
			StartedAt:  g.StartedAt,
			EndedAt:    g.EndedAt,
		})
	}
	return out
}

// ToDTOError maps err to its wire form. Store contention is retryable;
// anything else that is not a rejection becomes INTERNAL.
func ToDTOError(err error) c4dto.DomainError {
	var rej *domain.RejectError
	switch {
	case err == nil:
		return c4dto.DomainError{}
	case errors.As(err, &rej):
		return c4dto.DomainError{Code: string(rej.Code), Message: rej.Reason}
	case errors.Is(err, store.ErrConflict):
		return c4dto.DomainError{Code: CodeConflict, Message: "too many concurrent updates", Retryable: true}
	default:
		return c4dto.DomainError{Code: CodeInternal, Message: "internal error"}
	}
}

const (
	CodeConflict = "CONFLICT"
	CodeInternal = "INTERNAL"
)
