// Package events carries the notifications emitted after state changes commit.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
)

type Kind string

const (
	SessionCreated     Kind = "session_created"
	SessionFinished    Kind = "session_finished"
	MovePlayed         Kind = "move_played"
	ChallengeCreated   Kind = "challenge_created"
	ChallengeAccepted  Kind = "challenge_accepted"
	ChallengeRejected  Kind = "challenge_rejected"
	ChallengeCancelled Kind = "challenge_cancelled"
	QueueJoined        Kind = "queue_joined"
	QueueCancelled     Kind = "queue_cancelled"
)

// Move describes a placed stone.
type Move struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Event is one outbound notification. Session carries the board snapshot
// for session_created, move_played and session_finished.
type Event struct {
	Kind      Kind               `json:"kind"`
	At        time.Time          `json:"at"`
	Account   string             `json:"account,omitempty"`
	Opponent  string             `json:"opponent,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Award     *domain.AwardTerms `json:"award,omitempty"`
	Move      *Move              `json:"move,omitempty"`
	Session   *domain.Session    `json:"session,omitempty"`
}

// Sink receives committed events.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds lists recorded event kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
