package domain

import "errors"

// Code classifies a rejected operation. Rejections never change state.
type Code string

const (
	CodeAlreadyHasActiveSession      Code = "ALREADY_HAS_ACTIVE_SESSION"
	CodeNoActiveSession              Code = "NO_ACTIVE_SESSION"
	CodeSelfPlayNotAllowed           Code = "SELF_PLAY_NOT_ALLOWED"
	CodeNotPlayerTurn                Code = "NOT_PLAYER_TURN"
	CodeNotRunning                   Code = "NOT_RUNNING"
	CodeInvalidColumn                Code = "INVALID_COLUMN"
	CodeColumnFull                   Code = "COLUMN_FULL"
	CodeNotFound                     Code = "NOT_FOUND"
	CodeAlreadyQueued                Code = "ALREADY_QUEUED"
	CodeOutstandingChallengeConflict Code = "OUTSTANDING_CHALLENGE_CONFLICT"
	CodeInvalidArgument              Code = "INVALID_ARGUMENT"
)

// RejectError is a caller-facing rejection.
type RejectError struct {
	Code   Code
	Reason string
}

func (e *RejectError) Error() string { return e.Reason }

func reject(code Code, reason string) *RejectError {
	return &RejectError{Code: code, Reason: reason}
}

var (
	ErrAlreadyHasActiveSession = reject(CodeAlreadyHasActiveSession, "player already has an active session")
	ErrNoActiveSession         = reject(CodeNoActiveSession, "player has no active session")
	ErrSelfPlayNotAllowed      = reject(CodeSelfPlayNotAllowed, "cannot play against yourself")
	ErrNotPlayerTurn           = reject(CodeNotPlayerTurn, "not your turn")
	ErrNotRunning              = reject(CodeNotRunning, "game is not running")
	ErrInvalidColumn           = reject(CodeInvalidColumn, "column out of range")
	ErrColumnFull              = reject(CodeColumnFull, "column is full")
	ErrNotFound                = reject(CodeNotFound, "not found")
	ErrAlreadyQueued           = reject(CodeAlreadyQueued, "player is already queued")
	// ErrAlreadyChallenging: the caller already holds an outstanding challenge.
	ErrAlreadyChallenging = reject(CodeOutstandingChallengeConflict, "you already have an outstanding challenge")
	// ErrCounterChallenge: the other party is itself challenging someone.
	ErrCounterChallenge = reject(CodeOutstandingChallengeConflict, "opponent has an outstanding challenge")
	ErrInvalidAccount   = reject(CodeInvalidArgument, "account is required")
)

// CodeOf returns the rejection code carried by err, or "" for other errors.
func CodeOf(err error) Code {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsRejection reports whether err is a domain rejection rather than an infrastructure failure.
func IsRejection(err error) bool { return CodeOf(err) != "" }
