package c4dto

type ChallengeRequest struct {
	Opponent string `json:"opponent"`
	Award    *Award `json:"award,omitempty"`
}

type RespondRequest struct {
	Challenger string `json:"challenger"`
	Accept     bool   `json:"accept"`
}

// PlayRequest names a zero-based column. Column is required.
type PlayRequest struct {
	Column *int `json:"column"`
}

// MatchResponse carries the new session, or Queued when still waiting.
type MatchResponse struct {
	Queued  bool          `json:"queued"`
	Session *SessionState `json:"session,omitempty"`
}
