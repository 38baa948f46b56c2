package c4dto

// MoveResult reports an accepted move. Column and Row are zero based.
type MoveResult struct {
	State    *SessionState `json:"state"`
	Account  string        `json:"account"`
	Column   int           `json:"column"`
	Row      int           `json:"row"`
	Finished bool          `json:"finished"`
}
