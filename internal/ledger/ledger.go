// Package ledger keeps the per-account score table.
package ledger

import (
	"context"
	"sort"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/state"
)

// Ledger credits winners and debits losers. Entries are created lazily and
// may go negative.
type Ledger struct{}

func New() *Ledger { return &Ledger{} }

// Get returns the account score, 0 when it has no entry.
func (l *Ledger) Get(ctx context.Context, tx *state.Tx, account string) (int64, error) {
	v, _, err := tx.Score(ctx, account)
	return v, err
}

// Settle applies a decisive result: winner += award.Win, loser -= award.Lose.
func (l *Ledger) Settle(ctx context.Context, tx *state.Tx, winner, loser string, award domain.AwardTerms) error {
	w, err := l.Get(ctx, tx, winner)
	if err != nil {
		return err
	}
	if err := tx.PutScore(ctx, winner, w+int64(award.Win)); err != nil {
		return err
	}
	lo, err := l.Get(ctx, tx, loser)
	if err != nil {
		return err
	}
	return tx.PutScore(ctx, loser, lo-int64(award.Lose))
}

// Leaderboard returns the top limit entries, highest score first; ties
// break by account name. limit <= 0 returns every entry.
func (l *Ledger) Leaderboard(ctx context.Context, tx *state.Tx, limit int) ([]domain.ScoreEntry, error) {
	accounts, err := tx.ScoredAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScoreEntry, 0, len(accounts))
	for _, a := range accounts {
		v, err := l.Get(ctx, tx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ScoreEntry{Account: a, Score: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Account < out[j].Account
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
