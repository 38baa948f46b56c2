package pvpc4

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
)

// ResultStore archives finished games.
type ResultStore interface {
	SaveResult(ctx context.Context, res domain.GameResult) error
	RecentResults(ctx context.Context, account string, limit int) ([]domain.GameResult, error)
	Close() error
}

// Repository is the Postgres ResultStore.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS c4_games (
	session_id  TEXT PRIMARY KEY,
	first_id    TEXT NOT NULL,
	second_id   TEXT NOT NULL,
	winner_id   TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL,
	award_win   INTEGER NOT NULL,
	award_lose  INTEGER NOT NULL,
	source      TEXT NOT NULL,
	moves       INTEGER NOT NULL,
	final_board TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS c4_games_first_idx ON c4_games (first_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS c4_games_second_idx ON c4_games (second_id, ended_at DESC);`

// EnsureSchema creates the archive table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure c4 schema: %w", err)
	}
	return nil
}

// SaveResult upserts a finished game.
func (r *Repository) SaveResult(ctx context.Context, res domain.GameResult) error {
	if r == nil || r.db == nil {
		return nil
	}
	duration := res.EndedAt.Sub(res.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	const q = `INSERT INTO c4_games (
		session_id, first_id, second_id, winner_id, result,
		award_win, award_lose, source, moves, final_board,
		started_at, ended_at, duration_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (session_id) DO UPDATE SET
		winner_id=EXCLUDED.winner_id,
		result=EXCLUDED.result,
		moves=EXCLUDED.moves,
		final_board=EXCLUDED.final_board,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`
	_, err := r.db.ExecContext(ctx, q,
		res.SessionID, res.First, res.Second, res.Winner, res.Result,
		int64(res.Award.Win), int64(res.Award.Lose), string(res.Source), res.Moves, res.FinalBoard,
		res.StartedAt, res.EndedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("insert c4 game: %w", err)
	}
	return nil
}

// RecentResults lists the account's latest games, newest first.
func (r *Repository) RecentResults(ctx context.Context, account string, limit int) ([]domain.GameResult, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT session_id, first_id, second_id, winner_id, result,
		       award_win, award_lose, source, moves, final_board,
		       started_at, ended_at
		FROM c4_games
		WHERE first_id = $1 OR second_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, account, limit)
	if err != nil {
		return nil, fmt.Errorf("select c4 games: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GameResult, 0, limit)
	for rows.Next() {
		var (
			res       domain.GameResult
			win, lose int64
			source    string
		)
		if err := rows.Scan(
			&res.SessionID, &res.First, &res.Second, &res.Winner, &res.Result,
			&win, &lose, &source, &res.Moves, &res.FinalBoard,
			&res.StartedAt, &res.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan c4 game: %w", err)
		}
		res.Award = domain.AwardTerms{Win: uint32(win), Lose: uint32(lose)}
		res.Source = domain.Source(source)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
