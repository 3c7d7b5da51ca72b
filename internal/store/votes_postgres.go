package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVoteStore persists votes in Postgres. The unique index on
// (voter_id, comment_id) is the conflict detector for concurrent
// first-votes.
type PostgresVoteStore struct {
	pool *pgxpool.Pool
}

// NewPostgresVoteStore creates a store backed by Postgres.
func NewPostgresVoteStore(pool *pgxpool.Pool) *PostgresVoteStore {
	return &PostgresVoteStore{pool: pool}
}

func (s *PostgresVoteStore) Get(ctx context.Context, voterID, commentID string) (Vote, error) {
	const q = `SELECT id, voter_id, comment_id, vote_type, created_at
	           FROM comment_votes WHERE voter_id = $1 AND comment_id = $2`
	var v Vote
	err := s.pool.QueryRow(ctx, q, voterID, commentID).
		Scan(&v.ID, &v.VoterID, &v.CommentID, &v.Type, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vote{}, ErrNotFound
	}
	return v, err
}

func (s *PostgresVoteStore) Add(ctx context.Context, voterID, commentID string, t VoteType) (Vote, error) {
	const q = `INSERT INTO comment_votes (voter_id, comment_id, vote_type)
	           VALUES ($1, $2, $3)
	           RETURNING id, voter_id, comment_id, vote_type, created_at`
	var v Vote
	err := s.pool.QueryRow(ctx, q, voterID, commentID, t).
		Scan(&v.ID, &v.VoterID, &v.CommentID, &v.Type, &v.CreatedAt)
	if isUniqueViolation(err) {
		return Vote{}, ErrDuplicate
	}
	return v, err
}

func (s *PostgresVoteStore) Update(ctx context.Context, voterID, commentID string, t VoteType) error {
	const q = `UPDATE comment_votes SET vote_type = $1
	           WHERE voter_id = $2 AND comment_id = $3`
	tag, err := s.pool.Exec(ctx, q, t, voterID, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresVoteStore) Remove(ctx context.Context, voterID, commentID string) error {
	const q = `DELETE FROM comment_votes WHERE voter_id = $1 AND comment_id = $2`
	tag, err := s.pool.Exec(ctx, q, voterID, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresVoteStore) RemoveByComment(ctx context.Context, commentID string) (int64, error) {
	const q = `DELETE FROM comment_votes WHERE comment_id = $1`
	tag, err := s.pool.Exec(ctx, q, commentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresVoteStore) Stats(ctx context.Context, commentID string) (VoteStats, error) {
	const q = `SELECT
	             COUNT(*) FILTER (WHERE vote_type = 'like'),
	             COUNT(*) FILTER (WHERE vote_type = 'dislike')
	           FROM comment_votes WHERE comment_id = $1`
	var st VoteStats
	err := s.pool.QueryRow(ctx, q, commentID).Scan(&st.Likes, &st.Dislikes)
	return st, err
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
