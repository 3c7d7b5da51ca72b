package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, content_id, commenter_id, body, parent_id,
	like_count, dislike_count, reply_count, created_at, edited_at, deleted_at`

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 AND deleted_at IS NULL`
	return s.scanComment(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresCommentStore) GetAny(ctx context.Context, id string) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	return s.scanComment(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresCommentStore) Create(ctx context.Context, c Comment) (Comment, error) {
	q := `INSERT INTO comments (content_id, commenter_id, body, parent_id, reply_count)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING ` + commentColumns

	// Replies never have children, so their reply_count stays NULL.
	var replyCount *int
	if c.ParentID == nil {
		zero := 0
		replyCount = &zero
	}

	out, err := s.scanComment(s.pool.QueryRow(ctx, q, c.ContentID, c.CommenterID, c.Body, c.ParentID, replyCount))
	if err != nil {
		return Comment{}, err
	}

	if c.ParentID != nil {
		// Best-effort: a concurrently deleted or missing parent is ignored,
		// the reply itself still exists.
		_, _ = s.pool.Exec(ctx,
			`UPDATE comments SET reply_count = reply_count + 1 WHERE id = $1 AND parent_id IS NULL`,
			*c.ParentID)
	}
	return out, nil
}

func (s *PostgresCommentStore) UpdateBody(ctx context.Context, id, authorID, body string) error {
	const q = `UPDATE comments SET body = $1, edited_at = now()
	           WHERE id = $2 AND commenter_id = $3 AND deleted_at IS NULL`
	tag, err := s.pool.Exec(ctx, q, body, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresCommentStore) SoftDelete(ctx context.Context, id, authorID string) error {
	const q = `UPDATE comments SET deleted_at = now()
	           WHERE id = $1 AND commenter_id = $2 AND deleted_at IS NULL
	           RETURNING parent_id, deleted_at`
	var parentID *string
	var deletedAt time.Time
	err := s.pool.QueryRow(ctx, q, id, authorID).Scan(&parentID, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	// Cascade is best-effort, not transactional.
	if parentID != nil {
		_, _ = s.pool.Exec(ctx,
			`UPDATE comments SET reply_count = reply_count - 1 WHERE id = $1 AND reply_count > 0`,
			*parentID)
		return nil
	}
	_, _ = s.pool.Exec(ctx,
		`UPDATE comments SET deleted_at = $1 WHERE parent_id = $2 AND deleted_at IS NULL`,
		deletedAt, id)
	return nil
}

// SoftDeleteByContent removes a whole content item's thread. Soft, so the
// rows stay reconcilable with the vote and report collections.
func (s *PostgresCommentStore) SoftDeleteByContent(ctx context.Context, contentID string) (int64, error) {
	const q = `UPDATE comments SET deleted_at = now()
	           WHERE content_id = $1 AND deleted_at IS NULL`
	tag, err := s.pool.Exec(ctx, q, contentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM comments WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresCommentStore) Count(ctx context.Context, contentID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM comments WHERE content_id = $1 AND deleted_at IS NULL`
	var n int64
	err := s.pool.QueryRow(ctx, q, contentID).Scan(&n)
	return n, err
}

func (s *PostgresCommentStore) ListTopLevel(ctx context.Context, contentID string, exclude []string) ([]Comment, error) {
	q := `SELECT ` + commentColumns + `
	      FROM comments
	      WHERE content_id = $1 AND parent_id IS NULL AND deleted_at IS NULL
	        AND NOT (id = ANY($2))
	      ORDER BY created_at ASC, id ASC`
	return s.scanComments(ctx, q, contentID, asTextArray(exclude))
}

func (s *PostgresCommentStore) ListReplies(ctx context.Context, parentID string, exclude []string) ([]Comment, error) {
	q := `SELECT ` + commentColumns + `
	      FROM comments
	      WHERE parent_id = $1 AND deleted_at IS NULL
	        AND NOT (id = ANY($2))
	      ORDER BY created_at ASC, id ASC`
	return s.scanComments(ctx, q, parentID, asTextArray(exclude))
}

func (s *PostgresCommentStore) ReplyIDsOf(ctx context.Context, parentIDs []string) ([]string, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT id FROM comments WHERE parent_id = ANY($1)`
	return s.scanIDs(ctx, q, asTextArray(parentIDs))
}

func (s *PostgresCommentStore) IDsByCommenter(ctx context.Context, commenterID string) ([]string, error) {
	const q = `SELECT id FROM comments WHERE commenter_id = $1`
	return s.scanIDs(ctx, q, commenterID)
}

func (s *PostgresCommentStore) SetVoteCounts(ctx context.Context, commentID string, likes, dislikes int) error {
	const q = `UPDATE comments SET like_count = $1, dislike_count = $2 WHERE id = $3`
	// Zero rows affected is fine: the comment may have been purged while
	// its ledger was still being mutated.
	_, err := s.pool.Exec(ctx, q, likes, dislikes, commentID)
	return err
}

func (s *PostgresCommentStore) Filter(ctx context.Context, req FilterRequest, exclude []string) (CommentPage, error) {
	req.Normalize()

	where := []string{"content_id = $1"}
	args := []any{req.ContentID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.ParentID == nil {
		where = append(where, "parent_id IS NULL")
	} else {
		where = append(where, "parent_id = "+arg(*req.ParentID))
	}
	if req.Deleted != nil && *req.Deleted {
		where = append(where, "deleted_at IS NOT NULL")
	} else {
		where = append(where, "deleted_at IS NULL")
	}
	if req.OnlyMine && req.UserID != "" {
		where = append(where, "commenter_id = "+arg(req.UserID))
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		where = append(where, "body ILIKE "+arg("%"+escapeLike(s)+"%"))
	}
	if len(exclude) > 0 {
		where = append(where, "NOT (id = ANY("+arg(asTextArray(exclude))+"))")
	}

	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE `+cond, args...).Scan(&total); err != nil {
		return CommentPage{}, err
	}

	q := `SELECT ` + commentColumns + ` FROM comments WHERE ` + cond +
		` ORDER BY created_at ASC, id ASC` +
		` OFFSET ` + arg((req.Page-1)*req.PageSize) +
		` LIMIT ` + arg(req.PageSize)
	comments, err := s.scanComments(ctx, q, args...)
	if err != nil {
		return CommentPage{}, err
	}

	return CommentPage{
		Comments:   comments,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages(total, req.PageSize),
	}, nil
}

func (s *PostgresCommentStore) scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ContentID, &c.CommenterID, &c.Body, &c.ParentID,
		&c.LikeCount, &c.DislikeCount, &c.ReplyCount, &c.CreatedAt, &c.EditedAt, &c.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) scanComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ContentID, &c.CommenterID, &c.Body, &c.ParentID,
			&c.LikeCount, &c.DislikeCount, &c.ReplyCount, &c.CreatedAt, &c.EditedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) scanIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// asTextArray keeps ANY($n) well-typed when the slice is empty.
func asTextArray(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
