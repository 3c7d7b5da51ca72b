package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportColumns = `id, comment_id, reporter_id, reason, description,
	is_reviewed, reviewed_at, admin_response, is_active, deactivated_at, created_at`

// PostgresReportStore persists reports in Postgres.
type PostgresReportStore struct {
	pool *pgxpool.Pool
}

// NewPostgresReportStore creates a store backed by Postgres.
func NewPostgresReportStore(pool *pgxpool.Pool) *PostgresReportStore {
	return &PostgresReportStore{pool: pool}
}

func (s *PostgresReportStore) Create(ctx context.Context, r Report) (Report, error) {
	q := `INSERT INTO comment_reports (comment_id, reporter_id, reason, description)
	      VALUES ($1, $2, $3, $4)
	      RETURNING ` + reportColumns
	out, err := s.scanReport(s.pool.QueryRow(ctx, q, r.CommentID, r.ReporterID, r.Reason, r.Description))
	if isUniqueViolation(err) {
		return Report{}, ErrDuplicate
	}
	return out, err
}

func (s *PostgresReportStore) Get(ctx context.Context, id string) (Report, error) {
	q := `SELECT ` + reportColumns + ` FROM comment_reports WHERE id = $1`
	return s.scanReport(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresReportStore) ListUnreviewed(ctx context.Context) ([]Report, error) {
	q := `SELECT ` + reportColumns + `
	      FROM comment_reports WHERE NOT is_reviewed
	      ORDER BY created_at ASC, id ASC`
	return s.scanReports(ctx, q)
}

func (s *PostgresReportStore) Review(ctx context.Context, id, adminResponse string) error {
	const q = `UPDATE comment_reports
	           SET is_reviewed = true, reviewed_at = now(), admin_response = $1
	           WHERE id = $2 AND NOT is_reviewed`
	tag, err := s.pool.Exec(ctx, q, adminResponse, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresReportStore) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE comment_reports
	           SET is_active = false, deactivated_at = now()
	           WHERE id = $1 AND is_active`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresReportStore) ByComment(ctx context.Context, commentID string) ([]Report, error) {
	q := `SELECT ` + reportColumns + `
	      FROM comment_reports WHERE comment_id = $1
	      ORDER BY created_at ASC, id ASC`
	return s.scanReports(ctx, q, commentID)
}

func (s *PostgresReportStore) ByReporter(ctx context.Context, reporterID string) ([]Report, error) {
	q := `SELECT ` + reportColumns + `
	      FROM comment_reports WHERE reporter_id = $1
	      ORDER BY created_at DESC, id DESC`
	return s.scanReports(ctx, q, reporterID)
}

func (s *PostgresReportStore) ReportedCommentIDs(ctx context.Context, reporterID string) ([]string, error) {
	const q = `SELECT comment_id FROM comment_reports WHERE reporter_id = $1`
	rows, err := s.pool.Query(ctx, q, reporterID)
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

func (s *PostgresReportStore) Filter(ctx context.Context, f ReportFilter) (ReportPage, error) {
	f.Normalize()

	where := []string{"true"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ReporterID != "" {
		where = append(where, "reporter_id = "+arg(f.ReporterID))
	}
	if f.CommentID != "" {
		where = append(where, "comment_id = "+arg(f.CommentID))
	}
	if f.CommentIDs != nil {
		where = append(where, "comment_id = ANY("+arg(asTextArray(f.CommentIDs))+")")
	}
	if r := strings.TrimSpace(f.Reason); r != "" {
		where = append(where, "reason ILIKE "+arg("%"+escapeLike(r)+"%"))
	}
	if f.Reviewed != nil {
		where = append(where, "is_reviewed = "+arg(*f.Reviewed))
	}
	if f.Active != nil {
		where = append(where, "is_active = "+arg(*f.Active))
	}
	if f.Start != nil {
		where = append(where, "created_at >= "+arg(*f.Start))
	}
	if f.End != nil {
		where = append(where, "created_at <= "+arg(*f.End))
	}
	switch ar := strings.ToLower(strings.TrimSpace(f.AdminResponse)); {
	case ar == "":
	case ar == AdminResponseExists:
		where = append(where, "admin_response IS NOT NULL")
	case ar == AdminResponseNotExists:
		where = append(where, "admin_response IS NULL")
	default:
		where = append(where, "admin_response ILIKE "+arg("%"+escapeLike(strings.TrimSpace(f.AdminResponse))+"%"))
	}

	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comment_reports WHERE `+cond, args...).Scan(&total); err != nil {
		return ReportPage{}, err
	}

	q := `SELECT ` + reportColumns + ` FROM comment_reports WHERE ` + cond +
		` ORDER BY created_at DESC, id DESC` +
		` OFFSET ` + arg((f.Page-1)*f.PageSize) +
		` LIMIT ` + arg(f.PageSize)
	reports, err := s.scanReports(ctx, q, args...)
	if err != nil {
		return ReportPage{}, err
	}

	return ReportPage{
		Reports:    reports,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages(total, f.PageSize),
	}, nil
}

func (s *PostgresReportStore) scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.CommentID, &r.ReporterID, &r.Reason, &r.Description,
		&r.IsReviewed, &r.ReviewedAt, &r.AdminResponse, &r.IsActive, &r.DeactivatedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresReportStore) scanReports(ctx context.Context, q string, args ...any) ([]Report, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.CommentID, &r.ReporterID, &r.Reason, &r.Description,
			&r.IsReviewed, &r.ReviewedAt, &r.AdminResponse, &r.IsActive, &r.DeactivatedAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
