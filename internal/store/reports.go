package store

import (
	"context"
	"time"
)

// Report is one user's complaint against one comment. At most one row per
// (reporter, comment) pair. Reports are never physically deleted: review
// and deactivation are both one-way flag transitions.
type Report struct {
	ID            string     `json:"id"`
	CommentID     string     `json:"comment_id"`
	ReporterID    string     `json:"reporter_id"`
	Reason        string     `json:"reason"`
	Description   *string    `json:"description,omitempty"`
	IsReviewed    bool       `json:"is_reviewed"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	AdminResponse *string    `json:"admin_response,omitempty"`
	IsActive      bool       `json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Admin-response presence selectors for ReportFilter.AdminResponse.
// Any other non-empty value is a case-insensitive substring match.
const (
	AdminResponseExists    = "exists"
	AdminResponseNotExists = "notexists"
)

// ReportFilter is the compound moderation query. All predicates are
// optional and combine with AND. CommentIDs restricts to reports against
// that id set; the service layer uses it to express
// "reports against comments written by user X" without this store ever
// reading the comments collection.
type ReportFilter struct {
	ReporterID    string     `json:"reporter_id,omitempty"`
	CommentID     string     `json:"comment_id,omitempty"`
	CommentIDs    []string   `json:"-"`
	Reason        string     `json:"reason,omitempty"`
	Reviewed      *bool      `json:"is_reviewed,omitempty"`
	Active        *bool      `json:"is_active,omitempty"`
	Start         *time.Time `json:"start_date,omitempty"`
	End           *time.Time `json:"end_date,omitempty"`
	AdminResponse string     `json:"admin_response,omitempty"`
	Page          int        `json:"page"`
	PageSize      int        `json:"page_size"`
}

// Normalize applies the 1-indexed pagination defaults.
func (f *ReportFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 10
	}
}

// ReportPage is one page of filter results with the page arithmetic done.
type ReportPage struct {
	Reports    []Report `json:"reports"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}

// ReportStore owns the report collection. The reporter-hidden-set read
// (ReportedCommentIDs) and the moderation queue (ListUnreviewed) are two
// independent derived views over the same rows.
type ReportStore interface {
	// Create inserts a report. ErrDuplicate when the (reporter, comment)
	// pair already reported. This is the primary defense against report spam.
	Create(ctx context.Context, r Report) (Report, error)

	// Get returns a report by id, or ErrNotFound.
	Get(ctx context.Context, id string) (Report, error)

	// ListUnreviewed returns the moderation queue, creation time ascending.
	ListUnreviewed(ctx context.Context) ([]Report, error)

	// Review marks the report reviewed with the moderator's response.
	// One-way: ErrNotFound if the id is unknown or already reviewed.
	Review(ctx context.Context, id, adminResponse string) error

	// Deactivate closes the report without deleting it, independent of
	// review. One-way: ErrNotFound if unknown or already inactive.
	Deactivate(ctx context.Context, id string) error

	// ByComment returns every report against the comment.
	ByComment(ctx context.Context, commentID string) ([]Report, error)

	// ByReporter returns the user's own reports, newest first.
	ByReporter(ctx context.Context, reporterID string) ([]Report, error)

	// ReportedCommentIDs returns the ids of every comment the user has
	// personally reported, active or not. This is the critical read
	// behind the per-viewer visibility filter.
	ReportedCommentIDs(ctx context.Context, reporterID string) ([]string, error)

	// Filter runs the compound moderation query with 1-indexed pagination.
	Filter(ctx context.Context, f ReportFilter) (ReportPage, error)
}
