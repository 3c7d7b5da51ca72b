package store

import (
	"context"
	"time"
)

// Comment represents one node in a two-level thread attached to an
// externally-owned content item. Replies cannot themselves be replied to,
// so ReplyCount is nil for them and ≥0 for top-level comments.
//
// LikeCount and DislikeCount are denormalized caches of the vote ledger;
// the ledger is authoritative and re-pushes them after every mutation.
type Comment struct {
	ID           string     `json:"id"`
	ContentID    string     `json:"content_id"`
	CommenterID  string     `json:"commenter_id"`
	Body         string     `json:"body"`
	ParentID     *string    `json:"parent_id,omitempty"`
	LikeCount    int        `json:"like_count"`
	DislikeCount int        `json:"dislike_count"`
	ReplyCount   *int       `json:"reply_count,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	EditedAt     *time.Time `json:"edited_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsReply reports whether the comment is a second-level node.
func (c Comment) IsReply() bool { return c.ParentID != nil }

// FilterRequest is the compound comment query. ContentID is required.
// ParentID nil selects top-level comments, set selects replies of that
// parent. Deleted nil or false excludes soft-deleted rows, true selects
// only them. OnlyMine requires UserID.
type FilterRequest struct {
	ContentID string  `json:"content_id"`
	UserID    string  `json:"user_id,omitempty"`
	ParentID  *string `json:"parent_id,omitempty"`
	Deleted   *bool   `json:"deleted,omitempty"`
	OnlyMine  bool    `json:"only_mine,omitempty"`
	Search    string  `json:"search,omitempty"`
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
}

// Normalize applies the 1-indexed pagination defaults.
func (f *FilterRequest) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 10
	}
}

// CommentPage is one page of filter results.
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// CommentStore owns the comments collection. Nothing outside this
// interface touches it; the vote ledger pushes counters through
// SetVoteCounts and the visibility filter passes its exclusion set into
// the list queries.
type CommentStore interface {
	// Get returns a comment by id, excluding soft-deleted rows.
	Get(ctx context.Context, id string) (Comment, error)
	// GetAny returns a comment by id regardless of deletion state.
	// Used by moderation views, which must still see reported content.
	GetAny(ctx context.Context, id string) (Comment, error)

	// Create inserts a comment. A reply gets ReplyCount forced to nil and
	// its parent's reply_count incremented; the increment is best-effort
	// and a missing parent is ignored. A top-level comment gets
	// ReplyCount forced to zero.
	Create(ctx context.Context, c Comment) (Comment, error)

	// UpdateBody edits the text, scoped by id AND author AND not deleted.
	UpdateBody(ctx context.Context, id, authorID, body string) error

	// SoftDelete marks the comment deleted, scoped by id AND author AND
	// not deleted. On success it cascades one level: a deleted reply
	// decrements its parent's reply_count (floor zero), a deleted
	// top-level comment soft-deletes its live replies with the same
	// timestamp. The cascade is best-effort, not transactional.
	SoftDelete(ctx context.Context, id, authorID string) error

	// SoftDeleteByContent soft-deletes every live comment under a content
	// item and returns how many rows it touched.
	SoftDeleteByContent(ctx context.Context, contentID string) (int64, error)

	// Delete removes the row outright. Moderation-only; the caller is
	// responsible for purging the comment's vote ledger afterwards.
	Delete(ctx context.Context, id string) error

	// Count returns the number of non-deleted comments for a content item.
	Count(ctx context.Context, contentID string) (int64, error)

	// ListTopLevel returns non-deleted top-level comments for the content
	// item, creation time ascending, skipping any id in exclude.
	ListTopLevel(ctx context.Context, contentID string, exclude []string) ([]Comment, error)

	// ListReplies returns non-deleted replies of the parent, creation time
	// ascending, skipping any id in exclude.
	ListReplies(ctx context.Context, parentID string, exclude []string) ([]Comment, error)

	// ReplyIDsOf returns the ids of all replies whose parent is in
	// parentIDs, deleted or not. This is the one-extra-hop read the
	// visibility filter uses to hide replies of reported parents.
	ReplyIDsOf(ctx context.Context, parentIDs []string) ([]string, error)

	// IDsByCommenter returns the ids of every comment written by the user.
	IDsByCommenter(ctx context.Context, commenterID string) ([]string, error)

	// SetVoteCounts overwrites the cached vote counters. A missing comment
	// is not an error; the push is best-effort by contract.
	SetVoteCounts(ctx context.Context, commentID string, likes, dislikes int) error

	// Filter runs the compound query, minus any id in exclude, with
	// 1-indexed pagination.
	Filter(ctx context.Context, req FilterRequest, exclude []string) (CommentPage, error)
}
