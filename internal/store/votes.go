package store

import (
	"context"
	"strings"
	"time"
)

// VoteType enumerates the two stances a user can take on a comment.
type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

// ParseVoteType normalizes and validates a wire-level vote type.
func ParseVoteType(s string) (VoteType, bool) {
	switch VoteType(strings.ToLower(strings.TrimSpace(s))) {
	case VoteLike:
		return VoteLike, true
	case VoteDislike:
		return VoteDislike, true
	}
	return "", false
}

// Vote is one user's stance on one comment. At most one row exists per
// (voter, comment) pair, enforced by a unique index. Votes carry no
// history: a retracted vote is deleted outright.
type Vote struct {
	ID        string    `json:"id"`
	VoterID   string    `json:"voter_id"`
	CommentID string    `json:"comment_id"`
	Type      VoteType  `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteStats is the authoritative live count for one comment.
type VoteStats struct {
	Likes    int `json:"like_count"`
	Dislikes int `json:"dislike_count"`
}

// VoteStore owns the vote collection.
type VoteStore interface {
	// Get returns the voter's vote on the comment, or ErrNotFound.
	Get(ctx context.Context, voterID, commentID string) (Vote, error)

	// Add inserts a first vote. ErrDuplicate when the pair already has
	// one; that is the expected signal under concurrent first-votes and
	// must not be treated as a fault.
	Add(ctx context.Context, voterID, commentID string, t VoteType) (Vote, error)

	// Update sets the vote type in place. Writing the same type again is
	// allowed and counts as a successful (idempotent) update.
	// ErrNotFound when the pair has no vote.
	Update(ctx context.Context, voterID, commentID string, t VoteType) error

	// Remove deletes the pair's vote. ErrNotFound when none existed.
	Remove(ctx context.Context, voterID, commentID string) error

	// RemoveByComment bulk-deletes every vote on the comment, returning
	// the number removed. Used when a comment is purged.
	RemoveByComment(ctx context.Context, commentID string) (int64, error)

	// Stats counts the live rows per type. This is the source of truth
	// the cached counters on Comment are reconciled against.
	Stats(ctx context.Context, commentID string) (VoteStats, error)
}
