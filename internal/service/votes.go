package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/comment-platform/internal/platform/events"
	"github.com/example/comment-platform/internal/store"
)

// VoteLedger wraps the vote store and keeps the cached counters on the
// comment in step with it. The ledger rows are always authoritative; the
// counter push is a best-effort cache refresh, so a crash between the two
// leaves repairable drift, never an inconsistent ledger.
type VoteLedger struct {
	votes    store.VoteStore
	comments store.CommentStore
	pub      *events.Publisher
	log      *zap.Logger
}

func NewVoteLedger(votes store.VoteStore, comments store.CommentStore, pub *events.Publisher, log *zap.Logger) *VoteLedger {
	return &VoteLedger{votes: votes, comments: comments, pub: pub, log: log}
}

// Get returns the voter's vote on the comment, or store.ErrNotFound.
func (l *VoteLedger) Get(ctx context.Context, voterID, commentID string) (store.Vote, error) {
	return l.votes.Get(ctx, voterID, commentID)
}

// Add records a first vote. store.ErrDuplicate means a concurrent caller
// won the insert race; it is surfaced as-is, not logged as a fault.
func (l *VoteLedger) Add(ctx context.Context, voterID, commentID string, t store.VoteType) error {
	if _, err := l.votes.Add(ctx, voterID, commentID, t); err != nil {
		return err
	}
	l.resync(ctx, commentID)
	l.pub.Publish(events.SubjectVoteAdded, "vote_added", voterID, commentID, map[string]any{"vote_type": string(t)})
	return nil
}

// Switch sets the vote type in place. Writing the unchanged type is a
// valid idempotent update; counters are unaffected either way.
func (l *VoteLedger) Switch(ctx context.Context, voterID, commentID string, t store.VoteType) error {
	if err := l.votes.Update(ctx, voterID, commentID, t); err != nil {
		return err
	}
	l.resync(ctx, commentID)
	l.pub.Publish(events.SubjectVoteSwitched, "vote_switched", voterID, commentID, map[string]any{"vote_type": string(t)})
	return nil
}

// Remove retracts the voter's vote.
func (l *VoteLedger) Remove(ctx context.Context, voterID, commentID string) error {
	if err := l.votes.Remove(ctx, voterID, commentID); err != nil {
		return err
	}
	l.resync(ctx, commentID)
	l.pub.Publish(events.SubjectVoteRemoved, "vote_removed", voterID, commentID, nil)
	return nil
}

// RemoveAllForComment drops every vote on the comment, used when the
// comment itself is purged. Counters resync to zero.
func (l *VoteLedger) RemoveAllForComment(ctx context.Context, commentID string) (int64, error) {
	n, err := l.votes.RemoveByComment(ctx, commentID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		l.resync(ctx, commentID)
		l.pub.Publish(events.SubjectVotesPurged, "votes_purged", "", commentID, map[string]any{"removed": n})
	}
	return n, nil
}

// Stats is the live count query against the authoritative ledger,
// independent of the cached fields on the comment.
func (l *VoteLedger) Stats(ctx context.Context, commentID string) (store.VoteStats, error) {
	return l.votes.Stats(ctx, commentID)
}

// Reconcile recomputes the comment's counters from the ledger and pushes
// them. Idempotent and safe to run at any time; this is the repair entry
// point for drift left by a crash between a vote write and its push.
func (l *VoteLedger) Reconcile(ctx context.Context, commentID string) (store.VoteStats, error) {
	st, err := l.votes.Stats(ctx, commentID)
	if err != nil {
		return store.VoteStats{}, fmt.Errorf("vote stats for %s: %w", commentID, err)
	}
	if err := l.comments.SetVoteCounts(ctx, commentID, st.Likes, st.Dislikes); err != nil {
		return store.VoteStats{}, fmt.Errorf("push counters for %s: %w", commentID, err)
	}
	return st, nil
}

// resync is the post-mutation counter push. Failures leave stale cached
// counters on the comment, repaired by the next Reconcile.
func (l *VoteLedger) resync(ctx context.Context, commentID string) {
	if _, err := l.Reconcile(ctx, commentID); err != nil {
		l.log.Warn("vote counter resync failed, cached counts stale until reconciled",
			zap.String("comment_id", commentID), zap.Error(err))
	}
}
