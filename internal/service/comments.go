package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/comment-platform/internal/platform/events"
	"github.com/example/comment-platform/internal/profile"
	"github.com/example/comment-platform/internal/store"
)

// CommentService composes the comment store with the vote ledger and the
// report collection's hidden-set read. All cross-collection traffic goes
// through the owning component's contract; nothing here touches another
// component's storage directly.
type CommentService struct {
	comments store.CommentStore
	reports  store.ReportStore
	ledger   *VoteLedger
	profiles profile.Directory
	pub      *events.Publisher
	log      *zap.Logger
}

func NewCommentService(comments store.CommentStore, reports store.ReportStore, ledger *VoteLedger, profiles profile.Directory, pub *events.Publisher, log *zap.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		reports:  reports,
		ledger:   ledger,
		profiles: profiles,
		pub:      pub,
		log:      log,
	}
}

// Get returns a comment by id, excluding soft-deleted ones.
func (s *CommentService) Get(ctx context.Context, id string) (store.Comment, error) {
	return s.comments.Get(ctx, id)
}

// Create inserts a comment or reply. Parent existence is not validated;
// a dangling parent reference is an accepted trade-off and the parent
// reply-count increment is best-effort inside the store.
func (s *CommentService) Create(ctx context.Context, c store.Comment) (store.Comment, error) {
	created, err := s.comments.Create(ctx, c)
	if err != nil {
		return store.Comment{}, err
	}
	s.pub.Publish(events.SubjectCommentCreated, "comment_created", created.CommenterID, created.ID,
		map[string]any{"content_id": created.ContentID, "is_reply": created.IsReply()})
	return created, nil
}

// Update edits the author's own comment text.
func (s *CommentService) Update(ctx context.Context, id, authorID, body string) error {
	return s.comments.UpdateBody(ctx, id, authorID, body)
}

// SoftDelete removes the author's own comment, cascading one level down.
func (s *CommentService) SoftDelete(ctx context.Context, id, authorID string) error {
	if err := s.comments.SoftDelete(ctx, id, authorID); err != nil {
		return err
	}
	s.pub.Publish(events.SubjectCommentDeleted, "comment_deleted", authorID, id, nil)
	return nil
}

// Purge hard-deletes a comment and drops its vote ledger. Moderation-only.
func (s *CommentService) Purge(ctx context.Context, id string) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.ledger.RemoveAllForComment(ctx, id); err != nil {
		return fmt.Errorf("purge votes for %s: %w", id, err)
	}
	return nil
}

// DeleteAllForContent removes a content item's whole thread when the
// content is deleted upstream. Soft, per deployment policy.
func (s *CommentService) DeleteAllForContent(ctx context.Context, contentID string) (int64, error) {
	return s.comments.SoftDeleteByContent(ctx, contentID)
}

// Count returns the number of live comments under a content item.
func (s *CommentService) Count(ctx context.Context, contentID string) (int64, error) {
	return s.comments.Count(ctx, contentID)
}

// ListTopLevel returns the content item's top-level comments as the viewer
// is allowed to see them: everything the viewer personally reported is
// hidden, and so are the replies of those reported comments (one extra
// hop), even though the replies themselves carry no report.
func (s *CommentService) ListTopLevel(ctx context.Context, contentID, viewerID string) ([]store.Comment, error) {
	hidden, err := s.hiddenFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.comments.ListTopLevel(ctx, contentID, hidden)
}

// ListReplies returns a parent's replies for the viewer. A viewer who
// reported the parent sees none of its replies at all; otherwise only the
// individually reported ones are hidden.
func (s *CommentService) ListReplies(ctx context.Context, parentID, viewerID string) ([]store.Comment, error) {
	var reported []string
	if viewerID != "" {
		var err error
		reported, err = s.reports.ReportedCommentIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		for _, id := range reported {
			if id == parentID {
				return []store.Comment{}, nil
			}
		}
	}
	return s.comments.ListReplies(ctx, parentID, reported)
}

// Filter runs the compound comment query, subtracting the viewer's
// personally-reported set when a user id is supplied.
func (s *CommentService) Filter(ctx context.Context, req store.FilterRequest) (store.CommentPage, error) {
	var exclude []string
	if req.UserID != "" {
		var err error
		exclude, err = s.reports.ReportedCommentIDs(ctx, req.UserID)
		if err != nil {
			return store.CommentPage{}, err
		}
	}
	return s.comments.Filter(ctx, req, exclude)
}

// ToggleResult is the outcome of one toggle invocation. When Success is
// false the counts are zeroed and must not be trusted as real.
type ToggleResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	LikeCount    int    `json:"like_count"`
	DislikeCount int    `json:"dislike_count"`
}

// ToggleVote drives the vote state machine for one (user, comment) pair:
// no vote -> add, same vote -> remove, different vote -> switch. Each
// branch ends by re-reading fresh stats from the ledger.
func (s *CommentService) ToggleVote(ctx context.Context, userID, commentID string, t store.VoteType) ToggleResult {
	existing, err := s.ledger.Get(ctx, userID, commentID)

	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.ledger.Add(ctx, userID, commentID, t); err != nil {
			return s.toggleFailed(commentID, "add", err)
		}
		return s.toggleDone(ctx, commentID, fmt.Sprintf("%s added", t))

	case err != nil:
		return s.toggleFailed(commentID, "get", err)

	case existing.Type == t:
		if err := s.ledger.Remove(ctx, userID, commentID); err != nil {
			return s.toggleFailed(commentID, "remove", err)
		}
		return s.toggleDone(ctx, commentID, fmt.Sprintf("%s removed", t))

	default:
		if err := s.ledger.Switch(ctx, userID, commentID, t); err != nil {
			return s.toggleFailed(commentID, "switch", err)
		}
		return s.toggleDone(ctx, commentID, fmt.Sprintf("%s switched", t))
	}
}

func (s *CommentService) toggleDone(ctx context.Context, commentID, msg string) ToggleResult {
	st, err := s.ledger.Stats(ctx, commentID)
	if err != nil {
		return s.toggleFailed(commentID, "stats", err)
	}
	return ToggleResult{Success: true, Message: msg, LikeCount: st.Likes, DislikeCount: st.Dislikes}
}

func (s *CommentService) toggleFailed(commentID, op string, err error) ToggleResult {
	// A duplicate key means two first-votes raced. Expected, not a fault.
	if errors.Is(err, store.ErrDuplicate) {
		s.log.Debug("vote toggle lost a race", zap.String("comment_id", commentID), zap.String("op", op))
	} else {
		s.log.Warn("vote toggle failed", zap.String("comment_id", commentID), zap.String("op", op), zap.Error(err))
	}
	return ToggleResult{Success: false, Message: "vote failed"}
}

// VoteStatus returns the user's current vote type on the comment, or nil.
func (s *CommentService) VoteStatus(ctx context.Context, userID, commentID string) (*store.VoteType, error) {
	v, err := s.ledger.Get(ctx, userID, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v.Type, nil
}

// Reconcile repairs counter drift for one comment. Exposed for the admin
// surface and the event-driven worker.
func (s *CommentService) Reconcile(ctx context.Context, commentID string) (store.VoteStats, error) {
	return s.ledger.Reconcile(ctx, commentID)
}

// CommentWithAuthor decorates a comment with the masked display name of
// its author for end-user views. Moderation views use the report service's
// detail joins instead, which carry full names.
type CommentWithAuthor struct {
	store.Comment
	CommenterName string `json:"commenter_name"`
}

// WithAuthors resolves and masks commenter display names. Lookup failures
// degrade to the anonymous placeholder; listing never fails on a missing
// profile.
func (s *CommentService) WithAuthors(ctx context.Context, comments []store.Comment) []CommentWithAuthor {
	out := make([]CommentWithAuthor, len(comments))
	for i, c := range comments {
		out[i] = CommentWithAuthor{Comment: c, CommenterName: s.maskedName(ctx, c.CommenterID)}
	}
	return out
}

func (s *CommentService) maskedName(ctx context.Context, userID string) string {
	if s.profiles == nil {
		return AnonymousName
	}
	name, err := s.profiles.DisplayName(ctx, userID)
	if err != nil {
		return AnonymousName
	}
	return MaskName(name)
}

// hiddenFor computes the viewer's hidden set: personally reported comment
// ids plus the ids of replies whose parent is reported.
func (s *CommentService) hiddenFor(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, nil
	}
	reported, err := s.reports.ReportedCommentIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(reported) == 0 {
		return nil, nil
	}
	replyIDs, err := s.comments.ReplyIDsOf(ctx, reported)
	if err != nil {
		return nil, err
	}
	return append(reported, replyIDs...), nil
}
