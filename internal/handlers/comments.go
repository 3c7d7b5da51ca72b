package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comment-platform/internal/platform/api"
	"github.com/example/comment-platform/internal/platform/auth"
	"github.com/example/comment-platform/internal/service"
	"github.com/example/comment-platform/internal/store"
)

type createCommentRequest struct {
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id,omitempty"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

type voteRequest struct {
	VoteType string `json:"vote_type"`
}

type commentListResponse struct {
	Comments []service.CommentWithAuthor `json:"comments"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// viewerID resolves the reading user: the bearer subject when present,
// else the user_id query parameter (anonymous viewers see everything).
func viewerID(r *http.Request) string {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != "" {
		return uid
	}
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}

// ListComments handles GET /v1/contents/{content_id}/comments
func ListComments(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID := strings.TrimSpace(chi.URLParam(r, "content_id"))
		if contentID == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", "", nil)
			return
		}

		comments, err := cs.ListTopLevel(r.Context(), contentID, viewerID(r))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, commentListResponse{Comments: cs.WithAuthors(r.Context(), comments)})
	}
}

// ListReplies handles GET /v1/comments/{comment_id}/replies
func ListReplies(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if parentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		replies, err := cs.ListReplies(r.Context(), parentID, viewerID(r))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, commentListResponse{Comments: cs.WithAuthors(r.Context(), replies)})
	}
}

// CreateComment handles POST /v1/contents/{content_id}/comments
func CreateComment(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		contentID := strings.TrimSpace(chi.URLParam(r, "content_id"))
		if contentID == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", "", nil)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			api.BadRequest(w, "EMPTY_BODY", "body must not be empty", "", nil)
			return
		}

		created, err := cs.Create(r.Context(), store.Comment{
			ContentID:   contentID,
			CommenterID: userID,
			ParentID:    req.ParentID,
			Body:        req.Body,
		})
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			api.BadRequest(w, "EMPTY_BODY", "body must not be empty", "", nil)
			return
		}

		if err := cs.Update(r.Context(), commentID, userID, req.Body); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found or not the author", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		if err := cs.SoftDelete(r.Context(), commentID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found or not the author", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CountComments handles GET /v1/contents/{content_id}/comments/count
func CountComments(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID := strings.TrimSpace(chi.URLParam(r, "content_id"))
		if contentID == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", "", nil)
			return
		}

		n, err := cs.Count(r.Context(), contentID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

// FilterComments handles POST /v1/comments/filter
func FilterComments(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req store.FilterRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.ContentID) == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", "", nil)
			return
		}
		// The authenticated user, when present, overrides the body's
		// user_id so the visibility filter cannot be spoofed.
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != "" {
			req.UserID = uid
		}

		page, err := cs.Filter(r.Context(), req)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// ToggleVote handles POST /v1/comments/{comment_id}/vote
func ToggleVote(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		var req voteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		voteType, ok := store.ParseVoteType(req.VoteType)
		if !ok {
			api.BadRequest(w, "INVALID_VOTE", "vote_type must be 'like' or 'dislike'", "", nil)
			return
		}

		api.WriteJSON(w, http.StatusOK, cs.ToggleVote(r.Context(), userID, commentID, voteType))
	}
}

// VoteStatus handles GET /v1/comments/{comment_id}/vote
func VoteStatus(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		t, err := cs.VoteStatus(r.Context(), userID, commentID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]*store.VoteType{"vote_type": t})
	}
}

// ReconcileComment handles POST /v1/admin/comments/{comment_id}/reconcile
func ReconcileComment(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		st, err := cs.Reconcile(r.Context(), commentID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, st)
	}
}

// PurgeComment handles DELETE /v1/admin/comments/{comment_id}
func PurgeComment(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		if err := cs.Purge(r.Context(), commentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteContentComments handles DELETE /v1/admin/contents/{content_id}/comments
func DeleteContentComments(cs *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID := strings.TrimSpace(chi.URLParam(r, "content_id"))
		if contentID == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", "", nil)
			return
		}

		n, err := cs.DeleteAllForContent(r.Context(), contentID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: n})
	}
}
