package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment // id -> comment
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{comments: make(map[string]Comment)}
}

func (s *InMemoryCommentStore) Get(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok || c.DeletedAt != nil {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryCommentStore) GetAny(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryCommentStore) Create(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	c.LikeCount, c.DislikeCount = 0, 0
	c.EditedAt, c.DeletedAt = nil, nil

	if c.ParentID == nil {
		zero := 0
		c.ReplyCount = &zero
	} else {
		c.ReplyCount = nil
		// Best-effort parent increment; a missing parent is ignored.
		if p, ok := s.comments[*c.ParentID]; ok && p.ParentID == nil && p.ReplyCount != nil {
			n := *p.ReplyCount + 1
			p.ReplyCount = &n
			s.comments[p.ID] = p
		}
	}

	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) UpdateBody(_ context.Context, id, authorID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.CommenterID != authorID || c.DeletedAt != nil {
		return ErrNotFound
	}
	c.Body = body
	now := time.Now().UTC()
	c.EditedAt = &now
	s.comments[id] = c
	return nil
}

func (s *InMemoryCommentStore) SoftDelete(_ context.Context, id, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.CommenterID != authorID || c.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	s.comments[id] = c

	if c.ParentID != nil {
		if p, ok := s.comments[*c.ParentID]; ok && p.ReplyCount != nil && *p.ReplyCount > 0 {
			n := *p.ReplyCount - 1
			p.ReplyCount = &n
			s.comments[p.ID] = p
		}
		return nil
	}
	// Replies have no children of their own, so one level is enough.
	for rid, r := range s.comments {
		if r.ParentID != nil && *r.ParentID == id && r.DeletedAt == nil {
			r.DeletedAt = &now
			s.comments[rid] = r
		}
	}
	return nil
}

func (s *InMemoryCommentStore) SoftDeleteByContent(_ context.Context, contentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var n int64
	for id, c := range s.comments {
		if c.ContentID == contentID && c.DeletedAt == nil {
			c.DeletedAt = &now
			s.comments[id] = c
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *InMemoryCommentStore) Count(_ context.Context, contentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.comments {
		if c.ContentID == contentID && c.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) ListTopLevel(_ context.Context, contentID string, exclude []string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := toSet(exclude)
	var out []Comment
	for _, c := range s.comments {
		if c.ContentID == contentID && c.ParentID == nil && c.DeletedAt == nil && !skip[c.ID] {
			out = append(out, c)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryCommentStore) ListReplies(_ context.Context, parentID string, exclude []string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := toSet(exclude)
	var out []Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID && c.DeletedAt == nil && !skip[c.ID] {
			out = append(out, c)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryCommentStore) ReplyIDsOf(_ context.Context, parentIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parents := toSet(parentIDs)
	var out []string
	for id, c := range s.comments {
		if c.ParentID != nil && parents[*c.ParentID] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *InMemoryCommentStore) IDsByCommenter(_ context.Context, commenterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, c := range s.comments {
		if c.CommenterID == commenterID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *InMemoryCommentStore) SetVoteCounts(_ context.Context, commentID string, likes, dislikes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return nil // best-effort push, missing comment is not an error
	}
	c.LikeCount, c.DislikeCount = likes, dislikes
	s.comments[commentID] = c
	return nil
}

func (s *InMemoryCommentStore) Filter(_ context.Context, req FilterRequest, exclude []string) (CommentPage, error) {
	req.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := toSet(exclude)
	search := strings.ToLower(strings.TrimSpace(req.Search))
	wantDeleted := req.Deleted != nil && *req.Deleted

	var matched []Comment
	for _, c := range s.comments {
		if c.ContentID != req.ContentID || skip[c.ID] {
			continue
		}
		if (req.ParentID == nil) != (c.ParentID == nil) {
			continue
		}
		if req.ParentID != nil && *c.ParentID != *req.ParentID {
			continue
		}
		if wantDeleted != (c.DeletedAt != nil) {
			continue
		}
		if req.OnlyMine && req.UserID != "" && c.CommenterID != req.UserID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Body), search) {
			continue
		}
		matched = append(matched, c)
	}
	sortByCreation(matched)

	total := int64(len(matched))
	start := (req.Page - 1) * req.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + req.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return CommentPage{
		Comments:   matched[start:end],
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages(total, req.PageSize),
	}, nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func sortByCreation(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
