package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryVoteStore is a development-only in-memory implementation.
type InMemoryVoteStore struct {
	mu    sync.RWMutex
	votes map[string]Vote // (voterID|commentID) -> vote
}

func NewInMemoryVoteStore() *InMemoryVoteStore {
	return &InMemoryVoteStore{votes: make(map[string]Vote)}
}

func voteKey(voterID, commentID string) string { return voterID + "|" + commentID }

func (s *InMemoryVoteStore) Get(_ context.Context, voterID, commentID string) (Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[voteKey(voterID, commentID)]
	if !ok {
		return Vote{}, ErrNotFound
	}
	return v, nil
}

func (s *InMemoryVoteStore) Add(_ context.Context, voterID, commentID string, t VoteType) (Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := voteKey(voterID, commentID)
	if _, exists := s.votes[k]; exists {
		return Vote{}, ErrDuplicate
	}
	v := Vote{
		ID:        uuid.NewString(),
		VoterID:   voterID,
		CommentID: commentID,
		Type:      t,
		CreatedAt: time.Now().UTC(),
	}
	s.votes[k] = v
	return v, nil
}

func (s *InMemoryVoteStore) Update(_ context.Context, voterID, commentID string, t VoteType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := voteKey(voterID, commentID)
	v, ok := s.votes[k]
	if !ok {
		return ErrNotFound
	}
	v.Type = t
	s.votes[k] = v
	return nil
}

func (s *InMemoryVoteStore) Remove(_ context.Context, voterID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := voteKey(voterID, commentID)
	if _, ok := s.votes[k]; !ok {
		return ErrNotFound
	}
	delete(s.votes, k)
	return nil
}

func (s *InMemoryVoteStore) RemoveByComment(_ context.Context, commentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, v := range s.votes {
		if v.CommentID == commentID {
			delete(s.votes, k)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryVoteStore) Stats(_ context.Context, commentID string) (VoteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st VoteStats
	for _, v := range s.votes {
		if v.CommentID != commentID {
			continue
		}
		switch v.Type {
		case VoteLike:
			st.Likes++
		case VoteDislike:
			st.Dislikes++
		}
	}
	return st, nil
}
