package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryReportStore is a development-only in-memory implementation.
type InMemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]Report // id -> report
	pairs   map[string]string // (reporterID|commentID) -> report id
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		reports: make(map[string]Report),
		pairs:   make(map[string]string),
	}
}

func reportKey(reporterID, commentID string) string { return reporterID + "|" + commentID }

func (s *InMemoryReportStore) Create(_ context.Context, r Report) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := reportKey(r.ReporterID, r.CommentID)
	if _, exists := s.pairs[k]; exists {
		return Report{}, ErrDuplicate
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	r.IsReviewed = false
	r.ReviewedAt = nil
	r.AdminResponse = nil
	r.IsActive = true
	r.DeactivatedAt = nil

	s.reports[r.ID] = r
	s.pairs[k] = r.ID
	return r, nil
}

func (s *InMemoryReportStore) Get(_ context.Context, id string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemoryReportStore) ListUnreviewed(_ context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Report
	for _, r := range s.reports {
		if !r.IsReviewed {
			out = append(out, r)
		}
	}
	sortReportsAsc(out)
	return out, nil
}

func (s *InMemoryReportStore) Review(_ context.Context, id, adminResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok || r.IsReviewed {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.IsReviewed = true
	r.ReviewedAt = &now
	r.AdminResponse = &adminResponse
	s.reports[id] = r
	return nil
}

func (s *InMemoryReportStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok || !r.IsActive {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.IsActive = false
	r.DeactivatedAt = &now
	s.reports[id] = r
	return nil
}

func (s *InMemoryReportStore) ByComment(_ context.Context, commentID string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Report
	for _, r := range s.reports {
		if r.CommentID == commentID {
			out = append(out, r)
		}
	}
	sortReportsAsc(out)
	return out, nil
}

func (s *InMemoryReportStore) ByReporter(_ context.Context, reporterID string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Report
	for _, r := range s.reports {
		if r.ReporterID == reporterID {
			out = append(out, r)
		}
	}
	sortReportsDesc(out)
	return out, nil
}

func (s *InMemoryReportStore) ReportedCommentIDs(_ context.Context, reporterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, r := range s.reports {
		if r.ReporterID == reporterID {
			out = append(out, r.CommentID)
		}
	}
	return out, nil
}

func (s *InMemoryReportStore) Filter(_ context.Context, f ReportFilter) (ReportPage, error) {
	f.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var commentSet map[string]bool
	if f.CommentIDs != nil {
		commentSet = toSet(f.CommentIDs)
	}
	reason := strings.ToLower(strings.TrimSpace(f.Reason))
	adminResp := strings.ToLower(strings.TrimSpace(f.AdminResponse))

	var matched []Report
	for _, r := range s.reports {
		if f.ReporterID != "" && r.ReporterID != f.ReporterID {
			continue
		}
		if f.CommentID != "" && r.CommentID != f.CommentID {
			continue
		}
		if commentSet != nil && !commentSet[r.CommentID] {
			continue
		}
		if reason != "" && !strings.Contains(strings.ToLower(r.Reason), reason) {
			continue
		}
		if f.Reviewed != nil && r.IsReviewed != *f.Reviewed {
			continue
		}
		if f.Active != nil && r.IsActive != *f.Active {
			continue
		}
		if f.Start != nil && r.CreatedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && r.CreatedAt.After(*f.End) {
			continue
		}
		switch adminResp {
		case "":
		case AdminResponseExists:
			if r.AdminResponse == nil {
				continue
			}
		case AdminResponseNotExists:
			if r.AdminResponse != nil {
				continue
			}
		default:
			if r.AdminResponse == nil || !strings.Contains(strings.ToLower(*r.AdminResponse), adminResp) {
				continue
			}
		}
		matched = append(matched, r)
	}
	sortReportsDesc(matched)

	total := int64(len(matched))
	start := (f.Page - 1) * f.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return ReportPage{
		Reports:    matched[start:end],
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages(total, f.PageSize),
	}, nil
}

func sortReportsAsc(rs []Report) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func sortReportsDesc(rs []Report) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}
