package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/comment-platform/internal/platform/events"
	"github.com/example/comment-platform/internal/profile"
	"github.com/example/comment-platform/internal/store"
)

// ReportService fronts the report collection for both of its consumers:
// the reporter-side personal views and the moderation queue. Detail views
// join in the reported comment's body and both parties' display names;
// those are moderator-facing, so the names stay unmasked.
type ReportService struct {
	reports  store.ReportStore
	comments store.CommentStore
	profiles profile.Directory
	pub      *events.Publisher
	log      *zap.Logger
}

func NewReportService(reports store.ReportStore, comments store.CommentStore, profiles profile.Directory, pub *events.Publisher, log *zap.Logger) *ReportService {
	return &ReportService{reports: reports, comments: comments, profiles: profiles, pub: pub, log: log}
}

// Create files a report. store.ErrDuplicate when the reporter already
// reported this comment.
func (s *ReportService) Create(ctx context.Context, r store.Report) (store.Report, error) {
	created, err := s.reports.Create(ctx, r)
	if err != nil {
		return store.Report{}, err
	}
	s.pub.Publish(events.SubjectReportCreated, "report_created", created.ReporterID, created.CommentID,
		map[string]any{"reason": created.Reason})
	return created, nil
}

func (s *ReportService) Get(ctx context.Context, id string) (store.Report, error) {
	return s.reports.Get(ctx, id)
}

// Unreviewed is the moderation queue, oldest first.
func (s *ReportService) Unreviewed(ctx context.Context) ([]store.Report, error) {
	return s.reports.ListUnreviewed(ctx)
}

// Review records the moderator's verdict. One-way.
func (s *ReportService) Review(ctx context.Context, id, adminResponse string) error {
	return s.reports.Review(ctx, id, adminResponse)
}

// Deactivate closes the report without deleting it. One-way, independent
// of review.
func (s *ReportService) Deactivate(ctx context.Context, id string) error {
	return s.reports.Deactivate(ctx, id)
}

func (s *ReportService) ByComment(ctx context.Context, commentID string) ([]store.Report, error) {
	return s.reports.ByComment(ctx, commentID)
}

// ByReporter is the user's own report history, newest first.
func (s *ReportService) ByReporter(ctx context.Context, reporterID string) ([]store.Report, error) {
	return s.reports.ByReporter(ctx, reporterID)
}

// Filter runs the compound moderation query. A non-empty commenterID
// restricts to reports against comments written by that user; the comment
// ids are resolved through the comment store's contract so the report
// store never reads the comments collection.
func (s *ReportService) Filter(ctx context.Context, f store.ReportFilter, commenterID string) (store.ReportPage, error) {
	if commenterID != "" {
		ids, err := s.comments.IDsByCommenter(ctx, commenterID)
		if err != nil {
			return store.ReportPage{}, err
		}
		if ids == nil {
			ids = []string{}
		}
		f.CommentIDs = ids
	}
	return s.reports.Filter(ctx, f)
}

// ReportDetails is a report joined with the reported comment and the
// display names a moderator needs. Names here are never masked.
type ReportDetails struct {
	store.Report
	CommentBody    string `json:"comment_body"`
	CommentDeleted bool   `json:"comment_deleted"`
	CommenterID    string `json:"commenter_id"`
	CommenterName  string `json:"commenter_name"`
	ReporterName   string `json:"reporter_name"`
}

// Details joins one report with its comment and names.
func (s *ReportService) Details(ctx context.Context, reportID string) (ReportDetails, error) {
	r, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return ReportDetails{}, err
	}
	return s.join(ctx, r), nil
}

// UnreviewedDetails is the moderation queue with details joined in.
func (s *ReportService) UnreviewedDetails(ctx context.Context) ([]ReportDetails, error) {
	rs, err := s.Unreviewed(ctx)
	if err != nil {
		return nil, err
	}
	return s.joinAll(ctx, rs), nil
}

// CommentDetails returns every report against one comment, with details.
func (s *ReportService) CommentDetails(ctx context.Context, commentID string) ([]ReportDetails, error) {
	rs, err := s.ByComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.joinAll(ctx, rs), nil
}

// ReportDetailsPage is one page of filtered reports with details.
type ReportDetailsPage struct {
	Reports    []ReportDetails `json:"reports"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// FilterDetails is Filter with the moderation joins applied to the page.
func (s *ReportService) FilterDetails(ctx context.Context, f store.ReportFilter, commenterID string) (ReportDetailsPage, error) {
	page, err := s.Filter(ctx, f, commenterID)
	if err != nil {
		return ReportDetailsPage{}, err
	}
	return ReportDetailsPage{
		Reports:    s.joinAll(ctx, page.Reports),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *ReportService) joinAll(ctx context.Context, rs []store.Report) []ReportDetails {
	out := make([]ReportDetails, len(rs))
	for i, r := range rs {
		out[i] = s.join(ctx, r)
	}
	return out
}

func (s *ReportService) join(ctx context.Context, r store.Report) ReportDetails {
	d := ReportDetails{
		Report:        r,
		CommenterName: AnonymousName,
		ReporterName:  s.fullName(ctx, r.ReporterID),
	}
	// Reported content must stay visible to moderators even after the
	// author soft-deletes it.
	c, err := s.comments.GetAny(ctx, r.CommentID)
	if err == nil {
		d.CommentBody = c.Body
		d.CommentDeleted = c.DeletedAt != nil
		d.CommenterID = c.CommenterID
		d.CommenterName = s.fullName(ctx, c.CommenterID)
	}
	return d
}

func (s *ReportService) fullName(ctx context.Context, userID string) string {
	if s.profiles == nil {
		return AnonymousName
	}
	name, err := s.profiles.DisplayName(ctx, userID)
	if err != nil {
		return AnonymousName
	}
	return name
}
