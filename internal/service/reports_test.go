package service

import (
	"context"
	"errors"
	"testing"

	"github.com/example/comment-platform/internal/store"
)

func TestReportService_CreateDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.comment(t, "content-1", "user-a", "bad", nil)

	if _, err := f.rs.Create(ctx, store.Report{CommentID: c.ID, ReporterID: "user-b", Reason: "spam"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.rs.Create(ctx, store.Report{CommentID: c.ID, ReporterID: "user-b", Reason: "spam again"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestReportService_Details_UnmaskedNames(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.profiles.Put("user-a", "John", "Doe")
	f.profiles.Put("user-b", "Jane", "Smith")
	c := f.comment(t, "content-1", "user-a", "offensive text", nil)
	r, _ := f.rs.Create(ctx, store.Report{CommentID: c.ID, ReporterID: "user-b", Reason: "abuse"})

	d, err := f.rs.Details(ctx, r.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.CommentBody != "offensive text" {
		t.Fatalf("expected comment body joined in, got %q", d.CommentBody)
	}
	// Moderators get real names, not the masked end-user form.
	if d.CommenterName != "John Doe" {
		t.Fatalf("expected full commenter name, got %q", d.CommenterName)
	}
	if d.ReporterName != "Jane Smith" {
		t.Fatalf("expected full reporter name, got %q", d.ReporterName)
	}
	if d.CommenterID != "user-a" {
		t.Fatalf("expected commenter id, got %q", d.CommenterID)
	}
}

func TestReportService_Details_DeletedCommentStillVisible(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c := f.comment(t, "content-1", "user-a", "soon gone", nil)
	r, _ := f.rs.Create(ctx, store.Report{CommentID: c.ID, ReporterID: "user-b", Reason: "abuse"})

	if err := f.cs.SoftDelete(ctx, c.ID, "user-a"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	d, err := f.rs.Details(ctx, r.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.CommentBody != "soon gone" {
		t.Fatalf("expected deleted comment's body for moderators, got %q", d.CommentBody)
	}
	if !d.CommentDeleted {
		t.Fatal("expected deleted flag set")
	}
}

func TestReportService_UnreviewedDetails_OldestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c1 := f.comment(t, "content-1", "user-a", "first", nil)
	c2 := f.comment(t, "content-1", "user-a", "second", nil)
	r1, _ := f.rs.Create(ctx, store.Report{CommentID: c1.ID, ReporterID: "user-b", Reason: "spam"})
	r2, _ := f.rs.Create(ctx, store.Report{CommentID: c2.ID, ReporterID: "user-c", Reason: "spam"})

	_ = f.rs.Review(ctx, r1.ID, "handled")

	queue, err := f.rs.UnreviewedDetails(ctx)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != r2.ID {
		t.Fatalf("expected only the unreviewed report, got %+v", queue)
	}
}

func TestReportService_Filter_ByCommenter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	mine := f.comment(t, "content-1", "target-user", "their comment", nil)
	other := f.comment(t, "content-1", "someone-else", "unrelated", nil)
	wanted, _ := f.rs.Create(ctx, store.Report{CommentID: mine.ID, ReporterID: "user-b", Reason: "spam"})
	_, _ = f.rs.Create(ctx, store.Report{CommentID: other.ID, ReporterID: "user-b", Reason: "spam"})

	page, err := f.rs.Filter(ctx, store.ReportFilter{}, "target-user")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if page.Total != 1 || page.Reports[0].ID != wanted.ID {
		t.Fatalf("expected only the report against target-user's comment, got %+v", page)
	}

	// A commenter with no comments matches nothing, not everything.
	page, err = f.rs.Filter(ctx, store.ReportFilter{}, "has-no-comments")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected no matches for commenter without comments, got %d", page.Total)
	}
}

func TestReportService_FilterDetails_CarriesPageArithmetic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		c := f.comment(t, "content-1", "user-a", "text", nil)
		_, _ = f.rs.Create(ctx, store.Report{CommentID: c.ID, ReporterID: "user-b", Reason: "spam"})
	}

	page, err := f.rs.FilterDetails(ctx, store.ReportFilter{Page: 2, PageSize: 10}, "")
	if err != nil {
		t.Fatalf("filter details: %v", err)
	}
	if page.Total != 15 || len(page.Reports) != 5 || page.TotalPages != 2 {
		t.Fatalf("expected 15 total, 5 on page 2, 2 pages; got %d/%d/%d",
			page.Total, len(page.Reports), page.TotalPages)
	}
}

func TestReportService_Unreviewed_PlainQueue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c1 := f.comment(t, "content-1", "user-a", "first", nil)
	c2 := f.comment(t, "content-1", "user-a", "second", nil)
	r1, _ := f.rs.Create(ctx, store.Report{CommentID: c1.ID, ReporterID: "user-b", Reason: "spam"})
	r2, _ := f.rs.Create(ctx, store.Report{CommentID: c2.ID, ReporterID: "user-b", Reason: "abuse"})

	if err := f.rs.Review(ctx, r1.ID, "dismissed"); err != nil {
		t.Fatalf("review: %v", err)
	}

	queue, err := f.rs.Unreviewed(ctx)
	if err != nil {
		t.Fatalf("unreviewed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != r2.ID {
		t.Fatalf("queue = %+v, want only the unreviewed report", queue)
	}
}

func TestReportService_ByComment_Plain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c1 := f.comment(t, "content-1", "user-a", "target", nil)
	c2 := f.comment(t, "content-1", "user-a", "other", nil)
	f.rs.Create(ctx, store.Report{CommentID: c1.ID, ReporterID: "user-b", Reason: "spam"})
	f.rs.Create(ctx, store.Report{CommentID: c1.ID, ReporterID: "user-c", Reason: "abuse"})
	f.rs.Create(ctx, store.Report{CommentID: c2.ID, ReporterID: "user-b", Reason: "spam"})

	got, err := f.rs.ByComment(ctx, c1.ID)
	if err != nil {
		t.Fatalf("by comment: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2", len(got))
	}
	for _, r := range got {
		if r.CommentID != c1.ID {
			t.Fatalf("report %s belongs to comment %s", r.ID, r.CommentID)
		}
	}
}
