package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/comment-platform/internal/profile"
	"github.com/example/comment-platform/internal/store"
)

type fixture struct {
	comments *store.InMemoryCommentStore
	votes    *store.InMemoryVoteStore
	reports  *store.InMemoryReportStore
	profiles *profile.StaticDirectory
	cs       *CommentService
	rs       *ReportService
}

func newFixture() *fixture {
	log := zap.NewNop()
	f := &fixture{
		comments: store.NewInMemoryCommentStore(),
		votes:    store.NewInMemoryVoteStore(),
		reports:  store.NewInMemoryReportStore(),
		profiles: profile.NewStaticDirectory(),
	}
	ledger := NewVoteLedger(f.votes, f.comments, nil, log)
	f.cs = NewCommentService(f.comments, f.reports, ledger, f.profiles, nil, log)
	f.rs = NewReportService(f.reports, f.comments, f.profiles, nil, log)
	return f
}

func (f *fixture) comment(t *testing.T, contentID, userID, body string, parentID *string) store.Comment {
	t.Helper()
	c, err := f.cs.Create(context.Background(), store.Comment{
		ContentID:   contentID,
		CommenterID: userID,
		Body:        body,
		ParentID:    parentID,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

func TestToggleVote_StateMachine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.comment(t, "content-1", "user-a", "hello", nil)

	// No vote -> add.
	res := f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteLike)
	if !res.Success || res.Message != "like added" {
		t.Fatalf("expected 'like added', got %+v", res)
	}
	if res.LikeCount != 1 || res.DislikeCount != 0 {
		t.Fatalf("expected 1/0, got %d/%d", res.LikeCount, res.DislikeCount)
	}

	// Different vote -> switch.
	res = f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteDislike)
	if !res.Success || res.Message != "dislike switched" {
		t.Fatalf("expected 'dislike switched', got %+v", res)
	}
	if res.LikeCount != 0 || res.DislikeCount != 1 {
		t.Fatalf("expected 0/1, got %d/%d", res.LikeCount, res.DislikeCount)
	}

	// Same vote -> remove.
	res = f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteDislike)
	if !res.Success || res.Message != "dislike removed" {
		t.Fatalf("expected 'dislike removed', got %+v", res)
	}
	if res.LikeCount != 0 || res.DislikeCount != 0 {
		t.Fatalf("expected 0/0, got %d/%d", res.LikeCount, res.DislikeCount)
	}

	// Back to empty state: the next toggle adds again.
	res = f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteLike)
	if !res.Success || res.Message != "like added" {
		t.Fatalf("expected cycle to restart with 'like added', got %+v", res)
	}
}

func TestToggleVote_KeepsCachedCountersCurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.comment(t, "content-1", "user-a", "hello", nil)

	f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteLike)
	f.cs.ToggleVote(ctx, "user-c", c.ID, store.VoteLike)
	f.cs.ToggleVote(ctx, "user-d", c.ID, store.VoteDislike)

	got, err := f.cs.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LikeCount != 2 || got.DislikeCount != 1 {
		t.Fatalf("expected cached 2/1, got %d/%d", got.LikeCount, got.DislikeCount)
	}
}

func TestVoteStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.comment(t, "content-1", "user-a", "hello", nil)

	status, err := f.cs.VoteStatus(ctx, "user-b", c.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != nil {
		t.Fatalf("expected nil status before voting, got %v", *status)
	}

	f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteDislike)
	status, err = f.cs.VoteStatus(ctx, "user-b", c.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status == nil || *status != store.VoteDislike {
		t.Fatalf("expected dislike, got %v", status)
	}
}

func TestListTopLevel_HidesReportedAndTheirReplies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reported := f.comment(t, "content-1", "user-x", "offensive", nil)
	pid := reported.ID
	reply := f.comment(t, "content-1", "user-y", "reply under it", &pid)
	clean := f.comment(t, "content-1", "user-z", "fine", nil)

	if _, err := f.rs.Create(ctx, store.Report{CommentID: reported.ID, ReporterID: "viewer", Reason: "abuse"}); err != nil {
		t.Fatalf("report: %v", err)
	}

	// The reporter sees neither the reported comment nor its reply.
	out, err := f.cs.ListTopLevel(ctx, "content-1", "viewer")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].ID != clean.ID {
		t.Fatalf("expected only the clean comment for the reporter, got %+v", out)
	}
	replies, err := f.cs.ListReplies(ctx, reported.ID, "viewer")
	if err != nil {
		t.Fatalf("replies: %v", err)
	}
	if len(replies) != 0 {
		t.Fatalf("expected no replies of a reported parent, got %+v", replies)
	}

	// Everyone else still sees the full thread.
	out, _ = f.cs.ListTopLevel(ctx, "content-1", "other-user")
	if len(out) != 2 {
		t.Fatalf("expected 2 top-level comments for others, got %d", len(out))
	}
	replies, _ = f.cs.ListReplies(ctx, reported.ID, "other-user")
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Fatalf("expected the reply visible to others, got %+v", replies)
	}

	// Anonymous viewers see everything too.
	out, _ = f.cs.ListTopLevel(ctx, "content-1", "")
	if len(out) != 2 {
		t.Fatalf("expected 2 top-level comments for anonymous, got %d", len(out))
	}
}

func TestListReplies_HidesIndividuallyReportedReply(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	parent := f.comment(t, "content-1", "user-a", "parent", nil)
	pid := parent.ID
	bad := f.comment(t, "content-1", "user-b", "bad reply", &pid)
	good := f.comment(t, "content-1", "user-c", "good reply", &pid)

	_, _ = f.rs.Create(ctx, store.Report{CommentID: bad.ID, ReporterID: "viewer", Reason: "abuse"})

	replies, err := f.cs.ListReplies(ctx, parent.ID, "viewer")
	if err != nil {
		t.Fatalf("replies: %v", err)
	}
	if len(replies) != 1 || replies[0].ID != good.ID {
		t.Fatalf("expected only the unreported reply, got %+v", replies)
	}
}

func TestFilter_ExcludesViewerReported(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reported := f.comment(t, "content-1", "user-a", "bad", nil)
	clean := f.comment(t, "content-1", "user-b", "good", nil)
	_, _ = f.rs.Create(ctx, store.Report{CommentID: reported.ID, ReporterID: "viewer", Reason: "spam"})

	page, err := f.cs.Filter(ctx, store.FilterRequest{ContentID: "content-1", UserID: "viewer"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if page.Total != 1 || len(page.Comments) != 1 || page.Comments[0].ID != clean.ID {
		t.Fatalf("expected only the clean comment, got %+v", page)
	}
}

func TestPurge_DropsVoteLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.comment(t, "content-1", "user-a", "going away", nil)

	f.cs.ToggleVote(ctx, "user-b", c.ID, store.VoteLike)

	if err := f.cs.Purge(ctx, c.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	st, _ := f.votes.Stats(ctx, c.ID)
	if st.Likes != 0 || st.Dislikes != 0 {
		t.Fatalf("expected empty ledger after purge, got %d/%d", st.Likes, st.Dislikes)
	}
}

func TestWithAuthors_MasksNames(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.profiles.Put("user-a", "John", "Doe")
	c := f.comment(t, "content-1", "user-a", "hi", nil)
	orphan := f.comment(t, "content-1", "user-unknown", "hi too", nil)

	out := f.cs.WithAuthors(ctx, []store.Comment{c, orphan})
	if out[0].CommenterName != "J*** D**" {
		t.Fatalf("expected masked name, got %q", out[0].CommenterName)
	}
	if out[1].CommenterName != AnonymousName {
		t.Fatalf("expected anonymous fallback, got %q", out[1].CommenterName)
	}
}

func TestToggleFailed_DuplicateNotWarned(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	comments := store.NewInMemoryCommentStore()
	votes := store.NewInMemoryVoteStore()
	ledger := NewVoteLedger(votes, comments, nil, log)
	cs := NewCommentService(comments, store.NewInMemoryReportStore(), ledger, profile.NewStaticDirectory(), nil, log)

	// Two first-votes racing surface as a duplicate key. That is the
	// expected outcome of the unique index, so it never logs at warn.
	res := cs.toggleFailed("c1", "add", store.ErrDuplicate)
	if res.Success || res.Message != "vote failed" {
		t.Fatalf("result = %+v", res)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Fatalf("duplicate key logged %d warn entries", n)
	}
	if n := logs.FilterLevelExact(zapcore.DebugLevel).Len(); n != 1 {
		t.Fatalf("expected one debug entry, got %d", n)
	}

	// Any other ledger failure is a real fault and keeps the warn.
	_ = cs.toggleFailed("c1", "stats", errors.New("connection reset"))
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Fatalf("expected one warn entry, got %d", n)
	}
}
