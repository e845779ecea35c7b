package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	redisclient "github.com/vibeline/vibeline-backend/internal/clients/redis"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

func newEngagementService(t *testing.T) (EngagementService, *gorm.DB, *fakeDispatcher) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	dispatch := &fakeDispatcher{}
	svc := NewEngagementService(db, log,
		repos.NewReactionRepo(db, log),
		repos.NewContentItemRepo(db, log),
		nil, // no redis in tests; the SQL path is authoritative
		dispatch,
	)
	return svc, db, dispatch
}

func TestSetReactionUnknownContent(t *testing.T) {
	svc, _, _ := newEngagementService(t)

	_, err := svc.SetReaction(context.Background(), uuid.New(), uuid.New(), true)
	if !apierr.IsNotFound(err) {
		t.Fatalf("unknown content: want not found, got %v", err)
	}
}

func TestSetReactionKeepsSingleRowPerUser(t *testing.T) {
	svc, db, _ := newEngagementService(t)
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	item := seedContent(t, db, author, time.Now().UTC())

	if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
		t.Fatalf("re-like: %v", err)
	}
	current, err := svc.SetReaction(context.Background(), voter, item.ID, false)
	if err != nil {
		t.Fatalf("dislike: %v", err)
	}
	if current.IsLike {
		t.Fatalf("reaction state: want dislike after flip")
	}

	var n int64
	if err := db.Model(&types.Reaction{}).
		Where("content_id = ? AND user_id = ?", item.ID, voter).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaction rows: want=1 got=%d", n)
	}
}

func TestSetReactionNotifiesOnlyOnLikeTransition(t *testing.T) {
	svc, db, dispatch := newEngagementService(t)
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	item := seedContent(t, db, author, time.Now().UTC())

	steps := []struct {
		isLike     bool
		wantEvents int
	}{
		{true, 1},  // none -> like
		{true, 1},  // re-confirmation, no event
		{false, 1}, // like -> dislike, no event
		{true, 2},  // dislike -> like
	}
	for i, step := range steps {
		if _, err := svc.SetReaction(context.Background(), voter, item.ID, step.isLike); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if dispatch.count() != step.wantEvents {
			t.Fatalf("step %d event count: want=%d got=%d", i, step.wantEvents, dispatch.count())
		}
	}

	ev, ok := dispatch.all()[0].(events.ReactionRecorded)
	if !ok {
		t.Fatalf("event type: want ReactionRecorded, got %T", dispatch.all()[0])
	}
	if ev.Actor() != voter || ev.Recipient() != author || ev.ContentID != item.ID {
		t.Fatalf("event addressing: actor=%s recipient=%s content=%s", ev.Actor(), ev.Recipient(), ev.ContentID)
	}
}

func TestSetReactionAuthorLikingOwnContentEmitsNothing(t *testing.T) {
	svc, db, dispatch := newEngagementService(t)
	author := seedUser(t, db, "author")
	item := seedContent(t, db, author, time.Now().UTC())

	if _, err := svc.SetReaction(context.Background(), author, item.ID, true); err != nil {
		t.Fatalf("self like: %v", err)
	}
	if dispatch.count() != 0 {
		t.Fatalf("self like event count: want=0 got=%d", dispatch.count())
	}
}

func TestComputeTrendingOrdersByLikesThenRecency(t *testing.T) {
	svc, db, _ := newEngagementService(t)
	author := seedUser(t, db, "author")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// a: 2 likes; b and c: 1 like each, c newer than b.
	a := seedContent(t, db, author, base)
	b := seedContent(t, db, author, base.Add(1*time.Hour))
	c := seedContent(t, db, author, base.Add(2*time.Hour))

	voters := []uuid.UUID{seedUser(t, db, "v1"), seedUser(t, db, "v2")}
	for _, v := range voters {
		if _, err := svc.SetReaction(context.Background(), v, a.ID, true); err != nil {
			t.Fatalf("like a: %v", err)
		}
	}
	if _, err := svc.SetReaction(context.Background(), voters[0], b.ID, true); err != nil {
		t.Fatalf("like b: %v", err)
	}
	if _, err := svc.SetReaction(context.Background(), voters[0], c.ID, true); err != nil {
		t.Fatalf("like c: %v", err)
	}
	// Dislikes never count toward trending.
	if _, err := svc.SetReaction(context.Background(), voters[1], b.ID, false); err != nil {
		t.Fatalf("dislike b: %v", err)
	}

	got, err := svc.ComputeTrending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ComputeTrending: %v", err)
	}
	want := []uuid.UUID{a.ID, c.ID, b.ID}
	if len(got) != len(want) {
		t.Fatalf("trending length: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("trending[%d]: want=%s got=%s", i, want[i], got[i].ID)
		}
	}
}

// racedReactionRepo simulates losing the insert race: another call committed
// the row between this call's existence check and its insert, so the
// ON CONFLICT DO NOTHING absorbs it.
type racedReactionRepo struct {
	repos.ReactionRepo
	loseInsert bool
}

func (r *racedReactionRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.Reaction) (bool, error) {
	if r.loseInsert {
		return false, nil
	}
	return r.ReactionRepo.InsertIfAbsent(ctx, tx, row)
}

func TestSetReactionRacingDuplicateLikesNotifyOnce(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	dispatch := &fakeDispatcher{}
	raced := &racedReactionRepo{ReactionRepo: repos.NewReactionRepo(db, log)}
	svc := NewEngagementService(db, log, raced, repos.NewContentItemRepo(db, log), nil, dispatch)

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	item := seedContent(t, db, author, time.Now().UTC())

	if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
		t.Fatalf("winning like: %v", err)
	}

	// The racing duplicate's insert hits the already-committed row and the
	// flip guard finds the vote already liked: it must observe no transition,
	// so the one stored like yields exactly one notification.
	raced.loseInsert = true
	if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
		t.Fatalf("racing like: %v", err)
	}

	if dispatch.count() != 1 {
		t.Fatalf("events after racing likes: want=1 got=%d", dispatch.count())
	}
	var n int64
	if err := db.Model(&types.Reaction{}).
		Where("content_id = ? AND user_id = ?", item.ID, voter).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaction rows: want=1 got=%d", n)
	}
}

type fakeTrendingIndex struct {
	candidates []redisclient.Candidate
}

func (f *fakeTrendingIndex) Adjust(ctx context.Context, contentID uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeTrendingIndex) TopCandidates(ctx context.Context, n int64) ([]redisclient.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeTrendingIndex) Close() error { return nil }

func TestComputeTrendingFromIndexBreaksTiesByRecency(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	author := seedUser(t, db, "author")

	// a leads; b and c are tied, c is newer. The index hands the tie group
	// back in its own (arbitrary) order with b first.
	a := seedContent(t, db, author, base)
	b := seedContent(t, db, author, base.Add(1*time.Hour))
	c := seedContent(t, db, author, base.Add(2*time.Hour))
	index := &fakeTrendingIndex{candidates: []redisclient.Candidate{
		{ContentID: a.ID, Likes: 2},
		{ContentID: b.ID, Likes: 1},
		{ContentID: c.ID, Likes: 1},
	}}
	svc := NewEngagementService(db, log, repos.NewReactionRepo(db, log), repos.NewContentItemRepo(db, log), index, &fakeDispatcher{})

	got, err := svc.ComputeTrending(context.Background(), 2)
	if err != nil {
		t.Fatalf("ComputeTrending: %v", err)
	}
	want := []uuid.UUID{a.ID, c.ID}
	if len(got) != len(want) {
		t.Fatalf("trending length: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("trending[%d]: want=%s got=%s", i, want[i], got[i].ID)
		}
	}
}

func TestComputeTrendingSurvivesCallerCancellation(t *testing.T) {
	svc, db, _ := newEngagementService(t)
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	item := seedContent(t, db, author, time.Now().UTC())
	if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
		t.Fatalf("like: %v", err)
	}

	// The recompute flight is shared across callers, so one caller's
	// cancellation must not fail it for everyone waiting on the same key.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := svc.ComputeTrending(ctx, 5)
	if err != nil {
		t.Fatalf("trending with cancelled caller: %v", err)
	}
	if len(got) != 1 || got[0].ID != item.ID {
		t.Fatalf("trending with cancelled caller: want the liked item, got %+v", got)
	}
}

func TestComputeTrendingRespectsLimitAndValidatesIt(t *testing.T) {
	svc, db, _ := newEngagementService(t)
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		item := seedContent(t, db, author, base.Add(time.Duration(i)*time.Minute))
		if _, err := svc.SetReaction(context.Background(), voter, item.ID, true); err != nil {
			t.Fatalf("like %d: %v", i, err)
		}
	}

	got, err := svc.ComputeTrending(context.Background(), 2)
	if err != nil {
		t.Fatalf("ComputeTrending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limited trending: want=2 got=%d", len(got))
	}

	if _, err := svc.ComputeTrending(context.Background(), 0); !apierr.IsValidation(err) {
		t.Fatalf("zero limit: want validation, got %v", err)
	}
}

func TestQueryByTagIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	contentRepo := repos.NewContentItemRepo(db, log)
	contentSvc := NewContentService(db, log, contentRepo)
	svc := NewEngagementService(db, log, repos.NewReactionRepo(db, log), contentRepo, nil, &fakeDispatcher{})

	author := seedUser(t, db, "author")
	item, err := contentSvc.CreateContentItem(context.Background(), author, "sunset set", []string{"Chill", "chill", "  Lo-Fi  "})
	if err != nil {
		t.Fatalf("CreateContentItem: %v", err)
	}

	for _, q := range []string{"chill", "CHILL", "lo-fi"} {
		got, err := svc.QueryByTag(context.Background(), q)
		if err != nil {
			t.Fatalf("QueryByTag(%q): %v", q, err)
		}
		if len(got) != 1 || got[0].ID != item.ID {
			t.Fatalf("QueryByTag(%q): want the seeded item, got %+v", q, got)
		}
	}

	got, err := svc.QueryByTag(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("QueryByTag(jazz): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("QueryByTag(jazz): want empty, got %d", len(got))
	}

	if _, err := svc.QueryByTag(context.Background(), ""); !apierr.IsValidation(err) {
		t.Fatalf("empty tag: want validation, got %v", err)
	}
}
