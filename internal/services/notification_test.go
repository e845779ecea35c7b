package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

func newNotificationService(t *testing.T) (NotificationService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	return NewNotificationService(db, log, repos.NewNotificationRepo(db, log)), db
}

func TestEmitCreatesAddressedRows(t *testing.T) {
	svc, _ := newNotificationService(t)
	actor := uuid.New()
	recipient := uuid.New()
	connectionID := uuid.New()

	svc.Emit(context.Background(), events.NewConnectionRequested(actor, recipient, connectionID))

	rows, err := svc.ListForUser(context.Background(), recipient, false, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("notification rows: want=1 got=%d", len(rows))
	}
	row := rows[0]
	if row.Type != types.NotificationConnectionRequest {
		t.Fatalf("type: want=%s got=%s", types.NotificationConnectionRequest, row.Type)
	}
	if row.ActorID != actor || row.SubjectID != connectionID || row.IsRead {
		t.Fatalf("row fields: actor=%s subject=%s is_read=%v", row.ActorID, row.SubjectID, row.IsRead)
	}
}

func TestEmitDropsSelfNotifications(t *testing.T) {
	svc, _ := newNotificationService(t)
	userID := uuid.New()

	svc.Emit(context.Background(), events.NewReactionRecorded(userID, userID, uuid.New()))

	rows, err := svc.ListForUser(context.Background(), userID, false, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("self notification landed: got %d rows", len(rows))
	}
}

func TestEmitSnippetsLongMessageBodies(t *testing.T) {
	svc, _ := newNotificationService(t)
	recipient := uuid.New()

	body := strings.Repeat("héllo ", 20) // well past the snippet cap, multibyte
	svc.Emit(context.Background(), events.NewMessageSent(uuid.New(), recipient, uuid.New(), body))

	rows, err := svc.ListForUser(context.Background(), recipient, false, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("notification rows: want=1 got=%d", len(rows))
	}
	got := rows[0].Content
	if utf8.RuneCountInString(got) != snippetMaxRunes {
		t.Fatalf("snippet length: want=%d got=%d", snippetMaxRunes, utf8.RuneCountInString(got))
	}
	if !strings.HasPrefix(body, got) {
		t.Fatalf("snippet is not a prefix of the body: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got)
	}
}

func TestEmitProgressionEventsCarryTitles(t *testing.T) {
	svc, _ := newNotificationService(t)
	userID := uuid.New()

	svc.Emit(context.Background(), events.NewQuestCompleted(userID, uuid.New(), "Post your first vibe"))
	svc.Emit(context.Background(), events.NewLevelUp(userID, 3))

	rows, err := svc.ListForUser(context.Background(), userID, false, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("notification rows: want=2 got=%d", len(rows))
	}
	byType := map[types.NotificationType]string{}
	for _, row := range rows {
		byType[row.Type] = row.Content
		if row.ActorID != uuid.Nil {
			t.Fatalf("progression notification actor: want=nil got=%s", row.ActorID)
		}
	}
	if byType[types.NotificationQuestCompleted] != "Post your first vibe" {
		t.Fatalf("quest content: got %q", byType[types.NotificationQuestCompleted])
	}
	if byType[types.NotificationLevelUp] != "Level 3" {
		t.Fatalf("level up content: got %q", byType[types.NotificationLevelUp])
	}
}

func TestMarkReadAndUnreadCounts(t *testing.T) {
	svc, _ := newNotificationService(t)
	recipient := uuid.New()

	for i := 0; i < 3; i++ {
		svc.Emit(context.Background(), events.NewReactionRecorded(uuid.New(), recipient, uuid.New()))
	}

	n, err := svc.CountUnread(context.Background(), recipient)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if n != 3 {
		t.Fatalf("unread count: want=3 got=%d", n)
	}

	rows, err := svc.ListForUser(context.Background(), recipient, true, 0)
	if err != nil {
		t.Fatalf("ListForUser unread: %v", err)
	}
	if err := svc.MarkRead(context.Background(), rows[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	n, err = svc.CountUnread(context.Background(), recipient)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if n != 2 {
		t.Fatalf("unread count after mark: want=2 got=%d", n)
	}

	marked, err := svc.MarkAllRead(context.Background(), recipient)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if marked != 2 {
		t.Fatalf("MarkAllRead: want=2 got=%d", marked)
	}

	unread, err := svc.ListForUser(context.Background(), recipient, true, 0)
	if err != nil {
		t.Fatalf("ListForUser unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("unread rows after mark all: want=0 got=%d", len(unread))
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc, _ := newNotificationService(t)

	err := svc.MarkRead(context.Background(), uuid.New())
	if !apierr.IsNotFound(err) {
		t.Fatalf("unknown notification: want not found, got %v", err)
	}
}
