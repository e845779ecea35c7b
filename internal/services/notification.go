package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// Content-bearing events get denormalized into a short snippet on the row.
const snippetMaxRunes = 50

// NotificationService is the dispatcher: it turns domain events into
// addressed notification rows and owns the read-state flips. It implements
// events.Dispatcher.
type NotificationService interface {
	events.Dispatcher
	Get(ctx context.Context, notificationID uuid.UUID) (*types.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*types.Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.NotificationRepo
}

func NewNotificationService(db *gorm.DB, baseLog *logger.Logger, repo repos.NotificationRepo) NotificationService {
	return &notificationService{
		db:   db,
		log:  baseLog.With("service", "NotificationService"),
		repo: repo,
	}
}

func (s *notificationService) Emit(ctx context.Context, ev events.Event) {
	if ev == nil {
		return
	}
	recipient := ev.Recipient()
	actor := ev.Actor()
	if recipient == uuid.Nil {
		return
	}
	// Self-notifications never land, whatever the emitter claimed.
	if actor == recipient {
		s.log.Warn("dropping self-notification", "recipient_id", recipient)
		return
	}

	var (
		notifType types.NotificationType
		subjectID uuid.UUID
		content   string
	)
	switch e := ev.(type) {
	case events.ConnectionRequested:
		notifType = types.NotificationConnectionRequest
		subjectID = e.ConnectionID
	case events.ConnectionAccepted:
		notifType = types.NotificationConnectionAccepted
		subjectID = e.ConnectionID
	case events.ReactionRecorded:
		notifType = types.NotificationReaction
		subjectID = e.ContentID
	case events.CommentAdded:
		notifType = types.NotificationComment
		subjectID = e.ContentID
		content = snippet(e.Body)
	case events.MessageSent:
		notifType = types.NotificationMessage
		subjectID = e.MessageID
		content = snippet(e.Body)
	case events.QuestCompleted:
		notifType = types.NotificationQuestCompleted
		subjectID = e.QuestID
		content = e.Title
	case events.ModuleCompleted:
		notifType = types.NotificationModuleCompleted
		subjectID = e.ModuleID
		content = e.Title
	case events.AchievementUnlocked:
		notifType = types.NotificationAchievementUnlocked
		subjectID = e.AchievementID
		content = e.Title
	case events.LevelUp:
		notifType = types.NotificationLevelUp
		content = fmt.Sprintf("Level %d", e.Level)
	default:
		s.log.Warn("unhandled event variant", "event", fmt.Sprintf("%T", ev))
		return
	}

	now := time.Now().UTC()
	row := &types.Notification{
		ID:          uuid.New(),
		RecipientID: recipient,
		Type:        notifType,
		ActorID:     actor,
		SubjectID:   subjectID,
		Content:     content,
		IsRead:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, nil, row); err != nil {
		// Notification persistence never fails the emitting mutation.
		s.log.Error("notification create failed", "type", notifType, "recipient_id", recipient, "error", err)
	}
}

func snippet(body string) string {
	if utf8.RuneCountInString(body) <= snippetMaxRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:snippetMaxRunes])
}

func (s *notificationService) Get(ctx context.Context, notificationID uuid.UUID) (*types.Notification, error) {
	row, err := s.repo.GetByID(ctx, nil, notificationID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NewNotFound("notification_not_found", fmt.Errorf("notification %s not found", notificationID))
	}
	return row, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*types.Notification, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	return s.repo.ListForUser(ctx, nil, userID, unreadOnly, limit)
}

// MarkRead flips the read bit. Ownership checks are the transport layer's
// contract, not re-checked here.
func (s *notificationService) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, nil, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NewNotFound("notification_not_found", fmt.Errorf("notification %s not found", notificationID))
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	return s.repo.MarkAllRead(ctx, nil, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	return s.repo.CountUnread(ctx, nil, userID)
}
