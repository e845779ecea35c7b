package types

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationConnectionRequest   NotificationType = "connection_request"
	NotificationConnectionAccepted  NotificationType = "connection_accepted"
	NotificationReaction            NotificationType = "reaction"
	NotificationComment             NotificationType = "comment"
	NotificationMessage             NotificationType = "message"
	NotificationQuestCompleted      NotificationType = "quest_completed"
	NotificationModuleCompleted     NotificationType = "module_completed"
	NotificationAchievementUnlocked NotificationType = "achievement_unlocked"
	NotificationLevelUp             NotificationType = "level_up"
)

// Notification is append-only except for the IsRead flip. ActorID is never
// equal to RecipientID; the dispatcher drops such events before they land.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecipientID;references:ID" json:"-"`
	Type        NotificationType `gorm:"column:type;not null" json:"type"`
	ActorID     uuid.UUID        `gorm:"type:uuid;not null" json:"actor_id"`
	SubjectID   uuid.UUID        `gorm:"type:uuid" json:"subject_id"`
	Content     string           `gorm:"column:content" json:"content"`
	IsRead      bool             `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null" json:"updated_at"`
}

func (Notification) TableName() string { return "notification" }
