package types

import (
	"time"

	"github.com/google/uuid"
)

type ProgressTarget string

const (
	TargetQuest       ProgressTarget = "quest"
	TargetModule      ProgressTarget = "module"
	TargetAchievement ProgressTarget = "achievement"
)

// ProgressRecord tracks a user against one quest/module/achievement target.
// Unique per (user_id, target_id). Progress never exceeds the definition's
// required threshold and Completed is terminal; for achievements the same
// columns carry the unlocked state.
type ProgressRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_target,unique;index" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	TargetID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_target,unique" json:"target_id"`
	TargetType  ProgressTarget `gorm:"column:target_type;not null" json:"target_type"`
	Progress    int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Completed   bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }
