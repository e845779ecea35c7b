package types

import (
	"time"

	"github.com/google/uuid"
)

// Static gamification definitions, seeded from config at startup.

type QuestDef struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	XPReward  int       `gorm:"column:xp_reward;not null" json:"xp_reward"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuestDef) TableName() string { return "quest_def" }

type ModuleDef struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	XPReward  int       `gorm:"column:xp_reward;not null" json:"xp_reward"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ModuleDef) TableName() string { return "module_def" }

type AchievementDef struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug             string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title            string    `gorm:"column:title;not null" json:"title"`
	RequiredProgress int       `gorm:"column:required_progress;not null" json:"required_progress"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (AchievementDef) TableName() string { return "achievement_def" }
