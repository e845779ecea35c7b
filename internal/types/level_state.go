package types

import (
	"time"

	"github.com/google/uuid"
)

// LevelState is the per-user XP accumulator. XP only ever grows and Level is
// a monotonic function of XP via the configured threshold table.
type LevelState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Level     int       `gorm:"column:level;not null;default:1" json:"level"`
	XP        int       `gorm:"column:xp;not null;default:0" json:"xp"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LevelState) TableName() string { return "level_state" }
