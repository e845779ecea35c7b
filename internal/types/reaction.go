package types

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is the single like/dislike vote a user holds on a content item.
// Later calls overwrite IsLike in place; rows are never deleted.
type Reaction struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ContentID uuid.UUID    `gorm:"type:uuid;not null;index:idx_reaction_content_user,unique" json:"content_id"`
	Content   *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"content,omitempty"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_reaction_content_user,unique" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	IsLike    bool         `gorm:"column:is_like;not null" json:"is_like"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Reaction) TableName() string { return "reaction" }
