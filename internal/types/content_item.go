package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentItem ("vibe") is authored by an external collaborator; the engine
// reads id/author/tags/created_at and never mutates the row.
type ContentItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Body      string         `gorm:"column:body" json:"body"`
	Tags      datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (ContentItem) TableName() string { return "content_item" }

// ContentTag is the lowercased membership row backing exact case-insensitive
// tag lookup. Denormalized from ContentItem.Tags on ingest.
type ContentTag struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ContentID uuid.UUID    `gorm:"type:uuid;not null;index:idx_content_tag,unique" json:"content_id"`
	Content   *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"-"`
	Tag       string       `gorm:"column:tag;not null;index:idx_content_tag,unique;index:idx_tag" json:"tag"`
}

func (ContentTag) TableName() string { return "content_tag" }
