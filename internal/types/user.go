package types

import (
	"time"

	"github.com/google/uuid"
)

// User rows are owned by the identity provider; the engine only references
// them by id and cascades on deletion.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Handle    string    `gorm:"column:handle;uniqueIndex;not null" json:"handle"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
