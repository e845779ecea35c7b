package types

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s ConnectionStatus) Terminal() bool {
	return s == ConnectionAccepted || s == ConnectionRejected
}

// Connection is a directed request from requester to recipient. At most one
// row exists per ordered pair; status only ever moves pending->accepted or
// pending->rejected.
type Connection struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;index:idx_connection_pair,unique;index" json:"requester_id"`
	Requester   *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RequesterID;references:ID" json:"requester,omitempty"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index:idx_connection_pair,unique;index" json:"recipient_id"`
	Recipient   *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecipientID;references:ID" json:"recipient,omitempty"`
	Status      ConnectionStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null" json:"updated_at"`
}

func (Connection) TableName() string { return "connection" }
