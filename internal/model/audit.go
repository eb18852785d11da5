package model

import (
	"time"
)

// AuditLogEntry is an append-only record of a privileged action.
// Entries are never updated or deleted.
type AuditLogEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ActorID      uint      `json:"actor_id" gorm:"index;not null"`
	Action       string    `json:"action" gorm:"type:varchar(100);not null"`
	ResourceType string    `json:"resource_type" gorm:"type:varchar(50)"`
	ResourceID   *uint     `json:"resource_id,omitempty"`
	IPAddress    string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	Metadata     string    `json:"metadata" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`

	// Relations
	Actor *Account `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
}
