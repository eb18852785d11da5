package model

import (
	"time"
)

// QueueStatus is the resolution state of a moderation queue item
type QueueStatus string

const (
	QueuePending  QueueStatus = "pending"
	QueueApproved QueueStatus = "approved"
	QueueRejected QueueStatus = "rejected"
	// QueueCancelled marks an item whose author withdrew the submission
	// before review; the row stays behind as history.
	QueueCancelled QueueStatus = "cancelled"
)

// ModerationQueueItem references one content record awaiting review.
// The partial unique index allows at most one pending item per content
// record; resolved items remain as history.
type ModerationQueueItem struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(50);not null;uniqueIndex:idx_moderation_one_pending,where:status = 'pending'"`
	ContentID   uint        `json:"content_id" gorm:"not null;uniqueIndex:idx_moderation_one_pending,where:status = 'pending'"`
	Status      QueueStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewedBy  *uint       `json:"reviewed_by,omitempty"`
	ReviewNotes string      `json:"review_notes" gorm:"type:text"`
	CreatedAt   time.Time   `json:"created_at"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`

	// Relations
	Reviewer *Account `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
}
