package model

import (
	"time"

	"gorm.io/gorm"
)

// PublishState is the lifecycle stage of a content record
type PublishState string

const (
	StateDraft             PublishState = "draft"
	StatePendingModeration PublishState = "pending_moderation"
	StatePublished         PublishState = "published"
	// StateRejected is part of the lifecycle vocabulary for API clients;
	// a rejected moderation decision reverts the record to StateDraft so
	// the author can revise and resubmit.
	StateRejected PublishState = "rejected"
)

// ContentType distinguishes the kinds of content sharing this shape
type ContentType string

const (
	ContentTypePost ContentType = "blog_post"
	ContentTypePage ContentType = "page"
)

// Content represents a blog post or page owned by one author and
// optionally scoped to one tenant.
type Content struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Type           ContentType    `json:"type" gorm:"type:varchar(50);not null;default:'blog_post'"`
	Title          string         `json:"title" gorm:"type:varchar(200);not null"`
	Slug           string         `json:"slug" gorm:"type:varchar(220);uniqueIndex;not null"`
	Body           string         `json:"body" gorm:"type:text"`
	Excerpt        string         `json:"excerpt" gorm:"type:text"`
	Tags           string         `json:"tags" gorm:"type:varchar(255)"`
	AuthorID       uint           `json:"author_id" gorm:"index;not null"`
	TenantID       *uint          `json:"tenant_id,omitempty" gorm:"index"`
	State          PublishState   `json:"state" gorm:"type:varchar(20);not null;default:'draft'"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	RejectionCount int            `json:"rejection_count" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author *Account `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Tenant *Tenant  `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
