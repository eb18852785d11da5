package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an organization workspace that scopes accounts and
// content. Tenants are only ever soft-deactivated, never hard-deleted,
// since accounts and content keep referencing them.
type Tenant struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	AdminAccountID *uint          `json:"admin_account_id,omitempty" gorm:"index"`
	ThemeID        *uint          `json:"theme_id,omitempty"`
	Active         bool           `json:"active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
