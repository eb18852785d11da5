package model

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a platform account stored in the database.
// Accounts with role Admin or below belong to exactly one tenant when
// created through the managed flow; SuperAdmin accounts may be tenant-less.
type Account struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	Email        string         `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string         `json:"first_name" gorm:"type:varchar(80)"`
	LastName     string         `json:"last_name" gorm:"type:varchar(80)"`
	Role         string         `json:"role" gorm:"type:varchar(50);not null;default:'User'"`
	TenantID     *uint          `json:"tenant_id,omitempty" gorm:"index"`
	Active       bool           `json:"active" gorm:"default:true"`
	Banned       bool           `json:"banned" gorm:"default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
