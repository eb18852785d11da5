package service

import (
	"encoding/json"

	"opinian/internal/model"
	"opinian/internal/role"
	"opinian/pkg/database"

	"gorm.io/gorm"
)

// appendAudit writes an audit entry inside the caller's transaction so a
// privileged action is never acknowledged without its trail.
func appendAudit(tx *gorm.DB, actorID uint, action, resourceType string, resourceID *uint, meta RequestMeta, metadata map[string]interface{}) error {
	entry := model.AuditLogEntry{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err == nil {
			entry.Metadata = string(raw)
		}
	}

	return tx.Create(&entry).Error
}

// RecentAuditEntries returns the most recent audit entries, newest first.
// Admins only see activity of accounts in their own tenant; SuperAdmin sees
// everything.
func RecentAuditEntries(actor Actor, limit int) ([]model.AuditLogEntry, error) {
	if actor.Role != role.SuperAdmin && actor.Role != role.Admin {
		return nil, ErrPermissionDenied
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	db := database.GetDB()
	query := db.Model(&model.AuditLogEntry{}).Order("created_at DESC").Limit(limit)

	if actor.Role == role.Admin {
		if actor.TenantID == nil {
			return nil, ErrPermissionDenied
		}
		query = query.Joins("JOIN accounts ON accounts.id = audit_log_entries.actor_id").
			Where("accounts.tenant_id = ?", *actor.TenantID)
	}

	var entries []model.AuditLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
