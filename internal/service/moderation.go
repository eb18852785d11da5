package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opinian/internal/model"
	"opinian/internal/notify"
	"opinian/internal/role"
	"opinian/pkg/database"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// notifier delivers moderation decisions to authors. Replaced in tests and
// wired to the real collaborator in main.
var notifier notify.Notifier = notify.LogNotifier{}

// SetNotifier installs the notifier used for moderation decisions
func SetNotifier(n notify.Notifier) {
	if n != nil {
		notifier = n
	}
}

// Decision is a moderation outcome
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// enqueue creates a pending queue item for content inside tx. The partial
// unique index turns a concurrent duplicate into AlreadyPending. Gauge
// updates are the caller's job after the transaction commits.
func enqueue(tx *gorm.DB, content *model.Content) (*model.ModerationQueueItem, error) {
	item := model.ModerationQueueItem{
		ContentType: content.Type,
		ContentID:   content.ID,
		Status:      model.QueuePending,
	}

	if err := tx.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("content %d: %w", content.ID, ErrAlreadyPending)
		}
		return nil, err
	}

	return &item, nil
}

// Resolve applies an approve/reject decision to a pending queue item. The
// status flip is an atomic conditional update so two concurrent reviewers
// produce one winner and one AlreadyResolved, never a double publish or a
// double notification. The author notification runs after commit and its
// failure never rolls back the decision.
func Resolve(actor Actor, itemID uint, decision Decision, notes string, meta RequestMeta) (*model.ModerationQueueItem, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("unknown decision %q: %w", decision, ErrValidation)
	}
	if decision == DecisionReject && strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("review notes are required to reject: %w", ErrValidation)
	}
	if actor.Role != role.SuperAdmin && !role.HasCapability(actor.Role, role.ContentManage) {
		return nil, ErrPermissionDenied
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var item model.ModerationQueueItem
	var content model.Content
	var author model.Account

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("queue item %d: %w", itemID, ErrNotFound)
			}
			return err
		}

		if err := tx.First(&content, item.ContentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("content %d: %w", item.ContentID, ErrNotFound)
			}
			return err
		}

		// tenant scoping: existence of another tenant's queue is hidden
		if !actor.canModerate(content.TenantID) {
			return fmt.Errorf("queue item %d: %w", itemID, ErrNotFound)
		}

		now := time.Now().UTC()
		newStatus := model.QueueApproved
		if decision == DecisionReject {
			newStatus = model.QueueRejected
		}

		// one winner under concurrency: only a still-pending row flips
		res := tx.Model(&model.ModerationQueueItem{}).
			Where("id = ? AND status = ?", item.ID, model.QueuePending).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"reviewed_by":  actor.AccountID,
				"review_notes": notes,
				"reviewed_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("queue item %d: %w", itemID, ErrAlreadyResolved)
		}

		item.Status = newStatus
		item.ReviewedBy = &actor.AccountID
		item.ReviewNotes = notes
		item.ReviewedAt = &now

		if decision == DecisionApprove {
			updates := map[string]interface{}{"state": model.StatePublished}
			if content.PublishedAt == nil {
				updates["published_at"] = now
				content.PublishedAt = &now
			}
			if err := tx.Model(&content).Updates(updates).Error; err != nil {
				return err
			}
			content.State = model.StatePublished
		} else {
			// a rejected record reverts to draft so the author can
			// revise and resubmit; the queue item keeps the history
			if err := tx.Model(&content).Updates(map[string]interface{}{
				"state":           model.StateDraft,
				"rejection_count": gorm.Expr("rejection_count + 1"),
			}).Error; err != nil {
				return err
			}
			content.State = model.StateDraft
			content.RejectionCount++
		}

		if err := tx.First(&author, content.AuthorID).Error; err != nil {
			return err
		}

		return appendAudit(tx, actor.AccountID, "moderate_"+string(decision), string(content.Type), &content.ID, meta, map[string]interface{}{
			"queue_item_id": item.ID,
			"notes":         notes,
		})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordModerationDecision(string(decision))
	prometheus.PendingModerationGauge.Dec()

	// decision is durable; delivery is best-effort and decoupled
	go func(n notify.Notification) {
		if err := notifier.Notify(n); err != nil {
			prometheus.RecordNotification("failed")
			logger.GetLogger().Warn("Author notification failed",
				zap.String("author_email", n.AuthorEmail),
				zap.Error(err))
			return
		}
		prometheus.RecordNotification("sent")
	}(notify.Notification{
		AuthorEmail:  author.Email,
		AuthorName:   author.Username,
		ContentType:  string(content.Type),
		ContentTitle: content.Title,
		Decision:     string(decision),
		Notes:        notes,
	})

	return &item, nil
}

// BulkResult reports per-item outcomes of a bulk resolution
type BulkResult struct {
	Succeeded []uint          `json:"succeeded"`
	Failed    map[uint]string `json:"failed"`
}

// BulkResolve applies a decision to several queue items. Failures are
// reported per item; one bad item never blocks the rest.
func BulkResolve(actor Actor, itemIDs []uint, decision Decision, notes string, meta RequestMeta) BulkResult {
	result := BulkResult{Failed: map[uint]string{}}
	for _, id := range itemIDs {
		if _, err := Resolve(actor, id, decision, notes, meta); err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// PendingItem is a queue item joined with its content summary for review
// listings
type PendingItem struct {
	Item    model.ModerationQueueItem `json:"item"`
	Content model.Content             `json:"content"`
}

// ListPending returns the pending queue scoped to the actor: SuperAdmin
// sees every tenant and may narrow to one, Admin only ever its own.
// Scoping is applied in the query, not left to the caller.
func ListPending(actor Actor, tenantFilter *uint) ([]PendingItem, error) {
	if actor.Role != role.SuperAdmin && !role.HasCapability(actor.Role, role.ContentManage) {
		return nil, ErrPermissionDenied
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Model(&model.ModerationQueueItem{}).
		Where("moderation_queue_items.status = ?", model.QueuePending).
		Joins("JOIN contents ON contents.id = moderation_queue_items.content_id").
		Order("moderation_queue_items.created_at ASC")

	if actor.Role != role.SuperAdmin {
		if actor.TenantID == nil {
			return nil, ErrPermissionDenied
		}
		query = query.Where("contents.tenant_id = ?", *actor.TenantID)
	} else if tenantFilter != nil {
		query = query.Where("contents.tenant_id = ?", *tenantFilter)
	}

	var items []model.ModerationQueueItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	out := make([]PendingItem, 0, len(items))
	for _, item := range items {
		var content model.Content
		if err := database.GetDB().First(&content, item.ContentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, PendingItem{Item: item, Content: content})
	}
	return out, nil
}
