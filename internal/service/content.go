package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"opinian/internal/model"
	"opinian/internal/role"
	"opinian/pkg/database"
	"opinian/prometheus"

	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify derives a URL slug from a title
func slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// uniqueSlug resolves slug collisions by suffixing a unix timestamp. The
// unique index on the slug column is the final arbiter under concurrency.
func uniqueSlug(tx *gorm.DB, title string) (string, error) {
	slug := slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title produces an empty slug: %w", ErrValidation)
	}

	var count int64
	if err := tx.Model(&model.Content{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().Unix())
	}
	return slug, nil
}

// ContentInput describes a content creation request
type ContentInput struct {
	Type          model.ContentType
	Title         string
	Body          string
	Excerpt       string
	Tags          string
	PublishIntent bool
	PublishAt     *time.Time
}

// SubmitResult reports the outcome of running the publish state machine
type SubmitResult struct {
	Content   *model.Content
	QueueItem *model.ModerationQueueItem
}

// applySubmit runs the publish state machine for an author inside tx.
// Draft intent stores a draft; roles that bypass moderation publish
// directly; everyone else lands in the moderation queue.
func applySubmit(tx *gorm.DB, content *model.Content, authorRole role.Role, publishIntent bool, publishAt *time.Time) (*model.ModerationQueueItem, error) {
	if !publishIntent {
		content.State = model.StateDraft
		return nil, nil
	}

	if role.BypassesModeration(authorRole) {
		content.State = model.StatePublished
		if content.PublishedAt == nil {
			// A supplied future timestamp is stored as-is; flipping
			// visibility at that time is the external scheduler's job.
			if publishAt != nil {
				content.PublishedAt = publishAt
			} else {
				now := time.Now().UTC()
				content.PublishedAt = &now
			}
		}
		return nil, nil
	}

	content.State = model.StatePendingModeration
	item, err := enqueue(tx, content)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateContent creates a blog post or page and runs the publish state
// machine for it.
func CreateContent(actor Actor, input ContentInput, meta RequestMeta) (*SubmitResult, error) {
	if !role.HasCapability(actor.Role, role.ContentCreate) && !role.HasCapability(actor.Role, role.ContentManage) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}

	contentType := input.Type
	if contentType == "" {
		contentType = model.ContentTypePost
	}
	if contentType != model.ContentTypePost && contentType != model.ContentTypePage {
		return nil, fmt.Errorf("unknown content type %q: %w", contentType, ErrValidation)
	}
	// Pages are reserved to roles holding page_create
	if contentType == model.ContentTypePage &&
		!role.HasCapability(actor.Role, role.PageCreate) && !role.HasCapability(actor.Role, role.ContentManage) {
		return nil, ErrPermissionDenied
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var author model.Account
	if err := database.GetDB().First(&author, actor.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if author.Banned || !author.Active {
		return nil, ErrBanned
	}

	content := model.Content{
		Type:     contentType,
		Title:    input.Title,
		Body:     input.Body,
		Excerpt:  input.Excerpt,
		Tags:     input.Tags,
		AuthorID: author.ID,
		TenantID: author.TenantID,
		State:    model.StateDraft,
	}

	var queueItem *model.ModerationQueueItem
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, input.Title)
		if err != nil {
			return err
		}
		content.Slug = slug

		if err := tx.Create(&content).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("slug %q: %w", slug, ErrDuplicate)
			}
			return err
		}

		queueItem, err = applySubmit(tx, &content, role.Role(author.Role), input.PublishIntent, input.PublishAt)
		if err != nil {
			return err
		}

		return tx.Model(&content).Select("state", "published_at").Updates(map[string]interface{}{
			"state":        content.State,
			"published_at": content.PublishedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if queueItem != nil {
		prometheus.PendingModerationGauge.Inc()
	}
	prometheus.RecordContentOperation("create", string(content.State))
	return &SubmitResult{Content: &content, QueueItem: queueItem}, nil
}

// ContentPatch carries the editable fields of a content record
type ContentPatch struct {
	Title   *string
	Body    *string
	Excerpt *string
	Tags    *string
}

// UpdateContent edits a content record and optionally resubmits it through
// the publish state machine. Editing is open to the author and to
// content_manage holders within the content's tenant. Resubmitting a record
// that already has a pending queue item fails with AlreadyPending.
func UpdateContent(actor Actor, contentID uint, patch ContentPatch, publishIntent bool, publishAt *time.Time, meta RequestMeta) (*SubmitResult, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var content model.Content
	var queueItem *model.ModerationQueueItem
	var withdrew bool

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&content, contentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
			}
			return err
		}

		if content.AuthorID != actor.AccountID && !actor.canModerate(content.TenantID) {
			// existence stays hidden outside the tenant
			return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
		}

		var author model.Account
		if err := tx.First(&author, content.AuthorID).Error; err != nil {
			return err
		}
		if content.AuthorID == actor.AccountID && (author.Banned || !author.Active) {
			return ErrBanned
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
			content.Title = *patch.Title
		}
		if patch.Body != nil {
			updates["body"] = *patch.Body
			content.Body = *patch.Body
		}
		if patch.Excerpt != nil {
			updates["excerpt"] = *patch.Excerpt
			content.Excerpt = *patch.Excerpt
		}
		if patch.Tags != nil {
			updates["tags"] = *patch.Tags
			content.Tags = *patch.Tags
		}
		if len(updates) > 0 {
			if err := tx.Model(&content).Updates(updates).Error; err != nil {
				return err
			}
		}

		if publishIntent && content.State == model.StatePendingModeration {
			return fmt.Errorf("content %d: %w", contentID, ErrAlreadyPending)
		}
		if content.State == model.StatePublished {
			// already live; edits do not change publish state
			return nil
		}

		wasPending := content.State == model.StatePendingModeration

		item, err := applySubmit(tx, &content, role.Role(author.Role), publishIntent, publishAt)
		if err != nil {
			return err
		}
		queueItem = item

		// Withdrawing a pending submission reverts it to draft; the
		// pending queue item is cancelled in the same transaction so the
		// record can be resubmitted and reviewers cannot act on it.
		if wasPending && !publishIntent {
			res := tx.Model(&model.ModerationQueueItem{}).
				Where("content_id = ? AND status = ?", content.ID, model.QueuePending).
				Update("status", model.QueueCancelled)
			if res.Error != nil {
				return res.Error
			}
			withdrew = res.RowsAffected > 0
		}

		return tx.Model(&content).Select("state", "published_at").Updates(map[string]interface{}{
			"state":        content.State,
			"published_at": content.PublishedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if queueItem != nil {
		prometheus.PendingModerationGauge.Inc()
	}
	if withdrew {
		prometheus.PendingModerationGauge.Dec()
	}
	prometheus.RecordContentOperation("update", string(content.State))
	return &SubmitResult{Content: &content, QueueItem: queueItem}, nil
}

// Unpublish reverts a published record to draft. Only content_manage
// holders for the record's tenant (or SuperAdmin) may unpublish. The
// published_at timestamp is kept; it is set exactly once.
func Unpublish(actor Actor, contentID uint, meta RequestMeta) (*model.Content, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var content model.Content
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&content, contentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
			}
			return err
		}

		if !actor.canModerate(content.TenantID) {
			return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
		}

		if content.State != model.StatePublished {
			return fmt.Errorf("content %d is not published: %w", contentID, ErrValidation)
		}

		if err := tx.Model(&content).Update("state", model.StateDraft).Error; err != nil {
			return err
		}
		content.State = model.StateDraft

		return appendAudit(tx, actor.AccountID, "unpublish_content", string(content.Type), &content.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordContentOperation("unpublish", string(content.State))
	return &content, nil
}

// GetContent returns a single content record. Published records are public;
// drafts and pending records are visible to their author and to reviewers
// of the record's tenant.
func GetContent(actor Actor, contentID uint) (*model.Content, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var content model.Content
	if err := database.GetDB().First(&content, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %d: %w", contentID, ErrNotFound)
		}
		return nil, err
	}

	if content.State != model.StatePublished &&
		content.AuthorID != actor.AccountID && !actor.canModerate(content.TenantID) {
		return nil, fmt.Errorf("content %d: %w", contentID, ErrNotFound)
	}

	return &content, nil
}
