package handler

import (
	"net/http"
	"strconv"
	"time"

	"opinian/internal/middleware"
	"opinian/internal/model"
	"opinian/internal/service"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateContent creates a blog post or page. The resulting publish state
// depends on the author's role: bypassing roles publish directly, everyone
// else is queued for moderation.
func CreateContent(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Type          string     `json:"type,omitempty"`
		Title         string     `json:"title"`
		Body          string     `json:"body"`
		Excerpt       string     `json:"excerpt,omitempty"`
		Tags          string     `json:"tags,omitempty"`
		PublishIntent bool       `json:"publish_intent"`
		PublishAt     *time.Time `json:"publish_at,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse content creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := service.CreateContent(actor, service.ContentInput{
		Type:          model.ContentType(req.Type),
		Title:         req.Title,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		Tags:          req.Tags,
		PublishIntent: req.PublishIntent,
		PublishAt:     req.PublishAt,
	}, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Content created",
		zap.Uint("content_id", result.Content.ID),
		zap.String("slug", result.Content.Slug),
		zap.String("state", string(result.Content.State)),
		zap.Uint("author_id", actor.AccountID))

	response := echo.Map{
		"message": "Content created successfully",
		"content": result.Content,
		"state":   result.Content.State,
	}
	if result.QueueItem != nil {
		response["queue_item"] = result.QueueItem
	}
	return c.JSON(http.StatusCreated, response)
}

// UpdateContent edits a content record and optionally resubmits it for
// publication
func UpdateContent(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_content_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content ID"})
	}

	var req struct {
		Title         *string    `json:"title,omitempty"`
		Body          *string    `json:"body,omitempty"`
		Excerpt       *string    `json:"excerpt,omitempty"`
		Tags          *string    `json:"tags,omitempty"`
		PublishIntent bool       `json:"publish_intent"`
		PublishAt     *time.Time `json:"publish_at,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse content update request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := service.UpdateContent(actor, uint(id), service.ContentPatch{
		Title:   req.Title,
		Body:    req.Body,
		Excerpt: req.Excerpt,
		Tags:    req.Tags,
	}, req.PublishIntent, req.PublishAt, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Content updated",
		zap.Uint("content_id", result.Content.ID),
		zap.String("state", string(result.Content.State)),
		zap.Uint("updated_by", actor.AccountID))

	response := echo.Map{
		"message": "Content updated successfully",
		"content": result.Content,
		"state":   result.Content.State,
	}
	if result.QueueItem != nil {
		response["queue_item"] = result.QueueItem
	}
	return c.JSON(http.StatusOK, response)
}

// GetContent retrieves a single content record
func GetContent(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_content_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content ID"})
	}

	content, err := service.GetContent(actor, uint(id))
	if err != nil {
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, content)
}

// UnpublishContent reverts a published record to draft
func UnpublishContent(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_content_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content ID"})
	}

	content, err := service.Unpublish(actor, uint(id), requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Content unpublished",
		zap.Uint("content_id", content.ID),
		zap.Uint("unpublished_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Content unpublished successfully",
		"content": content,
	})
}
