package notify

import (
	"opinian/pkg/logger"

	"go.uber.org/zap"
)

// Notification describes a moderation decision to be delivered to an author.
// Delivery itself (email, etc.) is an external collaborator's job.
type Notification struct {
	AuthorEmail  string
	AuthorName   string
	ContentType  string
	ContentTitle string
	Decision     string
	Notes        string
}

// Notifier delivers moderation decisions to authors. Implementations are
// best-effort; callers never fail an operation on a delivery error.
type Notifier interface {
	Notify(n Notification) error
}

// LogNotifier writes notifications to the service log. It stands in for the
// external delivery collaborator.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) error {
	logger.GetLogger().Info("Author notification",
		zap.String("author_email", n.AuthorEmail),
		zap.String("author_name", n.AuthorName),
		zap.String("content_type", n.ContentType),
		zap.String("content_title", n.ContentTitle),
		zap.String("decision", n.Decision),
		zap.String("notes", n.Notes),
	)
	return nil
}
