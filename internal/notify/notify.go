package notify

import (
	"github.com/kinshiphq/backend/internal/logger"
	"github.com/kinshiphq/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service records notification rows for user inboxes. Delivery failures are
// logged and swallowed so a broken inbox never fails the triggering request.
type Service struct {
	db *gorm.DB
}

// NewService creates a notification service on top of the given DB handle
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Notify records a notification for userID about an action by actorID.
// Self-notifications are dropped silently.
func (s *Service) Notify(userID, actorID string, notifType models.NotificationType, targetID, message string) {
	if userID == actorID {
		return
	}

	notification := models.Notification{
		UserID:   userID,
		ActorID:  actorID,
		Type:     notifType,
		TargetID: targetID,
		Message:  message,
	}

	if err := s.db.Create(&notification).Error; err != nil {
		logger.Log.Warn("failed to record notification",
			zap.String("user_id", userID),
			zap.String("actor_id", actorID),
			zap.String("type", string(notifType)),
			zap.Error(err),
		)
	}
}
